package catalog

import (
	"os"
	"path/filepath"
	"testing"
)

func writeManifest(t *testing.T, dir, id, artifact string) {
	t.Helper()
	manifest := `
kind: onnx
phrase: "okay test"
artifact: ` + artifact + `
languages: ["en"]
cutoff: 0.5
window: 10
stride: 2
refractory_seconds: 2.5
`
	if err := os.WriteFile(filepath.Join(dir, id+".yaml"), []byte(manifest), 0o644); err != nil {
		t.Fatalf("write manifest: %v", err)
	}
	if err := os.WriteFile(filepath.Join(dir, artifact), []byte{0xDE, 0xAD}, 0o644); err != nil {
		t.Fatalf("write artifact: %v", err)
	}
}

func TestLoadDiscoversManifests(t *testing.T) {
	dir := t.TempDir()
	writeManifest(t, dir, "okay_test", "okay_test.onnx")

	c, err := Load([]string{dir})
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	entry, ok := c.Get("okay_test")
	if !ok {
		t.Fatal("expected entry okay_test")
	}
	if entry.Phrase != "okay test" || entry.Window != 10 || entry.Stride != 2 {
		t.Fatalf("unexpected entry: %+v", entry)
	}
	if entry.Refractory.Seconds() != 2.5 {
		t.Fatalf("unexpected refractory: %v", entry.Refractory)
	}
}

func TestWakeWordModelReadsArtifact(t *testing.T) {
	dir := t.TempDir()
	writeManifest(t, dir, "okay_test", "okay_test.onnx")

	c, err := Load([]string{dir})
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	entry, _ := c.Get("okay_test")
	model, err := entry.WakeWordModel()
	if err != nil {
		t.Fatalf("wake word model: %v", err)
	}
	if !model.Valid() {
		t.Fatalf("expected valid model, got %+v", model)
	}
	if len(model.Artifact) != 2 {
		t.Fatalf("expected 2-byte artifact, got %d", len(model.Artifact))
	}
}

func TestGetMissingIDReturnsFalse(t *testing.T) {
	c, err := Load([]string{t.TempDir()})
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if _, ok := c.Get("nope"); ok {
		t.Fatal("expected missing ID to not be found")
	}
}
