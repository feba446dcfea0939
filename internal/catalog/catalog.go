// Package catalog loads the on-disk wake-word model manifests: one
// YAML file per model, each declaring the classifier artifact path
// (resolved relative to the manifest) and the detector parameters the
// spec requires.
package catalog

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/voxsat/satellite/internal/domain"
)

// manifest is the on-disk shape of one model directory entry.
type manifest struct {
	Kind             string   `yaml:"kind"`
	Phrase           string   `yaml:"phrase"`
	ArtifactFile     string   `yaml:"artifact"`
	TrainedLanguages []string `yaml:"languages"`
	Cutoff           float32  `yaml:"cutoff"`
	Window           int      `yaml:"window"`
	Stride           int      `yaml:"stride"`
	RefractorySecs   float64  `yaml:"refractory_seconds"`
}

// Entry is one catalog entry: the model's metadata plus the resolved
// path to its classifier artifact, which is read lazily on load.
type Entry struct {
	ID               string
	Phrase           string
	TrainedLanguages []string
	ArtifactPath     string
	Cutoff           float32
	Window           int
	Stride           int
	Refractory       time.Duration
}

// Catalog holds every manifest discovered under one or more model
// directories, keyed by model ID (the manifest's file name stem).
type Catalog struct {
	entries map[string]Entry
}

// Load walks dirs (each a directory of manifests) and returns a
// Catalog indexing every *.yaml manifest found. A model ID collision
// across directories is resolved last-directory-wins.
func Load(dirs []string) (*Catalog, error) {
	c := &Catalog{entries: make(map[string]Entry)}
	for _, dir := range dirs {
		if err := c.loadDir(dir); err != nil {
			return nil, err
		}
	}
	return c, nil
}

func (c *Catalog) loadDir(dir string) error {
	matches, err := filepath.Glob(filepath.Join(dir, "*.yaml"))
	if err != nil {
		return err
	}
	for _, path := range matches {
		entry, err := loadManifest(path)
		if err != nil {
			return fmt.Errorf("catalog: %s: %w", path, err)
		}
		c.entries[entry.ID] = entry
	}
	return nil
}

func loadManifest(path string) (Entry, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Entry{}, err
	}
	var m manifest
	if err := yaml.Unmarshal(data, &m); err != nil {
		return Entry{}, err
	}

	id := strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	return Entry{
		ID:               id,
		Phrase:           m.Phrase,
		TrainedLanguages: m.TrainedLanguages,
		ArtifactPath:     filepath.Join(filepath.Dir(path), m.ArtifactFile),
		Cutoff:           m.Cutoff,
		Window:           m.Window,
		Stride:           m.Stride,
		Refractory:       time.Duration(m.RefractorySecs * float64(time.Second)),
	}, nil
}

// Get returns the entry for id, if present.
func (c *Catalog) Get(id string) (Entry, bool) {
	e, ok := c.entries[id]
	return e, ok
}

// List returns every entry, in no particular order.
func (c *Catalog) List() []Entry {
	out := make([]Entry, 0, len(c.entries))
	for _, e := range c.entries {
		out = append(out, e)
	}
	return out
}

// WakeWordModel builds a domain.WakeWordModel for entry e, reading its
// artifact file from disk.
func (e Entry) WakeWordModel() (domain.WakeWordModel, error) {
	artifact, err := os.ReadFile(e.ArtifactPath)
	if err != nil {
		return domain.WakeWordModel{}, err
	}
	return domain.WakeWordModel{
		ID:         e.ID,
		Phrase:     e.Phrase,
		Languages:  e.TrainedLanguages,
		Artifact:   artifact,
		Cutoff:     e.Cutoff,
		Window:     e.Window,
		Refractory: e.Refractory,
		Stride:     e.Stride,
	}, nil
}
