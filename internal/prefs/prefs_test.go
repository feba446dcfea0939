package prefs

import (
	"path/filepath"
	"testing"

	"github.com/voxsat/satellite/internal/domain"
	"github.com/voxsat/satellite/internal/logger"
)

func TestLoadMissingFileYieldsDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "prefs.yaml")
	s, err := Load(path, logger.New(logger.LevelOff, nil))
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	got, want := s.Get(), domain.DefaultPreferences()
	if got.VolumeLevel != want.VolumeLevel || got.LEDCount != want.LEDCount || len(got.ActiveWakeWordIDs) != len(want.ActiveWakeWordIDs) {
		t.Fatalf("got %+v want %+v", got, want)
	}
}

func TestSaveThenLoadRoundTrips(t *testing.T) {
	path := filepath.Join(t.TempDir(), "prefs.yaml")
	log := logger.New(logger.LevelOff, nil)

	s, err := Load(path, log)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	want := domain.Preferences{ActiveWakeWordIDs: []string{"okay_nabu"}, VolumeLevel: 42, LEDCount: 3}
	if err := s.Save(want); err != nil {
		t.Fatalf("save: %v", err)
	}

	reloaded, err := Load(path, log)
	if err != nil {
		t.Fatalf("reload: %v", err)
	}
	if got := reloaded.Get(); got.VolumeLevel != want.VolumeLevel || len(got.ActiveWakeWordIDs) != 1 || got.ActiveWakeWordIDs[0] != "okay_nabu" || got.LEDCount != 3 {
		t.Fatalf("got %+v want %+v", got, want)
	}
}

func TestSetActiveWakeWordsPersists(t *testing.T) {
	path := filepath.Join(t.TempDir(), "prefs.yaml")
	log := logger.New(logger.LevelOff, nil)
	s, _ := Load(path, log)

	if err := s.SetActiveWakeWords([]string{"a", "b"}); err != nil {
		t.Fatalf("set: %v", err)
	}
	reloaded, err := Load(path, log)
	if err != nil {
		t.Fatalf("reload: %v", err)
	}
	got := reloaded.Get().ActiveWakeWordIDs
	if len(got) != 2 || got[0] != "a" || got[1] != "b" {
		t.Fatalf("unexpected active ids: %v", got)
	}
}
