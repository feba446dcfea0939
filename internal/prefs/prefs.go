// Package prefs persists the satellite's small durable document:
// active wake-word IDs, volume level, and LED count. It is loaded
// once at startup and rewritten in full on every mutation.
package prefs

import (
	"os"
	"sync"

	"gopkg.in/yaml.v3"

	"github.com/voxsat/satellite/internal/domain"
	"github.com/voxsat/satellite/internal/logger"
)

// Store owns the on-disk preferences document and keeps an in-memory
// copy current with it. Safe for concurrent use; the protocol context
// is the sole writer per the satellite's concurrency model.
type Store struct {
	path string
	log  *logger.Logger

	mu  sync.RWMutex
	doc domain.Preferences
}

// Load reads path, falling back to domain.DefaultPreferences if the
// file does not yet exist. A malformed file is a programmer/operator
// error and is returned rather than silently discarded.
func Load(path string, log *logger.Logger) (*Store, error) {
	s := &Store{path: path, log: log, doc: domain.DefaultPreferences()}

	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		log.Info("prefs: no file at %s, starting with defaults", path)
		return s, nil
	}
	if err != nil {
		return nil, err
	}

	var doc domain.Preferences
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, err
	}
	s.doc = doc
	return s, nil
}

// Get returns a copy of the current document.
func (s *Store) Get() domain.Preferences {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.doc
}

// Save replaces the in-memory document with doc and rewrites the file
// in full, via a temp file and rename so a crash mid-write never
// leaves a truncated document behind.
func (s *Store) Save(doc domain.Preferences) error {
	s.mu.Lock()
	s.doc = doc
	s.mu.Unlock()

	data, err := yaml.Marshal(doc)
	if err != nil {
		return err
	}
	tmp := s.path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		s.log.Error("prefs: failed to write %s: %v", tmp, err)
		return err
	}
	if err := os.Rename(tmp, s.path); err != nil {
		s.log.Error("prefs: failed to replace %s: %v", s.path, err)
		return err
	}
	return nil
}

// SetActiveWakeWords updates and persists just the active-wake-word
// set, leaving volume and LED count untouched.
func (s *Store) SetActiveWakeWords(ids []string) error {
	doc := s.Get()
	doc.ActiveWakeWordIDs = append([]string(nil), ids...)
	return s.Save(doc)
}

// SetVolume updates and persists just the volume level.
func (s *Store) SetVolume(pct int) error {
	doc := s.Get()
	doc.VolumeLevel = pct
	return s.Save(doc)
}
