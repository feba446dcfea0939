package wakeword

import (
	"fmt"
	"testing"
	"time"

	"github.com/voxsat/satellite/internal/domain"
	"github.com/voxsat/satellite/internal/logger"
)

func fakeLoader(models map[string]domain.WakeWordModel) Loader {
	return func(id string) (domain.WakeWordModel, Classifier, error) {
		m, ok := models[id]
		if !ok {
			return domain.WakeWordModel{}, nil, fmt.Errorf("no such model %q", id)
		}
		return m, &scriptedClassifier{scores: []float32{0.9, 0.9, 0.9, 0.9}, failAt: -1}, nil
	}
}

func TestPoolSetActiveLoadsAndDrops(t *testing.T) {
	log := logger.New(logger.LevelOff, nil)
	models := map[string]domain.WakeWordModel{}
	for _, id := range []string{"a", "b"} {
		m := testModel(1, 1, 0.5, time.Second)
		m.ID = id
		models[id] = m
	}

	p := NewPool(fakeLoader(models), log)

	if err := p.SetActive([]string{"a"}); err != nil {
		t.Fatal(err)
	}
	if got := p.ActiveIDs(); len(got) != 1 || got[0] != "a" {
		t.Fatalf("expected [a], got %v", got)
	}
	if !p.ConsumeDirty() {
		t.Fatal("expected dirty flag after SetActive")
	}
	if p.ConsumeDirty() {
		t.Fatal("dirty flag should clear after consuming")
	}

	if err := p.SetActive([]string{"b"}); err != nil {
		t.Fatal(err)
	}
	if got := p.ActiveIDs(); len(got) != 1 || got[0] != "b" {
		t.Fatalf("expected [b] after hot-swap, got %v", got)
	}
}

func TestPoolFeedAllDeterministicOrder(t *testing.T) {
	log := logger.New(logger.LevelOff, nil)
	models := map[string]domain.WakeWordModel{}
	for _, id := range []string{"a", "z"} {
		m := testModel(1, 1, 0.5, time.Second)
		m.ID = id
		models[id] = m
	}

	p := NewPool(fakeLoader(models), log)
	p.SetActive([]string{"z", "a"})

	frame := make(domain.FeatureFrame, domain.FeatureWidth)
	id, fired := p.FeedAll(frame, time.Now())
	if !fired {
		t.Fatal("expected a detection")
	}
	if id != "a" {
		t.Fatalf("expected sorted order to try %q first, got %q", "a", id)
	}
}

func TestPoolStopWordRequiresArm(t *testing.T) {
	log := logger.New(logger.LevelOff, nil)
	p := NewPool(fakeLoader(nil), log)
	sw, err := NewDetector(testModel(1, 1, 0.5, time.Second), &scriptedClassifier{scores: []float32{0.9}, failAt: -1}, log)
	if err != nil {
		t.Fatal(err)
	}
	p.SetStopWord(sw)

	frame := make(domain.FeatureFrame, domain.FeatureWidth)
	if p.FeedStopWord(frame, time.Now()) {
		t.Fatal("stop-word should not fire while disarmed")
	}
}
