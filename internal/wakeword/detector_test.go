package wakeword

import (
	"errors"
	"testing"
	"time"

	"github.com/voxsat/satellite/internal/domain"
	"github.com/voxsat/satellite/internal/logger"
)

type scriptedClassifier struct {
	scores []float32
	i      int
	failAt int // -1 disables
}

func (c *scriptedClassifier) Score(frames []domain.FeatureFrame) (float32, error) {
	if c.failAt >= 0 && c.i == c.failAt {
		c.i++
		return 0, errors.New("boom")
	}
	if c.i >= len(c.scores) {
		return 0, nil
	}
	s := c.scores[c.i]
	c.i++
	return s, nil
}

func (c *scriptedClassifier) Close() error { return nil }

func testModel(window, stride int, cutoff float32, refractory time.Duration) domain.WakeWordModel {
	return domain.WakeWordModel{
		ID:         "test",
		Phrase:     "hey test",
		Cutoff:     cutoff,
		Window:     window,
		Stride:     stride,
		Refractory: refractory,
	}
}

func feedN(t *testing.T, d *Detector, n int, at time.Time) []bool {
	t.Helper()
	frame := make(domain.FeatureFrame, domain.FeatureWidth)
	var fires []bool
	for i := 0; i < n; i++ {
		fired, err := d.Feed(frame, at)
		if err != nil {
			t.Fatalf("feed: %v", err)
		}
		fires = append(fires, fired)
	}
	return fires
}

func TestDetectorRequiresStrideBeforeScoring(t *testing.T) {
	log := logger.New(logger.LevelOff, nil)
	cls := &scriptedClassifier{scores: []float32{0.9}, failAt: -1}
	d, err := NewDetector(testModel(1, 2, 0.5, time.Second), cls, log)
	if err != nil {
		t.Fatal(err)
	}

	frame := make(domain.FeatureFrame, domain.FeatureWidth)
	fired, _ := d.Feed(frame, time.Now())
	if fired {
		t.Fatal("should not score before stride frames accumulated")
	}
	if cls.i != 0 {
		t.Fatalf("classifier should not have been invoked yet, called %d times", cls.i)
	}
}

func TestDetectorFiresWhenMeanExceedsCutoff(t *testing.T) {
	log := logger.New(logger.LevelOff, nil)
	// window=2, stride=1: every frame scores directly.
	cls := &scriptedClassifier{scores: []float32{0.9, 0.9}, failAt: -1}
	d, err := NewDetector(testModel(2, 1, 0.5, time.Second), cls, log)
	if err != nil {
		t.Fatal(err)
	}

	now := time.Now()
	fires := feedN(t, d, 2, now)
	if fires[0] {
		t.Fatal("should not fire before window fills")
	}
	if !fires[1] {
		t.Fatal("expected detection once window mean exceeds cutoff")
	}
}

func TestDetectorNeverFiresBelowCutoff(t *testing.T) {
	log := logger.New(logger.LevelOff, nil)
	scores := make([]float32, 50)
	for i := range scores {
		scores[i] = 0.1
	}
	cls := &scriptedClassifier{scores: scores, failAt: -1}
	d, err := NewDetector(testModel(3, 1, 0.5, time.Second), cls, log)
	if err != nil {
		t.Fatal(err)
	}

	fires := feedN(t, d, len(scores), time.Now())
	for i, f := range fires {
		if f {
			t.Fatalf("unexpected fire at index %d with all scores below cutoff", i)
		}
	}
}

func TestDetectorRespectsRefractoryPeriod(t *testing.T) {
	log := logger.New(logger.LevelOff, nil)
	scores := []float32{0.9, 0.9, 0.9, 0.9, 0.9, 0.9}
	cls := &scriptedClassifier{scores: scores, failAt: -1}
	d, err := NewDetector(testModel(1, 1, 0.5, 2*time.Second), cls, log)
	if err != nil {
		t.Fatal(err)
	}

	base := time.Now()
	fire1, _ := d.Feed(make(domain.FeatureFrame, domain.FeatureWidth), base)
	if !fire1 {
		t.Fatal("expected first feed to fire (window=1)")
	}

	fire2, _ := d.Feed(make(domain.FeatureFrame, domain.FeatureWidth), base.Add(time.Second))
	if fire2 {
		t.Fatal("should be suppressed within refractory period")
	}

	fire3, _ := d.Feed(make(domain.FeatureFrame, domain.FeatureWidth), base.Add(3*time.Second))
	if !fire3 {
		t.Fatal("expected a new detection once refractory period elapsed")
	}
}

func TestDetectorFaultsOnClassifierError(t *testing.T) {
	log := logger.New(logger.LevelOff, nil)
	cls := &scriptedClassifier{scores: []float32{0.9}, failAt: 0}
	d, err := NewDetector(testModel(1, 1, 0.5, time.Second), cls, log)
	if err != nil {
		t.Fatal(err)
	}

	_, err = d.Feed(make(domain.FeatureFrame, domain.FeatureWidth), time.Now())
	if err == nil {
		t.Fatal("expected classifier error to propagate")
	}
	if !d.Faulted() {
		t.Fatal("expected detector to be marked faulted")
	}

	fired, err := d.Feed(make(domain.FeatureFrame, domain.FeatureWidth), time.Now())
	if err != nil || fired {
		t.Fatal("faulted detector must be a no-op until Reload")
	}

	d.Reload(&scriptedClassifier{scores: []float32{0.9}, failAt: -1})
	if d.Faulted() {
		t.Fatal("Reload should clear the faulted flag")
	}
}

func TestDetectorRejectsInvalidModel(t *testing.T) {
	log := logger.New(logger.LevelOff, nil)
	_, err := NewDetector(testModel(0, 1, 0.5, time.Second), &scriptedClassifier{failAt: -1}, log)
	if !errors.Is(err, domain.ErrInvalidModel) {
		t.Fatalf("expected ErrInvalidModel, got %v", err)
	}
}
