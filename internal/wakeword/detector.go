// Package wakeword implements the streaming wake-word detector: a
// stride-based feature accumulator feeding a per-model classifier
// under a sliding-probability window with refractory gating.
package wakeword

import (
	"fmt"
	"sync"
	"time"

	"github.com/voxsat/satellite/internal/domain"
	"github.com/voxsat/satellite/internal/logger"
)

// Detector runs the algorithm of one WakeWordModel over a stream of
// FeatureFrames. Its methods serialize on an internal mutex; in
// practice the detector context feeds frames to it sequentially.
type Detector struct {
	model      domain.WakeWordModel
	classifier Classifier
	log        *logger.Logger

	mu          sync.Mutex
	accum       []domain.FeatureFrame
	probs       []float32
	ignoreUntil time.Time
	faulted     bool
}

// NewDetector constructs a Detector for model, backed by classifier.
func NewDetector(model domain.WakeWordModel, classifier Classifier, log *logger.Logger) (*Detector, error) {
	if !model.Valid() {
		return nil, fmt.Errorf("wakeword: model %q: %w", model.ID, domain.ErrInvalidModel)
	}
	return &Detector{
		model:      model,
		classifier: classifier,
		log:        log,
		accum:      make([]domain.FeatureFrame, 0, model.Stride),
		probs:      make([]float32, 0, model.Window),
	}, nil
}

// Faulted reports whether the classifier runtime has failed; a
// faulted detector is a permanent no-op until Reload.
func (d *Detector) Faulted() bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.faulted
}

// Model returns the model this detector was built from.
func (d *Detector) Model() domain.WakeWordModel { return d.model }

// Reload replaces the classifier and clears the faulted flag, for use
// after a model-load failure has been fixed (e.g. file restored).
func (d *Detector) Reload(classifier Classifier) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.classifier = classifier
	d.faulted = false
	d.accum = d.accum[:0]
	d.probs = d.probs[:0]
}

// Reset drops buffered frames and probabilities without touching the
// faulted flag or refractory deadline.
func (d *Detector) Reset() {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.accum = d.accum[:0]
	d.probs = d.probs[:0]
}

// Feed advances detector state by one frame. It returns true exactly
// once when a detection fires (mean probability over the sliding
// window exceeds the model's cutoff and the refractory deadline has
// elapsed).
func (d *Detector) Feed(frame domain.FeatureFrame, now time.Time) (bool, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.faulted {
		return false, nil
	}

	d.accum = append(d.accum, frame)
	if len(d.accum) < d.model.Stride {
		return false, nil
	}

	p, err := d.classifier.Score(d.accum)
	d.accum = d.accum[:0]
	if err != nil {
		d.faulted = true
		d.log.Error("wakeword: %s: classifier failed, marking faulted: %v", d.model.ID, err)
		return false, err
	}

	if len(d.probs) >= d.model.Window {
		copy(d.probs, d.probs[1:])
		d.probs = d.probs[:len(d.probs)-1]
	}
	d.probs = append(d.probs, p)

	if len(d.probs) < d.model.Window {
		return false, nil
	}

	var sum float32
	for _, v := range d.probs {
		sum += v
	}
	mean := sum / float32(len(d.probs))

	if mean > d.model.Cutoff && !now.Before(d.ignoreUntil) {
		d.ignoreUntil = now.Add(d.model.Refractory)
		d.log.Info("wakeword: %s detected (mean=%.4f cutoff=%.4f)", d.model.ID, mean, d.model.Cutoff)
		return true, nil
	}
	return false, nil
}
