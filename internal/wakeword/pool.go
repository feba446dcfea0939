package wakeword

import (
	"sort"
	"sync"
	"sync/atomic"
	"time"

	"github.com/voxsat/satellite/internal/domain"
	"github.com/voxsat/satellite/internal/logger"
)

// Loader loads a model and constructs its classifier on demand. It is
// supplied by the orchestrator, which owns the model catalog and the
// ONNX Runtime session lifecycle.
type Loader func(id string) (domain.WakeWordModel, Classifier, error)

// Pool manages the set of currently-active detectors plus a single
// dedicated stop-word detector. It is read from the detector context
// and written from the protocol context; SetActive/Arm/Disarm take a
// short lock, FeedAll and FeedStopWord take the same lock for the
// duration of the map read (not for classifier inference itself, which
// happens inside the per-detector lock).
type Pool struct {
	load Loader
	log  *logger.Logger

	mu     sync.Mutex
	active map[string]*Detector

	stopWord  *Detector
	stopArmed atomic.Bool
	listDirty atomic.Bool // set by SetActive, consumed by the detector context
}

// NewPool constructs an empty Pool. Until SetStopWord installs a
// stop-word detector, FeedStopWord always returns false.
func NewPool(load Loader, log *logger.Logger) *Pool {
	return &Pool{
		load:   load,
		log:    log,
		active: make(map[string]*Detector),
	}
}

// SetStopWord installs the dedicated stop-word detector.
func (p *Pool) SetStopWord(d *Detector) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.stopWord = d
}

// SetActive atomically replaces the active detector set: IDs already
// loaded are kept, new IDs are loaded via Loader, and IDs no longer
// requested are dropped. Marks the list dirty so the detector context
// picks up the change on its next tick.
func (p *Pool) SetActive(ids []string) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	want := make(map[string]bool, len(ids))
	for _, id := range ids {
		want[id] = true
	}

	for id, d := range p.active {
		if !want[id] {
			d.classifier.Close()
			delete(p.active, id)
		}
	}

	for id := range want {
		if _, ok := p.active[id]; ok {
			continue
		}
		model, classifier, err := p.load(id)
		if err != nil {
			p.log.Error("wakeword: failed to load model %q: %v", id, err)
			continue
		}
		d, err := NewDetector(model, classifier, p.log)
		if err != nil {
			p.log.Error("wakeword: failed to build detector %q: %v", id, err)
			continue
		}
		p.active[id] = d
	}

	p.listDirty.Store(true)
	return nil
}

// ActiveIDs returns the currently active model IDs, sorted.
func (p *Pool) ActiveIDs() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	ids := make([]string, 0, len(p.active))
	for id := range p.active {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// ConsumeDirty reports whether the active set changed since the last
// call, clearing the flag.
func (p *Pool) ConsumeDirty() bool {
	return p.listDirty.Swap(false)
}

// ArmStopWord / DisarmStopWord toggle whether the stop-word detector
// is allowed to fire.
func (p *Pool) ArmStopWord() { p.stopArmed.Store(true) }

func (p *Pool) DisarmStopWord() { p.stopArmed.Store(false) }

// StopWordArmed reports whether the stop-word detector may fire.
func (p *Pool) StopWordArmed() bool { return p.stopArmed.Load() }

// FeedAll feeds frame to every active detector in deterministic
// (sorted) ID order, returning the ID of the first detector that
// fired, if any.
func (p *Pool) FeedAll(frame domain.FeatureFrame, now time.Time) (string, bool) {
	p.mu.Lock()
	ids := make([]string, 0, len(p.active))
	for id := range p.active {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	detectors := make([]*Detector, len(ids))
	for i, id := range ids {
		detectors[i] = p.active[id]
	}
	p.mu.Unlock()

	firstID, anyFired := "", false
	for i, d := range detectors {
		fired, err := d.Feed(frame, now)
		if err != nil {
			continue
		}
		if fired && !anyFired {
			firstID, anyFired = ids[i], true
		}
	}
	return firstID, anyFired
}

// FeedStopWord feeds frame to the dedicated stop-word detector,
// returning true only if it fired and the stop-word is currently
// armed.
func (p *Pool) FeedStopWord(frame domain.FeatureFrame, now time.Time) bool {
	p.mu.Lock()
	sw := p.stopWord
	p.mu.Unlock()
	if sw == nil {
		return false
	}
	fired, err := sw.Feed(frame, now)
	if err != nil || !fired {
		return false
	}
	return p.StopWordArmed()
}
