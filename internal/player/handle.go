// Package player implements the two independent media-player handles
// (music and announcement): play/pause/resume/stop/duck/volume with
// single-shot completion callbacks, and the duck-coupling rule between
// the pair.
package player

import (
	"sync"

	"github.com/voxsat/satellite/internal/domain"
	"github.com/voxsat/satellite/internal/logger"
)

// OnFinished is invoked exactly once per Play call: on natural
// end-of-stream, on Stop while Playing, or never at all if superseded
// by a later Play (in which case it is cancelled, not invoked).
type OnFinished func()

// Playback is a single in-flight playback started by Backend.Play.
type Playback interface {
	Pause() error
	Resume() error
	Stop() error
	SetVolume(pct int)
	// Done is closed exactly once, when playback ends naturally or is
	// stopped. It must not be closed more than once.
	Done() <-chan struct{}
}

// Decoder fetches and decodes a URL (or local path) into PCM bytes
// ready for Backend.Play.
type Decoder interface {
	Decode(url string) ([]byte, error)
}

// Backend starts playback of already-decoded PCM at the given initial
// volume (0-100).
type Backend interface {
	Play(pcm []byte, volumePct int) (Playback, error)
}

// Handle is one of the two independent player slots (music,
// announcement). All methods are safe for concurrent use, though in
// practice they are only ever called from the protocol context per
// the satellite's concurrency model; completion notifications arrive
// through post, the thread-safe submission primitive to that context.
type Handle struct {
	name    string
	backend Backend
	decoder Decoder
	post    func(func())
	log     *logger.Logger

	mu         sync.Mutex
	state      domain.PlayerState
	volume     int
	muted      bool
	duckedFrom *int
	onFinished OnFinished
	playback   Playback
	queue      []string
	gen        uint64
}

// New constructs a Handle named name (used only for logging), backed
// by backend and decoder. post is the thread-safe closure-submission
// primitive used to marshal playback completion back onto the
// protocol context.
func New(name string, backend Backend, decoder Decoder, post func(func()), log *logger.Logger) *Handle {
	return &Handle{
		name:    name,
		backend: backend,
		decoder: decoder,
		post:    post,
		log:     log,
		state:   domain.StateIdle,
		volume:  100,
	}
}

// State returns the handle's current lifecycle state.
func (h *Handle) State() domain.PlayerState {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.state
}

// Volume returns the current (user-facing) volume level.
func (h *Handle) Volume() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.volume
}

// Muted reports whether the handle is muted.
func (h *Handle) Muted() bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.muted
}

func (h *Handle) effectiveVolume() int {
	if h.muted {
		return 0
	}
	return h.volume
}

// Play replaces any current content with urls, playing each in order.
// Any pending on_finished on this handle is cancelled (not invoked)
// before playback starts. A decode failure is treated as a player
// failure per the error taxonomy: it surfaces as an immediate
// "finished" completion rather than propagating an error.
func (h *Handle) Play(urls []string, onFinished OnFinished) error {
	if len(urls) == 0 {
		return nil
	}

	h.mu.Lock()
	h.cancelLocked()
	h.gen++
	gen := h.gen
	h.onFinished = onFinished
	h.queue = append([]string(nil), urls[1:]...)
	first := urls[0]
	h.mu.Unlock()

	h.start(first, gen)
	return nil
}

// start decodes url and starts backend playback for generation gen,
// calling the completion path directly if decode or backend start
// fails (player failure is surfaced as "finished").
func (h *Handle) start(url string, gen uint64) {
	pcm, err := h.decoder.Decode(url)
	if err != nil {
		h.log.Warn("player: %s: decode failed for %q: %v", h.name, url, err)
		h.completeGen(gen)
		return
	}

	h.mu.Lock()
	if gen != h.gen {
		h.mu.Unlock()
		return // superseded while decoding
	}
	vol := h.effectiveVolume()
	h.mu.Unlock()

	pb, err := h.backend.Play(pcm, vol)
	if err != nil {
		h.log.Warn("player: %s: backend play failed for %q: %v", h.name, url, err)
		h.completeGen(gen)
		return
	}

	h.mu.Lock()
	if gen != h.gen {
		h.mu.Unlock()
		pb.Stop()
		return
	}
	h.playback = pb
	h.state = domain.StatePlaying
	h.mu.Unlock()

	go h.waitDone(pb, gen)
}

func (h *Handle) waitDone(pb Playback, gen uint64) {
	<-pb.Done()
	h.post(func() { h.onPlaybackDone(gen) })
}

func (h *Handle) onPlaybackDone(gen uint64) {
	h.mu.Lock()
	if gen != h.gen {
		h.mu.Unlock()
		return
	}
	if len(h.queue) > 0 {
		next := h.queue[0]
		h.queue = h.queue[1:]
		h.mu.Unlock()
		h.start(next, gen)
		return
	}
	h.mu.Unlock()
	h.completeGen(gen)
}

// completeGen finalizes generation gen exactly once, invoking its
// on_finished callback (if the generation is still current).
func (h *Handle) completeGen(gen uint64) {
	h.mu.Lock()
	if gen != h.gen {
		h.mu.Unlock()
		return
	}
	cb := h.onFinished
	h.onFinished = nil
	h.playback = nil
	h.queue = nil
	h.state = domain.StateIdle
	h.mu.Unlock()
	if cb != nil {
		cb()
	}
}

// cancelLocked stops any in-flight playback and discards its
// on_finished without invoking it. Caller must hold h.mu.
func (h *Handle) cancelLocked() {
	if h.playback != nil {
		h.playback.Stop()
	}
	h.playback = nil
	h.onFinished = nil
	h.queue = nil
}

// Stop halts playback. If a natural end had not yet occurred, its
// on_finished is delivered exactly once by Stop itself.
func (h *Handle) Stop() {
	h.mu.Lock()
	if h.state != domain.StatePlaying && h.state != domain.StatePaused {
		h.mu.Unlock()
		return
	}
	h.state = domain.StateStopping
	pb := h.playback
	cb := h.onFinished
	h.onFinished = nil
	h.queue = nil
	h.gen++ // invalidate any in-flight natural-completion race
	h.mu.Unlock()

	if pb != nil {
		pb.Stop()
	}

	h.mu.Lock()
	h.state = domain.StateIdle
	h.playback = nil
	h.mu.Unlock()

	if cb != nil {
		cb()
	}
}

// Pause transitions Playing -> Paused; a no-op otherwise.
func (h *Handle) Pause() {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.state != domain.StatePlaying {
		return
	}
	if h.playback != nil {
		h.playback.Pause()
	}
	h.state = domain.StatePaused
}

// Resume transitions Paused -> Playing; a no-op otherwise.
func (h *Handle) Resume() {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.state != domain.StatePaused {
		return
	}
	if h.playback != nil {
		h.playback.Resume()
	}
	h.state = domain.StatePlaying
}

// SetVolume sets the user-facing volume (0-100). While ducked, this
// only updates the value that Unduck will restore; the live, ducked
// output level is unaffected.
func (h *Handle) SetVolume(pct int) {
	h.mu.Lock()
	defer h.mu.Unlock()
	pct = clamp(pct)
	if h.duckedFrom != nil {
		*h.duckedFrom = pct
		return
	}
	h.volume = pct
	if h.playback != nil {
		h.playback.SetVolume(h.effectiveVolume())
	}
}

// Duck records the current volume once (a no-op if already ducked)
// and lowers output to targetPct.
func (h *Handle) Duck(targetPct int) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.duckedFrom != nil {
		return
	}
	saved := h.volume
	h.duckedFrom = &saved
	h.volume = clamp(targetPct)
	if h.playback != nil {
		h.playback.SetVolume(h.effectiveVolume())
	}
}

// Unduck restores the saved pre-duck volume and clears ducked state.
// A no-op if not currently ducked.
func (h *Handle) Unduck() {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.duckedFrom == nil {
		return
	}
	h.volume = *h.duckedFrom
	h.duckedFrom = nil
	if h.playback != nil {
		h.playback.SetVolume(h.effectiveVolume())
	}
}

// Mute / Unmute silence output without touching the volume level.
func (h *Handle) Mute() {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.muted = true
	if h.playback != nil {
		h.playback.SetVolume(h.effectiveVolume())
	}
}

func (h *Handle) Unmute() {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.muted = false
	if h.playback != nil {
		h.playback.SetVolume(h.effectiveVolume())
	}
}

func clamp(v int) int {
	if v < 0 {
		return 0
	}
	if v > 100 {
		return 100
	}
	return v
}
