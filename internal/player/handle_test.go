package player

import (
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/voxsat/satellite/internal/domain"
	"github.com/voxsat/satellite/internal/logger"
)

// fakePlayback is a controllable Playback for tests: Done only closes
// when the test calls finish().
type fakePlayback struct {
	mu      sync.Mutex
	done    chan struct{}
	once    sync.Once
	volume  int
	stopped bool
	paused  bool
}

func newFakePlayback() *fakePlayback { return &fakePlayback{done: make(chan struct{})} }

func (p *fakePlayback) Pause() error  { p.mu.Lock(); p.paused = true; p.mu.Unlock(); return nil }
func (p *fakePlayback) Resume() error { p.mu.Lock(); p.paused = false; p.mu.Unlock(); return nil }
func (p *fakePlayback) Stop() error {
	p.mu.Lock()
	p.stopped = true
	p.mu.Unlock()
	p.once.Do(func() { close(p.done) })
	return nil
}
func (p *fakePlayback) SetVolume(pct int)     { p.mu.Lock(); p.volume = pct; p.mu.Unlock() }
func (p *fakePlayback) Done() <-chan struct{} { return p.done }
func (p *fakePlayback) finish()               { p.once.Do(func() { close(p.done) }) }

type fakeBackend struct {
	mu       sync.Mutex
	started  []*fakePlayback
	failNext bool
}

func (b *fakeBackend) Play(pcm []byte, volumePct int) (Playback, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.failNext {
		b.failNext = false
		return nil, errors.New("backend failure")
	}
	pb := newFakePlayback()
	pb.volume = volumePct
	b.started = append(b.started, pb)
	return pb, nil
}

func (b *fakeBackend) last() *fakePlayback {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.started[len(b.started)-1]
}

type fakeDecoder struct {
	failFor map[string]bool
}

func (d *fakeDecoder) Decode(url string) ([]byte, error) {
	if d.failFor != nil && d.failFor[url] {
		return nil, errors.New("decode failure")
	}
	return []byte("pcm:" + url), nil
}

// newTestHandle wires a Handle whose post submissions land on a
// channel the test drains explicitly, so completion from the
// background waitDone goroutine is observed deterministically instead
// of racing the test's assertions.
func newTestHandle(t *testing.T) (*Handle, *fakeBackend, chan func()) {
	t.Helper()
	be := &fakeBackend{}
	log := logger.New(logger.LevelOff, nil)
	postCh := make(chan func(), 16)
	post := func(f func()) { postCh <- f }
	h := New("test", be, &fakeDecoder{}, post, log)
	return h, be, postCh
}

// drainPost waits for and runs the next posted closure, failing the
// test if none arrives promptly.
func drainPost(t *testing.T, ch chan func()) {
	t.Helper()
	select {
	case f := <-ch:
		f()
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for posted completion")
	}
}

func TestHandlePlayTransitionsToPlaying(t *testing.T) {
	h, _, _ := newTestHandle(t)
	if err := h.Play([]string{"http://x/a.wav"}, nil); err != nil {
		t.Fatal(err)
	}
	if h.State() != domain.StatePlaying {
		t.Fatalf("expected playing, got %s", h.State())
	}
}

func TestHandleOnFinishedCalledOnceOnNaturalEnd(t *testing.T) {
	h, be, postCh := newTestHandle(t)
	var calls int
	h.Play([]string{"http://x/a.wav"}, func() { calls++ })

	be.last().finish()
	drainPost(t, postCh)

	if calls != 1 {
		t.Fatalf("expected on_finished exactly once, got %d", calls)
	}
	if h.State() != domain.StateIdle {
		t.Fatalf("expected idle after natural end, got %s", h.State())
	}
}

func TestHandleOnFinishedCalledOnceOnStop(t *testing.T) {
	h, _, _ := newTestHandle(t)
	var calls int
	h.Play([]string{"http://x/a.wav"}, func() { calls++ })

	h.Stop()
	if calls != 1 {
		t.Fatalf("expected on_finished exactly once on stop, got %d", calls)
	}
	if h.State() != domain.StateIdle {
		t.Fatalf("expected idle after stop, got %s", h.State())
	}
}

func TestHandleReplacePlayCancelsPriorCallback(t *testing.T) {
	h, be, postCh := newTestHandle(t)
	var firstCalls, secondCalls int
	h.Play([]string{"http://x/a.wav"}, func() { firstCalls++ })
	firstPb := be.last()

	h.Play([]string{"http://x/b.wav"}, func() { secondCalls++ })

	// The superseded playback's natural end must not invoke the
	// cancelled callback: its post is still delivered (the goroutine
	// doesn't know it was cancelled) but onPlaybackDone must see the
	// stale generation and no-op.
	firstPb.finish()
	drainPost(t, postCh)
	if firstCalls != 0 {
		t.Fatalf("expected cancelled on_finished to never fire, got %d calls", firstCalls)
	}

	be.last().finish()
	drainPost(t, postCh)
	if secondCalls != 1 {
		t.Fatalf("expected the new on_finished to fire exactly once, got %d", secondCalls)
	}
}

func TestHandleDecodeFailureSurfacesAsFinished(t *testing.T) {
	be := &fakeBackend{}
	log := logger.New(logger.LevelOff, nil)
	dec := &fakeDecoder{failFor: map[string]bool{"bad://url": true}}
	h := New("test", be, dec, func(f func()) { f() }, log)

	var calls int
	h.Play([]string{"bad://url"}, func() { calls++ })

	if calls != 1 {
		t.Fatalf("expected decode failure to surface as a single finished callback, got %d", calls)
	}
	if h.State() != domain.StateIdle {
		t.Fatalf("expected idle after decode failure, got %s", h.State())
	}
}

func TestHandleDuckAndUnduck(t *testing.T) {
	h, _, _ := newTestHandle(t)
	h.SetVolume(80)

	h.Duck(20)
	if got := h.Volume(); got != 20 {
		t.Fatalf("expected ducked volume 20, got %d", got)
	}

	// Duck is idempotent: a second Duck call must not overwrite the
	// saved pre-duck value.
	h.Duck(5)
	if got := h.Volume(); got != 20 {
		t.Fatalf("expected duck to be a no-op once already ducked, got %d", got)
	}

	h.Unduck()
	if got := h.Volume(); got != 80 {
		t.Fatalf("expected unduck to restore 80, got %d", got)
	}
}

func TestHandleSetVolumeWhileDuckedUpdatesSavedValue(t *testing.T) {
	h, _, _ := newTestHandle(t)
	h.SetVolume(80)
	h.Duck(20)

	h.SetVolume(55)
	if got := h.Volume(); got != 20 {
		t.Fatalf("expected live ducked volume to remain 20, got %d", got)
	}

	h.Unduck()
	if got := h.Volume(); got != 55 {
		t.Fatalf("expected unduck to restore the latest requested volume 55, got %d", got)
	}
}

// TestPairAnnouncementPausesAndResumesMusic exercises the sole
// coupling rule between the two handles: an announcement pauses
// playing music and resumes it on completion.
func TestPairAnnouncementPausesAndResumesMusic(t *testing.T) {
	log := logger.New(logger.LevelOff, nil)
	postCh := make(chan func(), 16)
	post := func(f func()) { postCh <- f }
	musicBE, annBE := &fakeBackend{}, &fakeBackend{}
	music := New("music", musicBE, &fakeDecoder{}, post, log)
	ann := New("announcement", annBE, &fakeDecoder{}, post, log)
	pair := NewPair(music, ann)

	music.Play([]string{"http://x/song.mp3"}, nil)
	if music.State() != domain.StatePlaying {
		t.Fatalf("expected music playing, got %s", music.State())
	}

	var finished bool
	pair.PlayAnnouncement([]string{"http://x/hi.mp3"}, func() { finished = true })
	if music.State() != domain.StatePaused {
		t.Fatalf("expected music paused during announcement, got %s", music.State())
	}

	annBE.last().finish()
	drainPost(t, postCh)

	if !finished {
		t.Fatal("expected the announcement completion callback to fire")
	}
	if music.State() != domain.StatePlaying {
		t.Fatalf("expected music resumed after announcement, got %s", music.State())
	}
}

func TestHandleQueuePlaysSequentially(t *testing.T) {
	h, be, postCh := newTestHandle(t)
	var calls int
	h.Play([]string{"http://x/a.wav", "http://x/b.wav"}, func() { calls++ })

	if len(be.started) != 1 {
		t.Fatalf("expected only first URL started, got %d players", len(be.started))
	}
	be.last().finish()
	drainPost(t, postCh)

	if len(be.started) != 2 {
		t.Fatalf("expected second URL to start after first finished, got %d players", len(be.started))
	}
	if calls != 0 {
		t.Fatalf("on_finished should not fire until the whole queue completes")
	}
	be.last().finish()
	drainPost(t, postCh)
	if calls != 1 {
		t.Fatalf("expected on_finished once the queue drains, got %d", calls)
	}
}
