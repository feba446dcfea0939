package player

import (
	"bytes"
	"sync"
	"time"

	"github.com/ebitengine/oto/v3"
	"github.com/voxsat/satellite/internal/domain"
)

// OtoBackend plays decoded PCM through the system audio device via
// oto. One shared oto context serves many independent, concurrently
// live playbacks (one per Handle, each polled for completion).
type OtoBackend struct {
	ctx *oto.Context
}

// NewOtoBackend opens the system audio output context at the
// satellite's fixed sample rate, mono.
func NewOtoBackend() (*OtoBackend, error) {
	op := &oto.NewContextOptions{
		SampleRate:   domain.SampleRate,
		ChannelCount: 1,
		Format:       oto.FormatSignedInt16LE,
	}
	ctx, ready, err := oto.NewContext(op)
	if err != nil {
		return nil, err
	}
	<-ready
	return &OtoBackend{ctx: ctx}, nil
}

func (b *OtoBackend) Play(pcm []byte, volumePct int) (Playback, error) {
	op := b.ctx.NewPlayer(bytes.NewReader(pcm))
	op.SetVolume(float64(volumePct) / 100)
	op.Play()

	pb := &otoPlayback{op: op, done: make(chan struct{})}
	go pb.pollUntilDone()
	return pb, nil
}

// otoPlayback polls IsPlaying on a short ticker in the background and
// signals completion via a channel instead of blocking the caller;
// oto itself has no end-of-stream callback.
type otoPlayback struct {
	op *oto.Player

	mu      sync.Mutex
	stopped bool
	done    chan struct{}
	once    sync.Once
}

func (p *otoPlayback) pollUntilDone() {
	// Give playback a moment to actually start before polling for end,
	// since IsPlaying can read false in the brief window before Play
	// takes effect.
	time.Sleep(10 * time.Millisecond)

	t := time.NewTicker(10 * time.Millisecond)
	defer t.Stop()
	for range t.C {
		p.mu.Lock()
		stopped := p.stopped
		p.mu.Unlock()
		if stopped {
			return
		}
		if !p.op.IsPlaying() {
			p.finish()
			return
		}
	}
}

func (p *otoPlayback) finish() {
	p.once.Do(func() { close(p.done) })
}

func (p *otoPlayback) Pause() error {
	p.op.Pause()
	return nil
}

func (p *otoPlayback) Resume() error {
	p.op.Play()
	return nil
}

func (p *otoPlayback) Stop() error {
	p.mu.Lock()
	p.stopped = true
	p.mu.Unlock()
	p.op.Pause()
	err := p.op.Close()
	p.finish()
	return err
}

func (p *otoPlayback) SetVolume(pct int) {
	p.op.SetVolume(float64(pct) / 100)
}

func (p *otoPlayback) Done() <-chan struct{} { return p.done }
