// Package audio delivers fixed-size PCM chunks from the microphone to
// a bounded channel. The capture callback runs at interrupt-like
// priority and must never block; a full channel drops the oldest
// pending chunk rather than stall the audio device.
package audio

import (
	"context"
	"encoding/binary"
	"sync/atomic"

	"github.com/gen2brain/malgo"
	"github.com/voxsat/satellite/internal/domain"
	"github.com/voxsat/satellite/internal/logger"
)

// ChunkSamples is the capture chunk size in samples (64ms @ 16kHz).
// It is not a multiple of domain.FrameSamples; the feature extractor
// carries any partial 10ms window over to the next chunk.
const ChunkSamples = 1024

// Source produces a stream of AudioChunks until the supplied context
// is cancelled, at which point the returned channel is closed.
type Source interface {
	Start(ctx context.Context) (<-chan domain.AudioChunk, error)
	Drops() int64
}

// Config selects the capture device and queue depth.
type Config struct {
	DeviceID  string // empty selects the platform default
	QueueSize int    // channel capacity; 0 uses a default of ~1s of audio
}

func (c *Config) defaults() {
	if c.QueueSize <= 0 {
		// ~1s of audio at ChunkSamples per chunk.
		c.QueueSize = domain.SampleRate/ChunkSamples + 1
	}
}

// MicSource captures from the default (or named) input device via
// miniaudio bindings.
type MicSource struct {
	cfg Config
	log *logger.Logger

	drops atomic.Int64
}

// New creates a MicSource. Call Start to begin capturing.
func New(cfg Config, log *logger.Logger) *MicSource {
	cfg.defaults()
	return &MicSource{cfg: cfg, log: log}
}

// Drops returns the number of chunks dropped so far due to backpressure.
func (s *MicSource) Drops() int64 { return s.drops.Load() }

// Start opens the capture device and begins delivering chunks. The
// returned channel is closed when ctx is cancelled or the device fails
// to start; callers should treat closure as a terminal event.
func (s *MicSource) Start(ctx context.Context) (<-chan domain.AudioChunk, error) {
	mCtx, err := malgo.InitContext(nil, malgo.ContextConfig{}, func(string) {})
	if err != nil {
		return nil, err
	}

	devCfg := malgo.DefaultDeviceConfig(malgo.Capture)
	devCfg.SampleRate = domain.SampleRate
	devCfg.PeriodSizeInFrames = ChunkSamples
	devCfg.Capture.Format = malgo.FormatS16
	devCfg.Capture.Channels = 1
	devCfg.Alsa.NoMMap = 1

	out := make(chan domain.AudioChunk, s.cfg.QueueSize)

	callbacks := malgo.DeviceCallbacks{
		Data: func(_ []byte, raw []byte, _ uint32) {
			if len(raw) == 0 {
				return
			}
			n := len(raw) / 2
			pcm := make(domain.AudioChunk, n)
			for i := 0; i < n; i++ {
				pcm[i] = int16(binary.LittleEndian.Uint16(raw[i*2 : i*2+2]))
			}
			select {
			case out <- pcm:
			default:
				// Queue is full: drop the oldest pending chunk rather
				// than stall the capture device or lose the newest
				// audio.
				select {
				case <-out:
					s.drops.Add(1)
				default:
				}
				select {
				case out <- pcm:
				default:
					s.drops.Add(1)
				}
			}
		},
	}

	device, err := malgo.InitDevice(mCtx.Context, devCfg, callbacks)
	if err != nil {
		_ = mCtx.Uninit()
		mCtx.Free()
		return nil, err
	}

	if err := device.Start(); err != nil {
		device.Uninit()
		_ = mCtx.Uninit()
		mCtx.Free()
		return nil, err
	}

	s.log.Info("audio: capture started (device=%q, rate=%d, chunk=%d)", s.cfg.DeviceID, domain.SampleRate, ChunkSamples)

	go func() {
		<-ctx.Done()
		device.Stop()
		device.Uninit()
		_ = mCtx.Uninit()
		mCtx.Free()
		close(out)
		s.log.Debug("audio: capture stopped")
	}()

	return out, nil
}
