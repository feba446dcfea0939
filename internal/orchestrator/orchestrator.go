// Package orchestrator wires every other package into a running
// satellite: it owns process-wide ONNX Runtime initialization, the
// detector worker goroutine, and the lifetime of the audio source,
// player pair, entity registry, mDNS advertisement, and protocol
// server.
package orchestrator

import (
	"context"
	"fmt"
	"net"
	"sync/atomic"
	"time"

	ort "github.com/yalue/onnxruntime_go"

	"github.com/voxsat/satellite/internal/audio"
	"github.com/voxsat/satellite/internal/catalog"
	"github.com/voxsat/satellite/internal/config"
	"github.com/voxsat/satellite/internal/domain"
	"github.com/voxsat/satellite/internal/entity"
	"github.com/voxsat/satellite/internal/eventbus"
	"github.com/voxsat/satellite/internal/feature"
	"github.com/voxsat/satellite/internal/logger"
	"github.com/voxsat/satellite/internal/mdns"
	"github.com/voxsat/satellite/internal/player"
	"github.com/voxsat/satellite/internal/prefs"
	"github.com/voxsat/satellite/internal/satellite"
	"github.com/voxsat/satellite/internal/wakeword"
)

const (
	micMuteSwitchKey = 1
	mediaPlayerKey   = 2
)

// Orchestrator owns every long-lived component of one satellite
// process and drives the detector context (audio capture -> feature
// extraction -> wake-word detection) alongside the satellite.Server's
// own protocol context.
type Orchestrator struct {
	cfg config.Config
	log *logger.Logger

	catalog    *catalog.Catalog
	prefsStore *prefs.Store
	pool       *wakeword.Pool
	audioSrc   audio.Source
	featureSes feature.Session
	players    *player.Pair
	registry   *entity.Registry
	bus        *eventbus.Bus
	server     *satellite.Server
	advertiser *mdns.Advertiser

	muted atomic.Bool
}

// New builds every component but starts nothing. Call Run to serve.
func New(cfg config.Config, log *logger.Logger) (*Orchestrator, error) {
	ort.SetSharedLibraryPath(cfg.OnnxRuntimeLib)
	if err := ort.InitializeEnvironment(); err != nil {
		return nil, fmt.Errorf("orchestrator: onnx init: %w", err)
	}

	cat, err := catalog.Load(cfg.WakeWordDirs)
	if err != nil {
		ort.DestroyEnvironment()
		return nil, fmt.Errorf("orchestrator: loading wake-word catalog: %w", err)
	}

	prefsStore, err := prefs.Load(cfg.PrefsPath, log)
	if err != nil {
		ort.DestroyEnvironment()
		return nil, fmt.Errorf("orchestrator: loading preferences: %w", err)
	}

	featureSes, err := feature.NewONNXSession(cfg.FeatureModelPath)
	if err != nil {
		ort.DestroyEnvironment()
		return nil, fmt.Errorf("orchestrator: loading feature model: %w", err)
	}

	pool := wakeword.NewPool(func(id string) (domain.WakeWordModel, wakeword.Classifier, error) {
		entry, ok := cat.Get(id)
		if !ok {
			return domain.WakeWordModel{}, nil, fmt.Errorf("orchestrator: unknown wake-word id %q", id)
		}
		model, err := entry.WakeWordModel()
		if err != nil {
			return model, nil, err
		}
		if model.Refractory <= 0 {
			model.Refractory = cfg.Refractory()
		}
		classifier, err := wakeword.NewONNXClassifier(entry.ArtifactPath, entry.Stride)
		if err != nil {
			return model, nil, err
		}
		return model, classifier, nil
	}, log)

	bus := eventbus.New()

	otoBackend, err := player.NewOtoBackend()
	if err != nil {
		featureSes.Close()
		ort.DestroyEnvironment()
		return nil, fmt.Errorf("orchestrator: opening audio output: %w", err)
	}
	decoder := player.NewHTTPDecoder(cfg.FetchTimeout)

	o := &Orchestrator{
		cfg:        cfg,
		log:        log,
		catalog:    cat,
		prefsStore: prefsStore,
		pool:       pool,
		featureSes: featureSes,
		bus:        bus,
	}

	music := player.New("music", otoBackend, decoder, o.post, log)
	announcement := player.New("announcement", otoBackend, decoder, o.post, log)
	o.players = player.NewPair(music, announcement)

	o.registry = entity.NewRegistry()
	o.registry.Register(entity.NewSwitch(micMuteSwitchKey, "mic_mute", "Microphone Mute", o.onMuteChanged))
	o.registry.Register(entity.NewMediaPlayer(mediaPlayerKey, "media_player", "Media Player", o.players, o.onVolumeChanged))

	o.server = satellite.New(satellite.Config{
		Device:             satellite.DeviceInfo{Name: cfg.Name, MacAddress: macAddress()},
		MaxActiveWakeWords: cfg.MaxActiveWakeWords,
		WakeUpSoundURL:     cfg.WakeUpSoundURL,
		TimerSoundURL:      cfg.TimerSoundURL,
	}, o.registry, cat, pool, prefsStore, o.players, bus, log)

	o.audioSrc = audio.New(audio.Config{DeviceID: cfg.AudioInputDevice}, log)

	if stopEntry, ok := cat.Get(cfg.StopWordID); ok {
		if stopModel, err := stopEntry.WakeWordModel(); err == nil {
			if stopModel.Refractory <= 0 {
				stopModel.Refractory = cfg.Refractory()
			}
			if classifier, err := wakeword.NewONNXClassifier(stopEntry.ArtifactPath, stopEntry.Stride); err == nil {
				if d, err := wakeword.NewDetector(stopModel, classifier, log); err == nil {
					pool.SetStopWord(d)
				}
			}
		}
	}

	if err := pool.SetActive(prefsStore.Get().ActiveWakeWordIDs); err != nil {
		log.Warn("orchestrator: restoring active wake words: %v", err)
	}

	music.SetVolume(prefsStore.Get().VolumeLevel)
	announcement.SetVolume(prefsStore.Get().VolumeLevel)

	return o, nil
}

// macAddress returns the hardware address of the first non-loopback
// interface, or an all-zero placeholder when none is available.
func macAddress() string {
	ifaces, err := net.Interfaces()
	if err == nil {
		for _, ifc := range ifaces {
			if ifc.Flags&net.FlagLoopback != 0 || len(ifc.HardwareAddr) == 0 {
				continue
			}
			return ifc.HardwareAddr.String()
		}
	}
	return "00:00:00:00:00:00"
}

// post forwards a completion closure to the satellite server's
// protocol context; it is the thread-safe submission primitive the
// player pair uses to report playback completion.
func (o *Orchestrator) post(fn func()) { o.server.Post(fn) }

func (o *Orchestrator) onMuteChanged(on bool) {
	o.muted.Store(on)
	o.log.Info("orchestrator: microphone mute set to %v", on)
}

func (o *Orchestrator) onVolumeChanged(pct int) {
	if err := o.prefsStore.SetVolume(pct); err != nil {
		o.log.Error("orchestrator: persisting volume: %v", err)
	}
}

// Run opens the listening socket, starts mDNS advertisement and the
// detector context, then blocks in the protocol context's event loop
// until ctx is cancelled. Shutdown is graceful: the listener closes,
// the capture channel drains, the detector goroutine joins, and only
// then are the inference sessions and ONNX environment released.
func (o *Orchestrator) Run(ctx context.Context) error {
	if err := o.server.Listen(o.cfg.Addr()); err != nil {
		return err
	}

	adv, err := mdns.Start(o.cfg.Name, o.cfg.ListenPort, mdns.Properties{
		ProtocolVersion: "1.9",
		MacAddress:      macAddress(),
		Board:           "voxsat",
		Platform:        "generic",
		Network:         "lan",
	}, o.log)
	if err != nil {
		o.log.Warn("orchestrator: mdns advertisement failed to start: %v", err)
	} else {
		o.advertiser = adv
	}

	detectorDone := make(chan struct{})
	go func() {
		defer close(detectorDone)
		o.runDetectorLoop(ctx)
	}()

	err = o.server.Run(ctx)

	<-detectorDone
	if o.advertiser != nil {
		o.advertiser.Stop()
	}
	o.featureSes.Close()
	ort.DestroyEnvironment()
	o.log.Info("orchestrator: shutdown complete")
	return err
}

// runDetectorLoop is the detector context: it
// owns the microphone capture channel, the feature extractor, and the
// wake-word pool, streaming raw PCM and detection events over to the
// protocol context via the Server's thread-safe Submit* methods.
func (o *Orchestrator) runDetectorLoop(ctx context.Context) {
	chunks, err := o.audioSrc.Start(ctx)
	if err != nil {
		o.log.Error("orchestrator: audio capture failed to start: %v", err)
		return
	}

	extractor := feature.New(o.featureSes)

	for chunk := range chunks {
		if o.pool.ConsumeDirty() {
			extractor.Reset()
		}

		if o.muted.Load() {
			continue
		}

		o.server.SubmitAudioFrame(chunk)

		frames, err := extractor.Feed(chunk)
		if err != nil {
			o.log.Warn("orchestrator: feature extraction failed: %v", err)
			continue
		}

		now := time.Now()
		for _, f := range frames {
			if id, fired := o.pool.FeedAll(f, now); fired {
				o.server.SubmitWakeWord(id)
			}
			if o.pool.FeedStopWord(f, now) {
				o.server.SubmitStopWord()
			}
		}
	}

	o.log.Debug("orchestrator: detector loop exiting (drops=%d)", o.audioSrc.Drops())
}
