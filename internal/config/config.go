// Package config parses the satellite's command-line flags and
// optional .env overrides into a single settings struct used to wire
// every other component at startup.
package config

import (
	"flag"
	"fmt"
	"time"

	"github.com/joho/godotenv"
)

// Config holds every satellite startup parameter exposed on the
// command line.
type Config struct {
	Name string // satellite display name

	AudioInputDevice  string
	AudioOutputDevice string

	ListenHost string
	ListenPort int

	WakeWordDirs []string // one or more directories of model manifests
	StopWordID   string

	RefractorySeconds float64

	FeatureModelPath string // melspectrogram-style feature extraction model
	OnnxRuntimeLib   string // path to the ONNX Runtime shared library

	MaxActiveWakeWords uint32
	WakeUpSoundURL     string
	TimerSoundURL      string
	FetchTimeout       time.Duration

	PrefsPath string

	Verbose bool
}

// Refractory returns RefractorySeconds as a time.Duration.
func (c Config) Refractory() time.Duration {
	return time.Duration(c.RefractorySeconds * float64(time.Second))
}

// Addr is the host:port the satellite listens on.
func (c Config) Addr() string {
	return fmt.Sprintf("%s:%d", c.ListenHost, c.ListenPort)
}

// wakeWordDirs lets -wakeword-dir be repeated on the command line.
type wakeWordDirs []string

func (w *wakeWordDirs) String() string { return fmt.Sprint([]string(*w)) }

func (w *wakeWordDirs) Set(v string) error {
	*w = append(*w, v)
	return nil
}

// Parse reads .env (if present, silently ignored if absent) and then
// parses args against the satellite's flag set.
func Parse(args []string) (Config, error) {
	_ = godotenv.Load()

	fs := flag.NewFlagSet("satellite", flag.ContinueOnError)

	name := fs.String("name", "voxsat", "satellite display name advertised to the hub")
	inDev := fs.String("audio-input", "", "audio input device identifier (empty = platform default)")
	outDev := fs.String("audio-output", "", "audio output device identifier (empty = platform default)")
	host := fs.String("host", "0.0.0.0", "listening host")
	port := fs.Int("port", 6053, "listening port")
	stopWord := fs.String("stop-word-id", "stop", "identifier of the dedicated stop-word model")
	refractory := fs.Float64("refractory-seconds", 2.0, "refractory period in seconds after a detection")
	prefsPath := fs.String("prefs", "prefs.yaml", "path to the preferences file")
	verbose := fs.Bool("debug", false, "enable verbose (debug) logging")
	featureModel := fs.String("feature-model", "models/melspectrogram.onnx", "path to the feature-extraction ONNX model")
	onnxLib := fs.String("onnx-lib", "", "path to the ONNX Runtime shared library (empty = platform default search)")
	maxActive := fs.Uint("max-active-wakewords", 3, "maximum number of simultaneously active wake-word models")
	wakeSound := fs.String("wake-sound", "sounds/wake.wav", "chime played locally on wake-word detection")
	timerSound := fs.String("timer-sound", "sounds/timer.wav", "chime played on a repeating loop while a timer is ringing")
	fetchTimeout := fs.Duration("fetch-timeout", 10*time.Second, "timeout for fetching remote media/TTS URLs")

	var dirs wakeWordDirs
	fs.Var(&dirs, "wakeword-dir", "directory of wake-word model manifests (repeatable)")

	if err := fs.Parse(args); err != nil {
		return Config{}, err
	}

	if len(dirs) == 0 {
		dirs = wakeWordDirs{"wakewords"}
	}

	return Config{
		Name:               *name,
		AudioInputDevice:   *inDev,
		AudioOutputDevice:  *outDev,
		ListenHost:         *host,
		ListenPort:         *port,
		WakeWordDirs:       []string(dirs),
		StopWordID:         *stopWord,
		RefractorySeconds:  *refractory,
		FeatureModelPath:   *featureModel,
		OnnxRuntimeLib:     *onnxLib,
		MaxActiveWakeWords: uint32(*maxActive),
		WakeUpSoundURL:     *wakeSound,
		TimerSoundURL:      *timerSound,
		FetchTimeout:       *fetchTimeout,
		PrefsPath:          *prefsPath,
		Verbose:            *verbose,
	}, nil
}
