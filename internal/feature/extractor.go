// Package feature turns raw captured PCM into the per-10ms spectral
// feature frames consumed by wake-word detectors. The transform itself
// runs under an ONNX Runtime session, mirroring the melspectrogram
// stage of the detector pipeline this package is adapted from, but
// narrowed to the one-window-in/one-frame-out contract the detectors
// need.
package feature

import (
	"github.com/voxsat/satellite/internal/domain"
	ort "github.com/yalue/onnxruntime_go"
)

// Session is the inference boundary: given one 10ms PCM window
// (domain.FrameSamples int16 samples) it returns the spectral feature
// vector for that window. Implementations must be deterministic for
// identical input. A fake Session is used in tests so feature-frame
// generation doesn't depend on a real ONNX runtime.
type Session interface {
	Run(window []int16) (domain.FeatureFrame, error)
	Close() error
}

// onnxSession wraps a single-input/single-output ONNX model with
// fixed tensor shapes, following the same NewEmptyTensor +
// NewAdvancedSession pattern used for every inference session in this
// repository.
type onnxSession struct {
	in   *ort.Tensor[float32]
	out  *ort.Tensor[float32]
	sess *ort.AdvancedSession
}

// NewONNXSession loads a melspectrogram-style model from modelPath.
// The ONNX Runtime shared library path must already have been set via
// ort.SetSharedLibraryPath and the environment initialized by the
// caller (the orchestrator owns that process-wide lifecycle since it
// is shared with the classifier sessions).
func NewONNXSession(modelPath string) (Session, error) {
	in, err := ort.NewEmptyTensor[float32](ort.NewShape(1, int64(domain.FrameSamples)))
	if err != nil {
		return nil, err
	}

	out, err := ort.NewEmptyTensor[float32](ort.NewShape(1, int64(domain.FeatureWidth)))
	if err != nil {
		in.Destroy()
		return nil, err
	}

	inInfo, outInfo, err := ort.GetInputOutputInfo(modelPath)
	if err != nil {
		in.Destroy()
		out.Destroy()
		return nil, err
	}

	sess, err := ort.NewAdvancedSession(
		modelPath,
		[]string{inInfo[0].Name}, []string{outInfo[0].Name},
		[]ort.Value{in}, []ort.Value{out},
		nil,
	)
	if err != nil {
		in.Destroy()
		out.Destroy()
		return nil, err
	}

	return &onnxSession{in: in, out: out, sess: sess}, nil
}

func (s *onnxSession) Run(window []int16) (domain.FeatureFrame, error) {
	data := s.in.GetData()
	for i, v := range window {
		data[i] = float32(v)
	}
	if err := s.sess.Run(); err != nil {
		return nil, err
	}
	raw := s.out.GetData()
	frame := make(domain.FeatureFrame, len(raw))
	copy(frame, raw)
	return frame, nil
}

func (s *onnxSession) Close() error {
	s.sess.Destroy()
	s.in.Destroy()
	s.out.Destroy()
	return nil
}

// warmupFrames is how many leading 10ms windows are consumed to build
// minimal filter context before the session starts yielding frames —
// mirrors the openWakeWord melspectrogram stage's own warm-up buffer.
const warmupFrames = 2

// Extractor buffers captured PCM and emits FeatureFrames one window at
// a time via its Session. It carries filter state across calls and is
// not safe for concurrent use; it is driven exclusively from the
// detector context.
type Extractor struct {
	session Session
	rem     []int16
	seen    int
}

// New creates an Extractor over the given Session.
func New(session Session) *Extractor {
	return &Extractor{session: session}
}

// Feed buffers chunk and returns zero or more FeatureFrames, one per
// complete 10ms window found (after any buffered chunks since the
// previous warm-up cutoff), in capture order.
func (e *Extractor) Feed(chunk domain.AudioChunk) ([]domain.FeatureFrame, error) {
	e.rem = append(e.rem, chunk...)

	var frames []domain.FeatureFrame
	for len(e.rem) >= domain.FrameSamples {
		window := e.rem[:domain.FrameSamples]

		if e.seen < warmupFrames {
			e.seen++
			e.rem = e.rem[:copy(e.rem, e.rem[domain.FrameSamples:])]
			continue
		}

		// Run before shifting: window aliases the head of e.rem, so the
		// shift would overwrite it.
		frame, err := e.session.Run(window)
		e.rem = e.rem[:copy(e.rem, e.rem[domain.FrameSamples:])]
		if err != nil {
			return frames, err
		}
		frames = append(frames, frame)
	}
	return frames, nil
}

// Reset clears buffered PCM and warm-up state.
func (e *Extractor) Reset() {
	e.rem = e.rem[:0]
	e.seen = 0
}
