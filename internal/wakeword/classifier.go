package wakeword

import (
	"github.com/voxsat/satellite/internal/domain"
	ort "github.com/yalue/onnxruntime_go"
)

// Classifier scores one stride's worth of feature frames for a single
// wake-word model, returning a probability in [0,1]. Implementations
// must be deterministic for identical input so detection stays
// reproducible across runs.
type Classifier interface {
	Score(frames []domain.FeatureFrame) (float32, error)
	Close() error
}

// onnxClassifier runs a per-model ONNX session with a fixed
// (1, stride, FeatureWidth) input shape, the same
// NewEmptyTensor/NewAdvancedSession pattern used throughout this
// repository's inference code.
type onnxClassifier struct {
	in   *ort.Tensor[float32]
	out  *ort.Tensor[float32]
	sess *ort.AdvancedSession
}

// NewONNXClassifier loads model.Artifact's companion file at
// modelPath. The artifact bytes themselves are carried in
// domain.WakeWordModel for catalog bookkeeping; ONNX Runtime loads
// models from a path, so the catalog is responsible for having
// materialized modelPath on disk already.
func NewONNXClassifier(modelPath string, stride int) (Classifier, error) {
	in, err := ort.NewEmptyTensor[float32](ort.NewShape(1, int64(stride), int64(domain.FeatureWidth)))
	if err != nil {
		return nil, err
	}

	out, err := ort.NewEmptyTensor[float32](ort.NewShape(1, 1))
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

	return &onnxClassifier{in: in, out: out, sess: sess}, nil
}

func (c *onnxClassifier) Score(frames []domain.FeatureFrame) (float32, error) {
	data := c.in.GetData()
	off := 0
	for _, f := range frames {
		copy(data[off:], f)
		off += len(f)
	}
	if err := c.sess.Run(); err != nil {
		return 0, err
	}
	return c.out.GetData()[0], nil
}

func (c *onnxClassifier) Close() error {
	c.sess.Destroy()
	c.in.Destroy()
	c.out.Destroy()
	return nil
}
