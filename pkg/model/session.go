// Package model defines the capability interface every stage of the
// pipeline uses to run neural inference, replacing a virtual model-wrapper
// class hierarchy with a single small interface. Mel spectrogram, speech
// embedding, wake-word classifier, and VAD models are all Sessions,
// distinguished only by the shape of the tensors they expect and how their
// caller post-processes the output.
//
// The ONNX Runtime C API binding lives in this same package (see ort.go)
// rather than as a separate general-purpose wrapper: every model this
// pipeline loads has exactly one input tensor and one output tensor, so
// there is no reason to carry a reusable multi-input/multi-output
// Tensor/Run surface that nothing here ever calls with more than one of
// either.
package model

import "fmt"

// Session runs inference for a single loaded model.
type Session interface {
	// Infer runs the model on input (row-major, matching InputShape) and
	// returns the output tensor's flat data (row-major, matching
	// OutputShape).
	Infer(input []float32) ([]float32, error)
	// InputShape returns the model's expected input shape, including the
	// leading batch dimension (always 1 for this pipeline).
	InputShape() []int64
	// OutputShape returns the model's output shape.
	OutputShape() []int64
	// Close releases resources held by the session.
	Close() error
}

// Env owns the ONNX Runtime environment every Session in the process
// shares. Create one Env per process and use it to load every model the
// pipeline needs.
type Env struct {
	ort *ortEnv
}

// NewEnv creates the process-wide ONNX Runtime environment. intraOpThreads
// and interOpThreads size every session's thread pools; 0 leaves ONNX
// Runtime's own default in place.
func NewEnv(name string, intraOpThreads, interOpThreads int) (*Env, error) {
	e, err := newOrtEnv(name, intraOpThreads, interOpThreads)
	if err != nil {
		return nil, fmt.Errorf("model: new env: %w", err)
	}
	return &Env{ort: e}, nil
}

// Close releases the environment.
func (e *Env) Close() error {
	return e.ort.close()
}

// Load loads an ONNX model from path, with a single named input and a
// single named output. Every model this pipeline runs (mel, embedding,
// wake-word classifier, VAD) has exactly one input and one output tensor.
// inputShape is the model's expected input shape including the leading
// batch dimension; it may be nil if not known ahead of inference.
func (e *Env) Load(path, inputName, outputName string, inputShape []int64) (Session, error) {
	sess, err := loadOrtSessionFile(e.ort, path)
	if err != nil {
		return nil, fmt.Errorf("model: load %s: %w", path, err)
	}
	return &onnxSession{
		session:    sess,
		inputName:  inputName,
		outputName: outputName,
		inputShape: inputShape,
	}, nil
}

type onnxSession struct {
	session     *ortSession
	inputName   string
	outputName  string
	inputShape  []int64
	outputShape []int64
}

func (s *onnxSession) Infer(input []float32) ([]float32, error) {
	data, outShape, err := s.session.run(s.inputName, s.inputShape, input, s.outputName)
	if err != nil {
		return nil, fmt.Errorf("model: run inference: %w", err)
	}
	if s.outputShape == nil {
		s.outputShape = outShape
	}
	return data, nil
}

func (s *onnxSession) InputShape() []int64 {
	return s.inputShape
}

func (s *onnxSession) OutputShape() []int64 {
	return s.outputShape
}

func (s *onnxSession) Close() error {
	return s.session.close()
}
