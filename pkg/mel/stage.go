// Package mel runs the mel-spectrogram model over a stream of audio frames,
// emitting one MelSlice for every frameSize samples that accumulate.
package mel

import (
	"fmt"

	"github.com/blazeiburgess/openwakeword-go/pkg/buffer"
	"github.com/blazeiburgess/openwakeword-go/pkg/model"
	"github.com/blazeiburgess/openwakeword-go/pkg/wakeword"
)

// Stage pulls AudioFrames from an input queue, feeds accumulated samples
// through a mel-spectrogram Session frameSize samples at a time, and pushes
// the resulting MelSlices to an output queue.
//
// The sliding window is sized to 16*ChunkSamples — generous headroom above
// any single push, matching how this corpus's own buffer-backed stages size
// their windows relative to their step.
type Stage struct {
	session   model.Session
	frameSize int

	window *buffer.RingBuffer[float32]

	rescaleSlope  float32
	rescaleOffset float32
}

// Option configures a Stage.
type Option func(*Stage)

// WithRescale overrides the default mel rescale slope/offset. The original
// formula is (mel/10.0)+2.0; this pipeline computes raw*slope+offset, so the
// defaults wakeword.DefaultRescaleSlope (0.1, i.e. dividing by 10.0) and
// wakeword.DefaultRescaleOffset (2.0) reproduce it without literals.
func WithRescale(slope, offset float32) Option {
	return func(s *Stage) {
		s.rescaleSlope = slope
		s.rescaleOffset = offset
	}
}

// New creates a Stage. frameSize is the number of input samples the
// session's input tensor expects per inference.
func New(session model.Session, frameSize int, opts ...Option) *Stage {
	s := &Stage{
		session:       session,
		frameSize:     frameSize,
		window:        buffer.RingN[float32](16 * wakeword.ChunkSamples),
		rescaleSlope:  wakeword.DefaultRescaleSlope,
		rescaleOffset: wakeword.DefaultRescaleOffset,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Run drains in until exhausted, pushing every emitted MelSlice to out, then
// marks out exhausted. It returns the total number of samples consumed and
// the number of MelSlices emitted — the emitted count always equals
// floor(consumed/frameSize).
func (s *Stage) Run(in *buffer.BoundedQueue[wakeword.AudioFrame], out *buffer.BoundedQueue[wakeword.MelSlice]) (consumed, emitted int, err error) {
	defer out.SetExhausted()

	for {
		// One frame per pull, so the window never holds more than one push
		// on top of a partial frame.
		frames := in.Pull(1)
		if frames == nil {
			break
		}
		for _, f := range frames {
			s.window.Push(f.Samples)
			consumed += len(f.Samples)
		}

		for s.window.Available() >= s.frameSize {
			buf := make([]float32, s.frameSize)
			s.window.Peek(buf, s.frameSize, 0)
			s.window.Skip(s.frameSize)

			slice, err := s.infer(buf)
			if err != nil {
				return consumed, emitted, err
			}
			if !out.Push([]wakeword.MelSlice{slice}) {
				return consumed, emitted, nil
			}
			emitted++
		}
	}
	return consumed, emitted, nil
}

func (s *Stage) infer(samples []float32) (wakeword.MelSlice, error) {
	raw, err := s.session.Infer(samples)
	if err != nil {
		return wakeword.MelSlice{}, fmt.Errorf("mel: infer: %w", err)
	}
	if len(raw) < wakeword.NumMels {
		return wakeword.MelSlice{}, fmt.Errorf("mel: infer: got %d outputs, want at least %d", len(raw), wakeword.NumMels)
	}

	var slice wakeword.MelSlice
	for i := 0; i < wakeword.NumMels; i++ {
		slice.Values[i] = raw[i]*s.rescaleSlope + s.rescaleOffset
	}
	return slice, nil
}
