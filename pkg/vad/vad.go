// Package vad scores voice activity alongside the wake word pipeline. The
// score is advisory only: nothing in this pipeline zeroes, gates, or drops
// audio frames based on it. The original implementation computed a VAD
// score the same way and left three different gating strategies commented
// out in favor of doing nothing with the result; this package preserves
// that contract while replacing the original's hardcoded placeholder score
// with a real one.
package vad

import (
	"fmt"

	"github.com/blazeiburgess/openwakeword-go/pkg/audio/pcm"
	"github.com/blazeiburgess/openwakeword-go/pkg/model"
	webrtcvad "github.com/maxhawkins/go-webrtcvad"
)

// Scorer produces a voice-activity score in [0, 1] for a frame of samples.
// It never mutates or rejects the frame; callers are free to ignore the
// score entirely.
type Scorer interface {
	Score(samples []float32) (float32, error)
	Close() error
}

// ModelScorer runs a dedicated VAD ONNX model, used when --vad-model is
// given. Shape-wise it is just another model.Session, same as the mel,
// embedding, and wake-word classifier models.
type ModelScorer struct {
	session model.Session
}

// NewModelScorer wraps an already-loaded VAD session.
func NewModelScorer(session model.Session) *ModelScorer {
	return &ModelScorer{session: session}
}

func (m *ModelScorer) Score(samples []float32) (float32, error) {
	out, err := m.session.Infer(samples)
	if err != nil {
		return 0, fmt.Errorf("vad: model infer: %w", err)
	}
	if len(out) == 0 {
		return 0, fmt.Errorf("vad: model infer: empty output")
	}
	return out[0], nil
}

func (m *ModelScorer) Close() error {
	return m.session.Close()
}

// WebRTCScorer scores activity with libwebrtc's energy/spectrum-based VAD,
// used as the default fallback when no --vad-model is given. It reports a
// binary decision widened to 1.0/0.0, grounded on this corpus's own
// WebRTCVAD wrapper.
type WebRTCScorer struct {
	vad        *webrtcvad.VAD
	sampleRate int
}

// NewWebRTCScorer creates a scorer at the given sample rate (one of 8000,
// 16000, 32000, 48000) and aggressiveness mode (0-3, higher is stricter).
func NewWebRTCScorer(sampleRate, mode int) (*WebRTCScorer, error) {
	switch sampleRate {
	case 8000, 16000, 32000, 48000:
	default:
		return nil, fmt.Errorf("vad: unsupported webrtc sample rate %d", sampleRate)
	}
	v, err := webrtcvad.New()
	if err != nil {
		return nil, fmt.Errorf("vad: new webrtc vad: %w", err)
	}
	if err := v.SetMode(mode); err != nil {
		return nil, fmt.Errorf("vad: set mode: %w", err)
	}
	return &WebRTCScorer{vad: v, sampleRate: sampleRate}, nil
}

// Score converts samples to PCM16LE and reports 1.0 if any 10ms sub-frame
// is classified as speech, 0.0 otherwise. Trailing samples shorter than a
// full 10ms sub-frame are zero-padded rather than dropped.
func (w *WebRTCScorer) Score(samples []float32) (float32, error) {
	frameSize := w.sampleRate / 100
	if frameSize <= 0 {
		return 0, fmt.Errorf("vad: invalid sample rate %d", w.sampleRate)
	}

	samples16 := make([]int16, len(samples))
	pcm.Float32ToInt16(samples16, samples)

	for start := 0; start < len(samples16); start += frameSize {
		end := start + frameSize
		var frame []int16
		if end <= len(samples16) {
			frame = samples16[start:end]
		} else {
			frame = make([]int16, frameSize)
			copy(frame, samples16[start:])
		}

		active, err := w.vad.Process(w.sampleRate, int16ToBytes(frame))
		if err != nil {
			return 0, fmt.Errorf("vad: webrtc process: %w", err)
		}
		if active {
			return 1.0, nil
		}
	}
	return 0.0, nil
}

func (w *WebRTCScorer) Close() error {
	return nil
}

func int16ToBytes(samples []int16) []byte {
	out := make([]byte, len(samples)*2)
	for i, s := range samples {
		out[i*2] = byte(s)
		out[i*2+1] = byte(s >> 8)
	}
	return out
}

// EnergyScorer is a trivial RMS-energy fallback used only when WebRTC VAD
// itself cannot be constructed (e.g. unsupported sample rate); it has no
// frequency-domain discrimination, just a floor on loudness.
type EnergyScorer struct {
	threshold float32
}

// NewEnergyScorer creates a scorer that reports 1.0 when the RMS energy of
// a frame exceeds threshold, on the same unscaled [-32768, 32767] range as
// the samples themselves.
func NewEnergyScorer(threshold float32) *EnergyScorer {
	return &EnergyScorer{threshold: threshold}
}

func (e *EnergyScorer) Score(samples []float32) (float32, error) {
	if len(samples) == 0 {
		return 0, nil
	}
	var sumSq float64
	for _, s := range samples {
		sumSq += float64(s) * float64(s)
	}
	rms := float32(sumSq / float64(len(samples)))
	if rms > e.threshold*e.threshold {
		return 1.0, nil
	}
	return 0.0, nil
}

func (e *EnergyScorer) Close() error {
	return nil
}
