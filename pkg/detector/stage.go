// Package detector runs a single wake word's classifier model over a
// stream of embeddings and applies activation hysteresis to turn raw scores
// into discrete Detection events.
package detector

import (
	"fmt"
	"time"

	"github.com/blazeiburgess/openwakeword-go/pkg/buffer"
	"github.com/blazeiburgess/openwakeword-go/pkg/model"
	"github.com/blazeiburgess/openwakeword-go/pkg/wakeword"
)

// Config holds the per-detector hysteresis parameters.
type Config struct {
	Name            string
	Threshold       float32
	TriggerLevel    int
	RefractorySteps int
}

// Stage runs one wake word's classifier and hysteresis state machine.
type Stage struct {
	cfg     Config
	session model.Session

	window          *buffer.RingBuffer[float32] // flattened EmbeddingFeatures-wide rows
	activationCount int
}

// New creates a Stage for a single detector.
func New(cfg Config, session model.Session) *Stage {
	return &Stage{
		cfg:     cfg,
		session: session,
		window:  buffer.RingN[float32](wakeword.EmbeddingFeatures * wakeword.WakewordFeatures * 4),
	}
}

// Run drains in until exhausted, emitting a Prediction to preds for every
// classifier inference and a Detection to dets whenever hysteresis crosses
// the trigger level. Prediction count equals max(0, embeddingsSeen-15).
func (s *Stage) Run(in *buffer.BoundedQueue[wakeword.Embedding], preds *buffer.BoundedQueue[wakeword.Prediction], dets *buffer.BoundedQueue[wakeword.Detection]) error {
	defer preds.SetExhausted()
	defer dets.SetExhausted()

	windowLen := wakeword.EmbeddingFeatures * wakeword.WakewordFeatures

	for {
		// At most one window's worth of embeddings per pull, so a drain
		// always happens before the window could overflow.
		embs := in.Pull(wakeword.WakewordFeatures)
		if embs == nil {
			break
		}
		for _, e := range embs {
			s.window.Push(e.Values[:])
		}

		for s.window.Available() >= windowLen {
			buf := make([]float32, windowLen)
			s.window.Peek(buf, windowLen, 0)
			s.window.Skip(wakeword.EmbeddingFeatures)

			score, err := s.infer(buf)
			if err != nil {
				return err
			}
			pred := wakeword.Prediction{DetectorName: s.cfg.Name, Score: score}
			if !preds.Push([]wakeword.Prediction{pred}) {
				return nil
			}

			if det, ok := s.processPrediction(score); ok {
				if !dets.Push([]wakeword.Detection{det}) {
					return nil
				}
			}
		}
	}
	return nil
}

func (s *Stage) infer(window []float32) (float32, error) {
	raw, err := s.session.Infer(window)
	if err != nil {
		return 0, fmt.Errorf("detector: %s: infer: %w", s.cfg.Name, err)
	}
	if len(raw) == 0 {
		return 0, fmt.Errorf("detector: %s: infer: empty output", s.cfg.Name)
	}
	return raw[0], nil
}

// processPrediction advances the hysteresis counter and reports a Detection
// once the counter crosses TriggerLevel. Mirrors the original detector's
// activation/decay/refractory state machine: a score above threshold
// increments the counter; crossing TriggerLevel fires and resets the
// counter to -RefractorySteps; otherwise the counter decays toward zero
// from either side.
func (s *Stage) processPrediction(score float32) (wakeword.Detection, bool) {
	if score > s.cfg.Threshold {
		s.activationCount++
		if s.activationCount >= s.cfg.TriggerLevel {
			det := wakeword.Detection{DetectorName: s.cfg.Name, Score: score, Time: time.Now()}
			s.activationCount = -s.cfg.RefractorySteps
			return det, true
		}
		return wakeword.Detection{}, false
	}

	if s.activationCount > 0 {
		s.activationCount--
	} else if s.activationCount < 0 {
		s.activationCount++
	}
	return wakeword.Detection{}, false
}
