// Package embedding runs the speech-embedding model over a stream of mel
// slices, emitting one Embedding for every EmbeddingStep mel frames that
// accumulate past a full EmbeddingWindow.
package embedding

import (
	"fmt"

	"github.com/blazeiburgess/openwakeword-go/pkg/buffer"
	"github.com/blazeiburgess/openwakeword-go/pkg/model"
	"github.com/blazeiburgess/openwakeword-go/pkg/wakeword"
)

// Stage pulls MelSlices from an input queue, maintains a sliding window of
// the last EmbeddingWindow slices, and runs the embedding model every time
// the window advances by EmbeddingStep, fanning the resulting Embedding out
// to every detector's input queue.
type Stage struct {
	session model.Session
	window  *buffer.RingBuffer[float32] // flattened NumMels-wide rows
}

// New creates a Stage. The window capacity is sized generously above a
// single EmbeddingWindow so a burst of mel slices never overflows it between
// drains.
func New(session model.Session) *Stage {
	return &Stage{
		session: session,
		window:  buffer.RingN[float32](wakeword.NumMels * wakeword.EmbeddingWindow * 4),
	}
}

// Run drains in until exhausted, pushing every emitted Embedding to each
// queue in out, then marks every out queue exhausted. Emitted count equals
// max(0, floor((melSlicesSeen-EmbeddingWindow)/EmbeddingStep)+1).
func (s *Stage) Run(in *buffer.BoundedQueue[wakeword.MelSlice], out []*buffer.BoundedQueue[wakeword.Embedding]) (emitted int, err error) {
	defer func() {
		for _, q := range out {
			q.SetExhausted()
		}
	}()

	for {
		// At most one window's worth of slices per pull, so a drain always
		// happens before the window could overflow.
		slices := in.Pull(wakeword.EmbeddingWindow)
		if slices == nil {
			break
		}
		for _, sl := range slices {
			s.window.Push(sl.Values[:])
		}

		windowLen := wakeword.NumMels * wakeword.EmbeddingWindow
		stepLen := wakeword.NumMels * wakeword.EmbeddingStep
		for s.window.Available() >= windowLen {
			buf := make([]float32, windowLen)
			s.window.Peek(buf, windowLen, 0)
			s.window.Skip(stepLen)

			emb, err := s.infer(buf)
			if err != nil {
				return emitted, err
			}
			for _, q := range out {
				if !q.Push([]wakeword.Embedding{emb}) {
					return emitted, nil
				}
			}
			emitted++
		}
	}
	return emitted, nil
}

func (s *Stage) infer(window []float32) (wakeword.Embedding, error) {
	raw, err := s.session.Infer(window)
	if err != nil {
		return wakeword.Embedding{}, fmt.Errorf("embedding: infer: %w", err)
	}
	if len(raw) < wakeword.EmbeddingFeatures {
		return wakeword.Embedding{}, fmt.Errorf("embedding: infer: got %d outputs, want at least %d", len(raw), wakeword.EmbeddingFeatures)
	}

	var emb wakeword.Embedding
	copy(emb.Values[:], raw[:wakeword.EmbeddingFeatures])
	return emb, nil
}
