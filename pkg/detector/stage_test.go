package detector

import (
	"testing"

	"github.com/blazeiburgess/openwakeword-go/pkg/buffer"
	"github.com/blazeiburgess/openwakeword-go/pkg/wakeword"
)

type scriptedSession struct {
	scores []float32
	i      int
}

func (s *scriptedSession) Infer(input []float32) ([]float32, error) {
	v := float32(0)
	if s.i < len(s.scores) {
		v = s.scores[s.i]
	}
	s.i++
	return []float32{v}, nil
}

func (s *scriptedSession) InputShape() []int64 {
	return []int64{1, wakeword.EmbeddingFeatures * wakeword.WakewordFeatures}
}
func (s *scriptedSession) OutputShape() []int64 { return []int64{1, 1} }
func (s *scriptedSession) Close() error         { return nil }

func pushEmbeddings(in *buffer.BoundedQueue[wakeword.Embedding], n int) {
	in.Push(make([]wakeword.Embedding, n))
}

func TestProcessPredictionTriggersAndEntersRefractory(t *testing.T) {
	cfg := Config{Name: "hey_test", Threshold: 0.5, TriggerLevel: 3, RefractorySteps: 5}
	s := New(cfg, &scriptedSession{})

	// Three consecutive above-threshold scores should trigger on the third.
	if _, fired := s.processPrediction(0.9); fired {
		t.Fatal("fired too early")
	}
	if _, fired := s.processPrediction(0.9); fired {
		t.Fatal("fired too early")
	}
	det, fired := s.processPrediction(0.9)
	if !fired {
		t.Fatal("expected trigger on third consecutive activation")
	}
	if det.DetectorName != "hey_test" {
		t.Fatalf("DetectorName = %q, want %q", det.DetectorName, "hey_test")
	}
	if s.activationCount != -5 {
		t.Fatalf("activationCount after trigger = %d, want -5", s.activationCount)
	}
}

func TestProcessPredictionDecaysBothDirections(t *testing.T) {
	cfg := Config{Name: "t", Threshold: 0.5, TriggerLevel: 100, RefractorySteps: 3}
	s := New(cfg, &scriptedSession{})

	s.processPrediction(0.9) // activationCount -> 1
	s.processPrediction(0.1) // below threshold, decays toward zero -> 0
	if s.activationCount != 0 {
		t.Fatalf("activationCount = %d, want 0", s.activationCount)
	}

	s.activationCount = -3
	s.processPrediction(0.1) // below threshold, still decays toward zero -> -2
	if s.activationCount != -2 {
		t.Fatalf("activationCount = %d, want -2", s.activationCount)
	}
}

func TestStagePredictionCountMatchesFormula(t *testing.T) {
	cases := []struct {
		embeddings int
		want       int
	}{
		{embeddings: 0, want: 0},
		{embeddings: 15, want: 0},
		{embeddings: 16, want: 1},
		{embeddings: 20, want: 5},
	}

	for _, tc := range cases {
		session := &scriptedSession{}
		cfg := Config{Name: "t", Threshold: 2.0 /* unreachable */, TriggerLevel: 1000, RefractorySteps: 1}
		stage := New(cfg, session)

		in := buffer.NewBoundedQueue[wakeword.Embedding](1024)
		preds := buffer.NewBoundedQueue[wakeword.Prediction](1024)
		dets := buffer.NewBoundedQueue[wakeword.Detection](1024)

		pushEmbeddings(in, tc.embeddings)
		in.SetExhausted()

		if err := stage.Run(in, preds, dets); err != nil {
			t.Fatal(err)
		}
		if got := preds.Len(); got != tc.want {
			t.Errorf("embeddings=%d: predictions = %d, want %d", tc.embeddings, got, tc.want)
		}
		// IsExhausted only holds once the latched queues have also been drained.
		preds.Pull(0)
		dets.Pull(0)
		if !preds.IsExhausted() || !dets.IsExhausted() {
			t.Errorf("embeddings=%d: output queues not exhausted", tc.embeddings)
		}
	}
}

func TestStageEmitsDetectionOnSustainedActivation(t *testing.T) {
	// Threshold low enough that every score after the window fills counts
	// as an activation; trigger level 2 so the second prediction fires.
	session := &scriptedSession{scores: []float32{0.9, 0.9, 0.9}}
	cfg := Config{Name: "hey_test", Threshold: 0.5, TriggerLevel: 2, RefractorySteps: 4}
	stage := New(cfg, session)

	in := buffer.NewBoundedQueue[wakeword.Embedding](1024)
	preds := buffer.NewBoundedQueue[wakeword.Prediction](1024)
	dets := buffer.NewBoundedQueue[wakeword.Detection](1024)

	pushEmbeddings(in, wakeword.WakewordFeatures+1) // two predictions
	in.SetExhausted()

	if err := stage.Run(in, preds, dets); err != nil {
		t.Fatal(err)
	}
	if got := dets.Len(); got != 1 {
		t.Fatalf("detections = %d, want 1", got)
	}
}
