package vad

import "testing"

func TestEnergyScorerSilenceVsLoud(t *testing.T) {
	s := NewEnergyScorer(0.1)

	silence := make([]float32, 160)
	score, err := s.Score(silence)
	if err != nil {
		t.Fatal(err)
	}
	if score != 0.0 {
		t.Fatalf("silence score = %v, want 0.0", score)
	}

	loud := make([]float32, 160)
	for i := range loud {
		loud[i] = 0.9
	}
	score, err = s.Score(loud)
	if err != nil {
		t.Fatal(err)
	}
	if score != 1.0 {
		t.Fatalf("loud score = %v, want 1.0", score)
	}
}

func TestEnergyScorerEmptyFrame(t *testing.T) {
	s := NewEnergyScorer(0.1)
	score, err := s.Score(nil)
	if err != nil {
		t.Fatal(err)
	}
	if score != 0.0 {
		t.Fatalf("empty frame score = %v, want 0.0", score)
	}
}
