package noise

import "testing"

func TestNewPanicsOnNonPowerOfTwo(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Fatal("expected panic for non-power-of-two fftSize")
		}
	}()
	New(100)
}

func TestProcessPreservesFrameLength(t *testing.T) {
	s := New(256)
	frame := make([]float32, 256)
	for i := range frame {
		frame[i] = float32(i%7) / 7.0
	}
	before := len(frame)
	s.Process(frame)
	if len(frame) != before {
		t.Fatalf("frame length changed: got %d, want %d", len(frame), before)
	}
}

func TestProcessSilenceStaysQuiet(t *testing.T) {
	s := New(256)
	// Warm up the noise estimate on a few silent frames, then confirm a
	// subsequent silent frame stays near zero.
	for i := 0; i < 5; i++ {
		frame := make([]float32, 256)
		s.Process(frame)
	}
	frame := make([]float32, 256)
	s.Process(frame)
	for i, v := range frame {
		if v > 1e-3 || v < -1e-3 {
			t.Fatalf("sample[%d] = %v, expected near-zero on silence", i, v)
		}
	}
}

func TestReset(t *testing.T) {
	s := New(64)
	loud := make([]float32, 64)
	for i := range loud {
		loud[i] = 0.5
	}
	s.Process(loud)
	s.Reset()
	for _, v := range s.noiseEstimate {
		if v != 0 {
			t.Fatal("noiseEstimate not cleared after Reset")
		}
	}
}
