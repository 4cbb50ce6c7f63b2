package model

import "testing"

func TestNewFloatTensor(t *testing.T) {
	data := []float32{1, 2, 3, 4, 5, 6}
	tensor, err := newFloatTensor([]int64{2, 3}, data)
	if err != nil {
		t.Fatal(err)
	}
	defer tensor.close()

	shape, err := tensor.shape()
	if err != nil {
		t.Fatal(err)
	}
	if len(shape) != 2 || shape[0] != 2 || shape[1] != 3 {
		t.Errorf("shape = %v, want [2,3]", shape)
	}

	out, err := tensor.floatData()
	if err != nil {
		t.Fatal(err)
	}
	if len(out) != 6 {
		t.Fatalf("len = %d, want 6", len(out))
	}
	for i, v := range out {
		if v != data[i] {
			t.Errorf("[%d] = %f, want %f", i, v, data[i])
		}
	}
}

func TestNewFloatTensorEmptyData(t *testing.T) {
	if _, err := newFloatTensor([]int64{0}, nil); err == nil {
		t.Error("expected error for empty data")
	}
}

func TestNewFloatTensorShortData(t *testing.T) {
	if _, err := newFloatTensor([]int64{2, 3}, []float32{1, 2, 3}); err == nil {
		t.Error("expected error for short data")
	}
}

func TestNewFloatTensorNilShape(t *testing.T) {
	tensor, err := newFloatTensor(nil, []float32{1})
	if err != nil {
		t.Fatal(err)
	}
	defer tensor.close()
}
