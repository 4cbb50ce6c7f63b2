package model

import "testing"

func TestNewEnv(t *testing.T) {
	env, err := NewEnv("test", 1, 1)
	if err != nil {
		t.Fatal(err)
	}
	defer env.Close()
	t.Log("created ONNX Runtime environment")
}

func TestEnvDoubleClose(t *testing.T) {
	env, err := NewEnv("test", 0, 0)
	if err != nil {
		t.Fatal(err)
	}
	env.Close()
	env.Close()
}

func TestLoadMissingModelFile(t *testing.T) {
	env, err := NewEnv("test", 0, 0)
	if err != nil {
		t.Fatal(err)
	}
	defer env.Close()

	if _, err := env.Load("/nonexistent/model.onnx", "input", "output", nil); err == nil {
		t.Error("expected error loading missing model file")
	}
}
