package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestValidateRequiresModels(t *testing.T) {
	cfg := DefaultConfig()
	if err := cfg.Validate(); err == nil {
		t.Fatal("expected error for missing models")
	}

	cfg.MelModelPath = "mel.onnx"
	cfg.EmbModelPath = "emb.onnx"
	if err := cfg.Validate(); err == nil {
		t.Fatal("expected error for missing wake words")
	}

	cfg.WakeWords = []WakeWord{{Name: "hey_test", ModelPath: "hey_test.onnx"}}
	if err := cfg.Validate(); err != nil {
		t.Fatalf("unexpected error: %v; stdin is a valid default input source", err)
	}
}

func TestLoadMergesYAMLOntoBase(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	yamlContent := `
melspectrogram_model: mel.onnx
embedding_model: emb.onnx
wake_words:
  - name: hey_test
    model_path: hey_test.onnx
    threshold: 0.6
    trigger_level: 3
    refractory_steps: 10
microphone: true
`
	if err := os.WriteFile(path, []byte(yamlContent), 0644); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(path, DefaultConfig())
	if err != nil {
		t.Fatal(err)
	}
	if cfg.MelModelPath != "mel.onnx" || cfg.EmbModelPath != "emb.onnx" {
		t.Fatalf("got %+v", cfg)
	}
	if len(cfg.WakeWords) != 1 || cfg.WakeWords[0].Name != "hey_test" {
		t.Fatalf("got %+v", cfg.WakeWords)
	}
	// Defaults not present in the YAML should survive the merge.
	if cfg.VADMode != 2 {
		t.Fatalf("VADMode = %d, want default 2", cfg.VADMode)
	}
	if err := cfg.Validate(); err != nil {
		t.Fatalf("unexpected validation error: %v", err)
	}
}

func TestLoadEmptyPathIsNoop(t *testing.T) {
	base := DefaultConfig()
	base.MelModelPath = "x.onnx"
	got, err := Load("", base)
	if err != nil {
		t.Fatal(err)
	}
	if got.MelModelPath != "x.onnx" {
		t.Fatalf("got %+v", got)
	}
}

func TestLoadMissingFileErrors(t *testing.T) {
	if _, err := Load("/nonexistent/config.yaml", DefaultConfig()); err == nil {
		t.Fatal("expected error for missing file")
	}
}
