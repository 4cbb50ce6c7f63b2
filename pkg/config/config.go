// Package config holds the flat, single-binary configuration this CLI
// reads from flags and from an optional YAML file via -c/--config. Unlike
// this corpus's own multi-context, multi-service configuration store
// (which this pipeline's single-purpose CLI has no use for), this is one
// struct, loaded once.
package config

import (
	"fmt"
	"os"
	"time"

	"github.com/goccy/go-yaml"
)

// WakeWord describes a single wake-word classifier to load.
type WakeWord struct {
	Name            string  `yaml:"name"`
	ModelPath       string  `yaml:"model_path"`
	Threshold       float32 `yaml:"threshold"`
	TriggerLevel    int     `yaml:"trigger_level"`
	RefractorySteps int     `yaml:"refractory_steps"`
}

// Config is the full set of options the CLI accepts, by flag or by YAML
// file.
type Config struct {
	MelModelPath string     `yaml:"melspectrogram_model"`
	EmbModelPath string     `yaml:"embedding_model"`
	WakeWords    []WakeWord `yaml:"wake_words"`

	VADEnabled     bool    `yaml:"vad_enabled"`
	VADModelPath   string  `yaml:"vad_model"`
	VADThreshold   float32 `yaml:"vad_threshold"`
	VADMode        int     `yaml:"vad_mode"`
	EnableNoiseSup bool    `yaml:"enable_noise_suppression"`

	InputPath string `yaml:"input"`
	UseMic    bool   `yaml:"microphone"`

	Listen string `yaml:"listen"`

	Quiet     bool `yaml:"quiet"`
	Verbose   bool `yaml:"verbose"`
	JSON      bool `yaml:"json"`
	Timestamp bool `yaml:"timestamp"`
	Debug     bool `yaml:"debug"`

	IntraOpThreads int `yaml:"intra_op_threads"`
	InterOpThreads int `yaml:"inter_op_threads"`

	StartupTimeout time.Duration `yaml:"startup_timeout"`
}

// DefaultConfig returns a Config with the same defaults the original CLI
// used.
func DefaultConfig() Config {
	return Config{
		VADThreshold:   0.5,
		VADMode:        2,
		IntraOpThreads: 1,
		InterOpThreads: 1,
		StartupTimeout: 10 * time.Second,
	}
}

// Load reads a YAML file at path and merges it onto base, with fields
// present in the file overriding base's matching fields. An empty path is
// a no-op.
func Load(path string, base Config) (Config, error) {
	if path == "" {
		return base, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return base, fmt.Errorf("config: read %s: %w", path, err)
	}
	if err := yaml.Unmarshal(data, &base); err != nil {
		return base, fmt.Errorf("config: parse %s: %w", path, err)
	}
	return base, nil
}

// Validate checks that the configuration is complete enough to build a
// Pipeline.
func (c Config) Validate() error {
	if c.MelModelPath == "" {
		return fmt.Errorf("config: melspectrogram_model is required")
	}
	if c.EmbModelPath == "" {
		return fmt.Errorf("config: embedding_model is required")
	}
	if len(c.WakeWords) == 0 {
		return fmt.Errorf("config: at least one wake word model is required")
	}
	for _, w := range c.WakeWords {
		if w.ModelPath == "" {
			return fmt.Errorf("config: wake word %q is missing model_path", w.Name)
		}
	}
	return nil
}
