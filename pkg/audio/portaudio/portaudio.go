//go:build portaudio

// Package portaudio adapts github.com/gordonklaus/portaudio's device and
// stream API to this pipeline's pcm.Source contract, for live microphone
// capture. It is built only with the portaudio tag:
//
//	go build -tags portaudio ./...
//
// since it drags in PortAudio's own CGo dependency on the system library,
// which most builds of this CLI (reading from a file or stdin) don't need.
package portaudio

import (
	"fmt"
	"sync"

	gopa "github.com/gordonklaus/portaudio"
)

var (
	initOnce sync.Once
	initErr  error
)

// Initialize starts the underlying PortAudio library. Safe to call more
// than once; every caller after the first observes the same result.
func Initialize() error {
	initOnce.Do(func() {
		initErr = gopa.Initialize()
	})
	return initErr
}

// Terminate releases the underlying PortAudio library.
func Terminate() error {
	return gopa.Terminate()
}

// DeviceInfo describes one audio device, trimmed to what this pipeline's
// --list-models-style diagnostics need.
type DeviceInfo struct {
	Name              string
	MaxInputChannels  int
	DefaultSampleRate float64
	IsDefaultInput    bool
}

// DefaultInputDevice returns the system's default input device.
func DefaultInputDevice() (*DeviceInfo, error) {
	if err := Initialize(); err != nil {
		return nil, fmt.Errorf("portaudio: initialize: %w", err)
	}
	dev, err := gopa.DefaultInputDevice()
	if err != nil {
		return nil, fmt.Errorf("portaudio: default input device: %w", err)
	}
	return &DeviceInfo{
		Name:              dev.Name,
		MaxInputChannels:  dev.MaxInputChannels,
		DefaultSampleRate: dev.DefaultSampleRate,
		IsDefaultInput:    true,
	}, nil
}
