// Package pcmsource resolves a config.Config's input selection (stdin, a
// raw or WAV file, or the default microphone) into a pcm.Source, keeping
// that branching out of the command layer.
package pcmsource

import (
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/blazeiburgess/openwakeword-go/pkg/audio/pcm"
	"github.com/blazeiburgess/openwakeword-go/pkg/config"
	"github.com/blazeiburgess/openwakeword-go/pkg/wakeword"
)

// Open resolves cfg's input selection into a Source and an io.Closer for
// any underlying file handle (a no-op closer for stdin; for the microphone,
// the device Source itself, which owns its stream's lifecycle).
func Open(cfg config.Config) (pcm.Source, io.Closer, error) {
	if cfg.UseMic {
		return openMicrophone()
	}
	if cfg.InputPath == "" {
		return pcm.NewRawSource(os.Stdin), io.NopCloser(nil), nil
	}

	f, err := os.Open(cfg.InputPath)
	if err != nil {
		return nil, nil, fmt.Errorf("pcmsource: open %s: %w", cfg.InputPath, err)
	}

	if strings.HasSuffix(strings.ToLower(cfg.InputPath), ".wav") {
		src, err := pcm.OpenWAVSource(f, wakeword.SampleRate)
		if err != nil {
			f.Close()
			return nil, nil, fmt.Errorf("pcmsource: %w", err)
		}
		return src, f, nil
	}

	return pcm.NewRawSource(f), f, nil
}

// openMicrophone is overridden by source_microphone.go when built with the
// portaudio tag; without it, microphone capture is unavailable.
var openMicrophone = func() (pcm.Source, io.Closer, error) {
	return nil, nil, fmt.Errorf("pcmsource: microphone capture requires building with -tags portaudio")
}

// micBufferDuration matches the ingest stage's own ChunkSamples cadence at
// 16kHz (80ms), so each PortAudio callback lines up with one AudioFrame.
const micBufferDuration = time.Duration(wakeword.ChunkSamples) * time.Second / wakeword.SampleRate
