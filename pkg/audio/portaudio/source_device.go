//go:build portaudio

package portaudio

import (
	"time"

	"github.com/blazeiburgess/openwakeword-go/pkg/audio/pcm"
)

// DeviceSource adapts an InputStream to pcm.Source, letting the pipeline
// read live microphone audio the same way it reads a file or stdin.
type DeviceSource struct {
	stream *InputStream
}

// OpenDeviceSource opens the default input device and returns a Source
// producing samples at format's sample rate. bufferDuration controls how
// much audio PortAudio buffers per callback; pcmsource passes 80ms, one
// ingest chunk (wakeword.ChunkSamples at 16kHz), to avoid extra buffering.
func OpenDeviceSource(format pcm.Format, bufferDuration time.Duration) (*DeviceSource, error) {
	stream, err := NewInputStream(format, bufferDuration)
	if err != nil {
		return nil, err
	}
	return &DeviceSource{stream: stream}, nil
}

// ReadSamples implements pcm.Source.
func (d *DeviceSource) ReadSamples(buf []int16) (int, error) {
	return d.stream.Read(buf)
}

// Close implements pcm.Source.
func (d *DeviceSource) Close() error {
	return d.stream.Close()
}

var _ pcm.Source = (*DeviceSource)(nil)
