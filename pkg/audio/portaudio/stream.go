//go:build portaudio

package portaudio

import (
	"io"
	"sync"
	"time"

	gopa "github.com/gordonklaus/portaudio"

	"github.com/blazeiburgess/openwakeword-go/pkg/audio/pcm"
)

// InputStream captures audio from the default input device. PortAudio fills
// buf in place on each Read; gordonklaus/portaudio picks the native sample
// format (paInt16 here) from buf's element type.
type InputStream struct {
	stream *gopa.Stream
	buf    []int16
	format pcm.Format
	mu     sync.Mutex
	closed bool
}

// NewInputStream opens the default input device for recording.
// format: PCM format (e.g., pcm.L16Mono16K)
// bufferDuration: duration of each read buffer (e.g., 20ms)
func NewInputStream(format pcm.Format, bufferDuration time.Duration) (*InputStream, error) {
	if err := Initialize(); err != nil {
		return nil, err
	}

	framesPerBuffer := int(format.SamplesInDuration(bufferDuration))
	buf := make([]int16, framesPerBuffer*format.Channels())

	stream, err := gopa.OpenDefaultStream(format.Channels(), 0, float64(format.SampleRate()), framesPerBuffer, buf)
	if err != nil {
		return nil, err
	}

	if err := stream.Start(); err != nil {
		stream.Close()
		return nil, err
	}

	return &InputStream{
		stream: stream,
		buf:    buf,
		format: format,
	}, nil
}

// Read reads PCM samples into buf, blocking until PortAudio has filled one
// device buffer. Returns the number of samples copied (not bytes).
func (is *InputStream) Read(buf []int16) (int, error) {
	is.mu.Lock()
	defer is.mu.Unlock()

	if is.closed {
		return 0, io.EOF
	}

	if err := is.stream.Read(); err != nil {
		return 0, err
	}

	return copy(buf, is.buf), nil
}

// Format returns the PCM format this stream was opened with.
func (is *InputStream) Format() pcm.Format {
	return is.format
}

// Close stops and closes the stream.
func (is *InputStream) Close() error {
	is.mu.Lock()
	defer is.mu.Unlock()

	if is.closed {
		return nil
	}
	is.closed = true

	if err := is.stream.Stop(); err != nil {
		is.stream.Close()
		return err
	}
	return is.stream.Close()
}
