package pcm

import (
	"fmt"
	"io"
)

// Source produces a stream of raw PCM16LE mono samples at SampleRate. It is
// the single entry point the ingest stage reads from, whether the audio
// comes from a file, stdin, or a live microphone.
type Source interface {
	// ReadSamples reads up to len(buf) samples, returning the number read.
	// It returns io.EOF once no more samples are available; a short read
	// with a nil error is not an EOF signal by itself.
	ReadSamples(buf []int16) (int, error)
	// Close releases any resources held by the source.
	Close() error
}

// rawSource reads raw, headerless PCM16LE samples from an io.Reader.
type rawSource struct {
	r      io.Reader
	closer io.Closer
	rem    []byte // odd trailing byte held between reads
}

// NewRawSource wraps r as a Source of raw PCM16LE samples, with no format
// header to parse. Used for stdin and files whose format is asserted by the
// caller rather than discovered from the data.
func NewRawSource(r io.Reader) Source {
	closer, _ := r.(io.Closer)
	return &rawSource{r: r, closer: closer}
}

func (s *rawSource) ReadSamples(buf []int16) (int, error) {
	raw := make([]byte, len(buf)*2)
	n := copy(raw, s.rem)
	s.rem = nil

	rn, err := s.r.Read(raw[n:])
	n += rn

	if n%2 == 1 {
		s.rem = append(s.rem, raw[n-1])
		n--
	}

	for i := 0; i < n/2; i++ {
		buf[i] = int16(raw[i*2]) | int16(raw[i*2+1])<<8
	}
	return n / 2, err
}

func (s *rawSource) Close() error {
	if s.closer != nil {
		return s.closer.Close()
	}
	return nil
}

// ReadAllSamples drains src into a single slice, for sources small enough to
// fit comfortably in memory (tests, short clips). Production ingest reads
// incrementally via ReadSamples instead.
func ReadAllSamples(src Source) ([]int16, error) {
	var out []int16
	buf := make([]int16, 4096)
	for {
		n, err := src.ReadSamples(buf)
		out = append(out, buf[:n]...)
		if err != nil {
			if err == io.EOF {
				return out, nil
			}
			return out, fmt.Errorf("pcm: read samples: %w", err)
		}
		if n == 0 {
			return out, nil
		}
	}
}
