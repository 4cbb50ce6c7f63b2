package pcm

import (
	"encoding/binary"
	"fmt"
	"io"

	"github.com/blazeiburgess/openwakeword-go/pkg/audio/resampler"
)

// wavFormat is the subset of a WAVE "fmt " chunk this package validates.
type wavFormat struct {
	audioFormat   uint16
	channels      uint16
	sampleRate    uint32
	bitsPerSample uint16
}

// OpenWAVSource parses a RIFF/WAVE stream and returns a Source that yields
// mono PCM16LE samples at targetRate. If the file's native sample rate or
// channel count differs from the target, the samples are resampled via
// pkg/audio/resampler before being handed to the caller; the original C++
// implementation assumed its input was always pre-converted to 16kHz mono,
// so this conversion is new behavior this pipeline adds for convenience.
func OpenWAVSource(r io.Reader, targetRate int) (Source, error) {
	format, dataReader, err := parseWAVHeader(r)
	if err != nil {
		return nil, fmt.Errorf("pcm: open wav: %w", err)
	}
	if format.audioFormat != 1 {
		return nil, fmt.Errorf("pcm: open wav: unsupported audio format tag %d (only PCM supported)", format.audioFormat)
	}
	if format.bitsPerSample != 16 {
		return nil, fmt.Errorf("pcm: open wav: unsupported bit depth %d (only 16-bit supported)", format.bitsPerSample)
	}

	src := int(format.sampleRate)
	stereo := format.channels == 2
	if format.channels != 1 && format.channels != 2 {
		return nil, fmt.Errorf("pcm: open wav: unsupported channel count %d (only mono/stereo supported)", format.channels)
	}

	if src == targetRate && !stereo {
		return NewRawSource(dataReader), nil
	}

	rs, err := resampler.New(dataReader,
		resampler.Format{SampleRate: src, Stereo: stereo},
		resampler.Format{SampleRate: targetRate, Stereo: false},
	)
	if err != nil {
		return nil, fmt.Errorf("pcm: open wav: build resampler: %w", err)
	}
	return NewRawSource(rs), nil
}

// parseWAVHeader consumes the RIFF/WAVE/fmt chunks and returns a reader
// positioned at the start of the data chunk's payload.
func parseWAVHeader(r io.Reader) (wavFormat, io.Reader, error) {
	var riff [12]byte
	if _, err := io.ReadFull(r, riff[:]); err != nil {
		return wavFormat{}, nil, fmt.Errorf("read RIFF header: %w", err)
	}
	if string(riff[0:4]) != "RIFF" || string(riff[8:12]) != "WAVE" {
		return wavFormat{}, nil, fmt.Errorf("not a RIFF/WAVE stream")
	}

	var format wavFormat
	haveFormat := false

	for {
		var hdr [8]byte
		if _, err := io.ReadFull(r, hdr[:]); err != nil {
			return wavFormat{}, nil, fmt.Errorf("read chunk header: %w", err)
		}
		id := string(hdr[0:4])
		size := binary.LittleEndian.Uint32(hdr[4:8])

		switch id {
		case "fmt ":
			body := make([]byte, size)
			if _, err := io.ReadFull(r, body); err != nil {
				return wavFormat{}, nil, fmt.Errorf("read fmt chunk: %w", err)
			}
			if len(body) < 16 {
				return wavFormat{}, nil, fmt.Errorf("fmt chunk too short (%d bytes)", len(body))
			}
			format.audioFormat = binary.LittleEndian.Uint16(body[0:2])
			format.channels = binary.LittleEndian.Uint16(body[2:4])
			format.sampleRate = binary.LittleEndian.Uint32(body[4:8])
			format.bitsPerSample = binary.LittleEndian.Uint16(body[14:16])
			haveFormat = true
		case "data":
			if !haveFormat {
				return wavFormat{}, nil, fmt.Errorf("data chunk encountered before fmt chunk")
			}
			return format, io.LimitReader(r, int64(size)), nil
		default:
			if _, err := io.CopyN(io.Discard, r, int64(size)); err != nil {
				return wavFormat{}, nil, fmt.Errorf("skip chunk %q: %w", id, err)
			}
		}
		if size%2 == 1 {
			// Chunks are padded to an even byte count.
			if _, err := io.CopyN(io.Discard, r, 1); err != nil {
				return wavFormat{}, nil, fmt.Errorf("skip chunk padding: %w", err)
			}
		}
	}
}
