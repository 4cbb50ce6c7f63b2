// Package sink turns Detection events into output: human-readable text on
// stdout, JSON records, or nothing at all, plus an optional network fan-out.
package sink

import (
	"encoding/json"
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/blazeiburgess/openwakeword-go/pkg/wakeword"
)

// Sink consumes Detection events as the pipeline produces them.
type Sink interface {
	Write(wakeword.Detection) error
	Close() error
}

// Mode selects how a TextSink renders a Detection.
type Mode int

const (
	// Plain writes just the detector name, one per line, matching the
	// original CLI's stdout output.
	Plain Mode = iota
	// JSON writes a single-line JSON object per detection.
	JSON
	// Silent discards every detection; used with --quiet when the caller
	// only wants the network sink's output.
	Silent
)

// TextSink writes Detections to an io.Writer, serializing every write
// behind a single mutex so concurrent detector stages never interleave
// partial lines.
type TextSink struct {
	mu        sync.Mutex
	w         io.Writer
	mode      Mode
	timestamp bool
}

// NewTextSink creates a TextSink in the given mode. If timestamp is true,
// Plain mode prefixes each line with an RFC3339 timestamp.
func NewTextSink(w io.Writer, mode Mode, timestamp bool) *TextSink {
	return &TextSink{w: w, mode: mode, timestamp: timestamp}
}

// jsonRecord is the wire shape for JSON mode and the websocket broadcaster:
// {"wake_word":"<label>","score":<float>[,"timestamp":"YYYY-MM-DD HH:MM:SS.mmm"]}.
type jsonRecord struct {
	WakeWord  string  `json:"wake_word"`
	Score     float32 `json:"score"`
	Timestamp string  `json:"timestamp,omitempty"`
}

const jsonTimestampLayout = "2006-01-02 15:04:05.000"

func (s *TextSink) Write(d wakeword.Detection) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	switch s.mode {
	case Silent:
		return nil
	case JSON:
		rec := jsonRecord{WakeWord: d.DetectorName, Score: d.Score}
		if s.timestamp {
			rec.Timestamp = d.Time.Format(jsonTimestampLayout)
		}
		enc := json.NewEncoder(s.w)
		return enc.Encode(rec)
	default:
		if s.timestamp {
			_, err := fmt.Fprintf(s.w, "%s %s\n", d.Time.Format(time.RFC3339), d.DetectorName)
			return err
		}
		_, err := fmt.Fprintln(s.w, d.DetectorName)
		return err
	}
}

func (s *TextSink) Close() error {
	return nil
}

// Multi fans a single Detection out to every sink in the slice, returning
// the first error encountered but still writing to every sink.
type Multi struct {
	sinks []Sink
}

// NewMulti creates a Multi fan-out sink.
func NewMulti(sinks ...Sink) *Multi {
	return &Multi{sinks: sinks}
}

func (m *Multi) Write(d wakeword.Detection) error {
	var firstErr error
	for _, s := range m.sinks {
		if err := s.Write(d); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}

func (m *Multi) Close() error {
	var firstErr error
	for _, s := range m.sinks {
		if err := s.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}

var (
	_ Sink = (*TextSink)(nil)
	_ Sink = (*Multi)(nil)
)
