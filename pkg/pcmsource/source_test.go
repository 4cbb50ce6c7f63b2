package pcmsource

import (
	"encoding/binary"
	"os"
	"path/filepath"
	"testing"

	"github.com/blazeiburgess/openwakeword-go/pkg/audio/pcm"
	"github.com/blazeiburgess/openwakeword-go/pkg/config"
	"github.com/blazeiburgess/openwakeword-go/pkg/wakeword"
)

// wavFile builds a minimal 16-bit PCM mono RIFF/WAVE file around samples.
func wavFile(samples []int16) []byte {
	data := int16sToBytes(samples)

	var fmtChunk [16]byte
	binary.LittleEndian.PutUint16(fmtChunk[0:2], 1)                  // PCM
	binary.LittleEndian.PutUint16(fmtChunk[2:4], 1)                  // mono
	binary.LittleEndian.PutUint32(fmtChunk[4:8], wakeword.SampleRate) // sample rate
	binary.LittleEndian.PutUint32(fmtChunk[8:12], wakeword.SampleRate*2)
	binary.LittleEndian.PutUint16(fmtChunk[12:14], 2)
	binary.LittleEndian.PutUint16(fmtChunk[14:16], 16) // bits per sample

	buf := make([]byte, 0, 44+len(data))
	buf = append(buf, "RIFF"...)
	buf = appendUint32(buf, uint32(36+len(data)))
	buf = append(buf, "WAVE"...)
	buf = append(buf, "fmt "...)
	buf = appendUint32(buf, uint32(len(fmtChunk)))
	buf = append(buf, fmtChunk[:]...)
	buf = append(buf, "data"...)
	buf = appendUint32(buf, uint32(len(data)))
	buf = append(buf, data...)
	return buf
}

func appendUint32(buf []byte, v uint32) []byte {
	var b [4]byte
	binary.LittleEndian.PutUint32(b[:], v)
	return append(buf, b[:]...)
}

func writeTempFile(t *testing.T, name string, data []byte) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, data, 0o644); err != nil {
		t.Fatalf("write temp file: %v", err)
	}
	return path
}

func int16sToBytes(samples []int16) []byte {
	buf := make([]byte, len(samples)*2)
	for i, s := range samples {
		buf[i*2] = byte(s)
		buf[i*2+1] = byte(s >> 8)
	}
	return buf
}

func TestOpenDefaultsToStdinWhenNoInputGiven(t *testing.T) {
	src, closer, err := Open(config.Config{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	defer closer.Close()

	if _, ok := src.(pcm.Source); !ok {
		t.Fatal("expected a pcm.Source")
	}
}

func TestOpenRawFile(t *testing.T) {
	want := []int16{1, 2, 3, 4, -5}
	path := writeTempFile(t, "in.raw", int16sToBytes(want))

	src, closer, err := Open(config.Config{InputPath: path})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	defer closer.Close()
	defer src.Close()

	got, err := pcm.ReadAllSamples(src)
	if err != nil {
		t.Fatalf("read samples: %v", err)
	}
	if len(got) != len(want) {
		t.Fatalf("got %d samples, want %d", len(got), len(want))
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("sample %d: got %d, want %d", i, got[i], want[i])
		}
	}
}

func TestOpenWAVFileAtTargetRate(t *testing.T) {
	want := []int16{100, -200, 300, -400}
	path := writeTempFile(t, "in.wav", wavFile(want))

	src, closer, err := Open(config.Config{InputPath: path})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	defer closer.Close()
	defer src.Close()

	got, err := pcm.ReadAllSamples(src)
	if err != nil {
		t.Fatalf("read samples: %v", err)
	}
	if len(got) != len(want) {
		t.Fatalf("got %d samples, want %d", len(got), len(want))
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("sample %d: got %d, want %d", i, got[i], want[i])
		}
	}
}

func TestOpenMissingFileFails(t *testing.T) {
	_, _, err := Open(config.Config{InputPath: filepath.Join(t.TempDir(), "missing.raw")})
	if err == nil {
		t.Fatal("expected an error opening a missing file")
	}
}

func TestOpenMicrophoneWithoutBuildTagFails(t *testing.T) {
	_, _, err := Open(config.Config{UseMic: true})
	if err == nil {
		t.Fatal("expected an error: microphone capture requires the portaudio build tag")
	}
}
