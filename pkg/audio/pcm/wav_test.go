package pcm

import (
	"bytes"
	"encoding/binary"
	"testing"
)

// buildWAV assembles a minimal RIFF/WAVE byte stream carrying raw PCM16LE
// samples at the given rate/channel count.
func buildWAV(t *testing.T, sampleRate int, channels int, samples []int16) []byte {
	t.Helper()
	data := int16sToBytes(samples)

	var buf bytes.Buffer
	buf.WriteString("RIFF")
	var riffSize [4]byte
	binary.LittleEndian.PutUint32(riffSize[:], uint32(36+len(data)))
	buf.Write(riffSize[:])
	buf.WriteString("WAVE")

	buf.WriteString("fmt ")
	var fmtSize [4]byte
	binary.LittleEndian.PutUint32(fmtSize[:], 16)
	buf.Write(fmtSize[:])

	fmtBody := make([]byte, 16)
	binary.LittleEndian.PutUint16(fmtBody[0:2], 1) // PCM
	binary.LittleEndian.PutUint16(fmtBody[2:4], uint16(channels))
	binary.LittleEndian.PutUint32(fmtBody[4:8], uint32(sampleRate))
	byteRate := sampleRate * channels * 2
	binary.LittleEndian.PutUint32(fmtBody[8:12], uint32(byteRate))
	binary.LittleEndian.PutUint16(fmtBody[12:14], uint16(channels*2))
	binary.LittleEndian.PutUint16(fmtBody[14:16], 16) // bits per sample
	buf.Write(fmtBody)

	buf.WriteString("data")
	var dataSize [4]byte
	binary.LittleEndian.PutUint32(dataSize[:], uint32(len(data)))
	buf.Write(dataSize[:])
	buf.Write(data)

	return buf.Bytes()
}

func TestOpenWAVSourceNativeRateMono(t *testing.T) {
	samples := []int16{100, -100, 200, -200, 300, -300}
	wav := buildWAV(t, 16000, 1, samples)

	src, err := OpenWAVSource(bytes.NewReader(wav), 16000)
	if err != nil {
		t.Fatal(err)
	}
	defer src.Close()

	got, err := ReadAllSamples(src)
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != len(samples) {
		t.Fatalf("got %d samples, want %d", len(got), len(samples))
	}
	for i := range samples {
		if got[i] != samples[i] {
			t.Errorf("[%d] = %d, want %d", i, got[i], samples[i])
		}
	}
}

func TestOpenWAVSourceResamplesDifferentRate(t *testing.T) {
	samples := make([]int16, 480) // 10ms at 48kHz
	for i := range samples {
		samples[i] = int16(i)
	}
	wav := buildWAV(t, 48000, 1, samples)

	src, err := OpenWAVSource(bytes.NewReader(wav), 16000)
	if err != nil {
		t.Fatal(err)
	}
	defer src.Close()

	got, err := ReadAllSamples(src)
	if err != nil {
		t.Fatal(err)
	}
	// 48kHz -> 16kHz is a 3:1 decimation; expect roughly a third as many
	// samples, allowing for resampler filter-edge slop.
	if len(got) == 0 || len(got) > len(samples) {
		t.Fatalf("got %d resampled samples from %d source samples", len(got), len(samples))
	}
}

func TestOpenWAVSourceRejectsNonPCM(t *testing.T) {
	wav := buildWAV(t, 16000, 1, []int16{1, 2, 3})
	// Corrupt the audio format tag (offset 20 in this layout: RIFF(12)+fmt chunk header(8)=20).
	wav[20] = 3 // IEEE float tag
	wav[21] = 0

	if _, err := OpenWAVSource(bytes.NewReader(wav), 16000); err == nil {
		t.Fatal("expected error for non-PCM format tag")
	}
}

func TestOpenWAVSourceRejectsMalformedRIFF(t *testing.T) {
	if _, err := OpenWAVSource(bytes.NewReader([]byte("not a wav file")), 16000); err == nil {
		t.Fatal("expected error for malformed RIFF header")
	}
}
