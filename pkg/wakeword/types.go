// Package wakeword defines the data model and constants shared by every
// stage of the detection pipeline: audio ingest, mel spectrogram, speech
// embedding, and per-word detection.
package wakeword

import "time"

const (
	// SampleRate is the audio sample rate the entire pipeline operates at.
	SampleRate = 16000
	// ChunkSamples is the number of samples the ingest stage groups into a
	// single AudioChunk before handing it downstream.
	ChunkSamples = 1280
	// NumMels is the number of mel bands the mel spectrogram model emits
	// per frame.
	NumMels = 32
	// EmbeddingWindow is the number of mel frames the embedding model
	// consumes per inference.
	EmbeddingWindow = 76
	// EmbeddingStep is the number of mel frames the embedding window
	// advances between consecutive inferences.
	EmbeddingStep = 8
	// EmbeddingFeatures is the width of a single embedding vector.
	EmbeddingFeatures = 96
	// WakewordFeatures is the number of embedding vectors a wake-word
	// classifier consumes per inference.
	WakewordFeatures = 16

	// DefaultRescaleSlope and DefaultRescaleOffset reproduce the original
	// mel-to-embedding rescale formula (melData[i]/10.0)+2.0, kept as
	// configurable defaults rather than literals.
	DefaultRescaleSlope  = 0.1
	DefaultRescaleOffset = 2.0
)

// AudioChunk is a fixed-size block of raw PCM16LE samples as read from a
// Source, before float32 conversion.
type AudioChunk struct {
	Samples []int16
	// Seq is a monotonically increasing sequence number assigned by the
	// ingest stage, used only for diagnostics.
	Seq uint64
}

// AudioFrame is a chunk of audio converted to float32, ready to be pushed
// into the mel stage's ring buffer.
type AudioFrame struct {
	Samples []float32
	Seq     uint64
}

// MelSlice is the output of a single mel-spectrogram inference: NumMels
// values rescaled for the embedding model.
type MelSlice struct {
	Values [NumMels]float32
}

// MelWindow is EmbeddingWindow consecutive MelSlices laid out as
// NumMels*EmbeddingWindow contiguous float32 values, the exact shape the
// embedding model expects.
type MelWindow struct {
	Values []float32 // len == NumMels*EmbeddingWindow
}

// Embedding is the output of a single embedding-model inference.
type Embedding struct {
	Values [EmbeddingFeatures]float32
}

// FeatureWindow is WakewordFeatures consecutive Embeddings laid out as
// EmbeddingFeatures*WakewordFeatures contiguous float32 values, the exact
// shape a wake-word classifier expects.
type FeatureWindow struct {
	Values []float32 // len == EmbeddingFeatures*WakewordFeatures
}

// Prediction is a single classifier score for one detector, before
// hysteresis is applied.
type Prediction struct {
	DetectorName string
	Score        float32
	Seq          uint64
}

// Detection is a discrete wake-word event emitted once a detector's
// hysteresis counter crosses its trigger level.
type Detection struct {
	DetectorName string
	Score        float32
	Seq          uint64
	Time         time.Time
}
