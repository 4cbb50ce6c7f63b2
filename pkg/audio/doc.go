// Package audio provides audio processing utilities.
//
// This package serves as an umbrella for audio-related sub-packages:
//
//   - pcm: PCM16LE sample conversion, WAV parsing, and Source implementations.
//   - resampler: sample-rate conversion for input that doesn't already match
//     the pipeline's target rate.
//   - portaudio: optional (build-tag gated) live microphone capture.
//
// Example usage:
//
//	import "github.com/blazeiburgess/openwakeword-go/pkg/audio/pcm"
//
//	format := pcm.L16Mono16K
//	chunk := format.DataChunk(audioData)
package audio
