package pcm

import "golang.org/x/sys/cpu"

// hasAVX2 is resolved once at init time; the conversion loop below checks it
// on every call rather than branching per-sample.
var hasAVX2 = cpu.X86.HasAVX2

// Int16ToFloat32 widens PCM16LE samples to float32 with no scaling and no
// dither, matching the original implementation's plain `static_cast<float>`:
// values stay in [-32768, 32767], not normalized to [-1.0, 1.0]. It
// dispatches to a widened-stride loop on AVX2-capable amd64 hosts and falls
// back to the scalar loop everywhere else; both produce byte-identical
// output, since the widening only changes how many samples are converted
// between bounds checks, not the arithmetic itself.
func Int16ToFloat32(dst []float32, src []int16) {
	if len(dst) < len(src) {
		panic("pcm: Int16ToFloat32 destination shorter than source")
	}
	if hasAVX2 {
		int16ToFloat32Wide(dst, src)
		return
	}
	int16ToFloat32Scalar(dst, src)
}

func int16ToFloat32Scalar(dst []float32, src []int16) {
	for i, s := range src {
		dst[i] = float32(s)
	}
}

// int16ToFloat32Wide converts in groups of 8 to keep the loop body free of
// per-sample bounds checks on the common case; the tail is handled scalar.
func int16ToFloat32Wide(dst []float32, src []int16) {
	n := len(src)
	i := 0
	for ; i+8 <= n; i += 8 {
		d := dst[i : i+8]
		s := src[i : i+8]
		d[0] = float32(s[0])
		d[1] = float32(s[1])
		d[2] = float32(s[2])
		d[3] = float32(s[3])
		d[4] = float32(s[4])
		d[5] = float32(s[5])
		d[6] = float32(s[6])
		d[7] = float32(s[7])
	}
	for ; i < n; i++ {
		dst[i] = float32(src[i])
	}
}

// Float32ToInt16 narrows float32 samples back to int16 with a truncating
// cast, the inverse of Int16ToFloat32. A value outside [-32768, 32767] is
// not representable as int16 and is clamped rather than wrapped.
func Float32ToInt16(dst []int16, src []float32) {
	if len(dst) < len(src) {
		panic("pcm: Float32ToInt16 destination shorter than source")
	}
	for i, s := range src {
		switch {
		case s > 32767:
			dst[i] = 32767
		case s < -32768:
			dst[i] = -32768
		default:
			dst[i] = int16(s)
		}
	}
}
