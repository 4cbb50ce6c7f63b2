package noise

import "math"

// fft performs an in-place radix-2 Cooley-Tukey FFT. real and imag must
// have the same power-of-two length. Adapted from a mel-filterbank FFT
// (pkg/audio/fbank) that is no longer part of this tree; it is a
// self-contained handful of lines with no other shared state.
func fft(real, imag []float64) {
	transform(real, imag, -1)
}

// ifft performs an in-place inverse FFT, including the 1/n scaling.
func ifft(real, imag []float64) {
	transform(real, imag, 1)
	n := float64(len(real))
	for i := range real {
		real[i] /= n
		imag[i] /= n
	}
}

func transform(real, imag []float64, sign float64) {
	n := len(real)
	if n <= 1 {
		return
	}

	j := 0
	for i := 0; i < n-1; i++ {
		if i < j {
			real[i], real[j] = real[j], real[i]
			imag[i], imag[j] = imag[j], imag[i]
		}
		k := n >> 1
		for k <= j {
			j -= k
			k >>= 1
		}
		j += k
	}

	for size := 2; size <= n; size <<= 1 {
		half := size >> 1
		angle := sign * 2.0 * math.Pi / float64(size)
		wR := math.Cos(angle)
		wI := math.Sin(angle)

		for start := 0; start < n; start += size {
			tR, tI := 1.0, 0.0
			for k := 0; k < half; k++ {
				u := start + k
				v := u + half

				tmpR := tR*real[v] - tI*imag[v]
				tmpI := tR*imag[v] + tI*real[v]

				real[v] = real[u] - tmpR
				imag[v] = imag[u] - tmpI
				real[u] += tmpR
				imag[u] += tmpI

				tR, tI = tR*wR-tI*wI, tR*wI+tI*wR
			}
		}
	}
}
