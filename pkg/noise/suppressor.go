// Package noise implements a single-channel spectral-subtraction noise
// suppressor that runs ahead of the mel stage when --enable-noise-suppression
// is set. It is deliberately built on the standard library only: nothing in
// this corpus's dependency surface offers single-channel noise suppression,
// and the FFT this package needs is small enough to adapt directly from
// this corpus's own mel-filterbank FFT rather than pull in an external DSP
// library for one function.
package noise

import "math"

// Suppressor estimates a noise floor as an exponential moving average of
// every window's magnitude spectrum and subtracts it from each window's
// magnitude spectrum before resynthesis.
// Process accepts samples in whatever chunk size the caller drives it with;
// internally the suppressor buffers them into fixed-size, 50%-overlapping
// FFT windows and overlap-adds the result back into a stream, so its FFT
// granularity never has to match the pipeline's ingest chunk size.
type Suppressor struct {
	fftSize int
	hopSize int

	noiseEstimate []float64 // magnitude spectrum, half-length+1
	alpha         float64   // noise-floor adaptation rate
	oversub       float64   // over-subtraction factor
	floor         float64   // spectral floor as a fraction of the signal

	window []float64

	pending []float32 // input not yet enough to fill a window
	ready   []float32 // processed output not yet returned to a caller
	tail    []float64 // second half of the previous window's synthesis, awaiting overlap-add
}

// New creates a Suppressor whose internal FFT window is fftSize samples,
// which must be a power of two. fftSize is independent of whatever frame
// size callers pass to Process.
func New(fftSize int) *Suppressor {
	if fftSize <= 0 || fftSize&(fftSize-1) != 0 {
		panic("noise: fftSize must be a positive power of two")
	}
	hop := fftSize / 2
	return &Suppressor{
		fftSize:       fftSize,
		hopSize:       hop,
		noiseEstimate: make([]float64, fftSize/2+1),
		alpha:         0.05,
		oversub:       1.5,
		floor:         0.05,
		window:        hannWindow(fftSize),
		tail:          make([]float64, hop),
	}
}

// Process suppresses stationary noise in samples in-place. samples may be
// any length, fixed or not, across calls: Process buffers internally and
// only ever writes back samples it has already finished processing, so
// output lags input by up to one FFT window while the stream fills that
// first window, then tracks it continuously after.
func (s *Suppressor) Process(samples []float32) {
	s.pending = append(s.pending, samples...)

	for len(s.pending) >= s.fftSize {
		s.processWindow(s.pending[:s.fftSize])
		s.pending = s.pending[s.hopSize:]
	}

	for i := range samples {
		if len(s.ready) == 0 {
			samples[i] = 0
			continue
		}
		samples[i] = s.ready[0]
		s.ready = s.ready[1:]
	}
}

// processWindow runs one fftSize window through spectral subtraction and
// overlap-adds the hopSize samples it produces into s.ready. A Hann window
// applied only at analysis, with a 50%-overlap hop, already satisfies the
// constant-overlap-add identity, so synthesis needs no window of its own
// and no division to undo one.
func (s *Suppressor) processWindow(frame []float32) {
	real := make([]float64, s.fftSize)
	imag := make([]float64, s.fftSize)
	for i, v := range frame {
		real[i] = float64(v) * s.window[i]
	}

	fft(real, imag)

	half := s.fftSize/2 + 1
	mag := make([]float64, half)
	phase := make([]float64, half)
	for i := 0; i < half; i++ {
		mag[i] = math.Hypot(real[i], imag[i])
		phase[i] = math.Atan2(imag[i], real[i])
	}

	for i := 0; i < half; i++ {
		s.noiseEstimate[i] = (1-s.alpha)*s.noiseEstimate[i] + s.alpha*mag[i]
	}

	for i := 0; i < half; i++ {
		cleaned := mag[i] - s.oversub*s.noiseEstimate[i]
		floor := s.floor * mag[i]
		if cleaned < floor {
			cleaned = floor
		}
		mag[i] = cleaned
	}

	for i := 0; i < half; i++ {
		real[i] = mag[i] * math.Cos(phase[i])
		imag[i] = mag[i] * math.Sin(phase[i])
	}
	// Mirror the spectrum for the inverse transform (real input symmetry).
	for i := half; i < s.fftSize; i++ {
		mirror := s.fftSize - i
		real[i] = real[mirror]
		imag[i] = -imag[mirror]
	}

	ifft(real, imag)

	out := make([]float32, s.hopSize)
	for i := 0; i < s.hopSize; i++ {
		out[i] = float32(real[i] + s.tail[i])
	}
	for i := 0; i < s.hopSize; i++ {
		s.tail[i] = real[s.hopSize+i]
	}
	s.ready = append(s.ready, out...)
}

// Reset clears the rolling noise-floor estimate and any buffered audio.
func (s *Suppressor) Reset() {
	for i := range s.noiseEstimate {
		s.noiseEstimate[i] = 0
	}
	for i := range s.tail {
		s.tail[i] = 0
	}
	s.pending = s.pending[:0]
	s.ready = s.ready[:0]
}

func hannWindow(n int) []float64 {
	w := make([]float64, n)
	for i := range w {
		w[i] = 0.5 - 0.5*math.Cos(2*math.Pi*float64(i)/float64(n))
	}
	return w
}
