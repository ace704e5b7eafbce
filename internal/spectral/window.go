// Package spectral implements power spectral density estimation with Welch's
// method, both as a host fast path and as a composition of array namespace ops.
package spectral

import (
	"fmt"
	"math"
)

// Hann returns the periodic Hann window of length n (the DFT-even form used
// for spectral analysis, w[i] = 0.5 - 0.5*cos(2*pi*i/n)).
func Hann(n int) []float64 {
	w := make([]float64, n)
	if n == 1 {
		w[0] = 1
		return w
	}
	for i := range w {
		w[i] = 0.5 - 0.5*math.Cos(2*math.Pi*float64(i)/float64(n))
	}
	return w
}

// Params holds the derived quantities of one Welch configuration.
type Params struct {
	NPerSeg  int
	Step     int
	NFreq    int
	Segments int
	Window   []float64
	// Weights folds density scaling and the one-sided doubling into one
	// factor per frequency bin.
	Weights []float64
}

// NewParams validates a configuration and derives window, segment count and
// per-bin weights for a signal of n samples.
func NewParams(n, nperseg int, fs float64) (Params, error) {
	if nperseg < 2 {
		return Params{}, fmt.Errorf("nperseg must be at least 2, got %d", nperseg)
	}
	if n < nperseg {
		return Params{}, fmt.Errorf("signal of %d samples is shorter than nperseg %d", n, nperseg)
	}
	if fs <= 0 {
		return Params{}, fmt.Errorf("sampling frequency must be positive, got %g", fs)
	}

	step := nperseg - nperseg/2
	win := Hann(nperseg)

	var sumSq float64
	for _, v := range win {
		sumSq += v * v
	}
	scale := 1 / (fs * sumSq)

	nfreq := nperseg/2 + 1
	weights := make([]float64, nfreq)
	for k := range weights {
		weights[k] = scale
		// Every bin except DC and (for even lengths) Nyquist folds in its
		// negative-frequency twin.
		if k > 0 && !(nperseg%2 == 0 && k == nfreq-1) {
			weights[k] *= 2
		}
	}

	return Params{
		NPerSeg:  nperseg,
		Step:     step,
		NFreq:    nfreq,
		Segments: (n-nperseg)/step + 1,
		Window:   win,
		Weights:  weights,
	}, nil
}

// DFTBasis returns the real and imaginary DFT matrices of shape
// [nperseg, nfreq] in row-major order, so that frames @ basis yields the
// one-sided spectrum of each frame.
func DFTBasis(nperseg int) (cos, sin []float32) {
	nfreq := nperseg/2 + 1
	cos = make([]float32, nperseg*nfreq)
	sin = make([]float32, nperseg*nfreq)
	for n := 0; n < nperseg; n++ {
		for k := 0; k < nfreq; k++ {
			phase := 2 * math.Pi * float64(k*n) / float64(nperseg)
			cos[n*nfreq+k] = float32(math.Cos(phase))
			sin[n*nfreq+k] = float32(-math.Sin(phase))
		}
	}
	return cos, sin
}

func toFloat32(xs []float64) []float32 {
	out := make([]float32, len(xs))
	for i, v := range xs {
		out[i] = float32(v)
	}
	return out
}
