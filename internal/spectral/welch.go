package spectral

import (
	"github.com/born-ml/xpbench/internal/tensor"
)

// Welch estimates the one-sided power spectral density of x, a 1-D array on
// b's device, and returns a 1-D array of nperseg/2+1 bins.
//
// Backends implementing tensor.Periodogrammer take their native path; all
// others (including strict-wrapped backends) compose frame, detrend, window
// and a DFT-by-matmul from namespace ops. Panics on invalid parameters, like
// every other namespace op.
func Welch(b tensor.Backend, x *tensor.RawTensor, nperseg int, fs float64) *tensor.RawTensor {
	if p, ok := b.(tensor.Periodogrammer); ok {
		return p.WelchDensity(x, nperseg, fs)
	}
	return Compose(b, x, nperseg, fs)
}

// Compose computes Welch's estimate using only tensor.Backend ops.
func Compose(b tensor.Backend, x *tensor.RawTensor, nperseg int, fs float64) *tensor.RawTensor {
	p, err := NewParams(x.NumElements(), nperseg, fs)
	if err != nil {
		panic("welch: " + err.Error())
	}

	frames := b.Frame(x, p.NPerSeg, p.Step) // [segments, nperseg]
	defer frames.Release()

	means := b.MeanDim(frames, 1, true) // [segments, 1]
	defer means.Release()
	detrended := b.Sub(frames, means)
	defer detrended.Release()

	window := b.FromHost(toFloat32(p.Window), tensor.Shape{1, p.NPerSeg})
	defer window.Release()
	windowed := b.Mul(detrended, window)
	defer windowed.Release()

	cosHost, sinHost := DFTBasis(p.NPerSeg)
	cosBasis := b.FromHost(cosHost, tensor.Shape{p.NPerSeg, p.NFreq})
	defer cosBasis.Release()
	sinBasis := b.FromHost(sinHost, tensor.Shape{p.NPerSeg, p.NFreq})
	defer sinBasis.Release()

	re := b.MatMul(windowed, cosBasis) // [segments, nfreq]
	defer re.Release()
	im := b.MatMul(windowed, sinBasis)
	defer im.Release()

	re2 := b.Mul(re, re)
	defer re2.Release()
	im2 := b.Mul(im, im)
	defer im2.Release()
	power := b.Add(re2, im2)
	defer power.Release()

	avg := b.MeanDim(power, 0, false) // [nfreq]
	defer avg.Release()

	weights := b.FromHost(toFloat32(p.Weights), tensor.Shape{p.NFreq})
	defer weights.Release()

	return b.Mul(avg, weights)
}
