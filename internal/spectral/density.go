package spectral

import (
	"fmt"
	"sync"

	algofft "github.com/MeKo-Christian/algo-fft"
	"github.com/cwbudde/algo-vecmath"

	"github.com/born-ml/xpbench/internal/parallel"
)

// segmentScratch holds per-worker buffers for one FFT size.
type segmentScratch struct {
	plan *algofft.Plan[complex128]
	seg  []float64
	in   []complex128
	out  []complex128
	re   []float64
	im   []float64
	pow  []float64
	acc  []float64
}

func newSegmentScratch(p Params) (*segmentScratch, error) {
	plan, err := algofft.NewPlan64(p.NPerSeg)
	if err != nil {
		return nil, fmt.Errorf("fft plan for %d points: %w", p.NPerSeg, err)
	}
	return &segmentScratch{
		plan: plan,
		seg:  make([]float64, p.NPerSeg),
		in:   make([]complex128, p.NPerSeg),
		out:  make([]complex128, p.NPerSeg),
		re:   make([]float64, p.NFreq),
		im:   make([]float64, p.NFreq),
		pow:  make([]float64, p.NFreq),
		acc:  make([]float64, p.NFreq),
	}, nil
}

// accumulate adds the periodogram of one segment to s.acc.
func (s *segmentScratch) accumulate(x []float32, window []float64) error {
	var mean float64
	for i, v := range x {
		s.seg[i] = float64(v)
		mean += float64(v)
	}
	mean /= float64(len(x))
	for i := range s.seg {
		s.seg[i] -= mean
	}

	vecmath.MulBlockInPlace(s.seg, window)

	for i, v := range s.seg {
		s.in[i] = complex(v, 0)
	}
	if err := s.plan.Forward(s.out, s.in); err != nil {
		return err
	}

	for k := range s.re {
		s.re[k] = real(s.out[k])
		s.im[k] = imag(s.out[k])
	}
	vecmath.Power(s.pow, s.re, s.im)

	for k, v := range s.pow {
		s.acc[k] += v
	}
	return nil
}

// Density computes the one-sided Welch power spectral density of a host
// signal. Segments are split across workers according to cfg; each worker
// owns its FFT plan and accumulator.
func Density(x []float32, nperseg int, fs float64, cfg parallel.Config) ([]float32, error) {
	p, err := NewParams(len(x), nperseg, fs)
	if err != nil {
		return nil, err
	}

	var (
		mu       sync.Mutex
		total    = make([]float64, p.NFreq)
		firstErr error
	)

	parallel.ForRange(p.Segments, func(start, end int) {
		s, err := newSegmentScratch(p)
		if err == nil {
			for i := start; i < end && err == nil; i++ {
				off := i * p.Step
				err = s.accumulate(x[off:off+p.NPerSeg], p.Window)
			}
		}

		mu.Lock()
		defer mu.Unlock()
		if err != nil {
			if firstErr == nil {
				firstErr = err
			}
			return
		}
		for k, v := range s.acc {
			total[k] += v
		}
	}, cfg)

	if firstErr != nil {
		return nil, firstErr
	}

	out := make([]float32, p.NFreq)
	for k, v := range total {
		out[k] = float32(v / float64(p.Segments) * p.Weights[k])
	}
	return out, nil
}
