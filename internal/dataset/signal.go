package dataset

import (
	"math"
	"math/rand/v2"
	"strings"

	"github.com/pkg/errors"
)

// SignalPolicy selects how the spectral workload's input is built.
// A process uses one policy for every repetition.
type SignalPolicy string

// Supported signal policies.
const (
	// SignalSine is a sinusoid plus white Gaussian noise.
	SignalSine SignalPolicy = "sine"
	// SignalProbe is all zeros except two unit samples at offsets 0 and 8.
	SignalProbe SignalPolicy = "probe"
)

// SignalPolicies lists the accepted policy names.
func SignalPolicies() []string {
	return []string{string(SignalSine), string(SignalProbe)}
}

// ParseSignalPolicy maps a name to a policy.
func ParseSignalPolicy(s string) (SignalPolicy, error) {
	switch p := SignalPolicy(strings.ToLower(s)); p {
	case SignalSine, SignalProbe:
		return p, nil
	default:
		return "", errors.Errorf("unknown signal policy %q (want one of %s)", s, strings.Join(SignalPolicies(), ", "))
	}
}

// SignalConfig describes the spectral workload input.
type SignalConfig struct {
	Length     int
	Policy     SignalPolicy
	Seed       uint64
	FS         float64 // sampling rate the sinusoid is generated at
	Amplitude  float64
	Frequency  float64
	NoisePower float64
}

// DefaultSignalConfig returns a 50M-sample 1234 Hz sine sampled at 10 kHz
// with amplitude 2*sqrt(2) and noise power 0.001*fs/2.
func DefaultSignalConfig() SignalConfig {
	fs := 10e3
	return SignalConfig{
		Length:     50_000_000,
		Policy:     SignalSine,
		FS:         fs,
		Amplitude:  2 * math.Sqrt2,
		Frequency:  1234.0,
		NoisePower: 0.001 * fs / 2,
	}
}

// probeOffsets are the non-zero samples of the probe signal.
var probeOffsets = []int{0, 8}

// MakeSignal builds the signal described by cfg.
func MakeSignal(cfg SignalConfig) ([]float32, error) {
	if cfg.Length <= 0 {
		return nil, errors.Errorf("signal length must be positive, got %d", cfg.Length)
	}

	x := make([]float32, cfg.Length)
	switch cfg.Policy {
	case SignalProbe:
		for _, off := range probeOffsets {
			if off < len(x) {
				x[off] = 1
			}
		}
	case SignalSine:
		if cfg.FS <= 0 {
			return nil, errors.Errorf("sampling rate must be positive, got %g", cfg.FS)
		}
		rng := rand.New(rand.NewPCG(cfg.Seed, cfg.Seed^0x5851f42d4c957f2d))
		sigma := math.Sqrt(cfg.NoisePower)
		w := 2 * math.Pi * cfg.Frequency / cfg.FS
		for i := range x {
			x[i] = float32(cfg.Amplitude*math.Sin(w*float64(i)) + sigma*rng.NormFloat64())
		}
	default:
		return nil, errors.Errorf("unknown signal policy %q", cfg.Policy)
	}
	return x, nil
}
