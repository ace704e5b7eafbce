// Copyright 2025 Born ML Framework. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

package workload

import (
	"fmt"
	"strings"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"

	"github.com/born-ml/xpbench/backend"
	"github.com/born-ml/xpbench/internal/dataset"
)

// ErrUnsupportedWorkload is returned for a workload name outside the closed set.
var ErrUnsupportedWorkload = errors.New("unsupported workload")

// Kind identifies a benchmarked routine.
type Kind int

// Supported workloads.
const (
	Classification Kind = iota
	Spectral
)

var kindNames = [...]string{
	Classification: "classification",
	Spectral:       "spectral",
}

// aliases maps the names used by older result files onto workloads.
var aliases = map[string]Kind{
	"scikit-learn": Classification,
	"scipy":        Spectral,
}

// Classification phase labels.
const (
	PhaseFit     = "fit"
	PhasePredict = "predict"
)

// String returns the CLI name of the workload.
func (k Kind) String() string {
	if k < 0 || int(k) >= len(kindNames) {
		return fmt.Sprintf("Kind(%d)", int(k))
	}
	return kindNames[k]
}

// Names returns the CLI names of every workload.
func Names() []string {
	return append([]string(nil), kindNames[:]...)
}

// Parse resolves a workload name or one of its aliases.
func Parse(name string) (Kind, error) {
	lower := strings.ToLower(name)
	for k, n := range kindNames {
		if n == lower {
			return Kind(k), nil
		}
	}
	if k, ok := aliases[lower]; ok {
		return k, nil
	}
	return 0, errors.Wrapf(ErrUnsupportedWorkload, "%q (want one of %s)", name, strings.Join(kindNames[:], ", "))
}

// Meter times one phase: it synchronizes the backend, starts the clock,
// runs fn, synchronizes again and stops the clock. Whether the sample is
// recorded is up to the Meter.
type Meter interface {
	Measure(phase string, fn func() error) error
}

// Workload is a routine bound to an opened backend.
type Workload interface {
	Kind() Kind

	// Phases lists the phase labels Run measures, in order.
	Phases() []string

	// Run places the input data and measures every phase once.
	Run(m Meter) error
}

// ClassificationConfig configures the synthetic labeled dataset.
type ClassificationConfig = dataset.ClassificationConfig

// SignalConfig configures the synthetic spectral input.
type SignalConfig = dataset.SignalConfig

// SignalPolicy selects how the spectral input is generated.
type SignalPolicy = dataset.SignalPolicy

// Signal policies.
const (
	SignalSine  = dataset.SignalSine
	SignalProbe = dataset.SignalProbe
)

// Config configures both workloads.
type Config struct {
	Classification ClassificationConfig
	Signal         SignalConfig

	NPerSeg int     // Welch segment length
	FS      float64 // sampling frequency passed to Welch

	// Strict routes the spectral workload through the strict array API.
	Strict bool

	Logger logrus.FieldLogger
}

// DefaultConfig returns the benchmark sizes: 400000 x 300 samples for
// classification and a 50M-sample sinusoid for spectral, nperseg 8, fs 1.
func DefaultConfig() Config {
	return Config{
		Classification: dataset.DefaultClassificationConfig(),
		Signal:         dataset.DefaultSignalConfig(),
		NPerSeg:        8,
		FS:             1.0,
		Logger:         logrus.StandardLogger(),
	}
}

// New binds workload k to inst.
func New(k Kind, inst *backend.Instance, cfg Config) (Workload, error) {
	if cfg.Logger == nil {
		cfg.Logger = logrus.StandardLogger()
	}
	log := cfg.Logger.WithFields(logrus.Fields{"workload": k.String(), "backend": inst.Name()})

	switch k {
	case Classification:
		if err := cfg.Classification.Validate(); err != nil {
			return nil, errors.Wrap(err, "classification")
		}
		return &ldaWorkload{inst: inst, cfg: cfg.Classification, log: log}, nil
	case Spectral:
		if cfg.NPerSeg < 2 || cfg.FS <= 0 {
			return nil, errors.Errorf("spectral: invalid nperseg %d / fs %g", cfg.NPerSeg, cfg.FS)
		}
		if cfg.Signal.Length < cfg.NPerSeg {
			return nil, errors.Errorf("spectral: signal of %d samples is shorter than nperseg %d", cfg.Signal.Length, cfg.NPerSeg)
		}
		return &welchWorkload{inst: inst, cfg: cfg, log: log}, nil
	default:
		return nil, errors.Wrapf(ErrUnsupportedWorkload, "%v", k)
	}
}

// guard turns a namespace panic inside fn into an error.
func guard(op string, fn func() error) func() error {
	return func() (err error) {
		defer func() {
			if r := recover(); r != nil {
				if e, ok := r.(error); ok {
					err = errors.Wrap(e, op)
					return
				}
				err = errors.Errorf("%s: %v", op, r)
			}
		}()
		return fn()
	}
}
