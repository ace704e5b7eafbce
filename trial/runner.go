// Copyright 2025 Born ML Framework. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

package trial

import (
	"time"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"

	"github.com/born-ml/xpbench/workload"
)

// Barrier blocks until outstanding device work has completed.
type Barrier interface {
	Synchronize() error
}

// Config configures a Runner.
type Config struct {
	// Backend is written into the backend column of every record.
	Backend string

	Repetitions int
	Barrier     Barrier
	Sink        Sink

	// Clock defaults to time.Now.
	Clock func() time.Time

	// OnRepetition is called after repetition i (1-based) has been flushed.
	OnRepetition func(i int)

	Logger logrus.FieldLogger
}

// Runner executes trials.
type Runner struct {
	cfg Config
	log logrus.FieldLogger
}

// NewRunner validates cfg and returns a Runner.
func NewRunner(cfg Config) (*Runner, error) {
	if cfg.Repetitions < 1 {
		return nil, errors.Errorf("repetitions must be at least 1, got %d", cfg.Repetitions)
	}
	if cfg.Barrier == nil {
		return nil, errors.New("nil barrier")
	}
	if cfg.Sink == nil {
		return nil, errors.New("nil sink")
	}
	if cfg.Clock == nil {
		cfg.Clock = time.Now
	}
	if cfg.Logger == nil {
		cfg.Logger = logrus.StandardLogger()
	}
	return &Runner{cfg: cfg, log: cfg.Logger.WithField("backend", cfg.Backend)}, nil
}

// Run performs one warmup invocation of w that records nothing, then
// Repetitions recorded invocations. The first error aborts the trial.
func (r *Runner) Run(w workload.Workload) error {
	log := r.log.WithField("workload", w.Kind().String())

	log.Debug("Warmup")
	if err := w.Run(&meter{runner: r}); err != nil {
		return errors.Wrap(err, "warmup")
	}

	for i := 1; i <= r.cfg.Repetitions; i++ {
		if err := w.Run(&meter{runner: r, recording: true}); err != nil {
			return errors.Wrapf(err, "repetition %d", i)
		}
		if err := r.cfg.Sink.Flush(); err != nil {
			return err
		}
		log.WithField("repetition", i).Debug("Repetition done")
		if r.cfg.OnRepetition != nil {
			r.cfg.OnRepetition(i)
		}
	}

	log.WithField("repetitions", r.cfg.Repetitions).Info("Trial complete")
	return nil
}

// meter implements workload.Meter for one invocation.
type meter struct {
	runner    *Runner
	recording bool
}

// Measure brackets fn with the barrier and the clock.
func (m *meter) Measure(phase string, fn func() error) error {
	cfg := m.runner.cfg

	if err := cfg.Barrier.Synchronize(); err != nil {
		return errors.Wrapf(err, "%s: synchronize before start", phase)
	}
	start := cfg.Clock()
	if err := fn(); err != nil {
		return errors.Wrap(err, phase)
	}
	if err := cfg.Barrier.Synchronize(); err != nil {
		return errors.Wrapf(err, "%s: synchronize before stop", phase)
	}
	elapsed := cfg.Clock().Sub(start)

	if !m.recording {
		return nil
	}
	return cfg.Sink.Emit(Record{Elapsed: elapsed, Backend: cfg.Backend, Phase: phase})
}
