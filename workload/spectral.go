// Copyright 2025 Born ML Framework. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

package workload

import (
	"strconv"
	"sync"
	"time"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"

	"github.com/born-ml/xpbench/backend"
	"github.com/born-ml/xpbench/internal/dataset"
	"github.com/born-ml/xpbench/internal/spectral"
	"github.com/born-ml/xpbench/tensor"
)

type welchWorkload struct {
	inst *backend.Instance
	cfg  Config
	log  logrus.FieldLogger

	once   sync.Once
	signal []float32
	err    error
}

func (s *welchWorkload) Kind() Kind { return Spectral }

// Phases returns the single phase, labeled with the strict flag.
func (s *welchWorkload) Phases() []string { return []string{strconv.FormatBool(s.cfg.Strict)} }

func (s *welchWorkload) host() ([]float32, error) {
	s.once.Do(func() {
		start := time.Now()
		s.signal, s.err = dataset.MakeSignal(s.cfg.Signal)
		if s.err == nil {
			s.log.WithFields(logrus.Fields{
				"samples": len(s.signal),
				"policy":  s.cfg.Signal.Policy,
				"took":    time.Since(start),
			}).Debug("Generated spectral signal")
		}
	})
	return s.signal, s.err
}

// Run places the signal and measures one Welch estimate.
func (s *welchWorkload) Run(m Meter) error {
	signal, err := s.host()
	if err != nil {
		return errors.Wrap(err, "spectral signal")
	}

	x, err := s.inst.Place(signal, tensor.Shape{len(signal)})
	if err != nil {
		return err
	}
	defer x.Release()

	ns := s.inst.Namespace()
	if s.cfg.Strict {
		ns = tensor.Strict(ns)
	}

	phase := s.Phases()[0]
	return m.Measure(phase, guard("welch", func() error {
		spectral.Welch(ns, x, s.cfg.NPerSeg, s.cfg.FS).Release()
		return nil
	}))
}
