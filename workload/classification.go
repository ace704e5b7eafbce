// Copyright 2025 Born ML Framework. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

package workload

import (
	"sync"
	"time"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"

	"github.com/born-ml/xpbench/backend"
	"github.com/born-ml/xpbench/internal/dataset"
	"github.com/born-ml/xpbench/internal/lda"
	"github.com/born-ml/xpbench/tensor"
)

type ldaWorkload struct {
	inst *backend.Instance
	cfg  ClassificationConfig
	log  logrus.FieldLogger

	once sync.Once
	data *dataset.Classification
	err  error
}

func (c *ldaWorkload) Kind() Kind { return Classification }

func (c *ldaWorkload) Phases() []string { return []string{PhaseFit, PhasePredict} }

// host generates the dataset on first use and reuses it afterwards.
func (c *ldaWorkload) host() (*dataset.Classification, error) {
	c.once.Do(func() {
		start := time.Now()
		c.data, c.err = dataset.MakeClassification(c.cfg)
		if c.err == nil {
			c.log.WithFields(logrus.Fields{
				"samples":  c.data.Samples,
				"features": c.data.Features,
				"took":     time.Since(start),
			}).Debug("Generated classification dataset")
		}
	})
	return c.data, c.err
}

// Run places X and y, then measures LDA fit and predict.
func (c *ldaWorkload) Run(m Meter) error {
	data, err := c.host()
	if err != nil {
		return errors.Wrap(err, "classification dataset")
	}

	x, err := c.inst.Place(data.X, tensor.Shape{data.Samples, data.Features})
	if err != nil {
		return err
	}
	defer x.Release()
	y, err := c.inst.Place(data.Y, tensor.Shape{data.Samples})
	if err != nil {
		return err
	}
	defer y.Release()

	ns := c.inst.Namespace()
	var model *lda.Model
	err = m.Measure(PhaseFit, guard(PhaseFit, func() error {
		var fitErr error
		model, fitErr = lda.Fit(ns, x, y)
		return fitErr
	}))
	// The fit may have succeeded even when its measurement failed.
	if model != nil {
		defer model.Release()
	}
	if err != nil {
		return err
	}

	return m.Measure(PhasePredict, guard(PhasePredict, func() error {
		model.Predict(ns, x).Release()
		return nil
	}))
}
