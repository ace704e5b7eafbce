// Copyright 2025 Born ML Framework. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

package trial

import (
	"github.com/sirupsen/logrus"

	"github.com/born-ml/xpbench/backend"
	"github.com/born-ml/xpbench/workload"
)

// Options describes one benchmark invocation by name.
type Options struct {
	Workload    string
	Backend     string
	Repetitions int
	Config      workload.Config
	Sink        Sink

	// Workers and GPUBatch tune the backend namespace, see
	// backend.WithWorkers and backend.WithGPUBatch.
	Workers  int
	GPUBatch int

	OnRepetition func(i int)
	Logger       logrus.FieldLogger
}

// Execute resolves the workload and backend names, opens the backend and
// runs the trial with the backend as barrier. Unknown names fail before
// any device is touched or any record is written.
func Execute(opts Options) error {
	wk, err := workload.Parse(opts.Workload)
	if err != nil {
		return err
	}
	bk, err := backend.Parse(opts.Backend)
	if err != nil {
		return err
	}
	if opts.Logger == nil {
		opts.Logger = logrus.StandardLogger()
	}

	inst, err := backend.Open(bk, backend.WithWorkers(opts.Workers), backend.WithGPUBatch(opts.GPUBatch))
	if err != nil {
		return err
	}
	defer inst.Close()

	opts.Config.Logger = opts.Logger
	w, err := workload.New(wk, inst, opts.Config)
	if err != nil {
		return err
	}

	runner, err := NewRunner(Config{
		Backend:      inst.Name(),
		Repetitions:  opts.Repetitions,
		Barrier:      inst,
		Sink:         opts.Sink,
		OnRepetition: opts.OnRepetition,
		Logger:       opts.Logger,
	})
	if err != nil {
		return err
	}

	opts.Logger.WithFields(logrus.Fields{
		"workload":    wk.String(),
		"backend":     inst.Name(),
		"device":      inst.Capabilities().Device.String(),
		"namespace":   inst.Namespace().Name(),
		"repetitions": opts.Repetitions,
	}).Info("Starting trial")
	return runner.Run(w)
}
