// Copyright 2025 Born ML Framework. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

// Package workload defines the numerical routines xpbench measures.
//
// # Overview
//
// Two workloads exist, each written once against the array namespace:
//   - classification: linear discriminant analysis on a synthetic labeled
//     dataset, timed as the phases "fit" and "predict"
//   - spectral: Welch power spectral density of a long 1-D signal, timed as
//     one phase labeled "true" or "false" after the strict array API flag
//
// Every invocation of Run places fresh device arrays from host data that is
// generated once per Workload, then hands each phase to a Meter that owns
// synchronization and timing.
//
// # Basic Usage
//
//	inst, _ := backend.OpenNamed("tensor-CPU")
//	w, err := workload.New(workload.Spectral, inst, workload.DefaultConfig())
//	if err != nil {
//	    return err
//	}
//	err = w.Run(meter)
package workload
