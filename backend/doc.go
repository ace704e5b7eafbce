// Copyright 2025 Born ML Framework. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

// Package backend resolves benchmark backend names to array namespaces.
//
// # Overview
//
// The set of backends is closed:
//
//	reference-CPU  gonum BLAS over host slices, synchronous
//	GPU-array      WebGPU, every op submitted immediately, asynchronous
//	tensor-CPU     parallel Go kernels over host slices, synchronous
//	tensor-GPU     WebGPU with batched submission, asynchronous
//
// Each Kind maps through a lookup table to its Capabilities. Open builds the
// namespace and returns an Instance that places host data on the device
// (Place) and acts as the synchronization barrier (Synchronize).
//
// # Basic Usage
//
//	inst, err := backend.OpenNamed("tensor-CPU")
//	if err != nil {
//	    return err
//	}
//	defer inst.Close()
//
//	x, err := inst.Place(data, tensor.Shape{rows, cols})
//	...
//	_ = inst.Synchronize()
//
// # One Backend Per Process
//
// Tensor backends set the process-wide default device, and nothing restores
// it. Open therefore refuses a second backend with ErrBackendAlreadySelected
// until the first instance is closed. Run each backend in its own process.
package backend
