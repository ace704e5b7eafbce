// Copyright 2025 Born ML Framework. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

// Package webgpu provides the WebGPU backend for GPU-accelerated array operations.
//
// The backend serves two benchmark targets. With lazy mode off every op is
// submitted to the queue as soon as it is encoded (GPU array library); with
// lazy mode on command buffers are batched until Synchronize or a host read
// (tensor library, GPU mode).
//
// On platforms without the native WebGPU library New returns ErrUnavailable.
//
// Example:
//
//	import (
//	    "github.com/born-ml/xpbench/backend/webgpu"
//	    "github.com/born-ml/xpbench/tensor"
//	)
//
//	func main() {
//	    gpu, err := webgpu.New()
//	    if err != nil {
//	        log.Fatal(err)
//	    }
//	    defer gpu.Release()
//
//	    x := gpu.FromHost([]float32{1, 2, 3, 4}, tensor.Shape{2, 2})
//	    y := gpu.MatMul(x, x)
//	    _ = gpu.Synchronize()
//	}
package webgpu

import (
	internalwebgpu "github.com/born-ml/xpbench/internal/backend/webgpu"
	"github.com/born-ml/xpbench/tensor"
)

// Backend represents the WebGPU backend implementation.
type Backend = internalwebgpu.Backend

// Compile-time check that Backend implements tensor.Backend.
var _ tensor.Backend = (*Backend)(nil)

// ErrUnavailable is returned when no WebGPU adapter or native library is present.
var ErrUnavailable = internalwebgpu.ErrUnavailable

// New creates a new WebGPU backend in lazy mode.
//
// Call Release() when done to free GPU resources.
func New() (*Backend, error) {
	return internalwebgpu.New()
}

// NewImmediate creates a WebGPU backend that submits every op as soon as it is encoded.
func NewImmediate() (*Backend, error) {
	b, err := internalwebgpu.New()
	if err != nil {
		return nil, err
	}
	b.SetLazyMode(false)
	return b, nil
}

// IsAvailable checks if WebGPU is available on the current system.
func IsAvailable() bool {
	return internalwebgpu.IsAvailable()
}
