// Copyright 2025 Born ML Framework. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

// Package cpu provides the tensor library's CPU backend.
//
// # Overview
//
// This package implements the array namespace with:
//   - Pure Go kernels (no CGO)
//   - Goroutine-parallel matmul, element-wise ops and reductions
//   - Row, column and scalar broadcasting
//   - A native Welch periodogram built on a real FFT
//
// # Basic Usage
//
//	import (
//	    "github.com/born-ml/xpbench/backend/cpu"
//	    "github.com/born-ml/xpbench/tensor"
//	)
//
//	func main() {
//	    backend := cpu.New()
//	    x := backend.FromHost([]float32{1, 2, 3, 4}, tensor.Shape{2, 2})
//	    y := backend.MatMul(x, backend.Transpose(x))
//	}
//
// Work is complete when an op returns, so Synchronize is a no-op.
package cpu
