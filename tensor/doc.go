// Copyright 2025 Born ML Framework. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

// Package tensor is the public array namespace shared by the xpbench backends.
//
// # Overview
//
// Workloads are written once against the Backend interface and run unchanged
// on every backend:
//   - RawTensor: a float32 array of at most two dimensions
//   - Backend: transfer, matrix, element-wise, reduction and framing ops
//   - Periodogrammer: optional native Welch fast path
//   - Strict: a decorator that validates and copies every operand
//
// # Basic Usage
//
//	import (
//	    "github.com/born-ml/xpbench/backend/cpu"
//	    "github.com/born-ml/xpbench/tensor"
//	)
//
//	func main() {
//	    b := cpu.New()
//	    x := b.FromHost([]float32{1, 2, 3, 4}, tensor.Shape{2, 2})
//	    y := b.MatMul(x, b.Transpose(x))
//	    fmt.Println(b.ToHost(y))
//	}
//
// # Devices
//
// Arrays live on one of two devices:
//   - CPU: host memory, addressable from Go
//   - WebGPU: device memory, read back through Backend.ToHost
//
// Ops on the WebGPU device may still be running when they return. Call
// Backend.Synchronize before reading a clock.
package tensor
