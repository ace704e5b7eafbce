// Copyright 2025 Born ML Framework. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

package cpu

import (
	internalcpu "github.com/born-ml/xpbench/internal/backend/cpu"
	"github.com/born-ml/xpbench/internal/parallel"
	"github.com/born-ml/xpbench/tensor"
)

// Backend is the tensor library's CPU mode.
//
// Kernels run on goroutines over host memory and the backend implements
// tensor.Periodogrammer with a native FFT Welch path.
type Backend = internalcpu.CPUBackend

// Compile-time check that Backend implements tensor.Backend.
var _ tensor.Backend = (*Backend)(nil)

// New creates a CPU backend using every available core.
//
// Example:
//
//	import (
//	    "github.com/born-ml/xpbench/backend/cpu"
//	    "github.com/born-ml/xpbench/tensor"
//	)
//
//	func main() {
//	    backend := cpu.New()
//	    x := backend.FromHost([]float32{1, 2, 3}, tensor.Shape{3})
//	}
func New() *Backend {
	return internalcpu.New()
}

// NewWithWorkers creates a CPU backend limited to n worker goroutines.
// n <= 0 uses every available core and n == 1 runs every kernel on the
// calling goroutine.
func NewWithWorkers(n int) *Backend {
	switch {
	case n <= 0:
		return internalcpu.New()
	case n == 1:
		return internalcpu.NewWithConfig(parallel.Sequential())
	}
	cfg := parallel.DefaultConfig()
	cfg.Enabled, cfg.NumWorkers = true, n
	return internalcpu.NewWithConfig(cfg)
}
