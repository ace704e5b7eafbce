// Package cpu implements the host tensor backend: float32 arrays in Go memory
// with kernels split across goroutines.
package cpu

import (
	"fmt"

	"github.com/born-ml/xpbench/internal/parallel"
	"github.com/born-ml/xpbench/internal/tensor"
)

// Compile-time checks.
var (
	_ tensor.Backend        = (*CPUBackend)(nil)
	_ tensor.Periodogrammer = (*CPUBackend)(nil)
)

// CPUBackend implements tensor operations on the host with parallel kernels.
type CPUBackend struct {
	device   tensor.Device
	parallel parallel.Config
}

// New creates a CPU backend using every available core.
func New() *CPUBackend {
	return NewWithConfig(parallel.DefaultConfig())
}

// NewWithConfig creates a CPU backend with explicit parallelism settings.
func NewWithConfig(cfg parallel.Config) *CPUBackend {
	return &CPUBackend{
		device:   tensor.CPU,
		parallel: cfg,
	}
}

// Name returns the backend name with its worker count.
func (cpu *CPUBackend) Name() string {
	return fmt.Sprintf("CPU (%d workers)", cpu.Workers())
}

// Workers returns the number of goroutines the kernels fan out to.
func (cpu *CPUBackend) Workers() int {
	if !cpu.parallel.Enabled || cpu.parallel.NumWorkers < 1 {
		return 1
	}
	return cpu.parallel.NumWorkers
}

// Device returns the compute device.
func (cpu *CPUBackend) Device() tensor.Device {
	return cpu.device
}

// Synchronize is a no-op: every kernel has finished when it returns.
func (cpu *CPUBackend) Synchronize() error {
	return nil
}

// FromHost copies host data into a new array.
func (cpu *CPUBackend) FromHost(data []float32, shape tensor.Shape) *tensor.RawTensor {
	buf := make([]float32, len(data))
	copy(buf, data)
	result, err := tensor.FromSlice(buf, shape, cpu.device)
	if err != nil {
		panic(fmt.Sprintf("fromhost: %v", err))
	}
	return result
}

// ToHost returns a copy of the array's elements.
func (cpu *CPUBackend) ToHost(x *tensor.RawTensor) []float32 {
	cpu.checkDevice("tohost", x)
	out := make([]float32, x.NumElements())
	copy(out, x.AsFloat32())
	return out
}

// Transpose swaps the two dimensions of a 2-D array.
func (cpu *CPUBackend) Transpose(x *tensor.RawTensor) *tensor.RawTensor {
	cpu.checkDevice("transpose", x)
	if len(x.Shape()) != 2 {
		panic(fmt.Sprintf("transpose: expected 2D tensor, got %dD", len(x.Shape())))
	}
	rows, cols := x.Shape()[0], x.Shape()[1]
	result := cpu.alloc("transpose", tensor.Shape{cols, rows})

	src, dst := x.AsFloat32(), result.AsFloat32()
	parallel.ForRange(cols, func(start, end int) {
		for j := start; j < end; j++ {
			row := dst[j*rows : (j+1)*rows]
			for i := range row {
				row[i] = src[i*cols+j]
			}
		}
	}, cpu.parallel)

	return result
}

// Frame splits a 1-D signal into rows of size samples, advancing by step.
// Trailing samples that do not fill a whole frame are dropped.
func (cpu *CPUBackend) Frame(x *tensor.RawTensor, size, step int) *tensor.RawTensor {
	cpu.checkDevice("frame", x)
	n := x.NumElements()
	if size <= 0 || step <= 0 || size > n {
		panic(fmt.Sprintf("frame: invalid size %d / step %d for %d samples", size, step, n))
	}
	frames := (n-size)/step + 1
	result := cpu.alloc("frame", tensor.Shape{frames, size})

	src, dst := x.AsFloat32(), result.AsFloat32()
	parallel.ForRange(frames, func(start, end int) {
		for f := start; f < end; f++ {
			copy(dst[f*size:(f+1)*size], src[f*step:f*step+size])
		}
	}, cpu.parallel)

	return result
}

func (cpu *CPUBackend) alloc(op string, shape tensor.Shape) *tensor.RawTensor {
	result, err := tensor.NewRaw(shape, cpu.device)
	if err != nil {
		panic(fmt.Sprintf("%s: failed to create result tensor: %v", op, err))
	}
	return result
}

func (cpu *CPUBackend) checkDevice(op string, xs ...*tensor.RawTensor) {
	for _, x := range xs {
		if x.Device() != cpu.device {
			panic(fmt.Sprintf("%s: tensor on %s, backend is %s", op, x.Device(), cpu.device))
		}
	}
}
