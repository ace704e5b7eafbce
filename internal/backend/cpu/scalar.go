package cpu

import (
	"github.com/born-ml/xpbench/internal/parallel"
	"github.com/born-ml/xpbench/internal/tensor"
)

// MulScalar multiplies every element by a scalar into a new array.
func (cpu *CPUBackend) MulScalar(x *tensor.RawTensor, scalar float32) *tensor.RawTensor {
	cpu.checkDevice("mulscalar", x)
	result := cpu.alloc("mulscalar", x.Shape())
	src, dst := x.AsFloat32(), result.AsFloat32()

	parallel.ForRange(len(src), func(start, end int) {
		for i := start; i < end; i++ {
			dst[i] = src[i] * scalar
		}
	}, cpu.parallel)

	return result
}
