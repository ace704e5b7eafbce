package cpu

import (
	"fmt"

	"github.com/born-ml/xpbench/internal/parallel"
	"github.com/born-ml/xpbench/internal/tensor"
)

// Add performs element-wise addition; b may broadcast as a row, column or scalar.
func (cpu *CPUBackend) Add(a, b *tensor.RawTensor) *tensor.RawTensor {
	return cpu.binary("add", a, b, func(x, y float32) float32 { return x + y })
}

// Sub performs element-wise subtraction with broadcasting.
func (cpu *CPUBackend) Sub(a, b *tensor.RawTensor) *tensor.RawTensor {
	return cpu.binary("sub", a, b, func(x, y float32) float32 { return x - y })
}

// Mul performs element-wise multiplication with broadcasting.
func (cpu *CPUBackend) Mul(a, b *tensor.RawTensor) *tensor.RawTensor {
	return cpu.binary("mul", a, b, func(x, y float32) float32 { return x * y })
}

// binary applies fn row by row. The result takes a's shape.
func (cpu *CPUBackend) binary(op string, a, b *tensor.RawTensor, fn func(x, y float32) float32) *tensor.RawTensor {
	cpu.checkDevice(op, a, b)
	kind, err := tensor.BroadcastKind(a.Shape(), b.Shape())
	if err != nil {
		panic(fmt.Sprintf("%s: %v", op, err))
	}

	rows, cols := a.Shape().Dims()
	result := cpu.alloc(op, a.Shape())
	av, bv, out := a.AsFloat32(), b.AsFloat32(), result.AsFloat32()

	parallel.ForRange(rows, func(start, end int) {
		for i := start; i < end; i++ {
			arow := av[i*cols : (i+1)*cols]
			orow := out[i*cols : (i+1)*cols]
			switch kind {
			case tensor.BroadcastNone:
				brow := bv[i*cols : (i+1)*cols]
				for j := range orow {
					orow[j] = fn(arow[j], brow[j])
				}
			case tensor.BroadcastRow:
				for j := range orow {
					orow[j] = fn(arow[j], bv[j])
				}
			case tensor.BroadcastCol:
				s := bv[i]
				for j := range orow {
					orow[j] = fn(arow[j], s)
				}
			case tensor.BroadcastScalar:
				s := bv[0]
				for j := range orow {
					orow[j] = fn(arow[j], s)
				}
			}
		}
	}, cpu.parallel)

	return result
}
