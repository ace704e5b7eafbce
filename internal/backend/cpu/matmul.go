package cpu

import (
	"fmt"

	"github.com/born-ml/xpbench/internal/parallel"
	"github.com/born-ml/xpbench/internal/tensor"
)

// MatMul performs matrix multiplication.
// For 2D tensors: (M, K) @ (K, N) -> (M, N)
// Rows of the result are computed in parallel.
func (cpu *CPUBackend) MatMul(a, b *tensor.RawTensor) *tensor.RawTensor {
	cpu.checkDevice("matmul", a, b)
	aShape := a.Shape()
	bShape := b.Shape()

	if len(aShape) != 2 || len(bShape) != 2 {
		panic(fmt.Sprintf("matmul: only 2D tensors supported, got %dD and %dD", len(aShape), len(bShape)))
	}

	m, k := aShape[0], aShape[1]
	kAlt, n := bShape[0], bShape[1]

	if k != kAlt {
		panic(fmt.Sprintf("matmul: shape mismatch [%d,%d] @ [%d,%d]", m, k, kAlt, n))
	}

	result := cpu.alloc("matmul", tensor.Shape{m, n})
	matmulFloat32(result.AsFloat32(), a.AsFloat32(), b.AsFloat32(), m, k, n, cpu.parallel)
	return result
}

// matmulFloat32 computes C = A @ B in i-k-j order so the inner loop streams
// contiguous rows of B and C.
func matmulFloat32(c, a, b []float32, m, k, n int, cfg parallel.Config) {
	parallel.ForRange(m, func(start, end int) {
		for i := start; i < end; i++ {
			crow := c[i*n : (i+1)*n]
			for j := range crow {
				crow[j] = 0
			}
			arow := a[i*k : (i+1)*k]
			for p, aip := range arow {
				if aip == 0 {
					continue
				}
				brow := b[p*n : (p+1)*n]
				for j, bpj := range brow {
					crow[j] += aip * bpj
				}
			}
		}
	}, cfg)
}
