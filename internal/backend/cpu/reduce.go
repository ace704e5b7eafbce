package cpu

import (
	"fmt"
	"sync"

	"github.com/born-ml/xpbench/internal/parallel"
	"github.com/born-ml/xpbench/internal/tensor"
)

// MeanDim computes the mean of a 2-D array along dim (0 or 1).
//
// Example:
//
//	x := backend.FromHost(data, tensor.Shape{4, 3})
//	y := backend.MeanDim(x, 0, true)  // shape: [1, 3]
//	z := backend.MeanDim(x, 1, false) // shape: [4]
func (cpu *CPUBackend) MeanDim(x *tensor.RawTensor, dim int, keepDim bool) *tensor.RawTensor {
	cpu.checkDevice("meandim", x)
	rows, cols := checkReduce("meandim", x, dim)
	src := x.AsFloat32()

	if dim == 1 {
		result := cpu.alloc("meandim", reducedShape(rows, cols, dim, keepDim))
		dst := result.AsFloat32()
		parallel.ForRange(rows, func(start, end int) {
			for i := start; i < end; i++ {
				var sum float64
				for _, v := range src[i*cols : (i+1)*cols] {
					sum += float64(v)
				}
				dst[i] = float32(sum / float64(cols))
			}
		}, cpu.parallel)
		return result
	}

	// Reduce over rows: each chunk accumulates partial column sums.
	var mu sync.Mutex
	total := make([]float64, cols)
	parallel.ForRange(rows, func(start, end int) {
		partial := make([]float64, cols)
		for i := start; i < end; i++ {
			for j, v := range src[i*cols : (i+1)*cols] {
				partial[j] += float64(v)
			}
		}
		mu.Lock()
		for j, v := range partial {
			total[j] += v
		}
		mu.Unlock()
	}, cpu.parallel)

	result := cpu.alloc("meandim", reducedShape(rows, cols, dim, keepDim))
	dst := result.AsFloat32()
	for j, v := range total {
		dst[j] = float32(v / float64(rows))
	}
	return result
}

// Argmax returns the index of the maximum along dim (0 or 1) as float32
// values. Ties resolve to the first index.
func (cpu *CPUBackend) Argmax(x *tensor.RawTensor, dim int) *tensor.RawTensor {
	cpu.checkDevice("argmax", x)
	rows, cols := checkReduce("argmax", x, dim)
	src := x.AsFloat32()

	result := cpu.alloc("argmax", reducedShape(rows, cols, dim, false))
	dst := result.AsFloat32()

	if dim == 1 {
		parallel.ForRange(rows, func(start, end int) {
			for i := start; i < end; i++ {
				row := src[i*cols : (i+1)*cols]
				best := 0
				for j := 1; j < cols; j++ {
					if row[j] > row[best] {
						best = j
					}
				}
				dst[i] = float32(best)
			}
		}, cpu.parallel)
		return result
	}

	parallel.ForRange(cols, func(start, end int) {
		for j := start; j < end; j++ {
			best := 0
			for i := 1; i < rows; i++ {
				if src[i*cols+j] > src[best*cols+j] {
					best = i
				}
			}
			dst[j] = float32(best)
		}
	}, cpu.parallel)
	return result
}

func checkReduce(op string, x *tensor.RawTensor, dim int) (rows, cols int) {
	shape := x.Shape()
	if len(shape) != 2 {
		panic(fmt.Sprintf("%s: expected 2D tensor, got %dD", op, len(shape)))
	}
	if dim < 0 || dim > 1 {
		panic(fmt.Sprintf("%s: dimension %d out of range for 2D tensor", op, dim))
	}
	return shape[0], shape[1]
}

func reducedShape(rows, cols, dim int, keepDim bool) tensor.Shape {
	switch {
	case dim == 0 && keepDim:
		return tensor.Shape{1, cols}
	case dim == 0:
		return tensor.Shape{cols}
	case keepDim:
		return tensor.Shape{rows, 1}
	default:
		return tensor.Shape{rows}
	}
}
