// Package reference implements the reference CPU backend: sequential host
// kernels on top of gonum's float32 BLAS.
package reference

import (
	"fmt"

	"gonum.org/v1/gonum/blas"
	"gonum.org/v1/gonum/blas/blas32"

	"github.com/born-ml/xpbench/internal/parallel"
	"github.com/born-ml/xpbench/internal/spectral"
	"github.com/born-ml/xpbench/internal/tensor"
)

// Compile-time checks.
var (
	_ tensor.Backend        = (*Backend)(nil)
	_ tensor.Periodogrammer = (*Backend)(nil)
)

// Backend is the reference array library. Every op runs synchronously on
// the calling goroutine, except what gonum's BLAS parallelizes internally.
type Backend struct{}

// New creates a reference backend.
func New() *Backend {
	return &Backend{}
}

// Name returns the backend name.
func (*Backend) Name() string { return "Reference" }

// Device returns tensor.CPU.
func (*Backend) Device() tensor.Device { return tensor.CPU }

// Synchronize is a no-op.
func (*Backend) Synchronize() error { return nil }

// FromHost copies data into a new host array.
func (*Backend) FromHost(data []float32, shape tensor.Shape) *tensor.RawTensor {
	buf := make([]float32, len(data))
	copy(buf, data)
	x, err := tensor.FromSlice(buf, shape, tensor.CPU)
	if err != nil {
		panic(fmt.Sprintf("fromhost: %v", err))
	}
	return x
}

// ToHost copies the array's elements out.
func (*Backend) ToHost(x *tensor.RawTensor) []float32 {
	out := make([]float32, x.NumElements())
	copy(out, x.AsFloat32())
	return out
}

// MatMul computes a @ b with SGEMM.
func (*Backend) MatMul(a, b *tensor.RawTensor) *tensor.RawTensor {
	ga, gb := general("matmul", a), general("matmul", b)
	if ga.Cols != gb.Rows {
		panic(fmt.Sprintf("matmul: shape mismatch [%d,%d] @ [%d,%d]", ga.Rows, ga.Cols, gb.Rows, gb.Cols))
	}

	c := alloc("matmul", tensor.Shape{ga.Rows, gb.Cols})
	gc := blas32.General{Rows: ga.Rows, Cols: gb.Cols, Stride: gb.Cols, Data: c.AsFloat32()}
	blas32.Gemm(blas.NoTrans, blas.NoTrans, 1, ga, gb, 0, gc)
	return c
}

// Transpose swaps the two dimensions of a 2-D array.
func (*Backend) Transpose(x *tensor.RawTensor) *tensor.RawTensor {
	g := general("transpose", x)
	out := alloc("transpose", tensor.Shape{g.Cols, g.Rows})
	dst := out.AsFloat32()
	for i := 0; i < g.Rows; i++ {
		for j := 0; j < g.Cols; j++ {
			dst[j*g.Rows+i] = g.Data[i*g.Stride+j]
		}
	}
	return out
}

// Add returns a + b with broadcasting of b.
func (*Backend) Add(a, b *tensor.RawTensor) *tensor.RawTensor {
	return binary("add", a, b, func(x, y float32) float32 { return x + y })
}

// Sub returns a - b with broadcasting of b.
func (*Backend) Sub(a, b *tensor.RawTensor) *tensor.RawTensor {
	return binary("sub", a, b, func(x, y float32) float32 { return x - y })
}

// Mul returns a * b with broadcasting of b.
func (*Backend) Mul(a, b *tensor.RawTensor) *tensor.RawTensor {
	return binary("mul", a, b, func(x, y float32) float32 { return x * y })
}

// MulScalar returns scalar * x as a new array.
func (r *Backend) MulScalar(x *tensor.RawTensor, scalar float32) *tensor.RawTensor {
	out := r.FromHost(x.AsFloat32(), x.Shape())
	blas32.Scal(scalar, blas32.Vector{N: out.NumElements(), Data: out.AsFloat32(), Inc: 1})
	return out
}

// MeanDim reduces a 2-D array along dim with a matrix-vector product
// against a vector of ones.
func (*Backend) MeanDim(x *tensor.RawTensor, dim int, keepDim bool) *tensor.RawTensor {
	g := general("meandim", x)
	if dim < 0 || dim > 1 {
		panic(fmt.Sprintf("meandim: dimension %d out of range for 2D tensor", dim))
	}

	trans, n, m := blas.NoTrans, g.Cols, g.Rows
	if dim == 0 {
		trans, n, m = blas.Trans, g.Rows, g.Cols
	}

	ones := make([]float32, n)
	for i := range ones {
		ones[i] = 1
	}

	out := alloc("meandim", reducedShape(g.Rows, g.Cols, dim, keepDim))
	blas32.Gemv(trans, 1/float32(n), g,
		blas32.Vector{N: n, Data: ones, Inc: 1}, 0,
		blas32.Vector{N: m, Data: out.AsFloat32(), Inc: 1})
	return out
}

// Argmax returns first-occurrence indices of the maximum along dim.
func (*Backend) Argmax(x *tensor.RawTensor, dim int) *tensor.RawTensor {
	g := general("argmax", x)
	if dim < 0 || dim > 1 {
		panic(fmt.Sprintf("argmax: dimension %d out of range for 2D tensor", dim))
	}
	at := func(i, j int) float32 { return g.Data[i*g.Stride+j] }

	out := alloc("argmax", reducedShape(g.Rows, g.Cols, dim, false))
	dst := out.AsFloat32()
	if dim == 1 {
		for i := 0; i < g.Rows; i++ {
			best := 0
			for j := 1; j < g.Cols; j++ {
				if at(i, j) > at(i, best) {
					best = j
				}
			}
			dst[i] = float32(best)
		}
		return out
	}
	for j := 0; j < g.Cols; j++ {
		best := 0
		for i := 1; i < g.Rows; i++ {
			if at(i, j) > at(best, j) {
				best = i
			}
		}
		dst[j] = float32(best)
	}
	return out
}

// Frame copies overlapping windows of a 1-D signal into rows.
func (*Backend) Frame(x *tensor.RawTensor, size, step int) *tensor.RawTensor {
	n := x.NumElements()
	if size <= 0 || step <= 0 || size > n {
		panic(fmt.Sprintf("frame: invalid size %d / step %d for %d samples", size, step, n))
	}
	frames := (n-size)/step + 1
	out := alloc("frame", tensor.Shape{frames, size})
	src, dst := x.AsFloat32(), out.AsFloat32()
	for f := 0; f < frames; f++ {
		copy(dst[f*size:(f+1)*size], src[f*step:f*step+size])
	}
	return out
}

// WelchDensity runs the FFT-based Welch kernel on the calling goroutine.
func (*Backend) WelchDensity(x *tensor.RawTensor, nperseg int, fs float64) *tensor.RawTensor {
	if len(x.Shape()) != 1 {
		panic(fmt.Sprintf("welch: expected 1D signal, got shape %v", x.Shape()))
	}
	psd, err := spectral.Density(x.AsFloat32(), nperseg, fs, parallel.Sequential())
	if err != nil {
		panic(fmt.Sprintf("welch: %v", err))
	}
	out, err := tensor.FromSlice(psd, tensor.Shape{len(psd)}, tensor.CPU)
	if err != nil {
		panic(fmt.Sprintf("welch: %v", err))
	}
	return out
}

func binary(op string, a, b *tensor.RawTensor, fn func(x, y float32) float32) *tensor.RawTensor {
	kind, err := tensor.BroadcastKind(a.Shape(), b.Shape())
	if err != nil {
		panic(fmt.Sprintf("%s: %v", op, err))
	}
	rows, cols := a.Shape().Dims()
	av, bv := a.AsFloat32(), b.AsFloat32()
	out := alloc(op, a.Shape())
	dst := out.AsFloat32()

	for i := 0; i < rows; i++ {
		for j := 0; j < cols; j++ {
			var y float32
			switch kind {
			case tensor.BroadcastNone:
				y = bv[i*cols+j]
			case tensor.BroadcastRow:
				y = bv[j]
			case tensor.BroadcastCol:
				y = bv[i]
			case tensor.BroadcastScalar:
				y = bv[0]
			}
			dst[i*cols+j] = fn(av[i*cols+j], y)
		}
	}
	return out
}

// general views a host array as a row-major BLAS matrix.
func general(op string, x *tensor.RawTensor) blas32.General {
	if x.Device() != tensor.CPU {
		panic(fmt.Sprintf("%s: tensor on %s, backend is %s", op, x.Device(), tensor.CPU))
	}
	if len(x.Shape()) != 2 {
		panic(fmt.Sprintf("%s: expected 2D tensor, got %dD", op, len(x.Shape())))
	}
	rows, cols := x.Shape()[0], x.Shape()[1]
	return blas32.General{Rows: rows, Cols: cols, Stride: cols, Data: x.AsFloat32()}
}

func alloc(op string, shape tensor.Shape) *tensor.RawTensor {
	x, err := tensor.NewRaw(shape, tensor.CPU)
	if err != nil {
		panic(fmt.Sprintf("%s: failed to create result tensor: %v", op, err))
	}
	return x
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
