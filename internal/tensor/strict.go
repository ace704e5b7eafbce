package tensor

import "fmt"

// Compile-time check that StrictBackend implements Backend.
var _ Backend = (*StrictBackend)(nil)

// StrictBackend is a decorator that enforces the portable array interface on
// every call: inputs must be float32 arrays of at most two dimensions living
// on the wrapped backend's device, and every input is copied into a fresh
// array before the op runs. Backend-specific fast paths such as
// Periodogrammer are deliberately not forwarded.
//
// Example:
//
//	backend := tensor.Strict(cpu.New())
//	y := backend.MatMul(x, w) // validated, inputs copied, then dispatched
type StrictBackend struct {
	inner Backend
}

// Strict wraps a backend with strict array interface checks.
func Strict(b Backend) *StrictBackend {
	return &StrictBackend{inner: b}
}

// Name returns the wrapped backend name.
func (s *StrictBackend) Name() string {
	return s.inner.Name()
}

// Device returns the wrapped backend device.
func (s *StrictBackend) Device() Device {
	return s.inner.Device()
}

// Synchronize forwards to the wrapped backend.
func (s *StrictBackend) Synchronize() error {
	return s.inner.Synchronize()
}

// FromHost validates the host data against the shape before transfer.
func (s *StrictBackend) FromHost(data []float32, shape Shape) *RawTensor {
	if len(shape) > 2 {
		panic(fmt.Sprintf("strict: FromHost: expected at most 2 dimensions, got %v", shape))
	}
	if shape.NumElements() != len(data) {
		panic(fmt.Sprintf("strict: FromHost: shape %v requires %d elements, got %d", shape, shape.NumElements(), len(data)))
	}
	return s.inner.FromHost(data, shape)
}

// ToHost validates the array before transfer.
func (s *StrictBackend) ToHost(x *RawTensor) []float32 {
	s.check("ToHost", x)
	return s.inner.ToHost(x)
}

// MatMul validates operand ranks and inner dimensions.
func (s *StrictBackend) MatMul(a, b *RawTensor) *RawTensor {
	s.check("MatMul", a, b)
	if len(a.Shape()) != 2 || len(b.Shape()) != 2 {
		panic(fmt.Sprintf("strict: MatMul: requires 2-D operands, got %v and %v", a.Shape(), b.Shape()))
	}
	if a.Shape()[1] != b.Shape()[0] {
		panic(fmt.Sprintf("strict: MatMul: shape mismatch %v @ %v", a.Shape(), b.Shape()))
	}
	ac, bc := s.copy(a), s.copy(b)
	defer ac.Release()
	defer bc.Release()
	return s.inner.MatMul(ac, bc)
}

// Transpose validates the operand rank.
func (s *StrictBackend) Transpose(x *RawTensor) *RawTensor {
	s.check("Transpose", x)
	if len(x.Shape()) != 2 {
		panic(fmt.Sprintf("strict: Transpose: requires a 2-D operand, got %v", x.Shape()))
	}
	xc := s.copy(x)
	defer xc.Release()
	return s.inner.Transpose(xc)
}

// Add validates broadcasting before dispatch.
func (s *StrictBackend) Add(a, b *RawTensor) *RawTensor {
	return s.binary("Add", a, b, s.inner.Add)
}

// Sub validates broadcasting before dispatch.
func (s *StrictBackend) Sub(a, b *RawTensor) *RawTensor {
	return s.binary("Sub", a, b, s.inner.Sub)
}

// Mul validates broadcasting before dispatch.
func (s *StrictBackend) Mul(a, b *RawTensor) *RawTensor {
	return s.binary("Mul", a, b, s.inner.Mul)
}

// MulScalar validates the operand.
func (s *StrictBackend) MulScalar(x *RawTensor, scalar float32) *RawTensor {
	s.check("MulScalar", x)
	xc := s.copy(x)
	defer xc.Release()
	return s.inner.MulScalar(xc, scalar)
}

// MeanDim validates the reduced dimension.
func (s *StrictBackend) MeanDim(x *RawTensor, dim int, keepDim bool) *RawTensor {
	s.check("MeanDim", x)
	s.checkDim("MeanDim", x, dim)
	xc := s.copy(x)
	defer xc.Release()
	return s.inner.MeanDim(xc, dim, keepDim)
}

// Argmax validates the reduced dimension.
func (s *StrictBackend) Argmax(x *RawTensor, dim int) *RawTensor {
	s.check("Argmax", x)
	s.checkDim("Argmax", x, dim)
	xc := s.copy(x)
	defer xc.Release()
	return s.inner.Argmax(xc, dim)
}

// Frame validates window parameters against the signal length.
func (s *StrictBackend) Frame(x *RawTensor, size, step int) *RawTensor {
	s.check("Frame", x)
	if len(x.Shape()) != 1 {
		panic(fmt.Sprintf("strict: Frame: requires a 1-D signal, got %v", x.Shape()))
	}
	if size <= 0 || step <= 0 || size > x.NumElements() {
		panic(fmt.Sprintf("strict: Frame: invalid size %d / step %d for %d samples", size, step, x.NumElements()))
	}
	xc := s.copy(x)
	defer xc.Release()
	return s.inner.Frame(xc, size, step)
}

func (s *StrictBackend) binary(op string, a, b *RawTensor, fn func(a, b *RawTensor) *RawTensor) *RawTensor {
	s.check(op, a, b)
	if _, err := BroadcastKind(a.Shape(), b.Shape()); err != nil {
		panic(fmt.Sprintf("strict: %s: %v", op, err))
	}
	ac, bc := s.copy(a), s.copy(b)
	defer ac.Release()
	defer bc.Release()
	return fn(ac, bc)
}

// check verifies dtype, rank and device placement of every operand.
func (s *StrictBackend) check(op string, xs ...*RawTensor) {
	for i, x := range xs {
		if x == nil {
			panic(fmt.Sprintf("strict: %s: operand %d is nil", op, i))
		}
		if x.DType() != Float32 {
			panic(fmt.Sprintf("strict: %s: operand %d has dtype %s, want float32", op, i, x.DType()))
		}
		if len(x.Shape()) > 2 {
			panic(fmt.Sprintf("strict: %s: operand %d has %d dimensions, want at most 2", op, i, len(x.Shape())))
		}
		if x.Device() != s.inner.Device() {
			panic(fmt.Sprintf("strict: %s: operand %d lives on %s, backend is %s", op, i, x.Device(), s.inner.Device()))
		}
	}
}

func (s *StrictBackend) checkDim(op string, x *RawTensor, dim int) {
	if len(x.Shape()) != 2 || dim < 0 || dim > 1 {
		panic(fmt.Sprintf("strict: %s: invalid dim %d for shape %v", op, dim, x.Shape()))
	}
}

// copy materializes a fresh array with the same contents on the same device.
func (s *StrictBackend) copy(x *RawTensor) *RawTensor {
	return s.inner.MulScalar(x, 1)
}
