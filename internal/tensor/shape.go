package tensor

import "fmt"

// Shape represents the dimensions of an array.
type Shape []int

// NumElements returns the total number of elements in the array.
func (s Shape) NumElements() int {
	if len(s) == 0 {
		return 1 // Scalar has 1 element
	}
	n := 1
	for _, dim := range s {
		n *= dim
	}
	return n
}

// Validate checks if the shape is valid (all dimensions > 0).
func (s Shape) Validate() error {
	for i, dim := range s {
		if dim <= 0 {
			return fmt.Errorf("invalid dimension at index %d: %d (must be > 0)", i, dim)
		}
	}
	return nil
}

// Equal checks if two shapes are equal.
func (s Shape) Equal(other Shape) bool {
	if len(s) != len(other) {
		return false
	}
	for i := range s {
		if s[i] != other[i] {
			return false
		}
	}
	return true
}

// Clone returns a copy of the shape.
func (s Shape) Clone() Shape {
	clone := make(Shape, len(s))
	copy(clone, s)
	return clone
}

// Dims returns the shape as (rows, cols). A 1-D shape [n] is a single row.
// Panics for shapes with more than two dimensions.
func (s Shape) Dims() (rows, cols int) {
	switch len(s) {
	case 0:
		return 1, 1
	case 1:
		return 1, s[0]
	case 2:
		return s[0], s[1]
	default:
		panic(fmt.Sprintf("expected at most 2 dimensions, got shape %v", s))
	}
}

// Broadcast describes how the right operand of a binary op maps onto the left.
type Broadcast int

// Broadcast kinds supported by binary ops.
const (
	BroadcastNone Broadcast = iota // same shape
	BroadcastRow                   // right is [1, C] against [R, C]
	BroadcastCol                   // right is [R, 1] against [R, C]
	BroadcastScalar                // right is [1, 1] or a single element
)

// BroadcastKind classifies how b broadcasts against a for 2-D binary ops.
//
// Rules follow NumPy for the cases the workloads need:
//
//	(R, C) op (R, C) -> BroadcastNone
//	(R, C) op (1, C) -> BroadcastRow
//	(R, C) op (R, 1) -> BroadcastCol
//	(R, C) op (1, 1) -> BroadcastScalar
func BroadcastKind(a, b Shape) (Broadcast, error) {
	ar, ac := a.Dims()
	br, bc := b.Dims()

	switch {
	case ar == br && ac == bc:
		return BroadcastNone, nil
	case br == 1 && bc == 1:
		return BroadcastScalar, nil
	case br == 1 && bc == ac:
		return BroadcastRow, nil
	case bc == 1 && br == ar:
		return BroadcastCol, nil
	default:
		return BroadcastNone, fmt.Errorf("shapes not compatible for broadcasting: %v vs %v", a, b)
	}
}
