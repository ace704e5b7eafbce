package tensor

import (
	"fmt"
	"sync"
)

// Device represents the memory space an array lives in.
type Device int

// Supported compute devices.
const (
	CPU Device = iota
	WebGPU
)

// String returns a human-readable device name.
func (d Device) String() string {
	switch d {
	case CPU:
		return "CPU"
	case WebGPU:
		return "WebGPU"
	default:
		return "Unknown"
	}
}

// IsHost reports whether arrays on this device are addressable from Go code.
func (d Device) IsHost() bool {
	return d == CPU
}

// DeviceBuffer is device memory owned by a GPU backend.
// The tensor package never dereferences it; only the owning backend does.
type DeviceBuffer interface {
	// Size returns the buffer size in bytes.
	Size() uint64

	// Release frees the device memory. Calling it twice is a no-op.
	Release()
}

// RawTensor is the low-level float32 array shared by all backends.
// Host arrays keep their elements in a Go slice; device arrays keep an opaque
// DeviceBuffer and have no host copy until a backend transfers them.
type RawTensor struct {
	host   []float32
	gpu    DeviceBuffer
	shape  Shape
	dtype  DataType
	device Device

	releaseOnce sync.Once
}

// NewRaw creates a zero-filled host array with the given shape.
func NewRaw(shape Shape, device Device) (*RawTensor, error) {
	if err := shape.Validate(); err != nil {
		return nil, fmt.Errorf("invalid shape: %w", err)
	}
	if !device.IsHost() {
		return nil, fmt.Errorf("device %s has no host memory, use NewDeviceRaw", device)
	}

	return &RawTensor{
		host:   make([]float32, shape.NumElements()),
		shape:  shape.Clone(),
		dtype:  Float32,
		device: device,
	}, nil
}

// FromSlice creates a host array that takes ownership of data.
func FromSlice(data []float32, shape Shape, device Device) (*RawTensor, error) {
	if err := shape.Validate(); err != nil {
		return nil, fmt.Errorf("invalid shape: %w", err)
	}
	if shape.NumElements() != len(data) {
		return nil, fmt.Errorf("shape %v requires %d elements, but got %d", shape, shape.NumElements(), len(data))
	}
	if !device.IsHost() {
		return nil, fmt.Errorf("device %s has no host memory, use NewDeviceRaw", device)
	}

	return &RawTensor{
		host:   data,
		shape:  shape.Clone(),
		dtype:  Float32,
		device: device,
	}, nil
}

// NewDeviceRaw wraps a device buffer as an array.
func NewDeviceRaw(shape Shape, device Device, buf DeviceBuffer) (*RawTensor, error) {
	if err := shape.Validate(); err != nil {
		return nil, fmt.Errorf("invalid shape: %w", err)
	}
	if buf == nil {
		return nil, fmt.Errorf("nil device buffer")
	}
	//nolint:gosec // G115: shape sizes are positive after Validate.
	if need := uint64(shape.NumElements() * Float32.Size()); buf.Size() < need {
		return nil, fmt.Errorf("device buffer holds %d bytes, shape %v needs %d", buf.Size(), shape, need)
	}

	return &RawTensor{
		gpu:    buf,
		shape:  shape.Clone(),
		dtype:  Float32,
		device: device,
	}, nil
}

// Shape returns the array's shape.
func (r *RawTensor) Shape() Shape {
	return r.shape
}

// DType returns the array's data type.
func (r *RawTensor) DType() DataType {
	return r.dtype
}

// Device returns the array's device.
func (r *RawTensor) Device() Device {
	return r.device
}

// NumElements returns the total number of elements.
func (r *RawTensor) NumElements() int {
	return r.shape.NumElements()
}

// ByteSize returns the total memory size in bytes.
func (r *RawTensor) ByteSize() int {
	return r.NumElements() * r.dtype.Size()
}

// AsFloat32 returns the host elements (zero-copy).
// Panics if the array lives on a device without host memory.
func (r *RawTensor) AsFloat32() []float32 {
	if r.host == nil {
		panic(fmt.Sprintf("array on %s is not host resident", r.device))
	}
	return r.host
}

// DeviceBuffer returns the device memory backing the array, or nil for host arrays.
func (r *RawTensor) DeviceBuffer() DeviceBuffer {
	return r.gpu
}

// Release frees device memory held by the array. Host arrays are left to the GC.
func (r *RawTensor) Release() {
	r.releaseOnce.Do(func() {
		if r.gpu != nil {
			r.gpu.Release()
		}
	})
}

// String returns a human-readable representation of the array.
func (r *RawTensor) String() string {
	return fmt.Sprintf("Array[%s]%v on %s", r.dtype, r.shape, r.device)
}
