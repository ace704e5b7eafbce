// Copyright 2025 Born ML Framework. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

package tensor

import (
	"github.com/born-ml/xpbench/internal/tensor"
)

// RawTensor is a float32 array living on a single device.
type RawTensor = tensor.RawTensor

// Shape represents the dimensions of an array.
type Shape = tensor.Shape

// DataType represents the element type of an array.
type DataType = tensor.DataType

// Data type constants.
const (
	Float32 DataType = tensor.Float32
	Float64 DataType = tensor.Float64
)

// Device represents the memory space an array lives in.
type Device = tensor.Device

// Device constants.
const (
	CPU    Device = tensor.CPU
	WebGPU Device = tensor.WebGPU
)

// Backend is the array namespace every compute backend implements.
type Backend = tensor.Backend

// Periodogrammer is implemented by backends with a native Welch fast path.
type Periodogrammer = tensor.Periodogrammer

// StrictBackend validates and copies every operand before dispatch.
type StrictBackend = tensor.StrictBackend

// Strict wraps b with strict array interface checks.
// The result never exposes backend fast paths such as Periodogrammer.
func Strict(b Backend) *StrictBackend {
	return tensor.Strict(b)
}

// FromSlice creates a host array that takes ownership of data.
func FromSlice(data []float32, shape Shape) (*RawTensor, error) {
	return tensor.FromSlice(data, shape, CPU)
}

// SetDefaultDevice sets the process-wide default device.
func SetDefaultDevice(d Device) {
	tensor.SetDefaultDevice(d)
}

// DefaultDevice returns the process-wide default device.
func DefaultDevice() Device {
	return tensor.DefaultDevice()
}
