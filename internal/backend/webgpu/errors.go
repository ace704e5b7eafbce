// Package webgpu implements the GPU backend of the array namespace on top of
// WebGPU (github.com/go-webgpu/webgpu), which needs no cgo.
//
// One Backend type serves both GPU libraries: with LazyMode off every op is
// submitted as soon as it is encoded (array library); with LazyMode on
// command buffers are batched until Synchronize or a host read (tensor
// library). The native implementation is built on Windows only; other
// platforms get a stub whose constructor reports ErrUnavailable.
package webgpu

import "github.com/pkg/errors"

// ErrUnavailable reports that no usable WebGPU adapter or native library exists.
var ErrUnavailable = errors.New("webgpu: not available")
