//go:build !windows

package webgpu

import (
	"github.com/born-ml/xpbench/internal/tensor"
)

// Compile-time check that Backend implements tensor.Backend.
var _ tensor.Backend = (*Backend)(nil)

// Backend is a placeholder on platforms without the native WebGPU build.
// New never returns one, so its methods are unreachable in practice.
type Backend struct {
	LazyMode bool
}

// New always fails with ErrUnavailable on this platform.
func New() (*Backend, error) {
	return nil, ErrUnavailable
}

// IsAvailable reports false on this platform.
func IsAvailable() bool { return false }

// SetLazyMode records the submission mode.
func (b *Backend) SetLazyMode(enabled bool) { b.LazyMode = enabled }

// SetMaxBatchSize is a no-op.
func (b *Backend) SetMaxBatchSize(int) {}

// Release is a no-op.
func (b *Backend) Release() {}

// PoolStats reports an empty pool.
func (b *Backend) PoolStats() (allocated, released, hits, misses uint64, pooled int) {
	return 0, 0, 0, 0, 0
}

func (b *Backend) Name() string          { return "WebGPU" }
func (b *Backend) Device() tensor.Device { return tensor.WebGPU }
func (b *Backend) Synchronize() error    { return ErrUnavailable }

func (b *Backend) FromHost([]float32, tensor.Shape) *tensor.RawTensor { panic(ErrUnavailable) }
func (b *Backend) ToHost(*tensor.RawTensor) []float32                  { panic(ErrUnavailable) }
func (b *Backend) MatMul(_, _ *tensor.RawTensor) *tensor.RawTensor     { panic(ErrUnavailable) }
func (b *Backend) Transpose(*tensor.RawTensor) *tensor.RawTensor       { panic(ErrUnavailable) }
func (b *Backend) Add(_, _ *tensor.RawTensor) *tensor.RawTensor        { panic(ErrUnavailable) }
func (b *Backend) Sub(_, _ *tensor.RawTensor) *tensor.RawTensor        { panic(ErrUnavailable) }
func (b *Backend) Mul(_, _ *tensor.RawTensor) *tensor.RawTensor        { panic(ErrUnavailable) }

func (b *Backend) MulScalar(*tensor.RawTensor, float32) *tensor.RawTensor { panic(ErrUnavailable) }

func (b *Backend) MeanDim(*tensor.RawTensor, int, bool) *tensor.RawTensor { panic(ErrUnavailable) }

func (b *Backend) Argmax(*tensor.RawTensor, int) *tensor.RawTensor { panic(ErrUnavailable) }

func (b *Backend) Frame(*tensor.RawTensor, int, int) *tensor.RawTensor { panic(ErrUnavailable) }
