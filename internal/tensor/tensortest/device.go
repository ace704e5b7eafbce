// Package tensortest provides a simulated asynchronous device for tests that
// need WebGPU-placed arrays on machines without a GPU.
package tensortest

import (
	"fmt"
	"sync"

	"github.com/born-ml/xpbench/internal/backend/cpu"
	"github.com/born-ml/xpbench/internal/parallel"
	"github.com/born-ml/xpbench/internal/tensor"
)

// Compile-time check that Device implements tensor.Backend.
var _ tensor.Backend = (*Device)(nil)

// Device is a tensor.Backend whose arrays report tensor.WebGPU and hold
// their elements in device buffers. Every op downloads its inputs, computes
// on a sequential CPU backend and uploads the result.
//
// It counts Synchronize calls and live device buffers.
type Device struct {
	host *cpu.CPUBackend

	mu    sync.Mutex
	syncs int
	live  int

	// SyncErr is returned by every Synchronize call when set.
	SyncErr error
}

// New returns an empty simulated device.
func New() *Device {
	return &Device{host: cpu.NewWithConfig(parallel.Sequential())}
}

// Syncs returns how many times Synchronize was called.
func (d *Device) Syncs() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.syncs
}

// Live returns the number of device buffers not yet released.
func (d *Device) Live() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.live
}

type buffer struct {
	device *Device
	data   []float32
	once   sync.Once
}

func (b *buffer) Size() uint64 {
	return uint64(len(b.data) * tensor.Float32.Size()) //nolint:gosec // G115: lengths are positive.
}

func (b *buffer) Release() {
	b.once.Do(func() {
		b.device.mu.Lock()
		b.device.live--
		b.device.mu.Unlock()
	})
}

func (d *Device) upload(data []float32, shape tensor.Shape) *tensor.RawTensor {
	buf := &buffer{device: d, data: append([]float32(nil), data...)}
	raw, err := tensor.NewDeviceRaw(shape, tensor.WebGPU, buf)
	if err != nil {
		panic(fmt.Sprintf("tensortest: %v", err))
	}
	d.mu.Lock()
	d.live++
	d.mu.Unlock()
	return raw
}

func (d *Device) download(op string, x *tensor.RawTensor) *tensor.RawTensor {
	if x == nil {
		panic(fmt.Sprintf("tensortest: %s: nil array", op))
	}
	buf, ok := x.DeviceBuffer().(*buffer)
	if !ok || buf.device != d {
		panic(fmt.Sprintf("tensortest: %s: array lives on %s, not on this device", op, x.Device()))
	}
	return d.host.FromHost(buf.data, x.Shape())
}

func (d *Device) result(x *tensor.RawTensor) *tensor.RawTensor {
	return d.upload(x.AsFloat32(), x.Shape())
}

// FromHost copies data into a new device buffer.
func (d *Device) FromHost(data []float32, shape tensor.Shape) *tensor.RawTensor {
	return d.upload(data, shape)
}

// ToHost copies the device buffer back to host memory.
func (d *Device) ToHost(x *tensor.RawTensor) []float32 {
	return append([]float32(nil), d.download("ToHost", x).AsFloat32()...)
}

func (d *Device) MatMul(a, b *tensor.RawTensor) *tensor.RawTensor {
	return d.result(d.host.MatMul(d.download("MatMul", a), d.download("MatMul", b)))
}

func (d *Device) Transpose(x *tensor.RawTensor) *tensor.RawTensor {
	return d.result(d.host.Transpose(d.download("Transpose", x)))
}

func (d *Device) Add(a, b *tensor.RawTensor) *tensor.RawTensor {
	return d.result(d.host.Add(d.download("Add", a), d.download("Add", b)))
}

func (d *Device) Sub(a, b *tensor.RawTensor) *tensor.RawTensor {
	return d.result(d.host.Sub(d.download("Sub", a), d.download("Sub", b)))
}

func (d *Device) Mul(a, b *tensor.RawTensor) *tensor.RawTensor {
	return d.result(d.host.Mul(d.download("Mul", a), d.download("Mul", b)))
}

func (d *Device) MulScalar(x *tensor.RawTensor, scalar float32) *tensor.RawTensor {
	return d.result(d.host.MulScalar(d.download("MulScalar", x), scalar))
}

func (d *Device) MeanDim(x *tensor.RawTensor, dim int, keepDim bool) *tensor.RawTensor {
	return d.result(d.host.MeanDim(d.download("MeanDim", x), dim, keepDim))
}

func (d *Device) Argmax(x *tensor.RawTensor, dim int) *tensor.RawTensor {
	return d.result(d.host.Argmax(d.download("Argmax", x), dim))
}

func (d *Device) Frame(x *tensor.RawTensor, size, step int) *tensor.RawTensor {
	return d.result(d.host.Frame(d.download("Frame", x), size, step))
}

// Synchronize records the call and returns SyncErr.
func (d *Device) Synchronize() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.syncs++
	return d.SyncErr
}

func (d *Device) Name() string          { return "simulated WebGPU" }
func (d *Device) Device() tensor.Device { return tensor.WebGPU }
