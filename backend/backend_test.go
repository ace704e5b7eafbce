// Copyright 2025 Born ML Framework. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

package backend

import (
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/born-ml/xpbench/backend/cpu"
	"github.com/born-ml/xpbench/backend/webgpu"
	"github.com/born-ml/xpbench/internal/tensor/tensortest"
	"github.com/born-ml/xpbench/tensor"
)

func openOrSkip(t *testing.T, k Kind) *Instance {
	t.Helper()
	if k.Capabilities().Device == tensor.WebGPU && !webgpu.IsAvailable() {
		t.Skip("WebGPU not available on this system")
	}
	inst, err := Open(k)
	require.NoError(t, err)
	t.Cleanup(inst.Close)
	return inst
}

func TestParse(t *testing.T) {
	for _, k := range Kinds() {
		got, err := Parse(k.String())
		require.NoError(t, err)
		assert.Equal(t, k, got)
	}

	for name, want := range map[string]Kind{"reference-cpu": ReferenceCPU, "gpu-ARRAY": GPUArray, "Tensor-Gpu": TensorGPU} {
		got, err := Parse(name)
		require.NoError(t, err, name)
		assert.Equal(t, want, got, name)
		assert.NotEqual(t, name, got.String(), "records use the canonical spelling")
	}

	assert.Equal(t, []string{"reference-CPU", "GPU-array", "tensor-CPU", "tensor-GPU"}, Names())
}

func TestParse_Unsupported(t *testing.T) {
	_, err := Parse("quantum")
	require.Error(t, err)
	assert.Equal(t, ErrUnsupportedBackend, errors.Cause(err))
	assert.Contains(t, err.Error(), "quantum")
}

func TestOpenNamed_UnsupportedAllocatesNothing(t *testing.T) {
	inst, err := OpenNamed("quantum")
	require.ErrorIs(t, err, ErrUnsupportedBackend)
	assert.Nil(t, inst)

	// Nothing was selected, so a real backend can still be opened.
	ref, err := Open(ReferenceCPU)
	require.NoError(t, err)
	ref.Close()
}

func TestCapabilities(t *testing.T) {
	tests := []struct {
		kind          Kind
		device        tensor.Device
		async, tensor bool
	}{
		{ReferenceCPU, tensor.CPU, false, false},
		{GPUArray, tensor.WebGPU, true, false},
		{TensorCPU, tensor.CPU, false, true},
		{TensorGPU, tensor.WebGPU, true, true},
	}

	for _, tt := range tests {
		t.Run(tt.kind.String(), func(t *testing.T) {
			caps := tt.kind.Capabilities()
			assert.Equal(t, tt.device, caps.Device)
			assert.Equal(t, tt.async, caps.Async)
			assert.Equal(t, tt.tensor, caps.SetsDefaultDevice)
		})
	}
}

func TestOpen_OneBackendPerProcess(t *testing.T) {
	first, err := Open(ReferenceCPU)
	require.NoError(t, err)

	_, err = Open(TensorCPU)
	require.ErrorIs(t, err, ErrBackendAlreadySelected)

	first.Close()
	first.Close()

	second, err := Open(TensorCPU)
	require.NoError(t, err)
	second.Close()
}

func TestOpen_Options(t *testing.T) {
	_, err := Open(TensorCPU, WithGPUBatch(-1))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "gpu batch")

	inst, err := Open(TensorCPU, WithWorkers(1), WithGPUBatch(16))
	require.NoError(t, err)
	defer inst.Close()
	assert.Equal(t, 1, inst.Namespace().(*cpu.Backend).Workers())
}

func TestNewOptions(t *testing.T) {
	o, err := newOptions([]Option{WithWorkers(3), WithGPUBatch(64)})
	require.NoError(t, err)
	assert.Equal(t, options{workers: 3, gpuBatch: 64}, o)

	o, err = newOptions(nil)
	require.NoError(t, err)
	assert.Equal(t, options{}, o)
}

func TestPlace_SetsDefaultDeviceForTensorBackends(t *testing.T) {
	prev := tensor.DefaultDevice()
	defer tensor.SetDefaultDevice(prev)

	tensor.SetDefaultDevice(tensor.WebGPU)
	ref := openOrSkip(t, ReferenceCPU)
	x, err := ref.Place([]float32{1, 2}, tensor.Shape{2})
	require.NoError(t, err)
	assert.Equal(t, tensor.CPU, x.Device())
	assert.Equal(t, tensor.WebGPU, tensor.DefaultDevice(), "reference backend must not touch the default device")
	ref.Close()

	tcpu := openOrSkip(t, TensorCPU)
	_, err = tcpu.Place([]float32{1, 2}, tensor.Shape{2})
	require.NoError(t, err)
	assert.Equal(t, tensor.CPU, tensor.DefaultDevice())
}

func TestPlace_RecoversBackendPanic(t *testing.T) {
	inst := Wrap(TensorCPU, cpu.New())
	_, err := inst.Place([]float32{1, 2, 3}, tensor.Shape{2, 2})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "tensor-CPU")
}

func TestSynchronize_ForwardsOnlyForAsyncBackends(t *testing.T) {
	tests := []struct {
		kind  Kind
		syncs int
	}{
		{ReferenceCPU, 0},
		{GPUArray, 2},
		{TensorCPU, 0},
		{TensorGPU, 2},
	}

	for _, tt := range tests {
		t.Run(tt.kind.String(), func(t *testing.T) {
			dev := tensortest.New()
			inst := Wrap(tt.kind, dev)

			require.NoError(t, inst.Synchronize())
			require.NoError(t, inst.Synchronize())
			assert.Equal(t, tt.syncs, dev.Syncs())
		})
	}
}

func TestSynchronize_DeviceError(t *testing.T) {
	dev := tensortest.New()
	dev.SyncErr = errors.New("queue lost")

	err := Wrap(GPUArray, dev).Synchronize()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "GPU-array")
	assert.Contains(t, err.Error(), "queue lost")

	assert.NoError(t, Wrap(ReferenceCPU, dev).Synchronize())
}

func TestPlace_TensorGPUSetsWebGPUDefault(t *testing.T) {
	prev := tensor.DefaultDevice()
	defer tensor.SetDefaultDevice(prev)

	dev := tensortest.New()
	tensor.SetDefaultDevice(tensor.CPU)

	arr, err := Wrap(GPUArray, dev).Place([]float32{5, 6}, tensor.Shape{2})
	require.NoError(t, err)
	assert.Equal(t, tensor.WebGPU, arr.Device())
	assert.Equal(t, tensor.CPU, tensor.DefaultDevice(), "GPU-array must not touch the default device")
	arr.Release()

	x, err := Wrap(TensorGPU, dev).Place([]float32{1, 2, 3, 4}, tensor.Shape{2, 2})
	require.NoError(t, err)
	assert.Equal(t, tensor.WebGPU, tensor.DefaultDevice())
	assert.Equal(t, tensor.WebGPU, x.Device())
	assert.Equal(t, []float32{1, 2, 3, 4}, dev.ToHost(x))
	x.Release()
	assert.Zero(t, dev.Live())
}

func TestPlace_RejectsArrayOffTheDefaultDevice(t *testing.T) {
	prev := tensor.DefaultDevice()
	defer tensor.SetDefaultDevice(prev)

	// A tensor-CPU instance whose namespace allocates on WebGPU.
	dev := tensortest.New()
	_, err := Wrap(TensorCPU, dev).Place([]float32{1, 2}, tensor.Shape{2})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "default device is CPU")
	assert.Zero(t, dev.Live(), "the misplaced array is released")
}

func TestSynchronize_Idempotent(t *testing.T) {
	for _, k := range Kinds() {
		t.Run(k.String(), func(t *testing.T) {
			inst := openOrSkip(t, k)
			x, err := inst.Place([]float32{1, 2, 3, 4}, tensor.Shape{2, 2})
			require.NoError(t, err)
			inst.Namespace().MatMul(x, x)

			require.NoError(t, inst.Synchronize())
			require.NoError(t, inst.Synchronize())
		})
	}
}

// TestPlace_ShapeAndDTypeParity checks that every backend returns arrays of
// the same shape and precision for the same host data.
func TestPlace_ShapeAndDTypeParity(t *testing.T) {
	data := make([]float32, 12*5)
	for i := range data {
		data[i] = float32(i) / 7
	}

	for _, k := range Kinds() {
		t.Run(k.String(), func(t *testing.T) {
			inst := openOrSkip(t, k)
			x, err := inst.Place(data, tensor.Shape{12, 5})
			require.NoError(t, err)
			defer x.Release()

			assert.Equal(t, tensor.Shape{12, 5}, x.Shape())
			assert.Equal(t, tensor.Float32, x.DType())
			assert.Equal(t, k.Capabilities().Device, x.Device())
			assert.Equal(t, data, inst.Namespace().ToHost(x))
		})
	}
}
