package cpu

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/born-ml/xpbench/internal/parallel"
	"github.com/born-ml/xpbench/internal/spectral"
	"github.com/born-ml/xpbench/internal/tensor"
)

// backends returns a sequential and a parallel backend so every kernel is
// exercised on both code paths.
func backends() map[string]*CPUBackend {
	return map[string]*CPUBackend{
		"Sequential": NewWithConfig(parallel.Sequential()),
		"Parallel":   NewWithConfig(parallel.Config{Enabled: true, NumWorkers: 4, MinChunkSize: 1}),
	}
}

func TestCPUBackend_New(t *testing.T) {
	backend := New()
	require.NotNil(t, backend)
	assert.Contains(t, backend.Name(), "CPU")
	assert.Equal(t, tensor.CPU, backend.Device())
	assert.NoError(t, backend.Synchronize())
}

func TestCPUBackend_Workers(t *testing.T) {
	assert.Equal(t, 1, NewWithConfig(parallel.Sequential()).Workers())
	assert.Equal(t, "CPU (1 workers)", NewWithConfig(parallel.Sequential()).Name())

	b := NewWithConfig(parallel.Config{Enabled: true, NumWorkers: 3, MinChunkSize: 1})
	assert.Equal(t, 3, b.Workers())
	assert.Equal(t, "CPU (3 workers)", b.Name())
}

func TestCPUBackend_FromHostCopies(t *testing.T) {
	backend := New()
	data := []float32{1, 2, 3}
	x := backend.FromHost(data, tensor.Shape{3})
	data[0] = 100

	assert.Equal(t, []float32{1, 2, 3}, backend.ToHost(x))
}

func TestCPUBackend_MatMul(t *testing.T) {
	for name, backend := range backends() {
		t.Run(name, func(t *testing.T) {
			a := backend.FromHost([]float32{1, 2, 3, 4, 5, 6}, tensor.Shape{2, 3})
			b := backend.FromHost([]float32{7, 8, 9, 10, 11, 12}, tensor.Shape{3, 2})

			c := backend.MatMul(a, b)

			assert.Equal(t, tensor.Shape{2, 2}, c.Shape())
			assert.Equal(t, []float32{58, 64, 139, 154}, backend.ToHost(c))
		})
	}
}

func TestCPUBackend_MatMul_ShapeMismatch(t *testing.T) {
	backend := New()
	a := backend.FromHost(make([]float32, 6), tensor.Shape{2, 3})
	b := backend.FromHost(make([]float32, 4), tensor.Shape{2, 2})

	assert.PanicsWithValue(t, "matmul: shape mismatch [2,3] @ [2,2]", func() {
		backend.MatMul(a, b)
	})
}

func TestCPUBackend_Transpose(t *testing.T) {
	for name, backend := range backends() {
		t.Run(name, func(t *testing.T) {
			x := backend.FromHost([]float32{1, 2, 3, 4, 5, 6}, tensor.Shape{2, 3})
			y := backend.Transpose(x)

			assert.Equal(t, tensor.Shape{3, 2}, y.Shape())
			assert.Equal(t, []float32{1, 4, 2, 5, 3, 6}, backend.ToHost(y))
		})
	}
}

func TestCPUBackend_Broadcast(t *testing.T) {
	backend := New()
	a := backend.FromHost([]float32{1, 2, 3, 4, 5, 6}, tensor.Shape{2, 3})

	tests := []struct {
		name string
		b    *tensor.RawTensor
		op   func(a, b *tensor.RawTensor) *tensor.RawTensor
		want []float32
	}{
		{"SameShape", backend.FromHost([]float32{1, 1, 1, 2, 2, 2}, tensor.Shape{2, 3}), backend.Add, []float32{2, 3, 4, 6, 7, 8}},
		{"Row", backend.FromHost([]float32{10, 20, 30}, tensor.Shape{1, 3}), backend.Add, []float32{11, 22, 33, 14, 25, 36}},
		{"Col", backend.FromHost([]float32{1, 4}, tensor.Shape{2, 1}), backend.Sub, []float32{0, 1, 2, 0, 1, 2}},
		{"Scalar", backend.FromHost([]float32{2}, tensor.Shape{1, 1}), backend.Mul, []float32{2, 4, 6, 8, 10, 12}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := tt.op(a, tt.b)
			assert.Equal(t, a.Shape(), got.Shape())
			assert.Equal(t, tt.want, backend.ToHost(got))
		})
	}
}

func TestCPUBackend_Broadcast_Incompatible(t *testing.T) {
	backend := New()
	a := backend.FromHost(make([]float32, 6), tensor.Shape{2, 3})
	b := backend.FromHost(make([]float32, 2), tensor.Shape{1, 2})

	assert.Panics(t, func() { backend.Add(a, b) })
}

func TestCPUBackend_MulScalar(t *testing.T) {
	backend := New()
	x := backend.FromHost([]float32{1, -2, 3}, tensor.Shape{3})

	y := backend.MulScalar(x, 1)
	assert.Equal(t, []float32{1, -2, 3}, backend.ToHost(y))
	assert.NotSame(t, x, y)

	z := backend.MulScalar(x, -0.5)
	assert.Equal(t, []float32{-0.5, 1, -1.5}, backend.ToHost(z))
}

func TestCPUBackend_MeanDim(t *testing.T) {
	for name, backend := range backends() {
		t.Run(name, func(t *testing.T) {
			x := backend.FromHost([]float32{1, 2, 3, 4, 5, 6}, tensor.Shape{2, 3})

			cols := backend.MeanDim(x, 0, true)
			assert.Equal(t, tensor.Shape{1, 3}, cols.Shape())
			assert.InDeltaSlice(t, []float32{2.5, 3.5, 4.5}, backend.ToHost(cols), 1e-6)

			rows := backend.MeanDim(x, 1, false)
			assert.Equal(t, tensor.Shape{2}, rows.Shape())
			assert.InDeltaSlice(t, []float32{2, 5}, backend.ToHost(rows), 1e-6)
		})
	}
}

func TestCPUBackend_Argmax(t *testing.T) {
	backend := New()
	x := backend.FromHost([]float32{
		0.1, 0.9, 0.0,
		0.7, 0.2, 0.7,
	}, tensor.Shape{2, 3})

	assert.Equal(t, []float32{1, 0}, backend.ToHost(backend.Argmax(x, 1)))
	assert.Equal(t, []float32{1, 0, 1}, backend.ToHost(backend.Argmax(x, 0)))
}

func TestCPUBackend_Frame(t *testing.T) {
	backend := New()
	x := backend.FromHost([]float32{0, 1, 2, 3, 4, 5, 6, 7, 8, 9}, tensor.Shape{10})

	frames := backend.Frame(x, 4, 2)
	assert.Equal(t, tensor.Shape{4, 4}, frames.Shape())
	assert.Equal(t, []float32{
		0, 1, 2, 3,
		2, 3, 4, 5,
		4, 5, 6, 7,
		6, 7, 8, 9,
	}, backend.ToHost(frames))

	assert.Panics(t, func() { backend.Frame(x, 11, 1) })
}

func TestCPUBackend_WelchFastPathMatchesComposition(t *testing.T) {
	backend := New()
	signal := make([]float32, 1001)
	for i := range signal {
		signal[i] = float32(math.Sin(2*math.Pi*1234*float64(i)/10e3) + 0.01*float64(i%7))
	}
	x := backend.FromHost(signal, tensor.Shape{len(signal)})

	fast := backend.ToHost(spectral.Welch(backend, x, 8, 10e3))
	composed := backend.ToHost(spectral.Welch(tensor.Strict(backend), x, 8, 10e3))

	require.Len(t, fast, 5)
	require.Len(t, composed, 5)
	var peak float64
	for _, v := range fast {
		peak = math.Max(peak, float64(v))
	}
	for k := range fast {
		assert.InDelta(t, fast[k], composed[k], 1e-3*peak, "bin %d", k)
	}
}

func TestStrict_RejectsForeignDevice(t *testing.T) {
	strict := tensor.Strict(New())
	buf := fakeBuffer(16)
	x, err := tensor.NewDeviceRaw(tensor.Shape{4}, tensor.WebGPU, buf)
	require.NoError(t, err)

	assert.Panics(t, func() { strict.MulScalar(x, 2) })
}

type fakeBuffer uint64

func (b fakeBuffer) Size() uint64 { return uint64(b) }
func (fakeBuffer) Release()       {}
