package tensor

import (
	"strings"
	"testing"
)

type fakeBuffer struct {
	size     uint64
	released int
}

func (f *fakeBuffer) Size() uint64 { return f.size }
func (f *fakeBuffer) Release()     { f.released++ }

func TestShape(t *testing.T) {
	if got := (Shape{}).NumElements(); got != 1 {
		t.Errorf("scalar NumElements = %d, want 1", got)
	}
	if got := (Shape{3, 4}).NumElements(); got != 12 {
		t.Errorf("NumElements = %d, want 12", got)
	}
	if err := (Shape{3, 0}).Validate(); err == nil {
		t.Error("Validate should reject a zero dimension")
	}
	if r, c := (Shape{7}).Dims(); r != 1 || c != 7 {
		t.Errorf("Dims of [7] = (%d, %d), want (1, 7)", r, c)
	}
}

func TestBroadcastKind(t *testing.T) {
	tests := []struct {
		a, b Shape
		want Broadcast
		err  bool
	}{
		{Shape{4, 3}, Shape{4, 3}, BroadcastNone, false},
		{Shape{4, 3}, Shape{1, 3}, BroadcastRow, false},
		{Shape{4, 3}, Shape{4, 1}, BroadcastCol, false},
		{Shape{4, 3}, Shape{1, 1}, BroadcastScalar, false},
		{Shape{5}, Shape{5}, BroadcastNone, false},
		{Shape{4, 3}, Shape{3, 1}, BroadcastNone, true},
	}

	for _, tt := range tests {
		got, err := BroadcastKind(tt.a, tt.b)
		if (err != nil) != tt.err {
			t.Errorf("BroadcastKind(%v, %v) error = %v, want error %v", tt.a, tt.b, err, tt.err)
			continue
		}
		if !tt.err && got != tt.want {
			t.Errorf("BroadcastKind(%v, %v) = %v, want %v", tt.a, tt.b, got, tt.want)
		}
	}
}

func TestFromSlice(t *testing.T) {
	raw, err := FromSlice([]float32{1, 2, 3, 4, 5, 6}, Shape{2, 3}, CPU)
	if err != nil {
		t.Fatalf("FromSlice failed: %v", err)
	}
	if raw.DType() != Float32 || raw.Device() != CPU {
		t.Errorf("got %s on %s, want float32 on CPU", raw.DType(), raw.Device())
	}
	if raw.ByteSize() != 24 {
		t.Errorf("ByteSize = %d, want 24", raw.ByteSize())
	}

	if _, err := FromSlice([]float32{1, 2}, Shape{2, 3}, CPU); err == nil {
		t.Error("FromSlice should reject a length mismatch")
	}
	if _, err := FromSlice([]float32{1}, Shape{1}, WebGPU); err == nil {
		t.Error("FromSlice should reject a device without host memory")
	}
}

func TestDeviceRaw(t *testing.T) {
	buf := &fakeBuffer{size: 16}
	raw, err := NewDeviceRaw(Shape{2, 2}, WebGPU, buf)
	if err != nil {
		t.Fatalf("NewDeviceRaw failed: %v", err)
	}
	if raw.DeviceBuffer() != buf {
		t.Error("DeviceBuffer should return the wrapped buffer")
	}

	raw.Release()
	raw.Release()
	if buf.released != 1 {
		t.Errorf("buffer released %d times, want 1", buf.released)
	}

	if _, err := NewDeviceRaw(Shape{4, 4}, WebGPU, &fakeBuffer{size: 16}); err == nil {
		t.Error("NewDeviceRaw should reject an undersized buffer")
	}

	defer func() {
		if recover() == nil {
			t.Error("AsFloat32 on a device array should panic")
		}
	}()
	raw.AsFloat32()
}

func TestDefaultDevice(t *testing.T) {
	prev := DefaultDevice()
	defer SetDefaultDevice(prev)

	SetDefaultDevice(WebGPU)
	if DefaultDevice() != WebGPU {
		t.Errorf("DefaultDevice = %s, want WebGPU", DefaultDevice())
	}
}

// hostBackend is the smallest Backend needed to exercise the strict decorator.
type hostBackend struct {
	scalarCalls int
}

func (h *hostBackend) FromHost(data []float32, shape Shape) *RawTensor {
	raw, err := FromSlice(append([]float32(nil), data...), shape, CPU)
	if err != nil {
		panic(err)
	}
	return raw
}
func (h *hostBackend) ToHost(x *RawTensor) []float32   { return x.AsFloat32() }
func (h *hostBackend) MatMul(a, _ *RawTensor) *RawTensor { return a }
func (h *hostBackend) Transpose(x *RawTensor) *RawTensor { return x }
func (h *hostBackend) Add(a, _ *RawTensor) *RawTensor    { return a }
func (h *hostBackend) Sub(a, _ *RawTensor) *RawTensor    { return a }
func (h *hostBackend) Mul(a, _ *RawTensor) *RawTensor    { return a }
func (h *hostBackend) MulScalar(x *RawTensor, s float32) *RawTensor {
	h.scalarCalls++
	src := x.AsFloat32()
	out := make([]float32, len(src))
	for i, v := range src {
		out[i] = v * s
	}
	return h.FromHost(out, x.Shape())
}
func (h *hostBackend) MeanDim(x *RawTensor, _ int, _ bool) *RawTensor { return x }
func (h *hostBackend) Argmax(x *RawTensor, _ int) *RawTensor          { return x }
func (h *hostBackend) Frame(x *RawTensor, _, _ int) *RawTensor        { return x }
func (h *hostBackend) Synchronize() error                             { return nil }
func (h *hostBackend) Name() string                                   { return "host" }
func (h *hostBackend) Device() Device                                 { return CPU }

func expectPanic(t *testing.T, substr string, fn func()) {
	t.Helper()
	defer func() {
		r := recover()
		if r == nil {
			t.Errorf("expected panic containing %q", substr)
			return
		}
		if msg, ok := r.(string); !ok || !strings.Contains(msg, substr) {
			t.Errorf("panic = %v, want it to contain %q", r, substr)
		}
	}()
	fn()
}

func TestStrict_CopiesInputs(t *testing.T) {
	inner := &hostBackend{}
	s := Strict(inner)

	a := s.FromHost([]float32{1, 2, 3, 4}, Shape{2, 2})
	s.Add(a, a)
	if inner.scalarCalls != 2 {
		t.Errorf("Add made %d input copies, want 2", inner.scalarCalls)
	}
}

func TestStrict_HidesFastPath(t *testing.T) {
	var b Backend = Strict(&hostBackend{})
	if _, ok := b.(Periodogrammer); ok {
		t.Error("strict backend must not expose Periodogrammer")
	}
}

func TestStrict_Rejects(t *testing.T) {
	s := Strict(&hostBackend{})
	m := s.FromHost(make([]float32, 6), Shape{2, 3})
	v := s.FromHost(make([]float32, 4), Shape{4})

	expectPanic(t, "FromHost", func() { s.FromHost(make([]float32, 8), Shape{2, 2, 2}) })
	expectPanic(t, "shape mismatch", func() { s.MatMul(m, m) })
	expectPanic(t, "broadcasting", func() { s.Sub(m, s.FromHost(make([]float32, 2), Shape{1, 2})) })
	expectPanic(t, "invalid dim", func() { s.MeanDim(m, 2, false) })
	expectPanic(t, "1-D", func() { s.Frame(m, 2, 1) })
	expectPanic(t, "invalid size", func() { s.Frame(v, 8, 1) })
	expectPanic(t, "nil", func() { s.Transpose(nil) })

	foreign, _ := NewDeviceRaw(Shape{2}, WebGPU, &fakeBuffer{size: 8})
	expectPanic(t, "lives on WebGPU", func() { s.MulScalar(foreign, 2) })
}
