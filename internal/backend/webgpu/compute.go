//go:build windows

package webgpu

import (
	"encoding/binary"
	"fmt"
	"math"
	"unsafe"

	"github.com/go-webgpu/webgpu/wgpu"

	"github.com/born-ml/xpbench/internal/tensor"
)

// gpuBuffer is the tensor.DeviceBuffer of arrays produced by this backend.
// Releasing it returns the storage to the backend's pool.
type gpuBuffer struct {
	backend *Backend
	buf     *wgpu.Buffer
	size    uint64
}

func (g *gpuBuffer) Size() uint64 { return g.size }

func (g *gpuBuffer) Release() {
	if pool := g.backend.bufferPool; pool != nil {
		pool.Release(g.buf, g.size)
	}
}

// binding is one storage buffer bound to a kernel, in binding order.
type binding struct {
	buf  *wgpu.Buffer
	size uint64
}

// compileShader compiles WGSL shader code into a ShaderModule.
// Results are cached in the Backend's shaders map.
func (b *Backend) compileShader(name, code string) *wgpu.ShaderModule {
	b.mu.RLock()
	if shader, exists := b.shaders[name]; exists {
		b.mu.RUnlock()
		return shader
	}
	b.mu.RUnlock()

	shader := b.device.CreateShaderModuleWGSL(code)

	b.mu.Lock()
	b.shaders[name] = shader
	b.mu.Unlock()

	return shader
}

// getOrCreatePipeline returns a cached ComputePipeline or creates a new one.
func (b *Backend) getOrCreatePipeline(name string, shader *wgpu.ShaderModule) *wgpu.ComputePipeline {
	b.mu.RLock()
	if pipeline, exists := b.pipelines[name]; exists {
		b.mu.RUnlock()
		return pipeline
	}
	b.mu.RUnlock()

	// Create compute pipeline with auto layout (nil layout)
	pipeline := b.device.CreateComputePipelineSimple(nil, shader, "main")

	b.mu.Lock()
	b.pipelines[name] = pipeline
	b.mu.Unlock()

	return pipeline
}

// createBuffer creates a GPU buffer initialized with data.
func (b *Backend) createBuffer(data []byte, usage wgpu.BufferUsage) *wgpu.Buffer {
	size := uint64(len(data))

	buffer := b.device.CreateBuffer(&wgpu.BufferDescriptor{
		Usage:            usage,
		Size:             size,
		MappedAtCreation: wgpu.True,
	})

	mappedPtr := buffer.GetMappedRange(0, size)
	//nolint:gosec // unsafe.Slice for zero-copy conversion from unsafe.Pointer
	mappedSlice := unsafe.Slice((*byte)(mappedPtr), size)
	copy(mappedSlice, data)
	buffer.Unmap()

	return buffer
}

// createUniformBuffer creates a uniform buffer padded to 16 bytes.
func (b *Backend) createUniformBuffer(data []byte) (*wgpu.Buffer, uint64) {
	alignedSize := (uint64(len(data)) + 15) &^ 15
	padded := make([]byte, alignedSize)
	copy(padded, data)
	return b.createBuffer(padded, wgpu.BufferUsageUniform|wgpu.BufferUsageCopyDst), alignedSize
}

// readBuffer reads data back from a GPU buffer to CPU memory.
// Uses a staging buffer since storage buffers can't be mapped directly.
func (b *Backend) readBuffer(srcBuffer *wgpu.Buffer, size uint64) ([]byte, error) {
	stagingBuffer := b.device.CreateBuffer(&wgpu.BufferDescriptor{
		Usage: wgpu.BufferUsageMapRead | wgpu.BufferUsageCopyDst,
		Size:  size,
	})
	defer stagingBuffer.Release()

	encoder := b.device.CreateCommandEncoder(nil)
	encoder.CopyBufferToBuffer(srcBuffer, 0, stagingBuffer, 0, size)
	b.queue.Submit(encoder.Finish(nil))

	if err := stagingBuffer.MapAsync(b.device, wgpu.MapModeRead, 0, size); err != nil {
		return nil, fmt.Errorf("failed to map staging buffer: %w", err)
	}

	mappedPtr := stagingBuffer.GetMappedRange(0, size)
	//nolint:gosec // unsafe.Slice for zero-copy conversion from unsafe.Pointer
	mappedSlice := unsafe.Slice((*byte)(mappedPtr), size)
	result := make([]byte, size)
	copy(result, mappedSlice)
	stagingBuffer.Unmap()

	return result, nil
}

// run encodes one compute dispatch. The uniform params buffer is bound after
// the storage bindings.
func (b *Backend) run(name, code string, params []byte, grid [3]uint32, bindings ...binding) {
	shader := b.compileShader(name, code)
	pipeline := b.getOrCreatePipeline(name, shader)

	uniform, uniformSize := b.createUniformBuffer(params)
	defer uniform.Release()

	entries := make([]wgpu.BindGroupEntry, 0, len(bindings)+1)
	for i, bd := range bindings {
		entries = append(entries, wgpu.BufferBindingEntry(uint32(i), bd.buf, 0, bd.size)) //nolint:gosec // G115: few bindings.
	}
	entries = append(entries, wgpu.BufferBindingEntry(uint32(len(bindings)), uniform, 0, uniformSize)) //nolint:gosec // G115: few bindings.

	bindGroupLayout := pipeline.GetBindGroupLayout(0)
	bindGroup := b.device.CreateBindGroupSimple(bindGroupLayout, entries)
	defer bindGroup.Release()

	encoder := b.device.CreateCommandEncoder(nil)
	computePass := encoder.BeginComputePass(nil)
	computePass.SetPipeline(pipeline)
	computePass.SetBindGroup(0, bindGroup, nil)
	computePass.DispatchWorkgroups(grid[0], grid[1], grid[2])
	computePass.End()

	b.submit(encoder.Finish(nil))
}

// newResult allocates a pooled device array of the given shape.
func (b *Backend) newResult(op string, shape tensor.Shape) (*tensor.RawTensor, binding) {
	//nolint:gosec // G115: element counts are positive.
	size := uint64(shape.NumElements() * tensor.Float32.Size())
	buf := b.bufferPool.Acquire(size)
	raw, err := tensor.NewDeviceRaw(shape, tensor.WebGPU, &gpuBuffer{backend: b, buf: buf, size: size})
	if err != nil {
		b.bufferPool.Release(buf, size)
		panic(fmt.Sprintf("webgpu: %s: %v", op, err))
	}
	return raw, binding{buf: buf, size: size}
}

// bufferOf returns the binding backing x, which must live on this backend.
func (b *Backend) bufferOf(op string, x *tensor.RawTensor) binding {
	g, ok := x.DeviceBuffer().(*gpuBuffer)
	if x.Device() != tensor.WebGPU || !ok || g.backend != b {
		panic(fmt.Sprintf("webgpu: %s: tensor on %s is not owned by this backend", op, x.Device()))
	}
	//nolint:gosec // G115: element counts are positive.
	return binding{buf: g.buf, size: uint64(x.ByteSize())}
}

// packParams encodes uniform fields as little-endian 32-bit words.
// float32 values are stored by bit pattern.
func packParams(fields ...any) []byte {
	out := make([]byte, 4*len(fields))
	for i, f := range fields {
		var word uint32
		switch v := f.(type) {
		case int:
			word = uint32(v) //nolint:gosec // G115: shapes fit in u32 on this backend.
		case uint32:
			word = v
		case float32:
			word = math.Float32bits(v)
		default:
			panic(fmt.Sprintf("webgpu: unsupported param type %T", f))
		}
		binary.LittleEndian.PutUint32(out[i*4:], word)
	}
	return out
}

// FromHost uploads data into a new device array.
func (b *Backend) FromHost(data []float32, shape tensor.Shape) *tensor.RawTensor {
	if err := shape.Validate(); err != nil {
		panic(fmt.Sprintf("webgpu: FromHost: %v", err))
	}
	if shape.NumElements() != len(data) {
		panic(fmt.Sprintf("webgpu: FromHost: shape %v requires %d elements, got %d", shape, shape.NumElements(), len(data)))
	}

	//nolint:gosec // G103: reinterpret float32 slice as bytes for upload.
	bytes := unsafe.Slice((*byte)(unsafe.Pointer(&data[0])), len(data)*4)
	buf := b.createBuffer(bytes, storageUsage)

	raw, err := tensor.NewDeviceRaw(shape, tensor.WebGPU, &gpuBuffer{backend: b, buf: buf, size: uint64(len(bytes))})
	if err != nil {
		buf.Release()
		panic(fmt.Sprintf("webgpu: FromHost: %v", err))
	}
	return raw
}

// ToHost flushes pending work and downloads x.
func (b *Backend) ToHost(x *tensor.RawTensor) []float32 {
	src := b.bufferOf("ToHost", x)
	b.flushCommands()

	data, err := b.readBuffer(src.buf, src.size)
	if err != nil {
		panic(fmt.Sprintf("webgpu: ToHost: %v", err))
	}

	out := make([]float32, x.NumElements())
	for i := range out {
		out[i] = math.Float32frombits(binary.LittleEndian.Uint32(data[i*4:]))
	}
	return out
}

// MatMul computes a @ b for 2D arrays.
func (b *Backend) MatMul(a, other *tensor.RawTensor) *tensor.RawTensor {
	if len(a.Shape()) != 2 || len(other.Shape()) != 2 {
		panic(fmt.Sprintf("webgpu: MatMul: expected 2D tensors, got shapes %v and %v", a.Shape(), other.Shape()))
	}
	m, k := a.Shape()[0], a.Shape()[1]
	if other.Shape()[0] != k {
		panic(fmt.Sprintf("webgpu: MatMul: incompatible matrix dimensions: [%d, %d] @ [%d, %d]", m, k, other.Shape()[0], other.Shape()[1]))
	}
	n := other.Shape()[1]

	ba, bb := b.bufferOf("MatMul", a), b.bufferOf("MatMul", other)
	result, br := b.newResult("MatMul", tensor.Shape{m, n})

	x, y, z, rowStride := tiledGrid(m, n)
	b.run("matmul", matmulShader, packParams(m, k, n, rowStride), [3]uint32{x, y, z}, ba, bb, br)
	return result
}

// Transpose swaps the dimensions of a 2D array.
func (b *Backend) Transpose(in *tensor.RawTensor) *tensor.RawTensor {
	if len(in.Shape()) != 2 {
		panic(fmt.Sprintf("webgpu: Transpose: expected 2D tensor, got shape %v", in.Shape()))
	}
	rows, cols := in.Shape()[0], in.Shape()[1]

	src := b.bufferOf("Transpose", in)
	result, dst := b.newResult("Transpose", tensor.Shape{cols, rows})

	x, y, z, rowStride := tiledGrid(rows, cols)
	b.run("transpose", transposeShader, packParams(rows, cols, rowStride), [3]uint32{x, y, z}, src, dst)
	return result
}

// Add performs element-wise addition with broadcasting of other.
func (b *Backend) Add(a, other *tensor.RawTensor) *tensor.RawTensor {
	return b.binary("Add", 0, a, other)
}

// Sub performs element-wise subtraction with broadcasting of other.
func (b *Backend) Sub(a, other *tensor.RawTensor) *tensor.RawTensor {
	return b.binary("Sub", 1, a, other)
}

// Mul performs element-wise multiplication with broadcasting of other.
func (b *Backend) Mul(a, other *tensor.RawTensor) *tensor.RawTensor {
	return b.binary("Mul", 2, a, other)
}

func (b *Backend) binary(op string, code uint32, a, other *tensor.RawTensor) *tensor.RawTensor {
	kind, err := tensor.BroadcastKind(a.Shape(), other.Shape())
	if err != nil {
		panic(fmt.Sprintf("webgpu: %s: %v", op, err))
	}
	_, cols := a.Shape().Dims()

	ba, bb := b.bufferOf(op, a), b.bufferOf(op, other)
	result, br := b.newResult(op, a.Shape())

	n := a.NumElements()
	x, y, stride := linearGrid(n, workgroupSize)
	//nolint:gosec // G115: Broadcast is a small enum.
	params := packParams(n, cols, uint32(kind), code, stride)
	b.run("binary", binaryShader, params, [3]uint32{x, y, 1}, ba, bb, br)
	return result
}

// MulScalar multiplies every element by scalar into a new array.
func (b *Backend) MulScalar(in *tensor.RawTensor, scalar float32) *tensor.RawTensor {
	src := b.bufferOf("MulScalar", in)
	result, dst := b.newResult("MulScalar", in.Shape())

	n := in.NumElements()
	x, y, stride := linearGrid(n, workgroupSize)
	b.run("scale", scaleShader, packParams(n, stride, scalar), [3]uint32{x, y, 1}, src, dst)
	return result
}

// MeanDim computes the mean of a 2D array along dim.
func (b *Backend) MeanDim(in *tensor.RawTensor, dim int, keepDim bool) *tensor.RawTensor {
	return b.reduce("MeanDim", 0, in, dim, keepDim)
}

// Argmax returns first-index maxima along dim as float32 values.
func (b *Backend) Argmax(in *tensor.RawTensor, dim int) *tensor.RawTensor {
	return b.reduce("Argmax", 1, in, dim, false)
}

func (b *Backend) reduce(op string, code uint32, in *tensor.RawTensor, dim int, keepDim bool) *tensor.RawTensor {
	if len(in.Shape()) != 2 || dim < 0 || dim > 1 {
		panic(fmt.Sprintf("webgpu: %s: invalid dim %d for shape %v", op, dim, in.Shape()))
	}
	rows, cols := in.Shape()[0], in.Shape()[1]

	var shape tensor.Shape
	outputs := rows
	switch {
	case dim == 0 && keepDim:
		shape, outputs = tensor.Shape{1, cols}, cols
	case dim == 0:
		shape, outputs = tensor.Shape{cols}, cols
	case keepDim:
		shape = tensor.Shape{rows, 1}
	default:
		shape = tensor.Shape{rows}
	}

	src := b.bufferOf(op, in)
	result, dst := b.newResult(op, shape)

	x, y, stride := linearGrid(outputs, workgroupSize)
	//nolint:gosec // G115: dim is 0 or 1.
	b.run("reduce", reduceShader, packParams(rows, cols, uint32(dim), code, stride), [3]uint32{x, y, 1}, src, dst)
	return result
}

// Frame splits a 1D signal into overlapping rows.
func (b *Backend) Frame(in *tensor.RawTensor, size, step int) *tensor.RawTensor {
	n := in.NumElements()
	if size <= 0 || step <= 0 || size > n {
		panic(fmt.Sprintf("webgpu: Frame: invalid size %d / step %d for %d samples", size, step, n))
	}
	frames := (n-size)/step + 1

	src := b.bufferOf("Frame", in)
	result, dst := b.newResult("Frame", tensor.Shape{frames, size})

	total := frames * size
	x, y, stride := linearGrid(total, workgroupSize)
	b.run("frame", frameShader, packParams(total, size, step, stride), [3]uint32{x, y, 1}, src, dst)
	return result
}
