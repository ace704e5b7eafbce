//go:build windows

package webgpu

import (
	"fmt"
	"strings"
	"sync"

	"github.com/go-webgpu/webgpu/wgpu"

	"github.com/born-ml/xpbench/internal/tensor"
)

// Compile-time check that Backend implements tensor.Backend.
var _ tensor.Backend = (*Backend)(nil)

// Backend implements the array namespace on a GPU through WebGPU.
type Backend struct {
	instance *wgpu.Instance
	adapter  *wgpu.Adapter
	device   *wgpu.Device
	queue    *wgpu.Queue

	// Shader and pipeline cache
	shaders   map[string]*wgpu.ShaderModule
	pipelines map[string]*wgpu.ComputePipeline
	mu        sync.RWMutex

	adapterInfo *wgpu.AdapterInfoGo

	bufferPool *BufferPool

	// fence is a tiny buffer copied into fenceStaging and mapped to wait for
	// the queue to drain.
	fence        *wgpu.Buffer
	fenceStaging *wgpu.Buffer

	// LazyMode batches command buffers and submits them on Synchronize,
	// ToHost or when maxBatchSize is reached. When false every op is
	// submitted as soon as it is encoded.
	LazyMode bool

	pendingCommands []*wgpu.CommandBuffer
	pendingMu       sync.Mutex
	maxBatchSize    int // Maximum commands before auto-flush (0 = no limit)
}

// New creates a new WebGPU backend.
// Returns an error if WebGPU is not available or initialization fails.
func New() (backend *Backend, err error) {
	// Recover from panic if wgpu_native library is not found.
	defer func() {
		if r := recover(); r != nil {
			backend = nil
			err = fmt.Errorf("%w: native library not available: %v", ErrUnavailable, r)
		}
	}()

	instance, instanceErr := wgpu.CreateInstance(nil)
	if instanceErr != nil {
		return nil, fmt.Errorf("%w: failed to create instance: %w", ErrUnavailable, instanceErr)
	}
	adapter, adapterErr := instance.RequestAdapter(&wgpu.RequestAdapterOptions{
		PowerPreference: wgpu.PowerPreferenceHighPerformance,
	})
	if adapterErr != nil {
		instance.Release()
		return nil, fmt.Errorf("%w: failed to request adapter: %w", ErrUnavailable, adapterErr)
	}

	// Adapter info only labels the backend, so a failed query is not fatal.
	adapterInfo, infoErr := adapter.GetInfo()
	if infoErr != nil {
		adapterInfo = nil
	}

	device, deviceErr := adapter.RequestDevice(nil)
	if deviceErr != nil {
		adapter.Release()
		instance.Release()
		return nil, fmt.Errorf("%w: failed to request device: %w", ErrUnavailable, deviceErr)
	}

	queue := device.GetQueue()
	if queue == nil {
		device.Release()
		adapter.Release()
		instance.Release()
		return nil, fmt.Errorf("%w: failed to get queue", ErrUnavailable)
	}

	b := &Backend{
		instance:    instance,
		adapter:     adapter,
		device:      device,
		queue:       queue,
		shaders:     make(map[string]*wgpu.ShaderModule),
		pipelines:   make(map[string]*wgpu.ComputePipeline),
		adapterInfo: adapterInfo,
		bufferPool:  NewBufferPool(device),
		LazyMode:    true,
	}
	b.fence = b.createBuffer(make([]byte, 4), wgpu.BufferUsageStorage|wgpu.BufferUsageCopySrc)
	b.fenceStaging = device.CreateBuffer(&wgpu.BufferDescriptor{
		Usage: wgpu.BufferUsageMapRead | wgpu.BufferUsageCopyDst,
		Size:  4,
	})

	return b, nil
}

// SetLazyMode enables or disables command batching.
func (b *Backend) SetLazyMode(enabled bool) {
	b.flushCommands()
	b.LazyMode = enabled
}

// SetMaxBatchSize sets the maximum number of commands to accumulate before auto-flush.
// Set to 0 (default) to disable auto-flush limit.
func (b *Backend) SetMaxBatchSize(size int) {
	b.pendingMu.Lock()
	defer b.pendingMu.Unlock()
	b.maxBatchSize = size
}

// submit queues cmdBuffer in lazy mode or submits it immediately otherwise.
func (b *Backend) submit(cmdBuffer *wgpu.CommandBuffer) {
	if !b.LazyMode {
		b.queue.Submit(cmdBuffer)
		return
	}

	b.pendingMu.Lock()
	defer b.pendingMu.Unlock()

	b.pendingCommands = append(b.pendingCommands, cmdBuffer)
	if b.maxBatchSize > 0 && len(b.pendingCommands) >= b.maxBatchSize {
		b.flushCommandsLocked()
	}
}

// flushCommands submits all pending command buffers to the GPU queue.
func (b *Backend) flushCommands() {
	b.pendingMu.Lock()
	defer b.pendingMu.Unlock()
	b.flushCommandsLocked()
}

// flushCommandsLocked submits all pending command buffers (must hold pendingMu lock).
func (b *Backend) flushCommandsLocked() {
	if len(b.pendingCommands) == 0 {
		return
	}
	b.queue.Submit(b.pendingCommands...)
	b.pendingCommands = b.pendingCommands[:0]
}

// Synchronize submits pending work and blocks until the queue has drained.
// The queue executes submissions in order, so mapping a buffer written by
// the last submission waits for everything before it.
func (b *Backend) Synchronize() error {
	b.flushCommands()

	encoder := b.device.CreateCommandEncoder(nil)
	encoder.CopyBufferToBuffer(b.fence, 0, b.fenceStaging, 0, 4)
	b.queue.Submit(encoder.Finish(nil))

	if err := b.fenceStaging.MapAsync(b.device, wgpu.MapModeRead, 0, 4); err != nil {
		return fmt.Errorf("webgpu: synchronize: %w", err)
	}
	b.fenceStaging.Unmap()
	return nil
}

// Release releases all WebGPU resources.
// Must be called when the backend is no longer needed.
func (b *Backend) Release() {
	b.flushCommands()

	b.mu.Lock()
	defer b.mu.Unlock()

	if b.bufferPool != nil {
		b.bufferPool.Clear()
		b.bufferPool = nil
	}
	for _, p := range b.pipelines {
		p.Release()
	}
	b.pipelines = nil
	for _, s := range b.shaders {
		s.Release()
	}
	b.shaders = nil

	if b.fence != nil {
		b.fence.Release()
		b.fenceStaging.Release()
		b.fence, b.fenceStaging = nil, nil
	}
	if b.queue != nil {
		b.queue.Release()
		b.queue = nil
	}
	if b.device != nil {
		b.device.Release()
		b.device = nil
	}
	if b.adapter != nil {
		b.adapter.Release()
		b.adapter = nil
	}
	if b.instance != nil {
		b.instance.Release()
		b.instance = nil
	}
}

// Name returns the backend name.
func (b *Backend) Name() string {
	return adapterName(b.adapterInfo)
}

func adapterName(info *wgpu.AdapterInfoGo) string {
	if info == nil {
		return "WebGPU"
	}
	parts := make([]string, 0, 2)
	for _, p := range []string{info.Vendor, info.Device} {
		if p = strings.TrimSpace(p); p != "" {
			parts = append(parts, p)
		}
	}
	if len(parts) == 0 {
		return "WebGPU"
	}
	return "WebGPU (" + strings.Join(parts, " ") + ")"
}

// Device returns the compute device.
func (b *Backend) Device() tensor.Device {
	return tensor.WebGPU
}

// PoolStats reports buffer pool usage.
func (b *Backend) PoolStats() (allocated, released, hits, misses uint64, pooled int) {
	return b.bufferPool.Stats()
}

// IsAvailable checks if WebGPU is available on this system.
func IsAvailable() (available bool) {
	// Recover from panic if wgpu_native library is not found.
	defer func() {
		if r := recover(); r != nil {
			available = false
		}
	}()

	if err := wgpu.Init(); err != nil {
		return false
	}
	instance, err := wgpu.CreateInstance(nil)
	if err != nil {
		return false
	}
	defer instance.Release()

	adapter, err := instance.RequestAdapter(nil)
	if err != nil {
		return false
	}
	adapter.Release()

	return true
}
