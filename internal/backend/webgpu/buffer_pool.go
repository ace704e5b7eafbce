//go:build windows

package webgpu

import (
	"sync"

	"github.com/go-webgpu/webgpu/wgpu"
)

// maxPoolSize caps the idle buffers kept per size.
const maxPoolSize = 16

// storageUsage is the usage of every array buffer the backend allocates.
const storageUsage = wgpu.BufferUsageStorage | wgpu.BufferUsageCopySrc | wgpu.BufferUsageCopyDst

// BufferPool recycles storage buffers by exact byte size. Timed repetitions
// allocate the same shapes every time, so after the warmup most result
// buffers come from the pool instead of the driver.
type BufferPool struct {
	device *wgpu.Device

	idle map[uint64][]*wgpu.Buffer
	mu   sync.Mutex

	// Statistics
	totalAllocated uint64
	totalReleased  uint64
	poolHits       uint64
	poolMisses     uint64
}

// NewBufferPool creates a new buffer pool for the given device.
func NewBufferPool(device *wgpu.Device) *BufferPool {
	return &BufferPool{
		device: device,
		idle:   make(map[uint64][]*wgpu.Buffer),
	}
}

// Acquire returns an idle storage buffer of exactly size bytes or creates one.
func (p *BufferPool) Acquire(size uint64) *wgpu.Buffer {
	p.mu.Lock()
	defer p.mu.Unlock()

	if bufs := p.idle[size]; len(bufs) > 0 {
		buf := bufs[len(bufs)-1]
		p.idle[size] = bufs[:len(bufs)-1]
		p.poolHits++
		return buf
	}

	p.poolMisses++
	p.totalAllocated++
	return p.device.CreateBuffer(&wgpu.BufferDescriptor{
		Usage: storageUsage,
		Size:  size,
	})
}

// Release returns a buffer to the pool. If the pool for that size is full,
// the buffer is released to the driver.
func (p *BufferPool) Release(buffer *wgpu.Buffer, size uint64) {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.totalReleased++
	if len(p.idle[size]) >= maxPoolSize {
		buffer.Release()
		return
	}
	p.idle[size] = append(p.idle[size], buffer)
}

// Clear releases all pooled buffers.
func (p *BufferPool) Clear() {
	p.mu.Lock()
	defer p.mu.Unlock()

	for size, bufs := range p.idle {
		for _, buf := range bufs {
			buf.Release()
		}
		delete(p.idle, size)
	}
}

// Stats returns statistics about buffer pool usage.
func (p *BufferPool) Stats() (allocated, released, hits, misses uint64, pooledCount int) {
	p.mu.Lock()
	defer p.mu.Unlock()

	for _, bufs := range p.idle {
		pooledCount += len(bufs)
	}
	return p.totalAllocated, p.totalReleased, p.poolHits, p.poolMisses, pooledCount
}
