// Copyright 2025 Born ML Framework. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

package backend

import (
	"fmt"
	"strings"
	"sync"

	"github.com/pkg/errors"

	"github.com/born-ml/xpbench/backend/cpu"
	"github.com/born-ml/xpbench/backend/reference"
	"github.com/born-ml/xpbench/backend/webgpu"
	"github.com/born-ml/xpbench/tensor"
)

var (
	// ErrUnsupportedBackend is returned for a backend name outside the closed set.
	ErrUnsupportedBackend = errors.New("unsupported backend")

	// ErrBackendAlreadySelected is returned when a second backend is opened
	// while another one is still selected in this process.
	ErrBackendAlreadySelected = errors.New("a backend is already selected in this process")
)

// Kind identifies one of the benchmarked backends.
type Kind int

// Supported backends.
const (
	ReferenceCPU Kind = iota // reference CPU array library
	GPUArray                 // GPU array library, eager submission
	TensorCPU                // tensor library, CPU mode
	TensorGPU                // tensor library, GPU mode with batched submission
)

var kindNames = [...]string{
	ReferenceCPU: "reference-CPU",
	GPUArray:     "GPU-array",
	TensorCPU:    "tensor-CPU",
	TensorGPU:    "tensor-GPU",
}

// String returns the canonical backend name, which is also the backend
// column of every timing record.
func (k Kind) String() string {
	if k < 0 || int(k) >= len(kindNames) {
		return fmt.Sprintf("Kind(%d)", int(k))
	}
	return kindNames[k]
}

// Kinds returns every supported backend in declaration order.
func Kinds() []Kind {
	return []Kind{ReferenceCPU, GPUArray, TensorCPU, TensorGPU}
}

// Names returns the CLI names of every supported backend.
func Names() []string {
	return append([]string(nil), kindNames[:]...)
}

// Parse resolves a backend name. Matching is case-insensitive, so
// "reference-cpu" on the command line selects reference-CPU.
func Parse(name string) (Kind, error) {
	for k, n := range kindNames {
		if strings.EqualFold(n, name) {
			return Kind(k), nil
		}
	}
	return 0, errors.Wrapf(ErrUnsupportedBackend, "%q (want one of %s)", name, strings.Join(kindNames[:], ", "))
}

// Capabilities is the fixed behavior attached to a backend kind.
type Capabilities struct {
	Device tensor.Device

	// Async backends return from ops before the device has finished.
	Async bool

	// SetsDefaultDevice marks tensor-library backends, which set the
	// process-wide default device before constructing arrays.
	SetsDefaultDevice bool

	open func(o options) (tensor.Backend, func(), error)
}

type options struct {
	workers  int
	gpuBatch int
}

// Option tunes how Open constructs a backend namespace.
type Option func(*options)

// WithWorkers bounds the goroutines the tensor-CPU kernels use. Zero or
// less means one per core and 1 keeps every kernel on the calling goroutine.
// Other backends ignore it.
func WithWorkers(n int) Option {
	return func(o *options) { o.workers = n }
}

// WithGPUBatch makes tensor-GPU submit its pending command buffers once n
// have accumulated instead of holding them until the next synchronization.
// Zero keeps the whole phase in one batch. Other backends ignore it.
func WithGPUBatch(n int) Option {
	return func(o *options) { o.gpuBatch = n }
}

func newOptions(opts []Option) (options, error) {
	var o options
	for _, opt := range opts {
		opt(&o)
	}
	if o.gpuBatch < 0 {
		return o, errors.Errorf("gpu batch size must not be negative, got %d", o.gpuBatch)
	}
	return o, nil
}

// capabilities is the lookup table every Kind resolves through.
var capabilities = [...]Capabilities{
	ReferenceCPU: {
		Device: tensor.CPU,
		open: func(options) (tensor.Backend, func(), error) {
			return reference.New(), func() {}, nil
		},
	},
	GPUArray: {
		Device: tensor.WebGPU,
		Async:  true,
		open: func(options) (tensor.Backend, func(), error) {
			gpu, err := webgpu.NewImmediate()
			if err != nil {
				return nil, nil, err
			}
			return gpu, gpu.Release, nil
		},
	},
	TensorCPU: {
		Device:            tensor.CPU,
		SetsDefaultDevice: true,
		open: func(o options) (tensor.Backend, func(), error) {
			return cpu.NewWithWorkers(o.workers), func() {}, nil
		},
	},
	TensorGPU: {
		Device:            tensor.WebGPU,
		Async:             true,
		SetsDefaultDevice: true,
		open: func(o options) (tensor.Backend, func(), error) {
			gpu, err := webgpu.New()
			if err != nil {
				return nil, nil, err
			}
			gpu.SetMaxBatchSize(o.gpuBatch)
			return gpu, gpu.Release, nil
		},
	},
}

// Capabilities returns the capability set of k.
func (k Kind) Capabilities() Capabilities {
	return capabilities[k]
}

// selection guards the single-backend-per-process rule.
var selection struct {
	sync.Mutex
	active bool
	kind   Kind
}

// Instance is an opened backend: the array namespace workloads run on plus
// the synchronization barrier the trial runner brackets every phase with.
type Instance struct {
	kind      Kind
	caps      Capabilities
	namespace tensor.Backend
	release   func()
	wrapped   bool
	closeOnce sync.Once
}

// Open selects and initializes the backend k for this process.
//
// Only one backend may be selected at a time: tensor backends mutate the
// process-wide default device, so interleaving backends is unsupported.
// Close the instance before opening another one.
func Open(k Kind, opts ...Option) (*Instance, error) {
	if k < 0 || int(k) >= len(capabilities) {
		return nil, errors.Wrapf(ErrUnsupportedBackend, "%v", k)
	}
	o, err := newOptions(opts)
	if err != nil {
		return nil, errors.Wrapf(err, "open %s", k)
	}

	selection.Lock()
	defer selection.Unlock()
	if selection.active {
		return nil, errors.Wrapf(ErrBackendAlreadySelected, "open %s: %s in use", k, selection.kind)
	}

	caps := capabilities[k]
	ns, release, err := caps.open(o)
	if err != nil {
		return nil, errors.Wrapf(err, "open %s", k)
	}

	selection.active, selection.kind = true, k
	return &Instance{kind: k, caps: caps, namespace: ns, release: release}, nil
}

// Wrap returns an instance of k backed by an already constructed namespace.
// It does not take part in the process selection, so the caller owns the
// namespace lifetime. Tests use it to substitute fakes for real devices.
func Wrap(k Kind, ns tensor.Backend) *Instance {
	return &Instance{kind: k, caps: capabilities[k], namespace: ns, release: func() {}, wrapped: true}
}

// OpenNamed parses name and opens the backend. An unknown name fails with
// ErrUnsupportedBackend before anything is initialized.
func OpenNamed(name string, opts ...Option) (*Instance, error) {
	k, err := Parse(name)
	if err != nil {
		return nil, err
	}
	return Open(k, opts...)
}

// Kind returns the selected backend kind.
func (i *Instance) Kind() Kind {
	return i.kind
}

// Name returns the record name of the backend.
func (i *Instance) Name() string {
	return i.kind.String()
}

// Capabilities returns the backend's capability set.
func (i *Instance) Capabilities() Capabilities {
	return i.caps
}

// Namespace returns the array namespace workloads program against.
func (i *Instance) Namespace() tensor.Backend {
	return i.namespace
}

// Place copies host data onto the backend's device.
//
// Tensor backends set the process-wide default device first and the placed
// array must land there. The default is never restored. Backend panics
// (for example device allocation failures) are returned as errors.
func (i *Instance) Place(data []float32, shape tensor.Shape) (x *tensor.RawTensor, err error) {
	defer func() {
		if r := recover(); r != nil {
			x = nil
			err = errors.Errorf("allocate %v on %s: %v", shape, i.kind, r)
		}
	}()

	if i.caps.SetsDefaultDevice {
		tensor.SetDefaultDevice(i.caps.Device)
	}
	x = i.namespace.FromHost(data, shape)
	if i.caps.SetsDefaultDevice && x.Device() != tensor.DefaultDevice() {
		x.Release()
		return nil, errors.Errorf("allocate %v on %s: array placed on %s, default device is %s",
			shape, i.kind, x.Device(), tensor.DefaultDevice())
	}
	return x, nil
}

// Synchronize blocks until every operation previously issued to the device
// has completed. It is a no-op for synchronous backends and safe to call
// repeatedly.
func (i *Instance) Synchronize() error {
	if !i.caps.Async {
		return nil
	}
	return errors.Wrapf(i.namespace.Synchronize(), "synchronize %s", i.kind)
}

// Close releases device resources and clears the process selection.
func (i *Instance) Close() {
	i.closeOnce.Do(func() {
		i.release()
		if i.wrapped {
			return
		}

		selection.Lock()
		selection.active = false
		selection.Unlock()
	})
}
