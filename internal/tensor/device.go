package tensor

import "sync/atomic"

// defaultDevice is the process-wide placement used by tensor backends when
// constructing arrays. It is set once at backend selection and never restored.
var defaultDevice atomic.Int32

// SetDefaultDevice sets the process-wide default device.
//
// The setting is global: mixing backends that need different defaults in one
// process is unsupported, which is why each benchmark run uses one backend.
func SetDefaultDevice(d Device) {
	defaultDevice.Store(int32(d)) //nolint:gosec // G115: Device is a small enum.
}

// DefaultDevice returns the process-wide default device (CPU until set).
func DefaultDevice() Device {
	return Device(defaultDevice.Load())
}
