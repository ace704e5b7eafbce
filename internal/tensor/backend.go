package tensor

// Backend defines the array namespace every compute backend implements.
// Workloads are written against this interface only, so one implementation
// of a numerical routine runs unchanged on every backend.
//
// Implementations:
//   - backend/reference: host arrays, gonum BLAS (reference CPU library)
//   - backend/cpu: host arrays, parallel Go kernels (tensor library, CPU mode)
//   - backend/webgpu: device arrays (GPU array library and tensor library, GPU mode)
//
// Ops panic on invalid input, matching the rest of the engine. Results of ops
// on asynchronous backends may still be in flight when the op returns; call
// Synchronize before reading the clock.
type Backend interface {
	// Transfer.
	FromHost(data []float32, shape Shape) *RawTensor // Copy host data onto the backend's device.
	ToHost(x *RawTensor) []float32                   // Copy an array back to host memory.

	// Matrix operations.
	MatMul(a, b *RawTensor) *RawTensor // 2-D matrix multiplication.
	Transpose(x *RawTensor) *RawTensor // 2-D transpose.

	// Element-wise binary operations; b may broadcast as a row, column or scalar.
	Add(a, b *RawTensor) *RawTensor
	Sub(a, b *RawTensor) *RawTensor
	Mul(a, b *RawTensor) *RawTensor

	MulScalar(x *RawTensor, scalar float32) *RawTensor // multiply by scalar

	// Reductions.
	MeanDim(x *RawTensor, dim int, keepDim bool) *RawTensor // mean along dimension 0 or 1
	Argmax(x *RawTensor, dim int) *RawTensor                // index of maximum along dimension, stored as float32

	// Frame splits a 1-D signal into overlapping rows of length size, advancing by step.
	Frame(x *RawTensor, size, step int) *RawTensor

	// Synchronize blocks until all work previously issued to the device has completed.
	// Synchronous backends return immediately.
	Synchronize() error

	// Metadata.
	Name() string
	Device() Device
}

// Periodogrammer is implemented by backends that have a native fast path for
// the averaged periodogram (Welch's method). Callers fall back to composing
// Backend ops when a backend does not implement it.
type Periodogrammer interface {
	// WelchDensity returns the one-sided power spectral density of x, a 1-D
	// signal, using Hann-windowed segments of nperseg samples with 50% overlap,
	// constant detrending and density scaling for sampling frequency fs.
	WelchDensity(x *RawTensor, nperseg int, fs float64) *RawTensor
}
