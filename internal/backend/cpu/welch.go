package cpu

import (
	"fmt"

	"github.com/born-ml/xpbench/internal/spectral"
	"github.com/born-ml/xpbench/internal/tensor"
)

// WelchDensity computes the one-sided Welch PSD of a 1-D signal with the
// FFT-based host kernel, bypassing the matmul composition.
func (cpu *CPUBackend) WelchDensity(x *tensor.RawTensor, nperseg int, fs float64) *tensor.RawTensor {
	cpu.checkDevice("welch", x)
	if len(x.Shape()) != 1 {
		panic(fmt.Sprintf("welch: expected 1D signal, got shape %v", x.Shape()))
	}

	psd, err := spectral.Density(x.AsFloat32(), nperseg, fs, cpu.parallel)
	if err != nil {
		panic(fmt.Sprintf("welch: %v", err))
	}

	result, err := tensor.FromSlice(psd, tensor.Shape{len(psd)}, cpu.device)
	if err != nil {
		panic(fmt.Sprintf("welch: %v", err))
	}
	return result
}
