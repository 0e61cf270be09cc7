// Package device implements explicit device placement for network
// parameters. Parameters always live on exactly one device, and only the
// designated transfer operations on the parameter store may change that.
package device

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/klauspost/cpuid/v2"
	"github.com/pkg/errors"
)

// Kind describes the kinds of devices that parameters can reside on
type Kind string

// Available device kinds
const (
	CPU  Kind = "cpu"
	CUDA Kind = "cuda"
)

// Device identifies a single compute device, e.g. "cpu" or "cuda:1"
type Device struct {
	Kind    Kind
	Ordinal int
}

// Host is the host-memory device. Checkpointing relocates parameters here
// before serializing them.
var Host = Device{Kind: CPU}

// Parse parses a device selector of the form "cpu", "cuda" or "cuda:<n>"
func Parse(selector string) (Device, error) {
	name, ordinal, hasOrdinal := strings.Cut(selector, ":")

	var dev Device
	switch Kind(strings.ToLower(strings.TrimSpace(name))) {
	case CPU:
		dev.Kind = CPU
	case CUDA:
		dev.Kind = CUDA
	default:
		return Device{}, errors.Errorf("parse: unknown device %q", selector)
	}

	if hasOrdinal {
		n, err := strconv.Atoi(ordinal)
		if err != nil || n < 0 {
			return Device{}, errors.Errorf("parse: invalid device ordinal in %q",
				selector)
		}
		dev.Ordinal = n
	}
	return dev, nil
}

// Validate returns an error if the device cannot execute on this build. The
// tensor engine used here runs on host memory, so CUDA selectors are
// rejected up front instead of silently falling back to the CPU.
func (d Device) Validate() error {
	if d.Kind == CUDA {
		return errors.Errorf("device %v is not available in this build", d)
	}
	if d.Kind == CPU && d.Ordinal != 0 {
		return errors.Errorf("device %v: cpu has a single ordinal", d)
	}
	return nil
}

// IsHost returns whether the device is host memory
func (d Device) IsHost() bool {
	return d.Kind == CPU
}

func (d Device) String() string {
	if d.Kind == CPU {
		return string(CPU)
	}
	return fmt.Sprintf("%v:%v", d.Kind, d.Ordinal)
}

// Summary returns a one-line description of the host processor, including
// the widest vector instruction set available. Logged once when an agent is
// constructed so training logs record the hardware they were produced on.
func Summary() string {
	return fmt.Sprintf("%v (%v cores, %v)", cpuid.CPU.BrandName,
		cpuid.CPU.LogicalCores, vectorISA())
}

// vectorISA reports the widest vector extension supported by the host CPU
func vectorISA() string {
	switch {
	case cpuid.CPU.Supports(cpuid.AVX512F, cpuid.AVX512DQ):
		return "avx512"
	case cpuid.CPU.Supports(cpuid.AVX2):
		return "avx2"
	case cpuid.CPU.Supports(cpuid.AVX):
		return "avx"
	case cpuid.CPU.Supports(cpuid.SSE4):
		return "sse4"
	default:
		return "scalar"
	}
}
