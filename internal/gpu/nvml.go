//go:build cuda

package gpu

import (
	"github.com/NVIDIA/go-nvml/pkg/nvml"
)

// NVML is the part of the NVML library the detector queries
type NVML interface {
	Init() nvml.Return
	Shutdown() nvml.Return
	SystemGetDriverVersion() (string, nvml.Return)
	SystemGetCudaDriverVersion() (int, nvml.Return)
	DeviceGetCount() (int, nvml.Return)
	DeviceGetHandleByIndex(index int) (Device, nvml.Return)
}

// Device holds the per-device queries needed to identify and pin a GPU.
// nvml.Device satisfies it directly.
type Device interface {
	GetName() (string, nvml.Return)
	GetUUID() (string, nvml.Return)
	GetMemoryInfo() (nvml.Memory, nvml.Return)
	GetPciInfo() (nvml.PciInfo, nvml.Return)
	GetCudaComputeCapability() (int, int, nvml.Return)
}

// library narrows nvml.Interface to NVML
type library struct {
	nvml.Interface
}

func newLibrary() NVML {
	return library{Interface: nvml.New()}
}

func (l library) DeviceGetHandleByIndex(index int) (Device, nvml.Return) {
	device, ret := l.Interface.DeviceGetHandleByIndex(index)
	if ret != nvml.SUCCESS {
		return nil, ret
	}
	return device, ret
}
