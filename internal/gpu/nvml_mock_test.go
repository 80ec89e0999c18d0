//go:build cuda

package gpu

import (
	"github.com/NVIDIA/go-nvml/pkg/nvml"
)

// mockLibrary is an in-memory NVML. Zero-valued returns are nvml.SUCCESS.
type mockLibrary struct {
	initReturn     nvml.Return
	shutdownCalls  int
	driverVersion  string
	driverReturn   nvml.Return
	cudaVersion    int
	cudaReturn     nvml.Return
	countReturn    nvml.Return
	devices        []*mockDevice
	missingHandles map[int]bool
}

type mockDevice struct {
	name         string
	uuid         string
	uuidReturn   nvml.Return
	memoryTotal  uint64
	memoryReturn nvml.Return
	pci          nvml.PciInfo
	major, minor int
	ccReturn     nvml.Return
}

func (m *mockLibrary) Init() nvml.Return { return m.initReturn }

func (m *mockLibrary) Shutdown() nvml.Return {
	m.shutdownCalls++
	return nvml.SUCCESS
}

func (m *mockLibrary) SystemGetDriverVersion() (string, nvml.Return) {
	return m.driverVersion, m.driverReturn
}

func (m *mockLibrary) SystemGetCudaDriverVersion() (int, nvml.Return) {
	return m.cudaVersion, m.cudaReturn
}

func (m *mockLibrary) DeviceGetCount() (int, nvml.Return) {
	return len(m.devices), m.countReturn
}

func (m *mockLibrary) DeviceGetHandleByIndex(index int) (Device, nvml.Return) {
	if index < 0 || index >= len(m.devices) || m.missingHandles[index] {
		return nil, nvml.ERROR_INVALID_ARGUMENT
	}
	return m.devices[index], nvml.SUCCESS
}

func (d *mockDevice) GetName() (string, nvml.Return) { return d.name, nvml.SUCCESS }

func (d *mockDevice) GetUUID() (string, nvml.Return) { return d.uuid, d.uuidReturn }

func (d *mockDevice) GetMemoryInfo() (nvml.Memory, nvml.Return) {
	return nvml.Memory{Total: d.memoryTotal}, d.memoryReturn
}

func (d *mockDevice) GetPciInfo() (nvml.PciInfo, nvml.Return) { return d.pci, nvml.SUCCESS }

func (d *mockDevice) GetCudaComputeCapability() (int, int, nvml.Return) {
	return d.major, d.minor, d.ccReturn
}
