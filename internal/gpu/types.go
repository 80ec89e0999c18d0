package gpu

import "fmt"

// GPUInfo describes one NVIDIA device as NVML enumerates it
type GPUInfo struct {
	Index             int    `json:"index"`
	Name              string `json:"name"`
	UUID              string `json:"uuid"`
	PCIBusID          string `json:"pci_bus_id,omitempty"`
	ComputeCapability string `json:"compute_capability,omitempty"`
	MemoryMB          uint64 `json:"memory_mb"`

	// Visible reports whether CUDA_VISIBLE_DEVICES exposes the device.
	Visible bool `json:"visible"`
	// Ordinal is the device number CUDA programs see, following the order
	// of CUDA_VISIBLE_DEVICES, or -1 when the device is hidden. With the
	// variable unset it is the NVML position, which is CUDA's numbering
	// under CUDA_DEVICE_ORDER=PCI_BUS_ID.
	Ordinal int `json:"ordinal"`
}

// GPUReport is the result of one detection run (gpu_report.json)
type GPUReport struct {
	DriverVersion string     `json:"driver_version"`
	CUDAVersion   int        `json:"cuda_version"`
	NVMLOk        bool       `json:"nvml_ok"`
	GPUs          []GPUInfo  `json:"gpus"`
	Visibility    Visibility `json:"visibility"`
	ErrorMessage  string     `json:"error_message,omitempty"`
}

// CUDAVersionString renders NVML's integer CUDA version (12020) as "12.2"
func (r GPUReport) CUDAVersionString() string {
	if r.CUDAVersion <= 0 {
		return ""
	}
	return fmt.Sprintf("%d.%d", r.CUDAVersion/1000, (r.CUDAVersion%1000)/10)
}

// Indices returns the NVML indices of all detected devices
func (r GPUReport) Indices() []int {
	indices := make([]int, len(r.GPUs))
	for i, g := range r.GPUs {
		indices[i] = g.Index
	}
	return indices
}

// UUIDsFor maps NVML device indices to GPU UUIDs. CUDA may enumerate devices
// in a different order than NVML, so UUIDs are the unambiguous way to pin a
// physical device through CUDA_VISIBLE_DEVICES.
func (r GPUReport) UUIDsFor(indices []int) ([]string, error) {
	byIndex := make(map[int]GPUInfo, len(r.GPUs))
	for _, g := range r.GPUs {
		byIndex[g.Index] = g
	}

	uuids := make([]string, 0, len(indices))
	for _, idx := range indices {
		g, ok := byIndex[idx]
		if !ok {
			return nil, fmt.Errorf("device %d not detected (found %d devices)", idx, len(r.GPUs))
		}
		if g.UUID == "" {
			return nil, fmt.Errorf("device %d has no UUID", idx)
		}
		uuids = append(uuids, g.UUID)
	}
	return uuids, nil
}
