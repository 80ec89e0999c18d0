//go:build cuda

package gpu

import (
	"fmt"

	"github.com/NVIDIA/go-nvml/pkg/nvml"

	"medkit/internal/logging"
)

// Detector enumerates NVIDIA devices through NVML
type Detector struct {
	lib    NVML
	logger *logging.Logger
}

// NewDetector creates a detector backed by the system NVML library
func NewDetector(logger *logging.Logger) *Detector {
	return NewDetectorWithLibrary(newLibrary(), logger)
}

// NewDetectorWithLibrary creates a detector over the given NVML implementation
func NewDetectorWithLibrary(lib NVML, logger *logging.Logger) *Detector {
	return &Detector{
		lib:    lib,
		logger: logger,
	}
}

// DetectGPUs enumerates devices and resolves CUDA_VISIBLE_DEVICES against
// them. Failures are recorded in the report, never returned.
func (d *Detector) DetectGPUs() GPUReport {
	d.logger.Info("gpu.detect.start", "Starting GPU detection", nil)

	report := GPUReport{GPUs: make([]GPUInfo, 0)}
	d.enumerate(&report)
	finishReport(d.logger, &report)

	return report
}

func (d *Detector) enumerate(report *GPUReport) {
	if ret := d.lib.Init(); ret != nvml.SUCCESS {
		report.ErrorMessage = fmt.Sprintf("Failed to initialize NVML: %v", nvml.ErrorString(ret))
		d.logger.Warn("gpu.nvml.init.failed", "NVML initialization failed", map[string]interface{}{
			"error": report.ErrorMessage,
		})
		return
	}
	defer d.lib.Shutdown()

	report.NVMLOk = true
	report.DriverVersion, _ = query(d, "driver_version", -1, d.lib.SystemGetDriverVersion)
	report.CUDAVersion, _ = query(d, "cuda_version", -1, d.lib.SystemGetCudaDriverVersion)

	count, ret := d.lib.DeviceGetCount()
	if ret != nvml.SUCCESS {
		report.ErrorMessage = fmt.Sprintf("Failed to get device count: %v", nvml.ErrorString(ret))
		d.logger.Error("gpu.device.count.failed", "Failed to get GPU count", map[string]interface{}{
			"error": report.ErrorMessage,
		})
		return
	}

	for index := 0; index < count; index++ {
		device, ret := d.lib.DeviceGetHandleByIndex(index)
		if ret != nvml.SUCCESS {
			d.logger.Warn("gpu.device.handle.failed", "Failed to get device handle", map[string]interface{}{
				"index": index,
				"error": nvml.ErrorString(ret),
			})
			continue
		}
		report.GPUs = append(report.GPUs, d.describe(index, device))
	}
}

// describe fills what NVML reports for one device; fields it cannot read stay empty
func (d *Detector) describe(index int, device Device) GPUInfo {
	info := GPUInfo{Index: index, Ordinal: -1}

	info.Name, _ = query(d, "name", index, device.GetName)
	info.UUID, _ = query(d, "uuid", index, device.GetUUID)

	if mem, ok := query(d, "memory", index, device.GetMemoryInfo); ok {
		info.MemoryMB = mem.Total / (1024 * 1024)
	}
	if pci, ok := query(d, "pci", index, device.GetPciInfo); ok {
		info.PCIBusID = fmt.Sprintf("%08x:%02x:%02x.0", pci.Domain, pci.Bus, pci.Device)
	}
	if major, minor, ret := device.GetCudaComputeCapability(); ret == nvml.SUCCESS {
		info.ComputeCapability = fmt.Sprintf("%d.%d", major, minor)
	}

	d.logger.Debug("gpu.device.detected", "GPU device detected", map[string]interface{}{
		"index":      index,
		"name":       info.Name,
		"uuid":       info.UUID,
		"pci_bus_id": info.PCIBusID,
		"memory_mb":  info.MemoryMB,
	})

	return info
}

// query runs one NVML getter and logs a failure. index is -1 for system-wide values.
func query[T any](d *Detector, field string, index int, get func() (T, nvml.Return)) (T, bool) {
	value, ret := get()
	if ret == nvml.SUCCESS {
		return value, true
	}

	payload := map[string]interface{}{
		"field": field,
		"error": nvml.ErrorString(ret),
	}
	if index >= 0 {
		payload["index"] = index
	}
	d.logger.Warn("gpu.query.failed", "NVML query failed", payload)

	var zero T
	return zero, false
}

// SaveReport writes the report as JSON, replacing the file atomically
func (d *Detector) SaveReport(report GPUReport, filepath string) error {
	return saveReportToFile(d.logger, report, filepath)
}
