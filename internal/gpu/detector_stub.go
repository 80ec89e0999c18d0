//go:build !cuda

package gpu

import "medkit/internal/logging"

// Detector reports that NVML is not compiled in. Device visibility is
// still recorded so the report shows what CUDA programs would be given.
type Detector struct {
	logger *logging.Logger
}

// NewDetector creates a detector for builds without the cuda tag
func NewDetector(logger *logging.Logger) *Detector {
	return &Detector{logger: logger}
}

// DetectGPUs returns a report with no devices and NVMLOk false
func (d *Detector) DetectGPUs() GPUReport {
	d.logger.Info("gpu.detect.disabled", "Skipping NVML detection (built without cuda tag)", nil)

	report := GPUReport{
		GPUs:         make([]GPUInfo, 0),
		ErrorMessage: "NVML disabled: rebuild with -tags cuda",
	}
	finishReport(d.logger, &report)
	return report
}

// SaveReport writes the report as JSON, replacing the file atomically
func (d *Detector) SaveReport(report GPUReport, filepath string) error {
	return saveReportToFile(d.logger, report, filepath)
}
