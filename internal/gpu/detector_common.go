package gpu

import (
	"encoding/json"
	"fmt"

	"github.com/google/renameio/v2"

	"medkit/internal/deviceconfig"
	"medkit/internal/logging"
)

func saveReportToFile(logger *logging.Logger, report GPUReport, filepath string) error {
	data, err := json.MarshalIndent(report, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal report: %w", err)
	}

	if err := renameio.WriteFile(filepath, data, 0o600); err != nil {
		return fmt.Errorf("failed to write report file: %w", err)
	}

	logger.Info("gpu.report.saved", "GPU report saved", map[string]interface{}{
		"filepath": filepath,
	})

	return nil
}

// finishReport resolves the live CUDA_VISIBLE_DEVICES against the
// enumerated devices and logs the outcome.
func finishReport(logger *logging.Logger, report *GPUReport) {
	report.ResolveVisibility(deviceconfig.VisibleDevices())

	payload := map[string]interface{}{
		"nvml_ok":       report.NVMLOk,
		"gpu_count":     len(report.GPUs),
		"visible_count": len(report.VisibleGPUs()),
	}
	if report.NVMLOk && len(report.Visibility.Unresolved) > 0 {
		payload["unresolved"] = report.Visibility.Unresolved
		logger.Warn("gpu.visibility.unresolved", "CUDA_VISIBLE_DEVICES names devices that were not detected", payload)
		return
	}
	logger.Info("gpu.detect.complete", "GPU detection complete", payload)
}
