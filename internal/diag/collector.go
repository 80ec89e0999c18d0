package diag

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"runtime"
	"time"

	"medkit/internal/logging"
)

// Collector gathers diagnostic artifacts
type Collector struct {
	config   *Config
	versions VersionCollector
	gpus     GPUDetector
	redactor *Redactor
	logger   *logging.Logger
	now      func() time.Time
}

// NewCollector creates a new diagnostic collector. gpus may be nil.
func NewCollector(config *Config, versions VersionCollector, gpus GPUDetector, logger *logging.Logger) *Collector {
	return &Collector{
		config:   config,
		versions: versions,
		gpus:     gpus,
		redactor: NewRedactor(),
		logger:   logger,
		now:      time.Now,
	}
}

// CollectVersions renders the version report into versions.txt
func (c *Collector) CollectVersions() (map[string][]byte, error) {
	files := make(map[string][]byte)

	report := c.versions.Collect().String()
	files[versionsFile] = []byte(report)

	c.logger.Info("diag.collect.versions.complete", "Version report collected", nil)

	return files, nil
}

// CollectGPU runs GPU detection and stores the JSON report
func (c *Collector) CollectGPU() (map[string][]byte, error) {
	if !c.config.IncludeGPU || c.gpus == nil {
		return nil, nil
	}

	files := make(map[string][]byte)

	report := c.gpus.DetectGPUs()
	data, err := json.MarshalIndent(report, "", "  ")
	if err != nil {
		return files, fmt.Errorf("failed to marshal GPU report: %w", err)
	}
	files[gpuReportFile] = data

	c.logger.Info("diag.collect.gpu.complete", "GPU report collected", map[string]interface{}{
		"nvml_ok":   report.NVMLOk,
		"gpu_count": len(report.GPUs),
	})

	return files, nil
}

// CollectConfig stores the merged configuration and every source file,
// all redacted. An unreadable source is reported but does not drop the rest.
func (c *Collector) CollectConfig() (map[string][]byte, error) {
	if !c.config.IncludeConfig {
		return nil, nil
	}

	files := make(map[string][]byte)

	if len(c.config.EffectiveConfig) > 0 {
		files[effectiveConfigFile] = []byte(c.redactor.Redact(string(c.config.EffectiveConfig)))
	}

	var errs []error
	for _, src := range c.config.ConfigFiles {
		content, err := os.ReadFile(src.Path)
		if err != nil {
			if os.IsNotExist(err) {
				c.logger.Warn("diag.collect.config.missing", "Config file not found", map[string]interface{}{
					"source": src.Name,
					"path":   src.Path,
				})
				continue
			}
			c.logger.Error("diag.collect.config.read_error", "Failed to read config file", map[string]interface{}{
				"source": src.Name,
				"path":   src.Path,
				"error":  err.Error(),
			})
			errs = append(errs, fmt.Errorf("failed to read %s config: %w", src.Name, err))
			continue
		}

		files[configSourceFile(src.Name)] = []byte(c.redactor.Redact(string(content)))
	}

	c.logger.Info("diag.collect.config.complete", "Config collection complete", map[string]interface{}{
		"files":    len(files),
		"redacted": true,
	})

	return files, errors.Join(errs...)
}

// CollectSystemInfo gathers host, platform, and accelerator environment details
func (c *Collector) CollectSystemInfo() (map[string][]byte, error) {
	files := make(map[string][]byte)

	env := make(map[string]string)
	for _, key := range envKeys {
		if value, ok := os.LookupEnv(key); ok {
			env[key] = c.redactor.RedactEnv(key, value)
		}
	}

	sysInfo := SystemInfo{
		Timestamp:     c.now().UTC().Format(time.RFC3339),
		Host:          hostname(),
		MedkitVersion: c.config.Version,
		OS:            runtime.GOOS,
		Arch:          runtime.GOARCH,
		NumCPU:        runtime.NumCPU(),
		Environment:   env,
	}

	data, err := json.MarshalIndent(sysInfo, "", "  ")
	if err != nil {
		return files, fmt.Errorf("failed to marshal system info: %w", err)
	}

	files[sysInfoFile] = data

	c.logger.Info("diag.collect.sysinfo.complete", "System info collection complete", nil)

	return files, nil
}

func hostname() string {
	host, err := os.Hostname()
	if err != nil {
		return "unknown"
	}
	return host
}

// CalculateSHA256 computes SHA256 hash of data
func CalculateSHA256(data []byte) string {
	hash := sha256.Sum256(data)
	return hex.EncodeToString(hash[:])
}
