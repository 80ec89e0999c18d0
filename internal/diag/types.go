package diag

import (
	"path/filepath"
	"time"

	"medkit/internal/deviceconfig"
	"medkit/internal/gpu"
)

// Manifest represents the diagnostic package manifest (diag_manifest.json)
type Manifest struct {
	Timestamp     string         `json:"timestamp"`
	Host          string         `json:"host"`
	MedkitVersion string         `json:"medkit_version"`
	Files         []ManifestFile `json:"files"`
}

// ManifestFile represents a file in the diagnostic package
type ManifestFile struct {
	Path      string `json:"path"`
	SizeBytes int64  `json:"size_bytes"`
	SHA256    string `json:"sha256"`
}

// SystemInfo is written to system_info.json
type SystemInfo struct {
	Timestamp     string            `json:"timestamp"`
	Host          string            `json:"host"`
	MedkitVersion string            `json:"medkit_version"`
	OS            string            `json:"os"`
	Arch          string            `json:"arch"`
	NumCPU        int               `json:"num_cpu"`
	Environment   map[string]string `json:"environment"`
}

// VersionCollector produces the version report
type VersionCollector interface {
	Collect() deviceconfig.Values
}

// GPUDetector produces the GPU report
type GPUDetector interface {
	DetectGPUs() gpu.GPUReport
}

// ConfigFile is a configuration source copied into the package as
// config/<Name>.yaml
type ConfigFile struct {
	Name string
	Path string
}

// Config configures diagnostic collection
type Config struct {
	// ConfigFiles are the source files in merge order
	ConfigFiles []ConfigFile
	// EffectiveConfig is the merged configuration, stored as config/effective.yaml
	EffectiveConfig []byte
	OutputPath      string
	IncludeConfig   bool
	IncludeGPU      bool
	Version         string
}

// NewConfig creates a default diagnostic config writing into outputDir
func NewConfig(version, outputDir string) *Config {
	return &Config{
		OutputPath:    filepath.Join(outputDir, generateOutputName()),
		IncludeConfig: true,
		IncludeGPU:    true,
		Version:       version,
	}
}

func generateOutputName() string {
	timestamp := time.Now().UTC().Format("20060102-150405")
	return "medkit-diag-" + timestamp + ".zip"
}

// Archive paths inside the package
const (
	versionsFile  = "versions.txt"
	gpuReportFile = "gpu_report.json"
	sysInfoFile   = "system_info.json"
	manifestFile  = "diag_manifest.json"

	configDir           = "config/"
	effectiveConfigFile = configDir + "effective.yaml"
)

func configSourceFile(name string) string {
	return configDir + name + ".yaml"
}

// envKeys are the environment variables that steer accelerator selection
// and library loading.
var envKeys = []string{
	deviceconfig.VisibleDevicesEnv,
	"CUDA_DEVICE_ORDER",
	"NVIDIA_VISIBLE_DEVICES",
	"NVIDIA_DRIVER_CAPABILITIES",
	"LD_LIBRARY_PATH",
	"LIBTORCH",
	"PJRT_PLUGIN_LIBRARY_PATH",
}
