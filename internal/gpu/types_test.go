package gpu

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"medkit/internal/logging"
)

func sampleReport() GPUReport {
	return GPUReport{
		DriverVersion: "535.104.05",
		CUDAVersion:   12020,
		NVMLOk:        true,
		GPUs: []GPUInfo{
			{Index: 0, Name: "GPU zero", UUID: "GPU-0000", MemoryMB: 8192},
			{Index: 1, Name: "GPU one", UUID: "GPU-1111", MemoryMB: 8192},
			{Index: 2, Name: "GPU two", MemoryMB: 8192},
		},
	}
}

func TestGPUReport_CUDAVersionString(t *testing.T) {
	assert.Equal(t, "12.2", GPUReport{CUDAVersion: 12020}.CUDAVersionString())
	assert.Equal(t, "11.8", GPUReport{CUDAVersion: 11080}.CUDAVersionString())
	assert.Equal(t, "", GPUReport{}.CUDAVersionString())
}

func TestGPUReport_Indices(t *testing.T) {
	assert.Equal(t, []int{0, 1, 2}, sampleReport().Indices())
	assert.Empty(t, GPUReport{}.Indices())
}

func TestGPUReport_UUIDsFor(t *testing.T) {
	uuids, err := sampleReport().UUIDsFor([]int{1, 0})
	require.NoError(t, err)
	assert.Equal(t, []string{"GPU-1111", "GPU-0000"}, uuids)

	uuids, err = sampleReport().UUIDsFor(nil)
	require.NoError(t, err)
	assert.Empty(t, uuids)
}

func TestGPUReport_UUIDsFor_Errors(t *testing.T) {
	_, err := sampleReport().UUIDsFor([]int{5})
	assert.ErrorContains(t, err, "device 5 not detected")

	_, err = sampleReport().UUIDsFor([]int{2})
	assert.ErrorContains(t, err, "no UUID")
}

func TestDetector_SaveReport(t *testing.T) {
	logger := logging.NewLoggerWithWriter(logging.LevelInfo, logging.FormatJSON, &bytes.Buffer{})
	path := filepath.Join(t.TempDir(), "gpu_report.json")

	require.NoError(t, NewDetector(logger).SaveReport(sampleReport(), path))

	data, err := os.ReadFile(path)
	require.NoError(t, err)

	var decoded GPUReport
	require.NoError(t, json.Unmarshal(data, &decoded))
	assert.Equal(t, sampleReport(), decoded)
}

func TestDetector_SaveReport_MissingDir(t *testing.T) {
	logger := logging.NewLoggerWithWriter(logging.LevelInfo, logging.FormatJSON, &bytes.Buffer{})
	path := filepath.Join(t.TempDir(), "missing", "gpu_report.json")

	assert.Error(t, NewDetector(logger).SaveReport(sampleReport(), path))
}
