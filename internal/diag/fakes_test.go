package diag

import (
	"bytes"
	"sync/atomic"

	"medkit/internal/deviceconfig"
	"medkit/internal/gpu"
	"medkit/internal/logging"
)

type fakeVersions struct {
	values deviceconfig.Values
}

func (f fakeVersions) Collect() deviceconfig.Values {
	return f.values
}

type fakeGPUs struct {
	report gpu.GPUReport
	calls  atomic.Int32
}

func (f *fakeGPUs) DetectGPUs() gpu.GPUReport {
	f.calls.Add(1)
	return f.report
}

func sampleValues() deviceconfig.Values {
	return deviceconfig.Values{
		{Label: deviceconfig.ToolkitLabel, Version: "0.9.0-test"},
		{Label: deviceconfig.RuntimeLabel, Version: "go1.25.4 linux/amd64 gc"},
		{Label: "Gonum version", Version: "v0.15.1"},
		{Label: "Gotch version", Version: "v0.9.2"},
		{Label: "GoMLX version", Version: deviceconfig.NotInstalled},
	}
}

func sampleGPUReport() gpu.GPUReport {
	return gpu.GPUReport{
		DriverVersion: "535.104.05",
		CUDAVersion:   12020,
		NVMLOk:        true,
		GPUs:          []gpu.GPUInfo{{Index: 0, Name: "Test GPU", UUID: "GPU-test", MemoryMB: 8192}},
	}
}

func quietLogger() *logging.Logger {
	return logging.NewLoggerWithWriter(logging.LevelDebug, logging.FormatJSON, &bytes.Buffer{})
}
