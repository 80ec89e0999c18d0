package tui

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"medkit/internal/deviceconfig"
	"medkit/internal/gpu"
)

func TestModel_Navigate(t *testing.T) {
	m := newTestModel(t, testSources())
	last := len(DefaultMenuItems()) - 1

	m.selection = 2
	assert.Equal(t, 1, m.navigateUp().selection)
	assert.Equal(t, 3, m.navigateDown().selection)

	m.selection = 0
	assert.Equal(t, last, m.navigateUp().selection, "wrap to bottom")

	m.selection = last
	assert.Equal(t, 0, m.navigateDown().selection, "wrap to top")
}

func TestModel_SelectMenuItem(t *testing.T) {
	m := newTestModel(t, testSources())
	m.lastError = "stale"
	m.selection = 1

	m = m.selectMenuItem()

	assert.Equal(t, ScreenGPU, m.currentScreen)
	assert.Empty(t, m.lastError)
}

func TestModel_SelectMenuByKey(t *testing.T) {
	tests := []struct {
		key            string
		expectedScreen Screen
	}{
		{"1", ScreenVersions},
		{"2", ScreenGPU},
		{"3", ScreenDiagnostics},
		{"?", ScreenHelp},
	}

	for _, tt := range tests {
		t.Run(tt.key, func(t *testing.T) {
			m := newTestModel(t, testSources()).selectMenuByKey(tt.key)
			assert.Equal(t, tt.expectedScreen, m.currentScreen)
		})
	}
}

func TestRenderMenu(t *testing.T) {
	m := newTestModel(t, testSources())
	m.lastError = "something broke"

	view := m.View()
	for _, item := range DefaultMenuItems() {
		assert.Contains(t, view, item.Label)
	}
	assert.Contains(t, view, "something broke")
}

func TestRenderVersionsScreen(t *testing.T) {
	m := newTestModel(t, testSources())
	m.currentScreen = ScreenVersions

	view := m.View()
	for _, rec := range testValues() {
		assert.Contains(t, view, rec.Label+":")
		assert.Contains(t, view, rec.Version)
	}
	assert.Contains(t, view, "Tensor API level:")
	assert.Contains(t, view, "0.9")
}

func TestRenderVersionsScreen_Empty(t *testing.T) {
	m := newTestModel(t, Sources{})
	m.currentScreen = ScreenVersions

	assert.Contains(t, m.View(), "Version report unavailable")
}

func TestRenderGPUScreen(t *testing.T) {
	m := newTestModel(t, testSources())
	m.currentScreen = ScreenGPU

	view := m.View()
	assert.Contains(t, view, deviceconfig.VisibleDevicesEnv+":")
	assert.Contains(t, view, "535.104.05")
	assert.Contains(t, view, "12.2")
	assert.Contains(t, view, "◦ [0] GPU Zero")
	assert.Contains(t, view, "• [1] GPU One")
}

func TestRenderGPUScreen_Unset(t *testing.T) {
	sources := testSources()
	sources.GPU = func() gpu.GPUReport {
		r := testReport()
		r.ResolveVisibility("", false)
		return r
	}
	m := newTestModel(t, sources)
	m.currentScreen = ScreenGPU

	view := m.View()
	assert.Contains(t, view, "unset (all devices visible)")
	assert.Contains(t, view, "• [0] GPU Zero")
}

func TestRenderGPUScreen_Error(t *testing.T) {
	m := newTestModel(t, Sources{Versions: testValues})
	m.currentScreen = ScreenGPU

	assert.Contains(t, m.View(), "GPU scan disabled")
}

func TestRenderGPUScreen_Unresolved(t *testing.T) {
	sources := testSources()
	sources.GPU = func() gpu.GPUReport {
		r := testReport()
		r.ResolveVisibility("GPU-1111,5,0", true)
		return r
	}
	m := newTestModel(t, sources)
	m.currentScreen = ScreenGPU

	view := m.View()
	assert.Contains(t, view, "• [1] GPU One")
	assert.Contains(t, view, "◦ [0] GPU Zero")
	assert.Contains(t, view, `Ignored from "5" on`)
}

func TestRenderHelpScreen(t *testing.T) {
	m := newTestModel(t, testSources())
	m.currentScreen = ScreenHelp

	view := m.View()
	assert.Contains(t, view, "Keyboard Shortcuts")
	assert.Contains(t, view, "Create diagnostic package")
}

func TestRenderDiagnosticsScreen(t *testing.T) {
	m := newTestModel(t, testSources())
	m.currentScreen = ScreenDiagnostics
	m.diagResult = "Package written to /tmp/x.zip"

	assert.Contains(t, m.View(), "Package written to /tmp/x.zip")
}
