package tui

import (
	"context"

	"medkit/internal/deviceconfig"
	"medkit/internal/gpu"
)

// Screen represents different TUI screens
type Screen string

const (
	// ScreenMenu is the main menu screen
	ScreenMenu Screen = "menu"
	// ScreenVersions shows the version report
	ScreenVersions Screen = "versions"
	// ScreenGPU shows detected devices and CUDA visibility
	ScreenGPU Screen = "gpu"
	// ScreenDiagnostics creates a diagnostic package
	ScreenDiagnostics Screen = "diagnostics"
	// ScreenHelp shows help overlay
	ScreenHelp Screen = "help"
)

func (s Screen) valid() bool {
	switch s {
	case ScreenMenu, ScreenVersions, ScreenGPU, ScreenDiagnostics, ScreenHelp:
		return true
	}
	return false
}

// MenuItem represents a menu item
type MenuItem struct {
	Key         string // Number key or letter
	Label       string // Display label
	Description string // Short description
	Screen      Screen // Target screen
}

// Sources supplies the data shown by the TUI. Nil fields disable the
// corresponding screen content.
type Sources struct {
	Versions    func() deviceconfig.Values
	TensorTuple func() (deviceconfig.VersionTuple, error)
	GPU         func() gpu.GPUReport
	Diag        func(ctx context.Context) (string, error)
}

// DefaultMenuItems returns the default main menu items
func DefaultMenuItems() []MenuItem {
	return []MenuItem{
		{Key: "1", Label: "Versions", Description: "Toolkit and library versions", Screen: ScreenVersions},
		{Key: "2", Label: "GPUs", Description: "Detected devices and CUDA visibility", Screen: ScreenGPU},
		{Key: "3", Label: "Diagnostics", Description: "Create a diagnostic package", Screen: ScreenDiagnostics},
		{Key: "?", Label: "Help", Description: "Show help", Screen: ScreenHelp},
	}
}
