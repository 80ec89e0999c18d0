package commands

import (
	"context"
	"fmt"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"medkit/internal/build"
	"medkit/internal/configdir"
	"medkit/internal/diag"
	"medkit/internal/gpu"
	"medkit/internal/tui"
)

// NewTUICmd returns the tui command.
func NewTUICmd(arg *RootArgs) *cobra.Command {
	return &cobra.Command{
		Use:   "tui",
		Short: "Open the interactive viewer",
		Args:  cobra.NoArgs,
		RunE: func(cc *cobra.Command, _ []string) error {
			return runTUI(cc, arg)
		},
	}
}

func tuiSources(arg *RootArgs) tui.Sources {
	reporter := newReporter(arg)
	detector := newDetector(arg)

	return tui.Sources{
		Versions:    reporter.Collect,
		TensorTuple: reporter.TensorVersionTuple,
		GPU:         func() gpu.GPUReport { return detector.DetectGPUs() },
		Diag: func(ctx context.Context) (string, error) {
			pkg := newDiagConfig(arg, arg.Config().Diag.OutputDir)
			return diag.NewPackager(pkg, reporter, detector, arg.Logger()).CreatePackage(ctx)
		},
	}
}

func runTUI(cc *cobra.Command, arg *RootArgs) error {
	logger := arg.Logger()

	startTime := time.Now()
	logger.Info("app.started", "Application started", map[string]interface{}{
		"version": build.Short(),
		"ts":      startTime.UTC().Format(time.RFC3339),
	})

	model := tui.NewModel(logger, tuiSources(arg), configdir.StateDir())
	p := tea.NewProgram(model, tea.WithContext(cc.Context()))

	if _, err := p.Run(); err != nil {
		logger.Error("app.error", "Application error", map[string]interface{}{
			"error": err.Error(),
		})
		return fmt.Errorf("error running TUI: %w", err)
	}

	logger.Info("app.exited", "Application exited", map[string]interface{}{
		"ts":       time.Now().UTC().Format(time.RFC3339),
		"duration": time.Since(startTime).String(),
	})

	return nil
}
