package commands

import (
	"fmt"
	"io"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"

	"medkit/internal/deviceconfig"
	"medkit/internal/gpu"
	"medkit/internal/gpulock"
)

const defaultGPUReportPath = "gpu_report.json"

var (
	sectionStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#ffd700"))
	okStyle      = lipgloss.NewStyle().Foreground(lipgloss.Color("#87d7af"))
	failStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("#ff5f5f"))
)

// NewGPUCheckCmd returns the gpu-check command.
func NewGPUCheckCmd(arg *RootArgs) *cobra.Command {
	save := new(string)

	cmd := &cobra.Command{
		Use:   "gpu-check",
		Short: "Detect NVIDIA GPUs through NVML",
		Long: `Queries NVML for the driver version, CUDA version, and every installed GPU,
and shows which of them CUDA_VISIBLE_DEVICES currently exposes.

NVML support requires building with -tags cuda.`,
		Args: cobra.NoArgs,
		RunE: func(cc *cobra.Command, _ []string) error {
			detector := newDetector(arg)
			report := detector.DetectGPUs()

			writeGPUReport(cc.OutOrStdout(), report)

			manager := newLockManager(arg)
			locks, err := manager.Status()
			if err != nil {
				arg.Logger().Warn("gpu.lock.status_failed", "Failed to read device locks", map[string]interface{}{
					"error": err.Error(),
				})
			}
			writeLocks(cc.OutOrStdout(), manager, locks)

			if *save != "" {
				if err := detector.SaveReport(report, *save); err != nil {
					return fmt.Errorf("failed to save report: %w", err)
				}
				cc.Printf("Detailed report saved to: %s\n", *save)
			}

			return nil
		},
	}

	cmd.Flags().StringVar(save, "save", "", "Write the JSON report to this path (default "+defaultGPUReportPath+" when given without a value)")
	cmd.Flags().Lookup("save").NoOptDefVal = defaultGPUReportPath
	must(cmd.MarkFlagFilename("save", "json"))

	return cmd
}

func writeGPUReport(w io.Writer, report gpu.GPUReport) {
	fmt.Fprintln(w, sectionStyle.Render("=== GPU Detection Report ==="))

	if !report.NVMLOk {
		fmt.Fprintln(w, failStyle.Render("NVML Status: FAILED"))
		fmt.Fprintf(w, "  Error: %s\n", report.ErrorMessage)
		fmt.Fprintln(w)
		fmt.Fprintln(w, "Hint: install the NVIDIA driver and build medkit with -tags cuda")
	} else {
		fmt.Fprintln(w, okStyle.Render("NVML Status: OK"))
		fmt.Fprintf(w, "  Driver Version: %s\n", report.DriverVersion)
		fmt.Fprintf(w, "  CUDA Version: %s\n", report.CUDAVersionString())
		fmt.Fprintf(w, "  GPU Count: %d\n", len(report.GPUs))

		for _, info := range report.GPUs {
			fmt.Fprintln(w)
			fmt.Fprintf(w, "  GPU %d:\n", info.Index)
			fmt.Fprintf(w, "    Name: %s\n", info.Name)
			fmt.Fprintf(w, "    UUID: %s\n", info.UUID)
			if info.PCIBusID != "" {
				fmt.Fprintf(w, "    PCI Bus ID: %s\n", info.PCIBusID)
			}
			if info.ComputeCapability != "" {
				fmt.Fprintf(w, "    Compute Capability: %s\n", info.ComputeCapability)
			}
			fmt.Fprintf(w, "    Memory: %d MB\n", info.MemoryMB)
			if info.Visible {
				fmt.Fprintf(w, "    Visible: yes (CUDA device %d)\n", info.Ordinal)
			} else {
				fmt.Fprintln(w, "    Visible: no")
			}
		}
	}

	fmt.Fprintln(w)
	fmt.Fprintln(w, sectionStyle.Render("=== Device Visibility ==="))
	fmt.Fprintf(w, "  %s: %s\n", deviceconfig.VisibleDevicesEnv, report.Visibility)
	if report.NVMLOk {
		fmt.Fprintf(w, "  Exposed: %d of %d devices\n", len(report.VisibleGPUs()), len(report.GPUs))
		if unresolved := report.Visibility.Unresolved; len(unresolved) > 0 {
			fmt.Fprintln(w, failStyle.Render(fmt.Sprintf("  Ignored from %q on: no matching device", unresolved[0])))
		}
	}
	fmt.Fprintln(w)
}

func writeLocks(w io.Writer, manager *gpulock.Manager, locks []gpulock.LockInfo) {
	fmt.Fprintln(w, sectionStyle.Render("=== Device Locks ==="))
	if len(locks) == 0 {
		fmt.Fprintln(w, "  No devices locked")
	}
	for _, l := range locks {
		state := ""
		if manager.IsStale(l) {
			state = failStyle.Render(" (stale)")
		}
		fmt.Fprintf(w, "  GPU %d: %s since %s%s\n",
			l.Device, l.HolderString(), l.SinceTS.Local().Format(time.RFC3339), state)
	}
	fmt.Fprintln(w)
}

// NewGPUUnlockCmd returns the gpu-unlock command.
func NewGPUUnlockCmd(arg *RootArgs) *cobra.Command {
	return &cobra.Command{
		Use:   "gpu-unlock [devices]",
		Short: "Forcibly remove device locks",
		Long: `Removes the locks taken by "medkit exec --lock" for the given comma-separated
device indices, or every lock when none are given. Use it to recover after a
crashed command left its locks behind.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cc *cobra.Command, pArgs []string) error {
			var devices []int
			if len(pArgs) > 0 {
				parsed, err := deviceconfig.ParseDeviceList(pArgs[0])
				if err != nil {
					return fmt.Errorf("%w: %w", ErrInvalidArgument, err)
				}
				devices = parsed
			}

			removed, err := newLockManager(arg).ForceUnlock(devices...)
			if err != nil {
				return fmt.Errorf("failed to unlock devices: %w", err)
			}

			if len(removed) == 0 {
				cc.Println("No device locks to remove")
				return nil
			}
			for _, l := range removed {
				cc.Printf("Unlocked GPU %d (was held by %s)\n", l.Device, l.HolderString())
			}

			return nil
		},
	}
}
