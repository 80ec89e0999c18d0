package commands

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"medkit/internal/diag"
)

// NewDiagCmd returns the diag command.
func NewDiagCmd(arg *RootArgs) *cobra.Command {
	args := NewDiagArgs(arg)

	cmd := &cobra.Command{
		Use:   "diag",
		Short: "Create a diagnostic package",
		Long: `Bundles the version report, the GPU report, system and environment details,
the effective configuration, and every file it was merged from (secrets
redacted) into a ZIP with a checksummed manifest.`,
		Args: cobra.NoArgs,
		RunE: func(cc *cobra.Command, _ []string) error {
			outputDir := args.GetOutput()
			if outputDir == "" {
				outputDir = args.Config().Diag.OutputDir
			}

			config := newDiagConfig(arg, outputDir)
			config.IncludeConfig = !args.GetNoConfig()
			config.IncludeGPU = !args.GetNoGPU()

			cc.Println("Creating diagnostic package...")
			cc.Printf("  Version: %s\n", config.Version)
			cc.Printf("  Config: %v\n", config.IncludeConfig)
			cc.Printf("  GPU: %v\n", config.IncludeGPU)
			cc.Println()

			packager := diag.NewPackager(config, newReporter(arg), newDetector(arg), arg.Logger())
			zipPath, err := packager.CreatePackage(cc.Context())
			if err != nil {
				return fmt.Errorf("failed to create diagnostic package: %w", err)
			}

			cc.Println("Diagnostic package created successfully")
			cc.Printf("  Path: %s\n", zipPath)
			if info, err := os.Stat(zipPath); err == nil {
				cc.Printf("  Size: %s\n", formatBytes(info.Size()))
			}
			cc.Println()
			cc.Println("The package contains:")
			cc.Println("  • Version report (versions.txt)")
			if config.IncludeGPU {
				cc.Println("  • GPU detection report")
			}
			cc.Println("  • System information and accelerator environment")
			if config.IncludeConfig {
				cc.Printf("  • Effective configuration and %d source file(s) (secrets redacted)\n", len(config.ConfigFiles))
			}
			cc.Println("  • Manifest with file checksums (diag_manifest.json)")

			return nil
		},
	}

	cmd.Flags().StringVarP(args.output, "output", "o", "", "Directory for the package (default diag.output_dir from the config)")
	must(cmd.MarkFlagDirname("output"))
	cmd.Flags().BoolVar(args.noConfig, "no-config", false, "Leave the configuration file out of the package")
	cmd.Flags().BoolVar(args.noGPU, "no-gpu", false, "Skip NVML detection")

	return cmd
}

// DiagArgs holds the arguments for the diag command.
type DiagArgs struct {
	output   *string
	noConfig *bool
	noGPU    *bool
	*RootArgs
}

// NewDiagArgs creates a new [DiagArgs].
func NewDiagArgs(args *RootArgs) *DiagArgs {
	return &DiagArgs{
		output:   new(string),
		noConfig: new(bool),
		noGPU:    new(bool),
		RootArgs: args,
	}
}

func (a *DiagArgs) GetOutput() string {
	return *a.output
}

func (a *DiagArgs) GetNoConfig() bool {
	return *a.noConfig
}

func (a *DiagArgs) GetNoGPU() bool {
	return *a.noGPU
}

func formatBytes(bytes int64) string {
	const unit = 1024
	if bytes < unit {
		return fmt.Sprintf("%d B", bytes)
	}
	div, exp := int64(unit), 0
	for n := bytes / unit; n >= unit; n /= unit {
		div *= unit
		exp++
	}
	return fmt.Sprintf("%.1f %ciB", float64(bytes)/float64(div), "KMGTPE"[exp])
}
