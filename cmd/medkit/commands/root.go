package commands

import (
	"fmt"
	"os"

	"github.com/mattn/go-isatty"
	"github.com/spf13/cobra"

	"medkit/internal/build"
	"medkit/internal/config"
	"medkit/internal/configdir"
	"medkit/internal/deviceconfig"
	"medkit/internal/diag"
	"medkit/internal/gpu"
	"medkit/internal/gpulock"
	"medkit/internal/logging"
)

func NewRootCmd(name, shortDesc, longDesc string) *cobra.Command {
	args := NewRootArgs()

	cmd := &cobra.Command{
		Use:           name,
		Short:         shortDesc,
		Long:          longDesc,
		SilenceUsage:  true,
		SilenceErrors: true,
		Version:       build.Short(),
		Args:          cobra.NoArgs,
		RunE: func(cc *cobra.Command, _ []string) error {
			if isTerminal(cc) {
				return runTUI(cc, args)
			}
			return newReporter(args).PrintConfig(cc.OutOrStdout())
		},
	}

	cmd.PersistentFlags().StringVar(args.logLevel, "log-level", "", "Set the log level (debug, info, warn, error); overrides the config file")
	cmd.PersistentFlags().StringVar(args.logFormat, "log-format", "", "Set the log format (text, json); overrides the config file")
	cmd.PersistentFlags().StringVar(args.configPath, "config", "", "Read configuration from this file instead of the system and user files")
	must(cmd.MarkPersistentFlagFilename("config", "yaml", "yml"))

	cmd.PersistentPreRunE = func(cc *cobra.Command, _ []string) error {
		cfg, err := loadConfig(args.GetConfigPath())
		if err != nil {
			// config test reports the error itself
			if cc.Annotations[annotationSkipConfig] != "true" {
				return fmt.Errorf("%w: %w", ErrConfigLoad, err)
			}
			cfg = config.DefaultConfig()
		}
		args.cfg = cfg

		level := cfg.Logging.Level
		if args.GetLogLevel() != "" {
			level = args.GetLogLevel()
		}
		format := cfg.Logging.Format
		if args.GetLogFormat() != "" {
			format = args.GetLogFormat()
		}

		args.logger = logging.NewLoggerWithWriter(logging.ParseLevel(level), logging.ParseFormat(format), cc.ErrOrStderr())
		args.logger.Debug("cli.ready", "Ready to go", map[string]interface{}{
			"command": cc.CommandPath(),
		})

		return nil
	}

	cmd.AddCommand(NewPrintConfigCmd(args))
	cmd.AddCommand(NewTensorVersionCmd(args))
	cmd.AddCommand(NewExecCmd(args))
	cmd.AddCommand(NewGPUCheckCmd(args))
	cmd.AddCommand(NewGPUUnlockCmd(args))
	cmd.AddCommand(NewDiagCmd(args))
	cmd.AddCommand(NewConfigCmd(args))
	cmd.AddCommand(NewTUICmd(args))
	cmd.AddCommand(NewVersionCmd())

	return cmd
}

const annotationSkipConfig = "medkit/skip-config-errors"

func loadConfig(path string) (config.Config, error) {
	if path != "" {
		return config.LoadFrom(path)
	}
	return config.Load()
}

// newDiagConfig prepares a diagnostic package for the loaded configuration:
// its merged form plus each file it was merged from.
func newDiagConfig(args *RootArgs, outputDir string) *diag.Config {
	pkg := diag.NewConfig(build.Short(), outputDir)

	for _, src := range config.Sources(args.GetConfigPath()) {
		pkg.ConfigFiles = append(pkg.ConfigFiles, diag.ConfigFile{Name: src.Name, Path: src.Path})
	}

	effective, err := args.Config().YAML()
	if err != nil {
		args.Logger().Warn("diag.config.render_failed", "Failed to render effective config", map[string]interface{}{
			"error": err.Error(),
		})
		return pkg
	}
	pkg.EffectiveConfig = effective

	return pkg
}

func newReporter(args *RootArgs) *deviceconfig.Reporter {
	deps := args.Config().Dependencies
	return deviceconfig.NewReporter(deviceconfig.Dependencies{
		Numeric:  deviceconfig.Dependency{Label: deps.Numeric.Label, Module: deps.Numeric.Module},
		Tensor:   deviceconfig.Dependency{Label: deps.Tensor.Label, Module: deps.Tensor.Module},
		Training: deviceconfig.Dependency{Label: deps.Training.Label, Module: deps.Training.Module},
	}, args.Logger())
}

func newDetector(args *RootArgs) *gpu.Detector {
	return gpu.NewDetector(args.Logger())
}

func newLockManager(args *RootArgs) *gpulock.Manager {
	return gpulock.NewManager(configdir.StateDir(), args.Logger())
}

func isTerminal(cc *cobra.Command) bool {
	f, ok := cc.OutOrStdout().(*os.File)
	if !ok {
		return false
	}
	return isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
}
