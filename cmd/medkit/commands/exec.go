package commands

import (
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"

	"github.com/spf13/cobra"

	"medkit/internal/deviceconfig"
	"medkit/internal/gpulock"
)

const (
	execDesc = `Sets CUDA_VISIBLE_DEVICES and runs a command with it.

The variable only takes effect when it is set before the CUDA runtime
initializes, so the command runs as a child process inheriting the updated
environment. Its exit code becomes medkit's exit code.

Without --devices, devices.visible from the configuration is used. If neither
is set the environment is passed through unchanged.
`
	execExample = `  # Train on the first and third GPU
  medkit exec --devices 0,2 -- ./train --epochs 10

  # Hide every GPU
  medkit exec --devices "" -- ./infer

  # Pin devices by UUID, immune to CUDA enumeration order
  medkit exec --devices 1 --by-uuid -- ./train

  # Reserve the devices for the lifetime of the command
  medkit exec --devices 0,1 --lock -- ./train`
)

// NewExecCmd returns the exec command.
func NewExecCmd(arg *RootArgs) *cobra.Command {
	args := NewExecArgs(arg)

	cmd := &cobra.Command{
		Use:     "exec [flags] -- command [args...]",
		Short:   "Run a command with CUDA_VISIBLE_DEVICES set",
		Long:    execDesc,
		Example: execExample,
		Args:    cobra.MinimumNArgs(1),
		RunE: func(cc *cobra.Command, pArgs []string) error {
			devices, set, err := args.resolveDevices(cc)
			if err != nil {
				return err
			}

			if args.GetLock() {
				if !set {
					return fmt.Errorf("%w: --lock needs --devices or devices.visible", ErrInvalidArgument)
				}
				release, err := lockDevices(arg, pArgs[0], devices)
				if err != nil {
					return err
				}
				defer release()
			}

			if set {
				if err := applyDevices(args, devices); err != nil {
					return err
				}
			}

			return runChild(cc, arg, pArgs)
		},
	}

	cmd.Flags().StringVarP(args.devices, "devices", "d", "", "Comma-separated device indices, e.g. 0,2")
	cmd.Flags().BoolVar(args.byUUID, "by-uuid", false, "Translate indices to GPU UUIDs using NVML before exporting them")
	cmd.Flags().BoolVar(args.lock, "lock", false, "Hold an exclusive lock on the devices while the command runs")
	cmd.Flags().SetInterspersed(false)

	return cmd
}

// ExecArgs holds the arguments for the exec command.
type ExecArgs struct {
	devices *string
	byUUID  *bool
	lock    *bool
	*RootArgs
}

// NewExecArgs creates a new [ExecArgs].
func NewExecArgs(args *RootArgs) *ExecArgs {
	return &ExecArgs{
		devices:  new(string),
		byUUID:   new(bool),
		lock:     new(bool),
		RootArgs: args,
	}
}

func (a *ExecArgs) GetDevices() string {
	return *a.devices
}

func (a *ExecArgs) GetByUUID() bool {
	return *a.byUUID
}

func (a *ExecArgs) GetLock() bool {
	return *a.lock
}

// resolveDevices picks the device list from the flag, falling back to the
// configuration. set is false when neither names a list.
func (a *ExecArgs) resolveDevices(cc *cobra.Command) ([]int, bool, error) {
	if cc.Flags().Changed("devices") {
		devices, err := deviceconfig.ParseDeviceList(a.GetDevices())
		if err != nil {
			return nil, false, fmt.Errorf("%w: --devices: %w", ErrInvalidArgument, err)
		}
		return devices, true, nil
	}

	if visible := a.Config().Devices.Visible; visible != nil {
		return visible, true, nil
	}

	return nil, false, nil
}

func applyDevices(args *ExecArgs, devices []int) error {
	if !args.GetByUUID() {
		if err := deviceconfig.SetVisibleDevices(devices...); err != nil {
			return fmt.Errorf("failed to set visible devices: %w", err)
		}
		args.Logger().Info("exec.devices.set", "Visible devices set", map[string]interface{}{
			"devices": devices,
		})
		return nil
	}

	report := newDetector(args.RootArgs).DetectGPUs()
	uuids, err := report.UUIDsFor(devices)
	if err != nil {
		return fmt.Errorf("failed to map devices to UUIDs: %w", err)
	}
	if err := deviceconfig.SetVisibleDeviceIDs(uuids...); err != nil {
		return fmt.Errorf("failed to set visible devices: %w", err)
	}

	args.Logger().Info("exec.devices.set", "Visible devices set by UUID", map[string]interface{}{
		"devices": devices,
		"uuids":   uuids,
	})

	return nil
}

// lockDevices reserves devices for this process and returns the release func
func lockDevices(arg *RootArgs, holder string, devices []int) (func(), error) {
	manager := newLockManager(arg)
	owner := gpulock.Owner{Holder: filepath.Base(holder), PID: os.Getpid()}

	if err := manager.Acquire(owner, devices...); err != nil {
		return nil, fmt.Errorf("failed to lock devices: %w", err)
	}

	return func() {
		if err := manager.Release(owner, devices...); err != nil {
			arg.Logger().Warn("exec.unlock_failed", "Failed to release device locks", map[string]interface{}{
				"error": err.Error(),
			})
		}
	}, nil
}

func runChild(cc *cobra.Command, arg *RootArgs, argv []string) error {
	child := exec.CommandContext(cc.Context(), argv[0], argv[1:]...)
	child.Stdin = cc.InOrStdin()
	child.Stdout = cc.OutOrStdout()
	child.Stderr = cc.ErrOrStderr()

	arg.Logger().Debug("exec.start", "Starting child process", map[string]interface{}{
		"command": argv[0],
	})

	err := child.Run()

	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		arg.Logger().Debug("exec.exit", "Child process exited", map[string]interface{}{
			"exit_code": exitErr.ExitCode(),
		})
		code := exitErr.ExitCode()
		if code < 0 {
			// killed by a signal
			code = 1
		}
		return &ExitCodeError{Code: code}
	}
	if err != nil {
		return fmt.Errorf("failed to run %s: %w", argv[0], err)
	}

	return nil
}
