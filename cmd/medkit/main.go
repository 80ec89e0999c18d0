package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"medkit/cmd/medkit/commands"
)

const (
	cmdName = "medkit"

	shortDesc = "Device configuration and diagnostics for medkit."
	longDesc  = `medkit reports the versions of the Go runtime and the numeric, tensor, and
training libraries linked into a build, selects which CUDA devices a process
may use, and bundles GPU and configuration details into a diagnostic package.

Running medkit without a subcommand opens the interactive viewer when stdout
is a terminal and prints the version report otherwise.
`
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)

	cmd := commands.NewRootCmd(cmdName, shortDesc, longDesc)
	err := cmd.ExecuteContext(ctx)
	stop()

	if err != nil {
		var exitErr *commands.ExitCodeError
		if errors.As(err, &exitErr) {
			os.Exit(exitErr.Code)
		}

		fmt.Fprintln(os.Stderr, "Error: "+strings.TrimLeft(err.Error(), "\n"))
		os.Exit(1)
	}
}
