package commands

import (
	"github.com/spf13/cobra"

	"medkit/internal/build"
)

// NewVersionCmd returns the version command.
func NewVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Show version of the medkit CLI",
		Args:  cobra.NoArgs,
		Run: func(cc *cobra.Command, _ []string) {
			cc.Println(build.Info())
		},
	}
}
