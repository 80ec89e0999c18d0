package commands

import (
	"github.com/spf13/cobra"
)

// NewTensorVersionCmd returns the tensor-version command.
func NewTensorVersionCmd(arg *RootArgs) *cobra.Command {
	return &cobra.Command{
		Use:   "tensor-version",
		Short: "Print MAJOR.MINOR of the tensor library",
		Long: `Resolves the configured tensor library module in the build and prints the
first two components of its version. Fails when the module is not linked into
the build or its version is not numeric.`,
		Args: cobra.NoArgs,
		RunE: func(cc *cobra.Command, _ []string) error {
			tuple, err := newReporter(arg).TensorVersionTuple()
			if err != nil {
				return err
			}
			cc.Println(tuple.String())

			return nil
		},
	}
}
