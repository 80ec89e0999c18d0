package commands

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"
)

const printConfigExample = `  # Print the version report
  medkit print-config

  # Print the report as JSON
  medkit print-config --json`

// NewPrintConfigCmd returns the print-config command.
func NewPrintConfigCmd(arg *RootArgs) *cobra.Command {
	asJSON := new(bool)

	cmd := &cobra.Command{
		Use:     "print-config",
		Short:   "Print toolkit, runtime, and library versions",
		Example: printConfigExample,
		Args:    cobra.NoArgs,
		RunE: func(cc *cobra.Command, _ []string) error {
			reporter := newReporter(arg)

			if !*asJSON {
				return reporter.PrintConfig(cc.OutOrStdout())
			}

			data, err := json.MarshalIndent(reporter.Collect(), "", "  ")
			if err != nil {
				return fmt.Errorf("failed to marshal report: %w", err)
			}
			cc.Println(string(data))

			return nil
		},
	}

	cmd.Flags().BoolVar(asJSON, "json", false, "Print the report as a JSON array of label/version records")

	return cmd
}
