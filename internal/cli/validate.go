package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newValidateCmd(c *context) *cobra.Command {
	return &cobra.Command{
		Use:   "validate",
		Short: "Check the manifest against the schema and semantic rules",
		RunE: func(cmd *cobra.Command, args []string) error {
			pf, err := c.loadProcfile()
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s: %d entries OK\n", *c.procfilePath, len(pf.Entries))
			return nil
		},
	}
}
