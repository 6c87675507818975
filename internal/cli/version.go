package cli

import (
	"fmt"
	"runtime/debug"

	"github.com/spf13/cobra"
)

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print build information",
		Run: func(cmd *cobra.Command, args []string) {
			version := "devel"
			revision := ""
			if info, ok := debug.ReadBuildInfo(); ok {
				if info.Main.Version != "" && info.Main.Version != "(devel)" {
					version = info.Main.Version
				}
				for _, s := range info.Settings {
					if s.Key == "vcs.revision" {
						revision = s.Value
					}
				}
			}
			if revision != "" {
				fmt.Fprintf(cmd.OutOrStdout(), "subproc %s (%s)\n", version, revision)
				return
			}
			fmt.Fprintf(cmd.OutOrStdout(), "subproc %s\n", version)
		},
	}
}
