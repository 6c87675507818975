package cli

import (
	stdcontext "context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/Paintersrp/subproc/internal/cliutil"
	"github.com/Paintersrp/subproc/internal/config"
)

func NewRootCmd() *cobra.Command {
	root, _ := newRootCommand()
	return root
}

func newRootCommand() (*cobra.Command, *context) {
	var procfilePath string
	var verbose bool

	root := &cobra.Command{
		Use:   "subproc",
		Short: "Spawn and supervise child processes",
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			level := slog.LevelInfo
			if verbose {
				level = slog.LevelDebug
			}
			slog.SetDefault(cliutil.NewLogger(cmd.ErrOrStderr(), level))
		},
	}

	root.PersistentFlags().
		StringVarP(&procfilePath, "file", "f", "procfile.yaml", "Path to process manifest")
	root.PersistentFlags().
		BoolVarP(&verbose, "verbose", "v", false, "Enable debug logging")

	ctx := &context{procfilePath: &procfilePath}
	root.AddCommand(newUpCmd(ctx))
	root.AddCommand(newRunCmd())
	root.AddCommand(newValidateCmd(ctx))
	root.AddCommand(newVersionCmd())

	root.SilenceUsage = true
	root.SilenceErrors = true

	return root, ctx
}

// Execute runs the CLI entrypoint.
func Execute() {
	ctx, stop := signal.NotifyContext(stdcontext.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	root := NewRootCmd()
	root.SetContext(ctx)

	if err := root.ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

type context struct {
	procfilePath *string
}

func (c *context) loadProcfile() (*config.Procfile, error) {
	return cliutil.LoadProcfile(*c.procfilePath)
}
