package cli

import (
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/Paintersrp/subproc/subprocess"
)

func newRunCmd() *cobra.Command {
	var (
		cwd           string
		envSet        []string
		envDel        []string
		suspended     bool
		detached      bool
		searchPath    bool
		consoleMode   string
		hideWindow    bool
		combineStderr bool
	)

	cmd := &cobra.Command{
		Use:   "run -- <command> [args...]",
		Short: "Spawn a single command and mirror its exit status",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			console, err := parseConsole(consoleMode)
			if err != nil {
				return err
			}

			env := subprocess.NewEnvBuilder()
			for _, kv := range envSet {
				key, value, ok := strings.Cut(kv, "=")
				if !ok {
					return fmt.Errorf("invalid --env %q, expected KEY=VALUE", kv)
				}
				env.Set(key, value)
			}
			for _, key := range envDel {
				env.Del(key)
			}

			opts := subprocess.Options{
				Args:       args,
				Dir:        cwd,
				Env:        env,
				Suspended:  suspended,
				Detached:   detached,
				SearchPath: searchPath,
				Console:    console,
				HideWindow: hideWindow,
				Logger:     slog.Default(),
			}
			if combineStderr {
				opts.Stderr = subprocess.ToStdout()
			}

			proc, err := subprocess.Spawn(opts)
			if err != nil {
				return err
			}

			slog.Debug("spawned", "pid", proc.ID())

			if detached {
				fmt.Fprintln(cmd.OutOrStdout(), proc.ID())
				proc.Detach()
				return nil
			}

			if suspended {
				// Handles are wired before the first instruction runs; let it go.
				if !proc.Resume() {
					slog.Warn("child could not be resumed", "pid", proc.ID())
				}
			}

			status, err := proc.Wait()
			proc.Close()
			if err != nil {
				return err
			}
			if !status.Success() {
				code := status.Code
				if status.Signaled {
					code = 128 + int(status.Signal)
				}
				os.Exit(code)
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&cwd, "cwd", "", "Working directory for the child")
	cmd.Flags().StringArrayVar(&envSet, "env", nil, "Extra environment entries (KEY=VALUE, repeatable)")
	cmd.Flags().StringArrayVar(&envDel, "env-del", nil, "Environment keys to remove (repeatable)")
	cmd.Flags().BoolVar(&suspended, "suspended", false, "Create suspended, resume after handles are wired")
	cmd.Flags().BoolVar(&detached, "detached", false, "Detach the child and print its pid")
	cmd.Flags().BoolVar(&searchPath, "search-path", true, "Resolve the command via PATH")
	cmd.Flags().StringVar(&consoleMode, "console", "inherit", "Console mode: inherit, new, disable, detached or hide")
	cmd.Flags().BoolVar(&hideWindow, "hide-window", false, "Hide the child window (Windows)")
	cmd.Flags().BoolVar(&combineStderr, "combine-stderr", false, "Redirect child stderr into its stdout")

	return cmd
}

func parseConsole(mode string) (subprocess.Console, error) {
	switch mode {
	case "", "inherit":
		return subprocess.ConsoleInherit, nil
	case "new":
		return subprocess.ConsoleNew, nil
	case "disable":
		return subprocess.ConsoleDisable, nil
	case "detached":
		return subprocess.ConsoleDetached, nil
	case "hide":
		return subprocess.ConsoleHide, nil
	default:
		return 0, fmt.Errorf("unknown console mode %q", mode)
	}
}
