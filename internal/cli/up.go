package cli

import (
	stdcontext "context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"

	"github.com/Paintersrp/subproc/internal/cliutil"
	"github.com/Paintersrp/subproc/internal/metrics"
	"github.com/Paintersrp/subproc/internal/supervisor"
	"github.com/Paintersrp/subproc/internal/tui"
)

func newUpCmd(c *context) *cobra.Command {
	var jsonLogs bool
	var useTUI bool
	var metricsAddr string

	cmd := &cobra.Command{
		Use:   "up",
		Short: "Start and supervise every entry in the manifest",
		RunE: func(cmd *cobra.Command, args []string) error {
			pf, err := c.loadProcfile()
			if err != nil {
				return err
			}

			ctx, cancel := stdcontext.WithCancel(cmd.Context())
			defer cancel()

			if metricsAddr != "" {
				shutdown, err := serveMetrics(metricsAddr)
				if err != nil {
					return err
				}
				defer shutdown()
			}

			mgr := supervisor.Start(ctx, pf)

			if useTUI {
				return runWithTUI(ctx, cancel, mgr)
			}

			if jsonLogs {
				enc := json.NewEncoder(cmd.OutOrStdout())
				for evt := range mgr.Events() {
					cliutil.EncodeLogEvent(enc, cmd.ErrOrStderr(), evt)
				}
			} else {
				for evt := range mgr.Events() {
					fmt.Fprintln(cmd.OutOrStdout(), cliutil.FormatEvent(evt))
				}
			}
			return mgr.Err()
		},
	}

	cmd.Flags().BoolVar(&jsonLogs, "json", false, "Emit events as JSON lines")
	cmd.Flags().BoolVar(&useTUI, "tui", false, "Render an interactive status interface")
	cmd.Flags().StringVar(&metricsAddr, "metrics-addr", "", "Serve Prometheus metrics on this address (e.g. :9090)")

	return cmd
}

func runWithTUI(ctx stdcontext.Context, cancel stdcontext.CancelFunc, mgr *supervisor.Manager) error {
	ui := tui.New()

	go func() {
		defer ui.CloseEvents()
		sink := ui.EventSink()
		for evt := range mgr.Events() {
			select {
			case sink <- evt:
			case <-ui.Done():
				return
			}
		}
	}()

	go func() {
		// Quitting the UI stops the supervised entries as well.
		<-ui.Done()
		cancel()
	}()

	if err := ui.Run(ctx); err != nil {
		return err
	}
	return mgr.Err()
}

func serveMetrics(addr string) (func(), error) {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(metrics.Registry(), promhttp.HandlerOpts{}))

	srv := &http.Server{Addr: addr, Handler: mux}
	errCh := make(chan error, 1)
	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return nil, fmt.Errorf("metrics listener: %w", err)
	case <-time.After(100 * time.Millisecond):
	}

	slog.Debug("metrics listener started", "addr", addr)
	return func() {
		shutdownCtx, cancel := stdcontext.WithTimeout(stdcontext.Background(), 2*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
	}, nil
}
