package commands

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"

	"github.com/FACorreiaa/statement-ingest/cmd/api"
)

const shutdownTimeout = 10 * time.Second

func newWorkerCommand(g *globalOptions) *cobra.Command {
	var runNow bool

	cmd := &cobra.Command{
		Use:   "worker",
		Short: "Run the scheduled re-categorization sweep and serve metrics",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			deps, err := api.InitDependencies(cfg, g.logger(cmd))
			if err != nil {
				return err
			}
			defer deps.Cleanup()

			ctx := cmd.Context()
			var srv *http.Server
			if cfg.Observability.MetricsEnabled {
				srv = newMetricsServer(cfg.Observability.MetricsPort)
				go func() {
					deps.Logger.Info("metrics server listening", "addr", srv.Addr, "path", "/metrics")
					if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
						deps.Logger.Error("metrics server failed", "error", err)
					}
				}()
			}

			if runNow {
				deps.Scheduler.RunNow()
			}
			if err := deps.Scheduler.Start(); err != nil {
				return fmt.Errorf("starting scheduler: %w", err)
			}

			<-ctx.Done()
			deps.Logger.Info("shutting down worker")
			<-deps.Scheduler.Stop().Done()

			if srv != nil {
				shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
				defer cancel()
				if err := srv.Shutdown(shutdownCtx); err != nil {
					return fmt.Errorf("stopping metrics server: %w", err)
				}
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&runNow, "run-now", false, "run one sweep before waiting for the schedule")

	return cmd
}

func newMetricsServer(port int) *http.Server {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	mux.HandleFunc("/ready", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ready"))
	})
	return &http.Server{
		Addr:              fmt.Sprintf(":%d", port),
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}
}
