package main

import (
	"context"
	"errors"
	"net/http"
	"os/signal"
	"syscall"

	httpadapter "github.com/couchcryptid/neighborhood-watch/internal/adapter/http"
	"github.com/spf13/cobra"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the records API, cycle trigger and health endpoints",
	Long: `Start an HTTP server exposing:

  GET  /api/records?limit=N  newest stored records
  POST /api/cycles           run one watch cycle
  GET  /healthz, /readyz     liveness and store readiness
  GET  /metrics              Prometheus metrics

The server runs until interrupted (Ctrl+C) or it receives SIGTERM.`,
	RunE: runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, _ []string) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	a, err := newApp(ctx)
	if err != nil {
		return err
	}
	defer a.close()

	srv := httpadapter.NewServer(a.cfg.HTTPAddr, a.store, a.store, a.logger,
		httpadapter.WithCycleTrigger(a.runner, a.cfg.MonitorLocation),
	)

	errChan := make(chan error, 1)
	go func() {
		if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errChan <- err
		}
		close(errChan)
	}()

	select {
	case err := <-errChan:
		if err != nil {
			return err
		}
	case <-ctx.Done():
	}
	a.logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), a.cfg.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		a.logger.Error("http server shutdown error", "error", err)
	}
	a.logger.Info("shutdown complete")
	return nil
}
