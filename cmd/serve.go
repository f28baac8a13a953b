package cmd

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/aob-scanner/book-scanner/internal/config"
	"github.com/aob-scanner/book-scanner/internal/handlers"
	"github.com/spf13/cobra"
)

func newServeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the book scanning API server",
		Long: `Starts the HTTP API on the configured port.

Endpoints:
  POST /api/process-image   extract metadata from one or two base64 images
  POST /api/save-entry      store a reviewed entry and its cover image
  GET  /metrics             Prometheus metrics
  GET  /healthcheck         liveness probe

Configuration is read from the environment and .env.`,
		Example: `  # Start server on the default port 8080
  bookscanner serve

  # Keep images on local disk and log JSON
  STORAGE_BACKEND=local bookscanner serve --port 3000 --log-format json`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(cmd.Flags())
			if err != nil {
				return err
			}

			c := buildComponents(cmd.Context(), cfg)
			defer c.Close()

			handler := handlers.New(handlers.Options{
				Pipeline:     c.Pipeline,
				Archiver:     c.Archiver,
				Metrics:      c.Metrics,
				MaxBodyBytes: cfg.MaxBodyBytes,
				UploadDir:    c.UploadDir,
			})

			addr := ":" + cfg.Port
			server := &http.Server{
				Addr:              addr,
				Handler:           handler.Routes(),
				ReadHeaderTimeout: 10 * time.Second,
			}

			// Start server in goroutine
			serverErr := make(chan error, 1)
			go func() {
				slog.Info("Book scanner API available", "addr", addr, "url", "http://localhost"+addr)
				if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
					serverErr <- err
				}
			}()

			// Wait for context cancellation (Ctrl+C) or server error
			select {
			case <-cmd.Context().Done():
				slog.Info("Shutting down server...")
				// Give in-flight requests 5 seconds to finish
				shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
				defer cancel()
				if err := server.Shutdown(shutdownCtx); err != nil {
					slog.Error("Server shutdown failed", "err", err)
					return err
				}
				slog.Info("Server stopped")
				return nil
			case err := <-serverErr:
				return err
			}
		},
	}

	cmd.Flags().StringP("port", "p", "8080", "Port to listen on (PORT)")

	return cmd
}
