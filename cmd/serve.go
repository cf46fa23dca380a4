package cmd

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/powerm17/automated-home-decor/internal/config"
	"github.com/powerm17/automated-home-decor/internal/flow"
	"github.com/powerm17/automated-home-decor/internal/handlers"
	"github.com/powerm17/automated-home-decor/internal/metrics"
	"github.com/powerm17/automated-home-decor/internal/upload"
	"github.com/spf13/cobra"
)

func newServeCmd() *cobra.Command {
	var port string
	var variantName string
	var backendURL string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the Room Decor web front end",
		Long: `Starts the Room Decor web interface on the specified port.

The landing page lives at / and the upload flow at /upload. Photos are posted
to the decor backend and its suggestions are rendered in the page.`,
		Example: `  # Start server on default port 3000
  roomdecor serve

  # Use the stacked layout without the success notification
  roomdecor serve --variant compact --port 8080`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := config.Load()
			if port == "" {
				port = cfg.Port
			}
			if variantName == "" {
				variantName = cfg.Variant
			}
			if backendURL == "" {
				backendURL = cfg.BackendURL
			}

			variant, err := flow.VariantByName(variantName)
			if err != nil {
				return err
			}

			m := metrics.New()
			handler, err := handlers.New(handlers.Options{
				Uploader:             upload.NewClient(upload.ClientOpts{URL: backendURL}),
				Variant:              variant,
				Metrics:              m,
				MaxUploadBytes:       cfg.MaxUploadBytes,
				UploadRateLimitRPS:   cfg.UploadRateLimitRPS,
				UploadRateLimitBurst: cfg.UploadRateLimitBurst,
			})
			if err != nil {
				return err
			}

			addr := ":" + port
			server := &http.Server{
				Addr:              addr,
				Handler:           handler.Routes(),
				ReadHeaderTimeout: 10 * time.Second,
			}

			sweepCtx, stopSweep := context.WithCancel(cmd.Context())
			defer stopSweep()
			go handler.Sweep(sweepCtx, cfg.SessionTTL)

			// Start server in goroutine
			serverErr := make(chan error, 1)
			go func() {
				slog.Info("Room Decor interface available", "addr", addr, "url", "http://localhost"+addr, "backend", backendURL, "variant", variant.Name)
				if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
					serverErr <- err
				}
			}()

			// Wait for context cancellation (Ctrl+C) or server error
			select {
			case <-cmd.Context().Done():
				slog.Info("Shutting down server...")
				// Give server 5 seconds to shut down gracefully
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

	cmd.Flags().StringVarP(&port, "port", "p", "", "Port to listen on (default 3000)")
	cmd.Flags().StringVar(&variantName, "variant", "", "Upload page variant: standard or compact")
	cmd.Flags().StringVar(&backendURL, "backend", "", "Decor backend upload URL")

	return cmd
}
