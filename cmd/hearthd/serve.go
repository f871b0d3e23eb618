package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"

	"github.com/hearthd/hearthd/internal/logging"
	httpAdapter "github.com/hearthd/hearthd/pkg/adapters/http"
	"github.com/hearthd/hearthd/pkg/observability"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP server",
	Long:  `Starts the hearthd engine in server mode, exposing entries and flows over a JSON API.`,
	Run: func(cmd *cobra.Command, args []string) {
		cfg, err := loadConfig(cmd)
		if err != nil {
			fmt.Printf("Error loading config: %v\n", err)
			os.Exit(1)
		}
		if cmd.Flags().Changed("addr") {
			cfg.Addr, _ = cmd.Flags().GetString("addr")
		}

		logger := logging.NewJSON(logging.ParseLevel(cfg.LogLevel))

		hub := newHub(cfg, logger)

		ctx, cancel := context.WithCancel(context.Background())
		defer cancel()

		if err := hub.Restore(ctx); err != nil {
			logger.Error("Failed to restore entries", "err", err)
			os.Exit(1)
		}
		hub.Start(ctx)

		api := httpAdapter.NewServer(
			hub.ConfigFlows, hub.OptionsFlows, hub.Entries, hub.Handlers,
			httpAdapter.WithLogger(logger),
		)

		metrics := observability.NewMetrics(prometheus.DefaultRegisterer)
		hub.Events().Add(metrics)
		hub.Events().Add(api.Streams())

		srv := &http.Server{
			Addr:    cfg.Addr,
			Handler: api.Handler(),
		}

		// Channel to listen for errors coming from the listener.
		serverErrors := make(chan error, 1)

		go func() {
			logger.Info("Starting hearthd server", "addr", srv.Addr)
			serverErrors <- srv.ListenAndServe()
		}()

		// Channel to listen for interrupt or terminate signals.
		shutdown := make(chan os.Signal, 1)
		signal.Notify(shutdown, os.Interrupt, syscall.SIGTERM)

		select {
		case err := <-serverErrors:
			logger.Error("Server error", "err", err)
			os.Exit(1)

		case sig := <-shutdown:
			logger.Info("Starting shutdown", "signal", sig.String())

			// Give outstanding requests a deadline for completion.
			shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer shutdownCancel()

			if err := srv.Shutdown(shutdownCtx); err != nil {
				logger.Warn("Graceful shutdown did not complete", "err", err)
				if err := srv.Close(); err != nil {
					logger.Error("Error killing server", "err", err)
				}
			}

			hub.Shutdown()
			logger.Info("Server stopped gracefully")
		}
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)
	serveCmd.Flags().StringP("addr", "a", "", "Listen address (overrides config)")
}
