package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/kailas-cloud/patentdex/internal/app"
	chiTransport "github.com/kailas-cloud/patentdex/internal/transport/chi"
)

var servePort int

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the HTTP API",
	Long: `Serves search, pipeline triggers, document lookup, stats, health and metrics.
When pipeline.interval_sec is set, a background loop drains the backlog on that
schedule.`,
	Args: cobra.NoArgs,
	RunE: runServe,
}

func init() {
	serveCmd.Flags().IntVarP(&servePort, "port", "p", 0, "Listen port (default: http.port)")
	rootCmd.AddCommand(serveCmd)
}

func runServe(_ *cobra.Command, _ []string) error {
	ctx, stop := signalContext()
	defer stop()

	return withApp(ctx, func(ctx context.Context, a *app.App, logger *zap.Logger) error {
		cfg := a.Config
		port := cfg.HTTP.Port
		if servePort > 0 {
			port = servePort
		}

		server := chiTransport.NewServer(chiTransport.Services{
			Search:    a.Search,
			Enrich:    a.Enrich,
			Embed:     a.Embed,
			Documents: a.Backend.Records,
			Stats:     a.Stats,
			Health:    a.Health,
			BatchSize: cfg.Pipeline.BatchSize,
		}, logger)

		addr := fmt.Sprintf(":%d", port)
		srv := &http.Server{
			Addr:              addr,
			Handler:           chiTransport.NewRouter(server, logger),
			ReadTimeout:       time.Duration(cfg.HTTP.ReadTimeoutSec) * time.Second,
			ReadHeaderTimeout: time.Duration(cfg.HTTP.ReadTimeoutSec) * time.Second,
			WriteTimeout:      time.Duration(cfg.HTTP.WriteTimeoutSec) * time.Second,
		}

		var wg sync.WaitGroup
		if runner := a.Scheduler(); runner != nil {
			logger.Info("Scheduled drain enabled", zap.Int("interval_sec", cfg.Pipeline.IntervalSec))
			wg.Go(func() { runner.Run(ctx) })
		}

		errCh := make(chan error, 1)
		go func() {
			logger.Info("Starting HTTP server", zap.String("addr", addr))
			if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				errCh <- err
			}
			close(errCh)
		}()

		var serveErr error
		select {
		case <-ctx.Done():
			logger.Info("Received shutdown signal")
		case serveErr = <-errCh:
			logger.Error("HTTP server error", zap.Error(serveErr))
			stop()
		}

		shutdownCtx, cancel := context.WithTimeout(context.Background(), time.Duration(cfg.HTTP.ShutdownSec)*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			logger.Error("Error during shutdown", zap.Error(err))
		}
		wg.Wait()

		logger.Info("Server stopped gracefully")
		if serveErr != nil {
			return fmt.Errorf("http server: %w", serveErr)
		}
		return nil
	})
}
