package main

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/sjawhar/transcript-viewer/internal/config"
	"github.com/sjawhar/transcript-viewer/internal/llm"
	"github.com/sjawhar/transcript-viewer/internal/observe"
	"github.com/sjawhar/transcript-viewer/internal/server"
	"github.com/sjawhar/transcript-viewer/internal/session"
	"github.com/sjawhar/transcript-viewer/internal/storage"
	"github.com/sjawhar/transcript-viewer/internal/summary"
)

const shutdownTimeout = 10 * time.Second

func newServeCmd() *cobra.Command {
	var (
		configPath string
		addr       string
	)

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the transcript viewer UI and API",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, warnings, err := config.Load(configPath)
			if err != nil {
				return err
			}
			if addr != "" {
				cfg.ListenAddr = addr
			}

			logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: cfg.SlogLevel()}))
			slog.SetDefault(logger)
			for _, w := range warnings {
				slog.Warn("config: " + w)
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			return runServe(ctx, cfg, logger)
		},
	}
	cmd.Flags().StringVar(&configPath, "config", "", "path to YAML config (default $"+config.EnvPrefix+"CONFIG)")
	cmd.Flags().StringVar(&addr, "addr", "", "listen address, overrides listen_addr")

	return cmd
}

func runServe(ctx context.Context, cfg config.Config, logger *slog.Logger) error {
	telemetry, err := observe.InitProvider()
	if err != nil {
		return fmt.Errorf("init metrics: %w", err)
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := telemetry.Shutdown(shutdownCtx); err != nil {
			logger.Warn("metrics shutdown failed", "error", err)
		}
	}()

	assets, err := fs.Sub(staticFiles, "static")
	if err != nil {
		return fmt.Errorf("static assets init: %w", err)
	}

	hub := server.NewHub()
	opts := session.Options{
		StartDelay:     cfg.ParsedStartDelay(),
		RevealInterval: cfg.ParsedRevealInterval(),
		Broadcaster:    hub,
		Observer:       telemetry.Metrics,
		Logger:         logger,
	}
	srvOpts := server.Options{
		Static:         assets,
		Hub:            hub,
		Metrics:        telemetry.Metrics,
		MetricsHandler: telemetry.Handler,
	}

	if cfg.ArchiveDBPath != "" {
		store, err := storage.NewSQLiteStore(cfg.ArchiveDBPath)
		if err != nil {
			return fmt.Errorf("storage init: %w", err)
		}
		defer func() { _ = store.Close() }()

		opts.Store = store
		srvOpts.Archive = store
		srvOpts.Ready = func(context.Context) error { return store.Ping() }
		logger.Info("archive enabled", "path", cfg.ArchiveDBPath)
	}
	if cfg.ExportDir != "" {
		opts.Exporter = storage.NewWriter(cfg.ExportDir)
		logger.Info("markdown export enabled", "dir", cfg.ExportDir)
	}
	if provider, model, err := llm.ParseModel(cfg.SummaryModel); err == nil && cfg.SummaryAPIKey(provider) != "" {
		client, err := llm.NewClient(provider, cfg.SummaryAPIKey(provider), model, llm.WithMaxTokens(int64(cfg.SummaryMaxTokens)))
		if err != nil {
			return fmt.Errorf("summary client: %w", err)
		}
		opts.Summarizer = summary.New(client)
		logger.Info("summaries enabled", "provider", provider, "model", model)
	}

	controller := session.NewController(opts)
	defer controller.Close()
	srvOpts.Intents = controller

	httpServer := &http.Server{
		Addr:              cfg.ListenAddr,
		Handler:           server.Handler(srvOpts),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("web UI listening", "addr", cfg.ListenAddr)
		errCh <- httpServer.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("http server: %w", err)
	case <-ctx.Done():
	}

	logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("http shutdown: %w", err)
	}
	return nil
}
