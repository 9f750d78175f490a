package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/hyperjump/mazad/internal/config"
	"github.com/hyperjump/mazad/internal/indexsync"
	"github.com/hyperjump/mazad/internal/server"
	"github.com/hyperjump/mazad/internal/watcher"
)

func newServerCmd(opts *rootOptions) *cobra.Command {
	var port int
	cmd := &cobra.Command{
		Use:   "server",
		Short: "Run the HTTP API",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runServer(opts, port)
		},
	}
	cmd.Flags().IntVar(&port, "port", 0, "listen port (overrides config)")
	return cmd
}

func runServer(opts *rootOptions, port int) error {
	cfg, logger, err := setup(opts)
	if err != nil {
		return err
	}
	defer logger.Sync()
	if port > 0 {
		cfg.Server.Port = port
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	components, err := initializeComponents(ctx, cfg, logger)
	if err != nil {
		logger.Error("Failed to initialize components", zap.Error(err))
		return err
	}
	defer components.Close()
	if cfg.ImageSearch.APIKey == "" {
		logger.Warn("image analysis API key not set; image searches will return no results",
			zap.String("env", config.EnvGeminiKey))
	}

	if cfg.Expansion.Watch && cfg.Expansion.DictionaryPath != "" {
		dictWatcher := watcher.NewDictionaryWatcher(
			cfg.Expansion.DictionaryPath,
			components.Expander,
			cfg.Expansion.SymmetricConcepts,
			watcher.WithLogger(logger),
		)
		if err := dictWatcher.Start(ctx); err != nil {
			logger.Error("Failed to start dictionary watcher", zap.Error(err))
			return err
		}
		defer dictWatcher.Stop()
	}

	reconciler := indexsync.NewReconciler(components.Syncer, cfg.Sync.ReconcileInterval, logger)
	reconciler.Start()
	defer reconciler.Stop()

	srv := server.NewServer(
		components.Engine,
		components.Syncer,
		components.Storage,
		cfg,
		logger,
		server.WithIndex(components.Index),
		server.WithImageSearch(components.Images),
	)
	errCh := make(chan error, 1)
	go func() {
		if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	select {
	case <-sigChan:
	case err := <-errCh:
		logger.Error("Server failed", zap.Error(err))
		return err
	}

	logger.Info("Shutting down...")
	cancel()
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	return srv.Stop(shutdownCtx)
}
