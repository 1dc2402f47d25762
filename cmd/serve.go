package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/afero"
	"github.com/spf13/cobra"

	"github.com/angeloszaimis/audio-relay/config"
	"github.com/angeloszaimis/audio-relay/internal/handler"
	"github.com/angeloszaimis/audio-relay/internal/httpserver"
	"github.com/angeloszaimis/audio-relay/pkg/logger"
)

func newServeCommand(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP relay (default)",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(cmd.Context(), opts)
		},
	}
}

func runServe(parent context.Context, opts *rootOptions) error {
	cfg, err := config.Load(opts.configPath)
	if err != nil {
		slog.Error("failed to load config", slog.Any("err", err))
		return err
	}

	log := logger.New(cfg.Logging.Level, true, cfg.Server.Environment)

	if parent == nil {
		parent = context.Background()
	}
	ctx, cancel := signal.NotifyContext(parent, os.Interrupt, syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	a, err := newApp(cfg, log, afero.NewOsFs())
	if err != nil {
		log.Error("Failed to initialize", slog.Any("err", err))
		return err
	}

	a.collector.Start(ctx)
	go a.monitor.Run(ctx)

	extractHandler := handler.NewExtractHandler(log, a.runner, a.collector)
	mux := setupRouter(extractHandler, a.collector, a.monitor)

	srv, err := httpserver.New(cfg.Server.Address(), handler.Logging(log, mux), httpserver.Timeouts{
		Read:  config.Duration(cfg.Server.ReadTimeout),
		Write: config.Duration(cfg.Server.WriteTimeout),
		Idle:  config.Duration(cfg.Server.IdleTimeout),
	})
	if err != nil {
		log.Error("Failed to create server", slog.Any("err", err))
		return err
	}

	srvErrCh := make(chan error, 1)

	go func() {
		log.Info("Relay listening", slog.String("addr", cfg.Server.Address()))
		srvErrCh <- srv.Start()
	}()

	select {
	case <-ctx.Done():
		log.Info("Shutting down gracefully...")
		if err := srv.Shutdown(context.Background()); err != nil {
			log.Error("Error during shutdown", slog.Any("err", err))
		}
	case err := <-srvErrCh:
		if err != nil {
			log.Error("Error starting relay", slog.Any("err", err))
			return err
		}
	}

	return nil
}
