package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/magabrotheeeer/course-seller/internal/app/statsaggregator"
	"github.com/magabrotheeeer/course-seller/internal/config"
)

func main() {
	cfg := config.MustLoad()
	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelDebug}))

	logger.Info("starting stats aggregator", slog.String("env", cfg.Env))

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	app, err := statsaggregator.New(ctx, cfg, logger)
	if err != nil {
		logger.Error("failed to initialize stats aggregator", slog.Any("err", err))
		os.Exit(1)
	}

	if err := app.Run(ctx); err != nil {
		logger.Error("stats aggregator stopped with error", slog.Any("err", err))
		os.Exit(1)
	}

	logger.Info("stats aggregator stopped gracefully")
}
