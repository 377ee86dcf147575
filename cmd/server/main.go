package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"learnhub/internal/config"
	"learnhub/internal/lib/slogcustom"
	"learnhub/internal/payments"
	"learnhub/internal/server"
	"learnhub/internal/storage/backend"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("load config", slog.String("error", err.Error()))
		os.Exit(1)
	}

	slog.SetDefault(slogcustom.New(os.Stdout, cfg.LogLevel))

	if err := cfg.Validate(); err != nil {
		slog.Error("invalid config", slog.String("error", err.Error()))
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	store, err := backend.Open(ctx, cfg)
	if err != nil {
		slog.Error("open store", slog.String("error", err.Error()))
		os.Exit(1)
	}
	defer store.Close(context.Background())

	s := server.New(cfg, store, payments.NewClient(cfg.PaymentStatusURL, cfg.PaymentTimeout))
	if err := s.Run(ctx); err != nil {
		slog.Error("server stopped", slog.String("error", err.Error()))
		os.Exit(1)
	}
}
