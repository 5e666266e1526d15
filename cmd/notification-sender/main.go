// Команда notification-sender читает очередь уведомлений и отправляет письма по SMTP.
package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/cvmanager/cvmanager/internal/app/sender"
	"github.com/cvmanager/cvmanager/internal/config"
	"github.com/cvmanager/cvmanager/internal/lib/sl"
)

func main() {
	cfg := config.MustLoad()
	logger := sl.SetupLogger(cfg.Env).With(slog.String("service", "notification-sender"))

	if err := run(cfg, logger); err != nil {
		logger.Error("notification sender failed", sl.Err(err))
		os.Exit(1)
	}
	logger.Info("notification sender stopped")
}

func run(cfg *config.Config, logger *slog.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	app, err := sender.New(ctx, cfg, logger)
	if err != nil {
		return err
	}
	logger.Info("notification sender started", slog.String("env", cfg.Env))
	return app.Run(ctx)
}
