// Команда sweeper по расписанию переводит истёкшие пробные подписки в expired.
package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/cvmanager/cvmanager/internal/app/sweeper"
	"github.com/cvmanager/cvmanager/internal/config"
	"github.com/cvmanager/cvmanager/internal/lib/sl"
)

func main() {
	cfg := config.MustLoad()
	logger := sl.SetupLogger(cfg.Env).With(slog.String("service", "sweeper"))

	if err := run(cfg, logger); err != nil {
		logger.Error("sweeper failed", sl.Err(err))
		os.Exit(1)
	}
	logger.Info("sweeper stopped")
}

func run(cfg *config.Config, logger *slog.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	app, err := sweeper.New(ctx, cfg, logger)
	if err != nil {
		return err
	}
	logger.Info("sweeper scheduled",
		slog.String("env", cfg.Env),
		slog.String("schedule", cfg.Sweep.Schedule),
		slog.Duration("timeout", cfg.Sweep.Timeout))
	return app.Run(ctx)
}
