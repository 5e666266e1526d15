// Package sender читает очередь уведомлений и отправляет письма.
package sender

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/streadway/amqp"

	"github.com/cvmanager/cvmanager/internal/config"
	"github.com/cvmanager/cvmanager/internal/lib/rabbitmq"
	"github.com/cvmanager/cvmanager/internal/lib/sl"
	"github.com/cvmanager/cvmanager/internal/lib/smtp"
	senderservice "github.com/cvmanager/cvmanager/internal/services/sender"
	"github.com/cvmanager/cvmanager/internal/storage/repository"
)

const workers = 4

// App - процесс отправки писем.
type App struct {
	db            *repository.Storage
	conn          *amqp.Connection
	ch            *amqp.Channel
	senderService *senderservice.Service
	logger        *slog.Logger
}

// New подключает базу, брокер и SMTP.
func New(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*App, error) {
	const op = "sender.New"

	db, err := repository.New(cfg.StorageConnectionString)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	if err := repository.CheckDatabaseReady(ctx, db); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	conn, err := rabbitmq.Connect(cfg.RabbitMQ.URL, cfg.RabbitMQ.Retries, cfg.RabbitMQ.Delay)
	if err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	ch, err := rabbitmq.SetupChannel(conn, rabbitmq.GetNotificationQueues())
	if err != nil {
		_ = conn.Close()
		_ = db.Close()
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	transport := smtp.NewTransport(cfg.SMTP, logger)
	senderService := senderservice.New(transport, db, db, cfg.AppURL, logger)

	return &App{
		db:            db,
		conn:          conn,
		ch:            ch,
		senderService: senderService,
		logger:        logger,
	}, nil
}

// Run обрабатывает очередь писем до отмены ctx.
func (a *App) Run(ctx context.Context) error {
	a.logger.Info("sender consuming", slog.String("queue", rabbitmq.QueueEmail))
	err := rabbitmq.ConsumerMessage(ctx, a.logger, a.ch, rabbitmq.QueueEmail, workers, a.senderService.Handle)
	if err != nil {
		a.logger.Error("email consumer stopped", sl.Err(err))
	}

	a.logger.Info("sender service shutting down gracefully")
	if cerr := a.ch.Close(); cerr != nil {
		a.logger.Error("failed to close channel", sl.Err(cerr))
	}
	if cerr := a.conn.Close(); cerr != nil {
		a.logger.Error("failed to close connection", sl.Err(cerr))
	}
	if cerr := a.db.Close(); cerr != nil {
		a.logger.Error("failed to close database", sl.Err(cerr))
	}
	return err
}
