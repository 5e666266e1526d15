// Package sweeper периодически переводит истёкшие пробные подписки в expired.
package sweeper

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/robfig/cron/v3"
	"github.com/streadway/amqp"

	"github.com/cvmanager/cvmanager/internal/config"
	"github.com/cvmanager/cvmanager/internal/lib/rabbitmq"
	"github.com/cvmanager/cvmanager/internal/lib/sl"
	"github.com/cvmanager/cvmanager/internal/metrics"
	"github.com/cvmanager/cvmanager/internal/services/lifecycle"
	"github.com/cvmanager/cvmanager/internal/storage/repository"
)

// Sweeper обрабатывает истёкшие пробные подписки.
type Sweeper interface {
	SweepExpiredTrials(ctx context.Context, now time.Time) (int, error)
}

// Scheduler запускает Sweeper по расписанию cron.
type Scheduler struct {
	cron    *cron.Cron
	sweeper Sweeper
	timeout time.Duration
	log     *slog.Logger
	now     func() time.Time
}

// NewScheduler создаёт планировщик. Пересекающиеся запуски пропускаются.
func NewScheduler(sweeper Sweeper, schedule string, timeout time.Duration, log *slog.Logger) (*Scheduler, error) {
	const op = "sweeper.NewScheduler"
	if timeout <= 0 {
		return nil, fmt.Errorf("%s: timeout must be positive, got %v", op, timeout)
	}
	s := &Scheduler{
		cron: cron.New(cron.WithChain(
			cron.Recover(cron.DiscardLogger),
			cron.SkipIfStillRunning(cron.DiscardLogger),
		)),
		sweeper: sweeper,
		timeout: timeout,
		log:     log,
		now:     time.Now,
	}
	if _, err := s.cron.AddFunc(schedule, s.RunOnce); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return s, nil
}

// RunOnce выполняет один проход с ограничением по времени.
func (s *Scheduler) RunOnce() {
	ctx, cancel := context.WithTimeout(context.Background(), s.timeout)
	defer cancel()

	processed, err := s.sweeper.SweepExpiredTrials(ctx, s.now().UTC())
	if err != nil {
		s.log.Error("trial sweep failed", sl.Err(err), slog.Int("processed", processed))
		return
	}
	s.log.Info("trial sweep finished", slog.Int("processed", processed))
}

// Start делает первый проход сразу и запускает расписание.
func (s *Scheduler) Start() {
	s.RunOnce()
	s.cron.Start()
}

// Stop останавливает расписание и ждёт завершения текущего прохода.
func (s *Scheduler) Stop() {
	<-s.cron.Stop().Done()
}

const shutdownTimeout = 5 * time.Second

// newEvaluator собирает Evaluator, который пишет метрики обходов в reg.
func newEvaluator(repo lifecycle.Repository, notifier lifecycle.Notifier, reg prometheus.Registerer, logger *slog.Logger) *lifecycle.Evaluator {
	return lifecycle.New(repo, logger,
		lifecycle.WithNotifier(notifier),
		lifecycle.WithRecorder(metrics.NewRecorder(reg)),
	)
}

// newMetricsServer отдаёт метрики из g на /metrics.
func newMetricsServer(addr string, g prometheus.Gatherer) *http.Server {
	r := chi.NewRouter()
	r.Handle("/metrics", promhttp.HandlerFor(g, promhttp.HandlerOpts{}))
	return &http.Server{
		Addr:              addr,
		Handler:           r,
		ReadHeaderTimeout: 5 * time.Second,
	}
}

// App - процесс периодической обработки пробных периодов.
type App struct {
	scheduler *Scheduler
	metrics   *http.Server
	db        *repository.Storage
	conn      *amqp.Connection
	ch        *amqp.Channel
	logger    *slog.Logger
}

// New подключает базу и брокер и готовит расписание.
func New(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*App, error) {
	const op = "sweeper.New"

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

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	notifier := lifecycle.NewPublishingNotifier(rabbitmq.NewPublisher(ch), logger)
	evaluator := newEvaluator(db, notifier, reg, logger)
	scheduler, err := NewScheduler(evaluator, cfg.Sweep.Schedule, cfg.Sweep.Timeout, logger)
	if err != nil {
		_ = ch.Close()
		_ = conn.Close()
		_ = db.Close()
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return &App{
		scheduler: scheduler,
		metrics:   newMetricsServer(cfg.Sweep.MetricsAddress, reg),
		db:        db,
		conn:      conn,
		ch:        ch,
		logger:    logger,
	}, nil
}

// Run работает до отмены ctx. Ошибка сервера метрик останавливает процесс.
func (a *App) Run(ctx context.Context) error {
	errCh := make(chan error, 1)
	go func() {
		a.logger.Info("metrics server starting", slog.String("address", a.metrics.Addr))
		err := a.metrics.ListenAndServe()
		if errors.Is(err, http.ErrServerClosed) {
			err = nil
		}
		errCh <- err
	}()

	a.scheduler.Start()
	a.logger.Info("sweeper started")

	var err error
	select {
	case err = <-errCh:
		if err != nil {
			a.logger.Error("metrics server failed", sl.Err(err))
		}
	case <-ctx.Done():
		a.logger.Info("sweeper shutting down gracefully")
		timeoutCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if shutdownErr := a.metrics.Shutdown(timeoutCtx); shutdownErr != nil {
			a.logger.Error("failed to stop metrics server", sl.Err(shutdownErr))
		}
	}
	a.scheduler.Stop()

	if err := a.ch.Close(); err != nil {
		a.logger.Error("failed to close channel", sl.Err(err))
	}
	if err := a.conn.Close(); err != nil {
		a.logger.Error("failed to close connection", sl.Err(err))
	}
	if err := a.db.Close(); err != nil {
		a.logger.Error("failed to close database", sl.Err(err))
	}
	return err
}
