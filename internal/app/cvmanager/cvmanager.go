package cvmanager

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/streadway/amqp"

	"github.com/cvmanager/cvmanager/internal/cache"
	"github.com/cvmanager/cvmanager/internal/config"
	"github.com/cvmanager/cvmanager/internal/http/handlers/ai/compare"
	"github.com/cvmanager/cvmanager/internal/http/handlers/ai/optimize"
	aiproviders "github.com/cvmanager/cvmanager/internal/http/handlers/ai/providers"
	"github.com/cvmanager/cvmanager/internal/http/handlers/auth/login"
	"github.com/cvmanager/cvmanager/internal/http/handlers/auth/register"
	"github.com/cvmanager/cvmanager/internal/http/handlers/auth/verifyemail"
	"github.com/cvmanager/cvmanager/internal/http/handlers/cv/byslug"
	cvcreate "github.com/cvmanager/cvmanager/internal/http/handlers/cv/create"
	"github.com/cvmanager/cvmanager/internal/http/handlers/cv/list"
	"github.com/cvmanager/cvmanager/internal/http/handlers/cv/remove"
	"github.com/cvmanager/cvmanager/internal/http/handlers/cv/update"
	"github.com/cvmanager/cvmanager/internal/http/handlers/health"
	leadcreate "github.com/cvmanager/cvmanager/internal/http/handlers/lead/create"
	"github.com/cvmanager/cvmanager/internal/http/handlers/public/cvpage"
	"github.com/cvmanager/cvmanager/internal/http/handlers/subscription/status"
	"github.com/cvmanager/cvmanager/internal/http/handlers/subscription/sweep"
	"github.com/cvmanager/cvmanager/internal/http/handlers/subscription/verifypayment"
	"github.com/cvmanager/cvmanager/internal/http/middlewarectx"
	"github.com/cvmanager/cvmanager/internal/lib/rabbitmq"
	"github.com/cvmanager/cvmanager/internal/lib/sessiontoken"
	"github.com/cvmanager/cvmanager/internal/lib/sl"
	"github.com/cvmanager/cvmanager/internal/llm"
	"github.com/cvmanager/cvmanager/internal/metrics"
	"github.com/cvmanager/cvmanager/internal/migrations"
	"github.com/cvmanager/cvmanager/internal/services/auth"
	"github.com/cvmanager/cvmanager/internal/services/cv"
	"github.com/cvmanager/cvmanager/internal/services/intake"
	"github.com/cvmanager/cvmanager/internal/services/lifecycle"
	"github.com/cvmanager/cvmanager/internal/services/suggestion"
	"github.com/cvmanager/cvmanager/internal/storage/repository"
)

const shutdownTimeout = 15 * time.Second

// App - HTTP API со всеми зависимостями.
type App struct {
	server *http.Server
	logger *slog.Logger
	db     *repository.Storage
	cache  *cache.Cache
	conn   *amqp.Connection
	ch     *amqp.Channel
}

// New подключает хранилища и брокер, применяет миграции и собирает маршруты.
func New(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*App, error) {
	const op = "cvmanager.New"

	db, err := repository.New(cfg.StorageConnectionString)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	if err := prepareDatabase(ctx, db, cfg.MigrationsPath); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	cacheRedis, err := cache.InitServer(ctx, cfg.Redis)
	if err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	conn, err := rabbitmq.Connect(cfg.RabbitMQ.URL, cfg.RabbitMQ.Retries, cfg.RabbitMQ.Delay)
	if err != nil {
		_ = cacheRedis.Close()
		_ = db.Close()
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	ch, err := rabbitmq.SetupChannel(conn, rabbitmq.GetNotificationQueues())
	if err != nil {
		_ = conn.Close()
		_ = cacheRedis.Close()
		_ = db.Close()
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	publisher := rabbitmq.NewPublisher(ch)

	recorder := metrics.NewRecorder(prometheus.DefaultRegisterer)
	codec := sessiontoken.New(cfg.Token.Secret, cfg.Token.TTL)

	authService := auth.New(db, codec, publisher, logger)
	cvService := cv.New(db, cacheRedis, logger)
	intakeService := intake.New(db, publisher, cfg.Billing.Catalog(), cfg.Billing.TrialDuration, logger)
	evaluator := lifecycle.New(db, logger,
		lifecycle.WithRecorder(recorder),
		lifecycle.WithNotifier(lifecycle.NewPublishingNotifier(publisher, logger)),
	)
	providers, err := llm.Discover(cfg.LLM.Default, cfg.LLM.Settings(), cfg.LLM.Timeout)
	if err != nil {
		_ = ch.Close()
		_ = conn.Close()
		_ = cacheRedis.Close()
		_ = db.Close()
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	logger.Info("llm providers discovered",
		slog.Any("available", providers.Available()), slog.String("default", providers.Default()))
	suggestionService := suggestion.New(providers)

	handlers := Handlers{
		Health: health.New(logger, map[string]health.Pinger{
			"postgres": db,
			"redis":    cacheRedis,
		}),
		Register:      register.New(logger, authService),
		Login:         login.New(logger, authService),
		VerifyEmail:   verifyemail.New(logger, authService),
		Lead:          leadcreate.New(logger, intakeService),
		ListCVs:       list.New(logger, cvService),
		CreateCV:      cvcreate.New(logger, cvService),
		UpdateCV:      update.New(logger, cvService),
		DeleteCV:      remove.New(logger, cvService),
		CVBySlug:      byslug.New(logger, cvService),
		PublicCV:      cvpage.New(logger, cvService),
		Status:        status.New(logger, evaluator),
		Optimize:      optimize.New(logger, suggestionService),
		Compare:       compare.New(logger, suggestionService),
		AIProviders:   aiproviders.New(suggestionService),
		VerifyPayment: verifypayment.New(logger, db),
		Sweep:         sweep.New(logger, evaluator),
	}
	mw := Middleware{
		Auth:  middlewarectx.Auth(codec, logger),
		Gate:  middlewarectx.SubscriptionGate(evaluator, recorder, logger),
		Limit: middlewarectx.NewRateLimiter(cfg.LLM.RequestsPerMinute, cfg.LLM.Burst).Middleware(logger),
		Admin: middlewarectx.AdminKey(cfg.AdminKey, logger),
	}

	router := chi.NewRouter()
	RegisterRoutes(router, handlers, mw)

	srv := &http.Server{
		Addr:         cfg.HTTPServer.Address,
		Handler:      router,
		ReadTimeout:  cfg.HTTPServer.Timeout,
		WriteTimeout: cfg.HTTPServer.Timeout + cfg.LLM.Timeout,
		IdleTimeout:  cfg.HTTPServer.IdleTimeout,
	}

	return &App{
		server: srv,
		logger: logger,
		db:     db,
		cache:  cacheRedis,
		conn:   conn,
		ch:     ch,
	}, nil
}

// prepareDatabase применяет миграции и только затем проверяет схему,
// поэтому API поднимается и на пустой базе.
func prepareDatabase(ctx context.Context, db *repository.Storage, migrationsPath string) error {
	if err := migrations.Run(db.DB, migrationsPath); err != nil {
		return err
	}
	return repository.CheckDatabaseReady(ctx, db)
}

// Run обслуживает запросы до отмены ctx, затем корректно останавливает сервер.
func (a *App) Run(ctx context.Context) error {
	errCh := make(chan error, 1)
	go func() {
		a.logger.Info("HTTP server starting", slog.String("address", a.server.Addr))
		err := a.server.ListenAndServe()
		if errors.Is(err, http.ErrServerClosed) {
			errCh <- nil
		} else {
			errCh <- err
		}
	}()

	var err error
	select {
	case err = <-errCh:
	case <-ctx.Done():
		timeoutCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		a.logger.Info("shutting down HTTP server gracefully")
		err = a.server.Shutdown(timeoutCtx)
	}
	a.close()
	return err
}

func (a *App) close() {
	if err := a.ch.Close(); err != nil {
		a.logger.Error("failed to close channel", sl.Err(err))
	}
	if err := a.conn.Close(); err != nil {
		a.logger.Error("failed to close connection", sl.Err(err))
	}
	if err := a.cache.Close(); err != nil {
		a.logger.Error("failed to close cache", sl.Err(err))
	}
	if err := a.db.Close(); err != nil {
		a.logger.Error("failed to close database", sl.Err(err))
	}
}
