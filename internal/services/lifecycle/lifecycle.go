// Package lifecycle - единственный источник решения «может ли пользователь
// сейчас пользоваться платными функциями». Оценка продвигает подписку по
// жизненному циклу trial -> active/expired -> expired как побочный эффект.
package lifecycle

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/cvmanager/cvmanager/internal/lib/sl"
	"github.com/cvmanager/cvmanager/internal/models"
	"github.com/cvmanager/cvmanager/internal/storage"
)

// Сообщения об отказе показываются пользователю как есть.
const (
	MsgTrialExpired        = "El periodo de prueba ha expirado. Contacta a ventas."
	MsgSubscriptionExpired = "La suscripción ha expirado. Por favor renueva tu plan."
	MsgNotActive           = "La suscripción no está activa. Contacta a ventas."
	MsgNoSubscription      = "No se encontró una suscripción activa."
	MsgVerifyFailed        = "No se pudo verificar la suscripción."
)

// Repository описывает операции хранилища, нужные для оценки подписок.
type Repository interface {
	// LatestSubscriptionByUser возвращает последнюю созданную подписку пользователя
	// или storage.ErrNotFound.
	LatestSubscriptionByUser(ctx context.Context, userID string) (*models.Subscription, error)
	// ListExpiredTrials возвращает подписки в статусе trial с trial_end < now.
	ListExpiredTrials(ctx context.Context, now time.Time) ([]*models.Subscription, error)
	// TransitionSubscription применяет переход, только если статус всё ещё равен t.From,
	// иначе возвращает storage.ErrStaleWrite.
	TransitionSubscription(ctx context.Context, t models.Transition) error
	// SetTrialActive обновляет флаг пробного периода пользователя.
	SetTrialActive(ctx context.Context, userID string, active bool) error
}

// Recorder собирает метрики оценок и переходов.
type Recorder interface {
	Evaluation(outcome string)
	Transition(from, to models.SubscriptionStatus)
	Sweep(processed int, err error)
}

// Notifier получает применённые переходы, например для отправки писем.
type Notifier interface {
	TransitionApplied(ctx context.Context, t models.Transition)
}

type nopRecorder struct{}

func (nopRecorder) Evaluation(string) {}

func (nopRecorder) Transition(models.SubscriptionStatus, models.SubscriptionStatus) {}

func (nopRecorder) Sweep(int, error) {}

type nopNotifier struct{}

func (nopNotifier) TransitionApplied(context.Context, models.Transition) {}

// Evaluator оценивает подписки и выполняет переходы состояний.
type Evaluator struct {
	repo     Repository
	log      *slog.Logger
	now      func() time.Time
	recorder Recorder
	notifier Notifier
}

// Option настраивает Evaluator.
type Option func(*Evaluator)

// WithClock подменяет источник текущего времени.
func WithClock(now func() time.Time) Option {
	return func(e *Evaluator) { e.now = now }
}

// WithRecorder подключает сбор метрик.
func WithRecorder(r Recorder) Option {
	return func(e *Evaluator) { e.recorder = r }
}

// WithNotifier подключает получателя применённых переходов.
func WithNotifier(n Notifier) Option {
	return func(e *Evaluator) { e.notifier = n }
}

// New создаёт Evaluator.
func New(repo Repository, log *slog.Logger, opts ...Option) *Evaluator {
	e := &Evaluator{
		repo:     repo,
		log:      log,
		now:      time.Now,
		recorder: nopRecorder{},
		notifier: nopNotifier{},
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Evaluate решает, разрешён ли пользователю доступ к платным функциям сейчас,
// выполняя не более одного перехода вперёд. Ошибки не возвращаются: любая
// проблема превращается в отказ с сообщением и Outcome = OutcomeError.
func (e *Evaluator) Evaluate(ctx context.Context, userID string) Decision {
	const op = "lifecycle.Evaluate"
	log := e.log.With(sl.Op(op), slog.String("user_id", userID))
	now := e.now()

	d := e.evaluate(ctx, log, userID, now)
	e.recorder.Evaluation(d.Outcome.String())
	return d
}

func (e *Evaluator) evaluate(ctx context.Context, log *slog.Logger, userID string, now time.Time) Decision {
	// Вторая попытка нужна, только если конкурентный запрос успел перевести подписку раньше нас.
	for attempt := 0; attempt < 2; attempt++ {
		sub, err := e.repo.LatestSubscriptionByUser(ctx, userID)
		if errors.Is(err, storage.ErrNotFound) {
			return deny("", MsgNoSubscription)
		}
		if err != nil {
			log.Error("failed to load subscription", sl.Err(err))
			return failure(err)
		}

		t, ok := Next(sub, now)
		if !ok {
			return decide(sub)
		}

		err = e.apply(ctx, t)
		if errors.Is(err, storage.ErrStaleWrite) {
			log.Warn("subscription changed concurrently, re-reading",
				slog.String("subscription_id", sub.ID))
			continue
		}
		if err != nil {
			log.Error("failed to apply transition", sl.Err(err),
				slog.String("from", string(t.From)), slog.String("to", string(t.To)))
			return failure(err)
		}
		log.Info("subscription transitioned",
			slog.String("subscription_id", sub.ID),
			slog.String("from", string(t.From)), slog.String("to", string(t.To)))

		return transitioned(t, t.Apply(sub))
	}
	return failure(fmt.Errorf("subscription for user %s: %w", userID, storage.ErrStaleWrite))
}

// SweepExpiredTrials применяет правило окончания пробного периода ко всем
// подпискам trial с истёкшим окном. Возвращает количество обработанных подписок.
// Подписки, изменённые конкурентно, пропускаются и не учитываются.
func (e *Evaluator) SweepExpiredTrials(ctx context.Context, now time.Time) (int, error) {
	const op = "lifecycle.SweepExpiredTrials"
	log := e.log.With(sl.Op(op))

	subs, err := e.repo.ListExpiredTrials(ctx, now)
	if err != nil {
		e.recorder.Sweep(0, err)
		return 0, fmt.Errorf("%s: %w", op, err)
	}

	processed := 0
	for _, sub := range subs {
		if err := ctx.Err(); err != nil {
			e.recorder.Sweep(processed, err)
			return processed, fmt.Errorf("%s: %w", op, err)
		}
		t, ok := ExpireTrial(sub, now)
		if !ok {
			continue
		}
		err := e.apply(ctx, t)
		if errors.Is(err, storage.ErrStaleWrite) {
			log.Warn("subscription already transitioned", slog.String("subscription_id", sub.ID))
			continue
		}
		if err != nil {
			log.Error("failed to apply transition", sl.Err(err), slog.String("subscription_id", sub.ID))
			continue
		}
		processed++
	}

	log.Info("sweep finished", slog.Int("found", len(subs)), slog.Int("processed", processed))
	e.recorder.Sweep(processed, nil)
	return processed, nil
}

// apply записывает переход и сбрасывает флаг пробного периода пользователя,
// если подписка вышла из trial.
func (e *Evaluator) apply(ctx context.Context, t models.Transition) error {
	const op = "lifecycle.apply"
	if !models.CanTransition(t.From, t.To) {
		return fmt.Errorf("%s: transition %s -> %s is not allowed", op, t.From, t.To)
	}
	if err := e.repo.TransitionSubscription(ctx, t); err != nil {
		if errors.Is(err, storage.ErrStaleWrite) {
			return err
		}
		return fmt.Errorf("%s: %w", op, err)
	}
	e.recorder.Transition(t.From, t.To)

	if t.From == models.StatusTrial {
		// Статус уже записан, поэтому сбой флага не отменяет решение.
		if err := e.repo.SetTrialActive(ctx, t.UserID, false); err != nil {
			e.log.Error("failed to clear trial flag", sl.Op(op), sl.Err(err),
				slog.String("user_id", t.UserID))
		}
	}
	e.notifier.TransitionApplied(ctx, t)
	return nil
}
