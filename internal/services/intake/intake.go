// Package intake принимает заявки на пробный период: создаёт лид, пользователя,
// подписку trial с рассчитанной стоимостью и, при необходимости, счёт.
package intake

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/cvmanager/cvmanager/internal/billing"
	"github.com/cvmanager/cvmanager/internal/lib/password"
	"github.com/cvmanager/cvmanager/internal/lib/sl"
	"github.com/cvmanager/cvmanager/internal/models"
	"github.com/cvmanager/cvmanager/internal/storage"
)

// ErrUsernameTaken - имя пользователя из заявки уже занято.
var ErrUsernameTaken = errors.New("username already taken")

// Repository атомарно сохраняет всё, что создаётся по заявке.
type Repository interface {
	CreateTrial(ctx context.Context, b models.TrialBundle) error
}

// Notifier публикует уведомления для отправки писем.
type Notifier interface {
	Notify(ctx context.Context, n models.Notification) error
}

// Service обрабатывает заявки.
type Service struct {
	repo          Repository
	notifier      Notifier
	catalog       billing.Catalog
	trialDuration time.Duration
	log           *slog.Logger
	now           func() time.Time
}

// New создаёт Service. Каталог и длительность пробного периода передаются явно.
func New(repo Repository, notifier Notifier, catalog billing.Catalog, trialDuration time.Duration, log *slog.Logger) *Service {
	return &Service{
		repo:          repo,
		notifier:      notifier,
		catalog:       catalog,
		trialDuration: trialDuration,
		log:           log,
		now:           time.Now,
	}
}

// Submit принимает проверенную заявку. Стоимость считается один раз и сохраняется
// в подписке и счёте.
func (s *Service) Submit(ctx context.Context, req models.LeadRequest) (*models.TrialBundle, error) {
	const op = "intake.Submit"

	plan := models.Plan(req.Plan)
	quote, err := s.catalog.Quote(plan, req.RequiresInvoice)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	hashed, err := password.Hash(req.Password)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	b := s.build(req, plan, quote, hashed)
	if err := s.repo.CreateTrial(ctx, b); err != nil {
		if errors.Is(err, storage.ErrAlreadyExists) {
			return nil, ErrUsernameTaken
		}
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	s.log.Info("trial started",
		slog.String("subscription_id", b.Subscription.ID),
		slog.String("plan", string(plan)),
		slog.Int64("total", quote.Total))
	s.publish(ctx, b)
	return &b, nil
}

func (s *Service) build(req models.LeadRequest, plan models.Plan, q billing.Quote, passwordHash string) models.TrialBundle {
	now := s.now().UTC()
	email := strings.TrimSpace(req.Email)

	lead := models.Lead{
		ID:              uuid.NewString(),
		Name:            strings.TrimSpace(req.Name),
		Email:           email,
		Phone:           req.Phone,
		Company:         req.Company,
		Plan:            plan,
		RequiresInvoice: req.RequiresInvoice,
		TaxID:           strings.ToUpper(strings.TrimSpace(req.TaxID)),
		CreatedAt:       now,
	}
	user := models.User{
		ID:           uuid.NewString(),
		Username:     req.Username,
		PasswordHash: passwordHash,
		Email:        email,
		TrialActive:  true,
		CreatedAt:    now,
	}
	sub := models.Subscription{
		ID:              uuid.NewString(),
		UserID:          user.ID,
		LeadID:          lead.ID,
		Plan:            plan,
		BasePrice:       q.BasePrice,
		RequiresInvoice: req.RequiresInvoice,
		TaxAmount:       q.Tax,
		Total:           q.Total,
		Status:          models.StatusTrial,
		TrialStart:      now,
		TrialEnd:        now.Add(s.trialDuration),
		CreatedAt:       now,
		UpdatedAt:       now,
	}

	b := models.TrialBundle{Lead: lead, User: user, Subscription: sub}
	if req.RequiresInvoice {
		b.Invoice = &models.Invoice{
			ID:             uuid.NewString(),
			SubscriptionID: sub.ID,
			LeadID:         lead.ID,
			TaxID:          lead.TaxID,
			Subtotal:       q.BasePrice,
			Tax:            q.Tax,
			Total:          q.Total,
			Currency:       s.catalog.Currency,
			Status:         models.InvoicePending,
			CreatedAt:      now,
		}
	}
	return b
}

// publish отправляет письма о начале пробного периода и счёт. Сбой брокера
// не отменяет уже сохранённую заявку.
func (s *Service) publish(ctx context.Context, b models.TrialBundle) {
	trialEnd := b.Subscription.TrialEnd
	msgs := []models.Notification{{
		Kind:           models.NotifyTrialStarted,
		UserID:         b.User.ID,
		Username:       b.User.Username,
		Email:          b.User.Email,
		SubscriptionID: b.Subscription.ID,
		Plan:           b.Subscription.Plan,
		Until:          &trialEnd,
	}}
	if b.Invoice != nil {
		msgs = append(msgs, models.Notification{
			Kind:           models.NotifyInvoice,
			UserID:         b.User.ID,
			Username:       b.User.Username,
			Email:          b.User.Email,
			SubscriptionID: b.Subscription.ID,
			InvoiceID:      b.Invoice.ID,
			Plan:           b.Subscription.Plan,
			Total:          b.Invoice.Total,
			Currency:       b.Invoice.Currency,
		})
	}
	for _, n := range msgs {
		if err := s.notifier.Notify(ctx, n); err != nil {
			s.log.Error("failed to publish notification", sl.Err(err),
				slog.String("kind", n.Kind), slog.String("subscription_id", b.Subscription.ID))
		}
	}
}
