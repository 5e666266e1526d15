package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/cvmanager/cvmanager/internal/models"
	"github.com/cvmanager/cvmanager/internal/storage"
)

const subscriptionColumns = `id, user_id, lead_id, plan, base_price, requires_invoice,
	tax_amount, total, status, trial_start, trial_end, subscription_start,
	subscription_end, payment_verified, created_at, updated_at`

type rowScanner interface {
	Scan(dest ...any) error
}

func insertSubscription(ctx context.Context, q querier, sub models.Subscription) error {
	_, err := q.ExecContext(ctx, `INSERT INTO subscriptions (`+subscriptionColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16)`,
		sub.ID, sub.UserID, nullString(sub.LeadID), string(sub.Plan), sub.BasePrice,
		sub.RequiresInvoice, sub.TaxAmount, sub.Total, string(sub.Status),
		sub.TrialStart, sub.TrialEnd, nullTime(sub.SubscriptionStart), nullTime(sub.SubscriptionEnd),
		sub.PaymentVerified, sub.CreatedAt, sub.UpdatedAt)
	return mapError(err)
}

// GetSubscription возвращает подписку по идентификатору.
func (s *Storage) GetSubscription(ctx context.Context, id string) (*models.Subscription, error) {
	const op = "storage.GetSubscription"
	row := s.DB.QueryRowContext(ctx, `SELECT `+subscriptionColumns+` FROM subscriptions WHERE id = $1`, id)
	sub, err := scanSubscription(row)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, mapError(err))
	}
	return sub, nil
}

// LatestSubscriptionByUser возвращает последнюю созданную подписку пользователя.
func (s *Storage) LatestSubscriptionByUser(ctx context.Context, userID string) (*models.Subscription, error) {
	const op = "storage.LatestSubscriptionByUser"
	row := s.DB.QueryRowContext(ctx, `SELECT `+subscriptionColumns+`
		FROM subscriptions
		WHERE user_id = $1
		ORDER BY created_at DESC, id DESC
		LIMIT 1`, userID)
	sub, err := scanSubscription(row)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, mapError(err))
	}
	return sub, nil
}

// ListExpiredTrials возвращает подписки trial, окно которых закончилось раньше now.
func (s *Storage) ListExpiredTrials(ctx context.Context, now time.Time) ([]*models.Subscription, error) {
	const op = "storage.ListExpiredTrials"
	rows, err := s.DB.QueryContext(ctx, `SELECT `+subscriptionColumns+`
		FROM subscriptions
		WHERE status = $1 AND trial_end < $2
		ORDER BY trial_end`, string(models.StatusTrial), now)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	defer func() {
		_ = rows.Close()
	}()

	var result []*models.Subscription
	for rows.Next() {
		sub, err := scanSubscription(rows)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		result = append(result, sub)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return result, nil
}

// TransitionSubscription применяет переход условным обновлением: запись меняется,
// только если её статус всё ещё равен t.From. Если статус уже другой,
// возвращается storage.ErrStaleWrite.
func (s *Storage) TransitionSubscription(ctx context.Context, t models.Transition) error {
	const op = "storage.TransitionSubscription"
	res, err := s.DB.ExecContext(ctx, `UPDATE subscriptions
		SET status = $1,
		    subscription_start = COALESCE($2::timestamptz, subscription_start),
		    subscription_end = COALESCE($3::timestamptz, subscription_end),
		    updated_at = $4
		WHERE id = $5 AND status = $6`,
		string(t.To), nullTime(t.SubscriptionStart), nullTime(t.SubscriptionEnd), t.At,
		t.SubscriptionID, string(t.From))
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	err = checkAffected(res)
	if err == nil {
		return nil
	}
	if !errors.Is(err, storage.ErrNotFound) {
		return fmt.Errorf("%s: %w", op, err)
	}

	var exists bool
	if err := s.DB.QueryRowContext(ctx,
		`SELECT EXISTS (SELECT 1 FROM subscriptions WHERE id = $1)`, t.SubscriptionID).Scan(&exists); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	if !exists {
		return fmt.Errorf("%s: %w", op, storage.ErrNotFound)
	}
	return storage.ErrStaleWrite
}

// SetPaymentVerified отмечает оплату подписки как подтверждённую.
func (s *Storage) SetPaymentVerified(ctx context.Context, id string, at time.Time) error {
	const op = "storage.SetPaymentVerified"
	res, err := s.DB.ExecContext(ctx, `UPDATE subscriptions
		SET payment_verified = true, updated_at = $1
		WHERE id = $2`, at, id)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	if err := checkAffected(res); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}

func scanSubscription(row rowScanner) (*models.Subscription, error) {
	var (
		sub              models.Subscription
		leadID           sql.NullString
		plan, status     string
		subStart, subEnd sql.NullTime
	)
	if err := row.Scan(&sub.ID, &sub.UserID, &leadID, &plan, &sub.BasePrice, &sub.RequiresInvoice,
		&sub.TaxAmount, &sub.Total, &status, &sub.TrialStart, &sub.TrialEnd, &subStart, &subEnd,
		&sub.PaymentVerified, &sub.CreatedAt, &sub.UpdatedAt); err != nil {
		return nil, err
	}
	sub.LeadID = leadID.String
	sub.Plan = models.Plan(plan)
	sub.Status = models.SubscriptionStatus(status)
	sub.SubscriptionStart = timePtr(subStart)
	sub.SubscriptionEnd = timePtr(subEnd)
	return &sub, nil
}
