package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/cvmanager/cvmanager/internal/models"
)

// CreateTrial атомарно сохраняет лид, пользователя, подписку trial и, если он есть, счёт.
// Если имя пользователя занято, ничего не сохраняется и возвращается storage.ErrAlreadyExists.
func (s *Storage) CreateTrial(ctx context.Context, b models.TrialBundle) error {
	const op = "storage.CreateTrial"

	err := s.withTx(ctx, func(tx *sql.Tx) error {
		if err := insertLead(ctx, tx, b.Lead); err != nil {
			return err
		}
		if err := insertUser(ctx, tx, b.User); err != nil {
			return err
		}
		if err := insertSubscription(ctx, tx, b.Subscription); err != nil {
			return err
		}
		if b.Invoice != nil {
			return insertInvoice(ctx, tx, *b.Invoice)
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}

func insertLead(ctx context.Context, q querier, l models.Lead) error {
	_, err := q.ExecContext(ctx, `INSERT INTO leads
		(id, name, email, phone, company, plan, requires_invoice, tax_id, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`,
		l.ID, l.Name, l.Email, nullString(l.Phone), nullString(l.Company), string(l.Plan),
		l.RequiresInvoice, nullString(l.TaxID), l.CreatedAt)
	return mapError(err)
}
