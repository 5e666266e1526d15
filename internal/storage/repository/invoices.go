package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/cvmanager/cvmanager/internal/models"
)

func insertInvoice(ctx context.Context, q querier, inv models.Invoice) error {
	_, err := q.ExecContext(ctx, `INSERT INTO invoices
		(id, subscription_id, lead_id, tax_id, subtotal, tax, total, currency, status, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`,
		inv.ID, inv.SubscriptionID, nullString(inv.LeadID), nullString(inv.TaxID),
		inv.Subtotal, inv.Tax, inv.Total, inv.Currency, string(inv.Status), inv.CreatedAt)
	return mapError(err)
}

// GetInvoice возвращает счёт по идентификатору.
func (s *Storage) GetInvoice(ctx context.Context, id string) (*models.Invoice, error) {
	const op = "storage.GetInvoice"
	var (
		inv           models.Invoice
		leadID, taxID sql.NullString
		status        string
		sentAt        sql.NullTime
	)
	err := s.DB.QueryRowContext(ctx, `SELECT id, subscription_id, lead_id, tax_id, subtotal, tax,
			total, currency, status, created_at, sent_at
		FROM invoices WHERE id = $1`, id).
		Scan(&inv.ID, &inv.SubscriptionID, &leadID, &taxID, &inv.Subtotal, &inv.Tax,
			&inv.Total, &inv.Currency, &status, &inv.CreatedAt, &sentAt)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, mapError(err))
	}
	inv.LeadID = leadID.String
	inv.TaxID = taxID.String
	inv.Status = models.InvoiceStatus(status)
	inv.SentAt = timePtr(sentAt)
	return &inv, nil
}

// MarkInvoiceSent переводит счёт в статус sent. Уже отправленный или
// отсутствующий счёт возвращает storage.ErrNotFound.
func (s *Storage) MarkInvoiceSent(ctx context.Context, id string, at time.Time) error {
	const op = "storage.MarkInvoiceSent"
	res, err := s.DB.ExecContext(ctx, `UPDATE invoices
		SET status = $1, sent_at = $2
		WHERE id = $3 AND status = $4`,
		string(models.InvoiceSent), at, id, string(models.InvoicePending))
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	if err := checkAffected(res); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}
