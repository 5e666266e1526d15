package models

import "time"

// InvoiceStatus - статус отправки счёта.
type InvoiceStatus string

const (
	InvoicePending InvoiceStatus = "pending"
	InvoiceSent    InvoiceStatus = "sent"
)

// Invoice фиксирует суммы подписки на момент её создания и больше не пересчитывается.
type Invoice struct {
	ID             string        `json:"id"`
	SubscriptionID string        `json:"subscription_id"`
	LeadID         string        `json:"lead_id,omitempty"`
	TaxID          string        `json:"tax_id,omitempty"`
	Subtotal       int64         `json:"subtotal"`
	Tax            int64         `json:"tax"`
	Total          int64         `json:"total"`
	Currency       string        `json:"currency"`
	Status         InvoiceStatus `json:"status"`
	CreatedAt      time.Time     `json:"created_at"`
	SentAt         *time.Time    `json:"sent_at,omitempty"`
}
