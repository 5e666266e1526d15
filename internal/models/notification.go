package models

import "time"

// Ключи маршрутизации уведомлений в обменнике notifications.
const (
	NotifyVerification          = "verification"
	NotifyInvoice               = "invoice"
	NotifyTrialStarted          = "trial_started"
	NotifyTrialExpired          = "trial_expired"
	NotifySubscriptionActivated = "subscription_activated"
	NotifySubscriptionExpired   = "subscription_expired"
)

// Notification - сообщение, публикуемое в RabbitMQ и обрабатываемое отправителем писем.
type Notification struct {
	Kind           string     `json:"kind"`
	UserID         string     `json:"user_id,omitempty"`
	Username       string     `json:"username,omitempty"`
	Email          string     `json:"email,omitempty"`
	Token          string     `json:"token,omitempty"`
	SubscriptionID string     `json:"subscription_id,omitempty"`
	InvoiceID      string     `json:"invoice_id,omitempty"`
	Plan           Plan       `json:"plan,omitempty"`
	Total          int64      `json:"total,omitempty"`
	Currency       string     `json:"currency,omitempty"`
	Until          *time.Time `json:"until,omitempty"`
}
