package models

import "time"

// Lead - потенциальный клиент, оставивший заявку на пробный период.
type Lead struct {
	ID              string    `json:"id"`
	Name            string    `json:"name"`
	Email           string    `json:"email"`
	Phone           string    `json:"phone,omitempty"`
	Company         string    `json:"company,omitempty"`
	Plan            Plan      `json:"plan"`
	RequiresInvoice bool      `json:"requires_invoice"`
	TaxID           string    `json:"tax_id,omitempty"`
	CreatedAt       time.Time `json:"created_at"`
}

// LeadRequest используется для приёма заявки из JSON-запроса.
type LeadRequest struct {
	Name            string `json:"name" validate:"required,max=120"`
	Email           string `json:"email" validate:"required,email"`
	Phone           string `json:"phone,omitempty" validate:"omitempty,max=32"`
	Company         string `json:"company,omitempty" validate:"omitempty,max=120"`
	Plan            string `json:"plan" validate:"required,oneof=basico profesional empresarial"`
	RequiresInvoice bool   `json:"requires_invoice"`
	TaxID           string `json:"tax_id,omitempty" validate:"omitempty,max=20"`
	Username        string `json:"username" validate:"required,min=3,max=50"`
	Password        string `json:"password" validate:"required,min=6,max=72"`
}

// TrialBundle - всё, что создаётся атомарно при приёме заявки.
// Invoice равен nil, если счёт не запрошен.
type TrialBundle struct {
	Lead         Lead
	User         User
	Subscription Subscription
	Invoice      *Invoice
}
