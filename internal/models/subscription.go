package models

import "time"

// SubscriptionStatus - состояние жизненного цикла подписки.
type SubscriptionStatus string

const (
	StatusTrial     SubscriptionStatus = "trial"
	StatusActive    SubscriptionStatus = "active"
	StatusExpired   SubscriptionStatus = "expired"
	StatusCancelled SubscriptionStatus = "cancelled"
)

// Terminal сообщает, что из состояния нет исходящих переходов.
func (s SubscriptionStatus) Terminal() bool {
	return s == StatusExpired || s == StatusCancelled
}

// Plan - тариф из фиксированного перечня.
type Plan string

const (
	PlanBasico      Plan = "basico"
	PlanProfesional Plan = "profesional"
	PlanEmpresarial Plan = "empresarial"
)

// Valid сообщает, входит ли тариф в фиксированный перечень.
func (p Plan) Valid() bool {
	switch p {
	case PlanBasico, PlanProfesional, PlanEmpresarial:
		return true
	}
	return false
}

// Subscription - подписка пользователя. Суммы хранятся в центах.
// Окно подписки (SubscriptionStart/SubscriptionEnd) заполняется только после активации.
type Subscription struct {
	ID                string             `json:"id"`
	UserID            string             `json:"user_id"`
	LeadID            string             `json:"lead_id,omitempty"`
	Plan              Plan               `json:"plan"`
	BasePrice         int64              `json:"base_price"`
	RequiresInvoice   bool               `json:"requires_invoice"`
	TaxAmount         int64              `json:"tax_amount"`
	Total             int64              `json:"total"`
	Status            SubscriptionStatus `json:"status"`
	TrialStart        time.Time          `json:"trial_start"`
	TrialEnd          time.Time          `json:"trial_end"`
	SubscriptionStart *time.Time         `json:"subscription_start,omitempty"`
	SubscriptionEnd   *time.Time         `json:"subscription_end,omitempty"`
	PaymentVerified   bool               `json:"payment_verified"`
	CreatedAt         time.Time          `json:"created_at"`
	UpdatedAt         time.Time          `json:"updated_at"`
}

// Transition описывает одно продвижение подписки вперёд по жизненному циклу.
// From используется как условие записи: обновление применяется, только если
// статус в хранилище всё ещё равен From.
type Transition struct {
	SubscriptionID    string
	UserID            string
	From              SubscriptionStatus
	To                SubscriptionStatus
	SubscriptionStart *time.Time
	SubscriptionEnd   *time.Time
	At                time.Time
}

type transitionKey struct {
	From SubscriptionStatus
	To   SubscriptionStatus
}

var validTransitions = map[transitionKey]bool{
	{StatusTrial, StatusActive}:   true,
	{StatusTrial, StatusExpired}:  true,
	{StatusActive, StatusExpired}: true,
}

// CanTransition проверяет, допустим ли переход from -> to.
func CanTransition(from, to SubscriptionStatus) bool {
	return validTransitions[transitionKey{from, to}]
}

// Apply возвращает копию подписки с применённым переходом.
func (t Transition) Apply(sub *Subscription) *Subscription {
	next := *sub
	next.Status = t.To
	if t.SubscriptionStart != nil {
		next.SubscriptionStart = t.SubscriptionStart
	}
	if t.SubscriptionEnd != nil {
		next.SubscriptionEnd = t.SubscriptionEnd
	}
	next.UpdatedAt = t.At
	return &next
}
