package lifecycle

import (
	"time"

	"github.com/cvmanager/cvmanager/internal/models"
)

// Outcome различает разрешение, отказ по состоянию подписки и отказ из-за ошибки.
type Outcome int

const (
	OutcomeAllowed Outcome = iota
	OutcomeDenied
	OutcomeError
)

func (o Outcome) String() string {
	switch o {
	case OutcomeAllowed:
		return "allowed"
	case OutcomeDenied:
		return "denied"
	case OutcomeError:
		return "error"
	default:
		return "unknown"
	}
}

// Decision - результат оценки подписки.
// Для HTTP-слоя важно только Allowed и Message; Outcome и Err нужны для логов и метрик.
type Decision struct {
	Allowed         bool                      `json:"allowed"`
	Status          models.SubscriptionStatus `json:"status,omitempty"`
	Message         string                    `json:"message,omitempty"`
	TrialEnd        *time.Time                `json:"trialEnd,omitempty"`
	SubscriptionEnd *time.Time                `json:"subscriptionEnd,omitempty"`
	Outcome         Outcome                   `json:"-"`
	Err             error                     `json:"-"`
}

// ExpireTrial - правило окончания пробного периода, общее для оценки и для sweep.
// Если окно trial ещё не закончилось, перехода нет. Оплаченная подписка
// активируется на один календарный год с момента now, неоплаченная истекает.
func ExpireTrial(sub *models.Subscription, now time.Time) (models.Transition, bool) {
	if sub.Status != models.StatusTrial || !now.After(sub.TrialEnd) {
		return models.Transition{}, false
	}
	t := models.Transition{
		SubscriptionID: sub.ID,
		UserID:         sub.UserID,
		From:           models.StatusTrial,
		To:             models.StatusExpired,
		At:             now,
	}
	if sub.PaymentVerified {
		start := now
		end := now.AddDate(1, 0, 0)
		t.To = models.StatusActive
		t.SubscriptionStart = &start
		t.SubscriptionEnd = &end
	}
	return t, true
}

// Next возвращает единственный переход вперёд, который нужно выполнить в момент now.
func Next(sub *models.Subscription, now time.Time) (models.Transition, bool) {
	switch sub.Status {
	case models.StatusTrial:
		return ExpireTrial(sub, now)
	case models.StatusActive:
		if sub.SubscriptionEnd != nil && now.After(*sub.SubscriptionEnd) {
			return models.Transition{
				SubscriptionID: sub.ID,
				UserID:         sub.UserID,
				From:           models.StatusActive,
				To:             models.StatusExpired,
				At:             now,
			}, true
		}
	}
	return models.Transition{}, false
}

// decide строит решение для подписки, которой не нужен переход.
func decide(sub *models.Subscription) Decision {
	switch sub.Status {
	case models.StatusTrial:
		trialEnd := sub.TrialEnd
		return Decision{Allowed: true, Status: sub.Status, TrialEnd: &trialEnd, Outcome: OutcomeAllowed}
	case models.StatusActive:
		return Decision{Allowed: true, Status: sub.Status, SubscriptionEnd: sub.SubscriptionEnd, Outcome: OutcomeAllowed}
	default:
		return deny(sub.Status, MsgNotActive)
	}
}

// transitioned строит решение сразу после применённого перехода.
func transitioned(t models.Transition, sub *models.Subscription) Decision {
	switch {
	case t.To == models.StatusActive:
		return Decision{Allowed: true, Status: sub.Status, SubscriptionEnd: sub.SubscriptionEnd, Outcome: OutcomeAllowed}
	case t.From == models.StatusTrial:
		return deny(sub.Status, MsgTrialExpired)
	default:
		return deny(sub.Status, MsgSubscriptionExpired)
	}
}

func deny(status models.SubscriptionStatus, msg string) Decision {
	return Decision{Status: status, Message: msg, Outcome: OutcomeDenied}
}

func failure(err error) Decision {
	return Decision{Message: MsgVerifyFailed, Outcome: OutcomeError, Err: err}
}
