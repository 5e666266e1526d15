package lifecycle

import (
	"context"
	"log/slog"

	"github.com/cvmanager/cvmanager/internal/lib/sl"
	"github.com/cvmanager/cvmanager/internal/models"
)

// Publisher - брокер уведомлений.
type Publisher interface {
	Notify(ctx context.Context, n models.Notification) error
}

// PublishingNotifier превращает применённые переходы в уведомления для писем.
// Ошибки публикации только логируются: переход уже записан.
type PublishingNotifier struct {
	pub Publisher
	log *slog.Logger
}

// NewPublishingNotifier создаёт PublishingNotifier.
func NewPublishingNotifier(pub Publisher, log *slog.Logger) *PublishingNotifier {
	return &PublishingNotifier{pub: pub, log: log}
}

// TransitionApplied публикует уведомление о переходе.
func (n *PublishingNotifier) TransitionApplied(ctx context.Context, t models.Transition) {
	const op = "lifecycle.TransitionApplied"

	msg, ok := notificationFor(t)
	if !ok {
		return
	}
	if err := n.pub.Notify(ctx, msg); err != nil {
		n.log.Error("failed to publish transition notification",
			sl.Op(op),
			slog.String("subscription_id", t.SubscriptionID),
			slog.String("kind", msg.Kind),
			sl.Err(err),
		)
	}
}

func notificationFor(t models.Transition) (models.Notification, bool) {
	msg := models.Notification{
		UserID:         t.UserID,
		SubscriptionID: t.SubscriptionID,
	}
	switch {
	case t.From == models.StatusTrial && t.To == models.StatusExpired:
		msg.Kind = models.NotifyTrialExpired
	case t.To == models.StatusActive:
		msg.Kind = models.NotifySubscriptionActivated
		msg.Until = t.SubscriptionEnd
	case t.From == models.StatusActive && t.To == models.StatusExpired:
		msg.Kind = models.NotifySubscriptionExpired
	default:
		return models.Notification{}, false
	}
	return msg, true
}
