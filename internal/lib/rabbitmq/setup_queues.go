package rabbitmq

import "github.com/cvmanager/cvmanager/internal/models"

// ExchangeNotifications - direct-обменник, в который публикуются все уведомления.
const ExchangeNotifications = "notifications"

// QueueEmail - очередь отправителя писем.
const QueueEmail = "notifications.email"

// QueueConfig описывает привязку очереди к ключу маршрутизации.
type QueueConfig struct {
	QueueName  string
	RoutingKey string
}

// GetNotificationQueues возвращает привязки очереди писем ко всем видам уведомлений.
func GetNotificationQueues() []QueueConfig {
	kinds := []string{
		models.NotifyVerification,
		models.NotifyInvoice,
		models.NotifyTrialStarted,
		models.NotifyTrialExpired,
		models.NotifySubscriptionActivated,
		models.NotifySubscriptionExpired,
	}
	queues := make([]QueueConfig, 0, len(kinds))
	for _, kind := range kinds {
		queues = append(queues, QueueConfig{QueueName: QueueEmail, RoutingKey: kind})
	}
	return queues
}
