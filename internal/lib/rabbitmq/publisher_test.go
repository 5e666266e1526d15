package rabbitmq

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/streadway/amqp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cvmanager/cvmanager/internal/models"
)

type publishCall struct {
	exchange, key string
	msg           amqp.Publishing
}

type fakeChannel struct {
	calls []publishCall
	err   error
}

func (f *fakeChannel) Publish(exchange, key string, _, _ bool, msg amqp.Publishing) error {
	f.calls = append(f.calls, publishCall{exchange: exchange, key: key, msg: msg})
	return f.err
}

func TestPublisher_Notify(t *testing.T) {
	ch := &fakeChannel{}
	p := NewPublisher(ch)

	n := models.Notification{Kind: models.NotifyTrialExpired, UserID: "u1", SubscriptionID: "s1"}
	require.NoError(t, p.Notify(context.Background(), n))

	require.Len(t, ch.calls, 1)
	call := ch.calls[0]
	assert.Equal(t, ExchangeNotifications, call.exchange)
	assert.Equal(t, models.NotifyTrialExpired, call.key)
	assert.Equal(t, "application/json", call.msg.ContentType)
	assert.Equal(t, amqp.Persistent, call.msg.DeliveryMode)

	var got models.Notification
	require.NoError(t, json.Unmarshal(call.msg.Body, &got))
	assert.Equal(t, n, got)
}

func TestPublisher_NotifyErrors(t *testing.T) {
	t.Run("publish fails", func(t *testing.T) {
		ch := &fakeChannel{err: errors.New("channel closed")}
		err := NewPublisher(ch).Notify(context.Background(), models.Notification{Kind: models.NotifyInvoice})
		require.Error(t, err)
		assert.Contains(t, err.Error(), "rabbitmq.PublishMessage")
	})

	t.Run("cancelled context", func(t *testing.T) {
		ch := &fakeChannel{}
		ctx, cancel := context.WithCancel(context.Background())
		cancel()
		err := NewPublisher(ch).Notify(ctx, models.Notification{Kind: models.NotifyInvoice})
		require.ErrorIs(t, err, context.Canceled)
		assert.Empty(t, ch.calls)
	})
}

func TestPublishMessage_MarshalError(t *testing.T) {
	badMsg := struct {
		Ch chan int `json:"ch"`
	}{Ch: make(chan int)}

	err := PublishMessage(&fakeChannel{}, "", "q", badMsg)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "rabbitmq.PublishMessage")
}

func TestDiscard(t *testing.T) {
	assert.NoError(t, Discard{}.Notify(context.Background(), models.Notification{}))
}

func TestGetNotificationQueues(t *testing.T) {
	queues := GetNotificationQueues()
	keys := make([]string, 0, len(queues))
	for _, q := range queues {
		assert.Equal(t, QueueEmail, q.QueueName)
		keys = append(keys, q.RoutingKey)
	}
	assert.ElementsMatch(t, []string{
		models.NotifyVerification, models.NotifyInvoice, models.NotifyTrialStarted,
		models.NotifyTrialExpired, models.NotifySubscriptionActivated, models.NotifySubscriptionExpired,
	}, keys)
}
