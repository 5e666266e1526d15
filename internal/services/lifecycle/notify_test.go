package lifecycle

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	"github.com/cvmanager/cvmanager/internal/models"
)

type PublisherMock struct {
	mock.Mock
}

func (m *PublisherMock) Notify(ctx context.Context, n models.Notification) error {
	return m.Called(ctx, n).Error(0)
}

func TestPublishingNotifier(t *testing.T) {
	end := t0.AddDate(1, 0, 0)
	tests := []struct {
		name string
		tr   models.Transition
		want models.Notification
	}{
		{
			name: "trial expired",
			tr:   models.Transition{SubscriptionID: "s1", UserID: "u1", From: models.StatusTrial, To: models.StatusExpired, At: t0},
			want: models.Notification{Kind: models.NotifyTrialExpired, UserID: "u1", SubscriptionID: "s1"},
		},
		{
			name: "activated",
			tr: models.Transition{SubscriptionID: "s1", UserID: "u1", From: models.StatusTrial, To: models.StatusActive,
				SubscriptionStart: &t0, SubscriptionEnd: &end, At: t0},
			want: models.Notification{Kind: models.NotifySubscriptionActivated, UserID: "u1", SubscriptionID: "s1", Until: &end},
		},
		{
			name: "subscription expired",
			tr:   models.Transition{SubscriptionID: "s1", UserID: "u1", From: models.StatusActive, To: models.StatusExpired, At: t0},
			want: models.Notification{Kind: models.NotifySubscriptionExpired, UserID: "u1", SubscriptionID: "s1"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			pub := new(PublisherMock)
			pub.On("Notify", mock.Anything, tt.want).Return(nil).Once()

			NewPublishingNotifier(pub, newNoopLogger()).TransitionApplied(context.Background(), tt.tr)

			pub.AssertExpectations(t)
		})
	}
}

func TestPublishingNotifier_UnknownTransitionIgnored(t *testing.T) {
	pub := new(PublisherMock)
	NewPublishingNotifier(pub, newNoopLogger()).TransitionApplied(context.Background(),
		models.Transition{From: models.StatusExpired, To: models.StatusCancelled, At: time.Now()})
	pub.AssertNotCalled(t, "Notify", mock.Anything, mock.Anything)
}

func TestPublishingNotifier_PublishErrorSwallowed(t *testing.T) {
	pub := new(PublisherMock)
	pub.On("Notify", mock.Anything, mock.Anything).Return(errors.New("broker down")).Once()

	assert.NotPanics(t, func() {
		NewPublishingNotifier(pub, newNoopLogger()).TransitionApplied(context.Background(),
			models.Transition{SubscriptionID: "s1", From: models.StatusTrial, To: models.StatusExpired, At: t0})
	})
	pub.AssertExpectations(t)
}
