package lifecycle

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/akhmadev/gym-membership-service/internal/domain"
)

func newSubscription(status domain.SubscriptionStatus, start, end time.Time) domain.Subscription {
	return domain.Subscription{
		ID:        uuid.New(),
		ClientID:  uuid.New(),
		Status:    status,
		StartDate: start,
		EndDate:   end,
	}
}

func TestCanTransition(t *testing.T) {
	tests := []struct {
		name string
		from domain.SubscriptionStatus
		to   domain.SubscriptionStatus
		want bool
	}{
		{"pending payment activates on settlement", domain.SubscriptionStatusPendingPayment, domain.SubscriptionStatusActive, true},
		{"scheduled activates on start date", domain.SubscriptionStatusScheduled, domain.SubscriptionStatusActive, true},
		{"active expires", domain.SubscriptionStatusActive, domain.SubscriptionStatusExpired, true},
		{"scheduled can expire unstarted", domain.SubscriptionStatusScheduled, domain.SubscriptionStatusExpired, true},
		{"active cancels", domain.SubscriptionStatusActive, domain.SubscriptionStatusCanceled, true},
		{"pending payment cancels", domain.SubscriptionStatusPendingPayment, domain.SubscriptionStatusCanceled, true},
		{"scheduled cancels", domain.SubscriptionStatusScheduled, domain.SubscriptionStatusCanceled, true},
		{"expired does not cancel", domain.SubscriptionStatusExpired, domain.SubscriptionStatusCanceled, false},
		{"canceled does not cancel again", domain.SubscriptionStatusCanceled, domain.SubscriptionStatusCanceled, false},
		{"expired does not reactivate", domain.SubscriptionStatusExpired, domain.SubscriptionStatusActive, false},
		{"canceled does not reactivate", domain.SubscriptionStatusCanceled, domain.SubscriptionStatusActive, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, CanTransition(tt.from, tt.to))
		})
	}
}

func TestCancel(t *testing.T) {
	now := time.Date(2025, 6, 10, 12, 0, 0, 0, time.UTC)

	t.Run("cancels an active subscription", func(t *testing.T) {
		sub := newSubscription(domain.SubscriptionStatusActive, now.AddDate(0, -1, 0), now.AddDate(0, 1, 0))

		canceled, err := Cancel(sub, "client request", now)
		require.NoError(t, err)

		assert.Equal(t, domain.SubscriptionStatusCanceled, canceled.Status)
		require.NotNil(t, canceled.CancellationDate)
		assert.Equal(t, now, *canceled.CancellationDate)
		assert.Equal(t, "client request", canceled.CancellationReason)

		// Исходная запись не изменилась
		assert.Equal(t, domain.SubscriptionStatusActive, sub.Status)
		assert.Nil(t, sub.CancellationDate)
	})

	t.Run("double cancellation is a named error, not a no-op", func(t *testing.T) {
		sub := newSubscription(domain.SubscriptionStatusCanceled, now.AddDate(0, -1, 0), now.AddDate(0, 1, 0))

		_, err := Cancel(sub, "again", now)
		assert.ErrorIs(t, err, domain.ErrAlreadyCanceled)
		assert.True(t, domain.IsPolicyViolation(err))
	})

	t.Run("expired subscription is not cancelable", func(t *testing.T) {
		sub := newSubscription(domain.SubscriptionStatusExpired, now.AddDate(0, -2, 0), now.AddDate(0, -1, 0))

		_, err := Cancel(sub, "too late", now)
		assert.ErrorIs(t, err, domain.ErrNotCancelable)
	})

	t.Run("stored active with a past end date is not cancelable", func(t *testing.T) {
		// Статус в записи еще ACTIVE, но период закончился пять дней назад
		sub := newSubscription(domain.SubscriptionStatusActive, now.AddDate(0, -1, -5), now.AddDate(0, 0, -5))

		_, err := Cancel(sub, "too late", now)
		assert.ErrorIs(t, err, domain.ErrNotCancelable)
	})
}

func TestEffectiveStatus(t *testing.T) {
	now := time.Date(2025, 6, 10, 12, 0, 0, 0, time.UTC)

	t.Run("projects stale active subscription as expired", func(t *testing.T) {
		sub := newSubscription(domain.SubscriptionStatusActive, now.AddDate(0, -2, 0), now.AddDate(0, 0, -1))
		assert.Equal(t, domain.SubscriptionStatusExpired, EffectiveStatus(sub, now))
	})

	t.Run("end date today still counts as active", func(t *testing.T) {
		endToday := time.Date(2025, 6, 10, 0, 0, 0, 0, time.UTC)
		sub := newSubscription(domain.SubscriptionStatusActive, now.AddDate(0, -1, 0), endToday)
		assert.Equal(t, domain.SubscriptionStatusActive, EffectiveStatus(sub, now))
	})

	t.Run("terminal statuses are never projected", func(t *testing.T) {
		sub := newSubscription(domain.SubscriptionStatusCanceled, now.AddDate(0, -2, 0), now.AddDate(0, 0, -1))
		assert.Equal(t, domain.SubscriptionStatusCanceled, EffectiveStatus(sub, now))
	})
}

func TestInitialAndRenewalStatus(t *testing.T) {
	now := time.Date(2025, 6, 10, 12, 0, 0, 0, time.UTC)

	assert.Equal(t, domain.SubscriptionStatusScheduled, InitialStatus(now.AddDate(0, 0, 5), now))
	assert.Equal(t, domain.SubscriptionStatusPendingPayment, InitialStatus(now, now))

	assert.Equal(t, domain.SubscriptionStatusScheduled, RenewalStatus(now.AddDate(0, 0, 2), now))
	assert.Equal(t, domain.SubscriptionStatusActive, RenewalStatus(now, now))
}
