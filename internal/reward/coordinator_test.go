package reward

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	"github.com/akhmadev/gym-membership-service/internal/domain"
	"github.com/akhmadev/gym-membership-service/internal/metrics"
	"github.com/akhmadev/gym-membership-service/pkg/logger"
)

// MockApplier мок применения награды на бэкенде
type MockApplier struct {
	mock.Mock
}

func (m *MockApplier) ApplyReward(ctx context.Context, rewardID uuid.UUID, req domain.ApplyRewardRequest) error {
	args := m.Called(ctx, rewardID, req)
	return args.Error(0)
}

func newCoordinator(applier Applier) *Coordinator {
	log := logger.New(logger.ERROR)
	m := metrics.NewMembershipMetrics(prometheus.NewRegistry(), log)
	return NewCoordinator(applier, m, log)
}

func TestSanitizeDiscount(t *testing.T) {
	c := newCoordinator(nil)

	tests := []struct {
		name   string
		raw    string
		want   string
		wantOK bool
	}{
		{"whole percentage", "15", "15", true},
		{"fractional percentage", "12.5", "12.5", true},
		{"boundary zero", "0", "0", true},
		{"boundary hundred", "100", "100", true},
		{"empty means no discount", "", "", false},
		{"negative is unusable", "-5", "", false},
		{"above hundred is unusable", "150", "", false},
		{"word is unusable", "fifteen", "", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := c.SanitizeDiscount(tt.raw)
			assert.Equal(t, tt.wantOK, ok)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestApply(t *testing.T) {
	ctx := context.Background()
	sub := domain.Subscription{ID: uuid.New(), ClientID: uuid.New()}

	t.Run("applies usable discount to the renewed subscription", func(t *testing.T) {
		applier := new(MockApplier)
		c := newCoordinator(applier)
		rw := domain.Reward{ID: uuid.New(), ClientID: sub.ClientID, DiscountPercentage: "20"}

		applier.On("ApplyReward", ctx, rw.ID, domain.ApplyRewardRequest{
			SubscriptionID:     sub.ID,
			DiscountPercentage: "20",
		}).Return(nil)

		assert.NoError(t, c.Apply(ctx, rw, sub))
		applier.AssertExpectations(t)
	})

	t.Run("unusable discount skips the call entirely", func(t *testing.T) {
		applier := new(MockApplier)
		c := newCoordinator(applier)
		rw := domain.Reward{ID: uuid.New(), ClientID: sub.ClientID, DiscountPercentage: "abc"}

		assert.NoError(t, c.Apply(ctx, rw, sub))
		applier.AssertNotCalled(t, "ApplyReward", mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("failed application surfaces as a warning error", func(t *testing.T) {
		applier := new(MockApplier)
		c := newCoordinator(applier)
		rw := domain.Reward{ID: uuid.New(), ClientID: sub.ClientID, DiscountPercentage: "10"}

		cause := errors.New("backend down")
		applier.On("ApplyReward", ctx, rw.ID, mock.Anything).Return(cause)

		err := c.Apply(ctx, rw, sub)
		assert.ErrorIs(t, err, cause)
	})
}
