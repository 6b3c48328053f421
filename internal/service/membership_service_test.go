package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/akhmadev/gym-membership-service/internal/cache"
	"github.com/akhmadev/gym-membership-service/internal/domain"
	"github.com/akhmadev/gym-membership-service/internal/ledger"
	"github.com/akhmadev/gym-membership-service/internal/metrics"
	"github.com/akhmadev/gym-membership-service/internal/money"
	"github.com/akhmadev/gym-membership-service/internal/reward"
	"github.com/akhmadev/gym-membership-service/internal/store"
	"github.com/akhmadev/gym-membership-service/pkg/logger"
)

// MockBackend мок бэкенда; одновременно служит применителем наград
type MockBackend struct {
	mock.Mock
}

func (m *MockBackend) CreateSubscription(ctx context.Context, clientID uuid.UUID, req domain.CreateSubscriptionRequest) (domain.Subscription, error) {
	args := m.Called(ctx, clientID, req)
	return args.Get(0).(domain.Subscription), args.Error(1)
}

func (m *MockBackend) ListSubscriptions(ctx context.Context, clientID uuid.UUID, limit, offset int) ([]domain.Subscription, error) {
	args := m.Called(ctx, clientID, limit, offset)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.Subscription), args.Error(1)
}

func (m *MockBackend) GetActiveSubscription(ctx context.Context, clientID uuid.UUID) (domain.Subscription, error) {
	args := m.Called(ctx, clientID)
	return args.Get(0).(domain.Subscription), args.Error(1)
}

func (m *MockBackend) RenewSubscription(ctx context.Context, clientID, subscriptionID uuid.UUID, req domain.RenewSubscriptionRequest) (domain.Subscription, error) {
	args := m.Called(ctx, clientID, subscriptionID, req)
	return args.Get(0).(domain.Subscription), args.Error(1)
}

func (m *MockBackend) CancelSubscription(ctx context.Context, clientID, subscriptionID uuid.UUID, req domain.CancelSubscriptionRequest) (domain.Subscription, error) {
	args := m.Called(ctx, clientID, subscriptionID, req)
	return args.Get(0).(domain.Subscription), args.Error(1)
}

func (m *MockBackend) RecordPayment(ctx context.Context, subscriptionID uuid.UUID, req domain.RecordPaymentRequest) (domain.PaymentConfirmation, error) {
	args := m.Called(ctx, subscriptionID, req)
	return args.Get(0).(domain.PaymentConfirmation), args.Error(1)
}

func (m *MockBackend) ListPayments(ctx context.Context, subscriptionID uuid.UUID, limit, offset int) ([]domain.Payment, error) {
	args := m.Called(ctx, subscriptionID, limit, offset)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.Payment), args.Error(1)
}

func (m *MockBackend) GetPaymentStats(ctx context.Context, subscriptionID uuid.UUID) (domain.PaymentStats, error) {
	args := m.Called(ctx, subscriptionID)
	return args.Get(0).(domain.PaymentStats), args.Error(1)
}

func (m *MockBackend) ApplyReward(ctx context.Context, rewardID uuid.UUID, req domain.ApplyRewardRequest) error {
	args := m.Called(ctx, rewardID, req)
	return args.Error(0)
}

var testNow = time.Date(2025, 6, 10, 12, 0, 0, 0, time.UTC)

type fixture struct {
	backend *MockBackend
	cache   *cache.MemoryCache
	service *membershipService
}

func newFixture() *fixture {
	log := logger.New(logger.ERROR)
	backend := new(MockBackend)
	mem := cache.NewMemoryCache(15*time.Minute, log)
	mem.SetClock(func() time.Time { return testNow })

	m := metrics.NewMembershipMetrics(prometheus.NewRegistry(), log)
	ldg := ledger.New(log)

	st := store.New(backend, mem, ldg, m, log)
	st.SetClock(func() time.Time { return testNow })

	coordinator := reward.NewCoordinator(backend, m, log)
	svc := NewMembershipService(st, ldg, coordinator, nil, m, log).(*membershipService)
	svc.now = func() time.Time { return testNow }

	return &fixture{backend: backend, cache: mem, service: svc}
}

func subscriptionEnding(clientID uuid.UUID, end time.Time) domain.Subscription {
	return domain.Subscription{
		ID:        uuid.New(),
		ClientID:  clientID,
		PlanID:    uuid.New(),
		Status:    domain.SubscriptionStatusActive,
		StartDate: end.AddDate(0, -1, 0),
		EndDate:   end,
	}
}

func TestRenew(t *testing.T) {
	ctx := context.Background()
	clientID := uuid.New()

	t.Run("blocked by eligibility window without any backend call", func(t *testing.T) {
		f := newFixture()
		source := subscriptionEnding(clientID, testNow.AddDate(0, 0, 10))
		require.NoError(t, f.cache.SetSubscription(ctx, &source))

		_, err := f.service.Renew(ctx, clientID, source.ID, domain.RenewSubscriptionRequest{}, nil)
		assert.ErrorIs(t, err, domain.ErrRenewalTooEarly)

		f.backend.AssertNotCalled(t, "RenewSubscription", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("renews within the window", func(t *testing.T) {
		f := newFixture()
		source := subscriptionEnding(clientID, testNow.AddDate(0, 0, 2))
		require.NoError(t, f.cache.SetSubscription(ctx, &source))

		renewed := subscriptionEnding(clientID, testNow.AddDate(0, 1, 2))
		f.backend.On("RenewSubscription", ctx, clientID, source.ID, mock.Anything).Return(renewed, nil).Once()

		result, err := f.service.Renew(ctx, clientID, source.ID, domain.RenewSubscriptionRequest{}, nil)
		require.NoError(t, err)
		assert.Equal(t, renewed.ID, result.Subscription.ID)
		assert.NoError(t, result.RewardErr)
	})

	t.Run("failed reward application leaves the renewal standing", func(t *testing.T) {
		f := newFixture()
		source := subscriptionEnding(clientID, testNow.AddDate(0, 0, 1))
		require.NoError(t, f.cache.SetSubscription(ctx, &source))

		renewed := subscriptionEnding(clientID, testNow.AddDate(0, 1, 1))
		f.backend.On("RenewSubscription", ctx, clientID, source.ID, mock.Anything).Return(renewed, nil).Once()
		f.backend.On("GetPaymentStats", ctx, renewed.ID).Return(domain.PaymentStats{RemainingDebt: 100000}, nil).Once()

		cause := errors.New("reward backend down")
		f.backend.On("ApplyReward", ctx, mock.Anything, mock.Anything).Return(cause).Once()

		rw := &domain.Reward{ID: uuid.New(), ClientID: clientID, DiscountPercentage: "15"}
		result, err := f.service.Renew(ctx, clientID, source.ID, domain.RenewSubscriptionRequest{DiscountPercentage: "15"}, rw)

		// Продление состоялось; неудача награды — лишь предупреждение
		require.NoError(t, err)
		assert.Equal(t, renewed.ID, result.Subscription.ID)
		assert.ErrorIs(t, result.RewardErr, cause)
	})

	t.Run("discount is projected into the renewal price", func(t *testing.T) {
		f := newFixture()
		source := subscriptionEnding(clientID, testNow.AddDate(0, 0, 1))
		require.NoError(t, f.cache.SetSubscription(ctx, &source))

		renewed := subscriptionEnding(clientID, testNow.AddDate(0, 1, 1))
		f.backend.On("RenewSubscription", ctx, clientID, source.ID, mock.Anything).Return(renewed, nil).Once()
		f.backend.On("GetPaymentStats", ctx, renewed.ID).Return(domain.PaymentStats{
			TotalAmountPaid: 20000,
			RemainingDebt:   80000,
			TotalPayments:   1,
		}, nil).Once()

		result, err := f.service.Renew(ctx, clientID, source.ID, domain.RenewSubscriptionRequest{DiscountPercentage: "15"}, nil)
		require.NoError(t, err)

		// 15% от полной цены 100000
		require.NotNil(t, result.DiscountedPrice)
		assert.Equal(t, money.Amount(85000), *result.DiscountedPrice)
	})

	t.Run("stats outage skips the price projection, not the renewal", func(t *testing.T) {
		f := newFixture()
		source := subscriptionEnding(clientID, testNow.AddDate(0, 0, 1))
		require.NoError(t, f.cache.SetSubscription(ctx, &source))

		renewed := subscriptionEnding(clientID, testNow.AddDate(0, 1, 1))
		f.backend.On("RenewSubscription", ctx, clientID, source.ID, mock.Anything).Return(renewed, nil).Once()
		f.backend.On("GetPaymentStats", ctx, renewed.ID).
			Return(domain.PaymentStats{}, domain.ErrBackendUnavailable).Once()

		result, err := f.service.Renew(ctx, clientID, source.ID, domain.RenewSubscriptionRequest{DiscountPercentage: "15"}, nil)
		require.NoError(t, err)
		assert.Equal(t, renewed.ID, result.Subscription.ID)
		assert.Nil(t, result.DiscountedPrice)
	})

	t.Run("unusable discount is dropped, renewal proceeds without it", func(t *testing.T) {
		f := newFixture()
		source := subscriptionEnding(clientID, testNow.AddDate(0, 0, 1))
		require.NoError(t, f.cache.SetSubscription(ctx, &source))

		renewed := subscriptionEnding(clientID, testNow.AddDate(0, 1, 1))
		f.backend.On("RenewSubscription", ctx, clientID, source.ID, domain.RenewSubscriptionRequest{}).Return(renewed, nil).Once()

		_, err := f.service.Renew(ctx, clientID, source.ID, domain.RenewSubscriptionRequest{DiscountPercentage: "not-a-number"}, nil)
		require.NoError(t, err)
		f.backend.AssertExpectations(t)
	})
}

func TestRecordPayment(t *testing.T) {
	ctx := context.Background()
	clientID := uuid.New()

	t.Run("invalid amount string never reaches the store", func(t *testing.T) {
		f := newFixture()

		_, err := f.service.RecordPayment(ctx, clientID, uuid.New(), domain.RecordPaymentRequest{
			Amount:        "400.50",
			PaymentMethod: domain.PaymentMethodCash,
		})
		assert.ErrorIs(t, err, money.ErrInvalidAmount)

		f.backend.AssertNotCalled(t, "RecordPayment", mock.Anything, mock.Anything, mock.Anything)
	})
}

func TestClientSubscriptionsProjection(t *testing.T) {
	ctx := context.Background()
	clientID := uuid.New()
	f := newFixture()

	// Сохраненный статус еще ACTIVE, но период закончился вчера
	stale := subscriptionEnding(clientID, testNow.AddDate(0, 0, -1))
	f.backend.On("ListSubscriptions", ctx, clientID, 50, 0).Return([]domain.Subscription{stale}, nil).Once()

	subs, err := f.service.ClientSubscriptions(ctx, clientID, 0, 0)
	require.NoError(t, err)
	require.Len(t, subs, 1)
	assert.Equal(t, domain.SubscriptionStatusExpired, subs[0].Status)
}

func TestFullSettlementAmount(t *testing.T) {
	ctx := context.Background()
	f := newFixture()
	subID := uuid.New()

	f.backend.On("GetPaymentStats", ctx, subID).Return(domain.PaymentStats{
		TotalPayments:   1,
		TotalAmountPaid: 40000,
		RemainingDebt:   60000,
	}, nil).Once()

	amount, err := f.service.FullSettlementAmount(ctx, subID)
	require.NoError(t, err)
	assert.Equal(t, money.Amount(60000), amount)
}
