package ledger

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/akhmadev/gym-membership-service/internal/domain"
	"github.com/akhmadev/gym-membership-service/internal/money"
	"github.com/akhmadev/gym-membership-service/pkg/logger"
)

func newLedger() *Ledger {
	return New(logger.New(logger.ERROR))
}

func paymentOn(amount money.Amount, date time.Time) domain.Payment {
	return domain.Payment{
		ID:             uuid.New(),
		SubscriptionID: uuid.New(),
		Amount:         amount,
		PaymentMethod:  domain.PaymentMethodCash,
		PaymentDate:    date,
	}
}

func TestComputeStats(t *testing.T) {
	l := newLedger()
	day1 := time.Date(2025, 6, 1, 10, 0, 0, 0, time.UTC)
	day2 := day1.AddDate(0, 0, 1)

	t.Run("empty ledger carries full debt", func(t *testing.T) {
		stats := l.ComputeStats(nil, 100000)
		assert.Equal(t, 0, stats.TotalPayments)
		assert.Equal(t, money.Amount(0), stats.TotalAmountPaid)
		assert.Equal(t, money.Amount(100000), stats.RemainingDebt)
		assert.Nil(t, stats.LastPaymentDate)
	})

	t.Run("paid plus debt always equals price", func(t *testing.T) {
		payments := []domain.Payment{
			paymentOn(40000, day1),
			paymentOn(25000, day2),
		}

		stats := l.ComputeStats(payments, 100000)
		assert.Equal(t, 2, stats.TotalPayments)
		assert.Equal(t, money.Amount(65000), stats.TotalAmountPaid)
		assert.Equal(t, money.Amount(35000), stats.RemainingDebt)
		assert.Equal(t, stats.TotalAmountPaid+stats.RemainingDebt, money.Amount(100000))
		require.NotNil(t, stats.LastPaymentDate)
		assert.Equal(t, day2, *stats.LastPaymentDate)
	})

	t.Run("debt never goes negative", func(t *testing.T) {
		payments := []domain.Payment{paymentOn(120000, day1)}
		stats := l.ComputeStats(payments, 100000)
		assert.Equal(t, money.Amount(0), stats.RemainingDebt)
	})
}

func TestValidateCharge(t *testing.T) {
	l := newLedger()
	now := time.Date(2025, 6, 2, 14, 0, 0, 0, time.UTC)
	yesterday := now.AddDate(0, 0, -1)

	t.Run("partial then full settlement over two days", func(t *testing.T) {
		// Цена 100000: частичный платеж 40000, на следующий день 60000
		stats := &domain.PaymentStats{RemainingDebt: 100000}
		require.NoError(t, l.ValidateCharge(40000, stats, nil, yesterday))

		afterPartial := &domain.PaymentStats{TotalPayments: 1, TotalAmountPaid: 40000, RemainingDebt: 60000}
		history := []domain.Payment{paymentOn(40000, yesterday)}
		require.NoError(t, l.ValidateCharge(60000, afterPartial, history, now))
	})

	t.Run("second partial payment on the same day is rejected", func(t *testing.T) {
		stats := &domain.PaymentStats{TotalPayments: 1, TotalAmountPaid: 40000, RemainingDebt: 60000}
		history := []domain.Payment{paymentOn(40000, now.Add(-2 * time.Hour))}

		err := l.ValidateCharge(10000, stats, history, now)
		assert.ErrorIs(t, err, domain.ErrDuplicatePartialPayment)
	})

	t.Run("full settlement is exempt from the daily rule", func(t *testing.T) {
		stats := &domain.PaymentStats{TotalPayments: 1, TotalAmountPaid: 40000, RemainingDebt: 60000}
		history := []domain.Payment{paymentOn(40000, now.Add(-2 * time.Hour))}

		assert.NoError(t, l.ValidateCharge(60000, stats, history, now))
	})

	t.Run("overpayment is rejected", func(t *testing.T) {
		stats := &domain.PaymentStats{RemainingDebt: 60000}
		err := l.ValidateCharge(60001, stats, nil, now)
		assert.ErrorIs(t, err, domain.ErrPaymentExceedsDebt)
	})

	t.Run("settled subscription accepts no payments", func(t *testing.T) {
		stats := &domain.PaymentStats{TotalPayments: 2, TotalAmountPaid: 100000, RemainingDebt: 0}
		err := l.ValidateCharge(1, stats, nil, now)
		assert.ErrorIs(t, err, domain.ErrAlreadyPaid)
	})

	t.Run("non-positive amounts are invalid data", func(t *testing.T) {
		stats := &domain.PaymentStats{RemainingDebt: 60000}
		err := l.ValidateCharge(0, stats, nil, now)
		assert.ErrorIs(t, err, domain.ErrInvalidData)
	})

	t.Run("unknown debt defers to backend", func(t *testing.T) {
		assert.NoError(t, l.ValidateCharge(40000, nil, nil, now))
	})
}

func TestFullSettlementAmount(t *testing.T) {
	l := newLedger()

	stats := domain.PaymentStats{RemainingDebt: 35000}
	assert.Equal(t, money.Amount(35000), l.FullSettlementAmount(stats))

	assert.True(t, l.IsFullSettlement(35000, &stats))
	assert.False(t, l.IsFullSettlement(34999, &stats))
	assert.False(t, l.IsFullSettlement(35000, nil))
}
