package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/akhmadev/gym-membership-service/internal/money"
	"github.com/akhmadev/gym-membership-service/pkg/logger"
)

// MembershipMetrics интерфейс для метрик членства
type MembershipMetrics interface {
	IncSubscriptionCreated()
	IncSubscriptionRenewed()
	IncSubscriptionCanceled()
	IncPaymentRecorded(method string)
	ObservePaymentAmount(amount money.Amount, method string)
	IncOptimisticRollback(operation string)
	IncRewardApplied()
	IncRewardApplyFailed()
}

type membershipMetrics struct {
	log                 *logger.Logger
	subscriptionsTotal  *prometheus.CounterVec
	paymentsRecorded    *prometheus.CounterVec
	paymentsAmount      *prometheus.HistogramVec
	optimisticRollbacks *prometheus.CounterVec
	rewardsTotal        *prometheus.CounterVec
}

// NewMembershipMetrics создает новые метрики членства
func NewMembershipMetrics(registry *prometheus.Registry, log *logger.Logger) MembershipMetrics {
	subscriptionsTotal := promauto.With(registry).NewCounterVec(
		prometheus.CounterOpts{
			Name: "membership_subscriptions_total",
			Help: "The total number of subscription mutations by kind",
		},
		[]string{"kind"},
	)

	paymentsRecorded := promauto.With(registry).NewCounterVec(
		prometheus.CounterOpts{
			Name: "membership_payments_recorded_total",
			Help: "The total number of recorded payments by method",
		},
		[]string{"method"},
	)

	paymentsAmount := promauto.With(registry).NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "membership_payments_amount",
			Help:    "Payment amounts distribution in minimal currency units",
			Buckets: prometheus.ExponentialBuckets(1000, 10, 6),
		},
		[]string{"method"},
	)

	optimisticRollbacks := promauto.With(registry).NewCounterVec(
		prometheus.CounterOpts{
			Name: "membership_optimistic_rollbacks_total",
			Help: "The total number of optimistic mutations rolled back by operation",
		},
		[]string{"operation"},
	)

	rewardsTotal := promauto.With(registry).NewCounterVec(
		prometheus.CounterOpts{
			Name: "membership_rewards_total",
			Help: "The total number of reward applications by outcome",
		},
		[]string{"outcome"},
	)

	return &membershipMetrics{
		log:                 log,
		subscriptionsTotal:  subscriptionsTotal,
		paymentsRecorded:    paymentsRecorded,
		paymentsAmount:      paymentsAmount,
		optimisticRollbacks: optimisticRollbacks,
		rewardsTotal:        rewardsTotal,
	}
}

// IncSubscriptionCreated увеличивает счетчик созданных абонементов
func (m *membershipMetrics) IncSubscriptionCreated() {
	m.subscriptionsTotal.WithLabelValues("created").Inc()
}

// IncSubscriptionRenewed увеличивает счетчик продлений
func (m *membershipMetrics) IncSubscriptionRenewed() {
	m.subscriptionsTotal.WithLabelValues("renewed").Inc()
}

// IncSubscriptionCanceled увеличивает счетчик отмен
func (m *membershipMetrics) IncSubscriptionCanceled() {
	m.subscriptionsTotal.WithLabelValues("canceled").Inc()
}

// IncPaymentRecorded увеличивает счетчик проведенных платежей
func (m *membershipMetrics) IncPaymentRecorded(method string) {
	m.paymentsRecorded.WithLabelValues(method).Inc()
}

// ObservePaymentAmount записывает сумму платежа
func (m *membershipMetrics) ObservePaymentAmount(amount money.Amount, method string) {
	m.paymentsAmount.WithLabelValues(method).Observe(float64(amount))
}

// IncOptimisticRollback увеличивает счетчик откатов оптимистичных мутаций
func (m *membershipMetrics) IncOptimisticRollback(operation string) {
	m.optimisticRollbacks.WithLabelValues(operation).Inc()
}

// IncRewardApplied увеличивает счетчик примененных наград
func (m *membershipMetrics) IncRewardApplied() {
	m.rewardsTotal.WithLabelValues("applied").Inc()
}

// IncRewardApplyFailed увеличивает счетчик наград, не примененных после
// успешного продления
func (m *membershipMetrics) IncRewardApplyFailed() {
	m.rewardsTotal.WithLabelValues("failed").Inc()
}
