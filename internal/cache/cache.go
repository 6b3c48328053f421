// Package cache хранит локальные копии данных бэкенда с ограниченным
// окном устаревания. Кеш — не источник истины: каждая запись живет не
// дольше TTL, а мутации инвалидируют зависимые представления.
package cache

import (
	"context"

	"github.com/google/uuid"

	"github.com/akhmadev/gym-membership-service/internal/domain"
)

// Cache интерфейс кеша данных бэкенда.
// Промах кеша возвращается как (nil, nil): отсутствие значения — не ошибка.
type Cache interface {
	GetSubscription(ctx context.Context, id uuid.UUID) (*domain.Subscription, error)
	SetSubscription(ctx context.Context, sub *domain.Subscription) error
	DeleteSubscription(ctx context.Context, id uuid.UUID) error

	GetClientSubscriptions(ctx context.Context, clientID uuid.UUID) ([]domain.Subscription, error)
	SetClientSubscriptions(ctx context.Context, clientID uuid.UUID, subs []domain.Subscription) error
	InvalidateClientSubscriptions(ctx context.Context, clientID uuid.UUID) error

	GetActiveSubscription(ctx context.Context, clientID uuid.UUID) (*domain.Subscription, error)
	SetActiveSubscription(ctx context.Context, clientID uuid.UUID, sub *domain.Subscription) error
	InvalidateActiveSubscription(ctx context.Context, clientID uuid.UUID) error

	GetPayments(ctx context.Context, subscriptionID uuid.UUID) ([]domain.Payment, error)
	SetPayments(ctx context.Context, subscriptionID uuid.UUID, payments []domain.Payment) error
	InvalidatePayments(ctx context.Context, subscriptionID uuid.UUID) error

	GetPaymentStats(ctx context.Context, subscriptionID uuid.UUID) (*domain.PaymentStats, error)
	SetPaymentStats(ctx context.Context, subscriptionID uuid.UUID, stats *domain.PaymentStats) error
	InvalidatePaymentStats(ctx context.Context, subscriptionID uuid.UUID) error
}

// Префиксы ключей для различных типов данных
const (
	subscriptionKeyPrefix        = "subscription:"
	clientSubscriptionsKeyPrefix = "client_subscriptions:"
	activeSubscriptionKeyPrefix  = "active_subscription:"
	paymentsKeyPrefix            = "payments:"
	paymentStatsKeyPrefix        = "payment_stats:"
)
