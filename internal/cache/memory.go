package cache

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/akhmadev/gym-membership-service/internal/domain"
	"github.com/akhmadev/gym-membership-service/pkg/logger"
)

// MemoryCache реализует Cache в памяти процесса. Используется в тестах и
// при локальной разработке без Redis; семантика TTL и промахов совпадает
// с Redis-реализацией.
type MemoryCache struct {
	mu      sync.RWMutex
	entries map[string]memoryEntry
	ttl     time.Duration
	now     func() time.Time
	log     *logger.Logger
}

type memoryEntry struct {
	data      []byte
	expiresAt time.Time
}

// NewMemoryCache создает новый кеш в памяти
func NewMemoryCache(ttl time.Duration, log *logger.Logger) *MemoryCache {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &MemoryCache{
		entries: make(map[string]memoryEntry),
		ttl:     ttl,
		now:     time.Now,
		log:     log,
	}
}

// SetClock подменяет источник времени; нужен тестам окна устаревания
func (m *MemoryCache) SetClock(now func() time.Time) {
	m.mu.Lock()
	m.now = now
	m.mu.Unlock()
}

func (m *MemoryCache) set(key string, value interface{}) error {
	data, err := json.Marshal(value)
	if err != nil {
		return err
	}

	m.mu.Lock()
	m.entries[key] = memoryEntry{data: data, expiresAt: m.now().Add(m.ttl)}
	m.mu.Unlock()
	return nil
}

func (m *MemoryCache) get(key string, out interface{}) (bool, error) {
	m.mu.RLock()
	entry, ok := m.entries[key]
	now := m.now()
	m.mu.RUnlock()

	if !ok {
		return false, nil
	}

	// Истекшая запись равносильна промаху
	if now.After(entry.expiresAt) {
		m.mu.Lock()
		delete(m.entries, key)
		m.mu.Unlock()
		return false, nil
	}

	if err := json.Unmarshal(entry.data, out); err != nil {
		return false, err
	}
	return true, nil
}

func (m *MemoryCache) del(key string) {
	m.mu.Lock()
	delete(m.entries, key)
	m.mu.Unlock()
}

// GetSubscription получает абонемент из кеша
func (m *MemoryCache) GetSubscription(ctx context.Context, id uuid.UUID) (*domain.Subscription, error) {
	var sub domain.Subscription
	found, err := m.get(subscriptionKeyPrefix+id.String(), &sub)
	if err != nil || !found {
		return nil, err
	}
	return &sub, nil
}

// SetSubscription кеширует абонемент
func (m *MemoryCache) SetSubscription(ctx context.Context, sub *domain.Subscription) error {
	return m.set(subscriptionKeyPrefix+sub.ID.String(), sub)
}

// DeleteSubscription удаляет абонемент из кеша
func (m *MemoryCache) DeleteSubscription(ctx context.Context, id uuid.UUID) error {
	m.del(subscriptionKeyPrefix + id.String())
	return nil
}

// GetClientSubscriptions получает список абонементов клиента из кеша
func (m *MemoryCache) GetClientSubscriptions(ctx context.Context, clientID uuid.UUID) ([]domain.Subscription, error) {
	var subs []domain.Subscription
	found, err := m.get(clientSubscriptionsKeyPrefix+clientID.String(), &subs)
	if err != nil || !found {
		return nil, err
	}
	if subs == nil {
		subs = []domain.Subscription{}
	}
	return subs, nil
}

// SetClientSubscriptions кеширует список абонементов клиента
func (m *MemoryCache) SetClientSubscriptions(ctx context.Context, clientID uuid.UUID, subs []domain.Subscription) error {
	if subs == nil {
		subs = []domain.Subscription{}
	}
	return m.set(clientSubscriptionsKeyPrefix+clientID.String(), subs)
}

// InvalidateClientSubscriptions удаляет кеш списка абонементов клиента
func (m *MemoryCache) InvalidateClientSubscriptions(ctx context.Context, clientID uuid.UUID) error {
	m.del(clientSubscriptionsKeyPrefix + clientID.String())
	return nil
}

// GetActiveSubscription получает текущий абонемент клиента из кеша
func (m *MemoryCache) GetActiveSubscription(ctx context.Context, clientID uuid.UUID) (*domain.Subscription, error) {
	var sub domain.Subscription
	found, err := m.get(activeSubscriptionKeyPrefix+clientID.String(), &sub)
	if err != nil || !found {
		return nil, err
	}
	return &sub, nil
}

// SetActiveSubscription кеширует текущий абонемент клиента
func (m *MemoryCache) SetActiveSubscription(ctx context.Context, clientID uuid.UUID, sub *domain.Subscription) error {
	return m.set(activeSubscriptionKeyPrefix+clientID.String(), sub)
}

// InvalidateActiveSubscription удаляет кеш текущего абонемента клиента
func (m *MemoryCache) InvalidateActiveSubscription(ctx context.Context, clientID uuid.UUID) error {
	m.del(activeSubscriptionKeyPrefix + clientID.String())
	return nil
}

// GetPayments получает журнал платежей абонемента из кеша
func (m *MemoryCache) GetPayments(ctx context.Context, subscriptionID uuid.UUID) ([]domain.Payment, error) {
	var payments []domain.Payment
	found, err := m.get(paymentsKeyPrefix+subscriptionID.String(), &payments)
	if err != nil || !found {
		return nil, err
	}
	if payments == nil {
		payments = []domain.Payment{}
	}
	return payments, nil
}

// SetPayments кеширует журнал платежей абонемента
func (m *MemoryCache) SetPayments(ctx context.Context, subscriptionID uuid.UUID, payments []domain.Payment) error {
	if payments == nil {
		payments = []domain.Payment{}
	}
	return m.set(paymentsKeyPrefix+subscriptionID.String(), payments)
}

// InvalidatePayments удаляет кеш журнала платежей абонемента
func (m *MemoryCache) InvalidatePayments(ctx context.Context, subscriptionID uuid.UUID) error {
	m.del(paymentsKeyPrefix + subscriptionID.String())
	return nil
}

// GetPaymentStats получает платежную статистику абонемента из кеша
func (m *MemoryCache) GetPaymentStats(ctx context.Context, subscriptionID uuid.UUID) (*domain.PaymentStats, error) {
	var stats domain.PaymentStats
	found, err := m.get(paymentStatsKeyPrefix+subscriptionID.String(), &stats)
	if err != nil || !found {
		return nil, err
	}
	return &stats, nil
}

// SetPaymentStats кеширует платежную статистику абонемента
func (m *MemoryCache) SetPaymentStats(ctx context.Context, subscriptionID uuid.UUID, stats *domain.PaymentStats) error {
	return m.set(paymentStatsKeyPrefix+subscriptionID.String(), stats)
}

// InvalidatePaymentStats удаляет кеш платежной статистики абонемента
func (m *MemoryCache) InvalidatePaymentStats(ctx context.Context, subscriptionID uuid.UUID) error {
	m.del(paymentStatsKeyPrefix + subscriptionID.String())
	return nil
}
