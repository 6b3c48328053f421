package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"github.com/akhmadev/gym-membership-service/internal/domain"
	"github.com/akhmadev/gym-membership-service/pkg/logger"
)

// DefaultTTL окно устаревания кеша по умолчанию. После истечения TTL
// следующее чтение обязано сходить за свежими данными, прежде чем на них
// можно опираться в расчетах долга и прав на продление.
const DefaultTTL = 15 * time.Minute

// RedisCache реализует Cache поверх Redis
type RedisCache struct {
	client *redis.Client
	ttl    time.Duration
	log    *logger.Logger
}

// NewRedisCache создает новый Redis-кеш и проверяет соединение
func NewRedisCache(addr, password string, db int, ttl time.Duration, log *logger.Logger) (*RedisCache, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		log.Errorw("Failed to connect to Redis", "error", err)
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}

	if ttl <= 0 {
		ttl = DefaultTTL
	}

	log.Infow("Connected to Redis successfully", "addr", addr, "ttl", ttl)
	return &RedisCache{
		client: client,
		ttl:    ttl,
		log:    log,
	}, nil
}

// Close закрывает соединение с Redis
func (r *RedisCache) Close() error {
	return r.client.Close()
}

// set сериализует значение и кладет его под ключ с TTL
func (r *RedisCache) set(ctx context.Context, key string, value interface{}) error {
	data, err := json.Marshal(value)
	if err != nil {
		r.log.Errorw("Failed to marshal value for caching", "error", err, "key", key)
		return fmt.Errorf("failed to marshal cache value: %w", err)
	}

	if err := r.client.Set(ctx, key, data, r.ttl).Err(); err != nil {
		r.log.Errorw("Failed to store value in Redis", "error", err, "key", key)
		return fmt.Errorf("failed to cache value: %w", err)
	}

	return nil
}

// get читает значение по ключу; промах возвращается как (false, nil)
func (r *RedisCache) get(ctx context.Context, key string, out interface{}) (bool, error) {
	data, err := r.client.Get(ctx, key).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return false, nil
		}
		r.log.Errorw("Error reading value from Redis", "error", err, "key", key)
		return false, fmt.Errorf("failed to read cache value: %w", err)
	}

	if err := json.Unmarshal(data, out); err != nil {
		r.log.Errorw("Failed to unmarshal cached value", "error", err, "key", key)
		return false, fmt.Errorf("failed to unmarshal cached value: %w", err)
	}

	return true, nil
}

// del удаляет ключ
func (r *RedisCache) del(ctx context.Context, key string) error {
	if err := r.client.Del(ctx, key).Err(); err != nil {
		r.log.Errorw("Failed to delete key from Redis", "error", err, "key", key)
		return fmt.Errorf("failed to invalidate cache key: %w", err)
	}
	return nil
}

// GetSubscription получает абонемент из кеша
func (r *RedisCache) GetSubscription(ctx context.Context, id uuid.UUID) (*domain.Subscription, error) {
	var sub domain.Subscription
	found, err := r.get(ctx, subscriptionKeyPrefix+id.String(), &sub)
	if err != nil || !found {
		return nil, err
	}
	return &sub, nil
}

// SetSubscription кеширует абонемент
func (r *RedisCache) SetSubscription(ctx context.Context, sub *domain.Subscription) error {
	return r.set(ctx, subscriptionKeyPrefix+sub.ID.String(), sub)
}

// DeleteSubscription удаляет абонемент из кеша
func (r *RedisCache) DeleteSubscription(ctx context.Context, id uuid.UUID) error {
	return r.del(ctx, subscriptionKeyPrefix+id.String())
}

// GetClientSubscriptions получает список абонементов клиента из кеша
func (r *RedisCache) GetClientSubscriptions(ctx context.Context, clientID uuid.UUID) ([]domain.Subscription, error) {
	var subs []domain.Subscription
	found, err := r.get(ctx, clientSubscriptionsKeyPrefix+clientID.String(), &subs)
	if err != nil || !found {
		return nil, err
	}
	if subs == nil {
		subs = []domain.Subscription{}
	}
	return subs, nil
}

// SetClientSubscriptions кеширует список абонементов клиента
func (r *RedisCache) SetClientSubscriptions(ctx context.Context, clientID uuid.UUID, subs []domain.Subscription) error {
	if subs == nil {
		subs = []domain.Subscription{}
	}
	return r.set(ctx, clientSubscriptionsKeyPrefix+clientID.String(), subs)
}

// InvalidateClientSubscriptions удаляет кеш списка абонементов клиента
func (r *RedisCache) InvalidateClientSubscriptions(ctx context.Context, clientID uuid.UUID) error {
	return r.del(ctx, clientSubscriptionsKeyPrefix+clientID.String())
}

// GetActiveSubscription получает текущий абонемент клиента из кеша
func (r *RedisCache) GetActiveSubscription(ctx context.Context, clientID uuid.UUID) (*domain.Subscription, error) {
	var sub domain.Subscription
	found, err := r.get(ctx, activeSubscriptionKeyPrefix+clientID.String(), &sub)
	if err != nil || !found {
		return nil, err
	}
	return &sub, nil
}

// SetActiveSubscription кеширует текущий абонемент клиента
func (r *RedisCache) SetActiveSubscription(ctx context.Context, clientID uuid.UUID, sub *domain.Subscription) error {
	return r.set(ctx, activeSubscriptionKeyPrefix+clientID.String(), sub)
}

// InvalidateActiveSubscription удаляет кеш текущего абонемента клиента
func (r *RedisCache) InvalidateActiveSubscription(ctx context.Context, clientID uuid.UUID) error {
	return r.del(ctx, activeSubscriptionKeyPrefix+clientID.String())
}

// GetPayments получает журнал платежей абонемента из кеша
func (r *RedisCache) GetPayments(ctx context.Context, subscriptionID uuid.UUID) ([]domain.Payment, error) {
	var payments []domain.Payment
	found, err := r.get(ctx, paymentsKeyPrefix+subscriptionID.String(), &payments)
	if err != nil || !found {
		return nil, err
	}
	if payments == nil {
		payments = []domain.Payment{}
	}
	return payments, nil
}

// SetPayments кеширует журнал платежей абонемента
func (r *RedisCache) SetPayments(ctx context.Context, subscriptionID uuid.UUID, payments []domain.Payment) error {
	if payments == nil {
		payments = []domain.Payment{}
	}
	return r.set(ctx, paymentsKeyPrefix+subscriptionID.String(), payments)
}

// InvalidatePayments удаляет кеш журнала платежей абонемента
func (r *RedisCache) InvalidatePayments(ctx context.Context, subscriptionID uuid.UUID) error {
	return r.del(ctx, paymentsKeyPrefix+subscriptionID.String())
}

// GetPaymentStats получает платежную статистику абонемента из кеша
func (r *RedisCache) GetPaymentStats(ctx context.Context, subscriptionID uuid.UUID) (*domain.PaymentStats, error) {
	var stats domain.PaymentStats
	found, err := r.get(ctx, paymentStatsKeyPrefix+subscriptionID.String(), &stats)
	if err != nil || !found {
		return nil, err
	}
	return &stats, nil
}

// SetPaymentStats кеширует платежную статистику абонемента
func (r *RedisCache) SetPaymentStats(ctx context.Context, subscriptionID uuid.UUID, stats *domain.PaymentStats) error {
	return r.set(ctx, paymentStatsKeyPrefix+subscriptionID.String(), stats)
}

// InvalidatePaymentStats удаляет кеш платежной статистики абонемента
func (r *RedisCache) InvalidatePaymentStats(ctx context.Context, subscriptionID uuid.UUID) error {
	return r.del(ctx, paymentStatsKeyPrefix+subscriptionID.String())
}
