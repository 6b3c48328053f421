// Package reward координирует применение награды-скидки к продлению.
// Операция двухфазная и намеренно не атомарная: продление проходит или
// падает само по себе, награда применяется вторым независимым запросом к
// уже созданному абонементу. Успешное продление с непримененной наградой —
// допустимое конечное состояние, а не ошибка; оно лишь доводится до
// оператора.
package reward

import (
	"context"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/akhmadev/gym-membership-service/internal/domain"
	"github.com/akhmadev/gym-membership-service/internal/metrics"
	"github.com/akhmadev/gym-membership-service/pkg/logger"
)

// Applier интерфейс применения награды на бэкенде
type Applier interface {
	ApplyReward(ctx context.Context, rewardID uuid.UUID, req domain.ApplyRewardRequest) error
}

// Coordinator применяет награды к абонементам, созданным продлением
type Coordinator struct {
	applier Applier
	metrics metrics.MembershipMetrics
	log     *logger.Logger
}

// NewCoordinator создает новый координатор наград
func NewCoordinator(applier Applier, m metrics.MembershipMetrics, log *logger.Logger) *Coordinator {
	return &Coordinator{
		applier: applier,
		metrics: m,
		log:     log,
	}
}

// SanitizeDiscount нормализует процент скидки из формы.
// Значение, которое не разбирается в конечное число диапазона [0, 100],
// трактуется как отсутствие скидки и не блокирует продление.
func (c *Coordinator) SanitizeDiscount(raw string) (string, bool) {
	if raw == "" {
		return "", false
	}

	p, err := decimal.NewFromString(raw)
	if err != nil {
		c.log.Warnw("Unparseable discount percentage treated as no discount", "raw", raw)
		return "", false
	}

	if p.IsNegative() || p.GreaterThan(decimal.NewFromInt(100)) {
		c.log.Warnw("Out-of-range discount percentage treated as no discount", "raw", raw)
		return "", false
	}

	return p.String(), true
}

// Apply применяет награду к НОВОМУ абонементу после успешного продления.
// Возвращенная ошибка — вторичное предупреждение: продление уже состоялось
// и не откатывается.
func (c *Coordinator) Apply(ctx context.Context, rw domain.Reward, sub domain.Subscription) error {
	discount, ok := c.SanitizeDiscount(rw.DiscountPercentage)
	if !ok {
		c.log.Warnw("Reward carries no usable discount, skipping application",
			"rewardID", rw.ID, "subscriptionID", sub.ID)
		return nil
	}

	err := c.applier.ApplyReward(ctx, rw.ID, domain.ApplyRewardRequest{
		SubscriptionID:     sub.ID,
		DiscountPercentage: discount,
	})
	if err != nil {
		c.metrics.IncRewardApplyFailed()
		c.log.Errorw("Reward application failed after successful renewal; renewal stands",
			"rewardID", rw.ID, "subscriptionID", sub.ID, "error", err)
		return err
	}

	c.metrics.IncRewardApplied()
	c.log.Infow("Reward applied", "rewardID", rw.ID, "subscriptionID", sub.ID, "discount", discount)
	return nil
}
