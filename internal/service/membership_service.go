package service

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/akhmadev/gym-membership-service/internal/domain"
	"github.com/akhmadev/gym-membership-service/internal/kafka/producer"
	"github.com/akhmadev/gym-membership-service/internal/ledger"
	"github.com/akhmadev/gym-membership-service/internal/lifecycle"
	"github.com/akhmadev/gym-membership-service/internal/metrics"
	"github.com/akhmadev/gym-membership-service/internal/money"
	"github.com/akhmadev/gym-membership-service/internal/reward"
	"github.com/akhmadev/gym-membership-service/internal/store"
	"github.com/akhmadev/gym-membership-service/pkg/logger"
)

// RenewalResult итог продления. RewardErr заполняется, когда продление
// прошло, а награда не применилась: это вторичное предупреждение для
// оператора, а не ошибка операции. DiscountedPrice — цена нового периода
// с учетом скидки, когда ее удалось вывести.
type RenewalResult struct {
	Subscription    domain.Subscription
	DiscountedPrice *money.Amount
	RewardErr       error
}

// MembershipService интерфейс сервиса для работы с членствами
type MembershipService interface {
	CreateSubscription(ctx context.Context, clientID uuid.UUID, req domain.CreateSubscriptionRequest) (domain.Subscription, error)
	ClientSubscriptions(ctx context.Context, clientID uuid.UUID, limit, offset int) ([]domain.Subscription, error)
	ActiveSubscription(ctx context.Context, clientID uuid.UUID) (domain.Subscription, error)
	Renew(ctx context.Context, clientID, subscriptionID uuid.UUID, req domain.RenewSubscriptionRequest, rw *domain.Reward) (RenewalResult, error)
	Cancel(ctx context.Context, clientID, subscriptionID uuid.UUID, reason string) (domain.Subscription, error)
	Eligibility(ctx context.Context, clientID, subscriptionID uuid.UUID) (lifecycle.Eligibility, error)

	RecordPayment(ctx context.Context, clientID, subscriptionID uuid.UUID, req domain.RecordPaymentRequest) (domain.PaymentConfirmation, error)
	Payments(ctx context.Context, subscriptionID uuid.UUID, limit, offset int) ([]domain.Payment, error)
	PaymentStats(ctx context.Context, subscriptionID uuid.UUID) (domain.PaymentStats, error)
	FullSettlementAmount(ctx context.Context, subscriptionID uuid.UUID) (money.Amount, error)
}

type membershipService struct {
	store   *store.Store
	ledger  *ledger.Ledger
	rewards *reward.Coordinator
	events  producer.EventProducer
	metrics metrics.MembershipMetrics
	log     *logger.Logger
	now     func() time.Time
}

// NewMembershipService создает новый сервис членств
func NewMembershipService(
	st *store.Store,
	ldg *ledger.Ledger,
	rewards *reward.Coordinator,
	events producer.EventProducer,
	m metrics.MembershipMetrics,
	log *logger.Logger,
) MembershipService {
	return &membershipService{
		store:   st,
		ledger:  ldg,
		rewards: rewards,
		events:  events,
		metrics: m,
		log:     log,
		now:     time.Now,
	}
}

// CreateSubscription создает новый абонемент клиента
func (s *membershipService) CreateSubscription(ctx context.Context, clientID uuid.UUID, req domain.CreateSubscriptionRequest) (domain.Subscription, error) {
	s.log.Debug("Creating subscription for client: %s, plan: %s", clientID, req.PlanID)

	sub, err := s.store.CreateSubscription(ctx, clientID, req)
	if err != nil {
		return domain.Subscription{}, err
	}

	s.metrics.IncSubscriptionCreated()
	s.publish(func() error { return s.events.PublishSubscriptionCreated(ctx, sub) })

	return sub, nil
}

// ClientSubscriptions возвращает абонементы клиента с проекцией истечения
func (s *membershipService) ClientSubscriptions(ctx context.Context, clientID uuid.UUID, limit, offset int) ([]domain.Subscription, error) {
	subs, err := s.store.ClientSubscriptions(ctx, clientID, limit, offset)
	if err != nil {
		return nil, err
	}

	projected := make([]domain.Subscription, len(subs))
	for i := range subs {
		projected[i] = s.project(subs[i])
	}
	return projected, nil
}

// ActiveSubscription возвращает текущий абонемент клиента
func (s *membershipService) ActiveSubscription(ctx context.Context, clientID uuid.UUID) (domain.Subscription, error) {
	sub, err := s.store.ActiveSubscription(ctx, clientID)
	if err != nil {
		return domain.Subscription{}, err
	}
	return s.project(sub), nil
}

// Renew продлевает абонемент и, при наличии награды, применяет ее к новой
// записи второй независимой операцией
func (s *membershipService) Renew(ctx context.Context, clientID, subscriptionID uuid.UUID, req domain.RenewSubscriptionRequest, rw *domain.Reward) (RenewalResult, error) {
	s.log.Debug("Renewing subscription %s for client %s", subscriptionID, clientID)

	source, err := s.store.Subscription(ctx, clientID, subscriptionID)
	if err != nil {
		return RenewalResult{}, err
	}

	// Окно продления проверяется до сетевого похода
	if err := lifecycle.CheckRenewable(source, s.now()); err != nil {
		s.log.Warnw("Renewal blocked by eligibility window", "subscriptionID", subscriptionID, "error", err)
		return RenewalResult{}, err
	}

	// Нечитаемый процент скидки не блокирует продление
	discount := ""
	if req.DiscountPercentage != "" {
		if sanitized, ok := s.rewards.SanitizeDiscount(req.DiscountPercentage); ok {
			req.DiscountPercentage = sanitized
			discount = sanitized
		} else {
			req.DiscountPercentage = ""
		}
	}

	renewed, err := s.store.RenewSubscription(ctx, clientID, subscriptionID, req)
	if err != nil {
		return RenewalResult{}, err
	}

	s.metrics.IncSubscriptionRenewed()
	s.publish(func() error { return s.events.PublishSubscriptionCreated(ctx, renewed) })

	result := RenewalResult{Subscription: renewed}

	// Процент скидки переводится в поправку к цене нового периода, чтобы
	// оператор видел итоговую сумму. Цена выводится из статистики:
	// оплачено + остаток долга.
	if discount != "" {
		if price, priceErr := s.renewalPrice(ctx, renewed.ID); priceErr == nil {
			if discounted, discErr := money.ApplyDiscount(price, discount); discErr == nil {
				result.DiscountedPrice = &discounted
				s.log.Infow("Renewal price adjusted by reward discount",
					"subscriptionID", renewed.ID, "discount", discount, "price", price, "discounted", discounted)
			}
		}
	}

	// Вторая фаза: неудача применения награды не откатывает продление
	if rw != nil {
		if applyErr := s.rewards.Apply(ctx, *rw, renewed); applyErr != nil {
			result.RewardErr = applyErr
			s.publish(func() error { return s.events.PublishRewardApplyFailed(ctx, rw.ID.String(), renewed, applyErr) })
		} else {
			s.publish(func() error { return s.events.PublishRewardApplied(ctx, rw.ID.String(), renewed) })
		}
	}

	return result, nil
}

// Cancel отменяет абонемент
func (s *membershipService) Cancel(ctx context.Context, clientID, subscriptionID uuid.UUID, reason string) (domain.Subscription, error) {
	s.log.Debug("Cancelling subscription %s for client %s", subscriptionID, clientID)

	sub, err := s.store.CancelSubscription(ctx, clientID, subscriptionID, domain.CancelSubscriptionRequest{
		CancellationReason: reason,
	})
	if err != nil {
		return domain.Subscription{}, err
	}

	s.metrics.IncSubscriptionCanceled()
	s.publish(func() error { return s.events.PublishSubscriptionCanceled(ctx, sub) })

	return sub, nil
}

// Eligibility оценивает права на продление и отмену абонемента
func (s *membershipService) Eligibility(ctx context.Context, clientID, subscriptionID uuid.UUID) (lifecycle.Eligibility, error) {
	sub, err := s.store.Subscription(ctx, clientID, subscriptionID)
	if err != nil {
		return lifecycle.Eligibility{}, err
	}

	return lifecycle.Evaluate(sub, s.now()), nil
}

// RecordPayment проводит платеж по абонементу
func (s *membershipService) RecordPayment(ctx context.Context, clientID, subscriptionID uuid.UUID, req domain.RecordPaymentRequest) (domain.PaymentConfirmation, error) {
	amount, err := money.ParsePositive(req.Amount)
	if err != nil {
		s.log.Warnw("Rejected payment with invalid amount", "subscriptionID", subscriptionID, "amount", req.Amount)
		return domain.PaymentConfirmation{}, err
	}

	confirmation, err := s.store.RecordPayment(ctx, clientID, subscriptionID, amount, req.PaymentMethod)
	if err != nil {
		return domain.PaymentConfirmation{}, err
	}

	s.metrics.IncPaymentRecorded(string(req.PaymentMethod))
	s.metrics.ObservePaymentAmount(amount, string(req.PaymentMethod))
	s.publish(func() error {
		return s.events.PublishPaymentRecorded(ctx, confirmation.Payment, confirmation.SubscriptionStatus)
	})

	return confirmation, nil
}

// Payments возвращает журнал платежей абонемента
func (s *membershipService) Payments(ctx context.Context, subscriptionID uuid.UUID, limit, offset int) ([]domain.Payment, error) {
	return s.store.Payments(ctx, subscriptionID, limit, offset)
}

// PaymentStats возвращает платежную статистику абонемента
func (s *membershipService) PaymentStats(ctx context.Context, subscriptionID uuid.UUID) (domain.PaymentStats, error) {
	return s.store.PaymentStats(ctx, subscriptionID)
}

// FullSettlementAmount точная сумма полного погашения для намерения
// "оплатить полностью"
func (s *membershipService) FullSettlementAmount(ctx context.Context, subscriptionID uuid.UUID) (money.Amount, error) {
	stats, err := s.store.PaymentStats(ctx, subscriptionID)
	if err != nil {
		return 0, err
	}
	return s.ledger.FullSettlementAmount(stats), nil
}

// renewalPrice полная цена нового периода, выведенная из платежной
// статистики. Недоступная статистика не мешает продлению.
func (s *membershipService) renewalPrice(ctx context.Context, subscriptionID uuid.UUID) (money.Amount, error) {
	stats, err := s.store.PaymentStats(ctx, subscriptionID)
	if err != nil {
		s.log.Warnw("Cannot derive renewal price for discount projection", "subscriptionID", subscriptionID, "error", err)
		return 0, err
	}
	return stats.TotalAmountPaid + stats.RemainingDebt, nil
}

// project накладывает проекцию истечения на момент чтения
func (s *membershipService) project(sub domain.Subscription) domain.Subscription {
	sub.Status = lifecycle.EffectiveStatus(sub, s.now())
	return sub
}

// publish отправляет событие; неудача публикации не валит операцию
func (s *membershipService) publish(fn func() error) {
	if s.events == nil {
		return
	}
	if err := fn(); err != nil {
		s.log.Errorw("Failed to publish membership event", "error", err)
	}
}
