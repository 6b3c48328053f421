package store

import (
	"context"

	"github.com/google/uuid"

	"github.com/akhmadev/gym-membership-service/internal/domain"
	"github.com/akhmadev/gym-membership-service/internal/lifecycle"
	"github.com/akhmadev/gym-membership-service/internal/money"
)

// CreateSubscription создает абонемент через цикл оптимистичной мутации.
// Дата окончания и платежеспособность известны только серверу, поэтому
// локальная запись — осознанная догадка, помеченная как предварительная.
func (s *Store) CreateSubscription(ctx context.Context, clientID uuid.UUID, req domain.CreateSubscriptionRequest) (domain.Subscription, error) {
	now := s.now()

	provisional := domain.Subscription{
		ID:          uuid.New(),
		ClientID:    clientID,
		PlanID:      req.PlanID,
		Status:      lifecycle.InitialStatus(req.StartDate, now),
		StartDate:   req.StartDate,
		EndDate:     req.StartDate,
		Provisional: true,
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	listSnapshot := s.snapshotClientList(ctx, clientID)
	s.applyProvisionalSubscription(ctx, clientID, provisional, listSnapshot)

	authoritative, err := s.backend.CreateSubscription(ctx, clientID, req)
	if err != nil {
		s.rollbackProvisionalSubscription(ctx, clientID, provisional.ID, nil, listSnapshot)
		s.metrics.IncOptimisticRollback("create_subscription")
		s.log.Warnw("Subscription creation failed, optimistic record rolled back", "clientID", clientID, "error", err)
		return domain.Subscription{}, err
	}

	s.commitSubscription(ctx, clientID, provisional.ID, authoritative)
	s.log.Infow("Subscription created", "subscriptionID", authoritative.ID, "clientID", clientID, "status", authoritative.Status)
	return authoritative, nil
}

// RenewSubscription продлевает абонемент. Новая запись — отдельная
// сущность; исходный абонемент не изменяется ни локально, ни на сервере.
func (s *Store) RenewSubscription(ctx context.Context, clientID, subscriptionID uuid.UUID, req domain.RenewSubscriptionRequest) (domain.Subscription, error) {
	now := s.now()

	source, err := s.Subscription(ctx, clientID, subscriptionID)
	if err != nil {
		return domain.Subscription{}, err
	}

	// Новый период начинается сразу после текущего, если тот еще идет
	newStart := now
	if source.EndDate.After(now) && source.Status != domain.SubscriptionStatusCanceled {
		newStart = source.EndDate.AddDate(0, 0, 1)
	}

	planID := source.PlanID
	if req.PlanID != nil {
		planID = *req.PlanID
	}

	provisional := domain.Subscription{
		ID:          uuid.New(),
		ClientID:    clientID,
		PlanID:      planID,
		Status:      lifecycle.RenewalStatus(newStart, now),
		StartDate:   newStart,
		EndDate:     newStart,
		Provisional: true,
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	listSnapshot := s.snapshotClientList(ctx, clientID)
	s.applyProvisionalSubscription(ctx, clientID, provisional, listSnapshot)

	authoritative, err := s.backend.RenewSubscription(ctx, clientID, subscriptionID, req)
	if err != nil {
		s.rollbackProvisionalSubscription(ctx, clientID, provisional.ID, nil, listSnapshot)
		s.metrics.IncOptimisticRollback("renew_subscription")
		s.log.Warnw("Subscription renewal failed, optimistic record rolled back", "sourceID", subscriptionID, "error", err)
		return domain.Subscription{}, err
	}

	s.commitSubscription(ctx, clientID, provisional.ID, authoritative)
	s.log.Infow("Subscription renewed", "sourceID", subscriptionID, "newID", authoritative.ID, "status", authoritative.Status)
	return authoritative, nil
}

// CancelSubscription отменяет абонемент. Легальность перехода проверяется
// до запроса: нарушение бизнес-правила не стоит сетевого похода.
func (s *Store) CancelSubscription(ctx context.Context, clientID, subscriptionID uuid.UUID, req domain.CancelSubscriptionRequest) (domain.Subscription, error) {
	now := s.now()

	current, err := s.Subscription(ctx, clientID, subscriptionID)
	if err != nil {
		return domain.Subscription{}, err
	}

	canceled, err := lifecycle.Cancel(current, req.CancellationReason, now)
	if err != nil {
		return domain.Subscription{}, err
	}

	canceled.Provisional = true
	listSnapshot := s.snapshotClientList(ctx, clientID)
	s.applyProvisionalSubscription(ctx, clientID, canceled, listSnapshot)

	authoritative, err := s.backend.CancelSubscription(ctx, clientID, subscriptionID, req)
	if err != nil {
		s.rollbackProvisionalSubscription(ctx, clientID, subscriptionID, &current, listSnapshot)
		s.metrics.IncOptimisticRollback("cancel_subscription")
		s.log.Warnw("Subscription cancellation failed, optimistic record rolled back", "subscriptionID", subscriptionID, "error", err)
		return domain.Subscription{}, err
	}

	s.commitSubscription(ctx, clientID, subscriptionID, authoritative)
	s.log.Infow("Subscription canceled", "subscriptionID", subscriptionID, "reason", req.CancellationReason)
	return authoritative, nil
}

// RecordPayment проводит платеж. Правила журнала проверяются локально на
// данных внутри окна устаревания; источником истины остается сервер.
// Статус абонемента после платежа принимается из ответа бэкенда.
func (s *Store) RecordPayment(ctx context.Context, clientID, subscriptionID uuid.UUID, amount money.Amount, method domain.PaymentMethod) (domain.PaymentConfirmation, error) {
	now := s.now()

	if !method.IsValid() {
		return domain.PaymentConfirmation{}, domain.NewSubscriptionError(
			"INVALID_PAYMENT_METHOD", "unknown payment method "+string(method), subscriptionID.String(), domain.ErrInvalidData)
	}

	payments, err := s.Payments(ctx, subscriptionID, defaultPageLimit, 0)
	if err != nil {
		return domain.PaymentConfirmation{}, err
	}

	var statsRef *domain.PaymentStats
	stats, err := s.PaymentStats(ctx, subscriptionID)
	if err == nil {
		statsRef = &stats
	} else {
		// Статистика недоступна — валидация остатка долга уходит серверу
		s.log.Warnw("Payment stats unavailable, validating amount only", "subscriptionID", subscriptionID, "error", err)
	}

	if err := s.ledger.ValidateCharge(amount, statsRef, payments, now); err != nil {
		return domain.PaymentConfirmation{}, err
	}

	provisional := domain.Payment{
		ID:             uuid.New(),
		SubscriptionID: subscriptionID,
		Amount:         amount,
		PaymentMethod:  method,
		PaymentDate:    now,
		Provisional:    true,
		CreatedAt:      now,
	}

	if err := s.cache.SetPayments(ctx, subscriptionID, append(append([]domain.Payment{}, payments...), provisional)); err != nil {
		s.log.Warnw("Failed to cache provisional payment", "subscriptionID", subscriptionID, "error", err)
	}

	confirmation, err := s.backend.RecordPayment(ctx, subscriptionID, domain.RecordPaymentRequest{
		Amount:        amount.String(),
		PaymentMethod: method,
	})
	if err != nil {
		// Откат: возвращаем журнал к последнему подтвержденному снимку
		if cacheErr := s.cache.SetPayments(ctx, subscriptionID, payments); cacheErr != nil {
			s.log.Warnw("Failed to roll back provisional payment", "subscriptionID", subscriptionID, "error", cacheErr)
		}
		s.metrics.IncOptimisticRollback("record_payment")
		s.log.Warnw("Payment failed, optimistic ledger entry rolled back", "subscriptionID", subscriptionID, "amount", amount, "error", err)
		return domain.PaymentConfirmation{}, err
	}

	// Подтверждено: производные представления платежей устарели
	s.invalidate(ctx, "payments", s.cache.InvalidatePayments(ctx, subscriptionID))
	s.invalidate(ctx, "payment_stats", s.cache.InvalidatePaymentStats(ctx, subscriptionID))

	// Платеж мог переключить статус абонемента — принимаем серверный
	if cached, cacheErr := s.cache.GetSubscription(ctx, subscriptionID); cacheErr == nil && cached != nil {
		cached.Status = confirmation.SubscriptionStatus
		cached.Provisional = false
		cached.UpdatedAt = now
		if setErr := s.cache.SetSubscription(ctx, cached); setErr != nil {
			s.log.Warnw("Failed to update cached subscription status", "subscriptionID", subscriptionID, "error", setErr)
		}
	}
	s.invalidate(ctx, "active_subscription", s.cache.InvalidateActiveSubscription(ctx, clientID))
	s.invalidate(ctx, "client_subscriptions", s.cache.InvalidateClientSubscriptions(ctx, clientID))

	s.log.Infow("Payment recorded",
		"subscriptionID", subscriptionID,
		"paymentID", confirmation.Payment.ID,
		"amount", amount,
		"method", method,
		"subscriptionStatus", confirmation.SubscriptionStatus)
	return confirmation, nil
}

// ---------------------------------------------------------------------------
// Общие шаги цикла мутации
// ---------------------------------------------------------------------------

// snapshotClientList снимает последний подтвержденный снимок списка
// абонементов клиента; nil означает, что список не кеширован
func (s *Store) snapshotClientList(ctx context.Context, clientID uuid.UUID) []domain.Subscription {
	snapshot, err := s.cache.GetClientSubscriptions(ctx, clientID)
	if err != nil {
		s.log.Warnw("Failed to snapshot client subscriptions", "clientID", clientID, "error", err)
		return nil
	}
	return snapshot
}

// applyProvisionalSubscription вносит предварительную запись в кеш
func (s *Store) applyProvisionalSubscription(ctx context.Context, clientID uuid.UUID, sub domain.Subscription, listSnapshot []domain.Subscription) {
	if err := s.cache.SetSubscription(ctx, &sub); err != nil {
		s.log.Warnw("Failed to cache provisional subscription", "subscriptionID", sub.ID, "error", err)
	}

	if listSnapshot == nil {
		return
	}

	patched := make([]domain.Subscription, 0, len(listSnapshot)+1)
	replaced := false
	for i := range listSnapshot {
		if listSnapshot[i].ID == sub.ID {
			patched = append(patched, sub)
			replaced = true
			continue
		}
		patched = append(patched, listSnapshot[i])
	}
	if !replaced {
		patched = append(patched, sub)
	}

	if err := s.cache.SetClientSubscriptions(ctx, clientID, patched); err != nil {
		s.log.Warnw("Failed to patch cached client subscriptions", "clientID", clientID, "error", err)
	}
}

// rollbackProvisionalSubscription возвращает кеш к снимку до мутации.
// previous == nil означает, что записи до мутации не существовало.
func (s *Store) rollbackProvisionalSubscription(ctx context.Context, clientID, subscriptionID uuid.UUID, previous *domain.Subscription, listSnapshot []domain.Subscription) {
	if previous != nil {
		if err := s.cache.SetSubscription(ctx, previous); err != nil {
			s.log.Warnw("Failed to restore cached subscription", "subscriptionID", subscriptionID, "error", err)
		}
	} else {
		if err := s.cache.DeleteSubscription(ctx, subscriptionID); err != nil {
			s.log.Warnw("Failed to delete provisional subscription", "subscriptionID", subscriptionID, "error", err)
		}
	}

	if listSnapshot != nil {
		if err := s.cache.SetClientSubscriptions(ctx, clientID, listSnapshot); err != nil {
			s.log.Warnw("Failed to restore cached client subscriptions", "clientID", clientID, "error", err)
		}
	} else {
		if err := s.cache.InvalidateClientSubscriptions(ctx, clientID); err != nil {
			s.log.Warnw("Failed to invalidate client subscriptions", "clientID", clientID, "error", err)
		}
	}
}

// commitSubscription замещает предварительную запись авторитетной и
// помечает зависимые представления устаревшими
func (s *Store) commitSubscription(ctx context.Context, clientID, provisionalID uuid.UUID, authoritative domain.Subscription) {
	// Ответ сервера принимается как есть, но нарушение инвариантов в нем
	// стоит увидеть в логах до того, как оно всплывет в расчетах
	if err := authoritative.Validate(); err != nil {
		s.log.Warnw("Authoritative subscription violates invariants", "subscriptionID", authoritative.ID, "error", err)
	}

	if provisionalID != authoritative.ID {
		if err := s.cache.DeleteSubscription(ctx, provisionalID); err != nil {
			s.log.Warnw("Failed to drop provisional subscription", "subscriptionID", provisionalID, "error", err)
		}
	}

	if err := s.cache.SetSubscription(ctx, &authoritative); err != nil {
		s.log.Warnw("Failed to cache authoritative subscription", "subscriptionID", authoritative.ID, "error", err)
	}

	s.invalidate(ctx, "client_subscriptions", s.cache.InvalidateClientSubscriptions(ctx, clientID))
	s.invalidate(ctx, "active_subscription", s.cache.InvalidateActiveSubscription(ctx, clientID))
	s.invalidate(ctx, "payment_stats", s.cache.InvalidatePaymentStats(ctx, authoritative.ID))
}

// invalidate логирует неудачную инвалидацию; сама по себе она не фатальна,
// TTL все равно ограничивает жизнь устаревшей записи
func (s *Store) invalidate(ctx context.Context, view string, err error) {
	if err != nil {
		s.log.Warnw("Failed to invalidate dependent view", "view", view, "error", err)
	}
}
