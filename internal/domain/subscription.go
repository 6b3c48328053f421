package domain

import (
	"time"

	"github.com/google/uuid"

	"github.com/akhmadev/gym-membership-service/internal/money"
)

// SubscriptionStatus статус абонемента
type SubscriptionStatus string

const (
	SubscriptionStatusActive         SubscriptionStatus = "ACTIVE"
	SubscriptionStatusExpired        SubscriptionStatus = "EXPIRED"
	SubscriptionStatusPendingPayment SubscriptionStatus = "PENDING_PAYMENT"
	SubscriptionStatusCanceled       SubscriptionStatus = "CANCELED"
	SubscriptionStatusScheduled      SubscriptionStatus = "SCHEDULED"
)

// IsValid проверяет, что статус входит в закрытый набор значений
func (s SubscriptionStatus) IsValid() bool {
	switch s {
	case SubscriptionStatusActive, SubscriptionStatusExpired,
		SubscriptionStatusPendingPayment, SubscriptionStatusCanceled,
		SubscriptionStatusScheduled:
		return true
	}
	return false
}

// Subscription представляет собой один период членства клиента.
// Записи принадлежат бэкенду; локально хранится только кешируемая копия.
// Поле Provisional выставляется на оптимистичных записях до подтверждения
// сервером и никогда не приходит в ответах бэкенда.
type Subscription struct {
	ID                 uuid.UUID          `json:"id"`
	ClientID           uuid.UUID          `json:"client_id"`
	PlanID             uuid.UUID          `json:"plan_id"`
	Status             SubscriptionStatus `json:"status"`
	StartDate          time.Time          `json:"start_date"`
	EndDate            time.Time          `json:"end_date"`
	CancellationDate   *time.Time         `json:"cancellation_date,omitempty"`
	CancellationReason string             `json:"cancellation_reason,omitempty"`
	Provisional        bool               `json:"provisional,omitempty"`
	CreatedAt          time.Time          `json:"created_at"`
	UpdatedAt          time.Time          `json:"updated_at"`
}

// Validate проверяет инварианты записи абонемента
func (s *Subscription) Validate() error {
	if !s.Status.IsValid() {
		return NewSubscriptionError("INVALID_STATUS", "unknown subscription status", s.ID.String(), ErrInvalidData)
	}

	if s.EndDate.Before(s.StartDate) {
		return NewSubscriptionError("INVALID_PERIOD", "end date precedes start date", s.ID.String(), ErrInvalidData)
	}

	// cancellation_date выставлена тогда и только тогда, когда статус CANCELED
	if (s.CancellationDate != nil) != (s.Status == SubscriptionStatusCanceled) {
		return NewSubscriptionError("INVALID_CANCELLATION", "cancellation date must be set exactly when status is CANCELED", s.ID.String(), ErrInvalidData)
	}

	return nil
}

// Plan представляет собой покупаемый вариант членства
type Plan struct {
	ID           uuid.UUID    `json:"id"`
	Name         string       `json:"name"`
	Price        money.Amount `json:"price"`
	DurationDays int          `json:"duration_days"`
	Active       bool         `json:"active"`
	CreatedAt    time.Time    `json:"created_at"`
	UpdatedAt    time.Time    `json:"updated_at"`
}

// CreateSubscriptionRequest запрос на создание абонемента
type CreateSubscriptionRequest struct {
	PlanID    uuid.UUID `json:"plan_id" binding:"required"`
	StartDate time.Time `json:"start_date" binding:"required"`
}

// RenewSubscriptionRequest запрос на продление абонемента.
// Процент скидки опционален и передается строкой, как его прислала форма.
type RenewSubscriptionRequest struct {
	PlanID             *uuid.UUID `json:"plan_id,omitempty"`
	DiscountPercentage string     `json:"discount_percentage,omitempty"`
}

// CancelSubscriptionRequest запрос на отмену абонемента
type CancelSubscriptionRequest struct {
	CancellationReason string `json:"cancellation_reason,omitempty"`
}
