package domain

import (
	"errors"
	"fmt"
)

// Application errors
var (
	// ErrNotFound запись не найдена
	ErrNotFound = errors.New("record not found")

	// ErrInvalidData неверные входные данные
	ErrInvalidData = errors.New("invalid input data")

	// ErrBackendUnavailable бэкенд недоступен или вернул ошибку транспорта
	ErrBackendUnavailable = errors.New("backend unavailable")

	// ErrPolicyViolation нарушение бизнес-правила (обобщенный sentinel,
	// конкретные нарушения оборачивают его)
	ErrPolicyViolation = errors.New("policy violation")

	// ErrNotCancelable абонемент в статусе, из которого отмена запрещена
	ErrNotCancelable = fmt.Errorf("subscription is not cancelable: %w", ErrPolicyViolation)

	// ErrAlreadyCanceled абонемент уже отменен
	ErrAlreadyCanceled = fmt.Errorf("subscription already canceled: %w", ErrPolicyViolation)

	// ErrRenewalTooEarly до конца периода осталось больше дней, чем допускает окно продления
	ErrRenewalTooEarly = fmt.Errorf("renewal window not yet open: %w", ErrPolicyViolation)

	// ErrPaymentExceedsDebt сумма платежа больше остатка долга
	ErrPaymentExceedsDebt = fmt.Errorf("payment exceeds remaining debt: %w", ErrPolicyViolation)

	// ErrDuplicatePartialPayment частичный платеж по абонементу уже проводился сегодня
	ErrDuplicatePartialPayment = fmt.Errorf("partial payment already recorded today: %w", ErrPolicyViolation)

	// ErrAlreadyPaid абонемент уже полностью оплачен
	ErrAlreadyPaid = fmt.Errorf("subscription already fully paid: %w", ErrPolicyViolation)
)

// SubscriptionError представляет ошибку операции над абонементом
type SubscriptionError struct {
	Code           string
	Message        string
	SubscriptionID string
	OriginalErr    error
}

// Error реализует интерфейс error
func (e *SubscriptionError) Error() string {
	if e.OriginalErr != nil {
		return fmt.Sprintf("subscription error [%s]: %s: %v (subscription_id: %s)", e.Code, e.Message, e.OriginalErr, e.SubscriptionID)
	}
	return fmt.Sprintf("subscription error [%s]: %s (subscription_id: %s)", e.Code, e.Message, e.SubscriptionID)
}

// Unwrap возвращает оригинальную ошибку
func (e *SubscriptionError) Unwrap() error {
	return e.OriginalErr
}

// NewSubscriptionError создает новую ошибку операции над абонементом
func NewSubscriptionError(code, message, subscriptionID string, err error) *SubscriptionError {
	return &SubscriptionError{
		Code:           code,
		Message:        message,
		SubscriptionID: subscriptionID,
		OriginalErr:    err,
	}
}

// RenewalBlockedError нарушение окна продления: продление возможно только
// когда до конца периода остается не больше разрешенного числа дней
type RenewalBlockedError struct {
	SubscriptionID string
	DaysRemaining  int
	WindowDays     int
}

// Error реализует интерфейс error
func (e *RenewalBlockedError) Error() string {
	return fmt.Sprintf("subscription %s has %d days remaining; renewal opens %d days before expiry",
		e.SubscriptionID, e.DaysRemaining, e.WindowDays)
}

// Unwrap возвращает sentinel нарушения окна продления
func (e *RenewalBlockedError) Unwrap() error {
	return ErrRenewalTooEarly
}

// NewRenewalBlockedError создает новую ошибку окна продления
func NewRenewalBlockedError(subscriptionID string, daysRemaining, windowDays int) *RenewalBlockedError {
	return &RenewalBlockedError{
		SubscriptionID: subscriptionID,
		DaysRemaining:  daysRemaining,
		WindowDays:     windowDays,
	}
}

// NotFoundError представляет ошибку "не найдено"
type NotFoundError struct {
	Entity string
	ID     string
}

// Error реализует интерфейс error
func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s with ID %s not found", e.Entity, e.ID)
}

// Is проверяет, является ли ошибка ошибкой типа "не найдено"
func (e *NotFoundError) Is(target error) bool {
	return target == ErrNotFound
}

// NewNotFoundError создает новую ошибку "не найдено"
func NewNotFoundError(entity, id string) *NotFoundError {
	return &NotFoundError{
		Entity: entity,
		ID:     id,
	}
}

// IsPolicyViolation отличает нарушение бизнес-правила от ошибки транспорта:
// первое исправимо пользователем, второе лечится повтором того же действия
func IsPolicyViolation(err error) bool {
	return errors.Is(err, ErrPolicyViolation)
}
