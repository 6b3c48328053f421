// Package lifecycle владеет статусом абонемента: легальностью переходов,
// производным истечением и правом на отмену/продление. Остальной код только
// рендерит эти решения и никогда не пересчитывает их сам.
package lifecycle

import (
	"sort"
	"time"

	"github.com/akhmadev/gym-membership-service/internal/domain"
)

// Transition описывает один легальный переход между статусами
type Transition struct {
	From domain.SubscriptionStatus
	To   domain.SubscriptionStatus
}

// validTransitions закрытая таблица легальных переходов.
// Продление сюда не входит: оно создает новую сущность и никогда не
// изменяет исходную запись.
var validTransitions = map[Transition]bool{
	{domain.SubscriptionStatusPendingPayment, domain.SubscriptionStatusActive}:   true, // долг погашен
	{domain.SubscriptionStatusScheduled, domain.SubscriptionStatusActive}:        true, // наступила дата начала
	{domain.SubscriptionStatusActive, domain.SubscriptionStatusExpired}:          true, // период закончился
	{domain.SubscriptionStatusScheduled, domain.SubscriptionStatusExpired}:       true, // период закончился, не начавшись
	{domain.SubscriptionStatusActive, domain.SubscriptionStatusCanceled}:         true,
	{domain.SubscriptionStatusPendingPayment, domain.SubscriptionStatusCanceled}: true,
	{domain.SubscriptionStatusScheduled, domain.SubscriptionStatusCanceled}:      true,
}

// CanTransition проверяет легальность перехода между двумя статусами
func CanTransition(from, to domain.SubscriptionStatus) bool {
	return validTransitions[Transition{from, to}]
}

// ValidTransitionsFrom возвращает все легальные целевые статусы из заданного
func ValidTransitionsFrom(from domain.SubscriptionStatus) []domain.SubscriptionStatus {
	targets := make([]domain.SubscriptionStatus, 0)
	for t := range validTransitions {
		if t.From == from {
			targets = append(targets, t.To)
		}
	}

	// Стабильный порядок для детерминированных вызовов и тестов
	sort.Slice(targets, func(i, j int) bool { return targets[i] < targets[j] })
	return targets
}

// CanCancel проверяет, допускает ли статус отмену.
// CANCELED и EXPIRED практически терминальны для данной записи.
func CanCancel(status domain.SubscriptionStatus) bool {
	return CanTransition(status, domain.SubscriptionStatusCanceled)
}

// Cancel возвращает отмененную копию абонемента либо именованную ошибку
// бизнес-правила. Исходная запись не изменяется; попытка отменить
// неотменяемый статус никогда не деградирует в молчаливый no-op.
func Cancel(sub domain.Subscription, reason string, now time.Time) (domain.Subscription, error) {
	if sub.Status == domain.SubscriptionStatusCanceled {
		return domain.Subscription{}, domain.NewSubscriptionError(
			"ALREADY_CANCELED", "subscription is already canceled", sub.ID.String(), domain.ErrAlreadyCanceled)
	}

	// Легальность перехода оценивается по проекции на момент отмены:
	// запись со статусом ACTIVE, чей период уже закончился, не отменяется
	effective := EffectiveStatus(sub, now)
	if !CanCancel(effective) {
		return domain.Subscription{}, domain.NewSubscriptionError(
			"NOT_CANCELABLE", "cancellation is not allowed from status "+string(effective), sub.ID.String(), domain.ErrNotCancelable)
	}

	canceled := sub
	canceled.Status = domain.SubscriptionStatusCanceled
	canceled.CancellationDate = &now
	canceled.CancellationReason = reason
	canceled.UpdatedAt = now

	return canceled, nil
}

// EffectiveStatus проекция статуса на момент чтения: абонемент, чья дата
// окончания прошла, считается истекшим, даже если сохраненный статус еще не
// догнал реальность. Сохраненное поле не трогаем — авторитетный статус
// всегда за сервером.
func EffectiveStatus(sub domain.Subscription, now time.Time) domain.SubscriptionStatus {
	switch sub.Status {
	case domain.SubscriptionStatusActive, domain.SubscriptionStatusScheduled:
		if endOfDay(sub.EndDate).Before(now) {
			return domain.SubscriptionStatusExpired
		}
	}
	return sub.Status
}

// InitialStatus статус оптимистичной записи при создании нового абонемента.
// Платежеспособность определяет сервер, поэтому локально предполагаем
// PENDING_PAYMENT (или SCHEDULED для будущих периодов); авторитетный ответ
// замещает эту догадку.
func InitialStatus(startDate, now time.Time) domain.SubscriptionStatus {
	if startsAfterToday(startDate, now) {
		return domain.SubscriptionStatusScheduled
	}
	return domain.SubscriptionStatusPendingPayment
}

// RenewalStatus статус нового абонемента, созданного продлением: SCHEDULED
// когда новый период начинается после текущего, ACTIVE когда немедленно
func RenewalStatus(startDate, now time.Time) domain.SubscriptionStatus {
	if startsAfterToday(startDate, now) {
		return domain.SubscriptionStatusScheduled
	}
	return domain.SubscriptionStatusActive
}

// startsAfterToday проверяет, что дата начала строго позже текущего дня
func startsAfterToday(startDate, now time.Time) bool {
	return truncateToDay(startDate).After(truncateToDay(now))
}

// truncateToDay обнуляет компонент времени, сохраняя локацию
func truncateToDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}

// endOfDay дата окончания включительна: период действует весь последний день
func endOfDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 23, 59, 59, int(time.Second-time.Nanosecond), t.Location())
}
