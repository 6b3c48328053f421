package lifecycle

import (
	"time"

	"github.com/akhmadev/gym-membership-service/internal/domain"
)

// RenewalWindowDays продление открывается, когда до конца периода остается
// не больше этого числа дней. Окно ограничено, чтобы не оплачивать членство
// задолго вперед, но истекший абонемент продлевается всегда.
const RenewalWindowDays = 3

// Eligibility результат оценки прав на продление и отмену
type Eligibility struct {
	CanRenew      bool `json:"can_renew"`
	DaysRemaining int  `json:"days_remaining"`
	CanCancel     bool `json:"can_cancel"`
}

// Evaluate чистая функция от абонемента и текущего момента.
// DaysRemaining — целые дни от сегодняшней даты до даты окончания,
// ноль для уже истекшего периода. Права оцениваются по проекции
// статуса: хранимый ACTIVE с прошедшей датой окончания уже не отменяется.
func Evaluate(sub domain.Subscription, now time.Time) Eligibility {
	days := DaysRemaining(sub, now)

	return Eligibility{
		CanRenew:      days <= RenewalWindowDays,
		DaysRemaining: days,
		CanCancel:     CanCancel(EffectiveStatus(sub, now)),
	}
}

// DaysRemaining считает оставшиеся дни на уровне календарных дат.
// Сравниваются даты как тройки год-месяц-день: день перевода часов
// короче суток, и разница в часах округлила бы его в ноль.
func DaysRemaining(sub domain.Subscription, now time.Time) int {
	end := sub.EndDate
	local := now.In(end.Location())

	endDay := time.Date(end.Year(), end.Month(), end.Day(), 0, 0, 0, 0, time.UTC)
	today := time.Date(local.Year(), local.Month(), local.Day(), 0, 0, 0, 0, time.UTC)

	days := int(endDay.Sub(today) / (24 * time.Hour))
	if days < 0 {
		return 0
	}
	return days
}

// CheckRenewable возвращает именованную ошибку бизнес-правила, когда окно
// продления еще не открыто. Ошибка несет точное число оставшихся дней.
func CheckRenewable(sub domain.Subscription, now time.Time) error {
	e := Evaluate(sub, now)
	if !e.CanRenew {
		return domain.NewRenewalBlockedError(sub.ID.String(), e.DaysRemaining, RenewalWindowDays)
	}
	return nil
}
