// Package ledger реализует политику платежного журнала абонемента.
// Журнал только пополняется: подтвержденные платежи не изменяются и не
// удаляются, а показатели всегда выводятся из последовательности платежей,
// без отдельного хранимого баланса, которому можно разойтись с журналом.
package ledger

import (
	"fmt"
	"time"

	"github.com/akhmadev/gym-membership-service/internal/domain"
	"github.com/akhmadev/gym-membership-service/internal/money"
	"github.com/akhmadev/gym-membership-service/pkg/logger"
)

// Ledger проверяет платежи по правилам и выводит статистику из журнала
type Ledger struct {
	log *logger.Logger
}

// New создает новый платежный журнал
func New(log *logger.Logger) *Ledger {
	return &Ledger{log: log}
}

// ComputeStats выводит показатели из журнала платежей и цены абонемента.
// Инвариант: TotalAmountPaid + RemainingDebt == price и RemainingDebt >= 0.
func (l *Ledger) ComputeStats(payments []domain.Payment, price money.Amount) domain.PaymentStats {
	stats := domain.PaymentStats{
		TotalPayments: len(payments),
	}

	for i := range payments {
		stats.TotalAmountPaid += payments[i].Amount
		if stats.LastPaymentDate == nil || payments[i].PaymentDate.After(*stats.LastPaymentDate) {
			d := payments[i].PaymentDate
			stats.LastPaymentDate = &d
		}
	}

	stats.RemainingDebt = price - stats.TotalAmountPaid
	if stats.RemainingDebt < 0 {
		stats.RemainingDebt = 0
	}

	return stats
}

// FullSettlementAmount точная сумма полного погашения долга. UI обязан
// подставлять ее в намерение "оплатить полностью", а не давать оператору
// вводить сумму вручную.
func (l *Ledger) FullSettlementAmount(stats domain.PaymentStats) money.Amount {
	return stats.RemainingDebt
}

// ValidateCharge проверяет платеж до отправки на сервер.
// Правила:
//   - сумма строго положительна (целочисленность гарантирует тип);
//   - сумма не превышает известный остаток долга;
//   - не больше одного частичного платежа по абонементу в календарный день;
//     полный платеж (сумма равна остатку долга) освобожден от этого правила.
//
// Проверка дневного лимита здесь — удобство для оператора; источником
// истины остается серверная проверка.
func (l *Ledger) ValidateCharge(amount money.Amount, stats *domain.PaymentStats, payments []domain.Payment, now time.Time) error {
	if !amount.IsPositive() {
		return fmt.Errorf("%w: payment amount must be a positive integer, got %s", domain.ErrInvalidData, amount)
	}

	// Остаток долга неизвестен — серверу виднее
	if stats == nil {
		l.log.Debugw("Remaining debt unknown, deferring charge validation to backend", "amount", amount)
		return nil
	}

	if stats.RemainingDebt == 0 {
		return domain.ErrAlreadyPaid
	}

	if amount > stats.RemainingDebt {
		return fmt.Errorf("%w: amount %s exceeds remaining debt %s", domain.ErrPaymentExceedsDebt, amount, stats.RemainingDebt)
	}

	// Полный платеж закрывает долг и не ограничен дневным правилом
	if l.IsFullSettlement(amount, stats) {
		return nil
	}

	for i := range payments {
		if sameCalendarDay(payments[i].PaymentDate, now) {
			return fmt.Errorf("%w: a payment was already recorded on %s", domain.ErrDuplicatePartialPayment, now.Format("2006-01-02"))
		}
	}

	return nil
}

// IsFullSettlement проверяет, что сумма в точности погашает известный долг
func (l *Ledger) IsFullSettlement(amount money.Amount, stats *domain.PaymentStats) bool {
	return stats != nil && stats.RemainingDebt > 0 && amount == stats.RemainingDebt
}

// sameCalendarDay сравнивает два момента на уровне календарной даты
func sameCalendarDay(a, b time.Time) bool {
	ay, am, ad := a.Date()
	by, bm, bd := b.In(a.Location()).Date()
	return ay == by && am == bm && ad == bd
}
