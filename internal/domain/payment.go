package domain

import (
	"time"

	"github.com/google/uuid"

	"github.com/akhmadev/gym-membership-service/internal/money"
)

// PaymentMethod способ оплаты
type PaymentMethod string

const (
	PaymentMethodCash     PaymentMethod = "CASH"
	PaymentMethodQR       PaymentMethod = "QR"
	PaymentMethodTransfer PaymentMethod = "TRANSFER"
	PaymentMethodCard     PaymentMethod = "CARD"
)

// IsValid проверяет, что способ оплаты входит в закрытый набор значений
func (m PaymentMethod) IsValid() bool {
	switch m {
	case PaymentMethodCash, PaymentMethodQR, PaymentMethodTransfer, PaymentMethodCard:
		return true
	}
	return false
}

// Payment представляет собой один подтвержденный платеж по абонементу.
// Подтвержденные платежи никогда не изменяются: журнал только пополняется.
// Оптимистичная запись существует лишь до ответа сервера, после чего
// замещается подтвержденной.
type Payment struct {
	ID             uuid.UUID     `json:"id"`
	SubscriptionID uuid.UUID     `json:"subscription_id"`
	Amount         money.Amount  `json:"amount"`
	PaymentMethod  PaymentMethod `json:"payment_method"`
	PaymentDate    time.Time     `json:"payment_date"`
	Provisional    bool          `json:"provisional,omitempty"`
	CreatedAt      time.Time     `json:"created_at"`
}

// PaymentStats производные показатели по платежам абонемента.
// Не хранятся отдельно: всегда выводятся из журнала платежей и цены плана.
type PaymentStats struct {
	TotalPayments   int          `json:"total_payments"`
	TotalAmountPaid money.Amount `json:"total_amount_paid"`
	RemainingDebt   money.Amount `json:"remaining_debt"`
	LastPaymentDate *time.Time   `json:"last_payment_date,omitempty"`
}

// RecordPaymentRequest запрос на проведение платежа.
// Сумма передается целочисленной строкой, как того требует контракт бэкенда.
type RecordPaymentRequest struct {
	Amount        string        `json:"amount" binding:"required"`
	PaymentMethod PaymentMethod `json:"payment_method" binding:"required"`
}

// PaymentConfirmation ответ бэкенда на проведение платежа.
// Статус абонемента после платежа определяет сервер; клиент обязан принять
// его как есть, а не выводить локально.
type PaymentConfirmation struct {
	Payment            Payment            `json:"payment"`
	RemainingDebt      *money.Amount      `json:"remaining_debt,omitempty"`
	SubscriptionStatus SubscriptionStatus `json:"subscription_status"`
}
