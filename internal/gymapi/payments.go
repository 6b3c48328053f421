package gymapi

import (
	"context"
	"fmt"
	"net/http"

	"github.com/google/uuid"

	"github.com/akhmadev/gym-membership-service/internal/domain"
)

// RecordPayment проводит платеж по абонементу. Сумма передается
// целочисленной строкой. Ответ несет авторитетный статус абонемента
// после платежа.
func (c *Client) RecordPayment(ctx context.Context, subscriptionID uuid.UUID, req domain.RecordPaymentRequest) (domain.PaymentConfirmation, error) {
	var confirmation domain.PaymentConfirmation
	path := fmt.Sprintf("/subscriptions/%s/payments", subscriptionID)

	if err := c.do(ctx, http.MethodPost, path, req, &confirmation); err != nil {
		return domain.PaymentConfirmation{}, err
	}

	c.log.Debugw("Recorded payment on backend",
		"subscriptionID", subscriptionID,
		"paymentID", confirmation.Payment.ID,
		"subscriptionStatus", confirmation.SubscriptionStatus)
	return confirmation, nil
}

// ListPayments возвращает страницу платежей абонемента
func (c *Client) ListPayments(ctx context.Context, subscriptionID uuid.UUID, limit, offset int) ([]domain.Payment, error) {
	var payments []domain.Payment
	path := fmt.Sprintf("/subscriptions/%s/payments?limit=%d&offset=%d", subscriptionID, limit, offset)

	if err := c.do(ctx, http.MethodGet, path, nil, &payments); err != nil {
		return nil, err
	}

	return payments, nil
}

// GetPaymentStats возвращает платежную статистику абонемента
func (c *Client) GetPaymentStats(ctx context.Context, subscriptionID uuid.UUID) (domain.PaymentStats, error) {
	var stats domain.PaymentStats
	path := fmt.Sprintf("/subscriptions/%s/payments/stats", subscriptionID)

	if err := c.do(ctx, http.MethodGet, path, nil, &stats); err != nil {
		return domain.PaymentStats{}, err
	}

	return stats, nil
}
