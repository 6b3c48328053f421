package gymapi

import (
	"context"
	"fmt"
	"net/http"

	"github.com/google/uuid"

	"github.com/akhmadev/gym-membership-service/internal/domain"
)

// CreateSubscription создает новый абонемент клиента
func (c *Client) CreateSubscription(ctx context.Context, clientID uuid.UUID, req domain.CreateSubscriptionRequest) (domain.Subscription, error) {
	var sub domain.Subscription
	path := fmt.Sprintf("/clients/%s/subscriptions", clientID)

	if err := c.do(ctx, http.MethodPost, path, req, &sub); err != nil {
		return domain.Subscription{}, err
	}

	c.log.Debugw("Created subscription on backend", "subscriptionID", sub.ID, "clientID", clientID)
	return sub, nil
}

// ListSubscriptions возвращает страницу абонементов клиента
func (c *Client) ListSubscriptions(ctx context.Context, clientID uuid.UUID, limit, offset int) ([]domain.Subscription, error) {
	var subs []domain.Subscription
	path := fmt.Sprintf("/clients/%s/subscriptions?limit=%d&offset=%d", clientID, limit, offset)

	if err := c.do(ctx, http.MethodGet, path, nil, &subs); err != nil {
		return nil, err
	}

	return subs, nil
}

// GetActiveSubscription возвращает текущий действующий абонемент клиента.
// Отсутствие действующего абонемента приходит как ErrNotFound.
func (c *Client) GetActiveSubscription(ctx context.Context, clientID uuid.UUID) (domain.Subscription, error) {
	var sub domain.Subscription
	path := fmt.Sprintf("/clients/%s/subscriptions/active", clientID)

	if err := c.do(ctx, http.MethodGet, path, nil, &sub); err != nil {
		return domain.Subscription{}, err
	}

	return sub, nil
}

// RenewSubscription продлевает абонемент. Бэкенд создает и возвращает
// НОВУЮ запись; исходный абонемент не изменяется.
func (c *Client) RenewSubscription(ctx context.Context, clientID, subscriptionID uuid.UUID, req domain.RenewSubscriptionRequest) (domain.Subscription, error) {
	var sub domain.Subscription
	path := fmt.Sprintf("/clients/%s/subscriptions/%s/renew", clientID, subscriptionID)

	if err := c.do(ctx, http.MethodPost, path, req, &sub); err != nil {
		return domain.Subscription{}, err
	}

	c.log.Debugw("Renewed subscription on backend", "sourceID", subscriptionID, "newID", sub.ID)
	return sub, nil
}

// CancelSubscription отменяет абонемент и возвращает обновленную запись
func (c *Client) CancelSubscription(ctx context.Context, clientID, subscriptionID uuid.UUID, req domain.CancelSubscriptionRequest) (domain.Subscription, error) {
	var sub domain.Subscription
	path := fmt.Sprintf("/clients/%s/subscriptions/%s/cancel", clientID, subscriptionID)

	if err := c.do(ctx, http.MethodPatch, path, req, &sub); err != nil {
		return domain.Subscription{}, err
	}

	return sub, nil
}
