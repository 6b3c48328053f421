package gymapi

import (
	"context"
	"fmt"
	"net/http"

	"github.com/google/uuid"

	"github.com/akhmadev/gym-membership-service/internal/domain"
)

// ApplyReward применяет награду-скидку к абонементу, созданному продлением.
// Отдельная операция после продления; ее неудача не откатывает продление.
func (c *Client) ApplyReward(ctx context.Context, rewardID uuid.UUID, req domain.ApplyRewardRequest) error {
	path := fmt.Sprintf("/rewards/%s/apply", rewardID)

	if err := c.do(ctx, http.MethodPost, path, req, nil); err != nil {
		return err
	}

	c.log.Debugw("Applied reward on backend", "rewardID", rewardID, "subscriptionID", req.SubscriptionID)
	return nil
}
