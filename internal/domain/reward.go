package domain

import (
	"time"

	"github.com/google/uuid"
)

// Reward представляет собой право клиента на скидку.
// Применяется не более одного раза, к абонементу, созданному продлением.
// Применение скидки — отдельная операция после продления, не атомарная с ним.
type Reward struct {
	ID                 uuid.UUID `json:"id"`
	ClientID           uuid.UUID `json:"client_id"`
	DiscountPercentage string    `json:"discount_percentage"`
	CreatedAt          time.Time `json:"created_at"`
}

// ApplyRewardRequest запрос на применение награды к абонементу
type ApplyRewardRequest struct {
	SubscriptionID     uuid.UUID `json:"subscription_id" binding:"required"`
	DiscountPercentage string    `json:"discount_percentage" binding:"required"`
}
