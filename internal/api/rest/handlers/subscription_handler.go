package handlers

import (
	"errors"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/akhmadev/gym-membership-service/internal/domain"
	"github.com/akhmadev/gym-membership-service/internal/money"
	"github.com/akhmadev/gym-membership-service/internal/service"
	"github.com/akhmadev/gym-membership-service/pkg/logger"
)

// SubscriptionHandler обработчик для абонементов
type SubscriptionHandler struct {
	service service.MembershipService
	log     *logger.Logger
}

// NewSubscriptionHandler создает новый обработчик абонементов
func NewSubscriptionHandler(svc service.MembershipService, log *logger.Logger) *SubscriptionHandler {
	return &SubscriptionHandler{
		service: svc,
		log:     log,
	}
}

// CreateSubscription создает новый абонемент клиента
func (h *SubscriptionHandler) CreateSubscription(c *gin.Context) {
	clientID, ok := parseUUIDParam(c, h.log, "clientId")
	if !ok {
		return
	}

	var req domain.CreateSubscriptionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.log.Warn("Invalid request: %v", err)
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	sub, err := h.service.CreateSubscription(c.Request.Context(), clientID, req)
	if err != nil {
		respondError(c, h.log, err)
		return
	}

	h.log.Info("Created subscription %s for client %s", sub.ID, clientID)
	c.JSON(http.StatusCreated, sub)
}

// GetSubscriptions возвращает абонементы клиента.
// С параметром запроса active=true отдает только текущий абонемент.
func (h *SubscriptionHandler) GetSubscriptions(c *gin.Context) {
	clientID, ok := parseUUIDParam(c, h.log, "clientId")
	if !ok {
		return
	}

	if c.Query("active") == "true" {
		h.getActiveSubscription(c, clientID)
		return
	}

	limit, offset := parsePagination(c)
	subs, err := h.service.ClientSubscriptions(c.Request.Context(), clientID, limit, offset)
	if err != nil {
		respondError(c, h.log, err)
		return
	}

	h.log.Info("Returned %d subscriptions for client %s", len(subs), clientID)
	c.JSON(http.StatusOK, subs)
}

// getActiveSubscription возвращает текущий абонемент клиента
func (h *SubscriptionHandler) getActiveSubscription(c *gin.Context, clientID uuid.UUID) {
	sub, err := h.service.ActiveSubscription(c.Request.Context(), clientID)
	if err != nil {
		respondError(c, h.log, err)
		return
	}

	c.JSON(http.StatusOK, sub)
}

// renewResponse ответ на продление; reward_warning присутствует, когда
// продление прошло, а награда не применилась
type renewResponse struct {
	Subscription    domain.Subscription `json:"subscription"`
	DiscountedPrice *money.Amount       `json:"discounted_price,omitempty"`
	RewardWarning   string              `json:"reward_warning,omitempty"`
}

// renewRequest тело запроса продления с необязательной наградой
type renewRequest struct {
	domain.RenewSubscriptionRequest
	RewardID *uuid.UUID `json:"reward_id,omitempty"`
}

// RenewSubscription продлевает абонемент
func (h *SubscriptionHandler) RenewSubscription(c *gin.Context) {
	clientID, ok := parseUUIDParam(c, h.log, "clientId")
	if !ok {
		return
	}
	subID, ok := parseUUIDParam(c, h.log, "id")
	if !ok {
		return
	}

	var req renewRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.log.Warn("Invalid request: %v", err)
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	var rw *domain.Reward
	if req.RewardID != nil {
		rw = &domain.Reward{
			ID:                 *req.RewardID,
			ClientID:           clientID,
			DiscountPercentage: req.DiscountPercentage,
		}
	}

	result, err := h.service.Renew(c.Request.Context(), clientID, subID, req.RenewSubscriptionRequest, rw)
	if err != nil {
		respondError(c, h.log, err)
		return
	}

	resp := renewResponse{
		Subscription:    result.Subscription,
		DiscountedPrice: result.DiscountedPrice,
	}
	if result.RewardErr != nil {
		resp.RewardWarning = result.RewardErr.Error()
	}

	h.log.Info("Renewed subscription %s for client %s", subID, clientID)
	c.JSON(http.StatusCreated, resp)
}

// CancelSubscription отменяет абонемент
func (h *SubscriptionHandler) CancelSubscription(c *gin.Context) {
	clientID, ok := parseUUIDParam(c, h.log, "clientId")
	if !ok {
		return
	}
	subID, ok := parseUUIDParam(c, h.log, "id")
	if !ok {
		return
	}

	// Тело запроса необязательно: отмена без причины легальна
	var req domain.CancelSubscriptionRequest
	if err := c.ShouldBindJSON(&req); err != nil && !errors.Is(err, io.EOF) {
		h.log.Warn("Invalid request: %v", err)
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	sub, err := h.service.Cancel(c.Request.Context(), clientID, subID, req.CancellationReason)
	if err != nil {
		respondError(c, h.log, err)
		return
	}

	h.log.Info("Cancelled subscription %s for client %s", subID, clientID)
	c.JSON(http.StatusOK, sub)
}

// GetEligibility возвращает права на продление и отмену абонемента
func (h *SubscriptionHandler) GetEligibility(c *gin.Context) {
	clientID, ok := parseUUIDParam(c, h.log, "clientId")
	if !ok {
		return
	}
	subID, ok := parseUUIDParam(c, h.log, "id")
	if !ok {
		return
	}

	eligibility, err := h.service.Eligibility(c.Request.Context(), clientID, subID)
	if err != nil {
		respondError(c, h.log, err)
		return
	}

	c.JSON(http.StatusOK, eligibility)
}
