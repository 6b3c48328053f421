package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/akhmadev/gym-membership-service/internal/domain"
	"github.com/akhmadev/gym-membership-service/internal/service"
	"github.com/akhmadev/gym-membership-service/pkg/logger"
)

// PaymentHandler обработчик для платежей по абонементам
type PaymentHandler struct {
	service service.MembershipService
	log     *logger.Logger
}

// NewPaymentHandler создает новый обработчик платежей
func NewPaymentHandler(svc service.MembershipService, log *logger.Logger) *PaymentHandler {
	return &PaymentHandler{
		service: svc,
		log:     log,
	}
}

// RecordPayment проводит платеж по абонементу
func (h *PaymentHandler) RecordPayment(c *gin.Context) {
	clientID, ok := parseUUIDParam(c, h.log, "clientId")
	if !ok {
		return
	}
	subID, ok := parseUUIDParam(c, h.log, "id")
	if !ok {
		return
	}

	var req domain.RecordPaymentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.log.Warn("Invalid request: %v", err)
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	if !req.PaymentMethod.IsValid() {
		h.log.Warn("Invalid payment method: %s", req.PaymentMethod)
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid payment method"})
		return
	}

	confirmation, err := h.service.RecordPayment(c.Request.Context(), clientID, subID, req)
	if err != nil {
		respondError(c, h.log, err)
		return
	}

	h.log.Info("Recorded payment %s for subscription %s", confirmation.Payment.ID, subID)
	c.JSON(http.StatusCreated, confirmation)
}

// GetPayments возвращает журнал платежей абонемента
func (h *PaymentHandler) GetPayments(c *gin.Context) {
	subID, ok := parseUUIDParam(c, h.log, "id")
	if !ok {
		return
	}

	limit, offset := parsePagination(c)
	payments, err := h.service.Payments(c.Request.Context(), subID, limit, offset)
	if err != nil {
		respondError(c, h.log, err)
		return
	}

	h.log.Info("Returned %d payments for subscription %s", len(payments), subID)
	c.JSON(http.StatusOK, payments)
}

// GetPaymentStats возвращает платежную статистику абонемента
func (h *PaymentHandler) GetPaymentStats(c *gin.Context) {
	subID, ok := parseUUIDParam(c, h.log, "id")
	if !ok {
		return
	}

	stats, err := h.service.PaymentStats(c.Request.Context(), subID)
	if err != nil {
		respondError(c, h.log, err)
		return
	}

	c.JSON(http.StatusOK, stats)
}

// GetSettlementAmount возвращает точную сумму полного погашения долга.
// Клиент берет ее как есть, а не вычисляет сам из статистики.
func (h *PaymentHandler) GetSettlementAmount(c *gin.Context) {
	subID, ok := parseUUIDParam(c, h.log, "id")
	if !ok {
		return
	}

	amount, err := h.service.FullSettlementAmount(c.Request.Context(), subID)
	if err != nil {
		respondError(c, h.log, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"amount": amount})
}
