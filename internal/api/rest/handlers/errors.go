package handlers

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/akhmadev/gym-membership-service/internal/domain"
	"github.com/akhmadev/gym-membership-service/internal/money"
	"github.com/akhmadev/gym-membership-service/pkg/logger"
)

// respondError переводит доменные ошибки в HTTP статусы.
// Нарушения политики различаются: конфликт состояния дает 409,
// преждевременное продление 422.
func respondError(c *gin.Context, log *logger.Logger, err error) {
	switch {
	case errors.Is(err, domain.ErrNotFound):
		log.Warn("Resource not found: %v", err)
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
	case errors.Is(err, domain.ErrRenewalTooEarly):
		log.Warn("Renewal blocked: %v", err)
		c.JSON(http.StatusUnprocessableEntity, gin.H{"error": err.Error()})
	case errors.Is(err, domain.ErrPolicyViolation):
		log.Warn("Policy violation: %v", err)
		c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
	case errors.Is(err, domain.ErrInvalidData),
		errors.Is(err, money.ErrInvalidAmount),
		errors.Is(err, money.ErrNegativeAmount),
		errors.Is(err, money.ErrInvalidPercentage):
		log.Warn("Invalid request data: %v", err)
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	case errors.Is(err, domain.ErrBackendUnavailable):
		log.Error("Backend unavailable: %v", err)
		c.JSON(http.StatusBadGateway, gin.H{"error": "Backend unavailable"})
	default:
		log.Error("Unexpected error: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
	}
}

// parseUUIDParam читает uuid из параметра пути; при ошибке сам отвечает 400
func parseUUIDParam(c *gin.Context, log *logger.Logger, name string) (uuid.UUID, bool) {
	raw := c.Param(name)
	id, err := uuid.Parse(raw)
	if err != nil {
		log.Warn("Invalid UUID format for %s: %s", name, raw)
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid " + name + " format"})
		return uuid.Nil, false
	}
	return id, true
}

// parsePagination читает limit/offset из query со значениями по умолчанию
func parsePagination(c *gin.Context) (limit, offset int) {
	limit = 50
	offset = 0
	if v, err := strconv.Atoi(c.Query("limit")); err == nil && v > 0 {
		limit = v
	}
	if v, err := strconv.Atoi(c.Query("offset")); err == nil && v >= 0 {
		offset = v
	}
	return limit, offset
}
