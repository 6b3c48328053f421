// Package gymapi реализует клиент HTTP API бэкенда — системы записи для
// клиентов, абонементов и платежей. Пакет покрывает только контракт
// запрос/ответ; подпись запросов и повторы на уровне транспорта остаются
// за инфраструктурой.
package gymapi

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/akhmadev/gym-membership-service/internal/domain"
	"github.com/akhmadev/gym-membership-service/pkg/logger"
)

// Config конфигурация для клиента API бэкенда
type Config struct {
	BaseURL string
	APIKey  string
	Timeout time.Duration
}

// Client представляет клиент для работы с API бэкенда
type Client struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
	log        *logger.Logger
}

// NewClient создает новый клиент API бэкенда
func NewClient(cfg Config, log *logger.Logger) *Client {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 15 * time.Second
	}

	return &Client{
		baseURL:    cfg.BaseURL,
		apiKey:     cfg.APIKey,
		httpClient: &http.Client{Timeout: timeout},
		log:        log,
	}
}

// apiError формат тела ошибки бэкенда
type apiError struct {
	Error string `json:"error"`
	Code  string `json:"code,omitempty"`
}

// do выполняет один запрос к бэкенду и декодирует ответ в out.
// Ошибки транспорта и ответы 5xx оборачивают ErrBackendUnavailable, чтобы
// вызывающий отличал их от нарушений бизнес-правил.
func (c *Client) do(ctx context.Context, method, path string, body, out interface{}) error {
	var reqBody io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("gymapi: failed to marshal request body: %w", err)
		}
		reqBody = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reqBody)
	if err != nil {
		return fmt.Errorf("gymapi: failed to build request: %w", err)
	}

	req.Header.Set("Content-Type", "application/json")
	if c.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.log.Errorw("Backend request failed", "method", method, "path", path, "error", err)
		return fmt.Errorf("%w: %v", domain.ErrBackendUnavailable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		if out == nil {
			return nil
		}
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			return fmt.Errorf("gymapi: failed to decode response: %w", err)
		}
		return nil
	}

	return c.mapError(resp, method, path)
}

// mapError переводит ответ-ошибку бэкенда в таксономию доменных ошибок
func (c *Client) mapError(resp *http.Response, method, path string) error {
	data, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))

	var payload apiError
	if err := json.Unmarshal(data, &payload); err != nil {
		payload.Error = string(data)
	}

	if resp.StatusCode >= 500 {
		c.log.Errorw("Backend returned server error", "method", method, "path", path, "status", resp.StatusCode)
		return fmt.Errorf("%w: backend returned %d", domain.ErrBackendUnavailable, resp.StatusCode)
	}

	switch resp.StatusCode {
	case http.StatusNotFound:
		return fmt.Errorf("%w: %s", domain.ErrNotFound, payload.Error)
	case http.StatusConflict, http.StatusUnprocessableEntity:
		if sentinel := policySentinel(payload.Code); sentinel != nil {
			return fmt.Errorf("%w: %s", sentinel, payload.Error)
		}
		return fmt.Errorf("%w: %s", domain.ErrPolicyViolation, payload.Error)
	default:
		return fmt.Errorf("%w: backend returned %d: %s", domain.ErrInvalidData, resp.StatusCode, payload.Error)
	}
}

// policySentinel сопоставляет код конфликта бэкенда с доменным sentinel
func policySentinel(code string) error {
	switch code {
	case "DUPLICATE_PARTIAL_PAYMENT":
		return domain.ErrDuplicatePartialPayment
	case "ALREADY_PAID":
		return domain.ErrAlreadyPaid
	case "ALREADY_CANCELED":
		return domain.ErrAlreadyCanceled
	case "NOT_CANCELABLE":
		return domain.ErrNotCancelable
	case "RENEWAL_TOO_EARLY":
		return domain.ErrRenewalTooEarly
	case "PAYMENT_EXCEEDS_DEBT":
		return domain.ErrPaymentExceedsDebt
	default:
		return nil
	}
}

// IsRetryable проверяет, имеет ли смысл повторить то же действие.
// Повторяемы только ошибки транспорта; нарушение бизнес-правила повтором
// не лечится.
func IsRetryable(err error) bool {
	return errors.Is(err, domain.ErrBackendUnavailable)
}
