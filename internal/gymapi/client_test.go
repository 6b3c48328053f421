package gymapi

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/akhmadev/gym-membership-service/internal/domain"
	"github.com/akhmadev/gym-membership-service/pkg/logger"
)

func newTestClient(t *testing.T, handler http.HandlerFunc) *Client {
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	return NewClient(Config{
		BaseURL: srv.URL,
		APIKey:  "test-key",
		Timeout: 2 * time.Second,
	}, logger.New(logger.ERROR))
}

func TestClientDecodesSuccess(t *testing.T) {
	ctx := context.Background()
	clientID := uuid.New()
	subID := uuid.New()

	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "Bearer test-key", r.Header.Get("Authorization"))
		assert.Equal(t, "/clients/"+clientID.String()+"/subscriptions/active", r.URL.Path)

		json.NewEncoder(w).Encode(domain.Subscription{
			ID:       subID,
			ClientID: clientID,
			Status:   domain.SubscriptionStatusActive,
		})
	})

	sub, err := c.GetActiveSubscription(ctx, clientID)
	require.NoError(t, err)
	assert.Equal(t, subID, sub.ID)
	assert.Equal(t, domain.SubscriptionStatusActive, sub.Status)
}

func TestClientErrorMapping(t *testing.T) {
	ctx := context.Background()

	tests := []struct {
		name     string
		status   int
		body     string
		sentinel error
	}{
		{"missing record", http.StatusNotFound, `{"error":"no active subscription"}`, domain.ErrNotFound},
		{"server error", http.StatusInternalServerError, `{"error":"boom"}`, domain.ErrBackendUnavailable},
		{"coded conflict", http.StatusConflict, `{"error":"already recorded","code":"DUPLICATE_PARTIAL_PAYMENT"}`, domain.ErrDuplicatePartialPayment},
		{"coded early renewal", http.StatusUnprocessableEntity, `{"error":"too early","code":"RENEWAL_TOO_EARLY"}`, domain.ErrRenewalTooEarly},
		{"uncoded conflict", http.StatusConflict, `{"error":"state conflict"}`, domain.ErrPolicyViolation},
		{"bad request", http.StatusBadRequest, `{"error":"malformed"}`, domain.ErrInvalidData},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
				w.Header().Set("Content-Type", "application/json")
				w.WriteHeader(tt.status)
				w.Write([]byte(tt.body))
			})

			_, err := c.GetActiveSubscription(ctx, uuid.New())
			assert.ErrorIs(t, err, tt.sentinel)
		})
	}
}

func TestIsRetryable(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	})

	_, err := c.GetActiveSubscription(context.Background(), uuid.New())
	require.Error(t, err)
	assert.True(t, IsRetryable(err))

	assert.False(t, IsRetryable(domain.ErrAlreadyPaid))
}
