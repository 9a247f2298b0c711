package handlers

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// mockOrderUpdater captures applied payment IDs
type mockOrderUpdater struct {
	ApplyFunc func(ctx context.Context, paymentID string) error
	Applied   []string
}

func (m *mockOrderUpdater) ApplyPaymentNotification(ctx context.Context, paymentID string) error {
	m.Applied = append(m.Applied, paymentID)
	if m.ApplyFunc != nil {
		return m.ApplyFunc(ctx, paymentID)
	}
	return nil
}

func TestWebhookHandler_PaymentNotificationApplied(t *testing.T) {
	orders := &mockOrderUpdater{}
	handler := NewWebhookHandler(orders, slog.Default())

	req := httptest.NewRequest("POST", "/api/payment/webhook", strings.NewReader(`{"type":"payment","data":{"id":"12345"}}`))
	w := httptest.NewRecorder()
	handler.PaymentNotification(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	require.Len(t, orders.Applied, 1)
	assert.Equal(t, "12345", orders.Applied[0])
}

func TestWebhookHandler_UnknownTypeAcknowledged(t *testing.T) {
	orders := &mockOrderUpdater{}
	handler := NewWebhookHandler(orders, slog.Default())

	req := httptest.NewRequest("POST", "/api/payment/webhook", strings.NewReader(`{"type":"plan","data":{"id":"67890"}}`))
	w := httptest.NewRecorder()
	handler.PaymentNotification(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Empty(t, orders.Applied)
}

func TestWebhookHandler_InvalidPayloadRejected(t *testing.T) {
	handler := NewWebhookHandler(&mockOrderUpdater{}, slog.Default())

	req := httptest.NewRequest("POST", "/api/payment/webhook", strings.NewReader(`not json`))
	w := httptest.NewRecorder()
	handler.PaymentNotification(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestWebhookHandler_ProcessingFailureReturns500(t *testing.T) {
	orders := &mockOrderUpdater{
		ApplyFunc: func(ctx context.Context, paymentID string) error {
			return errors.New("database unavailable")
		},
	}
	handler := NewWebhookHandler(orders, slog.Default())

	req := httptest.NewRequest("POST", "/api/payment/webhook", strings.NewReader(`{"type":"payment","data":{"id":"12345"}}`))
	w := httptest.NewRecorder()
	handler.PaymentNotification(w, req)

	// the provider retries on 5xx, which is what we want for transient failures
	assert.Equal(t, http.StatusInternalServerError, w.Code)
}
