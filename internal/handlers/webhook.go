package handlers

import (
	"encoding/json"
	"io"
	"log/slog"
	"net/http"

	"github.com/vitrinelabs/vitrine/internal/services"
	pkghttp "github.com/vitrinelabs/vitrine/pkg/http"
)

// WebhookHandler processes verified payment provider notifications.
// Signature verification happens in middleware before this handler runs.
type WebhookHandler struct {
	orders services.OrderUpdater
	logger *slog.Logger
}

// NewWebhookHandler creates a new WebhookHandler
func NewWebhookHandler(orders services.OrderUpdater, logger *slog.Logger) *WebhookHandler {
	return &WebhookHandler{
		orders: orders,
		logger: logger,
	}
}

// WebhookNotification is the provider's notification payload
type WebhookNotification struct {
	Type string `json:"type"`
	Data struct {
		ID string `json:"id"`
	} `json:"data"`
}

// PaymentNotification handles POST /api/payment/webhook
func (h *WebhookHandler) PaymentNotification(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(r.Body)
	if err != nil {
		pkghttp.WriteBadRequest(w, "Unable to read request body")
		return
	}

	var notification WebhookNotification
	if err := json.Unmarshal(body, &notification); err != nil {
		pkghttp.WriteBadRequest(w, "Invalid notification payload")
		return
	}

	if notification.Type != "payment" || notification.Data.ID == "" {
		// unknown notification types are acknowledged so the provider
		// stops retrying them
		h.logger.Info("ignoring webhook notification",
			slog.String("type", notification.Type))
		w.WriteHeader(http.StatusOK)
		return
	}

	if err := h.orders.ApplyPaymentNotification(r.Context(), notification.Data.ID); err != nil {
		pkghttp.WriteInternalError(w, "Failed to process notification")
		return
	}

	w.WriteHeader(http.StatusOK)
}
