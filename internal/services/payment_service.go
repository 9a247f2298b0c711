package services

import (
	"context"
	"log/slog"

	"github.com/vitrinelabs/vitrine/internal/models"
)

// OrderUpdater applies a verified payment notification to the order it
// references. The storefront's fulfillment backend provides the real
// implementation; PaymentService is the default used by this API.
type OrderUpdater interface {
	ApplyPaymentNotification(ctx context.Context, paymentID string) error
}

// PaymentService records verified payment notifications in the audit trail
// for downstream reconciliation.
type PaymentService struct {
	auditRepo AuditRecorder
	logger    *slog.Logger
}

// NewPaymentService creates a new PaymentService
func NewPaymentService(auditRepo AuditRecorder, logger *slog.Logger) *PaymentService {
	return &PaymentService{
		auditRepo: auditRepo,
		logger:    logger,
	}
}

// ApplyPaymentNotification records the notification. The payment provider
// retries on error, so persistence failures are returned to the caller.
func (s *PaymentService) ApplyPaymentNotification(ctx context.Context, paymentID string) error {
	id := paymentID
	_, err := s.auditRepo.Create(ctx, &models.AuditLog{
		UserID:      "system",
		Action:      models.AuditActionUpdate,
		EntityType:  "payment",
		EntityID:    &id,
		Description: "payment notification received",
	})
	if err != nil {
		s.logger.Error("failed to record payment notification",
			slog.String("payment_id", paymentID),
			slog.Any("error", err))
		return err
	}

	s.logger.Info("payment notification recorded", slog.String("payment_id", paymentID))
	return nil
}
