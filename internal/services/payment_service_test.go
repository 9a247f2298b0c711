package services

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vitrinelabs/vitrine/internal/models"
)

func TestPaymentService_ApplyPaymentNotification(t *testing.T) {
	auditRepo := &MockAuditRecorder{}
	svc := NewPaymentService(auditRepo, slog.New(slog.NewTextHandler(io.Discard, nil)))

	err := svc.ApplyPaymentNotification(context.Background(), "pay_12345")
	require.NoError(t, err)

	require.Len(t, auditRepo.Created, 1)
	entry := auditRepo.Created[0]
	assert.Equal(t, "system", entry.UserID)
	assert.Equal(t, models.AuditActionUpdate, entry.Action)
	assert.Equal(t, "payment", entry.EntityType)
	require.NotNil(t, entry.EntityID)
	assert.Equal(t, "pay_12345", *entry.EntityID)
}

func TestPaymentService_ApplyPaymentNotification_PersistenceFailure(t *testing.T) {
	auditRepo := &MockAuditRecorder{
		CreateFunc: func(ctx context.Context, log *models.AuditLog) (*models.AuditLog, error) {
			return nil, errors.New("connection refused")
		},
	}
	svc := NewPaymentService(auditRepo, slog.New(slog.NewTextHandler(io.Discard, nil)))

	err := svc.ApplyPaymentNotification(context.Background(), "pay_12345")
	assert.Error(t, err)
}
