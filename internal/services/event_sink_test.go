package services

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vitrinelabs/vitrine/internal/models"
)

func newTestSink(eventRepo *MockSecurityEventRepository, logRepo *MockSecurityLogRepository, t *testing.T) (*EventSink, func() string) {
	appender := NewTestFileAppender(t)
	sink := NewEventSink(eventRepo, logRepo, appender, nil, NewTestMetrics(), slog.Default())
	return sink, func() string { return ReadTestLogFile(t, appender) }
}

func TestEventSink_RecordEvent_WritesBothChannels(t *testing.T) {
	eventRepo := &MockSecurityEventRepository{}
	logRepo := &MockSecurityLogRepository{}
	sink, readFile := newTestSink(eventRepo, logRepo, t)

	sink.RecordEvent(context.Background(), EventInput{
		EventType:   models.SecurityEventSQLInjection,
		Severity:    models.SeverityHigh,
		IP:          "203.0.113.7",
		UserAgent:   "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 Chrome/120.0 Safari/537.36",
		Endpoint:    "/api/products",
		Method:      "GET",
		Payload:     "q=1 OR 1=1",
		Blocked:     true,
		Description: "query string matched injection pattern",
	})

	require.Len(t, eventRepo.Created, 1)
	event := eventRepo.Created[0]
	assert.Equal(t, models.SecurityEventSQLInjection, event.EventType)
	assert.Equal(t, "203.0.113.7", event.IP)
	assert.True(t, event.Blocked)
	require.NotNil(t, event.UserAgent)

	content := readFile()
	assert.Contains(t, content, "SQL_INJECTION detected")
	assert.Contains(t, content, "IP: 203.0.113.7")
	assert.Contains(t, content, "chrome/windows/desktop")
}

func TestEventSink_RecordEvent_DatabaseFailureStillWritesFile(t *testing.T) {
	eventRepo := &MockSecurityEventRepository{
		CreateFunc: func(ctx context.Context, event *models.SecurityEvent) (*models.SecurityEvent, error) {
			return nil, errors.New("connection refused")
		},
	}
	logRepo := &MockSecurityLogRepository{}
	sink, readFile := newTestSink(eventRepo, logRepo, t)

	sink.RecordEvent(context.Background(), EventInput{
		EventType: models.SecurityEventXSS,
		Severity:  models.SeverityHigh,
		IP:        "198.51.100.2",
		Endpoint:  "/api/reviews",
		Method:    "POST",
	})

	assert.Contains(t, readFile(), "XSS detected")
}

func TestEventSink_RecordEvent_TruncatesPayload(t *testing.T) {
	eventRepo := &MockSecurityEventRepository{}
	logRepo := &MockSecurityLogRepository{}
	sink, _ := newTestSink(eventRepo, logRepo, t)

	sink.RecordEvent(context.Background(), EventInput{
		EventType: models.SecurityEventSuspiciousRequest,
		Severity:  models.SeverityMedium,
		IP:        "198.51.100.2",
		Payload:   strings.Repeat("a", 5000),
	})

	require.Len(t, eventRepo.Created, 1)
	assert.Len(t, eventRepo.Created[0].Payload, maxPayloadLength)
}

func TestEventSink_RecordEvent_CriticalNotifiesAlerter(t *testing.T) {
	eventRepo := &MockSecurityEventRepository{}
	logRepo := &MockSecurityLogRepository{}
	appender := NewTestFileAppender(t)

	var notified []*models.SecurityEvent
	notifier := notifierFunc(func(ctx context.Context, event *models.SecurityEvent) error {
		notified = append(notified, event)
		return nil
	})

	sink := NewEventSink(eventRepo, logRepo, appender, notifier, NewTestMetrics(), slog.Default())

	sink.RecordEvent(context.Background(), EventInput{
		EventType: models.SecurityEventBruteForce,
		Severity:  models.SeverityCritical,
		IP:        "203.0.113.7",
	})
	sink.RecordEvent(context.Background(), EventInput{
		EventType: models.SecurityEventXSS,
		Severity:  models.SeverityHigh,
		IP:        "203.0.113.7",
	})

	require.Len(t, notified, 1)
	assert.Equal(t, models.SecurityEventBruteForce, notified[0].EventType)
}

func TestEventSink_RecordLog_PersistsNullableFields(t *testing.T) {
	eventRepo := &MockSecurityEventRepository{}
	logRepo := &MockSecurityLogRepository{}
	sink, readFile := newTestSink(eventRepo, logRepo, t)

	sink.RecordLog(context.Background(), models.LogLevelWarning, "failed login attempt",
		"203.0.113.7", "/api/auth/login", "POST", "", "wrong password")

	require.Len(t, logRepo.Created, 1)
	entry := logRepo.Created[0]
	assert.Equal(t, models.LogLevelWarning, entry.Level)
	require.NotNil(t, entry.IP)
	assert.Equal(t, "203.0.113.7", *entry.IP)
	assert.Nil(t, entry.UserID)

	assert.Contains(t, readFile(), "User: N/A")
}

// notifierFunc adapts a function to the AlertNotifier interface
type notifierFunc func(ctx context.Context, event *models.SecurityEvent) error

func (f notifierFunc) NotifyCriticalEvent(ctx context.Context, event *models.SecurityEvent) error {
	return f(ctx, event)
}
