package services

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/mssola/useragent"
	"github.com/vitrinelabs/vitrine/internal/metrics"
	"github.com/vitrinelabs/vitrine/internal/models"
	"github.com/vitrinelabs/vitrine/pkg/logger"
)

// SecurityEventRepository defines the persistence interface for security events
type SecurityEventRepository interface {
	Create(ctx context.Context, event *models.SecurityEvent) (*models.SecurityEvent, error)
}

// SecurityLogRepository defines the persistence interface for security log entries
type SecurityLogRepository interface {
	Create(ctx context.Context, log *models.SecurityLog) (*models.SecurityLog, error)
}

// AlertNotifier receives critical events for out-of-band notification
type AlertNotifier interface {
	NotifyCriticalEvent(ctx context.Context, event *models.SecurityEvent) error
}

// EventSink records security events to two independent best-effort
// channels: the database and a local append-only file. A failure on either
// channel is logged and counted but never surfaces to the request path, and
// a failure on one channel does not prevent the write to the other.
type EventSink struct {
	eventRepo SecurityEventRepository
	logRepo   SecurityLogRepository
	file      *logger.FileAppender
	notifier  AlertNotifier
	metrics   *metrics.Metrics
	logger    *slog.Logger
}

// NewEventSink creates a new EventSink. notifier may be nil when alerting
// is disabled.
func NewEventSink(eventRepo SecurityEventRepository, logRepo SecurityLogRepository, file *logger.FileAppender, notifier AlertNotifier, m *metrics.Metrics, log *slog.Logger) *EventSink {
	return &EventSink{
		eventRepo: eventRepo,
		logRepo:   logRepo,
		file:      file,
		notifier:  notifier,
		metrics:   m,
		logger:    log,
	}
}

// EventInput carries the request context for a security event
type EventInput struct {
	EventType   string
	Severity    string
	IP          string
	UserAgent   string
	Endpoint    string
	Method      string
	Payload     string
	Blocked     bool
	Description string
}

const maxPayloadLength = 2000

// RecordEvent writes the event to both channels. It never returns an error.
func (s *EventSink) RecordEvent(ctx context.Context, in EventInput) {
	event := &models.SecurityEvent{
		EventType:   in.EventType,
		Severity:    in.Severity,
		IP:          in.IP,
		Endpoint:    in.Endpoint,
		Method:      in.Method,
		Payload:     truncate(in.Payload, maxPayloadLength),
		Blocked:     in.Blocked,
		Description: in.Description,
		CreatedAt:   time.Now().UTC(),
	}
	if in.UserAgent != "" {
		ua := in.UserAgent
		event.UserAgent = &ua
	}

	s.metrics.SecurityEvents.WithLabelValues(in.EventType).Inc()

	if _, err := s.eventRepo.Create(ctx, event); err != nil {
		s.metrics.SinkWriteFailures.WithLabelValues("database").Inc()
		s.logger.Error("failed to persist security event",
			slog.String("event_type", in.EventType),
			slog.String("ip", in.IP),
			slog.Any("error", err))
	}

	line := logger.FormatSecurityLine(
		models.LogLevelSecurityAlert,
		fmt.Sprintf("%s detected", in.EventType),
		in.IP, in.Endpoint, in.Method, "", s.describe(in),
	)
	if err := s.file.Append(line); err != nil {
		s.metrics.SinkWriteFailures.WithLabelValues("file").Inc()
		s.logger.Error("failed to append security event to file",
			slog.String("event_type", in.EventType),
			slog.Any("error", err))
	}

	if s.notifier != nil && in.Severity == models.SeverityCritical {
		if err := s.notifier.NotifyCriticalEvent(ctx, event); err != nil {
			s.logger.Error("failed to send critical event alert",
				slog.String("event_type", in.EventType),
				slog.Any("error", err))
		}
	}
}

// RecordLog writes a security log entry to the database and file.
// Best-effort on both channels, like RecordEvent.
func (s *EventSink) RecordLog(ctx context.Context, level, message, ip, endpoint, method, userID, details string) {
	log := &models.SecurityLog{
		Level:     level,
		Message:   message,
		CreatedAt: time.Now().UTC(),
	}
	if ip != "" {
		log.IP = &ip
	}
	if endpoint != "" {
		log.Endpoint = &endpoint
	}
	if method != "" {
		log.Method = &method
	}
	if userID != "" {
		log.UserID = &userID
	}
	if details != "" {
		log.Details = &details
	}

	if _, err := s.logRepo.Create(ctx, log); err != nil {
		s.metrics.SinkWriteFailures.WithLabelValues("database").Inc()
		s.logger.Error("failed to persist security log",
			slog.String("message", message),
			slog.Any("error", err))
	}

	if err := s.file.Append(logger.FormatSecurityLine(level, message, ip, endpoint, method, userID, details)); err != nil {
		s.metrics.SinkWriteFailures.WithLabelValues("file").Inc()
		s.logger.Error("failed to append security log to file",
			slog.String("message", message),
			slog.Any("error", err))
	}
}

// describe enriches the file line with a parsed client summary
func (s *EventSink) describe(in EventInput) string {
	var parts []string
	if in.Description != "" {
		parts = append(parts, in.Description)
	}
	if summary := clientSummary(in.UserAgent); summary != "" {
		parts = append(parts, "Client: "+summary)
	}
	if in.Payload != "" {
		parts = append(parts, "Payload: "+truncate(in.Payload, 200))
	}
	if len(parts) == 0 {
		return "N/A"
	}
	return strings.Join(parts, " | ")
}

// clientSummary condenses a raw User-Agent header into "browser/os/platform"
func clientSummary(userAgentString string) string {
	if userAgentString == "" {
		return ""
	}

	ua := useragent.New(userAgentString)
	browser, _ := ua.Browser()
	os := ua.OS()

	platform := "desktop"
	if ua.Mobile() {
		platform = "mobile"
	}
	if ua.Bot() {
		platform = "bot"
	}

	browser = strings.ToLower(strings.TrimSpace(browser))
	if browser == "" {
		browser = "unknown"
	}
	os = strings.ToLower(strings.TrimSpace(os))
	if os == "" {
		os = "unknown"
	}

	return fmt.Sprintf("%s/%s/%s", browser, os, platform)
}

func truncate(s string, max int) string {
	if len(s) <= max {
		return s
	}
	return s[:max]
}
