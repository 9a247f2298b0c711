package handlers

import (
	"context"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/vitrinelabs/vitrine/internal/models"
	pkghttp "github.com/vitrinelabs/vitrine/pkg/http"
)

// SecurityEventReader lists and maintains persisted security events
type SecurityEventReader interface {
	List(ctx context.Context, limit int, offset int) ([]*models.SecurityEvent, error)
	ListByIP(ctx context.Context, ip string, limit int, offset int) ([]*models.SecurityEvent, error)
	CountByType(ctx context.Context, since string) (map[string]int, error)
	DeleteOlderThan(ctx context.Context, interval string) (int64, error)
}

// SecurityLogReader lists and maintains persisted security log entries
type SecurityLogReader interface {
	List(ctx context.Context, level string, limit int, offset int) ([]*models.SecurityLog, error)
	DeleteOlderThan(ctx context.Context, interval string) (int64, error)
}

// AuditLogReader lists persisted audit log entries
type AuditLogReader interface {
	List(ctx context.Context, limit int, offset int) ([]*models.AuditLog, error)
	ListByUserID(ctx context.Context, userID string, limit int, offset int) ([]*models.AuditLog, error)
}

// AdminHandler serves the security observability endpoints. Role checks
// happen in routing; everything here assumes an authenticated admin.
type AdminHandler struct {
	events SecurityEventReader
	logs   SecurityLogReader
	audit  AuditLogReader
}

// NewAdminHandler creates a new AdminHandler
func NewAdminHandler(events SecurityEventReader, logs SecurityLogReader, audit AuditLogReader) *AdminHandler {
	return &AdminHandler{
		events: events,
		logs:   logs,
		audit:  audit,
	}
}

// SecurityEventResponse represents a security event in HTTP responses
type SecurityEventResponse struct {
	ID          string  `json:"id"`
	EventType   string  `json:"event_type"`
	Severity    string  `json:"severity"`
	IP          string  `json:"ip"`
	UserAgent   *string `json:"user_agent,omitempty"`
	Endpoint    string  `json:"endpoint"`
	Method      string  `json:"method"`
	Payload     string  `json:"payload,omitempty"`
	Blocked     bool    `json:"blocked"`
	Description string  `json:"description"`
	CreatedAt   string  `json:"created_at"`
}

// SecurityLogResponse represents a security log entry in HTTP responses
type SecurityLogResponse struct {
	ID         string  `json:"id"`
	Level      string  `json:"level"`
	Message    string  `json:"message"`
	IP         *string `json:"ip,omitempty"`
	UserID     *string `json:"user_id,omitempty"`
	Endpoint   *string `json:"endpoint,omitempty"`
	Method     *string `json:"method,omitempty"`
	StatusCode *int    `json:"status_code,omitempty"`
	Details    *string `json:"details,omitempty"`
	CreatedAt  string  `json:"created_at"`
}

// AuditLogResponse represents an audit log entry in HTTP responses
type AuditLogResponse struct {
	ID          string                 `json:"id"`
	UserID      string                 `json:"user_id"`
	Action      string                 `json:"action"`
	EntityType  string                 `json:"entity_type"`
	EntityID    *string                `json:"entity_id,omitempty"`
	Description string                 `json:"description"`
	IP          *string                `json:"ip,omitempty"`
	Changes     map[string]interface{} `json:"changes,omitempty"`
	CreatedAt   string                 `json:"created_at"`
}

// ListSecurityEvents handles GET /api/admin/security/events
func (h *AdminHandler) ListSecurityEvents(w http.ResponseWriter, r *http.Request) {
	limit, offset := pagination(r)

	var (
		events []*models.SecurityEvent
		err    error
	)
	if ip := r.URL.Query().Get("ip"); ip != "" {
		events, err = h.events.ListByIP(r.Context(), ip, limit, offset)
	} else {
		events, err = h.events.List(r.Context(), limit, offset)
	}
	if err != nil {
		pkghttp.WriteInternalError(w, "Failed to load security events")
		return
	}

	resp := make([]SecurityEventResponse, 0, len(events))
	for _, event := range events {
		resp = append(resp, SecurityEventResponse{
			ID:          event.ID.String(),
			EventType:   event.EventType,
			Severity:    event.Severity,
			IP:          event.IP,
			UserAgent:   event.UserAgent,
			Endpoint:    event.Endpoint,
			Method:      event.Method,
			Payload:     event.Payload,
			Blocked:     event.Blocked,
			Description: event.Description,
			CreatedAt:   event.CreatedAt.UTC().Format(time.RFC3339),
		})
	}

	pkghttp.WriteJSON(w, http.StatusOK, map[string]interface{}{
		"events": resp,
		"limit":  limit,
		"offset": offset,
	})
}

// ListSecurityLogs handles GET /api/admin/security/logs
func (h *AdminHandler) ListSecurityLogs(w http.ResponseWriter, r *http.Request) {
	limit, offset := pagination(r)

	logs, err := h.logs.List(r.Context(), r.URL.Query().Get("level"), limit, offset)
	if err != nil {
		pkghttp.WriteInternalError(w, "Failed to load security logs")
		return
	}

	resp := make([]SecurityLogResponse, 0, len(logs))
	for _, log := range logs {
		resp = append(resp, SecurityLogResponse{
			ID:         log.ID.String(),
			Level:      log.Level,
			Message:    log.Message,
			IP:         log.IP,
			UserID:     log.UserID,
			Endpoint:   log.Endpoint,
			Method:     log.Method,
			StatusCode: log.StatusCode,
			Details:    log.Details,
			CreatedAt:  log.CreatedAt.UTC().Format(time.RFC3339),
		})
	}

	pkghttp.WriteJSON(w, http.StatusOK, map[string]interface{}{
		"logs":   resp,
		"limit":  limit,
		"offset": offset,
	})
}

// ListAuditLogs handles GET /api/admin/audit
func (h *AdminHandler) ListAuditLogs(w http.ResponseWriter, r *http.Request) {
	limit, offset := pagination(r)

	var (
		logs []*models.AuditLog
		err  error
	)
	if userID := r.URL.Query().Get("user_id"); userID != "" {
		logs, err = h.audit.ListByUserID(r.Context(), userID, limit, offset)
	} else {
		logs, err = h.audit.List(r.Context(), limit, offset)
	}
	if err != nil {
		pkghttp.WriteInternalError(w, "Failed to load audit logs")
		return
	}

	resp := make([]AuditLogResponse, 0, len(logs))
	for _, log := range logs {
		resp = append(resp, AuditLogResponse{
			ID:          log.ID.String(),
			UserID:      log.UserID,
			Action:      log.Action,
			EntityType:  log.EntityType,
			EntityID:    log.EntityID,
			Description: log.Description,
			IP:          log.IP,
			Changes:     log.Changes,
			CreatedAt:   log.CreatedAt.UTC().Format(time.RFC3339),
		})
	}

	pkghttp.WriteJSON(w, http.StatusOK, map[string]interface{}{
		"audit_logs": resp,
		"limit":      limit,
		"offset":     offset,
	})
}

// SecurityMetrics handles GET /api/admin/security/metrics. It returns event
// counts per type over a trailing window, the data source for the
// operations dashboard.
func (h *AdminHandler) SecurityMetrics(w http.ResponseWriter, r *http.Request) {
	hours := 24
	if s := r.URL.Query().Get("hours"); s != "" {
		if v, err := strconv.Atoi(s); err == nil && v > 0 && v <= 24*30 {
			hours = v
		}
	}

	counts, err := h.events.CountByType(r.Context(), fmt.Sprintf("%d hours", hours))
	if err != nil {
		pkghttp.WriteInternalError(w, "Failed to load security metrics")
		return
	}

	pkghttp.WriteJSON(w, http.StatusOK, map[string]interface{}{
		"counts":       counts,
		"window_hours": hours,
	})
}

// PruneSecurityEvents handles DELETE /api/admin/security/events, removing
// events past the retention window
func (h *AdminHandler) PruneSecurityEvents(w http.ResponseWriter, r *http.Request) {
	days := retentionDays(r)

	deleted, err := h.events.DeleteOlderThan(r.Context(), fmt.Sprintf("%d days", days))
	if err != nil {
		pkghttp.WriteInternalError(w, "Failed to prune security events")
		return
	}

	pkghttp.WriteJSON(w, http.StatusOK, map[string]interface{}{
		"deleted":        deleted,
		"retention_days": days,
	})
}

// PruneSecurityLogs handles DELETE /api/admin/security/logs
func (h *AdminHandler) PruneSecurityLogs(w http.ResponseWriter, r *http.Request) {
	days := retentionDays(r)

	deleted, err := h.logs.DeleteOlderThan(r.Context(), fmt.Sprintf("%d days", days))
	if err != nil {
		pkghttp.WriteInternalError(w, "Failed to prune security logs")
		return
	}

	pkghttp.WriteJSON(w, http.StatusOK, map[string]interface{}{
		"deleted":        deleted,
		"retention_days": days,
	})
}

// retentionDays reads the days query parameter, defaulting to 30. Values
// under 7 are refused so a typo cannot wipe recent history.
func retentionDays(r *http.Request) int {
	days := 30
	if s := r.URL.Query().Get("days"); s != "" {
		if v, err := strconv.Atoi(s); err == nil && v >= 7 {
			days = v
		}
	}
	return days
}

// pagination extracts limit and offset query parameters with sane bounds
func pagination(r *http.Request) (int, int) {
	limit := 50
	offset := 0

	if s := r.URL.Query().Get("limit"); s != "" {
		if l, err := strconv.Atoi(s); err == nil && l > 0 && l <= 100 {
			limit = l
		}
	}
	if s := r.URL.Query().Get("offset"); s != "" {
		if o, err := strconv.Atoi(s); err == nil && o >= 0 {
			offset = o
		}
	}

	return limit, offset
}
