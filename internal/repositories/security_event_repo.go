package repositories

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/vitrinelabs/vitrine/internal/database"
	"github.com/vitrinelabs/vitrine/internal/models"
)

// SecurityEventRepository handles security event data access
type SecurityEventRepository struct {
	pool *pgxpool.Pool
}

// NewSecurityEventRepository creates a new SecurityEventRepository
func NewSecurityEventRepository(db *database.DB) *SecurityEventRepository {
	return &SecurityEventRepository{pool: db.Pool}
}

// rowScanner interface for scanning rows (supports both single row and multiple rows)
type rowScanner interface {
	Scan(dest ...interface{}) error
}

// scanSecurityEventRow handles nullable fields and populates a SecurityEvent model from a database row
func scanSecurityEventRow(row rowScanner) (*models.SecurityEvent, error) {
	var event models.SecurityEvent

	err := row.Scan(
		&event.ID, &event.EventType, &event.Severity, &event.IP,
		&event.UserAgent, &event.Endpoint, &event.Method, &event.Payload,
		&event.Blocked, &event.Description, &event.CreatedAt,
	)
	if err != nil {
		return nil, database.MapPostgresError(err)
	}

	return &event, nil
}

// scanSecurityEventRows iterates through rows and scans each into SecurityEvent models
func scanSecurityEventRows(rows pgx.Rows) ([]*models.SecurityEvent, error) {
	defer rows.Close()

	events := make([]*models.SecurityEvent, 0)

	for rows.Next() {
		event, err := scanSecurityEventRow(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan security event: %w", err)
		}
		events = append(events, event)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating security event rows: %w", err)
	}

	return events, nil
}

// Create inserts a new security event
func (r *SecurityEventRepository) Create(ctx context.Context, event *models.SecurityEvent) (*models.SecurityEvent, error) {
	query := `
		INSERT INTO security_events (
			event_type, severity, ip, user_agent, endpoint,
			method, payload, blocked, description
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		RETURNING id, event_type, severity, ip, user_agent, endpoint,
		          method, payload, blocked, description, created_at
	`

	result, err := scanSecurityEventRow(r.pool.QueryRow(
		ctx, query,
		event.EventType, event.Severity, event.IP, event.UserAgent, event.Endpoint,
		event.Method, event.Payload, event.Blocked, event.Description,
	))
	if err != nil {
		return nil, fmt.Errorf("failed to create security event: %w", err)
	}

	return result, nil
}

// List retrieves security events newest first
func (r *SecurityEventRepository) List(ctx context.Context, limit int, offset int) ([]*models.SecurityEvent, error) {
	query := `
		SELECT id, event_type, severity, ip, user_agent, endpoint,
		       method, payload, blocked, description, created_at
		FROM security_events
		ORDER BY created_at DESC
		LIMIT $1 OFFSET $2
	`

	rows, err := r.pool.Query(ctx, query, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("failed to query security events: %w", err)
	}

	return scanSecurityEventRows(rows)
}

// ListByIP retrieves security events for a single client address, newest first
func (r *SecurityEventRepository) ListByIP(ctx context.Context, ip string, limit int, offset int) ([]*models.SecurityEvent, error) {
	query := `
		SELECT id, event_type, severity, ip, user_agent, endpoint,
		       method, payload, blocked, description, created_at
		FROM security_events
		WHERE ip = $1
		ORDER BY created_at DESC
		LIMIT $2 OFFSET $3
	`

	rows, err := r.pool.Query(ctx, query, ip, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("failed to query security events by ip: %w", err)
	}

	return scanSecurityEventRows(rows)
}

// CountByType returns event counts per type since the given cutoff
func (r *SecurityEventRepository) CountByType(ctx context.Context, since string) (map[string]int, error) {
	query := `
		SELECT event_type, COUNT(*)
		FROM security_events
		WHERE created_at >= NOW() - $1::interval
		GROUP BY event_type
	`

	rows, err := r.pool.Query(ctx, query, since)
	if err != nil {
		return nil, fmt.Errorf("failed to count security events: %w", err)
	}
	defer rows.Close()

	counts := make(map[string]int)
	for rows.Next() {
		var eventType string
		var count int
		if err := rows.Scan(&eventType, &count); err != nil {
			return nil, fmt.Errorf("failed to scan event count: %w", err)
		}
		counts[eventType] = count
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating event count rows: %w", err)
	}

	return counts, nil
}

// DeleteOlderThan prunes events past the retention window
func (r *SecurityEventRepository) DeleteOlderThan(ctx context.Context, interval string) (int64, error) {
	query := `DELETE FROM security_events WHERE created_at < NOW() - $1::interval`

	tag, err := r.pool.Exec(ctx, query, interval)
	if err != nil {
		return 0, fmt.Errorf("failed to delete old security events: %w", err)
	}

	return tag.RowsAffected(), nil
}
