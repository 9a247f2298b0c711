package repositories

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/vitrinelabs/vitrine/internal/database"
	"github.com/vitrinelabs/vitrine/internal/models"
)

// SecurityLogRepository handles security log data access
type SecurityLogRepository struct {
	pool *pgxpool.Pool
}

// NewSecurityLogRepository creates a new SecurityLogRepository
func NewSecurityLogRepository(db *database.DB) *SecurityLogRepository {
	return &SecurityLogRepository{pool: db.Pool}
}

// scanSecurityLogRow handles nullable fields and populates a SecurityLog model from a database row
func scanSecurityLogRow(row rowScanner) (*models.SecurityLog, error) {
	var log models.SecurityLog

	err := row.Scan(
		&log.ID, &log.Level, &log.Message, &log.IP, &log.UserAgent,
		&log.UserID, &log.Endpoint, &log.Method, &log.StatusCode,
		&log.Details, &log.CreatedAt,
	)
	if err != nil {
		return nil, database.MapPostgresError(err)
	}

	return &log, nil
}

// scanSecurityLogRows iterates through rows and scans each into SecurityLog models
func scanSecurityLogRows(rows pgx.Rows) ([]*models.SecurityLog, error) {
	defer rows.Close()

	logs := make([]*models.SecurityLog, 0)

	for rows.Next() {
		log, err := scanSecurityLogRow(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan security log: %w", err)
		}
		logs = append(logs, log)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating security log rows: %w", err)
	}

	return logs, nil
}

// Create inserts a new security log entry
func (r *SecurityLogRepository) Create(ctx context.Context, log *models.SecurityLog) (*models.SecurityLog, error) {
	query := `
		INSERT INTO security_logs (
			level, message, ip, user_agent, user_id,
			endpoint, method, status_code, details
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		RETURNING id, level, message, ip, user_agent, user_id,
		          endpoint, method, status_code, details, created_at
	`

	result, err := scanSecurityLogRow(r.pool.QueryRow(
		ctx, query,
		log.Level, log.Message, log.IP, log.UserAgent, log.UserID,
		log.Endpoint, log.Method, log.StatusCode, log.Details,
	))
	if err != nil {
		return nil, fmt.Errorf("failed to create security log: %w", err)
	}

	return result, nil
}

// List retrieves security logs newest first, optionally filtered by level
func (r *SecurityLogRepository) List(ctx context.Context, level string, limit int, offset int) ([]*models.SecurityLog, error) {
	query := `
		SELECT id, level, message, ip, user_agent, user_id,
		       endpoint, method, status_code, details, created_at
		FROM security_logs
		WHERE ($1 = '' OR level = $1)
		ORDER BY created_at DESC
		LIMIT $2 OFFSET $3
	`

	rows, err := r.pool.Query(ctx, query, level, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("failed to query security logs: %w", err)
	}

	return scanSecurityLogRows(rows)
}

// DeleteOlderThan prunes log rows past the retention window
func (r *SecurityLogRepository) DeleteOlderThan(ctx context.Context, interval string) (int64, error) {
	query := `DELETE FROM security_logs WHERE created_at < NOW() - $1::interval`

	tag, err := r.pool.Exec(ctx, query, interval)
	if err != nil {
		return 0, fmt.Errorf("failed to delete old security logs: %w", err)
	}

	return tag.RowsAffected(), nil
}
