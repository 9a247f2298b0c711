package models

import (
	"time"

	"github.com/google/uuid"
)

// Log levels for security log entries
const (
	LogLevelInfo          = "INFO"
	LogLevelWarning       = "WARNING"
	LogLevelError         = "ERROR"
	LogLevelSecurityAlert = "SECURITY_ALERT"
)

// SecurityLog is a lower-granularity structured log line persisted for
// observability. Append-only; never used for control decisions.
type SecurityLog struct {
	ID         uuid.UUID `db:"id"`
	Level      string    `db:"level"`
	Message    string    `db:"message"`
	IP         *string   `db:"ip"`
	UserAgent  *string   `db:"user_agent"`
	UserID     *string   `db:"user_id"`
	Endpoint   *string   `db:"endpoint"`
	Method     *string   `db:"method"`
	StatusCode *int      `db:"status_code"`
	Details    *string   `db:"details"`
	CreatedAt  time.Time `db:"created_at"`
}
