package models

import (
	"time"

	"github.com/google/uuid"
)

// Event types recorded by the security pipeline
const (
	SecurityEventSQLInjection      = "SQL_INJECTION"
	SecurityEventXSS               = "XSS"
	SecurityEventBruteForce        = "BRUTE_FORCE"
	SecurityEventSuspiciousRequest = "SUSPICIOUS_REQUEST"
)

// Severity levels
const (
	SeverityLow      = "LOW"
	SeverityMedium   = "MEDIUM"
	SeverityHigh     = "HIGH"
	SeverityCritical = "CRITICAL"
)

// SecurityEvent is an append-only record of a detected attack or block.
// Rows are written synchronously in the request path but their persistence
// failure never fails the request.
type SecurityEvent struct {
	ID          uuid.UUID `db:"id"`
	EventType   string    `db:"event_type"`
	Severity    string    `db:"severity"`
	IP          string    `db:"ip"`
	UserAgent   *string   `db:"user_agent"`
	Endpoint    string    `db:"endpoint"`
	Method      string    `db:"method"`
	Payload     string    `db:"payload"`
	Blocked     bool      `db:"blocked"`
	Description string    `db:"description"`
	CreatedAt   time.Time `db:"created_at"`
}
