package models

import (
	"database/sql/driver"
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// Audit actions
const (
	AuditActionCreate = "CREATE"
	AuditActionUpdate = "UPDATE"
	AuditActionDelete = "DELETE"
	AuditActionLogin  = "LOGIN"
	AuditActionAccess = "ACCESS"
)

// AuditLog records who did what to which entity. Append-only.
type AuditLog struct {
	ID          uuid.UUID    `db:"id"`
	UserID      string       `db:"user_id"`
	Action      string       `db:"action"`
	EntityType  string       `db:"entity_type"`
	EntityID    *string      `db:"entity_id"`
	Description string       `db:"description"`
	IP          *string      `db:"ip"`
	UserAgent   *string      `db:"user_agent"`
	Changes     AuditChanges `db:"changes"`
	CreatedAt   time.Time    `db:"created_at"`
}

// AuditChanges holds the field-level diff of an audited mutation
type AuditChanges map[string]interface{}

// Scan implements sql.Scanner for JSONB
func (ac *AuditChanges) Scan(value interface{}) error {
	if value == nil {
		*ac = nil
		return nil
	}

	bytes, ok := value.([]byte)
	if !ok {
		return ErrBadRequest
	}

	var m map[string]interface{}
	if err := json.Unmarshal(bytes, &m); err != nil {
		return err
	}
	*ac = AuditChanges(m)
	return nil
}

// Value implements driver.Valuer for JSONB
func (ac AuditChanges) Value() (driver.Value, error) {
	if ac == nil {
		return nil, nil
	}
	return json.Marshal(ac)
}
