package billing

import (
	"database/sql/driver"
	"encoding/json"
	"errors"
	"time"

	"github.com/google/uuid"
)

// SystemActor is the actor recorded for automated transitions
const SystemActor = "SYSTEM"

// AuditAction is the kind of change an audit entry records
type AuditAction string

const (
	AuditActionUpdate AuditAction = "UPDATE"
)

// AuditDetails is the structured payload of an audit entry, stored as JSONB
type AuditDetails map[string]interface{}

// Value implements driver.Valuer for GORM JSONB storage
func (d AuditDetails) Value() (driver.Value, error) {
	if d == nil {
		return "{}", nil
	}
	return json.Marshal(d)
}

// Scan implements sql.Scanner for GORM JSONB storage
func (d *AuditDetails) Scan(value interface{}) error {
	if value == nil {
		*d = AuditDetails{}
		return nil
	}

	var bytes []byte
	switch v := value.(type) {
	case []byte:
		bytes = v
	case string:
		bytes = []byte(v)
	default:
		return errors.New("failed to scan AuditDetails: unsupported type")
	}

	if len(bytes) == 0 {
		*d = AuditDetails{}
		return nil
	}

	return json.Unmarshal(bytes, d)
}

// AuditLog is an append-only record of a change forced on an entity.
// Entries reference their entity by id only; deleting the entity does not
// cascade here.
type AuditLog struct {
	ID         uuid.UUID    `json:"id"`
	ActorID    string       `json:"actor_id"`
	Action     AuditAction  `json:"action"`
	EntityType string       `json:"entity_type"`
	EntityID   uuid.UUID    `json:"entity_id"`
	Details    AuditDetails `json:"details"`
	CreatedAt  time.Time    `json:"created_at"`
}

// NewStatusChangeAudit builds the audit entry for a forced status transition
func NewStatusChangeAudit(entityType string, entityID uuid.UUID, from, to InvoiceStatus, reason, clientEmail string) *AuditLog {
	details := AuditDetails{
		"type":   "STATUS_CHANGE",
		"from":   from.String(),
		"to":     to.String(),
		"reason": reason,
	}
	if clientEmail != "" {
		details["client_email"] = clientEmail
	}
	return &AuditLog{
		ID:         uuid.New(),
		ActorID:    SystemActor,
		Action:     AuditActionUpdate,
		EntityType: entityType,
		EntityID:   entityID,
		Details:    details,
		CreatedAt:  time.Now(),
	}
}
