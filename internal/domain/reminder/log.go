package reminder

import (
	"time"

	"github.com/google/uuid"
)

// Outcome is the result of one dispatch attempt
type Outcome string

const (
	// OutcomeSent means the transport delivered the message
	OutcomeSent Outcome = "SENT"
	// OutcomeFailed means the transport was attempted and raised an error
	OutcomeFailed Outcome = "FAILED"
	// OutcomeLogged means no transport was available; the reminder was
	// recorded but not delivered
	OutcomeLogged Outcome = "LOGGED"
)

// IsValid checks if the outcome is a recognized value
func (o Outcome) IsValid() bool {
	return o == OutcomeSent || o == OutcomeFailed || o == OutcomeLogged
}

// EntityTypeInvoice is the entity type recorded for invoice reminders
const EntityTypeInvoice = "INVOICE"

// Log is the append-only audit record of one dispatch attempt. Exactly one
// entry is written per (entity, channel) attempt regardless of transport
// success; entries are immutable and retained indefinitely.
type Log struct {
	ID         uuid.UUID `json:"id"`
	EntityType string    `json:"entity_type"`
	EntityID   uuid.UUID `json:"entity_id"`
	Type       Type      `json:"type"`
	Channel    Channel   `json:"channel"`
	Recipient  string    `json:"recipient"`
	Status     Outcome   `json:"status"`
	SentAt     time.Time `json:"sent_at"`
}

// NewLog creates a log entry for a dispatch attempt
func NewLog(entityType string, entityID uuid.UUID, reminderType Type, channel Channel, recipient string, status Outcome) *Log {
	return &Log{
		ID:         uuid.New(),
		EntityType: entityType,
		EntityID:   entityID,
		Type:       reminderType,
		Channel:    channel,
		Recipient:  recipient,
		Status:     status,
		SentAt:     time.Now(),
	}
}

// LogFilter narrows log queries from the HTTP surface
type LogFilter struct {
	EntityType string
	EntityID   *uuid.UUID
	Limit      int
}
