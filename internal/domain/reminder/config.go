package reminder

import (
	"database/sql/driver"
	"encoding/json"
	"errors"

	"github.com/crm/backend/internal/domain/shared"
	"github.com/google/uuid"
)

// Type identifies which reminder policy and template apply
type Type string

const (
	TypeInvoiceOverdue   Type = "INVOICE_OVERDUE"
	TypeInvoiceDueSoon   Type = "INVOICE_DUE_SOON"
	TypeEstimateFollowup Type = "ESTIMATE_FOLLOWUP"
)

// IsValid checks if the type is a recognized reminder type
func (t Type) IsValid() bool {
	switch t {
	case TypeInvoiceOverdue, TypeInvoiceDueSoon, TypeEstimateFollowup:
		return true
	}
	return false
}

// String returns the string representation of Type
func (t Type) String() string {
	return string(t)
}

// Channel is a delivery mechanism for a reminder. SMS is accepted by the
// config schema but currently produces no dispatch action.
type Channel string

const (
	ChannelEmail Channel = "EMAIL"
	ChannelSMS   Channel = "SMS"
)

// Channels is an ordered set of channels stored as JSONB
type Channels []Channel

// Value implements driver.Valuer for GORM JSONB storage
func (c Channels) Value() (driver.Value, error) {
	if c == nil {
		return "[]", nil
	}
	return json.Marshal(c)
}

// Scan implements sql.Scanner for GORM JSONB storage
func (c *Channels) Scan(value interface{}) error {
	if value == nil {
		*c = Channels{}
		return nil
	}

	var bytes []byte
	switch v := value.(type) {
	case []byte:
		bytes = v
	case string:
		bytes = []byte(v)
	default:
		return errors.New("failed to scan Channels: unsupported type")
	}

	if len(bytes) == 0 {
		*c = Channels{}
		return nil
	}

	return json.Unmarshal(bytes, c)
}

// Config holds the active policy for one reminder type. Exactly one row
// exists per type; missing rows are seeded with defaults on first read.
type Config struct {
	shared.BaseEntity
	Type       Type       `json:"type"`
	Enabled    bool       `json:"enabled"`
	DaysBefore int        `json:"days_before"`
	DaysAfter  int        `json:"days_after"`
	TemplateID *uuid.UUID `json:"template_id,omitempty"`
	Channels   Channels   `json:"channels"`
}

// DefaultConfigs returns the fixed default set seeded when no configuration
// rows exist at all. The seed is all-or-nothing: it fires only on a fully
// empty table, never as a per-type backfill.
func DefaultConfigs() []Config {
	return []Config{
		{
			BaseEntity: shared.NewBaseEntity(),
			Type:       TypeInvoiceOverdue,
			Enabled:    true,
			DaysAfter:  1,
			Channels:   Channels{ChannelEmail},
		},
		{
			BaseEntity: shared.NewBaseEntity(),
			Type:       TypeInvoiceDueSoon,
			Enabled:    true,
			DaysBefore: 3,
			Channels:   Channels{ChannelEmail},
		},
		{
			BaseEntity: shared.NewBaseEntity(),
			Type:       TypeEstimateFollowup,
			Enabled:    false,
			DaysAfter:  7,
			Channels:   Channels{ChannelEmail},
		},
	}
}

// ConfigUpdate carries a partial update to one config row. Nil fields are
// left unchanged; no validation beyond what storage enforces.
type ConfigUpdate struct {
	Enabled    *bool      `json:"enabled,omitempty"`
	DaysBefore *int       `json:"days_before,omitempty"`
	DaysAfter  *int       `json:"days_after,omitempty"`
	TemplateID *uuid.UUID `json:"template_id,omitempty"`
	Channels   *Channels  `json:"channels,omitempty"`
}

// Apply merges the update into the config
func (u ConfigUpdate) Apply(c *Config) {
	if u.Enabled != nil {
		c.Enabled = *u.Enabled
	}
	if u.DaysBefore != nil {
		c.DaysBefore = *u.DaysBefore
	}
	if u.DaysAfter != nil {
		c.DaysAfter = *u.DaysAfter
	}
	if u.TemplateID != nil {
		c.TemplateID = u.TemplateID
	}
	if u.Channels != nil {
		c.Channels = *u.Channels
	}
	c.Touch()
}
