package reminder

import (
	"context"

	"github.com/google/uuid"
)

// ConfigRepository defines persistence operations for reminder configs
type ConfigRepository interface {
	// FindAll returns all config rows ordered by type
	FindAll(ctx context.Context) ([]Config, error)

	// FindByID returns one config row, or shared.ErrNotFound
	FindByID(ctx context.Context, id uuid.UUID) (*Config, error)

	// FindEnabledByType returns the enabled config for a type, or
	// shared.ErrNotFound when absent or disabled
	FindEnabledByType(ctx context.Context, t Type) (*Config, error)

	// Count returns the total number of config rows
	Count(ctx context.Context) (int64, error)

	// CreateBatch inserts a set of config rows
	CreateBatch(ctx context.Context, configs []Config) error

	// Save persists changes to an existing config row
	Save(ctx context.Context, config *Config) error
}

// LogRepository defines persistence for the reminder audit trail
type LogRepository interface {
	// Append writes one immutable log entry
	Append(ctx context.Context, entry *Log) error

	// FindAll returns log entries matching the filter, newest first
	FindAll(ctx context.Context, filter LogFilter) ([]Log, error)
}
