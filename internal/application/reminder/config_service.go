package reminder

import (
	"context"

	"github.com/crm/backend/internal/domain/reminder"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// DefaultLogLimit caps log listings when the caller gives no limit
const DefaultLogLimit = 50

// ConfigService administers reminder configuration and exposes the dispatch
// audit trail
type ConfigService struct {
	configRepo reminder.ConfigRepository
	logRepo    reminder.LogRepository
	logger     *zap.Logger
}

// NewConfigService creates a new ConfigService
func NewConfigService(
	configRepo reminder.ConfigRepository,
	logRepo reminder.LogRepository,
	logger *zap.Logger,
) *ConfigService {
	return &ConfigService{
		configRepo: configRepo,
		logRepo:    logRepo,
		logger:     logger,
	}
}

// GetConfigs returns all configuration rows, seeding the fixed default set
// first when none exist. The seed check is all-or-nothing: it fires only on
// a completely empty table, not per missing type.
func (s *ConfigService) GetConfigs(ctx context.Context) ([]reminder.Config, error) {
	count, err := s.configRepo.Count(ctx)
	if err != nil {
		return nil, err
	}

	if count == 0 {
		s.logger.Info("No reminder configs found, seeding defaults")
		if err := s.configRepo.CreateBatch(ctx, reminder.DefaultConfigs()); err != nil {
			return nil, err
		}
	}
	return s.configRepo.FindAll(ctx)
}

// UpdateConfig applies a partial update to one config row by id
func (s *ConfigService) UpdateConfig(ctx context.Context, id uuid.UUID, update reminder.ConfigUpdate) (*reminder.Config, error) {
	config, err := s.configRepo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}

	update.Apply(config)
	if err := s.configRepo.Save(ctx, config); err != nil {
		return nil, err
	}
	return config, nil
}

// ListLogs returns dispatch log entries matching the filter, newest first
func (s *ConfigService) ListLogs(ctx context.Context, filter reminder.LogFilter) ([]reminder.Log, error) {
	if filter.Limit <= 0 {
		filter.Limit = DefaultLogLimit
	}
	return s.logRepo.FindAll(ctx, filter)
}
