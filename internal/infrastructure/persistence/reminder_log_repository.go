package persistence

import (
	"context"

	"github.com/crm/backend/internal/domain/reminder"
	"github.com/crm/backend/internal/infrastructure/persistence/models"
	"gorm.io/gorm"
)

// GormReminderLogRepository implements LogRepository using GORM
type GormReminderLogRepository struct {
	db *gorm.DB
}

// NewGormReminderLogRepository creates a new GormReminderLogRepository
func NewGormReminderLogRepository(db *gorm.DB) *GormReminderLogRepository {
	return &GormReminderLogRepository{db: db}
}

// Append inserts a dispatch log entry. Entries are never updated or deleted.
func (r *GormReminderLogRepository) Append(ctx context.Context, entry *reminder.Log) error {
	model := models.ReminderLogModelFromDomain(entry)
	return r.db.WithContext(ctx).Create(model).Error
}

// FindAll returns log entries matching the filter, newest first
func (r *GormReminderLogRepository) FindAll(ctx context.Context, filter reminder.LogFilter) ([]reminder.Log, error) {
	query := r.db.WithContext(ctx).Model(&models.ReminderLogModel{})

	if filter.EntityType != "" {
		query = query.Where("entity_type = ?", filter.EntityType)
	}
	if filter.EntityID != nil {
		query = query.Where("entity_id = ?", *filter.EntityID)
	}
	if filter.Limit > 0 {
		query = query.Limit(filter.Limit)
	}

	var logModels []models.ReminderLogModel
	if err := query.Order("sent_at DESC").Find(&logModels).Error; err != nil {
		return nil, err
	}

	entries := make([]reminder.Log, len(logModels))
	for i := range logModels {
		entries[i] = *logModels[i].ToDomain()
	}
	return entries, nil
}
