package persistence

import (
	"context"
	"errors"

	"github.com/crm/backend/internal/domain/reminder"
	"github.com/crm/backend/internal/domain/shared"
	"github.com/crm/backend/internal/infrastructure/persistence/models"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// GormReminderConfigRepository implements ConfigRepository using GORM
type GormReminderConfigRepository struct {
	db *gorm.DB
}

// NewGormReminderConfigRepository creates a new GormReminderConfigRepository
func NewGormReminderConfigRepository(db *gorm.DB) *GormReminderConfigRepository {
	return &GormReminderConfigRepository{db: db}
}

// FindAll returns every configuration row ordered by type
func (r *GormReminderConfigRepository) FindAll(ctx context.Context) ([]reminder.Config, error) {
	var configModels []models.ReminderConfigModel
	if err := r.db.WithContext(ctx).
		Order("type ASC").
		Find(&configModels).Error; err != nil {
		return nil, err
	}

	configs := make([]reminder.Config, len(configModels))
	for i := range configModels {
		configs[i] = *configModels[i].ToDomain()
	}
	return configs, nil
}

// FindByID finds a configuration row by its ID
func (r *GormReminderConfigRepository) FindByID(ctx context.Context, id uuid.UUID) (*reminder.Config, error) {
	var model models.ReminderConfigModel
	if err := r.db.WithContext(ctx).First(&model, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return model.ToDomain(), nil
}

// FindEnabledByType finds the enabled configuration row for a reminder type.
// Returns shared.ErrNotFound when the row is absent or disabled.
func (r *GormReminderConfigRepository) FindEnabledByType(ctx context.Context, t reminder.Type) (*reminder.Config, error) {
	var model models.ReminderConfigModel
	if err := r.db.WithContext(ctx).
		Where("type = ? AND enabled = ?", t, true).
		First(&model).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return model.ToDomain(), nil
}

// Count returns the number of configuration rows
func (r *GormReminderConfigRepository) Count(ctx context.Context) (int64, error) {
	var count int64
	if err := r.db.WithContext(ctx).
		Model(&models.ReminderConfigModel{}).
		Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}

// CreateBatch inserts the given configuration rows in one statement
func (r *GormReminderConfigRepository) CreateBatch(ctx context.Context, configs []reminder.Config) error {
	configModels := make([]models.ReminderConfigModel, len(configs))
	for i := range configs {
		configModels[i] = *models.ReminderConfigModelFromDomain(&configs[i])
	}
	return r.db.WithContext(ctx).Create(&configModels).Error
}

// Save persists changes to an existing configuration row
func (r *GormReminderConfigRepository) Save(ctx context.Context, config *reminder.Config) error {
	model := models.ReminderConfigModelFromDomain(config)
	return r.db.WithContext(ctx).Save(model).Error
}
