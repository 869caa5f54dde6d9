package persistence

import (
	"context"

	"github.com/crm/backend/internal/domain/billing"
	"github.com/crm/backend/internal/infrastructure/persistence/models"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// GormAuditLogRepository implements AuditLogRepository using GORM
type GormAuditLogRepository struct {
	db *gorm.DB
}

// NewGormAuditLogRepository creates a new GormAuditLogRepository
func NewGormAuditLogRepository(db *gorm.DB) *GormAuditLogRepository {
	return &GormAuditLogRepository{db: db}
}

// Append inserts an audit entry. Entries are never updated or deleted.
func (r *GormAuditLogRepository) Append(ctx context.Context, entry *billing.AuditLog) error {
	model := models.AuditLogModelFromDomain(entry)
	return r.db.WithContext(ctx).Create(model).Error
}

// FindByEntity returns the audit trail of one entity, newest first
func (r *GormAuditLogRepository) FindByEntity(ctx context.Context, entityType string, entityID uuid.UUID) ([]billing.AuditLog, error) {
	var logModels []models.AuditLogModel
	if err := r.db.WithContext(ctx).
		Where("entity_type = ? AND entity_id = ?", entityType, entityID).
		Order("created_at DESC").
		Find(&logModels).Error; err != nil {
		return nil, err
	}

	entries := make([]billing.AuditLog, len(logModels))
	for i := range logModels {
		entries[i] = *logModels[i].ToDomain()
	}
	return entries, nil
}
