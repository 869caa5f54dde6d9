package models

import (
	"time"

	"github.com/crm/backend/internal/domain/reminder"
	"github.com/google/uuid"
)

// ReminderConfigModel is the persistence model for the reminder Config entity.
type ReminderConfigModel struct {
	BaseModel
	Type       reminder.Type     `gorm:"type:varchar(30);not null;uniqueIndex"`
	Enabled    bool              `gorm:"not null;default:false"`
	DaysBefore int               `gorm:"not null;default:0"`
	DaysAfter  int               `gorm:"not null;default:0"`
	TemplateID *uuid.UUID        `gorm:"type:uuid"`
	Channels   reminder.Channels `gorm:"type:jsonb"`
}

// TableName returns the table name for GORM
func (ReminderConfigModel) TableName() string {
	return "reminder_configs"
}

// ToDomain converts the persistence model to a domain Config entity.
func (m *ReminderConfigModel) ToDomain() *reminder.Config {
	return &reminder.Config{
		BaseEntity: m.BaseModel.ToDomain(),
		Type:       m.Type,
		Enabled:    m.Enabled,
		DaysBefore: m.DaysBefore,
		DaysAfter:  m.DaysAfter,
		TemplateID: m.TemplateID,
		Channels:   m.Channels,
	}
}

// FromDomain populates the persistence model from a domain Config entity.
func (m *ReminderConfigModel) FromDomain(c *reminder.Config) {
	m.FromDomainBaseEntity(c.BaseEntity)
	m.Type = c.Type
	m.Enabled = c.Enabled
	m.DaysBefore = c.DaysBefore
	m.DaysAfter = c.DaysAfter
	m.TemplateID = c.TemplateID
	m.Channels = c.Channels
}

// ReminderConfigModelFromDomain creates a new persistence model from a domain Config entity.
func ReminderConfigModelFromDomain(c *reminder.Config) *ReminderConfigModel {
	m := &ReminderConfigModel{}
	m.FromDomain(c)
	return m
}

// ReminderLogModel is the persistence model for the reminder Log entity.
// Rows are append-only; UpdatedAt is intentionally absent.
type ReminderLogModel struct {
	ID         uuid.UUID        `gorm:"type:uuid;primary_key"`
	EntityType string           `gorm:"type:varchar(50);not null;index:idx_reminder_entity,priority:1"`
	EntityID   uuid.UUID        `gorm:"type:uuid;not null;index:idx_reminder_entity,priority:2"`
	Type       reminder.Type    `gorm:"type:varchar(30);not null"`
	Channel    reminder.Channel `gorm:"type:varchar(10);not null"`
	Recipient  string           `gorm:"type:varchar(200)"`
	Status     reminder.Outcome `gorm:"type:varchar(10);not null"`
	SentAt     time.Time        `gorm:"not null;index"`
}

// TableName returns the table name for GORM
func (ReminderLogModel) TableName() string {
	return "reminder_logs"
}

// ToDomain converts the persistence model to a domain Log entity.
func (m *ReminderLogModel) ToDomain() *reminder.Log {
	return &reminder.Log{
		ID:         m.ID,
		EntityType: m.EntityType,
		EntityID:   m.EntityID,
		Type:       m.Type,
		Channel:    m.Channel,
		Recipient:  m.Recipient,
		Status:     m.Status,
		SentAt:     m.SentAt,
	}
}

// ReminderLogModelFromDomain creates a new persistence model from a domain Log entity.
func ReminderLogModelFromDomain(l *reminder.Log) *ReminderLogModel {
	return &ReminderLogModel{
		ID:         l.ID,
		EntityType: l.EntityType,
		EntityID:   l.EntityID,
		Type:       l.Type,
		Channel:    l.Channel,
		Recipient:  l.Recipient,
		Status:     l.Status,
		SentAt:     l.SentAt,
	}
}
