package models

import (
	"time"

	"github.com/crm/backend/internal/domain/billing"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// ClientModel is the persistence model for the Client projection.
type ClientModel struct {
	BaseModel
	Name  string `gorm:"type:varchar(200);not null"`
	Email string `gorm:"type:varchar(200);index"`
}

// TableName returns the table name for GORM
func (ClientModel) TableName() string {
	return "clients"
}

// ToDomain converts the persistence model to a domain Client.
func (m *ClientModel) ToDomain() *billing.Client {
	return &billing.Client{
		ID:        m.ID,
		Name:      m.Name,
		Email:     m.Email,
		CreatedAt: m.CreatedAt,
		UpdatedAt: m.UpdatedAt,
	}
}

// InvoiceModel is the persistence model for the Invoice domain entity.
type InvoiceModel struct {
	BaseModel
	ClientID  uuid.UUID                   `gorm:"type:uuid;not null;index"`
	Client    *ClientModel                `gorm:"foreignKey:ClientID"`
	Number    string                      `gorm:"type:varchar(50);not null;uniqueIndex"`
	IssueDate time.Time                   `gorm:"not null"`
	DueDate   time.Time                   `gorm:"not null;index"`
	Status    billing.InvoiceStatus       `gorm:"type:varchar(20);not null;default:'DRAFT';index"`
	Items     billing.LineItems           `gorm:"type:jsonb"`
	Total     decimal.Decimal             `gorm:"type:decimal(18,4);not null;default:0"`
	Currency  string                      `gorm:"type:varchar(3);not null;default:'USD'"`
	Recurring bool                        `gorm:"not null;default:false;index"`
	Frequency billing.RecurrenceFrequency `gorm:"type:varchar(20)"`
	NextRun   *time.Time                  `gorm:"index"`
}

// TableName returns the table name for GORM
func (InvoiceModel) TableName() string {
	return "invoices"
}

// ToDomain converts the persistence model to a domain Invoice entity.
func (m *InvoiceModel) ToDomain() *billing.Invoice {
	inv := &billing.Invoice{
		BaseEntity: m.BaseModel.ToDomain(),
		ClientID:   m.ClientID,
		Number:     m.Number,
		IssueDate:  m.IssueDate,
		DueDate:    m.DueDate,
		Status:     m.Status,
		Items:      m.Items,
		Total:      m.Total,
		Currency:   m.Currency,
		Recurring:  m.Recurring,
		Frequency:  m.Frequency,
		NextRun:    m.NextRun,
	}
	if m.Client != nil {
		inv.Client = m.Client.ToDomain()
	}
	return inv
}

// FromDomain populates the persistence model from a domain Invoice entity.
// The associated client row is owned by the CRM and never written from here.
func (m *InvoiceModel) FromDomain(i *billing.Invoice) {
	m.FromDomainBaseEntity(i.BaseEntity)
	m.ClientID = i.ClientID
	m.Number = i.Number
	m.IssueDate = i.IssueDate
	m.DueDate = i.DueDate
	m.Status = i.Status
	m.Items = i.Items
	m.Total = i.Total
	m.Currency = i.Currency
	m.Recurring = i.Recurring
	m.Frequency = i.Frequency
	m.NextRun = i.NextRun
}

// InvoiceModelFromDomain creates a new persistence model from a domain Invoice entity.
func InvoiceModelFromDomain(i *billing.Invoice) *InvoiceModel {
	m := &InvoiceModel{}
	m.FromDomain(i)
	return m
}

// AuditLogModel is the persistence model for the AuditLog entity.
// Audit entries are append-only; UpdatedAt is intentionally absent.
type AuditLogModel struct {
	ID         uuid.UUID            `gorm:"type:uuid;primary_key"`
	ActorID    string               `gorm:"type:varchar(100);not null"`
	Action     billing.AuditAction  `gorm:"type:varchar(20);not null"`
	EntityType string               `gorm:"type:varchar(50);not null;index:idx_audit_entity,priority:1"`
	EntityID   uuid.UUID            `gorm:"type:uuid;not null;index:idx_audit_entity,priority:2"`
	Details    billing.AuditDetails `gorm:"type:jsonb"`
	CreatedAt  time.Time            `gorm:"not null"`
}

// TableName returns the table name for GORM
func (AuditLogModel) TableName() string {
	return "audit_logs"
}

// ToDomain converts the persistence model to a domain AuditLog entity.
func (m *AuditLogModel) ToDomain() *billing.AuditLog {
	return &billing.AuditLog{
		ID:         m.ID,
		ActorID:    m.ActorID,
		Action:     m.Action,
		EntityType: m.EntityType,
		EntityID:   m.EntityID,
		Details:    m.Details,
		CreatedAt:  m.CreatedAt,
	}
}

// AuditLogModelFromDomain creates a new persistence model from a domain AuditLog entity.
func AuditLogModelFromDomain(a *billing.AuditLog) *AuditLogModel {
	return &AuditLogModel{
		ID:         a.ID,
		ActorID:    a.ActorID,
		Action:     a.Action,
		EntityType: a.EntityType,
		EntityID:   a.EntityID,
		Details:    a.Details,
		CreatedAt:  a.CreatedAt,
	}
}
