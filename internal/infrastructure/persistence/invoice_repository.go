package persistence

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/crm/backend/internal/domain/billing"
	"github.com/crm/backend/internal/domain/shared"
	"github.com/crm/backend/internal/infrastructure/persistence/models"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// GormInvoiceRepository implements InvoiceRepository using GORM
type GormInvoiceRepository struct {
	db *gorm.DB
}

// NewGormInvoiceRepository creates a new GormInvoiceRepository
func NewGormInvoiceRepository(db *gorm.DB) *GormInvoiceRepository {
	return &GormInvoiceRepository{db: db}
}

// FindByID finds an invoice by its ID with the client relation loaded
func (r *GormInvoiceRepository) FindByID(ctx context.Context, id uuid.UUID) (*billing.Invoice, error) {
	var model models.InvoiceModel
	if err := r.db.WithContext(ctx).
		Preload("Client").
		First(&model, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return model.ToDomain(), nil
}

// FindDueRecurring finds recurring invoices whose next run has arrived
func (r *GormInvoiceRepository) FindDueRecurring(ctx context.Context, now time.Time) ([]billing.Invoice, error) {
	var invoiceModels []models.InvoiceModel
	if err := r.db.WithContext(ctx).
		Preload("Client").
		Where("recurring = ? AND next_run IS NOT NULL AND next_run <= ?", true, now).
		Find(&invoiceModels).Error; err != nil {
		return nil, err
	}
	return toDomainInvoices(invoiceModels), nil
}

// FindOverdueSent finds SENT invoices whose due date has passed
func (r *GormInvoiceRepository) FindOverdueSent(ctx context.Context, now time.Time) ([]billing.Invoice, error) {
	var invoiceModels []models.InvoiceModel
	if err := r.db.WithContext(ctx).
		Preload("Client").
		Where("status = ? AND due_date < ?", billing.InvoiceStatusSent, now).
		Find(&invoiceModels).Error; err != nil {
		return nil, err
	}
	return toDomainInvoices(invoiceModels), nil
}

// FindOverdueForReminder finds SENT and OVERDUE invoices due before the
// cutoff, oldest due date first
func (r *GormInvoiceRepository) FindOverdueForReminder(ctx context.Context, cutoff time.Time) ([]billing.Invoice, error) {
	var invoiceModels []models.InvoiceModel
	if err := r.db.WithContext(ctx).
		Preload("Client").
		Where("status IN ? AND due_date < ?",
			[]billing.InvoiceStatus{billing.InvoiceStatusSent, billing.InvoiceStatusOverdue}, cutoff).
		Order("due_date ASC").
		Find(&invoiceModels).Error; err != nil {
		return nil, err
	}
	return toDomainInvoices(invoiceModels), nil
}

// FindDueSoon finds SENT invoices falling due within [from, to]
func (r *GormInvoiceRepository) FindDueSoon(ctx context.Context, from, to time.Time) ([]billing.Invoice, error) {
	var invoiceModels []models.InvoiceModel
	if err := r.db.WithContext(ctx).
		Preload("Client").
		Where("status = ? AND due_date >= ? AND due_date <= ?", billing.InvoiceStatusSent, from, to).
		Order("due_date ASC").
		Find(&invoiceModels).Error; err != nil {
		return nil, err
	}
	return toDomainInvoices(invoiceModels), nil
}

// CreateWithNumber allocates the next sequential invoice number for the
// prefix and the issue year, then inserts, inside one transaction. The
// transaction serializes the count against concurrent writers; a collision
// surfaces as a unique index violation and rolls back.
func (r *GormInvoiceRepository) CreateWithNumber(ctx context.Context, invoice *billing.Invoice, prefix string) error {
	year := invoice.IssueDate.Year()
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var count int64
		if err := tx.Model(&models.InvoiceModel{}).
			Where("number LIKE ?", fmt.Sprintf("%s-%d-%%", prefix, year)).
			Count(&count).Error; err != nil {
			return err
		}

		invoice.Number = fmt.Sprintf("%s-%d-%04d", prefix, year, count+1)
		return tx.Create(models.InvoiceModelFromDomain(invoice)).Error
	})
}

// Save persists changes to an existing invoice
func (r *GormInvoiceRepository) Save(ctx context.Context, invoice *billing.Invoice) error {
	model := models.InvoiceModelFromDomain(invoice)
	return r.db.WithContext(ctx).Save(model).Error
}

func toDomainInvoices(invoiceModels []models.InvoiceModel) []billing.Invoice {
	invoices := make([]billing.Invoice, len(invoiceModels))
	for i := range invoiceModels {
		invoices[i] = *invoiceModels[i].ToDomain()
	}
	return invoices
}
