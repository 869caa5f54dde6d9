package billing

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// InvoiceRepository defines persistence operations for invoices.
// Finder methods load the client relation so callers can reach the
// contact address without a second query.
type InvoiceRepository interface {
	// FindByID returns the invoice with its client, or shared.ErrNotFound
	FindByID(ctx context.Context, id uuid.UUID) (*Invoice, error)

	// FindDueRecurring returns recurring invoices with nextRun <= now
	FindDueRecurring(ctx context.Context, now time.Time) ([]Invoice, error)

	// FindOverdueSent returns SENT invoices whose due date has passed
	FindOverdueSent(ctx context.Context, now time.Time) ([]Invoice, error)

	// FindOverdueForReminder returns SENT and OVERDUE invoices with a due
	// date before the cutoff, ordered by due date ascending
	FindOverdueForReminder(ctx context.Context, cutoff time.Time) ([]Invoice, error)

	// FindDueSoon returns SENT invoices due within [from, to]
	FindDueSoon(ctx context.Context, from, to time.Time) ([]Invoice, error)

	// CreateWithNumber allocates the next sequential number for the prefix
	// and calendar year of the invoice's issue date, then inserts the
	// invoice, all inside one transaction. Number allocation counts
	// invoices already issued under the same prefix and year, so the
	// transaction is what keeps concurrent writers from colliding.
	CreateWithNumber(ctx context.Context, invoice *Invoice, prefix string) error

	// Save persists changes to an existing invoice
	Save(ctx context.Context, invoice *Invoice) error
}

// AuditLogRepository defines persistence for the append-only audit trail
type AuditLogRepository interface {
	Append(ctx context.Context, entry *AuditLog) error
	FindByEntity(ctx context.Context, entityType string, entityID uuid.UUID) ([]AuditLog, error)
}
