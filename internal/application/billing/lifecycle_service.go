package billing

import (
	"context"
	"time"

	"github.com/crm/backend/internal/domain/billing"
	"go.uber.org/zap"
)

// InvoiceNumberPrefix is the prefix of generated invoice numbers
// (INV-<year>-<sequence>)
const InvoiceNumberPrefix = "INV"

// LifecycleService advances recurring invoices and demotes overdue ones.
// Both operations process their batch sequentially and isolate per-invoice
// failures: one bad invoice is logged and skipped, never aborting the run.
type LifecycleService struct {
	invoiceRepo billing.InvoiceRepository
	auditRepo   billing.AuditLogRepository
	logger      *zap.Logger
	now         func() time.Time
}

// NewLifecycleService creates a new LifecycleService
func NewLifecycleService(
	invoiceRepo billing.InvoiceRepository,
	auditRepo billing.AuditLogRepository,
	logger *zap.Logger,
) *LifecycleService {
	return &LifecycleService{
		invoiceRepo: invoiceRepo,
		auditRepo:   auditRepo,
		logger:      logger,
		now:         time.Now,
	}
}

// WithClock overrides the service clock. Test hook.
func (s *LifecycleService) WithClock(now func() time.Time) *LifecycleService {
	s.now = now
	return s
}

// RegenerateDueRecurring spawns a new SENT invoice for every recurring
// invoice whose nextRun has arrived, then advances the source's nextRun by
// its frequency. Returns the number of invoices created.
//
// Semantics are at-least-once: a crash after the spawn is created but before
// the source's nextRun is advanced regenerates a duplicate on the next run.
// The source system behaves the same way and no dedup key format is
// specified, so the gap is documented rather than papered over.
func (s *LifecycleService) RegenerateDueRecurring(ctx context.Context) (int, error) {
	now := s.now()

	due, err := s.invoiceRepo.FindDueRecurring(ctx, now)
	if err != nil {
		return 0, err
	}

	s.logger.Info("Processing recurring invoices", zap.Int("due", len(due)))

	created := 0
	for i := range due {
		source := &due[i]

		spawned := source.SpawnCopy("", now)
		if err := s.invoiceRepo.CreateWithNumber(ctx, spawned, InvoiceNumberPrefix); err != nil {
			s.logger.Error("Failed to create recurring invoice copy",
				zap.String("source_id", source.ID.String()),
				zap.Error(err),
			)
			continue
		}

		if err := source.AdvanceNextRun(now); err != nil {
			s.logger.Error("Failed to advance next run",
				zap.String("source_id", source.ID.String()),
				zap.Error(err),
			)
			continue
		}
		if err := s.invoiceRepo.Save(ctx, source); err != nil {
			// The copy exists but nextRun was not advanced; the source
			// stays due and regenerates again on the next run.
			s.logger.Error("Failed to save advanced next run",
				zap.String("source_id", source.ID.String()),
				zap.Error(err),
			)
			continue
		}

		created++
		s.logger.Info("Created recurring invoice",
			zap.String("number", spawned.Number),
			zap.String("client", source.ClientName()),
		)
	}

	return created, nil
}

// DemoteOverdue flips every SENT invoice past its due date to OVERDUE and
// appends one audit entry per transition. The SENT filter excludes invoices
// already demoted, so repeated runs are no-ops. This is the single shared
// demotion path; both the daily lifecycle job and the reminder scan call it.
func (s *LifecycleService) DemoteOverdue(ctx context.Context) (int, error) {
	now := s.now()

	overdue, err := s.invoiceRepo.FindOverdueSent(ctx, now)
	if err != nil {
		return 0, err
	}

	s.logger.Info("Checking for overdue invoices", zap.Int("found", len(overdue)))

	demoted := 0
	for i := range overdue {
		invoice := &overdue[i]

		if err := invoice.MarkOverdue(); err != nil {
			s.logger.Error("Failed to mark invoice overdue",
				zap.String("invoice_id", invoice.ID.String()),
				zap.Error(err),
			)
			continue
		}
		if err := s.invoiceRepo.Save(ctx, invoice); err != nil {
			s.logger.Error("Failed to save overdue invoice",
				zap.String("invoice_id", invoice.ID.String()),
				zap.Error(err),
			)
			continue
		}

		entry := billing.NewStatusChangeAudit(
			"Invoice", invoice.ID,
			billing.InvoiceStatusSent, billing.InvoiceStatusOverdue,
			"Past due date", invoice.ClientEmail(),
		)
		if err := s.auditRepo.Append(ctx, entry); err != nil {
			s.logger.Error("Failed to append audit entry",
				zap.String("invoice_id", invoice.ID.String()),
				zap.Error(err),
			)
			continue
		}

		demoted++
		s.logger.Info("Marked invoice as overdue",
			zap.String("number", invoice.Number),
			zap.String("client", invoice.ClientName()),
		)
	}

	return demoted, nil
}
