package billing

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/crm/backend/internal/domain/billing"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

// MockInvoiceRepository is a mock implementation of billing.InvoiceRepository
type MockInvoiceRepository struct {
	mock.Mock
}

func (m *MockInvoiceRepository) FindByID(ctx context.Context, id uuid.UUID) (*billing.Invoice, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*billing.Invoice), args.Error(1)
}

func (m *MockInvoiceRepository) FindDueRecurring(ctx context.Context, now time.Time) ([]billing.Invoice, error) {
	args := m.Called(ctx, now)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]billing.Invoice), args.Error(1)
}

func (m *MockInvoiceRepository) FindOverdueSent(ctx context.Context, now time.Time) ([]billing.Invoice, error) {
	args := m.Called(ctx, now)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]billing.Invoice), args.Error(1)
}

func (m *MockInvoiceRepository) FindOverdueForReminder(ctx context.Context, cutoff time.Time) ([]billing.Invoice, error) {
	args := m.Called(ctx, cutoff)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]billing.Invoice), args.Error(1)
}

func (m *MockInvoiceRepository) FindDueSoon(ctx context.Context, from, to time.Time) ([]billing.Invoice, error) {
	args := m.Called(ctx, from, to)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]billing.Invoice), args.Error(1)
}

func (m *MockInvoiceRepository) CreateWithNumber(ctx context.Context, invoice *billing.Invoice, prefix string) error {
	args := m.Called(ctx, invoice, prefix)
	return args.Error(0)
}

func (m *MockInvoiceRepository) Save(ctx context.Context, invoice *billing.Invoice) error {
	args := m.Called(ctx, invoice)
	return args.Error(0)
}

// MockAuditLogRepository is a mock implementation of billing.AuditLogRepository
type MockAuditLogRepository struct {
	mock.Mock
}

func (m *MockAuditLogRepository) Append(ctx context.Context, entry *billing.AuditLog) error {
	args := m.Called(ctx, entry)
	return args.Error(0)
}

func (m *MockAuditLogRepository) FindByEntity(ctx context.Context, entityType string, entityID uuid.UUID) ([]billing.AuditLog, error) {
	args := m.Called(ctx, entityType, entityID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]billing.AuditLog), args.Error(1)
}

// Test helpers

func fixedClock(t time.Time) func() time.Time {
	return func() time.Time { return t }
}

func recurringInvoice(t *testing.T, frequency billing.RecurrenceFrequency, nextRun time.Time) *billing.Invoice {
	t.Helper()
	issue := nextRun.AddDate(0, -1, 0)
	inv, err := billing.NewInvoice(uuid.New(), "INV-2026-0001", issue, issue.AddDate(0, 0, 35),
		billing.LineItems{
			{Description: "Retainer", Quantity: decimal.NewFromInt(1), UnitPrice: decimal.NewFromInt(500), TaxPercent: decimal.Zero},
		}, "USD")
	require.NoError(t, err)
	require.NoError(t, inv.MarkSent())
	inv.SetRecurrence(frequency, nextRun)
	inv.Client = &billing.Client{ID: inv.ClientID, Name: "Acme Co", Email: "billing@acme.test"}
	return inv
}

func sentInvoice(t *testing.T, dueDate time.Time) *billing.Invoice {
	t.Helper()
	issue := dueDate.AddDate(0, 0, -30)
	inv, err := billing.NewInvoice(uuid.New(), "INV-2026-0002", issue, dueDate,
		billing.LineItems{
			{Description: "Work", Quantity: decimal.NewFromInt(2), UnitPrice: decimal.NewFromInt(100), TaxPercent: decimal.NewFromInt(10)},
		}, "USD")
	require.NoError(t, err)
	require.NoError(t, inv.MarkSent())
	inv.Client = &billing.Client{ID: inv.ClientID, Name: "Acme Co", Email: "billing@acme.test"}
	return inv
}

func newTestService(invoiceRepo *MockInvoiceRepository, auditRepo *MockAuditLogRepository, now time.Time) *LifecycleService {
	return NewLifecycleService(invoiceRepo, auditRepo, zap.NewNop()).WithClock(fixedClock(now))
}

func TestLifecycleService_RegenerateDueRecurring(t *testing.T) {
	now := time.Date(2026, time.August, 15, 1, 0, 0, 0, time.UTC)

	t.Run("creates copy and advances next run", func(t *testing.T) {
		invoiceRepo := new(MockInvoiceRepository)
		auditRepo := new(MockAuditLogRepository)
		svc := newTestService(invoiceRepo, auditRepo, now)

		source := recurringInvoice(t, billing.FrequencyMonthly, now)
		invoiceRepo.On("FindDueRecurring", mock.Anything, now).Return([]billing.Invoice{*source}, nil)

		var spawned *billing.Invoice
		invoiceRepo.On("CreateWithNumber", mock.Anything, mock.AnythingOfType("*billing.Invoice"), InvoiceNumberPrefix).
			Run(func(args mock.Arguments) {
				spawned = args.Get(1).(*billing.Invoice)
			}).Return(nil)

		var saved *billing.Invoice
		invoiceRepo.On("Save", mock.Anything, mock.AnythingOfType("*billing.Invoice")).
			Run(func(args mock.Arguments) {
				saved = args.Get(1).(*billing.Invoice)
			}).Return(nil)

		created, err := svc.RegenerateDueRecurring(context.Background())
		require.NoError(t, err)
		assert.Equal(t, 1, created)

		require.NotNil(t, spawned)
		assert.Equal(t, billing.InvoiceStatusSent, spawned.Status)
		assert.Equal(t, now, spawned.IssueDate)
		assert.Equal(t, now.AddDate(0, 0, 30), spawned.DueDate)
		assert.False(t, spawned.Recurring)
		assert.True(t, source.Total.Equal(spawned.Total))

		require.NotNil(t, saved)
		require.NotNil(t, saved.NextRun)
		assert.Equal(t, time.Date(2026, time.September, 15, 0, 0, 0, 0, time.UTC), *saved.NextRun)

		invoiceRepo.AssertExpectations(t)
	})

	t.Run("one failing invoice does not abort the batch", func(t *testing.T) {
		invoiceRepo := new(MockInvoiceRepository)
		auditRepo := new(MockAuditLogRepository)
		svc := newTestService(invoiceRepo, auditRepo, now)

		bad := recurringInvoice(t, billing.FrequencyWeekly, now)
		good := recurringInvoice(t, billing.FrequencyWeekly, now)
		invoiceRepo.On("FindDueRecurring", mock.Anything, now).Return([]billing.Invoice{*bad, *good}, nil)

		invoiceRepo.On("CreateWithNumber", mock.Anything, mock.AnythingOfType("*billing.Invoice"), InvoiceNumberPrefix).
			Return(errors.New("write error")).Once()
		invoiceRepo.On("CreateWithNumber", mock.Anything, mock.AnythingOfType("*billing.Invoice"), InvoiceNumberPrefix).
			Return(nil).Once()
		invoiceRepo.On("Save", mock.Anything, mock.AnythingOfType("*billing.Invoice")).Return(nil).Once()

		created, err := svc.RegenerateDueRecurring(context.Background())
		require.NoError(t, err)
		assert.Equal(t, 1, created)

		invoiceRepo.AssertExpectations(t)
	})

	t.Run("failed next run save leaves invoice due for reprocessing", func(t *testing.T) {
		invoiceRepo := new(MockInvoiceRepository)
		auditRepo := new(MockAuditLogRepository)
		svc := newTestService(invoiceRepo, auditRepo, now)

		source := recurringInvoice(t, billing.FrequencyMonthly, now)
		invoiceRepo.On("FindDueRecurring", mock.Anything, now).Return([]billing.Invoice{*source}, nil)
		invoiceRepo.On("CreateWithNumber", mock.Anything, mock.Anything, InvoiceNumberPrefix).Return(nil)
		invoiceRepo.On("Save", mock.Anything, mock.Anything).Return(errors.New("write error"))

		created, err := svc.RegenerateDueRecurring(context.Background())
		require.NoError(t, err)
		assert.Equal(t, 0, created)
	})

	t.Run("batch query failure propagates", func(t *testing.T) {
		invoiceRepo := new(MockInvoiceRepository)
		auditRepo := new(MockAuditLogRepository)
		svc := newTestService(invoiceRepo, auditRepo, now)

		invoiceRepo.On("FindDueRecurring", mock.Anything, now).Return(nil, errors.New("db down"))

		_, err := svc.RegenerateDueRecurring(context.Background())
		assert.Error(t, err)
	})

	t.Run("nothing due is a no-op", func(t *testing.T) {
		invoiceRepo := new(MockInvoiceRepository)
		auditRepo := new(MockAuditLogRepository)
		svc := newTestService(invoiceRepo, auditRepo, now)

		invoiceRepo.On("FindDueRecurring", mock.Anything, now).Return([]billing.Invoice{}, nil)

		created, err := svc.RegenerateDueRecurring(context.Background())
		require.NoError(t, err)
		assert.Equal(t, 0, created)
		invoiceRepo.AssertNotCalled(t, "CreateWithNumber", mock.Anything, mock.Anything, mock.Anything)
	})
}

func TestLifecycleService_DemoteOverdue(t *testing.T) {
	now := time.Date(2026, time.August, 31, 9, 0, 0, 0, time.UTC)

	t.Run("demotes and audits each overdue invoice", func(t *testing.T) {
		invoiceRepo := new(MockInvoiceRepository)
		auditRepo := new(MockAuditLogRepository)
		svc := newTestService(invoiceRepo, auditRepo, now)

		inv := sentInvoice(t, now.AddDate(0, 0, -1))
		invoiceRepo.On("FindOverdueSent", mock.Anything, now).Return([]billing.Invoice{*inv}, nil)

		var saved *billing.Invoice
		invoiceRepo.On("Save", mock.Anything, mock.AnythingOfType("*billing.Invoice")).
			Run(func(args mock.Arguments) {
				saved = args.Get(1).(*billing.Invoice)
			}).Return(nil)

		var entry *billing.AuditLog
		auditRepo.On("Append", mock.Anything, mock.AnythingOfType("*billing.AuditLog")).
			Run(func(args mock.Arguments) {
				entry = args.Get(1).(*billing.AuditLog)
			}).Return(nil)

		demoted, err := svc.DemoteOverdue(context.Background())
		require.NoError(t, err)
		assert.Equal(t, 1, demoted)

		require.NotNil(t, saved)
		assert.Equal(t, billing.InvoiceStatusOverdue, saved.Status)

		require.NotNil(t, entry)
		assert.Equal(t, billing.SystemActor, entry.ActorID)
		assert.Equal(t, "Invoice", entry.EntityType)
		assert.Equal(t, inv.ID, entry.EntityID)
		assert.Equal(t, "SENT", entry.Details["from"])
		assert.Equal(t, "OVERDUE", entry.Details["to"])
		assert.Equal(t, "billing@acme.test", entry.Details["client_email"])

		auditRepo.AssertNumberOfCalls(t, "Append", 1)
	})

	t.Run("second pass finds nothing and changes nothing", func(t *testing.T) {
		invoiceRepo := new(MockInvoiceRepository)
		auditRepo := new(MockAuditLogRepository)
		svc := newTestService(invoiceRepo, auditRepo, now)

		// Already-demoted invoices are excluded by the SENT filter
		invoiceRepo.On("FindOverdueSent", mock.Anything, now).Return([]billing.Invoice{}, nil)

		demoted, err := svc.DemoteOverdue(context.Background())
		require.NoError(t, err)
		assert.Equal(t, 0, demoted)
		invoiceRepo.AssertNotCalled(t, "Save", mock.Anything, mock.Anything)
		auditRepo.AssertNotCalled(t, "Append", mock.Anything, mock.Anything)
	})

	t.Run("save failure skips audit and continues", func(t *testing.T) {
		invoiceRepo := new(MockInvoiceRepository)
		auditRepo := new(MockAuditLogRepository)
		svc := newTestService(invoiceRepo, auditRepo, now)

		first := sentInvoice(t, now.AddDate(0, 0, -2))
		second := sentInvoice(t, now.AddDate(0, 0, -1))
		invoiceRepo.On("FindOverdueSent", mock.Anything, now).Return([]billing.Invoice{*first, *second}, nil)

		invoiceRepo.On("Save", mock.Anything, mock.Anything).Return(errors.New("write error")).Once()
		invoiceRepo.On("Save", mock.Anything, mock.Anything).Return(nil).Once()
		auditRepo.On("Append", mock.Anything, mock.Anything).Return(nil).Once()

		demoted, err := svc.DemoteOverdue(context.Background())
		require.NoError(t, err)
		assert.Equal(t, 1, demoted)
		auditRepo.AssertNumberOfCalls(t, "Append", 1)
	})

	t.Run("batch query failure propagates", func(t *testing.T) {
		invoiceRepo := new(MockInvoiceRepository)
		auditRepo := new(MockAuditLogRepository)
		svc := newTestService(invoiceRepo, auditRepo, now)

		invoiceRepo.On("FindOverdueSent", mock.Anything, now).Return(nil, errors.New("db down"))

		_, err := svc.DemoteOverdue(context.Background())
		assert.Error(t, err)
	})
}
