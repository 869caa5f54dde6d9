package reminder

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/crm/backend/internal/domain/billing"
	"github.com/crm/backend/internal/domain/reminder"
	"github.com/crm/backend/internal/domain/shared"
	"github.com/crm/backend/internal/infrastructure/notification"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Default day offsets applied when a config row carries a zero value
const (
	defaultDaysAfter  = 1
	defaultDaysBefore = 3
)

// OverdueDemoter is the shared SENT-to-OVERDUE demotion operation. The
// overdue scan reuses it after dispatching so both cron paths produce
// identical audit detail.
type OverdueDemoter interface {
	DemoteOverdue(ctx context.Context) (int, error)
}

// SendResult describes a completed manual dispatch
type SendResult struct {
	InvoiceID uuid.UUID     `json:"invoice_id"`
	Type      reminder.Type `json:"type"`
}

// DispatchService finds invoices needing a reminder under the active policy,
// attempts delivery per configured channel, and unconditionally records the
// outcome. Transport failures never abort a scan; they become FAILED rows.
type DispatchService struct {
	invoiceRepo billing.InvoiceRepository
	configRepo  reminder.ConfigRepository
	logRepo     reminder.LogRepository
	transport   notification.Transport
	demoter     OverdueDemoter
	logger      *zap.Logger
	now         func() time.Time
}

// NewDispatchService creates a new DispatchService. transport may be nil,
// in which case every dispatch outcome is recorded as LOGGED.
func NewDispatchService(
	invoiceRepo billing.InvoiceRepository,
	configRepo reminder.ConfigRepository,
	logRepo reminder.LogRepository,
	transport notification.Transport,
	demoter OverdueDemoter,
	logger *zap.Logger,
) *DispatchService {
	return &DispatchService{
		invoiceRepo: invoiceRepo,
		configRepo:  configRepo,
		logRepo:     logRepo,
		transport:   transport,
		demoter:     demoter,
		logger:      logger,
		now:         time.Now,
	}
}

// WithClock overrides the service clock. Test hook.
func (s *DispatchService) WithClock(now func() time.Time) *DispatchService {
	s.now = now
	return s
}

// ScanOverdue dispatches reminders for invoices past due beyond the
// configured offset, then demotes any that are still SENT. Returns the
// number of invoices scanned. A disabled or absent config is a no-op, not
// an error; a failing config or invoice query propagates.
func (s *DispatchService) ScanOverdue(ctx context.Context) (int, error) {
	config, err := s.configRepo.FindEnabledByType(ctx, reminder.TypeInvoiceOverdue)
	if err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			s.logger.Info("Overdue invoice reminders not enabled")
			return 0, nil
		}
		return 0, err
	}

	daysAfter := config.DaysAfter
	if daysAfter <= 0 {
		daysAfter = defaultDaysAfter
	}
	cutoff := s.now().AddDate(0, 0, -daysAfter)

	invoices, err := s.invoiceRepo.FindOverdueForReminder(ctx, cutoff)
	if err != nil {
		return 0, err
	}

	s.logger.Info("Found overdue invoices for reminder", zap.Int("count", len(invoices)))

	for i := range invoices {
		s.dispatch(ctx, &invoices[i], reminder.TypeInvoiceOverdue, config)
	}

	if len(invoices) > 0 {
		if _, err := s.demoter.DemoteOverdue(ctx); err != nil {
			return len(invoices), err
		}
	}

	return len(invoices), nil
}

// ScanDueSoon dispatches reminders for SENT invoices falling due within the
// configured window. No status mutation. Returns the number of invoices
// scanned.
func (s *DispatchService) ScanDueSoon(ctx context.Context) (int, error) {
	config, err := s.configRepo.FindEnabledByType(ctx, reminder.TypeInvoiceDueSoon)
	if err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			s.logger.Info("Due soon invoice reminders not enabled")
			return 0, nil
		}
		return 0, err
	}

	daysBefore := config.DaysBefore
	if daysBefore <= 0 {
		daysBefore = defaultDaysBefore
	}
	now := s.now()

	invoices, err := s.invoiceRepo.FindDueSoon(ctx, now, now.AddDate(0, 0, daysBefore))
	if err != nil {
		return 0, err
	}

	s.logger.Info("Found invoices due soon", zap.Int("count", len(invoices)))

	for i := range invoices {
		s.dispatch(ctx, &invoices[i], reminder.TypeInvoiceDueSoon, config)
	}

	return len(invoices), nil
}

// SendManual dispatches one reminder immediately, bypassing the windowed
// scans and the config enabled gate. The reminder type follows from the due
// date: overdue when past due, due-soon otherwise. Returns
// shared.ErrNotFound when the invoice does not exist.
func (s *DispatchService) SendManual(ctx context.Context, invoiceID uuid.UUID) (*SendResult, error) {
	invoice, err := s.invoiceRepo.FindByID(ctx, invoiceID)
	if err != nil {
		return nil, err
	}

	reminderType := reminder.TypeInvoiceDueSoon
	if invoice.IsPastDue(s.now()) {
		reminderType = reminder.TypeInvoiceOverdue
	}

	s.dispatchEmail(ctx, invoice, reminderType)

	return &SendResult{InvoiceID: invoice.ID, Type: reminderType}, nil
}

// dispatch attempts delivery on every configured channel. EMAIL is the only
// channel with a dispatch action today; others are accepted by the config
// schema but skipped.
func (s *DispatchService) dispatch(ctx context.Context, invoice *billing.Invoice, reminderType reminder.Type, config *reminder.Config) {
	channels := config.Channels
	if len(channels) == 0 {
		channels = reminder.Channels{reminder.ChannelEmail}
	}

	for _, channel := range channels {
		switch channel {
		case reminder.ChannelEmail:
			s.dispatchEmail(ctx, invoice, reminderType)
		default:
			s.logger.Debug("Skipping unsupported reminder channel",
				zap.String("channel", string(channel)),
				zap.String("invoice_id", invoice.ID.String()),
			)
		}
	}
}

// dispatchEmail sends one email reminder and writes exactly one log row with
// the outcome. A client without an email address is a silent no-op for this
// channel: no row, no error.
func (s *DispatchService) dispatchEmail(ctx context.Context, invoice *billing.Invoice, reminderType reminder.Type) {
	recipient := invoice.ClientEmail()
	if recipient == "" {
		s.logger.Debug("No email for client, skipping reminder",
			zap.String("invoice_id", invoice.ID.String()),
			zap.String("client", invoice.ClientName()),
		)
		return
	}

	subject, body := s.composeMessage(invoice, reminderType)

	var outcome reminder.Outcome
	switch {
	case s.transport == nil:
		outcome = reminder.OutcomeLogged
		s.logger.Info("Email not configured, reminder recorded only",
			zap.String("to", recipient),
			zap.String("subject", subject),
		)
	default:
		if err := s.transport.Send(ctx, notification.Message{To: recipient, Subject: subject, Body: body}); err != nil {
			outcome = reminder.OutcomeFailed
			s.logger.Error("Reminder email send failed",
				zap.String("to", recipient),
				zap.String("invoice_id", invoice.ID.String()),
				zap.Error(err),
			)
		} else {
			outcome = reminder.OutcomeSent
			s.logger.Info("Reminder email sent",
				zap.String("to", recipient),
				zap.String("number", invoice.Number),
			)
		}
	}

	entry := reminder.NewLog(reminder.EntityTypeInvoice, invoice.ID, reminderType, reminder.ChannelEmail, recipient, outcome)
	if err := s.logRepo.Append(ctx, entry); err != nil {
		s.logger.Error("Failed to append reminder log",
			zap.String("invoice_id", invoice.ID.String()),
			zap.Error(err),
		)
	}
}

// composeMessage builds the subject and body from the fixed per-type template
func (s *DispatchService) composeMessage(invoice *billing.Invoice, reminderType reminder.Type) (string, string) {
	dueDate := invoice.DueDate.Format("Jan 2, 2006")
	amount := fmt.Sprintf("%s %s", invoice.Currency, invoice.Total.StringFixed(2))
	name := invoice.ClientName()
	if name == "" {
		name = "Customer"
	}

	if reminderType == reminder.TypeInvoiceOverdue {
		subject := fmt.Sprintf("Overdue Invoice Reminder - %s", invoice.Number)
		body := fmt.Sprintf(
			"Dear %s,\n\nThis is a friendly reminder that invoice %s is now %d days overdue.\n\n"+
				"Invoice Details:\n- Amount: %s\n- Due Date: %s\n\n"+
				"Please arrange payment at your earliest convenience.\n\nThank you!",
			name, invoice.Number, invoice.DaysOverdue(s.now()), amount, dueDate,
		)
		return subject, body
	}

	subject := fmt.Sprintf("Invoice Due Soon - %s", invoice.Number)
	body := fmt.Sprintf(
		"Dear %s,\n\nThis is a reminder that invoice %s is due soon.\n\n"+
			"Invoice Details:\n- Amount: %s\n- Due Date: %s\n\nThank you!",
		name, invoice.Number, amount, dueDate,
	)
	return subject, body
}
