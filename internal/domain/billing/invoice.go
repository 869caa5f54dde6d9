package billing

import (
	"database/sql/driver"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/crm/backend/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// InvoiceStatus represents the lifecycle status of an invoice
type InvoiceStatus string

const (
	InvoiceStatusDraft     InvoiceStatus = "DRAFT"
	InvoiceStatusSent      InvoiceStatus = "SENT"
	InvoiceStatusPaid      InvoiceStatus = "PAID"
	InvoiceStatusOverdue   InvoiceStatus = "OVERDUE"
	InvoiceStatusCancelled InvoiceStatus = "CANCELLED"
)

// IsValid checks if the status is a valid InvoiceStatus
func (s InvoiceStatus) IsValid() bool {
	switch s {
	case InvoiceStatusDraft, InvoiceStatusSent, InvoiceStatusPaid,
		InvoiceStatusOverdue, InvoiceStatusCancelled:
		return true
	}
	return false
}

// String returns the string representation of InvoiceStatus
func (s InvoiceStatus) String() string {
	return string(s)
}

// IsTerminal returns true if no further transitions leave this status
func (s InvoiceStatus) IsTerminal() bool {
	return s == InvoiceStatusPaid || s == InvoiceStatusCancelled
}

// RecurrenceFrequency represents how often a recurring invoice regenerates
type RecurrenceFrequency string

const (
	FrequencyWeekly  RecurrenceFrequency = "WEEKLY"
	FrequencyMonthly RecurrenceFrequency = "MONTHLY"
	FrequencyAnnual  RecurrenceFrequency = "ANNUAL"
)

// IsValid checks if the frequency is a recognized value
func (f RecurrenceFrequency) IsValid() bool {
	switch f {
	case FrequencyWeekly, FrequencyMonthly, FrequencyAnnual:
		return true
	}
	return false
}

// Next returns the next run time after from for this frequency.
// WEEKLY adds exactly 7 days preserving the time of day. MONTHLY and ANNUAL
// land on the same calendar day of the next month/year at local midnight,
// normalizing overflow (Jan 31 monthly rolls into early March).
// Unrecognized frequencies fall back to MONTHLY; this is the intentional
// default arm, not silent acceptance of arbitrary values.
func (f RecurrenceFrequency) Next(from time.Time) time.Time {
	switch f {
	case FrequencyWeekly:
		return from.Add(7 * 24 * time.Hour)
	case FrequencyAnnual:
		return time.Date(from.Year()+1, from.Month(), from.Day(), 0, 0, 0, 0, from.Location())
	case FrequencyMonthly:
		return time.Date(from.Year(), from.Month()+1, from.Day(), 0, 0, 0, 0, from.Location())
	default:
		return time.Date(from.Year(), from.Month()+1, from.Day(), 0, 0, 0, 0, from.Location())
	}
}

// DefaultDueDays is how far in the future regenerated invoices fall due
const DefaultDueDays = 30

// LineItem is a single billable line on an invoice
type LineItem struct {
	Description string          `json:"description"`
	Quantity    decimal.Decimal `json:"quantity"`
	UnitPrice   decimal.Decimal `json:"unit_price"`
	TaxPercent  decimal.Decimal `json:"tax_percent"`
}

// Amount returns quantity x price x (1 + tax/100) for this line
func (li LineItem) Amount() decimal.Decimal {
	taxFactor := decimal.NewFromInt(1).Add(li.TaxPercent.Div(decimal.NewFromInt(100)))
	return li.Quantity.Mul(li.UnitPrice).Mul(taxFactor)
}

// LineItems is an ordered sequence of line items stored as JSONB
type LineItems []LineItem

// Value implements driver.Valuer for GORM JSONB storage
func (l LineItems) Value() (driver.Value, error) {
	if l == nil {
		return "[]", nil
	}
	return json.Marshal(l)
}

// Scan implements sql.Scanner for GORM JSONB storage
func (l *LineItems) Scan(value interface{}) error {
	if value == nil {
		*l = LineItems{}
		return nil
	}

	var bytes []byte
	switch v := value.(type) {
	case []byte:
		bytes = v
	case string:
		bytes = []byte(v)
	default:
		return errors.New("failed to scan LineItems: unsupported type")
	}

	if len(bytes) == 0 {
		*l = LineItems{}
		return nil
	}

	return json.Unmarshal(bytes, l)
}

// Total sums the amounts of all line items
func (l LineItems) Total() decimal.Decimal {
	total := decimal.Zero
	for _, item := range l {
		total = total.Add(item.Amount())
	}
	return total
}

// Invoice represents an invoice aggregate root. A recurring invoice acts as
// a template that periodically spawns non-recurring invoice instances.
type Invoice struct {
	shared.BaseEntity
	ClientID  uuid.UUID           `json:"client_id"`
	Client    *Client             `json:"client,omitempty"`
	Number    string              `json:"number"`
	IssueDate time.Time           `json:"issue_date"`
	DueDate   time.Time           `json:"due_date"`
	Status    InvoiceStatus       `json:"status"`
	Items     LineItems           `json:"items"`
	Total     decimal.Decimal     `json:"total"`
	Currency  string              `json:"currency"`
	Recurring bool                `json:"recurring"`
	Frequency RecurrenceFrequency `json:"frequency,omitempty"`
	NextRun   *time.Time          `json:"next_run,omitempty"`
}

// NewInvoice creates a new draft invoice
func NewInvoice(clientID uuid.UUID, number string, issueDate, dueDate time.Time, items LineItems, currency string) (*Invoice, error) {
	if clientID == uuid.Nil {
		return nil, shared.NewDomainError("INVALID_CLIENT", "Client ID cannot be empty")
	}
	if number == "" {
		return nil, shared.NewDomainError("INVALID_NUMBER", "Invoice number cannot be empty")
	}
	if dueDate.Before(issueDate) {
		return nil, shared.NewDomainError("INVALID_DUE_DATE", "Due date cannot precede issue date")
	}
	if currency == "" {
		currency = "USD"
	}

	inv := &Invoice{
		BaseEntity: shared.NewBaseEntity(),
		ClientID:   clientID,
		Number:     number,
		IssueDate:  issueDate,
		DueDate:    dueDate,
		Status:     InvoiceStatusDraft,
		Items:      items,
		Currency:   currency,
	}
	inv.RecalculateTotal()
	return inv, nil
}

// RecalculateTotal recomputes Total from the line items. Called on every
// item mutation to keep the total invariant.
func (i *Invoice) RecalculateTotal() {
	i.Total = i.Items.Total()
}

// SetItems replaces the line items and recomputes the total
func (i *Invoice) SetItems(items LineItems) {
	i.Items = items
	i.RecalculateTotal()
	i.Touch()
}

// MarkSent transitions the invoice from DRAFT to SENT
func (i *Invoice) MarkSent() error {
	if i.Status != InvoiceStatusDraft {
		return shared.NewDomainError("INVALID_STATE", fmt.Sprintf("Cannot send invoice in %s status", i.Status))
	}
	i.Status = InvoiceStatusSent
	i.Touch()
	return nil
}

// MarkOverdue transitions the invoice from SENT to OVERDUE. This is the only
// path into OVERDUE; callers already past SENT are rejected so repeated
// demotion passes stay idempotent.
func (i *Invoice) MarkOverdue() error {
	if i.Status != InvoiceStatusSent {
		return shared.NewDomainError("INVALID_STATE", fmt.Sprintf("Cannot mark invoice in %s status as overdue", i.Status))
	}
	i.Status = InvoiceStatusOverdue
	i.Touch()
	return nil
}

// MarkPaid transitions the invoice to PAID from SENT or OVERDUE
func (i *Invoice) MarkPaid() error {
	if i.Status != InvoiceStatusSent && i.Status != InvoiceStatusOverdue {
		return shared.NewDomainError("INVALID_STATE", fmt.Sprintf("Cannot pay invoice in %s status", i.Status))
	}
	i.Status = InvoiceStatusPaid
	i.Touch()
	return nil
}

// Cancel cancels the invoice from DRAFT or SENT
func (i *Invoice) Cancel() error {
	if i.Status != InvoiceStatusDraft && i.Status != InvoiceStatusSent {
		return shared.NewDomainError("INVALID_STATE", fmt.Sprintf("Cannot cancel invoice in %s status", i.Status))
	}
	i.Status = InvoiceStatusCancelled
	i.Touch()
	return nil
}

// SetRecurrence marks the invoice as recurring with the given frequency and
// first run time. NextRun is non-nil exactly when Recurring is true.
func (i *Invoice) SetRecurrence(frequency RecurrenceFrequency, nextRun time.Time) {
	i.Recurring = true
	i.Frequency = frequency
	i.NextRun = &nextRun
	i.Touch()
}

// ClearRecurrence stops the invoice from regenerating
func (i *Invoice) ClearRecurrence() {
	i.Recurring = false
	i.Frequency = ""
	i.NextRun = nil
	i.Touch()
}

// AdvanceNextRun moves NextRun forward by one frequency step from now.
// Returns an error if the invoice is not recurring.
func (i *Invoice) AdvanceNextRun(now time.Time) error {
	if !i.Recurring {
		return shared.NewDomainError("NOT_RECURRING", "Cannot advance next run of a non-recurring invoice")
	}
	next := i.Frequency.Next(now)
	i.NextRun = &next
	i.Touch()
	return nil
}

// IsDueForRegeneration reports whether a recurring invoice should spawn a copy
func (i *Invoice) IsDueForRegeneration(now time.Time) bool {
	return i.Recurring && i.NextRun != nil && !i.NextRun.After(now)
}

// SpawnCopy creates a new non-recurring invoice from this recurring template.
// The copy carries the client, line items, currency and total; it is issued
// now, due in DefaultDueDays days, and starts out SENT.
func (i *Invoice) SpawnCopy(number string, now time.Time) *Invoice {
	items := make(LineItems, len(i.Items))
	copy(items, i.Items)

	spawned := &Invoice{
		BaseEntity: shared.NewBaseEntity(),
		ClientID:   i.ClientID,
		Number:     number,
		IssueDate:  now,
		DueDate:    now.AddDate(0, 0, DefaultDueDays),
		Status:     InvoiceStatusSent,
		Items:      items,
		Total:      i.Total,
		Currency:   i.Currency,
		Recurring:  false,
	}
	return spawned
}

// IsPastDue reports whether the due date has passed
func (i *Invoice) IsPastDue(now time.Time) bool {
	return i.DueDate.Before(now)
}

// DaysOverdue returns whole days past the due date, 0 when not past due
func (i *Invoice) DaysOverdue(now time.Time) int {
	if !i.IsPastDue(now) {
		return 0
	}
	return int(now.Sub(i.DueDate).Hours() / 24)
}

// ClientEmail returns the loaded client's email, empty when unknown
func (i *Invoice) ClientEmail() string {
	if i.Client == nil {
		return ""
	}
	return i.Client.Email
}

// ClientName returns the loaded client's name, empty when unknown
func (i *Invoice) ClientName() string {
	if i.Client == nil {
		return ""
	}
	return i.Client.Name
}
