// Package ar manages sales invoices and incoming receipts, translating each
// document into a balanced journal at creation time.
package ar

import (
	"errors"
	"time"

	"github.com/google/uuid"
)

// InvoiceStatus enumerates sales invoice lifecycle values.
type InvoiceStatus string

const (
	InvoiceStatusPosted InvoiceStatus = "POSTED"
	InvoiceStatusPaid   InvoiceStatus = "PAID"
	InvoiceStatusVoid   InvoiceStatus = "VOID"
)

// ReceiptStatus enumerates receipt lifecycle values.
type ReceiptStatus string

const (
	ReceiptStatusPosted ReceiptStatus = "POSTED"
	ReceiptStatusVoid   ReceiptStatus = "VOID"
)

var (
	// ErrExceedsBalance indicates a receipt larger than the invoice's
	// outstanding balance.
	ErrExceedsBalance = errors.New("ar: receipt exceeds outstanding balance")
	// ErrInvoiceVoid indicates an operation against a voided invoice.
	ErrInvoiceVoid = errors.New("ar: invoice is void")
	// ErrInvoiceHasReceipts blocks voiding an invoice with active receipts.
	ErrInvoiceHasReceipts = errors.New("ar: invoice has active receipts")
	// ErrReceiptVoid indicates the receipt was already voided.
	ErrReceiptVoid = errors.New("ar: receipt already void")
)

// Invoice is a sales invoice. Amounts are whole IDR; Total includes PPN
// Keluaran charged on top of the subtotal.
type Invoice struct {
	ID          uuid.UUID
	Number      string
	ClientID    int64
	ClientName  string
	Date        time.Time
	DueDate     time.Time
	Description string
	Subtotal    int64
	VATAmount   int64
	Total       int64
	Status      InvoiceStatus
	JournalID   int64
	CreatedBy   string
	CreatedAt   time.Time
	UpdatedAt   time.Time
	Lines       []InvoiceLine
}

// InvoiceLine carries one revenue item on an invoice.
type InvoiceLine struct {
	ID          int64
	InvoiceID   uuid.UUID
	AccountCode string
	Description string
	Amount      int64
	ProjectCode *string
	SortOrder   int
}

// Receipt settles part or all of a single invoice. Amount is the gross
// figure that reduces AR; the bank inflow is Amount minus the PPh 23 the
// client withheld, which lands in prepaid tax.
type Receipt struct {
	ID                uuid.UUID
	Number            string
	InvoiceID         uuid.UUID
	ClientID          int64
	Date              time.Time
	Amount            int64
	WithholdingAmount int64
	Status            ReceiptStatus
	JournalID         int64
	Note              string
	CreatedBy         string
	CreatedAt         time.Time
}

// CreateInvoiceInput groups fields to issue a sales invoice.
type CreateInvoiceInput struct {
	ClientID    int64
	Date        time.Time
	DueDate     time.Time
	Description string
	CreatedBy   string
	Lines       []InvoiceLineInput
}

// InvoiceLineInput is one revenue item on an outgoing invoice.
type InvoiceLineInput struct {
	AccountCode string
	Description string
	Amount      int64
	ProjectCode *string
}

// CreateReceiptInput groups fields to record money received for an invoice.
// BankAccountCode selects the asset account the cash lands in; empty means
// the default operating bank.
type CreateReceiptInput struct {
	InvoiceID       uuid.UUID
	Date            time.Time
	Amount          int64
	BankAccountCode string
	Note            string
	CreatedBy       string
}

// VoidInput identifies a document to void and why.
type VoidInput struct {
	ID      uuid.UUID
	ActorID string
	Reason  string
}

// InvoiceFilter narrows invoice listings.
type InvoiceFilter struct {
	ClientID int64
	Status   InvoiceStatus
	Limit    int
	Offset   int
}

// Outstanding is the unpaid remainder of a posted invoice.
func (i Invoice) Outstanding(received int64) int64 {
	return i.Total - received
}
