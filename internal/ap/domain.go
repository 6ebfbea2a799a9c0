// Package ap manages vendor bills and outgoing payments, translating each
// document into a balanced journal at creation time.
package ap

import (
	"errors"
	"time"

	"github.com/google/uuid"
)

// BillStatus enumerates vendor bill lifecycle values.
type BillStatus string

const (
	BillStatusPosted BillStatus = "POSTED"
	BillStatusPaid   BillStatus = "PAID"
	BillStatusVoid   BillStatus = "VOID"
)

// PaymentStatus enumerates payment lifecycle values.
type PaymentStatus string

const (
	PaymentStatusPosted PaymentStatus = "POSTED"
	PaymentStatusVoid   PaymentStatus = "VOID"
)

var (
	// ErrExceedsBalance indicates a payment larger than the bill's
	// outstanding balance; overpayment is never accepted.
	ErrExceedsBalance = errors.New("ap: payment exceeds outstanding balance")
	// ErrBillVoid indicates an operation against a voided bill.
	ErrBillVoid = errors.New("ap: bill is void")
	// ErrBillHasPayments blocks voiding a bill that still has active payments.
	ErrBillHasPayments = errors.New("ap: bill has active payments")
	// ErrPaymentVoid indicates the payment was already voided.
	ErrPaymentVoid = errors.New("ap: payment already void")
)

// Bill is a vendor bill. Amounts are whole IDR; Total = Subtotal + VATAmount.
type Bill struct {
	ID                uuid.UUID
	Number            string
	VendorID          int64
	VendorName        string
	Date              time.Time
	DueDate           time.Time
	FakturPajakNumber string
	Description       string
	Subtotal          int64
	VATAmount         int64
	Total             int64
	Status            BillStatus
	JournalID         int64
	CreatedBy         string
	CreatedAt         time.Time
	UpdatedAt         time.Time
	Lines             []BillLine
}

// BillLine carries one expense or COGS charge on a bill.
type BillLine struct {
	ID          int64
	BillID      uuid.UUID
	AccountCode string
	Description string
	Amount      int64
	ProjectCode *string
	SortOrder   int
}

// Payment settles part or all of a single bill. Amount is the gross figure
// that reduces AP; the bank outflow is Amount minus WithholdingAmount.
type Payment struct {
	ID                uuid.UUID
	Number            string
	BillID            uuid.UUID
	VendorID          int64
	Date              time.Time
	Amount            int64
	WithholdingAmount int64
	Status            PaymentStatus
	JournalID         int64
	Note              string
	CreatedBy         string
	CreatedAt         time.Time
}

// CreateBillInput groups fields to record a vendor bill.
type CreateBillInput struct {
	VendorID          int64
	Date              time.Time
	DueDate           time.Time
	FakturPajakNumber string
	Description       string
	CreatedBy         string
	Lines             []BillLineInput
}

// BillLineInput is one charge on an incoming bill.
type BillLineInput struct {
	AccountCode string
	Description string
	Amount      int64
	ProjectCode *string
}

// CreatePaymentInput groups fields to pay a bill. BankAccountCode selects the
// asset account the cash leaves from; empty means the default operating bank.
type CreatePaymentInput struct {
	BillID          uuid.UUID
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

// BillFilter narrows bill listings.
type BillFilter struct {
	VendorID int64
	Status   BillStatus
	Limit    int
	Offset   int
}

// Outstanding is the unpaid remainder of a posted bill.
func (b Bill) Outstanding(paid int64) int64 {
	return b.Total - paid
}
