// Package ledger implements the double-entry journal store: the single API
// through which every document posting, void, and reversal flows, so the
// balance invariant and period lock are checked exactly once.
package ledger

import (
	"errors"
	"time"

	"github.com/google/uuid"

	"github.com/gemilang-erp/gemilang-erp/internal/shared"
)

// JournalStatus enumerates journal lifecycle values. A journal never leaves
// the store; REVERSED marks the original after its mirror is posted.
type JournalStatus string

const (
	JournalStatusDraft    JournalStatus = "DRAFT"
	JournalStatusPosted   JournalStatus = "POSTED"
	JournalStatusReversed JournalStatus = "REVERSED"
)

// Source document types recorded on journals.
const (
	SourceBill    = "BILL"
	SourceInvoice = "INVOICE"
	SourcePayment = "PAYMENT"
	SourceReceipt = "RECEIPT"
	SourceManual  = "MANUAL"
)

// Journal captures posting metadata. Amounts live on the lines; the header
// carries the period derived from the date, never edited independently.
type Journal struct {
	ID            int64
	Number        string
	Date          time.Time
	Period        string
	Description   string
	Status        JournalStatus
	SourceDocType string
	SourceDocID   uuid.UUID
	ReversalOfID  *int64
	ReversedByID  *int64
	PostedBy      string
	VoidedAt      *time.Time
	VoidReason    string
	CreatedAt     time.Time
	Lines         []JournalLine
}

// JournalLine stores a debit or credit amount for an account, in whole IDR.
// Exactly one of Debit/Credit is non-zero.
type JournalLine struct {
	ID          int64
	JournalID   int64
	AccountCode string
	Debit       int64
	Credit      int64
	Description string
	ProjectCode *string
	SortOrder   int
}

var (
	// ErrUnbalanced indicates debit != credit. A posting that trips this is a
	// translator bug and must never be silently corrected.
	ErrUnbalanced = errors.New("ledger: journal lines must balance")
	// ErrTooFewLines indicates less than two lines.
	ErrTooFewLines = errors.New("ledger: journal requires at least two lines")
	// ErrPeriodClosed indicates the target period no longer accepts mutations.
	ErrPeriodClosed = errors.New("ledger: period closed")
	// ErrJournalNotFound indicates a missing entry.
	ErrJournalNotFound = errors.New("ledger: journal not found")
	// ErrAlreadyVoided guards reversal idempotency.
	ErrAlreadyVoided = errors.New("ledger: journal already reversed")
	// ErrAccountNotFound indicates a line references an unknown account code.
	ErrAccountNotFound = errors.New("ledger: account code not found")
	// ErrAccountInactive indicates a line references a deactivated account.
	ErrAccountInactive = errors.New("ledger: account inactive")
	// ErrSourceAlreadyLinked indicates the source document already produced a journal.
	ErrSourceAlreadyLinked = errors.New("ledger: source document already journalled")
)

// PostingLineInput describes a journal line for a posting request.
type PostingLineInput struct {
	AccountCode string
	Debit       int64
	Credit      int64
	Description string
	ProjectCode *string
}

// PostingInput groups fields required to post a journal.
type PostingInput struct {
	Date          time.Time
	Description   string
	SourceDocType string
	SourceDocID   uuid.UUID
	PostedBy      string
	Lines         []PostingLineInput
}

// Validate ensures the posting is structurally sound before any row is
// written. Account existence and the COGS project rule are checked inside the
// posting transaction, where the chart of accounts is visible.
func (in PostingInput) Validate() error {
	if in.Date.IsZero() {
		return shared.NewValidationError("date", "posting date is required")
	}
	if in.SourceDocType == "" {
		return shared.NewValidationError("source_doc_type", "source document type is required")
	}
	if in.SourceDocID == uuid.Nil {
		return shared.NewValidationError("source_doc_id", "source document id is required")
	}
	if len(in.Lines) < 2 {
		return ErrTooFewLines
	}
	var debit, credit int64
	for idx, line := range in.Lines {
		if line.AccountCode == "" {
			return shared.NewValidationError("lines", "line %d missing account code", idx)
		}
		if line.Debit < 0 || line.Credit < 0 {
			return shared.NewValidationError("lines", "line %d has a negative amount", idx)
		}
		if (line.Debit > 0) == (line.Credit > 0) {
			return shared.NewValidationError("lines", "line %d must carry exactly one of debit or credit", idx)
		}
		debit += line.Debit
		credit += line.Credit
	}
	if debit != credit {
		return ErrUnbalanced
	}
	return nil
}

// ReverseInput wraps parameters for the void/reversal engine.
type ReverseInput struct {
	JournalID int64
	ActorID   string
	Reason    string
}

// Filter narrows journal listings.
type Filter struct {
	Period        string
	Status        JournalStatus
	SourceDocType string
	Limit         int
	Offset        int
}
