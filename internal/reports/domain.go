// Package reports aggregates posted journal lines into the financial
// statements and aging views. Builders are pure functions over balances so
// the numbers are reproducible; integrity problems come back as flags on the
// result, never as errors.
package reports

import (
	"time"

	"github.com/gemilang-erp/gemilang-erp/internal/ledger/accounts"
)

// Integrity flag codes.
const (
	FlagTrialBalanceMismatch = "TRIAL_BALANCE_MISMATCH"
	FlagBalanceSheetMismatch = "BALANCE_SHEET_MISMATCH"
)

// IntegrityFlag marks a violated accounting invariant discovered while
// aggregating. The report is still produced so the data can be inspected.
type IntegrityFlag struct {
	Code   string `json:"code"`
	Detail string `json:"detail"`
}

// AccountBalance carries the aggregated debits and credits of one account
// over a range or as of a date. Whole IDR.
type AccountBalance struct {
	Code   string
	Name   string
	Type   accounts.AccountType
	Debit  int64
	Credit int64
}

// Net returns the balance on the account's normal side: positive when the
// account carries a balance on its usual side, negative when inverted.
func (a AccountBalance) Net() int64 {
	if a.Type.DebitNormal() {
		return a.Debit - a.Credit
	}
	return a.Credit - a.Debit
}

// LedgerEntry is one posted line in a general ledger listing.
type LedgerEntry struct {
	Date          time.Time `json:"date"`
	JournalNumber string    `json:"journal_number"`
	Description   string    `json:"description"`
	Debit         int64     `json:"debit"`
	Credit        int64     `json:"credit"`
	Running       int64     `json:"running"`
}

// GeneralLedger lists an account's movements with a running balance.
type GeneralLedger struct {
	AccountCode string        `json:"account_code"`
	AccountName string        `json:"account_name"`
	Period      string        `json:"period"`
	Opening     int64         `json:"opening"`
	Entries     []LedgerEntry `json:"entries"`
	Closing     int64         `json:"closing"`
}

// OutstandingDoc is an unpaid bill or invoice feeding the aging view.
type OutstandingDoc struct {
	PartnerID   int64
	PartnerName string
	Number      string
	DueDate     time.Time
	Outstanding int64
}
