package ledger

import "fmt"

// Sequence names handed to the number allocator. Each sequence restarts per
// fiscal year; allocation is atomic with respect to concurrent posts.
const (
	SequenceJournal = "JRN"
	SequenceBill    = "BIL"
	SequenceInvoice = "INV"
	SequencePayment = "PAY"
	SequenceReceipt = "RCP"
)

// FormatNumber renders the human-readable sequential identifier, e.g.
// JRN-2026-0042. Numbers are unique and immutable once assigned.
func FormatNumber(prefix string, fiscalYear int, seq int64) string {
	return fmt.Sprintf("%s-%d-%04d", prefix, fiscalYear, seq)
}
