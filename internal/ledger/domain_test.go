package ledger

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/gemilang-erp/gemilang-erp/internal/shared"
)

func validPosting() PostingInput {
	return PostingInput{
		Date:          time.Date(2026, 3, 10, 0, 0, 0, 0, time.UTC),
		Description:   "Tagihan vendor",
		SourceDocType: SourceBill,
		SourceDocID:   uuid.New(),
		PostedBy:      "budi",
		Lines: []PostingLineInput{
			{AccountCode: "6-10100", Debit: 1_000_000},
			{AccountCode: "2-10100", Credit: 1_000_000},
		},
	}
}

func TestPostingInputValidate(t *testing.T) {
	require.NoError(t, validPosting().Validate())
}

func TestPostingInputRejectsUnbalanced(t *testing.T) {
	in := validPosting()
	in.Lines[1].Credit = 999_999
	require.ErrorIs(t, in.Validate(), ErrUnbalanced)
}

func TestPostingInputRejectsSingleLine(t *testing.T) {
	in := validPosting()
	in.Lines = in.Lines[:1]
	require.ErrorIs(t, in.Validate(), ErrTooFewLines)
}

func TestPostingInputRejectsBothSides(t *testing.T) {
	in := validPosting()
	in.Lines[0].Credit = in.Lines[0].Debit
	require.True(t, shared.IsValidation(in.Validate()))
}

func TestPostingInputRejectsEmptySide(t *testing.T) {
	in := validPosting()
	in.Lines[0].Debit = 0
	require.True(t, shared.IsValidation(in.Validate()))
}

func TestPostingInputRejectsNegativeAmount(t *testing.T) {
	in := validPosting()
	in.Lines[0].Debit = -5
	require.True(t, shared.IsValidation(in.Validate()))
}

func TestPostingInputRequiresSource(t *testing.T) {
	in := validPosting()
	in.SourceDocID = uuid.Nil
	require.True(t, shared.IsValidation(in.Validate()))
}

func TestFormatNumber(t *testing.T) {
	require.Equal(t, "JRN-2026-0001", FormatNumber(SequenceJournal, 2026, 1))
	require.Equal(t, "BIL-2026-0042", FormatNumber(SequenceBill, 2026, 42))
	require.Equal(t, "RCP-2027-12345", FormatNumber(SequenceReceipt, 2027, 12345))
}
