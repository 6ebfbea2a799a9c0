package ap

import (
	"github.com/gemilang-erp/gemilang-erp/internal/ledger"
	"github.com/gemilang-erp/gemilang-erp/internal/ledger/accounts"
	"github.com/gemilang-erp/gemilang-erp/internal/tax"
)

// billJournalLines maps a bill onto its journal: debit every expense line,
// debit PPN Masukan when VAT applies, credit Utang Usaha for the total.
func billJournalLines(lines []BillLineInput, vatAmount, total int64) []ledger.PostingLineInput {
	out := make([]ledger.PostingLineInput, 0, len(lines)+2)
	for _, line := range lines {
		out = append(out, ledger.PostingLineInput{
			AccountCode: line.AccountCode,
			Debit:       line.Amount,
			Description: line.Description,
			ProjectCode: line.ProjectCode,
		})
	}
	if vatAmount > 0 {
		out = append(out, ledger.PostingLineInput{
			AccountCode: accounts.CodeVATIn,
			Debit:       vatAmount,
			Description: "PPN Masukan",
		})
	}
	out = append(out, ledger.PostingLineInput{
		AccountCode: accounts.CodeAP,
		Credit:      total,
		Description: "Utang usaha",
	})
	return out
}

// paymentJournalLines maps a payment onto its journal: debit Utang Usaha for
// the gross amount, credit Utang PPh 23 for the withheld portion, credit the
// chosen bank account for the cash that actually leaves.
func paymentJournalLines(amount, withholding int64, bankCode string) []ledger.PostingLineInput {
	out := make([]ledger.PostingLineInput, 0, 3)
	out = append(out, ledger.PostingLineInput{
		AccountCode: accounts.CodeAP,
		Debit:       amount,
		Description: "Pelunasan utang usaha",
	})
	if withholding > 0 {
		out = append(out, ledger.PostingLineInput{
			AccountCode: accounts.CodePPh23Payable,
			Credit:      withholding,
			Description: "PPh 23 dipotong",
		})
	}
	out = append(out, ledger.PostingLineInput{
		AccountCode: bankCode,
		Credit:      amount - withholding,
		Description: "Pembayaran bank",
	})
	return out
}

// paymentWithholding pro-rates the PPh 23 base across the payment so a
// partial payment withholds on its share of the bill's DPP only.
func paymentWithholding(assessment tax.Assessment, bill Bill, amount int64) int64 {
	if !assessment.WithholdingApplicable || bill.Total == 0 {
		return 0
	}
	return tax.ProportionalAmount(amount, bill.Subtotal, bill.Total, assessment.WithholdingPercent)
}
