package ar

import (
	"github.com/gemilang-erp/gemilang-erp/internal/ledger"
	"github.com/gemilang-erp/gemilang-erp/internal/ledger/accounts"
	"github.com/gemilang-erp/gemilang-erp/internal/tax"
)

// invoiceJournalLines maps a sales invoice onto its journal: debit Piutang
// Usaha for the total, credit every revenue line, credit PPN Keluaran.
func invoiceJournalLines(lines []InvoiceLineInput, vatAmount, total int64) []ledger.PostingLineInput {
	out := make([]ledger.PostingLineInput, 0, len(lines)+2)
	out = append(out, ledger.PostingLineInput{
		AccountCode: accounts.CodeAR,
		Debit:       total,
		Description: "Piutang usaha",
	})
	for _, line := range lines {
		out = append(out, ledger.PostingLineInput{
			AccountCode: line.AccountCode,
			Credit:      line.Amount,
			Description: line.Description,
			ProjectCode: line.ProjectCode,
		})
	}
	if vatAmount > 0 {
		out = append(out, ledger.PostingLineInput{
			AccountCode: accounts.CodeVATOut,
			Credit:      vatAmount,
			Description: "PPN Keluaran",
		})
	}
	return out
}

// receiptJournalLines maps a receipt onto its journal: debit the chosen bank
// account for the cash that arrived, debit prepaid PPh 23 for the withheld
// portion, credit Piutang Usaha for the gross amount.
func receiptJournalLines(amount, withholding int64, bankCode string) []ledger.PostingLineInput {
	out := make([]ledger.PostingLineInput, 0, 3)
	out = append(out, ledger.PostingLineInput{
		AccountCode: bankCode,
		Debit:       amount - withholding,
		Description: "Penerimaan bank",
	})
	if withholding > 0 {
		out = append(out, ledger.PostingLineInput{
			AccountCode: accounts.CodePPh23Prepaid,
			Debit:       withholding,
			Description: "PPh 23 dipotong klien",
		})
	}
	out = append(out, ledger.PostingLineInput{
		AccountCode: accounts.CodeAR,
		Credit:      amount,
		Description: "Pelunasan piutang usaha",
	})
	return out
}

// receiptWithholding pro-rates the PPh 23 base so a partial receipt only
// withholds on its share of the invoice's DPP.
func receiptWithholding(assessment tax.Assessment, invoice Invoice, amount int64) int64 {
	if !assessment.WithholdingApplicable || invoice.Total == 0 {
		return 0
	}
	return tax.ProportionalAmount(amount, invoice.Subtotal, invoice.Total, assessment.WithholdingPercent)
}
