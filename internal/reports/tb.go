package reports

import (
	"fmt"
	"sort"
)

// TrialBalanceRow is one account on the trial balance, shown on its natural
// column.
type TrialBalanceRow struct {
	Code   string `json:"code"`
	Name   string `json:"name"`
	Type   string `json:"type"`
	Debit  int64  `json:"debit"`
	Credit int64  `json:"credit"`
}

// TrialBalance is the rendered report. TotalDebit must equal TotalCredit;
// when it does not, the mismatch is flagged and the report still returned.
type TrialBalance struct {
	Period      string            `json:"period"`
	Rows        []TrialBalanceRow `json:"rows"`
	TotalDebit  int64             `json:"total_debit"`
	TotalCredit int64             `json:"total_credit"`
	Flags       []IntegrityFlag   `json:"flags,omitempty"`
}

// BuildTrialBalance nets every account to its debit or credit column and
// totals both sides.
func BuildTrialBalance(period string, balances []AccountBalance) TrialBalance {
	tb := TrialBalance{Period: period}
	for _, b := range balances {
		net := b.Debit - b.Credit
		if net == 0 {
			continue
		}
		row := TrialBalanceRow{Code: b.Code, Name: b.Name, Type: string(b.Type)}
		if net > 0 {
			row.Debit = net
		} else {
			row.Credit = -net
		}
		tb.Rows = append(tb.Rows, row)
		tb.TotalDebit += row.Debit
		tb.TotalCredit += row.Credit
	}
	sort.Slice(tb.Rows, func(i, j int) bool { return tb.Rows[i].Code < tb.Rows[j].Code })
	if tb.TotalDebit != tb.TotalCredit {
		tb.Flags = append(tb.Flags, IntegrityFlag{
			Code:   FlagTrialBalanceMismatch,
			Detail: fmt.Sprintf("total debit %d != total credit %d", tb.TotalDebit, tb.TotalCredit),
		})
	}
	return tb
}
