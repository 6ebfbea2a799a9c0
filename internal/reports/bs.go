package reports

import (
	"fmt"
	"sort"

	"github.com/gemilang-erp/gemilang-erp/internal/ledger/accounts"
)

// BalanceSheetRow is one account in a balance sheet section.
type BalanceSheetRow struct {
	Code   string `json:"code"`
	Name   string `json:"name"`
	Amount int64  `json:"amount"`
}

// BalanceSheetSection groups accounts of one classification.
type BalanceSheetSection struct {
	Label string            `json:"label"`
	Rows  []BalanceSheetRow `json:"rows"`
	Total int64             `json:"total"`
}

// BalanceSheet is the statement of financial position as of a period end.
// Current-year earnings are carried as a synthetic equity line so the
// statement stays in balance without a formal year-end closing entry.
type BalanceSheet struct {
	Period          string              `json:"period"`
	Assets          BalanceSheetSection `json:"assets"`
	Liabilities     BalanceSheetSection `json:"liabilities"`
	Equity          BalanceSheetSection `json:"equity"`
	CurrentEarnings int64               `json:"current_earnings"`
	TotalAssets     int64               `json:"total_assets"`
	TotalLiabEquity int64               `json:"total_liabilities_equity"`
	Flags           []IntegrityFlag     `json:"flags,omitempty"`
}

// BuildBalanceSheet classifies cumulative balances as of the period end.
// Profit-and-loss account nets roll into CurrentEarnings.
func BuildBalanceSheet(period string, balances []AccountBalance) BalanceSheet {
	bs := BalanceSheet{
		Period:      period,
		Assets:      BalanceSheetSection{Label: "Aset"},
		Liabilities: BalanceSheetSection{Label: "Liabilitas"},
		Equity:      BalanceSheetSection{Label: "Ekuitas"},
	}
	for _, b := range balances {
		net := b.Net()
		row := BalanceSheetRow{Code: b.Code, Name: b.Name, Amount: net}
		switch b.Type {
		case accounts.AccountTypeAsset:
			appendBSRow(&bs.Assets, row)
		case accounts.AccountTypeLiability:
			appendBSRow(&bs.Liabilities, row)
		case accounts.AccountTypeEquity:
			appendBSRow(&bs.Equity, row)
		case accounts.AccountTypeRevenue, accounts.AccountTypeOtherIncome:
			bs.CurrentEarnings += net
		default:
			bs.CurrentEarnings -= net
		}
	}
	for _, section := range []*BalanceSheetSection{&bs.Assets, &bs.Liabilities, &bs.Equity} {
		sort.Slice(section.Rows, func(i, j int) bool { return section.Rows[i].Code < section.Rows[j].Code })
	}
	bs.TotalAssets = bs.Assets.Total
	bs.TotalLiabEquity = bs.Liabilities.Total + bs.Equity.Total + bs.CurrentEarnings
	if bs.TotalAssets != bs.TotalLiabEquity {
		bs.Flags = append(bs.Flags, IntegrityFlag{
			Code:   FlagBalanceSheetMismatch,
			Detail: fmt.Sprintf("assets %d != liabilities+equity %d", bs.TotalAssets, bs.TotalLiabEquity),
		})
	}
	return bs
}

func appendBSRow(section *BalanceSheetSection, row BalanceSheetRow) {
	if row.Amount == 0 {
		return
	}
	section.Rows = append(section.Rows, row)
	section.Total += row.Amount
}
