package reports

import (
	"sort"

	"github.com/gemilang-erp/gemilang-erp/internal/ledger/accounts"
)

// ProfitAndLossRow is one account inside a section.
type ProfitAndLossRow struct {
	Code   string `json:"code"`
	Name   string `json:"name"`
	Amount int64  `json:"amount"`
}

// ProfitAndLossSection groups accounts of one nature.
type ProfitAndLossSection struct {
	Label string             `json:"label"`
	Rows  []ProfitAndLossRow `json:"rows"`
	Total int64              `json:"total"`
}

// ProfitAndLoss is the layered income statement for a period.
type ProfitAndLoss struct {
	Period           string               `json:"period"`
	Revenue          ProfitAndLossSection `json:"revenue"`
	COGS             ProfitAndLossSection `json:"cogs"`
	GrossProfit      int64                `json:"gross_profit"`
	OperatingExpense ProfitAndLossSection `json:"operating_expense"`
	OperatingIncome  int64                `json:"operating_income"`
	OtherIncome      ProfitAndLossSection `json:"other_income"`
	OtherExpense     ProfitAndLossSection `json:"other_expense"`
	TaxExpense       ProfitAndLossSection `json:"tax_expense"`
	NetIncome        int64                `json:"net_income"`
}

// BuildProfitAndLoss aggregates the period's activity into the layered
// income statement. Amounts carry the account's natural sign, so a revenue
// account with net credit activity shows positive.
func BuildProfitAndLoss(period string, balances []AccountBalance) ProfitAndLoss {
	pl := ProfitAndLoss{
		Period:           period,
		Revenue:          ProfitAndLossSection{Label: "Pendapatan"},
		COGS:             ProfitAndLossSection{Label: "Beban pokok pendapatan"},
		OperatingExpense: ProfitAndLossSection{Label: "Beban operasional"},
		OtherIncome:      ProfitAndLossSection{Label: "Pendapatan lain-lain"},
		OtherExpense:     ProfitAndLossSection{Label: "Beban lain-lain"},
		TaxExpense:       ProfitAndLossSection{Label: "Beban pajak"},
	}
	for _, b := range balances {
		row := ProfitAndLossRow{Code: b.Code, Name: b.Name, Amount: b.Net()}
		if row.Amount == 0 {
			continue
		}
		switch b.Type {
		case accounts.AccountTypeRevenue:
			appendRow(&pl.Revenue, row)
		case accounts.AccountTypeCOGS:
			appendRow(&pl.COGS, row)
		case accounts.AccountTypeOpex:
			appendRow(&pl.OperatingExpense, row)
		case accounts.AccountTypeOtherIncome:
			appendRow(&pl.OtherIncome, row)
		case accounts.AccountTypeOtherExpense:
			appendRow(&pl.OtherExpense, row)
		case accounts.AccountTypeTaxExpense:
			appendRow(&pl.TaxExpense, row)
		}
	}
	for _, section := range []*ProfitAndLossSection{
		&pl.Revenue, &pl.COGS, &pl.OperatingExpense, &pl.OtherIncome, &pl.OtherExpense, &pl.TaxExpense,
	} {
		sort.Slice(section.Rows, func(i, j int) bool { return section.Rows[i].Code < section.Rows[j].Code })
	}
	pl.GrossProfit = pl.Revenue.Total - pl.COGS.Total
	pl.OperatingIncome = pl.GrossProfit - pl.OperatingExpense.Total
	pl.NetIncome = pl.OperatingIncome + pl.OtherIncome.Total - pl.OtherExpense.Total - pl.TaxExpense.Total
	return pl
}

func appendRow(section *ProfitAndLossSection, row ProfitAndLossRow) {
	section.Rows = append(section.Rows, row)
	section.Total += row.Amount
}
