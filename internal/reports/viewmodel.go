package reports

import (
	"fmt"
	"time"

	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

// idPrinter renders amounts with Indonesian digit grouping (Rp11.100.000).
var idPrinter = message.NewPrinter(language.Indonesian)

var monthNames = [...]string{
	"Januari", "Februari", "Maret", "April", "Mei", "Juni",
	"Juli", "Agustus", "September", "Oktober", "November", "Desember",
}

// FormatIDR renders a whole-rupiah amount for display. Negative amounts are
// parenthesized the way accountants expect.
func FormatIDR(amount int64) string {
	if amount < 0 {
		return idPrinter.Sprintf("(Rp%d)", -amount)
	}
	return idPrinter.Sprintf("Rp%d", amount)
}

// FormatPeriod turns a YYYY-MM period into its Indonesian label, e.g.
// "Maret 2026". Malformed periods come back unchanged.
func FormatPeriod(period string) string {
	t, err := time.Parse("2006-01", period)
	if err != nil {
		return period
	}
	// fmt, not idPrinter: the localized printer would digit-group the year.
	return fmt.Sprintf("%s %d", monthNames[t.Month()-1], t.Year())
}

// FormatDate renders a date in the dd/mm/yyyy convention.
func FormatDate(t time.Time) string {
	return t.Format("02/01/2006")
}

// TrialBalanceView wraps the trial balance with display headers.
type TrialBalanceView struct {
	PeriodLabel string       `json:"period_label"`
	TotalDebit  string       `json:"total_debit_label"`
	TotalCredit string       `json:"total_credit_label"`
	Report      TrialBalance `json:"report"`
}

// NewTrialBalanceView builds the display wrapper for a trial balance.
func NewTrialBalanceView(tb TrialBalance) TrialBalanceView {
	return TrialBalanceView{
		PeriodLabel: FormatPeriod(tb.Period),
		TotalDebit:  FormatIDR(tb.TotalDebit),
		TotalCredit: FormatIDR(tb.TotalCredit),
		Report:      tb,
	}
}

// ProfitAndLossView wraps the income statement with display headers.
type ProfitAndLossView struct {
	PeriodLabel string        `json:"period_label"`
	NetIncome   string        `json:"net_income_label"`
	Report      ProfitAndLoss `json:"report"`
}

// NewProfitAndLossView builds the display wrapper for a P&L.
func NewProfitAndLossView(pl ProfitAndLoss) ProfitAndLossView {
	return ProfitAndLossView{
		PeriodLabel: FormatPeriod(pl.Period),
		NetIncome:   FormatIDR(pl.NetIncome),
		Report:      pl,
	}
}

// BalanceSheetView wraps the balance sheet with display headers.
type BalanceSheetView struct {
	PeriodLabel     string       `json:"period_label"`
	TotalAssets     string       `json:"total_assets_label"`
	TotalLiabEquity string       `json:"total_liabilities_equity_label"`
	Report          BalanceSheet `json:"report"`
}

// NewBalanceSheetView builds the display wrapper for a balance sheet.
func NewBalanceSheetView(bs BalanceSheet) BalanceSheetView {
	return BalanceSheetView{
		PeriodLabel:     FormatPeriod(bs.Period),
		TotalAssets:     FormatIDR(bs.TotalAssets),
		TotalLiabEquity: FormatIDR(bs.TotalLiabEquity),
		Report:          bs,
	}
}

// AgingView wraps an aging report with display headers.
type AgingView struct {
	AsOfLabel  string `json:"as_of_label"`
	TotalLabel string `json:"total_label"`
	Report     Aging  `json:"report"`
}

// NewAgingView builds the display wrapper for an aging report.
func NewAgingView(aging Aging) AgingView {
	return AgingView{
		AsOfLabel:  FormatDate(aging.AsOf),
		TotalLabel: FormatIDR(aging.Total.Total),
		Report:     aging,
	}
}
