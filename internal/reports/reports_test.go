package reports

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/gemilang-erp/gemilang-erp/internal/ledger/accounts"
)

func TestBuildTrialBalance(t *testing.T) {
	balances := []AccountBalance{
		{Code: "1-10200", Name: "Bank", Type: accounts.AccountTypeAsset, Debit: 11_100_000, Credit: 200_000},
		{Code: "2-10100", Name: "Utang usaha", Type: accounts.AccountTypeLiability, Debit: 0, Credit: 5_900_000},
		{Code: "4-10100", Name: "Pendapatan jasa", Type: accounts.AccountTypeRevenue, Debit: 0, Credit: 5_000_000},
		{Code: "6-10100", Name: "Beban kantor", Type: accounts.AccountTypeOpex, Debit: 0, Credit: 0},
	}

	tb := BuildTrialBalance("2026-03", balances)

	require.Len(t, tb.Rows, 3, "zero-balance accounts are omitted")
	require.Equal(t, "1-10200", tb.Rows[0].Code)
	require.Equal(t, int64(10_900_000), tb.Rows[0].Debit)
	require.Equal(t, int64(0), tb.Rows[0].Credit)
	require.Equal(t, int64(10_900_000), tb.TotalDebit)
	require.Equal(t, int64(10_900_000), tb.TotalCredit)
	require.Empty(t, tb.Flags)
}

func TestBuildTrialBalanceFlagsMismatch(t *testing.T) {
	balances := []AccountBalance{
		{Code: "1-10200", Name: "Bank", Type: accounts.AccountTypeAsset, Debit: 1_000_000},
		{Code: "2-10100", Name: "Utang usaha", Type: accounts.AccountTypeLiability, Credit: 900_000},
	}

	tb := BuildTrialBalance("2026-03", balances)

	require.Equal(t, int64(1_000_000), tb.TotalDebit)
	require.Equal(t, int64(900_000), tb.TotalCredit)
	require.Len(t, tb.Flags, 1)
	require.Equal(t, FlagTrialBalanceMismatch, tb.Flags[0].Code)
}

func TestBuildProfitAndLoss(t *testing.T) {
	balances := []AccountBalance{
		{Code: "4-10100", Name: "Pendapatan jasa", Type: accounts.AccountTypeRevenue, Credit: 10_000_000},
		{Code: "5-10100", Name: "Beban pokok proyek", Type: accounts.AccountTypeCOGS, Debit: 4_000_000},
		{Code: "6-10100", Name: "Beban kantor", Type: accounts.AccountTypeOpex, Debit: 1_500_000},
		{Code: "8-10100", Name: "Beban bunga", Type: accounts.AccountTypeOtherExpense, Debit: 250_000},
		{Code: "9-10100", Name: "Beban PPh badan", Type: accounts.AccountTypeTaxExpense, Debit: 500_000},
	}

	pl := BuildProfitAndLoss("2026-03", balances)

	require.Equal(t, int64(10_000_000), pl.Revenue.Total)
	require.Equal(t, int64(4_000_000), pl.COGS.Total)
	require.Equal(t, int64(6_000_000), pl.GrossProfit)
	require.Equal(t, int64(4_500_000), pl.OperatingIncome)
	require.Equal(t, int64(3_750_000), pl.NetIncome)
	require.Equal(t, "Pendapatan", pl.Revenue.Label)
}

func TestBuildProfitAndLossIgnoresBalanceSheetAccounts(t *testing.T) {
	balances := []AccountBalance{
		{Code: "1-10200", Name: "Bank", Type: accounts.AccountTypeAsset, Debit: 2_000_000},
		{Code: "4-10100", Name: "Pendapatan jasa", Type: accounts.AccountTypeRevenue, Credit: 2_000_000},
	}

	pl := BuildProfitAndLoss("2026-03", balances)

	require.Len(t, pl.Revenue.Rows, 1)
	require.Equal(t, int64(2_000_000), pl.NetIncome)
}

func TestBuildBalanceSheetRollsCurrentEarnings(t *testing.T) {
	balances := []AccountBalance{
		{Code: "1-10200", Name: "Bank", Type: accounts.AccountTypeAsset, Debit: 7_000_000},
		{Code: "2-10100", Name: "Utang usaha", Type: accounts.AccountTypeLiability, Credit: 2_000_000},
		{Code: "3-10100", Name: "Modal disetor", Type: accounts.AccountTypeEquity, Credit: 3_000_000},
		{Code: "4-10100", Name: "Pendapatan jasa", Type: accounts.AccountTypeRevenue, Credit: 5_000_000},
		{Code: "6-10100", Name: "Beban kantor", Type: accounts.AccountTypeOpex, Debit: 3_000_000},
	}

	bs := BuildBalanceSheet("2026-03", balances)

	require.Equal(t, int64(7_000_000), bs.TotalAssets)
	require.Equal(t, int64(2_000_000), bs.CurrentEarnings)
	require.Equal(t, int64(7_000_000), bs.TotalLiabEquity)
	require.Empty(t, bs.Flags)
}

func TestBuildBalanceSheetFlagsMismatch(t *testing.T) {
	balances := []AccountBalance{
		{Code: "1-10200", Name: "Bank", Type: accounts.AccountTypeAsset, Debit: 5_000_000},
		{Code: "3-10100", Name: "Modal disetor", Type: accounts.AccountTypeEquity, Credit: 4_000_000},
	}

	bs := BuildBalanceSheet("2026-03", balances)

	require.Len(t, bs.Flags, 1)
	require.Equal(t, FlagBalanceSheetMismatch, bs.Flags[0].Code)
}

func TestBuildAgingBucketBoundaries(t *testing.T) {
	asOf := time.Date(2026, 6, 30, 0, 0, 0, 0, time.UTC)
	day := func(overdue int) time.Time { return asOf.AddDate(0, 0, -overdue) }

	docs := []OutstandingDoc{
		{PartnerID: 1, PartnerName: "PT Arga", Number: "BIL-2026-0001", DueDate: day(0), Outstanding: 100},
		{PartnerID: 1, PartnerName: "PT Arga", Number: "BIL-2026-0002", DueDate: day(30), Outstanding: 200},
		{PartnerID: 1, PartnerName: "PT Arga", Number: "BIL-2026-0003", DueDate: day(31), Outstanding: 300},
		{PartnerID: 1, PartnerName: "PT Arga", Number: "BIL-2026-0004", DueDate: day(60), Outstanding: 400},
		{PartnerID: 1, PartnerName: "PT Arga", Number: "BIL-2026-0005", DueDate: day(61), Outstanding: 500},
		{PartnerID: 1, PartnerName: "PT Arga", Number: "BIL-2026-0006", DueDate: day(90), Outstanding: 600},
		{PartnerID: 1, PartnerName: "PT Arga", Number: "BIL-2026-0007", DueDate: day(91), Outstanding: 700},
	}

	aging := BuildAging(asOf, docs)

	require.Len(t, aging.Rows, 1)
	row := aging.Rows[0]
	require.Equal(t, int64(300), row.Days0to30)
	require.Equal(t, int64(700), row.Days31to60)
	require.Equal(t, int64(1_100), row.Days61to90)
	require.Equal(t, int64(700), row.DaysOver90)
	require.Equal(t, int64(2_800), row.Total)
	require.Equal(t, aging.Total, row.AgingBuckets)
}

func TestBuildAgingNotYetDueAndGrouping(t *testing.T) {
	asOf := time.Date(2026, 6, 30, 0, 0, 0, 0, time.UTC)

	docs := []OutstandingDoc{
		{PartnerID: 2, PartnerName: "PT Bintang", Number: "INV-2026-0002", DueDate: asOf.AddDate(0, 0, 14), Outstanding: 1_000},
		{PartnerID: 1, PartnerName: "PT Arga", Number: "INV-2026-0001", DueDate: asOf.AddDate(0, 0, -45), Outstanding: 2_000},
		{PartnerID: 1, PartnerName: "PT Arga", Number: "INV-2026-0003", DueDate: asOf, Outstanding: 0},
	}

	aging := BuildAging(asOf, docs)

	require.Len(t, aging.Rows, 2)
	require.Equal(t, "PT Arga", aging.Rows[0].PartnerName)
	require.Equal(t, int64(2_000), aging.Rows[0].Days31to60)
	require.Equal(t, "PT Bintang", aging.Rows[1].PartnerName)
	require.Equal(t, int64(1_000), aging.Rows[1].Days0to30, "documents not yet due age into the first bucket")
	require.Equal(t, int64(3_000), aging.Total.Total)
}

func TestBuildGeneralLedgerRunningBalance(t *testing.T) {
	entries := []LedgerEntry{
		{JournalNumber: "JRN-2026-0001", Debit: 11_100_000},
		{JournalNumber: "JRN-2026-0002", Credit: 5_550_000},
		{JournalNumber: "JRN-2026-0003", Credit: 5_550_000},
	}

	gl := BuildGeneralLedger("1-10300", "Piutang usaha", "2026-03", true, 500_000, entries)

	require.Equal(t, int64(500_000), gl.Opening)
	require.Equal(t, int64(11_600_000), gl.Entries[0].Running)
	require.Equal(t, int64(6_050_000), gl.Entries[1].Running)
	require.Equal(t, int64(500_000), gl.Entries[2].Running)
	require.Equal(t, int64(500_000), gl.Closing)
}

func TestBuildGeneralLedgerCreditNormal(t *testing.T) {
	entries := []LedgerEntry{
		{JournalNumber: "JRN-2026-0001", Credit: 1_000_000},
		{JournalNumber: "JRN-2026-0002", Debit: 400_000},
	}

	gl := BuildGeneralLedger("2-10100", "Utang usaha", "2026-03", false, 0, entries)

	require.Equal(t, int64(1_000_000), gl.Entries[0].Running)
	require.Equal(t, int64(600_000), gl.Closing)
}

func TestFormatIDR(t *testing.T) {
	require.Equal(t, "Rp11.100.000", FormatIDR(11_100_000))
	require.Equal(t, "Rp0", FormatIDR(0))
	require.Equal(t, "(Rp250.000)", FormatIDR(-250_000))
}

func TestFormatPeriod(t *testing.T) {
	require.Equal(t, "Maret 2026", FormatPeriod("2026-03"))
	require.Equal(t, "Desember 2025", FormatPeriod("2025-12"))
	require.Equal(t, "garbage", FormatPeriod("garbage"))
}
