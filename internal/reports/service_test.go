package reports

import (
	"context"
	"log/slog"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"

	"github.com/gemilang-erp/gemilang-erp/internal/ledger/accounts"
	"github.com/gemilang-erp/gemilang-erp/internal/shared"
)

type fakeRepo struct {
	status    string
	snapshots []AccountBalance
	live      []AccountBalance
	activity  []AccountBalance
	bills     []OutstandingDoc
	invoices  []OutstandingDoc

	liveCalls     int
	snapshotCalls int
	lastAgingAsOf time.Time
}

func (f *fakeRepo) PeriodStatus(ctx context.Context, period string) (string, error) {
	if f.status == "" {
		return shared.PeriodStatusOpen, nil
	}
	return f.status, nil
}

func (f *fakeRepo) BalancesAsOf(ctx context.Context, through time.Time) ([]AccountBalance, error) {
	f.liveCalls++
	return f.live, nil
}

func (f *fakeRepo) SnapshotBalances(ctx context.Context, period string) ([]AccountBalance, error) {
	f.snapshotCalls++
	return f.snapshots, nil
}

func (f *fakeRepo) ActivityInRange(ctx context.Context, from, through time.Time) ([]AccountBalance, error) {
	return f.activity, nil
}

func (f *fakeRepo) Account(ctx context.Context, code string) (accounts.Account, error) {
	return accounts.Account{Code: code, Name: "Bank", Type: accounts.AccountTypeAsset}, nil
}

func (f *fakeRepo) OpeningBalance(ctx context.Context, code string, before time.Time) (int64, int64, error) {
	return 0, 0, nil
}

func (f *fakeRepo) LedgerEntries(ctx context.Context, code string, from, through time.Time) ([]LedgerEntry, error) {
	return nil, nil
}

func (f *fakeRepo) OpenBills(ctx context.Context, asOf time.Time) ([]OutstandingDoc, error) {
	f.lastAgingAsOf = asOf
	return f.bills, nil
}

func (f *fakeRepo) OpenInvoices(ctx context.Context, asOf time.Time) ([]OutstandingDoc, error) {
	f.lastAgingAsOf = asOf
	return f.invoices, nil
}

func newCacheForTest(t *testing.T) *Cache {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return NewCache(client, time.Minute)
}

func balancedChart() []AccountBalance {
	return []AccountBalance{
		{Code: accounts.CodeBank, Name: "Bank", Type: accounts.AccountTypeAsset, Debit: 5_000_000},
		{Code: "3-10100", Name: "Modal disetor", Type: accounts.AccountTypeEquity, Credit: 5_000_000},
	}
}

func TestTrialBalanceValidatesPeriod(t *testing.T) {
	svc := NewService(&fakeRepo{}, NewCache(nil, 0), slog.Default())

	_, err := svc.TrialBalance(context.Background(), "2026-3")
	require.True(t, shared.IsValidation(err))
}

func TestTrialBalanceCachesUntilBump(t *testing.T) {
	repo := &fakeRepo{live: balancedChart()}
	svc := NewService(repo, newCacheForTest(t), slog.Default())

	first, err := svc.TrialBalance(context.Background(), "2026-03")
	require.NoError(t, err)
	require.Equal(t, int64(5_000_000), first.TotalDebit)
	require.Equal(t, 1, repo.liveCalls)

	_, err = svc.TrialBalance(context.Background(), "2026-03")
	require.NoError(t, err)
	require.Equal(t, 1, repo.liveCalls, "second read is served from cache")

	require.NoError(t, svc.Invalidate(context.Background()))

	_, err = svc.TrialBalance(context.Background(), "2026-03")
	require.NoError(t, err)
	require.Equal(t, 2, repo.liveCalls, "bump forces a rebuild")
}

func TestTrialBalanceClosedPeriodReadsSnapshot(t *testing.T) {
	repo := &fakeRepo{
		status:    shared.PeriodStatusClosed,
		snapshots: balancedChart(),
		live: []AccountBalance{
			{Code: accounts.CodeBank, Name: "Bank", Type: accounts.AccountTypeAsset, Debit: 9_999_999},
			{Code: "3-10100", Name: "Modal disetor", Type: accounts.AccountTypeEquity, Credit: 9_999_999},
		},
	}
	svc := NewService(repo, NewCache(nil, 0), slog.Default())

	tb, err := svc.TrialBalance(context.Background(), "2026-03")
	require.NoError(t, err)
	require.Equal(t, 1, repo.snapshotCalls)
	require.Equal(t, 0, repo.liveCalls)
	require.Equal(t, int64(5_000_000), tb.TotalDebit, "closed periods report the frozen snapshot")
}

func TestBalanceSheetReturnsFlagsNotErrors(t *testing.T) {
	repo := &fakeRepo{live: []AccountBalance{
		{Code: accounts.CodeBank, Name: "Bank", Type: accounts.AccountTypeAsset, Debit: 5_000_000},
		{Code: "3-10100", Name: "Modal disetor", Type: accounts.AccountTypeEquity, Credit: 4_000_000},
	}}
	svc := NewService(repo, NewCache(nil, 0), slog.Default())

	bs, err := svc.BalanceSheet(context.Background(), "2026-03")
	require.NoError(t, err)
	require.Len(t, bs.Flags, 1)
	require.Equal(t, FlagBalanceSheetMismatch, bs.Flags[0].Code)
}

func TestProfitAndLossRangeSpansPeriods(t *testing.T) {
	repo := &fakeRepo{activity: []AccountBalance{
		{Code: "4-10100", Name: "Pendapatan jasa", Type: accounts.AccountTypeRevenue, Credit: 12_000_000},
		{Code: "6-10100", Name: "Beban gaji", Type: accounts.AccountTypeOpex, Debit: 7_000_000},
	}}
	svc := NewService(repo, NewCache(nil, 0), slog.Default())

	pl, err := svc.ProfitAndLossRange(context.Background(), "2026-01", "2026-03")
	require.NoError(t, err)
	require.Equal(t, "2026-01 s.d. 2026-03", pl.Period)
	require.Equal(t, int64(12_000_000), pl.Revenue.Total)
	require.Equal(t, int64(5_000_000), pl.NetIncome)
}

func TestProfitAndLossRangeRejectsReversedBounds(t *testing.T) {
	svc := NewService(&fakeRepo{}, NewCache(nil, 0), slog.Default())

	_, err := svc.ProfitAndLossRange(context.Background(), "2026-03", "2026-01")
	require.True(t, shared.IsValidation(err))
}

func TestAPAgingDefaultsAsOfToToday(t *testing.T) {
	repo := &fakeRepo{}
	svc := NewService(repo, NewCache(nil, 0), slog.Default())
	svc.WithNow(func() time.Time { return time.Date(2026, 3, 10, 15, 4, 5, 0, time.UTC) })

	aging, err := svc.APAging(context.Background(), time.Time{})
	require.NoError(t, err)
	require.Equal(t, time.Date(2026, 3, 10, 0, 0, 0, 0, time.UTC), aging.AsOf)
}

func TestAPAgingQueriesBalancesAsOf(t *testing.T) {
	asOf := time.Date(2026, 1, 31, 0, 0, 0, 0, time.UTC)
	repo := &fakeRepo{bills: []OutstandingDoc{
		{PartnerID: 1, PartnerName: "PT Mitra", Number: "BILL-001", DueDate: time.Date(2025, 12, 15, 0, 0, 0, 0, time.UTC), Outstanding: 4_000_000},
	}}
	svc := NewService(repo, NewCache(nil, 0), slog.Default())

	aging, err := svc.APAging(context.Background(), asOf)
	require.NoError(t, err)
	require.Equal(t, asOf, repo.lastAgingAsOf)
	require.Equal(t, int64(4_000_000), aging.Total.Days31to60)
	require.Equal(t, int64(4_000_000), aging.Total.Total)
}

func TestARAgingQueriesBalancesAsOf(t *testing.T) {
	asOf := time.Date(2026, 2, 28, 0, 0, 0, 0, time.UTC)
	repo := &fakeRepo{invoices: []OutstandingDoc{
		{PartnerID: 7, PartnerName: "PT Pelanggan", Number: "INV-003", DueDate: time.Date(2026, 2, 20, 0, 0, 0, 0, time.UTC), Outstanding: 2_500_000},
	}}
	svc := NewService(repo, NewCache(nil, 0), slog.Default())

	aging, err := svc.ARAging(context.Background(), asOf)
	require.NoError(t, err)
	require.Equal(t, asOf, repo.lastAgingAsOf)
	require.Equal(t, int64(2_500_000), aging.Total.Days0to30)
}
