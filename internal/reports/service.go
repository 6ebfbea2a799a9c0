package reports

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/gemilang-erp/gemilang-erp/internal/shared"
)

// Service serves the aggregated reports, caching closed-period results and
// collapsing concurrent builds of the same report.
type Service struct {
	repo   Repository
	cache  *Cache
	logger *slog.Logger
	group  singleflight.Group
	now    func() time.Time
}

func NewService(repo Repository, cache *Cache, logger *slog.Logger) *Service {
	return &Service{repo: repo, cache: cache, logger: logger, now: time.Now}
}

// WithNow overrides the clock for deterministic tests.
func (s *Service) WithNow(now func() time.Time) {
	if now != nil {
		s.now = now
	}
}

// TrialBalance reports cumulative balances through the period end. Closed
// periods read the frozen snapshot so the figures can never drift after
// close; a debit/credit mismatch is logged and flagged, never swallowed.
func (s *Service) TrialBalance(ctx context.Context, period string) (TrialBalance, error) {
	if !shared.ValidPeriod(period) {
		return TrialBalance{}, shared.NewValidationError("period", "period must be formatted YYYY-MM")
	}
	var tb TrialBalance
	err := s.fetch(ctx, keyStatement("tb", period), &tb, func(ctx context.Context) (interface{}, error) {
		balances, err := s.periodBalances(ctx, period)
		if err != nil {
			return nil, err
		}
		return BuildTrialBalance(period, balances), nil
	})
	if err != nil {
		return TrialBalance{}, err
	}
	for _, flag := range tb.Flags {
		s.logger.Error("trial balance integrity violation",
			slog.String("period", period),
			slog.String("code", flag.Code),
			slog.String("detail", flag.Detail))
	}
	return tb, nil
}

// ProfitAndLoss reports the activity inside one period.
func (s *Service) ProfitAndLoss(ctx context.Context, period string) (ProfitAndLoss, error) {
	return s.ProfitAndLossRange(ctx, period, period)
}

// ProfitAndLossRange aggregates the activity across an inclusive period
// range, fromPeriod through toPeriod.
func (s *Service) ProfitAndLossRange(ctx context.Context, fromPeriod, toPeriod string) (ProfitAndLoss, error) {
	if !shared.ValidPeriod(fromPeriod) || !shared.ValidPeriod(toPeriod) {
		return ProfitAndLoss{}, shared.NewValidationError("period", "periods must be formatted YYYY-MM")
	}
	if toPeriod < fromPeriod {
		return ProfitAndLoss{}, shared.NewValidationError("period", "range end %s precedes start %s", toPeriod, fromPeriod)
	}
	label := fromPeriod
	if toPeriod != fromPeriod {
		label = fromPeriod + " s.d. " + toPeriod
	}
	var pl ProfitAndLoss
	err := s.fetch(ctx, keyStatement("pl", fromPeriod+":"+toPeriod), &pl, func(ctx context.Context) (interface{}, error) {
		from, _, err := shared.PeriodBounds(fromPeriod)
		if err != nil {
			return nil, err
		}
		_, through, err := shared.PeriodBounds(toPeriod)
		if err != nil {
			return nil, err
		}
		balances, err := s.repo.ActivityInRange(ctx, from, through)
		if err != nil {
			return nil, err
		}
		return BuildProfitAndLoss(label, balances), nil
	})
	return pl, err
}

// BalanceSheet reports the financial position as of the period end.
func (s *Service) BalanceSheet(ctx context.Context, period string) (BalanceSheet, error) {
	if !shared.ValidPeriod(period) {
		return BalanceSheet{}, shared.NewValidationError("period", "period must be formatted YYYY-MM")
	}
	var bs BalanceSheet
	err := s.fetch(ctx, keyStatement("bs", period), &bs, func(ctx context.Context) (interface{}, error) {
		balances, err := s.periodBalances(ctx, period)
		if err != nil {
			return nil, err
		}
		return BuildBalanceSheet(period, balances), nil
	})
	if err != nil {
		return BalanceSheet{}, err
	}
	for _, flag := range bs.Flags {
		s.logger.Warn("balance sheet integrity violation",
			slog.String("period", period),
			slog.String("code", flag.Code),
			slog.String("detail", flag.Detail))
	}
	return bs, nil
}

// GeneralLedger lists one account's movements in the period with a running
// balance.
func (s *Service) GeneralLedger(ctx context.Context, accountCode, period string) (GeneralLedger, error) {
	if period == "" {
		period = shared.PeriodOf(s.now())
	}
	if !shared.ValidPeriod(period) {
		return GeneralLedger{}, shared.NewValidationError("period", "period must be formatted YYYY-MM")
	}
	account, err := s.repo.Account(ctx, accountCode)
	if err != nil {
		return GeneralLedger{}, err
	}
	from, through, err := shared.PeriodBounds(period)
	if err != nil {
		return GeneralLedger{}, err
	}
	debit, credit, err := s.repo.OpeningBalance(ctx, accountCode, from)
	if err != nil {
		return GeneralLedger{}, err
	}
	opening := debit - credit
	if !account.Type.DebitNormal() {
		opening = credit - debit
	}
	entries, err := s.repo.LedgerEntries(ctx, accountCode, from, through)
	if err != nil {
		return GeneralLedger{}, err
	}
	return BuildGeneralLedger(account.Code, account.Name, period, account.Type.DebitNormal(), opening, entries), nil
}

// APAging buckets unpaid vendor bills by days past due.
func (s *Service) APAging(ctx context.Context, asOf time.Time) (Aging, error) {
	if asOf.IsZero() {
		asOf = s.now().Truncate(24 * time.Hour)
	}
	var aging Aging
	err := s.fetch(ctx, keyAging("ap_aging", asOf), &aging, func(ctx context.Context) (interface{}, error) {
		docs, err := s.repo.OpenBills(ctx, asOf)
		if err != nil {
			return nil, err
		}
		return BuildAging(asOf, docs), nil
	})
	return aging, err
}

// ARAging buckets uncollected sales invoices by days past due.
func (s *Service) ARAging(ctx context.Context, asOf time.Time) (Aging, error) {
	if asOf.IsZero() {
		asOf = s.now().Truncate(24 * time.Hour)
	}
	var aging Aging
	err := s.fetch(ctx, keyAging("ar_aging", asOf), &aging, func(ctx context.Context) (interface{}, error) {
		docs, err := s.repo.OpenInvoices(ctx, asOf)
		if err != nil {
			return nil, err
		}
		return BuildAging(asOf, docs), nil
	})
	return aging, err
}

// Invalidate bumps the cache version after a posting or void.
func (s *Service) Invalidate(ctx context.Context) error {
	return s.cache.Bump(ctx)
}

// Warm prebuilds the statements for a period so the first reader after a
// bump does not pay the aggregation cost.
func (s *Service) Warm(ctx context.Context, period string) error {
	if _, err := s.TrialBalance(ctx, period); err != nil {
		return fmt.Errorf("warm trial balance: %w", err)
	}
	if _, err := s.ProfitAndLoss(ctx, period); err != nil {
		return fmt.Errorf("warm profit and loss: %w", err)
	}
	if _, err := s.BalanceSheet(ctx, period); err != nil {
		return fmt.Errorf("warm balance sheet: %w", err)
	}
	return nil
}

// periodBalances prefers the close snapshot for closed periods and falls
// back to live aggregation for open ones.
func (s *Service) periodBalances(ctx context.Context, period string) ([]AccountBalance, error) {
	status, err := s.repo.PeriodStatus(ctx, period)
	if err != nil {
		return nil, err
	}
	if status == shared.PeriodStatusClosed {
		balances, err := s.repo.SnapshotBalances(ctx, period)
		if err != nil {
			return nil, err
		}
		if len(balances) > 0 {
			return balances, nil
		}
	}
	_, through, err := shared.PeriodBounds(period)
	if err != nil {
		return nil, err
	}
	return s.repo.BalancesAsOf(ctx, through)
}

// fetch runs the loader behind the cache and a singleflight group keyed by
// the versioned cache key.
func (s *Service) fetch(ctx context.Context, key string, dest interface{}, loader func(context.Context) (interface{}, error)) error {
	cacheKey, err := s.cache.BuildKey(ctx, key)
	if err != nil {
		return err
	}
	return s.cache.FetchJSON(ctx, cacheKey, dest, func(ctx context.Context) (interface{}, error) {
		value, err, _ := s.group.Do(cacheKey, func() (interface{}, error) {
			return loader(ctx)
		})
		return value, err
	})
}
