package close

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/gemilang-erp/gemilang-erp/internal/shared"
)

// AuditPort records close events for compliance.
type AuditPort interface {
	Record(ctx context.Context, log shared.AuditLog) error
}

// Service orchestrates the period lifecycle: pre-close audits and the
// one-way OPEN to CLOSED transition.
type Service struct {
	repo  Repository
	audit AuditPort
	now   func() time.Time
}

// NewService constructs a Service instance.
func NewService(repo Repository, audit AuditPort) *Service {
	return &Service{repo: repo, audit: audit, now: time.Now}
}

// WithNow overrides the clock for deterministic tests.
func (s *Service) WithNow(now func() time.Time) {
	if now != nil {
		s.now = now
	}
}

// GetPeriod returns the gate state for a period.
func (s *Service) GetPeriod(ctx context.Context, period string) (Period, error) {
	if !shared.ValidPeriod(period) {
		return Period{}, shared.NewValidationError("period", "period %q must be YYYY-MM", period)
	}
	return s.repo.GetPeriod(ctx, period)
}

// ListPeriods returns every explicitly tracked period.
func (s *Service) ListPeriods(ctx context.Context) ([]Period, error) {
	return s.repo.ListPeriods(ctx)
}

// GetSnapshot returns the balance snapshot taken when a period closed.
func (s *Service) GetSnapshot(ctx context.Context, period string) ([]SnapshotLine, error) {
	return s.repo.GetSnapshot(ctx, period)
}

// RunAudit executes the pre-close checks for a period and stores the result.
// The returned run's id is what ClosePeriod later requires.
func (s *Service) RunAudit(ctx context.Context, period string) (AuditRun, error) {
	if !shared.ValidPeriod(period) {
		return AuditRun{}, shared.NewValidationError("period", "period %q must be YYYY-MM", period)
	}
	run := AuditRun{Period: period, RanAt: s.now()}
	unbalanced, err := s.repo.UnbalancedJournals(ctx, period)
	if err != nil {
		return AuditRun{}, err
	}
	for _, number := range unbalanced {
		run.Findings = append(run.Findings, Finding{
			Severity: SeverityCritical,
			Code:     "UNBALANCED_JOURNAL",
			Detail:   fmt.Sprintf("journal %s debits do not equal credits", number),
		})
	}
	missing, err := s.repo.COGSLinesMissingProject(ctx, period)
	if err != nil {
		return AuditRun{}, err
	}
	if len(missing) > 0 {
		run.Findings = append(run.Findings, Finding{
			Severity: SeverityCritical,
			Code:     "COGS_MISSING_PROJECT",
			Detail:   fmt.Sprintf("journals without project codes on COGS lines: %s", strings.Join(missing, ", ")),
		})
	}
	return s.repo.InsertAuditRun(ctx, run)
}

// ClosePeriod atomically marks the period CLOSED and stores the per-account
// balance snapshot. It fails while the referenced audit run still reports
// CRITICAL findings, and holds an exclusive lock on the period row so no
// posting into the period can commit mid-close.
func (s *Service) ClosePeriod(ctx context.Context, period string, auditID int64, closedBy string) ([]SnapshotLine, error) {
	if !shared.ValidPeriod(period) {
		return nil, shared.NewValidationError("period", "period %q must be YYYY-MM", period)
	}
	if auditID == 0 {
		return nil, shared.NewValidationError("audit_id", "a pre-close audit run is required")
	}
	_, endDate, err := shared.PeriodBounds(period)
	if err != nil {
		return nil, err
	}
	var snapshot []SnapshotLine
	err = s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		status, err := tx.LockPeriodForClose(ctx, period)
		if err != nil {
			return err
		}
		if err := shared.ValidatePeriodTransition(string(status), shared.PeriodStatusClosed); err != nil {
			return ErrPeriodAlreadyClosed
		}
		run, err := tx.GetAuditRun(ctx, auditID)
		if err != nil {
			return err
		}
		if run.Period != period {
			return ErrAuditPeriodMismatch
		}
		if run.CriticalCount() > 0 {
			return ErrAuditHasCritical
		}
		snapshot, err = tx.AccountBalancesAsOf(ctx, endDate)
		if err != nil {
			return err
		}
		if err := tx.InsertSnapshot(ctx, period, snapshot); err != nil {
			return err
		}
		return tx.MarkClosed(ctx, period, closedBy, auditID, s.now())
	})
	if err != nil {
		return nil, err
	}
	if s.audit != nil {
		_ = s.audit.Record(ctx, shared.AuditLog{
			Actor:    closedBy,
			Action:   "period.close",
			Entity:   "period",
			EntityID: period,
			Meta: map[string]any{
				"audit_id":       auditID,
				"snapshot_lines": len(snapshot),
			},
			At: s.now(),
		})
	}
	return snapshot, nil
}
