package jobs

import (
	"context"
	"log/slog"
	"time"

	"github.com/hibiken/asynq"

	"github.com/gemilang-erp/gemilang-erp/internal/observability"
)

// IntegrityChecker runs the same queries the pre-close audit uses, so the
// nightly scan and the close gate cannot disagree.
type IntegrityChecker interface {
	UnbalancedJournals(ctx context.Context, period string) ([]string, error)
	COGSLinesMissingProject(ctx context.Context, period string) ([]string, error)
}

// IntegrityScanJob surfaces ledger violations as log events and metrics.
// Findings never fail the job: the scan reports, the close gate enforces.
type IntegrityScanJob struct {
	checker IntegrityChecker
	logger  *slog.Logger
	metrics *observability.Metrics
	now     func() time.Time
}

// NewIntegrityScanJob constructs the scan job.
func NewIntegrityScanJob(checker IntegrityChecker, logger *slog.Logger, metrics *observability.Metrics) *IntegrityScanJob {
	return &IntegrityScanJob{checker: checker, logger: logger, metrics: metrics, now: time.Now}
}

// Handle processes TaskLedgerIntegrityScan tasks.
func (j *IntegrityScanJob) Handle(ctx context.Context, t *asynq.Task) error {
	period, err := resolvePeriod(t.Payload(), j.now)
	if err != nil {
		return asynq.SkipRetry
	}
	err = j.scan(ctx, period)
	if j.metrics != nil {
		j.metrics.RecordJob(TaskLedgerIntegrityScan, err)
	}
	return err
}

func (j *IntegrityScanJob) scan(ctx context.Context, period string) error {
	unbalanced, err := j.checker.UnbalancedJournals(ctx, period)
	if err != nil {
		return err
	}
	missingProject, err := j.checker.COGSLinesMissingProject(ctx, period)
	if err != nil {
		return err
	}
	if len(unbalanced) > 0 {
		j.logger.Error("ledger integrity: unbalanced journals",
			slog.String("period", period),
			slog.Any("journals", unbalanced))
	}
	if len(missingProject) > 0 {
		j.logger.Error("ledger integrity: cogs lines missing project",
			slog.String("period", period),
			slog.Any("journals", missingProject))
	}
	if len(unbalanced) == 0 && len(missingProject) == 0 {
		j.logger.Info("ledger integrity scan clean", slog.String("period", period))
	}
	return nil
}
