package jobs

import (
	"context"
	"log/slog"
	"time"

	"github.com/hibiken/asynq"

	"github.com/gemilang-erp/gemilang-erp/internal/observability"
)

// ReportWarmer rebuilds the cached statements for a period.
type ReportWarmer interface {
	Warm(ctx context.Context, period string) error
}

// ReportWarmJob keeps the report cache hot after postings bump the version.
type ReportWarmJob struct {
	warmer  ReportWarmer
	logger  *slog.Logger
	metrics *observability.Metrics
	now     func() time.Time
}

// NewReportWarmJob constructs the warm job.
func NewReportWarmJob(warmer ReportWarmer, logger *slog.Logger, metrics *observability.Metrics) *ReportWarmJob {
	return &ReportWarmJob{warmer: warmer, logger: logger, metrics: metrics, now: time.Now}
}

// Handle processes TaskReportWarm tasks.
func (j *ReportWarmJob) Handle(ctx context.Context, t *asynq.Task) error {
	period, err := resolvePeriod(t.Payload(), j.now)
	if err != nil {
		return asynq.SkipRetry
	}
	err = j.warmer.Warm(ctx, period)
	if j.metrics != nil {
		j.metrics.RecordJob(TaskReportWarm, err)
	}
	if err != nil {
		j.logger.Warn("report warm failed", slog.String("period", period), slog.Any("error", err))
		return err
	}
	j.logger.Info("report cache warmed", slog.String("period", period))
	return nil
}
