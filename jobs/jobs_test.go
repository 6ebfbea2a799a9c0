package jobs

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/hibiken/asynq"
	"github.com/stretchr/testify/require"
)

type stubChecker struct {
	unbalanced []string
	noProject  []string
	err        error
	period     string
}

func (s *stubChecker) UnbalancedJournals(_ context.Context, period string) ([]string, error) {
	s.period = period
	return s.unbalanced, s.err
}

func (s *stubChecker) COGSLinesMissingProject(_ context.Context, _ string) ([]string, error) {
	return s.noProject, s.err
}

type stubWarmer struct {
	period string
	err    error
}

func (s *stubWarmer) Warm(_ context.Context, period string) error {
	s.period = period
	return s.err
}

func discard() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestIntegrityScanReportsViolationsWithoutFailing(t *testing.T) {
	checker := &stubChecker{unbalanced: []string{"JRN-2026-0004"}, noProject: []string{"JRN-2026-0009"}}
	job := NewIntegrityScanJob(checker, discard(), nil)

	task, err := NewIntegrityScanTask("2026-03")
	require.NoError(t, err)
	require.NoError(t, job.Handle(context.Background(), task))
	require.Equal(t, "2026-03", checker.period)
}

func TestIntegrityScanPropagatesQueryErrors(t *testing.T) {
	checker := &stubChecker{err: errors.New("db down")}
	job := NewIntegrityScanJob(checker, discard(), nil)

	task, err := NewIntegrityScanTask("2026-03")
	require.NoError(t, err)
	require.Error(t, job.Handle(context.Background(), task))
}

func TestIntegrityScanDefaultsToCurrentMonth(t *testing.T) {
	checker := &stubChecker{}
	job := NewIntegrityScanJob(checker, discard(), nil)
	job.now = func() time.Time { return time.Date(2026, 3, 15, 10, 0, 0, 0, time.UTC) }

	require.NoError(t, job.Handle(context.Background(), asynq.NewTask(TaskLedgerIntegrityScan, nil)))
	require.Equal(t, "2026-03", checker.period)
}

func TestReportWarmUsesPayloadPeriod(t *testing.T) {
	warmer := &stubWarmer{}
	job := NewReportWarmJob(warmer, discard(), nil)

	task, err := NewReportWarmTask("2026-02")
	require.NoError(t, err)
	require.NoError(t, job.Handle(context.Background(), task))
	require.Equal(t, "2026-02", warmer.period)
}

func TestReportWarmReturnsWarmError(t *testing.T) {
	warmer := &stubWarmer{err: errors.New("redis down")}
	job := NewReportWarmJob(warmer, discard(), nil)

	task, err := NewReportWarmTask("2026-02")
	require.NoError(t, err)
	require.Error(t, job.Handle(context.Background(), task))
}
