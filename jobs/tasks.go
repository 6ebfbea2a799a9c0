// Package jobs contains the background tasks that run outside the request
// path: the nightly ledger integrity scan and the report cache warmer.
package jobs

import (
	"encoding/json"
	"time"

	"github.com/hibiken/asynq"
)

const (
	// QueueDefault is the default queue name for background jobs.
	QueueDefault = "default"
	// TaskLedgerIntegrityScan sweeps posted journals for balance and
	// project-tagging violations.
	TaskLedgerIntegrityScan = "ledger:integrity_scan"
	// TaskReportWarm rebuilds the cached statements for a period.
	TaskReportWarm = "reports:warm"
)

// PeriodPayload carries the accounting period a task should operate on.
// An empty period means the current month.
type PeriodPayload struct {
	Period string `json:"period"`
}

// NewIntegrityScanTask constructs an integrity scan task for a period.
func NewIntegrityScanTask(period string) (*asynq.Task, error) {
	data, err := json.Marshal(PeriodPayload{Period: period})
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskLedgerIntegrityScan, data), nil
}

// NewReportWarmTask constructs a report cache warm task for a period.
func NewReportWarmTask(period string) (*asynq.Task, error) {
	data, err := json.Marshal(PeriodPayload{Period: period})
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskReportWarm, data), nil
}

func resolvePeriod(payload []byte, now func() time.Time) (string, error) {
	var p PeriodPayload
	if len(payload) > 0 {
		if err := json.Unmarshal(payload, &p); err != nil {
			return "", err
		}
	}
	if p.Period != "" {
		return p.Period, nil
	}
	return now().Format("2006-01"), nil
}
