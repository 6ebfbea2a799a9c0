// Package close manages the monthly period lifecycle: the one-way OPEN to
// CLOSED state machine, the pre-close audit, and the point-in-time balance
// snapshots taken at close.
package close

import (
	"errors"
	"time"
)

// PeriodStatus enumerates period lifecycle stages. Reopening, if ever added,
// must be a distinct privileged operation with its own audit trail.
type PeriodStatus string

const (
	PeriodStatusOpen   PeriodStatus = "OPEN"
	PeriodStatusClosed PeriodStatus = "CLOSED"
)

// Period is one row of the period gate consulted by every ledger mutation.
type Period struct {
	Period   string
	Status   PeriodStatus
	ClosedAt *time.Time
	ClosedBy string
	AuditID  *int64
}

// Severity grades audit findings. Only CRITICAL findings block a close.
type Severity string

const (
	SeverityCritical Severity = "CRITICAL"
	SeverityWarning  Severity = "WARNING"
)

// Finding is a single issue surfaced by the pre-close audit.
type Finding struct {
	ID       int64
	RunID    int64
	Severity Severity
	Code     string
	Detail   string
}

// AuditRun records one execution of the pre-close checks for a period.
type AuditRun struct {
	ID       int64
	Period   string
	RanAt    time.Time
	Findings []Finding
}

// CriticalCount returns the number of CRITICAL findings.
func (r AuditRun) CriticalCount() int {
	n := 0
	for _, f := range r.Findings {
		if f.Severity == SeverityCritical {
			n++
		}
	}
	return n
}

// SnapshotLine captures an account's cumulative position as of period end.
// Historical reports read these so later corrections elsewhere never make a
// closed period drift.
type SnapshotLine struct {
	Period      string
	AccountCode string
	Debit       int64
	Credit      int64
	Balance     int64
}

var (
	// ErrPeriodAlreadyClosed indicates a repeat close attempt.
	ErrPeriodAlreadyClosed = errors.New("close: period already closed")
	// ErrAuditNotFound indicates the referenced audit run does not exist.
	ErrAuditNotFound = errors.New("close: audit run not found")
	// ErrAuditPeriodMismatch indicates the audit covered a different period.
	ErrAuditPeriodMismatch = errors.New("close: audit run covers a different period")
	// ErrAuditHasCritical blocks closing while CRITICAL findings are unresolved.
	ErrAuditHasCritical = errors.New("close: audit run has unresolved critical findings")
)
