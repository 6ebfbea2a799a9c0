package close

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/gemilang-erp/gemilang-erp/internal/platform/db"
)

// Repository encapsulates DB operations for periods, audit runs, and
// snapshots.
type Repository interface {
	GetPeriod(ctx context.Context, period string) (Period, error)
	ListPeriods(ctx context.Context) ([]Period, error)
	GetSnapshot(ctx context.Context, period string) ([]SnapshotLine, error)
	InsertAuditRun(ctx context.Context, run AuditRun) (AuditRun, error)
	UnbalancedJournals(ctx context.Context, period string) ([]string, error)
	COGSLinesMissingProject(ctx context.Context, period string) ([]string, error)
	WithTx(ctx context.Context, fn func(context.Context, TxRepository) error) error
}

// TxRepository exposes the operations available inside the close transaction.
type TxRepository interface {
	LockPeriodForClose(ctx context.Context, period string) (PeriodStatus, error)
	GetAuditRun(ctx context.Context, id int64) (AuditRun, error)
	AccountBalancesAsOf(ctx context.Context, endDate time.Time) ([]SnapshotLine, error)
	MarkClosed(ctx context.Context, period, closedBy string, auditID int64, at time.Time) error
	InsertSnapshot(ctx context.Context, period string, lines []SnapshotLine) error
}

type repository struct {
	db *pgxpool.Pool
}

func NewRepository(db *pgxpool.Pool) Repository {
	return &repository{db: db}
}

// GetPeriod returns the gate row for a period, defaulting to OPEN when the
// period was never explicitly touched.
func (r *repository) GetPeriod(ctx context.Context, period string) (Period, error) {
	var p Period
	err := r.db.QueryRow(ctx, `SELECT period, status, closed_at, COALESCE(closed_by,''), audit_id FROM period_status WHERE period=$1`, period).
		Scan(&p.Period, &p.Status, &p.ClosedAt, &p.ClosedBy, &p.AuditID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Period{Period: period, Status: PeriodStatusOpen}, nil
		}
		return Period{}, err
	}
	return p, nil
}

func (r *repository) ListPeriods(ctx context.Context) ([]Period, error) {
	rows, err := r.db.Query(ctx, `SELECT period, status, closed_at, COALESCE(closed_by,''), audit_id FROM period_status ORDER BY period DESC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []Period
	for rows.Next() {
		var p Period
		if err := rows.Scan(&p.Period, &p.Status, &p.ClosedAt, &p.ClosedBy, &p.AuditID); err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

// GetSnapshot returns the stored close snapshot for a period.
func (r *repository) GetSnapshot(ctx context.Context, period string) ([]SnapshotLine, error) {
	rows, err := r.db.Query(ctx, `SELECT period, account_code, debit, credit, balance FROM period_snapshots WHERE period=$1 ORDER BY account_code`, period)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []SnapshotLine
	for rows.Next() {
		var s SnapshotLine
		if err := rows.Scan(&s.Period, &s.AccountCode, &s.Debit, &s.Credit, &s.Balance); err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	return out, rows.Err()
}

// InsertAuditRun stores a run and its findings atomically.
func (r *repository) InsertAuditRun(ctx context.Context, run AuditRun) (AuditRun, error) {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return AuditRun{}, err
	}
	defer func() {
		_ = tx.Rollback(ctx)
	}()
	if err := tx.QueryRow(ctx, `INSERT INTO close_audit_runs (period, ran_at) VALUES ($1,$2) RETURNING id`,
		run.Period, run.RanAt).Scan(&run.ID); err != nil {
		return AuditRun{}, err
	}
	for i := range run.Findings {
		run.Findings[i].RunID = run.ID
		if err := tx.QueryRow(ctx, `INSERT INTO close_audit_findings (run_id, severity, code, detail) VALUES ($1,$2,$3,$4) RETURNING id`,
			run.ID, run.Findings[i].Severity, run.Findings[i].Code, run.Findings[i].Detail).Scan(&run.Findings[i].ID); err != nil {
			return AuditRun{}, err
		}
	}
	if err := tx.Commit(ctx); err != nil {
		return AuditRun{}, err
	}
	return run, nil
}

// UnbalancedJournals lists journals in the period whose lines do not sum to
// zero. Any hit means the posting choke point was bypassed.
func (r *repository) UnbalancedJournals(ctx context.Context, period string) ([]string, error) {
	return r.numbers(ctx, `SELECT j.number
FROM journals j
JOIN journal_lines l ON l.journal_id = j.id
WHERE j.period = $1
GROUP BY j.id, j.number
HAVING SUM(l.debit) <> SUM(l.credit)
ORDER BY j.number`, period)
}

// COGSLinesMissingProject lists journal numbers carrying COGS lines without a
// project code.
func (r *repository) COGSLinesMissingProject(ctx context.Context, period string) ([]string, error) {
	return r.numbers(ctx, `SELECT DISTINCT j.number
FROM journals j
JOIN journal_lines l ON l.journal_id = j.id
JOIN accounts a ON a.code = l.account_code
WHERE j.period = $1 AND a.type = 'COGS' AND (l.project_code IS NULL OR l.project_code = '')
ORDER BY j.number`, period)
}

func (r *repository) numbers(ctx context.Context, query, period string) ([]string, error) {
	rows, err := r.db.Query(ctx, query, period)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []string
	for rows.Next() {
		var number string
		if err := rows.Scan(&number); err != nil {
			return nil, err
		}
		out = append(out, number)
	}
	return out, rows.Err()
}

func (r *repository) WithTx(ctx context.Context, fn func(context.Context, TxRepository) error) error {
	return db.WithTx(ctx, r.db, func(tx pgx.Tx) error {
		return fn(ctx, &txRepository{tx: tx})
	})
}

type txRepository struct {
	tx pgx.Tx
}

// LockPeriodForClose materialises the period row if needed and takes an
// exclusive lock on it, so no posting into the period can commit while the
// close is in flight.
func (r *txRepository) LockPeriodForClose(ctx context.Context, period string) (PeriodStatus, error) {
	var status PeriodStatus
	err := r.tx.QueryRow(ctx, `INSERT INTO period_status (period, status) VALUES ($1, 'OPEN')
ON CONFLICT (period) DO UPDATE SET period = period_status.period
RETURNING status`, period).Scan(&status)
	if err != nil {
		return "", err
	}
	return status, nil
}

// GetAuditRun loads an audit run with its findings.
func (r *txRepository) GetAuditRun(ctx context.Context, id int64) (AuditRun, error) {
	var run AuditRun
	err := r.tx.QueryRow(ctx, `SELECT id, period, ran_at FROM close_audit_runs WHERE id=$1`, id).
		Scan(&run.ID, &run.Period, &run.RanAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return AuditRun{}, ErrAuditNotFound
		}
		return AuditRun{}, err
	}
	rows, err := r.tx.Query(ctx, `SELECT id, run_id, severity, code, detail FROM close_audit_findings WHERE run_id=$1 ORDER BY id`, id)
	if err != nil {
		return AuditRun{}, err
	}
	defer rows.Close()
	for rows.Next() {
		var f Finding
		if err := rows.Scan(&f.ID, &f.RunID, &f.Severity, &f.Code, &f.Detail); err != nil {
			return AuditRun{}, err
		}
		run.Findings = append(run.Findings, f)
	}
	return run, rows.Err()
}

// AccountBalancesAsOf aggregates every account's cumulative debits and
// credits through the end of the period, for the close snapshot.
func (r *txRepository) AccountBalancesAsOf(ctx context.Context, endDate time.Time) ([]SnapshotLine, error) {
	rows, err := r.tx.Query(ctx, `SELECT l.account_code, COALESCE(SUM(l.debit),0), COALESCE(SUM(l.credit),0)
FROM journal_lines l
JOIN journals j ON j.id = l.journal_id
WHERE j.date <= $1
GROUP BY l.account_code
ORDER BY l.account_code`, endDate)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []SnapshotLine
	for rows.Next() {
		var s SnapshotLine
		if err := rows.Scan(&s.AccountCode, &s.Debit, &s.Credit); err != nil {
			return nil, err
		}
		s.Balance = s.Debit - s.Credit
		out = append(out, s)
	}
	return out, rows.Err()
}

// MarkClosed flips the locked period row to CLOSED.
func (r *txRepository) MarkClosed(ctx context.Context, period, closedBy string, auditID int64, at time.Time) error {
	_, err := r.tx.Exec(ctx, `UPDATE period_status SET status='CLOSED', closed_at=$2, closed_by=$3, audit_id=$4 WHERE period=$1`,
		period, at, closedBy, auditID)
	return err
}

// InsertSnapshot stores the point-in-time balances taken at close.
func (r *txRepository) InsertSnapshot(ctx context.Context, period string, lines []SnapshotLine) error {
	for _, line := range lines {
		if _, err := r.tx.Exec(ctx, `INSERT INTO period_snapshots (period, account_code, debit, credit, balance) VALUES ($1,$2,$3,$4,$5)`,
			period, line.AccountCode, line.Debit, line.Credit, line.Balance); err != nil {
			return err
		}
	}
	return nil
}
