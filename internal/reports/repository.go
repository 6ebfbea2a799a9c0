package reports

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/gemilang-erp/gemilang-erp/internal/ledger/accounts"
	"github.com/gemilang-erp/gemilang-erp/internal/shared"
)

// Repository reads aggregated figures for the report builders. Everything is
// read-only; reports never touch journal rows.
type Repository interface {
	PeriodStatus(ctx context.Context, period string) (string, error)
	BalancesAsOf(ctx context.Context, through time.Time) ([]AccountBalance, error)
	SnapshotBalances(ctx context.Context, period string) ([]AccountBalance, error)
	ActivityInRange(ctx context.Context, from, through time.Time) ([]AccountBalance, error)
	Account(ctx context.Context, code string) (accounts.Account, error)
	OpeningBalance(ctx context.Context, code string, before time.Time) (debit, credit int64, err error)
	LedgerEntries(ctx context.Context, code string, from, through time.Time) ([]LedgerEntry, error)
	OpenBills(ctx context.Context, asOf time.Time) ([]OutstandingDoc, error)
	OpenInvoices(ctx context.Context, asOf time.Time) ([]OutstandingDoc, error)
}

type repository struct {
	db *pgxpool.Pool
}

func NewRepository(db *pgxpool.Pool) Repository {
	return &repository{db: db}
}

func (r *repository) PeriodStatus(ctx context.Context, period string) (string, error) {
	var status string
	err := r.db.QueryRow(ctx, `SELECT status FROM period_status WHERE period=$1`, period).Scan(&status)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return shared.PeriodStatusOpen, nil
		}
		return "", err
	}
	return status, nil
}

// BalancesAsOf aggregates every account's cumulative debits and credits
// through the given date.
func (r *repository) BalancesAsOf(ctx context.Context, through time.Time) ([]AccountBalance, error) {
	rows, err := r.db.Query(ctx, `SELECT a.code, a.name, a.type, COALESCE(SUM(l.debit),0), COALESCE(SUM(l.credit),0)
FROM journal_lines l
JOIN journals j ON j.id = l.journal_id
JOIN accounts a ON a.code = l.account_code
WHERE j.date <= $1
GROUP BY a.code, a.name, a.type
ORDER BY a.code`, through)
	if err != nil {
		return nil, err
	}
	return collectBalances(rows)
}

// SnapshotBalances reads the balances frozen when the period was closed.
func (r *repository) SnapshotBalances(ctx context.Context, period string) ([]AccountBalance, error) {
	rows, err := r.db.Query(ctx, `SELECT s.account_code, a.name, a.type, s.debit, s.credit
FROM period_snapshots s
JOIN accounts a ON a.code = s.account_code
WHERE s.period=$1
ORDER BY s.account_code`, period)
	if err != nil {
		return nil, err
	}
	return collectBalances(rows)
}

// ActivityInRange aggregates debits and credits posted inside the range,
// inclusive on both ends.
func (r *repository) ActivityInRange(ctx context.Context, from, through time.Time) ([]AccountBalance, error) {
	rows, err := r.db.Query(ctx, `SELECT a.code, a.name, a.type, COALESCE(SUM(l.debit),0), COALESCE(SUM(l.credit),0)
FROM journal_lines l
JOIN journals j ON j.id = l.journal_id
JOIN accounts a ON a.code = l.account_code
WHERE j.date >= $1 AND j.date <= $2
GROUP BY a.code, a.name, a.type
ORDER BY a.code`, from, through)
	if err != nil {
		return nil, err
	}
	return collectBalances(rows)
}

func collectBalances(rows pgx.Rows) ([]AccountBalance, error) {
	defer rows.Close()
	var out []AccountBalance
	for rows.Next() {
		var b AccountBalance
		if err := rows.Scan(&b.Code, &b.Name, &b.Type, &b.Debit, &b.Credit); err != nil {
			return nil, err
		}
		out = append(out, b)
	}
	return out, rows.Err()
}

func (r *repository) Account(ctx context.Context, code string) (accounts.Account, error) {
	var a accounts.Account
	err := r.db.QueryRow(ctx, `SELECT id, code, name, type, is_active, created_at, updated_at FROM accounts WHERE code=$1`, code).
		Scan(&a.ID, &a.Code, &a.Name, &a.Type, &a.IsActive, &a.CreatedAt, &a.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return accounts.Account{}, shared.ErrNotFound
		}
		return accounts.Account{}, err
	}
	return a, nil
}

func (r *repository) OpeningBalance(ctx context.Context, code string, before time.Time) (int64, int64, error) {
	var debit, credit int64
	err := r.db.QueryRow(ctx, `SELECT COALESCE(SUM(l.debit),0), COALESCE(SUM(l.credit),0)
FROM journal_lines l
JOIN journals j ON j.id = l.journal_id
WHERE l.account_code=$1 AND j.date < $2`, code, before).Scan(&debit, &credit)
	return debit, credit, err
}

func (r *repository) LedgerEntries(ctx context.Context, code string, from, through time.Time) ([]LedgerEntry, error) {
	rows, err := r.db.Query(ctx, `SELECT j.date, j.number, COALESCE(NULLIF(l.description,''), j.description), l.debit, l.credit
FROM journal_lines l
JOIN journals j ON j.id = l.journal_id
WHERE l.account_code=$1 AND j.date >= $2 AND j.date <= $3
ORDER BY j.date, j.number, l.sort_order`, code, from, through)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []LedgerEntry
	for rows.Next() {
		var e LedgerEntry
		if err := rows.Scan(&e.Date, &e.JournalNumber, &e.Description, &e.Debit, &e.Credit); err != nil {
			return nil, err
		}
		out = append(out, e)
	}
	return out, rows.Err()
}

// OpenBills lists vendor bills dated on or before asOf with the balance still
// unpaid at that date. Payments dated after asOf do not reduce the balance, so
// a historical run reproduces the figures as they stood.
func (r *repository) OpenBills(ctx context.Context, asOf time.Time) ([]OutstandingDoc, error) {
	rows, err := r.db.Query(ctx, `SELECT b.vendor_id, v.name, b.number, b.due_date,
b.total - COALESCE((SELECT SUM(p.amount) FROM payments p WHERE p.bill_id=b.id AND p.status='POSTED' AND p.date <= $1),0)
FROM bills b
JOIN vendors v ON v.id = b.vendor_id
WHERE b.status = 'POSTED' AND b.date <= $1
ORDER BY b.due_date`, asOf)
	if err != nil {
		return nil, err
	}
	return collectOutstanding(rows)
}

// OpenInvoices lists sales invoices dated on or before asOf with the balance
// still uncollected at that date.
func (r *repository) OpenInvoices(ctx context.Context, asOf time.Time) ([]OutstandingDoc, error) {
	rows, err := r.db.Query(ctx, `SELECT i.client_id, c.name, i.number, i.due_date,
i.total - COALESCE((SELECT SUM(rc.amount) FROM receipts rc WHERE rc.invoice_id=i.id AND rc.status='POSTED' AND rc.date <= $1),0)
FROM invoices i
JOIN clients c ON c.id = i.client_id
WHERE i.status = 'POSTED' AND i.date <= $1
ORDER BY i.due_date`, asOf)
	if err != nil {
		return nil, err
	}
	return collectOutstanding(rows)
}

func collectOutstanding(rows pgx.Rows) ([]OutstandingDoc, error) {
	defer rows.Close()
	var out []OutstandingDoc
	for rows.Next() {
		var d OutstandingDoc
		if err := rows.Scan(&d.PartnerID, &d.PartnerName, &d.Number, &d.DueDate, &d.Outstanding); err != nil {
			return nil, err
		}
		out = append(out, d)
	}
	return out, rows.Err()
}
