package ledger

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/gemilang-erp/gemilang-erp/internal/ledger/accounts"
	"github.com/gemilang-erp/gemilang-erp/internal/platform/db"
)

// Repository encapsulates DB operations for the journal store.
type Repository interface {
	Get(ctx context.Context, id int64) (Journal, error)
	GetByNumber(ctx context.Context, number string) (Journal, error)
	List(ctx context.Context, f Filter) ([]Journal, error)
	WithTx(ctx context.Context, fn func(context.Context, TxRepository) error) error
}

// TxRepository exposes the operations available inside a posting transaction.
// The period gate and account lookups live here so they observe the same
// snapshot the write does.
type TxRepository interface {
	NextNumber(ctx context.Context, sequence string, fiscalYear int) (string, error)
	PeriodStatus(ctx context.Context, period string) (string, error)
	AccountsByCode(ctx context.Context, codes []string) (map[string]accounts.Account, error)
	InsertJournal(ctx context.Context, j Journal) (Journal, error)
	InsertLines(ctx context.Context, journalID int64, lines []JournalLine) error
	GetJournalForUpdate(ctx context.Context, id int64) (Journal, error)
	MarkReversed(ctx context.Context, originalID, reversalID int64, at time.Time, reason string) error
}

type repository struct {
	db *pgxpool.Pool
}

func NewRepository(db *pgxpool.Pool) Repository {
	return &repository{db: db}
}

const journalColumns = `id, number, date, period, description, status, source_doc_type, source_doc_id, reversal_of_id, reversed_by_id, posted_by, voided_at, void_reason, created_at`

func scanJournal(row pgx.Row) (Journal, error) {
	var j Journal
	err := row.Scan(&j.ID, &j.Number, &j.Date, &j.Period, &j.Description, &j.Status, &j.SourceDocType, &j.SourceDocID,
		&j.ReversalOfID, &j.ReversedByID, &j.PostedBy, &j.VoidedAt, &j.VoidReason, &j.CreatedAt)
	return j, err
}

func (r *repository) Get(ctx context.Context, id int64) (Journal, error) {
	j, err := scanJournal(r.db.QueryRow(ctx, `SELECT `+journalColumns+` FROM journals WHERE id=$1`, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Journal{}, ErrJournalNotFound
		}
		return Journal{}, err
	}
	j.Lines, err = loadLines(ctx, r.db, j.ID)
	return j, err
}

func (r *repository) GetByNumber(ctx context.Context, number string) (Journal, error) {
	j, err := scanJournal(r.db.QueryRow(ctx, `SELECT `+journalColumns+` FROM journals WHERE number=$1`, number))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Journal{}, ErrJournalNotFound
		}
		return Journal{}, err
	}
	j.Lines, err = loadLines(ctx, r.db, j.ID)
	return j, err
}

func (r *repository) List(ctx context.Context, f Filter) ([]Journal, error) {
	query := `SELECT ` + journalColumns + ` FROM journals WHERE 1=1`
	args := []any{}
	if f.Period != "" {
		args = append(args, f.Period)
		query += ` AND period=$` + itoa(len(args))
	}
	if f.Status != "" {
		args = append(args, f.Status)
		query += ` AND status=$` + itoa(len(args))
	}
	if f.SourceDocType != "" {
		args = append(args, f.SourceDocType)
		query += ` AND source_doc_type=$` + itoa(len(args))
	}
	query += ` ORDER BY number DESC`
	if f.Limit > 0 {
		args = append(args, f.Limit)
		query += ` LIMIT $` + itoa(len(args))
	}
	if f.Offset > 0 {
		args = append(args, f.Offset)
		query += ` OFFSET $` + itoa(len(args))
	}
	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []Journal
	for rows.Next() {
		j, err := scanJournal(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, j)
	}
	return out, rows.Err()
}

func (r *repository) WithTx(ctx context.Context, fn func(context.Context, TxRepository) error) error {
	return db.WithTx(ctx, r.db, func(tx pgx.Tx) error {
		return fn(ctx, &txRepository{tx: tx})
	})
}

type queryer interface {
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
}

func loadLines(ctx context.Context, q queryer, journalID int64) ([]JournalLine, error) {
	rows, err := q.Query(ctx, `SELECT id, journal_id, account_code, debit, credit, description, project_code, sort_order
FROM journal_lines WHERE journal_id=$1 ORDER BY sort_order`, journalID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var lines []JournalLine
	for rows.Next() {
		var l JournalLine
		if err := rows.Scan(&l.ID, &l.JournalID, &l.AccountCode, &l.Debit, &l.Credit, &l.Description, &l.ProjectCode, &l.SortOrder); err != nil {
			return nil, err
		}
		lines = append(lines, l)
	}
	return lines, rows.Err()
}

type txRepository struct {
	tx pgx.Tx
}

// NewTxRepository wraps an open transaction so document repositories can run
// journal operations inside their own WithTx.
func NewTxRepository(tx pgx.Tx) TxRepository {
	return &txRepository{tx: tx}
}

// NextNumber bumps the per-year sequence under a row lock so duplicates are
// impossible across concurrent posts.
func (r *txRepository) NextNumber(ctx context.Context, sequence string, fiscalYear int) (string, error) {
	var value int64
	err := r.tx.QueryRow(ctx, `INSERT INTO number_sequences (name, fiscal_year, value) VALUES ($1,$2,1)
ON CONFLICT (name, fiscal_year) DO UPDATE SET value = number_sequences.value + 1
RETURNING value`, sequence, fiscalYear).Scan(&value)
	if err != nil {
		return "", err
	}
	return FormatNumber(sequence, fiscalYear, value), nil
}

// PeriodStatus reads the period gate under a FOR SHARE lock so posting waits
// for an in-flight close on the same period. The gate row is materialised
// first: without it a post into a never-tracked period takes no lock at all
// and can commit while a concurrent close snapshots that period.
func (r *txRepository) PeriodStatus(ctx context.Context, period string) (string, error) {
	if _, err := r.tx.Exec(ctx, `INSERT INTO period_status (period, status) VALUES ($1, 'OPEN')
ON CONFLICT (period) DO NOTHING`, period); err != nil {
		return "", err
	}
	var status string
	err := r.tx.QueryRow(ctx, `SELECT status FROM period_status WHERE period=$1 FOR SHARE`, period).Scan(&status)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			// The row exists but sits outside our snapshot: a close
			// raced this post. Refuse rather than assume OPEN.
			return "", fmt.Errorf("period %s gate row not visible in snapshot: %w", period, ErrPeriodClosed)
		}
		return "", err
	}
	return status, nil
}

func (r *txRepository) AccountsByCode(ctx context.Context, codes []string) (map[string]accounts.Account, error) {
	rows, err := r.tx.Query(ctx, `SELECT id, code, name, type, is_active, created_at, updated_at FROM accounts WHERE code = ANY($1)`, codes)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := make(map[string]accounts.Account, len(codes))
	for rows.Next() {
		var a accounts.Account
		if err := rows.Scan(&a.ID, &a.Code, &a.Name, &a.Type, &a.IsActive, &a.CreatedAt, &a.UpdatedAt); err != nil {
			return nil, err
		}
		out[a.Code] = a
	}
	return out, rows.Err()
}

func (r *txRepository) InsertJournal(ctx context.Context, j Journal) (Journal, error) {
	err := r.tx.QueryRow(ctx, `INSERT INTO journals (number, date, period, description, status, source_doc_type, source_doc_id, reversal_of_id, posted_by)
VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9) RETURNING id, created_at`,
		j.Number, j.Date, j.Period, j.Description, j.Status, j.SourceDocType, j.SourceDocID, j.ReversalOfID, j.PostedBy).
		Scan(&j.ID, &j.CreatedAt)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.ConstraintName == "uq_journals_source_doc" {
			return Journal{}, ErrSourceAlreadyLinked
		}
		return Journal{}, err
	}
	return j, nil
}

func (r *txRepository) InsertLines(ctx context.Context, journalID int64, lines []JournalLine) error {
	for _, line := range lines {
		if _, err := r.tx.Exec(ctx, `INSERT INTO journal_lines (journal_id, account_code, debit, credit, description, project_code, sort_order)
VALUES ($1,$2,$3,$4,$5,$6,$7)`, journalID, line.AccountCode, line.Debit, line.Credit, line.Description, line.ProjectCode, line.SortOrder); err != nil {
			return err
		}
	}
	return nil
}

func (r *txRepository) GetJournalForUpdate(ctx context.Context, id int64) (Journal, error) {
	j, err := scanJournal(r.tx.QueryRow(ctx, `SELECT `+journalColumns+` FROM journals WHERE id=$1 FOR UPDATE`, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Journal{}, ErrJournalNotFound
		}
		return Journal{}, err
	}
	j.Lines, err = loadLines(ctx, r.tx, j.ID)
	return j, err
}

// MarkReversed tags the original entry. Its lines are never touched; the
// reversal journal carries the mirrored amounts.
func (r *txRepository) MarkReversed(ctx context.Context, originalID, reversalID int64, at time.Time, reason string) error {
	cmd, err := r.tx.Exec(ctx, `UPDATE journals SET status=$2, reversed_by_id=$3, voided_at=$4, void_reason=$5 WHERE id=$1 AND status=$6`,
		originalID, JournalStatusReversed, reversalID, at, reason, JournalStatusPosted)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return ErrAlreadyVoided
	}
	return nil
}

func itoa(n int) string {
	return strconv.Itoa(n)
}
