package ap

import (
	"context"
	"errors"
	"strconv"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/gemilang-erp/gemilang-erp/internal/ledger"
	"github.com/gemilang-erp/gemilang-erp/internal/platform/db"
	"github.com/gemilang-erp/gemilang-erp/internal/shared"
)

// Repository encapsulates DB operations for vendor bills and payments.
type Repository interface {
	GetBill(ctx context.Context, id uuid.UUID) (Bill, error)
	ListBills(ctx context.Context, f BillFilter) ([]Bill, error)
	GetPayment(ctx context.Context, id uuid.UUID) (Payment, error)
	ListPayments(ctx context.Context, billID uuid.UUID) ([]Payment, error)
	PaidAmount(ctx context.Context, billID uuid.UUID) (int64, error)
	WithTx(ctx context.Context, fn func(context.Context, TxRepository) error) error
}

// TxRepository adds the document writes to the journal operations so a bill
// or payment commits in the same transaction as its journal.
type TxRepository interface {
	ledger.TxRepository
	GetBillForUpdate(ctx context.Context, id uuid.UUID) (Bill, error)
	PaidAmount(ctx context.Context, billID uuid.UUID) (int64, error)
	InsertBill(ctx context.Context, b Bill) (Bill, error)
	InsertBillLines(ctx context.Context, billID uuid.UUID, lines []BillLine) error
	InsertPayment(ctx context.Context, p Payment) (Payment, error)
	GetPaymentForUpdate(ctx context.Context, id uuid.UUID) (Payment, error)
	SetBillStatus(ctx context.Context, id uuid.UUID, status BillStatus) error
	SetPaymentStatus(ctx context.Context, id uuid.UUID, status PaymentStatus) error
}

type repository struct {
	db *pgxpool.Pool
}

func NewRepository(db *pgxpool.Pool) Repository {
	return &repository{db: db}
}

const billColumns = `b.id, b.number, b.vendor_id, v.name, b.date, b.due_date, b.faktur_pajak_number, b.description,
b.subtotal, b.vat_amount, b.total, b.status, b.journal_id, b.created_by, b.created_at, b.updated_at`

func scanBill(row pgx.Row) (Bill, error) {
	var b Bill
	err := row.Scan(&b.ID, &b.Number, &b.VendorID, &b.VendorName, &b.Date, &b.DueDate, &b.FakturPajakNumber, &b.Description,
		&b.Subtotal, &b.VATAmount, &b.Total, &b.Status, &b.JournalID, &b.CreatedBy, &b.CreatedAt, &b.UpdatedAt)
	return b, err
}

func (r *repository) GetBill(ctx context.Context, id uuid.UUID) (Bill, error) {
	b, err := scanBill(r.db.QueryRow(ctx, `SELECT `+billColumns+` FROM bills b JOIN vendors v ON v.id=b.vendor_id WHERE b.id=$1`, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Bill{}, shared.ErrNotFound
		}
		return Bill{}, err
	}
	b.Lines, err = loadBillLines(ctx, r.db, b.ID)
	return b, err
}

func (r *repository) ListBills(ctx context.Context, f BillFilter) ([]Bill, error) {
	query := `SELECT ` + billColumns + ` FROM bills b JOIN vendors v ON v.id=b.vendor_id WHERE 1=1`
	args := []any{}
	if f.VendorID != 0 {
		args = append(args, f.VendorID)
		query += ` AND b.vendor_id=$` + strconv.Itoa(len(args))
	}
	if f.Status != "" {
		args = append(args, f.Status)
		query += ` AND b.status=$` + strconv.Itoa(len(args))
	}
	query += ` ORDER BY b.number DESC`
	if f.Limit > 0 {
		args = append(args, f.Limit)
		query += ` LIMIT $` + strconv.Itoa(len(args))
	}
	if f.Offset > 0 {
		args = append(args, f.Offset)
		query += ` OFFSET $` + strconv.Itoa(len(args))
	}
	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []Bill
	for rows.Next() {
		b, err := scanBill(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, b)
	}
	return out, rows.Err()
}

const paymentColumns = `id, number, bill_id, vendor_id, date, amount, withholding_amount, status, journal_id, note, created_by, created_at`

func scanPayment(row pgx.Row) (Payment, error) {
	var p Payment
	err := row.Scan(&p.ID, &p.Number, &p.BillID, &p.VendorID, &p.Date, &p.Amount, &p.WithholdingAmount,
		&p.Status, &p.JournalID, &p.Note, &p.CreatedBy, &p.CreatedAt)
	return p, err
}

func (r *repository) GetPayment(ctx context.Context, id uuid.UUID) (Payment, error) {
	p, err := scanPayment(r.db.QueryRow(ctx, `SELECT `+paymentColumns+` FROM payments WHERE id=$1`, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Payment{}, shared.ErrNotFound
		}
		return Payment{}, err
	}
	return p, nil
}

func (r *repository) ListPayments(ctx context.Context, billID uuid.UUID) ([]Payment, error) {
	rows, err := r.db.Query(ctx, `SELECT `+paymentColumns+` FROM payments WHERE bill_id=$1 ORDER BY date, created_at`, billID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []Payment
	for rows.Next() {
		p, err := scanPayment(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

func (r *repository) PaidAmount(ctx context.Context, billID uuid.UUID) (int64, error) {
	return paidAmount(ctx, r.db, billID)
}

func (r *repository) WithTx(ctx context.Context, fn func(context.Context, TxRepository) error) error {
	return db.WithTx(ctx, r.db, func(tx pgx.Tx) error {
		return fn(ctx, &txRepository{TxRepository: ledger.NewTxRepository(tx), tx: tx})
	})
}

type rowQueryer interface {
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

func loadBillLines(ctx context.Context, q rowQueryer, billID uuid.UUID) ([]BillLine, error) {
	rows, err := q.Query(ctx, `SELECT id, bill_id, account_code, description, amount, project_code, sort_order
FROM bill_lines WHERE bill_id=$1 ORDER BY sort_order`, billID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var lines []BillLine
	for rows.Next() {
		var l BillLine
		if err := rows.Scan(&l.ID, &l.BillID, &l.AccountCode, &l.Description, &l.Amount, &l.ProjectCode, &l.SortOrder); err != nil {
			return nil, err
		}
		lines = append(lines, l)
	}
	return lines, rows.Err()
}

// paidAmount sums active payments against the bill. Voided payments count for
// nothing; their journals were mirrored out already.
func paidAmount(ctx context.Context, q rowQueryer, billID uuid.UUID) (int64, error) {
	var paid int64
	err := q.QueryRow(ctx, `SELECT COALESCE(SUM(amount), 0) FROM payments WHERE bill_id=$1 AND status=$2`,
		billID, PaymentStatusPosted).Scan(&paid)
	return paid, err
}

type txRepository struct {
	ledger.TxRepository
	tx pgx.Tx
}

// GetBillForUpdate locks the bill row so concurrent payments serialize and
// the outstanding-balance check cannot race.
func (r *txRepository) GetBillForUpdate(ctx context.Context, id uuid.UUID) (Bill, error) {
	b, err := scanBill(r.tx.QueryRow(ctx, `SELECT `+billColumns+` FROM bills b JOIN vendors v ON v.id=b.vendor_id WHERE b.id=$1 FOR UPDATE OF b`, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Bill{}, shared.ErrNotFound
		}
		return Bill{}, err
	}
	b.Lines, err = loadBillLines(ctx, r.tx, b.ID)
	return b, err
}

func (r *txRepository) PaidAmount(ctx context.Context, billID uuid.UUID) (int64, error) {
	return paidAmount(ctx, r.tx, billID)
}

func (r *txRepository) InsertBill(ctx context.Context, b Bill) (Bill, error) {
	err := r.tx.QueryRow(ctx, `INSERT INTO bills (id, number, vendor_id, date, due_date, faktur_pajak_number, description, subtotal, vat_amount, total, status, journal_id, created_by)
VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13) RETURNING created_at, updated_at`,
		b.ID, b.Number, b.VendorID, b.Date, b.DueDate, b.FakturPajakNumber, b.Description,
		b.Subtotal, b.VATAmount, b.Total, b.Status, b.JournalID, b.CreatedBy).
		Scan(&b.CreatedAt, &b.UpdatedAt)
	if err != nil {
		return Bill{}, err
	}
	return b, nil
}

func (r *txRepository) InsertBillLines(ctx context.Context, billID uuid.UUID, lines []BillLine) error {
	for _, line := range lines {
		if _, err := r.tx.Exec(ctx, `INSERT INTO bill_lines (bill_id, account_code, description, amount, project_code, sort_order)
VALUES ($1,$2,$3,$4,$5,$6)`, billID, line.AccountCode, line.Description, line.Amount, line.ProjectCode, line.SortOrder); err != nil {
			return err
		}
	}
	return nil
}

func (r *txRepository) InsertPayment(ctx context.Context, p Payment) (Payment, error) {
	err := r.tx.QueryRow(ctx, `INSERT INTO payments (id, number, bill_id, vendor_id, date, amount, withholding_amount, status, journal_id, note, created_by)
VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11) RETURNING created_at`,
		p.ID, p.Number, p.BillID, p.VendorID, p.Date, p.Amount, p.WithholdingAmount, p.Status, p.JournalID, p.Note, p.CreatedBy).
		Scan(&p.CreatedAt)
	if err != nil {
		return Payment{}, err
	}
	return p, nil
}

func (r *txRepository) GetPaymentForUpdate(ctx context.Context, id uuid.UUID) (Payment, error) {
	p, err := scanPayment(r.tx.QueryRow(ctx, `SELECT `+paymentColumns+` FROM payments WHERE id=$1 FOR UPDATE`, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Payment{}, shared.ErrNotFound
		}
		return Payment{}, err
	}
	return p, nil
}

func (r *txRepository) SetBillStatus(ctx context.Context, id uuid.UUID, status BillStatus) error {
	cmd, err := r.tx.Exec(ctx, `UPDATE bills SET status=$2, updated_at=NOW() WHERE id=$1`, id, status)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return shared.ErrNotFound
	}
	return nil
}

func (r *txRepository) SetPaymentStatus(ctx context.Context, id uuid.UUID, status PaymentStatus) error {
	cmd, err := r.tx.Exec(ctx, `UPDATE payments SET status=$2 WHERE id=$1`, id, status)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return shared.ErrNotFound
	}
	return nil
}
