package ar

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

// Repository encapsulates DB operations for sales invoices and receipts.
type Repository interface {
	GetInvoice(ctx context.Context, id uuid.UUID) (Invoice, error)
	ListInvoices(ctx context.Context, f InvoiceFilter) ([]Invoice, error)
	GetReceipt(ctx context.Context, id uuid.UUID) (Receipt, error)
	ListReceipts(ctx context.Context, invoiceID uuid.UUID) ([]Receipt, error)
	ReceivedAmount(ctx context.Context, invoiceID uuid.UUID) (int64, error)
	WithTx(ctx context.Context, fn func(context.Context, TxRepository) error) error
}

// TxRepository adds the document writes to the journal operations so an
// invoice or receipt commits in the same transaction as its journal.
type TxRepository interface {
	ledger.TxRepository
	GetInvoiceForUpdate(ctx context.Context, id uuid.UUID) (Invoice, error)
	ReceivedAmount(ctx context.Context, invoiceID uuid.UUID) (int64, error)
	InsertInvoice(ctx context.Context, inv Invoice) (Invoice, error)
	InsertInvoiceLines(ctx context.Context, invoiceID uuid.UUID, lines []InvoiceLine) error
	InsertReceipt(ctx context.Context, r Receipt) (Receipt, error)
	GetReceiptForUpdate(ctx context.Context, id uuid.UUID) (Receipt, error)
	SetInvoiceStatus(ctx context.Context, id uuid.UUID, status InvoiceStatus) error
	SetReceiptStatus(ctx context.Context, id uuid.UUID, status ReceiptStatus) error
}

type repository struct {
	db *pgxpool.Pool
}

func NewRepository(db *pgxpool.Pool) Repository {
	return &repository{db: db}
}

const invoiceColumns = `i.id, i.number, i.client_id, c.name, i.date, i.due_date, i.description,
i.subtotal, i.vat_amount, i.total, i.status, i.journal_id, i.created_by, i.created_at, i.updated_at`

func scanInvoice(row pgx.Row) (Invoice, error) {
	var inv Invoice
	err := row.Scan(&inv.ID, &inv.Number, &inv.ClientID, &inv.ClientName, &inv.Date, &inv.DueDate, &inv.Description,
		&inv.Subtotal, &inv.VATAmount, &inv.Total, &inv.Status, &inv.JournalID, &inv.CreatedBy, &inv.CreatedAt, &inv.UpdatedAt)
	return inv, err
}

func (r *repository) GetInvoice(ctx context.Context, id uuid.UUID) (Invoice, error) {
	inv, err := scanInvoice(r.db.QueryRow(ctx, `SELECT `+invoiceColumns+` FROM invoices i JOIN clients c ON c.id=i.client_id WHERE i.id=$1`, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Invoice{}, shared.ErrNotFound
		}
		return Invoice{}, err
	}
	inv.Lines, err = loadInvoiceLines(ctx, r.db, inv.ID)
	return inv, err
}

func (r *repository) ListInvoices(ctx context.Context, f InvoiceFilter) ([]Invoice, error) {
	query := `SELECT ` + invoiceColumns + ` FROM invoices i JOIN clients c ON c.id=i.client_id WHERE 1=1`
	args := []any{}
	if f.ClientID != 0 {
		args = append(args, f.ClientID)
		query += ` AND i.client_id=$` + strconv.Itoa(len(args))
	}
	if f.Status != "" {
		args = append(args, f.Status)
		query += ` AND i.status=$` + strconv.Itoa(len(args))
	}
	query += ` ORDER BY i.number DESC`
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
	var out []Invoice
	for rows.Next() {
		inv, err := scanInvoice(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, inv)
	}
	return out, rows.Err()
}

const receiptColumns = `id, number, invoice_id, client_id, date, amount, withholding_amount, status, journal_id, note, created_by, created_at`

func scanReceipt(row pgx.Row) (Receipt, error) {
	var rc Receipt
	err := row.Scan(&rc.ID, &rc.Number, &rc.InvoiceID, &rc.ClientID, &rc.Date, &rc.Amount, &rc.WithholdingAmount,
		&rc.Status, &rc.JournalID, &rc.Note, &rc.CreatedBy, &rc.CreatedAt)
	return rc, err
}

func (r *repository) GetReceipt(ctx context.Context, id uuid.UUID) (Receipt, error) {
	rc, err := scanReceipt(r.db.QueryRow(ctx, `SELECT `+receiptColumns+` FROM receipts WHERE id=$1`, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Receipt{}, shared.ErrNotFound
		}
		return Receipt{}, err
	}
	return rc, nil
}

func (r *repository) ListReceipts(ctx context.Context, invoiceID uuid.UUID) ([]Receipt, error) {
	rows, err := r.db.Query(ctx, `SELECT `+receiptColumns+` FROM receipts WHERE invoice_id=$1 ORDER BY date, created_at`, invoiceID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []Receipt
	for rows.Next() {
		rc, err := scanReceipt(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, rc)
	}
	return out, rows.Err()
}

func (r *repository) ReceivedAmount(ctx context.Context, invoiceID uuid.UUID) (int64, error) {
	return receivedAmount(ctx, r.db, invoiceID)
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

func loadInvoiceLines(ctx context.Context, q rowQueryer, invoiceID uuid.UUID) ([]InvoiceLine, error) {
	rows, err := q.Query(ctx, `SELECT id, invoice_id, account_code, description, amount, project_code, sort_order
FROM invoice_lines WHERE invoice_id=$1 ORDER BY sort_order`, invoiceID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var lines []InvoiceLine
	for rows.Next() {
		var l InvoiceLine
		if err := rows.Scan(&l.ID, &l.InvoiceID, &l.AccountCode, &l.Description, &l.Amount, &l.ProjectCode, &l.SortOrder); err != nil {
			return nil, err
		}
		lines = append(lines, l)
	}
	return lines, rows.Err()
}

func receivedAmount(ctx context.Context, q rowQueryer, invoiceID uuid.UUID) (int64, error) {
	var received int64
	err := q.QueryRow(ctx, `SELECT COALESCE(SUM(amount), 0) FROM receipts WHERE invoice_id=$1 AND status=$2`,
		invoiceID, ReceiptStatusPosted).Scan(&received)
	return received, err
}

type txRepository struct {
	ledger.TxRepository
	tx pgx.Tx
}

// GetInvoiceForUpdate locks the invoice row so concurrent receipts serialize
// and the outstanding-balance check cannot race.
func (r *txRepository) GetInvoiceForUpdate(ctx context.Context, id uuid.UUID) (Invoice, error) {
	inv, err := scanInvoice(r.tx.QueryRow(ctx, `SELECT `+invoiceColumns+` FROM invoices i JOIN clients c ON c.id=i.client_id WHERE i.id=$1 FOR UPDATE OF i`, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Invoice{}, shared.ErrNotFound
		}
		return Invoice{}, err
	}
	inv.Lines, err = loadInvoiceLines(ctx, r.tx, inv.ID)
	return inv, err
}

func (r *txRepository) ReceivedAmount(ctx context.Context, invoiceID uuid.UUID) (int64, error) {
	return receivedAmount(ctx, r.tx, invoiceID)
}

func (r *txRepository) InsertInvoice(ctx context.Context, inv Invoice) (Invoice, error) {
	err := r.tx.QueryRow(ctx, `INSERT INTO invoices (id, number, client_id, date, due_date, description, subtotal, vat_amount, total, status, journal_id, created_by)
VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12) RETURNING created_at, updated_at`,
		inv.ID, inv.Number, inv.ClientID, inv.Date, inv.DueDate, inv.Description,
		inv.Subtotal, inv.VATAmount, inv.Total, inv.Status, inv.JournalID, inv.CreatedBy).
		Scan(&inv.CreatedAt, &inv.UpdatedAt)
	if err != nil {
		return Invoice{}, err
	}
	return inv, nil
}

func (r *txRepository) InsertInvoiceLines(ctx context.Context, invoiceID uuid.UUID, lines []InvoiceLine) error {
	for _, line := range lines {
		if _, err := r.tx.Exec(ctx, `INSERT INTO invoice_lines (invoice_id, account_code, description, amount, project_code, sort_order)
VALUES ($1,$2,$3,$4,$5,$6)`, invoiceID, line.AccountCode, line.Description, line.Amount, line.ProjectCode, line.SortOrder); err != nil {
			return err
		}
	}
	return nil
}

func (r *txRepository) InsertReceipt(ctx context.Context, rc Receipt) (Receipt, error) {
	err := r.tx.QueryRow(ctx, `INSERT INTO receipts (id, number, invoice_id, client_id, date, amount, withholding_amount, status, journal_id, note, created_by)
VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11) RETURNING created_at`,
		rc.ID, rc.Number, rc.InvoiceID, rc.ClientID, rc.Date, rc.Amount, rc.WithholdingAmount, rc.Status, rc.JournalID, rc.Note, rc.CreatedBy).
		Scan(&rc.CreatedAt)
	if err != nil {
		return Receipt{}, err
	}
	return rc, nil
}

func (r *txRepository) GetReceiptForUpdate(ctx context.Context, id uuid.UUID) (Receipt, error) {
	rc, err := scanReceipt(r.tx.QueryRow(ctx, `SELECT `+receiptColumns+` FROM receipts WHERE id=$1 FOR UPDATE`, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Receipt{}, shared.ErrNotFound
		}
		return Receipt{}, err
	}
	return rc, nil
}

func (r *txRepository) SetInvoiceStatus(ctx context.Context, id uuid.UUID, status InvoiceStatus) error {
	cmd, err := r.tx.Exec(ctx, `UPDATE invoices SET status=$2, updated_at=NOW() WHERE id=$1`, id, status)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return shared.ErrNotFound
	}
	return nil
}

func (r *txRepository) SetReceiptStatus(ctx context.Context, id uuid.UUID, status ReceiptStatus) error {
	cmd, err := r.tx.Exec(ctx, `UPDATE receipts SET status=$2 WHERE id=$1`, id, status)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return shared.ErrNotFound
	}
	return nil
}
