package partners

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/gemilang-erp/gemilang-erp/internal/shared"
)

// Repository encapsulates DB operations for counterparties.
type Repository interface {
	ListVendors(ctx context.Context) ([]Vendor, error)
	GetVendor(ctx context.Context, id int64) (Vendor, error)
	CreateVendor(ctx context.Context, v Vendor) (Vendor, error)
	UpdateVendor(ctx context.Context, v Vendor) error
	ListClients(ctx context.Context) ([]Client, error)
	GetClient(ctx context.Context, id int64) (Client, error)
	CreateClient(ctx context.Context, c Client) (Client, error)
	UpdateClient(ctx context.Context, c Client) error
}

type repository struct {
	db *pgxpool.Pool
}

func NewRepository(db *pgxpool.Pool) Repository {
	return &repository{db: db}
}

const vendorColumns = `id, name, npwp, provides_faktur_pajak, subject_to_pph23, pph23_rate, payment_terms_days, is_active, created_at, updated_at`

func scanVendor(row pgx.Row) (Vendor, error) {
	var v Vendor
	err := row.Scan(&v.ID, &v.Name, &v.NPWP, &v.ProvidesFakturPajak, &v.SubjectToPPh23, &v.PPh23RatePercent,
		&v.PaymentTermsDays, &v.IsActive, &v.CreatedAt, &v.UpdatedAt)
	return v, err
}

func (r *repository) ListVendors(ctx context.Context) ([]Vendor, error) {
	rows, err := r.db.Query(ctx, `SELECT `+vendorColumns+` FROM vendors ORDER BY name`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []Vendor
	for rows.Next() {
		v, err := scanVendor(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, v)
	}
	return out, rows.Err()
}

func (r *repository) GetVendor(ctx context.Context, id int64) (Vendor, error) {
	v, err := scanVendor(r.db.QueryRow(ctx, `SELECT `+vendorColumns+` FROM vendors WHERE id=$1`, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Vendor{}, shared.ErrNotFound
		}
		return Vendor{}, err
	}
	return v, nil
}

func (r *repository) CreateVendor(ctx context.Context, v Vendor) (Vendor, error) {
	err := r.db.QueryRow(ctx, `INSERT INTO vendors (name, npwp, provides_faktur_pajak, subject_to_pph23, pph23_rate, payment_terms_days, is_active)
VALUES ($1,$2,$3,$4,$5,$6,$7) RETURNING id, created_at, updated_at`,
		v.Name, v.NPWP, v.ProvidesFakturPajak, v.SubjectToPPh23, v.PPh23RatePercent, v.PaymentTermsDays, v.IsActive).
		Scan(&v.ID, &v.CreatedAt, &v.UpdatedAt)
	if err != nil {
		return Vendor{}, err
	}
	return v, nil
}

func (r *repository) UpdateVendor(ctx context.Context, v Vendor) error {
	cmd, err := r.db.Exec(ctx, `UPDATE vendors SET name=$2, npwp=$3, provides_faktur_pajak=$4, subject_to_pph23=$5, pph23_rate=$6, payment_terms_days=$7, is_active=$8, updated_at=NOW() WHERE id=$1`,
		v.ID, v.Name, v.NPWP, v.ProvidesFakturPajak, v.SubjectToPPh23, v.PPh23RatePercent, v.PaymentTermsDays, v.IsActive)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return shared.ErrNotFound
	}
	return nil
}

const clientColumns = `id, name, npwp, withholds_pph23, payment_terms_days, is_active, created_at, updated_at`

func scanClient(row pgx.Row) (Client, error) {
	var c Client
	err := row.Scan(&c.ID, &c.Name, &c.NPWP, &c.WithholdsPPh23, &c.PaymentTermsDays, &c.IsActive, &c.CreatedAt, &c.UpdatedAt)
	return c, err
}

func (r *repository) ListClients(ctx context.Context) ([]Client, error) {
	rows, err := r.db.Query(ctx, `SELECT `+clientColumns+` FROM clients ORDER BY name`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []Client
	for rows.Next() {
		c, err := scanClient(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

func (r *repository) GetClient(ctx context.Context, id int64) (Client, error) {
	c, err := scanClient(r.db.QueryRow(ctx, `SELECT `+clientColumns+` FROM clients WHERE id=$1`, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Client{}, shared.ErrNotFound
		}
		return Client{}, err
	}
	return c, nil
}

func (r *repository) CreateClient(ctx context.Context, c Client) (Client, error) {
	err := r.db.QueryRow(ctx, `INSERT INTO clients (name, npwp, withholds_pph23, payment_terms_days, is_active)
VALUES ($1,$2,$3,$4,$5) RETURNING id, created_at, updated_at`,
		c.Name, c.NPWP, c.WithholdsPPh23, c.PaymentTermsDays, c.IsActive).
		Scan(&c.ID, &c.CreatedAt, &c.UpdatedAt)
	if err != nil {
		return Client{}, err
	}
	return c, nil
}

func (r *repository) UpdateClient(ctx context.Context, c Client) error {
	cmd, err := r.db.Exec(ctx, `UPDATE clients SET name=$2, npwp=$3, withholds_pph23=$4, payment_terms_days=$5, is_active=$6, updated_at=NOW() WHERE id=$1`,
		c.ID, c.Name, c.NPWP, c.WithholdsPPh23, c.PaymentTermsDays, c.IsActive)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return shared.ErrNotFound
	}
	return nil
}
