package ar

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/gemilang-erp/gemilang-erp/internal/ledger"
	"github.com/gemilang-erp/gemilang-erp/internal/ledger/accounts"
	"github.com/gemilang-erp/gemilang-erp/internal/ledger/ledgertest"
	"github.com/gemilang-erp/gemilang-erp/internal/partners"
	"github.com/gemilang-erp/gemilang-erp/internal/shared"
)

type memRepo struct {
	*ledgertest.Store
	invoices map[uuid.UUID]*Invoice
	receipts map[uuid.UUID]*Receipt
}

func newMemRepo(store *ledgertest.Store) *memRepo {
	return &memRepo{
		Store:    store,
		invoices: make(map[uuid.UUID]*Invoice),
		receipts: make(map[uuid.UUID]*Receipt),
	}
}

func (r *memRepo) GetInvoice(ctx context.Context, id uuid.UUID) (Invoice, error) {
	inv, ok := r.invoices[id]
	if !ok {
		return Invoice{}, shared.ErrNotFound
	}
	return *inv, nil
}

func (r *memRepo) ListInvoices(ctx context.Context, f InvoiceFilter) ([]Invoice, error) {
	var out []Invoice
	for _, inv := range r.invoices {
		if f.Status != "" && inv.Status != f.Status {
			continue
		}
		out = append(out, *inv)
	}
	return out, nil
}

func (r *memRepo) GetReceipt(ctx context.Context, id uuid.UUID) (Receipt, error) {
	rc, ok := r.receipts[id]
	if !ok {
		return Receipt{}, shared.ErrNotFound
	}
	return *rc, nil
}

func (r *memRepo) ListReceipts(ctx context.Context, invoiceID uuid.UUID) ([]Receipt, error) {
	var out []Receipt
	for _, rc := range r.receipts {
		if rc.InvoiceID == invoiceID {
			out = append(out, *rc)
		}
	}
	return out, nil
}

func (r *memRepo) ReceivedAmount(ctx context.Context, invoiceID uuid.UUID) (int64, error) {
	var received int64
	for _, rc := range r.receipts {
		if rc.InvoiceID == invoiceID && rc.Status == ReceiptStatusPosted {
			received += rc.Amount
		}
	}
	return received, nil
}

func (r *memRepo) WithTx(ctx context.Context, fn func(context.Context, TxRepository) error) error {
	return fn(ctx, r)
}

func (r *memRepo) GetInvoiceForUpdate(ctx context.Context, id uuid.UUID) (Invoice, error) {
	return r.GetInvoice(ctx, id)
}

func (r *memRepo) InsertInvoice(ctx context.Context, inv Invoice) (Invoice, error) {
	inv.CreatedAt = time.Now()
	inv.UpdatedAt = inv.CreatedAt
	r.invoices[inv.ID] = &inv
	return inv, nil
}

func (r *memRepo) InsertInvoiceLines(ctx context.Context, invoiceID uuid.UUID, lines []InvoiceLine) error {
	r.invoices[invoiceID].Lines = lines
	return nil
}

func (r *memRepo) InsertReceipt(ctx context.Context, rc Receipt) (Receipt, error) {
	rc.CreatedAt = time.Now()
	r.receipts[rc.ID] = &rc
	return rc, nil
}

func (r *memRepo) GetReceiptForUpdate(ctx context.Context, id uuid.UUID) (Receipt, error) {
	return r.GetReceipt(ctx, id)
}

func (r *memRepo) SetInvoiceStatus(ctx context.Context, id uuid.UUID, status InvoiceStatus) error {
	inv, ok := r.invoices[id]
	if !ok {
		return shared.ErrNotFound
	}
	inv.Status = status
	return nil
}

func (r *memRepo) SetReceiptStatus(ctx context.Context, id uuid.UUID, status ReceiptStatus) error {
	rc, ok := r.receipts[id]
	if !ok {
		return shared.ErrNotFound
	}
	rc.Status = status
	return nil
}

type clientStub map[int64]partners.Client

func (c clientStub) GetClient(ctx context.Context, id int64) (partners.Client, error) {
	client, ok := c[id]
	if !ok {
		return partners.Client{}, shared.ErrNotFound
	}
	return client, nil
}

func chart() []accounts.Account {
	return []accounts.Account{
		{Code: accounts.CodeBank, Name: "Bank", Type: accounts.AccountTypeAsset, IsActive: true},
		{Code: "1-10210", Name: "Bank proyek", Type: accounts.AccountTypeAsset, IsActive: true},
		{Code: accounts.CodeAR, Name: "Piutang usaha", Type: accounts.AccountTypeAsset, IsActive: true},
		{Code: accounts.CodePPh23Prepaid, Name: "PPh 23 dibayar di muka", Type: accounts.AccountTypeAsset, IsActive: true},
		{Code: accounts.CodeVATOut, Name: "PPN Keluaran", Type: accounts.AccountTypeLiability, IsActive: true},
		{Code: "4-10100", Name: "Pendapatan jasa", Type: accounts.AccountTypeRevenue, IsActive: true},
	}
}

func newTestService(t *testing.T, clients clientStub) (*Service, *memRepo, *ledgertest.Store) {
	t.Helper()
	store := ledgertest.New(chart()...)
	repo := newMemRepo(store)
	journal := ledger.NewService(store, nil)
	svc := NewService(repo, clients, journal, nil)
	svc.WithNow(func() time.Time { return time.Date(2026, 3, 10, 9, 0, 0, 0, time.UTC) })
	return svc, repo, store
}

func regularClient() clientStub {
	return clientStub{1: {
		ID:               1,
		Name:             "PT Pelanggan Utama",
		NPWP:             "02.345.678.9-012.000",
		PaymentTermsDays: 30,
		IsActive:         true,
	}}
}

func withholdingClient() clientStub {
	return clientStub{2: {
		ID:               2,
		Name:             "PT Korporat Besar",
		NPWP:             "03.456.789.0-123.000",
		WithholdsPPh23:   true,
		PaymentTermsDays: 45,
		IsActive:         true,
	}}
}

func TestCreateInvoiceChargesOutputVAT(t *testing.T) {
	svc, _, store := newTestService(t, regularClient())

	invoice, err := svc.CreateInvoice(context.Background(), CreateInvoiceInput{
		ClientID:  1,
		Date:      time.Date(2026, 3, 3, 0, 0, 0, 0, time.UTC),
		CreatedBy: "sari",
		Lines: []InvoiceLineInput{
			{AccountCode: "4-10100", Description: "Jasa konsultan", Amount: 5_000_000},
		},
	})
	require.NoError(t, err)
	require.Equal(t, "INV-2026-0001", invoice.Number)
	require.Equal(t, int64(5_000_000), invoice.Subtotal)
	require.Equal(t, int64(550_000), invoice.VATAmount)
	require.Equal(t, int64(5_550_000), invoice.Total)
	require.Equal(t, time.Date(2026, 4, 2, 0, 0, 0, 0, time.UTC), invoice.DueDate)

	journal, err := store.Get(context.Background(), invoice.JournalID)
	require.NoError(t, err)
	require.Equal(t, ledger.SourceInvoice, journal.SourceDocType)

	byAccount := make(map[string]ledger.JournalLine)
	var debit, credit int64
	for _, line := range journal.Lines {
		debit += line.Debit
		credit += line.Credit
		byAccount[line.AccountCode] = line
	}
	require.Equal(t, debit, credit)
	require.Equal(t, int64(5_550_000), byAccount[accounts.CodeAR].Debit)
	require.Equal(t, int64(5_000_000), byAccount["4-10100"].Credit)
	require.Equal(t, int64(550_000), byAccount[accounts.CodeVATOut].Credit)
}

func createTestInvoice(t *testing.T, svc *Service, clientID int64) Invoice {
	t.Helper()
	invoice, err := svc.CreateInvoice(context.Background(), CreateInvoiceInput{
		ClientID:  clientID,
		Date:      time.Date(2026, 3, 3, 0, 0, 0, 0, time.UTC),
		CreatedBy: "sari",
		Lines:     []InvoiceLineInput{{AccountCode: "4-10100", Amount: 5_000_000}},
	})
	require.NoError(t, err)
	return invoice
}

func TestPartialReceiptKeepsInvoiceOpen(t *testing.T) {
	svc, repo, _ := newTestService(t, regularClient())
	invoice := createTestInvoice(t, svc, 1)

	receipt, err := svc.CreateReceipt(context.Background(), CreateReceiptInput{
		InvoiceID: invoice.ID,
		Date:      time.Date(2026, 3, 15, 0, 0, 0, 0, time.UTC),
		Amount:    3_000_000,
		CreatedBy: "sari",
	})
	require.NoError(t, err)
	require.Equal(t, "RCP-2026-0001", receipt.Number)
	require.Zero(t, receipt.WithholdingAmount)

	outstanding, err := svc.InvoiceOutstanding(context.Background(), invoice.ID)
	require.NoError(t, err)
	require.Equal(t, int64(2_550_000), outstanding)

	stored, err := repo.GetInvoice(context.Background(), invoice.ID)
	require.NoError(t, err)
	require.Equal(t, InvoiceStatusPosted, stored.Status)
}

func TestReceiptIntoAlternateBank(t *testing.T) {
	svc, _, store := newTestService(t, regularClient())
	invoice := createTestInvoice(t, svc, 1)

	receipt, err := svc.CreateReceipt(context.Background(), CreateReceiptInput{
		InvoiceID:       invoice.ID,
		Date:            time.Date(2026, 3, 15, 0, 0, 0, 0, time.UTC),
		Amount:          3_000_000,
		BankAccountCode: "1-10210",
		CreatedBy:       "sari",
	})
	require.NoError(t, err)

	journal, err := store.Get(context.Background(), receipt.JournalID)
	require.NoError(t, err)
	byAccount := make(map[string]ledger.JournalLine)
	for _, line := range journal.Lines {
		byAccount[line.AccountCode] = line
	}
	require.Equal(t, int64(3_000_000), byAccount["1-10210"].Debit)
	_, usedDefault := byAccount[accounts.CodeBank]
	require.False(t, usedDefault)
}

func TestReceiptRejectsNonAssetBankAccount(t *testing.T) {
	svc, _, _ := newTestService(t, regularClient())
	invoice := createTestInvoice(t, svc, 1)

	_, err := svc.CreateReceipt(context.Background(), CreateReceiptInput{
		InvoiceID:       invoice.ID,
		Date:            time.Date(2026, 3, 15, 0, 0, 0, 0, time.UTC),
		Amount:          1_000_000,
		BankAccountCode: accounts.CodeVATOut,
		CreatedBy:       "sari",
	})
	require.True(t, shared.IsValidation(err))
}

func TestReceiptWithClientWithholding(t *testing.T) {
	svc, repo, store := newTestService(t, withholdingClient())
	invoice := createTestInvoice(t, svc, 2)

	receipt, err := svc.CreateReceipt(context.Background(), CreateReceiptInput{
		InvoiceID: invoice.ID,
		Date:      time.Date(2026, 3, 20, 0, 0, 0, 0, time.UTC),
		Amount:    5_550_000,
		CreatedBy: "sari",
	})
	require.NoError(t, err)
	require.Equal(t, int64(100_000), receipt.WithholdingAmount)

	journal, err := store.Get(context.Background(), receipt.JournalID)
	require.NoError(t, err)
	byAccount := make(map[string]ledger.JournalLine)
	for _, line := range journal.Lines {
		byAccount[line.AccountCode] = line
	}
	require.Equal(t, int64(5_450_000), byAccount[accounts.CodeBank].Debit)
	require.Equal(t, int64(100_000), byAccount[accounts.CodePPh23Prepaid].Debit)
	require.Equal(t, int64(5_550_000), byAccount[accounts.CodeAR].Credit)

	stored, err := repo.GetInvoice(context.Background(), invoice.ID)
	require.NoError(t, err)
	require.Equal(t, InvoiceStatusPaid, stored.Status)
}

func TestReceiptExceedsOutstanding(t *testing.T) {
	svc, _, _ := newTestService(t, regularClient())
	invoice := createTestInvoice(t, svc, 1)

	_, err := svc.CreateReceipt(context.Background(), CreateReceiptInput{
		InvoiceID: invoice.ID,
		Date:      time.Date(2026, 3, 15, 0, 0, 0, 0, time.UTC),
		Amount:    5_550_001,
		CreatedBy: "sari",
	})
	require.ErrorIs(t, err, ErrExceedsBalance)
}

func TestCreateInvoiceClosedPeriod(t *testing.T) {
	svc, _, store := newTestService(t, regularClient())
	store.ClosePeriod("2026-02")

	_, err := svc.CreateInvoice(context.Background(), CreateInvoiceInput{
		ClientID:  1,
		Date:      time.Date(2026, 2, 10, 0, 0, 0, 0, time.UTC),
		CreatedBy: "sari",
		Lines:     []InvoiceLineInput{{AccountCode: "4-10100", Amount: 1_000_000}},
	})
	require.ErrorIs(t, err, ledger.ErrPeriodClosed)
}

func TestVoidReceiptReopensInvoice(t *testing.T) {
	svc, repo, store := newTestService(t, regularClient())
	invoice := createTestInvoice(t, svc, 1)

	receipt, err := svc.CreateReceipt(context.Background(), CreateReceiptInput{
		InvoiceID: invoice.ID,
		Date:      time.Date(2026, 3, 15, 0, 0, 0, 0, time.UTC),
		Amount:    5_550_000,
		CreatedBy: "sari",
	})
	require.NoError(t, err)

	err = svc.VoidReceipt(context.Background(), VoidInput{ID: receipt.ID, ActorID: "budi", Reason: "transfer gagal"})
	require.NoError(t, err)

	stored, err := repo.GetReceipt(context.Background(), receipt.ID)
	require.NoError(t, err)
	require.Equal(t, ReceiptStatusVoid, stored.Status)

	original, err := store.Get(context.Background(), receipt.JournalID)
	require.NoError(t, err)
	require.Equal(t, ledger.JournalStatusReversed, original.Status)

	invAfter, err := repo.GetInvoice(context.Background(), invoice.ID)
	require.NoError(t, err)
	require.Equal(t, InvoiceStatusPosted, invAfter.Status)

	outstanding, err := svc.InvoiceOutstanding(context.Background(), invoice.ID)
	require.NoError(t, err)
	require.Equal(t, int64(5_550_000), outstanding)
}

func TestVoidInvoiceBlockedByReceipts(t *testing.T) {
	svc, _, _ := newTestService(t, regularClient())
	invoice := createTestInvoice(t, svc, 1)

	_, err := svc.CreateReceipt(context.Background(), CreateReceiptInput{
		InvoiceID: invoice.ID,
		Date:      time.Date(2026, 3, 15, 0, 0, 0, 0, time.UTC),
		Amount:    1_000_000,
		CreatedBy: "sari",
	})
	require.NoError(t, err)

	err = svc.VoidInvoice(context.Background(), VoidInput{ID: invoice.ID, ActorID: "budi", Reason: "salah klien"})
	require.ErrorIs(t, err, ErrInvoiceHasReceipts)
}
