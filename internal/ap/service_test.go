package ap

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/gemilang-erp/gemilang-erp/internal/ledger"
	"github.com/gemilang-erp/gemilang-erp/internal/ledger/accounts"
	"github.com/gemilang-erp/gemilang-erp/internal/ledger/ledgertest"
	"github.com/gemilang-erp/gemilang-erp/internal/partners"
	"github.com/gemilang-erp/gemilang-erp/internal/shared"
	"github.com/gemilang-erp/gemilang-erp/internal/tax"
)

type memRepo struct {
	*ledgertest.Store
	bills    map[uuid.UUID]*Bill
	payments map[uuid.UUID]*Payment
}

func newMemRepo(store *ledgertest.Store) *memRepo {
	return &memRepo{
		Store:    store,
		bills:    make(map[uuid.UUID]*Bill),
		payments: make(map[uuid.UUID]*Payment),
	}
}

func (r *memRepo) GetBill(ctx context.Context, id uuid.UUID) (Bill, error) {
	b, ok := r.bills[id]
	if !ok {
		return Bill{}, shared.ErrNotFound
	}
	return *b, nil
}

func (r *memRepo) ListBills(ctx context.Context, f BillFilter) ([]Bill, error) {
	var out []Bill
	for _, b := range r.bills {
		if f.Status != "" && b.Status != f.Status {
			continue
		}
		out = append(out, *b)
	}
	return out, nil
}

func (r *memRepo) GetPayment(ctx context.Context, id uuid.UUID) (Payment, error) {
	p, ok := r.payments[id]
	if !ok {
		return Payment{}, shared.ErrNotFound
	}
	return *p, nil
}

func (r *memRepo) ListPayments(ctx context.Context, billID uuid.UUID) ([]Payment, error) {
	var out []Payment
	for _, p := range r.payments {
		if p.BillID == billID {
			out = append(out, *p)
		}
	}
	return out, nil
}

func (r *memRepo) PaidAmount(ctx context.Context, billID uuid.UUID) (int64, error) {
	var paid int64
	for _, p := range r.payments {
		if p.BillID == billID && p.Status == PaymentStatusPosted {
			paid += p.Amount
		}
	}
	return paid, nil
}

func (r *memRepo) WithTx(ctx context.Context, fn func(context.Context, TxRepository) error) error {
	return fn(ctx, r)
}

func (r *memRepo) GetBillForUpdate(ctx context.Context, id uuid.UUID) (Bill, error) {
	return r.GetBill(ctx, id)
}

func (r *memRepo) InsertBill(ctx context.Context, b Bill) (Bill, error) {
	b.CreatedAt = time.Now()
	b.UpdatedAt = b.CreatedAt
	r.bills[b.ID] = &b
	return b, nil
}

func (r *memRepo) InsertBillLines(ctx context.Context, billID uuid.UUID, lines []BillLine) error {
	r.bills[billID].Lines = lines
	return nil
}

func (r *memRepo) InsertPayment(ctx context.Context, p Payment) (Payment, error) {
	p.CreatedAt = time.Now()
	r.payments[p.ID] = &p
	return p, nil
}

func (r *memRepo) GetPaymentForUpdate(ctx context.Context, id uuid.UUID) (Payment, error) {
	return r.GetPayment(ctx, id)
}

func (r *memRepo) SetBillStatus(ctx context.Context, id uuid.UUID, status BillStatus) error {
	b, ok := r.bills[id]
	if !ok {
		return shared.ErrNotFound
	}
	b.Status = status
	return nil
}

func (r *memRepo) SetPaymentStatus(ctx context.Context, id uuid.UUID, status PaymentStatus) error {
	p, ok := r.payments[id]
	if !ok {
		return shared.ErrNotFound
	}
	p.Status = status
	return nil
}

type vendorStub map[int64]partners.Vendor

func (v vendorStub) GetVendor(ctx context.Context, id int64) (partners.Vendor, error) {
	vendor, ok := v[id]
	if !ok {
		return partners.Vendor{}, shared.ErrNotFound
	}
	return vendor, nil
}

func chart() []accounts.Account {
	return []accounts.Account{
		{Code: accounts.CodeBank, Name: "Bank", Type: accounts.AccountTypeAsset, IsActive: true},
		{Code: "1-10210", Name: "Bank payroll", Type: accounts.AccountTypeAsset, IsActive: true},
		{Code: accounts.CodeVATIn, Name: "PPN Masukan", Type: accounts.AccountTypeAsset, IsActive: true},
		{Code: accounts.CodeAP, Name: "Utang usaha", Type: accounts.AccountTypeLiability, IsActive: true},
		{Code: accounts.CodePPh23Payable, Name: "Utang PPh 23", Type: accounts.AccountTypeLiability, IsActive: true},
		{Code: "5-10100", Name: "Beban pokok proyek", Type: accounts.AccountTypeCOGS, IsActive: true},
		{Code: "6-10100", Name: "Beban jasa konsultan", Type: accounts.AccountTypeOpex, IsActive: true},
	}
}

func newTestService(t *testing.T, vendors vendorStub) (*Service, *memRepo, *ledgertest.Store) {
	t.Helper()
	store := ledgertest.New(chart()...)
	repo := newMemRepo(store)
	journal := ledger.NewService(store, nil)
	svc := NewService(repo, vendors, journal, nil)
	svc.WithNow(func() time.Time { return time.Date(2026, 3, 10, 9, 0, 0, 0, time.UTC) })
	return svc, repo, store
}

func pkpVendor() vendorStub {
	return vendorStub{1: {
		ID:                  1,
		Name:                "PT Mitra Jasa",
		NPWP:                "01.234.567.8-901.000",
		ProvidesFakturPajak: true,
		SubjectToPPh23:      true,
		PaymentTermsDays:    30,
		IsActive:            true,
	}}
}

func TestCreateBillPostsBalancedJournal(t *testing.T) {
	svc, _, store := newTestService(t, pkpVendor())

	bill, err := svc.CreateBill(context.Background(), CreateBillInput{
		VendorID:          1,
		Date:              time.Date(2026, 3, 5, 0, 0, 0, 0, time.UTC),
		FakturPajakNumber: "010.000-26.00000001",
		Description:       "Jasa konsultan Maret",
		CreatedBy:         "budi",
		Lines: []BillLineInput{
			{AccountCode: "6-10100", Description: "Jasa konsultan", Amount: 10_000_000},
		},
	})
	require.NoError(t, err)
	require.Equal(t, "BIL-2026-0001", bill.Number)
	require.Equal(t, int64(10_000_000), bill.Subtotal)
	require.Equal(t, int64(1_100_000), bill.VATAmount)
	require.Equal(t, int64(11_100_000), bill.Total)
	require.Equal(t, BillStatusPosted, bill.Status)

	journal, err := store.Get(context.Background(), bill.JournalID)
	require.NoError(t, err)
	require.Equal(t, "JRN-2026-0001", journal.Number)
	require.Equal(t, ledger.SourceBill, journal.SourceDocType)
	require.Equal(t, bill.ID, journal.SourceDocID)
	require.Len(t, journal.Lines, 3)

	var debit, credit int64
	byAccount := make(map[string]ledger.JournalLine)
	for _, line := range journal.Lines {
		debit += line.Debit
		credit += line.Credit
		byAccount[line.AccountCode] = line
	}
	require.Equal(t, debit, credit)
	require.Equal(t, int64(10_000_000), byAccount["6-10100"].Debit)
	require.Equal(t, int64(1_100_000), byAccount[accounts.CodeVATIn].Debit)
	require.Equal(t, int64(11_100_000), byAccount[accounts.CodeAP].Credit)
}

func TestCreateBillRejectsMalformedFaktur(t *testing.T) {
	svc, _, _ := newTestService(t, pkpVendor())

	_, err := svc.CreateBill(context.Background(), CreateBillInput{
		VendorID:          1,
		Date:              time.Date(2026, 3, 5, 0, 0, 0, 0, time.UTC),
		FakturPajakNumber: "010-000-26-00000001",
		CreatedBy:         "budi",
		Lines:             []BillLineInput{{AccountCode: "6-10100", Amount: 1_000_000}},
	})
	var ruleErr *tax.RuleError
	require.ErrorAs(t, err, &ruleErr)
	require.Equal(t, tax.CodeInvalidFakturPajak, ruleErr.Code)
}

func TestCreateBillNonPKPSkipsVAT(t *testing.T) {
	vendors := vendorStub{2: {ID: 2, Name: "CV Sumber Rejeki", PaymentTermsDays: 14, IsActive: true}}
	svc, _, store := newTestService(t, vendors)

	bill, err := svc.CreateBill(context.Background(), CreateBillInput{
		VendorID:  2,
		Date:      time.Date(2026, 3, 5, 0, 0, 0, 0, time.UTC),
		CreatedBy: "budi",
		Lines:     []BillLineInput{{AccountCode: "6-10100", Amount: 2_500_000}},
	})
	require.NoError(t, err)
	require.Zero(t, bill.VATAmount)
	require.Equal(t, int64(2_500_000), bill.Total)
	require.Equal(t, time.Date(2026, 3, 19, 0, 0, 0, 0, time.UTC), bill.DueDate)

	journal, err := store.Get(context.Background(), bill.JournalID)
	require.NoError(t, err)
	require.Len(t, journal.Lines, 2)
}

func TestCreateBillCOGSRequiresProject(t *testing.T) {
	svc, _, _ := newTestService(t, pkpVendor())

	_, err := svc.CreateBill(context.Background(), CreateBillInput{
		VendorID:  1,
		Date:      time.Date(2026, 3, 5, 0, 0, 0, 0, time.UTC),
		CreatedBy: "budi",
		Lines:     []BillLineInput{{AccountCode: "5-10100", Amount: 4_000_000}},
	})
	require.True(t, shared.IsValidation(err))

	project := "PRJ-001"
	bill, err := svc.CreateBill(context.Background(), CreateBillInput{
		VendorID:  1,
		Date:      time.Date(2026, 3, 5, 0, 0, 0, 0, time.UTC),
		CreatedBy: "budi",
		Lines:     []BillLineInput{{AccountCode: "5-10100", Amount: 4_000_000, ProjectCode: &project}},
	})
	require.NoError(t, err)
	require.Equal(t, BillStatusPosted, bill.Status)
}

func TestCreateBillClosedPeriod(t *testing.T) {
	svc, _, store := newTestService(t, pkpVendor())
	store.ClosePeriod("2026-02")

	_, err := svc.CreateBill(context.Background(), CreateBillInput{
		VendorID:  1,
		Date:      time.Date(2026, 2, 20, 0, 0, 0, 0, time.UTC),
		CreatedBy: "budi",
		Lines:     []BillLineInput{{AccountCode: "6-10100", Amount: 1_000_000}},
	})
	require.ErrorIs(t, err, ledger.ErrPeriodClosed)
}

func createTestBill(t *testing.T, svc *Service) Bill {
	t.Helper()
	bill, err := svc.CreateBill(context.Background(), CreateBillInput{
		VendorID:          1,
		Date:              time.Date(2026, 3, 5, 0, 0, 0, 0, time.UTC),
		FakturPajakNumber: "010.000-26.00000001",
		CreatedBy:         "budi",
		Lines:             []BillLineInput{{AccountCode: "6-10100", Amount: 10_000_000}},
	})
	require.NoError(t, err)
	return bill
}

func TestCreatePaymentWithholdsPPh23(t *testing.T) {
	svc, repo, store := newTestService(t, pkpVendor())
	bill := createTestBill(t, svc)

	payment, err := svc.CreatePayment(context.Background(), CreatePaymentInput{
		BillID:    bill.ID,
		Date:      time.Date(2026, 3, 10, 0, 0, 0, 0, time.UTC),
		Amount:    11_100_000,
		CreatedBy: "budi",
	})
	require.NoError(t, err)
	require.Equal(t, "PAY-2026-0001", payment.Number)
	require.Equal(t, int64(200_000), payment.WithholdingAmount)

	journal, err := store.Get(context.Background(), payment.JournalID)
	require.NoError(t, err)
	byAccount := make(map[string]ledger.JournalLine)
	for _, line := range journal.Lines {
		byAccount[line.AccountCode] = line
	}
	require.Equal(t, int64(11_100_000), byAccount[accounts.CodeAP].Debit)
	require.Equal(t, int64(200_000), byAccount[accounts.CodePPh23Payable].Credit)
	require.Equal(t, int64(10_900_000), byAccount[accounts.CodeBank].Credit)

	stored, err := repo.GetBill(context.Background(), bill.ID)
	require.NoError(t, err)
	require.Equal(t, BillStatusPaid, stored.Status)
}

func TestCreatePaymentFromAlternateBank(t *testing.T) {
	svc, _, store := newTestService(t, pkpVendor())
	bill := createTestBill(t, svc)

	payment, err := svc.CreatePayment(context.Background(), CreatePaymentInput{
		BillID:          bill.ID,
		Date:            time.Date(2026, 3, 10, 0, 0, 0, 0, time.UTC),
		Amount:          11_100_000,
		BankAccountCode: "1-10210",
		CreatedBy:       "budi",
	})
	require.NoError(t, err)

	journal, err := store.Get(context.Background(), payment.JournalID)
	require.NoError(t, err)
	byAccount := make(map[string]ledger.JournalLine)
	for _, line := range journal.Lines {
		byAccount[line.AccountCode] = line
	}
	require.Equal(t, int64(10_900_000), byAccount["1-10210"].Credit)
	_, usedDefault := byAccount[accounts.CodeBank]
	require.False(t, usedDefault)
}

func TestCreatePaymentRejectsNonAssetBankAccount(t *testing.T) {
	svc, _, _ := newTestService(t, pkpVendor())
	bill := createTestBill(t, svc)

	_, err := svc.CreatePayment(context.Background(), CreatePaymentInput{
		BillID:          bill.ID,
		Date:            time.Date(2026, 3, 10, 0, 0, 0, 0, time.UTC),
		Amount:          1_000_000,
		BankAccountCode: accounts.CodeAP,
		CreatedBy:       "budi",
	})
	require.True(t, shared.IsValidation(err))
}

func TestCreatePaymentExceedsOutstanding(t *testing.T) {
	svc, _, _ := newTestService(t, pkpVendor())
	bill := createTestBill(t, svc)

	_, err := svc.CreatePayment(context.Background(), CreatePaymentInput{
		BillID:    bill.ID,
		Date:      time.Date(2026, 3, 10, 0, 0, 0, 0, time.UTC),
		Amount:    11_100_001,
		CreatedBy: "budi",
	})
	require.ErrorIs(t, err, ErrExceedsBalance)
}

func TestPartialPaymentProRatesWithholding(t *testing.T) {
	svc, repo, _ := newTestService(t, pkpVendor())
	bill := createTestBill(t, svc)

	first, err := svc.CreatePayment(context.Background(), CreatePaymentInput{
		BillID:    bill.ID,
		Date:      time.Date(2026, 3, 10, 0, 0, 0, 0, time.UTC),
		Amount:    5_550_000,
		CreatedBy: "budi",
	})
	require.NoError(t, err)
	require.Equal(t, int64(100_000), first.WithholdingAmount)

	stored, err := repo.GetBill(context.Background(), bill.ID)
	require.NoError(t, err)
	require.Equal(t, BillStatusPosted, stored.Status)

	outstanding, err := svc.BillOutstanding(context.Background(), bill.ID)
	require.NoError(t, err)
	require.Equal(t, int64(5_550_000), outstanding)

	second, err := svc.CreatePayment(context.Background(), CreatePaymentInput{
		BillID:    bill.ID,
		Date:      time.Date(2026, 3, 20, 0, 0, 0, 0, time.UTC),
		Amount:    5_550_000,
		CreatedBy: "budi",
	})
	require.NoError(t, err)
	require.Equal(t, int64(100_000), second.WithholdingAmount)

	stored, err = repo.GetBill(context.Background(), bill.ID)
	require.NoError(t, err)
	require.Equal(t, BillStatusPaid, stored.Status)
}

func TestCreatePaymentMissingNPWP(t *testing.T) {
	vendors := vendorStub{3: {ID: 3, Name: "PD Tanpa NPWP", SubjectToPPh23: true, ProvidesFakturPajak: false, IsActive: true}}
	svc, _, _ := newTestService(t, vendors)

	bill, err := svc.CreateBill(context.Background(), CreateBillInput{
		VendorID:  3,
		Date:      time.Date(2026, 3, 5, 0, 0, 0, 0, time.UTC),
		CreatedBy: "budi",
		Lines:     []BillLineInput{{AccountCode: "6-10100", Amount: 1_000_000}},
	})
	require.NoError(t, err)

	_, err = svc.CreatePayment(context.Background(), CreatePaymentInput{
		BillID:    bill.ID,
		Date:      time.Date(2026, 3, 10, 0, 0, 0, 0, time.UTC),
		Amount:    1_000_000,
		CreatedBy: "budi",
	})
	var ruleErr *tax.RuleError
	require.ErrorAs(t, err, &ruleErr)
	require.Equal(t, tax.CodeMissingNPWP, ruleErr.Code)
}

func TestVoidPaymentReopensBill(t *testing.T) {
	svc, repo, store := newTestService(t, pkpVendor())
	bill := createTestBill(t, svc)

	payment, err := svc.CreatePayment(context.Background(), CreatePaymentInput{
		BillID:    bill.ID,
		Date:      time.Date(2026, 3, 10, 0, 0, 0, 0, time.UTC),
		Amount:    11_100_000,
		CreatedBy: "budi",
	})
	require.NoError(t, err)

	err = svc.VoidPayment(context.Background(), VoidInput{ID: payment.ID, ActorID: "sari", Reason: "salah transfer"})
	require.NoError(t, err)

	stored, err := repo.GetPayment(context.Background(), payment.ID)
	require.NoError(t, err)
	require.Equal(t, PaymentStatusVoid, stored.Status)

	original, err := store.Get(context.Background(), payment.JournalID)
	require.NoError(t, err)
	require.Equal(t, ledger.JournalStatusReversed, original.Status)
	require.NotNil(t, original.ReversedByID)

	mirror, err := store.Get(context.Background(), *original.ReversedByID)
	require.NoError(t, err)
	require.Equal(t, original.SourceDocID, mirror.SourceDocID)
	for i, line := range mirror.Lines {
		require.Equal(t, original.Lines[i].Debit, line.Credit)
		require.Equal(t, original.Lines[i].Credit, line.Debit)
	}

	billAfter, err := repo.GetBill(context.Background(), bill.ID)
	require.NoError(t, err)
	require.Equal(t, BillStatusPosted, billAfter.Status)

	err = svc.VoidPayment(context.Background(), VoidInput{ID: payment.ID, ActorID: "sari", Reason: "lagi"})
	require.ErrorIs(t, err, ErrPaymentVoid)
}

func TestVoidBillBlockedByPayments(t *testing.T) {
	svc, _, _ := newTestService(t, pkpVendor())
	bill := createTestBill(t, svc)

	_, err := svc.CreatePayment(context.Background(), CreatePaymentInput{
		BillID:    bill.ID,
		Date:      time.Date(2026, 3, 10, 0, 0, 0, 0, time.UTC),
		Amount:    1_000_000,
		CreatedBy: "budi",
	})
	require.NoError(t, err)

	err = svc.VoidBill(context.Background(), VoidInput{ID: bill.ID, ActorID: "sari", Reason: "dobel input"})
	require.ErrorIs(t, err, ErrBillHasPayments)
}

func TestVoidBillReversesJournal(t *testing.T) {
	svc, repo, store := newTestService(t, pkpVendor())
	bill := createTestBill(t, svc)

	err := svc.VoidBill(context.Background(), VoidInput{ID: bill.ID, ActorID: "sari", Reason: "dobel input"})
	require.NoError(t, err)

	stored, err := repo.GetBill(context.Background(), bill.ID)
	require.NoError(t, err)
	require.Equal(t, BillStatusVoid, stored.Status)

	original, err := store.Get(context.Background(), bill.JournalID)
	require.NoError(t, err)
	require.Equal(t, ledger.JournalStatusReversed, original.Status)

	journals, err := store.List(context.Background(), ledger.Filter{})
	require.NoError(t, err)
	require.Len(t, journals, 2)

	_, err = svc.CreatePayment(context.Background(), CreatePaymentInput{
		BillID:    bill.ID,
		Date:      time.Date(2026, 3, 10, 0, 0, 0, 0, time.UTC),
		Amount:    1_000_000,
		CreatedBy: "budi",
	})
	require.True(t, errors.Is(err, ErrBillVoid))
}
