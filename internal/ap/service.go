package ap

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/gemilang-erp/gemilang-erp/internal/ledger"
	"github.com/gemilang-erp/gemilang-erp/internal/ledger/accounts"
	"github.com/gemilang-erp/gemilang-erp/internal/partners"
	"github.com/gemilang-erp/gemilang-erp/internal/shared"
	"github.com/gemilang-erp/gemilang-erp/internal/tax"
)

// VendorPort resolves the counterparty record a document references.
type VendorPort interface {
	GetVendor(ctx context.Context, id int64) (partners.Vendor, error)
}

// JournalPort posts and reverses journals inside the document transaction.
type JournalPort interface {
	PostWithin(ctx context.Context, tx ledger.TxRepository, input ledger.PostingInput) (ledger.Journal, error)
	ReverseWithin(ctx context.Context, tx ledger.TxRepository, input ledger.ReverseInput) (ledger.Journal, error)
}

// AuditPort records AP events for compliance.
type AuditPort interface {
	Record(ctx context.Context, log shared.AuditLog) error
}

// Service owns the bill and payment lifecycle.
type Service struct {
	repo     Repository
	vendors  VendorPort
	journal  JournalPort
	audit    AuditPort
	now      func() time.Time
	onPosted func(ctx context.Context, source string)
}

func NewService(repo Repository, vendors VendorPort, journal JournalPort, audit AuditPort) *Service {
	return &Service{repo: repo, vendors: vendors, journal: journal, audit: audit, now: time.Now}
}

// WithNow overrides the clock for deterministic tests.
func (s *Service) WithNow(now func() time.Time) {
	if now != nil {
		s.now = now
	}
}

// WithPostedHook registers fn to run after a document's journal commits.
func (s *Service) WithPostedHook(fn func(ctx context.Context, source string)) {
	s.onPosted = fn
}

func (s *Service) notifyPosted(ctx context.Context, source string) {
	if s.onPosted != nil {
		s.onPosted(ctx, source)
	}
}

func (s *Service) GetBill(ctx context.Context, id uuid.UUID) (Bill, error) {
	return s.repo.GetBill(ctx, id)
}

func (s *Service) ListBills(ctx context.Context, f BillFilter) ([]Bill, error) {
	return s.repo.ListBills(ctx, f)
}

func (s *Service) GetPayment(ctx context.Context, id uuid.UUID) (Payment, error) {
	return s.repo.GetPayment(ctx, id)
}

func (s *Service) ListPayments(ctx context.Context, billID uuid.UUID) ([]Payment, error) {
	return s.repo.ListPayments(ctx, billID)
}

// BillOutstanding returns the unpaid remainder of a bill.
func (s *Service) BillOutstanding(ctx context.Context, id uuid.UUID) (int64, error) {
	bill, err := s.repo.GetBill(ctx, id)
	if err != nil {
		return 0, err
	}
	paid, err := s.repo.PaidAmount(ctx, id)
	if err != nil {
		return 0, err
	}
	return bill.Outstanding(paid), nil
}

// CreateBill records a vendor bill and posts its journal in one transaction.
// Input VAT is claimed only when the vendor supplied a valid Faktur Pajak.
func (s *Service) CreateBill(ctx context.Context, input CreateBillInput) (Bill, error) {
	if err := validateBillInput(input); err != nil {
		return Bill{}, err
	}
	vendor, err := s.vendors.GetVendor(ctx, input.VendorID)
	if err != nil {
		return Bill{}, err
	}
	assessment, err := tax.AssessBill(vendor.TaxProfile(), input.FakturPajakNumber)
	if err != nil {
		return Bill{}, err
	}

	var subtotal int64
	for _, line := range input.Lines {
		subtotal += line.Amount
	}
	vat := assessment.VATAmount(subtotal)
	total := subtotal + vat

	dueDate := input.DueDate
	if dueDate.IsZero() {
		dueDate = vendor.DueDate(input.Date)
	}

	bill := Bill{
		ID:                uuid.New(),
		VendorID:          input.VendorID,
		VendorName:        vendor.Name,
		Date:              input.Date,
		DueDate:           dueDate,
		FakturPajakNumber: input.FakturPajakNumber,
		Description:       input.Description,
		Subtotal:          subtotal,
		VATAmount:         vat,
		Total:             total,
		Status:            BillStatusPosted,
		CreatedBy:         input.CreatedBy,
	}

	err = s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		number, err := tx.NextNumber(ctx, ledger.SequenceBill, input.Date.Year())
		if err != nil {
			return err
		}
		bill.Number = number

		journal, err := s.journal.PostWithin(ctx, tx, ledger.PostingInput{
			Date:          input.Date,
			Description:   billDescription(bill),
			SourceDocType: ledger.SourceBill,
			SourceDocID:   bill.ID,
			PostedBy:      input.CreatedBy,
			Lines:         billJournalLines(input.Lines, vat, total),
		})
		if err != nil {
			return err
		}
		bill.JournalID = journal.ID

		inserted, err := tx.InsertBill(ctx, bill)
		if err != nil {
			return err
		}
		lines := toBillLines(bill.ID, input.Lines)
		if err := tx.InsertBillLines(ctx, bill.ID, lines); err != nil {
			return err
		}
		inserted.Lines = lines
		bill = inserted
		return nil
	})
	if err != nil {
		return Bill{}, err
	}
	s.record(ctx, input.CreatedBy, "bill.create", bill.ID, map[string]any{
		"number": bill.Number,
		"vendor": bill.VendorID,
		"total":  bill.Total,
	})
	s.notifyPosted(ctx, ledger.SourceBill)
	return bill, nil
}

// CreatePayment settles part or all of a bill. The bill row is locked while
// the outstanding balance is rechecked, so two concurrent payments cannot
// jointly overpay.
func (s *Service) CreatePayment(ctx context.Context, input CreatePaymentInput) (Payment, error) {
	if input.BillID == uuid.Nil {
		return Payment{}, shared.NewValidationError("bill_id", "bill id is required")
	}
	if input.Amount <= 0 {
		return Payment{}, shared.NewValidationError("amount", "payment amount must be positive")
	}
	if input.Date.IsZero() {
		return Payment{}, shared.NewValidationError("date", "payment date is required")
	}
	bankCode := input.BankAccountCode
	if bankCode == "" {
		bankCode = accounts.CodeBank
	}
	// Format and type gate here; the posting path rejects inactive or
	// unknown accounts inside the transaction.
	if err := accounts.ValidateCode(bankCode, accounts.AccountTypeAsset); err != nil {
		return Payment{}, shared.NewValidationError("bank_account_code", "bank account %q must be an asset account", bankCode)
	}

	var payment Payment
	err := s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		bill, err := tx.GetBillForUpdate(ctx, input.BillID)
		if err != nil {
			return err
		}
		if bill.Status == BillStatusVoid {
			return ErrBillVoid
		}
		paid, err := tx.PaidAmount(ctx, bill.ID)
		if err != nil {
			return err
		}
		outstanding := bill.Outstanding(paid)
		if input.Amount > outstanding {
			return fmt.Errorf("%w: %d > %d on %s", ErrExceedsBalance, input.Amount, outstanding, bill.Number)
		}

		vendor, err := s.vendors.GetVendor(ctx, bill.VendorID)
		if err != nil {
			return err
		}
		assessment, err := tax.AssessPayment(vendor.TaxProfile())
		if err != nil {
			return err
		}
		withholding := paymentWithholding(assessment, bill, input.Amount)

		number, err := tx.NextNumber(ctx, ledger.SequencePayment, input.Date.Year())
		if err != nil {
			return err
		}
		payment = Payment{
			ID:                uuid.New(),
			Number:            number,
			BillID:            bill.ID,
			VendorID:          bill.VendorID,
			Date:              input.Date,
			Amount:            input.Amount,
			WithholdingAmount: withholding,
			Status:            PaymentStatusPosted,
			Note:              input.Note,
			CreatedBy:         input.CreatedBy,
		}

		journal, err := s.journal.PostWithin(ctx, tx, ledger.PostingInput{
			Date:          input.Date,
			Description:   fmt.Sprintf("Pembayaran %s untuk %s", number, bill.Number),
			SourceDocType: ledger.SourcePayment,
			SourceDocID:   payment.ID,
			PostedBy:      input.CreatedBy,
			Lines:         paymentJournalLines(input.Amount, withholding, bankCode),
		})
		if err != nil {
			return err
		}
		payment.JournalID = journal.ID

		if payment, err = tx.InsertPayment(ctx, payment); err != nil {
			return err
		}
		if input.Amount == outstanding {
			return tx.SetBillStatus(ctx, bill.ID, BillStatusPaid)
		}
		return nil
	})
	if err != nil {
		return Payment{}, err
	}
	s.record(ctx, input.CreatedBy, "payment.create", payment.ID, map[string]any{
		"number":       payment.Number,
		"bill_id":      payment.BillID.String(),
		"amount":       payment.Amount,
		"withholding":  payment.WithholdingAmount,
		"bank_account": bankCode,
	})
	s.notifyPosted(ctx, ledger.SourcePayment)
	return payment, nil
}

// VoidBill reverses the bill's journal and tags the document VOID. A bill
// with active payments cannot be voided; void the payments first.
func (s *Service) VoidBill(ctx context.Context, input VoidInput) error {
	err := s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		bill, err := tx.GetBillForUpdate(ctx, input.ID)
		if err != nil {
			return err
		}
		if bill.Status == BillStatusVoid {
			return ErrBillVoid
		}
		paid, err := tx.PaidAmount(ctx, bill.ID)
		if err != nil {
			return err
		}
		if paid > 0 {
			return ErrBillHasPayments
		}
		if _, err := s.journal.ReverseWithin(ctx, tx, ledger.ReverseInput{
			JournalID: bill.JournalID,
			ActorID:   input.ActorID,
			Reason:    input.Reason,
		}); err != nil {
			return err
		}
		return tx.SetBillStatus(ctx, bill.ID, BillStatusVoid)
	})
	if err != nil {
		return err
	}
	s.record(ctx, input.ActorID, "bill.void", input.ID, map[string]any{"reason": input.Reason})
	s.notifyPosted(ctx, ledger.SourceBill)
	return nil
}

// VoidPayment reverses the payment's journal and reopens the bill when the
// void drops it below fully paid.
func (s *Service) VoidPayment(ctx context.Context, input VoidInput) error {
	err := s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		payment, err := tx.GetPaymentForUpdate(ctx, input.ID)
		if err != nil {
			return err
		}
		if payment.Status == PaymentStatusVoid {
			return ErrPaymentVoid
		}
		if _, err := s.journal.ReverseWithin(ctx, tx, ledger.ReverseInput{
			JournalID: payment.JournalID,
			ActorID:   input.ActorID,
			Reason:    input.Reason,
		}); err != nil {
			return err
		}
		if err := tx.SetPaymentStatus(ctx, payment.ID, PaymentStatusVoid); err != nil {
			return err
		}
		bill, err := tx.GetBillForUpdate(ctx, payment.BillID)
		if err != nil {
			return err
		}
		if bill.Status == BillStatusPaid {
			return tx.SetBillStatus(ctx, bill.ID, BillStatusPosted)
		}
		return nil
	})
	if err != nil {
		return err
	}
	s.record(ctx, input.ActorID, "payment.void", input.ID, map[string]any{"reason": input.Reason})
	s.notifyPosted(ctx, ledger.SourcePayment)
	return nil
}

func (s *Service) record(ctx context.Context, actor, action string, id uuid.UUID, meta map[string]any) {
	if s.audit == nil {
		return
	}
	entity := "bill"
	if action == "payment.create" || action == "payment.void" {
		entity = "payment"
	}
	_ = s.audit.Record(ctx, shared.AuditLog{
		Actor:    actor,
		Action:   action,
		Entity:   entity,
		EntityID: id.String(),
		Meta:     meta,
		At:       s.now(),
	})
}

func validateBillInput(input CreateBillInput) error {
	if input.VendorID == 0 {
		return shared.NewValidationError("vendor_id", "vendor is required")
	}
	if input.Date.IsZero() {
		return shared.NewValidationError("date", "bill date is required")
	}
	if len(input.Lines) == 0 {
		return shared.NewValidationError("lines", "bill requires at least one line")
	}
	for idx, line := range input.Lines {
		if line.AccountCode == "" {
			return shared.NewValidationError("lines", "line %d missing account code", idx)
		}
		if line.Amount <= 0 {
			return shared.NewValidationError("lines", "line %d amount must be positive", idx)
		}
	}
	return nil
}

func billDescription(b Bill) string {
	if b.Description != "" {
		return b.Description
	}
	return fmt.Sprintf("Tagihan %s", b.VendorName)
}

func toBillLines(billID uuid.UUID, in []BillLineInput) []BillLine {
	out := make([]BillLine, 0, len(in))
	for idx, line := range in {
		out = append(out, BillLine{
			BillID:      billID,
			AccountCode: line.AccountCode,
			Description: line.Description,
			Amount:      line.Amount,
			ProjectCode: line.ProjectCode,
			SortOrder:   idx,
		})
	}
	return out
}
