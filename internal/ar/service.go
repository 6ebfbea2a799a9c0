package ar

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

// ClientPort resolves the counterparty record a document references.
type ClientPort interface {
	GetClient(ctx context.Context, id int64) (partners.Client, error)
}

// JournalPort posts and reverses journals inside the document transaction.
type JournalPort interface {
	PostWithin(ctx context.Context, tx ledger.TxRepository, input ledger.PostingInput) (ledger.Journal, error)
	ReverseWithin(ctx context.Context, tx ledger.TxRepository, input ledger.ReverseInput) (ledger.Journal, error)
}

// AuditPort records AR events for compliance.
type AuditPort interface {
	Record(ctx context.Context, log shared.AuditLog) error
}

// Service owns the invoice and receipt lifecycle.
type Service struct {
	repo     Repository
	clients  ClientPort
	journal  JournalPort
	audit    AuditPort
	now      func() time.Time
	onPosted func(ctx context.Context, source string)
}

func NewService(repo Repository, clients ClientPort, journal JournalPort, audit AuditPort) *Service {
	return &Service{repo: repo, clients: clients, journal: journal, audit: audit, now: time.Now}
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

func (s *Service) GetInvoice(ctx context.Context, id uuid.UUID) (Invoice, error) {
	return s.repo.GetInvoice(ctx, id)
}

func (s *Service) ListInvoices(ctx context.Context, f InvoiceFilter) ([]Invoice, error) {
	return s.repo.ListInvoices(ctx, f)
}

func (s *Service) GetReceipt(ctx context.Context, id uuid.UUID) (Receipt, error) {
	return s.repo.GetReceipt(ctx, id)
}

func (s *Service) ListReceipts(ctx context.Context, invoiceID uuid.UUID) ([]Receipt, error) {
	return s.repo.ListReceipts(ctx, invoiceID)
}

// InvoiceOutstanding returns the unpaid remainder of an invoice.
func (s *Service) InvoiceOutstanding(ctx context.Context, id uuid.UUID) (int64, error) {
	invoice, err := s.repo.GetInvoice(ctx, id)
	if err != nil {
		return 0, err
	}
	received, err := s.repo.ReceivedAmount(ctx, id)
	if err != nil {
		return 0, err
	}
	return invoice.Outstanding(received), nil
}

// CreateInvoice issues a sales invoice and posts its journal in one
// transaction. PPN Keluaran is always charged at the standard rate.
func (s *Service) CreateInvoice(ctx context.Context, input CreateInvoiceInput) (Invoice, error) {
	if err := validateInvoiceInput(input); err != nil {
		return Invoice{}, err
	}
	client, err := s.clients.GetClient(ctx, input.ClientID)
	if err != nil {
		return Invoice{}, err
	}
	assessment, err := tax.AssessInvoice(client.TaxProfile())
	if err != nil {
		return Invoice{}, err
	}

	var subtotal int64
	for _, line := range input.Lines {
		subtotal += line.Amount
	}
	vat := assessment.VATAmount(subtotal)
	total := subtotal + vat

	dueDate := input.DueDate
	if dueDate.IsZero() {
		dueDate = client.DueDate(input.Date)
	}

	invoice := Invoice{
		ID:          uuid.New(),
		ClientID:    input.ClientID,
		ClientName:  client.Name,
		Date:        input.Date,
		DueDate:     dueDate,
		Description: input.Description,
		Subtotal:    subtotal,
		VATAmount:   vat,
		Total:       total,
		Status:      InvoiceStatusPosted,
		CreatedBy:   input.CreatedBy,
	}

	err = s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		number, err := tx.NextNumber(ctx, ledger.SequenceInvoice, input.Date.Year())
		if err != nil {
			return err
		}
		invoice.Number = number

		journal, err := s.journal.PostWithin(ctx, tx, ledger.PostingInput{
			Date:          input.Date,
			Description:   invoiceDescription(invoice),
			SourceDocType: ledger.SourceInvoice,
			SourceDocID:   invoice.ID,
			PostedBy:      input.CreatedBy,
			Lines:         invoiceJournalLines(input.Lines, vat, total),
		})
		if err != nil {
			return err
		}
		invoice.JournalID = journal.ID

		inserted, err := tx.InsertInvoice(ctx, invoice)
		if err != nil {
			return err
		}
		lines := toInvoiceLines(invoice.ID, input.Lines)
		if err := tx.InsertInvoiceLines(ctx, invoice.ID, lines); err != nil {
			return err
		}
		inserted.Lines = lines
		invoice = inserted
		return nil
	})
	if err != nil {
		return Invoice{}, err
	}
	s.record(ctx, input.CreatedBy, "invoice.create", invoice.ID, map[string]any{
		"number": invoice.Number,
		"client": invoice.ClientID,
		"total":  invoice.Total,
	})
	s.notifyPosted(ctx, ledger.SourceInvoice)
	return invoice, nil
}

// CreateReceipt records money received against an invoice. The invoice row
// is locked while the outstanding balance is rechecked.
func (s *Service) CreateReceipt(ctx context.Context, input CreateReceiptInput) (Receipt, error) {
	if input.InvoiceID == uuid.Nil {
		return Receipt{}, shared.NewValidationError("invoice_id", "invoice id is required")
	}
	if input.Amount <= 0 {
		return Receipt{}, shared.NewValidationError("amount", "receipt amount must be positive")
	}
	if input.Date.IsZero() {
		return Receipt{}, shared.NewValidationError("date", "receipt date is required")
	}
	bankCode := input.BankAccountCode
	if bankCode == "" {
		bankCode = accounts.CodeBank
	}
	// Format and type gate here; the posting path rejects inactive or
	// unknown accounts inside the transaction.
	if err := accounts.ValidateCode(bankCode, accounts.AccountTypeAsset); err != nil {
		return Receipt{}, shared.NewValidationError("bank_account_code", "bank account %q must be an asset account", bankCode)
	}

	var receipt Receipt
	err := s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		invoice, err := tx.GetInvoiceForUpdate(ctx, input.InvoiceID)
		if err != nil {
			return err
		}
		if invoice.Status == InvoiceStatusVoid {
			return ErrInvoiceVoid
		}
		received, err := tx.ReceivedAmount(ctx, invoice.ID)
		if err != nil {
			return err
		}
		outstanding := invoice.Outstanding(received)
		if input.Amount > outstanding {
			return fmt.Errorf("%w: %d > %d on %s", ErrExceedsBalance, input.Amount, outstanding, invoice.Number)
		}

		client, err := s.clients.GetClient(ctx, invoice.ClientID)
		if err != nil {
			return err
		}
		assessment, err := tax.AssessReceipt(client.TaxProfile())
		if err != nil {
			return err
		}
		withholding := receiptWithholding(assessment, invoice, input.Amount)

		number, err := tx.NextNumber(ctx, ledger.SequenceReceipt, input.Date.Year())
		if err != nil {
			return err
		}
		receipt = Receipt{
			ID:                uuid.New(),
			Number:            number,
			InvoiceID:         invoice.ID,
			ClientID:          invoice.ClientID,
			Date:              input.Date,
			Amount:            input.Amount,
			WithholdingAmount: withholding,
			Status:            ReceiptStatusPosted,
			Note:              input.Note,
			CreatedBy:         input.CreatedBy,
		}

		journal, err := s.journal.PostWithin(ctx, tx, ledger.PostingInput{
			Date:          input.Date,
			Description:   fmt.Sprintf("Penerimaan %s untuk %s", number, invoice.Number),
			SourceDocType: ledger.SourceReceipt,
			SourceDocID:   receipt.ID,
			PostedBy:      input.CreatedBy,
			Lines:         receiptJournalLines(input.Amount, withholding, bankCode),
		})
		if err != nil {
			return err
		}
		receipt.JournalID = journal.ID

		if receipt, err = tx.InsertReceipt(ctx, receipt); err != nil {
			return err
		}
		if input.Amount == outstanding {
			return tx.SetInvoiceStatus(ctx, invoice.ID, InvoiceStatusPaid)
		}
		return nil
	})
	if err != nil {
		return Receipt{}, err
	}
	s.record(ctx, input.CreatedBy, "receipt.create", receipt.ID, map[string]any{
		"number":       receipt.Number,
		"invoice_id":   receipt.InvoiceID.String(),
		"amount":       receipt.Amount,
		"withholding":  receipt.WithholdingAmount,
		"bank_account": bankCode,
	})
	s.notifyPosted(ctx, ledger.SourceReceipt)
	return receipt, nil
}

// VoidInvoice reverses the invoice's journal and tags the document VOID. An
// invoice with active receipts cannot be voided; void the receipts first.
func (s *Service) VoidInvoice(ctx context.Context, input VoidInput) error {
	err := s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		invoice, err := tx.GetInvoiceForUpdate(ctx, input.ID)
		if err != nil {
			return err
		}
		if invoice.Status == InvoiceStatusVoid {
			return ErrInvoiceVoid
		}
		received, err := tx.ReceivedAmount(ctx, invoice.ID)
		if err != nil {
			return err
		}
		if received > 0 {
			return ErrInvoiceHasReceipts
		}
		if _, err := s.journal.ReverseWithin(ctx, tx, ledger.ReverseInput{
			JournalID: invoice.JournalID,
			ActorID:   input.ActorID,
			Reason:    input.Reason,
		}); err != nil {
			return err
		}
		return tx.SetInvoiceStatus(ctx, invoice.ID, InvoiceStatusVoid)
	})
	if err != nil {
		return err
	}
	s.record(ctx, input.ActorID, "invoice.void", input.ID, map[string]any{"reason": input.Reason})
	s.notifyPosted(ctx, ledger.SourceInvoice)
	return nil
}

// VoidReceipt reverses the receipt's journal and reopens the invoice when
// the void drops it below fully paid.
func (s *Service) VoidReceipt(ctx context.Context, input VoidInput) error {
	err := s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		receipt, err := tx.GetReceiptForUpdate(ctx, input.ID)
		if err != nil {
			return err
		}
		if receipt.Status == ReceiptStatusVoid {
			return ErrReceiptVoid
		}
		if _, err := s.journal.ReverseWithin(ctx, tx, ledger.ReverseInput{
			JournalID: receipt.JournalID,
			ActorID:   input.ActorID,
			Reason:    input.Reason,
		}); err != nil {
			return err
		}
		if err := tx.SetReceiptStatus(ctx, receipt.ID, ReceiptStatusVoid); err != nil {
			return err
		}
		invoice, err := tx.GetInvoiceForUpdate(ctx, receipt.InvoiceID)
		if err != nil {
			return err
		}
		if invoice.Status == InvoiceStatusPaid {
			return tx.SetInvoiceStatus(ctx, invoice.ID, InvoiceStatusPosted)
		}
		return nil
	})
	if err != nil {
		return err
	}
	s.record(ctx, input.ActorID, "receipt.void", input.ID, map[string]any{"reason": input.Reason})
	s.notifyPosted(ctx, ledger.SourceReceipt)
	return nil
}

func (s *Service) record(ctx context.Context, actor, action string, id uuid.UUID, meta map[string]any) {
	if s.audit == nil {
		return
	}
	entity := "invoice"
	if action == "receipt.create" || action == "receipt.void" {
		entity = "receipt"
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

func validateInvoiceInput(input CreateInvoiceInput) error {
	if input.ClientID == 0 {
		return shared.NewValidationError("client_id", "client is required")
	}
	if input.Date.IsZero() {
		return shared.NewValidationError("date", "invoice date is required")
	}
	if len(input.Lines) == 0 {
		return shared.NewValidationError("lines", "invoice requires at least one line")
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

func invoiceDescription(inv Invoice) string {
	if inv.Description != "" {
		return inv.Description
	}
	return fmt.Sprintf("Faktur %s", inv.ClientName)
}

func toInvoiceLines(invoiceID uuid.UUID, in []InvoiceLineInput) []InvoiceLine {
	out := make([]InvoiceLine, 0, len(in))
	for idx, line := range in {
		out = append(out, InvoiceLine{
			InvoiceID:   invoiceID,
			AccountCode: line.AccountCode,
			Description: line.Description,
			Amount:      line.Amount,
			ProjectCode: line.ProjectCode,
			SortOrder:   idx,
		})
	}
	return out
}
