package ledger

import (
	"context"
	"fmt"
	"time"

	"github.com/gemilang-erp/gemilang-erp/internal/ledger/accounts"
	"github.com/gemilang-erp/gemilang-erp/internal/shared"
)

// AuditPort records ledger events for compliance.
type AuditPort interface {
	Record(ctx context.Context, log shared.AuditLog) error
}

// Service coordinates posting and reversing journals. It is the only write
// path into the journal store.
type Service struct {
	repo     Repository
	audit    AuditPort
	now      func() time.Time
	onPosted func(ctx context.Context, source string)
}

// NewService constructs the journal store service.
func NewService(repo Repository, audit AuditPort) *Service {
	return &Service{repo: repo, audit: audit, now: time.Now}
}

// WithNow overrides the clock for deterministic tests.
func (s *Service) WithNow(now func() time.Time) {
	if now != nil {
		s.now = now
	}
}

// WithPostedHook registers fn to run after a journal commits, outside the
// transaction. Wired to the report cache bump and posting metrics.
func (s *Service) WithPostedHook(fn func(ctx context.Context, source string)) {
	s.onPosted = fn
}

func (s *Service) notifyPosted(ctx context.Context, source string) {
	if s.onPosted != nil {
		s.onPosted(ctx, source)
	}
}

func (s *Service) Get(ctx context.Context, id int64) (Journal, error) {
	return s.repo.Get(ctx, id)
}

func (s *Service) GetByNumber(ctx context.Context, number string) (Journal, error) {
	return s.repo.GetByNumber(ctx, number)
}

func (s *Service) List(ctx context.Context, f Filter) ([]Journal, error) {
	return s.repo.List(ctx, f)
}

// Post validates and persists a new journal atomically: header, every line,
// and the number allocation commit together or not at all.
func (s *Service) Post(ctx context.Context, input PostingInput) (Journal, error) {
	var journal Journal
	err := s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		var err error
		journal, err = s.PostWithin(ctx, tx, input)
		return err
	})
	if err != nil {
		return Journal{}, err
	}
	s.record(ctx, input.PostedBy, "journal.post", journal.ID, map[string]any{
		"number":          journal.Number,
		"source_doc_type": input.SourceDocType,
		"source_doc_id":   input.SourceDocID.String(),
	})
	s.notifyPosted(ctx, input.SourceDocType)
	return journal, nil
}

// PostWithin posts a journal inside a caller-owned transaction so a document
// row and its journal commit or roll back together. The caller is responsible
// for its own audit trail entry.
func (s *Service) PostWithin(ctx context.Context, tx TxRepository, input PostingInput) (Journal, error) {
	if err := input.Validate(); err != nil {
		return Journal{}, err
	}
	period := shared.PeriodOf(input.Date)
	status, err := tx.PeriodStatus(ctx, period)
	if err != nil {
		return Journal{}, err
	}
	if status != shared.PeriodStatusOpen {
		return Journal{}, ErrPeriodClosed
	}
	if err := checkAccounts(ctx, tx, input.Lines); err != nil {
		return Journal{}, err
	}
	number, err := tx.NextNumber(ctx, SequenceJournal, input.Date.Year())
	if err != nil {
		return Journal{}, err
	}
	inserted, err := tx.InsertJournal(ctx, Journal{
		Number:        number,
		Date:          input.Date,
		Period:        period,
		Description:   input.Description,
		Status:        JournalStatusPosted,
		SourceDocType: input.SourceDocType,
		SourceDocID:   input.SourceDocID,
		PostedBy:      input.PostedBy,
	})
	if err != nil {
		return Journal{}, err
	}
	lines := toLines(inserted.ID, input.Lines)
	if err := tx.InsertLines(ctx, inserted.ID, lines); err != nil {
		return Journal{}, err
	}
	inserted.Lines = lines
	return inserted, nil
}

// Reverse produces the mirror journal for an existing posted entry and tags
// the original REVERSED. Nothing is ever deleted; original plus mirror net to
// zero on every account.
func (s *Service) Reverse(ctx context.Context, input ReverseInput) (Journal, error) {
	var reversal Journal
	err := s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		var err error
		reversal, err = s.ReverseWithin(ctx, tx, input)
		return err
	})
	if err != nil {
		return Journal{}, err
	}
	s.record(ctx, input.ActorID, "journal.reverse", input.JournalID, map[string]any{
		"reversal_id":     reversal.ID,
		"reversal_number": reversal.Number,
		"reason":          input.Reason,
	})
	s.notifyPosted(ctx, reversal.SourceDocType)
	return reversal, nil
}

// ReverseWithin runs the reversal inside a caller-owned transaction, for
// document voids that must flip the document row and post the mirror
// atomically.
func (s *Service) ReverseWithin(ctx context.Context, tx TxRepository, input ReverseInput) (Journal, error) {
	if input.JournalID == 0 {
		return Journal{}, shared.NewValidationError("journal_id", "journal id is required")
	}
	original, err := tx.GetJournalForUpdate(ctx, input.JournalID)
	if err != nil {
		return Journal{}, err
	}
	if original.Status == JournalStatusReversed {
		return Journal{}, ErrAlreadyVoided
	}
	if original.Status != JournalStatusPosted {
		return Journal{}, shared.NewValidationError("status", "journal %s is not posted", original.Number)
	}
	if status, err := tx.PeriodStatus(ctx, original.Period); err != nil {
		return Journal{}, err
	} else if status != shared.PeriodStatusOpen {
		return Journal{}, ErrPeriodClosed
	}
	// The mirror is dated on or after the original, never before.
	date := s.now().Truncate(24 * time.Hour)
	if date.Before(original.Date) {
		date = original.Date
	}
	targetPeriod := shared.PeriodOf(date)
	if targetPeriod != original.Period {
		if status, err := tx.PeriodStatus(ctx, targetPeriod); err != nil {
			return Journal{}, err
		} else if status != shared.PeriodStatusOpen {
			return Journal{}, ErrPeriodClosed
		}
	}
	number, err := tx.NextNumber(ctx, SequenceJournal, date.Year())
	if err != nil {
		return Journal{}, err
	}
	inserted, err := tx.InsertJournal(ctx, Journal{
		Number:        number,
		Date:          date,
		Period:        targetPeriod,
		Description:   reversalDescription(input.Reason, original.Number),
		Status:        JournalStatusPosted,
		SourceDocType: original.SourceDocType,
		SourceDocID:   original.SourceDocID,
		ReversalOfID:  &original.ID,
		PostedBy:      input.ActorID,
	})
	if err != nil {
		return Journal{}, err
	}
	lines := mirrorLines(inserted.ID, original.Lines)
	if err := tx.InsertLines(ctx, inserted.ID, lines); err != nil {
		return Journal{}, err
	}
	if err := tx.MarkReversed(ctx, original.ID, inserted.ID, s.now(), input.Reason); err != nil {
		return Journal{}, err
	}
	inserted.Lines = lines
	return inserted, nil
}

func (s *Service) record(ctx context.Context, actor, action string, journalID int64, meta map[string]any) {
	if s.audit == nil {
		return
	}
	_ = s.audit.Record(ctx, shared.AuditLog{
		Actor:    actor,
		Action:   action,
		Entity:   "journal",
		EntityID: fmt.Sprintf("%d", journalID),
		Meta:     meta,
		At:       s.now(),
	})
}

// checkAccounts enforces account referential integrity and the COGS project
// rule at the single posting choke point.
func checkAccounts(ctx context.Context, tx TxRepository, lines []PostingLineInput) error {
	codes := make([]string, 0, len(lines))
	seen := make(map[string]bool, len(lines))
	for _, line := range lines {
		if !seen[line.AccountCode] {
			seen[line.AccountCode] = true
			codes = append(codes, line.AccountCode)
		}
	}
	accts, err := tx.AccountsByCode(ctx, codes)
	if err != nil {
		return err
	}
	for idx, line := range lines {
		acc, ok := accts[line.AccountCode]
		if !ok {
			return fmt.Errorf("%w: %s", ErrAccountNotFound, line.AccountCode)
		}
		if !acc.IsActive {
			return fmt.Errorf("%w: %s", ErrAccountInactive, line.AccountCode)
		}
		if acc.Type == accounts.AccountTypeCOGS && (line.ProjectCode == nil || *line.ProjectCode == "") {
			return shared.NewValidationError("project_code", "line %d posts to COGS account %s without a project code", idx, line.AccountCode)
		}
	}
	return nil
}

func toLines(journalID int64, in []PostingLineInput) []JournalLine {
	out := make([]JournalLine, 0, len(in))
	for idx, line := range in {
		out = append(out, JournalLine{
			JournalID:   journalID,
			AccountCode: line.AccountCode,
			Debit:       line.Debit,
			Credit:      line.Credit,
			Description: line.Description,
			ProjectCode: line.ProjectCode,
			SortOrder:   idx,
		})
	}
	return out
}

func mirrorLines(journalID int64, original []JournalLine) []JournalLine {
	out := make([]JournalLine, 0, len(original))
	for _, line := range original {
		out = append(out, JournalLine{
			JournalID:   journalID,
			AccountCode: line.AccountCode,
			Debit:       line.Credit,
			Credit:      line.Debit,
			Description: line.Description,
			ProjectCode: line.ProjectCode,
			SortOrder:   line.SortOrder,
		})
	}
	return out
}

func reversalDescription(reason, originalNumber string) string {
	if reason != "" {
		return fmt.Sprintf("Reversal of %s: %s", originalNumber, reason)
	}
	return fmt.Sprintf("Reversal of %s", originalNumber)
}
