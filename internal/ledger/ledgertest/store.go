// Package ledgertest provides an in-memory journal store for service tests.
package ledgertest

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/gemilang-erp/gemilang-erp/internal/ledger"
	"github.com/gemilang-erp/gemilang-erp/internal/ledger/accounts"
	"github.com/gemilang-erp/gemilang-erp/internal/shared"
)

// Store satisfies both ledger repository interfaces. WithTx runs the callback
// directly; rollback is not simulated, so tests assert on the error path
// before inspecting state.
type Store struct {
	mu       sync.Mutex
	Accounts map[string]accounts.Account
	Periods  map[string]string
	Journals map[int64]*ledger.Journal
	seqs     map[string]int64
	sources  map[string]int64
	nextID   int64

	// GateErr, when set, is returned by PeriodStatus. It models the gate
	// row being claimed by a concurrent close.
	GateErr error
}

// New returns a Store seeded with the given chart of accounts.
func New(accts ...accounts.Account) *Store {
	s := &Store{
		Accounts: make(map[string]accounts.Account),
		Periods:  make(map[string]string),
		Journals: make(map[int64]*ledger.Journal),
		seqs:     make(map[string]int64),
		sources:  make(map[string]int64),
	}
	for _, a := range accts {
		s.Accounts[a.Code] = a
	}
	return s
}

// ClosePeriod marks a period CLOSED for subsequent posting attempts.
func (s *Store) ClosePeriod(period string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.Periods[period] = shared.PeriodStatusClosed
}

func (s *Store) Get(ctx context.Context, id int64) (ledger.Journal, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	j, ok := s.Journals[id]
	if !ok {
		return ledger.Journal{}, ledger.ErrJournalNotFound
	}
	return *j, nil
}

func (s *Store) GetByNumber(ctx context.Context, number string) (ledger.Journal, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, j := range s.Journals {
		if j.Number == number {
			return *j, nil
		}
	}
	return ledger.Journal{}, ledger.ErrJournalNotFound
}

func (s *Store) List(ctx context.Context, f ledger.Filter) ([]ledger.Journal, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []ledger.Journal
	for _, j := range s.Journals {
		if f.Period != "" && j.Period != f.Period {
			continue
		}
		if f.Status != "" && j.Status != f.Status {
			continue
		}
		if f.SourceDocType != "" && j.SourceDocType != f.SourceDocType {
			continue
		}
		out = append(out, *j)
	}
	sort.Slice(out, func(i, k int) bool { return out[i].ID < out[k].ID })
	return out, nil
}

func (s *Store) WithTx(ctx context.Context, fn func(context.Context, ledger.TxRepository) error) error {
	return fn(ctx, s)
}

func (s *Store) NextNumber(ctx context.Context, sequence string, fiscalYear int) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	key := fmt.Sprintf("%s-%d", sequence, fiscalYear)
	s.seqs[key]++
	return ledger.FormatNumber(sequence, fiscalYear, s.seqs[key]), nil
}

func (s *Store) PeriodStatus(ctx context.Context, period string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.GateErr != nil {
		return "", s.GateErr
	}
	if status, ok := s.Periods[period]; ok {
		return status, nil
	}
	return shared.PeriodStatusOpen, nil
}

func (s *Store) AccountsByCode(ctx context.Context, codes []string) (map[string]accounts.Account, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make(map[string]accounts.Account, len(codes))
	for _, code := range codes {
		if a, ok := s.Accounts[code]; ok {
			out[code] = a
		}
	}
	return out, nil
}

func (s *Store) InsertJournal(ctx context.Context, j ledger.Journal) (ledger.Journal, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if j.ReversalOfID == nil {
		key := j.SourceDocType + "/" + j.SourceDocID.String()
		if _, taken := s.sources[key]; taken {
			return ledger.Journal{}, ledger.ErrSourceAlreadyLinked
		}
		s.sources[key] = s.nextID + 1
	}
	s.nextID++
	j.ID = s.nextID
	j.CreatedAt = time.Now()
	s.Journals[j.ID] = &j
	return j, nil
}

func (s *Store) InsertLines(ctx context.Context, journalID int64, lines []ledger.JournalLine) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	j, ok := s.Journals[journalID]
	if !ok {
		return ledger.ErrJournalNotFound
	}
	j.Lines = append([]ledger.JournalLine(nil), lines...)
	return nil
}

func (s *Store) GetJournalForUpdate(ctx context.Context, id int64) (ledger.Journal, error) {
	return s.Get(ctx, id)
}

func (s *Store) MarkReversed(ctx context.Context, originalID, reversalID int64, at time.Time, reason string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	j, ok := s.Journals[originalID]
	if !ok {
		return ledger.ErrJournalNotFound
	}
	if j.Status != ledger.JournalStatusPosted {
		return ledger.ErrAlreadyVoided
	}
	j.Status = ledger.JournalStatusReversed
	j.ReversedByID = &reversalID
	j.VoidedAt = &at
	j.VoidReason = reason
	return nil
}
