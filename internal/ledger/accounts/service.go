package accounts

import (
	"context"
	"errors"
)

// ErrAccountReferenced indicates the account is frozen by posted lines.
var ErrAccountReferenced = errors.New("accounts: account referenced by posted journal lines")

type Service struct {
	repo Repository
}

func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

func (s *Service) List(ctx context.Context, activeOnly bool) ([]Account, error) {
	return s.repo.List(ctx, activeOnly)
}

func (s *Service) Get(ctx context.Context, code string) (Account, error) {
	return s.repo.GetByCode(ctx, code)
}

func (s *Service) Create(ctx context.Context, a Account) (Account, error) {
	if err := s.validate(a); err != nil {
		return Account{}, err
	}
	a.IsActive = true
	return s.repo.Create(ctx, a)
}

// Update renames an account. Code and type are frozen once a posted journal
// line references the account; the name stays editable.
func (s *Service) Update(ctx context.Context, code string, upd Account) (Account, error) {
	current, err := s.repo.GetByCode(ctx, code)
	if err != nil {
		return Account{}, err
	}
	if upd.Code == "" {
		upd.Code = current.Code
	}
	if upd.Type == "" {
		upd.Type = current.Type
	}
	if err := s.validate(upd); err != nil {
		return Account{}, err
	}
	if upd.Code != current.Code || upd.Type != current.Type {
		referenced, err := s.repo.HasPostedLines(ctx, current.Code)
		if err != nil {
			return Account{}, err
		}
		if referenced {
			return Account{}, ErrAccountReferenced
		}
	}
	return s.repo.Update(ctx, current.Code, upd)
}

// Deactivate marks an account inactive so new lines can no longer reference
// it. History stays untouched; a referenced code is never reused.
func (s *Service) Deactivate(ctx context.Context, code string) error {
	return s.repo.SetActive(ctx, code, false)
}

func (s *Service) Activate(ctx context.Context, code string) error {
	return s.repo.SetActive(ctx, code, true)
}
