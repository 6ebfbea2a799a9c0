package accounts

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/gemilang-erp/gemilang-erp/internal/shared"
)

type memRepo struct {
	byCode map[string]Account
	posted map[string]bool
	nextID int64
}

func newMemRepo() *memRepo {
	return &memRepo{byCode: make(map[string]Account), posted: make(map[string]bool)}
}

func (m *memRepo) List(ctx context.Context, activeOnly bool) ([]Account, error) {
	var out []Account
	for _, a := range m.byCode {
		if activeOnly && !a.IsActive {
			continue
		}
		out = append(out, a)
	}
	return out, nil
}

func (m *memRepo) GetByCode(ctx context.Context, code string) (Account, error) {
	a, ok := m.byCode[code]
	if !ok {
		return Account{}, shared.ErrNotFound
	}
	return a, nil
}

func (m *memRepo) Create(ctx context.Context, a Account) (Account, error) {
	if _, taken := m.byCode[a.Code]; taken {
		return Account{}, shared.ErrDuplicate
	}
	m.nextID++
	a.ID = m.nextID
	m.byCode[a.Code] = a
	return a, nil
}

func (m *memRepo) Update(ctx context.Context, oldCode string, a Account) (Account, error) {
	current, ok := m.byCode[oldCode]
	if !ok {
		return Account{}, shared.ErrNotFound
	}
	if a.Code != oldCode {
		if _, taken := m.byCode[a.Code]; taken {
			return Account{}, shared.ErrDuplicate
		}
		delete(m.byCode, oldCode)
	}
	a.ID = current.ID
	a.IsActive = current.IsActive
	m.byCode[a.Code] = a
	return a, nil
}

func (m *memRepo) SetActive(ctx context.Context, code string, active bool) error {
	a, ok := m.byCode[code]
	if !ok {
		return shared.ErrNotFound
	}
	a.IsActive = active
	m.byCode[code] = a
	return nil
}

func (m *memRepo) HasPostedLines(ctx context.Context, code string) (bool, error) {
	return m.posted[code], nil
}

func TestValidateCode(t *testing.T) {
	require.NoError(t, ValidateCode("1-10200", AccountTypeAsset))
	require.NoError(t, ValidateCode("9-10100", AccountTypeTaxExpense))

	require.Error(t, ValidateCode("1-102", AccountTypeAsset), "too few digits")
	require.Error(t, ValidateCode("0-10200", AccountTypeAsset), "zero type digit")
	require.Error(t, ValidateCode("110200", AccountTypeAsset), "missing dash")
	require.Error(t, ValidateCode("2-10200", AccountTypeAsset), "digit disagrees with type")
}

func TestDebitNormal(t *testing.T) {
	require.True(t, AccountTypeAsset.DebitNormal())
	require.True(t, AccountTypeCOGS.DebitNormal())
	require.True(t, AccountTypeTaxExpense.DebitNormal())
	require.False(t, AccountTypeLiability.DebitNormal())
	require.False(t, AccountTypeEquity.DebitNormal())
	require.False(t, AccountTypeRevenue.DebitNormal())
	require.False(t, AccountTypeOtherIncome.DebitNormal())
}

func TestCreateActivatesAndValidates(t *testing.T) {
	svc := NewService(newMemRepo())
	ctx := context.Background()

	created, err := svc.Create(ctx, Account{Code: "1-10200", Name: "Bank", Type: AccountTypeAsset})
	require.NoError(t, err)
	require.True(t, created.IsActive)

	_, err = svc.Create(ctx, Account{Code: "1-10200", Name: "", Type: AccountTypeAsset})
	require.True(t, shared.IsValidation(err))

	_, err = svc.Create(ctx, Account{Code: "5-10200", Name: "Salah", Type: AccountTypeAsset})
	require.True(t, shared.IsValidation(err), "type digit mismatch")
}

func TestUpdateFreezesCodeOncePosted(t *testing.T) {
	repo := newMemRepo()
	svc := NewService(repo)
	ctx := context.Background()

	_, err := svc.Create(ctx, Account{Code: "6-10100", Name: "Beban kantor", Type: AccountTypeOpex})
	require.NoError(t, err)
	repo.posted["6-10100"] = true

	// Renaming stays allowed.
	renamed, err := svc.Update(ctx, "6-10100", Account{Name: "Beban umum kantor"})
	require.NoError(t, err)
	require.Equal(t, "6-10100", renamed.Code)
	require.Equal(t, "Beban umum kantor", renamed.Name)

	// Changing the code is not.
	_, err = svc.Update(ctx, "6-10100", Account{Code: "6-10200", Name: "Beban umum kantor"})
	require.ErrorIs(t, err, ErrAccountReferenced)
}

func TestUpdateAllowsRecodeWhenUnreferenced(t *testing.T) {
	repo := newMemRepo()
	svc := NewService(repo)
	ctx := context.Background()

	_, err := svc.Create(ctx, Account{Code: "6-10100", Name: "Beban kantor", Type: AccountTypeOpex})
	require.NoError(t, err)

	moved, err := svc.Update(ctx, "6-10100", Account{Code: "6-10500", Name: "Beban kantor"})
	require.NoError(t, err)
	require.Equal(t, "6-10500", moved.Code)
}

func TestDeactivateKeepsHistoryVisible(t *testing.T) {
	repo := newMemRepo()
	svc := NewService(repo)
	ctx := context.Background()

	_, err := svc.Create(ctx, Account{Code: "6-10100", Name: "Beban kantor", Type: AccountTypeOpex})
	require.NoError(t, err)
	require.NoError(t, svc.Deactivate(ctx, "6-10100"))

	account, err := svc.Get(ctx, "6-10100")
	require.NoError(t, err)
	require.False(t, account.IsActive)

	all, err := svc.List(ctx, false)
	require.NoError(t, err)
	require.Len(t, all, 1)
	active, err := svc.List(ctx, true)
	require.NoError(t, err)
	require.Empty(t, active)
}
