package accounts

import "time"

// AccountType enumerates CoA categories per the PSAK-oriented chart.
type AccountType string

const (
	AccountTypeAsset        AccountType = "ASSET"
	AccountTypeLiability    AccountType = "LIABILITY"
	AccountTypeEquity       AccountType = "EQUITY"
	AccountTypeRevenue      AccountType = "REVENUE"
	AccountTypeCOGS         AccountType = "COGS"
	AccountTypeOpex         AccountType = "OPEX"
	AccountTypeOtherIncome  AccountType = "OTHER_INCOME"
	AccountTypeOtherExpense AccountType = "OTHER_EXPENSE"
	AccountTypeTaxExpense   AccountType = "TAX_EXPENSE"
)

// typeDigits maps the leading code digit to the account type it encodes.
var typeDigits = map[byte]AccountType{
	'1': AccountTypeAsset,
	'2': AccountTypeLiability,
	'3': AccountTypeEquity,
	'4': AccountTypeRevenue,
	'5': AccountTypeCOGS,
	'6': AccountTypeOpex,
	'7': AccountTypeOtherIncome,
	'8': AccountTypeOtherExpense,
	'9': AccountTypeTaxExpense,
}

// TypeForDigit returns the account type encoded by a leading code digit.
func TypeForDigit(d byte) (AccountType, bool) {
	t, ok := typeDigits[d]
	return t, ok
}

// DebitNormal reports whether the type carries a debit-normal balance.
func (t AccountType) DebitNormal() bool {
	switch t {
	case AccountTypeAsset, AccountTypeCOGS, AccountTypeOpex, AccountTypeOtherExpense, AccountTypeTaxExpense:
		return true
	}
	return false
}

// Account models a chart of accounts node. Code and type are frozen once a
// posted journal line references the account.
type Account struct {
	ID        int64
	Code      string
	Name      string
	Type      AccountType
	IsActive  bool
	CreatedAt time.Time
	UpdatedAt time.Time
}
