package accounts

import (
	"regexp"
	"strings"

	"github.com/gemilang-erp/gemilang-erp/internal/shared"
)

var codePattern = regexp.MustCompile(`^[1-9]-\d{5}$`)

// ValidateCode checks the <type-digit>-<5-digit> format and that the leading
// digit agrees with the declared type.
func ValidateCode(code string, typ AccountType) error {
	if !codePattern.MatchString(code) {
		return shared.NewValidationError("code", "account code %q must match D-NNNNN", code)
	}
	want, ok := TypeForDigit(code[0])
	if !ok || want != typ {
		return shared.NewValidationError("code", "account code %q does not encode type %s", code, typ)
	}
	return nil
}

func (s *Service) validate(a Account) error {
	if strings.TrimSpace(a.Name) == "" {
		return shared.NewValidationError("name", "account name is required")
	}
	return ValidateCode(a.Code, a.Type)
}
