package shared

import (
	"errors"
	"regexp"
	"time"
)

// Period statuses reused outside the close module.
const (
	PeriodStatusOpen   = "OPEN"
	PeriodStatusClosed = "CLOSED"
)

var periodPattern = regexp.MustCompile(`^\d{4}-(0[1-9]|1[0-2])$`)

// ErrInvalidPeriodTransition indicates a status change not allowed by policy.
var ErrInvalidPeriodTransition = errors.New("period transition invalid")

// PeriodOf derives the YYYY-MM fiscal period from a posting date. Periods are
// never edited independently of the date they were derived from.
func PeriodOf(date time.Time) string {
	return date.Format("2006-01")
}

// ValidPeriod reports whether code is a well-formed YYYY-MM period.
func ValidPeriod(code string) bool {
	return periodPattern.MatchString(code)
}

// PeriodBounds returns the first and last day covered by a YYYY-MM period.
func PeriodBounds(code string) (time.Time, time.Time, error) {
	start, err := time.Parse("2006-01", code)
	if err != nil {
		return time.Time{}, time.Time{}, err
	}
	return start, start.AddDate(0, 1, -1), nil
}

// ValidatePeriodTransition checks transitions according to policy. Closing is
// one-way; reopening would be a distinct privileged operation with its own
// audit trail and is not part of this transition table.
func ValidatePeriodTransition(current, target string) error {
	if current == PeriodStatusClosed {
		return ErrInvalidPeriodTransition
	}
	if current == PeriodStatusOpen && (target == PeriodStatusOpen || target == PeriodStatusClosed) {
		return nil
	}
	return ErrInvalidPeriodTransition
}
