package shared

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestValidatePeriodTransition(t *testing.T) {
	cases := []struct {
		name    string
		current string
		target  string
		wantErr bool
	}{
		{name: "open to closed", current: PeriodStatusOpen, target: PeriodStatusClosed, wantErr: false},
		{name: "open stays open", current: PeriodStatusOpen, target: PeriodStatusOpen, wantErr: false},
		{name: "closed is terminal", current: PeriodStatusClosed, target: PeriodStatusClosed, wantErr: true},
		{name: "no reopening", current: PeriodStatusClosed, target: PeriodStatusOpen, wantErr: true},
		{name: "unknown status", current: "ARCHIVED", target: PeriodStatusClosed, wantErr: true},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			err := ValidatePeriodTransition(tc.current, tc.target)
			if tc.wantErr {
				require.ErrorIs(t, err, ErrInvalidPeriodTransition)
			} else {
				require.NoError(t, err)
			}
		})
	}
}

func TestPeriodOf(t *testing.T) {
	require.Equal(t, "2026-03", PeriodOf(time.Date(2026, 3, 15, 10, 0, 0, 0, time.UTC)))
}

func TestPeriodBounds(t *testing.T) {
	start, end, err := PeriodBounds("2026-02")
	require.NoError(t, err)
	require.Equal(t, time.Date(2026, 2, 1, 0, 0, 0, 0, time.UTC), start)
	require.Equal(t, time.Date(2026, 2, 28, 0, 0, 0, 0, time.UTC), end)
}
