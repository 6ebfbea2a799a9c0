package tax

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/require"
)

func pkpVendor() CounterpartyProfile {
	return CounterpartyProfile{
		NPWP:                "01.234.567.8-901.000",
		ProvidesFakturPajak: true,
		SubjectToPPh23:      true,
	}
}

func TestValidFakturPajakNumber(t *testing.T) {
	require.True(t, ValidFakturPajakNumber("010.000-24.00000001"))

	for _, bad := range []string{
		"010.000-24.0000001",    // seven trailing digits
		"010.000-24.000000011",  // nine trailing digits
		"01.000-24.00000001",    // short prefix
		"010.000.24.00000001",   // dot instead of dash
		"010.000-2A.00000001",   // letter
		" 010.000-24.00000001 ", // surrounding spaces
		"",
	} {
		require.False(t, ValidFakturPajakNumber(bad), "input %q", bad)
	}
}

func TestAssessBillChargesVATForPKP(t *testing.T) {
	a, err := AssessBill(pkpVendor(), "010.000-24.00000001")
	require.NoError(t, err)
	require.True(t, a.VATApplicable)
	require.Equal(t, 11.0, a.VATRatePercent)
	require.Equal(t, int64(1_100_000), a.VATAmount(10_000_000))
}

func TestAssessBillWithoutFakturSkipsVAT(t *testing.T) {
	a, err := AssessBill(pkpVendor(), "")
	require.NoError(t, err)
	require.False(t, a.VATApplicable)
	require.Equal(t, int64(0), a.VATAmount(10_000_000))
}

func TestAssessBillRejectsMalformedFaktur(t *testing.T) {
	_, err := AssessBill(pkpVendor(), "010-000-24-00000001")
	var ruleErr *RuleError
	require.True(t, errors.As(err, &ruleErr))
	require.Equal(t, CodeInvalidFakturPajak, ruleErr.Code)
}

func TestAssessBillNonPKPSkipsVAT(t *testing.T) {
	vendor := pkpVendor()
	vendor.ProvidesFakturPajak = false
	a, err := AssessBill(vendor, "010.000-24.00000001")
	require.NoError(t, err)
	require.False(t, a.VATApplicable)
}

func TestAssessInvoiceAlwaysChargesVAT(t *testing.T) {
	a, err := AssessInvoice(CounterpartyProfile{})
	require.NoError(t, err)
	require.True(t, a.VATApplicable)
	require.Equal(t, int64(550_000), a.VATAmount(5_000_000))
}

func TestAssessPaymentDefaultsRate(t *testing.T) {
	a, err := AssessPayment(pkpVendor())
	require.NoError(t, err)
	require.True(t, a.WithholdingApplicable)
	require.Equal(t, 2.0, a.WithholdingPercent)
	require.Equal(t, int64(200_000), a.WithholdingAmount(10_000_000))
}

func TestAssessPaymentHonoursVendorRate(t *testing.T) {
	vendor := pkpVendor()
	vendor.PPh23RatePercent = 15
	a, err := AssessPayment(vendor)
	require.NoError(t, err)
	require.Equal(t, 15.0, a.WithholdingPercent)
}

func TestAssessPaymentRequiresNPWP(t *testing.T) {
	vendor := pkpVendor()
	vendor.NPWP = "  "
	_, err := AssessPayment(vendor)
	var ruleErr *RuleError
	require.True(t, errors.As(err, &ruleErr))
	require.Equal(t, CodeMissingNPWP, ruleErr.Code)
}

func TestAssessPaymentNotSubject(t *testing.T) {
	vendor := pkpVendor()
	vendor.SubjectToPPh23 = false
	a, err := AssessPayment(vendor)
	require.NoError(t, err)
	require.False(t, a.WithholdingApplicable)
	require.Equal(t, int64(0), a.WithholdingAmount(10_000_000))
}

func TestAssessReceiptWithholdingClient(t *testing.T) {
	a, err := AssessReceipt(CounterpartyProfile{WithholdsPPh23: true})
	require.NoError(t, err)
	require.True(t, a.WithholdingApplicable)
	require.Equal(t, 2.0, a.WithholdingPercent)

	a, err = AssessReceipt(CounterpartyProfile{})
	require.NoError(t, err)
	require.False(t, a.WithholdingApplicable)
}

func TestAmountRoundsHalfUpOnce(t *testing.T) {
	// 11% of 5 is 0.55, rounds up to 1.
	require.Equal(t, int64(1), Amount(5, 11))
	// 11% of 4 is 0.44, rounds down.
	require.Equal(t, int64(0), Amount(4, 11))
	// 2% of 25 is exactly 0.5, half-up.
	require.Equal(t, int64(1), Amount(25, 2))
	require.Equal(t, int64(0), Amount(0, 11))
	require.Equal(t, int64(0), Amount(100, 0))
}

func TestProportionalAmountRoundsOnce(t *testing.T) {
	// Full settlement of an 11.1M bill with 10M DPP at 2%.
	require.Equal(t, int64(200_000), ProportionalAmount(11_100_000, 10_000_000, 11_100_000, 2))
	// Two equal halves each carry exactly half the withholding.
	require.Equal(t, int64(100_000), ProportionalAmount(5_550_000, 10_000_000, 11_100_000, 2))
	// A rounded single computation, not a sum of intermediate roundings:
	// 1000 * (333/1000) * 2% = 6.66 -> 7.
	require.Equal(t, int64(7), ProportionalAmount(1_000, 333, 1_000, 2))
	require.Equal(t, int64(0), ProportionalAmount(0, 1, 1, 2))
	require.Equal(t, int64(0), ProportionalAmount(100, 0, 1, 2))
}
