// Package tax evaluates Indonesian PPN and PPh 23 rules for business documents.
package tax

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/shopspring/decimal"
)

// VATRatePercent is the standard PPN rate applied since April 2022.
const VATRatePercent = 11.0

// DefaultWithholdingRatePercent is the PPh 23 service rate used when the
// vendor record does not carry an explicit rate.
const DefaultWithholdingRatePercent = 2.0

// fakturPajakPattern matches the DJP serial format, e.g. 010.000-24.00000001.
var fakturPajakPattern = regexp.MustCompile(`^\d{3}\.\d{3}-\d{2}\.\d{8}$`)

// DocType enumerates the document kinds the evaluator understands.
type DocType string

const (
	DocTypeBill    DocType = "BILL"
	DocTypeInvoice DocType = "INVOICE"
	DocTypePayment DocType = "PAYMENT"
)

// CounterpartyProfile carries the tax attributes of a vendor or client.
type CounterpartyProfile struct {
	NPWP                string
	ProvidesFakturPajak bool
	SubjectToPPh23      bool
	PPh23RatePercent    float64
	WithholdsPPh23      bool
}

// Assessment is the evaluator output consumed by the journal translators.
type Assessment struct {
	VATRatePercent        float64
	VATApplicable         bool
	WithholdingPercent    float64
	WithholdingApplicable bool
}

// RuleError signals a compliance problem the caller must surface as a warning
// instead of silently dropping the tax line.
type RuleError struct {
	Code   string
	Detail string
}

func (e *RuleError) Error() string {
	return fmt.Sprintf("tax: %s: %s", e.Code, e.Detail)
}

// Rule error codes.
const (
	CodeInvalidFakturPajak = "INVALID_FAKTUR_PAJAK"
	CodeMissingNPWP        = "MISSING_NPWP"
)

// ValidFakturPajakNumber reports whether the serial matches the DJP format.
func ValidFakturPajakNumber(number string) bool {
	return fakturPajakPattern.MatchString(number)
}

// AssessBill decides input VAT for a vendor bill. VAT applies only when the
// vendor is a PKP and a well-formed Faktur Pajak number accompanies the bill.
func AssessBill(vendor CounterpartyProfile, fakturNumber string) (Assessment, error) {
	fakturNumber = strings.TrimSpace(fakturNumber)
	if fakturNumber == "" {
		return Assessment{}, nil
	}
	if !ValidFakturPajakNumber(fakturNumber) {
		return Assessment{}, &RuleError{Code: CodeInvalidFakturPajak, Detail: fmt.Sprintf("faktur pajak %q does not match NNN.NNN-NN.NNNNNNNN", fakturNumber)}
	}
	if !vendor.ProvidesFakturPajak {
		return Assessment{}, nil
	}
	return Assessment{VATRatePercent: VATRatePercent, VATApplicable: true}, nil
}

// AssessInvoice decides output VAT for a sales invoice. PPN Keluaran is always
// charged to clients at the standard rate.
func AssessInvoice(CounterpartyProfile) (Assessment, error) {
	return Assessment{VATRatePercent: VATRatePercent, VATApplicable: true}, nil
}

// AssessPayment decides PPh 23 withholding for a vendor payment. Withholding
// requires the vendor to have an NPWP on record.
func AssessPayment(vendor CounterpartyProfile) (Assessment, error) {
	if !vendor.SubjectToPPh23 {
		return Assessment{}, nil
	}
	if strings.TrimSpace(vendor.NPWP) == "" {
		return Assessment{}, &RuleError{Code: CodeMissingNPWP, Detail: "vendor is subject to PPh 23 but has no NPWP on record"}
	}
	rate := vendor.PPh23RatePercent
	if rate <= 0 {
		rate = DefaultWithholdingRatePercent
	}
	return Assessment{WithholdingPercent: rate, WithholdingApplicable: true}, nil
}

// AssessReceipt decides PPh 23 withheld by a client settling a service
// invoice. The withheld portion becomes a prepaid tax asset, not income.
func AssessReceipt(client CounterpartyProfile) (Assessment, error) {
	if !client.WithholdsPPh23 {
		return Assessment{}, nil
	}
	rate := client.PPh23RatePercent
	if rate <= 0 {
		rate = DefaultWithholdingRatePercent
	}
	return Assessment{WithholdingPercent: rate, WithholdingApplicable: true}, nil
}

// Amount computes a whole-rupiah tax figure from a subtotal and a percentage
// rate. Rounding happens exactly once, half-up on the final figure.
func Amount(subtotal int64, ratePercent float64) int64 {
	if subtotal == 0 || ratePercent == 0 {
		return 0
	}
	amt := decimal.NewFromInt(subtotal).
		Mul(decimal.NewFromFloat(ratePercent)).
		Div(decimal.NewFromInt(100)).
		Round(0)
	return amt.IntPart()
}

// ProportionalAmount computes a whole-rupiah tax figure on the share of
// amount attributable to part/whole. Used to pro-rate the withholding base
// (DPP) across partial payments; rounding still happens exactly once.
func ProportionalAmount(amount, part, whole int64, ratePercent float64) int64 {
	if amount == 0 || part == 0 || whole == 0 || ratePercent == 0 {
		return 0
	}
	amt := decimal.NewFromInt(amount).
		Mul(decimal.NewFromInt(part)).
		Div(decimal.NewFromInt(whole)).
		Mul(decimal.NewFromFloat(ratePercent)).
		Div(decimal.NewFromInt(100)).
		Round(0)
	return amt.IntPart()
}

// VATAmount returns the PPN figure for the assessment, zero when inapplicable.
func (a Assessment) VATAmount(subtotal int64) int64 {
	if !a.VATApplicable {
		return 0
	}
	return Amount(subtotal, a.VATRatePercent)
}

// WithholdingAmount returns the PPh 23 figure, computed on the bill subtotal
// before VAT, zero when inapplicable.
func (a Assessment) WithholdingAmount(subtotalBeforeVAT int64) int64 {
	if !a.WithholdingApplicable {
		return 0
	}
	return Amount(subtotalBeforeVAT, a.WithholdingPercent)
}
