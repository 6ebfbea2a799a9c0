// Package partners holds the counterparty master data consumed by the tax
// rule evaluator and the document translators.
package partners

import (
	"time"

	"github.com/gemilang-erp/gemilang-erp/internal/tax"
)

// DefaultPaymentTermsDays applies when a counterparty carries no terms.
const DefaultPaymentTermsDays = 30

// Vendor represents a supplier with its Indonesian tax attributes.
type Vendor struct {
	ID                  int64
	Name                string
	NPWP                string
	ProvidesFakturPajak bool
	SubjectToPPh23      bool
	PPh23RatePercent    float64
	PaymentTermsDays    int
	IsActive            bool
	CreatedAt           time.Time
	UpdatedAt           time.Time
}

// TaxProfile adapts the vendor record for the tax rule evaluator.
func (v Vendor) TaxProfile() tax.CounterpartyProfile {
	return tax.CounterpartyProfile{
		NPWP:                v.NPWP,
		ProvidesFakturPajak: v.ProvidesFakturPajak,
		SubjectToPPh23:      v.SubjectToPPh23,
		PPh23RatePercent:    v.PPh23RatePercent,
	}
}

// DueDate derives a document due date from its issue date and the vendor's
// payment terms.
func (v Vendor) DueDate(date time.Time) time.Time {
	return dueDate(date, v.PaymentTermsDays)
}

// Client represents a customer.
type Client struct {
	ID               int64
	Name             string
	NPWP             string
	WithholdsPPh23   bool
	PaymentTermsDays int
	IsActive         bool
	CreatedAt        time.Time
	UpdatedAt        time.Time
}

// TaxProfile adapts the client record for the tax rule evaluator.
func (c Client) TaxProfile() tax.CounterpartyProfile {
	return tax.CounterpartyProfile{
		NPWP:           c.NPWP,
		WithholdsPPh23: c.WithholdsPPh23,
	}
}

// DueDate derives a document due date from its issue date and the client's
// payment terms.
func (c Client) DueDate(date time.Time) time.Time {
	return dueDate(date, c.PaymentTermsDays)
}

func dueDate(date time.Time, termsDays int) time.Time {
	if termsDays <= 0 {
		termsDays = DefaultPaymentTermsDays
	}
	return date.AddDate(0, 0, termsDays)
}
