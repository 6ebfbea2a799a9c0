package reports

import (
	"sort"
	"time"
)

// AgingBuckets splits an outstanding total by days past due. Documents not
// yet due sit in the first bucket.
type AgingBuckets struct {
	Days0to30  int64 `json:"days_0_30"`
	Days31to60 int64 `json:"days_31_60"`
	Days61to90 int64 `json:"days_61_90"`
	DaysOver90 int64 `json:"days_over_90"`
	Total      int64 `json:"total"`
}

func (b *AgingBuckets) add(daysOverdue int, amount int64) {
	switch {
	case daysOverdue <= 30:
		b.Days0to30 += amount
	case daysOverdue <= 60:
		b.Days31to60 += amount
	case daysOverdue <= 90:
		b.Days61to90 += amount
	default:
		b.DaysOver90 += amount
	}
	b.Total += amount
}

// AgingRow is one counterparty's outstanding exposure.
type AgingRow struct {
	PartnerID   int64  `json:"partner_id"`
	PartnerName string `json:"partner_name"`
	AgingBuckets
}

// Aging is the AP or AR aging report as of a date.
type Aging struct {
	AsOf  time.Time    `json:"as_of"`
	Rows  []AgingRow   `json:"rows"`
	Total AgingBuckets `json:"total"`
}

// BuildAging distributes outstanding documents into buckets by days past
// their due date, grouped by counterparty.
func BuildAging(asOf time.Time, docs []OutstandingDoc) Aging {
	aging := Aging{AsOf: asOf}
	byPartner := make(map[int64]*AgingRow)
	for _, doc := range docs {
		if doc.Outstanding <= 0 {
			continue
		}
		row, ok := byPartner[doc.PartnerID]
		if !ok {
			row = &AgingRow{PartnerID: doc.PartnerID, PartnerName: doc.PartnerName}
			byPartner[doc.PartnerID] = row
		}
		daysOverdue := int(asOf.Sub(doc.DueDate).Hours() / 24)
		if daysOverdue < 0 {
			daysOverdue = 0
		}
		row.add(daysOverdue, doc.Outstanding)
		aging.Total.add(daysOverdue, doc.Outstanding)
	}
	for _, row := range byPartner {
		aging.Rows = append(aging.Rows, *row)
	}
	sort.Slice(aging.Rows, func(i, j int) bool { return aging.Rows[i].PartnerName < aging.Rows[j].PartnerName })
	return aging
}
