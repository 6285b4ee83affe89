package entity

import (
	"time"

	"github.com/shopspring/decimal"
)

// DateLayout is the calendar-date format used by Cost Explorer and by every report output.
const DateLayout = "2006-01-02"

// RawRecord is one billing line item as returned by the cost API, already mapped
// from the provider's response shape.
type RawRecord struct {
	Date      time.Time       `json:"date"`
	Service   string          `json:"service"`
	UsageType string          `json:"usage_type"`
	Amount    decimal.Decimal `json:"amount"`
}

// Period is the half-open date range [Start, End) of a cost query.
type Period struct {
	Start time.Time `json:"start"`
	End   time.Time `json:"end"`
}

// NewPeriodFromDays builds the period that ends today and starts days before it.
func NewPeriodFromDays(today time.Time, days int) Period {
	end := time.Date(today.Year(), today.Month(), today.Day(), 0, 0, 0, 0, time.UTC)
	return Period{
		Start: end.AddDate(0, 0, -days),
		End:   end,
	}
}

// String formats the period for display, e.g. "2024-01-01 to 2024-01-31".
func (p Period) String() string {
	return p.Start.Format(DateLayout) + " to " + p.End.Format(DateLayout)
}
