package entity

import (
	"sort"
	"time"

	"github.com/shopspring/decimal"
)

// UsageTypeSummary is the total cost of one usage type within one service.
type UsageTypeSummary struct {
	UsageType string          `json:"usage_type"`
	Amount    decimal.Decimal `json:"amount"`
}

// DailyCost is the cost of one service on one day.
type DailyCost struct {
	Date   time.Time       `json:"date"`
	Amount decimal.Decimal `json:"amount"`
}

// ServiceSummary aggregates every retained cost of one service over the period.
// Percentage keeps full precision; presenters round it.
type ServiceSummary struct {
	Service    string             `json:"service"`
	Amount     decimal.Decimal    `json:"amount"`
	Percentage decimal.Decimal    `json:"percentage"`
	UsageTypes []UsageTypeSummary `json:"usage_types"`
	Daily      []DailyCost        `json:"daily"`
}

// Report is the aggregated, filtered and sorted view consumed by the presenters.
type Report struct {
	Period    Period           `json:"period"`
	AccountID string           `json:"account_id,omitempty"`
	Currency  string           `json:"currency"`
	Total     decimal.Decimal  `json:"total"`
	Services  []ServiceSummary `json:"services"`
	Budgets   []BudgetInfo     `json:"budgets,omitempty"`
}

// IsEmpty reports whether no service survived aggregation.
func (r *Report) IsEmpty() bool {
	return len(r.Services) == 0
}

// DailyTotals sums the per-service daily series into one series ordered by date.
func (r *Report) DailyTotals() []DailyCost {
	byDate := make(map[time.Time]decimal.Decimal)
	var dates []time.Time
	for _, svc := range r.Services {
		for _, d := range svc.Daily {
			if _, ok := byDate[d.Date]; !ok {
				dates = append(dates, d.Date)
			}
			byDate[d.Date] = byDate[d.Date].Add(d.Amount)
		}
	}

	sort.Slice(dates, func(i, j int) bool {
		return dates[i].Before(dates[j])
	})

	totals := make([]DailyCost, 0, len(dates))
	for _, date := range dates {
		totals = append(totals, DailyCost{Date: date, Amount: byDate[date]})
	}
	return totals
}

// Share returns part as a percentage of the service amount (0 when the service is empty).
func (s ServiceSummary) Share(part decimal.Decimal) decimal.Decimal {
	if !s.Amount.IsPositive() {
		return decimal.Zero
	}
	return part.Mul(decimal.NewFromInt(100)).Div(s.Amount)
}
