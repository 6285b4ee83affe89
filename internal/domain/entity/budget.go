package entity

import "github.com/shopspring/decimal"

// BudgetInfo represents a budget with actual and forecasted spend.
type BudgetInfo struct {
	Name     string          `json:"name"`
	Limit    decimal.Decimal `json:"limit"`
	Actual   decimal.Decimal `json:"actual"`
	Forecast decimal.Decimal `json:"forecast"`
}

// Exceeded reports whether actual spend is above the budget limit.
func (b BudgetInfo) Exceeded() bool {
	return b.Limit.IsPositive() && b.Actual.GreaterThan(b.Limit)
}
