package repository

import (
	"context"

	"github.com/diillson/aws-cost-report-go/internal/domain/entity"
)

// CostRepository defines the interface for billing API interactions.
type CostRepository interface {
	GetAWSProfiles() []string

	// GetCostRecords returns the raw daily cost records of the period and the currency
	// they are expressed in.
	GetCostRecords(ctx context.Context, period entity.Period, tags []string) ([]entity.RawRecord, string, error)
	GetAccountID(ctx context.Context) (string, error)
	GetBudgets(ctx context.Context, accountID string) ([]entity.BudgetInfo, error)
}
