package usecase

import (
	"fmt"

	"github.com/pterm/pterm"

	"github.com/diillson/aws-cost-report-go/internal/domain/entity"
	"github.com/diillson/aws-cost-report-go/internal/shared/types"
)

// presentTable renderiza o relatório em modo tabela.
func (uc *ReportUseCase) presentTable(report *entity.Report, showChart bool) {
	accountID := report.AccountID
	if accountID == "" {
		accountID = "Unknown"
	}

	uc.console.DisplayPanel("AWS Cost Explorer", []string{
		"AWS Cost Analysis",
		fmt.Sprintf("Period: %s", report.Period),
		fmt.Sprintf("Account: %s", accountID),
		fmt.Sprintf("Total Cost: %s", types.FormatMoney(report.Total, report.Currency)),
	})

	if report.IsEmpty() {
		uc.console.LogWarning("No cost data found for %s", report.Period)
		uc.presentBudgets(report)
		return
	}

	overview := uc.console.CreateTable("Services Overview")
	overview.AddColumn("Service")
	overview.AddColumn("Cost")
	overview.AddColumn("% of Total")
	for _, svc := range report.Services {
		overview.AddRow(svc.Service, types.FormatMoney(svc.Amount, report.Currency), types.FormatPercent(svc.Percentage))
	}
	overview.AddRow(
		pterm.Bold.Sprint("Total"),
		pterm.Bold.Sprint(types.FormatMoney(report.Total, report.Currency)),
		pterm.Bold.Sprint("100.00%"),
	)
	uc.console.Println(overview.Render())

	uc.console.DisplayPanel("Breakdown", []string{"Detailed Cost Breakdown by Service"})

	for _, svc := range report.Services {
		table := uc.console.CreateTable(fmt.Sprintf("%s Usage Types", svc.Service))
		table.AddColumn("Usage Type")
		table.AddColumn("Cost")
		table.AddColumn("% of Service")
		for _, usage := range svc.UsageTypes {
			table.AddRow(usage.UsageType, types.FormatMoney(usage.Amount, report.Currency), types.FormatPercent(svc.Share(usage.Amount)))
		}
		uc.console.Println(table.Render())
	}

	if showChart {
		uc.console.DisplayDailyChart(dailyPoints(report))
	}

	uc.presentBudgets(report)
}

func (uc *ReportUseCase) presentBudgets(report *entity.Report) {
	if len(report.Budgets) == 0 {
		return
	}

	table := uc.console.CreateTable("Budgets")
	table.AddColumn("Budget")
	table.AddColumn("Limit")
	table.AddColumn("Actual")
	table.AddColumn("Forecast")
	table.AddColumn("Status")
	for _, b := range report.Budgets {
		status := pterm.Green("OK")
		if b.Exceeded() {
			status = pterm.Red("EXCEEDED")
		}
		table.AddRow(
			b.Name,
			types.FormatMoney(b.Limit, report.Currency),
			types.FormatMoney(b.Actual, report.Currency),
			types.FormatMoney(b.Forecast, report.Currency),
			status,
		)
	}
	uc.console.Println(table.Render())
}

func dailyPoints(report *entity.Report) []types.DailyPoint {
	totals := report.DailyTotals()
	points := make([]types.DailyPoint, 0, len(totals))
	for _, day := range totals {
		points = append(points, types.DailyPoint{
			Date: day.Date.Format(entity.DateLayout),
			Cost: day.Amount.InexactFloat64(),
		})
	}
	return points
}
