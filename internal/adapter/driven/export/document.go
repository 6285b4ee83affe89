package export

import (
	"encoding/json"
	"io"

	"github.com/diillson/aws-cost-report-go/internal/domain/entity"
	"github.com/shopspring/decimal"
)

// ReportDocument é a representação JSON de um relatório de custos. Valores monetários
// e porcentagens são números com exatamente duas casas decimais.
type ReportDocument struct {
	Period    PeriodDocument    `json:"period"`
	AccountID string            `json:"account_id,omitempty"`
	Currency  string            `json:"currency"`
	TotalCost json.Number       `json:"total_cost"`
	Services  []ServiceDocument `json:"services"`
	Budgets   []BudgetDocument  `json:"budgets,omitempty"`
}

type PeriodDocument struct {
	Start string `json:"start"`
	End   string `json:"end"`
}

type ServiceDocument struct {
	Name       string              `json:"name"`
	Cost       json.Number         `json:"cost"`
	Percentage json.Number         `json:"percentage"`
	UsageTypes []UsageTypeDocument `json:"usage_types"`
	DailyCosts []DailyDocument     `json:"daily_costs"`
}

type UsageTypeDocument struct {
	Type string      `json:"type"`
	Cost json.Number `json:"cost"`
}

type DailyDocument struct {
	Date string      `json:"date"`
	Cost json.Number `json:"cost"`
}

type BudgetDocument struct {
	Name     string      `json:"name"`
	Limit    json.Number `json:"limit"`
	Actual   json.Number `json:"actual"`
	Forecast json.Number `json:"forecast"`
	Exceeded bool        `json:"exceeded"`
}

// NewReportDocument converte o relatório para o documento JSON.
func NewReportDocument(report *entity.Report) ReportDocument {
	doc := ReportDocument{
		Period: PeriodDocument{
			Start: report.Period.Start.Format(entity.DateLayout),
			End:   report.Period.End.Format(entity.DateLayout),
		},
		AccountID: report.AccountID,
		Currency:  report.Currency,
		TotalCost: fixed(report.Total),
		Services:  make([]ServiceDocument, 0, len(report.Services)),
	}

	for _, svc := range report.Services {
		sd := ServiceDocument{
			Name:       svc.Service,
			Cost:       fixed(svc.Amount),
			Percentage: fixed(svc.Percentage),
			UsageTypes: make([]UsageTypeDocument, 0, len(svc.UsageTypes)),
			DailyCosts: make([]DailyDocument, 0, len(svc.Daily)),
		}
		for _, u := range svc.UsageTypes {
			sd.UsageTypes = append(sd.UsageTypes, UsageTypeDocument{Type: u.UsageType, Cost: fixed(u.Amount)})
		}
		for _, d := range svc.Daily {
			sd.DailyCosts = append(sd.DailyCosts, DailyDocument{Date: d.Date.Format(entity.DateLayout), Cost: fixed(d.Amount)})
		}
		doc.Services = append(doc.Services, sd)
	}

	for _, b := range report.Budgets {
		doc.Budgets = append(doc.Budgets, BudgetDocument{
			Name:     b.Name,
			Limit:    fixed(b.Limit),
			Actual:   fixed(b.Actual),
			Forecast: fixed(b.Forecast),
			Exceeded: b.Exceeded(),
		})
	}

	return doc
}

// WriteJSON escreve o documento do relatório em w.
func WriteJSON(w io.Writer, report *entity.Report, indent bool) error {
	encoder := json.NewEncoder(w)
	if indent {
		encoder.SetIndent("", "  ")
	}
	return encoder.Encode(NewReportDocument(report))
}

func fixed(d decimal.Decimal) json.Number {
	return json.Number(d.StringFixed(2))
}
