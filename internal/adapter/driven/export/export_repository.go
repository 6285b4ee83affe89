package export

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/diillson/aws-cost-report-go/internal/domain/entity"
	"github.com/diillson/aws-cost-report-go/internal/domain/repository"
	"github.com/diillson/aws-cost-report-go/internal/shared/types"
	"github.com/jung-kurt/gofpdf"
)

// ExportRepositoryImpl implementa o ExportRepository.
type ExportRepositoryImpl struct {
	now func() time.Time
}

// NewExportRepository cria uma nova implementação do ExportRepository.
func NewExportRepository() repository.ExportRepository {
	return &ExportRepositoryImpl{now: time.Now}
}

func (r *ExportRepositoryImpl) ExportToCSV(report *entity.Report, filename, outputDir string) (string, error) {
	outputFilename, err := r.generateFilename(filename, outputDir, "csv")
	if err != nil {
		return "", err
	}

	file, err := os.Create(outputFilename)
	if err != nil {
		return "", fmt.Errorf("error creating CSV file: %w", err)
	}
	defer file.Close()

	writer := csv.NewWriter(file)

	headers := []string{
		"Period Start", "Period End", "Service", "Usage Type",
		fmt.Sprintf("Cost (%s)", currencyOf(report)), "% of Total", "% of Service",
	}
	if err := writer.Write(headers); err != nil {
		return "", fmt.Errorf("error writing CSV header: %w", err)
	}

	start := report.Period.Start.Format(entity.DateLayout)
	end := report.Period.End.Format(entity.DateLayout)

	for _, svc := range report.Services {
		rows := [][]string{{start, end, svc.Service, "", svc.Amount.StringFixed(2), svc.Percentage.StringFixed(2), "100.00"}}
		for _, u := range svc.UsageTypes {
			rows = append(rows, []string{
				start, end, svc.Service, u.UsageType,
				u.Amount.StringFixed(2), "", svc.Share(u.Amount).StringFixed(2),
			})
		}
		if err := writer.WriteAll(rows); err != nil {
			return "", fmt.Errorf("error writing CSV rows: %w", err)
		}
	}

	totalPct := "0.00"
	if !report.IsEmpty() {
		totalPct = "100.00"
	}
	if err := writer.Write([]string{start, end, "Total", "", report.Total.StringFixed(2), totalPct, ""}); err != nil {
		return "", fmt.Errorf("error writing CSV total: %w", err)
	}

	writer.Flush()
	if err := writer.Error(); err != nil {
		return "", fmt.Errorf("error flushing CSV file: %w", err)
	}

	return filepath.Abs(outputFilename)
}

func (r *ExportRepositoryImpl) ExportToJSON(report *entity.Report, filename, outputDir string) (string, error) {
	outputFilename, err := r.generateFilename(filename, outputDir, "json")
	if err != nil {
		return "", err
	}

	file, err := os.Create(outputFilename)
	if err != nil {
		return "", fmt.Errorf("error creating JSON file: %w", err)
	}
	defer file.Close()

	if err := WriteJSON(file, report, true); err != nil {
		return "", fmt.Errorf("error encoding JSON data: %w", err)
	}

	return filepath.Abs(outputFilename)
}

// WriteJSON escreve o documento JSON do relatório, indentado, em w.
func (r *ExportRepositoryImpl) WriteJSON(w io.Writer, report *entity.Report) error {
	return WriteJSON(w, report, true)
}

func (r *ExportRepositoryImpl) ExportToPDF(report *entity.Report, filename, outputDir string) (string, error) {
	outputFilename, err := r.generateFilename(filename, outputDir, "pdf")
	if err != nil {
		return "", err
	}

	pdf := gofpdf.New("P", "mm", "A4", "")
	tr := pdf.UnicodeTranslatorFromDescriptor("")
	currency := currencyOf(report)

	headerColor := [3]int{40, 40, 40}
	headerTextColor := [3]int{255, 255, 255}
	sectionTitleColor := [3]int{0, 0, 0}
	bodyTextColor := [3]int{50, 50, 50}
	lineColor := [3]int{200, 200, 200}

	pdf.SetFooterFunc(func() {
		pdf.SetY(-15)
		pdf.SetFont("Arial", "I", 8)
		pdf.SetTextColor(128, 128, 128)
		footerText := fmt.Sprintf("Generated by AWS Cost Report (Go) | %s", r.now().Format(entity.DateLayout))
		pdf.CellFormat(0, 10, tr(footerText), "", 0, "L", false, 0, "")
		pdf.CellFormat(0, 10, tr(fmt.Sprintf("Page %d", pdf.PageNo())), "", 0, "R", false, 0, "")
	})

	sectionTitle := func(title string) {
		pdf.SetFont("Arial", "B", 12)
		pdf.SetTextColor(sectionTitleColor[0], sectionTitleColor[1], sectionTitleColor[2])
		pdf.Cell(0, 8, tr(title))
		pdf.Ln(7)
		pdf.SetDrawColor(lineColor[0], lineColor[1], lineColor[2])
		pdf.Line(pdf.GetX(), pdf.GetY(), pdf.GetX()+190, pdf.GetY())
		pdf.Ln(4)
	}

	// tabela de três colunas: nome, custo, porcentagem
	drawTable := func(headers [3]string, rows [][3]string) {
		widths := [3]float64{120, 40, 30}
		pdf.SetFont("Arial", "B", 10)
		pdf.SetTextColor(bodyTextColor[0], bodyTextColor[1], bodyTextColor[2])
		for i, h := range headers {
			align := "R"
			if i == 0 {
				align = "L"
			}
			pdf.CellFormat(widths[i], 7, tr(h), "B", 0, align, false, 0, "")
		}
		pdf.Ln(-1)

		pdf.SetFont("Arial", "", 9)
		for _, row := range rows {
			name := row[0]
			if len(name) > 70 {
				name = name[:67] + "..."
			}
			pdf.CellFormat(widths[0], 6, tr(name), "", 0, "L", false, 0, "")
			pdf.CellFormat(widths[1], 6, tr(row[1]), "", 0, "R", false, 0, "")
			pdf.CellFormat(widths[2], 6, tr(row[2]), "", 1, "R", false, 0, "")
		}
		pdf.Ln(8)
	}

	pdf.AddPage()

	pdf.SetFillColor(headerColor[0], headerColor[1], headerColor[2])
	pdf.SetTextColor(headerTextColor[0], headerTextColor[1], headerTextColor[2])
	pdf.SetFont("Arial", "B", 14)
	pdf.CellFormat(0, 12, tr("  AWS Cost Report"), "", 1, "L", true, 0, "")

	pdf.SetFont("Arial", "", 10)
	pdf.SetFillColor(240, 240, 240)
	pdf.SetTextColor(bodyTextColor[0], bodyTextColor[1], bodyTextColor[2])
	accountID := report.AccountID
	if accountID == "" {
		accountID = "Unknown"
	}
	pdf.CellFormat(0, 8, tr(fmt.Sprintf("  Account ID: %s    Period: %s", accountID, report.Period)), "", 1, "L", true, 0, "")
	pdf.Ln(10)

	sectionTitle("Cost Summary")
	pdf.SetFont("Arial", "B", 16)
	pdf.CellFormat(0, 12, tr(types.FormatMoney(report.Total, currency)), "", 1, "L", false, 0, "")
	pdf.Ln(6)

	if report.IsEmpty() {
		pdf.SetFont("Arial", "", 10)
		pdf.Cell(0, 8, tr("No cost data found for this period."))
	} else {
		sectionTitle("Services Overview")
		rows := make([][3]string, 0, len(report.Services)+1)
		for _, svc := range report.Services {
			rows = append(rows, [3]string{svc.Service, types.FormatMoney(svc.Amount, currency), types.FormatPercent(svc.Percentage)})
		}
		rows = append(rows, [3]string{"Total", types.FormatMoney(report.Total, currency), "100.00%"})
		drawTable([3]string{"Service", "Cost", "% of Total"}, rows)

		for _, svc := range report.Services {
			sectionTitle(fmt.Sprintf("%s Usage Types", svc.Service))
			usageRows := make([][3]string, 0, len(svc.UsageTypes))
			for _, u := range svc.UsageTypes {
				usageRows = append(usageRows, [3]string{u.UsageType, types.FormatMoney(u.Amount, currency), types.FormatPercent(svc.Share(u.Amount))})
			}
			drawTable([3]string{"Usage Type", "Cost", "% of Service"}, usageRows)
		}
	}

	if len(report.Budgets) > 0 {
		sectionTitle("Budget Status")
		rows := make([][3]string, 0, len(report.Budgets))
		for _, b := range report.Budgets {
			status := "OK"
			if b.Exceeded() {
				status = "EXCEEDED"
			}
			rows = append(rows, [3]string{
				b.Name,
				fmt.Sprintf("%s / %s", types.FormatMoney(b.Actual, currency), types.FormatMoney(b.Limit, currency)),
				status,
			})
		}
		drawTable([3]string{"Budget", "Actual / Limit", "Status"}, rows)
	}

	if err := pdf.OutputFileAndClose(outputFilename); err != nil {
		return "", fmt.Errorf("error writing PDF file: %w", err)
	}

	return filepath.Abs(outputFilename)
}

// --- Funções Auxiliares ---

// generateFilename cria um nome de arquivo único com timestamp e garante que o diretório exista.
func (r *ExportRepositoryImpl) generateFilename(base, dir, ext string) (string, error) {
	if dir == "" {
		cwd, err := os.Getwd()
		if err != nil {
			return "", fmt.Errorf("could not get current working directory: %w", err)
		}
		dir = cwd
	}
	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", fmt.Errorf("error creating output directory '%s': %w", dir, err)
	}
	timestamp := r.now().Format("20060102_150405")
	filename := fmt.Sprintf("%s_%s.%s", base, timestamp, ext)
	return filepath.Join(dir, filename), nil
}

func currencyOf(report *entity.Report) string {
	if report.Currency == "" {
		return "USD"
	}
	return report.Currency
}
