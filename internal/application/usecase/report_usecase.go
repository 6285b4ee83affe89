package usecase

import (
	"context"
	"fmt"
	"io"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/diillson/aws-cost-report-go/internal/domain/entity"
	"github.com/diillson/aws-cost-report-go/internal/domain/repository"
	"github.com/diillson/aws-cost-report-go/internal/shared/types"
)

// Tipos de relatório aceitos por --report-type.
const (
	ReportTypeCSV  = "csv"
	ReportTypeJSON = "json"
	ReportTypePDF  = "pdf"
)

const defaultCurrency = "USD"

// ReportUseCase busca, agrega e apresenta o relatório de custos.
type ReportUseCase struct {
	costRepo   repository.CostRepository
	exportRepo repository.ExportRepository
	console    types.ConsoleInterface
	out        io.Writer
	now        func() time.Time
	options    AggregateOptions
}

// NewReportUseCase creates a new report use case. The JSON document is written to out.
func NewReportUseCase(
	costRepo repository.CostRepository,
	exportRepo repository.ExportRepository,
	console types.ConsoleInterface,
	out io.Writer,
) *ReportUseCase {
	return &ReportUseCase{
		costRepo:   costRepo,
		exportRepo: exportRepo,
		console:    console,
		out:        out,
		now:        time.Now,
		options:    DefaultAggregateOptions(),
	}
}

// ValidateArgs verifica os argumentos antes de qualquer chamada à AWS.
func (uc *ReportUseCase) ValidateArgs(args *types.CLIArgs) error {
	if args.Days <= 0 {
		return types.NewUsageError("--days must be a positive integer, got %d", args.Days)
	}

	for _, reportType := range args.ReportType {
		switch strings.ToLower(reportType) {
		case ReportTypeCSV, ReportTypeJSON, ReportTypePDF:
		default:
			return &types.UsageError{
				Msg: fmt.Sprintf("invalid --report-type %q (expected csv, json or pdf)", reportType),
				Err: types.ErrUnsupportedReport,
			}
		}
	}

	if args.Profile != "" {
		available := uc.costRepo.GetAWSProfiles()
		for _, profile := range available {
			if profile == args.Profile {
				return nil
			}
		}
		return types.NewUsageError("profile '%s' not found in AWS configuration (available: %s)",
			args.Profile, strings.Join(available, ", "))
	}

	return nil
}

// RunReport executa o fluxo completo: busca, agregação, apresentação e exportação.
func (uc *ReportUseCase) RunReport(ctx context.Context, args *types.CLIArgs) error {
	if err := uc.ValidateArgs(args); err != nil {
		return err
	}

	period := entity.NewPeriodFromDays(uc.now(), args.Days)

	status := uc.console.Status(fmt.Sprintf("Fetching AWS cost data for %s...", period))
	report, err := uc.BuildReport(ctx, period, args)
	status.Stop()
	if err != nil {
		return err
	}

	if args.JSON {
		if err := uc.exportRepo.WriteJSON(uc.out, report); err != nil {
			return fmt.Errorf("writing JSON report: %w", err)
		}
	} else {
		uc.presentTable(report, !args.NoChart)
	}

	uc.exportReport(report, args)
	return nil
}

// BuildReport busca os registros, a conta e os orçamentos em paralelo e agrega o resultado.
// Só a falha da consulta de custos interrompe o relatório.
func (uc *ReportUseCase) BuildReport(ctx context.Context, period entity.Period, args *types.CLIArgs) (*entity.Report, error) {
	var (
		records   []entity.RawRecord
		currency  string
		accountID string
		budgets   []entity.BudgetInfo
	)

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		recs, cur, err := uc.costRepo.GetCostRecords(gctx, period, args.Tag)
		if err != nil {
			return err
		}
		records, currency = recs, cur
		return nil
	})

	g.Go(func() error {
		id, err := uc.costRepo.GetAccountID(gctx)
		if err != nil {
			if gctx.Err() == nil {
				uc.console.LogWarning("Could not determine AWS account ID: %s", err)
			}
			return nil
		}
		accountID = id

		if !args.Budgets {
			return nil
		}
		b, err := uc.costRepo.GetBudgets(gctx, id)
		if err != nil {
			if gctx.Err() == nil {
				uc.console.LogWarning("Could not load budgets for account %s: %s", id, err)
			}
			return nil
		}
		budgets = b
		return nil
	})

	if err := g.Wait(); err != nil {
		return nil, err
	}

	report, err := Aggregate(records, period, uc.options)
	if err != nil {
		return nil, err
	}

	if currency == "" {
		currency = defaultCurrency
	}
	report.Currency = currency
	report.AccountID = accountID
	report.Budgets = budgets

	return report, nil
}

func (uc *ReportUseCase) exportReport(report *entity.Report, args *types.CLIArgs) {
	if args.ReportName == "" {
		return
	}

	reportTypes := args.ReportType
	if len(reportTypes) == 0 {
		reportTypes = []string{ReportTypeCSV}
	}

	for _, reportType := range reportTypes {
		switch strings.ToLower(reportType) {
		case ReportTypeCSV:
			csvPath, err := uc.exportRepo.ExportToCSV(report, args.ReportName, args.Dir)
			if err != nil {
				uc.console.LogError("Failed to export to CSV: %s", err)
			} else {
				uc.console.LogSuccess("Successfully exported to CSV: %s", csvPath)
			}
		case ReportTypeJSON:
			jsonPath, err := uc.exportRepo.ExportToJSON(report, args.ReportName, args.Dir)
			if err != nil {
				uc.console.LogError("Failed to export to JSON: %s", err)
			} else {
				uc.console.LogSuccess("Successfully exported to JSON: %s", jsonPath)
			}
		case ReportTypePDF:
			pdfPath, err := uc.exportRepo.ExportToPDF(report, args.ReportName, args.Dir)
			if err != nil {
				uc.console.LogError("Failed to export to PDF: %s", err)
			} else {
				uc.console.LogSuccess("Successfully exported to PDF: %s", pdfPath)
			}
		}
	}
}
