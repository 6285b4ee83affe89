package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/diillson/aws-cost-report-go/internal/adapter/driven/aws"
	"github.com/diillson/aws-cost-report-go/internal/adapter/driven/config"
	"github.com/diillson/aws-cost-report-go/internal/adapter/driven/export"
	"github.com/diillson/aws-cost-report-go/internal/adapter/driving/cli"
	"github.com/diillson/aws-cost-report-go/internal/application/usecase"
	"github.com/diillson/aws-cost-report-go/internal/shared/types"
	"github.com/diillson/aws-cost-report-go/pkg/console"
	"github.com/diillson/aws-cost-report-go/pkg/version"
)

func main() {
	// Carrega o .env antes de o SDK resolver AWS_PROFILE/AWS_REGION
	configRepo := config.NewConfigRepository()
	if err := configRepo.LoadEnv(); err != nil {
		fmt.Fprintf(os.Stderr, "Warning: %v\n", err)
	}

	// Relatório no stdout; logs e spinner no stderr
	consoleImpl := console.NewConsoleWithWriters(os.Stdout, os.Stderr)
	exportRepo := export.NewExportRepository()

	app := cli.NewCLIApp(version.Version, configRepo, func(args *types.CLIArgs) cli.ReportRunner {
		return usecase.NewReportUseCase(
			aws.NewAWSRepository(args.Profile),
			exportRepo,
			consoleImpl,
			os.Stdout,
		)
	})

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err := app.Execute(ctx)
	stop()

	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(cli.ExitCode(err))
	}
}
