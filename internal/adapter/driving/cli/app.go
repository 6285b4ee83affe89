package cli

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strconv"

	"github.com/diillson/aws-cost-report-go/pkg/version"

	"github.com/diillson/aws-cost-report-go/internal/domain/repository"
	"github.com/diillson/aws-cost-report-go/internal/shared/types"
	"github.com/spf13/cobra"
)

// DaysEnvVar sets the default look-back window when --days is not given.
const DaysEnvVar = "AWS_COST_DAYS"

const defaultDays = 30

// Códigos de saída do processo.
const (
	ExitOK    = 0
	ExitError = 1
	ExitUsage = 2
)

// ReportRunner executa o relatório de custos para os argumentos já resolvidos.
type ReportRunner interface {
	RunReport(ctx context.Context, args *types.CLIArgs) error
}

// RunnerFactory cria o runner depois que os argumentos (e o perfil AWS) são conhecidos.
type RunnerFactory func(args *types.CLIArgs) ReportRunner

// CLIApp represents the command-line interface application.
type CLIApp struct {
	rootCmd    *cobra.Command
	configRepo repository.ConfigRepository
	newRunner  RunnerFactory
	version    string
}

// NewCLIApp cria uma nova aplicação CLI.
func NewCLIApp(versionStr string, configRepo repository.ConfigRepository, newRunner RunnerFactory) *CLIApp {
	app := &CLIApp{
		configRepo: configRepo,
		newRunner:  newRunner,
		version:    versionStr,
	}

	rootCmd := &cobra.Command{
		Use:           "aws-cost",
		Short:         "AWS cost report by service and usage type",
		Version:       version.FormatVersion(),
		Args:          noPositionalArgs,
		RunE:          app.runCommand,
		SilenceErrors: true,
		SilenceUsage:  true,
	}

	rootCmd.SetVersionTemplate(`{{printf "AWS Cost Report version: %s\n" .Version}}`)
	rootCmd.SetFlagErrorFunc(func(_ *cobra.Command, err error) error {
		return &types.UsageError{Msg: "invalid arguments", Err: err}
	})

	flags := rootCmd.Flags()
	flags.Bool("json", false, "Print the report as a JSON document instead of tables")
	flags.IntP("days", "t", defaultDays, "Number of days to look back from today")
	flags.StringP("profile", "p", "", "AWS profile to use (default: ambient credentials)")
	flags.StringSliceP("tag", "g", nil, "Cost allocation tag to filter costs, e.g., --tag Team=DevOps")
	flags.Bool("budgets", false, "Include budget status for the account")
	flags.Bool("no-chart", false, "Do not draw the daily cost chart")
	flags.StringP("config-file", "C", "", "Path to a TOML, YAML, or JSON configuration file")
	flags.StringP("report-name", "n", "", "Base name for exported report files (without extension)")
	flags.StringSliceP("report-type", "y", []string{"csv"}, "Export report types: csv, json, pdf")
	flags.StringP("dir", "d", "", "Directory to save the report files (default: current directory)")

	app.rootCmd = rootCmd
	return app
}

// Execute runs the CLI application.
func (app *CLIApp) Execute(ctx context.Context) error {
	return app.rootCmd.ExecuteContext(ctx)
}

// SetArgs substitui os argumentos da linha de comando (usado em testes).
func (app *CLIApp) SetArgs(args []string) {
	app.rootCmd.SetArgs(args)
}

// ExitCode maps an error returned by Execute to the process exit code.
func ExitCode(err error) int {
	if err == nil {
		return ExitOK
	}
	var usageErr *types.UsageError
	if errors.As(err, &usageErr) {
		return ExitUsage
	}
	return ExitError
}

func noPositionalArgs(_ *cobra.Command, args []string) error {
	if len(args) > 0 {
		return types.NewUsageError("unexpected arguments: %v", args)
	}
	return nil
}

// parseArgs lê as flags do comando em um CLIArgs.
func (app *CLIApp) parseArgs(cmd *cobra.Command) *types.CLIArgs {
	flags := cmd.Flags()
	configFile, _ := flags.GetString("config-file")
	profile, _ := flags.GetString("profile")
	days, _ := flags.GetInt("days")
	jsonOut, _ := flags.GetBool("json")
	tag, _ := flags.GetStringSlice("tag")
	budgets, _ := flags.GetBool("budgets")
	noChart, _ := flags.GetBool("no-chart")
	reportName, _ := flags.GetString("report-name")
	reportType, _ := flags.GetStringSlice("report-type")
	dir, _ := flags.GetString("dir")

	return &types.CLIArgs{
		ConfigFile: configFile,
		Profile:    profile,
		Days:       days,
		JSON:       jsonOut,
		Tag:        tag,
		Budgets:    budgets,
		NoChart:    noChart,
		ReportName: reportName,
		ReportType: reportType,
		Dir:        dir,
	}
}

// resolveArgs aplica, por ordem de precedência: flags explícitas, variável de ambiente,
// arquivo de configuração e valores padrão.
func (app *CLIApp) resolveArgs(cmd *cobra.Command) (*types.CLIArgs, error) {
	args := app.parseArgs(cmd)
	flags := cmd.Flags()

	if args.ConfigFile != "" {
		cfg, err := app.configRepo.LoadConfigFile(args.ConfigFile)
		if err != nil {
			return nil, &types.UsageError{Msg: "cannot load config file " + args.ConfigFile, Err: err}
		}
		mergeConfig(args, cfg, flags.Changed)
	}

	if !flags.Changed("days") {
		if raw := os.Getenv(DaysEnvVar); raw != "" {
			days, err := strconv.Atoi(raw)
			if err != nil {
				return nil, types.NewUsageError("%s must be an integer, got %q", DaysEnvVar, raw)
			}
			args.Days = days
		}
	}

	if args.Dir == "" {
		cwd, err := os.Getwd()
		if err != nil {
			return nil, err
		}
		args.Dir = cwd
	} else {
		absDir, err := filepath.Abs(args.Dir)
		if err != nil {
			return nil, err
		}
		args.Dir = absDir
	}

	return args, nil
}

// mergeConfig copia os valores do arquivo para os campos cuja flag não foi informada.
func mergeConfig(args *types.CLIArgs, cfg *types.Config, changed func(name string) bool) {
	if cfg == nil {
		return
	}
	if !changed("profile") && cfg.Profile != "" {
		args.Profile = cfg.Profile
	}
	if !changed("days") && cfg.Days != 0 {
		args.Days = cfg.Days
	}
	if !changed("json") && cfg.JSON {
		args.JSON = true
	}
	if !changed("tag") && len(cfg.Tag) > 0 {
		args.Tag = cfg.Tag
	}
	if !changed("budgets") && cfg.Budgets {
		args.Budgets = true
	}
	if !changed("no-chart") && cfg.NoChart {
		args.NoChart = true
	}
	if !changed("report-name") && cfg.ReportName != "" {
		args.ReportName = cfg.ReportName
	}
	if !changed("report-type") && len(cfg.ReportType) > 0 {
		args.ReportType = cfg.ReportType
	}
	if !changed("dir") && cfg.Dir != "" {
		args.Dir = cfg.Dir
	}
}

// runCommand é o ponto de entrada principal para o comando CLI.
func (app *CLIApp) runCommand(cmd *cobra.Command, _ []string) error {
	cliArgs, err := app.resolveArgs(cmd)
	if err != nil {
		return err
	}

	// O documento JSON precisa ser o único conteúdo do stdout
	if !cliArgs.JSON {
		displayWelcomeBanner(cmd.OutOrStdout())
		go version.CheckLatestVersion(app.version, cmd.ErrOrStderr())
	}

	return app.newRunner(cliArgs).RunReport(cmd.Context(), cliArgs)
}
