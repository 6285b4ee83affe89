package aws

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/budgets"
	"github.com/aws/aws-sdk-go-v2/service/costexplorer"
	ceTypes "github.com/aws/aws-sdk-go-v2/service/costexplorer/types"
	"github.com/aws/aws-sdk-go-v2/service/sts"
	"github.com/aws/smithy-go"
	"github.com/diillson/aws-cost-report-go/internal/domain/entity"
	"github.com/diillson/aws-cost-report-go/internal/domain/repository"
	"github.com/diillson/aws-cost-report-go/internal/shared/types"
	"github.com/shopspring/decimal"
	"golang.org/x/time/rate"
)

const (
	costMetric      = "UnblendedCost"
	defaultCurrency = "USD"
	unknownUsage    = "N/A"

	// Cost Explorer e Budgets só respondem em us-east-1.
	billingRegion = "us-east-1"

	maxCostPages = 100
)

type costExplorerAPI interface {
	GetCostAndUsage(ctx context.Context, params *costexplorer.GetCostAndUsageInput, optFns ...func(*costexplorer.Options)) (*costexplorer.GetCostAndUsageOutput, error)
}

type stsAPI interface {
	GetCallerIdentity(ctx context.Context, params *sts.GetCallerIdentityInput, optFns ...func(*sts.Options)) (*sts.GetCallerIdentityOutput, error)
}

// AWSRepositoryImpl implementa o CostRepository com cache de clientes.
type AWSRepositoryImpl struct {
	profile     string
	cfg         *aws.Config
	clientCache map[string]interface{}
	limiter     *rate.Limiter
	mu          sync.Mutex
}

// NewAWSRepository cria uma nova implementação do CostRepository para o perfil informado.
// Um perfil vazio usa a cadeia de credenciais padrão do SDK.
func NewAWSRepository(profile string) repository.CostRepository {
	// Cost Explorer has a low request quota; page requests are paced.
	return &AWSRepositoryImpl{
		profile:     profile,
		clientCache: make(map[string]interface{}),
		limiter:     rate.NewLimiter(rate.Every(200*time.Millisecond), 1),
	}
}

func (r *AWSRepositoryImpl) getAWSConfig(ctx context.Context) (aws.Config, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.cfg != nil {
		return *r.cfg, nil
	}

	var opts []func(*config.LoadOptions) error
	if r.profile != "" {
		opts = append(opts, config.WithSharedConfigProfile(r.profile))
	}

	cfg, err := config.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return aws.Config{}, wrapUpstream(fmt.Sprintf("load AWS config for profile %q", r.profile), err)
	}

	r.cfg = &cfg
	return cfg, nil
}

func (r *AWSRepositoryImpl) getServiceClient(ctx context.Context, service string) (interface{}, error) {
	r.mu.Lock()
	if client, ok := r.clientCache[service]; ok {
		r.mu.Unlock()
		return client, nil
	}
	r.mu.Unlock()

	cfg, err := r.getAWSConfig(ctx)
	if err != nil {
		return nil, err
	}

	regionalCfg := cfg.Copy()
	regionalCfg.Region = billingRegion

	var client interface{}
	switch service {
	case "sts":
		client = sts.NewFromConfig(regionalCfg)
	case "costexplorer":
		client = costexplorer.NewFromConfig(regionalCfg)
	case "budgets":
		client = budgets.NewFromConfig(regionalCfg)
	default:
		return nil, fmt.Errorf("unsupported service: %s", service)
	}

	r.mu.Lock()
	r.clientCache[service] = client
	r.mu.Unlock()

	return client, nil
}

// GetAWSProfiles lista os perfis declarados em ~/.aws/credentials e ~/.aws/config.
func (r *AWSRepositoryImpl) GetAWSProfiles() []string {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return []string{"default"}
	}

	credentialsPath := filepath.Join(homeDir, ".aws", "credentials")
	configPath := filepath.Join(homeDir, ".aws", "config")

	profiles := make(map[string]bool)
	profileRegex := regexp.MustCompile(`\[([^]]+)\]`)

	parseFile := func(path string, isConfig bool) {
		content, err := os.ReadFile(path)
		if err != nil {
			return
		}
		matches := profileRegex.FindAllStringSubmatch(string(content), -1)
		for _, match := range matches {
			profileName := match[1]
			if isConfig {
				// [sso-session x] and [services x] are not profiles
				if strings.HasPrefix(profileName, "sso-session ") || strings.HasPrefix(profileName, "services ") {
					continue
				}
				profileName = strings.TrimPrefix(profileName, "profile ")
			}
			profiles[profileName] = true
		}
	}

	parseFile(credentialsPath, false)
	parseFile(configPath, true)

	if len(profiles) == 0 {
		profiles["default"] = true
	}

	result := make([]string, 0, len(profiles))
	for profile := range profiles {
		result = append(result, profile)
	}
	sort.Strings(result)
	return result
}

// GetAccountID retorna o ID da conta das credenciais em uso.
func (r *AWSRepositoryImpl) GetAccountID(ctx context.Context) (string, error) {
	client, err := r.getServiceClient(ctx, "sts")
	if err != nil {
		return "", err
	}
	stsClient := client.(stsAPI)

	result, err := stsClient.GetCallerIdentity(ctx, &sts.GetCallerIdentityInput{})
	if err != nil {
		return "", wrapUpstream("GetCallerIdentity", err)
	}
	return aws.ToString(result.Account), nil
}

// GetCostRecords consulta o Cost Explorer com granularidade diária, agrupando por
// SERVICE e USAGE_TYPE, e segue o NextPageToken até o fim da consulta.
func (r *AWSRepositoryImpl) GetCostRecords(ctx context.Context, period entity.Period, tags []string) ([]entity.RawRecord, string, error) {
	filter, err := parseTagFilter(tags)
	if err != nil {
		return nil, "", err
	}

	client, err := r.getServiceClient(ctx, "costexplorer")
	if err != nil {
		return nil, "", err
	}
	ceClient := client.(costExplorerAPI)

	input := &costexplorer.GetCostAndUsageInput{
		TimePeriod: &ceTypes.DateInterval{
			Start: aws.String(period.Start.Format(entity.DateLayout)),
			End:   aws.String(period.End.Format(entity.DateLayout)),
		},
		Granularity: ceTypes.GranularityDaily,
		Metrics:     []string{costMetric},
		GroupBy: []ceTypes.GroupDefinition{
			{Type: ceTypes.GroupDefinitionTypeDimension, Key: aws.String("SERVICE")},
			{Type: ceTypes.GroupDefinitionTypeDimension, Key: aws.String("USAGE_TYPE")},
		},
		Filter: filter,
	}

	var records []entity.RawRecord
	currency := ""

	for page := 0; ; page++ {
		if page >= maxCostPages {
			return nil, "", &types.UpstreamError{
				Op:  "GetCostAndUsage",
				Err: fmt.Errorf("query returned more than %d pages", maxCostPages),
			}
		}
		if r.limiter != nil {
			if err := r.limiter.Wait(ctx); err != nil {
				return nil, "", err
			}
		}

		result, err := ceClient.GetCostAndUsage(ctx, input)
		if err != nil {
			return nil, "", wrapUpstream("GetCostAndUsage", err)
		}

		pageRecords, unit, err := mapResultsByTime(result.ResultsByTime)
		if err != nil {
			return nil, "", err
		}
		records = append(records, pageRecords...)
		if currency == "" {
			currency = unit
		}

		token := aws.ToString(result.NextPageToken)
		if token == "" {
			break
		}
		input.NextPageToken = aws.String(token)
	}

	if currency == "" {
		currency = defaultCurrency
	}
	return records, currency, nil
}

// mapResultsByTime converte os grupos do Cost Explorer em RawRecords. Valores não
// positivos (créditos, reembolsos) ficam de fora.
func mapResultsByTime(results []ceTypes.ResultByTime) ([]entity.RawRecord, string, error) {
	var records []entity.RawRecord
	unit := ""

	for _, result := range results {
		if result.TimePeriod == nil || result.TimePeriod.Start == nil {
			return nil, "", &types.UpstreamError{Op: "GetCostAndUsage", Err: errors.New("result without time period")}
		}
		date, err := time.Parse(entity.DateLayout, *result.TimePeriod.Start)
		if err != nil {
			return nil, "", &types.UpstreamError{Op: "GetCostAndUsage", Err: fmt.Errorf("invalid period start: %w", err)}
		}

		for _, group := range result.Groups {
			if len(group.Keys) == 0 {
				continue
			}
			metric, ok := group.Metrics[costMetric]
			if !ok || metric.Amount == nil {
				continue
			}

			amount, err := decimal.NewFromString(*metric.Amount)
			if err != nil {
				return nil, "", &types.UpstreamError{Op: "GetCostAndUsage", Err: fmt.Errorf("invalid amount %q: %w", *metric.Amount, err)}
			}
			if !amount.IsPositive() {
				continue
			}
			if unit == "" && metric.Unit != nil {
				unit = *metric.Unit
			}

			usageType := unknownUsage
			if len(group.Keys) > 1 && group.Keys[1] != "" {
				usageType = group.Keys[1]
			}

			records = append(records, entity.RawRecord{
				Date:      date,
				Service:   group.Keys[0],
				UsageType: usageType,
				Amount:    amount,
			})
		}
	}

	return records, unit, nil
}

// GetBudgets lista os orçamentos da conta.
func (r *AWSRepositoryImpl) GetBudgets(ctx context.Context, accountID string) ([]entity.BudgetInfo, error) {
	client, err := r.getServiceClient(ctx, "budgets")
	if err != nil {
		return nil, err
	}
	budgetsClient := client.(budgets.DescribeBudgetsAPIClient)

	budgetsData := []entity.BudgetInfo{}
	paginator := budgets.NewDescribeBudgetsPaginator(budgetsClient, &budgets.DescribeBudgetsInput{
		AccountId: aws.String(accountID),
	})
	for paginator.HasMorePages() {
		output, err := paginator.NextPage(ctx)
		if err != nil {
			return nil, wrapUpstream("DescribeBudgets", err)
		}

		for _, budget := range output.Budgets {
			b := entity.BudgetInfo{Name: aws.ToString(budget.BudgetName)}
			if budget.BudgetLimit != nil {
				b.Limit = parseAmount(budget.BudgetLimit.Amount)
			}
			if spend := budget.CalculatedSpend; spend != nil {
				if spend.ActualSpend != nil {
					b.Actual = parseAmount(spend.ActualSpend.Amount)
				}
				if spend.ForecastedSpend != nil {
					b.Forecast = parseAmount(spend.ForecastedSpend.Amount)
				}
			}
			budgetsData = append(budgetsData, b)
		}
	}

	return budgetsData, nil
}

func parseAmount(s *string) decimal.Decimal {
	if s == nil {
		return decimal.Zero
	}
	amount, err := decimal.NewFromString(*s)
	if err != nil {
		return decimal.Zero
	}
	return amount
}

func parseTagFilter(tags []string) (*ceTypes.Expression, error) {
	if len(tags) == 0 {
		return nil, nil
	}

	var expressions []ceTypes.Expression
	for _, t := range tags {
		parts := strings.SplitN(t, "=", 2)
		if len(parts) != 2 || parts[0] == "" {
			return nil, types.NewUsageError("invalid tag format: %s (expected Key=Value)", t)
		}
		expressions = append(expressions, ceTypes.Expression{
			Tags: &ceTypes.TagValues{
				Key:    aws.String(parts[0]),
				Values: []string{parts[1]},
			},
		})
	}

	if len(expressions) == 1 {
		return &expressions[0], nil
	}

	return &ceTypes.Expression{And: expressions}, nil
}

// wrapUpstream transforma o erro do SDK em UpstreamError, preservando o código do provedor.
func wrapUpstream(op string, err error) error {
	var apiErr smithy.APIError
	if errors.As(err, &apiErr) {
		return &types.UpstreamError{
			Op:      op,
			Code:    apiErr.ErrorCode(),
			Message: apiErr.ErrorMessage(),
			Err:     err,
		}
	}
	return &types.UpstreamError{Op: op, Err: err}
}
