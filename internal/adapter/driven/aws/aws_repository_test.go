package aws

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"reflect"
	"testing"
	"time"

	awssdk "github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/budgets"
	budgetTypes "github.com/aws/aws-sdk-go-v2/service/budgets/types"
	"github.com/aws/aws-sdk-go-v2/service/costexplorer"
	ceTypes "github.com/aws/aws-sdk-go-v2/service/costexplorer/types"
	"github.com/aws/aws-sdk-go-v2/service/sts"
	"github.com/aws/smithy-go"
	"github.com/diillson/aws-cost-report-go/internal/domain/entity"
	"github.com/diillson/aws-cost-report-go/internal/shared/types"
)

type mockCostExplorerAPI struct {
	getCostAndUsageFunc func(ctx context.Context, params *costexplorer.GetCostAndUsageInput, optFns ...func(*costexplorer.Options)) (*costexplorer.GetCostAndUsageOutput, error)
}

func (m *mockCostExplorerAPI) GetCostAndUsage(ctx context.Context, params *costexplorer.GetCostAndUsageInput, optFns ...func(*costexplorer.Options)) (*costexplorer.GetCostAndUsageOutput, error) {
	return m.getCostAndUsageFunc(ctx, params, optFns...)
}

type mockSTSAPI struct {
	account string
	err     error
}

func (m *mockSTSAPI) GetCallerIdentity(ctx context.Context, params *sts.GetCallerIdentityInput, optFns ...func(*sts.Options)) (*sts.GetCallerIdentityOutput, error) {
	if m.err != nil {
		return nil, m.err
	}
	return &sts.GetCallerIdentityOutput{Account: awssdk.String(m.account)}, nil
}

type mockBudgetsAPI struct {
	output *budgets.DescribeBudgetsOutput
	err    error
}

func (m *mockBudgetsAPI) DescribeBudgets(ctx context.Context, params *budgets.DescribeBudgetsInput, optFns ...func(*budgets.Options)) (*budgets.DescribeBudgetsOutput, error) {
	return m.output, m.err
}

func newTestRepository(clients map[string]interface{}) *AWSRepositoryImpl {
	return &AWSRepositoryImpl{clientCache: clients}
}

func group(service, usageType, amount string) ceTypes.Group {
	keys := []string{service}
	if usageType != "" {
		keys = append(keys, usageType)
	}
	return ceTypes.Group{
		Keys: keys,
		Metrics: map[string]ceTypes.MetricValue{
			"UnblendedCost": {Amount: awssdk.String(amount), Unit: awssdk.String("USD")},
		},
	}
}

func day(start, end string, groups ...ceTypes.Group) ceTypes.ResultByTime {
	return ceTypes.ResultByTime{
		TimePeriod: &ceTypes.DateInterval{Start: awssdk.String(start), End: awssdk.String(end)},
		Groups:     groups,
	}
}

func testPeriod(t *testing.T) entity.Period {
	t.Helper()
	start, _ := time.Parse(entity.DateLayout, "2024-01-01")
	end, _ := time.Parse(entity.DateLayout, "2024-01-03")
	return entity.Period{Start: start, End: end}
}

func TestGetCostRecords_MapsGroups(t *testing.T) {
	var captured *costexplorer.GetCostAndUsageInput
	mock := &mockCostExplorerAPI{
		getCostAndUsageFunc: func(ctx context.Context, params *costexplorer.GetCostAndUsageInput, optFns ...func(*costexplorer.Options)) (*costexplorer.GetCostAndUsageOutput, error) {
			captured = params
			return &costexplorer.GetCostAndUsageOutput{
				ResultsByTime: []ceTypes.ResultByTime{
					day("2024-01-01", "2024-01-02",
						group("Amazon Elastic Compute Cloud - Compute", "USE1-BoxUsage:t3.micro", "12.345"),
						group("Amazon Simple Storage Service", "", "0.50"),
						group("Tax", "Tax", "0"),
					),
					day("2024-01-02", "2024-01-03",
						group("Amazon Elastic Compute Cloud - Compute", "USE1-BoxUsage:t3.micro", "7.655"),
						group("AWS Credits", "Credit", "-3.00"),
					),
				},
			}, nil
		},
	}

	repo := newTestRepository(map[string]interface{}{"costexplorer": mock})
	records, currency, err := repo.GetCostRecords(context.Background(), testPeriod(t), nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if currency != "USD" {
		t.Errorf("currency = %s, want USD", currency)
	}
	if len(records) != 3 {
		t.Fatalf("records length = %d, want 3", len(records))
	}
	if records[0].Amount.String() != "12.345" || records[0].UsageType != "USE1-BoxUsage:t3.micro" {
		t.Errorf("records[0] = %+v", records[0])
	}
	if records[1].UsageType != "N/A" {
		t.Errorf("records[1].UsageType = %s, want N/A", records[1].UsageType)
	}
	if got := records[2].Date.Format(entity.DateLayout); got != "2024-01-02" {
		t.Errorf("records[2].Date = %s, want 2024-01-02", got)
	}

	if captured.Granularity != ceTypes.GranularityDaily {
		t.Errorf("Granularity = %s, want DAILY", captured.Granularity)
	}
	if awssdk.ToString(captured.TimePeriod.Start) != "2024-01-01" || awssdk.ToString(captured.TimePeriod.End) != "2024-01-03" {
		t.Errorf("TimePeriod = %s..%s", awssdk.ToString(captured.TimePeriod.Start), awssdk.ToString(captured.TimePeriod.End))
	}
	if !reflect.DeepEqual(captured.Metrics, []string{"UnblendedCost"}) {
		t.Errorf("Metrics = %v", captured.Metrics)
	}
	if len(captured.GroupBy) != 2 ||
		awssdk.ToString(captured.GroupBy[0].Key) != "SERVICE" ||
		awssdk.ToString(captured.GroupBy[1].Key) != "USAGE_TYPE" {
		t.Errorf("GroupBy = %+v", captured.GroupBy)
	}
	if captured.Filter != nil {
		t.Errorf("Filter = %+v, want nil", captured.Filter)
	}
}

func TestGetCostRecords_FollowsNextPageToken(t *testing.T) {
	var tokens []string
	mock := &mockCostExplorerAPI{
		getCostAndUsageFunc: func(ctx context.Context, params *costexplorer.GetCostAndUsageInput, optFns ...func(*costexplorer.Options)) (*costexplorer.GetCostAndUsageOutput, error) {
			tokens = append(tokens, awssdk.ToString(params.NextPageToken))
			out := &costexplorer.GetCostAndUsageOutput{
				ResultsByTime: []ceTypes.ResultByTime{
					day("2024-01-01", "2024-01-02", group("EC2", "BoxUsage", "1.00")),
				},
			}
			if len(tokens) == 1 {
				out.NextPageToken = awssdk.String("page-2")
			}
			return out, nil
		},
	}

	repo := newTestRepository(map[string]interface{}{"costexplorer": mock})
	records, _, err := repo.GetCostRecords(context.Background(), testPeriod(t), nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if !reflect.DeepEqual(tokens, []string{"", "page-2"}) {
		t.Errorf("tokens = %v, want [\"\" page-2]", tokens)
	}
	// the same key on both pages is kept twice; the aggregator sums it
	if len(records) != 2 {
		t.Errorf("records length = %d, want 2", len(records))
	}
}

func TestGetCostRecords_WrapsAPIError(t *testing.T) {
	mock := &mockCostExplorerAPI{
		getCostAndUsageFunc: func(ctx context.Context, params *costexplorer.GetCostAndUsageInput, optFns ...func(*costexplorer.Options)) (*costexplorer.GetCostAndUsageOutput, error) {
			return nil, &smithy.GenericAPIError{Code: "AccessDeniedException", Message: "User is not authorized to perform: ce:GetCostAndUsage"}
		},
	}

	repo := newTestRepository(map[string]interface{}{"costexplorer": mock})
	_, _, err := repo.GetCostRecords(context.Background(), testPeriod(t), nil)

	var upErr *types.UpstreamError
	if !errors.As(err, &upErr) {
		t.Fatalf("error = %v, want *types.UpstreamError", err)
	}
	if upErr.Code != "AccessDeniedException" {
		t.Errorf("Code = %s, want AccessDeniedException", upErr.Code)
	}
	if upErr.Op != "GetCostAndUsage" {
		t.Errorf("Op = %s, want GetCostAndUsage", upErr.Op)
	}
}

func TestGetCostRecords_InvalidAmount(t *testing.T) {
	mock := &mockCostExplorerAPI{
		getCostAndUsageFunc: func(ctx context.Context, params *costexplorer.GetCostAndUsageInput, optFns ...func(*costexplorer.Options)) (*costexplorer.GetCostAndUsageOutput, error) {
			return &costexplorer.GetCostAndUsageOutput{
				ResultsByTime: []ceTypes.ResultByTime{
					day("2024-01-01", "2024-01-02", group("EC2", "BoxUsage", "abc")),
				},
			}, nil
		},
	}

	repo := newTestRepository(map[string]interface{}{"costexplorer": mock})
	_, _, err := repo.GetCostRecords(context.Background(), testPeriod(t), nil)

	var upErr *types.UpstreamError
	if !errors.As(err, &upErr) {
		t.Fatalf("error = %v, want *types.UpstreamError", err)
	}
}

func TestGetCostRecords_TagFilter(t *testing.T) {
	var captured *costexplorer.GetCostAndUsageInput
	mock := &mockCostExplorerAPI{
		getCostAndUsageFunc: func(ctx context.Context, params *costexplorer.GetCostAndUsageInput, optFns ...func(*costexplorer.Options)) (*costexplorer.GetCostAndUsageOutput, error) {
			captured = params
			return &costexplorer.GetCostAndUsageOutput{}, nil
		},
	}

	repo := newTestRepository(map[string]interface{}{"costexplorer": mock})
	records, currency, err := repo.GetCostRecords(context.Background(), testPeriod(t), []string{"Team=DevOps"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(records) != 0 {
		t.Errorf("records length = %d, want 0", len(records))
	}
	if currency != "USD" {
		t.Errorf("currency = %s, want USD default", currency)
	}
	if captured.Filter == nil || captured.Filter.Tags == nil || awssdk.ToString(captured.Filter.Tags.Key) != "Team" {
		t.Fatalf("Filter = %+v, want tag Team", captured.Filter)
	}
	if !reflect.DeepEqual(captured.Filter.Tags.Values, []string{"DevOps"}) {
		t.Errorf("Tag values = %v, want [DevOps]", captured.Filter.Tags.Values)
	}
}

func TestParseTagFilter(t *testing.T) {
	tests := []struct {
		name      string
		tags      []string
		wantAnd   int
		wantNil   bool
		wantUsage bool
	}{
		{name: "no tags", tags: nil, wantNil: true},
		{name: "single tag", tags: []string{"Env=prod"}},
		{name: "two tags", tags: []string{"Env=prod", "Team=data"}, wantAnd: 2},
		{name: "value with equals", tags: []string{"Query=a=b"}},
		{name: "missing value", tags: []string{"Env"}, wantUsage: true},
		{name: "missing key", tags: []string{"=prod"}, wantUsage: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			expr, err := parseTagFilter(tt.tags)
			if tt.wantUsage {
				var usageErr *types.UsageError
				if !errors.As(err, &usageErr) {
					t.Fatalf("error = %v, want *types.UsageError", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if tt.wantNil {
				if expr != nil {
					t.Errorf("expr = %+v, want nil", expr)
				}
				return
			}
			if len(expr.And) != tt.wantAnd {
				t.Errorf("And length = %d, want %d", len(expr.And), tt.wantAnd)
			}
		})
	}
}

func TestGetAccountID(t *testing.T) {
	repo := newTestRepository(map[string]interface{}{"sts": &mockSTSAPI{account: "123456789012"}})

	id, err := repo.GetAccountID(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if id != "123456789012" {
		t.Errorf("account = %s, want 123456789012", id)
	}

	repo = newTestRepository(map[string]interface{}{"sts": &mockSTSAPI{err: &smithy.GenericAPIError{Code: "ExpiredToken", Message: "expired"}}})
	_, err = repo.GetAccountID(context.Background())
	var upErr *types.UpstreamError
	if !errors.As(err, &upErr) || upErr.Code != "ExpiredToken" {
		t.Errorf("error = %v, want UpstreamError ExpiredToken", err)
	}
}

func TestGetBudgets(t *testing.T) {
	mock := &mockBudgetsAPI{
		output: &budgets.DescribeBudgetsOutput{
			Budgets: []budgetTypes.Budget{
				{
					BudgetName:  awssdk.String("monthly"),
					BudgetLimit: &budgetTypes.Spend{Amount: awssdk.String("100.0"), Unit: awssdk.String("USD")},
					CalculatedSpend: &budgetTypes.CalculatedSpend{
						ActualSpend:     &budgetTypes.Spend{Amount: awssdk.String("120.5"), Unit: awssdk.String("USD")},
						ForecastedSpend: &budgetTypes.Spend{Amount: awssdk.String("150"), Unit: awssdk.String("USD")},
					},
				},
				{
					BudgetName: awssdk.String("no-spend-yet"),
				},
			},
		},
	}

	repo := newTestRepository(map[string]interface{}{"budgets": mock})
	got, err := repo.GetBudgets(context.Background(), "123456789012")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("budgets length = %d, want 2", len(got))
	}
	if got[0].Actual.String() != "120.5" || !got[0].Exceeded() {
		t.Errorf("budgets[0] = %+v, want exceeded with actual 120.5", got[0])
	}
	if !got[1].Actual.IsZero() || got[1].Exceeded() {
		t.Errorf("budgets[1] = %+v, want zero spend", got[1])
	}
}

func TestGetAWSProfiles(t *testing.T) {
	home := t.TempDir()
	t.Setenv("HOME", home)
	awsDir := filepath.Join(home, ".aws")
	if err := os.MkdirAll(awsDir, 0o755); err != nil {
		t.Fatal(err)
	}
	credentials := "[default]\naws_access_key_id = x\n[prod]\naws_access_key_id = y\n"
	config := "[profile dev]\nregion = us-east-1\n[sso-session corp]\nsso_region = us-east-1\n"
	if err := os.WriteFile(filepath.Join(awsDir, "credentials"), []byte(credentials), 0o600); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(awsDir, "config"), []byte(config), 0o600); err != nil {
		t.Fatal(err)
	}

	got := newTestRepository(nil).GetAWSProfiles()
	want := []string{"default", "dev", "prod"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("profiles = %v, want %v", got, want)
	}
}
