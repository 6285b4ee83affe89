package usecase

import (
	"sort"
	"strings"
	"time"

	"github.com/diillson/aws-cost-report-go/internal/domain/entity"
	"github.com/diillson/aws-cost-report-go/internal/shared/types"
	"github.com/shopspring/decimal"
)

// NegligibleCost is the smallest grouped amount (in currency units) kept in a report.
var NegligibleCost = decimal.New(1, -2)

const centPlaces = 2

var (
	hundred = decimal.NewFromInt(100)
	cent    = decimal.New(1, -centPlaces)
)

// AggregateOptions configura a agregação dos registros de custo.
type AggregateOptions struct {
	// Threshold drops grouped amounts strictly below it. Non-positive means NegligibleCost.
	Threshold decimal.Decimal
	// Validate rejects malformed records before grouping.
	Validate bool
}

// DefaultAggregateOptions retorna as opções usadas pela CLI.
func DefaultAggregateOptions() AggregateOptions {
	return AggregateOptions{Threshold: NegligibleCost, Validate: true}
}

type namedAmount struct {
	name   string
	amount decimal.Decimal
}

type serviceGroup struct {
	name  string
	exact decimal.Decimal
	usage []namedAmount
	daily map[time.Time]decimal.Decimal
}

// Aggregate groups raw cost records by service and usage type and builds the report.
//
// Records sharing a key are summed, so duplicated pages are harmless. Usage types whose
// accumulated amount is below the threshold are dropped, a service amounts to the sum of
// its retained usage types, and services below the threshold are dropped as well.
// Amounts are rounded to cents with a running sum so that every usage type list and
// every daily series adds up exactly to its service amount.
func Aggregate(records []entity.RawRecord, period entity.Period, opts AggregateOptions) (*entity.Report, error) {
	if opts.Validate {
		if err := ValidateRecords(records); err != nil {
			return nil, err
		}
	}

	threshold := opts.Threshold
	if !threshold.IsPositive() {
		threshold = NegligibleCost
	}

	// service -> usage type -> amount, and service -> usage type -> date -> amount
	usage := make(map[string]map[string]decimal.Decimal)
	daily := make(map[string]map[string]map[time.Time]decimal.Decimal)

	for _, rec := range records {
		if usage[rec.Service] == nil {
			usage[rec.Service] = make(map[string]decimal.Decimal)
			daily[rec.Service] = make(map[string]map[time.Time]decimal.Decimal)
		}
		usage[rec.Service][rec.UsageType] = usage[rec.Service][rec.UsageType].Add(rec.Amount)

		byDate := daily[rec.Service][rec.UsageType]
		if byDate == nil {
			byDate = make(map[time.Time]decimal.Decimal)
			daily[rec.Service][rec.UsageType] = byDate
		}
		day := truncateToDay(rec.Date)
		byDate[day] = byDate[day].Add(rec.Amount)
	}

	groups := make([]serviceGroup, 0, len(usage))
	exactTotal := decimal.Zero

	for service, byUsage := range usage {
		group := serviceGroup{
			name:  service,
			exact: decimal.Zero,
			daily: make(map[time.Time]decimal.Decimal),
		}
		for usageType, amount := range byUsage {
			if amount.LessThan(threshold) {
				continue
			}
			group.usage = append(group.usage, namedAmount{name: usageType, amount: amount})
			group.exact = group.exact.Add(amount)
			for day, dayAmount := range daily[service][usageType] {
				group.daily[day] = group.daily[day].Add(dayAmount)
			}
		}
		if len(group.usage) == 0 || group.exact.LessThan(threshold) {
			continue
		}

		sortNamedAmounts(group.usage)
		groups = append(groups, group)
		exactTotal = exactTotal.Add(group.exact)
	}

	sort.Slice(groups, func(i, j int) bool {
		if cmp := groups[i].exact.Cmp(groups[j].exact); cmp != 0 {
			return cmp > 0
		}
		return groups[i].name < groups[j].name
	})

	report := &entity.Report{
		Period:   period,
		Total:    decimal.Zero,
		Services: make([]entity.ServiceSummary, 0, len(groups)),
	}

	for _, group := range groups {
		summary := entity.ServiceSummary{
			Service:    group.name,
			Amount:     group.exact.Round(centPlaces),
			Percentage: percentageOf(group.exact, exactTotal),
			UsageTypes: buildUsageTypes(group.usage),
			Daily:      buildDaily(group.daily),
		}
		report.Services = append(report.Services, summary)
		report.Total = report.Total.Add(summary.Amount)
	}

	return report, nil
}

// ValidateRecords checks the fields every raw record must carry.
func ValidateRecords(records []entity.RawRecord) error {
	for i, rec := range records {
		switch {
		case rec.Date.IsZero():
			return &types.ValidationError{Index: i, Field: "date", Reason: "is missing"}
		case strings.TrimSpace(rec.Service) == "":
			return &types.ValidationError{Index: i, Field: "service", Reason: "is empty"}
		case strings.TrimSpace(rec.UsageType) == "":
			return &types.ValidationError{Index: i, Field: "usage_type", Reason: "is empty"}
		case rec.Amount.IsNegative():
			return &types.ValidationError{Index: i, Field: "amount", Reason: "is negative"}
		}
	}
	return nil
}

func buildUsageTypes(usage []namedAmount) []entity.UsageTypeSummary {
	amounts := make([]decimal.Decimal, len(usage))
	for i, u := range usage {
		amounts[i] = u.amount
	}

	rounded := roundLargestRemainder(amounts)
	summaries := make([]entity.UsageTypeSummary, len(usage))
	for i, u := range usage {
		summaries[i] = entity.UsageTypeSummary{UsageType: u.name, Amount: rounded[i]}
	}
	return summaries
}

func buildDaily(byDate map[time.Time]decimal.Decimal) []entity.DailyCost {
	dates := make([]time.Time, 0, len(byDate))
	for day := range byDate {
		dates = append(dates, day)
	}
	sort.Slice(dates, func(i, j int) bool {
		return dates[i].Before(dates[j])
	})

	amounts := make([]decimal.Decimal, len(dates))
	for i, day := range dates {
		amounts[i] = byDate[day]
	}

	rounded := roundCumulative(amounts)
	series := make([]entity.DailyCost, 0, len(dates))
	for i, day := range dates {
		// sub-cent days contribute nothing once rounded
		if rounded[i].IsZero() {
			continue
		}
		series = append(series, entity.DailyCost{Date: day, Amount: rounded[i]})
	}
	return series
}

// roundLargestRemainder floors each non-negative amount to cents and hands the cents
// still missing from the rounded sum to the largest remainders, earlier entries first on
// ties. A list sorted by descending amount stays sorted once rounded.
func roundLargestRemainder(amounts []decimal.Decimal) []decimal.Decimal {
	out := make([]decimal.Decimal, len(amounts))
	sum, floored := decimal.Zero, decimal.Zero
	for i, amount := range amounts {
		out[i] = amount.Truncate(centPlaces)
		sum = sum.Add(amount)
		floored = floored.Add(out[i])
	}

	order := make([]int, len(amounts))
	for i := range order {
		order[i] = i
	}
	sort.SliceStable(order, func(a, b int) bool {
		ra := amounts[order[a]].Sub(out[order[a]])
		rb := amounts[order[b]].Sub(out[order[b]])
		return ra.GreaterThan(rb)
	})

	missing := sum.Round(centPlaces).Sub(floored).Shift(centPlaces).IntPart()
	for k := 0; k < int(missing) && k < len(order); k++ {
		out[order[k]] = out[order[k]].Add(cent)
	}
	return out
}

// roundCumulative rounds each amount to cents so that the rounded values always add up
// to the rounded sum of the inputs.
func roundCumulative(amounts []decimal.Decimal) []decimal.Decimal {
	out := make([]decimal.Decimal, len(amounts))
	running, allocated := decimal.Zero, decimal.Zero
	for i, amount := range amounts {
		running = running.Add(amount)
		target := running.Round(centPlaces)
		out[i] = target.Sub(allocated)
		allocated = target
	}
	return out
}

func percentageOf(amount, total decimal.Decimal) decimal.Decimal {
	if !total.IsPositive() {
		return decimal.Zero
	}
	return amount.Mul(hundred).Div(total)
}

func sortNamedAmounts(items []namedAmount) {
	sort.Slice(items, func(i, j int) bool {
		if cmp := items[i].amount.Cmp(items[j].amount); cmp != 0 {
			return cmp > 0
		}
		return items[i].name < items[j].name
	})
}

func truncateToDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}
