package core

import (
	"errors"
	"fmt"
	"strings"
)

// PeriodKind selects the span of a statistics request.
type PeriodKind string

const (
	KindMonth   PeriodKind = "month"
	KindQuarter PeriodKind = "quarter"
	KindYear    PeriodKind = "year"
)

var ErrInvalidPeriodKind = errors.New("invalid period kind (want month, quarter or year)")

func ParsePeriodKind(s string) (PeriodKind, error) {
	switch k := PeriodKind(strings.ToLower(strings.TrimSpace(s))); k {
	case KindMonth, KindQuarter, KindYear:
		return k, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrInvalidPeriodKind, s)
	}
}

// PeriodRange expands kind into the months it covers. refMonth picks the
// month (or its quarter) for month and quarter ranges and is ignored for years.
func PeriodRange(kind PeriodKind, year, refMonth int) ([]Period, error) {
	ref := Period{Month: refMonth, Year: year}
	switch kind {
	case KindMonth:
		if err := ref.Validate(); err != nil {
			return nil, err
		}
		return []Period{ref}, nil
	case KindQuarter:
		if err := ref.Validate(); err != nil {
			return nil, err
		}
		start := (ref.Quarter()-1)*3 + 1
		return monthsBetween(year, start, start+2), nil
	case KindYear:
		return monthsBetween(year, 1, 12), nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrInvalidPeriodKind, kind)
	}
}

func monthsBetween(year, from, to int) []Period {
	out := make([]Period, 0, to-from+1)
	for m := from; m <= to; m++ {
		out = append(out, Period{Month: m, Year: year})
	}
	return out
}

// ChartDataPoint is one month of an income/expenses series.
type ChartDataPoint struct {
	Name     string `json:"name"`
	Income   Money  `json:"income"`
	Expenses Money  `json:"expenses"`
	Savings  Money  `json:"savings"`
}

// IncomeExpensesSeries returns one point per month in periods.
func IncomeExpensesSeries(items []BudgetItem, periods []Period) []ChartDataPoint {
	out := make([]ChartDataPoint, 0, len(periods))
	for _, p := range periods {
		s := Aggregate(items, p)
		out = append(out, ChartDataPoint{
			Name:     p.ShortName(),
			Income:   s.TotalIncome.Round(),
			Expenses: s.TotalExpenses.Round(),
			Savings:  s.RemainingBudget.Round(),
		})
	}
	return out
}

// CategoryBreakdown sums expense amounts per category over periods, largest
// first.
func CategoryBreakdown(items []BudgetItem, periods []Period) []CategoryAmount {
	totals := make(map[string]CategoryAmount)
	for _, p := range periods {
		for _, c := range Aggregate(items, p).ExpenseBreakdown() {
			acc, ok := totals[c.Name]
			if !ok {
				acc = CategoryAmount{Name: c.Name, Type: c.Type, Amount: Zero}
			}
			acc.Amount = acc.Amount.Add(c.Amount)
			totals[c.Name] = acc
		}
	}

	out := make([]CategoryAmount, 0, len(totals))
	for _, c := range totals {
		c.Amount = c.Amount.Round()
		out = append(out, c)
	}
	sortByAmountDesc(out)
	return out
}

// RecurringAmount is the expense total of one repeat cadence.
type RecurringAmount struct {
	Name   string `json:"name"`
	Amount Money  `json:"value"`
}

// RecurringBreakdown sums active expense amounts per cadence over periods.
// Cadences with nothing in them are omitted.
func RecurringBreakdown(items []BudgetItem, periods []Period) []RecurringAmount {
	cadences := []Repeat{OneTime, Monthly, Quarterly, Yearly}
	totals := make(map[Repeat]Money, len(cadences))
	for _, r := range cadences {
		totals[r] = Zero
	}

	for _, p := range periods {
		for _, it := range ActiveItems(items, p) {
			if it.ItemType != ItemExpense {
				continue
			}
			r := it.Repeat
			if !r.Valid() {
				r = OneTime
			}
			totals[r] = totals[r].Add(it.Amount)
		}
	}

	out := make([]RecurringAmount, 0, len(cadences))
	for _, r := range cadences {
		if !totals[r].IsPositive() {
			continue
		}
		out = append(out, RecurringAmount{Name: r.String(), Amount: totals[r].Round()})
	}
	return out
}

// MonthlySummary is one month of the yearly overview.
type MonthlySummary struct {
	Month       string `json:"month"`
	MonthNumber int    `json:"monthNumber"`
	Year        int    `json:"year"`
	Income      Money  `json:"income"`
	Expenses    Money  `json:"expenses"`
	Savings     Money  `json:"savings"`
	SavingsRate int64  `json:"savingsRate"`
}

// MonthlySummaries returns twelve summaries for year, January first.
func MonthlySummaries(items []BudgetItem, year int) []MonthlySummary {
	out := make([]MonthlySummary, 0, 12)
	for _, p := range monthsBetween(year, 1, 12) {
		s := Aggregate(items, p)
		out = append(out, MonthlySummary{
			Month:       p.ShortName(),
			MonthNumber: p.Month,
			Year:        p.Year,
			Income:      s.TotalIncome.Round(),
			Expenses:    s.TotalExpenses.Round(),
			Savings:     s.RemainingBudget.Round(),
			SavingsRate: s.SavingsRate(),
		})
	}
	return out
}

// AccountSummary is the headline figure set of the dashboard.
type AccountSummary struct {
	TotalBalance    Money `json:"totalBalance"`
	MonthlyIncome   Money `json:"monthlyIncome"`
	MonthlyExpenses Money `json:"monthlyExpenses"`
	SavingsRate     int64 `json:"savingsRate"`
}

// SummarizeAccount computes the balance of all stored items and the figures of
// the current period. The balance counts each stored item once, without
// projection.
func SummarizeAccount(items []BudgetItem, current Period) AccountSummary {
	balance := Zero
	for _, it := range items {
		switch it.ItemType {
		case ItemIncome:
			balance = balance.Add(it.Amount)
		case ItemExpense:
			balance = balance.Sub(it.Amount)
		}
	}

	s := Aggregate(items, current)
	return AccountSummary{
		TotalBalance:    balance.Round(),
		MonthlyIncome:   s.TotalIncome.Round(),
		MonthlyExpenses: s.TotalExpenses.Round(),
		SavingsRate:     s.SavingsRate(),
	}
}
