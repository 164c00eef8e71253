package core

import (
	"fmt"
	"sort"

	"github.com/shopspring/decimal"
)

// InsightDataPoint is a labelled value shown alongside an insight.
type InsightDataPoint struct {
	Label string `json:"label"`
	Value string `json:"value"`
}

// Insight is a derived statement about spending between two periods.
type Insight struct {
	ID             string             `json:"id"`
	Title          string             `json:"title"`
	Description    string             `json:"description"`
	Data           []InsightDataPoint `json:"data,omitempty"`
	Recommendation string             `json:"recommendation,omitempty"`
	Category       string             `json:"category,omitempty"`
}

// trendThresholdPercent is the minimum absolute percent change reported as a trend.
const trendThresholdPercent = 10

// categoryChange is the expense movement of one category between two periods.
type categoryChange struct {
	name     string
	current  Money
	previous Money
	percent  decimal.Decimal
}

// CompareTrend compares the per-category totals of two periods and returns
// at most one spending trend insight followed by at most one savings
// opportunity insight.
//
// Only expense amounts of categories present in both periods are compared.
// Categories are visited by name, so the first trend found is the first name
// in alphabetical order whose change reaches 10%.
func CompareTrend(current, previous map[string]CategoryTotal) []Insight {
	changes := expenseChanges(current, previous)

	var insights []Insight
	if in, ok := spendingTrend(changes); ok {
		insights = append(insights, in)
	}
	if in, ok := savingsOpportunity(changes); ok {
		insights = append(insights, in)
	}
	return insights
}

func expenseChanges(current, previous map[string]CategoryTotal) []categoryChange {
	names := make([]string, 0, len(current))
	for name := range current {
		names = append(names, name)
	}
	sort.Strings(names)

	out := make([]categoryChange, 0, len(names))
	for _, name := range names {
		cur := current[name]
		if cur.Type == CategoryIncome {
			continue
		}
		prev, ok := previous[name]
		if !ok {
			continue
		}
		out = append(out, categoryChange{
			name:     name,
			current:  cur.Expenses,
			previous: prev.Expenses,
			percent:  cur.Expenses.PercentChange(prev.Expenses),
		})
	}
	return out
}

func spendingTrend(changes []categoryChange) (Insight, bool) {
	for _, c := range changes {
		if c.percent.Abs().LessThan(decimal.NewFromInt(trendThresholdPercent)) {
			continue
		}
		rounded := roundHalfUp(c.percent, 0)
		increase := c.percent.IsPositive()

		direction := "decreased"
		recommendation := fmt.Sprintf("Great job reducing your %s expenses! Continue your smart spending habits.", c.name)
		sign := ""
		if increase {
			direction = "increased"
			recommendation = fmt.Sprintf("Consider reviewing your %s expenses to identify potential savings.", c.name)
			sign = "+"
		}

		return Insight{
			ID:    "1",
			Title: "Spending Trend",
			Description: fmt.Sprintf("Your spending in %s has %s by %s%% compared to last month.",
				c.name, direction, rounded.Abs().String()),
			Data: []InsightDataPoint{
				{Label: "This Month", Value: c.current.FormatEUR()},
				{Label: "Last Month", Value: c.previous.FormatEUR()},
				{Label: "Change", Value: sign + rounded.String() + "%"},
			},
			Recommendation: recommendation,
			Category:       "spending",
		}, true
	}
	return Insight{}, false
}

func savingsOpportunity(changes []categoryChange) (Insight, bool) {
	var best *categoryChange
	for i := range changes {
		c := &changes[i]
		if !c.percent.IsPositive() {
			continue
		}
		if best == nil || c.percent.GreaterThan(best.percent) {
			best = c
		}
	}
	if best == nil {
		return Insight{}, false
	}

	increase := best.current.Sub(best.previous)
	return Insight{
		ID:          "2",
		Title:       "Savings Opportunity",
		Description: fmt.Sprintf("You could save more by reducing your %s expenses.", best.name),
		Data: []InsightDataPoint{
			{Label: "Current Spending", Value: best.current.FormatEUR()},
			{Label: "Potential Savings", Value: increase.FormatEUR()},
		},
		Recommendation: fmt.Sprintf("Look for ways to reduce your %s expenses to increase your savings.", best.name),
		Category:       "savings",
	}, true
}
