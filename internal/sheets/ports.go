// Package sheets mirrors monthly budgets into a spreadsheet.
package sheets

import (
	"context"
	"fmt"
	"strings"

	"budget/internal/core"
)

// MonthSheet is everything written to one user's tab for one period.
type MonthSheet struct {
	UserID  string
	Period  core.Period
	Summary core.Summary
	Items   []core.BudgetItem // active items, projected recurring ones included
}

// Ports for outbound adapters.
type (
	// BudgetSheetWriter replaces the content of a month tab. Writing the
	// same sheet twice leaves the spreadsheet unchanged.
	BudgetSheetWriter interface {
		WriteMonth(ctx context.Context, sheet MonthSheet) error
	}
)

const maxTabName = 100

// TabName returns the tab title for a user and period, e.g. "alice 2025-02".
// Characters Sheets rejects in titles are replaced with '_'.
func TabName(userID string, p core.Period) string {
	clean := strings.Map(func(r rune) rune {
		switch r {
		case '[', ']', '*', '?', '/', '\\', ':', '\'':
			return '_'
		}
		return r
	}, userID)
	name := fmt.Sprintf("%s %s", clean, p)
	if len(name) > maxTabName {
		name = name[len(name)-maxTabName:]
	}
	return name
}

// Rows renders a month sheet as a header block, the category totals and the
// item list. Amounts are rounded to cents.
func Rows(sheet MonthSheet) [][]any {
	s := sheet.Summary.Rounded()
	rows := [][]any{
		{"Period", sheet.Period.String()},
		{"Total income", s.TotalIncome.String()},
		{"Total expenses", s.TotalExpenses.String()},
		{"Remaining", s.RemainingBudget.String()},
		{"Savings rate %", s.SavingsRate()},
		{},
		{"Category", "Type", "Income", "Expenses"},
	}
	for _, c := range s.Categories() {
		rows = append(rows, []any{c.Name, string(c.Type), c.Income.String(), c.Expenses.String()})
	}
	if !s.Unassigned.Amount().IsZero() {
		rows = append(rows, []any{"(unassigned)", "", s.Unassigned.Income.String(), s.Unassigned.Expenses.String()})
	}

	rows = append(rows, []any{}, []any{"Item", "Category", "Type", "Amount", "Repeat", "Anchor"})
	for _, it := range sheet.Items {
		rows = append(rows, []any{
			it.Name,
			it.CategoryName(),
			string(it.ItemType),
			it.Amount.Round().String(),
			it.Repeat.String(),
			it.Period.String(),
		})
	}
	return rows
}
