package sheets

import (
	"testing"

	"budget/internal/core"
)

func TestTabName(t *testing.T) {
	tests := []struct {
		user string
		want string
	}{
		{"alice", "alice 2025-03"},
		{"a/b:c", "a_b_c 2025-03"},
		{"[x]*?", "_x___ 2025-03"},
	}
	for _, tt := range tests {
		t.Run(tt.user, func(t *testing.T) {
			if got := TabName(tt.user, core.NewPeriod(3, 2025)); got != tt.want {
				t.Errorf("TabName(%q) = %q, want %q", tt.user, got, tt.want)
			}
		})
	}
}

func TestRows(t *testing.T) {
	salary := &core.Category{Name: "Salary", Type: core.CategoryIncome}
	food := &core.Category{Name: "Food", Type: core.CategoryExpense}
	p := core.NewPeriod(2, 2025)
	items := []core.BudgetItem{
		{Name: "Pay", Category: salary, Amount: core.MustMoney("2000"), ItemType: core.ItemIncome, Period: p, Repeat: core.Monthly},
		{Name: "Market", Category: food, Amount: core.MustMoney("100.005"), ItemType: core.ItemExpense, Period: p, Repeat: core.OneTime},
		{Name: "Lost", Amount: core.MustMoney("5"), ItemType: core.ItemExpense, Period: p, Repeat: core.OneTime},
	}
	rows := Rows(MonthSheet{UserID: "u1", Period: p, Summary: core.Aggregate(items, p), Items: items})

	header := map[string]any{}
	for _, r := range rows[:5] {
		header[r[0].(string)] = r[1]
	}
	if header["Total income"] != "2000.00" || header["Total expenses"] != "105.01" || header["Remaining"] != "1895.00" {
		t.Errorf("unexpected header block %v", header)
	}

	var categories, itemRows int
	for _, r := range rows {
		if len(r) == 4 && r[0] != "Category" {
			categories++
		}
		if len(r) == 6 && r[0] != "Item" {
			itemRows++
		}
	}
	// Food, Salary and the unassigned line.
	if categories != 3 {
		t.Errorf("category rows = %d, want 3", categories)
	}
	if itemRows != 3 {
		t.Errorf("item rows = %d, want 3", itemRows)
	}
}
