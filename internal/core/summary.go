package core

import (
	"encoding/json"
	"sort"
)

// CategoryTotal is the amount aggregated under one category name. Income and
// expenses are kept apart so a mixed category still adds up to the totals.
type CategoryTotal struct {
	Name     string
	Type     CategoryType
	Income   Money
	Expenses Money
}

// Amount returns the gross amount of the category.
func (c CategoryTotal) Amount() Money {
	return c.Income.Add(c.Expenses)
}

func (c CategoryTotal) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		Name     string       `json:"name"`
		Type     CategoryType `json:"type"`
		Amount   Money        `json:"amount"`
		Income   Money        `json:"income"`
		Expenses Money        `json:"expenses"`
	}{c.Name, c.Type, c.Amount(), c.Income, c.Expenses})
}

// Summary is the aggregate of all items active in one period.
type Summary struct {
	Period          Period
	TotalIncome     Money
	TotalExpenses   Money
	RemainingBudget Money
	PerCategory     map[string]CategoryTotal
	ItemCount       int
	// Unassigned holds the totals of items whose category no longer exists.
	Unassigned CategoryTotal
}

// Aggregate sums the items active in target. Input items are not modified.
func Aggregate(items []BudgetItem, target Period) Summary {
	s := Summary{
		Period:        target,
		TotalIncome:   Zero,
		TotalExpenses: Zero,
		PerCategory:   make(map[string]CategoryTotal),
		Unassigned:    CategoryTotal{Income: Zero, Expenses: Zero},
	}

	for _, it := range items {
		if !IsActiveInPeriod(it, target) {
			continue
		}

		var entry CategoryTotal
		if it.Category == nil {
			entry = s.Unassigned
		} else {
			var ok bool
			entry, ok = s.PerCategory[it.Category.Name]
			if !ok {
				entry = CategoryTotal{Name: it.Category.Name, Type: it.Category.Type, Income: Zero, Expenses: Zero}
			}
		}

		switch it.ItemType {
		case ItemIncome:
			s.TotalIncome = s.TotalIncome.Add(it.Amount)
			entry.Income = entry.Income.Add(it.Amount)
		case ItemExpense:
			s.TotalExpenses = s.TotalExpenses.Add(it.Amount)
			entry.Expenses = entry.Expenses.Add(it.Amount)
		default:
			continue
		}
		s.ItemCount++

		if it.Category == nil {
			s.Unassigned = entry
		} else {
			s.PerCategory[entry.Name] = entry
		}
	}

	s.RemainingBudget = s.TotalIncome.Sub(s.TotalExpenses)
	return s
}

// Categories returns the per-category totals sorted by name.
func (s Summary) Categories() []CategoryTotal {
	out := make([]CategoryTotal, 0, len(s.PerCategory))
	for _, c := range s.PerCategory {
		out = append(out, c)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

// CategoryAmount is a single category amount for breakdown views.
type CategoryAmount struct {
	Name   string       `json:"name"`
	Amount Money        `json:"value"`
	Type   CategoryType `json:"type"`
}

// ExpenseBreakdown returns expense amounts per category, largest first.
// Pure income categories are left out.
func (s Summary) ExpenseBreakdown() []CategoryAmount {
	out := make([]CategoryAmount, 0, len(s.PerCategory))
	for _, c := range s.PerCategory {
		if c.Type == CategoryIncome || c.Expenses.IsZero() {
			continue
		}
		out = append(out, CategoryAmount{Name: c.Name, Amount: c.Expenses, Type: c.Type})
	}
	sortByAmountDesc(out)
	return out
}

func sortByAmountDesc(out []CategoryAmount) {
	sort.Slice(out, func(i, j int) bool {
		if c := out[i].Amount.Cmp(out[j].Amount.Decimal); c != 0 {
			return c > 0
		}
		return out[i].Name < out[j].Name
	})
}

// Rounded returns a copy with every amount rounded for presentation.
func (s Summary) Rounded() Summary {
	r := s
	r.TotalIncome = s.TotalIncome.Round()
	r.TotalExpenses = s.TotalExpenses.Round()
	r.RemainingBudget = s.RemainingBudget.Round()
	r.PerCategory = make(map[string]CategoryTotal, len(s.PerCategory))
	for k, c := range s.PerCategory {
		c.Income = c.Income.Round()
		c.Expenses = c.Expenses.Round()
		r.PerCategory[k] = c
	}
	r.Unassigned.Income = s.Unassigned.Income.Round()
	r.Unassigned.Expenses = s.Unassigned.Expenses.Round()
	return r
}

// SavingsRate is the share of income left over, as a rounded percentage.
func (s Summary) SavingsRate() int64 {
	return s.RemainingBudget.RatePercent(s.TotalIncome)
}

func (s Summary) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		Month           int             `json:"month"`
		Year            int             `json:"year"`
		TotalIncome     Money           `json:"totalIncome"`
		TotalExpenses   Money           `json:"totalExpenses"`
		RemainingBudget Money           `json:"remainingBudget"`
		SavingsRate     int64           `json:"savingsRate"`
		ItemCount       int             `json:"itemCount"`
		Categories      []CategoryTotal `json:"categories"`
		Unassigned      CategoryTotal   `json:"unassigned"`
	}{
		Month:           s.Period.Month,
		Year:            s.Period.Year,
		TotalIncome:     s.TotalIncome,
		TotalExpenses:   s.TotalExpenses,
		RemainingBudget: s.RemainingBudget,
		SavingsRate:     s.SavingsRate(),
		ItemCount:       s.ItemCount,
		Categories:      s.Categories(),
		Unassigned:      s.Unassigned,
	})
}
