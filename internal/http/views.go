package http

import (
	"time"

	"budget/internal/core"
)

// JSON shapes of the domain types. The core package stays free of wire
// concerns.

type categoryView struct {
	ID        string            `json:"id"`
	Name      string            `json:"name"`
	Type      core.CategoryType `json:"type"`
	IsDefault bool              `json:"isDefault"`
	IsVisible bool              `json:"isVisible"`
	CreatedAt time.Time         `json:"createdAt"`
}

func toCategoryView(c core.Category) categoryView {
	return categoryView{
		ID:        c.ID,
		Name:      c.Name,
		Type:      c.Type,
		IsDefault: c.IsDefault,
		IsVisible: c.IsVisible,
		CreatedAt: c.CreatedAt,
	}
}

func toCategoryViews(cats []core.Category) []categoryView {
	out := make([]categoryView, 0, len(cats))
	for _, c := range cats {
		out = append(out, toCategoryView(c))
	}
	return out
}

type itemView struct {
	ID         string        `json:"id"`
	Name       string        `json:"name"`
	Amount     core.Money    `json:"amount"`
	ItemType   core.ItemType `json:"itemType"`
	CategoryID string        `json:"categoryId"`
	// Category is null for items whose category was deleted.
	Category    *categoryView `json:"category"`
	Month       int           `json:"month"`
	Year        int           `json:"year"`
	Repeat      int           `json:"repeat"`
	RepeatLabel string        `json:"repeatLabel"`
	CreatedAt   time.Time     `json:"createdAt"`
	UpdatedAt   time.Time     `json:"updatedAt"`
}

func toItemView(it core.BudgetItem) itemView {
	v := itemView{
		ID:          it.ID,
		Name:        it.Name,
		Amount:      it.Amount,
		ItemType:    it.ItemType,
		CategoryID:  it.CategoryID,
		Month:       it.Period.Month,
		Year:        it.Period.Year,
		Repeat:      int(it.Repeat),
		RepeatLabel: it.Repeat.String(),
		CreatedAt:   it.CreatedAt,
		UpdatedAt:   it.UpdatedAt,
	}
	if it.Category != nil {
		c := toCategoryView(*it.Category)
		v.Category = &c
	}
	return v
}

func toItemViews(items []core.BudgetItem) []itemView {
	out := make([]itemView, 0, len(items))
	for _, it := range items {
		out = append(out, toItemView(it))
	}
	return out
}

// overviewView is the three headline totals of a month.
type overviewView struct {
	TotalIncome     core.Money `json:"totalIncome"`
	TotalExpenses   core.Money `json:"totalExpenses"`
	RemainingBudget core.Money `json:"remainingBudget"`
}
