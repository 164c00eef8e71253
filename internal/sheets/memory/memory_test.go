package memory

import (
	"context"
	"reflect"
	"testing"

	"budget/internal/core"
	"budget/internal/sheets"
)

func monthSheet() sheets.MonthSheet {
	cat := &core.Category{ID: "c1", Name: "Rent", Type: core.CategoryExpense}
	items := []core.BudgetItem{{
		ID: "i1", CategoryID: "c1", Category: cat, Name: "Flat",
		Amount: core.MustMoney("900"), ItemType: core.ItemExpense,
		Period: core.NewPeriod(1, 2025), Repeat: core.Monthly,
	}}
	p := core.NewPeriod(2, 2025)
	return sheets.MonthSheet{UserID: "u1", Period: p, Summary: core.Aggregate(items, p), Items: items}
}

func TestWriterReplacesTab(t *testing.T) {
	w := New()
	ctx := context.Background()
	sheet := monthSheet()

	if err := w.WriteMonth(ctx, sheet); err != nil {
		t.Fatalf("WriteMonth() error = %v", err)
	}
	first, ok := w.Tab("u1 2025-02")
	if !ok {
		t.Fatalf("tab not written, have %v", w.Tabs())
	}

	if err := w.WriteMonth(ctx, sheet); err != nil {
		t.Fatalf("WriteMonth() second call error = %v", err)
	}
	second, _ := w.Tab("u1 2025-02")
	if !reflect.DeepEqual(first, second) {
		t.Errorf("rewriting the same month changed the tab:\n%v\n%v", first, second)
	}
	if got := w.Tabs(); len(got) != 1 {
		t.Errorf("Tabs() = %v, want one tab", got)
	}
	if w.Writes() != 2 {
		t.Errorf("Writes() = %d, want 2", w.Writes())
	}
}

func TestWriterRejectsInvalidPeriod(t *testing.T) {
	w := New()
	sheet := monthSheet()
	sheet.Period = core.Period{Month: 13, Year: 2025}
	if err := w.WriteMonth(context.Background(), sheet); err == nil {
		t.Fatal("expected error for invalid period")
	}
}
