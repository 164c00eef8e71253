package services

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"budget/internal/amqp"
	"budget/internal/core"
	"budget/internal/log"
	"budget/internal/storage/memory"
)

type fakePublisher struct {
	mu     sync.Mutex
	events []*amqp.ItemEvent
	err    error
}

func (f *fakePublisher) PublishItemEvent(_ context.Context, ev *amqp.ItemEvent) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return f.err
	}
	f.events = append(f.events, ev)
	return nil
}

func (f *fakePublisher) last() *amqp.ItemEvent {
	f.mu.Lock()
	defer f.mu.Unlock()
	if len(f.events) == 0 {
		return nil
	}
	return f.events[len(f.events)-1]
}

type countingInvalidator struct{ calls map[string]int }

func (c *countingInvalidator) InvalidateUser(userID string) {
	if c.calls == nil {
		c.calls = map[string]int{}
	}
	c.calls[userID]++
}

type fixture struct {
	svc    *BudgetService
	store  *memory.Store
	events *fakePublisher
	inval  *countingInvalidator
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	f := &fixture{store: memory.New(), events: &fakePublisher{}, inval: &countingInvalidator{}}
	f.svc = NewBudgetService(f.store, f.events, f.inval, log.NewDiscard())

	clock := time.Date(2025, 2, 10, 12, 0, 0, 0, time.UTC)
	f.svc.now = func() time.Time {
		clock = clock.Add(time.Second)
		return clock
	}
	n := 0
	f.svc.newID = func() string {
		n++
		return fmt.Sprintf("id-%02d", n)
	}
	return f
}

func (f *fixture) category(t *testing.T, name string, typ core.CategoryType) core.Category {
	t.Helper()
	c, err := f.svc.CreateCategory(context.Background(), "u1", name, typ)
	if err != nil {
		t.Fatalf("CreateCategory(%s) error = %v", name, err)
	}
	return c
}

func (f *fixture) item(t *testing.T, cat core.Category, typ core.ItemType, amount string, repeat core.Repeat, month int) core.BudgetItem {
	t.Helper()
	it, err := f.svc.CreateItem(context.Background(), "u1", ItemInput{
		CategoryID: cat.ID,
		Name:       cat.Name + " item",
		Amount:     core.MustMoney(amount),
		ItemType:   typ,
		Period:     core.NewPeriod(month, 2025),
		Repeat:     repeat,
	})
	if err != nil {
		t.Fatalf("CreateItem() error = %v", err)
	}
	return it
}

func TestListCategoriesSeedsDefaultsOnce(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	cats, err := f.svc.ListCategories(ctx, "u1")
	if err != nil {
		t.Fatalf("ListCategories() error = %v", err)
	}
	want := []string{"Fixed Income", "Variable Income", "Fixed Expenses", "Variable Expenses"}
	if len(cats) != len(want) {
		t.Fatalf("got %d categories, want %d", len(cats), len(want))
	}
	for i, c := range cats {
		if c.Name != want[i] || !c.IsDefault || c.UserID != "u1" {
			t.Errorf("category %d = %+v, want default %q", i, c, want[i])
		}
	}

	again, _ := f.svc.ListCategories(ctx, "u1")
	if len(again) != 4 {
		t.Errorf("second list returned %d categories, want 4", len(again))
	}
	other, _ := f.svc.ListCategories(ctx, "u2")
	if len(other) != 4 || other[0].ID == cats[0].ID {
		t.Errorf("u2 should get its own defaults, got %+v", other)
	}
}

func TestCreateCategoryValidation(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	tests := []struct {
		name    string
		catName string
		typ     core.CategoryType
		wantErr error
	}{
		{"valid", "Pets", core.CategoryExpense, nil},
		{"blank name", "   ", core.CategoryExpense, core.ErrEmptyName},
		{"bad type", "Misc", core.CategoryType("other"), core.ErrInvalidCategoryType},
		{"duplicate", "Pets", core.CategoryMixed, core.ErrDuplicateCategory},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c, err := f.svc.CreateCategory(ctx, "u1", tt.catName, tt.typ)
			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Fatalf("error = %v, want %v", err, tt.wantErr)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error %v", err)
			}
			if !c.IsVisible || c.ID == "" {
				t.Errorf("new category = %+v", c)
			}
		})
	}
}

func TestRenameAndHideCategory(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	c := f.category(t, "Pets", core.CategoryExpense)

	renamed, err := f.svc.RenameCategory(ctx, "u1", c.ID, "  Animals ")
	if err != nil || renamed.Name != "Animals" {
		t.Fatalf("RenameCategory() = %+v, %v", renamed, err)
	}
	if f.inval.calls["u1"] == 0 {
		t.Error("rename should invalidate cached reports")
	}

	hidden, err := f.svc.SetCategoryVisibility(ctx, "u1", c.ID, false)
	if err != nil || hidden.IsVisible {
		t.Fatalf("SetCategoryVisibility() = %+v, %v", hidden, err)
	}

	if _, err := f.svc.RenameCategory(ctx, "u2", c.ID, "Mine"); !errors.Is(err, core.ErrNotFound) {
		t.Errorf("renaming another user's category: error = %v, want ErrNotFound", err)
	}
}

func TestDeleteCategoryPolicies(t *testing.T) {
	ctx := context.Background()

	t.Run("default categories are protected", func(t *testing.T) {
		f := newFixture(t)
		cats, _ := f.svc.ListCategories(ctx, "u1")
		if err := f.svc.DeleteCategory(ctx, "u1", cats[0].ID, PolicyCascade); !errors.Is(err, core.ErrDefaultCategory) {
			t.Fatalf("error = %v, want ErrDefaultCategory", err)
		}
	})

	t.Run("empty category needs no policy", func(t *testing.T) {
		f := newFixture(t)
		c := f.category(t, "Pets", core.CategoryExpense)
		if err := f.svc.DeleteCategory(ctx, "u1", c.ID, PolicyNone); err != nil {
			t.Fatalf("DeleteCategory() error = %v", err)
		}
		if len(f.events.events) != 0 {
			t.Errorf("no items changed, got events %+v", f.events.events)
		}
	})

	t.Run("items without policy", func(t *testing.T) {
		f := newFixture(t)
		c := f.category(t, "Pets", core.CategoryExpense)
		f.item(t, c, core.ItemExpense, "20", core.OneTime, 2)
		if err := f.svc.DeleteCategory(ctx, "u1", c.ID, PolicyNone); !errors.Is(err, core.ErrCategoryHasItems) {
			t.Fatalf("error = %v, want ErrCategoryHasItems", err)
		}
	})

	t.Run("cascade", func(t *testing.T) {
		f := newFixture(t)
		c := f.category(t, "Pets", core.CategoryExpense)
		f.item(t, c, core.ItemExpense, "20", core.OneTime, 2)
		if err := f.svc.DeleteCategory(ctx, "u1", c.ID, PolicyCascade); err != nil {
			t.Fatalf("DeleteCategory() error = %v", err)
		}
		items, _ := f.store.ListItems(ctx, "u1")
		if len(items) != 0 {
			t.Errorf("cascade left %d items", len(items))
		}
		ev := f.events.last()
		if ev.Kind != amqp.ItemDeleted || len(ev.Periods) != 1 || ev.Periods[0] != core.NewPeriod(2, 2025) {
			t.Errorf("last event = %+v", ev)
		}
	})

	t.Run("orphan", func(t *testing.T) {
		f := newFixture(t)
		c := f.category(t, "Pets", core.CategoryExpense)
		it := f.item(t, c, core.ItemExpense, "20", core.OneTime, 2)
		if err := f.svc.DeleteCategory(ctx, "u1", c.ID, PolicyOrphan); err != nil {
			t.Fatalf("DeleteCategory() error = %v", err)
		}
		got, err := f.store.GetItem(ctx, "u1", it.ID)
		if err != nil || got.Category != nil || got.CategoryID != c.ID {
			t.Errorf("orphaned item = %+v, %v", got, err)
		}
		if ev := f.events.last(); ev.Kind != amqp.ItemUpdated {
			t.Errorf("last event kind = %s, want updated", ev.Kind)
		}
	})
}

func TestParseDeletePolicy(t *testing.T) {
	for in, want := range map[string]DeletePolicy{"": PolicyNone, "cascade": PolicyCascade, "ORPHAN": PolicyOrphan} {
		got, err := ParseDeletePolicy(in)
		if err != nil || got != want {
			t.Errorf("ParseDeletePolicy(%q) = %q, %v", in, got, err)
		}
	}
	if _, err := ParseDeletePolicy("keep"); !errors.Is(err, ErrInvalidDeletePolicy) {
		t.Errorf("expected ErrInvalidDeletePolicy, got %v", err)
	}
}

func TestCreateItem(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	income := f.category(t, "Salary", core.CategoryIncome)
	mixed := f.category(t, "Side", core.CategoryMixed)

	tests := []struct {
		name    string
		in      ItemInput
		wantErr error
	}{
		{"income into income", ItemInput{CategoryID: income.ID, Name: "Pay", Amount: core.MustMoney("2000"),
			ItemType: core.ItemIncome, Period: core.NewPeriod(1, 2025), Repeat: core.Monthly}, nil},
		{"expense into mixed", ItemInput{CategoryID: mixed.ID, Name: "Tools", Amount: core.MustMoney("15.5"),
			ItemType: core.ItemExpense, Period: core.NewPeriod(1, 2025), Repeat: core.OneTime}, nil},
		{"expense into income", ItemInput{CategoryID: income.ID, Name: "Oops", Amount: core.MustMoney("1"),
			ItemType: core.ItemExpense, Period: core.NewPeriod(1, 2025), Repeat: core.OneTime}, core.ErrTypeMismatch},
		{"zero amount", ItemInput{CategoryID: income.ID, Name: "Nothing", Amount: core.Zero,
			ItemType: core.ItemIncome, Period: core.NewPeriod(1, 2025), Repeat: core.OneTime}, core.ErrInvalidAmount},
		{"bad month", ItemInput{CategoryID: income.ID, Name: "Pay", Amount: core.MustMoney("1"),
			ItemType: core.ItemIncome, Period: core.NewPeriod(13, 2025), Repeat: core.OneTime}, core.ErrInvalidMonth},
		{"bad repeat", ItemInput{CategoryID: income.ID, Name: "Pay", Amount: core.MustMoney("1"),
			ItemType: core.ItemIncome, Period: core.NewPeriod(1, 2025), Repeat: 9}, core.ErrInvalidRepeat},
		{"unknown category", ItemInput{CategoryID: "missing", Name: "Pay", Amount: core.MustMoney("1"),
			ItemType: core.ItemIncome, Period: core.NewPeriod(1, 2025), Repeat: core.OneTime}, core.ErrNotFound},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			before := len(f.events.events)
			it, err := f.svc.CreateItem(ctx, "u1", tt.in)
			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Fatalf("error = %v, want %v", err, tt.wantErr)
				}
				if len(f.events.events) != before {
					t.Error("failed create must not publish")
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error %v", err)
			}
			if it.Category == nil || it.Category.ID != tt.in.CategoryID {
				t.Errorf("item category = %+v", it.Category)
			}
			ev := f.events.last()
			if ev.Kind != amqp.ItemCreated || ev.ItemID != it.ID || ev.Periods[0] != tt.in.Period {
				t.Errorf("event = %+v", ev)
			}
		})
	}
}

func TestCreateItemPublishFailureDoesNotFail(t *testing.T) {
	f := newFixture(t)
	f.events.err = errors.New("broker down")
	c := f.category(t, "Food", core.CategoryExpense)

	it := f.item(t, c, core.ItemExpense, "10", core.OneTime, 3)
	if _, err := f.store.GetItem(context.Background(), "u1", it.ID); err != nil {
		t.Fatalf("item should be stored despite publish failure: %v", err)
	}
}

func TestUpdateItem(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	food := f.category(t, "Food", core.CategoryExpense)
	salary := f.category(t, "Salary", core.CategoryIncome)
	mixed := f.category(t, "Side", core.CategoryMixed)
	it := f.item(t, food, core.ItemExpense, "40", core.Monthly, 1)

	name := "Groceries"
	amount := core.MustMoney("45.10")
	period := core.NewPeriod(3, 2025)
	got, err := f.svc.UpdateItem(ctx, "u1", it.ID, ItemPatch{Name: &name, Amount: &amount, Period: &period})
	if err != nil {
		t.Fatalf("UpdateItem() error = %v", err)
	}
	if got.Name != "Groceries" || !got.Amount.Equal(amount) || got.Period != period || !got.UpdatedAt.After(it.UpdatedAt) {
		t.Errorf("updated item = %+v", got)
	}
	ev := f.events.last()
	if ev.Kind != amqp.ItemUpdated || len(ev.Periods) != 2 {
		t.Errorf("update event should carry old and new anchor, got %+v", ev)
	}

	if _, err := f.svc.UpdateItem(ctx, "u1", it.ID, ItemPatch{CategoryID: &salary.ID}); !errors.Is(err, core.ErrTypeMismatch) {
		t.Errorf("moving an expense into an income category: error = %v, want ErrTypeMismatch", err)
	}

	income := core.ItemIncome
	if _, err := f.svc.UpdateItem(ctx, "u1", it.ID, ItemPatch{ItemType: &income}); !errors.Is(err, core.ErrTypeMismatch) {
		t.Errorf("flipping type inside an expense category: error = %v, want ErrTypeMismatch", err)
	}

	got, err = f.svc.UpdateItem(ctx, "u1", it.ID, ItemPatch{CategoryID: &mixed.ID, ItemType: &income})
	if err != nil || got.ItemType != core.ItemIncome || got.Category.Name != "Side" {
		t.Errorf("mixed category should accept income: %+v, %v", got, err)
	}

	if _, err := f.svc.UpdateItem(ctx, "u1", "nope", ItemPatch{Name: &name}); !errors.Is(err, core.ErrNotFound) {
		t.Errorf("error = %v, want ErrNotFound", err)
	}
}

func TestUpdateOrphanedItem(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	c := f.category(t, "Trips", core.CategoryExpense)
	it := f.item(t, c, core.ItemExpense, "300", core.OneTime, 5)
	if err := f.svc.DeleteCategory(ctx, "u1", c.ID, PolicyOrphan); err != nil {
		t.Fatalf("DeleteCategory() error = %v", err)
	}

	name := "Flight"
	got, err := f.svc.UpdateItem(ctx, "u1", it.ID, ItemPatch{Name: &name})
	if err != nil {
		t.Fatalf("UpdateItem() on orphan error = %v", err)
	}
	if got.Category != nil || got.CategoryID != c.ID {
		t.Errorf("orphan should keep its dangling reference, got %+v", got)
	}
}

func TestDeleteItem(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	c := f.category(t, "Food", core.CategoryExpense)
	it := f.item(t, c, core.ItemExpense, "10", core.OneTime, 2)

	if err := f.svc.DeleteItem(ctx, "u1", it.ID); err != nil {
		t.Fatalf("DeleteItem() error = %v", err)
	}
	if ev := f.events.last(); ev.Kind != amqp.ItemDeleted || ev.ItemID != it.ID {
		t.Errorf("event = %+v", ev)
	}
	if err := f.svc.DeleteItem(ctx, "u1", it.ID); !errors.Is(err, core.ErrNotFound) {
		t.Errorf("second delete error = %v, want ErrNotFound", err)
	}
}

func TestListItemsProjectsRecurring(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	salary := f.category(t, "Salary", core.CategoryIncome)
	food := f.category(t, "Food", core.CategoryExpense)
	f.item(t, salary, core.ItemIncome, "2000", core.Monthly, 1)
	f.item(t, food, core.ItemExpense, "50", core.OneTime, 1)
	f.item(t, food, core.ItemExpense, "120", core.Quarterly, 2)
	f.item(t, food, core.ItemExpense, "70", core.OneTime, 6)

	tests := []struct {
		month int
		want  int
	}{
		{1, 2}, // salary and the one-time item
		{2, 2}, // salary and the quarterly anchor
		{3, 1},
		{5, 2}, // quarterly again
		{6, 2},
	}
	for _, tt := range tests {
		t.Run(fmt.Sprintf("month %d", tt.month), func(t *testing.T) {
			items, err := f.svc.ListItems(ctx, "u1", core.NewPeriod(tt.month, 2025))
			if err != nil {
				t.Fatalf("ListItems() error = %v", err)
			}
			if len(items) != tt.want {
				t.Errorf("got %d items, want %d", len(items), tt.want)
			}
		})
	}

	if _, err := f.svc.ListItems(ctx, "u1", core.NewPeriod(0, 2025)); !errors.Is(err, core.ErrInvalidMonth) {
		t.Errorf("error = %v, want ErrInvalidMonth", err)
	}
}

func TestRecentItemsLimit(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	c := f.category(t, "Food", core.CategoryExpense)
	for i := 0; i < 12; i++ {
		f.item(t, c, core.ItemExpense, "1", core.OneTime, 1)
	}

	tests := []struct {
		limit int
		want  int
	}{
		{0, DefaultRecentLimit},
		{-3, DefaultRecentLimit},
		{5, 5},
		{500, 12},
	}
	for _, tt := range tests {
		items, err := f.svc.RecentItems(ctx, "u1", tt.limit)
		if err != nil {
			t.Fatalf("RecentItems(%d) error = %v", tt.limit, err)
		}
		if len(items) != tt.want {
			t.Errorf("RecentItems(%d) returned %d, want %d", tt.limit, len(items), tt.want)
		}
	}
}
