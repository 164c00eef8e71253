package core

import "testing"

func anchored(repeat Repeat, month, year int) BudgetItem {
	return BudgetItem{
		Name:     "item",
		Amount:   MustMoney("10"),
		ItemType: ItemExpense,
		Period:   NewPeriod(month, year),
		Repeat:   repeat,
	}
}

func TestIsActiveInPeriod(t *testing.T) {
	tests := []struct {
		name   string
		item   BudgetItem
		target Period
		want   bool
	}{
		{"one-time at anchor", anchored(OneTime, 3, 2024), NewPeriod(3, 2024), true},
		{"one-time next month", anchored(OneTime, 3, 2024), NewPeriod(4, 2024), false},
		{"one-time same month next year", anchored(OneTime, 3, 2024), NewPeriod(3, 2025), false},

		{"monthly at anchor", anchored(Monthly, 3, 2024), NewPeriod(3, 2024), true},
		{"monthly next month", anchored(Monthly, 3, 2024), NewPeriod(4, 2024), true},
		{"monthly next year", anchored(Monthly, 3, 2024), NewPeriod(1, 2025), true},
		{"monthly before anchor", anchored(Monthly, 3, 2024), NewPeriod(2, 2024), false},
		{"monthly previous year", anchored(Monthly, 3, 2024), NewPeriod(12, 2023), false},

		{"quarterly at anchor", anchored(Quarterly, 2, 2024), NewPeriod(2, 2024), true},
		{"quarterly next quarter same phase", anchored(Quarterly, 2, 2024), NewPeriod(5, 2024), true},
		{"quarterly fourth quarter", anchored(Quarterly, 2, 2024), NewPeriod(11, 2024), true},
		{"quarterly next year", anchored(Quarterly, 2, 2024), NewPeriod(2, 2025), true},
		{"quarterly wrong phase", anchored(Quarterly, 2, 2024), NewPeriod(4, 2024), false},
		{"quarterly same quarter later month", anchored(Quarterly, 2, 2024), NewPeriod(3, 2024), false},
		{"quarterly before anchor same phase", anchored(Quarterly, 2, 2024), NewPeriod(11, 2023), false},

		{"yearly at anchor", anchored(Yearly, 6, 2024), NewPeriod(6, 2024), true},
		{"yearly next year", anchored(Yearly, 6, 2024), NewPeriod(6, 2025), true},
		{"yearly two years later", anchored(Yearly, 6, 2024), NewPeriod(6, 2026), true},
		{"yearly other month", anchored(Yearly, 6, 2024), NewPeriod(7, 2024), false},
		{"yearly previous year", anchored(Yearly, 6, 2024), NewPeriod(6, 2023), false},

		{"unknown repeat at anchor", anchored(Repeat(9), 6, 2024), NewPeriod(6, 2024), true},
		{"unknown repeat later", anchored(Repeat(9), 6, 2024), NewPeriod(7, 2024), false},
		{"zero repeat later", anchored(Repeat(0), 6, 2024), NewPeriod(6, 2025), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := IsActiveInPeriod(tt.item, tt.target); got != tt.want {
				t.Errorf("IsActiveInPeriod() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestIsActiveInPeriodNeverBeforeAnchor(t *testing.T) {
	anchor := NewPeriod(7, 2024)
	for _, r := range []Repeat{OneTime, Monthly, Quarterly, Yearly, Repeat(42)} {
		item := anchored(r, anchor.Month, anchor.Year)
		if !IsActiveInPeriod(item, anchor) {
			t.Errorf("%s: anchor period must be active", r)
		}
		p := anchor.Previous()
		for i := 0; i < 48; i++ {
			if IsActiveInPeriod(item, p) {
				t.Errorf("%s: active at %s, before anchor %s", r, p, anchor)
			}
			p = p.Previous()
		}
	}
}

func TestOneTimeOnlyAtAnchor(t *testing.T) {
	item := anchored(OneTime, 5, 2024)
	p := NewPeriod(1, 2023)
	for i := 0; i < 48; i++ {
		want := p == item.Period
		if got := IsActiveInPeriod(item, p); got != want {
			t.Errorf("one-time at %s = %v, want %v", p, got, want)
		}
		p = p.Next()
	}
}

func TestQuarterlyPhaseSpacing(t *testing.T) {
	item := anchored(Quarterly, 2, 2024)
	var active []Period
	p := item.Period
	for i := 0; i < 24; i++ {
		if IsActiveInPeriod(item, p) {
			active = append(active, p)
		}
		p = p.Next()
	}
	want := []Period{
		NewPeriod(2, 2024), NewPeriod(5, 2024), NewPeriod(8, 2024), NewPeriod(11, 2024),
		NewPeriod(2, 2025), NewPeriod(5, 2025), NewPeriod(8, 2025), NewPeriod(11, 2025),
	}
	if len(active) != len(want) {
		t.Fatalf("active periods = %v, want %v", active, want)
	}
	for i := range want {
		if active[i] != want[i] {
			t.Errorf("active[%d] = %s, want %s", i, active[i], want[i])
		}
		if i > 0 && active[i].MonthsSince(active[i-1]) != 3 {
			t.Errorf("spacing between %s and %s is not three months", active[i-1], active[i])
		}
	}
}

func TestRuleForUnknownCadence(t *testing.T) {
	const corrupt Repeat = 20
	if _, ok := RuleFor(corrupt).(OneTimeRule); !ok {
		t.Fatalf("RuleFor(%d) = %T, want OneTimeRule", corrupt, RuleFor(corrupt))
	}

	item := anchored(corrupt, 1, 2025)
	if !IsActiveInPeriod(item, NewPeriod(1, 2025)) {
		t.Errorf("unknown cadence should still count in its anchor month")
	}
	for _, p := range []Period{NewPeriod(2, 2025), NewPeriod(1, 2026), NewPeriod(12, 2024)} {
		if IsActiveInPeriod(item, p) {
			t.Errorf("unknown cadence should not project into %s", p)
		}
	}
}

func TestActiveItems(t *testing.T) {
	items := []BudgetItem{
		anchored(OneTime, 1, 2025),
		anchored(Monthly, 1, 2025),
		anchored(Yearly, 1, 2025),
	}
	got := ActiveItems(items, NewPeriod(2, 2025))
	if len(got) != 1 || got[0].Repeat != Monthly {
		t.Fatalf("ActiveItems() = %+v, want only the monthly item", got)
	}
}
