package core

// This file implements the projection rules that decide whether a stored item
// counts in a month other than its anchor. Each cadence has its own rule; the
// shared direction guard lives in IsActiveInPeriod so no rule can project an
// item backwards in time.

// ProjectionRule decides whether an item anchored at anchor is active in
// target. Rules are only consulted for targets strictly after the anchor.
type ProjectionRule interface {
	ActiveAfter(anchor, target Period) bool
}

// OneTimeRule never projects.
type OneTimeRule struct{}

func (OneTimeRule) ActiveAfter(_, _ Period) bool { return false }

// MonthlyRule projects into every later month.
type MonthlyRule struct{}

func (MonthlyRule) ActiveAfter(_, _ Period) bool { return true }

// QuarterlyRule projects every three months from the anchor, so the item
// keeps its position within the quarter: an item anchored in February shows
// up in May, August and November.
type QuarterlyRule struct{}

func (QuarterlyRule) ActiveAfter(anchor, target Period) bool {
	diff := target.MonthsSince(anchor)
	return diff >= 0 && diff%3 == 0
}

// YearlyRule projects into the anchor month of every later year.
type YearlyRule struct{}

func (YearlyRule) ActiveAfter(anchor, target Period) bool {
	return target.Month == anchor.Month && target.Year >= anchor.Year
}

// RuleFor returns the rule for r. Unknown cadences get the one-time rule, so
// an item with a corrupt repeat code shows up in its anchor month only.
func RuleFor(r Repeat) ProjectionRule {
	switch r {
	case Monthly:
		return MonthlyRule{}
	case Quarterly:
		return QuarterlyRule{}
	case Yearly:
		return YearlyRule{}
	default:
		return OneTimeRule{}
	}
}

// IsActiveInPeriod reports whether item counts in target.
//
// The anchor period is always active. Periods before the anchor never are.
// Later periods are delegated to the cadence rule.
func IsActiveInPeriod(item BudgetItem, target Period) bool {
	switch item.Period.Compare(target) {
	case 0:
		return true
	case 1:
		return false
	}
	return RuleFor(item.Repeat).ActiveAfter(item.Period, target)
}

// ActiveItems returns the items active in target, in input order.
func ActiveItems(items []BudgetItem, target Period) []BudgetItem {
	out := make([]BudgetItem, 0, len(items))
	for _, it := range items {
		if IsActiveInPeriod(it, target) {
			out = append(out, it)
		}
	}
	return out
}
