package core

import (
	"fmt"
	"time"
)

// Period is a calendar month.
type Period struct {
	Month int `json:"month"` // 1-12
	Year  int `json:"year"`
}

func NewPeriod(month, year int) Period {
	return Period{Month: month, Year: year}
}

// PeriodOf returns the period containing t.
func PeriodOf(t time.Time) Period {
	return Period{Month: int(t.Month()), Year: t.Year()}
}

func (p Period) Validate() error {
	if p.Month < 1 || p.Month > 12 {
		return fmt.Errorf("%w: %d", ErrInvalidMonth, p.Month)
	}
	return nil
}

// index is a monotonic month counter used for ordering and distances.
func (p Period) index() int {
	return p.Year*12 + (p.Month - 1)
}

// Compare returns -1, 0 or +1 when p is before, equal to or after o.
func (p Period) Compare(o Period) int {
	a, b := p.index(), o.index()
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	default:
		return 0
	}
}

func (p Period) Before(o Period) bool { return p.Compare(o) < 0 }

func (p Period) After(o Period) bool { return p.Compare(o) > 0 }

// MonthsSince returns how many months p is after o (negative when before).
func (p Period) MonthsSince(o Period) int {
	return p.index() - o.index()
}

// Quarter returns 1-4.
func (p Period) Quarter() int {
	return (p.Month + 2) / 3
}

func (p Period) Previous() Period {
	if p.Month == 1 {
		return Period{Month: 12, Year: p.Year - 1}
	}
	return Period{Month: p.Month - 1, Year: p.Year}
}

func (p Period) Next() Period {
	if p.Month == 12 {
		return Period{Month: 1, Year: p.Year + 1}
	}
	return Period{Month: p.Month + 1, Year: p.Year}
}

// Start returns midnight UTC on the first day of the period.
func (p Period) Start() time.Time {
	return time.Date(p.Year, time.Month(p.Month), 1, 0, 0, 0, 0, time.UTC)
}

// ShortName returns the abbreviated month name ("Jan").
func (p Period) ShortName() string {
	return time.Month(p.Month).String()[:3]
}

func (p Period) String() string {
	return fmt.Sprintf("%04d-%02d", p.Year, p.Month)
}
