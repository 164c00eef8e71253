// Package memory is the BudgetSheetWriter used when no spreadsheet is
// configured. It keeps the last rendering of every tab.
package memory

import (
	"context"
	"sort"
	"sync"

	"budget/internal/sheets"
)

type Writer struct {
	mu     sync.Mutex
	tabs   map[string][][]any
	writes int
}

func New() *Writer {
	return &Writer{tabs: make(map[string][][]any)}
}

// WriteMonth replaces the tab for sheet's user and period.
func (w *Writer) WriteMonth(_ context.Context, sheet sheets.MonthSheet) error {
	if err := sheet.Period.Validate(); err != nil {
		return err
	}
	rows := sheets.Rows(sheet)

	w.mu.Lock()
	defer w.mu.Unlock()
	w.tabs[sheets.TabName(sheet.UserID, sheet.Period)] = rows
	w.writes++
	return nil
}

// Tab returns a copy of the rows last written to name.
func (w *Writer) Tab(name string) ([][]any, bool) {
	w.mu.Lock()
	defer w.mu.Unlock()
	rows, ok := w.tabs[name]
	if !ok {
		return nil, false
	}
	out := make([][]any, len(rows))
	for i, r := range rows {
		out[i] = append([]any(nil), r...)
	}
	return out, true
}

// Tabs lists the tab names written so far, sorted.
func (w *Writer) Tabs() []string {
	w.mu.Lock()
	defer w.mu.Unlock()
	out := make([]string, 0, len(w.tabs))
	for name := range w.tabs {
		out = append(out, name)
	}
	sort.Strings(out)
	return out
}

// Writes counts WriteMonth calls, including rewrites of the same tab.
func (w *Writer) Writes() int {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.writes
}
