// Package worker consumes item events and keeps the spreadsheet mirror of
// each affected month up to date.
package worker

import (
	"context"
	"fmt"
	"time"

	"budget/internal/amqp"
	"budget/internal/core"
	"budget/internal/log"
	"budget/internal/sheets"
)

// MonthReader is the read side the worker rebuilds a month from.
type MonthReader interface {
	Summary(ctx context.Context, userID string, p core.Period) (core.Summary, error)
}

// ItemLister lists the items active in a period.
type ItemLister interface {
	ListItems(ctx context.Context, userID string, p core.Period) ([]core.BudgetItem, error)
}

// EventSource delivers item events until ctx is done.
type EventSource interface {
	ConsumeItemEvents(ctx context.Context, handler func(context.Context, *amqp.ItemEvent) error) error
}

type MirrorWorker struct {
	reports MonthReader
	items   ItemLister
	sheets  sheets.BudgetSheetWriter
	logger  *log.Logger
	now     func() time.Time
}

func NewMirrorWorker(reports MonthReader, items ItemLister, writer sheets.BudgetSheetWriter, logger *log.Logger) *MirrorWorker {
	if logger == nil {
		logger = log.New(log.DefaultConfig())
	}
	return &MirrorWorker{
		reports: reports,
		items:   items,
		sheets:  writer,
		logger:  logger.WithComponent(log.ComponentWorker),
		now:     time.Now,
	}
}

// Run consumes events from src until ctx is cancelled.
func (w *MirrorWorker) Run(ctx context.Context, src EventSource) error {
	w.logger.InfoContext(ctx, "Mirror worker started")
	err := src.ConsumeItemEvents(ctx, w.HandleItemEvent)
	if ctx.Err() != nil {
		w.logger.InfoContext(ctx, "Mirror worker stopped")
		return nil
	}
	return err
}

// HandleItemEvent rewrites the month tab of every period the event touches.
// Each write replaces the whole tab, so redelivered events are harmless.
func (w *MirrorWorker) HandleItemEvent(ctx context.Context, ev *amqp.ItemEvent) error {
	targets := Targets(ev.Periods, core.PeriodOf(w.now()))
	w.logger.InfoContext(ctx, "Processing item event",
		log.FieldEventKind, string(ev.Kind),
		log.FieldUserID, ev.UserID,
		log.FieldItemID, ev.ItemID,
		"months", len(targets))

	for _, p := range targets {
		if err := w.MirrorMonth(ctx, ev.UserID, p); err != nil {
			return err
		}
	}
	return nil
}

// MirrorMonth rebuilds and writes one user's month.
func (w *MirrorWorker) MirrorMonth(ctx context.Context, userID string, p core.Period) error {
	summary, err := w.reports.Summary(ctx, userID, p)
	if err != nil {
		return fmt.Errorf("summarize %s: %w", p, err)
	}
	items, err := w.items.ListItems(ctx, userID, p)
	if err != nil {
		return fmt.Errorf("list items for %s: %w", p, err)
	}

	sheet := sheets.MonthSheet{UserID: userID, Period: p, Summary: summary, Items: items}
	if err := w.sheets.WriteMonth(ctx, sheet); err != nil {
		return fmt.Errorf("write %s: %w", sheets.TabName(userID, p), err)
	}

	w.logger.InfoContext(ctx, "Mirrored month",
		log.FieldUserID, userID,
		log.FieldPeriod, p.String(),
		"items", len(items))
	return nil
}

// Targets returns the months to rebuild for an event: its periods, plus the
// current month when any of them lies before it, since recurring items
// anchored earlier project into the current month. Order is preserved and
// duplicates dropped.
func Targets(periods []core.Period, current core.Period) []core.Period {
	out := make([]core.Period, 0, len(periods)+1)
	seen := make(map[core.Period]bool, len(periods)+1)
	addCurrent := false
	for _, p := range periods {
		if seen[p] {
			continue
		}
		seen[p] = true
		out = append(out, p)
		if p.Before(current) {
			addCurrent = true
		}
	}
	if addCurrent && !seen[current] {
		out = append(out, current)
	}
	return out
}
