package services

import (
	"context"
	"fmt"
	"time"

	"golang.org/x/sync/errgroup"

	"budget/internal/cache"
	"budget/internal/core"
	"budget/internal/log"
)

// Statistics is the chart data for one period range.
type Statistics struct {
	Kind           core.PeriodKind        `json:"period"`
	Year           int                    `json:"year"`
	Periods        []core.Period          `json:"periods"`
	IncomeExpenses []core.ChartDataPoint  `json:"incomeExpenses"`
	Categories     []core.CategoryAmount  `json:"categories"`
	Recurring      []core.RecurringAmount `json:"recurring"`
}

// ReportService computes read-only views over a user's items. Results are
// cached per user and dropped by InvalidateUser after every write.
type ReportService struct {
	items  ItemStore
	cache  cache.Cache[any]
	logger *log.Logger
}

// NewReportService wires the service. A nil cache disables caching, which
// is what the worker wants since writes happen in another process.
func NewReportService(items ItemStore, c cache.Cache[any], logger *log.Logger) *ReportService {
	if logger == nil {
		logger = log.New(log.DefaultConfig())
	}
	return &ReportService{
		items:  items,
		cache:  c,
		logger: logger.WithComponent(log.ComponentReport),
	}
}

func (s *ReportService) InvalidateUser(userID string) {
	if s.cache == nil {
		return
	}
	if n := s.cache.DeletePrefix(userID + ":"); n > 0 {
		s.logger.Debug("Invalidated cached reports", log.FieldUserID, userID, "entries", n)
	}
}

// cached returns the value under key, computing and storing it on a miss.
func cached[T any](s *ReportService, key string, load func() (T, error)) (T, error) {
	if s.cache != nil {
		if v, ok := s.cache.Get(key); ok {
			if t, ok := v.(T); ok {
				return t, nil
			}
		}
	}
	v, err := load()
	if err != nil {
		return v, err
	}
	if s.cache != nil {
		s.cache.Set(key, v)
	}
	return v, nil
}

func cacheKey(userID, kind string, parts ...any) string {
	key := userID + ":" + kind
	for _, p := range parts {
		key += fmt.Sprintf(":%v", p)
	}
	return key
}

// Summary aggregates the items active in p.
func (s *ReportService) Summary(ctx context.Context, userID string, p core.Period) (core.Summary, error) {
	if err := p.Validate(); err != nil {
		return core.Summary{}, err
	}
	return cached(s, cacheKey(userID, "summary", p), func() (core.Summary, error) {
		items, err := s.items.ListItemsThrough(ctx, userID, p)
		if err != nil {
			return core.Summary{}, fmt.Errorf("load items for %s: %w", p, err)
		}
		return core.Aggregate(items, p), nil
	})
}

// Insights compares the expenses of p with the month before it. Both
// summaries load concurrently.
func (s *ReportService) Insights(ctx context.Context, userID string, p core.Period) ([]core.Insight, error) {
	if err := p.Validate(); err != nil {
		return nil, err
	}
	return cached(s, cacheKey(userID, "insights", p), func() ([]core.Insight, error) {
		var current, previous core.Summary
		g, gctx := errgroup.WithContext(ctx)
		g.Go(func() error {
			var err error
			current, err = s.Summary(gctx, userID, p)
			return err
		})
		g.Go(func() error {
			var err error
			previous, err = s.Summary(gctx, userID, p.Previous())
			return err
		})
		if err := g.Wait(); err != nil {
			return nil, err
		}
		insights := core.CompareTrend(current.PerCategory, previous.PerCategory)
		if insights == nil {
			insights = []core.Insight{}
		}
		return insights, nil
	})
}

// MonthlySummaries returns the twelve monthly summaries of year.
func (s *ReportService) MonthlySummaries(ctx context.Context, userID string, year int) ([]core.MonthlySummary, error) {
	return cached(s, cacheKey(userID, "monthly", year), func() ([]core.MonthlySummary, error) {
		items, err := s.items.ListItemsThrough(ctx, userID, core.NewPeriod(12, year))
		if err != nil {
			return nil, fmt.Errorf("load items for %d: %w", year, err)
		}
		return core.MonthlySummaries(items, year), nil
	})
}

// Statistics builds the chart series for the month, quarter or year that
// contains (month, year).
func (s *ReportService) Statistics(ctx context.Context, userID string, kind core.PeriodKind, year, month int) (Statistics, error) {
	periods, err := core.PeriodRange(kind, year, month)
	if err != nil {
		return Statistics{}, err
	}
	return cached(s, cacheKey(userID, "stats", kind, year, month), func() (Statistics, error) {
		last := periods[len(periods)-1]
		items, err := s.items.ListItemsThrough(ctx, userID, last)
		if err != nil {
			return Statistics{}, fmt.Errorf("load items through %s: %w", last, err)
		}
		return Statistics{
			Kind:           kind,
			Year:           year,
			Periods:        periods,
			IncomeExpenses: core.IncomeExpensesSeries(items, periods),
			Categories:     core.CategoryBreakdown(items, periods),
			Recurring:      core.RecurringBreakdown(items, periods),
		}, nil
	})
}

// AccountSummary reports the overall balance and the figures of the month
// containing now.
func (s *ReportService) AccountSummary(ctx context.Context, userID string, now time.Time) (core.AccountSummary, error) {
	current := core.PeriodOf(now)
	return cached(s, cacheKey(userID, "account", current), func() (core.AccountSummary, error) {
		items, err := s.items.ListItems(ctx, userID)
		if err != nil {
			return core.AccountSummary{}, fmt.Errorf("load items: %w", err)
		}
		return core.SummarizeAccount(items, current), nil
	})
}
