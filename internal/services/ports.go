package services

import (
	"context"

	"budget/internal/amqp"
	"budget/internal/core"
)

// CategoryStore persists categories. Implementations scope every call to
// userID and return core.ErrNotFound for rows owned by someone else.
type CategoryStore interface {
	ListCategories(ctx context.Context, userID string) ([]core.Category, error)
	GetCategory(ctx context.Context, userID, id string) (core.Category, error)
	// EnsureCategories inserts the categories whose name the user does not
	// have yet. Existing names are left untouched.
	EnsureCategories(ctx context.Context, userID string, cats []core.Category) error
	CreateCategory(ctx context.Context, c core.Category) error
	UpdateCategory(ctx context.Context, c core.Category) error
	// DeleteCategory removes the category and, when cascade is set, its items.
	DeleteCategory(ctx context.Context, userID, id string, cascade bool) error
	CountItems(ctx context.Context, userID, categoryID string) (int, error)
}

// ItemStore persists budget items. Returned items carry their Category, or
// nil when the category no longer exists.
type ItemStore interface {
	ListItems(ctx context.Context, userID string) ([]core.BudgetItem, error)
	// ListItemsThrough returns the items anchored on or before p, the only
	// ones that can be active in p.
	ListItemsThrough(ctx context.Context, userID string, p core.Period) ([]core.BudgetItem, error)
	GetItem(ctx context.Context, userID, id string) (core.BudgetItem, error)
	CreateItem(ctx context.Context, it core.BudgetItem) error
	UpdateItem(ctx context.Context, it core.BudgetItem) error
	DeleteItem(ctx context.Context, userID, id string) error
	// RecentItems returns up to limit items, most recently updated first.
	RecentItems(ctx context.Context, userID string, limit int) ([]core.BudgetItem, error)
}

// Store is the full persistence port.
type Store interface {
	CategoryStore
	ItemStore
	Ping(ctx context.Context) error
	Close() error
}

// EventPublisher announces item changes to downstream consumers.
type EventPublisher interface {
	PublishItemEvent(ctx context.Context, ev *amqp.ItemEvent) error
}

// ReportInvalidator drops cached reports after a user's data changed.
type ReportInvalidator interface {
	InvalidateUser(userID string)
}
