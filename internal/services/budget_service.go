package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"budget/internal/amqp"
	"budget/internal/core"
	"budget/internal/log"
)

// DeletePolicy says what happens to the items of a deleted category.
type DeletePolicy string

const (
	PolicyNone    DeletePolicy = ""
	PolicyCascade DeletePolicy = "cascade"
	PolicyOrphan  DeletePolicy = "orphan"
)

var ErrInvalidDeletePolicy = errors.New("invalid delete policy (want cascade or orphan)")

func ParseDeletePolicy(s string) (DeletePolicy, error) {
	switch p := DeletePolicy(strings.ToLower(strings.TrimSpace(s))); p {
	case PolicyNone, PolicyCascade, PolicyOrphan:
		return p, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrInvalidDeletePolicy, s)
	}
}

const (
	DefaultRecentLimit = 10
	MaxRecentLimit     = 100
)

// ItemInput carries the fields of a new budget item.
type ItemInput struct {
	CategoryID string
	Name       string
	Amount     core.Money
	ItemType   core.ItemType
	Period     core.Period
	Repeat     core.Repeat
}

// ItemPatch lists the fields to change on an item. Nil fields are kept.
type ItemPatch struct {
	CategoryID *string
	Name       *string
	Amount     *core.Money
	ItemType   *core.ItemType
	Period     *core.Period
	Repeat     *core.Repeat
}

// BudgetService owns categories and budget items. Writes go to the store
// first; the change event is published afterwards and a publish failure
// never fails the request.
type BudgetService struct {
	store   Store
	events  EventPublisher
	reports ReportInvalidator
	logger  *log.Logger
	audit   *log.StructuredLogger

	now   func() time.Time
	newID func() string
}

// NewBudgetService wires the service. events and reports may be nil.
func NewBudgetService(store Store, events EventPublisher, reports ReportInvalidator, logger *log.Logger) *BudgetService {
	if logger == nil {
		logger = log.New(log.DefaultConfig())
	}
	logger = logger.WithComponent(log.ComponentBudget)
	return &BudgetService{
		store:   store,
		events:  events,
		reports: reports,
		logger:  logger,
		audit:   log.NewStructuredLogger(logger),
		now:     func() time.Time { return time.Now().UTC() },
		newID:   uuid.NewString,
	}
}

// ListCategories returns the user's categories, seeding the defaults on
// first access.
func (s *BudgetService) ListCategories(ctx context.Context, userID string) ([]core.Category, error) {
	cats, err := s.store.ListCategories(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("list categories: %w", err)
	}
	if len(cats) > 0 {
		return cats, nil
	}

	defaults := core.DefaultCategories()
	now := s.now()
	for i := range defaults {
		defaults[i].ID = s.newID()
		defaults[i].UserID = userID
		// Keeps the seeded order stable when listing by creation time.
		defaults[i].CreatedAt = now.Add(time.Duration(i) * time.Millisecond)
	}
	if err := s.store.EnsureCategories(ctx, userID, defaults); err != nil {
		return nil, fmt.Errorf("seed default categories: %w", err)
	}
	s.logger.InfoContext(ctx, "Seeded default categories", log.FieldUserID, userID, "count", len(defaults))

	cats, err = s.store.ListCategories(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("list categories: %w", err)
	}
	return cats, nil
}

func (s *BudgetService) CreateCategory(ctx context.Context, userID, name string, typ core.CategoryType) (core.Category, error) {
	c := core.Category{
		ID:        s.newID(),
		UserID:    userID,
		Name:      strings.TrimSpace(name),
		Type:      typ,
		IsVisible: true,
		CreatedAt: s.now(),
	}
	if err := c.Validate(); err != nil {
		return core.Category{}, err
	}
	if err := s.store.CreateCategory(ctx, c); err != nil {
		return core.Category{}, fmt.Errorf("create category: %w", err)
	}
	s.logger.InfoContext(ctx, "Category created",
		log.FieldUserID, userID,
		log.FieldCategoryID, c.ID,
		log.FieldCategory, c.Name)
	return c, nil
}

// RenameCategory changes the display name. Summaries group by name, so the
// user's cached reports are dropped.
func (s *BudgetService) RenameCategory(ctx context.Context, userID, id, name string) (core.Category, error) {
	c, err := s.store.GetCategory(ctx, userID, id)
	if err != nil {
		return core.Category{}, err
	}
	c.Name = strings.TrimSpace(name)
	if err := c.Validate(); err != nil {
		return core.Category{}, err
	}
	if err := s.store.UpdateCategory(ctx, c); err != nil {
		return core.Category{}, fmt.Errorf("rename category: %w", err)
	}
	s.invalidate(userID)
	return c, nil
}

func (s *BudgetService) SetCategoryVisibility(ctx context.Context, userID, id string, visible bool) (core.Category, error) {
	c, err := s.store.GetCategory(ctx, userID, id)
	if err != nil {
		return core.Category{}, err
	}
	c.IsVisible = visible
	if err := s.store.UpdateCategory(ctx, c); err != nil {
		return core.Category{}, fmt.Errorf("update category visibility: %w", err)
	}
	return c, nil
}

// DeleteCategory removes a non-default category. A category that still has
// items needs an explicit policy: cascade deletes them, orphan keeps them
// with a dangling category reference.
func (s *BudgetService) DeleteCategory(ctx context.Context, userID, id string, policy DeletePolicy) error {
	c, err := s.store.GetCategory(ctx, userID, id)
	if err != nil {
		return err
	}
	if c.IsDefault {
		return core.ErrDefaultCategory
	}

	n, err := s.store.CountItems(ctx, userID, id)
	if err != nil {
		return fmt.Errorf("count category items: %w", err)
	}
	if n > 0 && policy == PolicyNone {
		return fmt.Errorf("%w: %d item(s), choose cascade or orphan", core.ErrCategoryHasItems, n)
	}

	var periods []core.Period
	if n > 0 {
		items, err := s.store.ListItems(ctx, userID)
		if err != nil {
			return fmt.Errorf("list category items: %w", err)
		}
		for _, it := range items {
			if it.CategoryID == id {
				periods = append(periods, it.Period)
			}
		}
	}

	if err := s.store.DeleteCategory(ctx, userID, id, policy == PolicyCascade); err != nil {
		return fmt.Errorf("delete category: %w", err)
	}
	s.logger.InfoContext(ctx, "Category deleted",
		log.FieldUserID, userID,
		log.FieldCategoryID, id,
		"policy", string(policy),
		"items", n)

	if n > 0 {
		kind := amqp.ItemUpdated
		if policy == PolicyCascade {
			kind = amqp.ItemDeleted
		}
		s.publish(ctx, amqp.NewItemEvent(kind, userID, "", periods...))
	}
	s.invalidate(userID)
	return nil
}

// ListItems returns the items active in p, recurring items projected from
// earlier anchors included.
func (s *BudgetService) ListItems(ctx context.Context, userID string, p core.Period) ([]core.BudgetItem, error) {
	if err := p.Validate(); err != nil {
		return nil, err
	}
	items, err := s.store.ListItemsThrough(ctx, userID, p)
	if err != nil {
		return nil, fmt.Errorf("list items: %w", err)
	}
	return core.ActiveItems(items, p), nil
}

func (s *BudgetService) CreateItem(ctx context.Context, userID string, in ItemInput) (core.BudgetItem, error) {
	now := s.now()
	it := core.BudgetItem{
		ID:         s.newID(),
		UserID:     userID,
		CategoryID: in.CategoryID,
		Name:       strings.TrimSpace(in.Name),
		Amount:     in.Amount,
		ItemType:   in.ItemType,
		Period:     in.Period,
		Repeat:     in.Repeat,
		CreatedAt:  now,
		UpdatedAt:  now,
	}
	if err := it.Validate(); err != nil {
		return core.BudgetItem{}, err
	}
	cat, err := s.store.GetCategory(ctx, userID, in.CategoryID)
	if err != nil {
		return core.BudgetItem{}, err
	}
	if err := it.ValidateAgainst(cat); err != nil {
		return core.BudgetItem{}, err
	}

	if err := s.store.CreateItem(ctx, it); err != nil {
		return core.BudgetItem{}, fmt.Errorf("create item: %w", err)
	}
	it.Category = &cat

	s.logItem(ctx, log.OpCreate, it)
	s.publish(ctx, amqp.NewItemEvent(amqp.ItemCreated, userID, it.ID, it.Period))
	s.invalidate(userID)
	return it, nil
}

// UpdateItem applies patch and re-validates the result against the item's
// category. Orphaned items that keep their dangling reference are only
// checked on their own.
func (s *BudgetService) UpdateItem(ctx context.Context, userID, id string, patch ItemPatch) (core.BudgetItem, error) {
	it, err := s.store.GetItem(ctx, userID, id)
	if err != nil {
		return core.BudgetItem{}, err
	}
	oldPeriod := it.Period

	if patch.CategoryID != nil && *patch.CategoryID != it.CategoryID {
		cat, err := s.store.GetCategory(ctx, userID, *patch.CategoryID)
		if err != nil {
			return core.BudgetItem{}, err
		}
		it.CategoryID = cat.ID
		it.Category = &cat
	}
	if patch.Name != nil {
		it.Name = strings.TrimSpace(*patch.Name)
	}
	if patch.Amount != nil {
		it.Amount = *patch.Amount
	}
	if patch.ItemType != nil {
		it.ItemType = *patch.ItemType
	}
	if patch.Period != nil {
		it.Period = *patch.Period
	}
	if patch.Repeat != nil {
		it.Repeat = *patch.Repeat
	}

	if it.Category != nil {
		err = it.ValidateAgainst(*it.Category)
	} else {
		err = it.Validate()
	}
	if err != nil {
		return core.BudgetItem{}, err
	}

	it.UpdatedAt = s.now()
	if err := s.store.UpdateItem(ctx, it); err != nil {
		return core.BudgetItem{}, fmt.Errorf("update item: %w", err)
	}

	s.logItem(ctx, log.OpUpdate, it)
	s.publish(ctx, amqp.NewItemEvent(amqp.ItemUpdated, userID, it.ID, oldPeriod, it.Period))
	s.invalidate(userID)
	return it, nil
}

func (s *BudgetService) GetItem(ctx context.Context, userID, id string) (core.BudgetItem, error) {
	return s.store.GetItem(ctx, userID, id)
}

func (s *BudgetService) DeleteItem(ctx context.Context, userID, id string) error {
	it, err := s.store.GetItem(ctx, userID, id)
	if err != nil {
		return err
	}
	if err := s.store.DeleteItem(ctx, userID, id); err != nil {
		return fmt.Errorf("delete item: %w", err)
	}

	s.logItem(ctx, log.OpDelete, it)
	s.publish(ctx, amqp.NewItemEvent(amqp.ItemDeleted, userID, id, it.Period))
	s.invalidate(userID)
	return nil
}

// RecentItems returns the most recently updated items. limit is clamped to
// 1..MaxRecentLimit; zero or negative means DefaultRecentLimit.
func (s *BudgetService) RecentItems(ctx context.Context, userID string, limit int) ([]core.BudgetItem, error) {
	switch {
	case limit <= 0:
		limit = DefaultRecentLimit
	case limit > MaxRecentLimit:
		limit = MaxRecentLimit
	}
	items, err := s.store.RecentItems(ctx, userID, limit)
	if err != nil {
		return nil, fmt.Errorf("recent items: %w", err)
	}
	return items, nil
}

func (s *BudgetService) publish(ctx context.Context, ev *amqp.ItemEvent) {
	if s.events == nil {
		s.logger.DebugContext(ctx, "No event publisher configured, skipping item event",
			log.FieldEventKind, string(ev.Kind))
		return
	}
	if err := s.events.PublishItemEvent(ctx, ev); err != nil {
		// The write already succeeded; the mirror catches up on the next event.
		s.logger.ErrorContext(ctx, "Failed to publish item event",
			log.FieldEventKind, string(ev.Kind),
			log.FieldUserID, ev.UserID,
			log.FieldItemID, ev.ItemID,
			log.FieldError, err)
	}
}

func (s *BudgetService) invalidate(userID string) {
	if s.reports != nil {
		s.reports.InvalidateUser(userID)
	}
}

func (s *BudgetService) logItem(ctx context.Context, op string, it core.BudgetItem) {
	s.audit.LogItemChanged(ctx, op, it.UserID, it.ID, it.CategoryID,
		string(it.ItemType), it.Amount.String(), it.Period.String(), it.Repeat.String())
}
