// Package memory keeps categories and budget items in process memory. It
// backs the "memory" data backend and doubles as the store in service tests.
package memory

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"budget/internal/core"
)

type Store struct {
	mu    sync.RWMutex
	cats  map[string]core.Category   // by id
	items map[string]core.BudgetItem // by id
}

func New() *Store {
	return &Store{
		cats:  make(map[string]core.Category),
		items: make(map[string]core.BudgetItem),
	}
}

func (s *Store) Ping(context.Context) error { return nil }

func (s *Store) Close() error { return nil }

func (s *Store) ListCategories(_ context.Context, userID string) ([]core.Category, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []core.Category
	for _, c := range s.cats {
		if c.UserID == userID {
			out = append(out, c)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.Before(out[j].CreatedAt)
		}
		return out[i].Name < out[j].Name
	})
	return out, nil
}

func (s *Store) GetCategory(_ context.Context, userID, id string) (core.Category, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	c, ok := s.cats[id]
	if !ok || c.UserID != userID {
		return core.Category{}, fmt.Errorf("category %s: %w", id, core.ErrNotFound)
	}
	return c, nil
}

func (s *Store) EnsureCategories(_ context.Context, userID string, cats []core.Category) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, c := range cats {
		if s.nameTaken(userID, c.Name, "") {
			continue
		}
		c.UserID = userID
		s.cats[c.ID] = c
	}
	return nil
}

func (s *Store) CreateCategory(_ context.Context, c core.Category) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.nameTaken(c.UserID, c.Name, c.ID) {
		return fmt.Errorf("%w: %q", core.ErrDuplicateCategory, c.Name)
	}
	s.cats[c.ID] = c
	return nil
}

func (s *Store) UpdateCategory(_ context.Context, c core.Category) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	cur, ok := s.cats[c.ID]
	if !ok || cur.UserID != c.UserID {
		return fmt.Errorf("category %s: %w", c.ID, core.ErrNotFound)
	}
	if s.nameTaken(c.UserID, c.Name, c.ID) {
		return fmt.Errorf("%w: %q", core.ErrDuplicateCategory, c.Name)
	}
	cur.Name = c.Name
	cur.Type = c.Type
	cur.IsVisible = c.IsVisible
	s.cats[c.ID] = cur
	return nil
}

func (s *Store) DeleteCategory(_ context.Context, userID, id string, cascade bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	c, ok := s.cats[id]
	if !ok || c.UserID != userID {
		return fmt.Errorf("category %s: %w", id, core.ErrNotFound)
	}
	delete(s.cats, id)

	if cascade {
		for itemID, it := range s.items {
			if it.UserID == userID && it.CategoryID == id {
				delete(s.items, itemID)
			}
		}
	}
	return nil
}

func (s *Store) CountItems(_ context.Context, userID, categoryID string) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	n := 0
	for _, it := range s.items {
		if it.UserID == userID && it.CategoryID == categoryID {
			n++
		}
	}
	return n, nil
}

func (s *Store) ListItems(_ context.Context, userID string) ([]core.BudgetItem, error) {
	return s.filterItems(userID, func(core.BudgetItem) bool { return true }), nil
}

func (s *Store) ListItemsThrough(_ context.Context, userID string, p core.Period) ([]core.BudgetItem, error) {
	return s.filterItems(userID, func(it core.BudgetItem) bool {
		return !it.Period.After(p)
	}), nil
}

func (s *Store) RecentItems(_ context.Context, userID string, limit int) ([]core.BudgetItem, error) {
	items := s.filterItems(userID, func(core.BudgetItem) bool { return true })
	sort.SliceStable(items, func(i, j int) bool {
		if !items[i].UpdatedAt.Equal(items[j].UpdatedAt) {
			return items[i].UpdatedAt.After(items[j].UpdatedAt)
		}
		return items[i].ID < items[j].ID
	})
	if limit > 0 && len(items) > limit {
		items = items[:limit]
	}
	return items, nil
}

func (s *Store) GetItem(_ context.Context, userID, id string) (core.BudgetItem, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	it, ok := s.items[id]
	if !ok || it.UserID != userID {
		return core.BudgetItem{}, fmt.Errorf("item %s: %w", id, core.ErrNotFound)
	}
	return s.withCategory(it), nil
}

func (s *Store) CreateItem(_ context.Context, it core.BudgetItem) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	it.Category = nil
	s.items[it.ID] = it
	return nil
}

func (s *Store) UpdateItem(_ context.Context, it core.BudgetItem) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	cur, ok := s.items[it.ID]
	if !ok || cur.UserID != it.UserID {
		return fmt.Errorf("item %s: %w", it.ID, core.ErrNotFound)
	}
	it.Category = nil
	it.CreatedAt = cur.CreatedAt
	s.items[it.ID] = it
	return nil
}

func (s *Store) DeleteItem(_ context.Context, userID, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	it, ok := s.items[id]
	if !ok || it.UserID != userID {
		return fmt.Errorf("item %s: %w", id, core.ErrNotFound)
	}
	delete(s.items, id)
	return nil
}

// filterItems returns matching items ordered by anchor period then creation.
func (s *Store) filterItems(userID string, keep func(core.BudgetItem) bool) []core.BudgetItem {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []core.BudgetItem
	for _, it := range s.items {
		if it.UserID == userID && keep(it) {
			out = append(out, s.withCategory(it))
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if c := out[i].Period.Compare(out[j].Period); c != 0 {
			return c < 0
		}
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.Before(out[j].CreatedAt)
		}
		return out[i].ID < out[j].ID
	})
	return out
}

// withCategory attaches a copy of the owning category. Callers hold mu.
func (s *Store) withCategory(it core.BudgetItem) core.BudgetItem {
	if c, ok := s.cats[it.CategoryID]; ok && c.UserID == it.UserID {
		cat := c
		it.Category = &cat
	} else {
		it.Category = nil
	}
	return it
}

// nameTaken reports whether userID has a category named name other than exceptID.
func (s *Store) nameTaken(userID, name, exceptID string) bool {
	for id, c := range s.cats {
		if c.UserID == userID && c.Name == name && id != exceptID {
			return true
		}
	}
	return false
}
