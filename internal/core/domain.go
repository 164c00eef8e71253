package core

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

const (
	CategoryIncome  CategoryType = "income"
	CategoryExpense CategoryType = "expense"
	CategoryMixed   CategoryType = "mixed"

	ItemIncome  ItemType = "income"
	ItemExpense ItemType = "expense"
)

const (
	OneTime   Repeat = 1
	Monthly   Repeat = 2
	Quarterly Repeat = 3
	Yearly    Repeat = 4
)

type (
	// CategoryType is the kind of items a category may hold.
	CategoryType string

	// ItemType is the direction of a budget item.
	ItemType string

	// Repeat is the recurrence cadence of a budget item.
	Repeat int

	Category struct {
		ID        string
		UserID    string
		Name      string
		Type      CategoryType
		IsDefault bool // seeded at signup, cannot be deleted
		IsVisible bool
		CreatedAt time.Time
	}

	BudgetItem struct {
		ID         string
		UserID     string
		CategoryID string
		Category   *Category // nil when the category reference is dangling
		Name       string
		Amount     Money
		ItemType   ItemType
		Period     Period // anchor period
		Repeat     Repeat
		CreatedAt  time.Time
		UpdatedAt  time.Time
	}
)

var (
	ErrInvalidMonth        = errors.New("invalid month")
	ErrInvalidAmount       = errors.New("invalid amount")
	ErrEmptyName           = errors.New("empty name")
	ErrNameTooLong         = errors.New("name too long (max 200 characters)")
	ErrInvalidCategoryType = errors.New("invalid category type")
	ErrInvalidItemType     = errors.New("invalid item type")
	ErrInvalidRepeat       = errors.New("invalid repeat value")
	ErrTypeMismatch        = errors.New("category type does not match item type")
	ErrDefaultCategory     = errors.New("default categories cannot be deleted")
	ErrCategoryHasItems    = errors.New("category has items")
	ErrDuplicateCategory   = errors.New("category name already exists")
	ErrNotFound            = errors.New("not found")
)

const maxNameLength = 200

// ParseCategoryType maps a raw string onto the closed set of category types.
func ParseCategoryType(s string) (CategoryType, error) {
	switch t := CategoryType(strings.ToLower(strings.TrimSpace(s))); t {
	case CategoryIncome, CategoryExpense, CategoryMixed:
		return t, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrInvalidCategoryType, s)
	}
}

func (t CategoryType) Valid() bool {
	switch t {
	case CategoryIncome, CategoryExpense, CategoryMixed:
		return true
	}
	return false
}

// Accepts reports whether an item of type it may be filed under a category of type t.
// All category/item compatibility checks go through here.
func (t CategoryType) Accepts(it ItemType) bool {
	if !it.Valid() {
		return false
	}
	if t == CategoryMixed {
		return true
	}
	return string(t) == string(it)
}

// ParseItemType maps a raw string onto an ItemType.
func ParseItemType(s string) (ItemType, error) {
	switch t := ItemType(strings.ToLower(strings.TrimSpace(s))); t {
	case ItemIncome, ItemExpense:
		return t, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrInvalidItemType, s)
	}
}

func (t ItemType) Valid() bool {
	return t == ItemIncome || t == ItemExpense
}

func (r Repeat) Valid() bool {
	return r >= OneTime && r <= Yearly
}

// String returns the display label used in statistics.
func (r Repeat) String() string {
	switch r {
	case OneTime:
		return "One-time"
	case Monthly:
		return "Monthly"
	case Quarterly:
		return "Quarterly"
	case Yearly:
		return "Yearly"
	default:
		return fmt.Sprintf("Repeat(%d)", int(r))
	}
}

func validateName(name string) error {
	name = strings.TrimSpace(name)
	if name == "" {
		return ErrEmptyName
	}
	if len(name) > maxNameLength {
		return ErrNameTooLong
	}
	return nil
}

func (c Category) Validate() error {
	if err := validateName(c.Name); err != nil {
		return err
	}
	if !c.Type.Valid() {
		return ErrInvalidCategoryType
	}
	return nil
}

// Validate checks the item on its own. Use ValidateAgainst once the owning
// category is known.
func (i BudgetItem) Validate() error {
	if err := validateName(i.Name); err != nil {
		return err
	}
	if err := i.Amount.Validate(); err != nil {
		return err
	}
	if !i.ItemType.Valid() {
		return ErrInvalidItemType
	}
	if err := i.Period.Validate(); err != nil {
		return err
	}
	if !i.Repeat.Valid() {
		return ErrInvalidRepeat
	}
	return nil
}

// ValidateAgainst validates the item and its compatibility with c.
func (i BudgetItem) ValidateAgainst(c Category) error {
	if err := i.Validate(); err != nil {
		return err
	}
	if !c.Type.Accepts(i.ItemType) {
		return fmt.Errorf("%w: category %q is %s, item is %s", ErrTypeMismatch, c.Name, c.Type, i.ItemType)
	}
	return nil
}

// CategoryName returns the owning category name, or "" for orphaned items.
func (i BudgetItem) CategoryName() string {
	if i.Category == nil {
		return ""
	}
	return i.Category.Name
}

// DefaultCategories returns the categories every user starts with.
func DefaultCategories() []Category {
	return []Category{
		{Name: "Fixed Income", Type: CategoryIncome, IsDefault: true, IsVisible: true},
		{Name: "Variable Income", Type: CategoryIncome, IsDefault: true, IsVisible: true},
		{Name: "Fixed Expenses", Type: CategoryExpense, IsDefault: true, IsVisible: true},
		{Name: "Variable Expenses", Type: CategoryExpense, IsDefault: true, IsVisible: true},
	}
}
