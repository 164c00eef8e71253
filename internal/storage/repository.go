package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"budget/internal/core"

	_ "modernc.org/sqlite"
)

// timeLayout sorts lexicographically, which RecentItems relies on.
const timeLayout = "2006-01-02T15:04:05.000000000Z07:00"

const itemColumns = `
	i.id, i.user_id, i.category_id, i.name, i.amount, i.item_type,
	i.month, i.year, i.repeat, i.created_at, i.updated_at,
	c.id, c.name, c.type, c.is_default, c.is_visible, c.created_at`

const itemFrom = `
	FROM budget_items i
	LEFT JOIN categories c ON c.id = i.category_id AND c.user_id = i.user_id`

type SQLiteRepository struct {
	db *sql.DB
}

func NewSQLiteRepository(dbPath string) (*SQLiteRepository, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		return nil, fmt.Errorf("create db directory: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}
	// SQLite allows a single writer at a time.
	db.SetMaxOpenConns(1)

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	if err := RunMigrations(dbPath); err != nil {
		db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	return &SQLiteRepository{db: db}, nil
}

func (r *SQLiteRepository) Close() error {
	if r.db != nil {
		return r.db.Close()
	}
	return nil
}

func (r *SQLiteRepository) Ping(ctx context.Context) error {
	return r.db.PingContext(ctx)
}

// ListCategories returns the user's categories ordered by creation.
func (r *SQLiteRepository) ListCategories(ctx context.Context, userID string) ([]core.Category, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, user_id, name, type, is_default, is_visible, created_at
		FROM categories WHERE user_id = ?
		ORDER BY created_at, name`, userID)
	if err != nil {
		return nil, fmt.Errorf("list categories: %w", err)
	}
	defer rows.Close()

	var cats []core.Category
	for rows.Next() {
		c, err := scanCategory(rows)
		if err != nil {
			return nil, err
		}
		cats = append(cats, c)
	}
	return cats, rows.Err()
}

func (r *SQLiteRepository) GetCategory(ctx context.Context, userID, id string) (core.Category, error) {
	row := r.db.QueryRowContext(ctx, `
		SELECT id, user_id, name, type, is_default, is_visible, created_at
		FROM categories WHERE user_id = ? AND id = ?`, userID, id)
	c, err := scanCategory(row)
	if errors.Is(err, sql.ErrNoRows) {
		return core.Category{}, fmt.Errorf("category %s: %w", id, core.ErrNotFound)
	}
	return c, err
}

func (r *SQLiteRepository) EnsureCategories(ctx context.Context, userID string, cats []core.Category) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	for _, c := range cats {
		_, err := tx.ExecContext(ctx, `
			INSERT OR IGNORE INTO categories (id, user_id, name, type, is_default, is_visible, created_at)
			VALUES (?, ?, ?, ?, ?, ?, ?)`,
			c.ID, userID, c.Name, string(c.Type), c.IsDefault, c.IsVisible, formatTime(c.CreatedAt))
		if err != nil {
			return fmt.Errorf("seed category %q: %w", c.Name, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit seed: %w", err)
	}
	slog.InfoContext(ctx, "Seeded categories", "user_id", userID, "count", len(cats))
	return nil
}

func (r *SQLiteRepository) CreateCategory(ctx context.Context, c core.Category) error {
	if err := r.checkNameFree(ctx, c.UserID, c.Name, c.ID); err != nil {
		return err
	}
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO categories (id, user_id, name, type, is_default, is_visible, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)`,
		c.ID, c.UserID, c.Name, string(c.Type), c.IsDefault, c.IsVisible, formatTime(c.CreatedAt))
	if err != nil {
		return fmt.Errorf("create category: %w", err)
	}
	slog.InfoContext(ctx, "Category saved to SQLite", "id", c.ID, "name", c.Name, "type", c.Type)
	return nil
}

func (r *SQLiteRepository) UpdateCategory(ctx context.Context, c core.Category) error {
	if err := r.checkNameFree(ctx, c.UserID, c.Name, c.ID); err != nil {
		return err
	}
	res, err := r.db.ExecContext(ctx, `
		UPDATE categories SET name = ?, type = ?, is_visible = ?
		WHERE user_id = ? AND id = ?`,
		c.Name, string(c.Type), c.IsVisible, c.UserID, c.ID)
	if err != nil {
		return fmt.Errorf("update category: %w", err)
	}
	return expectOne(res, "category", c.ID)
}

func (r *SQLiteRepository) DeleteCategory(ctx context.Context, userID, id string, cascade bool) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	res, err := tx.ExecContext(ctx, `DELETE FROM categories WHERE user_id = ? AND id = ?`, userID, id)
	if err != nil {
		return fmt.Errorf("delete category: %w", err)
	}
	if err := expectOne(res, "category", id); err != nil {
		return err
	}

	var removed int64
	if cascade {
		res, err := tx.ExecContext(ctx, `DELETE FROM budget_items WHERE user_id = ? AND category_id = ?`, userID, id)
		if err != nil {
			return fmt.Errorf("delete category items: %w", err)
		}
		removed, _ = res.RowsAffected()
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit delete: %w", err)
	}
	slog.InfoContext(ctx, "Category deleted", "id", id, "cascade", cascade, "items_removed", removed)
	return nil
}

func (r *SQLiteRepository) CountItems(ctx context.Context, userID, categoryID string) (int, error) {
	var n int
	err := r.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM budget_items WHERE user_id = ? AND category_id = ?`,
		userID, categoryID).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("count items: %w", err)
	}
	return n, nil
}

func (r *SQLiteRepository) ListItems(ctx context.Context, userID string) ([]core.BudgetItem, error) {
	return r.queryItems(ctx, `SELECT`+itemColumns+itemFrom+`
		WHERE i.user_id = ?
		ORDER BY i.year, i.month, i.created_at`, userID)
}

func (r *SQLiteRepository) ListItemsThrough(ctx context.Context, userID string, p core.Period) ([]core.BudgetItem, error) {
	return r.queryItems(ctx, `SELECT`+itemColumns+itemFrom+`
		WHERE i.user_id = ? AND (i.year < ? OR (i.year = ? AND i.month <= ?))
		ORDER BY i.year, i.month, i.created_at`, userID, p.Year, p.Year, p.Month)
}

func (r *SQLiteRepository) RecentItems(ctx context.Context, userID string, limit int) ([]core.BudgetItem, error) {
	return r.queryItems(ctx, `SELECT`+itemColumns+itemFrom+`
		WHERE i.user_id = ?
		ORDER BY i.updated_at DESC, i.id
		LIMIT ?`, userID, limit)
}

func (r *SQLiteRepository) GetItem(ctx context.Context, userID, id string) (core.BudgetItem, error) {
	items, err := r.queryItems(ctx, `SELECT`+itemColumns+itemFrom+`
		WHERE i.user_id = ? AND i.id = ?`, userID, id)
	if err != nil {
		return core.BudgetItem{}, err
	}
	if len(items) == 0 {
		return core.BudgetItem{}, fmt.Errorf("item %s: %w", id, core.ErrNotFound)
	}
	return items[0], nil
}

func (r *SQLiteRepository) CreateItem(ctx context.Context, it core.BudgetItem) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO budget_items
			(id, user_id, category_id, name, amount, item_type, month, year, repeat, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		it.ID, it.UserID, it.CategoryID, it.Name, it.Amount.Decimal.String(), string(it.ItemType),
		it.Period.Month, it.Period.Year, int(it.Repeat),
		formatTime(it.CreatedAt), formatTime(it.UpdatedAt))
	if err != nil {
		return fmt.Errorf("create item: %w", err)
	}

	slog.InfoContext(ctx, "Budget item saved to SQLite",
		"id", it.ID,
		"name", it.Name,
		"amount", it.Amount.String(),
		"month", it.Period.Month,
		"year", it.Period.Year,
		"repeat", it.Repeat.String())
	return nil
}

func (r *SQLiteRepository) UpdateItem(ctx context.Context, it core.BudgetItem) error {
	res, err := r.db.ExecContext(ctx, `
		UPDATE budget_items
		SET category_id = ?, name = ?, amount = ?, item_type = ?, month = ?, year = ?, repeat = ?, updated_at = ?
		WHERE user_id = ? AND id = ?`,
		it.CategoryID, it.Name, it.Amount.Decimal.String(), string(it.ItemType),
		it.Period.Month, it.Period.Year, int(it.Repeat), formatTime(it.UpdatedAt),
		it.UserID, it.ID)
	if err != nil {
		return fmt.Errorf("update item: %w", err)
	}
	return expectOne(res, "item", it.ID)
}

func (r *SQLiteRepository) DeleteItem(ctx context.Context, userID, id string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM budget_items WHERE user_id = ? AND id = ?`, userID, id)
	if err != nil {
		return fmt.Errorf("delete item: %w", err)
	}
	if err := expectOne(res, "item", id); err != nil {
		return err
	}
	slog.InfoContext(ctx, "Budget item deleted", "id", id)
	return nil
}

func (r *SQLiteRepository) checkNameFree(ctx context.Context, userID, name, exceptID string) error {
	var n int
	err := r.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM categories WHERE user_id = ? AND name = ? AND id <> ?`,
		userID, name, exceptID).Scan(&n)
	if err != nil {
		return fmt.Errorf("check category name: %w", err)
	}
	if n > 0 {
		return fmt.Errorf("%w: %q", core.ErrDuplicateCategory, name)
	}
	return nil
}

func (r *SQLiteRepository) queryItems(ctx context.Context, query string, args ...any) ([]core.BudgetItem, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query items: %w", err)
	}
	defer rows.Close()

	var items []core.BudgetItem
	for rows.Next() {
		it, err := scanItem(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, it)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate items: %w", err)
	}
	return items, nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanCategory(s scanner) (core.Category, error) {
	var (
		c         core.Category
		typ       string
		createdAt string
	)
	if err := s.Scan(&c.ID, &c.UserID, &c.Name, &typ, &c.IsDefault, &c.IsVisible, &createdAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return c, err
		}
		return c, fmt.Errorf("scan category: %w", err)
	}
	c.Type = core.CategoryType(typ)
	c.CreatedAt = parseTime(createdAt)
	return c, nil
}

func scanItem(s scanner) (core.BudgetItem, error) {
	var (
		it                   core.BudgetItem
		amount, itemType     string
		repeat               int
		createdAt, updatedAt string

		catID, catName, catType sql.NullString
		catDefault, catVisible  sql.NullBool
		catCreated              sql.NullString
	)
	err := s.Scan(
		&it.ID, &it.UserID, &it.CategoryID, &it.Name, &amount, &itemType,
		&it.Period.Month, &it.Period.Year, &repeat, &createdAt, &updatedAt,
		&catID, &catName, &catType, &catDefault, &catVisible, &catCreated,
	)
	if err != nil {
		return it, fmt.Errorf("scan item: %w", err)
	}

	if err := it.Amount.Scan(amount); err != nil {
		return it, fmt.Errorf("scan item %s amount %q: %w", it.ID, amount, err)
	}
	it.ItemType = core.ItemType(itemType)
	it.Repeat = core.Repeat(repeat)
	it.CreatedAt = parseTime(createdAt)
	it.UpdatedAt = parseTime(updatedAt)

	if catID.Valid {
		it.Category = &core.Category{
			ID:        catID.String,
			UserID:    it.UserID,
			Name:      catName.String,
			Type:      core.CategoryType(catType.String),
			IsDefault: catDefault.Bool,
			IsVisible: catVisible.Bool,
			CreatedAt: parseTime(catCreated.String),
		}
	}
	return it, nil
}

func expectOne(res sql.Result, kind, id string) error {
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("%s %s rows affected: %w", kind, id, err)
	}
	if n == 0 {
		return fmt.Errorf("%s %s: %w", kind, id, core.ErrNotFound)
	}
	return nil
}

func formatTime(t time.Time) string {
	if t.IsZero() {
		t = time.Now()
	}
	return t.UTC().Format(timeLayout)
}

func parseTime(s string) time.Time {
	t, err := time.Parse(timeLayout, s)
	if err != nil {
		return time.Time{}
	}
	return t
}
