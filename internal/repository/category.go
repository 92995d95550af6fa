package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/atinyakov/foodsai/internal/models"
)

// item_count is derived from the inventory on every read.
const categorySelect = `
	SELECT c.id, c.name, c.display_name, c.color, c.icon, c.sort_value, c.is_default,
		(SELECT COUNT(*) FROM inventory_items i WHERE i.category = c.id)
	FROM categories c`

func scanCategory(sc rowScanner) (models.Category, error) {
	var (
		c           models.Category
		color, icon sql.NullString
	)
	if err := sc.Scan(&c.ID, &c.Name, &c.DisplayName, &color, &icon, &c.SortValue, &c.IsDefault, &c.ItemCount); err != nil {
		return models.Category{}, err
	}
	c.Color = stringPtr(color)
	c.Icon = stringPtr(icon)
	return c, nil
}

func queryCategories(ctx context.Context, q querier, where string, args ...any) ([]models.Category, error) {
	rows, err := q.QueryContext(ctx, categorySelect+" "+where, args...)
	if err != nil {
		return nil, fmt.Errorf("query categories: %w", err)
	}
	defer rows.Close()

	categories := []models.Category{}
	for rows.Next() {
		c, err := scanCategory(rows)
		if err != nil {
			return nil, fmt.Errorf("scan category: %w", err)
		}
		categories = append(categories, c)
	}
	return categories, rows.Err()
}

func insertCategory(ctx context.Context, q querier, c models.Category) error {
	_, err := q.ExecContext(ctx, `
		INSERT INTO categories (id, name, display_name, color, icon, sort_value, is_default)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`, c.ID, c.Name, c.DisplayName, nullString(c.Color), nullString(c.Icon), c.SortValue, c.IsDefault)
	return err
}

// GetCategories returns every category ordered by sort value.
func (s *Store) GetCategories(ctx context.Context) ([]models.Category, error) {
	return queryCategories(ctx, s.DB, `ORDER BY c.sort_value, c.id`)
}

// GetCategory returns the category with id, or nil.
func (s *Store) GetCategory(ctx context.Context, id string) (*models.Category, error) {
	row := s.DB.QueryRowContext(ctx, categorySelect+` WHERE c.id = ?`, id)
	c, err := scanCategory(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("GetCategory: %w", err)
	}
	return &c, nil
}

// MaxCategorySortValue returns the highest sort value in use, or -1 when
// there are no categories.
func (s *Store) MaxCategorySortValue(ctx context.Context) (int, error) {
	var max int
	err := s.DB.QueryRowContext(ctx, `SELECT COALESCE(MAX(sort_value), -1) FROM categories`).Scan(&max)
	if err != nil {
		return 0, fmt.Errorf("MaxCategorySortValue: %w", err)
	}
	return max, nil
}

// AddCategory persists c under a new id unless c already carries one.
func (s *Store) AddCategory(ctx context.Context, c models.Category) (models.Category, error) {
	if c.ID == "" {
		c.ID = s.NewID()
	}
	c.ItemCount = 0
	if err := insertCategory(ctx, s.DB, c); err != nil {
		return models.Category{}, fmt.Errorf("AddCategory: %w", err)
	}
	return c, nil
}

// UpdateCategory applies the non-nil fields of p to the category with id.
func (s *Store) UpdateCategory(ctx context.Context, id string, p models.CategoryPatch) error {
	var l setList
	if p.Name != nil {
		l.add("name", *p.Name)
	}
	if p.DisplayName != nil {
		l.add("display_name", *p.DisplayName)
	}
	if p.Color != nil {
		l.add("color", *p.Color)
	}
	if p.Icon != nil {
		l.add("icon", *p.Icon)
	}
	if p.SortValue != nil {
		l.add("sort_value", *p.SortValue)
	}
	if len(l.cols) == 0 {
		c, err := s.GetCategory(ctx, id)
		if err != nil {
			return err
		}
		if c == nil {
			return ErrNotFound
		}
		return nil
	}
	return l.exec(ctx, s.DB, "categories", id)
}

// DeleteCategory removes the category with id. Items referencing it keep the
// dangling id.
func (s *Store) DeleteCategory(ctx context.Context, id string) error {
	if _, err := s.DB.ExecContext(ctx, `DELETE FROM categories WHERE id = ?`, id); err != nil {
		return fmt.Errorf("DeleteCategory: %w", err)
	}
	return nil
}

// ReorderCategories writes every sort value in one transaction; an unknown id
// aborts the whole reorder with ErrNotFound.
func (s *Store) ReorderCategories(ctx context.Context, order []models.CategoryOrder) error {
	return s.withTx(ctx, func(tx *sql.Tx) error {
		for _, o := range order {
			res, err := tx.ExecContext(ctx, `UPDATE categories SET sort_value = ? WHERE id = ?`, o.SortValue, o.ID)
			if err != nil {
				return fmt.Errorf("reorder %s: %w", o.ID, err)
			}
			if n, _ := res.RowsAffected(); n == 0 {
				return fmt.Errorf("reorder %s: %w", o.ID, ErrNotFound)
			}
		}
		return nil
	})
}

// SeedCategories inserts defaults only if the table is empty, inside one
// transaction. It reports whether anything was inserted.
func (s *Store) SeedCategories(ctx context.Context, defaults []models.Category) (bool, error) {
	seeded := false
	err := s.withTx(ctx, func(tx *sql.Tx) error {
		var n int
		if err := tx.QueryRowContext(ctx, `SELECT COUNT(*) FROM categories`).Scan(&n); err != nil {
			return fmt.Errorf("count categories: %w", err)
		}
		if n > 0 {
			return nil
		}
		for _, c := range defaults {
			if err := insertCategory(ctx, tx, c); err != nil {
				return fmt.Errorf("seed category %s: %w", c.Name, err)
			}
		}
		seeded = len(defaults) > 0
		return nil
	})
	if err != nil {
		return false, err
	}
	return seeded, nil
}
