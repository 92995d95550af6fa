package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/atinyakov/foodsai/internal/models"
)

const iconColumns = `id, name, category, svg_content, built_in, created_by, create_time, is_active`

func scanIcon(sc rowScanner) (models.CustomIcon, error) {
	var (
		icon       models.CustomIcon
		createTime int64
	)
	err := sc.Scan(&icon.ID, &icon.Name, &icon.Category, &icon.SVGContent, &icon.BuiltIn,
		&icon.CreatedBy, &createTime, &icon.IsActive)
	if err != nil {
		return models.CustomIcon{}, err
	}
	icon.CreateTime = fromMillis(createTime)
	return icon, nil
}

func queryIcons(ctx context.Context, q querier, where string, args ...any) ([]models.CustomIcon, error) {
	rows, err := q.QueryContext(ctx, `SELECT `+iconColumns+` FROM custom_icons `+where, args...)
	if err != nil {
		return nil, fmt.Errorf("query icons: %w", err)
	}
	defer rows.Close()

	icons := []models.CustomIcon{}
	for rows.Next() {
		icon, err := scanIcon(rows)
		if err != nil {
			return nil, fmt.Errorf("scan icon: %w", err)
		}
		icons = append(icons, icon)
	}
	return icons, rows.Err()
}

func insertIcon(ctx context.Context, q querier, icon models.CustomIcon, orIgnore bool) error {
	verb := "INSERT"
	if orIgnore {
		verb = "INSERT OR IGNORE"
	}
	_, err := q.ExecContext(ctx, verb+` INTO custom_icons (`+iconColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`, icon.ID, icon.Name, icon.Category, icon.SVGContent, icon.BuiltIn,
		icon.CreatedBy, millis(icon.CreateTime), icon.IsActive)
	return err
}

// AddCustomIcon assigns an id and creation time to icon and persists it.
func (s *Store) AddCustomIcon(ctx context.Context, icon models.CustomIcon) (models.CustomIcon, error) {
	icon.ID = s.NewID()
	icon.CreateTime = s.Now()
	icon.CategoryName = ""
	if err := insertIcon(ctx, s.DB, icon, false); err != nil {
		return models.CustomIcon{}, fmt.Errorf("AddCustomIcon: %w", err)
	}
	return icon, nil
}

// SeedBuiltinIcons inserts the builtin icons that are not present yet. Icons
// keep their fixed ids, so seeding twice is harmless.
func (s *Store) SeedBuiltinIcons(ctx context.Context, icons []models.CustomIcon) error {
	now := s.Now()
	return s.withTx(ctx, func(tx *sql.Tx) error {
		for _, icon := range icons {
			icon.BuiltIn = true
			if icon.CreateTime.IsZero() {
				icon.CreateTime = now
			}
			if err := insertIcon(ctx, tx, icon, true); err != nil {
				return fmt.Errorf("seed icon %s: %w", icon.ID, err)
			}
		}
		return nil
	})
}

// GetCustomIcon returns the icon with id, or nil.
func (s *Store) GetCustomIcon(ctx context.Context, id string) (*models.CustomIcon, error) {
	row := s.DB.QueryRowContext(ctx, `SELECT `+iconColumns+` FROM custom_icons WHERE id = ?`, id)
	icon, err := scanIcon(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("GetCustomIcon: %w", err)
	}
	return &icon, nil
}

// GetCustomIcons returns every icon, builtin ones first.
func (s *Store) GetCustomIcons(ctx context.Context) ([]models.CustomIcon, error) {
	return queryIcons(ctx, s.DB, `ORDER BY built_in DESC, create_time, id`)
}

// IconsByCategory returns the icons assigned to category.
func (s *Store) IconsByCategory(ctx context.Context, category string) ([]models.CustomIcon, error) {
	return queryIcons(ctx, s.DB, `WHERE category = ? ORDER BY built_in DESC, create_time, id`, category)
}

// FindCustomIconByName returns the icon named name, or nil.
func (s *Store) FindCustomIconByName(ctx context.Context, name string) (*models.CustomIcon, error) {
	icons, err := queryIcons(ctx, s.DB, `WHERE name = ? ORDER BY create_time, id LIMIT 1`, name)
	if err != nil {
		return nil, fmt.Errorf("FindCustomIconByName: %w", err)
	}
	if len(icons) == 0 {
		return nil, nil
	}
	return &icons[0], nil
}

// UpdateCustomIcon applies the non-nil fields of p to the icon with id.
func (s *Store) UpdateCustomIcon(ctx context.Context, id string, p models.CustomIconPatch) error {
	var l setList
	if p.Name != nil {
		l.add("name", *p.Name)
	}
	if p.Category != nil {
		l.add("category", *p.Category)
	}
	if p.SVGContent != nil {
		l.add("svg_content", *p.SVGContent)
	}
	if p.IsActive != nil {
		l.add("is_active", *p.IsActive)
	}
	if len(l.cols) == 0 {
		icon, err := s.GetCustomIcon(ctx, id)
		if err != nil {
			return err
		}
		if icon == nil {
			return ErrNotFound
		}
		return nil
	}
	return l.exec(ctx, s.DB, "custom_icons", id)
}

// DeleteCustomIcon removes the icon with id.
func (s *Store) DeleteCustomIcon(ctx context.Context, id string) error {
	if _, err := s.DB.ExecContext(ctx, `DELETE FROM custom_icons WHERE id = ?`, id); err != nil {
		return fmt.Errorf("DeleteCustomIcon: %w", err)
	}
	return nil
}
