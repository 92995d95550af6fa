package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/atinyakov/foodsai/internal/models"
)

// dataTables are truncated by ImportAll and ClearAll. Migration staging, the
// key/value store and backups survive both.
var dataTables = []string{
	"inventory_items",
	"categories",
	"recipes",
	"consumption_history",
	"custom_icons",
	"settings",
	"guest_users",
}

// ExportAll reads every data table inside one transaction.
func (s *Store) ExportAll(ctx context.Context) (models.Snapshot, error) {
	snap := models.Snapshot{ExportDate: s.Now()}
	err := s.withTx(ctx, func(tx *sql.Tx) error {
		var err error
		if snap.User, err = getGuestUser(ctx, tx); err != nil {
			return err
		}
		if snap.Settings, err = getSettings(ctx, tx); err != nil {
			return err
		}
		if snap.InventoryItems, err = queryInventory(ctx, tx, `ORDER BY create_time, id`); err != nil {
			return err
		}
		if snap.Recipes, err = queryRecipes(ctx, tx, `ORDER BY create_time DESC, id`); err != nil {
			return err
		}
		if snap.Categories, err = queryCategories(ctx, tx, `ORDER BY c.sort_value, c.id`); err != nil {
			return err
		}
		if snap.ConsumptionHistory, err = queryConsumption(ctx, tx, `ORDER BY consumed_at DESC, id`); err != nil {
			return err
		}
		snap.CustomIcons, err = queryIcons(ctx, tx, `ORDER BY built_in DESC, create_time, id`)
		return err
	})
	if err != nil {
		return models.Snapshot{}, fmt.Errorf("ExportAll: %w", err)
	}
	return snap, nil
}

// ImportAll replaces the content of every data table with snap. It runs in
// one transaction: on any error nothing changes.
func (s *Store) ImportAll(ctx context.Context, snap models.Snapshot) error {
	err := s.withTx(ctx, func(tx *sql.Tx) error {
		if err := truncate(ctx, tx); err != nil {
			return err
		}
		if snap.User != nil {
			if err := saveGuestUser(ctx, tx, *snap.User); err != nil {
				return err
			}
		}
		if snap.Settings != nil {
			if err := saveSettings(ctx, tx, *snap.Settings); err != nil {
				return err
			}
		}
		for _, item := range snap.InventoryItems {
			if err := insertInventoryItem(ctx, tx, item); err != nil {
				return fmt.Errorf("import item %s: %w", item.ID, err)
			}
		}
		for _, r := range snap.Recipes {
			if err := insertRecipe(ctx, tx, r); err != nil {
				return fmt.Errorf("import recipe %s: %w", r.ID, err)
			}
		}
		for _, c := range snap.Categories {
			if err := insertCategory(ctx, tx, c); err != nil {
				return fmt.Errorf("import category %s: %w", c.ID, err)
			}
		}
		for _, h := range snap.ConsumptionHistory {
			if err := insertConsumption(ctx, tx, h); err != nil {
				return fmt.Errorf("import history %s: %w", h.ID, err)
			}
		}
		for _, icon := range snap.CustomIcons {
			if err := insertIcon(ctx, tx, icon, false); err != nil {
				return fmt.Errorf("import icon %s: %w", icon.ID, err)
			}
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("ImportAll: %w", err)
	}
	return nil
}

// ClearAll truncates every data table in one transaction.
func (s *Store) ClearAll(ctx context.Context) error {
	if err := s.withTx(ctx, func(tx *sql.Tx) error { return truncate(ctx, tx) }); err != nil {
		return fmt.Errorf("ClearAll: %w", err)
	}
	return nil
}

func truncate(ctx context.Context, tx *sql.Tx) error {
	for _, table := range dataTables {
		if _, err := tx.ExecContext(ctx, "DELETE FROM "+table); err != nil {
			return fmt.Errorf("clear %s: %w", table, err)
		}
	}
	return nil
}
