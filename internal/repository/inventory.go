package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/atinyakov/foodsai/internal/models"
)

const inventoryColumns = `id, name, quantity, original_quantity, unit, price, position,
	expiration_days, date_from, category, image, created_by, updated_by, create_time, update_time`

func scanInventoryItem(sc rowScanner) (models.InventoryItem, error) {
	var (
		item                 models.InventoryItem
		price                sql.NullFloat64
		position, image      sql.NullString
		expDays, dateFrom    sql.NullInt64
		createTime, updateTm int64
	)
	err := sc.Scan(&item.ID, &item.Name, &item.Quantity, &item.OriginalQuantity, &item.Unit,
		&price, &position, &expDays, &dateFrom, &item.Category, &image,
		&item.CreatedBy, &item.UpdatedBy, &createTime, &updateTm)
	if err != nil {
		return models.InventoryItem{}, err
	}
	item.Price = floatPtr(price)
	item.Position = stringPtr(position)
	item.ExpirationDays = intPtr(expDays)
	item.DateFrom = timePtr(dateFrom)
	item.Image = stringPtr(image)
	item.CreateTime = fromMillis(createTime)
	item.UpdateTime = fromMillis(updateTm)
	return item, nil
}

func queryInventory(ctx context.Context, q querier, where string, args ...any) ([]models.InventoryItem, error) {
	rows, err := q.QueryContext(ctx, `SELECT `+inventoryColumns+` FROM inventory_items `+where, args...)
	if err != nil {
		return nil, fmt.Errorf("query inventory: %w", err)
	}
	defer rows.Close()

	items := []models.InventoryItem{}
	for rows.Next() {
		item, err := scanInventoryItem(rows)
		if err != nil {
			return nil, fmt.Errorf("scan inventory: %w", err)
		}
		items = append(items, item)
	}
	return items, rows.Err()
}

func insertInventoryItem(ctx context.Context, q querier, item models.InventoryItem) error {
	_, err := q.ExecContext(ctx, `
		INSERT INTO inventory_items (`+inventoryColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, item.ID, item.Name, item.Quantity, item.OriginalQuantity, item.Unit,
		nullFloat(item.Price), nullString(item.Position), nullInt(item.ExpirationDays),
		nullTime(item.DateFrom), item.Category, nullString(item.Image),
		item.CreatedBy, item.UpdatedBy, millis(item.CreateTime), millis(item.UpdateTime))
	return err
}

// AddInventoryItem assigns an id and timestamps to item and persists it.
func (s *Store) AddInventoryItem(ctx context.Context, item models.InventoryItem) (models.InventoryItem, error) {
	now := s.Now()
	item.ID = s.NewID()
	item.CreateTime = now
	item.UpdateTime = now
	if err := insertInventoryItem(ctx, s.DB, item); err != nil {
		return models.InventoryItem{}, fmt.Errorf("AddInventoryItem: %w", err)
	}
	return item, nil
}

// GetInventoryItem returns the item with id, or nil if there is none.
func (s *Store) GetInventoryItem(ctx context.Context, id string) (*models.InventoryItem, error) {
	return getInventoryItem(ctx, s.DB, id)
}

func getInventoryItem(ctx context.Context, q querier, id string) (*models.InventoryItem, error) {
	row := q.QueryRowContext(ctx, `SELECT `+inventoryColumns+` FROM inventory_items WHERE id = ?`, id)
	item, err := scanInventoryItem(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("GetInventoryItem: %w", err)
	}
	return &item, nil
}

// GetInventoryItems returns every inventory item.
func (s *Store) GetInventoryItems(ctx context.Context) ([]models.InventoryItem, error) {
	return queryInventory(ctx, s.DB, `ORDER BY create_time, id`)
}

// FindInventoryItemByName returns the first item whose name equals name
// exactly, or nil.
func (s *Store) FindInventoryItemByName(ctx context.Context, name string) (*models.InventoryItem, error) {
	items, err := queryInventory(ctx, s.DB, `WHERE name = ? ORDER BY create_time, id LIMIT 1`, name)
	if err != nil {
		return nil, fmt.Errorf("FindInventoryItemByName: %w", err)
	}
	if len(items) == 0 {
		return nil, nil
	}
	return &items[0], nil
}

// InventoryByCategory returns the items referencing category.
func (s *Store) InventoryByCategory(ctx context.Context, category string) ([]models.InventoryItem, error) {
	return queryInventory(ctx, s.DB, `WHERE category = ? ORDER BY create_time, id`, category)
}

// InventoryByDateRange returns the items whose dateFrom lies in [start, end].
func (s *Store) InventoryByDateRange(ctx context.Context, start, end time.Time) ([]models.InventoryItem, error) {
	return queryInventory(ctx, s.DB,
		`WHERE date_from IS NOT NULL AND date_from BETWEEN ? AND ? ORDER BY date_from, id`,
		millis(start), millis(end))
}

// SearchInventory returns the items whose name contains sub, ignoring case.
func (s *Store) SearchInventory(ctx context.Context, sub string) ([]models.InventoryItem, error) {
	return queryInventory(ctx, s.DB, `WHERE name LIKE ? ESCAPE '\' ORDER BY name, id`, likePattern(sub))
}

// UpdateInventoryItem applies the non-nil fields of patch to the item with id.
func (s *Store) UpdateInventoryItem(ctx context.Context, id string, patch models.InventoryItemPatch) error {
	return updateInventoryItem(ctx, s.DB, id, patch, s.Now())
}

func updateInventoryItem(ctx context.Context, q querier, id string, p models.InventoryItemPatch, now time.Time) error {
	var l setList
	if p.Name != nil {
		l.add("name", *p.Name)
	}
	if p.Quantity != nil {
		l.add("quantity", *p.Quantity)
	}
	if p.OriginalQuantity != nil {
		l.add("original_quantity", *p.OriginalQuantity)
	}
	if p.Unit != nil {
		l.add("unit", *p.Unit)
	}
	if p.Price != nil {
		l.add("price", *p.Price)
	}
	if p.Position != nil {
		l.add("position", *p.Position)
	}
	if p.ExpirationDays != nil {
		l.add("expiration_days", *p.ExpirationDays)
	}
	if p.DateFrom != nil {
		l.add("date_from", millis(*p.DateFrom))
	}
	if p.Category != nil {
		l.add("category", *p.Category)
	}
	if p.Image != nil {
		l.add("image", *p.Image)
	}
	if p.UpdatedBy != nil {
		l.add("updated_by", *p.UpdatedBy)
	}
	l.add("update_time", millis(now))
	return l.exec(ctx, q, "inventory_items", id)
}

// DeleteInventoryItem removes the item with id. Deleting a missing id is not an error.
func (s *Store) DeleteInventoryItem(ctx context.Context, id string) error {
	if _, err := s.DB.ExecContext(ctx, `DELETE FROM inventory_items WHERE id = ?`, id); err != nil {
		return fmt.Errorf("DeleteInventoryItem: %w", err)
	}
	return nil
}

// ConsumeInventoryItem takes quantity away from the item with id and records
// entry in the consumption history, in one transaction. The item is deleted
// when nothing is left; remaining is nil in that case. Missing item fields of
// entry are filled from the item and its quantity is capped at what was in
// stock. It returns ErrNotFound when the item does not exist.
func (s *Store) ConsumeInventoryItem(
	ctx context.Context,
	id string,
	quantity float64,
	entry models.ConsumptionHistory,
) (remaining *models.InventoryItem, recorded models.ConsumptionHistory, err error) {
	now := s.Now()
	err = s.withTx(ctx, func(tx *sql.Tx) error {
		item, err := getInventoryItem(ctx, tx, id)
		if err != nil {
			return err
		}
		if item == nil {
			return ErrNotFound
		}

		stock := item.Quantity
		left := stock - quantity
		if left <= 0 {
			if _, err := tx.ExecContext(ctx, `DELETE FROM inventory_items WHERE id = ?`, id); err != nil {
				return fmt.Errorf("delete consumed item: %w", err)
			}
		} else {
			patch := models.InventoryItemPatch{Quantity: &left}
			if err := updateInventoryItem(ctx, tx, id, patch, now); err != nil {
				return err
			}
			item.Quantity = left
			item.UpdateTime = now
			remaining = item
		}

		if entry.ItemID == nil {
			entry.ItemID = &item.ID
		}
		if entry.ItemName == nil {
			entry.ItemName = &item.Name
		}
		if entry.Unit == "" {
			entry.Unit = item.Unit
		}
		entry.Quantity = min(quantity, stock)
		entry.ID = s.NewID()
		entry.CreateTime = now
		entry.UpdateTime = now
		if entry.ConsumedAt.IsZero() {
			entry.ConsumedAt = now
		}
		if err := insertConsumption(ctx, tx, entry); err != nil {
			return fmt.Errorf("insert consumption: %w", err)
		}
		recorded = entry
		return nil
	})
	if err != nil {
		return nil, models.ConsumptionHistory{}, err
	}
	return remaining, recorded, nil
}
