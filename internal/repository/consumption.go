package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/atinyakov/foodsai/internal/models"
)

const consumptionColumns = `id, type, item_id, item_name, recipe_id, recipe_name, quantity,
	unit, consumed_at, notes, create_time, update_time`

func scanConsumption(sc rowScanner) (models.ConsumptionHistory, error) {
	var (
		h                                      models.ConsumptionHistory
		itemID, itemName, recipeID, recipeName sql.NullString
		notes                                  sql.NullString
		consumedAt, createTime, updateTime     int64
	)
	err := sc.Scan(&h.ID, &h.Type, &itemID, &itemName, &recipeID, &recipeName, &h.Quantity,
		&h.Unit, &consumedAt, &notes, &createTime, &updateTime)
	if err != nil {
		return models.ConsumptionHistory{}, err
	}
	h.ItemID = stringPtr(itemID)
	h.ItemName = stringPtr(itemName)
	h.RecipeID = stringPtr(recipeID)
	h.RecipeName = stringPtr(recipeName)
	h.Notes = stringPtr(notes)
	h.ConsumedAt = fromMillis(consumedAt)
	h.CreateTime = fromMillis(createTime)
	h.UpdateTime = fromMillis(updateTime)
	return h, nil
}

func queryConsumption(ctx context.Context, q querier, where string, args ...any) ([]models.ConsumptionHistory, error) {
	rows, err := q.QueryContext(ctx, `SELECT `+consumptionColumns+` FROM consumption_history `+where, args...)
	if err != nil {
		return nil, fmt.Errorf("query consumption history: %w", err)
	}
	defer rows.Close()

	history := []models.ConsumptionHistory{}
	for rows.Next() {
		h, err := scanConsumption(rows)
		if err != nil {
			return nil, fmt.Errorf("scan consumption history: %w", err)
		}
		history = append(history, h)
	}
	return history, rows.Err()
}

func insertConsumption(ctx context.Context, q querier, h models.ConsumptionHistory) error {
	_, err := q.ExecContext(ctx, `
		INSERT INTO consumption_history (`+consumptionColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, h.ID, string(h.Type), nullString(h.ItemID), nullString(h.ItemName), nullString(h.RecipeID),
		nullString(h.RecipeName), h.Quantity, h.Unit, millis(h.ConsumedAt), nullString(h.Notes),
		millis(h.CreateTime), millis(h.UpdateTime))
	return err
}

// AddConsumptionHistory assigns an id and timestamps to h and persists it.
// A zero ConsumedAt defaults to now.
func (s *Store) AddConsumptionHistory(ctx context.Context, h models.ConsumptionHistory) (models.ConsumptionHistory, error) {
	now := s.Now()
	h.ID = s.NewID()
	h.CreateTime = now
	h.UpdateTime = now
	if h.ConsumedAt.IsZero() {
		h.ConsumedAt = now
	}
	if err := insertConsumption(ctx, s.DB, h); err != nil {
		return models.ConsumptionHistory{}, fmt.Errorf("AddConsumptionHistory: %w", err)
	}
	return h, nil
}

// GetConsumptionHistoryEntry returns the history entry with id, or nil.
func (s *Store) GetConsumptionHistoryEntry(ctx context.Context, id string) (*models.ConsumptionHistory, error) {
	row := s.DB.QueryRowContext(ctx, `SELECT `+consumptionColumns+` FROM consumption_history WHERE id = ?`, id)
	h, err := scanConsumption(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("GetConsumptionHistoryEntry: %w", err)
	}
	return &h, nil
}

// GetConsumptionHistory returns every history entry, most recent first.
func (s *Store) GetConsumptionHistory(ctx context.Context) ([]models.ConsumptionHistory, error) {
	return queryConsumption(ctx, s.DB, `ORDER BY consumed_at DESC, id`)
}

// ConsumptionByType returns the entries of type t.
func (s *Store) ConsumptionByType(ctx context.Context, t models.ConsumptionType) ([]models.ConsumptionHistory, error) {
	return queryConsumption(ctx, s.DB, `WHERE type = ? ORDER BY consumed_at DESC, id`, string(t))
}

// ConsumptionByDateRange returns the entries consumed within [start, end].
func (s *Store) ConsumptionByDateRange(ctx context.Context, start, end time.Time) ([]models.ConsumptionHistory, error) {
	return queryConsumption(ctx, s.DB,
		`WHERE consumed_at BETWEEN ? AND ? ORDER BY consumed_at DESC, id`, millis(start), millis(end))
}

// UpdateConsumptionHistory applies the non-nil fields of p to the entry with id.
func (s *Store) UpdateConsumptionHistory(ctx context.Context, id string, p models.ConsumptionHistoryPatch) error {
	var l setList
	if p.Quantity != nil {
		l.add("quantity", *p.Quantity)
	}
	if p.Unit != nil {
		l.add("unit", *p.Unit)
	}
	if p.ConsumedAt != nil {
		l.add("consumed_at", millis(*p.ConsumedAt))
	}
	if p.Notes != nil {
		l.add("notes", *p.Notes)
	}
	l.add("update_time", millis(s.Now()))
	return l.exec(ctx, s.DB, "consumption_history", id)
}

// DeleteConsumptionHistory removes the entry with id.
func (s *Store) DeleteConsumptionHistory(ctx context.Context, id string) error {
	if _, err := s.DB.ExecContext(ctx, `DELETE FROM consumption_history WHERE id = ?`, id); err != nil {
		return fmt.Errorf("DeleteConsumptionHistory: %w", err)
	}
	return nil
}
