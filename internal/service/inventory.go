package service

import (
	"context"
	"fmt"
	"sort"
	"time"

	"go.uber.org/zap"

	"github.com/atinyakov/foodsai/internal/models"
)

// AddInventoryItem inserts item, or merges it into an existing item with
// exactly the same name. A merge adds the incoming quantity to both the
// quantity and the original quantity of the existing record and returns it.
func (s *Service) AddInventoryItem(ctx context.Context, item models.InventoryItem) (models.InventoryItem, error) {
	done, err := s.beginWrite()
	if err != nil {
		return models.InventoryItem{}, err
	}
	defer done()
	if err := validate(item); err != nil {
		return models.InventoryItem{}, err
	}
	actor := s.actor(ctx)

	s.addMu.Lock()
	defer s.addMu.Unlock()

	existing, err := s.store.FindInventoryItemByName(ctx, item.Name)
	if err != nil {
		return models.InventoryItem{}, err
	}
	if existing != nil {
		quantity := existing.Quantity + item.Quantity
		original := existing.OriginalQuantity + item.Quantity
		patch := models.InventoryItemPatch{Quantity: &quantity, OriginalQuantity: &original, UpdatedBy: &actor}
		if err := s.store.UpdateInventoryItem(ctx, existing.ID, patch); err != nil {
			return models.InventoryItem{}, notFound(err)
		}
		merged, err := s.store.GetInventoryItem(ctx, existing.ID)
		if err != nil {
			return models.InventoryItem{}, err
		}
		if merged == nil {
			return models.InventoryItem{}, ErrNotFound
		}
		s.log.Debug("merged inventory item", zap.String("id", merged.ID), zap.String("name", merged.Name),
			zap.Float64("quantity", merged.Quantity))
		return *merged, nil
	}

	if item.OriginalQuantity < item.Quantity {
		item.OriginalQuantity = item.Quantity
	}
	item.CreatedBy = actor
	item.UpdatedBy = actor
	return s.store.AddInventoryItem(ctx, item)
}

// GetInventoryItem returns the item with id, or nil.
func (s *Service) GetInventoryItem(ctx context.Context, id string) (*models.InventoryItem, error) {
	return s.store.GetInventoryItem(ctx, id)
}

// GetInventoryItems returns every inventory item.
func (s *Service) GetInventoryItems(ctx context.Context) ([]models.InventoryItem, error) {
	return s.store.GetInventoryItems(ctx)
}

// GetInventoryByCategory returns the items of category.
func (s *Service) GetInventoryByCategory(ctx context.Context, category string) ([]models.InventoryItem, error) {
	return s.store.InventoryByCategory(ctx, category)
}

// SearchInventory returns the items whose name contains query, ignoring case.
func (s *Service) SearchInventory(ctx context.Context, query string) ([]models.InventoryItem, error) {
	return s.store.SearchInventory(ctx, query)
}

// GetInventoryByDateRange returns the items whose start date lies in [start, end].
func (s *Service) GetInventoryByDateRange(ctx context.Context, start, end time.Time) ([]models.InventoryItem, error) {
	if end.Before(start) {
		return nil, fmt.Errorf("%w: end before start", ErrInvalidInput)
	}
	return s.store.InventoryByDateRange(ctx, start, end)
}

// GetExpiringItems returns the items that expire within the next days days,
// including those already expired, soonest first. Items without a start date
// or shelf life never expire.
func (s *Service) GetExpiringItems(ctx context.Context, days int) ([]models.InventoryItem, error) {
	if days < 0 {
		return nil, fmt.Errorf("%w: negative day count", ErrInvalidInput)
	}
	items, err := s.store.GetInventoryItems(ctx)
	if err != nil {
		return nil, err
	}
	limit := s.now().AddDate(0, 0, days)
	expiring := []models.InventoryItem{}
	for _, item := range items {
		if at, ok := item.ExpiresAt(); ok && !at.After(limit) {
			expiring = append(expiring, item)
		}
	}
	sort.SliceStable(expiring, func(i, j int) bool {
		a, _ := expiring[i].ExpiresAt()
		b, _ := expiring[j].ExpiresAt()
		return a.Before(b)
	})
	return expiring, nil
}

// UpdateInventoryItem applies patch to the item with id.
func (s *Service) UpdateInventoryItem(ctx context.Context, id string, patch models.InventoryItemPatch) error {
	done, err := s.beginWrite()
	if err != nil {
		return err
	}
	defer done()
	if err := validate(patch); err != nil {
		return err
	}
	actor := s.actor(ctx)
	patch.UpdatedBy = &actor
	return notFound(s.store.UpdateInventoryItem(ctx, id, patch))
}

// DeleteInventoryItem removes the item with id. Deleting a missing item is
// not an error.
func (s *Service) DeleteInventoryItem(ctx context.Context, id string) error {
	done, err := s.beginWrite()
	if err != nil {
		return err
	}
	defer done()
	return s.store.DeleteInventoryItem(ctx, id)
}

// ConsumeInventoryItem takes quantity of the item with id out of stock and
// records it in the consumption history. Consuming the whole stock or more
// deletes the item; remaining is nil then.
func (s *Service) ConsumeInventoryItem(
	ctx context.Context,
	id string,
	quantity float64,
	notes *string,
) (remaining *models.InventoryItem, entry models.ConsumptionHistory, err error) {
	done, err := s.beginWrite()
	if err != nil {
		return nil, models.ConsumptionHistory{}, err
	}
	defer done()
	if quantity <= 0 {
		return nil, models.ConsumptionHistory{}, fmt.Errorf("%w: quantity must be positive", ErrInvalidInput)
	}
	remaining, entry, err = s.store.ConsumeInventoryItem(ctx, id, quantity, models.ConsumptionHistory{
		Type:  models.ConsumedFood,
		Notes: notes,
	})
	if err != nil {
		return nil, models.ConsumptionHistory{}, notFound(err)
	}
	s.log.Debug("consumed inventory item", zap.String("id", id), zap.Float64("quantity", entry.Quantity),
		zap.Bool("depleted", remaining == nil))
	return remaining, entry, nil
}
