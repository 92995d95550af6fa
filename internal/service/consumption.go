package service

import (
	"context"
	"fmt"
	"time"

	"github.com/atinyakov/foodsai/internal/models"
)

// AddConsumptionHistory records a consumption entry.
func (s *Service) AddConsumptionHistory(ctx context.Context, h models.ConsumptionHistory) (models.ConsumptionHistory, error) {
	done, err := s.beginWrite()
	if err != nil {
		return models.ConsumptionHistory{}, err
	}
	defer done()
	if err := validate(h); err != nil {
		return models.ConsumptionHistory{}, err
	}
	return s.store.AddConsumptionHistory(ctx, h)
}

// GetConsumptionHistoryEntry returns the entry with id, or nil.
func (s *Service) GetConsumptionHistoryEntry(ctx context.Context, id string) (*models.ConsumptionHistory, error) {
	return s.store.GetConsumptionHistoryEntry(ctx, id)
}

// GetConsumptionHistory returns every entry, most recent first.
func (s *Service) GetConsumptionHistory(ctx context.Context) ([]models.ConsumptionHistory, error) {
	return s.store.GetConsumptionHistory(ctx)
}

// GetConsumptionByType returns the entries of type t.
func (s *Service) GetConsumptionByType(ctx context.Context, t models.ConsumptionType) ([]models.ConsumptionHistory, error) {
	if t != models.ConsumedFood && t != models.ConsumedRecipe {
		return nil, fmt.Errorf("%w: unknown consumption type %q", ErrInvalidInput, t)
	}
	return s.store.ConsumptionByType(ctx, t)
}

// GetConsumptionByDateRange returns the entries consumed within [start, end].
func (s *Service) GetConsumptionByDateRange(ctx context.Context, start, end time.Time) ([]models.ConsumptionHistory, error) {
	if end.Before(start) {
		return nil, fmt.Errorf("%w: end before start", ErrInvalidInput)
	}
	return s.store.ConsumptionByDateRange(ctx, start, end)
}

// UpdateConsumptionHistory applies patch to the entry with id.
func (s *Service) UpdateConsumptionHistory(ctx context.Context, id string, patch models.ConsumptionHistoryPatch) error {
	done, err := s.beginWrite()
	if err != nil {
		return err
	}
	defer done()
	if err := validate(patch); err != nil {
		return err
	}
	return notFound(s.store.UpdateConsumptionHistory(ctx, id, patch))
}

// DeleteConsumptionHistory removes the entry with id.
func (s *Service) DeleteConsumptionHistory(ctx context.Context, id string) error {
	done, err := s.beginWrite()
	if err != nil {
		return err
	}
	defer done()
	return s.store.DeleteConsumptionHistory(ctx, id)
}
