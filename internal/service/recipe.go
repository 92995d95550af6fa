package service

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/atinyakov/foodsai/internal/models"
)

// AddRecipe stores a new recipe.
func (s *Service) AddRecipe(ctx context.Context, r models.Recipe) (models.Recipe, error) {
	done, err := s.beginWrite()
	if err != nil {
		return models.Recipe{}, err
	}
	defer done()
	if r.Difficulty == "" {
		r.Difficulty = models.Medium
	}
	if err := validate(r); err != nil {
		return models.Recipe{}, err
	}
	return s.store.AddRecipe(ctx, r)
}

// GetRecipe returns the recipe with id, or nil.
func (s *Service) GetRecipe(ctx context.Context, id string) (*models.Recipe, error) {
	return s.store.GetRecipe(ctx, id)
}

// GetRecipes returns every recipe, newest first.
func (s *Service) GetRecipes(ctx context.Context) ([]models.Recipe, error) {
	return s.store.GetRecipes(ctx)
}

// SearchRecipes returns the recipes whose name or description contains query.
func (s *Service) SearchRecipes(ctx context.Context, query string) ([]models.Recipe, error) {
	return s.store.SearchRecipes(ctx, query)
}

// GetRecipesByTag returns the recipes carrying tag.
func (s *Service) GetRecipesByTag(ctx context.Context, tag string) ([]models.Recipe, error) {
	return s.store.RecipesByTag(ctx, tag)
}

// UpdateRecipe applies patch to the recipe with id.
func (s *Service) UpdateRecipe(ctx context.Context, id string, patch models.RecipePatch) error {
	done, err := s.beginWrite()
	if err != nil {
		return err
	}
	defer done()
	if err := validate(patch); err != nil {
		return err
	}
	return notFound(s.store.UpdateRecipe(ctx, id, patch))
}

// DeleteRecipe removes the recipe with id.
func (s *Service) DeleteRecipe(ctx context.Context, id string) error {
	done, err := s.beginWrite()
	if err != nil {
		return err
	}
	defer done()
	return s.store.DeleteRecipe(ctx, id)
}

// DuplicateRecipe stores a copy of the recipe with id named "<name> (copy)".
func (s *Service) DuplicateRecipe(ctx context.Context, id string) (models.Recipe, error) {
	done, err := s.beginWrite()
	if err != nil {
		return models.Recipe{}, err
	}
	defer done()
	orig, err := s.store.GetRecipe(ctx, id)
	if err != nil {
		return models.Recipe{}, err
	}
	if orig == nil {
		return models.Recipe{}, fmt.Errorf("recipe %s: %w", id, ErrNotFound)
	}
	dup := *orig
	dup.Name = orig.Name + " (copy)"
	dup.Ingredients = append([]string(nil), orig.Ingredients...)
	dup.Instructions = append([]string(nil), orig.Instructions...)
	dup.Tags = append([]string(nil), orig.Tags...)
	return s.store.AddRecipe(ctx, dup)
}

// ConsumeRecipe records that servings of the recipe with id were cooked.
func (s *Service) ConsumeRecipe(ctx context.Context, id string, servings float64, notes *string) (models.ConsumptionHistory, error) {
	done, err := s.beginWrite()
	if err != nil {
		return models.ConsumptionHistory{}, err
	}
	defer done()
	if servings <= 0 {
		return models.ConsumptionHistory{}, fmt.Errorf("%w: servings must be positive", ErrInvalidInput)
	}
	r, err := s.store.GetRecipe(ctx, id)
	if err != nil {
		return models.ConsumptionHistory{}, err
	}
	if r == nil {
		return models.ConsumptionHistory{}, fmt.Errorf("recipe %s: %w", id, ErrNotFound)
	}
	entry, err := s.store.AddConsumptionHistory(ctx, models.ConsumptionHistory{
		Type:       models.ConsumedRecipe,
		RecipeID:   &r.ID,
		RecipeName: &r.Name,
		Quantity:   servings,
		Unit:       "servings",
		Notes:      notes,
	})
	if err != nil {
		return models.ConsumptionHistory{}, err
	}
	s.log.Debug("consumed recipe", zap.String("id", id), zap.Float64("servings", servings))
	return entry, nil
}
