package service

import (
	"context"

	"go.uber.org/zap"

	"github.com/atinyakov/foodsai/internal/models"
)

// GetCategories returns every category ordered by sort value. An empty table
// is first seeded from the default list of locale. Concurrent callers on an
// empty table share one seeding run, and the locale of the caller that
// started it wins. The run is not cancelled with the caller's ctx.
func (s *Service) GetCategories(ctx context.Context, locale string) ([]models.Category, error) {
	categories, err := s.store.GetCategories(ctx)
	if err != nil {
		return nil, err
	}
	if len(categories) > 0 {
		return categories, nil
	}

	seedCtx := context.WithoutCancel(ctx)
	_, err, _ = s.seed.Do("categories", func() (any, error) {
		seeded, err := s.store.SeedCategories(seedCtx, DefaultCategories(locale))
		if err != nil {
			s.log.Error("failed to seed default categories", zap.String("locale", locale), zap.Error(err))
			return nil, err
		}
		if seeded {
			s.log.Info("seeded default categories", zap.String("locale", NormalizeLocale(locale)))
		}
		return nil, nil
	})
	if err != nil {
		return nil, err
	}
	return s.store.GetCategories(ctx)
}

// AddCategory creates a user category sorted after every existing one.
func (s *Service) AddCategory(ctx context.Context, c models.Category) (models.Category, error) {
	done, err := s.beginWrite()
	if err != nil {
		return models.Category{}, err
	}
	defer done()
	if err := validate(c); err != nil {
		return models.Category{}, err
	}
	max, err := s.store.MaxCategorySortValue(ctx)
	if err != nil {
		return models.Category{}, err
	}
	c.ID = ""
	c.SortValue = max + 1
	c.IsDefault = false
	return s.store.AddCategory(ctx, c)
}

// UpdateCategory applies patch to the category with id.
func (s *Service) UpdateCategory(ctx context.Context, id string, patch models.CategoryPatch) error {
	done, err := s.beginWrite()
	if err != nil {
		return err
	}
	defer done()
	if err := validate(patch); err != nil {
		return err
	}
	return notFound(s.store.UpdateCategory(ctx, id, patch))
}

// DeleteCategory removes the category with id. Items keep referencing the
// removed id; callers warn before deleting a category in use.
func (s *Service) DeleteCategory(ctx context.Context, id string) error {
	done, err := s.beginWrite()
	if err != nil {
		return err
	}
	defer done()
	return s.store.DeleteCategory(ctx, id)
}

// UpdateCategoryOrder stores new sort values for the listed categories. The
// reorder is applied completely or not at all.
func (s *Service) UpdateCategoryOrder(ctx context.Context, order []models.CategoryOrder) error {
	done, err := s.beginWrite()
	if err != nil {
		return err
	}
	defer done()
	for _, o := range order {
		if err := validate(o); err != nil {
			return err
		}
	}
	return notFound(s.store.ReorderCategories(ctx, order))
}
