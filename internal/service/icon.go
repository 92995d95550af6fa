package service

import (
	"context"
	"encoding/json"
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"strings"

	"go.uber.org/zap"

	"github.com/atinyakov/foodsai/internal/models"
)

// maxSVGSize bounds uploaded icon markup.
const maxSVGSize = 256 << 10

// ValidateSVG reports whether content is a single well-formed XML document
// whose root element is <svg>. Script elements are rejected.
func ValidateSVG(content string) error {
	if strings.TrimSpace(content) == "" {
		return fmt.Errorf("%w: empty markup", ErrInvalidSVG)
	}
	if len(content) > maxSVGSize {
		return fmt.Errorf("%w: markup larger than %d bytes", ErrInvalidSVG, maxSVGSize)
	}

	dec := xml.NewDecoder(strings.NewReader(content))
	depth, roots := 0, 0
	for {
		tok, err := dec.Token()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return fmt.Errorf("%w: %v", ErrInvalidSVG, err)
		}
		switch t := tok.(type) {
		case xml.StartElement:
			if depth == 0 {
				roots++
				if roots > 1 {
					return fmt.Errorf("%w: more than one root element", ErrInvalidSVG)
				}
				if t.Name.Local != "svg" {
					return fmt.Errorf("%w: root element is <%s>", ErrInvalidSVG, t.Name.Local)
				}
			}
			if strings.EqualFold(t.Name.Local, "script") {
				return fmt.Errorf("%w: script elements are not allowed", ErrInvalidSVG)
			}
			depth++
		case xml.EndElement:
			depth--
		case xml.CharData:
			if depth == 0 && strings.TrimSpace(string(t)) != "" {
				return fmt.Errorf("%w: text outside the root element", ErrInvalidSVG)
			}
		}
	}
	if roots == 0 {
		return fmt.Errorf("%w: missing <svg> root element", ErrInvalidSVG)
	}
	return nil
}

// seedBuiltinIcons makes sure the builtin icon set is present. It runs once
// per service; concurrent callers share the run.
func (s *Service) seedBuiltinIcons(ctx context.Context) error {
	if s.iconsSeeded.Load() {
		return nil
	}
	seedCtx := context.WithoutCancel(ctx)
	_, err, _ := s.seed.Do("icons", func() (any, error) {
		if err := s.store.SeedBuiltinIcons(seedCtx, BuiltinIcons()); err != nil {
			s.log.Error("failed to seed builtin icons", zap.Error(err))
			return nil, err
		}
		s.iconsSeeded.Store(true)
		return nil, nil
	})
	return err
}

// AddCustomIcon validates the markup of icon and stores it as a user icon
// owned by the current session.
func (s *Service) AddCustomIcon(ctx context.Context, icon models.CustomIcon) (models.CustomIcon, error) {
	done, err := s.beginWrite()
	if err != nil {
		return models.CustomIcon{}, err
	}
	defer done()
	return s.addCustomIcon(ctx, icon)
}

func (s *Service) addCustomIcon(ctx context.Context, icon models.CustomIcon) (models.CustomIcon, error) {
	if err := validate(icon); err != nil {
		return models.CustomIcon{}, err
	}
	if err := ValidateSVG(icon.SVGContent); err != nil {
		return models.CustomIcon{}, err
	}
	icon.BuiltIn = false
	icon.IsActive = true
	icon.CreatedBy = s.actor(ctx)
	return s.store.AddCustomIcon(ctx, icon)
}

// categoryNames maps category ids to display names.
func (s *Service) categoryNames(ctx context.Context) (map[string]string, error) {
	categories, err := s.store.GetCategories(ctx)
	if err != nil {
		return nil, err
	}
	names := make(map[string]string, len(categories))
	for _, c := range categories {
		names[c.ID] = c.DisplayName
	}
	return names, nil
}

func (s *Service) resolveCategoryNames(ctx context.Context, icons []models.CustomIcon) ([]models.CustomIcon, error) {
	names, err := s.categoryNames(ctx)
	if err != nil {
		return nil, err
	}
	for i := range icons {
		icons[i].CategoryName = names[icons[i].Category]
	}
	return icons, nil
}

// GetCustomIcons returns every icon, builtin ones first, with category
// display names resolved.
func (s *Service) GetCustomIcons(ctx context.Context) ([]models.CustomIcon, error) {
	if err := s.seedBuiltinIcons(ctx); err != nil {
		return nil, err
	}
	icons, err := s.store.GetCustomIcons(ctx)
	if err != nil {
		return nil, err
	}
	return s.resolveCategoryNames(ctx, icons)
}

// GetIconsByCategory returns the icons of category.
func (s *Service) GetIconsByCategory(ctx context.Context, category string) ([]models.CustomIcon, error) {
	if err := s.seedBuiltinIcons(ctx); err != nil {
		return nil, err
	}
	icons, err := s.store.IconsByCategory(ctx, category)
	if err != nil {
		return nil, err
	}
	return s.resolveCategoryNames(ctx, icons)
}

// GetCustomIcon returns the icon with id, or nil.
func (s *Service) GetCustomIcon(ctx context.Context, id string) (*models.CustomIcon, error) {
	icon, err := s.store.GetCustomIcon(ctx, id)
	if err != nil || icon == nil {
		return nil, err
	}
	c, err := s.store.GetCategory(ctx, icon.Category)
	if err != nil {
		return nil, err
	}
	if c != nil {
		icon.CategoryName = c.DisplayName
	}
	return icon, nil
}

// UpdateCustomIcon applies patch to the icon with id. The markup of builtin
// icons cannot change.
func (s *Service) UpdateCustomIcon(ctx context.Context, id string, patch models.CustomIconPatch) error {
	done, err := s.beginWrite()
	if err != nil {
		return err
	}
	defer done()
	if err := validate(patch); err != nil {
		return err
	}
	if patch.SVGContent != nil {
		icon, err := s.store.GetCustomIcon(ctx, id)
		if err != nil {
			return err
		}
		if icon == nil {
			return fmt.Errorf("icon %s: %w", id, ErrNotFound)
		}
		if icon.BuiltIn {
			return ErrBuiltinIcon
		}
		if err := ValidateSVG(*patch.SVGContent); err != nil {
			return err
		}
	}
	return notFound(s.store.UpdateCustomIcon(ctx, id, patch))
}

// DeleteCustomIcon removes a user icon. Builtin icons can only be
// deactivated.
func (s *Service) DeleteCustomIcon(ctx context.Context, id string) error {
	done, err := s.beginWrite()
	if err != nil {
		return err
	}
	defer done()
	icon, err := s.store.GetCustomIcon(ctx, id)
	if err != nil {
		return err
	}
	if icon == nil {
		return nil
	}
	if icon.BuiltIn {
		return ErrBuiltinIcon
	}
	return s.store.DeleteCustomIcon(ctx, id)
}

// ImportCustomIcons adds every icon of the JSON array data. Icons whose name
// already exists are skipped; entries that fail validation or storage are
// reported and do not stop the import.
func (s *Service) ImportCustomIcons(ctx context.Context, data []byte) (models.IconImportReport, error) {
	done, err := s.beginWrite()
	if err != nil {
		return models.IconImportReport{}, err
	}
	defer done()
	var entries []models.IconTransfer
	if err := json.Unmarshal(data, &entries); err != nil {
		return models.IconImportReport{}, fmt.Errorf("%w: %v", ErrInvalidInput, err)
	}

	report := models.IconImportReport{Skipped: []string{}, Failed: []models.IconImportFailure{}}
	for _, e := range entries {
		if e.Name == "" {
			report.Failed = append(report.Failed, models.IconImportFailure{Error: "missing name"})
			continue
		}
		existing, err := s.store.FindCustomIconByName(ctx, e.Name)
		if err != nil {
			return report, err
		}
		if existing != nil {
			report.Skipped = append(report.Skipped, e.Name)
			continue
		}
		_, err = s.addCustomIcon(ctx, models.CustomIcon{Name: e.Name, Category: e.Category, SVGContent: e.Markup()})
		if err != nil {
			s.log.Warn("failed to import icon", zap.String("name", e.Name), zap.Error(err))
			report.Failed = append(report.Failed, models.IconImportFailure{Name: e.Name, Error: err.Error()})
			continue
		}
		report.Imported++
	}
	s.log.Info("imported custom icons", zap.Int("imported", report.Imported),
		zap.Int("skipped", len(report.Skipped)), zap.Int("failed", len(report.Failed)))
	return report, nil
}

// ExportCustomIcons returns the user icons in the import format.
func (s *Service) ExportCustomIcons(ctx context.Context) ([]models.IconTransfer, error) {
	icons, err := s.store.GetCustomIcons(ctx)
	if err != nil {
		return nil, err
	}
	out := []models.IconTransfer{}
	for _, icon := range icons {
		if icon.BuiltIn {
			continue
		}
		out = append(out, models.IconTransfer{Name: icon.Name, SVGContent: icon.SVGContent, Category: icon.Category})
	}
	return out, nil
}
