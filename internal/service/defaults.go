package service

import (
	_ "embed"
	"fmt"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/atinyakov/foodsai/internal/models"
)

// fallbackLocale is used for locales without a default category list.
const fallbackLocale = "en"

//go:embed defaults/categories.yaml
var categoriesYAML []byte

//go:embed defaults/icons.yaml
var iconsYAML []byte

type defaultCategory struct {
	Name        string `yaml:"name"`
	DisplayName string `yaml:"displayName"`
	Color       string `yaml:"color"`
	Icon        string `yaml:"icon"`
}

type builtinIcon struct {
	ID       string `yaml:"id"`
	Name     string `yaml:"name"`
	Category string `yaml:"category"`
}

var (
	defaultCategories map[string][]defaultCategory
	builtinIcons      []builtinIcon
)

func init() {
	if err := yaml.Unmarshal(categoriesYAML, &defaultCategories); err != nil {
		panic(fmt.Sprintf("parse default categories: %v", err))
	}
	if _, ok := defaultCategories[fallbackLocale]; !ok {
		panic("default categories: missing " + fallbackLocale + " list")
	}
	if err := yaml.Unmarshal(iconsYAML, &builtinIcons); err != nil {
		panic(fmt.Sprintf("parse builtin icons: %v", err))
	}
}

// NormalizeLocale maps a locale tag onto a key of the default category
// table: an exact match first, then the base language ("zh-CN" -> "zh"),
// then English.
func NormalizeLocale(locale string) string {
	l := strings.ToLower(strings.TrimSpace(locale))
	if _, ok := defaultCategories[l]; ok {
		return l
	}
	if i := strings.IndexAny(l, "-_"); i > 0 {
		if _, ok := defaultCategories[l[:i]]; ok {
			return l[:i]
		}
	}
	return fallbackLocale
}

// DefaultCategories returns the default category list of locale. Ids are
// "1", "2", ... and sort values 0, 1, ... in list order.
func DefaultCategories(locale string) []models.Category {
	list := defaultCategories[NormalizeLocale(locale)]
	out := make([]models.Category, 0, len(list))
	for i, d := range list {
		c := models.Category{
			ID:          strconv.Itoa(i + 1),
			Name:        d.Name,
			DisplayName: d.DisplayName,
			SortValue:   i,
			IsDefault:   true,
		}
		if d.Color != "" {
			color := d.Color
			c.Color = &color
		}
		if d.Icon != "" {
			icon := d.Icon
			c.Icon = &icon
		}
		out = append(out, c)
	}
	return out
}

// BuiltinIcons returns the icons shipped with the application. Their
// SVGContent is the key the front end renders.
func BuiltinIcons() []models.CustomIcon {
	out := make([]models.CustomIcon, 0, len(builtinIcons))
	for _, b := range builtinIcons {
		out = append(out, models.CustomIcon{
			ID:         b.ID,
			Name:       b.Name,
			Category:   b.Category,
			SVGContent: b.Name,
			BuiltIn:    true,
			CreatedBy:  "system",
			IsActive:   true,
		})
	}
	return out
}
