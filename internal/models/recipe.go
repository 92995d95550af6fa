package models

import "time"

// Difficulty is the cooking difficulty of a recipe.
type Difficulty string

const (
	Easy   Difficulty = "easy"
	Medium Difficulty = "medium"
	Hard   Difficulty = "hard"
)

// Recipe is a saved or generated recipe.
type Recipe struct {
	ID           string     `json:"id"`
	Name         string     `json:"name" validate:"required,max=200"`
	Description  *string    `json:"description,omitempty"`
	Ingredients  []string   `json:"ingredients"`
	Instructions []string   `json:"instructions"`
	CookingTime  int        `json:"cookingTime" validate:"gte=0"`
	Servings     int        `json:"servings" validate:"gte=0"`
	Difficulty   Difficulty `json:"difficulty" validate:"oneof=easy medium hard"`
	Tags         []string   `json:"tags"`
	Image        *string    `json:"image,omitempty"`
	CreateTime   time.Time  `json:"createTime"`
	UpdateTime   time.Time  `json:"updateTime"`
}

// RecipePatch carries the fields of a partial recipe update.
type RecipePatch struct {
	Name         *string     `json:"name,omitempty" validate:"omitempty,min=1,max=200"`
	Description  *string     `json:"description,omitempty"`
	Ingredients  *[]string   `json:"ingredients,omitempty"`
	Instructions *[]string   `json:"instructions,omitempty"`
	CookingTime  *int        `json:"cookingTime,omitempty" validate:"omitempty,gte=0"`
	Servings     *int        `json:"servings,omitempty" validate:"omitempty,gte=0"`
	Difficulty   *Difficulty `json:"difficulty,omitempty" validate:"omitempty,oneof=easy medium hard"`
	Tags         *[]string   `json:"tags,omitempty"`
	Image        *string     `json:"image,omitempty"`
}

// UniqueTags drops empty and repeated tags, keeping the first occurrence.
func UniqueTags(tags []string) []string {
	seen := make(map[string]struct{}, len(tags))
	out := make([]string, 0, len(tags))
	for _, t := range tags {
		if t == "" {
			continue
		}
		if _, ok := seen[t]; ok {
			continue
		}
		seen[t] = struct{}{}
		out = append(out, t)
	}
	return out
}

// ConsumptionType tells whether a history entry records a food item or a recipe.
type ConsumptionType string

const (
	ConsumedRecipe ConsumptionType = "recipe"
	ConsumedFood   ConsumptionType = "food"
)

// ConsumptionHistory records a consumed inventory item or cooked recipe.
type ConsumptionHistory struct {
	ID         string          `json:"id"`
	Type       ConsumptionType `json:"type" validate:"oneof=recipe food"`
	ItemID     *string         `json:"itemId,omitempty"`
	ItemName   *string         `json:"itemName,omitempty"`
	RecipeID   *string         `json:"recipeId,omitempty"`
	RecipeName *string         `json:"recipeName,omitempty"`
	Quantity   float64         `json:"quantity" validate:"gte=0"`
	Unit       string          `json:"unit"`
	ConsumedAt time.Time       `json:"consumedAt"`
	Notes      *string         `json:"notes,omitempty"`
	CreateTime time.Time       `json:"createTime"`
	UpdateTime time.Time       `json:"updateTime"`
}

// ConsumptionHistoryPatch carries the fields of a partial history update.
type ConsumptionHistoryPatch struct {
	Quantity   *float64   `json:"quantity,omitempty" validate:"omitempty,gte=0"`
	Unit       *string    `json:"unit,omitempty"`
	ConsumedAt *time.Time `json:"consumedAt,omitempty"`
	Notes      *string    `json:"notes,omitempty"`
}

// CustomIcon is an icon either shipped with the application or uploaded by
// the user as SVG markup.
type CustomIcon struct {
	ID       string `json:"id"`
	Name     string `json:"name" validate:"required,max=100"`
	Category string `json:"category"`
	// CategoryName is the resolved display name of Category; read-only.
	CategoryName string `json:"categoryName,omitempty"`
	// SVGContent is raw SVG markup, or a builtin icon key when BuiltIn is set.
	SVGContent string    `json:"svgContent" validate:"required"`
	BuiltIn    bool      `json:"builtIn"`
	CreatedBy  string    `json:"createdBy"`
	CreateTime time.Time `json:"createTime"`
	IsActive   bool      `json:"isActive"`
}

// CustomIconPatch carries the fields of a partial icon update.
type CustomIconPatch struct {
	Name       *string `json:"name,omitempty" validate:"omitempty,min=1,max=100"`
	Category   *string `json:"category,omitempty"`
	SVGContent *string `json:"svgContent,omitempty"`
	IsActive   *bool   `json:"isActive,omitempty"`
}

// IconTransfer is one entry of the icon import and export format. Imports
// accept the markup under either svgContent or svg.
type IconTransfer struct {
	Name       string `json:"name"`
	SVGContent string `json:"svgContent,omitempty"`
	SVG        string `json:"svg,omitempty"`
	Category   string `json:"category"`
}

// Markup returns the SVG markup of the entry.
func (t IconTransfer) Markup() string {
	if t.SVGContent != "" {
		return t.SVGContent
	}
	return t.SVG
}
