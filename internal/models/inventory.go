package models

import "time"

// InventoryItem is a food item stored in the fridge.
type InventoryItem struct {
	ID               string     `json:"id"`
	Name             string     `json:"name" validate:"required,max=200"`
	Quantity         float64    `json:"quantity" validate:"gt=0"`
	OriginalQuantity float64    `json:"originalQuantity"`
	Unit             string     `json:"unit" validate:"required,max=32"`
	Price            *float64   `json:"price,omitempty" validate:"omitempty,gte=0"`
	Position         *string    `json:"position,omitempty"`
	ExpirationDays   *int       `json:"expirationDays,omitempty" validate:"omitempty,gte=0"`
	DateFrom         *time.Time `json:"dateFrom,omitempty"`
	// Category references a Category by id.
	Category string `json:"category"`
	// Image is either an icon reference or an embedded data URI.
	Image      *string   `json:"image,omitempty"`
	CreatedBy  string    `json:"createdBy"`
	UpdatedBy  string    `json:"updatedBy"`
	CreateTime time.Time `json:"createTime"`
	UpdateTime time.Time `json:"updateTime"`
}

// ExpiresAt reports when the item expires. ok is false when the item has no
// start date or shelf life.
func (i InventoryItem) ExpiresAt() (t time.Time, ok bool) {
	if i.DateFrom == nil || i.ExpirationDays == nil {
		return time.Time{}, false
	}
	return i.DateFrom.AddDate(0, 0, *i.ExpirationDays), true
}

// InventoryItemPatch carries the fields of a partial update. Nil fields are
// left untouched.
type InventoryItemPatch struct {
	Name             *string    `json:"name,omitempty" validate:"omitempty,min=1,max=200"`
	Quantity         *float64   `json:"quantity,omitempty" validate:"omitempty,gte=0"`
	OriginalQuantity *float64   `json:"originalQuantity,omitempty" validate:"omitempty,gte=0"`
	Unit             *string    `json:"unit,omitempty" validate:"omitempty,min=1,max=32"`
	Price            *float64   `json:"price,omitempty" validate:"omitempty,gte=0"`
	Position         *string    `json:"position,omitempty"`
	ExpirationDays   *int       `json:"expirationDays,omitempty" validate:"omitempty,gte=0"`
	DateFrom         *time.Time `json:"dateFrom,omitempty"`
	Category         *string    `json:"category,omitempty"`
	Image            *string    `json:"image,omitempty"`
	UpdatedBy        *string    `json:"-"`
}

// Category groups inventory items.
type Category struct {
	ID          string  `json:"id"`
	Name        string  `json:"name" validate:"required,slug"`
	DisplayName string  `json:"displayName" validate:"required"`
	Color       *string `json:"color,omitempty" validate:"omitempty,hexcolor"`
	Icon        *string `json:"icon,omitempty"`
	SortValue   int     `json:"sortValue"`
	IsDefault   bool    `json:"isDefault"`
	// ItemCount is computed at read time.
	ItemCount int `json:"itemCount"`
}

// CategoryPatch carries the fields of a partial category update.
type CategoryPatch struct {
	Name        *string `json:"name,omitempty" validate:"omitempty,slug"`
	DisplayName *string `json:"displayName,omitempty" validate:"omitempty,min=1"`
	Color       *string `json:"color,omitempty" validate:"omitempty,hexcolor"`
	Icon        *string `json:"icon,omitempty"`
	SortValue   *int    `json:"sortValue,omitempty"`
}

// CategoryOrder assigns a new sort value to a category.
type CategoryOrder struct {
	ID        string `json:"id" validate:"required"`
	SortValue int    `json:"sortValue"`
}
