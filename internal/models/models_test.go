package models

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInventoryItem_ExpiresAt(t *testing.T) {
	from := time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC)
	days := 5

	_, ok := InventoryItem{}.ExpiresAt()
	assert.False(t, ok)

	_, ok = InventoryItem{DateFrom: &from}.ExpiresAt()
	assert.False(t, ok)

	at, ok := InventoryItem{DateFrom: &from, ExpirationDays: &days}.ExpiresAt()
	require.True(t, ok)
	assert.Equal(t, time.Date(2024, 3, 6, 10, 0, 0, 0, time.UTC), at)
}

func TestUniqueTags(t *testing.T) {
	assert.Equal(t, []string{"quick", "vegan"}, UniqueTags([]string{"quick", "", "vegan", "quick"}))
	assert.Equal(t, []string{}, UniqueTags(nil))
}

func TestIconTransfer_Markup(t *testing.T) {
	assert.Equal(t, "<svg a/>", IconTransfer{SVGContent: "<svg a/>", SVG: "<svg b/>"}.Markup())
	assert.Equal(t, "<svg b/>", IconTransfer{SVG: "<svg b/>"}.Markup())
}

func TestBackupInterval(t *testing.T) {
	assert.Equal(t, 24*time.Hour, BackupInterval("daily"))
	assert.Equal(t, 7*24*time.Hour, BackupInterval("weekly"))
	assert.Equal(t, 30*24*time.Hour, BackupInterval("monthly"))
	assert.Zero(t, BackupInterval("never"))
}

func TestDefaultSettings(t *testing.T) {
	s := DefaultSettings("")
	assert.Equal(t, SettingsID, s.ID)
	assert.Equal(t, "en", s.Language)
	assert.Equal(t, "ru", DefaultSettings("ru").Language)
}

func TestValidator(t *testing.T) {
	v := Validator()

	ok := Category{Name: "dairy_products", DisplayName: "Dairy"}
	assert.NoError(t, v.Struct(ok))

	bad := Category{Name: "Dairy Products", DisplayName: "Dairy"}
	assert.Error(t, v.Struct(bad))

	assert.True(t, IsSlug("fruits"))
	assert.False(t, IsSlug("Fruits!"))

	item := InventoryItem{Name: "Milk", Quantity: 0, Unit: "l"}
	assert.Error(t, v.Struct(item))
	item.Quantity = 1
	assert.NoError(t, v.Struct(item))
}
