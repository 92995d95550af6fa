package repository

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/atinyakov/foodsai/internal/models"
)

func populate(t *testing.T, store *Store) {
	t.Helper()
	ctx := context.Background()

	_, err := store.SaveGuestUser(ctx, models.GuestUser{Name: "Guest", IsGuest: true})
	require.NoError(t, err)
	require.NoError(t, store.SaveSettings(ctx, models.DefaultSettings("en")))
	_, err = store.SeedCategories(ctx, defaultCategories())
	require.NoError(t, err)
	_, err = store.AddInventoryItem(ctx, models.InventoryItem{Name: "Milk", Quantity: 1, OriginalQuantity: 1, Unit: "l", Category: "2"})
	require.NoError(t, err)
	_, err = store.AddRecipe(ctx, models.Recipe{Name: "Porridge", Difficulty: models.Easy, Tags: []string{"breakfast"}})
	require.NoError(t, err)
	_, err = store.AddConsumptionHistory(ctx, models.ConsumptionHistory{Type: models.ConsumedFood, ItemName: ptr("Bread"), Quantity: 1})
	require.NoError(t, err)
	_, err = store.AddCustomIcon(ctx, models.CustomIcon{Name: "jar", Category: "2", SVGContent: "<svg/>", IsActive: true})
	require.NoError(t, err)
}

func TestExportImport_RoundTrip(t *testing.T) {
	ctx := context.Background()
	src := newSQLiteStore(t)
	populate(t, src)

	snap, err := src.ExportAll(ctx)
	require.NoError(t, err)
	require.NotNil(t, snap.User)
	require.NotNil(t, snap.Settings)
	assert.Len(t, snap.InventoryItems, 1)
	assert.Len(t, snap.Recipes, 1)
	assert.Len(t, snap.Categories, 3)
	assert.Len(t, snap.ConsumptionHistory, 1)
	assert.Len(t, snap.CustomIcons, 1)

	dst := newSQLiteStore(t)
	_, err = dst.AddRecipe(ctx, models.Recipe{Name: "Leftover", Difficulty: models.Easy})
	require.NoError(t, err)

	require.NoError(t, dst.ImportAll(ctx, snap))

	back, err := dst.ExportAll(ctx)
	require.NoError(t, err)
	back.ExportDate = snap.ExportDate
	assert.Equal(t, snap, back)
}

func TestImportAll_IsAtomic(t *testing.T) {
	ctx := context.Background()
	store := newSQLiteStore(t)
	populate(t, store)

	before, err := store.ExportAll(ctx)
	require.NoError(t, err)

	dup := models.InventoryItem{ID: "same", Name: "A", Quantity: 1, Unit: "pcs"}
	err = store.ImportAll(ctx, models.Snapshot{InventoryItems: []models.InventoryItem{dup, dup}})
	require.Error(t, err)

	after, err := store.ExportAll(ctx)
	require.NoError(t, err)
	after.ExportDate = before.ExportDate
	assert.Equal(t, before, after, "a failed import leaves the previous data intact")
}

func TestClearAll(t *testing.T) {
	ctx := context.Background()
	store := newSQLiteStore(t)
	populate(t, store)
	require.NoError(t, store.SetValue(ctx, "token", "abc", 0))

	require.NoError(t, store.ClearAll(ctx))

	snap, err := store.ExportAll(ctx)
	require.NoError(t, err)
	assert.Nil(t, snap.User)
	assert.Nil(t, snap.Settings)
	assert.Empty(t, snap.InventoryItems)
	assert.Empty(t, snap.Recipes)
	assert.Empty(t, snap.Categories)
	assert.Empty(t, snap.ConsumptionHistory)
	assert.Empty(t, snap.CustomIcons)

	_, ok, err := store.GetValue(ctx, "token")
	require.NoError(t, err)
	assert.True(t, ok, "key/value state survives a clear")
}
