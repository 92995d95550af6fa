package repository

import (
	"context"
	"errors"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/atinyakov/foodsai/internal/models"
)

func TestAddInventoryItem_Success(t *testing.T) {
	store, mock, cleanup := setupMock(t)
	defer cleanup()

	item := models.InventoryItem{Name: "Milk", Quantity: 2, OriginalQuantity: 2, Unit: "l", Category: "1", CreatedBy: "guest"}
	mock.ExpectExec(regexp.QuoteMeta(`INSERT INTO inventory_items`)).
		WithArgs("id-1", "Milk", 2.0, 2.0, "l", nil, nil, nil, nil, "1", nil, "guest", "",
			fixedNow.UnixMilli(), fixedNow.UnixMilli()).
		WillReturnResult(sqlmock.NewResult(1, 1))

	got, err := store.AddInventoryItem(context.Background(), item)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got.ID != "id-1" || !got.CreateTime.Equal(fixedNow) || !got.UpdateTime.Equal(fixedNow) {
		t.Errorf("unexpected stamped item: %+v", got)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("unfulfilled expectations: %v", err)
	}
}

func TestAddInventoryItem_Error(t *testing.T) {
	store, mock, cleanup := setupMock(t)
	defer cleanup()

	mock.ExpectExec(regexp.QuoteMeta(`INSERT INTO inventory_items`)).
		WillReturnError(errors.New("disk full"))

	_, err := store.AddInventoryItem(context.Background(), models.InventoryItem{Name: "Milk"})
	if err == nil || !regexp.MustCompile(`AddInventoryItem`).MatchString(err.Error()) {
		t.Errorf("expected AddInventoryItem error, got %v", err)
	}
}

func TestGetInventoryItem_Absent(t *testing.T) {
	store, mock, cleanup := setupMock(t)
	defer cleanup()

	mock.ExpectQuery(regexp.QuoteMeta(`FROM inventory_items WHERE id = ?`)).
		WithArgs("missing").
		WillReturnRows(sqlmock.NewRows([]string{"id"}))

	got, err := store.GetInventoryItem(context.Background(), "missing")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != nil {
		t.Errorf("expected nil, got %+v", got)
	}
}

func TestUpdateInventoryItem_NotFound(t *testing.T) {
	store, mock, cleanup := setupMock(t)
	defer cleanup()

	mock.ExpectExec(regexp.QuoteMeta(`UPDATE inventory_items SET quantity = ?, update_time = ? WHERE id = ?`)).
		WithArgs(3.0, fixedNow.UnixMilli(), "ghost").
		WillReturnResult(sqlmock.NewResult(0, 0))

	err := store.UpdateInventoryItem(context.Background(), "ghost", models.InventoryItemPatch{Quantity: ptr(3.0)})
	if !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("unfulfilled expectations: %v", err)
	}
}

func TestInventory_CRUD(t *testing.T) {
	ctx := context.Background()
	store := newSQLiteStore(t)

	added, err := store.AddInventoryItem(ctx, models.InventoryItem{
		Name: "Eggs", Quantity: 12, OriginalQuantity: 12, Unit: "pcs", Category: "dairy",
		Price: ptr(3.5), ExpirationDays: ptr(14),
	})
	require.NoError(t, err)
	require.NotEmpty(t, added.ID)

	got, err := store.GetInventoryItem(ctx, added.ID)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, added, *got)

	require.NoError(t, store.UpdateInventoryItem(ctx, added.ID, models.InventoryItemPatch{
		Quantity: ptr(6.0), Position: ptr("door"),
	}))
	got, err = store.GetInventoryItem(ctx, added.ID)
	require.NoError(t, err)
	assert.Equal(t, 6.0, got.Quantity)
	assert.Equal(t, 12.0, got.OriginalQuantity)
	assert.Equal(t, "door", *got.Position)

	require.NoError(t, store.DeleteInventoryItem(ctx, added.ID))
	require.NoError(t, store.DeleteInventoryItem(ctx, added.ID), "delete must be idempotent")

	got, err = store.GetInventoryItem(ctx, added.ID)
	require.NoError(t, err)
	assert.Nil(t, got)

	all, err := store.GetInventoryItems(ctx)
	require.NoError(t, err)
	assert.Empty(t, all)
}

func TestInventory_Filters(t *testing.T) {
	ctx := context.Background()
	store := newSQLiteStore(t)

	day := time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)
	for i, name := range []string{"Whole Milk", "Oat milk", "Cheddar"} {
		from := day.AddDate(0, 0, i*10)
		_, err := store.AddInventoryItem(ctx, models.InventoryItem{
			Name: name, Quantity: 1, OriginalQuantity: 1, Unit: "pcs",
			Category: map[bool]string{true: "dairy", false: "plant"}[i != 1],
			DateFrom: &from,
		})
		require.NoError(t, err)
	}

	found, err := store.SearchInventory(ctx, "MILK")
	require.NoError(t, err)
	assert.Len(t, found, 2)

	none, err := store.SearchInventory(ctx, "%")
	require.NoError(t, err)
	assert.Empty(t, none, "LIKE wildcards are escaped")

	dairy, err := store.InventoryByCategory(ctx, "dairy")
	require.NoError(t, err)
	assert.Len(t, dairy, 2)

	ranged, err := store.InventoryByDateRange(ctx, day.AddDate(0, 0, 5), day.AddDate(0, 0, 25))
	require.NoError(t, err)
	require.Len(t, ranged, 2)
	assert.Equal(t, "Oat milk", ranged[0].Name)

	exact, err := store.FindInventoryItemByName(ctx, "Cheddar")
	require.NoError(t, err)
	require.NotNil(t, exact)
	assert.Equal(t, "Cheddar", exact.Name)

	missing, err := store.FindInventoryItemByName(ctx, "cheddar")
	require.NoError(t, err)
	assert.Nil(t, missing, "name lookup is exact")
}

func TestConsumeInventoryItem_Partial(t *testing.T) {
	ctx := context.Background()
	store := newSQLiteStore(t)

	item, err := store.AddInventoryItem(ctx, models.InventoryItem{Name: "Eggs", Quantity: 12, OriginalQuantity: 12, Unit: "pcs"})
	require.NoError(t, err)

	remaining, entry, err := store.ConsumeInventoryItem(ctx, item.ID, 5, models.ConsumptionHistory{
		Type: models.ConsumedFood, ItemID: &item.ID, ItemName: &item.Name, Quantity: 5, Unit: "pcs",
	})
	require.NoError(t, err)
	require.NotNil(t, remaining)
	assert.Equal(t, 7.0, remaining.Quantity)
	assert.NotEmpty(t, entry.ID)

	got, err := store.GetInventoryItem(ctx, item.ID)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, 7.0, got.Quantity)

	history, err := store.GetConsumptionHistory(ctx)
	require.NoError(t, err)
	require.Len(t, history, 1)
	assert.Equal(t, "Eggs", *history[0].ItemName)
}

func TestConsumeInventoryItem_Full(t *testing.T) {
	ctx := context.Background()
	store := newSQLiteStore(t)

	item, err := store.AddInventoryItem(ctx, models.InventoryItem{Name: "Eggs", Quantity: 12, OriginalQuantity: 12, Unit: "pcs"})
	require.NoError(t, err)

	remaining, _, err := store.ConsumeInventoryItem(ctx, item.ID, 12, models.ConsumptionHistory{
		Type: models.ConsumedFood, ItemName: &item.Name, Quantity: 12, Unit: "pcs",
	})
	require.NoError(t, err)
	assert.Nil(t, remaining)

	got, err := store.GetInventoryItem(ctx, item.ID)
	require.NoError(t, err)
	assert.Nil(t, got, "fully consumed item is deleted")

	history, err := store.GetConsumptionHistory(ctx)
	require.NoError(t, err)
	require.Len(t, history, 1)
	assert.Equal(t, 12.0, history[0].Quantity)
}

func TestConsumeInventoryItem_Missing(t *testing.T) {
	ctx := context.Background()
	store := newSQLiteStore(t)

	_, _, err := store.ConsumeInventoryItem(ctx, "ghost", 1, models.ConsumptionHistory{Type: models.ConsumedFood})
	assert.ErrorIs(t, err, ErrNotFound)

	history, err := store.GetConsumptionHistory(ctx)
	require.NoError(t, err)
	assert.Empty(t, history, "no history row without a consumed item")
}

func TestConsumeInventoryItem_CapsAtStock(t *testing.T) {
	ctx := context.Background()
	store := newSQLiteStore(t)

	item, err := store.AddInventoryItem(ctx, models.InventoryItem{Name: "Bread", Quantity: 3, OriginalQuantity: 3, Unit: "slices"})
	require.NoError(t, err)

	remaining, entry, err := store.ConsumeInventoryItem(ctx, item.ID, 10, models.ConsumptionHistory{Type: models.ConsumedFood})
	require.NoError(t, err)
	assert.Nil(t, remaining)
	assert.Equal(t, 3.0, entry.Quantity)
	assert.Equal(t, "slices", entry.Unit)
	require.NotNil(t, entry.ItemName)
	assert.Equal(t, "Bread", *entry.ItemName)
}
