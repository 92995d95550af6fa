package service

import (
	"context"
	"errors"
	"time"

	"github.com/atinyakov/foodsai/internal/models"
	"github.com/atinyakov/foodsai/internal/repository"
)

// InventoryStore persists inventory items.
type InventoryStore interface {
	AddInventoryItem(ctx context.Context, item models.InventoryItem) (models.InventoryItem, error)
	GetInventoryItem(ctx context.Context, id string) (*models.InventoryItem, error)
	GetInventoryItems(ctx context.Context) ([]models.InventoryItem, error)
	FindInventoryItemByName(ctx context.Context, name string) (*models.InventoryItem, error)
	InventoryByCategory(ctx context.Context, category string) ([]models.InventoryItem, error)
	InventoryByDateRange(ctx context.Context, start, end time.Time) ([]models.InventoryItem, error)
	SearchInventory(ctx context.Context, sub string) ([]models.InventoryItem, error)
	UpdateInventoryItem(ctx context.Context, id string, p models.InventoryItemPatch) error
	DeleteInventoryItem(ctx context.Context, id string) error
	// ConsumeInventoryItem decrements or deletes the item and records entry atomically.
	ConsumeInventoryItem(ctx context.Context, id string, quantity float64, entry models.ConsumptionHistory) (*models.InventoryItem, models.ConsumptionHistory, error)
}

// CategoryStore persists categories.
type CategoryStore interface {
	GetCategories(ctx context.Context) ([]models.Category, error)
	GetCategory(ctx context.Context, id string) (*models.Category, error)
	MaxCategorySortValue(ctx context.Context) (int, error)
	AddCategory(ctx context.Context, c models.Category) (models.Category, error)
	UpdateCategory(ctx context.Context, id string, p models.CategoryPatch) error
	DeleteCategory(ctx context.Context, id string) error
	ReorderCategories(ctx context.Context, order []models.CategoryOrder) error
	SeedCategories(ctx context.Context, defaults []models.Category) (bool, error)
}

// RecipeStore persists recipes.
type RecipeStore interface {
	AddRecipe(ctx context.Context, r models.Recipe) (models.Recipe, error)
	GetRecipe(ctx context.Context, id string) (*models.Recipe, error)
	GetRecipes(ctx context.Context) ([]models.Recipe, error)
	SearchRecipes(ctx context.Context, sub string) ([]models.Recipe, error)
	RecipesByTag(ctx context.Context, tag string) ([]models.Recipe, error)
	UpdateRecipe(ctx context.Context, id string, p models.RecipePatch) error
	DeleteRecipe(ctx context.Context, id string) error
}

// ConsumptionStore persists the consumption history.
type ConsumptionStore interface {
	AddConsumptionHistory(ctx context.Context, h models.ConsumptionHistory) (models.ConsumptionHistory, error)
	GetConsumptionHistoryEntry(ctx context.Context, id string) (*models.ConsumptionHistory, error)
	GetConsumptionHistory(ctx context.Context) ([]models.ConsumptionHistory, error)
	ConsumptionByType(ctx context.Context, t models.ConsumptionType) ([]models.ConsumptionHistory, error)
	ConsumptionByDateRange(ctx context.Context, start, end time.Time) ([]models.ConsumptionHistory, error)
	UpdateConsumptionHistory(ctx context.Context, id string, p models.ConsumptionHistoryPatch) error
	DeleteConsumptionHistory(ctx context.Context, id string) error
}

// IconStore persists custom and builtin icons.
type IconStore interface {
	AddCustomIcon(ctx context.Context, icon models.CustomIcon) (models.CustomIcon, error)
	SeedBuiltinIcons(ctx context.Context, icons []models.CustomIcon) error
	GetCustomIcon(ctx context.Context, id string) (*models.CustomIcon, error)
	GetCustomIcons(ctx context.Context) ([]models.CustomIcon, error)
	IconsByCategory(ctx context.Context, category string) ([]models.CustomIcon, error)
	FindCustomIconByName(ctx context.Context, name string) (*models.CustomIcon, error)
	UpdateCustomIcon(ctx context.Context, id string, p models.CustomIconPatch) error
	DeleteCustomIcon(ctx context.Context, id string) error
}

// IdentityStore persists the guest identity and the settings row.
type IdentityStore interface {
	GetGuestUser(ctx context.Context) (*models.GuestUser, error)
	SaveGuestUser(ctx context.Context, u models.GuestUser) (models.GuestUser, error)
	DeleteGuestUsers(ctx context.Context) error
	GetSettings(ctx context.Context) (*models.UserSettings, error)
	SaveSettings(ctx context.Context, st models.UserSettings) error
}

// SnapshotStore exports, imports and clears the whole database, and keeps
// staged migrations and backups.
type SnapshotStore interface {
	ExportAll(ctx context.Context) (models.Snapshot, error)
	ImportAll(ctx context.Context, snap models.Snapshot) error
	ClearAll(ctx context.Context) error
	StageMigration(ctx context.Context, targetUserID string, snap models.Snapshot) (models.PendingMigration, error)
	GetPendingMigration(ctx context.Context) (*models.PendingMigration, error)
	RestageMigration(ctx context.Context, id string, snap models.Snapshot) error
	UpdateMigrationStatus(ctx context.Context, id string, status models.MigrationStatus, lastErr string) error
	DeleteMigration(ctx context.Context, id string) error
	SaveBackup(ctx context.Context, snap models.Snapshot) (models.Backup, error)
	LatestBackup(ctx context.Context) (*models.Backup, error)
}

// Store is everything the facade needs from the local database. It is
// satisfied by *repository.Store.
type Store interface {
	InventoryStore
	CategoryStore
	RecipeStore
	ConsumptionStore
	IconStore
	IdentityStore
	SnapshotStore
}

var _ Store = (*repository.Store)(nil)

func isStoreNotFound(err error) bool {
	return errors.Is(err, repository.ErrNotFound)
}
