package models

import "time"

// Snapshot is the full export of the local database. The JSON shape is the
// backup file format.
type Snapshot struct {
	User               *GuestUser           `json:"user"`
	InventoryItems     []InventoryItem      `json:"inventoryItems"`
	Recipes            []Recipe             `json:"recipes"`
	Settings           *UserSettings        `json:"settings"`
	Categories         []Category           `json:"categories,omitempty"`
	ConsumptionHistory []ConsumptionHistory `json:"consumptionHistory,omitempty"`
	CustomIcons        []CustomIcon         `json:"customIcons,omitempty"`
	ExportDate         time.Time            `json:"exportDate"`
}

// MigrationStatus is the stage a guest-to-account migration reached.
type MigrationStatus string

const (
	// MigrationStaged means the export is persisted locally and not yet accepted remotely.
	MigrationStaged MigrationStatus = "staged"
	// MigrationAcknowledged means the remote accepted the export; local data may be cleared.
	MigrationAcknowledged MigrationStatus = "acknowledged"
	// MigrationCompleted means local data was cleared after acknowledgment.
	MigrationCompleted MigrationStatus = "completed"
	// MigrationFailed means the last push attempt failed; local data is intact.
	MigrationFailed MigrationStatus = "failed"
)

// PendingMigration is a staged guest-to-account handoff.
type PendingMigration struct {
	ID           string          `json:"id"`
	TargetUserID string          `json:"targetUserId"`
	Snapshot     Snapshot        `json:"snapshot"`
	Status       MigrationStatus `json:"status"`
	Attempts     int             `json:"attempts"`
	LastError    string          `json:"lastError,omitempty"`
	CreateTime   time.Time       `json:"createTime"`
	UpdateTime   time.Time       `json:"updateTime"`
}

// Backup is an automatic snapshot kept in the local database.
type Backup struct {
	ID         string    `json:"id"`
	Snapshot   Snapshot  `json:"snapshot"`
	CreateTime time.Time `json:"createTime"`
}

// MigrationAck is the remote answer to a pushed migration.
type MigrationAck struct {
	Accepted    bool   `json:"accepted"`
	MigrationID string `json:"migrationId"`
}

// IconImportReport summarizes a best-effort icon import.
type IconImportReport struct {
	Imported int                 `json:"imported"`
	Skipped  []string            `json:"skipped"`
	Failed   []IconImportFailure `json:"failed"`
}

// IconImportFailure names an icon that could not be imported and why.
type IconImportFailure struct {
	Name  string `json:"name"`
	Error string `json:"error"`
}
