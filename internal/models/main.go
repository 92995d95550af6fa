// Package models defines the core data structures of the local food store:
// inventory items, categories, recipes, consumption history, custom icons,
// the guest identity and its settings.
package models

import "time"

// GuestUser is the local identity that owns every record while the
// application runs in guest mode. Exactly one row is expected to exist.
type GuestUser struct {
	// ID is the locally generated identifier of the guest.
	ID string `json:"id"`
	// Name is a display name for the guest.
	Name string `json:"name"`
	// IsGuest is false once the identity was handed off to an account.
	IsGuest bool `json:"isGuest"`
	// CreateTime is the moment the identity was created.
	CreateTime time.Time `json:"createTime"`
}

// SettingsID is the id of the single settings row.
const SettingsID = "default"

// UserSettings holds the preference defaults of the installation.
type UserSettings struct {
	ID              string `json:"id"`
	StorageType     string `json:"storageType" validate:"oneof=local cloud"`
	BackupFrequency string `json:"backupFrequency" validate:"oneof=never daily weekly monthly"`
	Theme           string `json:"theme" validate:"oneof=light dark system"`
	Language        string `json:"language" validate:"required"`
}

// DefaultSettings returns the settings a fresh installation starts with.
func DefaultSettings(language string) UserSettings {
	if language == "" {
		language = "en"
	}
	return UserSettings{
		ID:              SettingsID,
		StorageType:     "local",
		BackupFrequency: "weekly",
		Theme:           "system",
		Language:        language,
	}
}

// BackupInterval maps a backup frequency to the period between automatic
// backups. Zero means automatic backups are disabled.
func BackupInterval(frequency string) time.Duration {
	switch frequency {
	case "daily":
		return 24 * time.Hour
	case "weekly":
		return 7 * 24 * time.Hour
	case "monthly":
		return 30 * 24 * time.Hour
	default:
		return 0
	}
}

// AuthUser is the identity returned by the remote account service.
type AuthUser struct {
	ID    string `json:"id"`
	Email string `json:"email,omitempty"`
	Name  string `json:"name,omitempty"`
}

// AuthToken is a bearer token together with its expiry.
type AuthToken struct {
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expiresAt"`
}

// AuthResult is what a completed login yields.
type AuthResult struct {
	User  AuthUser  `json:"user"`
	Token AuthToken `json:"token"`
}
