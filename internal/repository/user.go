package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/atinyakov/foodsai/internal/models"
)

// GetGuestUser returns the local identity, or nil before guest mode was
// initialized.
func (s *Store) GetGuestUser(ctx context.Context) (*models.GuestUser, error) {
	return getGuestUser(ctx, s.DB)
}

func getGuestUser(ctx context.Context, q querier) (*models.GuestUser, error) {
	var (
		u          models.GuestUser
		createTime int64
	)
	err := q.QueryRowContext(ctx, `
		SELECT id, name, is_guest, create_time FROM guest_users ORDER BY create_time LIMIT 1
	`).Scan(&u.ID, &u.Name, &u.IsGuest, &createTime)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("GetGuestUser: %w", err)
	}
	u.CreateTime = fromMillis(createTime)
	return &u, nil
}

// SaveGuestUser stores u as the single local identity, replacing any other.
func (s *Store) SaveGuestUser(ctx context.Context, u models.GuestUser) (models.GuestUser, error) {
	if u.ID == "" {
		u.ID = s.NewID()
	}
	if u.CreateTime.IsZero() {
		u.CreateTime = s.Now()
	}
	err := s.withTx(ctx, func(tx *sql.Tx) error {
		if _, err := tx.ExecContext(ctx, `DELETE FROM guest_users WHERE id <> ?`, u.ID); err != nil {
			return fmt.Errorf("replace guest user: %w", err)
		}
		return saveGuestUser(ctx, tx, u)
	})
	if err != nil {
		return models.GuestUser{}, err
	}
	return u, nil
}

func saveGuestUser(ctx context.Context, q querier, u models.GuestUser) error {
	_, err := q.ExecContext(ctx, `
		INSERT INTO guest_users (id, name, is_guest, create_time) VALUES (?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET name = excluded.name, is_guest = excluded.is_guest
	`, u.ID, u.Name, u.IsGuest, millis(u.CreateTime))
	if err != nil {
		return fmt.Errorf("save guest user: %w", err)
	}
	return nil
}

// DeleteGuestUsers removes the local identity.
func (s *Store) DeleteGuestUsers(ctx context.Context) error {
	if _, err := s.DB.ExecContext(ctx, `DELETE FROM guest_users`); err != nil {
		return fmt.Errorf("DeleteGuestUsers: %w", err)
	}
	return nil
}

// GetSettings returns the settings row, or nil when none was saved.
func (s *Store) GetSettings(ctx context.Context) (*models.UserSettings, error) {
	return getSettings(ctx, s.DB)
}

func getSettings(ctx context.Context, q querier) (*models.UserSettings, error) {
	var st models.UserSettings
	err := q.QueryRowContext(ctx, `
		SELECT id, storage_type, backup_frequency, theme, language FROM settings WHERE id = ?
	`, models.SettingsID).Scan(&st.ID, &st.StorageType, &st.BackupFrequency, &st.Theme, &st.Language)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("GetSettings: %w", err)
	}
	return &st, nil
}

// SaveSettings upserts the single settings row.
func (s *Store) SaveSettings(ctx context.Context, st models.UserSettings) error {
	return saveSettings(ctx, s.DB, st)
}

func saveSettings(ctx context.Context, q querier, st models.UserSettings) error {
	_, err := q.ExecContext(ctx, `
		INSERT INTO settings (id, storage_type, backup_frequency, theme, language)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			storage_type = excluded.storage_type,
			backup_frequency = excluded.backup_frequency,
			theme = excluded.theme,
			language = excluded.language
	`, models.SettingsID, st.StorageType, st.BackupFrequency, st.Theme, st.Language)
	if err != nil {
		return fmt.Errorf("SaveSettings: %w", err)
	}
	return nil
}
