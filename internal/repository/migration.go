package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/atinyakov/foodsai/internal/models"
)

// StageMigration persists a staged handoff of snap to targetUserID.
func (s *Store) StageMigration(ctx context.Context, targetUserID string, snap models.Snapshot) (models.PendingMigration, error) {
	raw, err := json.Marshal(snap)
	if err != nil {
		return models.PendingMigration{}, fmt.Errorf("encode snapshot: %w", err)
	}
	now := s.Now()
	m := models.PendingMigration{
		ID:           s.NewID(),
		TargetUserID: targetUserID,
		Snapshot:     snap,
		Status:       models.MigrationStaged,
		CreateTime:   now,
		UpdateTime:   now,
	}
	_, err = s.DB.ExecContext(ctx, `
		INSERT INTO pending_migrations (id, target_user_id, snapshot, status, attempts, last_error, create_time, update_time)
		VALUES (?, ?, ?, ?, 0, '', ?, ?)
	`, m.ID, m.TargetUserID, string(raw), string(m.Status), millis(now), millis(now))
	if err != nil {
		return models.PendingMigration{}, fmt.Errorf("StageMigration: %w", err)
	}
	return m, nil
}

// GetPendingMigration returns the most recent migration that has not
// completed, or nil.
func (s *Store) GetPendingMigration(ctx context.Context) (*models.PendingMigration, error) {
	var (
		m                      models.PendingMigration
		raw                    string
		createTime, updateTime int64
	)
	err := s.DB.QueryRowContext(ctx, `
		SELECT id, target_user_id, snapshot, status, attempts, last_error, create_time, update_time
		FROM pending_migrations WHERE status <> ? ORDER BY create_time DESC LIMIT 1
	`, string(models.MigrationCompleted)).Scan(&m.ID, &m.TargetUserID, &raw, &m.Status, &m.Attempts,
		&m.LastError, &createTime, &updateTime)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("GetPendingMigration: %w", err)
	}
	if err := json.Unmarshal([]byte(raw), &m.Snapshot); err != nil {
		return nil, fmt.Errorf("decode staged snapshot: %w", err)
	}
	m.CreateTime = fromMillis(createTime)
	m.UpdateTime = fromMillis(updateTime)
	return &m, nil
}

// RestageMigration replaces the staged snapshot of migration id with snap.
func (s *Store) RestageMigration(ctx context.Context, id string, snap models.Snapshot) error {
	raw, err := json.Marshal(snap)
	if err != nil {
		return fmt.Errorf("encode snapshot: %w", err)
	}
	var l setList
	l.add("snapshot", string(raw))
	l.add("update_time", millis(s.Now()))
	if err := l.exec(ctx, s.DB, "pending_migrations", id); err != nil {
		return fmt.Errorf("RestageMigration: %w", err)
	}
	return nil
}

// UpdateMigrationStatus records a new status for migration id. A failed
// attempt increments the attempt counter and keeps lastErr.
func (s *Store) UpdateMigrationStatus(ctx context.Context, id string, status models.MigrationStatus, lastErr string) error {
	var l setList
	l.add("status", string(status))
	l.add("last_error", lastErr)
	if status == models.MigrationFailed {
		l.cols = append(l.cols, "attempts = attempts + 1")
	}
	l.add("update_time", millis(s.Now()))
	return l.exec(ctx, s.DB, "pending_migrations", id)
}

// DeleteMigration drops migration id together with its staged snapshot.
func (s *Store) DeleteMigration(ctx context.Context, id string) error {
	if _, err := s.DB.ExecContext(ctx, `DELETE FROM pending_migrations WHERE id = ?`, id); err != nil {
		return fmt.Errorf("DeleteMigration: %w", err)
	}
	return nil
}

// SaveBackup stores snap as an automatic backup.
func (s *Store) SaveBackup(ctx context.Context, snap models.Snapshot) (models.Backup, error) {
	raw, err := json.Marshal(snap)
	if err != nil {
		return models.Backup{}, fmt.Errorf("encode backup: %w", err)
	}
	b := models.Backup{ID: s.NewID(), Snapshot: snap, CreateTime: s.Now()}
	_, err = s.DB.ExecContext(ctx, `INSERT INTO backups (id, snapshot, create_time) VALUES (?, ?, ?)`,
		b.ID, string(raw), millis(b.CreateTime))
	if err != nil {
		return models.Backup{}, fmt.Errorf("SaveBackup: %w", err)
	}
	return b, nil
}

// LatestBackup returns the most recent backup, or nil.
func (s *Store) LatestBackup(ctx context.Context) (*models.Backup, error) {
	var (
		b          models.Backup
		raw        string
		createTime int64
	)
	err := s.DB.QueryRowContext(ctx, `
		SELECT id, snapshot, create_time FROM backups ORDER BY create_time DESC LIMIT 1
	`).Scan(&b.ID, &raw, &createTime)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("LatestBackup: %w", err)
	}
	if err := json.Unmarshal([]byte(raw), &b.Snapshot); err != nil {
		return nil, fmt.Errorf("decode backup: %w", err)
	}
	b.CreateTime = fromMillis(createTime)
	return &b, nil
}
