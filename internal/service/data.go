package service

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/atinyakov/foodsai/internal/models"
)

// ExportData returns a snapshot of every local table.
func (s *Service) ExportData(ctx context.Context) (models.Snapshot, error) {
	return s.store.ExportAll(ctx)
}

// ImportData replaces every local table with snap. Nothing changes when the
// import fails. It is refused while a migration waits to be pushed.
func (s *Service) ImportData(ctx context.Context, snap models.Snapshot) error {
	done, err := s.beginWrite()
	if err != nil {
		return err
	}
	defer done()
	pending, err := s.store.GetPendingMigration(ctx)
	if err != nil {
		return err
	}
	if pending != nil {
		return fmt.Errorf("%w: %s", ErrMigrationPending, pending.ID)
	}
	if snap.Settings != nil {
		snap.Settings.ID = models.SettingsID
		if err := validate(*snap.Settings); err != nil {
			return err
		}
	}
	if err := s.store.ImportAll(ctx, snap); err != nil {
		s.log.Error("failed to import data", zap.Error(err))
		return err
	}
	s.iconsSeeded.Store(false)
	s.log.Info("data imported",
		zap.Int("items", len(snap.InventoryItems)),
		zap.Int("recipes", len(snap.Recipes)),
		zap.Int("categories", len(snap.Categories)))
	return nil
}

// BackupFileName returns the download name of an export made at t.
func BackupFileName(t time.Time) string {
	return "foodsai-backup-" + t.UTC().Format(time.DateOnly) + ".json"
}

// CreateBackup stores a snapshot of the local data in the backups table.
func (s *Service) CreateBackup(ctx context.Context) (models.Backup, error) {
	snap, err := s.store.ExportAll(ctx)
	if err != nil {
		return models.Backup{}, err
	}
	return s.store.SaveBackup(ctx, snap)
}

// LatestBackup returns the most recent automatic backup, or nil.
func (s *Service) LatestBackup(ctx context.Context) (*models.Backup, error) {
	return s.store.LatestBackup(ctx)
}

// BackupIfDue creates a backup when the configured backup frequency has
// elapsed since the latest one. It reports whether a backup was made.
func (s *Service) BackupIfDue(ctx context.Context) (bool, error) {
	st, err := s.GetSettings(ctx)
	if err != nil {
		return false, err
	}
	every := models.BackupInterval(st.BackupFrequency)
	if every == 0 {
		return false, nil
	}
	latest, err := s.store.LatestBackup(ctx)
	if err != nil {
		return false, err
	}
	if latest != nil && s.now().Sub(latest.CreateTime) < every {
		return false, nil
	}
	if _, err := s.CreateBackup(ctx); err != nil {
		return false, err
	}
	return true, nil
}

// StartAutoBackup checks every interval whether a backup is due, until ctx
// is cancelled.
func (s *Service) StartAutoBackup(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	go func() {
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				made, err := s.BackupIfDue(ctx)
				if err != nil {
					s.log.Error("automatic backup failed", zap.Error(err))
					continue
				}
				if made {
					s.log.Info("automatic backup created")
				}
			}
		}
	}()
}
