package service

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/atinyakov/foodsai/internal/models"
)

// ErrNoRemote is returned when a migration is pushed without a remote client.
var ErrNoRemote = errors.New("remote sync not configured")

// StageMigration exports the local data and persists it as a staged
// migration to user. Local data is not touched. A migration already staged
// for the same user is returned as is; its snapshot is refreshed before
// every push.
func (s *Service) StageMigration(ctx context.Context, user models.AuthUser) (models.PendingMigration, error) {
	s.migrateMu.Lock()
	defer s.migrateMu.Unlock()
	return s.stage(ctx, user)
}

func (s *Service) stage(ctx context.Context, user models.AuthUser) (models.PendingMigration, error) {
	if user.ID == "" {
		return models.PendingMigration{}, fmt.Errorf("%w: missing user id", ErrInvalidInput)
	}
	pending, err := s.store.GetPendingMigration(ctx)
	if err != nil {
		return models.PendingMigration{}, err
	}
	if pending != nil {
		if pending.TargetUserID != user.ID {
			return models.PendingMigration{}, fmt.Errorf("%w: staged for another account", ErrMigrationPending)
		}
		return *pending, nil
	}

	snap, err := s.store.ExportAll(ctx)
	if err != nil {
		return models.PendingMigration{}, err
	}
	m, err := s.store.StageMigration(ctx, user.ID, snap)
	if err != nil {
		return models.PendingMigration{}, err
	}
	s.log.Info("migration staged", zap.String("migration", m.ID), zap.String("user", user.ID),
		zap.Int("items", len(snap.InventoryItems)), zap.Int("recipes", len(snap.Recipes)))
	return m, nil
}

// MigrateToAuthenticatedUser hands the local data over to the account of
// user. The export is staged first and pushed to the remote; local data is
// cleared only after the remote acknowledged it. A failed push leaves the
// local data and the staged export in place and returns the error.
func (s *Service) MigrateToAuthenticatedUser(ctx context.Context, user models.AuthUser) (models.PendingMigration, error) {
	s.migrateMu.Lock()
	defer s.migrateMu.Unlock()

	m, err := s.stage(ctx, user)
	if err != nil {
		return models.PendingMigration{}, err
	}
	return s.advance(ctx, m)
}

// ResumeMigration continues an interrupted migration from the stage it
// reached. It returns nil when nothing is pending.
func (s *Service) ResumeMigration(ctx context.Context) (*models.PendingMigration, error) {
	s.migrateMu.Lock()
	defer s.migrateMu.Unlock()

	pending, err := s.store.GetPendingMigration(ctx)
	if err != nil || pending == nil {
		return nil, err
	}
	s.log.Info("resuming migration", zap.String("migration", pending.ID), zap.String("status", string(pending.Status)))
	m, err := s.advance(ctx, *pending)
	return &m, err
}

// GetPendingMigration returns the migration that has not completed yet, or nil.
func (s *Service) GetPendingMigration(ctx context.Context) (*models.PendingMigration, error) {
	return s.store.GetPendingMigration(ctx)
}

// DiscardMigration drops a staged migration that the remote has not
// acknowledged. Local data stays in place.
func (s *Service) DiscardMigration(ctx context.Context) error {
	s.migrateMu.Lock()
	defer s.migrateMu.Unlock()

	pending, err := s.store.GetPendingMigration(ctx)
	if err != nil || pending == nil {
		return err
	}
	if pending.Status == models.MigrationAcknowledged {
		return fmt.Errorf("%w: already acknowledged", ErrMigrationPending)
	}
	s.log.Info("migration discarded", zap.String("migration", pending.ID))
	return s.store.DeleteMigration(ctx, pending.ID)
}

// advance drives m from its current status to completion. Writes to local
// data are refused until it returns. A migration that was not acknowledged
// yet is exported again before the push, so the snapshot the remote accepts
// is exactly what gets cleared.
func (s *Service) advance(ctx context.Context, m models.PendingMigration) (models.PendingMigration, error) {
	log := s.log.With(zap.String("migration", m.ID))

	s.dataMu.Lock()
	defer s.dataMu.Unlock()

	if m.Status == models.MigrationStaged || m.Status == models.MigrationFailed {
		snap, err := s.store.ExportAll(ctx)
		if err != nil {
			return m, err
		}
		if err := s.store.RestageMigration(ctx, m.ID, snap); err != nil {
			return m, err
		}
		m.Snapshot = snap
		log.Debug("migration snapshot refreshed", zap.Int("items", len(snap.InventoryItems)),
			zap.Int("recipes", len(snap.Recipes)), zap.Int("attempt", m.Attempts+1))

		if err := s.push(ctx, m); err != nil {
			log.Warn("migration push failed", zap.Error(err))
			if uerr := s.store.UpdateMigrationStatus(ctx, m.ID, models.MigrationFailed, err.Error()); uerr != nil {
				return m, errors.Join(err, uerr)
			}
			m.Status = models.MigrationFailed
			m.Attempts++
			m.LastError = err.Error()
			return m, err
		}
		if err := s.store.UpdateMigrationStatus(ctx, m.ID, models.MigrationAcknowledged, ""); err != nil {
			return m, err
		}
		m.Status = models.MigrationAcknowledged
		m.LastError = ""
		log.Info("migration acknowledged")
	}

	if m.Status == models.MigrationAcknowledged {
		if err := s.store.ClearAll(ctx); err != nil {
			log.Error("failed to clear migrated data", zap.Error(err))
			return m, err
		}
		s.iconsSeeded.Store(false)
		if err := s.store.UpdateMigrationStatus(ctx, m.ID, models.MigrationCompleted, ""); err != nil {
			return m, err
		}
		m.Status = models.MigrationCompleted
		log.Info("migration completed")
	}
	return m, nil
}

func (s *Service) push(ctx context.Context, m models.PendingMigration) error {
	if s.remote == nil {
		return ErrNoRemote
	}
	ack, err := s.remote.PushMigration(ctx, m)
	if err != nil {
		return err
	}
	if !ack.Accepted {
		return errors.New("remote rejected the migration")
	}
	return nil
}
