package service

import (
	"context"

	"go.uber.org/zap"

	"github.com/atinyakov/foodsai/internal/models"
)

// guestName is the display name of a fresh guest identity.
const guestName = "Guest"

// InitializeGuestMode creates the local guest identity or reuses the one
// already stored, and makes sure settings and builtin icons exist.
func (s *Service) InitializeGuestMode(ctx context.Context, locale string) (models.GuestUser, error) {
	u, err := s.store.GetGuestUser(ctx)
	if err != nil {
		return models.GuestUser{}, err
	}
	if u == nil || !u.IsGuest {
		g := models.GuestUser{Name: guestName, IsGuest: true}
		if u != nil {
			g = *u
			g.IsGuest = true
		}
		saved, err := s.store.SaveGuestUser(ctx, g)
		if err != nil {
			return models.GuestUser{}, err
		}
		u = &saved
		s.log.Info("guest identity created", zap.String("id", u.ID))
	}

	st, err := s.store.GetSettings(ctx)
	if err != nil {
		return models.GuestUser{}, err
	}
	if st == nil {
		if err := s.store.SaveSettings(ctx, models.DefaultSettings(NormalizeLocale(locale))); err != nil {
			return models.GuestUser{}, err
		}
	}
	if err := s.seedBuiltinIcons(ctx); err != nil {
		return models.GuestUser{}, err
	}
	return *u, nil
}

// GetGuestUser returns the local identity, or nil before guest mode was
// initialized.
func (s *Service) GetGuestUser(ctx context.Context) (*models.GuestUser, error) {
	return s.store.GetGuestUser(ctx)
}

// ClearDBData deletes every local record including the guest identity. It is
// the terminal exit from guest mode.
func (s *Service) ClearDBData(ctx context.Context) error {
	done, err := s.beginWrite()
	if err != nil {
		return err
	}
	defer done()
	if err := s.store.ClearAll(ctx); err != nil {
		s.log.Error("failed to clear local data", zap.Error(err))
		return err
	}
	s.iconsSeeded.Store(false)
	s.log.Info("local data cleared")
	return nil
}

// GetSettings returns the stored settings, or the defaults when none were
// saved yet.
func (s *Service) GetSettings(ctx context.Context) (models.UserSettings, error) {
	st, err := s.store.GetSettings(ctx)
	if err != nil {
		return models.UserSettings{}, err
	}
	if st == nil {
		return models.DefaultSettings(fallbackLocale), nil
	}
	return *st, nil
}

// UpdateSettings replaces the settings row.
func (s *Service) UpdateSettings(ctx context.Context, st models.UserSettings) (models.UserSettings, error) {
	done, err := s.beginWrite()
	if err != nil {
		return models.UserSettings{}, err
	}
	defer done()
	st.ID = models.SettingsID
	if err := validate(st); err != nil {
		return models.UserSettings{}, err
	}
	if err := s.store.SaveSettings(ctx, st); err != nil {
		return models.UserSettings{}, err
	}
	return st, nil
}
