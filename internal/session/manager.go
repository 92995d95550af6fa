// Package session tracks whether the application runs for a local guest or
// an authenticated account, and drives login, logout and the handoff of
// guest data to an account.
package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/atinyakov/foodsai/internal/models"
	"github.com/atinyakov/foodsai/internal/service"
)

// State is the lifecycle stage of the session.
type State string

const (
	Uninitialized       State = "uninitialized"
	GuestActive         State = "guest"
	Migrating           State = "migrating"
	AuthenticatedActive State = "authenticated"
	Cleared             State = "cleared"
)

// Keys of the persisted session state.
const (
	keyToken     = "auth_token"
	keyUser      = "user_info"
	keyGuestMode = "guest_mode"
)

// defaultTokenTTL applies to tokens that carry no expiry.
const defaultTokenTTL = 24 * time.Hour

// KeyValueStore persists small values with an optional time to live.
type KeyValueStore interface {
	SetValue(ctx context.Context, key, value string, ttl time.Duration) error
	GetValue(ctx context.Context, key string) (string, bool, error)
	DeleteValue(ctx context.Context, key string) error
}

// DataService is the part of the database facade the session drives.
type DataService interface {
	InitializeGuestMode(ctx context.Context, locale string) (models.GuestUser, error)
	ClearDBData(ctx context.Context) error
	MigrateToAuthenticatedUser(ctx context.Context, user models.AuthUser) (models.PendingMigration, error)
	ResumeMigration(ctx context.Context) (*models.PendingMigration, error)
}

// TokenSink receives the bearer token for remote calls.
type TokenSink interface {
	SetToken(token string)
}

// Status is a point-in-time view of the session.
type Status struct {
	State           State             `json:"state"`
	User            *models.AuthUser  `json:"user,omitempty"`
	Guest           *models.GuestUser `json:"guest,omitempty"`
	IsAuthenticated bool              `json:"isAuthenticated"`
	IsGuestMode     bool              `json:"isGuestMode"`
	ExpiresAt       *time.Time        `json:"expiresAt,omitempty"`
}

// Manager owns the session state. It is safe for concurrent use.
type Manager struct {
	kv         KeyValueStore
	data       DataService
	tokens     TokenSink
	log        *zap.Logger
	locale     string
	strategies map[string]Strategy

	mu    sync.RWMutex
	state State
	user  *models.AuthUser
	guest *models.GuestUser
	token models.AuthToken

	now func() time.Time
}

// NewManager constructs a Manager in the Uninitialized state. tokens may be
// nil. Unsupported strategies are not registered.
func NewManager(
	kv KeyValueStore,
	data DataService,
	tokens TokenSink,
	locale string,
	log *zap.Logger,
	strategies ...Strategy,
) *Manager {
	if log == nil {
		log = zap.NewNop()
	}
	m := &Manager{
		kv:         kv,
		data:       data,
		tokens:     tokens,
		log:        log,
		locale:     locale,
		strategies: make(map[string]Strategy),
		state:      Uninitialized,
		now:        time.Now,
	}
	for _, s := range strategies {
		if s.IsSupported() {
			m.strategies[s.Name()] = s
		}
	}
	return m
}

// Strategy returns the registered strategy called name.
func (m *Manager) Strategy(name string) (Strategy, bool) {
	s, ok := m.strategies[name]
	return s, ok
}

// Status returns the current session view.
func (m *Manager) Status() Status {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.status()
}

func (m *Manager) status() Status {
	st := Status{
		State:           m.state,
		IsAuthenticated: m.user != nil,
		IsGuestMode:     m.guest != nil,
	}
	if m.user != nil {
		u := *m.user
		st.User = &u
		if !m.token.ExpiresAt.IsZero() {
			exp := m.token.ExpiresAt
			st.ExpiresAt = &exp
		}
	}
	if m.guest != nil {
		g := *m.guest
		st.Guest = &g
	}
	return st
}

// CurrentUserID returns the id that owns local records: the guest id while
// guest mode is active, the account id otherwise.
func (m *Manager) CurrentUserID(context.Context) (string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	switch {
	case m.guest != nil:
		return m.guest.ID, nil
	case m.user != nil:
		return m.user.ID, nil
	default:
		return "", service.ErrNoSession
	}
}

// Restore rebuilds the session from persisted state: an unexpired token
// makes it authenticated, a guest flag re-enters guest mode.
func (m *Manager) Restore(ctx context.Context) (Status, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if err := m.restoreAuth(ctx); err != nil {
		return Status{}, err
	}
	guest, ok, err := m.kv.GetValue(ctx, keyGuestMode)
	if err != nil {
		return Status{}, err
	}
	if ok && guest == "true" {
		g, err := m.data.InitializeGuestMode(ctx, m.locale)
		if err != nil {
			return Status{}, err
		}
		m.guest = &g
		m.state = GuestActive
	} else if m.user != nil {
		m.state = AuthenticatedActive
	}
	m.log.Info("session restored", zap.String("state", string(m.state)))
	return m.status(), nil
}

func (m *Manager) restoreAuth(ctx context.Context) error {
	token, ok, err := m.kv.GetValue(ctx, keyToken)
	if err != nil || !ok {
		return err
	}
	exp, hasExp := TokenExpiry(token)
	if hasExp && !exp.After(m.now()) {
		m.log.Info("stored token expired", zap.Time("expiresAt", exp))
		return m.forgetAuth(ctx)
	}
	raw, ok, err := m.kv.GetValue(ctx, keyUser)
	if err != nil {
		return err
	}
	if !ok {
		return m.forgetAuth(ctx)
	}
	var u models.AuthUser
	if err := json.Unmarshal([]byte(raw), &u); err != nil {
		m.log.Warn("discarding unreadable user info", zap.Error(err))
		return m.forgetAuth(ctx)
	}
	m.user = &u
	m.token = models.AuthToken{Token: token}
	if hasExp {
		m.token.ExpiresAt = exp
	}
	m.setRemoteToken(token)
	return nil
}

// EnterGuestMode creates or reuses the local guest identity.
func (m *Manager) EnterGuestMode(ctx context.Context) (models.GuestUser, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	g, err := m.data.InitializeGuestMode(ctx, m.locale)
	if err != nil {
		return models.GuestUser{}, err
	}
	if err := m.kv.SetValue(ctx, keyGuestMode, "true", 0); err != nil {
		return models.GuestUser{}, err
	}
	m.guest = &g
	m.state = GuestActive
	m.log.Info("entered guest mode", zap.String("guest", g.ID))
	return g, nil
}

// ExitGuestMode deletes all guest data. The session ends up Cleared unless
// an account is logged in.
func (m *Manager) ExitGuestMode(ctx context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.guest == nil {
		return fmt.Errorf("not in guest mode: %w", service.ErrNoSession)
	}
	if err := m.data.ClearDBData(ctx); err != nil {
		return err
	}
	return m.endGuestLocked(ctx)
}

// ClearData deletes every local record. An active guest session ends with
// its data; an account session stays logged in.
func (m *Manager) ClearData(ctx context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if err := m.data.ClearDBData(ctx); err != nil {
		return err
	}
	if m.guest == nil {
		return nil
	}
	return m.endGuestLocked(ctx)
}

// endGuestLocked drops the guest flag after the guest data is gone. m.mu
// must be held.
func (m *Manager) endGuestLocked(ctx context.Context) error {
	if err := m.kv.DeleteValue(ctx, keyGuestMode); err != nil {
		return err
	}
	m.guest = nil
	m.state = Cleared
	if m.user != nil {
		m.state = AuthenticatedActive
	}
	m.log.Info("left guest mode")
	return nil
}

// Login starts a login with strategy.
func (m *Manager) Login(ctx context.Context, strategy Strategy, c Credentials) (Pending, error) {
	if strategy == nil || !strategy.IsSupported() {
		return Pending{}, ErrUnsupported
	}
	return strategy.Initiate(ctx, c)
}

// CompleteAuth finishes a login and persists the token and user. A guest
// session stays in guest mode until its data is migrated or discarded.
func (m *Manager) CompleteAuth(ctx context.Context, strategy Strategy, p Pending, code string) (models.AuthUser, error) {
	if strategy == nil || !strategy.IsSupported() {
		return models.AuthUser{}, ErrUnsupported
	}
	res, err := strategy.Complete(ctx, p, code)
	if err != nil {
		return models.AuthUser{}, err
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.rememberAuth(ctx, res); err != nil {
		return models.AuthUser{}, err
	}
	if m.guest == nil {
		m.state = AuthenticatedActive
	}
	m.log.Info("login completed", zap.String("strategy", strategy.Name()), zap.String("user", res.User.ID))
	return res.User, nil
}

// Logout forgets the account session. Guest data is kept.
func (m *Manager) Logout(ctx context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if err := m.forgetAuth(ctx); err != nil {
		return err
	}
	switch {
	case m.guest != nil:
		m.state = GuestActive
	case m.state == AuthenticatedActive:
		m.state = Uninitialized
	}
	m.log.Info("logged out")
	return nil
}

// MigrateToAuthenticatedUser hands the guest data over to user. A non-empty
// token is persisted first. On failure the session returns to guest mode
// with its data intact.
func (m *Manager) MigrateToAuthenticatedUser(ctx context.Context, user models.AuthUser, token models.AuthToken) (models.PendingMigration, error) {
	m.mu.Lock()
	if token.Token != "" {
		if err := m.rememberAuth(ctx, models.AuthResult{User: user, Token: token}); err != nil {
			m.mu.Unlock()
			return models.PendingMigration{}, err
		}
	}
	if m.user == nil {
		m.mu.Unlock()
		return models.PendingMigration{}, fmt.Errorf("migrate: %w", service.ErrNoSession)
	}
	if user.ID == "" {
		user = *m.user
	}
	prev := m.state
	m.state = Migrating
	m.mu.Unlock()

	mig, err := m.data.MigrateToAuthenticatedUser(ctx, user)

	m.mu.Lock()
	defer m.mu.Unlock()
	if err != nil {
		m.state = prev
		m.log.Warn("migration did not complete", zap.String("user", user.ID), zap.Error(err))
		return mig, err
	}
	if derr := m.kv.DeleteValue(ctx, keyGuestMode); derr != nil {
		m.log.Warn("failed to reset guest flag", zap.Error(derr))
	}
	m.guest = nil
	m.state = AuthenticatedActive
	m.log.Info("guest data migrated", zap.String("user", user.ID), zap.String("migration", mig.ID))
	return mig, nil
}

// ResumeMigration retries a staged handoff left over from an earlier run.
// Guest mode ends once the handoff completes. It returns nil when nothing
// was pending.
func (m *Manager) ResumeMigration(ctx context.Context) (*models.PendingMigration, error) {
	mig, err := m.data.ResumeMigration(ctx)
	if err != nil || mig == nil || mig.Status != models.MigrationCompleted {
		return mig, err
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if m.guest == nil {
		return mig, nil
	}
	if derr := m.kv.DeleteValue(ctx, keyGuestMode); derr != nil {
		m.log.Warn("failed to reset guest flag", zap.Error(derr))
	}
	m.guest = nil
	m.state = Cleared
	if m.user != nil {
		m.state = AuthenticatedActive
	}
	m.log.Info("resumed migration completed", zap.String("migration", mig.ID))
	return mig, nil
}

// rememberAuth persists res and makes it the active account. m.mu is held.
func (m *Manager) rememberAuth(ctx context.Context, res models.AuthResult) error {
	if res.Token.Token == "" {
		return errors.New("empty auth token")
	}
	exp := res.Token.ExpiresAt
	if exp.IsZero() {
		if jwtExp, ok := TokenExpiry(res.Token.Token); ok {
			exp = jwtExp
		} else {
			exp = m.now().Add(defaultTokenTTL)
		}
	}
	ttl := exp.Sub(m.now())
	if ttl <= 0 {
		return errors.New("auth token already expired")
	}

	raw, err := json.Marshal(res.User)
	if err != nil {
		return fmt.Errorf("encode user info: %w", err)
	}
	if err := m.kv.SetValue(ctx, keyToken, res.Token.Token, ttl); err != nil {
		return err
	}
	if err := m.kv.SetValue(ctx, keyUser, string(raw), ttl); err != nil {
		return err
	}
	u := res.User
	m.user = &u
	m.token = models.AuthToken{Token: res.Token.Token, ExpiresAt: exp}
	m.setRemoteToken(res.Token.Token)
	return nil
}

// forgetAuth drops the persisted account session. m.mu is held.
func (m *Manager) forgetAuth(ctx context.Context) error {
	if err := m.kv.DeleteValue(ctx, keyToken); err != nil {
		return err
	}
	if err := m.kv.DeleteValue(ctx, keyUser); err != nil {
		return err
	}
	m.user = nil
	m.token = models.AuthToken{}
	m.setRemoteToken("")
	return nil
}

func (m *Manager) setRemoteToken(token string) {
	if m.tokens != nil {
		m.tokens.SetToken(token)
	}
}
