package session_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/atinyakov/foodsai/internal/models"
	"github.com/atinyakov/foodsai/internal/service"
	"github.com/atinyakov/foodsai/internal/session"
)

type memKV struct {
	mu   sync.Mutex
	vals map[string]string
	ttls map[string]time.Duration
}

func newMemKV() *memKV {
	return &memKV{vals: map[string]string{}, ttls: map[string]time.Duration{}}
}

func (k *memKV) SetValue(_ context.Context, key, value string, ttl time.Duration) error {
	k.mu.Lock()
	defer k.mu.Unlock()
	k.vals[key] = value
	k.ttls[key] = ttl
	return nil
}

func (k *memKV) GetValue(_ context.Context, key string) (string, bool, error) {
	k.mu.Lock()
	defer k.mu.Unlock()
	v, ok := k.vals[key]
	return v, ok, nil
}

func (k *memKV) DeleteValue(_ context.Context, key string) error {
	k.mu.Lock()
	defer k.mu.Unlock()
	delete(k.vals, key)
	delete(k.ttls, key)
	return nil
}

type mockData struct {
	InitializeGuestModeFunc        func(ctx context.Context, locale string) (models.GuestUser, error)
	ClearDBDataFunc                func(ctx context.Context) error
	MigrateToAuthenticatedUserFunc func(ctx context.Context, user models.AuthUser) (models.PendingMigration, error)
	ResumeMigrationFunc            func(ctx context.Context) (*models.PendingMigration, error)
}

func (m *mockData) InitializeGuestMode(ctx context.Context, locale string) (models.GuestUser, error) {
	return m.InitializeGuestModeFunc(ctx, locale)
}
func (m *mockData) ClearDBData(ctx context.Context) error {
	return m.ClearDBDataFunc(ctx)
}
func (m *mockData) MigrateToAuthenticatedUser(ctx context.Context, user models.AuthUser) (models.PendingMigration, error) {
	return m.MigrateToAuthenticatedUserFunc(ctx, user)
}

func (m *mockData) ResumeMigration(ctx context.Context) (*models.PendingMigration, error) {
	return m.ResumeMigrationFunc(ctx)
}

func guestData() *mockData {
	return &mockData{
		InitializeGuestModeFunc: func(context.Context, string) (models.GuestUser, error) {
			return models.GuestUser{ID: "guest-1", Name: "Guest", IsGuest: true}, nil
		},
		ClearDBDataFunc: func(context.Context) error { return nil },
	}
}

type tokenRecorder struct {
	mu    sync.Mutex
	token string
}

func (r *tokenRecorder) SetToken(token string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.token = token
}

// staticStrategy completes every login with res.
type staticStrategy struct {
	res models.AuthResult
	err error
}

func (s staticStrategy) Name() string      { return "static" }
func (s staticStrategy) IsSupported() bool { return true }
func (s staticStrategy) Initiate(context.Context, session.Credentials) (session.Pending, error) {
	return session.Pending{Strategy: "static"}, nil
}
func (s staticStrategy) Complete(context.Context, session.Pending, string) (models.AuthResult, error) {
	return s.res, s.err
}

func signedToken(t *testing.T, exp time.Time) string {
	t.Helper()
	tok, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.RegisteredClaims{
		Subject:   "acct-1",
		ExpiresAt: jwt.NewNumericDate(exp),
	}).SignedString([]byte("remote-secret"))
	require.NoError(t, err)
	return tok
}

var account = models.AuthUser{ID: "acct-1", Email: "cook@example.com"}

func TestTokenExpiry(t *testing.T) {
	exp := time.Now().Add(time.Hour).Truncate(time.Second)
	got, ok := session.TokenExpiry(signedToken(t, exp))
	require.True(t, ok)
	assert.True(t, got.Equal(exp))

	_, ok = session.TokenExpiry("opaque-token")
	assert.False(t, ok)
}

func TestManager_GuestLifecycle(t *testing.T) {
	ctx := context.Background()
	kv := newMemKV()
	m := session.NewManager(kv, guestData(), nil, "en", nil)

	_, err := m.CurrentUserID(ctx)
	assert.ErrorIs(t, err, service.ErrNoSession)
	assert.Equal(t, session.Uninitialized, m.Status().State)

	g, err := m.EnterGuestMode(ctx)
	require.NoError(t, err)
	id, err := m.CurrentUserID(ctx)
	require.NoError(t, err)
	assert.Equal(t, g.ID, id)
	assert.Equal(t, session.GuestActive, m.Status().State)
	assert.True(t, m.Status().IsGuestMode)

	require.NoError(t, m.ExitGuestMode(ctx))
	assert.Equal(t, session.Cleared, m.Status().State)
	_, ok, _ := kv.GetValue(ctx, "guest_mode")
	assert.False(t, ok)

	assert.ErrorIs(t, m.ExitGuestMode(ctx), service.ErrNoSession)
}

func TestManager_ClearData(t *testing.T) {
	ctx := context.Background()
	kv := newMemKV()
	cleared := 0
	data := guestData()
	data.ClearDBDataFunc = func(context.Context) error {
		cleared++
		return nil
	}
	m := session.NewManager(kv, data, nil, "en", nil)

	_, err := m.EnterGuestMode(ctx)
	require.NoError(t, err)
	require.NoError(t, m.ClearData(ctx))
	assert.Equal(t, 1, cleared)

	st := m.Status()
	assert.Equal(t, session.Cleared, st.State)
	assert.False(t, st.IsGuestMode)
	_, ok, _ := kv.GetValue(ctx, "guest_mode")
	assert.False(t, ok)
	_, err = m.CurrentUserID(ctx)
	assert.ErrorIs(t, err, service.ErrNoSession)

	require.NoError(t, m.ClearData(ctx), "clearing without a guest only wipes the data")
	assert.Equal(t, 2, cleared)
	assert.Equal(t, session.Cleared, m.Status().State)
}

func TestManager_RestoreGuest(t *testing.T) {
	ctx := context.Background()
	kv := newMemKV()
	require.NoError(t, kv.SetValue(ctx, "guest_mode", "true", 0))

	m := session.NewManager(kv, guestData(), nil, "en", nil)
	st, err := m.Restore(ctx)
	require.NoError(t, err)
	assert.Equal(t, session.GuestActive, st.State)
	require.NotNil(t, st.Guest)
	assert.Equal(t, "guest-1", st.Guest.ID)
}

func TestManager_LoginAndRestore(t *testing.T) {
	ctx := context.Background()
	kv := newMemKV()
	tokens := &tokenRecorder{}
	exp := time.Now().Add(2 * time.Hour).Truncate(time.Second)
	tok := signedToken(t, exp)
	strategy := staticStrategy{res: models.AuthResult{User: account, Token: models.AuthToken{Token: tok}}}

	m := session.NewManager(kv, guestData(), tokens, "en", nil, strategy)
	s, ok := m.Strategy("static")
	require.True(t, ok)

	p, err := m.Login(ctx, s, session.Credentials{})
	require.NoError(t, err)
	user, err := m.CompleteAuth(ctx, s, p, "123456")
	require.NoError(t, err)
	assert.Equal(t, account, user)
	assert.Equal(t, session.AuthenticatedActive, m.Status().State)
	assert.Equal(t, tok, tokens.token)

	id, err := m.CurrentUserID(ctx)
	require.NoError(t, err)
	assert.Equal(t, "acct-1", id)

	ttl := kv.ttls["auth_token"]
	assert.InDelta(t, (2 * time.Hour).Seconds(), ttl.Seconds(), 5, "ttl follows the exp claim")

	restored := session.NewManager(kv, guestData(), nil, "en", nil)
	st, err := restored.Restore(ctx)
	require.NoError(t, err)
	assert.Equal(t, session.AuthenticatedActive, st.State)
	require.NotNil(t, st.User)
	assert.Equal(t, account, *st.User)
	require.NotNil(t, st.ExpiresAt)
	assert.True(t, st.ExpiresAt.Equal(exp))

	require.NoError(t, m.Logout(ctx))
	assert.Equal(t, session.Uninitialized, m.Status().State)
	assert.Empty(t, tokens.token)
	_, ok, _ = kv.GetValue(ctx, "auth_token")
	assert.False(t, ok)
}

func TestManager_RestoreDropsExpiredToken(t *testing.T) {
	ctx := context.Background()
	kv := newMemKV()
	require.NoError(t, kv.SetValue(ctx, "auth_token", signedToken(t, time.Now().Add(-time.Minute)), 0))
	require.NoError(t, kv.SetValue(ctx, "user_info", `{"id":"acct-1"}`, 0))

	m := session.NewManager(kv, guestData(), nil, "en", nil)
	st, err := m.Restore(ctx)
	require.NoError(t, err)
	assert.Equal(t, session.Uninitialized, st.State)
	_, ok, _ := kv.GetValue(ctx, "user_info")
	assert.False(t, ok)
}

func TestManager_CompleteAuthErrors(t *testing.T) {
	ctx := context.Background()
	m := session.NewManager(newMemKV(), guestData(), nil, "en", nil)

	_, err := m.CompleteAuth(ctx, staticStrategy{err: errors.New("bad code")}, session.Pending{}, "0")
	assert.EqualError(t, err, "bad code")

	_, err = m.CompleteAuth(ctx, staticStrategy{res: models.AuthResult{User: account}}, session.Pending{}, "0")
	assert.Error(t, err, "empty token is rejected")

	_, err = m.Login(ctx, nil, session.Credentials{})
	assert.ErrorIs(t, err, session.ErrUnsupported)
	assert.Equal(t, session.Uninitialized, m.Status().State)
}

func TestManager_Migrate(t *testing.T) {
	ctx := context.Background()
	kv := newMemKV()
	data := guestData()
	var migratedFor string
	data.MigrateToAuthenticatedUserFunc = func(_ context.Context, u models.AuthUser) (models.PendingMigration, error) {
		migratedFor = u.ID
		return models.PendingMigration{ID: "m-1", TargetUserID: u.ID, Status: models.MigrationCompleted}, nil
	}
	m := session.NewManager(kv, data, nil, "en", nil)

	_, err := m.EnterGuestMode(ctx)
	require.NoError(t, err)

	_, err = m.MigrateToAuthenticatedUser(ctx, account, models.AuthToken{})
	assert.ErrorIs(t, err, service.ErrNoSession, "no account to migrate to")

	token := models.AuthToken{Token: "opaque", ExpiresAt: time.Now().Add(time.Hour)}
	mig, err := m.MigrateToAuthenticatedUser(ctx, account, token)
	require.NoError(t, err)
	assert.Equal(t, "m-1", mig.ID)
	assert.Equal(t, "acct-1", migratedFor)

	st := m.Status()
	assert.Equal(t, session.AuthenticatedActive, st.State)
	assert.False(t, st.IsGuestMode)
	assert.True(t, st.IsAuthenticated)
	_, ok, _ := kv.GetValue(ctx, "guest_mode")
	assert.False(t, ok)
}

func TestManager_MigrateFailureReturnsToGuest(t *testing.T) {
	ctx := context.Background()
	data := guestData()
	data.MigrateToAuthenticatedUserFunc = func(context.Context, models.AuthUser) (models.PendingMigration, error) {
		return models.PendingMigration{ID: "m-1", Status: models.MigrationFailed}, errors.New("offline")
	}
	m := session.NewManager(newMemKV(), data, nil, "en", nil)
	_, err := m.EnterGuestMode(ctx)
	require.NoError(t, err)

	mig, err := m.MigrateToAuthenticatedUser(ctx, account, models.AuthToken{Token: "opaque", ExpiresAt: time.Now().Add(time.Hour)})
	require.Error(t, err)
	assert.Equal(t, models.MigrationFailed, mig.Status)

	st := m.Status()
	assert.Equal(t, session.GuestActive, st.State)
	assert.True(t, st.IsGuestMode)
	id, err := m.CurrentUserID(ctx)
	require.NoError(t, err)
	assert.Equal(t, "guest-1", id, "guest keeps owning local data")
}

func TestManager_ResumeMigration(t *testing.T) {
	ctx := context.Background()
	kv := newMemKV()
	data := guestData()
	var next *models.PendingMigration
	data.ResumeMigrationFunc = func(context.Context) (*models.PendingMigration, error) { return next, nil }
	m := session.NewManager(kv, data, nil, "en", nil)
	_, err := m.EnterGuestMode(ctx)
	require.NoError(t, err)

	got, err := m.ResumeMigration(ctx)
	require.NoError(t, err)
	assert.Nil(t, got)
	assert.Equal(t, session.GuestActive, m.Status().State)

	next = &models.PendingMigration{ID: "m-1", Status: models.MigrationFailed}
	_, err = m.ResumeMigration(ctx)
	require.NoError(t, err)
	assert.Equal(t, session.GuestActive, m.Status().State, "failed resume keeps guest mode")

	next = &models.PendingMigration{ID: "m-1", Status: models.MigrationCompleted}
	got, err = m.ResumeMigration(ctx)
	require.NoError(t, err)
	assert.Equal(t, "m-1", got.ID)
	assert.Equal(t, session.Cleared, m.Status().State)
	_, ok, _ := kv.GetValue(ctx, "guest_mode")
	assert.False(t, ok)
}
