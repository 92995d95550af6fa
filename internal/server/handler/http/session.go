package http

import (
	"context"
	"net/http"

	"github.com/atinyakov/foodsai/internal/models"
	"github.com/atinyakov/foodsai/internal/session"
)

// SessionManager defines the session operations required by the
// SessionHandler.
type SessionManager interface {
	Status() session.Status
	EnterGuestMode(ctx context.Context) (models.GuestUser, error)
	ExitGuestMode(ctx context.Context) error
	Strategy(name string) (session.Strategy, bool)
	Login(ctx context.Context, s session.Strategy, c session.Credentials) (session.Pending, error)
	CompleteAuth(ctx context.Context, s session.Strategy, p session.Pending, code string) (models.AuthUser, error)
	Logout(ctx context.Context) error
	MigrateToAuthenticatedUser(ctx context.Context, user models.AuthUser, token models.AuthToken) (models.PendingMigration, error)
	ResumeMigration(ctx context.Context) (*models.PendingMigration, error)
}

// MigrationService defines the staged migration operations required by the
// SessionHandler.
type MigrationService interface {
	GetPendingMigration(ctx context.Context) (*models.PendingMigration, error)
	DiscardMigration(ctx context.Context) error
}

// SessionHandler handles guest mode, login and the guest data handoff.
type SessionHandler struct {
	Sessions   SessionManager
	Migrations MigrationService
}

// Status handles GET /api/session.
func (h *SessionHandler) Status(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.Sessions.Status())
}

// EnterGuest handles POST /api/session/guest.
func (h *SessionHandler) EnterGuest(w http.ResponseWriter, r *http.Request) {
	g, err := h.Sessions.EnterGuestMode(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, g)
}

// ExitGuest handles DELETE /api/session/guest. Guest data is deleted.
func (h *SessionHandler) ExitGuest(w http.ResponseWriter, r *http.Request) {
	if err := h.Sessions.ExitGuestMode(r.Context()); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// LoginRequest is the body of POST /api/session/login.
type LoginRequest struct {
	Strategy    string              `json:"strategy"`
	Credentials session.Credentials `json:"credentials"`
}

func (h *SessionHandler) strategy(w http.ResponseWriter, name string) (session.Strategy, bool) {
	s, ok := h.Sessions.Strategy(name)
	if !ok {
		http.Error(w, "unknown login strategy", http.StatusBadRequest)
	}
	return s, ok
}

// Login handles POST /api/session/login and returns the pending step.
func (h *SessionHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req LoginRequest
	if !decode(w, r, &req) {
		return
	}
	s, ok := h.strategy(w, req.Strategy)
	if !ok {
		return
	}
	p, err := h.Sessions.Login(r.Context(), s, req.Credentials)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, p)
}

// CompleteRequest is the body of POST /api/session/complete.
type CompleteRequest struct {
	Pending session.Pending `json:"pending"`
	Code    string          `json:"code"`
}

// Complete handles POST /api/session/complete.
func (h *SessionHandler) Complete(w http.ResponseWriter, r *http.Request) {
	var req CompleteRequest
	if !decode(w, r, &req) {
		return
	}
	s, ok := h.strategy(w, req.Pending.Strategy)
	if !ok {
		return
	}
	user, err := h.Sessions.CompleteAuth(r.Context(), s, req.Pending, req.Code)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, user)
}

// Logout handles POST /api/session/logout.
func (h *SessionHandler) Logout(w http.ResponseWriter, r *http.Request) {
	if err := h.Sessions.Logout(r.Context()); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// MigrateRequest is the body of POST /api/session/migrate. Both fields are
// optional when an account is already logged in.
type MigrateRequest struct {
	User  models.AuthUser  `json:"user"`
	Token models.AuthToken `json:"token"`
}

// MigrationFailure reports a handoff that was staged but not accepted.
type MigrationFailure struct {
	Migration models.PendingMigration `json:"migration"`
	Error     string                  `json:"error"`
}

// Migrate handles POST /api/session/migrate.
func (h *SessionHandler) Migrate(w http.ResponseWriter, r *http.Request) {
	var req MigrateRequest
	if r.ContentLength != 0 && !decode(w, r, &req) {
		return
	}
	m, err := h.Sessions.MigrateToAuthenticatedUser(r.Context(), req.User, req.Token)
	h.writeMigration(w, m, err)
}

func (h *SessionHandler) writeMigration(w http.ResponseWriter, m models.PendingMigration, err error) {
	switch {
	case err == nil:
		writeJSON(w, http.StatusOK, m)
	case m.ID != "" && m.Status == models.MigrationFailed:
		writeJSON(w, http.StatusBadGateway, MigrationFailure{Migration: m, Error: err.Error()})
	default:
		writeError(w, err)
	}
}

// Migration handles GET /api/session/migration.
func (h *SessionHandler) Migration(w http.ResponseWriter, r *http.Request) {
	m, err := h.Migrations.GetPendingMigration(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	if m == nil {
		http.Error(w, "no pending migration", http.StatusNotFound)
		return
	}
	writeJSON(w, http.StatusOK, m)
}

// ResumeMigration handles POST /api/session/migration/resume.
func (h *SessionHandler) ResumeMigration(w http.ResponseWriter, r *http.Request) {
	m, err := h.Sessions.ResumeMigration(r.Context())
	if m == nil && err == nil {
		http.Error(w, "no pending migration", http.StatusNotFound)
		return
	}
	var mig models.PendingMigration
	if m != nil {
		mig = *m
	}
	h.writeMigration(w, mig, err)
}

// DiscardMigration handles DELETE /api/session/migration.
func (h *SessionHandler) DiscardMigration(w http.ResponseWriter, r *http.Request) {
	if err := h.Migrations.DiscardMigration(r.Context()); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
