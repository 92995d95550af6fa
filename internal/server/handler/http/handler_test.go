package http_test

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/atinyakov/foodsai/internal/models"
	handler "github.com/atinyakov/foodsai/internal/server/handler/http"
	"github.com/atinyakov/foodsai/internal/service"
	"github.com/atinyakov/foodsai/internal/session"
)

// fakeInventoryService embeds the interface; calling a method without a
// func field panics.
type fakeInventoryService struct {
	handler.InventoryService
	GetFunc        func(ctx context.Context, id string) (*models.InventoryItem, error)
	ByCategoryFunc func(ctx context.Context, category string) ([]models.InventoryItem, error)
	ByRangeFunc    func(ctx context.Context, start, end time.Time) ([]models.InventoryItem, error)
	ExpiringFunc   func(ctx context.Context, days int) ([]models.InventoryItem, error)
	ConsumeFunc    func(ctx context.Context, id string, quantity float64, notes *string) (*models.InventoryItem, models.ConsumptionHistory, error)
}

func (f *fakeInventoryService) GetInventoryItem(ctx context.Context, id string) (*models.InventoryItem, error) {
	return f.GetFunc(ctx, id)
}

func (f *fakeInventoryService) GetInventoryByCategory(ctx context.Context, c string) ([]models.InventoryItem, error) {
	return f.ByCategoryFunc(ctx, c)
}

func (f *fakeInventoryService) GetInventoryByDateRange(ctx context.Context, start, end time.Time) ([]models.InventoryItem, error) {
	return f.ByRangeFunc(ctx, start, end)
}

func (f *fakeInventoryService) GetExpiringItems(ctx context.Context, days int) ([]models.InventoryItem, error) {
	return f.ExpiringFunc(ctx, days)
}

func (f *fakeInventoryService) ConsumeInventoryItem(ctx context.Context, id string, q float64, notes *string) (*models.InventoryItem, models.ConsumptionHistory, error) {
	return f.ConsumeFunc(ctx, id, q, notes)
}

func inventoryRouter(svc handler.InventoryService) http.Handler {
	h := &handler.InventoryHandler{Service: svc}
	r := chi.NewRouter()
	r.Get("/inventory", h.List)
	r.Get("/inventory/expiring", h.Expiring)
	r.Get("/inventory/{id}", h.Get)
	r.Post("/inventory/{id}/consume", h.Consume)
	return r
}

func serve(h http.Handler, method, target, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, target, strings.NewReader(body))
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)
	return w
}

func TestInventoryHandler_Get(t *testing.T) {
	svc := &fakeInventoryService{GetFunc: func(_ context.Context, id string) (*models.InventoryItem, error) {
		switch id {
		case "i1":
			return &models.InventoryItem{ID: "i1", Name: "Milk"}, nil
		case "boom":
			return nil, errors.New("disk on fire")
		}
		return nil, nil
	}}
	r := inventoryRouter(svc)

	w := serve(r, http.MethodGet, "/inventory/i1", "")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "application/json", w.Header().Get("Content-Type"))
	var got models.InventoryItem
	require.NoError(t, json.NewDecoder(w.Body).Decode(&got))
	assert.Equal(t, "Milk", got.Name)

	assert.Equal(t, http.StatusNotFound, serve(r, http.MethodGet, "/inventory/nope", "").Code)

	w = serve(r, http.MethodGet, "/inventory/boom", "")
	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.NotContains(t, w.Body.String(), "disk on fire")
}

func TestInventoryHandler_ListFilters(t *testing.T) {
	var gotCategory string
	var gotFrom, gotTo time.Time
	svc := &fakeInventoryService{
		ByCategoryFunc: func(_ context.Context, c string) ([]models.InventoryItem, error) {
			gotCategory = c
			return []models.InventoryItem{}, nil
		},
		ByRangeFunc: func(_ context.Context, start, end time.Time) ([]models.InventoryItem, error) {
			gotFrom, gotTo = start, end
			return nil, fmt.Errorf("%w: end before start", service.ErrInvalidInput)
		},
	}
	r := inventoryRouter(svc)

	w := serve(r, http.MethodGet, "/inventory?category=3", "")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "3", gotCategory)
	assert.JSONEq(t, `[]`, w.Body.String())

	w = serve(r, http.MethodGet, "/inventory?from=2024-05-02T00:00:00Z&to=2024-05-01T00:00:00Z", "")
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, 2024, gotFrom.Year())
	assert.True(t, gotTo.Before(gotFrom))

	assert.Equal(t, http.StatusBadRequest, serve(r, http.MethodGet, "/inventory?from=yesterday&to=today", "").Code)
	assert.Equal(t, http.StatusBadRequest, serve(r, http.MethodGet, "/inventory?from=2024-05-02T00:00:00Z", "").Code)
}

func TestInventoryHandler_Expiring(t *testing.T) {
	var gotDays int
	svc := &fakeInventoryService{ExpiringFunc: func(_ context.Context, days int) ([]models.InventoryItem, error) {
		gotDays = days
		return []models.InventoryItem{}, nil
	}}
	r := inventoryRouter(svc)

	assert.Equal(t, http.StatusOK, serve(r, http.MethodGet, "/inventory/expiring", "").Code)
	assert.Equal(t, 7, gotDays)
	assert.Equal(t, http.StatusOK, serve(r, http.MethodGet, "/inventory/expiring?days=3", "").Code)
	assert.Equal(t, 3, gotDays)
	assert.Equal(t, http.StatusBadRequest, serve(r, http.MethodGet, "/inventory/expiring?days=-1", "").Code)
}

func TestInventoryHandler_Consume(t *testing.T) {
	tests := []struct {
		name     string
		body     string
		err      error
		wantCode int
	}{
		{name: "bad json", body: "not-a-json", wantCode: http.StatusBadRequest},
		{name: "invalid quantity", body: `{"quantity":0}`, err: service.ErrInvalidInput, wantCode: http.StatusBadRequest},
		{name: "missing item", body: `{"quantity":1}`, err: service.ErrNotFound, wantCode: http.StatusNotFound},
		{name: "ok", body: `{"quantity":2,"notes":"breakfast"}`, wantCode: http.StatusOK},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var gotNotes *string
			svc := &fakeInventoryService{ConsumeFunc: func(_ context.Context, id string, q float64, notes *string) (*models.InventoryItem, models.ConsumptionHistory, error) {
				gotNotes = notes
				if tt.err != nil {
					return nil, models.ConsumptionHistory{}, tt.err
				}
				return &models.InventoryItem{ID: id, Quantity: 10 - q}, models.ConsumptionHistory{Quantity: q}, nil
			}}
			w := serve(inventoryRouter(svc), http.MethodPost, "/inventory/i1/consume", tt.body)
			assert.Equal(t, tt.wantCode, w.Code)
			if tt.wantCode != http.StatusOK {
				return
			}
			var resp handler.ConsumeResponse
			require.NoError(t, json.NewDecoder(w.Body).Decode(&resp))
			require.NotNil(t, resp.Remaining)
			assert.Equal(t, 8.0, resp.Remaining.Quantity)
			assert.Equal(t, 2.0, resp.Consumption.Quantity)
			require.NotNil(t, gotNotes)
			assert.Equal(t, "breakfast", *gotNotes)
		})
	}
}

type fakeDataService struct {
	handler.DataService
	snap      models.Snapshot
	importErr error
	imported  *models.Snapshot
}

func (f *fakeDataService) ExportData(context.Context) (models.Snapshot, error) { return f.snap, nil }

func (f *fakeDataService) ImportData(_ context.Context, s models.Snapshot) error {
	f.imported = &s
	return f.importErr
}

func TestDataHandler_Export(t *testing.T) {
	h := &handler.DataHandler{Service: &fakeDataService{snap: models.Snapshot{
		ExportDate: time.Date(2024, 5, 17, 10, 30, 0, 0, time.UTC),
		Recipes:    []models.Recipe{{ID: "r1", Name: "Omelette"}},
	}}}
	w := httptest.NewRecorder()
	h.Export(w, httptest.NewRequest(http.MethodGet, "/api/export", nil))

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, `attachment; filename="foodsai-backup-2024-05-17.json"`, w.Header().Get("Content-Disposition"))
	var snap models.Snapshot
	require.NoError(t, json.NewDecoder(w.Body).Decode(&snap))
	assert.Equal(t, "Omelette", snap.Recipes[0].Name)
}

func TestDataHandler_Import(t *testing.T) {
	svc := &fakeDataService{importErr: fmt.Errorf("import: %w", service.ErrMigrationPending)}
	h := &handler.DataHandler{Service: svc}

	w := httptest.NewRecorder()
	h.Import(w, httptest.NewRequest(http.MethodPost, "/api/import", bytes.NewBufferString(`{"recipes":[{"id":"r1","name":"Soup"}]}`)))
	assert.Equal(t, http.StatusConflict, w.Code)
	require.NotNil(t, svc.imported)
	assert.Equal(t, "Soup", svc.imported.Recipes[0].Name)

	svc.importErr = nil
	w = httptest.NewRecorder()
	h.Import(w, httptest.NewRequest(http.MethodPost, "/api/import", bytes.NewBufferString(`{}`)))
	assert.Equal(t, http.StatusNoContent, w.Code)
}

type fakeSessions struct {
	handler.SessionManager
	strategies map[string]session.Strategy
	migrate    func(ctx context.Context, user models.AuthUser, token models.AuthToken) (models.PendingMigration, error)
}

func (f *fakeSessions) Strategy(name string) (session.Strategy, bool) {
	s, ok := f.strategies[name]
	return s, ok
}

func (f *fakeSessions) MigrateToAuthenticatedUser(ctx context.Context, u models.AuthUser, tok models.AuthToken) (models.PendingMigration, error) {
	return f.migrate(ctx, u, tok)
}

func TestSessionHandler_UnknownStrategy(t *testing.T) {
	h := &handler.SessionHandler{Sessions: &fakeSessions{}}
	w := httptest.NewRecorder()
	h.Login(w, httptest.NewRequest(http.MethodPost, "/api/session/login", bytes.NewBufferString(`{"strategy":"carrier-pigeon"}`)))
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), "unknown login strategy")
}

func TestSessionHandler_Migrate(t *testing.T) {
	var gotUser models.AuthUser
	sessions := &fakeSessions{migrate: func(_ context.Context, u models.AuthUser, _ models.AuthToken) (models.PendingMigration, error) {
		gotUser = u
		if u.ID == "offline" {
			return models.PendingMigration{ID: "m-1", Status: models.MigrationFailed, Attempts: 1}, errors.New("dial tcp: refused")
		}
		if u.ID == "" {
			return models.PendingMigration{}, fmt.Errorf("migrate: %w", service.ErrNoSession)
		}
		return models.PendingMigration{ID: "m-2", Status: models.MigrationCompleted}, nil
	}}
	h := &handler.SessionHandler{Sessions: sessions}

	w := httptest.NewRecorder()
	h.Migrate(w, httptest.NewRequest(http.MethodPost, "/api/session/migrate", bytes.NewBufferString(`{"user":{"id":"acct-1"}}`)))
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "acct-1", gotUser.ID)

	w = httptest.NewRecorder()
	h.Migrate(w, httptest.NewRequest(http.MethodPost, "/api/session/migrate", bytes.NewBufferString(`{"user":{"id":"offline"}}`)))
	assert.Equal(t, http.StatusBadGateway, w.Code)
	var failure handler.MigrationFailure
	require.NoError(t, json.NewDecoder(w.Body).Decode(&failure))
	assert.Equal(t, models.MigrationFailed, failure.Migration.Status)
	assert.Contains(t, failure.Error, "refused")

	w = httptest.NewRecorder()
	h.Migrate(w, httptest.NewRequest(http.MethodPost, "/api/session/migrate", nil))
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}
