package http

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/atinyakov/foodsai/internal/models"
)

// HistoryService defines the consumption history operations required by the
// HistoryHandler.
type HistoryService interface {
	AddConsumptionHistory(ctx context.Context, h models.ConsumptionHistory) (models.ConsumptionHistory, error)
	GetConsumptionHistoryEntry(ctx context.Context, id string) (*models.ConsumptionHistory, error)
	GetConsumptionHistory(ctx context.Context) ([]models.ConsumptionHistory, error)
	GetConsumptionByType(ctx context.Context, t models.ConsumptionType) ([]models.ConsumptionHistory, error)
	GetConsumptionByDateRange(ctx context.Context, start, end time.Time) ([]models.ConsumptionHistory, error)
	UpdateConsumptionHistory(ctx context.Context, id string, patch models.ConsumptionHistoryPatch) error
	DeleteConsumptionHistory(ctx context.Context, id string) error
}

// HistoryHandler handles HTTP requests for the consumption history.
type HistoryHandler struct {
	Service HistoryService
}

// List handles GET /api/history with optional type or from/to filters.
func (h *HistoryHandler) List(w http.ResponseWriter, r *http.Request) {
	from, to, ranged, err := timeRange(r)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	var entries []models.ConsumptionHistory
	switch t := r.URL.Query().Get("type"); {
	case t != "":
		entries, err = h.Service.GetConsumptionByType(r.Context(), models.ConsumptionType(t))
	case ranged:
		entries, err = h.Service.GetConsumptionByDateRange(r.Context(), from, to)
	default:
		entries, err = h.Service.GetConsumptionHistory(r.Context())
	}
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, entries)
}

// Create handles POST /api/history.
func (h *HistoryHandler) Create(w http.ResponseWriter, r *http.Request) {
	var entry models.ConsumptionHistory
	if !decode(w, r, &entry) {
		return
	}
	saved, err := h.Service.AddConsumptionHistory(r.Context(), entry)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, saved)
}

// Get handles GET /api/history/{id}.
func (h *HistoryHandler) Get(w http.ResponseWriter, r *http.Request) {
	entry, err := h.Service.GetConsumptionHistoryEntry(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, err)
		return
	}
	if entry == nil {
		http.Error(w, "entry not found", http.StatusNotFound)
		return
	}
	writeJSON(w, http.StatusOK, entry)
}

// Update handles PUT /api/history/{id}.
func (h *HistoryHandler) Update(w http.ResponseWriter, r *http.Request) {
	var patch models.ConsumptionHistoryPatch
	if !decode(w, r, &patch) {
		return
	}
	if err := h.Service.UpdateConsumptionHistory(r.Context(), chi.URLParam(r, "id"), patch); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// Delete handles DELETE /api/history/{id}.
func (h *HistoryHandler) Delete(w http.ResponseWriter, r *http.Request) {
	if err := h.Service.DeleteConsumptionHistory(r.Context(), chi.URLParam(r, "id")); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
