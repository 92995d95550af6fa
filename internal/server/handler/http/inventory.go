// Package http exposes the local store over a JSON API.
package http

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/atinyakov/foodsai/internal/models"
)

// InventoryService defines the inventory operations required by the
// InventoryHandler.
type InventoryService interface {
	AddInventoryItem(ctx context.Context, item models.InventoryItem) (models.InventoryItem, error)
	GetInventoryItem(ctx context.Context, id string) (*models.InventoryItem, error)
	GetInventoryItems(ctx context.Context) ([]models.InventoryItem, error)
	GetInventoryByCategory(ctx context.Context, category string) ([]models.InventoryItem, error)
	SearchInventory(ctx context.Context, query string) ([]models.InventoryItem, error)
	GetInventoryByDateRange(ctx context.Context, start, end time.Time) ([]models.InventoryItem, error)
	GetExpiringItems(ctx context.Context, days int) ([]models.InventoryItem, error)
	UpdateInventoryItem(ctx context.Context, id string, patch models.InventoryItemPatch) error
	DeleteInventoryItem(ctx context.Context, id string) error
	ConsumeInventoryItem(ctx context.Context, id string, quantity float64, notes *string) (*models.InventoryItem, models.ConsumptionHistory, error)
}

// InventoryHandler handles HTTP requests for inventory items.
type InventoryHandler struct {
	Service InventoryService
}

// List handles GET /api/inventory. At most one filter applies, checked in
// the order category, q, from/to.
func (h *InventoryHandler) List(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	q := r.URL.Query()
	from, to, ranged, err := timeRange(r)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	var items []models.InventoryItem
	switch {
	case q.Get("category") != "":
		items, err = h.Service.GetInventoryByCategory(ctx, q.Get("category"))
	case q.Get("q") != "":
		items, err = h.Service.SearchInventory(ctx, q.Get("q"))
	case ranged:
		items, err = h.Service.GetInventoryByDateRange(ctx, from, to)
	default:
		items, err = h.Service.GetInventoryItems(ctx)
	}
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, items)
}

// Expiring handles GET /api/inventory/expiring?days=N (default 7).
func (h *InventoryHandler) Expiring(w http.ResponseWriter, r *http.Request) {
	days, err := intParam(r, "days", 7)
	if err != nil || days < 0 {
		http.Error(w, "invalid days", http.StatusBadRequest)
		return
	}
	items, err := h.Service.GetExpiringItems(r.Context(), days)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, items)
}

// Create handles POST /api/inventory. An item whose name already exists is
// merged into it.
func (h *InventoryHandler) Create(w http.ResponseWriter, r *http.Request) {
	var item models.InventoryItem
	if !decode(w, r, &item) {
		return
	}
	saved, err := h.Service.AddInventoryItem(r.Context(), item)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, saved)
}

// Get handles GET /api/inventory/{id}.
func (h *InventoryHandler) Get(w http.ResponseWriter, r *http.Request) {
	item, err := h.Service.GetInventoryItem(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, err)
		return
	}
	if item == nil {
		http.Error(w, "item not found", http.StatusNotFound)
		return
	}
	writeJSON(w, http.StatusOK, item)
}

// Update handles PUT /api/inventory/{id}.
func (h *InventoryHandler) Update(w http.ResponseWriter, r *http.Request) {
	var patch models.InventoryItemPatch
	if !decode(w, r, &patch) {
		return
	}
	if err := h.Service.UpdateInventoryItem(r.Context(), chi.URLParam(r, "id"), patch); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// Delete handles DELETE /api/inventory/{id}.
func (h *InventoryHandler) Delete(w http.ResponseWriter, r *http.Request) {
	if err := h.Service.DeleteInventoryItem(r.Context(), chi.URLParam(r, "id")); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// ConsumeRequest is the body of POST /api/inventory/{id}/consume.
type ConsumeRequest struct {
	Quantity float64 `json:"quantity"`
	Notes    *string `json:"notes,omitempty"`
}

// ConsumeResponse reports what is left of the item (nil once used up) and
// the recorded history entry.
type ConsumeResponse struct {
	Remaining   *models.InventoryItem     `json:"remaining"`
	Consumption models.ConsumptionHistory `json:"consumption"`
}

// Consume handles POST /api/inventory/{id}/consume.
func (h *InventoryHandler) Consume(w http.ResponseWriter, r *http.Request) {
	var req ConsumeRequest
	if !decode(w, r, &req) {
		return
	}
	remaining, entry, err := h.Service.ConsumeInventoryItem(r.Context(), chi.URLParam(r, "id"), req.Quantity, req.Notes)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, ConsumeResponse{Remaining: remaining, Consumption: entry})
}
