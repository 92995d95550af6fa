package http

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/atinyakov/foodsai/internal/models"
)

// CategoryService defines the category operations required by the
// CategoryHandler.
type CategoryService interface {
	// GetCategories seeds the locale's defaults into an empty store and
	// returns every category by sort value.
	GetCategories(ctx context.Context, locale string) ([]models.Category, error)
	AddCategory(ctx context.Context, c models.Category) (models.Category, error)
	UpdateCategory(ctx context.Context, id string, patch models.CategoryPatch) error
	DeleteCategory(ctx context.Context, id string) error
	UpdateCategoryOrder(ctx context.Context, order []models.CategoryOrder) error
}

// CategoryHandler handles HTTP requests for categories.
type CategoryHandler struct {
	Service CategoryService
	// Locale is used when the request names none.
	Locale string
}

// List handles GET /api/categories?locale=.
func (h *CategoryHandler) List(w http.ResponseWriter, r *http.Request) {
	locale := r.URL.Query().Get("locale")
	if locale == "" {
		locale = h.Locale
	}
	cats, err := h.Service.GetCategories(r.Context(), locale)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, cats)
}

// Create handles POST /api/categories.
func (h *CategoryHandler) Create(w http.ResponseWriter, r *http.Request) {
	var c models.Category
	if !decode(w, r, &c) {
		return
	}
	saved, err := h.Service.AddCategory(r.Context(), c)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, saved)
}

// Update handles PUT /api/categories/{id}.
func (h *CategoryHandler) Update(w http.ResponseWriter, r *http.Request) {
	var patch models.CategoryPatch
	if !decode(w, r, &patch) {
		return
	}
	if err := h.Service.UpdateCategory(r.Context(), chi.URLParam(r, "id"), patch); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// Delete handles DELETE /api/categories/{id}.
func (h *CategoryHandler) Delete(w http.ResponseWriter, r *http.Request) {
	if err := h.Service.DeleteCategory(r.Context(), chi.URLParam(r, "id")); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// Reorder handles PUT /api/categories/order. The whole order is applied or
// nothing is.
func (h *CategoryHandler) Reorder(w http.ResponseWriter, r *http.Request) {
	var order []models.CategoryOrder
	if !decode(w, r, &order) {
		return
	}
	if err := h.Service.UpdateCategoryOrder(r.Context(), order); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
