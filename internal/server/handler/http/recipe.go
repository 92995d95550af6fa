package http

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/atinyakov/foodsai/internal/models"
)

// RecipeService defines the recipe operations required by the RecipeHandler.
type RecipeService interface {
	AddRecipe(ctx context.Context, r models.Recipe) (models.Recipe, error)
	GetRecipe(ctx context.Context, id string) (*models.Recipe, error)
	GetRecipes(ctx context.Context) ([]models.Recipe, error)
	SearchRecipes(ctx context.Context, query string) ([]models.Recipe, error)
	GetRecipesByTag(ctx context.Context, tag string) ([]models.Recipe, error)
	UpdateRecipe(ctx context.Context, id string, patch models.RecipePatch) error
	DeleteRecipe(ctx context.Context, id string) error
	DuplicateRecipe(ctx context.Context, id string) (models.Recipe, error)
	ConsumeRecipe(ctx context.Context, id string, servings float64, notes *string) (models.ConsumptionHistory, error)
}

// RecipeHandler handles HTTP requests for recipes.
type RecipeHandler struct {
	Service RecipeService
}

// List handles GET /api/recipes with optional q or tag filters.
func (h *RecipeHandler) List(w http.ResponseWriter, r *http.Request) {
	var (
		recipes []models.Recipe
		err     error
	)
	q := r.URL.Query()
	switch {
	case q.Get("tag") != "":
		recipes, err = h.Service.GetRecipesByTag(r.Context(), q.Get("tag"))
	case q.Get("q") != "":
		recipes, err = h.Service.SearchRecipes(r.Context(), q.Get("q"))
	default:
		recipes, err = h.Service.GetRecipes(r.Context())
	}
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, recipes)
}

// Create handles POST /api/recipes.
func (h *RecipeHandler) Create(w http.ResponseWriter, r *http.Request) {
	var rec models.Recipe
	if !decode(w, r, &rec) {
		return
	}
	saved, err := h.Service.AddRecipe(r.Context(), rec)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, saved)
}

// Get handles GET /api/recipes/{id}.
func (h *RecipeHandler) Get(w http.ResponseWriter, r *http.Request) {
	rec, err := h.Service.GetRecipe(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, err)
		return
	}
	if rec == nil {
		http.Error(w, "recipe not found", http.StatusNotFound)
		return
	}
	writeJSON(w, http.StatusOK, rec)
}

// Update handles PUT /api/recipes/{id}.
func (h *RecipeHandler) Update(w http.ResponseWriter, r *http.Request) {
	var patch models.RecipePatch
	if !decode(w, r, &patch) {
		return
	}
	if err := h.Service.UpdateRecipe(r.Context(), chi.URLParam(r, "id"), patch); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// Delete handles DELETE /api/recipes/{id}.
func (h *RecipeHandler) Delete(w http.ResponseWriter, r *http.Request) {
	if err := h.Service.DeleteRecipe(r.Context(), chi.URLParam(r, "id")); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// Duplicate handles POST /api/recipes/{id}/duplicate.
func (h *RecipeHandler) Duplicate(w http.ResponseWriter, r *http.Request) {
	rec, err := h.Service.DuplicateRecipe(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, rec)
}

// CookRequest is the body of POST /api/recipes/{id}/consume.
type CookRequest struct {
	Servings float64 `json:"servings"`
	Notes    *string `json:"notes,omitempty"`
}

// Consume handles POST /api/recipes/{id}/consume and records the cooked
// servings in the history.
func (h *RecipeHandler) Consume(w http.ResponseWriter, r *http.Request) {
	var req CookRequest
	if !decode(w, r, &req) {
		return
	}
	entry, err := h.Service.ConsumeRecipe(r.Context(), chi.URLParam(r, "id"), req.Servings, req.Notes)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, entry)
}
