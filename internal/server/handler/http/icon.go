package http

import (
	"context"
	"io"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/atinyakov/foodsai/internal/models"
)

// maxIconImport bounds the body of an icon import.
const maxIconImport = 8 << 20

// IconService defines the icon operations required by the IconHandler.
type IconService interface {
	AddCustomIcon(ctx context.Context, icon models.CustomIcon) (models.CustomIcon, error)
	GetCustomIcons(ctx context.Context) ([]models.CustomIcon, error)
	GetIconsByCategory(ctx context.Context, category string) ([]models.CustomIcon, error)
	GetCustomIcon(ctx context.Context, id string) (*models.CustomIcon, error)
	UpdateCustomIcon(ctx context.Context, id string, patch models.CustomIconPatch) error
	DeleteCustomIcon(ctx context.Context, id string) error
	ImportCustomIcons(ctx context.Context, data []byte) (models.IconImportReport, error)
	ExportCustomIcons(ctx context.Context) ([]models.IconTransfer, error)
}

// IconHandler handles HTTP requests for builtin and custom icons.
type IconHandler struct {
	Service IconService
}

// List handles GET /api/icons?category=.
func (h *IconHandler) List(w http.ResponseWriter, r *http.Request) {
	var (
		icons []models.CustomIcon
		err   error
	)
	if c := r.URL.Query().Get("category"); c != "" {
		icons, err = h.Service.GetIconsByCategory(r.Context(), c)
	} else {
		icons, err = h.Service.GetCustomIcons(r.Context())
	}
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, icons)
}

// Create handles POST /api/icons.
func (h *IconHandler) Create(w http.ResponseWriter, r *http.Request) {
	var icon models.CustomIcon
	if !decode(w, r, &icon) {
		return
	}
	saved, err := h.Service.AddCustomIcon(r.Context(), icon)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, saved)
}

// Get handles GET /api/icons/{id}.
func (h *IconHandler) Get(w http.ResponseWriter, r *http.Request) {
	icon, err := h.Service.GetCustomIcon(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, err)
		return
	}
	if icon == nil {
		http.Error(w, "icon not found", http.StatusNotFound)
		return
	}
	writeJSON(w, http.StatusOK, icon)
}

// Update handles PUT /api/icons/{id}.
func (h *IconHandler) Update(w http.ResponseWriter, r *http.Request) {
	var patch models.CustomIconPatch
	if !decode(w, r, &patch) {
		return
	}
	if err := h.Service.UpdateCustomIcon(r.Context(), chi.URLParam(r, "id"), patch); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// Delete handles DELETE /api/icons/{id}. Builtin icons cannot be deleted.
func (h *IconHandler) Delete(w http.ResponseWriter, r *http.Request) {
	if err := h.Service.DeleteCustomIcon(r.Context(), chi.URLParam(r, "id")); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// Import handles POST /api/icons/import. The body is a JSON array of icons;
// the answer reports which entries were imported, skipped or rejected.
func (h *IconHandler) Import(w http.ResponseWriter, r *http.Request) {
	data, err := io.ReadAll(io.LimitReader(r.Body, maxIconImport+1))
	if err != nil {
		http.Error(w, "invalid body", http.StatusBadRequest)
		return
	}
	if len(data) > maxIconImport {
		http.Error(w, "import too large", http.StatusRequestEntityTooLarge)
		return
	}
	report, err := h.Service.ImportCustomIcons(r.Context(), data)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, report)
}

// Export handles GET /api/icons/export.
func (h *IconHandler) Export(w http.ResponseWriter, r *http.Request) {
	icons, err := h.Service.ExportCustomIcons(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	w.Header().Set("Content-Disposition", `attachment; filename="foodsai-icons.json"`)
	writeJSON(w, http.StatusOK, icons)
}
