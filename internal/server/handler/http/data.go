package http

import (
	"context"
	"fmt"
	"net/http"

	"github.com/atinyakov/foodsai/internal/models"
	"github.com/atinyakov/foodsai/internal/service"
)

// DataService defines the whole-store operations required by the
// DataHandler.
type DataService interface {
	ExportData(ctx context.Context) (models.Snapshot, error)
	ImportData(ctx context.Context, snap models.Snapshot) error
	GetSettings(ctx context.Context) (models.UserSettings, error)
	UpdateSettings(ctx context.Context, st models.UserSettings) (models.UserSettings, error)
	CreateBackup(ctx context.Context) (models.Backup, error)
	LatestBackup(ctx context.Context) (*models.Backup, error)
}

// DataClearer wipes the local database together with the session that
// owned it.
type DataClearer interface {
	ClearData(ctx context.Context) error
}

// DataHandler handles export, import, backups and settings.
type DataHandler struct {
	Service  DataService
	Sessions DataClearer
}

// Export handles GET /api/export and serves the snapshot as a download.
func (h *DataHandler) Export(w http.ResponseWriter, r *http.Request) {
	snap, err := h.Service.ExportData(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	w.Header().Set("Content-Disposition",
		fmt.Sprintf(`attachment; filename="%s"`, service.BackupFileName(snap.ExportDate)))
	writeJSON(w, http.StatusOK, snap)
}

// Import handles POST /api/import. The snapshot replaces the local data.
func (h *DataHandler) Import(w http.ResponseWriter, r *http.Request) {
	var snap models.Snapshot
	if !decode(w, r, &snap) {
		return
	}
	if err := h.Service.ImportData(r.Context(), snap); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// Clear handles DELETE /api/data. A guest session ends with the data.
func (h *DataHandler) Clear(w http.ResponseWriter, r *http.Request) {
	if err := h.Sessions.ClearData(r.Context()); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// Settings handles GET /api/settings.
func (h *DataHandler) Settings(w http.ResponseWriter, r *http.Request) {
	st, err := h.Service.GetSettings(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, st)
}

// UpdateSettings handles PUT /api/settings.
func (h *DataHandler) UpdateSettings(w http.ResponseWriter, r *http.Request) {
	var st models.UserSettings
	if !decode(w, r, &st) {
		return
	}
	saved, err := h.Service.UpdateSettings(r.Context(), st)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, saved)
}

// CreateBackup handles POST /api/backups.
func (h *DataHandler) CreateBackup(w http.ResponseWriter, r *http.Request) {
	b, err := h.Service.CreateBackup(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, b)
}

// LatestBackup handles GET /api/backups/latest.
func (h *DataHandler) LatestBackup(w http.ResponseWriter, r *http.Request) {
	b, err := h.Service.LatestBackup(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	if b == nil {
		http.Error(w, "no backup yet", http.StatusNotFound)
		return
	}
	writeJSON(w, http.StatusOK, b)
}
