package http

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/atinyakov/foodsai/internal/service"
	"github.com/atinyakov/foodsai/internal/session"
)

// statusFor maps a service error onto an HTTP status.
func statusFor(err error) int {
	switch {
	case errors.Is(err, service.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, service.ErrInvalidInput),
		errors.Is(err, service.ErrInvalidSVG),
		errors.Is(err, service.ErrBuiltinIcon),
		errors.Is(err, session.ErrUnsupported):
		return http.StatusBadRequest
	case errors.Is(err, service.ErrNoSession):
		return http.StatusUnauthorized
	case errors.Is(err, service.ErrMigrationPending):
		return http.StatusConflict
	case errors.Is(err, service.ErrNoRemote):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

func writeError(w http.ResponseWriter, err error) {
	code := statusFor(err)
	if code == http.StatusInternalServerError {
		http.Error(w, "internal error", code)
		return
	}
	http.Error(w, err.Error(), code)
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

func decode(w http.ResponseWriter, r *http.Request, v any) bool {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		http.Error(w, "invalid body", http.StatusBadRequest)
		return false
	}
	return true
}

// timeRange reads the RFC 3339 "from" and "to" query parameters. ok is false
// when neither is present.
func timeRange(r *http.Request) (from, to time.Time, ok bool, err error) {
	q := r.URL.Query()
	rawFrom, rawTo := q.Get("from"), q.Get("to")
	if rawFrom == "" && rawTo == "" {
		return time.Time{}, time.Time{}, false, nil
	}
	if rawFrom == "" || rawTo == "" {
		return time.Time{}, time.Time{}, false, errors.New("both from and to are required")
	}
	if from, err = time.Parse(time.RFC3339, rawFrom); err != nil {
		return time.Time{}, time.Time{}, false, errors.New("invalid from")
	}
	if to, err = time.Parse(time.RFC3339, rawTo); err != nil {
		return time.Time{}, time.Time{}, false, errors.New("invalid to")
	}
	return from, to, true, nil
}

func intParam(r *http.Request, name string, def int) (int, error) {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return def, nil
	}
	return strconv.Atoi(raw)
}
