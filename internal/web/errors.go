package web

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/avollmer/stammdaten/internal/logging"
	"github.com/avollmer/stammdaten/internal/store"
)

func respondJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if payload != nil {
		json.NewEncoder(w).Encode(payload)
	}
}

func writeError(w http.ResponseWriter, status int, message string) {
	respondJSON(w, status, map[string]string{"error": message})
}

// respondStoreError maps store failures to HTTP statuses. Missing records
// surface as 404 regardless of which backend reported them.
func (s *Server) respondStoreError(w http.ResponseWriter, r *http.Request, err error) {
	if errors.Is(err, store.ErrNotFound) {
		writeError(w, http.StatusNotFound, "record not found")
		return
	}
	logging.FromContext(r.Context()).Error("store operation failed", "error", err)
	writeError(w, http.StatusInternalServerError, "internal error")
}
