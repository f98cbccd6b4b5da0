package http

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/meucrm/crmdesk/internal/repository"
	"github.com/meucrm/crmdesk/internal/service"
)

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// writeError maps service and repository errors to plain-text responses.
// Validation messages are returned to the caller; anything unexpected is
// reported as an internal error.
func writeError(w http.ResponseWriter, err error, notFound string) {
	switch {
	case errors.Is(err, service.ErrInvalidInput):
		http.Error(w, err.Error(), http.StatusBadRequest)
	case errors.Is(err, service.ErrInvalidCredentials):
		http.Error(w, "invalid credentials", http.StatusUnauthorized)
	case errors.Is(err, repository.ErrNotFound):
		http.Error(w, notFound, http.StatusNotFound)
	case errors.Is(err, repository.ErrConflict):
		http.Error(w, "already exists", http.StatusConflict)
	default:
		http.Error(w, "internal error", http.StatusInternalServerError)
	}
}

func decodeBody(r *http.Request, v any) error {
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	return dec.Decode(v)
}
