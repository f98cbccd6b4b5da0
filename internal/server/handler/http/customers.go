package http

import (
	"context"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/meucrm/crmdesk/internal/models"
)

const customerNotFound = "customer not found"

// CustomerService defines the customer operations required by CustomerHandler.
type CustomerService interface {
	List(ctx context.Context, query string, statuses []string) ([]models.Customer, error)
	Get(ctx context.Context, id string) (models.Customer, error)
	Create(ctx context.Context, c models.Customer) (models.Customer, error)
	Update(ctx context.Context, id string, p models.CustomerPatch) (models.Customer, error)
	Delete(ctx context.Context, id string) error
}

// CustomerHandler serves the /clientes resource.
type CustomerHandler struct {
	CustomerService CustomerService
}

// List handles GET /clientes. The optional "q" parameter filters by name or
// e-mail and "status" takes a comma-separated list of status tags.
func (h *CustomerHandler) List(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	var statuses []string
	for _, st := range strings.Split(q.Get("status"), ",") {
		if st = strings.TrimSpace(st); st != "" {
			statuses = append(statuses, st)
		}
	}

	list, err := h.CustomerService.List(r.Context(), q.Get("q"), statuses)
	if err != nil {
		writeError(w, err, customerNotFound)
		return
	}
	if list == nil {
		list = []models.Customer{}
	}
	writeJSON(w, http.StatusOK, list)
}

// Get handles GET /clientes/{id}.
func (h *CustomerHandler) Get(w http.ResponseWriter, r *http.Request) {
	c, err := h.CustomerService.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, err, customerNotFound)
		return
	}
	writeJSON(w, http.StatusOK, c)
}

// Create handles POST /clientes.
func (h *CustomerHandler) Create(w http.ResponseWriter, r *http.Request) {
	var in models.Customer
	if err := decodeBody(r, &in); err != nil {
		http.Error(w, "invalid body", http.StatusBadRequest)
		return
	}
	out, err := h.CustomerService.Create(r.Context(), in)
	if err != nil {
		writeError(w, err, customerNotFound)
		return
	}
	writeJSON(w, http.StatusCreated, out)
}

// Update handles PUT /clientes/{id} with a partial body.
func (h *CustomerHandler) Update(w http.ResponseWriter, r *http.Request) {
	var p models.CustomerPatch
	if err := decodeBody(r, &p); err != nil {
		http.Error(w, "invalid body", http.StatusBadRequest)
		return
	}
	out, err := h.CustomerService.Update(r.Context(), chi.URLParam(r, "id"), p)
	if err != nil {
		writeError(w, err, customerNotFound)
		return
	}
	writeJSON(w, http.StatusOK, out)
}

// Delete handles DELETE /clientes/{id}.
func (h *CustomerHandler) Delete(w http.ResponseWriter, r *http.Request) {
	if err := h.CustomerService.Delete(r.Context(), chi.URLParam(r, "id")); err != nil {
		writeError(w, err, customerNotFound)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
