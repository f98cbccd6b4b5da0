package http

import (
	"context"
	"net/http"

	"github.com/meucrm/crmdesk/internal/models"
)

// SalesService defines the sales and dashboard operations required by
// SalesHandler.
type SalesService interface {
	List(ctx context.Context, customerID string) ([]models.Sale, error)
	Create(ctx context.Context, s models.Sale) (models.Sale, error)
	Dashboard(ctx context.Context) (models.DashboardStats, error)
}

// SalesHandler serves /vendas and /dashboard/stats.
type SalesHandler struct {
	SalesService SalesService
}

// List handles GET /vendas, optionally filtered by "clienteId".
func (h *SalesHandler) List(w http.ResponseWriter, r *http.Request) {
	list, err := h.SalesService.List(r.Context(), r.URL.Query().Get("clienteId"))
	if err != nil {
		writeError(w, err, "sale not found")
		return
	}
	if list == nil {
		list = []models.Sale{}
	}
	writeJSON(w, http.StatusOK, list)
}

// Create handles POST /vendas.
func (h *SalesHandler) Create(w http.ResponseWriter, r *http.Request) {
	var in models.Sale
	if err := decodeBody(r, &in); err != nil {
		http.Error(w, "invalid body", http.StatusBadRequest)
		return
	}
	out, err := h.SalesService.Create(r.Context(), in)
	if err != nil {
		writeError(w, err, "sale not found")
		return
	}
	writeJSON(w, http.StatusCreated, out)
}

// Stats handles GET /dashboard/stats.
func (h *SalesHandler) Stats(w http.ResponseWriter, r *http.Request) {
	stats, err := h.SalesService.Dashboard(r.Context())
	if err != nil {
		writeError(w, err, "no stats")
		return
	}
	writeJSON(w, http.StatusOK, stats)
}
