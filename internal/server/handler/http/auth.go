// Package http provides the chi handlers of the reference CRM server.
package http

import (
	"context"
	"net/http"
	"strings"

	"github.com/meucrm/crmdesk/internal/models"
)

// AuthService defines the authentication operations required by AuthHandler.
type AuthService interface {
	// Login checks the credentials and returns a bearer token with the user.
	Login(ctx context.Context, email, password string) (models.LoginResponse, error)
}

// AuthHandler handles the login endpoint.
type AuthHandler struct {
	AuthService AuthService
}

// Login handles POST /auth/login.
// It expects a JSON body with non-empty "email" and "password" fields and
// answers 401 when they do not match an account.
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req models.Credentials
	if err := decodeBody(r, &req); err != nil || strings.TrimSpace(req.Email) == "" || req.Password == "" {
		http.Error(w, "invalid request", http.StatusBadRequest)
		return
	}

	resp, err := h.AuthService.Login(r.Context(), req.Email, req.Password)
	if err != nil {
		writeError(w, err, "user not found")
		return
	}
	writeJSON(w, http.StatusOK, resp)
}
