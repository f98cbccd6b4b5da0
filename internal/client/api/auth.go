package api

import (
	"context"
	"fmt"
	"net/http"

	"github.com/meucrm/crmdesk/internal/models"
	"go.uber.org/zap"
)

// Login posts the credentials and, on success, persists token and user.
func (c *Client) Login(ctx context.Context, email, password string) (models.LoginResponse, error) {
	var out models.LoginResponse
	err := c.Request(ctx, "/auth/login", RequestOptions{
		Method: http.MethodPost,
		Body:   models.Credentials{Email: email, Password: password},
	}, &out)
	if err != nil {
		return models.LoginResponse{}, err
	}
	if out.Token == "" {
		return models.LoginResponse{}, ErrMissingToken
	}

	// The in-memory token follows the store, so a failed save leaves no session.
	if err := c.store.Save(out.Token, out.User); err != nil {
		return models.LoginResponse{}, fmt.Errorf("persist session: %w", err)
	}
	c.mu.Lock()
	c.token = out.Token
	c.mu.Unlock()
	c.log.Info("logged in", zap.String("user_id", out.User.ID))
	return out, nil
}

// Logout drops the in-memory and persisted session unconditionally and
// notifies subscribers so they can re-run their bootstrap.
func (c *Client) Logout() error {
	c.mu.Lock()
	c.token = ""
	c.mu.Unlock()

	err := c.store.Clear()
	c.notify(nil)
	if err != nil {
		return fmt.Errorf("clear session: %w", err)
	}
	return nil
}
