// Package storage persists the client session and builds the HTTP transport
// used to reach the CRM API.
package storage

import (
	"encoding/json"
	"fmt"

	"github.com/meucrm/crmdesk/internal/models"
)

// Keys of the two persisted session entries. They are written and cleared together.
const (
	KeyToken = "auth_token"
	KeyUser  = "user"
)

// KV is the durable key-value storage the session lives in.
type KV interface {
	Get(key string) (string, bool)
	Set(key, value string)
	Delete(key string)
	Save() error
}

// SessionStore reads and writes the single persisted session.
type SessionStore struct {
	kv KV
}

// NewSessionStore returns a SessionStore backed by kv.
func NewSessionStore(kv KV) *SessionStore {
	return &SessionStore{kv: kv}
}

// Load returns the persisted session. ok is false unless both the token
// and the user entry are present.
func (s *SessionStore) Load() (models.Session, bool, error) {
	token, ok := s.kv.Get(KeyToken)
	if !ok || token == "" {
		return models.Session{}, false, nil
	}
	raw, ok := s.kv.Get(KeyUser)
	if !ok {
		return models.Session{}, false, nil
	}

	var user models.User
	if err := json.Unmarshal([]byte(raw), &user); err != nil {
		return models.Session{}, false, fmt.Errorf("decode stored user: %w", err)
	}
	return models.Session{Token: token, User: &user}, true, nil
}

// Save persists token and user.
func (s *SessionStore) Save(token string, user models.User) error {
	raw, err := json.Marshal(user)
	if err != nil {
		return fmt.Errorf("encode user: %w", err)
	}
	s.kv.Set(KeyToken, token)
	s.kv.Set(KeyUser, string(raw))
	return s.kv.Save()
}

// Clear removes both session entries and persists the result.
func (s *SessionStore) Clear() error {
	s.kv.Delete(KeyToken)
	s.kv.Delete(KeyUser)
	return s.kv.Save()
}
