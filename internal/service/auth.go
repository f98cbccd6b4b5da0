package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/meucrm/crmdesk/internal/auth"
	"github.com/meucrm/crmdesk/internal/models"
	"github.com/meucrm/crmdesk/internal/repository"
	"golang.org/x/crypto/bcrypt"
)

// MinPasswordLength is enforced when accounts are created.
const MinPasswordLength = 8

// UserRepository defines the persistence operations required by AuthService.
type UserRepository interface {
	// GetByEmail returns the account for email or repository.ErrNotFound.
	GetByEmail(ctx context.Context, email string) (models.Account, error)
	// Create stores a new account; a taken e-mail yields repository.ErrConflict.
	Create(ctx context.Context, acc models.Account) error
}

// AuthService checks passwords and issues bearer tokens.
type AuthService struct {
	repo   UserRepository
	secret []byte
	ttl    time.Duration
}

// NewAuthService returns an AuthService signing tokens with secret that
// stay valid for ttl.
func NewAuthService(repo UserRepository, secret []byte, ttl time.Duration) *AuthService {
	return &AuthService{repo: repo, secret: secret, ttl: ttl}
}

// Login verifies the password of email and returns a fresh token with the user.
func (s *AuthService) Login(ctx context.Context, email, password string) (models.LoginResponse, error) {
	acc, err := s.repo.GetByEmail(ctx, normalizeEmail(email))
	if errors.Is(err, repository.ErrNotFound) {
		return models.LoginResponse{}, ErrInvalidCredentials
	}
	if err != nil {
		return models.LoginResponse{}, err
	}
	if err := bcrypt.CompareHashAndPassword(acc.PasswordHash, []byte(password)); err != nil {
		return models.LoginResponse{}, ErrInvalidCredentials
	}

	token, err := auth.GenerateToken(acc.ID, s.secret, s.ttl)
	if err != nil {
		return models.LoginResponse{}, err
	}
	return models.LoginResponse{Token: token, User: acc.User}, nil
}

// Authenticate returns the user ID carried by a bearer token.
func (s *AuthService) Authenticate(token string) (string, error) {
	return auth.GetUserIDFromToken(token, s.secret)
}

// CreateUser registers an account with a bcrypt-hashed password.
func (s *AuthService) CreateUser(ctx context.Context, email, name, password string) (models.User, error) {
	email = normalizeEmail(email)
	name = strings.TrimSpace(name)
	switch {
	case !strings.Contains(email, "@"):
		return models.User{}, fmt.Errorf("%w: e-mail is invalid", ErrInvalidInput)
	case name == "":
		return models.User{}, fmt.Errorf("%w: name is required", ErrInvalidInput)
	case len(password) < MinPasswordLength:
		return models.User{}, fmt.Errorf("%w: password must have at least %d characters", ErrInvalidInput, MinPasswordLength)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return models.User{}, fmt.Errorf("hash password: %w", err)
	}
	acc := models.Account{
		User:         models.User{ID: uuid.NewString(), Email: email, Name: name},
		PasswordHash: hash,
	}
	if err := s.repo.Create(ctx, acc); err != nil {
		return models.User{}, err
	}
	return acc.User, nil
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
