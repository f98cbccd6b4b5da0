package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/meucrm/crmdesk/internal/models"
)

// PostgresUserRepository stores the accounts allowed to log in.
type PostgresUserRepository struct {
	// DB is the database handle for executing queries.
	DB *sql.DB
}

// NewPostgresUserRepository creates a PostgresUserRepository using db.
func NewPostgresUserRepository(db *sql.DB) *PostgresUserRepository {
	return &PostgresUserRepository{DB: db}
}

// GetByEmail returns the account registered with email, or ErrNotFound.
func (r *PostgresUserRepository) GetByEmail(ctx context.Context, email string) (models.Account, error) {
	var acc models.Account
	err := r.DB.QueryRowContext(ctx,
		`SELECT id, email, name, password_hash FROM users WHERE email = $1`,
		email,
	).Scan(&acc.ID, &acc.Email, &acc.Name, &acc.PasswordHash)
	if errors.Is(err, sql.ErrNoRows) {
		return models.Account{}, ErrNotFound
	}
	if err != nil {
		return models.Account{}, fmt.Errorf("get user by email: %w", err)
	}
	return acc, nil
}

// Create inserts acc. An already registered e-mail yields ErrConflict.
func (r *PostgresUserRepository) Create(ctx context.Context, acc models.Account) error {
	res, err := r.DB.ExecContext(ctx,
		`INSERT INTO users (id, email, name, password_hash) VALUES ($1, $2, $3, $4) ON CONFLICT (email) DO NOTHING`,
		acc.ID, acc.Email, acc.Name, acc.PasswordHash,
	)
	if err != nil {
		return fmt.Errorf("insert user: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return ErrConflict
	}
	return nil
}
