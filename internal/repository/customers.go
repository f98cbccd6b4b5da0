package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/lib/pq"
	"github.com/meucrm/crmdesk/internal/models"
)

// CustomerFilter narrows a customer listing. Zero values match everything.
type CustomerFilter struct {
	// Query is matched case-insensitively against name and e-mail.
	Query    string
	Statuses []string
}

// PostgresCustomerRepository stores customers. Deletes are soft: the row
// keeps a deleted_at stamp until the cleaner purges it.
type PostgresCustomerRepository struct {
	DB *sql.DB
}

// NewPostgresCustomerRepository creates a PostgresCustomerRepository using db.
func NewPostgresCustomerRepository(db *sql.DB) *PostgresCustomerRepository {
	return &PostgresCustomerRepository{DB: db}
}

// List returns the live customers matching f, ordered by name.
func (r *PostgresCustomerRepository) List(ctx context.Context, f CustomerFilter) ([]models.Customer, error) {
	statuses := f.Statuses
	if statuses == nil {
		statuses = []string{}
	}
	rows, err := r.DB.QueryContext(ctx, `
		SELECT id, nome, email, telefone, status FROM customers
		 WHERE deleted_at IS NULL
		   AND ($1::text = '' OR nome ILIKE '%' || $1::text || '%' OR email ILIKE '%' || $1::text || '%')
		   AND (COALESCE(cardinality($2::text[]), 0) = 0 OR status = ANY($2::text[]))
		 ORDER BY nome, id
	`, f.Query, pq.Array(statuses))
	if err != nil {
		return nil, fmt.Errorf("list customers: %w", err)
	}
	defer rows.Close()

	out := make([]models.Customer, 0)
	for rows.Next() {
		var c models.Customer
		if err := rows.Scan(&c.ID, &c.Name, &c.Email, &c.Phone, &c.Status); err != nil {
			return nil, fmt.Errorf("scan: %w", err)
		}
		out = append(out, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list customers: %w", err)
	}
	return out, nil
}

// Get returns a live customer or ErrNotFound.
func (r *PostgresCustomerRepository) Get(ctx context.Context, id string) (models.Customer, error) {
	var c models.Customer
	err := r.DB.QueryRowContext(ctx, `
		SELECT id, nome, email, telefone, status FROM customers
		 WHERE id = $1 AND deleted_at IS NULL
	`, id).Scan(&c.ID, &c.Name, &c.Email, &c.Phone, &c.Status)
	if errors.Is(err, sql.ErrNoRows) {
		return models.Customer{}, ErrNotFound
	}
	if err != nil {
		return models.Customer{}, fmt.Errorf("get customer: %w", err)
	}
	return c, nil
}

// Exists reports whether a live customer with id exists.
func (r *PostgresCustomerRepository) Exists(ctx context.Context, id string) (bool, error) {
	var exists bool
	err := r.DB.QueryRowContext(ctx,
		`SELECT EXISTS(SELECT 1 FROM customers WHERE id = $1 AND deleted_at IS NULL)`,
		id,
	).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("customer exists: %w", err)
	}
	return exists, nil
}

// Create inserts c; c.ID must already be set.
func (r *PostgresCustomerRepository) Create(ctx context.Context, c models.Customer) error {
	_, err := r.DB.ExecContext(ctx, `
		INSERT INTO customers (id, nome, email, telefone, status)
		VALUES ($1, $2, $3, $4, $5)
	`, c.ID, c.Name, c.Email, c.Phone, string(c.Status))
	if err != nil {
		return fmt.Errorf("insert customer: %w", err)
	}
	return nil
}

// Update applies the non-nil fields of p and returns the updated row, or
// ErrNotFound.
func (r *PostgresCustomerRepository) Update(ctx context.Context, id string, p models.CustomerPatch) (models.Customer, error) {
	var status any
	if p.Status != nil {
		status = string(*p.Status)
	}
	var c models.Customer
	err := r.DB.QueryRowContext(ctx, `
		UPDATE customers SET
		       nome = COALESCE($2, nome),
		       email = COALESCE($3, email),
		       telefone = COALESCE($4, telefone),
		       status = COALESCE($5, status)
		 WHERE id = $1 AND deleted_at IS NULL
		RETURNING id, nome, email, telefone, status
	`, id, nullable(p.Name), nullable(p.Email), nullable(p.Phone), status).
		Scan(&c.ID, &c.Name, &c.Email, &c.Phone, &c.Status)
	if errors.Is(err, sql.ErrNoRows) {
		return models.Customer{}, ErrNotFound
	}
	if err != nil {
		return models.Customer{}, fmt.Errorf("update customer: %w", err)
	}
	return c, nil
}

// SoftDelete marks a live customer deleted, or returns ErrNotFound.
func (r *PostgresCustomerRepository) SoftDelete(ctx context.Context, id string) error {
	res, err := r.DB.ExecContext(ctx,
		`UPDATE customers SET deleted_at = now() WHERE id = $1 AND deleted_at IS NULL`,
		id,
	)
	if err != nil {
		return fmt.Errorf("delete customer: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("delete customer: %w", err)
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

func nullable(s *string) any {
	if s == nil {
		return nil
	}
	return *s
}
