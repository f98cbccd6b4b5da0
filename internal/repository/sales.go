package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/meucrm/crmdesk/internal/models"
)

// PostgresSalesRepository stores sales and computes the dashboard totals.
type PostgresSalesRepository struct {
	DB *sql.DB
}

// NewPostgresSalesRepository creates a PostgresSalesRepository using db.
func NewPostgresSalesRepository(db *sql.DB) *PostgresSalesRepository {
	return &PostgresSalesRepository{DB: db}
}

// List returns sales newest first, limited to customerID when it is not empty.
func (r *PostgresSalesRepository) List(ctx context.Context, customerID string) ([]models.Sale, error) {
	rows, err := r.DB.QueryContext(ctx, `
		SELECT id, COALESCE(cliente_id::text, ''), valor, descricao, data FROM sales
		 WHERE ($1::text = '' OR cliente_id::text = $1::text)
		 ORDER BY data DESC, id
	`, customerID)
	if err != nil {
		return nil, fmt.Errorf("list sales: %w", err)
	}
	defer rows.Close()

	out := make([]models.Sale, 0)
	for rows.Next() {
		var s models.Sale
		if err := rows.Scan(&s.ID, &s.CustomerID, &s.Amount, &s.Description, &s.Date); err != nil {
			return nil, fmt.Errorf("scan: %w", err)
		}
		out = append(out, s)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list sales: %w", err)
	}
	return out, nil
}

// Create inserts s; s.ID and s.Date must already be set.
func (r *PostgresSalesRepository) Create(ctx context.Context, s models.Sale) error {
	_, err := r.DB.ExecContext(ctx, `
		INSERT INTO sales (id, cliente_id, valor, descricao, data)
		VALUES ($1, $2, $3, $4, $5)
	`, s.ID, s.CustomerID, s.Amount, s.Description, s.Date)
	if err != nil {
		return fmt.Errorf("insert sale: %w", err)
	}
	return nil
}

// Stats returns the live customer count, plus the sales total and the new
// leads since monthStart.
func (r *PostgresSalesRepository) Stats(ctx context.Context, monthStart time.Time) (models.DashboardStats, error) {
	var st models.DashboardStats
	err := r.DB.QueryRowContext(ctx, `
		SELECT
		    (SELECT COUNT(*) FROM customers WHERE deleted_at IS NULL),
		    (SELECT COALESCE(SUM(valor), 0) FROM sales WHERE data >= $1),
		    (SELECT COUNT(*) FROM customers
		      WHERE deleted_at IS NULL AND status = 'lead' AND created_at >= $1)
	`, monthStart).Scan(&st.TotalClientes, &st.VendasMes, &st.NovosLeads)
	if err != nil {
		return models.DashboardStats{}, fmt.Errorf("dashboard stats: %w", err)
	}
	return st, nil
}
