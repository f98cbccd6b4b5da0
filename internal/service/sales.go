package service

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/meucrm/crmdesk/internal/models"
)

// SalesRepository defines the persistence operations required by SalesService.
type SalesRepository interface {
	List(ctx context.Context, customerID string) ([]models.Sale, error)
	Create(ctx context.Context, s models.Sale) error
	Stats(ctx context.Context, monthStart time.Time) (models.DashboardStats, error)
}

// CustomerChecker reports whether a live customer exists.
type CustomerChecker interface {
	Exists(ctx context.Context, id string) (bool, error)
}

// SalesService books sales and computes the dashboard figures.
type SalesService struct {
	sales     SalesRepository
	customers CustomerChecker
	// now is replaced in tests.
	now func() time.Time
}

// NewSalesService constructs a SalesService.
func NewSalesService(sales SalesRepository, customers CustomerChecker) *SalesService {
	return &SalesService{sales: sales, customers: customers, now: time.Now}
}

// List returns sales, optionally limited to one customer.
func (s *SalesService) List(ctx context.Context, customerID string) ([]models.Sale, error) {
	if customerID != "" && !validID(customerID) {
		return []models.Sale{}, nil
	}
	return s.sales.List(ctx, customerID)
}

// Create books a sale against an existing customer. The date defaults to now.
func (s *SalesService) Create(ctx context.Context, sale models.Sale) (models.Sale, error) {
	if sale.Amount <= 0 {
		return models.Sale{}, fmt.Errorf("%w: valor must be positive", ErrInvalidInput)
	}
	if !validID(sale.CustomerID) {
		return models.Sale{}, fmt.Errorf("%w: unknown customer %q", ErrInvalidInput, sale.CustomerID)
	}
	ok, err := s.customers.Exists(ctx, sale.CustomerID)
	if err != nil {
		return models.Sale{}, err
	}
	if !ok {
		return models.Sale{}, fmt.Errorf("%w: unknown customer %q", ErrInvalidInput, sale.CustomerID)
	}

	sale.ID = uuid.NewString()
	if sale.Date.IsZero() {
		sale.Date = s.now().UTC()
	}
	if err := s.sales.Create(ctx, sale); err != nil {
		return models.Sale{}, err
	}
	return sale, nil
}

// Dashboard returns the totals of the current calendar month.
func (s *SalesService) Dashboard(ctx context.Context) (models.DashboardStats, error) {
	now := s.now()
	monthStart := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, now.Location())
	return s.sales.Stats(ctx, monthStart)
}
