package service

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/meucrm/crmdesk/internal/models"
	"github.com/meucrm/crmdesk/internal/repository"
)

// CustomerRepository defines the persistence operations required by
// CustomerService.
type CustomerRepository interface {
	List(ctx context.Context, f repository.CustomerFilter) ([]models.Customer, error)
	Get(ctx context.Context, id string) (models.Customer, error)
	Exists(ctx context.Context, id string) (bool, error)
	Create(ctx context.Context, c models.Customer) error
	Update(ctx context.Context, id string, p models.CustomerPatch) (models.Customer, error)
	SoftDelete(ctx context.Context, id string) error
}

// CustomerService validates customer records before they are stored.
type CustomerService struct {
	repo CustomerRepository
}

// NewCustomerService constructs a CustomerService.
func NewCustomerService(repo CustomerRepository) *CustomerService {
	return &CustomerService{repo: repo}
}

// List returns the live customers whose name or e-mail contains query and
// whose status is one of statuses (any status when empty).
func (s *CustomerService) List(ctx context.Context, query string, statuses []string) ([]models.Customer, error) {
	for _, st := range statuses {
		if !models.CustomerStatus(st).Valid() {
			return nil, fmt.Errorf("%w: unknown status %q", ErrInvalidInput, st)
		}
	}
	return s.repo.List(ctx, repository.CustomerFilter{Query: strings.TrimSpace(query), Statuses: statuses})
}

// Get returns one customer. A malformed ID is reported as not found.
func (s *CustomerService) Get(ctx context.Context, id string) (models.Customer, error) {
	if !validID(id) {
		return models.Customer{}, repository.ErrNotFound
	}
	return s.repo.Get(ctx, id)
}

// Create stores a new customer with a server-assigned ID. Status defaults
// to lead.
func (s *CustomerService) Create(ctx context.Context, c models.Customer) (models.Customer, error) {
	c.Name = strings.TrimSpace(c.Name)
	c.Email = strings.TrimSpace(c.Email)
	c.Phone = strings.TrimSpace(c.Phone)
	if c.Status == "" {
		c.Status = models.StatusLead
	}
	if err := validateCustomer(c); err != nil {
		return models.Customer{}, err
	}

	c.ID = uuid.NewString()
	if err := s.repo.Create(ctx, c); err != nil {
		return models.Customer{}, err
	}
	return c, nil
}

// Update applies a partial update.
func (s *CustomerService) Update(ctx context.Context, id string, p models.CustomerPatch) (models.Customer, error) {
	if !validID(id) {
		return models.Customer{}, repository.ErrNotFound
	}
	if p.Empty() {
		return models.Customer{}, fmt.Errorf("%w: nothing to update", ErrInvalidInput)
	}
	if err := validatePatch(p); err != nil {
		return models.Customer{}, err
	}
	return s.repo.Update(ctx, id, p)
}

// Delete soft-deletes a customer.
func (s *CustomerService) Delete(ctx context.Context, id string) error {
	if !validID(id) {
		return repository.ErrNotFound
	}
	return s.repo.SoftDelete(ctx, id)
}

func validateCustomer(c models.Customer) error {
	switch {
	case strings.TrimSpace(c.Name) == "":
		return fmt.Errorf("%w: nome is required", ErrInvalidInput)
	case !strings.Contains(c.Email, "@"):
		return fmt.Errorf("%w: email is invalid", ErrInvalidInput)
	case !c.Status.Valid():
		return fmt.Errorf("%w: unknown status %q", ErrInvalidInput, c.Status)
	}
	return nil
}

func validatePatch(p models.CustomerPatch) error {
	switch {
	case p.Name != nil && strings.TrimSpace(*p.Name) == "":
		return fmt.Errorf("%w: nome is required", ErrInvalidInput)
	case p.Email != nil && !strings.Contains(*p.Email, "@"):
		return fmt.Errorf("%w: email is invalid", ErrInvalidInput)
	case p.Status != nil && !p.Status.Valid():
		return fmt.Errorf("%w: unknown status %q", ErrInvalidInput, *p.Status)
	}
	return nil
}

func validID(id string) bool {
	_, err := uuid.Parse(id)
	return err == nil
}
