package repository

import (
	"context"
	"database/sql"
	"errors"
	"regexp"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/lib/pq"
	"github.com/meucrm/crmdesk/internal/models"
)

var customerColumns = []string{"id", "nome", "email", "telefone", "status"}

func setupCustomerMock(t *testing.T) (*PostgresCustomerRepository, sqlmock.Sqlmock, func()) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("failed to open sqlmock database: %v", err)
	}
	return NewPostgresCustomerRepository(db), mock, func() { db.Close() }
}

func TestListCustomers(t *testing.T) {
	repo, mock, cleanup := setupCustomerMock(t)
	defer cleanup()

	mock.ExpectQuery(regexp.QuoteMeta(`SELECT id, nome, email, telefone, status FROM customers`)).
		WithArgs("ana", pq.Array([]string{"lead"})).
		WillReturnRows(sqlmock.NewRows(customerColumns).
			AddRow("1", "Ana", "ana@x.com", "", "lead").
			AddRow("2", "Mariana", "mari@x.com", "555", "lead"))

	list, err := repo.List(context.Background(), CustomerFilter{Query: "ana", Statuses: []string{"lead"}})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(list) != 2 || list[1].Phone != "555" || list[0].Status != models.StatusLead {
		t.Errorf("unexpected customers: %+v", list)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("unfulfilled expectations: %v", err)
	}
}

func TestListCustomers_EmptyFilterIsNotNull(t *testing.T) {
	repo, mock, cleanup := setupCustomerMock(t)
	defer cleanup()

	mock.ExpectQuery(regexp.QuoteMeta(`FROM customers`)).
		WithArgs("", pq.Array([]string{})).
		WillReturnRows(sqlmock.NewRows(customerColumns))

	list, err := repo.List(context.Background(), CustomerFilter{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if list == nil || len(list) != 0 {
		t.Errorf("expected empty non-nil list, got %#v", list)
	}
}

func TestGetCustomer(t *testing.T) {
	repo, mock, cleanup := setupCustomerMock(t)
	defer cleanup()

	mock.ExpectQuery(regexp.QuoteMeta(`SELECT id, nome, email, telefone, status FROM customers`)).
		WithArgs("1").
		WillReturnRows(sqlmock.NewRows(customerColumns).AddRow("1", "Ana", "ana@x.com", "", "active"))
	c, err := repo.Get(context.Background(), "1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if c.Name != "Ana" || c.Status != models.StatusActive {
		t.Errorf("unexpected customer: %+v", c)
	}

	mock.ExpectQuery(regexp.QuoteMeta(`FROM customers`)).
		WithArgs("2").
		WillReturnError(sql.ErrNoRows)
	if _, err := repo.Get(context.Background(), "2"); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestCustomerExists(t *testing.T) {
	repo, mock, cleanup := setupCustomerMock(t)
	defer cleanup()

	mock.ExpectQuery(regexp.QuoteMeta(`SELECT EXISTS(SELECT 1 FROM customers WHERE id = $1 AND deleted_at IS NULL)`)).
		WithArgs("1").
		WillReturnRows(sqlmock.NewRows([]string{"exists"}).AddRow(true))

	ok, err := repo.Exists(context.Background(), "1")
	if err != nil || !ok {
		t.Errorf("Exists = %v, %v; want true, nil", ok, err)
	}
}

func TestCreateCustomer(t *testing.T) {
	repo, mock, cleanup := setupCustomerMock(t)
	defer cleanup()

	mock.ExpectExec(regexp.QuoteMeta(`INSERT INTO customers (id, nome, email, telefone, status)`)).
		WithArgs("1", "Ana", "ana@x.com", "555", "lead").
		WillReturnResult(sqlmock.NewResult(0, 1))

	err := repo.Create(context.Background(), models.Customer{
		ID: "1", Name: "Ana", Email: "ana@x.com", Phone: "555", Status: models.StatusLead,
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("unfulfilled expectations: %v", err)
	}
}

func TestUpdateCustomer(t *testing.T) {
	repo, mock, cleanup := setupCustomerMock(t)
	defer cleanup()

	name := "Ana Maria"
	status := models.StatusActive
	mock.ExpectQuery(regexp.QuoteMeta(`UPDATE customers SET`)).
		WithArgs("1", name, nil, nil, "active").
		WillReturnRows(sqlmock.NewRows(customerColumns).AddRow("1", name, "ana@x.com", "", "active"))

	c, err := repo.Update(context.Background(), "1", models.CustomerPatch{Name: &name, Status: &status})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if c.Name != name || c.Status != models.StatusActive {
		t.Errorf("unexpected customer: %+v", c)
	}

	mock.ExpectQuery(regexp.QuoteMeta(`UPDATE customers SET`)).
		WithArgs("9", name, nil, nil, nil).
		WillReturnError(sql.ErrNoRows)
	if _, err := repo.Update(context.Background(), "9", models.CustomerPatch{Name: &name}); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("unfulfilled expectations: %v", err)
	}
}

func TestSoftDeleteCustomer(t *testing.T) {
	repo, mock, cleanup := setupCustomerMock(t)
	defer cleanup()

	mock.ExpectExec(regexp.QuoteMeta(`UPDATE customers SET deleted_at = now() WHERE id = $1 AND deleted_at IS NULL`)).
		WithArgs("1").
		WillReturnResult(sqlmock.NewResult(0, 1))
	if err := repo.SoftDelete(context.Background(), "1"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	mock.ExpectExec(regexp.QuoteMeta(`UPDATE customers SET deleted_at = now()`)).
		WithArgs("1").
		WillReturnResult(sqlmock.NewResult(0, 0))
	if err := repo.SoftDelete(context.Background(), "1"); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound on second delete, got %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("unfulfilled expectations: %v", err)
	}
}
