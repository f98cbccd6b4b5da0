package api

import (
	"context"
	"net/http"
	"net/url"

	"github.com/meucrm/crmdesk/internal/models"
)

func customerPath(id string) string {
	return "/clientes/" + url.PathEscape(id)
}

// ListCustomers returns the customers matching params (e.g. q, status).
func (c *Client) ListCustomers(ctx context.Context, params url.Values) ([]models.Customer, error) {
	var out []models.Customer
	if err := c.Request(ctx, "/clientes", RequestOptions{Query: params}, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// GetCustomer returns one customer.
func (c *Client) GetCustomer(ctx context.Context, id string) (models.Customer, error) {
	var out models.Customer
	err := c.Request(ctx, customerPath(id), RequestOptions{}, &out)
	return out, err
}

// CreateCustomer creates a customer; the server assigns the ID.
func (c *Client) CreateCustomer(ctx context.Context, in models.Customer) (models.Customer, error) {
	in.ID = ""
	var out models.Customer
	err := c.Request(ctx, "/clientes", RequestOptions{Method: http.MethodPost, Body: in}, &out)
	return out, err
}

// UpdateCustomer applies a partial update.
func (c *Client) UpdateCustomer(ctx context.Context, id string, patch models.CustomerPatch) (models.Customer, error) {
	var out models.Customer
	err := c.Request(ctx, customerPath(id), RequestOptions{Method: http.MethodPut, Body: patch}, &out)
	return out, err
}

// DeleteCustomer removes a customer.
func (c *Client) DeleteCustomer(ctx context.Context, id string) error {
	return c.Request(ctx, customerPath(id), RequestOptions{Method: http.MethodDelete}, nil)
}

// DashboardStats returns the dashboard aggregates.
func (c *Client) DashboardStats(ctx context.Context) (models.DashboardStats, error) {
	var out models.DashboardStats
	err := c.Request(ctx, "/dashboard/stats", RequestOptions{}, &out)
	return out, err
}

// ListSales returns the sales matching params (e.g. clienteId).
func (c *Client) ListSales(ctx context.Context, params url.Values) ([]models.Sale, error) {
	var out []models.Sale
	if err := c.Request(ctx, "/vendas", RequestOptions{Query: params}, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// CreateSale books a sale.
func (c *Client) CreateSale(ctx context.Context, in models.Sale) (models.Sale, error) {
	in.ID = ""
	var out models.Sale
	err := c.Request(ctx, "/vendas", RequestOptions{Method: http.MethodPost, Body: in}, &out)
	return out, err
}
