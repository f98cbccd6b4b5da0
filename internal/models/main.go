// Package models defines the data structures exchanged between the CRM
// client and the CRM REST API.
package models

import "time"

// User is the authenticated identity returned by the login endpoint.
type User struct {
	// ID is the unique identifier for the user.
	ID string `json:"id"`
	// Name is the display name shown in the shell header.
	Name string `json:"name"`
	// Email is the login e-mail.
	Email string `json:"email"`
}

// Account is a stored user together with its password hash. It never leaves the server.
type Account struct {
	User
	// PasswordHash is the bcrypt hash of the user's password.
	PasswordHash []byte
}

// Session holds the bearer token and the user it belongs to.
// An empty Token means there is no session.
type Session struct {
	Token string
	User  *User
}

// Valid reports whether the session carries a token.
func (s Session) Valid() bool {
	return s.Token != ""
}

// Credentials is the login request body.
type Credentials struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// LoginResponse is the login response body.
type LoginResponse struct {
	Token string `json:"token"`
	User  User   `json:"user"`
}

// CustomerStatus is the lifecycle tag of a customer record.
type CustomerStatus string

const (
	// StatusLead is a prospect that has not bought yet.
	StatusLead CustomerStatus = "lead"
	// StatusActive is a paying customer.
	StatusActive CustomerStatus = "active"
	// StatusInactive is a customer that stopped buying.
	StatusInactive CustomerStatus = "inactive"
)

// Valid reports whether s is one of the known status tags.
func (s CustomerStatus) Valid() bool {
	switch s {
	case StatusLead, StatusActive, StatusInactive:
		return true
	}
	return false
}

// Customer is a CRM customer record. JSON names follow the remote API.
type Customer struct {
	ID     string         `json:"id,omitempty"`
	Name   string         `json:"nome"`
	Email  string         `json:"email"`
	Phone  string         `json:"telefone,omitempty"`
	Status CustomerStatus `json:"status"`
}

// CustomerPatch is a partial customer update; nil fields are left untouched.
type CustomerPatch struct {
	Name   *string         `json:"nome,omitempty"`
	Email  *string         `json:"email,omitempty"`
	Phone  *string         `json:"telefone,omitempty"`
	Status *CustomerStatus `json:"status,omitempty"`
}

// Empty reports whether the patch changes nothing.
func (p CustomerPatch) Empty() bool {
	return p.Name == nil && p.Email == nil && p.Phone == nil && p.Status == nil
}

// Apply returns a copy of c with the non-nil fields of p applied.
func (c Customer) Apply(p CustomerPatch) Customer {
	if p.Name != nil {
		c.Name = *p.Name
	}
	if p.Email != nil {
		c.Email = *p.Email
	}
	if p.Phone != nil {
		c.Phone = *p.Phone
	}
	if p.Status != nil {
		c.Status = *p.Status
	}
	return c
}

// Sale is a single sale booked against a customer.
type Sale struct {
	ID          string    `json:"id,omitempty"`
	CustomerID  string    `json:"clienteId"`
	Amount      float64   `json:"valor"`
	Description string    `json:"descricao,omitempty"`
	Date        time.Time `json:"data"`
}

// DashboardStats holds the aggregates shown on the dashboard screen.
type DashboardStats struct {
	// TotalClientes is the number of live customers.
	TotalClientes int64 `json:"totalClientes"`
	// VendasMes is the sum of sales in the current month.
	VendasMes float64 `json:"vendasMes"`
	// NovosLeads is the number of leads created in the current month.
	NovosLeads int64 `json:"novosLeads"`
}
