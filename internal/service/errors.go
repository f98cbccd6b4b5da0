// Package service holds the reference server's business rules, delegating
// persistence to repository interfaces.
package service

import "errors"

var (
	// ErrInvalidCredentials is returned by Login for an unknown e-mail or a
	// wrong password.
	ErrInvalidCredentials = errors.New("invalid credentials")
	// ErrInvalidInput wraps every validation failure.
	ErrInvalidInput = errors.New("invalid input")
)
