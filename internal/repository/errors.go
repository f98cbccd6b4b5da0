// Package repository implements the reference server's persistence on
// PostgreSQL.
package repository

import "errors"

var (
	// ErrNotFound is returned when the requested row does not exist or was
	// soft-deleted.
	ErrNotFound = errors.New("not found")
	// ErrConflict is returned when a unique value is already taken.
	ErrConflict = errors.New("already exists")
)
