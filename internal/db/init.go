// Package db opens the reference server's Postgres database and runs its
// background maintenance.
package db

import (
	"context"
	"database/sql"
	"fmt"

	_ "github.com/lib/pq"
)

const schema = `
CREATE TABLE IF NOT EXISTS users (
    id UUID PRIMARY KEY,
    email TEXT NOT NULL UNIQUE,
    name TEXT NOT NULL,
    password_hash BYTEA NOT NULL
);

CREATE TABLE IF NOT EXISTS customers (
    id UUID PRIMARY KEY,
    nome TEXT NOT NULL,
    email TEXT NOT NULL,
    telefone TEXT NOT NULL DEFAULT '',
    status TEXT NOT NULL DEFAULT 'lead',
    created_at TIMESTAMPTZ NOT NULL DEFAULT now(),
    deleted_at TIMESTAMPTZ
);

CREATE INDEX IF NOT EXISTS customers_live_nome_idx
    ON customers (nome) WHERE deleted_at IS NULL;

CREATE TABLE IF NOT EXISTS sales (
    id UUID PRIMARY KEY,
    cliente_id UUID REFERENCES customers(id) ON DELETE SET NULL,
    valor NUMERIC(14,2) NOT NULL,
    descricao TEXT NOT NULL DEFAULT '',
    data TIMESTAMPTZ NOT NULL DEFAULT now()
);
`

// InitPostgres connects to dsn and creates the schema if needed.
func InitPostgres(ctx context.Context, dsn string) (*sql.DB, error) {
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("open postgres: %w", err)
	}

	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping postgres: %w", err)
	}

	if err := ApplySchema(ctx, db); err != nil {
		_ = db.Close()
		return nil, err
	}

	return db, nil
}

// ApplySchema creates the tables and indexes that do not exist yet.
func ApplySchema(ctx context.Context, db *sql.DB) error {
	if _, err := db.ExecContext(ctx, schema); err != nil {
		return fmt.Errorf("create schema: %w", err)
	}
	return nil
}
