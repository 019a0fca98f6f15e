// Copyright (c) 2024-2025 Darcy Buskermolen <darcy@dbitech.ca>
// SPDX-License-Identifier: BSD-3-Clause

// Package repository persists user accounts and the movie catalog. Users and
// movies live in separate databases, each behind its own connection pool.
package repository

import (
	"context"
	"database/sql"
	"embed"
	"fmt"
	"sync"
	"time"

	"github.com/VA7DBI/movieAPI/config"
	_ "github.com/jackc/pgx/v5/stdlib"
	_ "github.com/lib/pq"
	"github.com/pressly/goose/v3"
)

// Schema names, also the migration directories.
const (
	SchemaUsers  = "users"
	SchemaMovies = "movies"
)

//go:embed migrations/users/*.sql migrations/movies/*.sql
var migrations embed.FS

// goose keeps its base FS and dialect in package globals.
var gooseMu sync.Mutex

// DBTX is the subset of *sql.DB and *sql.Tx the repositories need.
type DBTX interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// Database owns one connection pool.
type Database struct {
	db      *sql.DB
	schema  string
	timeout time.Duration
}

// Open connects to the database described by cfg and verifies it answers.
func Open(ctx context.Context, cfg config.DatabaseConfig, schema string) (*Database, error) {
	db, err := sql.Open(cfg.Driver, cfg.DSN())
	if err != nil {
		return nil, fmt.Errorf("%s database connection failed: %w", schema, err)
	}
	db.SetMaxOpenConns(cfg.MaxOpenConns)
	db.SetMaxIdleConns(cfg.MaxIdleConns)
	db.SetConnMaxLifetime(time.Duration(cfg.ConnMaxLifetime) * time.Second)

	d := NewDatabase(db, schema, cfg.Timeout())
	if err := d.Ping(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("%s database ping failed: %w", schema, err)
	}
	return d, nil
}

// NewDatabase wraps an existing pool.
func NewDatabase(db *sql.DB, schema string, timeout time.Duration) *Database {
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	return &Database{db: db, schema: schema, timeout: timeout}
}

func (d *Database) DB() *sql.DB {
	return d.db
}

func (d *Database) Schema() string {
	return d.schema
}

func (d *Database) Timeout() time.Duration {
	return d.timeout
}

func (d *Database) Ping(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, d.timeout)
	defer cancel()
	return d.db.PingContext(ctx)
}

// Migrate applies the embedded migrations for this database's schema.
func (d *Database) Migrate(ctx context.Context) error {
	gooseMu.Lock()
	defer gooseMu.Unlock()

	goose.SetBaseFS(migrations)
	if err := goose.SetDialect("postgres"); err != nil {
		return err
	}
	if err := goose.UpContext(ctx, d.db, "migrations/"+d.schema); err != nil {
		return fmt.Errorf("migrate %s: %w", d.schema, err)
	}
	return nil
}

func (d *Database) Close() error {
	return d.db.Close()
}
