// Copyright (c) 2024-2025 Darcy Buskermolen <darcy@dbitech.ca>
// SPDX-License-Identifier: BSD-3-Clause

package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"
)

// User is an account record. PasswordHash never leaves the server.
type User struct {
	ID           int64     `json:"-"`
	Username     string    `json:"username"`
	PasswordHash string    `json:"-"`
	IsAdmin      bool      `json:"isAdmin"`
	CreatedAt    time.Time `json:"createdAt"`
}

// UserRepository stores accounts. Usernames are unique.
type UserRepository interface {
	Create(ctx context.Context, username, passwordHash string, isAdmin bool) (*User, error)
	GetByUsername(ctx context.Context, username string) (*User, error)
	List(ctx context.Context) ([]User, error)
	Delete(ctx context.Context, username string) error
	SetAdmin(ctx context.Context, username string, isAdmin bool) error
	SetPassword(ctx context.Context, username, passwordHash string) error
}

// PostgresUserRepository implements UserRepository for PostgreSQL
type PostgresUserRepository struct {
	db      DBTX
	timeout time.Duration
}

func NewPostgresUserRepository(db DBTX, timeout time.Duration) *PostgresUserRepository {
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	return &PostgresUserRepository{db: db, timeout: timeout}
}

func (r *PostgresUserRepository) Create(ctx context.Context, username, passwordHash string, isAdmin bool) (*User, error) {
	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	u := &User{Username: username, PasswordHash: passwordHash, IsAdmin: isAdmin}
	err := r.db.QueryRowContext(ctx, `
INSERT INTO users (username, password_hash, is_admin)
VALUES ($1, $2, $3)
RETURNING id, created_at`, username, passwordHash, isAdmin).Scan(&u.ID, &u.CreatedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return nil, ErrDuplicateUsername
		}
		return nil, fmt.Errorf("insert user: %w", err)
	}
	return u, nil
}

func (r *PostgresUserRepository) GetByUsername(ctx context.Context, username string) (*User, error) {
	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	u := &User{}
	err := r.db.QueryRowContext(ctx, `
SELECT id, username, password_hash, is_admin, created_at
FROM users
WHERE username = $1`, username).Scan(&u.ID, &u.Username, &u.PasswordHash, &u.IsAdmin, &u.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("select user: %w", err)
	}
	return u, nil
}

func (r *PostgresUserRepository) List(ctx context.Context) ([]User, error) {
	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	rows, err := r.db.QueryContext(ctx, `
SELECT id, username, is_admin, created_at
FROM users
ORDER BY username`)
	if err != nil {
		return nil, fmt.Errorf("list users: %w", err)
	}
	defer rows.Close()

	users := []User{}
	for rows.Next() {
		var u User
		if err := rows.Scan(&u.ID, &u.Username, &u.IsAdmin, &u.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan user: %w", err)
		}
		users = append(users, u)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list users: %w", err)
	}
	return users, nil
}

func (r *PostgresUserRepository) Delete(ctx context.Context, username string) error {
	return r.execOne(ctx, "delete user", `DELETE FROM users WHERE username = $1`, username)
}

func (r *PostgresUserRepository) SetAdmin(ctx context.Context, username string, isAdmin bool) error {
	return r.execOne(ctx, "update user role", `UPDATE users SET is_admin = $2 WHERE username = $1`, username, isAdmin)
}

func (r *PostgresUserRepository) SetPassword(ctx context.Context, username, passwordHash string) error {
	return r.execOne(ctx, "update user password", `UPDATE users SET password_hash = $2 WHERE username = $1`, username, passwordHash)
}

// execOne runs a statement expected to touch exactly one row.
func (r *PostgresUserRepository) execOne(ctx context.Context, op, query string, args ...any) error {
	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	res, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}
