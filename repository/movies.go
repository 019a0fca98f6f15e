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

type Movie struct {
	ID          int64     `json:"id"`
	Title       string    `json:"title"`
	Director    string    `json:"director"`
	Year        int       `json:"year"`
	Genre       string    `json:"genre"`
	Rating      float64   `json:"rating"`
	Description string    `json:"description"`
	CreatedBy   string    `json:"createdBy"`
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`
}

// MovieRepository stores the catalog.
type MovieRepository interface {
	List(ctx context.Context) ([]Movie, error)
	Get(ctx context.Context, id int64) (*Movie, error)
	Create(ctx context.Context, m *Movie) error
	Update(ctx context.Context, m *Movie) error
	Delete(ctx context.Context, id int64) error
}

// PostgresMovieRepository implements MovieRepository for PostgreSQL
type PostgresMovieRepository struct {
	db      DBTX
	timeout time.Duration
}

func NewPostgresMovieRepository(db DBTX, timeout time.Duration) *PostgresMovieRepository {
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	return &PostgresMovieRepository{db: db, timeout: timeout}
}

const movieColumns = `id, title, director, year, genre, rating, description, created_by, created_at, updated_at`

type scanner interface {
	Scan(dest ...any) error
}

func scanMovie(s scanner, m *Movie) error {
	return s.Scan(&m.ID, &m.Title, &m.Director, &m.Year, &m.Genre, &m.Rating,
		&m.Description, &m.CreatedBy, &m.CreatedAt, &m.UpdatedAt)
}

func (r *PostgresMovieRepository) List(ctx context.Context) ([]Movie, error) {
	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	rows, err := r.db.QueryContext(ctx, `SELECT `+movieColumns+` FROM movies ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("list movies: %w", err)
	}
	defer rows.Close()

	movies := []Movie{}
	for rows.Next() {
		var m Movie
		if err := scanMovie(rows, &m); err != nil {
			return nil, fmt.Errorf("scan movie: %w", err)
		}
		movies = append(movies, m)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list movies: %w", err)
	}
	return movies, nil
}

func (r *PostgresMovieRepository) Get(ctx context.Context, id int64) (*Movie, error) {
	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	m := &Movie{}
	err := scanMovie(r.db.QueryRowContext(ctx, `SELECT `+movieColumns+` FROM movies WHERE id = $1`, id), m)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("select movie: %w", err)
	}
	return m, nil
}

// Create inserts m and fills in its id and timestamps.
func (r *PostgresMovieRepository) Create(ctx context.Context, m *Movie) error {
	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	err := r.db.QueryRowContext(ctx, `
INSERT INTO movies (title, director, year, genre, rating, description, created_by)
VALUES ($1, $2, $3, $4, $5, $6, $7)
RETURNING id, created_at, updated_at`,
		m.Title, m.Director, m.Year, m.Genre, m.Rating, m.Description, m.CreatedBy,
	).Scan(&m.ID, &m.CreatedAt, &m.UpdatedAt)
	if err != nil {
		return fmt.Errorf("insert movie: %w", err)
	}
	return nil
}

// Update overwrites the editable fields of movie m.ID. CreatedBy and the
// timestamps are refreshed from the stored row.
func (r *PostgresMovieRepository) Update(ctx context.Context, m *Movie) error {
	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	err := r.db.QueryRowContext(ctx, `
UPDATE movies
SET title = $2, director = $3, year = $4, genre = $5, rating = $6, description = $7, updated_at = NOW()
WHERE id = $1
RETURNING created_by, created_at, updated_at`,
		m.ID, m.Title, m.Director, m.Year, m.Genre, m.Rating, m.Description,
	).Scan(&m.CreatedBy, &m.CreatedAt, &m.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return ErrNotFound
	}
	if err != nil {
		return fmt.Errorf("update movie: %w", err)
	}
	return nil
}

func (r *PostgresMovieRepository) Delete(ctx context.Context, id int64) error {
	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	res, err := r.db.ExecContext(ctx, `DELETE FROM movies WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete movie: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("delete movie: %w", err)
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}
