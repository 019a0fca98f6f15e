// Copyright (c) 2024-2025 Darcy Buskermolen <darcy@dbitech.ca>
// SPDX-License-Identifier: BSD-3-Clause

package repository

import (
	"context"
	"sort"
	"sync"
	"time"
)

// MemoryUserRepository keeps accounts in process memory. It backs the
// "memory" driver for single-binary development runs and the API tests.
type MemoryUserRepository struct {
	mu     sync.RWMutex
	nextID int64
	users  map[string]User
}

func NewMemoryUserRepository() *MemoryUserRepository {
	return &MemoryUserRepository{users: make(map[string]User)}
}

func (r *MemoryUserRepository) Create(_ context.Context, username, passwordHash string, isAdmin bool) (*User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.users[username]; exists {
		return nil, ErrDuplicateUsername
	}
	r.nextID++
	u := User{
		ID:           r.nextID,
		Username:     username,
		PasswordHash: passwordHash,
		IsAdmin:      isAdmin,
		CreatedAt:    time.Now().UTC(),
	}
	r.users[username] = u
	return &u, nil
}

func (r *MemoryUserRepository) GetByUsername(_ context.Context, username string) (*User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	u, ok := r.users[username]
	if !ok {
		return nil, ErrNotFound
	}
	return &u, nil
}

func (r *MemoryUserRepository) List(context.Context) ([]User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	users := make([]User, 0, len(r.users))
	for _, u := range r.users {
		u.PasswordHash = ""
		users = append(users, u)
	}
	sort.Slice(users, func(i, j int) bool { return users[i].Username < users[j].Username })
	return users, nil
}

func (r *MemoryUserRepository) Delete(_ context.Context, username string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.users[username]; !ok {
		return ErrNotFound
	}
	delete(r.users, username)
	return nil
}

func (r *MemoryUserRepository) SetAdmin(_ context.Context, username string, isAdmin bool) error {
	return r.update(username, func(u *User) { u.IsAdmin = isAdmin })
}

func (r *MemoryUserRepository) SetPassword(_ context.Context, username, passwordHash string) error {
	return r.update(username, func(u *User) { u.PasswordHash = passwordHash })
}

func (r *MemoryUserRepository) update(username string, fn func(*User)) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	u, ok := r.users[username]
	if !ok {
		return ErrNotFound
	}
	fn(&u)
	r.users[username] = u
	return nil
}

// MemoryMovieRepository keeps the catalog in process memory.
type MemoryMovieRepository struct {
	mu     sync.RWMutex
	nextID int64
	movies map[int64]Movie
}

func NewMemoryMovieRepository() *MemoryMovieRepository {
	return &MemoryMovieRepository{movies: make(map[int64]Movie)}
}

func (r *MemoryMovieRepository) List(context.Context) ([]Movie, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	movies := make([]Movie, 0, len(r.movies))
	for _, m := range r.movies {
		movies = append(movies, m)
	}
	sort.Slice(movies, func(i, j int) bool { return movies[i].ID < movies[j].ID })
	return movies, nil
}

func (r *MemoryMovieRepository) Get(_ context.Context, id int64) (*Movie, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	m, ok := r.movies[id]
	if !ok {
		return nil, ErrNotFound
	}
	return &m, nil
}

func (r *MemoryMovieRepository) Create(_ context.Context, m *Movie) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.nextID++
	now := time.Now().UTC()
	m.ID = r.nextID
	m.CreatedAt = now
	m.UpdatedAt = now
	r.movies[m.ID] = *m
	return nil
}

func (r *MemoryMovieRepository) Update(_ context.Context, m *Movie) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	stored, ok := r.movies[m.ID]
	if !ok {
		return ErrNotFound
	}
	m.CreatedBy = stored.CreatedBy
	m.CreatedAt = stored.CreatedAt
	m.UpdatedAt = time.Now().UTC()
	r.movies[m.ID] = *m
	return nil
}

func (r *MemoryMovieRepository) Delete(_ context.Context, id int64) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.movies[id]; !ok {
		return ErrNotFound
	}
	delete(r.movies, id)
	return nil
}
