// Copyright (c) 2024-2025 Darcy Buskermolen <darcy@dbitech.ca>
// SPDX-License-Identifier: BSD-3-Clause

package auth

import (
	"context"
	"sync"
	"time"
)

type mockEntry struct {
	session   Session
	expiresAt time.Time
}

// MockSessionStore is an in-memory SessionStore for testing. It honours TTL
// against Now and can simulate an outage through SetUnavailable.
type MockSessionStore struct {
	mu          sync.Mutex
	ttl         time.Duration
	sessions    map[string]mockEntry
	unavailable bool

	Now func() time.Time
}

func NewMockSessionStore(ttl time.Duration) *MockSessionStore {
	return &MockSessionStore{
		ttl:      ttl,
		sessions: make(map[string]mockEntry),
		Now:      time.Now,
	}
}

// SetUnavailable makes every call fail with ErrStoreUnavailable.
func (m *MockSessionStore) SetUnavailable(down bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.unavailable = down
}

// Len reports the number of live markers.
func (m *MockSessionStore) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	n := 0
	now := m.Now()
	for _, e := range m.sessions {
		if now.Before(e.expiresAt) {
			n++
		}
	}
	return n
}

func (m *MockSessionStore) Put(_ context.Context, token string, session Session) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.unavailable {
		return ErrStoreUnavailable
	}
	m.sessions[token] = mockEntry{session: session, expiresAt: m.Now().Add(m.ttl)}
	return nil
}

func (m *MockSessionStore) Get(_ context.Context, token string) (Session, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.unavailable {
		return Session{}, ErrStoreUnavailable
	}
	e, ok := m.sessions[token]
	if !ok {
		return Session{}, ErrSessionNotFound
	}
	if !m.Now().Before(e.expiresAt) {
		delete(m.sessions, token)
		return Session{}, ErrSessionNotFound
	}
	return e.session, nil
}

func (m *MockSessionStore) Delete(_ context.Context, token string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.unavailable {
		return ErrStoreUnavailable
	}
	delete(m.sessions, token)
	return nil
}

func (m *MockSessionStore) Ping(context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.unavailable {
		return ErrStoreUnavailable
	}
	return nil
}
