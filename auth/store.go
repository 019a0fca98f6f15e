// Copyright (c) 2024-2025 Darcy Buskermolen <darcy@dbitech.ca>
// SPDX-License-Identifier: BSD-3-Clause

package auth

import (
	"context"
	"errors"
)

var (
	// ErrSessionNotFound means no live session marker exists for the token.
	ErrSessionNotFound = errors.New("session not found")
	// ErrStoreUnavailable wraps transport failures and timeouts talking to
	// the session store. It is never collapsed into ErrSessionNotFound.
	ErrStoreUnavailable = errors.New("session store unavailable")
)

// Session is the marker kept in the store for every issued token.
type Session struct {
	Username string `json:"username"`
	IsAdmin  bool   `json:"isAdmin"`
}

// SessionStore holds one marker per issued token, keyed by the exact token
// string. Markers expire after a fixed TTL set by Put and are not renewed by
// Get.
type SessionStore interface {
	Put(ctx context.Context, token string, session Session) error
	Get(ctx context.Context, token string) (Session, error)
	// Delete is idempotent; deleting an absent marker is not an error.
	Delete(ctx context.Context, token string) error
	Ping(ctx context.Context) error
}
