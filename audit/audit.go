// Copyright (c) 2024-2025 Darcy Buskermolen <darcy@dbitech.ca>
// SPDX-License-Identifier: BSD-3-Clause

// Package audit records security-relevant events as structured log lines.
package audit

import (
	"context"

	"github.com/VA7DBI/movieAPI/logging"
	"github.com/go-logr/logr"
)

// Event names.
const (
	EventLoginSuccess            = "login_success"
	EventLoginFailure            = "login_failure"
	EventLogout                  = "logout"
	EventInvalidToken            = "invalid_token"
	EventUnauthorizedAdminAccess = "unauthorized_admin_access"
	EventSessionStoreUnavailable = "session_store_unavailable"
	EventUserRegistered          = "user_registered"
	EventUserCreated             = "user_created"
	EventUserDeleted             = "user_deleted"
	EventUserRoleChanged         = "user_role_changed"
	EventMovieDeleted            = "movie_deleted"
)

type requestIDKey struct{}

// WithRequestID returns a context carrying the request correlation id.
func WithRequestID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, requestIDKey{}, id)
}

// RequestID returns the correlation id stored in ctx, if any.
func RequestID(ctx context.Context) string {
	id, _ := ctx.Value(requestIDKey{}).(string)
	return id
}

// Logger emits audit events. The zero value discards everything.
type Logger struct {
	log logr.Logger
}

func New(logger logr.Logger) *Logger {
	return &Logger{log: logging.OrDiscard(logger).WithName("audit")}
}

// Event records name with the given key/value pairs and the request id.
func (l *Logger) Event(ctx context.Context, name string, keysAndValues ...any) {
	if l == nil {
		return
	}
	kv := append([]any{"event", name}, keysAndValues...)
	if id := RequestID(ctx); id != "" {
		kv = append(kv, "request_id", id)
	}
	l.log.Info("audit", kv...)
}

// Failure records an event caused by err.
func (l *Logger) Failure(ctx context.Context, name string, err error, keysAndValues ...any) {
	if l == nil {
		return
	}
	kv := append([]any{"event", name}, keysAndValues...)
	if id := RequestID(ctx); id != "" {
		kv = append(kv, "request_id", id)
	}
	l.log.Error(err, "audit", kv...)
}
