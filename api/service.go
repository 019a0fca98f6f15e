// Copyright (c) 2024-2025 Darcy Buskermolen <darcy@dbitech.ca>
// SPDX-License-Identifier: BSD-3-Clause

// Package api implements the HTTP handlers for accounts, sessions and the
// movie catalog.
package api

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/VA7DBI/movieAPI/audit"
	"github.com/VA7DBI/movieAPI/auth"
	"github.com/VA7DBI/movieAPI/logging"
	"github.com/VA7DBI/movieAPI/repository"
	"github.com/gin-gonic/gin"
	"github.com/go-logr/logr"
)

const msgInternalError = "internal server error"

// Pinger reports whether a dependency is reachable.
type Pinger interface {
	Ping(ctx context.Context) error
}

// Dependencies are the collaborators a Service is built from. All of them
// are constructed by the caller, which also owns their lifecycle.
type Dependencies struct {
	Users     repository.UserRepository
	Movies    repository.MovieRepository
	Sessions  auth.SessionStore
	Passwords *auth.PasswordHasher
	Tokens    *auth.TokenIssuer
	Audit     *audit.Logger
	Logger    logr.Logger

	// UsersDB and MoviesDB feed the health check; nil means always up.
	UsersDB  Pinger
	MoviesDB Pinger
}

type Service struct {
	users     repository.UserRepository
	movies    repository.MovieRepository
	sessions  auth.SessionStore
	passwords *auth.PasswordHasher
	tokens    *auth.TokenIssuer
	audit     *audit.Logger
	log       logr.Logger
	usersDB   Pinger
	moviesDB  Pinger
	now       func() time.Time
}

func NewService(deps Dependencies) (*Service, error) {
	switch {
	case deps.Users == nil:
		return nil, errors.New("api: user repository is required")
	case deps.Movies == nil:
		return nil, errors.New("api: movie repository is required")
	case deps.Sessions == nil:
		return nil, errors.New("api: session store is required")
	case deps.Passwords == nil:
		return nil, errors.New("api: password hasher is required")
	case deps.Tokens == nil:
		return nil, errors.New("api: token issuer is required")
	}

	logger := logging.OrDiscard(deps.Logger)
	auditLog := deps.Audit
	if auditLog == nil {
		auditLog = audit.New(logger)
	}

	return &Service{
		users:     deps.Users,
		movies:    deps.Movies,
		sessions:  deps.Sessions,
		passwords: deps.Passwords,
		tokens:    deps.Tokens,
		audit:     auditLog,
		log:       logger.WithName("api"),
		usersDB:   deps.UsersDB,
		moviesDB:  deps.MoviesDB,
		now:       time.Now,
	}, nil
}

// ErrorResponse represents an API error response
type ErrorResponse struct {
	Error string `json:"error"`
}

// MessageResponse is returned by operations without a richer payload.
type MessageResponse struct {
	Message string `json:"message"`
}

// UserResponse is the public view of an account.
type UserResponse struct {
	Username string `json:"username"`
	IsAdmin  bool   `json:"isAdmin"`
}

func abortWithError(c *gin.Context, status int, msg string) {
	c.AbortWithStatusJSON(status, ErrorResponse{Error: msg})
}

// internalError logs err with context and answers with a generic 500.
func (s *Service) internalError(c *gin.Context, err error, msg string, keysAndValues ...any) {
	kv := append([]any{"path", c.FullPath(), "request_id", audit.RequestID(c.Request.Context())}, keysAndValues...)
	s.log.Error(err, msg, kv...)
	abortWithError(c, http.StatusInternalServerError, msgInternalError)
}
