// Copyright (c) 2024-2025 Darcy Buskermolen <darcy@dbitech.ca>
// SPDX-License-Identifier: BSD-3-Clause

package middleware

import (
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"net/http"
	"strings"

	"github.com/VA7DBI/movieAPI/audit"
	"github.com/VA7DBI/movieAPI/auth"
	"github.com/VA7DBI/movieAPI/logging"
	"github.com/VA7DBI/movieAPI/metrics"
	"github.com/gin-gonic/gin"
	"github.com/go-logr/logr"
)

// Rejection messages. The guard never reveals which check failed beyond these.
const (
	MsgTokenRequired  = "access token required"
	MsgSessionInvalid = "session expired or invalid"
	MsgInvalidToken   = "invalid token"
	MsgAdminRequired  = "admin access required"
)

const identityContextKey = "movieapi.identity"

// Identity is the authenticated caller, decoded from the signed token.
type Identity struct {
	Username string
	IsAdmin  bool
	Token    string
}

// IdentityFrom returns the identity attached by the session guard.
func IdentityFrom(c *gin.Context) (Identity, bool) {
	v, ok := c.Get(identityContextKey)
	if !ok {
		return Identity{}, false
	}
	id, ok := v.(Identity)
	return id, ok
}

// TokenParser validates a token and returns its claims.
type TokenParser interface {
	Parse(token string) (*auth.Claims, error)
}

// AuthMiddleware gates requests on a live session and a valid token
type AuthMiddleware struct {
	sessions auth.SessionStore
	tokens   TokenParser
	audit    *audit.Logger
	log      logr.Logger
}

// NewAuthMiddleware creates a new auth middleware instance
func NewAuthMiddleware(sessions auth.SessionStore, tokens TokenParser, auditLog *audit.Logger, logger logr.Logger) *AuthMiddleware {
	return &AuthMiddleware{
		sessions: sessions,
		tokens:   tokens,
		audit:    auditLog,
		log:      logging.OrDiscard(logger).WithName("session-guard"),
	}
}

// Handler returns the session guard. A request passes only when a session
// marker exists for the exact token AND the token's signature and expiry
// check out. The role is taken from the signed claims, so a role change in
// storage does not affect tokens already issued.
func (m *AuthMiddleware) Handler() gin.HandlerFunc {
	return m.guard(false)
}

// Revocation is the guard for logout. It differs from Handler only in
// letting a correctly signed token through when its marker is already gone,
// so that revoking twice succeeds twice.
func (m *AuthMiddleware) Revocation() gin.HandlerFunc {
	return m.guard(true)
}

func (m *AuthMiddleware) guard(allowMissingSession bool) gin.HandlerFunc {
	return func(c *gin.Context) {
		token := extractToken(c)
		if token == "" {
			metrics.SessionChecks.WithLabelValues(metrics.SessionNoToken).Inc()
			reject(c, http.StatusUnauthorized, MsgTokenRequired)
			return
		}

		ctx := c.Request.Context()
		session, err := m.sessions.Get(ctx, token)
		switch {
		case err == nil:
		case errors.Is(err, auth.ErrSessionNotFound):
			if !allowMissingSession {
				metrics.SessionChecks.WithLabelValues(metrics.SessionNotFound).Inc()
				reject(c, http.StatusUnauthorized, MsgSessionInvalid)
				return
			}
		default:
			// answered like a missing session; only logs and metrics tell them apart
			metrics.SessionChecks.WithLabelValues(metrics.SessionStoreUnavailable).Inc()
			m.log.Error(err, "session store unavailable", "path", c.FullPath())
			m.audit.Failure(ctx, audit.EventSessionStoreUnavailable, err, "ip", c.ClientIP())
			reject(c, http.StatusUnauthorized, MsgSessionInvalid)
			return
		}

		claims, err := m.tokens.Parse(token)
		if err != nil {
			metrics.SessionChecks.WithLabelValues(metrics.SessionInvalidToken).Inc()
			m.audit.Event(ctx, audit.EventInvalidToken,
				"username", session.Username,
				"ip", c.ClientIP(),
				"token_fingerprint", fingerprint(token),
				"reason", err.Error(),
			)
			reject(c, http.StatusUnauthorized, MsgInvalidToken)
			return
		}

		metrics.SessionChecks.WithLabelValues(metrics.SessionAuthorized).Inc()
		c.Set(identityContextKey, Identity{
			Username: claims.Username,
			IsAdmin:  claims.IsAdmin,
			Token:    token,
		})
		c.Next()
	}
}

// RequireAdmin is the role gate. It must run after Handler.
func (m *AuthMiddleware) RequireAdmin() gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := IdentityFrom(c)
		if !ok || !id.IsAdmin {
			metrics.AdminDenials.Inc()
			m.audit.Event(c.Request.Context(), audit.EventUnauthorizedAdminAccess,
				"username", id.Username,
				"ip", c.ClientIP(),
				"method", c.Request.Method,
				"path", c.Request.URL.Path,
			)
			reject(c, http.StatusForbidden, MsgAdminRequired)
			return
		}
		c.Next()
	}
}

func reject(c *gin.Context, status int, msg string) {
	c.AbortWithStatusJSON(status, gin.H{"error": msg})
}

func extractToken(c *gin.Context) string {
	authHeader := c.GetHeader("Authorization")
	if authHeader == "" {
		return ""
	}

	parts := strings.Split(authHeader, " ")
	if len(parts) != 2 || parts[0] != "Bearer" {
		return ""
	}

	return parts[1]
}

func fingerprint(token string) string {
	sum := sha256.Sum256([]byte(token))
	return hex.EncodeToString(sum[:4])
}
