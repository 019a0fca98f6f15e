// Copyright (c) 2024-2025 Darcy Buskermolen <darcy@dbitech.ca>
// SPDX-License-Identifier: BSD-3-Clause

package api

import (
	"errors"
	"net/http"
	"regexp"

	"github.com/VA7DBI/movieAPI/audit"
	"github.com/VA7DBI/movieAPI/auth"
	"github.com/VA7DBI/movieAPI/metrics"
	"github.com/VA7DBI/movieAPI/middleware"
	"github.com/VA7DBI/movieAPI/repository"
	"github.com/gin-gonic/gin"
)

const (
	// MsgLoginFailed is shared by the unknown-user and wrong-password paths.
	MsgLoginFailed     = "please login with correct id and pass"
	msgInvalidUsername = "username must be 3-50 characters of letters, digits, '_', '.' or '-'"
	msgCredentials     = "username and password are required; password must be 6-72 characters"
	msgDuplicateUser   = "username already exists"
)

var usernamePattern = regexp.MustCompile(`^[a-zA-Z0-9_][a-zA-Z0-9_.-]{2,49}$`)

// CredentialsRequest is the body of register, login and admin user creation.
type CredentialsRequest struct {
	Username string `json:"username" binding:"required,max=50"`
	Password string `json:"password" binding:"required,min=6,max=72"`
}

// LoginResponse carries the bearer token for subsequent calls.
type LoginResponse struct {
	Message string       `json:"message"`
	Token   string       `json:"token"`
	User    UserResponse `json:"user"`
}

// RegisterResponse describes the account just created.
type RegisterResponse struct {
	Message string       `json:"message"`
	User    UserResponse `json:"user"`
}

// bindCredentials decodes and validates a credentials body, answering 400 on
// failure.
func bindCredentials(c *gin.Context) (CredentialsRequest, bool) {
	var req CredentialsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abortWithError(c, http.StatusBadRequest, msgCredentials)
		return req, false
	}
	if !usernamePattern.MatchString(req.Username) {
		abortWithError(c, http.StatusBadRequest, msgInvalidUsername)
		return req, false
	}
	return req, true
}

// createUser hashes the password and stores the account, answering the
// failure itself when it returns nil.
func (s *Service) createUser(c *gin.Context, req CredentialsRequest, isAdmin bool) *repository.User {
	hash, err := s.passwords.Hash(req.Password)
	if err != nil {
		if errors.Is(err, auth.ErrPasswordTooLong) {
			abortWithError(c, http.StatusBadRequest, msgCredentials)
			return nil
		}
		s.internalError(c, err, "password hashing failed")
		return nil
	}

	user, err := s.users.Create(c.Request.Context(), req.Username, hash, isAdmin)
	if errors.Is(err, repository.ErrDuplicateUsername) {
		abortWithError(c, http.StatusBadRequest, msgDuplicateUser)
		return nil
	}
	if err != nil {
		s.internalError(c, err, "user insert failed", "username", req.Username)
		return nil
	}
	return user
}

// @Summary     Register a new account
// @Tags        auth
// @Accept      json
// @Produce     json
// @Param       body body CredentialsRequest true "Credentials"
// @Success     201 {object} RegisterResponse
// @Failure     400 {object} ErrorResponse
// @Failure     500 {object} ErrorResponse
// @Router      /api/auth/register [post]
func (s *Service) RegisterHandler(c *gin.Context) {
	req, ok := bindCredentials(c)
	if !ok {
		return
	}

	user := s.createUser(c, req, false)
	if user == nil {
		return
	}

	s.audit.Event(c.Request.Context(), audit.EventUserRegistered, "username", user.Username, "ip", c.ClientIP())
	c.JSON(http.StatusCreated, RegisterResponse{
		Message: "user registered successfully",
		User:    UserResponse{Username: user.Username, IsAdmin: user.IsAdmin},
	})
}

// @Summary     Log in and obtain a bearer token
// @Description The token is valid for 10 minutes or until logout.
// @Tags        auth
// @Accept      json
// @Produce     json
// @Param       body body CredentialsRequest true "Credentials"
// @Success     200 {object} LoginResponse
// @Failure     400 {object} ErrorResponse
// @Failure     401 {object} ErrorResponse
// @Failure     500 {object} ErrorResponse
// @Router      /api/auth/login [post]
func (s *Service) LoginHandler(c *gin.Context) {
	var req struct {
		Username string `json:"username" binding:"required"`
		Password string `json:"password" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		abortWithError(c, http.StatusBadRequest, msgCredentials)
		return
	}
	ctx := c.Request.Context()

	user, err := s.users.GetByUsername(ctx, req.Username)
	if errors.Is(err, repository.ErrNotFound) {
		s.passwords.Burn(req.Password)
		s.loginFailed(c, req.Username, "unknown_user")
		return
	}
	if err != nil {
		metrics.LoginAttempts.WithLabelValues("error").Inc()
		s.internalError(c, err, "user lookup failed", "username", req.Username)
		return
	}

	if !s.passwords.Verify(req.Password, user.PasswordHash) {
		s.loginFailed(c, req.Username, "wrong_password")
		return
	}

	token, err := s.tokens.Issue(user.Username, user.IsAdmin)
	if err != nil {
		metrics.LoginAttempts.WithLabelValues("error").Inc()
		s.internalError(c, err, "token issue failed", "username", user.Username)
		return
	}

	if err := s.sessions.Put(ctx, token, auth.Session{Username: user.Username, IsAdmin: user.IsAdmin}); err != nil {
		metrics.LoginAttempts.WithLabelValues("error").Inc()
		s.internalError(c, err, "session write failed", "username", user.Username)
		return
	}

	metrics.LoginAttempts.WithLabelValues("success").Inc()
	s.audit.Event(ctx, audit.EventLoginSuccess, "username", user.Username, "ip", c.ClientIP())
	c.JSON(http.StatusOK, LoginResponse{
		Message: "login successful",
		Token:   token,
		User:    UserResponse{Username: user.Username, IsAdmin: user.IsAdmin},
	})
}

// loginFailed answers every credential failure identically; only the audit
// log learns the reason.
func (s *Service) loginFailed(c *gin.Context, username, reason string) {
	metrics.LoginAttempts.WithLabelValues(reason).Inc()
	s.audit.Event(c.Request.Context(), audit.EventLoginFailure, "username", username, "reason", reason, "ip", c.ClientIP())
	abortWithError(c, http.StatusUnauthorized, MsgLoginFailed)
}

// @Summary     Log out and revoke the presented token
// @Tags        auth
// @Produce     json
// @Security    BearerAuth
// @Success     200 {object} MessageResponse
// @Failure     401 {object} ErrorResponse
// @Failure     500 {object} ErrorResponse
// @Router      /api/auth/logout [post]
func (s *Service) LogoutHandler(c *gin.Context) {
	id, ok := middleware.IdentityFrom(c)
	if !ok {
		abortWithError(c, http.StatusUnauthorized, middleware.MsgTokenRequired)
		return
	}

	if err := s.sessions.Delete(c.Request.Context(), id.Token); err != nil {
		s.internalError(c, err, "session delete failed", "username", id.Username)
		return
	}

	s.audit.Event(c.Request.Context(), audit.EventLogout, "username", id.Username, "ip", c.ClientIP())
	c.JSON(http.StatusOK, MessageResponse{Message: "logout successful"})
}
