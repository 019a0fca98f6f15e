// Copyright (c) 2024-2025 Darcy Buskermolen <darcy@dbitech.ca>
// SPDX-License-Identifier: BSD-3-Clause

package api

import (
	"errors"
	"net/http"

	"github.com/VA7DBI/movieAPI/audit"
	"github.com/VA7DBI/movieAPI/middleware"
	"github.com/VA7DBI/movieAPI/repository"
	"github.com/gin-gonic/gin"
)

const (
	msgUserNotFound = "user not found"
	msgDeleteSelf   = "admins cannot delete their own account"
	msgRoleRequired = "isAdmin is required"
)

// CreateUserRequest is the body of the admin user creation endpoint.
type CreateUserRequest struct {
	CredentialsRequest
	IsAdmin bool `json:"isAdmin"`
}

// RoleRequest sets or clears the admin flag.
type RoleRequest struct {
	IsAdmin *bool `json:"isAdmin" binding:"required"`
}

// @Summary     Create an account
// @Description Admin only. The new account may itself be an admin.
// @Tags        admin
// @Accept      json
// @Produce     json
// @Security    BearerAuth
// @Param       body body CreateUserRequest true "Account"
// @Success     201 {object} RegisterResponse
// @Failure     400 {object} ErrorResponse
// @Failure     401 {object} ErrorResponse
// @Failure     403 {object} ErrorResponse
// @Failure     500 {object} ErrorResponse
// @Router      /api/admin/users [post]
func (s *Service) CreateUserHandler(c *gin.Context) {
	var req CreateUserRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abortWithError(c, http.StatusBadRequest, msgCredentials)
		return
	}
	if !usernamePattern.MatchString(req.Username) {
		abortWithError(c, http.StatusBadRequest, msgInvalidUsername)
		return
	}

	user := s.createUser(c, req.CredentialsRequest, req.IsAdmin)
	if user == nil {
		return
	}

	admin, _ := middleware.IdentityFrom(c)
	s.audit.Event(c.Request.Context(), audit.EventUserCreated,
		"username", user.Username, "is_admin", user.IsAdmin, "by", admin.Username)
	c.JSON(http.StatusCreated, RegisterResponse{
		Message: "user created",
		User:    UserResponse{Username: user.Username, IsAdmin: user.IsAdmin},
	})
}

// @Summary     List accounts
// @Tags        admin
// @Produce     json
// @Security    BearerAuth
// @Success     200 {array}  repository.User
// @Failure     401 {object} ErrorResponse
// @Failure     403 {object} ErrorResponse
// @Failure     500 {object} ErrorResponse
// @Router      /api/admin/users [get]
func (s *Service) ListUsersHandler(c *gin.Context) {
	users, err := s.users.List(c.Request.Context())
	if err != nil {
		s.internalError(c, err, "user list failed")
		return
	}
	c.JSON(http.StatusOK, users)
}

// @Summary     Grant or revoke admin
// @Description Existing sessions keep the role they were issued with until they end.
// @Tags        admin
// @Accept      json
// @Produce     json
// @Security    BearerAuth
// @Param       username path string      true "Username"
// @Param       body     body RoleRequest true "Role"
// @Success     200 {object} UserResponse
// @Failure     400 {object} ErrorResponse
// @Failure     401 {object} ErrorResponse
// @Failure     403 {object} ErrorResponse
// @Failure     404 {object} ErrorResponse
// @Failure     500 {object} ErrorResponse
// @Router      /api/admin/users/{username}/role [put]
func (s *Service) SetRoleHandler(c *gin.Context) {
	var req RoleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abortWithError(c, http.StatusBadRequest, msgRoleRequired)
		return
	}
	username := c.Param("username")

	err := s.users.SetAdmin(c.Request.Context(), username, *req.IsAdmin)
	if errors.Is(err, repository.ErrNotFound) {
		abortWithError(c, http.StatusNotFound, msgUserNotFound)
		return
	}
	if err != nil {
		s.internalError(c, err, "role update failed", "username", username)
		return
	}

	admin, _ := middleware.IdentityFrom(c)
	s.audit.Event(c.Request.Context(), audit.EventUserRoleChanged,
		"username", username, "is_admin", *req.IsAdmin, "by", admin.Username)
	c.JSON(http.StatusOK, UserResponse{Username: username, IsAdmin: *req.IsAdmin})
}

// @Summary     Delete an account
// @Description Sessions already issued to the account stay valid until they expire or log out.
// @Tags        admin
// @Produce     json
// @Security    BearerAuth
// @Param       username path string true "Username"
// @Success     200 {object} MessageResponse
// @Failure     400 {object} ErrorResponse
// @Failure     401 {object} ErrorResponse
// @Failure     403 {object} ErrorResponse
// @Failure     404 {object} ErrorResponse
// @Failure     500 {object} ErrorResponse
// @Router      /api/admin/users/{username} [delete]
func (s *Service) DeleteUserHandler(c *gin.Context) {
	username := c.Param("username")
	admin, _ := middleware.IdentityFrom(c)
	if username == admin.Username {
		abortWithError(c, http.StatusBadRequest, msgDeleteSelf)
		return
	}

	err := s.users.Delete(c.Request.Context(), username)
	if errors.Is(err, repository.ErrNotFound) {
		abortWithError(c, http.StatusNotFound, msgUserNotFound)
		return
	}
	if err != nil {
		s.internalError(c, err, "user delete failed", "username", username)
		return
	}

	s.audit.Event(c.Request.Context(), audit.EventUserDeleted, "username", username, "by", admin.Username)
	c.JSON(http.StatusOK, MessageResponse{Message: "user deleted"})
}
