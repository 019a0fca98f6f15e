// Copyright (c) 2024-2025 Darcy Buskermolen <darcy@dbitech.ca>
// SPDX-License-Identifier: BSD-3-Clause

package api

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
)

const (
	statusConnected    = "connected"
	statusDisconnected = "disconnected"
	healthTimeout      = 2 * time.Second
)

// HealthResponse represents the health check response
type HealthResponse struct {
	Status    string    `json:"status"`
	Timestamp time.Time `json:"timestamp"`
	Redis     string    `json:"redis"`
	UsersDB   string    `json:"usersDb"`
	MoviesDB  string    `json:"moviesDb"`
}

// @Summary     Health check endpoint
// @Description Reports reachability of the session store and both databases.
// @Tags        health
// @Produce     json
// @Success     200 {object} HealthResponse
// @Router      /api/health [get]
func (s *Service) HealthHandler(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), healthTimeout)
	defer cancel()

	resp := HealthResponse{
		Status:    "ok",
		Timestamp: s.now().UTC(),
		Redis:     s.probe(ctx, s.sessions, "redis"),
		UsersDB:   s.probe(ctx, s.usersDB, "users_db"),
		MoviesDB:  s.probe(ctx, s.moviesDB, "movies_db"),
	}
	for _, st := range []string{resp.Redis, resp.UsersDB, resp.MoviesDB} {
		if st != statusConnected {
			resp.Status = "degraded"
		}
	}
	c.JSON(http.StatusOK, resp)
}

func (s *Service) probe(ctx context.Context, p Pinger, name string) string {
	if p == nil {
		return statusConnected
	}
	if err := p.Ping(ctx); err != nil {
		s.log.V(1).Info("health probe failed", "dependency", name, "error", err.Error())
		return statusDisconnected
	}
	return statusConnected
}
