// Copyright (c) 2024-2025 Darcy Buskermolen <darcy@dbitech.ca>
// SPDX-License-Identifier: BSD-3-Clause

package api

import (
	"github.com/VA7DBI/movieAPI/config"
	"github.com/VA7DBI/movieAPI/docs"
	"github.com/VA7DBI/movieAPI/middleware"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
)

// NewRouter wires the handlers of svc behind the session guard and role
// gate.
//
// @title                      Movie API Service
// @version                    1.0
// @description                User accounts and a movie catalog behind revocable bearer sessions.
// @BasePath                   /
// @securityDefinitions.apikey BearerAuth
// @in                         header
// @name                       Authorization
func NewRouter(cfg *config.Config, svc *Service) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery(), middleware.RequestID(), middleware.Metrics())
	if gin.Mode() != gin.TestMode {
		r.Use(gin.Logger())
	}

	guard := middleware.NewAuthMiddleware(svc.sessions, svc.tokens, svc.audit, svc.log)
	requireAdmin := guard.RequireAdmin()

	api := r.Group("/api")
	{
		authGroup := api.Group("/auth")
		authGroup.POST("/register", svc.RegisterHandler)
		authGroup.POST("/login", svc.LoginHandler)
		authGroup.POST("/logout", guard.Revocation(), svc.LogoutHandler)

		movies := api.Group("/movies", guard.Handler())
		movies.GET("", svc.ListMoviesHandler)
		movies.POST("", svc.CreateMovieHandler)
		movies.GET("/:id", svc.GetMovieHandler)
		movies.PUT("/:id", svc.UpdateMovieHandler)
		movies.DELETE("/:id", requireAdmin, svc.DeleteMovieHandler)

		admin := api.Group("/admin", guard.Handler(), requireAdmin)
		admin.POST("/users", svc.CreateUserHandler)
		admin.GET("/users", svc.ListUsersHandler)
		admin.PUT("/users/:username/role", svc.SetRoleHandler)
		admin.DELETE("/users/:username", svc.DeleteUserHandler)

		// These endpoints remain public
		api.GET("/health", svc.HealthHandler)
	}

	docs.SwaggerInfo.BasePath = cfg.API.BasePath
	if cfg.API.SwaggerHost != "" {
		docs.SwaggerInfo.Host = cfg.API.SwaggerHost
	}
	r.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	// Add Prometheus metrics endpoint if enabled
	if cfg.Metrics.Enabled {
		r.GET(cfg.Metrics.Path, gin.WrapH(promhttp.Handler()))
	}

	if cfg.Server.StaticDir != "" {
		r.Static("/static", cfg.Server.StaticDir)
		r.StaticFile("/", cfg.Server.StaticDir+"/index.html")
	}

	return r
}
