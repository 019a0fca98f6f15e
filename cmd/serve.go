// Copyright (c) 2024-2025 Darcy Buskermolen <darcy@dbitech.ca>
// SPDX-License-Identifier: BSD-3-Clause

package cmd

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/VA7DBI/movieAPI/api"
	"github.com/VA7DBI/movieAPI/audit"
	"github.com/VA7DBI/movieAPI/auth"
	"github.com/VA7DBI/movieAPI/logging"
	"github.com/gin-gonic/gin"
	"github.com/spf13/cobra"
)

const shutdownTimeout = 10 * time.Second

func init() {
	rootCmd.AddCommand(&cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API server",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			return runServe(ctx, cmd)
		},
	})
}

func runServe(ctx context.Context, cmd *cobra.Command) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}

	logger := logging.New(cfg.Log.Verbosity).WithName("movieapi")

	st, err := openStores(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer st.Close()

	if cfg.Database.AutoMigrate {
		if err := st.migrate(ctx, logger); err != nil {
			return err
		}
	}

	sessions, err := auth.NewRedisSessionStore(cfg)
	if err != nil {
		return fmt.Errorf("failed to initialize session store: %w", err)
	}
	defer sessions.Close()

	hasher, err := auth.NewPasswordHasher(cfg.Auth.BcryptCost)
	if err != nil {
		return err
	}
	issuer, err := auth.NewTokenIssuer([]byte(cfg.Auth.JWTSecret), cfg.TokenTTL(), cfg.Auth.Issuer)
	if err != nil {
		return err
	}

	deps := api.Dependencies{
		Users:     st.users,
		Movies:    st.movies,
		Sessions:  sessions,
		Passwords: hasher,
		Tokens:    issuer,
		Audit:     audit.New(logger),
		Logger:    logger,
	}
	if st.usersDB != nil {
		deps.UsersDB = st.usersDB
	}
	if st.moviesDB != nil {
		deps.MoviesDB = st.moviesDB
	}

	svc, err := api.NewService(deps)
	if err != nil {
		return err
	}

	gin.SetMode(gin.ReleaseMode)
	if cfg.Log.Verbosity > 0 {
		gin.SetMode(gin.DebugMode)
	}

	addr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
	srv := &http.Server{
		Addr:              addr,
		Handler:           api.NewRouter(cfg, svc),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("Starting server", "addr", addr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	logger.Info("Shutting down server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}
