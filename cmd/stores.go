// Copyright (c) 2024-2025 Darcy Buskermolen <darcy@dbitech.ca>
// SPDX-License-Identifier: BSD-3-Clause

package cmd

import (
	"context"
	"errors"
	"fmt"

	"github.com/VA7DBI/movieAPI/config"
	"github.com/VA7DBI/movieAPI/repository"
	"github.com/go-logr/logr"
)

// stores holds the repositories and the connections behind them. Databases
// are nil for the memory driver.
type stores struct {
	users    repository.UserRepository
	movies   repository.MovieRepository
	usersDB  *repository.Database
	moviesDB *repository.Database
}

func openStores(ctx context.Context, cfg *config.Config, logger logr.Logger) (*stores, error) {
	s := &stores{}

	if cfg.Database.Users.Driver == "memory" {
		logger.Info("using in-memory user store")
		s.users = repository.NewMemoryUserRepository()
	} else {
		db, err := repository.Open(ctx, cfg.Database.Users, repository.SchemaUsers)
		if err != nil {
			return nil, fmt.Errorf("users database: %w", err)
		}
		s.usersDB = db
		s.users = repository.NewPostgresUserRepository(db.DB(), db.Timeout())
	}

	if cfg.Database.Movies.Driver == "memory" {
		logger.Info("using in-memory movie store")
		s.movies = repository.NewMemoryMovieRepository()
	} else {
		db, err := repository.Open(ctx, cfg.Database.Movies, repository.SchemaMovies)
		if err != nil {
			s.Close()
			return nil, fmt.Errorf("movies database: %w", err)
		}
		s.moviesDB = db
		s.movies = repository.NewPostgresMovieRepository(db.DB(), db.Timeout())
	}

	return s, nil
}

func (s *stores) migrate(ctx context.Context, logger logr.Logger) error {
	for _, db := range []*repository.Database{s.usersDB, s.moviesDB} {
		if db == nil {
			continue
		}
		if err := db.Migrate(ctx); err != nil {
			return err
		}
		logger.Info("schema up to date", "database", db.Schema())
	}
	return nil
}

func (s *stores) Close() error {
	var errs []error
	for _, db := range []*repository.Database{s.usersDB, s.moviesDB} {
		if db != nil {
			errs = append(errs, db.Close())
		}
	}
	return errors.Join(errs...)
}
