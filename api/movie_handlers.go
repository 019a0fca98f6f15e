// Copyright (c) 2024-2025 Darcy Buskermolen <darcy@dbitech.ca>
// SPDX-License-Identifier: BSD-3-Clause

package api

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/VA7DBI/movieAPI/audit"
	"github.com/VA7DBI/movieAPI/middleware"
	"github.com/VA7DBI/movieAPI/repository"
	"github.com/gin-gonic/gin"
)

const (
	msgInvalidMovieID = "invalid movie id"
	msgInvalidMovie   = "title is required; year must be 1878-2100 and rating 0-10"
	msgMovieNotFound  = "movie not found"
)

// MovieRequest is the body of movie create and update.
type MovieRequest struct {
	Title       string  `json:"title" binding:"required,max=255"`
	Director    string  `json:"director" binding:"max=255"`
	Year        int     `json:"year" binding:"omitempty,min=1878,max=2100"`
	Genre       string  `json:"genre" binding:"max=100"`
	Rating      float64 `json:"rating" binding:"omitempty,min=0,max=10"`
	Description string  `json:"description"`
}

func (r MovieRequest) movie() *repository.Movie {
	return &repository.Movie{
		Title:       r.Title,
		Director:    r.Director,
		Year:        r.Year,
		Genre:       r.Genre,
		Rating:      r.Rating,
		Description: r.Description,
	}
}

func movieID(c *gin.Context) (int64, bool) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id <= 0 {
		abortWithError(c, http.StatusBadRequest, msgInvalidMovieID)
		return 0, false
	}
	return id, true
}

func bindMovie(c *gin.Context) (*repository.Movie, bool) {
	var req MovieRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abortWithError(c, http.StatusBadRequest, msgInvalidMovie)
		return nil, false
	}
	return req.movie(), true
}

// @Summary     List movies
// @Tags        movies
// @Produce     json
// @Security    BearerAuth
// @Success     200 {array}  repository.Movie
// @Failure     401 {object} ErrorResponse
// @Failure     500 {object} ErrorResponse
// @Router      /api/movies [get]
func (s *Service) ListMoviesHandler(c *gin.Context) {
	movies, err := s.movies.List(c.Request.Context())
	if err != nil {
		s.internalError(c, err, "movie list failed")
		return
	}
	c.JSON(http.StatusOK, movies)
}

// @Summary     Get a movie
// @Tags        movies
// @Produce     json
// @Security    BearerAuth
// @Param       id path int true "Movie ID"
// @Success     200 {object} repository.Movie
// @Failure     400 {object} ErrorResponse
// @Failure     401 {object} ErrorResponse
// @Failure     404 {object} ErrorResponse
// @Failure     500 {object} ErrorResponse
// @Router      /api/movies/{id} [get]
func (s *Service) GetMovieHandler(c *gin.Context) {
	id, ok := movieID(c)
	if !ok {
		return
	}

	movie, err := s.movies.Get(c.Request.Context(), id)
	if errors.Is(err, repository.ErrNotFound) {
		abortWithError(c, http.StatusNotFound, msgMovieNotFound)
		return
	}
	if err != nil {
		s.internalError(c, err, "movie lookup failed", "id", id)
		return
	}
	c.JSON(http.StatusOK, movie)
}

// @Summary     Add a movie
// @Description The authenticated user is recorded as the creator.
// @Tags        movies
// @Accept      json
// @Produce     json
// @Security    BearerAuth
// @Param       body body MovieRequest true "Movie"
// @Success     201 {object} repository.Movie
// @Failure     400 {object} ErrorResponse
// @Failure     401 {object} ErrorResponse
// @Failure     500 {object} ErrorResponse
// @Router      /api/movies [post]
func (s *Service) CreateMovieHandler(c *gin.Context) {
	movie, ok := bindMovie(c)
	if !ok {
		return
	}
	id, _ := middleware.IdentityFrom(c)
	movie.CreatedBy = id.Username

	if err := s.movies.Create(c.Request.Context(), movie); err != nil {
		s.internalError(c, err, "movie insert failed", "username", id.Username)
		return
	}
	c.JSON(http.StatusCreated, movie)
}

// @Summary     Update a movie
// @Tags        movies
// @Accept      json
// @Produce     json
// @Security    BearerAuth
// @Param       id   path int          true "Movie ID"
// @Param       body body MovieRequest true "Movie"
// @Success     200 {object} repository.Movie
// @Failure     400 {object} ErrorResponse
// @Failure     401 {object} ErrorResponse
// @Failure     404 {object} ErrorResponse
// @Failure     500 {object} ErrorResponse
// @Router      /api/movies/{id} [put]
func (s *Service) UpdateMovieHandler(c *gin.Context) {
	id, ok := movieID(c)
	if !ok {
		return
	}
	movie, ok := bindMovie(c)
	if !ok {
		return
	}
	movie.ID = id

	err := s.movies.Update(c.Request.Context(), movie)
	if errors.Is(err, repository.ErrNotFound) {
		abortWithError(c, http.StatusNotFound, msgMovieNotFound)
		return
	}
	if err != nil {
		s.internalError(c, err, "movie update failed", "id", id)
		return
	}
	c.JSON(http.StatusOK, movie)
}

// @Summary     Delete a movie
// @Tags        movies
// @Produce     json
// @Security    BearerAuth
// @Param       id path int true "Movie ID"
// @Success     200 {object} MessageResponse
// @Failure     400 {object} ErrorResponse
// @Failure     401 {object} ErrorResponse
// @Failure     403 {object} ErrorResponse
// @Failure     404 {object} ErrorResponse
// @Failure     500 {object} ErrorResponse
// @Router      /api/movies/{id} [delete]
func (s *Service) DeleteMovieHandler(c *gin.Context) {
	id, ok := movieID(c)
	if !ok {
		return
	}

	err := s.movies.Delete(c.Request.Context(), id)
	if errors.Is(err, repository.ErrNotFound) {
		abortWithError(c, http.StatusNotFound, msgMovieNotFound)
		return
	}
	if err != nil {
		s.internalError(c, err, "movie delete failed", "id", id)
		return
	}

	admin, _ := middleware.IdentityFrom(c)
	s.audit.Event(c.Request.Context(), audit.EventMovieDeleted, "id", id, "username", admin.Username)
	c.JSON(http.StatusOK, MessageResponse{Message: "movie deleted"})
}
