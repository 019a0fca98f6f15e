// Copyright (c) 2024-2025 Darcy Buskermolen <darcy@dbitech.ca>
// SPDX-License-Identifier: BSD-3-Clause

package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Session check results.
const (
	SessionAuthorized       = "authorized"
	SessionNoToken          = "no_token"
	SessionNotFound         = "no_session"
	SessionStoreUnavailable = "store_unavailable"
	SessionInvalidToken     = "invalid_token"
)

var (
	HTTPRequests = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "movieapi_http_requests_total",
		Help: "Total number of HTTP requests",
	}, []string{"method", "route", "status"})

	HTTPRequestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "movieapi_http_request_duration_seconds",
		Help:    "Time spent serving HTTP requests",
		Buckets: prometheus.ExponentialBuckets(0.001, 2.0, 12), // 1ms to ~4s
	}, []string{"method", "route"})

	LoginAttempts = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "movieapi_login_attempts_total",
		Help: "Login attempts by outcome",
	}, []string{"outcome"})

	SessionChecks = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "movieapi_session_checks_total",
		Help: "Session guard decisions by result",
	}, []string{"result"})

	AdminDenials = promauto.NewCounter(prometheus.CounterOpts{
		Name: "movieapi_admin_denials_total",
		Help: "Requests rejected by the admin role gate",
	})
)
