// Copyright (c) 2024-2025 Darcy Buskermolen <darcy@dbitech.ca>
// SPDX-License-Identifier: BSD-3-Clause

package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/VA7DBI/movieAPI/auth"
	"github.com/VA7DBI/movieAPI/config"
	"github.com/VA7DBI/movieAPI/middleware"
	"github.com/VA7DBI/movieAPI/repository"
	"github.com/alicebob/miniredis/v2"
	"github.com/gin-gonic/gin"
	"github.com/go-logr/logr"
	"github.com/go-logr/logr/funcr"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

type apiFixture struct {
	cfg    *config.Config
	mr     *miniredis.Miniredis
	users  *repository.MemoryUserRepository
	movies *repository.MemoryMovieRepository
	hasher *auth.PasswordHasher
	svc    *Service
	router *gin.Engine
	audit  *[]string
}

func setupAPITest(t *testing.T) *apiFixture {
	return setupAPITestWith(t, func(*Dependencies) {})
}

func setupAPITestWith(t *testing.T, customize func(*Dependencies)) *apiFixture {
	gin.SetMode(gin.TestMode)

	mr := miniredis.RunT(t)

	cfg, err := config.Default()
	require.NoError(t, err)
	cfg.Redis.Host = mr.Host()
	cfg.Redis.Port = mr.Server().Addr().Port
	cfg.Redis.DB = 0
	cfg.Redis.Password = ""
	cfg.Redis.TimeoutMS = 200
	cfg.Metrics.Enabled = true

	store, err := auth.NewRedisSessionStore(cfg)
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })

	hasher, err := auth.NewPasswordHasher(bcrypt.MinCost)
	require.NoError(t, err)
	issuer, err := auth.NewTokenIssuer([]byte("api-test-secret-0123456789"), cfg.TokenTTL(), cfg.Auth.Issuer)
	require.NoError(t, err)

	var mu sync.Mutex
	lines := &[]string{}
	capture := funcr.New(func(prefix, args string) {
		mu.Lock()
		defer mu.Unlock()
		*lines = append(*lines, prefix+" "+args)
	}, funcr.Options{})

	users := repository.NewMemoryUserRepository()
	movies := repository.NewMemoryMovieRepository()
	deps := Dependencies{
		Users:     users,
		Movies:    movies,
		Sessions:  store,
		Passwords: hasher,
		Tokens:    issuer,
		Logger:    capture,
	}
	customize(&deps)

	svc, err := NewService(deps)
	require.NoError(t, err)

	return &apiFixture{
		cfg:    cfg,
		mr:     mr,
		users:  users,
		movies: movies,
		hasher: hasher,
		svc:    svc,
		router: NewRouter(cfg, svc),
		audit:  lines,
	}
}

func (f *apiFixture) request(method, path, token string, body any) *httptest.ResponseRecorder {
	var buf bytes.Buffer
	if body != nil {
		json.NewEncoder(&buf).Encode(body)
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	f.router.ServeHTTP(w, req)
	return w
}

// seedUser stores an account directly, bypassing the API.
func (f *apiFixture) seedUser(t *testing.T, username, password string, isAdmin bool) {
	hash, err := f.hasher.Hash(password)
	require.NoError(t, err)
	_, err = f.users.Create(context.Background(), username, hash, isAdmin)
	require.NoError(t, err)
}

func (f *apiFixture) login(t *testing.T, username, password string) string {
	w := f.request("POST", "/api/auth/login", "", CredentialsRequest{Username: username, Password: password})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	var resp LoginResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	require.NotEmpty(t, resp.Token)
	return resp.Token
}

func errorBody(t *testing.T, w *httptest.ResponseRecorder) string {
	var resp ErrorResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	return resp.Error
}

func TestNewServiceRequiresDependencies(t *testing.T) {
	_, err := NewService(Dependencies{})
	assert.Error(t, err)
}

func TestRoutesRegistered(t *testing.T) {
	f := setupAPITest(t)

	routeMap := make(map[string]bool)
	for _, route := range f.router.Routes() {
		routeMap[route.Method+" "+route.Path] = true
	}

	for _, want := range []string{
		"POST /api/auth/register",
		"POST /api/auth/login",
		"POST /api/auth/logout",
		"GET /api/movies",
		"POST /api/movies",
		"GET /api/movies/:id",
		"PUT /api/movies/:id",
		"DELETE /api/movies/:id",
		"POST /api/admin/users",
		"GET /api/admin/users",
		"PUT /api/admin/users/:username/role",
		"DELETE /api/admin/users/:username",
		"GET /api/health",
		"GET /swagger/*any",
		"GET /metrics",
	} {
		assert.True(t, routeMap[want], "Missing %s endpoint", want)
	}
}

func TestSessionLifecycle(t *testing.T) {
	f := setupAPITest(t)

	w := f.request("POST", "/api/auth/register", "", CredentialsRequest{Username: "alice", Password: "pass1234"})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	assert.JSONEq(t, `{"message":"user registered successfully","user":{"username":"alice","isAdmin":false}}`, w.Body.String())

	token := f.login(t, "alice", "pass1234")

	marker, err := f.mr.Get("session:" + token)
	require.NoError(t, err)
	assert.JSONEq(t, `{"username":"alice","isAdmin":false}`, marker)
	assert.Equal(t, 600*time.Second, f.mr.TTL("session:"+token))

	w = f.request("GET", "/api/movies", token, nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `[]`, w.Body.String())

	w = f.request("POST", "/api/auth/logout", token, nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.False(t, f.mr.Exists("session:"+token))

	w = f.request("GET", "/api/movies", token, nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Equal(t, middleware.MsgSessionInvalid, errorBody(t, w))
}

func TestRegister(t *testing.T) {
	f := setupAPITest(t)

	w := f.request("POST", "/api/auth/register", "", CredentialsRequest{Username: "alice", Password: "pass1234"})
	require.Equal(t, http.StatusCreated, w.Code)

	t.Run("Duplicate", func(t *testing.T) {
		w := f.request("POST", "/api/auth/register", "", CredentialsRequest{Username: "alice", Password: "other123"})
		assert.Equal(t, http.StatusBadRequest, w.Code)
		assert.Equal(t, msgDuplicateUser, errorBody(t, w))
	})

	t.Run("Validation", func(t *testing.T) {
		for name, body := range map[string]any{
			"ShortPassword":  CredentialsRequest{Username: "carol", Password: "123"},
			"MissingPass":    map[string]string{"username": "carol"},
			"BadUsername":    CredentialsRequest{Username: "a b", Password: "pass1234"},
			"LongPassword":   CredentialsRequest{Username: "carol", Password: string(bytes.Repeat([]byte("x"), 73))},
			"MalformedInput": "not an object",
		} {
			w := f.request("POST", "/api/auth/register", "", body)
			assert.Equal(t, http.StatusBadRequest, w.Code, name)
		}
	})

	t.Run("NeverAdmin", func(t *testing.T) {
		w := f.request("POST", "/api/auth/register", "", map[string]any{
			"username": "mallory", "password": "pass1234", "isAdmin": true,
		})
		require.Equal(t, http.StatusCreated, w.Code)
		u, err := f.users.GetByUsername(context.Background(), "mallory")
		require.NoError(t, err)
		assert.False(t, u.IsAdmin)
	})

	t.Run("PasswordStoredHashed", func(t *testing.T) {
		u, err := f.users.GetByUsername(context.Background(), "alice")
		require.NoError(t, err)
		assert.NotEqual(t, "pass1234", u.PasswordHash)
		assert.True(t, f.hasher.Verify("pass1234", u.PasswordHash))
	})
}

func TestLoginFailuresAreIndistinguishable(t *testing.T) {
	f := setupAPITest(t)
	f.seedUser(t, "alice", "pass1234", false)

	wrong := f.request("POST", "/api/auth/login", "", CredentialsRequest{Username: "alice", Password: "nope1234"})
	unknown := f.request("POST", "/api/auth/login", "", CredentialsRequest{Username: "ghost", Password: "nope1234"})

	assert.Equal(t, http.StatusUnauthorized, wrong.Code)
	assert.Equal(t, wrong.Code, unknown.Code)
	assert.Equal(t, wrong.Body.String(), unknown.Body.String())
	assert.Equal(t, MsgLoginFailed, errorBody(t, wrong))
	assert.Equal(t, 0, len(f.mr.Keys()))

	joined := fmt.Sprint(*f.audit)
	assert.Contains(t, joined, `"reason"="wrong_password"`)
	assert.Contains(t, joined, `"reason"="unknown_user"`)
	assert.NotContains(t, joined, "nope1234")
}

func TestLoginValidation(t *testing.T) {
	f := setupAPITest(t)

	w := f.request("POST", "/api/auth/login", "", map[string]string{"username": "alice"})
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestLoginStoreUnavailable(t *testing.T) {
	f := setupAPITest(t)
	f.seedUser(t, "alice", "pass1234", false)
	f.mr.Close()

	w := f.request("POST", "/api/auth/login", "", CredentialsRequest{Username: "alice", Password: "pass1234"})
	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.Equal(t, msgInternalError, errorBody(t, w))
}

func TestLogout(t *testing.T) {
	f := setupAPITest(t)
	f.seedUser(t, "alice", "pass1234", false)
	token := f.login(t, "alice", "pass1234")

	t.Run("Twice", func(t *testing.T) {
		assert.Equal(t, http.StatusOK, f.request("POST", "/api/auth/logout", token, nil).Code)
		assert.Equal(t, http.StatusOK, f.request("POST", "/api/auth/logout", token, nil).Code)
	})

	t.Run("NoToken", func(t *testing.T) {
		w := f.request("POST", "/api/auth/logout", "", nil)
		assert.Equal(t, http.StatusUnauthorized, w.Code)
		assert.Equal(t, middleware.MsgTokenRequired, errorBody(t, w))
	})

	t.Run("ForgedToken", func(t *testing.T) {
		w := f.request("POST", "/api/auth/logout", "forged.token.value", nil)
		assert.Equal(t, http.StatusUnauthorized, w.Code)
	})
}

func TestSessionExpiry(t *testing.T) {
	f := setupAPITest(t)
	f.seedUser(t, "alice", "pass1234", false)
	token := f.login(t, "alice", "pass1234")

	f.mr.FastForward(599 * time.Second)
	assert.Equal(t, http.StatusOK, f.request("GET", "/api/movies", token, nil).Code)

	f.mr.FastForward(2 * time.Second)
	w := f.request("GET", "/api/movies", token, nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Equal(t, middleware.MsgSessionInvalid, errorBody(t, w))
}

func TestConcurrentLogins(t *testing.T) {
	f := setupAPITest(t)
	f.seedUser(t, "alice", "pass1234", false)

	const n = 8
	tokens := make([]string, n)
	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			w := f.request("POST", "/api/auth/login", "", CredentialsRequest{Username: "alice", Password: "pass1234"})
			var resp LoginResponse
			if w.Code == http.StatusOK && json.Unmarshal(w.Body.Bytes(), &resp) == nil {
				tokens[i] = resp.Token
			}
		}(i)
	}
	wg.Wait()

	seen := make(map[string]bool)
	for _, tok := range tokens {
		require.NotEmpty(t, tok)
		seen[tok] = true
	}
	assert.Len(t, seen, n)

	require.Equal(t, http.StatusOK, f.request("POST", "/api/auth/logout", tokens[0], nil).Code)
	assert.Equal(t, http.StatusUnauthorized, f.request("GET", "/api/movies", tokens[0], nil).Code)
	for _, tok := range tokens[1:] {
		assert.Equal(t, http.StatusOK, f.request("GET", "/api/movies", tok, nil).Code)
	}
}

func TestRoleIsFixedAtLogin(t *testing.T) {
	f := setupAPITest(t)
	f.seedUser(t, "root", "rootpass", true)
	f.seedUser(t, "alice", "pass1234", false)
	adminToken := f.login(t, "root", "rootpass")
	aliceToken := f.login(t, "alice", "pass1234")

	w := f.request("PUT", "/api/admin/users/alice/role", adminToken, map[string]bool{"isAdmin": true})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	// The session issued before promotion keeps its original role.
	assert.Equal(t, http.StatusForbidden, f.request("GET", "/api/admin/users", aliceToken, nil).Code)

	freshToken := f.login(t, "alice", "pass1234")
	assert.Equal(t, http.StatusOK, f.request("GET", "/api/admin/users", freshToken, nil).Code)

	w = f.request("PUT", "/api/admin/users/alice/role", adminToken, map[string]bool{"isAdmin": false})
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, http.StatusOK, f.request("GET", "/api/admin/users", freshToken, nil).Code)
}

func TestMovies(t *testing.T) {
	f := setupAPITest(t)
	f.seedUser(t, "alice", "pass1234", false)
	token := f.login(t, "alice", "pass1234")

	w := f.request("POST", "/api/movies", token, MovieRequest{Title: "Alien", Director: "Ridley Scott", Year: 1979, Rating: 8.5})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	var created repository.Movie
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &created))
	assert.Equal(t, "alice", created.CreatedBy)
	assert.NotZero(t, created.ID)
	path := fmt.Sprintf("/api/movies/%d", created.ID)

	t.Run("Get", func(t *testing.T) {
		w := f.request("GET", path, token, nil)
		require.Equal(t, http.StatusOK, w.Code)
		var got repository.Movie
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &got))
		assert.Equal(t, "Alien", got.Title)
	})

	t.Run("List", func(t *testing.T) {
		w := f.request("GET", "/api/movies", token, nil)
		require.Equal(t, http.StatusOK, w.Code)
		var list []repository.Movie
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &list))
		assert.Len(t, list, 1)
	})

	t.Run("Update", func(t *testing.T) {
		w := f.request("PUT", path, token, MovieRequest{Title: "Aliens", Year: 1986})
		require.Equal(t, http.StatusOK, w.Code)
		var got repository.Movie
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &got))
		assert.Equal(t, "Aliens", got.Title)
		assert.Equal(t, "alice", got.CreatedBy)
	})

	t.Run("Validation", func(t *testing.T) {
		assert.Equal(t, http.StatusBadRequest, f.request("POST", "/api/movies", token, MovieRequest{}).Code)
		assert.Equal(t, http.StatusBadRequest, f.request("POST", "/api/movies", token, MovieRequest{Title: "X", Year: 1700}).Code)
		assert.Equal(t, http.StatusBadRequest, f.request("POST", "/api/movies", token, MovieRequest{Title: "X", Rating: 11}).Code)
		assert.Equal(t, http.StatusBadRequest, f.request("GET", "/api/movies/abc", token, nil).Code)
	})

	t.Run("NotFound", func(t *testing.T) {
		assert.Equal(t, http.StatusNotFound, f.request("GET", "/api/movies/999", token, nil).Code)
		assert.Equal(t, http.StatusNotFound, f.request("PUT", "/api/movies/999", token, MovieRequest{Title: "X"}).Code)
	})

	t.Run("DeleteRequiresAdmin", func(t *testing.T) {
		w := f.request("DELETE", path, token, nil)
		assert.Equal(t, http.StatusForbidden, w.Code)
		assert.Equal(t, middleware.MsgAdminRequired, errorBody(t, w))
	})

	t.Run("Unauthenticated", func(t *testing.T) {
		assert.Equal(t, http.StatusUnauthorized, f.request("GET", "/api/movies", "", nil).Code)
		assert.Equal(t, http.StatusUnauthorized, f.request("POST", "/api/movies", "", MovieRequest{Title: "X"}).Code)
	})

	t.Run("AdminDelete", func(t *testing.T) {
		f.seedUser(t, "root", "rootpass", true)
		adminToken := f.login(t, "root", "rootpass")

		assert.Equal(t, http.StatusOK, f.request("DELETE", path, adminToken, nil).Code)
		assert.Equal(t, http.StatusNotFound, f.request("DELETE", path, adminToken, nil).Code)
		assert.Contains(t, fmt.Sprint(*f.audit), `"event"="movie_deleted"`)
	})
}

func TestAdminUsers(t *testing.T) {
	f := setupAPITest(t)
	f.seedUser(t, "root", "rootpass", true)
	f.seedUser(t, "alice", "pass1234", false)
	adminToken := f.login(t, "root", "rootpass")
	aliceToken := f.login(t, "alice", "pass1234")

	t.Run("NonAdminDenied", func(t *testing.T) {
		w := f.request("POST", "/api/admin/users", aliceToken, CreateUserRequest{
			CredentialsRequest: CredentialsRequest{Username: "eve", Password: "pass1234"}, IsAdmin: true,
		})
		assert.Equal(t, http.StatusForbidden, w.Code)
		assert.Contains(t, fmt.Sprint(*f.audit), `"event"="unauthorized_admin_access"`)
		_, err := f.users.GetByUsername(context.Background(), "eve")
		assert.ErrorIs(t, err, repository.ErrNotFound)
	})

	t.Run("Create", func(t *testing.T) {
		w := f.request("POST", "/api/admin/users", adminToken, CreateUserRequest{
			CredentialsRequest: CredentialsRequest{Username: "bob", Password: "pass1234"}, IsAdmin: true,
		})
		require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
		assert.JSONEq(t, `{"message":"user created","user":{"username":"bob","isAdmin":true}}`, w.Body.String())

		w = f.request("POST", "/api/admin/users", adminToken, CreateUserRequest{
			CredentialsRequest: CredentialsRequest{Username: "bob", Password: "pass1234"},
		})
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("List", func(t *testing.T) {
		w := f.request("GET", "/api/admin/users", adminToken, nil)
		require.Equal(t, http.StatusOK, w.Code)
		assert.NotContains(t, w.Body.String(), "password")
		var list []repository.User
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &list))
		assert.Len(t, list, 3)
	})

	t.Run("SetRole", func(t *testing.T) {
		assert.Equal(t, http.StatusBadRequest, f.request("PUT", "/api/admin/users/alice/role", adminToken, map[string]any{}).Code)
		assert.Equal(t, http.StatusNotFound, f.request("PUT", "/api/admin/users/ghost/role", adminToken, map[string]bool{"isAdmin": true}).Code)
	})

	t.Run("Delete", func(t *testing.T) {
		w := f.request("DELETE", "/api/admin/users/root", adminToken, nil)
		assert.Equal(t, http.StatusBadRequest, w.Code)
		assert.Equal(t, msgDeleteSelf, errorBody(t, w))

		assert.Equal(t, http.StatusOK, f.request("DELETE", "/api/admin/users/bob", adminToken, nil).Code)
		assert.Equal(t, http.StatusNotFound, f.request("DELETE", "/api/admin/users/bob", adminToken, nil).Code)
	})

	t.Run("DeletedUserSessionSurvives", func(t *testing.T) {
		require.Equal(t, http.StatusOK, f.request("DELETE", "/api/admin/users/alice", adminToken, nil).Code)
		assert.Equal(t, http.StatusOK, f.request("GET", "/api/movies", aliceToken, nil).Code)
	})
}

type failingPinger struct{}

func (failingPinger) Ping(context.Context) error { return errors.New("connection refused") }

func TestHealth(t *testing.T) {
	t.Run("AllConnected", func(t *testing.T) {
		f := setupAPITest(t)
		w := f.request("GET", "/api/health", "", nil)
		require.Equal(t, http.StatusOK, w.Code)

		var resp HealthResponse
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
		assert.Equal(t, "ok", resp.Status)
		assert.Equal(t, statusConnected, resp.Redis)
		assert.Equal(t, statusConnected, resp.UsersDB)
		assert.Equal(t, statusConnected, resp.MoviesDB)
		assert.False(t, resp.Timestamp.IsZero())
	})

	t.Run("Degraded", func(t *testing.T) {
		f := setupAPITestWith(t, func(d *Dependencies) { d.MoviesDB = failingPinger{} })
		f.mr.Close()

		w := f.request("GET", "/api/health", "", nil)
		require.Equal(t, http.StatusOK, w.Code)

		var resp HealthResponse
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
		assert.Equal(t, "degraded", resp.Status)
		assert.Equal(t, statusDisconnected, resp.Redis)
		assert.Equal(t, statusConnected, resp.UsersDB)
		assert.Equal(t, statusDisconnected, resp.MoviesDB)
	})
}

type brokenMovies struct {
	repository.MovieRepository
}

func (brokenMovies) List(context.Context) ([]repository.Movie, error) {
	return nil, errors.New("pq: relation \"movies\" does not exist")
}

func TestInternalErrorsAreGeneric(t *testing.T) {
	f := setupAPITestWith(t, func(d *Dependencies) { d.Movies = brokenMovies{} })
	f.seedUser(t, "alice", "pass1234", false)
	token := f.login(t, "alice", "pass1234")

	w := f.request("GET", "/api/movies", token, nil)
	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.Equal(t, msgInternalError, errorBody(t, w))
	assert.NotContains(t, w.Body.String(), "relation")
}

func TestRequestIDPropagatesToAudit(t *testing.T) {
	f := setupAPITest(t)

	req := httptest.NewRequest("POST", "/api/auth/login", bytes.NewBufferString(`{"username":"ghost","password":"pass1234"}`))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set(middleware.RequestIDHeader, "7f1c2a9e-3b4d-4e5f-8a6b-0c1d2e3f4a5b")
	w := httptest.NewRecorder()
	f.router.ServeHTTP(w, req)

	assert.Equal(t, "7f1c2a9e-3b4d-4e5f-8a6b-0c1d2e3f4a5b", w.Header().Get(middleware.RequestIDHeader))
	assert.Contains(t, fmt.Sprint(*f.audit), `"request_id"="7f1c2a9e-3b4d-4e5f-8a6b-0c1d2e3f4a5b"`)
}

func TestServiceLoggerDefaultsToDiscard(t *testing.T) {
	f := setupAPITestWith(t, func(d *Dependencies) { d.Logger = logr.Logger{} })
	assert.Equal(t, http.StatusOK, f.request("GET", "/api/health", "", nil).Code)
}

type deleteFailingSessions struct {
	auth.SessionStore
}

func (deleteFailingSessions) Delete(context.Context, string) error {
	return fmt.Errorf("%w: connection reset", auth.ErrStoreUnavailable)
}

func TestLogoutDeleteFailure(t *testing.T) {
	f := setupAPITestWith(t, func(d *Dependencies) {
		d.Sessions = deleteFailingSessions{SessionStore: d.Sessions}
	})
	f.seedUser(t, "alice", "pass1234", false)
	token := f.login(t, "alice", "pass1234")

	w := f.request("POST", "/api/auth/logout", token, nil)
	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.Equal(t, msgInternalError, errorBody(t, w))
	assert.True(t, f.mr.Exists("session:"+token))
}

func TestLogoutStoreUnavailable(t *testing.T) {
	f := setupAPITest(t)
	f.seedUser(t, "alice", "pass1234", false)
	token := f.login(t, "alice", "pass1234")
	f.mr.Close()

	w := f.request("POST", "/api/auth/logout", token, nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Equal(t, middleware.MsgSessionInvalid, errorBody(t, w))
	assert.Contains(t, fmt.Sprint(*f.audit), `"event"="session_store_unavailable"`)
}
