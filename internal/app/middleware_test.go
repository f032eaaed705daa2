package app

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gorilla/mux"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/totaltiming/totaltiming/internal/auth"
	"github.com/totaltiming/totaltiming/pkg/user"
)

const testSecret = "middleware-secret"

func setupRouter(t *testing.T, trustUserHeader bool) (*mux.Router, user.User) {
	users := user.NewStubUserRepository()
	u := user.User{Uid: "uid-kari", Name: "Kari", Role: user.RoleEmployee}
	id, err := users.CreateUser(context.Background(), u)
	require.NoError(t, err)
	u.Id = id

	r := mux.NewRouter()
	api := r.PathPrefix("/api").Subrouter()
	api.Use(AuthMiddleware(auth.NewTokenValidator(testSecret), user.NewUserService(users, "Europe/Oslo"), trustUserHeader))
	api.HandleFunc("/whoami", func(w http.ResponseWriter, req *http.Request) {
		current, err := user.CurrentUser(req.Context())
		require.NoError(t, err)
		_, _ = w.Write([]byte(current.Name))
	}).Methods("GET")
	reports := api.PathPrefix("/reports").Subrouter()
	reports.Use(RequireRole(user.RoleAdmin, user.RoleAccountant))
	reports.HandleFunc("/x", func(w http.ResponseWriter, req *http.Request) {}).Methods("GET")
	return r, u
}

func serve(handler http.Handler, req *http.Request) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	return rec
}

func TestAuthMiddleware(t *testing.T) {
	router, u := setupRouter(t, false)

	t.Run("bearer token", func(t *testing.T) {
		token, err := auth.GenerateToken(u.Uid, []byte(testSecret), time.Hour)
		require.NoError(t, err)
		req := httptest.NewRequest("GET", "/api/whoami", nil)
		req.Header.Set("Authorization", "Bearer "+token)

		rec := serve(router, req)

		assert.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, "Kari", rec.Body.String())
	})

	t.Run("missing token", func(t *testing.T) {
		rec := serve(router, httptest.NewRequest("GET", "/api/whoami", nil))

		assert.Equal(t, http.StatusUnauthorized, rec.Code)
	})

	t.Run("header is ignored unless trusted", func(t *testing.T) {
		req := httptest.NewRequest("GET", "/api/whoami", nil)
		req.Header.Set("X-User-Id", u.Uid)

		assert.Equal(t, http.StatusUnauthorized, serve(router, req).Code)
	})

	t.Run("unknown user", func(t *testing.T) {
		token, err := auth.GenerateToken("someone-else", []byte(testSecret), time.Hour)
		require.NoError(t, err)
		req := httptest.NewRequest("GET", "/api/whoami", nil)
		req.Header.Set("Authorization", "Bearer "+token)

		assert.Equal(t, http.StatusForbidden, serve(router, req).Code)
	})

	t.Run("expired token", func(t *testing.T) {
		token, err := auth.GenerateToken(u.Uid, []byte(testSecret), -time.Hour)
		require.NoError(t, err)
		req := httptest.NewRequest("GET", "/api/whoami", nil)
		req.Header.Set("Authorization", "Bearer "+token)

		assert.Equal(t, http.StatusUnauthorized, serve(router, req).Code)
	})
}

func TestAuthMiddleware_TrustedHeader(t *testing.T) {
	router, u := setupRouter(t, true)
	req := httptest.NewRequest("GET", "/api/whoami", nil)
	req.Header.Set("X-User-Id", u.Uid)

	rec := serve(router, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "Kari", rec.Body.String())
}

func TestRequireRole(t *testing.T) {
	router, u := setupRouter(t, true)
	req := httptest.NewRequest("GET", "/api/reports/x", nil)
	req.Header.Set("X-User-Id", u.Uid)

	assert.Equal(t, http.StatusForbidden, serve(router, req).Code)
}

func TestCorsMiddleware(t *testing.T) {
	router, _ := setupRouter(t, false)
	handler := CorsMiddleware([]string{"http://localhost:5173"})(router)

	t.Run("preflight from allowed origin", func(t *testing.T) {
		req := httptest.NewRequest("OPTIONS", "/api/whoami", nil)
		req.Header.Set("Origin", "http://localhost:5173")

		rec := serve(handler, req)

		assert.Equal(t, http.StatusNoContent, rec.Code)
		assert.Equal(t, "http://localhost:5173", rec.Header().Get("Access-Control-Allow-Origin"))
		assert.Contains(t, rec.Header().Get("Access-Control-Allow-Headers"), "Authorization")
		assert.Contains(t, rec.Header().Get("Access-Control-Allow-Methods"), "PATCH")
	})

	t.Run("other origin gets no cors headers", func(t *testing.T) {
		req := httptest.NewRequest("GET", "/api/whoami", nil)
		req.Header.Set("Origin", "https://evil.example")

		rec := serve(handler, req)

		assert.Empty(t, rec.Header().Get("Access-Control-Allow-Origin"))
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
	})
}
