package http

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"ecomonitor/internal/domain"
	"ecomonitor/internal/repository/sqlite"
	"ecomonitor/internal/service"
	"ecomonitor/internal/token"
)

const testSecret = "api-test-secret"

func newTestRouter(t *testing.T) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)

	db, err := sqlite.Open(filepath.Join(t.TempDir(), "api.db"))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	repo := sqlite.NewUserRepository(db)
	require.NoError(t, repo.Init(context.Background()))

	codec := token.NewCodec(testSecret, 30*24*time.Hour)
	auth := service.NewAuthService(repo, codec, bcrypt.MinCost)

	logger := logrus.New()
	logger.SetOutput(io.Discard)

	router := gin.New()
	NewHandler(auth, logger, "").RegisterRoutes(router)
	return router
}

func doJSON(t *testing.T, router *gin.Engine, method, path string, body any, header map[string]string) (*httptest.ResponseRecorder, map[string]any) {
	t.Helper()

	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	}

	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	for k, v := range header {
		req.Header.Set(k, v)
	}

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	var decoded map[string]any
	if rec.Body.Len() > 0 {
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &decoded))
	}
	return rec, decoded
}

func TestHealth(t *testing.T) {
	router := newTestRouter(t)

	rec, body := doJSON(t, router, http.MethodGet, "/api/health", nil, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, "healthy", body["status"])
	require.Equal(t, "Server is running", body["message"])
	require.NotEmpty(t, rec.Header().Get("X-Request-ID"))
}

func TestSignupEndpoint(t *testing.T) {
	router := newTestRouter(t)

	rec, body := doJSON(t, router, http.MethodPost, "/api/auth/signup", map[string]string{
		"name": "Ada", "email": "ada@example.com", "password": "abc123",
	}, nil)
	require.Equal(t, http.StatusCreated, rec.Code)
	require.Equal(t, "Account created successfully", body["message"])

	// case-insensitive duplicate
	rec, body = doJSON(t, router, http.MethodPost, "/api/auth/signup", map[string]string{
		"name": "Ada", "email": "ADA@EXAMPLE.COM", "password": "abc123",
	}, nil)
	require.Equal(t, http.StatusConflict, rec.Code)
	require.Equal(t, "Email already registered", body["error"])

	// short password
	rec, body = doJSON(t, router, http.MethodPost, "/api/auth/signup", map[string]string{
		"name": "Bob", "email": "bob@example.com", "password": "abc12",
	}, nil)
	require.Equal(t, http.StatusBadRequest, rec.Code)
	require.Contains(t, body["error"], "at least 6 characters")

	// bad email shape
	rec, _ = doJSON(t, router, http.MethodPost, "/api/auth/signup", map[string]string{
		"name": "Bob", "email": "bob@nodomain", "password": "abc123",
	}, nil)
	require.Equal(t, http.StatusBadRequest, rec.Code)

	// missing fields
	rec, _ = doJSON(t, router, http.MethodPost, "/api/auth/signup", map[string]string{
		"email": "x@y.com",
	}, nil)
	require.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestLoginEndpoint(t *testing.T) {
	router := newTestRouter(t)

	rec, _ := doJSON(t, router, http.MethodPost, "/api/auth/signup", map[string]string{
		"name": "Ada", "email": "ada@example.com", "password": "abc123",
	}, nil)
	require.Equal(t, http.StatusCreated, rec.Code)

	rec, body := doJSON(t, router, http.MethodPost, "/api/auth/login", map[string]string{
		"email": "Ada@Example.com", "password": "abc123",
	}, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, "Login successful", body["message"])
	require.NotEmpty(t, body["access_token"])

	user, ok := body["user"].(map[string]any)
	require.True(t, ok)
	require.Equal(t, "Ada", user["name"])
	require.Equal(t, "ada@example.com", user["email"])
	_, leaked := user["passwordHash"]
	require.False(t, leaked)

	// wrong password and unknown account share status and body shape
	recWrong, bodyWrong := doJSON(t, router, http.MethodPost, "/api/auth/login", map[string]string{
		"email": "ada@example.com", "password": "nope12",
	}, nil)
	recGhost, bodyGhost := doJSON(t, router, http.MethodPost, "/api/auth/login", map[string]string{
		"email": "ghost@example.com", "password": "abc123",
	}, nil)
	require.Equal(t, http.StatusUnauthorized, recWrong.Code)
	require.Equal(t, http.StatusUnauthorized, recGhost.Code)
	require.Equal(t, bodyWrong, bodyGhost)

	// missing fields
	rec, _ = doJSON(t, router, http.MethodPost, "/api/auth/login", map[string]string{
		"email": "ada@example.com",
	}, nil)
	require.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestVerifyEndpoint(t *testing.T) {
	router := newTestRouter(t)

	rec, _ := doJSON(t, router, http.MethodPost, "/api/auth/signup", map[string]string{
		"name": "Ada", "email": "ada@example.com", "password": "abc123",
	}, nil)
	require.Equal(t, http.StatusCreated, rec.Code)

	rec, body := doJSON(t, router, http.MethodPost, "/api/auth/login", map[string]string{
		"email": "ada@example.com", "password": "abc123",
	}, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	accessToken, _ := body["access_token"].(string)
	require.NotEmpty(t, accessToken)

	rec, body = doJSON(t, router, http.MethodGet, "/api/auth/verify", nil, map[string]string{
		"Authorization": "Bearer " + accessToken,
	})
	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, true, body["valid"])
	require.Equal(t, "ada@example.com", body["email"])
	require.Equal(t, "Ada", body["name"])
	require.NotZero(t, body["user_id"])

	// missing header
	rec, _ = doJSON(t, router, http.MethodGet, "/api/auth/verify", nil, nil)
	require.Equal(t, http.StatusUnauthorized, rec.Code)

	// malformed scheme
	rec, _ = doJSON(t, router, http.MethodGet, "/api/auth/verify", nil, map[string]string{
		"Authorization": "Token " + accessToken,
	})
	require.Equal(t, http.StatusUnauthorized, rec.Code)

	// tampered token
	tampered := accessToken[:len(accessToken)-2] + "xx"
	rec, _ = doJSON(t, router, http.MethodGet, "/api/auth/verify", nil, map[string]string{
		"Authorization": "Bearer " + tampered,
	})
	require.Equal(t, http.StatusUnauthorized, rec.Code)

	// expired token signed with the same secret
	expired, err := token.NewCodec(testSecret, -time.Hour).Issue(&domain.User{ID: 1, Name: "Ada", Email: "ada@example.com"})
	require.NoError(t, err)
	rec, body = doJSON(t, router, http.MethodGet, "/api/auth/verify", nil, map[string]string{
		"Authorization": "Bearer " + expired,
	})
	require.Equal(t, http.StatusUnauthorized, rec.Code)
	require.Equal(t, "Token has expired", body["error"])
}

func TestUnknownRoute(t *testing.T) {
	router := newTestRouter(t)

	rec, body := doJSON(t, router, http.MethodGet, "/api/nope", nil, nil)
	require.Equal(t, http.StatusNotFound, rec.Code)
	require.Equal(t, "Endpoint not found", body["error"])
}
