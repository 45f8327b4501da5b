package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"agroledger.io/agroledger/internal/access"
	"agroledger.io/agroledger/internal/api/middleware"
	"agroledger.io/agroledger/internal/auth"
	"agroledger.io/agroledger/internal/domain"
	"agroledger.io/agroledger/internal/finance"
	"agroledger.io/agroledger/internal/repository/postgres"
	"agroledger.io/agroledger/internal/testutil"
)

type balanceBody struct {
	PlotID  int64           `json:"plot_id"`
	Balance decimal.Decimal `json:"balance"`
}

type testEnv struct {
	router *gin.Engine
	repos  *postgres.Repositories
	jwtCfg middleware.JWTConfig
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	gin.SetMode(gin.TestMode)

	db := testutil.OpenDB(t, "api")
	require.NoError(t, postgres.Migrate(context.Background(), db))

	repos := postgres.NewRepositories(db)
	scopes := access.NewResolver(repos.Plots)
	aggregator := finance.NewAggregator(scopes, repos.Plots, repos.Movements, repos.Treatments)
	verifier := auth.NewVerifier(repos.Accounts, bcrypt.MinCost)

	jwtCfg := middleware.JWTConfig{
		SigningKey: []byte("integration-test-key-123456789012"),
		Issuer:     "agroledger",
		ExpiresIn:  time.Hour,
	}

	server := NewServer(ServerDeps{
		DB:       db,
		Repos:    repos,
		Verifier: verifier,
		Scopes:   scopes,
		Finance:  aggregator,
		JWTCfg:   jwtCfg,
	})

	router := gin.New()
	router.Use(gin.Recovery(), middleware.ErrorHandler())
	RegisterRoutes(router, server, jwtCfg.SigningKey)

	return &testEnv{router: router, repos: repos, jwtCfg: jwtCfg}
}

func (e *testEnv) createAccount(t *testing.T, login, password string, role domain.Role) domain.Account {
	t.Helper()

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.MinCost)
	require.NoError(t, err)
	a, err := e.repos.Accounts.Create(context.Background(), domain.Account{
		Name:         "Test",
		Email:        login + "@example.com",
		Login:        login,
		PasswordHash: string(hash),
		Role:         role,
	})
	require.NoError(t, err)
	return a
}

func (e *testEnv) token(t *testing.T, account domain.Account) string {
	t.Helper()
	token, _, err := middleware.GenerateToken(e.jwtCfg, account)
	require.NoError(t, err)
	return token
}

func (e *testEnv) do(t *testing.T, method, path, token string, body any) *httptest.ResponseRecorder {
	t.Helper()

	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	e.router.ServeHTTP(w, req)
	return w
}

func decode[T any](t *testing.T, w *httptest.ResponseRecorder) T {
	t.Helper()
	var out T
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &out), "body: %s", w.Body.String())
	return out
}

func TestLoginFlow(t *testing.T) {
	env := newTestEnv(t)
	env.createAccount(t, "mvidal", "s3cret", domain.RoleOwner)

	w := env.do(t, http.MethodPost, "/api/v1/auth/login", "", gin.H{
		"login": "mvidal", "password": "s3cret",
	})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	resp := decode[map[string]any](t, w)
	assert.NotEmpty(t, resp["token"])

	w = env.do(t, http.MethodPost, "/api/v1/auth/login", "", gin.H{
		"login": "mvidal", "password": "wrong",
	})
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Contains(t, w.Body.String(), "INVALID_CREDENTIALS")
}

func TestPlotLifecycleAndBalance(t *testing.T) {
	env := newTestEnv(t)
	owner := env.createAccount(t, "mvidal", "s3cret", domain.RoleOwner)
	token := env.token(t, owner)

	w := env.do(t, http.MethodPost, "/api/v1/plots", token, gin.H{
		"name": "La Vega", "location": "Ribera", "area": "12.50",
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	plot := decode[map[string]any](t, w)
	plotID := int64(plot["id"].(float64))
	assert.Equal(t, "ACTIVE", plot["state"])

	w = env.do(t, http.MethodPost, fmt.Sprintf("/api/v1/plots/%d/crop-cycles", plotID), token, gin.H{
		"name": "Maize", "sown_on": "2026-04-01",
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	cycle := decode[map[string]any](t, w)
	cycleID := int64(cycle["id"].(float64))

	w = env.do(t, http.MethodPost, fmt.Sprintf("/api/v1/crop-cycles/%d/treatments", cycleID), token, gin.H{
		"product": "NPK 15-15-15", "category": "fertilizer", "cost": "80.00",
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	w = env.do(t, http.MethodPost, fmt.Sprintf("/api/v1/plots/%d/movements", plotID), token, gin.H{
		"kind": "income", "concept": "Harvest sale", "amount": "500.00", "date": "2026-09-25",
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	w = env.do(t, http.MethodPost, fmt.Sprintf("/api/v1/plots/%d/movements", plotID), token, gin.H{
		"kind": "expense", "concept": "Seed purchase", "amount": "120.00", "date": "2026-04-02",
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	// Net 500 - 120 movements, minus 80 treatment cost.
	w = env.do(t, http.MethodGet, fmt.Sprintf("/api/v1/plots/%d/balance", plotID), token, nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	balance := decode[balanceBody](t, w)
	assert.Equal(t, plotID, balance.PlotID)
	assert.True(t, balance.Balance.Equal(decimal.NewFromInt(300)), "balance %s", balance.Balance)

	w = env.do(t, http.MethodGet, "/api/v1/balance", token, nil)
	require.Equal(t, http.StatusOK, w.Code)
	summary := decode[balanceBody](t, w)
	assert.True(t, summary.Balance.Equal(decimal.NewFromInt(300)), "balance %s", summary.Balance)

	// Movements come back newest first.
	w = env.do(t, http.MethodGet, fmt.Sprintf("/api/v1/plots/%d/movements", plotID), token, nil)
	require.Equal(t, http.StatusOK, w.Code)
	movements := decode[[]map[string]any](t, w)
	require.Len(t, movements, 2)
	assert.Equal(t, "Harvest sale", movements[0]["concept"])

	// Listing attaches each visible plot's balance.
	w = env.do(t, http.MethodGet, "/api/v1/plots", token, nil)
	require.Equal(t, http.StatusOK, w.Code)
	listed := decode[[]struct {
		ID      int64            `json:"id"`
		Balance *decimal.Decimal `json:"balance"`
	}](t, w)
	require.Len(t, listed, 1)
	require.NotNil(t, listed[0].Balance)
	assert.True(t, listed[0].Balance.Equal(decimal.NewFromInt(300)), "balance %s", listed[0].Balance)

	w = env.do(t, http.MethodGet, "/api/v1/movements/recent?limit=1", token, nil)
	require.Equal(t, http.StatusOK, w.Code)
	recent := decode[[]map[string]any](t, w)
	require.Len(t, recent, 1)
	assert.Equal(t, "Harvest sale", recent[0]["concept"])
}

func TestPlotScopeEnforcement(t *testing.T) {
	env := newTestEnv(t)
	owner := env.createAccount(t, "mvidal", "s3cret", domain.RoleOwner)
	intruder := env.createAccount(t, "jlopez", "s3cret", domain.RoleOwner)
	admin := env.createAccount(t, "root", "s3cret", domain.RoleAdmin)

	ownerToken := env.token(t, owner)
	w := env.do(t, http.MethodPost, "/api/v1/plots", ownerToken, gin.H{"name": "La Vega"})
	require.Equal(t, http.StatusCreated, w.Code)
	plot := decode[map[string]any](t, w)
	plotID := int64(plot["id"].(float64))

	// Another owner cannot see or touch the plot.
	intruderToken := env.token(t, intruder)
	w = env.do(t, http.MethodGet, fmt.Sprintf("/api/v1/plots/%d", plotID), intruderToken, nil)
	assert.Equal(t, http.StatusForbidden, w.Code)
	assert.Contains(t, w.Body.String(), "PLOT_ACCESS_DENIED")

	w = env.do(t, http.MethodGet, fmt.Sprintf("/api/v1/plots/%d/balance", plotID), intruderToken, nil)
	assert.Equal(t, http.StatusForbidden, w.Code)

	w = env.do(t, http.MethodDelete, fmt.Sprintf("/api/v1/plots/%d", plotID), intruderToken, nil)
	assert.Equal(t, http.StatusForbidden, w.Code)

	// Admins see everything.
	adminToken := env.token(t, admin)
	w = env.do(t, http.MethodGet, fmt.Sprintf("/api/v1/plots/%d", plotID), adminToken, nil)
	assert.Equal(t, http.StatusOK, w.Code)

	// Unauthenticated requests never reach the handlers.
	w = env.do(t, http.MethodGet, "/api/v1/plots", "", nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestAdminAccountEndpoints(t *testing.T) {
	env := newTestEnv(t)
	admin := env.createAccount(t, "root", "s3cret", domain.RoleAdmin)
	owner := env.createAccount(t, "mvidal", "s3cret", domain.RoleOwner)

	adminToken := env.token(t, admin)
	ownerToken := env.token(t, owner)

	// Owners are locked out of the admin surface.
	w := env.do(t, http.MethodGet, "/api/v1/admin/accounts", ownerToken, nil)
	assert.Equal(t, http.StatusForbidden, w.Code)

	w = env.do(t, http.MethodPost, "/api/v1/admin/accounts", adminToken, gin.H{
		"name": "Juan", "email": "juan@example.com", "login": "juan", "password": "pw", "role": "owner",
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	created := decode[map[string]any](t, w)
	newID := int64(created["id"].(float64))

	// Duplicate login is a conflict.
	w = env.do(t, http.MethodPost, "/api/v1/admin/accounts", adminToken, gin.H{
		"name": "Dup", "email": "dup@example.com", "login": "juan", "password": "pw",
	})
	assert.Equal(t, http.StatusConflict, w.Code)
	assert.Contains(t, w.Body.String(), "DUPLICATE_LOGIN")

	w = env.do(t, http.MethodPatch, fmt.Sprintf("/api/v1/admin/accounts/%d/active", newID), adminToken, gin.H{
		"active": false,
	})
	assert.Equal(t, http.StatusNoContent, w.Code)

	// A deactivated account cannot sign in.
	w = env.do(t, http.MethodPost, "/api/v1/auth/login", "", gin.H{
		"login": "juan", "password": "pw",
	})
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w = env.do(t, http.MethodDelete, fmt.Sprintf("/api/v1/admin/accounts/%d", newID), adminToken, nil)
	assert.Equal(t, http.StatusNoContent, w.Code)

	w = env.do(t, http.MethodGet, "/api/v1/admin/accounts", adminToken, nil)
	require.Equal(t, http.StatusOK, w.Code)
	accounts := decode[[]map[string]any](t, w)
	assert.Len(t, accounts, 2)
}
