// Package handlers implements the HTTP surface over the persistence and
// aggregation core. Handlers bind requests, call the repositories and
// services, and push failures through the error-handling middleware.
package handlers

import (
	"github.com/gin-gonic/gin"

	"agroledger.io/agroledger/internal/access"
	"agroledger.io/agroledger/internal/api/middleware"
	"agroledger.io/agroledger/internal/auth"
	"agroledger.io/agroledger/internal/finance"
	"agroledger.io/agroledger/internal/infrastructure"
	apperrors "agroledger.io/agroledger/internal/pkg/errors"
	"agroledger.io/agroledger/internal/repository/postgres"
)

// Server implements all API handlers.
type Server struct {
	db       *infrastructure.DB
	repos    *postgres.Repositories
	verifier *auth.Verifier
	scopes   *access.Resolver
	finance  *finance.Aggregator
	jwtCfg   middleware.JWTConfig
}

// ServerDeps holds all dependencies for creating a Server. Dependency
// wiring is manual, no injection framework.
type ServerDeps struct {
	DB       *infrastructure.DB
	Repos    *postgres.Repositories
	Verifier *auth.Verifier
	Scopes   *access.Resolver
	Finance  *finance.Aggregator
	JWTCfg   middleware.JWTConfig
}

// NewServer creates a new Server with all dependencies.
func NewServer(deps ServerDeps) *Server {
	return &Server{
		db:       deps.DB,
		repos:    deps.Repos,
		verifier: deps.Verifier,
		scopes:   deps.Scopes,
		finance:  deps.Finance,
		jwtCfg:   deps.JWTCfg,
	}
}

// caller returns the authenticated caller or aborts with 401.
func (s *Server) caller(c *gin.Context) (access.Caller, bool) {
	caller, ok := middleware.CallerFrom(c)
	if !ok {
		_ = c.Error(apperrors.Unauthorized(apperrors.CodeTokenInvalid, "caller is not authenticated"))
		c.Abort()
	}
	return caller, ok
}

// plotScope resolves the caller's scope and checks one plot against it.
func (s *Server) plotScope(c *gin.Context, caller access.Caller, plotID int64) bool {
	scope, err := s.scopes.Resolve(c.Request.Context(), caller)
	if err != nil {
		_ = c.Error(err)
		return false
	}
	if !scope.Allows(plotID) {
		_ = c.Error(apperrors.Forbidden(apperrors.CodePlotDenied, "plot is outside the caller's scope"))
		return false
	}
	return true
}
