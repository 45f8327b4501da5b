package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"agroledger.io/agroledger/internal/api/middleware"
	apperrors "agroledger.io/agroledger/internal/pkg/errors"
	"agroledger.io/agroledger/internal/pkg/logger"
)

type loginRequest struct {
	Login    string `json:"login" binding:"required"`
	Password string `json:"password" binding:"required"`
}

type loginResponse struct {
	Token     string          `json:"token"`
	ExpiresAt string          `json:"expires_at"`
	Account   accountResponse `json:"account"`
}

// Login handles POST /auth/login. The login field accepts either the
// login name or the email address.
func (s *Server) Login(c *gin.Context) {
	var req loginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		_ = c.Error(apperrors.BadRequest(apperrors.CodeValidationFailed, "login and password are required"))
		return
	}

	account, err := s.verifier.Authenticate(c.Request.Context(), req.Login, req.Password)
	if err != nil {
		logger.Warn("Login failed", zap.String("login", req.Login))
		_ = c.Error(err)
		return
	}

	token, expiresAt, err := middleware.GenerateToken(s.jwtCfg, account)
	if err != nil {
		_ = c.Error(apperrors.Wrap(err, apperrors.CodeTokenInvalid, "issue token", http.StatusInternalServerError))
		return
	}

	c.JSON(http.StatusOK, loginResponse{
		Token:     token,
		ExpiresAt: expiresAt.UTC().Format(time.RFC3339),
		Account:   toAccountResponse(account),
	})
}

// Me handles GET /auth/me.
func (s *Server) Me(c *gin.Context) {
	caller, ok := s.caller(c)
	if !ok {
		return
	}

	account, err := s.repos.Accounts.GetByID(c.Request.Context(), caller.AccountID)
	if err != nil {
		_ = c.Error(err)
		return
	}
	c.JSON(http.StatusOK, toAccountResponse(account))
}
