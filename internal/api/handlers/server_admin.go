package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"agroledger.io/agroledger/internal/domain"
	apperrors "agroledger.io/agroledger/internal/pkg/errors"
)

type accountRequest struct {
	Name     string `json:"name" binding:"required"`
	Surname  string `json:"surname"`
	Email    string `json:"email" binding:"required,email"`
	Login    string `json:"login" binding:"required"`
	Password string `json:"password"`
	Role     string `json:"role"`
	Active   *bool  `json:"active"`
}

func (r accountRequest) toDomain(id int64) (domain.Account, error) {
	a := domain.Account{
		ID:      id,
		Name:    r.Name,
		Surname: r.Surname,
		Email:   r.Email,
		Login:   r.Login,
	}
	if r.Role != "" {
		role, err := domain.ParseRole(r.Role)
		if err != nil {
			return domain.Account{}, apperrors.BadRequest(apperrors.CodeValidationFailed, err.Error()).
				WithFieldErrors([]apperrors.FieldError{{Field: "role", Code: "INVALID"}})
		}
		a.Role = role
	}
	if r.Active != nil {
		a.Active = *r.Active
	}
	return a, nil
}

// ListAccounts handles GET /admin/accounts.
func (s *Server) ListAccounts(c *gin.Context) {
	accounts, err := s.repos.Accounts.List(c.Request.Context())
	if err != nil {
		_ = c.Error(err)
		return
	}
	out := make([]accountResponse, 0, len(accounts))
	for _, a := range accounts {
		out = append(out, toAccountResponse(a))
	}
	c.JSON(http.StatusOK, out)
}

// CreateAccount handles POST /admin/accounts.
func (s *Server) CreateAccount(c *gin.Context) {
	var req accountRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		_ = c.Error(apperrors.BadRequest(apperrors.CodeValidationFailed, "invalid account payload"))
		return
	}
	if req.Password == "" {
		_ = c.Error(apperrors.BadRequest(apperrors.CodeValidationFailed, "password is required").
			WithFieldErrors([]apperrors.FieldError{{Field: "password", Code: "REQUIRED"}}))
		return
	}

	a, err := req.toDomain(0)
	if err != nil {
		_ = c.Error(err)
		return
	}
	hash, err := s.verifier.Hash(req.Password)
	if err != nil {
		_ = c.Error(err)
		return
	}
	a.PasswordHash = hash

	created, err := s.repos.Accounts.Create(c.Request.Context(), a)
	if err != nil {
		_ = c.Error(err)
		return
	}
	c.JSON(http.StatusCreated, toAccountResponse(created))
}

// UpdateAccount handles PUT /admin/accounts/:id. An included password
// rotates the credential; an omitted one leaves it alone.
func (s *Server) UpdateAccount(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}

	var req accountRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		_ = c.Error(apperrors.BadRequest(apperrors.CodeValidationFailed, "invalid account payload"))
		return
	}

	existing, err := s.repos.Accounts.GetByID(c.Request.Context(), id)
	if err != nil {
		_ = c.Error(err)
		return
	}
	a, err := req.toDomain(id)
	if err != nil {
		_ = c.Error(err)
		return
	}
	if a.Role == "" {
		a.Role = existing.Role
	}
	if req.Active == nil {
		a.Active = existing.Active
	}

	if err := s.repos.Accounts.Update(c.Request.Context(), a); err != nil {
		_ = c.Error(err)
		return
	}
	if req.Password != "" {
		hash, err := s.verifier.Hash(req.Password)
		if err != nil {
			_ = c.Error(err)
			return
		}
		if err := s.repos.Accounts.UpdatePassword(c.Request.Context(), id, hash); err != nil {
			_ = c.Error(err)
			return
		}
	}

	updated, err := s.repos.Accounts.GetByID(c.Request.Context(), id)
	if err != nil {
		_ = c.Error(err)
		return
	}
	c.JSON(http.StatusOK, toAccountResponse(updated))
}

// SetAccountActive handles PATCH /admin/accounts/:id/active.
func (s *Server) SetAccountActive(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}

	var req struct {
		Active *bool `json:"active" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil || req.Active == nil {
		_ = c.Error(apperrors.BadRequest(apperrors.CodeValidationFailed, "active flag is required"))
		return
	}

	if err := s.repos.Accounts.SetActive(c.Request.Context(), id, *req.Active); err != nil {
		_ = c.Error(err)
		return
	}
	c.Status(http.StatusNoContent)
}

// DeleteAccount handles DELETE /admin/accounts/:id. Accounts that still
// own plots cannot be removed.
func (s *Server) DeleteAccount(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}

	deleted, err := s.repos.Accounts.Delete(c.Request.Context(), id)
	if err != nil {
		_ = c.Error(err)
		return
	}
	if !deleted {
		_ = c.Error(apperrors.NotFound(apperrors.CodeAccountNotFound, "account not found"))
		return
	}
	c.Status(http.StatusNoContent)
}
