package handlers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"

	"agroledger.io/agroledger/internal/domain"
	apperrors "agroledger.io/agroledger/internal/pkg/errors"
)

type movementRequest struct {
	Kind    string          `json:"kind" binding:"required"`
	Concept string          `json:"concept" binding:"required"`
	Amount  decimal.Decimal `json:"amount"`
	Date    string          `json:"date"`
	Notes   string          `json:"notes"`
}

func (r movementRequest) toDomain(id, plotID int64) (domain.FinancialMovement, error) {
	kind, err := domain.ParseMovementKind(r.Kind)
	if err != nil {
		return domain.FinancialMovement{}, apperrors.BadRequest(apperrors.CodeValidationFailed, err.Error()).
			WithFieldErrors([]apperrors.FieldError{{Field: "kind", Code: "INVALID"}})
	}
	date, err := parseDate("date", r.Date)
	if err != nil {
		return domain.FinancialMovement{}, err
	}
	return domain.FinancialMovement{
		ID:      id,
		PlotID:  plotID,
		Kind:    kind,
		Concept: r.Concept,
		Amount:  r.Amount,
		Date:    date,
		Notes:   r.Notes,
	}, nil
}

// movementPlot resolves a movement and checks its plot against the
// caller's scope.
func (s *Server) movementPlot(c *gin.Context, movementID int64) (domain.FinancialMovement, bool) {
	caller, ok := s.caller(c)
	if !ok {
		return domain.FinancialMovement{}, false
	}
	m, err := s.repos.Movements.GetByID(c.Request.Context(), movementID)
	if err != nil {
		_ = c.Error(err)
		return domain.FinancialMovement{}, false
	}
	if !s.plotScope(c, caller, m.PlotID) {
		return domain.FinancialMovement{}, false
	}
	return m, true
}

// ListMovements handles GET /plots/:id/movements.
func (s *Server) ListMovements(c *gin.Context) {
	caller, ok := s.caller(c)
	if !ok {
		return
	}
	plotID, ok := pathID(c, "id")
	if !ok {
		return
	}
	if !s.plotScope(c, caller, plotID) {
		return
	}

	movements, err := s.repos.Movements.ListByPlot(c.Request.Context(), plotID)
	if err != nil {
		_ = c.Error(err)
		return
	}
	out := make([]movementResponse, 0, len(movements))
	for _, m := range movements {
		out = append(out, toMovementResponse(m))
	}
	c.JSON(http.StatusOK, out)
}

// CreateMovement handles POST /plots/:id/movements.
func (s *Server) CreateMovement(c *gin.Context) {
	caller, ok := s.caller(c)
	if !ok {
		return
	}
	plotID, ok := pathID(c, "id")
	if !ok {
		return
	}
	if !s.plotScope(c, caller, plotID) {
		return
	}

	var req movementRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		_ = c.Error(apperrors.BadRequest(apperrors.CodeValidationFailed, "invalid movement payload"))
		return
	}
	m, err := req.toDomain(0, plotID)
	if err != nil {
		_ = c.Error(err)
		return
	}

	created, err := s.repos.Movements.Create(c.Request.Context(), m)
	if err != nil {
		_ = c.Error(err)
		return
	}
	c.JSON(http.StatusCreated, toMovementResponse(created))
}

// UpdateMovement handles PUT /movements/:id.
func (s *Server) UpdateMovement(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	existing, ok := s.movementPlot(c, id)
	if !ok {
		return
	}

	var req movementRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		_ = c.Error(apperrors.BadRequest(apperrors.CodeValidationFailed, "invalid movement payload"))
		return
	}
	m, err := req.toDomain(id, existing.PlotID)
	if err != nil {
		_ = c.Error(err)
		return
	}
	if m.Date.IsZero() {
		m.Date = existing.Date
	}

	if err := s.repos.Movements.Update(c.Request.Context(), m); err != nil {
		_ = c.Error(err)
		return
	}
	updated, err := s.repos.Movements.GetByID(c.Request.Context(), id)
	if err != nil {
		_ = c.Error(err)
		return
	}
	c.JSON(http.StatusOK, toMovementResponse(updated))
}

// DeleteMovement handles DELETE /movements/:id.
func (s *Server) DeleteMovement(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	if _, ok := s.movementPlot(c, id); !ok {
		return
	}

	deleted, err := s.repos.Movements.Delete(c.Request.Context(), id)
	if err != nil {
		_ = c.Error(err)
		return
	}
	if !deleted {
		_ = c.Error(apperrors.NotFound(apperrors.CodeMovementNotFound, "movement not found"))
		return
	}
	c.Status(http.StatusNoContent)
}

// RecentMovements handles GET /movements/recent. The result covers only
// the caller's plots, newest first.
func (s *Server) RecentMovements(c *gin.Context) {
	caller, ok := s.caller(c)
	if !ok {
		return
	}
	ctx := c.Request.Context()

	limit := 20
	if raw := c.Query("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n <= 0 || n > 500 {
			_ = c.Error(apperrors.BadRequest(apperrors.CodeValidationFailed, "limit must be between 1 and 500"))
			return
		}
		limit = n
	}

	scope, err := s.scopes.Resolve(ctx, caller)
	if err != nil {
		_ = c.Error(err)
		return
	}

	var movements []domain.FinancialMovement
	if scope.Unrestricted {
		movements, err = s.repos.Movements.ListRecent(ctx, limit)
	} else {
		movements, err = s.repos.Movements.ListRecentByPlots(ctx, scope.PlotIDs, limit)
	}
	if err != nil {
		_ = c.Error(err)
		return
	}

	out := make([]movementResponse, 0, len(movements))
	for _, m := range movements {
		out = append(out, toMovementResponse(m))
	}
	c.JSON(http.StatusOK, out)
}

// BalanceSummary handles GET /balance. It totals the balances of every
// plot the caller may see.
func (s *Server) BalanceSummary(c *gin.Context) {
	caller, ok := s.caller(c)
	if !ok {
		return
	}

	total, err := s.finance.VisibleBalance(c.Request.Context(), caller)
	if err != nil {
		_ = c.Error(err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"balance": total})
}
