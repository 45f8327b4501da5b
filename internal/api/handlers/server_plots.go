package handlers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"

	"agroledger.io/agroledger/internal/domain"
	apperrors "agroledger.io/agroledger/internal/pkg/errors"
)

type plotRequest struct {
	OwnerID    int64               `json:"owner_id"`
	Name       string              `json:"name" binding:"required"`
	Location   string              `json:"location"`
	Area       decimal.NullDecimal `json:"area"`
	SoilType   string              `json:"soil_type"`
	Irrigation string              `json:"irrigation"`
	Boundary   string              `json:"boundary"`
	State      string              `json:"state"`
}

func (r plotRequest) toDomain(id int64) (domain.Plot, error) {
	p := domain.Plot{
		ID:         id,
		OwnerID:    r.OwnerID,
		Name:       r.Name,
		Location:   r.Location,
		Area:       r.Area,
		SoilType:   r.SoilType,
		Irrigation: r.Irrigation,
		Boundary:   r.Boundary,
	}
	if r.State != "" {
		state, err := domain.ParsePlotState(r.State)
		if err != nil {
			return domain.Plot{}, apperrors.BadRequest(apperrors.CodeValidationFailed, err.Error()).
				WithFieldErrors([]apperrors.FieldError{{Field: "state", Code: "INVALID"}})
		}
		p.State = state
	}
	return p, nil
}

func pathID(c *gin.Context, name string) (int64, bool) {
	id, err := strconv.ParseInt(c.Param(name), 10, 64)
	if err != nil || id <= 0 {
		_ = c.Error(apperrors.BadRequest(apperrors.CodeValidationFailed, name+" must be a positive integer"))
		return 0, false
	}
	return id, true
}

// ListPlots handles GET /plots. Admins see every plot, owners only
// their own, each with its computed balance.
func (s *Server) ListPlots(c *gin.Context) {
	caller, ok := s.caller(c)
	if !ok {
		return
	}
	ctx := c.Request.Context()

	var plots []domain.Plot
	var err error
	if caller.Role == domain.RoleAdmin {
		plots, err = s.repos.Plots.List(ctx)
	} else {
		plots, err = s.repos.Plots.ListByOwner(ctx, caller.AccountID)
	}
	if err != nil {
		_ = c.Error(err)
		return
	}

	ids := make([]int64, 0, len(plots))
	for _, p := range plots {
		ids = append(ids, p.ID)
	}
	balances, err := s.finance.BalancesFor(ctx, caller, ids)
	if err != nil {
		_ = c.Error(err)
		return
	}

	out := make([]plotResponse, 0, len(plots))
	for _, p := range plots {
		resp := toPlotResponse(p)
		if b, ok := balances[p.ID]; ok {
			resp.Balance = &b
		}
		out = append(out, resp)
	}
	c.JSON(http.StatusOK, out)
}

// GetPlot handles GET /plots/:id.
func (s *Server) GetPlot(c *gin.Context) {
	caller, ok := s.caller(c)
	if !ok {
		return
	}
	id, ok := pathID(c, "id")
	if !ok {
		return
	}

	p, err := s.repos.Plots.GetByID(c.Request.Context(), id)
	if err != nil {
		_ = c.Error(err)
		return
	}
	if !s.plotScope(c, caller, id) {
		return
	}
	c.JSON(http.StatusOK, toPlotResponse(p))
}

// CreatePlot handles POST /plots. Owners can only register plots under
// their own account; admins may set any owner.
func (s *Server) CreatePlot(c *gin.Context) {
	caller, ok := s.caller(c)
	if !ok {
		return
	}

	var req plotRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		_ = c.Error(apperrors.BadRequest(apperrors.CodeValidationFailed, "invalid plot payload"))
		return
	}
	p, err := req.toDomain(0)
	if err != nil {
		_ = c.Error(err)
		return
	}
	if caller.Role != domain.RoleAdmin || p.OwnerID == 0 {
		p.OwnerID = caller.AccountID
	}

	created, err := s.repos.Plots.Create(c.Request.Context(), p)
	if err != nil {
		_ = c.Error(err)
		return
	}
	c.JSON(http.StatusCreated, toPlotResponse(created))
}

// UpdatePlot handles PUT /plots/:id.
func (s *Server) UpdatePlot(c *gin.Context) {
	caller, ok := s.caller(c)
	if !ok {
		return
	}
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	if !s.plotScope(c, caller, id) {
		return
	}

	var req plotRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		_ = c.Error(apperrors.BadRequest(apperrors.CodeValidationFailed, "invalid plot payload"))
		return
	}
	p, err := req.toDomain(id)
	if err != nil {
		_ = c.Error(err)
		return
	}

	existing, err := s.repos.Plots.GetByID(c.Request.Context(), id)
	if err != nil {
		_ = c.Error(err)
		return
	}
	// Registration date is immutable; ownership moves only for admins.
	p.RegisteredOn = existing.RegisteredOn
	if caller.Role != domain.RoleAdmin || req.OwnerID == 0 {
		p.OwnerID = existing.OwnerID
	}

	if err := s.repos.Plots.Update(c.Request.Context(), p); err != nil {
		_ = c.Error(err)
		return
	}
	updated, err := s.repos.Plots.GetByID(c.Request.Context(), id)
	if err != nil {
		_ = c.Error(err)
		return
	}
	c.JSON(http.StatusOK, toPlotResponse(updated))
}

// DeletePlot handles DELETE /plots/:id. Dependent crop cycles,
// treatments and movements go with it.
func (s *Server) DeletePlot(c *gin.Context) {
	caller, ok := s.caller(c)
	if !ok {
		return
	}
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	if !s.plotScope(c, caller, id) {
		return
	}

	deleted, err := s.repos.Plots.Delete(c.Request.Context(), id)
	if err != nil {
		_ = c.Error(err)
		return
	}
	if !deleted {
		_ = c.Error(apperrors.NotFound(apperrors.CodePlotNotFound, "plot not found"))
		return
	}
	c.Status(http.StatusNoContent)
}

// PlotBalance handles GET /plots/:id/balance.
func (s *Server) PlotBalance(c *gin.Context) {
	caller, ok := s.caller(c)
	if !ok {
		return
	}
	id, ok := pathID(c, "id")
	if !ok {
		return
	}

	balance, err := s.finance.PlotBalance(c.Request.Context(), caller, id)
	if err != nil {
		_ = c.Error(err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"plot_id": id, "balance": balance})
}
