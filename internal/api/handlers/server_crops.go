package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"

	"agroledger.io/agroledger/internal/domain"
	apperrors "agroledger.io/agroledger/internal/pkg/errors"
)

type cropCycleRequest struct {
	Name           string              `json:"name" binding:"required"`
	Variety        string              `json:"variety"`
	State          string              `json:"state"`
	SownOn         string              `json:"sown_on"`
	HarvestedOn    string              `json:"harvested_on"`
	ProducedKg     decimal.NullDecimal `json:"produced_kg"`
	EstimatedYield decimal.NullDecimal `json:"estimated_yield"`
	ActualYield    decimal.NullDecimal `json:"actual_yield"`
}

func (r cropCycleRequest) toDomain(id, plotID int64) (domain.CropCycle, error) {
	cc := domain.CropCycle{
		ID:             id,
		PlotID:         plotID,
		Name:           r.Name,
		Variety:        r.Variety,
		ProducedKg:     r.ProducedKg,
		EstimatedYield: r.EstimatedYield,
		ActualYield:    r.ActualYield,
	}
	if r.State != "" {
		state, err := domain.ParseCropState(r.State)
		if err != nil {
			return domain.CropCycle{}, apperrors.BadRequest(apperrors.CodeValidationFailed, err.Error()).
				WithFieldErrors([]apperrors.FieldError{{Field: "state", Code: "INVALID"}})
		}
		cc.State = state
	}

	sown, err := parseDate("sown_on", r.SownOn)
	if err != nil {
		return domain.CropCycle{}, err
	}
	cc.SownOn = sown

	if r.HarvestedOn != "" {
		harvested, err := parseDate("harvested_on", r.HarvestedOn)
		if err != nil {
			return domain.CropCycle{}, err
		}
		cc.HarvestedOn = &harvested
	}
	return cc, nil
}

// cropCyclePlot resolves a crop cycle and checks its plot against the
// caller's scope.
func (s *Server) cropCyclePlot(c *gin.Context, cycleID int64) (domain.CropCycle, bool) {
	caller, ok := s.caller(c)
	if !ok {
		return domain.CropCycle{}, false
	}
	cc, err := s.repos.CropCycles.GetByID(c.Request.Context(), cycleID)
	if err != nil {
		_ = c.Error(err)
		return domain.CropCycle{}, false
	}
	if !s.plotScope(c, caller, cc.PlotID) {
		return domain.CropCycle{}, false
	}
	return cc, true
}

// ListCropCycles handles GET /plots/:id/crop-cycles.
func (s *Server) ListCropCycles(c *gin.Context) {
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

	cycles, err := s.repos.CropCycles.ListByPlot(c.Request.Context(), plotID)
	if err != nil {
		_ = c.Error(err)
		return
	}
	out := make([]cropCycleResponse, 0, len(cycles))
	for _, cc := range cycles {
		out = append(out, toCropCycleResponse(cc))
	}
	c.JSON(http.StatusOK, out)
}

// CreateCropCycle handles POST /plots/:id/crop-cycles.
func (s *Server) CreateCropCycle(c *gin.Context) {
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

	var req cropCycleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		_ = c.Error(apperrors.BadRequest(apperrors.CodeValidationFailed, "invalid crop cycle payload"))
		return
	}
	cc, err := req.toDomain(0, plotID)
	if err != nil {
		_ = c.Error(err)
		return
	}

	created, err := s.repos.CropCycles.Create(c.Request.Context(), cc)
	if err != nil {
		_ = c.Error(err)
		return
	}
	c.JSON(http.StatusCreated, toCropCycleResponse(created))
}

// GetCropCycle handles GET /crop-cycles/:id.
func (s *Server) GetCropCycle(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	cc, ok := s.cropCyclePlot(c, id)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, toCropCycleResponse(cc))
}

// UpdateCropCycle handles PUT /crop-cycles/:id. The cycle stays on its
// plot; moving records between plots is not supported.
func (s *Server) UpdateCropCycle(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	existing, ok := s.cropCyclePlot(c, id)
	if !ok {
		return
	}

	var req cropCycleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		_ = c.Error(apperrors.BadRequest(apperrors.CodeValidationFailed, "invalid crop cycle payload"))
		return
	}
	cc, err := req.toDomain(id, existing.PlotID)
	if err != nil {
		_ = c.Error(err)
		return
	}
	if cc.SownOn.IsZero() {
		cc.SownOn = existing.SownOn
	}

	if err := s.repos.CropCycles.Update(c.Request.Context(), cc); err != nil {
		_ = c.Error(err)
		return
	}
	updated, err := s.repos.CropCycles.GetByID(c.Request.Context(), id)
	if err != nil {
		_ = c.Error(err)
		return
	}
	c.JSON(http.StatusOK, toCropCycleResponse(updated))
}

// DeleteCropCycle handles DELETE /crop-cycles/:id.
func (s *Server) DeleteCropCycle(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	if _, ok := s.cropCyclePlot(c, id); !ok {
		return
	}

	deleted, err := s.repos.CropCycles.Delete(c.Request.Context(), id)
	if err != nil {
		_ = c.Error(err)
		return
	}
	if !deleted {
		_ = c.Error(apperrors.NotFound(apperrors.CodeCropCycleNotFound, "crop cycle not found"))
		return
	}
	c.Status(http.StatusNoContent)
}
