package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"

	"agroledger.io/agroledger/internal/domain"
	apperrors "agroledger.io/agroledger/internal/pkg/errors"
)

type treatmentRequest struct {
	AppliedOn string              `json:"applied_on"`
	Product   string              `json:"product" binding:"required"`
	Category  string              `json:"category"`
	Dosage    string              `json:"dosage"`
	Cost      decimal.NullDecimal `json:"cost"`
	Notes     string              `json:"notes"`
}

func (r treatmentRequest) toDomain(id, cycleID int64) (domain.Treatment, error) {
	t := domain.Treatment{
		ID:          id,
		CropCycleID: cycleID,
		Product:     r.Product,
		Dosage:      r.Dosage,
		Cost:        r.Cost,
		Notes:       r.Notes,
	}
	if r.Category != "" {
		category, err := domain.ParseTreatmentCategory(r.Category)
		if err != nil {
			return domain.Treatment{}, apperrors.BadRequest(apperrors.CodeValidationFailed, err.Error()).
				WithFieldErrors([]apperrors.FieldError{{Field: "category", Code: "INVALID"}})
		}
		t.Category = category
	}

	applied, err := parseDate("applied_on", r.AppliedOn)
	if err != nil {
		return domain.Treatment{}, err
	}
	t.AppliedOn = applied
	return t, nil
}

// treatmentPlot resolves a treatment and checks its plot against the
// caller's scope.
func (s *Server) treatmentPlot(c *gin.Context, treatmentID int64) (domain.Treatment, bool) {
	t, err := s.repos.Treatments.GetByID(c.Request.Context(), treatmentID)
	if err != nil {
		_ = c.Error(err)
		return domain.Treatment{}, false
	}
	if _, ok := s.cropCyclePlot(c, t.CropCycleID); !ok {
		return domain.Treatment{}, false
	}
	return t, true
}

// ListTreatments handles GET /crop-cycles/:id/treatments.
func (s *Server) ListTreatments(c *gin.Context) {
	cycleID, ok := pathID(c, "id")
	if !ok {
		return
	}
	if _, ok := s.cropCyclePlot(c, cycleID); !ok {
		return
	}

	treatments, err := s.repos.Treatments.ListByCrop(c.Request.Context(), cycleID)
	if err != nil {
		_ = c.Error(err)
		return
	}
	out := make([]treatmentResponse, 0, len(treatments))
	for _, t := range treatments {
		out = append(out, toTreatmentResponse(t))
	}
	c.JSON(http.StatusOK, out)
}

// CreateTreatment handles POST /crop-cycles/:id/treatments.
func (s *Server) CreateTreatment(c *gin.Context) {
	cycleID, ok := pathID(c, "id")
	if !ok {
		return
	}
	if _, ok := s.cropCyclePlot(c, cycleID); !ok {
		return
	}

	var req treatmentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		_ = c.Error(apperrors.BadRequest(apperrors.CodeValidationFailed, "invalid treatment payload"))
		return
	}
	t, err := req.toDomain(0, cycleID)
	if err != nil {
		_ = c.Error(err)
		return
	}

	created, err := s.repos.Treatments.Create(c.Request.Context(), t)
	if err != nil {
		_ = c.Error(err)
		return
	}
	c.JSON(http.StatusCreated, toTreatmentResponse(created))
}

// UpdateTreatment handles PUT /treatments/:id.
func (s *Server) UpdateTreatment(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	existing, ok := s.treatmentPlot(c, id)
	if !ok {
		return
	}

	var req treatmentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		_ = c.Error(apperrors.BadRequest(apperrors.CodeValidationFailed, "invalid treatment payload"))
		return
	}
	t, err := req.toDomain(id, existing.CropCycleID)
	if err != nil {
		_ = c.Error(err)
		return
	}
	if t.AppliedOn.IsZero() {
		t.AppliedOn = existing.AppliedOn
	}

	if err := s.repos.Treatments.Update(c.Request.Context(), t); err != nil {
		_ = c.Error(err)
		return
	}
	updated, err := s.repos.Treatments.GetByID(c.Request.Context(), id)
	if err != nil {
		_ = c.Error(err)
		return
	}
	c.JSON(http.StatusOK, toTreatmentResponse(updated))
}

// DeleteTreatment handles DELETE /treatments/:id.
func (s *Server) DeleteTreatment(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	if _, ok := s.treatmentPlot(c, id); !ok {
		return
	}

	deleted, err := s.repos.Treatments.Delete(c.Request.Context(), id)
	if err != nil {
		_ = c.Error(err)
		return
	}
	if !deleted {
		_ = c.Error(apperrors.NotFound(apperrors.CodeTreatmentNotFound, "treatment not found"))
		return
	}
	c.Status(http.StatusNoContent)
}
