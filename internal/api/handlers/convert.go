package handlers

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"agroledger.io/agroledger/internal/domain"
	apperrors "agroledger.io/agroledger/internal/pkg/errors"
)

// Wire dates are plain calendar days.
const dateFormat = "2006-01-02"

func parseDate(field, value string) (time.Time, error) {
	if value == "" {
		return time.Time{}, nil
	}
	d, err := time.ParseInLocation(dateFormat, value, time.UTC)
	if err != nil {
		return time.Time{}, apperrors.BadRequest(apperrors.CodeValidationFailed,
			fmt.Sprintf("%s must be a %s date", field, dateFormat)).
			WithFieldErrors([]apperrors.FieldError{{Field: field, Code: "INVALID"}})
	}
	return d, nil
}

func formatDate(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.Format(dateFormat)
}

func formatDatePtr(t *time.Time) *string {
	if t == nil {
		return nil
	}
	s := formatDate(*t)
	return &s
}

type accountResponse struct {
	ID           int64  `json:"id"`
	Name         string `json:"name"`
	Surname      string `json:"surname,omitempty"`
	Email        string `json:"email"`
	Login        string `json:"login"`
	Role         string `json:"role"`
	RegisteredOn string `json:"registered_on"`
	Active       bool   `json:"active"`
}

func toAccountResponse(a domain.Account) accountResponse {
	return accountResponse{
		ID:           a.ID,
		Name:         a.Name,
		Surname:      a.Surname,
		Email:        a.Email,
		Login:        a.Login,
		Role:         string(a.Role),
		RegisteredOn: formatDate(a.RegisteredOn),
		Active:       a.Active,
	}
}

type plotResponse struct {
	ID           int64                `json:"id"`
	OwnerID      int64                `json:"owner_id"`
	Name         string               `json:"name"`
	Location     string               `json:"location,omitempty"`
	Area         *decimal.Decimal     `json:"area,omitempty"`
	SoilType     string               `json:"soil_type,omitempty"`
	Irrigation   string               `json:"irrigation,omitempty"`
	Boundary     string               `json:"boundary,omitempty"`
	State        string               `json:"state"`
	RegisteredOn string               `json:"registered_on"`
	Balance      *decimal.Decimal     `json:"balance,omitempty"`
}

func toPlotResponse(p domain.Plot) plotResponse {
	return plotResponse{
		ID:           p.ID,
		OwnerID:      p.OwnerID,
		Name:         p.Name,
		Location:     p.Location,
		Area:         nullDecimalPtr(p.Area),
		SoilType:     p.SoilType,
		Irrigation:   p.Irrigation,
		Boundary:     p.Boundary,
		State:        string(p.State),
		RegisteredOn: formatDate(p.RegisteredOn),
	}
}

type cropCycleResponse struct {
	ID             int64            `json:"id"`
	PlotID         int64            `json:"plot_id"`
	Name           string           `json:"name"`
	Variety        string           `json:"variety,omitempty"`
	State          string           `json:"state"`
	SownOn         string           `json:"sown_on"`
	HarvestedOn    *string          `json:"harvested_on,omitempty"`
	ProducedKg     *decimal.Decimal `json:"produced_kg,omitempty"`
	EstimatedYield *decimal.Decimal `json:"estimated_yield,omitempty"`
	ActualYield    *decimal.Decimal `json:"actual_yield,omitempty"`
}

func toCropCycleResponse(cc domain.CropCycle) cropCycleResponse {
	return cropCycleResponse{
		ID:             cc.ID,
		PlotID:         cc.PlotID,
		Name:           cc.Name,
		Variety:        cc.Variety,
		State:          string(cc.State),
		SownOn:         formatDate(cc.SownOn),
		HarvestedOn:    formatDatePtr(cc.HarvestedOn),
		ProducedKg:     nullDecimalPtr(cc.ProducedKg),
		EstimatedYield: nullDecimalPtr(cc.EstimatedYield),
		ActualYield:    nullDecimalPtr(cc.ActualYield),
	}
}

type treatmentResponse struct {
	ID          int64            `json:"id"`
	CropCycleID int64            `json:"crop_cycle_id"`
	AppliedOn   string           `json:"applied_on"`
	Product     string           `json:"product"`
	Category    string           `json:"category"`
	Dosage      string           `json:"dosage,omitempty"`
	Cost        *decimal.Decimal `json:"cost,omitempty"`
	Notes       string           `json:"notes,omitempty"`
}

func toTreatmentResponse(t domain.Treatment) treatmentResponse {
	return treatmentResponse{
		ID:          t.ID,
		CropCycleID: t.CropCycleID,
		AppliedOn:   formatDate(t.AppliedOn),
		Product:     t.Product,
		Category:    string(t.Category),
		Dosage:      t.Dosage,
		Cost:        nullDecimalPtr(t.Cost),
		Notes:       t.Notes,
	}
}

type movementResponse struct {
	ID      int64           `json:"id"`
	PlotID  int64           `json:"plot_id"`
	Kind    string          `json:"kind"`
	Concept string          `json:"concept"`
	Amount  decimal.Decimal `json:"amount"`
	Date    string          `json:"date"`
	Notes   string          `json:"notes,omitempty"`
}

func toMovementResponse(m domain.FinancialMovement) movementResponse {
	return movementResponse{
		ID:      m.ID,
		PlotID:  m.PlotID,
		Kind:    string(m.Kind),
		Concept: m.Concept,
		Amount:  m.Amount,
		Date:    formatDate(m.Date),
		Notes:   m.Notes,
	}
}

func nullDecimalPtr(d decimal.NullDecimal) *decimal.Decimal {
	if !d.Valid {
		return nil
	}
	v := d.Decimal
	return &v
}
