package postgres

import (
	"time"

	"github.com/shopspring/decimal"

	"agroledger.io/agroledger/internal/domain"
	apperrors "agroledger.io/agroledger/internal/pkg/errors"
)

// Row structs mirror the stored column layout field by field, so schema
// drift is caught by the mapping tests instead of at runtime. The
// conversion functions are pure: no queries, no clock, no globals.

type accountRow struct {
	ID           int64
	Name         string
	Surname      string
	Email        string
	Login        string
	PasswordHash string
	Role         string
	RegisteredOn time.Time
	Active       bool
}

func accountFromRow(r accountRow) (domain.Account, error) {
	role, err := domain.ParseRole(r.Role)
	if err != nil {
		return domain.Account{}, apperrors.ErrMalformedRow("account", r.ID, err)
	}
	return domain.Account{
		ID:           r.ID,
		Name:         r.Name,
		Surname:      r.Surname,
		Email:        r.Email,
		Login:        r.Login,
		PasswordHash: r.PasswordHash,
		Role:         role,
		RegisteredOn: domain.ToDate(r.RegisteredOn),
		Active:       r.Active,
	}, nil
}

type plotRow struct {
	ID           int64
	OwnerID      int64
	Name         string
	Location     string
	Area         decimal.NullDecimal
	SoilType     string
	Irrigation   string
	Boundary     string
	State        string
	RegisteredOn time.Time
}

func plotFromRow(r plotRow) (domain.Plot, error) {
	state, err := domain.ParsePlotState(r.State)
	if err != nil {
		return domain.Plot{}, apperrors.ErrMalformedRow("plot", r.ID, err)
	}
	return domain.Plot{
		ID:           r.ID,
		OwnerID:      r.OwnerID,
		Name:         r.Name,
		Location:     r.Location,
		Area:         r.Area,
		SoilType:     r.SoilType,
		Irrigation:   r.Irrigation,
		Boundary:     r.Boundary,
		State:        state,
		RegisteredOn: domain.ToDate(r.RegisteredOn),
	}, nil
}

type cropCycleRow struct {
	ID             int64
	PlotID         int64
	Name           string
	Variety        string
	State          string
	SownOn         time.Time
	HarvestedOn    *time.Time
	ProducedKg     decimal.NullDecimal
	EstimatedYield decimal.NullDecimal
	ActualYield    decimal.NullDecimal
}

func cropCycleFromRow(r cropCycleRow) (domain.CropCycle, error) {
	state, err := domain.ParseCropState(r.State)
	if err != nil {
		return domain.CropCycle{}, apperrors.ErrMalformedRow("crop_cycle", r.ID, err)
	}
	var harvested *time.Time
	if r.HarvestedOn != nil {
		d := domain.ToDate(*r.HarvestedOn)
		harvested = &d
	}
	return domain.CropCycle{
		ID:             r.ID,
		PlotID:         r.PlotID,
		Name:           r.Name,
		Variety:        r.Variety,
		State:          state,
		SownOn:         domain.ToDate(r.SownOn),
		HarvestedOn:    harvested,
		ProducedKg:     r.ProducedKg,
		EstimatedYield: r.EstimatedYield,
		ActualYield:    r.ActualYield,
	}, nil
}

type treatmentRow struct {
	ID          int64
	CropCycleID int64
	AppliedOn   time.Time
	Product     string
	Category    string
	Dosage      string
	Cost        decimal.NullDecimal
	Notes       string
}

func treatmentFromRow(r treatmentRow) (domain.Treatment, error) {
	category, err := domain.ParseTreatmentCategory(r.Category)
	if err != nil {
		return domain.Treatment{}, apperrors.ErrMalformedRow("treatment", r.ID, err)
	}
	return domain.Treatment{
		ID:          r.ID,
		CropCycleID: r.CropCycleID,
		AppliedOn:   domain.ToDate(r.AppliedOn),
		Product:     r.Product,
		Category:    category,
		Dosage:      r.Dosage,
		Cost:        r.Cost,
		Notes:       r.Notes,
	}, nil
}

type movementRow struct {
	ID         int64
	PlotID     int64
	Kind       string
	Concept    string
	Amount     decimal.Decimal
	OccurredOn time.Time
	Notes      string
}

func movementFromRow(r movementRow) (domain.FinancialMovement, error) {
	kind, err := domain.ParseMovementKind(r.Kind)
	if err != nil {
		return domain.FinancialMovement{}, apperrors.ErrMalformedRow("financial_movement", r.ID, err)
	}
	return domain.FinancialMovement{
		ID:      r.ID,
		PlotID:  r.PlotID,
		Kind:    kind,
		Concept: r.Concept,
		Amount:  r.Amount,
		Date:    domain.ToDate(r.OccurredOn),
		Notes:   r.Notes,
	}, nil
}
