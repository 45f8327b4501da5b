package domain

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "agroledger.io/agroledger/internal/pkg/errors"
)

func TestParseEnums_CaseInsensitive(t *testing.T) {
	role, err := ParseRole("admin")
	require.NoError(t, err)
	assert.Equal(t, RoleAdmin, role)

	state, err := ParsePlotState(" Leased ")
	require.NoError(t, err)
	assert.Equal(t, PlotLeased, state)

	crop, err := ParseCropState("in_preparation")
	require.NoError(t, err)
	assert.Equal(t, CropInPreparation, crop)

	cat, err := ParseTreatmentCategory("FUNGICIDE")
	require.NoError(t, err)
	assert.Equal(t, TreatmentFungicide, cat)

	kind, err := ParseMovementKind("expense")
	require.NoError(t, err)
	assert.Equal(t, MovementExpense, kind)
}

func TestParseEnums_UnknownTokensAreErrors(t *testing.T) {
	_, err := ParseRole("superuser")
	assert.Error(t, err)
	_, err = ParsePlotState("dormant")
	assert.Error(t, err)
	_, err = ParseCropState("")
	assert.Error(t, err)
	_, err = ParseTreatmentCategory("pesticide")
	assert.Error(t, err)
	_, err = ParseMovementKind("transfer")
	assert.Error(t, err)
}

func TestTokens_AreLowercase(t *testing.T) {
	assert.Equal(t, "owner", RoleOwner.Token())
	assert.Equal(t, "active", PlotActive.Token())
	assert.Equal(t, "in_preparation", CropInPreparation.Token())
	assert.Equal(t, "fertilizer", TreatmentFertilizer.Token())
	assert.Equal(t, "income", MovementIncome.Token())
}

func TestPlot_ApplyDefaults(t *testing.T) {
	p := Plot{OwnerID: 1, Name: "North field"}
	p.ApplyDefaults()

	assert.Equal(t, PlotActive, p.State)
	assert.False(t, p.RegisteredOn.IsZero())
	assert.NoError(t, p.Validate())
}

func TestPlot_Validate_MissingOwner(t *testing.T) {
	p := Plot{Name: "Orphan", State: PlotActive}
	err := p.Validate()
	require.Error(t, err)

	appErr, ok := apperrors.IsAppError(err)
	require.True(t, ok)
	assert.Equal(t, apperrors.CodeValidationFailed, appErr.Code)

	var ownerFlagged bool
	for _, fe := range appErr.FieldErrors {
		if fe.Field == "owner_id" {
			ownerFlagged = true
		}
	}
	assert.True(t, ownerFlagged, "owner_id should be flagged: %+v", appErr.FieldErrors)
}

func TestCropCycle_Validate(t *testing.T) {
	c := CropCycle{PlotID: 3, Name: "Winter wheat"}
	c.ApplyDefaults()
	assert.Equal(t, CropActive, c.State)
	assert.NoError(t, c.Validate())

	c.Name = "  "
	assert.Error(t, c.Validate())
}

func TestTreatment_Validate(t *testing.T) {
	tr := Treatment{CropCycleID: 9, Product: "Compost", Category: TreatmentFertilizer}
	assert.NoError(t, tr.Validate())

	tr.Cost = decimal.NullDecimal{Valid: true, Decimal: decimal.NewFromInt(-5)}
	assert.Error(t, tr.Validate())

	missing := Treatment{Product: "Urea", Category: TreatmentFertilizer}
	assert.Error(t, missing.Validate())
}

func TestMovement_SignedAndValidate(t *testing.T) {
	income := FinancialMovement{
		PlotID:  1,
		Kind:    MovementIncome,
		Concept: "Harvest sale",
		Amount:  decimal.RequireFromString("500.00"),
	}
	assert.NoError(t, income.Validate())
	assert.True(t, income.Signed().Equal(decimal.RequireFromString("500.00")))

	expense := income
	expense.Kind = MovementExpense
	assert.True(t, expense.Signed().Equal(decimal.RequireFromString("-500.00")))

	negative := income
	negative.Amount = decimal.NewFromInt(-1)
	assert.Error(t, negative.Validate())
}

func TestToDate(t *testing.T) {
	ts := time.Date(2026, 3, 14, 15, 9, 26, 535, time.FixedZone("CET", 3600))
	assert.Equal(t, time.Date(2026, 3, 14, 0, 0, 0, 0, time.UTC), ToDate(ts))
}
