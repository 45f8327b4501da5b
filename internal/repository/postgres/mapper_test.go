package postgres

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"agroledger.io/agroledger/internal/domain"
	apperrors "agroledger.io/agroledger/internal/pkg/errors"
)

func TestAccountFromRow(t *testing.T) {
	a, err := accountFromRow(accountRow{
		ID:           7,
		Name:         "Marta",
		Surname:      "Vidal",
		Email:        "marta@example.com",
		Login:        "mvidal",
		PasswordHash: "$2a$12$hash",
		Role:         "owner",
		RegisteredOn: time.Date(2025, 3, 10, 13, 45, 0, 0, time.UTC),
		Active:       true,
	})
	require.NoError(t, err)
	assert.Equal(t, domain.RoleOwner, a.Role)
	assert.Equal(t, time.Date(2025, 3, 10, 0, 0, 0, 0, time.UTC), a.RegisteredOn)
	assert.True(t, a.Active)
}

func TestAccountFromRow_UnknownRole(t *testing.T) {
	_, err := accountFromRow(accountRow{ID: 7, Role: "superuser"})
	require.Error(t, err)

	appErr, ok := apperrors.IsAppError(err)
	require.True(t, ok)
	assert.Equal(t, apperrors.CodeMalformedRow, appErr.Code)
	assert.Contains(t, appErr.Message, "account row 7")
}

func TestPlotFromRow(t *testing.T) {
	area := decimal.NewNullDecimal(decimal.RequireFromString("12.50"))
	p, err := plotFromRow(plotRow{
		ID:           3,
		OwnerID:      7,
		Name:         "La Vega",
		Area:         area,
		State:        "LEASED",
		RegisteredOn: time.Date(2024, 11, 2, 0, 0, 0, 0, time.UTC),
	})
	require.NoError(t, err)
	assert.Equal(t, domain.PlotLeased, p.State)
	assert.True(t, p.Area.Valid)
	assert.True(t, p.Area.Decimal.Equal(decimal.RequireFromString("12.5")))
}

func TestPlotFromRow_UnknownState(t *testing.T) {
	_, err := plotFromRow(plotRow{ID: 3, State: "fallow"})
	require.Error(t, err)

	appErr, ok := apperrors.IsAppError(err)
	require.True(t, ok)
	assert.Equal(t, apperrors.CodeMalformedRow, appErr.Code)
}

func TestCropCycleFromRow(t *testing.T) {
	harvested := time.Date(2025, 9, 20, 8, 30, 0, 0, time.UTC)
	c, err := cropCycleFromRow(cropCycleRow{
		ID:          11,
		PlotID:      3,
		Name:        "Maize",
		State:       "harvested",
		SownOn:      time.Date(2025, 4, 1, 0, 0, 0, 0, time.UTC),
		HarvestedOn: &harvested,
	})
	require.NoError(t, err)
	assert.Equal(t, domain.CropHarvested, c.State)
	require.NotNil(t, c.HarvestedOn)
	assert.Equal(t, time.Date(2025, 9, 20, 0, 0, 0, 0, time.UTC), *c.HarvestedOn)
}

func TestCropCycleFromRow_NilHarvest(t *testing.T) {
	c, err := cropCycleFromRow(cropCycleRow{
		ID:     12,
		PlotID: 3,
		Name:   "Wheat",
		State:  "active",
		SownOn: time.Date(2026, 1, 15, 0, 0, 0, 0, time.UTC),
	})
	require.NoError(t, err)
	assert.Nil(t, c.HarvestedOn)
}

func TestTreatmentFromRow(t *testing.T) {
	tr, err := treatmentFromRow(treatmentRow{
		ID:          21,
		CropCycleID: 11,
		AppliedOn:   time.Date(2025, 5, 5, 0, 0, 0, 0, time.UTC),
		Product:     "NPK 15-15-15",
		Category:    "Fertilizer",
		Cost:        decimal.NewNullDecimal(decimal.RequireFromString("80.00")),
	})
	require.NoError(t, err)
	assert.Equal(t, domain.TreatmentFertilizer, tr.Category)
	assert.True(t, tr.Cost.Decimal.Equal(decimal.RequireFromString("80")))
}

func TestMovementFromRow(t *testing.T) {
	m, err := movementFromRow(movementRow{
		ID:         31,
		PlotID:     3,
		Kind:       "expense",
		Concept:    "Seed purchase",
		Amount:     decimal.RequireFromString("120.00"),
		OccurredOn: time.Date(2025, 4, 2, 0, 0, 0, 0, time.UTC),
	})
	require.NoError(t, err)
	assert.Equal(t, domain.MovementExpense, m.Kind)
	assert.True(t, m.Signed().Equal(decimal.RequireFromString("-120")))
}

func TestMovementFromRow_UnknownKind(t *testing.T) {
	_, err := movementFromRow(movementRow{ID: 31, Kind: "transfer"})
	require.Error(t, err)

	appErr, ok := apperrors.IsAppError(err)
	require.True(t, ok)
	assert.Equal(t, apperrors.CodeMalformedRow, appErr.Code)
}
