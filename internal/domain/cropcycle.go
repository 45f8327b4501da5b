package domain

import (
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	apperrors "agroledger.io/agroledger/internal/pkg/errors"
)

// CropState is a crop cycle lifecycle state.
type CropState string

const (
	CropActive        CropState = "ACTIVE"
	CropHarvested     CropState = "HARVESTED"
	CropInPreparation CropState = "IN_PREPARATION"
)

// ParseCropState maps a storage token to a CropState.
func ParseCropState(s string) (CropState, error) {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case "ACTIVE":
		return CropActive, nil
	case "HARVESTED":
		return CropHarvested, nil
	case "IN_PREPARATION":
		return CropInPreparation, nil
	default:
		return "", fmt.Errorf("unknown crop state %q", s)
	}
}

// Token returns the canonical storage form.
func (s CropState) Token() string { return strings.ToLower(string(s)) }

// CropCycle is one planting-to-harvest cycle of a crop on a plot.
type CropCycle struct {
	ID      int64
	PlotID  int64
	Name    string
	Variety string
	State   CropState

	SownOn      time.Time
	HarvestedOn *time.Time

	ProducedKg     decimal.NullDecimal
	EstimatedYield decimal.NullDecimal
	ActualYield    decimal.NullDecimal
}

// ApplyDefaults fills the legacy write defaults.
func (c *CropCycle) ApplyDefaults() {
	if c.State == "" {
		c.State = CropActive
	}
	if c.SownOn.IsZero() {
		c.SownOn = Today()
	}
}

// Validate enforces the crop cycle's write invariants.
func (c CropCycle) Validate() error {
	var fields []apperrors.FieldError
	if c.PlotID == 0 {
		fields = append(fields, apperrors.FieldError{Field: "plot_id", Code: "REQUIRED"})
	}
	if strings.TrimSpace(c.Name) == "" {
		fields = append(fields, apperrors.FieldError{Field: "name", Code: "REQUIRED"})
	}
	if c.State != CropActive && c.State != CropHarvested && c.State != CropInPreparation {
		fields = append(fields, apperrors.FieldError{Field: "state", Code: "INVALID"})
	}
	if len(fields) > 0 {
		return apperrors.BadRequest(apperrors.CodeValidationFailed, "crop cycle validation failed").
			WithFieldErrors(fields)
	}
	return nil
}
