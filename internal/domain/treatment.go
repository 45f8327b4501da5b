package domain

import (
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	apperrors "agroledger.io/agroledger/internal/pkg/errors"
)

// TreatmentCategory classifies an agrochemical application.
type TreatmentCategory string

const (
	TreatmentFertilizer TreatmentCategory = "FERTILIZER"
	TreatmentHerbicide  TreatmentCategory = "HERBICIDE"
	TreatmentFungicide  TreatmentCategory = "FUNGICIDE"
	TreatmentOther      TreatmentCategory = "OTHER"
)

// ParseTreatmentCategory maps a storage token to a TreatmentCategory.
func ParseTreatmentCategory(s string) (TreatmentCategory, error) {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case "FERTILIZER":
		return TreatmentFertilizer, nil
	case "HERBICIDE":
		return TreatmentHerbicide, nil
	case "FUNGICIDE":
		return TreatmentFungicide, nil
	case "OTHER":
		return TreatmentOther, nil
	default:
		return "", fmt.Errorf("unknown treatment category %q", s)
	}
}

// Token returns the canonical storage form.
func (c TreatmentCategory) Token() string { return strings.ToLower(string(c)) }

// Treatment is an agrochemical application event tied to a crop cycle.
// Cost is optional; an absent cost contributes zero to balances.
type Treatment struct {
	ID          int64
	CropCycleID int64
	AppliedOn   time.Time
	Product     string
	Category    TreatmentCategory
	Dosage      string
	Cost        decimal.NullDecimal
	Notes       string
}

// ApplyDefaults fills the legacy write defaults.
func (t *Treatment) ApplyDefaults() {
	if t.Category == "" {
		t.Category = TreatmentOther
	}
	if t.AppliedOn.IsZero() {
		t.AppliedOn = Today()
	}
}

// Validate enforces the treatment's write invariants.
func (t Treatment) Validate() error {
	var fields []apperrors.FieldError
	if t.CropCycleID == 0 {
		fields = append(fields, apperrors.FieldError{Field: "crop_cycle_id", Code: "REQUIRED"})
	}
	if strings.TrimSpace(t.Product) == "" {
		fields = append(fields, apperrors.FieldError{Field: "product", Code: "REQUIRED"})
	}
	switch t.Category {
	case TreatmentFertilizer, TreatmentHerbicide, TreatmentFungicide, TreatmentOther:
	default:
		fields = append(fields, apperrors.FieldError{Field: "category", Code: "INVALID"})
	}
	if t.Cost.Valid && t.Cost.Decimal.IsNegative() {
		fields = append(fields, apperrors.FieldError{Field: "cost", Code: "NEGATIVE"})
	}
	if len(fields) > 0 {
		return apperrors.BadRequest(apperrors.CodeValidationFailed, "treatment validation failed").
			WithFieldErrors(fields)
	}
	return nil
}
