package domain

import (
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	apperrors "agroledger.io/agroledger/internal/pkg/errors"
)

// PlotState is a plot lifecycle state.
type PlotState string

const (
	PlotActive   PlotState = "ACTIVE"
	PlotLeased   PlotState = "LEASED"
	PlotInactive PlotState = "INACTIVE"
)

// ParsePlotState maps a storage token to a PlotState.
func ParsePlotState(s string) (PlotState, error) {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case "ACTIVE":
		return PlotActive, nil
	case "LEASED":
		return PlotLeased, nil
	case "INACTIVE":
		return PlotInactive, nil
	default:
		return "", fmt.Errorf("unknown plot state %q", s)
	}
}

// Token returns the canonical storage form.
func (s PlotState) Token() string { return strings.ToLower(string(s)) }

// Plot is a managed parcel of farmland, the aggregation root for crop
// cycles and financial movements. Exactly one account owns it.
type Plot struct {
	ID       int64
	OwnerID  int64
	Name     string
	Location string

	// Area in hectares. Null when the parcel has not been measured.
	Area decimal.NullDecimal

	SoilType   string
	Irrigation string

	// Boundary holds the polygon coordinate list as free-form text,
	// opaque to this core.
	Boundary string

	State        PlotState
	RegisteredOn time.Time
}

// ApplyDefaults fills the legacy write defaults: an absent lifecycle state
// becomes the baseline active state instead of failing validation.
func (p *Plot) ApplyDefaults() {
	if p.State == "" {
		p.State = PlotActive
	}
	if p.RegisteredOn.IsZero() {
		p.RegisteredOn = Today()
	}
}

// Validate enforces the plot's write invariants.
func (p Plot) Validate() error {
	var fields []apperrors.FieldError
	if p.OwnerID == 0 {
		fields = append(fields, apperrors.FieldError{Field: "owner_id", Code: "REQUIRED"})
	}
	if strings.TrimSpace(p.Name) == "" {
		fields = append(fields, apperrors.FieldError{Field: "name", Code: "REQUIRED"})
	}
	if p.State != PlotActive && p.State != PlotLeased && p.State != PlotInactive {
		fields = append(fields, apperrors.FieldError{Field: "state", Code: "INVALID"})
	}
	if p.Area.Valid && p.Area.Decimal.IsNegative() {
		fields = append(fields, apperrors.FieldError{Field: "area", Code: "NEGATIVE"})
	}
	if len(fields) > 0 {
		return apperrors.BadRequest(apperrors.CodeValidationFailed, "plot validation failed").
			WithFieldErrors(fields)
	}
	return nil
}

// Today returns the current date at UTC midnight, the precision all
// registration and movement dates are stored with.
func Today() time.Time {
	return ToDate(time.Now().UTC())
}

// ToDate truncates a timestamp to date precision in UTC.
func ToDate(t time.Time) time.Time {
	y, m, d := t.UTC().Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}
