package domain

import (
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	apperrors "agroledger.io/agroledger/internal/pkg/errors"
)

// MovementKind is the direction of a financial movement.
type MovementKind string

const (
	MovementIncome  MovementKind = "INCOME"
	MovementExpense MovementKind = "EXPENSE"
)

// ParseMovementKind maps a storage token to a MovementKind.
func ParseMovementKind(s string) (MovementKind, error) {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case "INCOME":
		return MovementIncome, nil
	case "EXPENSE":
		return MovementExpense, nil
	default:
		return "", fmt.Errorf("unknown movement kind %q", s)
	}
}

// Token returns the canonical storage form.
func (k MovementKind) Token() string { return strings.ToLower(string(k)) }

// FinancialMovement is a manually recorded income or expense tied to a
// plot. Amount is a non-negative magnitude; the sign is implied by Kind.
type FinancialMovement struct {
	ID      int64
	PlotID  int64
	Kind    MovementKind
	Concept string
	Amount  decimal.Decimal
	Date    time.Time
	Notes   string
}

// Signed returns the amount with the sign implied by the kind:
// positive for income, negative for expense.
func (m FinancialMovement) Signed() decimal.Decimal {
	if m.Kind == MovementExpense {
		return m.Amount.Neg()
	}
	return m.Amount
}

// ApplyDefaults fills the legacy write defaults.
func (m *FinancialMovement) ApplyDefaults() {
	if m.Date.IsZero() {
		m.Date = Today()
	}
}

// Validate enforces the movement's write invariants.
func (m FinancialMovement) Validate() error {
	var fields []apperrors.FieldError
	if m.PlotID == 0 {
		fields = append(fields, apperrors.FieldError{Field: "plot_id", Code: "REQUIRED"})
	}
	if m.Kind != MovementIncome && m.Kind != MovementExpense {
		fields = append(fields, apperrors.FieldError{Field: "kind", Code: "INVALID"})
	}
	if strings.TrimSpace(m.Concept) == "" {
		fields = append(fields, apperrors.FieldError{Field: "concept", Code: "REQUIRED"})
	}
	if m.Amount.IsNegative() {
		fields = append(fields, apperrors.FieldError{Field: "amount", Code: "NEGATIVE"})
	}
	if len(fields) > 0 {
		return apperrors.BadRequest(apperrors.CodeValidationFailed, "movement validation failed").
			WithFieldErrors(fields)
	}
	return nil
}
