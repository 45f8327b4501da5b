// Package domain defines the entity records the core trades in: accounts,
// plots, crop cycles, treatments and financial movements.
//
// Enumerated fields are closed sets. Parsing is case-insensitive; storage
// uses lowercase tokens, the domain uses canonical upper-case values.
// Money and mass quantities are fixed-point decimals, never floats.
package domain

import (
	"fmt"
	"strings"
	"time"

	apperrors "agroledger.io/agroledger/internal/pkg/errors"
)

// Role is an account role.
type Role string

const (
	RoleAdmin Role = "ADMIN"
	RoleOwner Role = "OWNER"
)

// ParseRole maps a storage token to a Role. Unknown tokens are an error,
// never a default.
func ParseRole(s string) (Role, error) {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case "ADMIN":
		return RoleAdmin, nil
	case "OWNER":
		return RoleOwner, nil
	default:
		return "", fmt.Errorf("unknown role %q", s)
	}
}

// Token returns the canonical storage form.
func (r Role) Token() string { return strings.ToLower(string(r)) }

// Account is a registered user of the system.
type Account struct {
	ID           int64
	Name         string
	Surname      string
	Email        string
	Login        string
	PasswordHash string
	Role         Role
	RegisteredOn time.Time
	Active       bool
}

// ApplyDefaults fills the legacy write defaults.
func (a *Account) ApplyDefaults() {
	if a.Role == "" {
		a.Role = RoleOwner
	}
	if a.RegisteredOn.IsZero() {
		a.RegisteredOn = Today()
	}
	// New accounts start enabled; deactivation is a separate operation.
	a.Active = true
}

// Validate enforces the account's write invariants.
func (a Account) Validate() error {
	var fields []apperrors.FieldError
	if strings.TrimSpace(a.Name) == "" {
		fields = append(fields, apperrors.FieldError{Field: "name", Code: "REQUIRED"})
	}
	if strings.TrimSpace(a.Login) == "" {
		fields = append(fields, apperrors.FieldError{Field: "login", Code: "REQUIRED"})
	}
	if strings.TrimSpace(a.Email) == "" {
		fields = append(fields, apperrors.FieldError{Field: "email", Code: "REQUIRED"})
	}
	if a.Role != RoleAdmin && a.Role != RoleOwner {
		fields = append(fields, apperrors.FieldError{Field: "role", Code: "INVALID"})
	}
	if len(fields) > 0 {
		return apperrors.BadRequest(apperrors.CodeValidationFailed, "account validation failed").
			WithFieldErrors(fields)
	}
	return nil
}
