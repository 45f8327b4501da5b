package errors

import (
	"fmt"
	"net/http"
)

// Error code constants. Errors carry code + message; callers branch on the
// code, never on message text.

// Connectivity error codes.
const (
	CodePoolExhausted    = "POOL_EXHAUSTED"
	CodeStorageUnreach   = "STORAGE_UNREACHABLE"
	CodeConfigIncomplete = "CONFIG_INCOMPLETE"
)

// Validation error codes.
const (
	CodeValidationFailed = "VALIDATION_FAILED"
	CodeMissingParent    = "MISSING_PARENT"
	CodeInvalidAmount    = "INVALID_AMOUNT"
)

// Row mapping error codes.
const (
	CodeMalformedRow = "MALFORMED_ROW"
)

// Not-found error codes.
const (
	CodeAccountNotFound   = "ACCOUNT_NOT_FOUND"
	CodePlotNotFound      = "PLOT_NOT_FOUND"
	CodeCropCycleNotFound = "CROP_CYCLE_NOT_FOUND"
	CodeTreatmentNotFound = "TREATMENT_NOT_FOUND"
	CodeMovementNotFound  = "MOVEMENT_NOT_FOUND"
)

// Conflict error codes.
const (
	CodeDuplicateLogin = "DUPLICATE_LOGIN"
	CodeDuplicateEmail = "DUPLICATE_EMAIL"
	CodeAccountInUse   = "ACCOUNT_IN_USE"
)

// Auth error codes.
const (
	CodeAuthFailed   = "INVALID_CREDENTIALS"
	CodeTokenInvalid = "TOKEN_INVALID"
	CodePlotDenied   = "PLOT_ACCESS_DENIED"
)

// Convenience constructors using predefined codes.

// ErrPoolExhausted reports that no connection became available in time.
func ErrPoolExhausted(err error) *AppError {
	return Wrap(err, CodePoolExhausted, "no database connection available", http.StatusServiceUnavailable)
}

// ErrConfigIncomplete reports missing required configuration keys.
func ErrConfigIncomplete(detail string) *AppError {
	return New(CodeConfigIncomplete, "incomplete database configuration: "+detail, http.StatusInternalServerError)
}

// ErrMalformedRow reports a stored row that failed to map to its domain type.
func ErrMalformedRow(entity string, id int64, err error) *AppError {
	return &AppError{
		Code:       CodeMalformedRow,
		Message:    fmt.Sprintf("stored %s row %d failed to map", entity, id),
		HTTPStatus: http.StatusInternalServerError,
		Err:        err,
	}
}
