package invoice

import (
	"errors"
	"fmt"
	"strings"
)

// Invoice errors
var (
	// ErrValidationFailed is returned when an invoice has blocking validation
	// errors under the active profile and must not be rendered.
	ErrValidationFailed = errors.New("invoice validation failed")

	// ErrMissingRequiredField is returned when a field the document cannot be
	// produced without (seller name, line items) is absent.
	ErrMissingRequiredField = errors.New("missing required invoice field")

	// ErrInvalidDate is returned when a date is not an ISO calendar date.
	ErrInvalidDate = errors.New("invalid invoice date")

	// ErrInvalidAction is returned for an unknown status transition action.
	ErrInvalidAction = errors.New("invalid status action")

	// ErrUnknownProfile is returned when a validation profile name is not recognized.
	ErrUnknownProfile = errors.New("unknown validation profile")
)

// ValidationError carries the blocking errors of a failed validation run.
type ValidationError struct {
	Profile  Profile
	Errors   []string
	Warnings []string
}

// Error implements the error interface.
func (e *ValidationError) Error() string {
	return fmt.Sprintf("%v (profile %s): %s", ErrValidationFailed, e.Profile, strings.Join(e.Errors, "; "))
}

// Unwrap makes errors.Is(err, ErrValidationFailed) hold.
func (e *ValidationError) Unwrap() error {
	return ErrValidationFailed
}
