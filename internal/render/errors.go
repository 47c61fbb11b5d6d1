package render

import (
	"errors"
	"fmt"

	"invoicegen/internal/invoice"
)

var (
	// ErrNoOutput is returned when the PDF engine produced no bytes.
	ErrNoOutput = errors.New("no pdf output")

	// ErrLogoUnavailable is returned by logo helpers when an image cannot be
	// used. The renderer never surfaces it; a missing logo is not fatal.
	ErrLogoUnavailable = errors.New("logo unavailable")
)

// RenderError reports a failure inside the layout or PDF engine.
type RenderError struct {
	// Op is the operation that failed (e.g., "Render", "Write").
	Op string

	// Err is the underlying error.
	Err error

	// Details provides additional context about the failure.
	Details string
}

// Error implements the error interface.
func (e *RenderError) Error() string {
	if e.Details != "" {
		return fmt.Sprintf("render: %s failed: %s: %v", e.Op, e.Details, e.Err)
	}
	return fmt.Sprintf("render: %s failed: %v", e.Op, e.Err)
}

// Unwrap returns the underlying error for error unwrapping.
func (e *RenderError) Unwrap() error {
	return e.Err
}

// Is implements error matching for Go 1.13+ error handling.
func (e *RenderError) Is(target error) bool {
	return errors.Is(e.Err, target)
}

// NewRenderError creates a new RenderError.
func NewRenderError(op string, err error, details string) *RenderError {
	return &RenderError{Op: op, Err: err, Details: details}
}

// WrapRenderError wraps an error as a RenderError if it isn't already one.
func WrapRenderError(op string, err error, details string) error {
	if err == nil {
		return nil
	}

	var renderErr *RenderError
	if errors.As(err, &renderErr) {
		return err
	}

	return NewRenderError(op, err, details)
}

func missingField(field string) error {
	return NewRenderError("Render", invoice.ErrMissingRequiredField, field)
}
