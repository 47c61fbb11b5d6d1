package workflow

import (
	"errors"
	"fmt"
	"strings"

	"invoicegen/internal/invoice"
	"invoicegen/internal/storage"
)

// Kind classifies workflow failures for the user-facing surfaces.
type Kind string

const (
	KindValidation Kind = "validation"
	KindRendering  Kind = "rendering"
	KindStorage    Kind = "storage"
	KindLedger     Kind = "ledger"
	KindDelivery   Kind = "delivery"
)

// WorkflowError wraps a step failure with its kind.
type WorkflowError struct {
	Kind Kind
	Op   string
	Err  error
}

// Error implements the error interface.
func (e *WorkflowError) Error() string {
	return fmt.Sprintf("workflow %s (%s): %v", e.Op, e.Kind, e.Err)
}

// Unwrap returns the underlying error.
func (e *WorkflowError) Unwrap() error {
	return e.Err
}

// Is reports whether target matches the wrapped error.
func (e *WorkflowError) Is(target error) bool {
	return errors.Is(e.Err, target)
}

// Message returns a human-readable description of the failure.
func (e *WorkflowError) Message() string {
	switch e.Kind {
	case KindValidation:
		var verr *invoice.ValidationError
		if errors.As(e.Err, &verr) {
			return "The invoice data is invalid: " + strings.Join(verr.Errors, "; ")
		}
		return "The invoice data is incomplete: " + e.Err.Error()
	case KindRendering:
		return "The invoice document could not be generated."
	case KindStorage:
		if errors.Is(e.Err, storage.ErrPermissionDenied) {
			return "Access to the document storage was denied. Check the service account's bucket permissions."
		}
		if errors.Is(e.Err, storage.ErrBucketNotConfigured) {
			return "No document storage bucket is configured."
		}
		return "The invoice files could not be stored."
	case KindLedger:
		return "The invoice ledger could not be updated."
	case KindDelivery:
		return "The invoice was issued but the email could not be sent."
	}
	return e.Error()
}

// NewWorkflowError creates a WorkflowError.
func NewWorkflowError(kind Kind, op string, err error) *WorkflowError {
	return &WorkflowError{Kind: kind, Op: op, Err: err}
}

// WrapWorkflowError wraps err unless it already is a WorkflowError.
func WrapWorkflowError(kind Kind, op string, err error) error {
	if err == nil {
		return nil
	}

	var wfErr *WorkflowError
	if errors.As(err, &wfErr) {
		return err
	}

	return NewWorkflowError(kind, op, err)
}

// KindOf returns the kind of the first WorkflowError in err's chain, or ""
func KindOf(err error) Kind {
	var wfErr *WorkflowError
	if errors.As(err, &wfErr) {
		return wfErr.Kind
	}
	return ""
}

// Message returns the human-readable message for err. Errors outside the
// workflow fall back to their own text.
func Message(err error) string {
	var wfErr *WorkflowError
	if errors.As(err, &wfErr) {
		return wfErr.Message()
	}
	return err.Error()
}

// SagaError reports the step that failed and any compensation failures.
type SagaError struct {
	Step         string
	Err          error
	Compensation error
}

// Error implements the error interface.
func (e *SagaError) Error() string {
	if e.Compensation != nil {
		return fmt.Sprintf("step %s failed: %v (rollback incomplete: %v)", e.Step, e.Err, e.Compensation)
	}
	return fmt.Sprintf("step %s failed: %v", e.Step, e.Err)
}

// Unwrap returns the step error.
func (e *SagaError) Unwrap() error {
	return e.Err
}

// RolledBack reports whether every compensation succeeded.
func (e *SagaError) RolledBack() bool {
	return e.Compensation == nil
}

// ClassifyBuild wraps a document build error with its kind.
func ClassifyBuild(op string, err error) error {
	if err == nil {
		return nil
	}
	return WrapWorkflowError(buildKind(err), op, err)
}

// buildKind separates bad input from rendering failures.
func buildKind(err error) Kind {
	if errors.Is(err, invoice.ErrValidationFailed) || errors.Is(err, invoice.ErrMissingRequiredField) ||
		errors.Is(err, invoice.ErrInvalidDate) {
		return KindValidation
	}
	return KindRendering
}
