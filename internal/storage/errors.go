package storage

import (
	"errors"
	"fmt"
)

var (
	// ErrBucketNotConfigured is returned when no bucket name was given.
	ErrBucketNotConfigured = errors.New("storage bucket not configured")

	// ErrObjectNotFound is returned by Get for a missing object.
	ErrObjectNotFound = errors.New("object not found")

	// ErrPermissionDenied is returned when the credentials lack access to
	// the bucket or object.
	ErrPermissionDenied = errors.New("storage permission denied")

	// ErrInvalidKey is returned for empty or unusable object keys.
	ErrInvalidKey = errors.New("invalid object key")
)

// StorageError records a failed object-store operation.
type StorageError struct {
	Op  string
	Key string
	Err error
}

// Error implements the error interface.
func (e *StorageError) Error() string {
	if e.Key == "" {
		return fmt.Sprintf("storage %s: %v", e.Op, e.Err)
	}
	return fmt.Sprintf("storage %s %s: %v", e.Op, e.Key, e.Err)
}

// Unwrap returns the underlying error.
func (e *StorageError) Unwrap() error {
	return e.Err
}

// Is reports whether target matches the wrapped error.
func (e *StorageError) Is(target error) bool {
	return errors.Is(e.Err, target)
}

// NewStorageError creates a StorageError.
func NewStorageError(op, key string, err error) *StorageError {
	return &StorageError{Op: op, Key: key, Err: err}
}
