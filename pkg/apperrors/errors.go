package apperrors

import (
	"errors"
	"fmt"
)

// Common errors
var (
	ErrValidation      = errors.New("validation failed")
	ErrUnauthenticated = errors.New("authentication required")
	ErrPermission      = errors.New("permission denied")
	ErrNotFound        = errors.New("not found")
	ErrStorage         = errors.New("storage failure")
)

// ValidationError reports malformed input for a single request field.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

func (e *ValidationError) Is(target error) bool { return target == ErrValidation }

func Validation(field, format string, args ...any) error {
	return &ValidationError{Field: field, Message: fmt.Sprintf(format, args...)}
}

// StorageError wraps a failed blob operation.
type StorageError struct {
	Op  string
	Key string
	Err error
}

func (e *StorageError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("storage %s %q: %v", e.Op, e.Key, e.Err)
	}
	return fmt.Sprintf("storage %s %q failed", e.Op, e.Key)
}

func (e *StorageError) Unwrap() error { return e.Err }

func (e *StorageError) Is(target error) bool { return target == ErrStorage }

func Storage(op, key string, err error) error {
	return &StorageError{Op: op, Key: key, Err: err}
}

// Fields returns the field-level details of a validation error, or nil.
func Fields(err error) map[string]string {
	var ve *ValidationError
	if !errors.As(err, &ve) {
		return nil
	}
	return map[string]string{ve.Field: ve.Message}
}
