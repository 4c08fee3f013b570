package models

import "errors"

var (
	// ErrValidation is matched by every ValidationError.
	ErrValidation    = errors.New("validation failed")
	ErrUploadFailed  = errors.New("upload failed")
	ErrNotFound      = errors.New("meal not found")
	ErrPersistFailed = errors.New("persist failed")
	ErrDeleteFailed  = errors.New("delete failed")
)

// ValidationError reports a record field that breaks a construction rule.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return "invalid " + e.Field + ": " + e.Reason
}

func (e *ValidationError) Is(target error) bool {
	return target == ErrValidation
}
