package kyc

import (
	"errors"
	"fmt"
)

// Sentinel errors for absence and access violations. Handlers decide the
// HTTP mapping; messages never include filesystem paths.
var (
	ErrNotFound          = errors.New("KYC record not found")
	ErrUserNotFound      = errors.New("user not found")
	ErrPathTraversal     = errors.New("forbidden")
	ErrInvalidTransition = errors.New("invalid status transition")
)

// ValidationError names the first missing submission field
type ValidationError struct {
	Field string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s is required", e.Field)
}

// FileError rejects an upload before any storage interaction
type FileError struct {
	Reason string
}

func (e *FileError) Error() string {
	return e.Reason
}

// StorageError wraps a failed primary write; the whole call aborts
type StorageError struct {
	Err error
}

func (e *StorageError) Error() string {
	return "storage failure: " + e.Err.Error()
}

func (e *StorageError) Unwrap() error {
	return e.Err
}
