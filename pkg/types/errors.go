package types

import (
	"errors"
	"fmt"
)

// Transaction errors.
var (
	ErrValidation         = errors.New("validation failed")
	ErrConflict           = errors.New("transaction already pending")
	ErrTransactionClosed  = errors.New("transaction is closed")
	ErrUnknownTransaction = errors.New("unknown transaction")
)

// Entity errors.
var (
	ErrNotFound      = errors.New("entity not found")
	ErrInvalidName   = errors.New("invalid name")
	ErrDefaultEntity = errors.New("default entity cannot be deleted")
	ErrDuplicateID   = errors.New("duplicate entity ID")
	ErrAlreadyMember = errors.New("theme already belongs to the vector")
	ErrStoreClosed   = errors.New("store is closed")
	ErrVectorInUse   = errors.New("vector holds themes with no other home")
)

// Payload errors.
var (
	ErrImportFormat   = errors.New("invalid import payload")
	ErrMissingSection = errors.New("missing required section")
	ErrInvalidVersion = errors.New("invalid version string")
)

// ValidationError names the required validator that rejected a candidate
// state.
type ValidationError struct {
	ValidatorID string
	Message     string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("validator %s: %s", e.ValidatorID, e.Message)
}

func (e *ValidationError) Unwrap() error { return ErrValidation }

// ConflictError is returned when a transaction is begun while another one
// is still pending.
type ConflictError struct {
	PendingID string
}

func (e *ConflictError) Error() string {
	return fmt.Sprintf("transaction %s is still pending", e.PendingID)
}

func (e *ConflictError) Unwrap() error { return ErrConflict }

// Entity kinds used by NotFoundError.
const (
	KindCluster = "cluster"
	KindVector  = "vector"
	KindTheme   = "theme"
)

// NotFoundError reports a missing cluster, vector or theme.
type NotFoundError struct {
	Kind string
	ID   string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s %q not found", e.Kind, e.ID)
}

func (e *NotFoundError) Unwrap() error { return ErrNotFound }

// ImportFormatError reports a malformed or invariant-violating payload.
type ImportFormatError struct {
	Reason string
	Err    error
}

func (e *ImportFormatError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("import: %s: %v", e.Reason, e.Err)
	}
	return "import: " + e.Reason
}

// Unwrap exposes both ErrImportFormat and the underlying cause.
func (e *ImportFormatError) Unwrap() []error {
	if e.Err != nil {
		return []error{ErrImportFormat, e.Err}
	}
	return []error{ErrImportFormat}
}
