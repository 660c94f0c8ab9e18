// Package errors provides centralized error definitions and error handling utilities
// for the session coordinator. It defines domain-specific errors, semantic error
// types, error constructors with context wrapping, and error classification helpers.
//
// # Error Types
//
// The package provides two categories of errors:
//
// Domain-specific errors represent errors from specific subsystems:
//   - StorageError: errors from storage adapters (read, write, delete, list)
//   - SessionError: errors from the session registry protocol
//   - ConfigError: errors from configuration loading and validation
//
// Sentinel errors represent common error conditions:
//   - ErrValueNotSerializable: a value cannot be represented as JSON
//   - ErrCorruptRecord: a persisted scope record cannot be parsed
//   - ErrUnknownAdapter: an adapter kind has no registered constructor
//   - ErrAdapterConstruction: an adapter constructor failed
//   - ErrNotSignedOn: a scoped operation was attempted without a session
//   - ErrInvalidConfig: required configuration is missing or malformed
//
// # Usage
//
// Creating errors:
//
//	// Domain-specific error with context
//	err := errors.NewStorageError(errors.OpWrite, "failed to write scope file", cause).
//		WithPath(path).WithScope(scope)
//
// Checking errors:
//
//	if errors.Is(err, errors.ErrCorruptRecord) { ... }
//
//	var storageErr *errors.StorageError
//	if errors.As(err, &storageErr) { ... }
package errors

import (
	"errors"
	"fmt"
)

// Re-export standard library functions for convenience.
// This allows callers to import only this package for all error handling.
var (
	Is     = errors.Is
	As     = errors.As
	Unwrap = errors.Unwrap
	New    = errors.New
	Join   = errors.Join
)

// -----------------------------------------------------------------------------
// Sentinel Errors
// -----------------------------------------------------------------------------

// Storage-related sentinel errors
var (
	// ErrValueNotSerializable indicates that a value cannot be represented
	// in the JSON data model (null, bool, number, string, array, object).
	ErrValueNotSerializable = New("value is not JSON-serializable")
	// ErrCorruptRecord indicates that a persisted scope record could not be parsed.
	ErrCorruptRecord = New("scope record corrupted")
)

// Factory-related sentinel errors
var (
	// ErrUnknownAdapter indicates that no constructor is registered for an adapter kind.
	ErrUnknownAdapter = New("unknown adapter kind")
	// ErrAdapterConstruction indicates that a registered adapter constructor failed.
	ErrAdapterConstruction = New("adapter construction failed")
)

// Session-related sentinel errors
var (
	// ErrNotSignedOn indicates that a scoped operation was attempted before sign-on.
	ErrNotSignedOn = New("not signed on: call sign_on first")
)

// Config-related sentinel errors
var (
	// ErrInvalidConfig indicates that required configuration is missing or malformed.
	ErrInvalidConfig = New("invalid configuration")
)

// -----------------------------------------------------------------------------
// Storage Operations
// -----------------------------------------------------------------------------

// StorageOp identifies the storage operation that produced a StorageError.
// Keeping the operation distinct lets callers tell directory-creation,
// read, write, delete, and listing failures apart without string matching.
type StorageOp string

const (
	// OpCreateDir is the creation of the storage root directory.
	OpCreateDir StorageOp = "create_dir"
	// OpRead is the read of a scope record.
	OpRead StorageOp = "read"
	// OpWrite is the write of a scope record.
	OpWrite StorageOp = "write"
	// OpDelete is the removal of a scope record or entry.
	OpDelete StorageOp = "delete"
	// OpList is the enumeration of scope records.
	OpList StorageOp = "list"
)

// -----------------------------------------------------------------------------
// Base Error Implementation
// -----------------------------------------------------------------------------

// baseError provides common functionality for all domain error types.
type baseError struct {
	message string
	cause   error
}

// Error returns the error message.
func (e *baseError) Error() string {
	if e.cause != nil {
		return fmt.Sprintf("%s: %v", e.message, e.cause)
	}
	return e.message
}

// Unwrap returns the underlying error.
func (e *baseError) Unwrap() error {
	return e.cause
}

// Is checks if this error matches the target.
func (e *baseError) Is(target error) bool {
	if e.cause != nil {
		return errors.Is(e.cause, target)
	}
	return false
}

// -----------------------------------------------------------------------------
// StorageError
// -----------------------------------------------------------------------------

// StorageError represents an error from a storage adapter. It carries the
// failing operation and, where known, the offending path, scope, and key so
// callers can diagnose failures without re-deriving the location.
type StorageError struct {
	baseError
	Op    StorageOp
	Path  string
	Scope string
	Key   string
}

// NewStorageError creates a StorageError for the given operation.
func NewStorageError(op StorageOp, message string, cause error) *StorageError {
	return &StorageError{
		baseError: baseError{message: message, cause: cause},
		Op:        op,
	}
}

// Error returns the error message with operation and location context.
func (e *StorageError) Error() string {
	msg := fmt.Sprintf("storage %s: %s", e.Op, e.message)
	if e.Path != "" {
		msg += fmt.Sprintf(" (path: %s)", e.Path)
	}
	if e.Scope != "" {
		msg += fmt.Sprintf(" (scope: %s)", e.Scope)
	}
	if e.Key != "" {
		msg += fmt.Sprintf(" (key: %s)", e.Key)
	}
	if e.cause != nil {
		msg += fmt.Sprintf(": %v", e.cause)
	}
	return msg
}

// WithPath attaches the filesystem path involved in the failure.
func (e *StorageError) WithPath(path string) *StorageError {
	e.Path = path
	return e
}

// WithScope attaches the scope involved in the failure.
func (e *StorageError) WithScope(scope string) *StorageError {
	e.Scope = scope
	return e
}

// WithKey attaches the key involved in the failure.
func (e *StorageError) WithKey(key string) *StorageError {
	e.Key = key
	return e
}

// -----------------------------------------------------------------------------
// SessionError
// -----------------------------------------------------------------------------

// SessionError represents an error from the session registry protocol.
type SessionError struct {
	baseError
	SessionID string
}

// NewSessionError creates a SessionError.
func NewSessionError(message string, cause error) *SessionError {
	return &SessionError{
		baseError: baseError{message: message, cause: cause},
	}
}

// WithSessionID attaches the session slot involved in the failure.
func (e *SessionError) WithSessionID(id string) *SessionError {
	e.SessionID = id
	return e
}

// Error returns the error message with session context.
func (e *SessionError) Error() string {
	msg := e.message
	if e.SessionID != "" {
		msg += fmt.Sprintf(" (session: %s)", e.SessionID)
	}
	if e.cause != nil {
		msg += fmt.Sprintf(": %v", e.cause)
	}
	return msg
}

// -----------------------------------------------------------------------------
// ConfigError
// -----------------------------------------------------------------------------

// ConfigError represents an error from configuration loading or validation.
type ConfigError struct {
	baseError
	Field string
}

// NewConfigError creates a ConfigError.
func NewConfigError(message string, cause error) *ConfigError {
	return &ConfigError{
		baseError: baseError{message: message, cause: cause},
	}
}

// WithField attaches the config field path involved in the failure.
func (e *ConfigError) WithField(field string) *ConfigError {
	e.Field = field
	return e
}

// Error returns the error message with the field path.
func (e *ConfigError) Error() string {
	msg := e.message
	if e.Field != "" {
		msg = fmt.Sprintf("%s: %s", e.Field, e.message)
	}
	if e.cause != nil {
		msg += fmt.Sprintf(": %v", e.cause)
	}
	return msg
}

// -----------------------------------------------------------------------------
// Classification Helpers
// -----------------------------------------------------------------------------

// IsNotSignedOn reports whether err indicates a missing session context.
func IsNotSignedOn(err error) bool {
	return errors.Is(err, ErrNotSignedOn)
}

// IsStorageFailure reports whether err originated in a storage adapter.
func IsStorageFailure(err error) bool {
	var storageErr *StorageError
	return errors.As(err, &storageErr)
}

// IsCorrupt reports whether err indicates a corrupt persisted record.
func IsCorrupt(err error) bool {
	return errors.Is(err, ErrCorruptRecord)
}
