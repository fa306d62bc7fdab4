// ABOUTME: Error taxonomy for the identity stores
// ABOUTME: Sentinels for errors.Is plus typed wrappers carrying the offending name

package identity

import (
	"errors"
	"fmt"
)

// ErrInvalidArgument is returned when a required input is nil or missing.
var ErrInvalidArgument = errors.New("invalid argument")

// ErrDisposed is returned when a store or context is used after Close.
var ErrDisposed = errors.New("object disposed")

// ErrOperation is returned for descriptive failures that are not argument errors.
var ErrOperation = errors.New("invalid operation")

// ErrConfiguration is returned when a store context cannot be configured.
var ErrConfiguration = errors.New("configuration error")

// ErrRoleNotFound is returned by AddToRole when no role matches the name.
var ErrRoleNotFound = &OperationError{Op: "add to role", Message: "role not found"}

// ErrConcurrencyFailure is returned when an update carries a stale concurrency stamp.
var ErrConcurrencyFailure = &OperationError{Op: "update", Message: "optimistic concurrency failure, object has been modified"}

// ArgumentError reports an invalid argument.
type ArgumentError struct {
	Name    string
	Message string
}

func (e *ArgumentError) Error() string {
	switch {
	case e.Message != "":
		return e.Message
	case e.Name != "":
		return fmt.Sprintf("value cannot be null or empty (parameter %q)", e.Name)
	default:
		return "value cannot be null or empty"
	}
}

func (e *ArgumentError) Unwrap() error { return ErrInvalidArgument }

// NewArgumentError returns an ArgumentError for the named parameter.
func NewArgumentError(name string) error {
	return &ArgumentError{Name: name}
}

// DisposedError reports use of a closed object.
type DisposedError struct {
	Name string
}

func (e *DisposedError) Error() string {
	return fmt.Sprintf("cannot access a disposed object: %s", e.Name)
}

func (e *DisposedError) Unwrap() error { return ErrDisposed }

// OperationError reports a failure that callers can tell apart from
// argument errors.
type OperationError struct {
	Op      string
	Message string
}

func (e *OperationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Op, e.Message)
}

func (e *OperationError) Unwrap() error { return ErrOperation }

// RoleNotFoundError names the role AddToRole could not resolve. It matches
// ErrRoleNotFound with errors.Is.
type RoleNotFoundError struct {
	Name string
}

func (e *RoleNotFoundError) Error() string {
	return fmt.Sprintf("role not found: %s", e.Name)
}

func (e *RoleNotFoundError) Is(target error) bool { return target == ErrRoleNotFound }

func (e *RoleNotFoundError) Unwrap() error { return ErrOperation }

// ConfigurationError reports a missing or invalid setting.
type ConfigurationError struct {
	Setting string
	Message string
}

func (e *ConfigurationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Setting, e.Message)
}

func (e *ConfigurationError) Unwrap() error { return ErrConfiguration }
