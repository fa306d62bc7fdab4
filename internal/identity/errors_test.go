package identity

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestArgumentError(t *testing.T) {
	err := NewArgumentError("user")
	assert.ErrorIs(t, err, ErrInvalidArgument)
	assert.Contains(t, err.Error(), `"user"`)

	custom := &ArgumentError{Name: "user", Message: "user is required"}
	assert.Equal(t, "user is required", custom.Error())

	bare := &ArgumentError{}
	assert.Equal(t, "value cannot be null or empty", bare.Error())
}

func TestDisposedError(t *testing.T) {
	err := fmt.Errorf("wrapped: %w", &DisposedError{Name: "UserStore"})
	assert.ErrorIs(t, err, ErrDisposed)
	assert.NotErrorIs(t, err, ErrInvalidArgument)
	assert.Contains(t, err.Error(), "UserStore")
}

func TestRoleNotFoundError(t *testing.T) {
	err := &RoleNotFoundError{Name: "ADMIN"}
	assert.ErrorIs(t, err, ErrRoleNotFound)
	assert.ErrorIs(t, err, ErrOperation)
	assert.NotErrorIs(t, err, ErrInvalidArgument)

	var opErr *OperationError
	assert.True(t, errors.As(ErrConcurrencyFailure, &opErr))
	assert.Equal(t, "update", opErr.Op)
}

func TestConfigurationError(t *testing.T) {
	err := &ConfigurationError{Setting: "connection", Message: "missing"}
	assert.ErrorIs(t, err, ErrConfiguration)
	assert.Equal(t, "connection: missing", err.Error())
}
