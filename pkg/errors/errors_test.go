package errors

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestTypeOf(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want ErrorType
	}{
		{name: "validation", err: NewValidationError("bad"), want: ErrorTypeValidation},
		{name: "not found", err: NewNotFoundError("missing"), want: ErrorTypeNotFound},
		{name: "permission", err: NewPermissionError("denied"), want: ErrorTypePermission},
		{name: "wrapped", err: fmt.Errorf("outer: %w", NewConflictError("dup")), want: ErrorTypeConflict},
		{name: "plain error", err: fmt.Errorf("boom"), want: ErrorTypeInternal},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, TypeOf(tt.err))
		})
	}
}

func TestWrapInternal(t *testing.T) {
	cause := fmt.Errorf("disk full")
	err := WrapInternal("unable to write news store", cause)

	assert.Equal(t, "unable to write news store: disk full", err.Error())
	assert.Equal(t, "unable to write news store", MessageOf(err))
	assert.ErrorIs(t, err, cause)
	assert.True(t, IsInternalError(fmt.Errorf("ctx: %w", err)))
}

func TestIsHelpers(t *testing.T) {
	assert.True(t, IsValidationError(NewValidationError("x")))
	assert.False(t, IsValidationError(NewNotFoundError("x")))
	assert.True(t, IsNotFoundError(NewNotFoundError("x")))
	assert.True(t, IsPermissionError(NewPermissionError("x")))
	assert.True(t, IsConflictError(NewConflictError("x")))
	assert.Equal(t, "permission", ErrorTypePermission.String())
}
