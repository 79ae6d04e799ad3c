package errors

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHTTPStatus(t *testing.T) {
	tests := []struct {
		errType ErrorType
		want    int
	}{
		{TypeValidation, http.StatusBadRequest},
		{TypeNotFound, http.StatusNotFound},
		{TypeForbidden, http.StatusForbidden},
		{TypeConflict, http.StatusConflict},
		{TypeInternal, http.StatusInternalServerError},
		{ErrorType("unknown"), http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(string(tt.errType), func(t *testing.T) {
			err := &Error{Type: tt.errType, Message: "boom"}
			assert.Equal(t, tt.want, err.HTTPStatus())
		})
	}
}

func TestErrorString(t *testing.T) {
	err := ValidationError("Username is required")
	assert.Equal(t, "validation: Username is required", err.Error())

	wrapped := InternalError("failed to create user", errors.New("connection refused"))
	assert.Equal(t, "internal: failed to create user: connection refused", wrapped.Error())
}

func TestUnwrap(t *testing.T) {
	cause := errors.New("connection refused")
	err := InternalError("failed to create user", cause)
	assert.ErrorIs(t, err, cause)
}

func TestAsStructuredError(t *testing.T) {
	t.Run("nil stays nil", func(t *testing.T) {
		assert.Nil(t, AsStructuredError(nil))
	})

	t.Run("structured errors pass through", func(t *testing.T) {
		original := NotFoundError("post not found")
		assert.Same(t, original, AsStructuredError(original))
	})

	t.Run("wrapped structured errors are unwrapped", func(t *testing.T) {
		original := ForbiddenError("only the author can edit this post")
		wrapped := fmt.Errorf("handling request: %w", original)
		assert.Same(t, original, AsStructuredError(wrapped))
	})

	t.Run("plain errors become internal", func(t *testing.T) {
		err := AsStructuredError(errors.New("boom"))
		assert.Equal(t, TypeInternal, err.Type)
		assert.Equal(t, "internal server error", err.Message)
	})
}

func TestValidationMessage(t *testing.T) {
	msg, ok := ValidationMessage(ValidationError("Incorrect password"))
	require.True(t, ok)
	assert.Equal(t, "Incorrect password", msg)

	_, ok = ValidationMessage(InternalError("boom", nil))
	assert.False(t, ok)

	_, ok = ValidationMessage(errors.New("boom"))
	assert.False(t, ok)

	_, ok = ValidationMessage(nil)
	assert.False(t, ok)
}

func TestWithContext(t *testing.T) {
	err := ValidationError("Username is required").WithContext("username", "alice")
	assert.Equal(t, "alice", err.Context["username"])

	err = err.WithField("attempt", 2)
	assert.Equal(t, 2, err.Context["attempt"])
}
