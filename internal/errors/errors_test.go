package errors

import (
	"errors"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAppError_Error(t *testing.T) {
	tests := []struct {
		name     string
		err      *AppError
		expected string
	}{
		{
			name: "error with cause",
			err: &AppError{
				Code:       ErrCodeDatabaseError,
				Message:    "query failed",
				StatusCode: http.StatusServiceUnavailable,
				Cause:      errors.New("throttled"),
			},
			expected: "query failed: throttled",
		},
		{
			name: "error without cause",
			err: &AppError{
				Code:       ErrCodeNotFound,
				Message:    "identity not found",
				StatusCode: http.StatusNotFound,
			},
			expected: "identity not found",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, tt.err.Error())
		})
	}
}

func TestAppError_Unwrap(t *testing.T) {
	cause := errors.New("underlying error")
	err := ErrDatabaseError("query failed", cause)

	assert.Equal(t, cause, err.Unwrap())
	assert.True(t, errors.Is(err, cause))
}

func TestAppError_Is(t *testing.T) {
	err := ErrNotFound("identity not found", nil)

	assert.True(t, errors.Is(err, &AppError{Code: ErrCodeNotFound}))
	assert.False(t, errors.Is(err, &AppError{Code: ErrCodeConflict}))
	assert.True(t, IsNotFound(err))
	assert.False(t, IsNotFound(errors.New("plain")))
}

func TestErrCapacityBudgetExceeded(t *testing.T) {
	err := ErrCapacityBudgetExceeded(10, 12.5)

	assert.Equal(t, http.StatusServiceUnavailable, GetStatusCode(err))
	assert.Equal(t, ErrCodeCapacityBudgetExceeded, GetErrorCode(err))

	var cause *CapacityBudgetExceeded
	require.True(t, errors.As(err, &cause))
	assert.InDelta(t, 10, cause.Budget, 0)
	assert.InDelta(t, 12.5, cause.Spent, 0)
	assert.Contains(t, cause.Error(), "budget=10")
	assert.Contains(t, cause.Error(), "spent=12.5")
}

func TestNewClientError_PanicsOnServerCode(t *testing.T) {
	assert.Panics(t, func() {
		NewClientError(http.StatusInternalServerError, ErrCodeInternalError, "boom", nil)
	})
	assert.Panics(t, func() {
		NewServerError(http.StatusBadRequest, ErrCodeInvalidRequest, "boom", nil)
	})
}

func TestGetErrorHelpers(t *testing.T) {
	t.Run("app error", func(t *testing.T) {
		cause := errors.New("socket closed")
		err := ErrDatabaseError("query failed", cause)

		assert.Equal(t, http.StatusServiceUnavailable, GetStatusCode(err))
		assert.Equal(t, ErrCodeDatabaseError, GetErrorCode(err))
		assert.Equal(t, "query failed", GetErrorMessage(err))
		assert.Equal(t, "socket closed", GetErrorDetails(err))
	})

	t.Run("plain error", func(t *testing.T) {
		err := errors.New("plain")

		assert.Equal(t, http.StatusInternalServerError, GetStatusCode(err))
		assert.Empty(t, GetErrorCode(err))
		assert.Equal(t, "plain", GetErrorMessage(err))
		assert.Equal(t, "plain", GetErrorDetails(err))
	})
}
