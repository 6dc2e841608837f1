package server

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/google/uuid"
	"github.com/jonathan/application-tracker/internal/types"
	"github.com/jonathan/application-tracker/internal/workflow"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestErrApplicationNotFound(t *testing.T) {
	id := uuid.New()
	err := &ErrApplicationNotFound{ID: id}
	assert.Equal(t, "application not found: "+id.String(), err.Error())
	assert.Equal(t, http.StatusNotFound, HTTPStatus(err))
}

func TestErrValidation(t *testing.T) {
	err := &ErrValidation{Field: "company", Message: "is required"}
	assert.Equal(t, "validation error: company - is required", err.Error())
	assert.Equal(t, http.StatusBadRequest, HTTPStatus(err))
}

func TestErrInvalidTransition(t *testing.T) {
	err := &ErrInvalidTransition{
		Requested: workflow.StatusOffer,
		Allowed:   []workflow.Status{workflow.StatusRejected, workflow.StatusScreen},
	}
	assert.Equal(t, "cannot add status Offer: expected one of Rejected, Screen", err.Error())
	assert.Equal(t, http.StatusConflict, HTTPStatus(err))

	closed := &ErrInvalidTransition{Requested: workflow.StatusScreen, Allowed: []workflow.Status{}}
	assert.Equal(t, "cannot add status Screen: application is closed", closed.Error())
}

func TestHTTPStatus(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		expected int
	}{
		{
			name:     "not found",
			err:      &ErrApplicationNotFound{ID: uuid.New()},
			expected: http.StatusNotFound,
		},
		{
			name:     "wrapped not found",
			err:      fmt.Errorf("failed to update application: %w", &ErrApplicationNotFound{ID: uuid.New()}),
			expected: http.StatusNotFound,
		},
		{
			name:     "validation",
			err:      &ErrValidation{Field: "status", Message: "unknown"},
			expected: http.StatusBadRequest,
		},
		{
			name:     "wrapped transition",
			err:      fmt.Errorf("failed to add status: %w", &ErrInvalidTransition{Requested: workflow.StatusOffer}),
			expected: http.StatusConflict,
		},
		{
			name:     "generic error",
			err:      errors.New("connection refused"),
			expected: http.StatusInternalServerError,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, HTTPStatus(tt.err))
		})
	}
}

func TestErrorMessage_StripsWrapping(t *testing.T) {
	inner := &ErrInvalidTransition{Requested: workflow.StatusOffer, Allowed: []workflow.Status{}}
	err := fmt.Errorf("failed to add status: %w", inner)
	assert.Equal(t, inner.Error(), errorMessage(err))

	plain := errors.New("boom")
	assert.Equal(t, "boom", errorMessage(plain))
}

func TestToValidationError(t *testing.T) {
	req := &types.CreateApplicationRequest{Company: "  ", Position: "Engineer"}
	err := toValidationError(req.Validate())

	var ve *ErrValidation
	require.ErrorAs(t, err, &ve)
	assert.Equal(t, "CreateApplicationRequest.Company", ve.Field)
	assert.Equal(t, "is required", ve.Message)

	other := errors.New("not a validation error")
	assert.Same(t, other, toValidationError(other))
}

func TestToValidationError_UnknownStatus(t *testing.T) {
	req := &types.AddStatusRequest{Status: "Hired"}
	err := toValidationError(req.Validate())

	var ve *ErrValidation
	require.ErrorAs(t, err, &ve)
	assert.Equal(t, "AddStatusRequest.Status", ve.Field)
	assert.Equal(t, `unknown status "Hired"`, ve.Message)
}
