// Package server provides the HTTP REST API for the application tracker.
package server

import (
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/jonathan/application-tracker/internal/workflow"
)

// ErrApplicationNotFound indicates the application does not exist
type ErrApplicationNotFound struct {
	ID uuid.UUID
}

func (e *ErrApplicationNotFound) Error() string {
	return fmt.Sprintf("application not found: %s", e.ID)
}

// ErrValidation indicates request validation failure
type ErrValidation struct {
	Field   string
	Message string
}

func (e *ErrValidation) Error() string {
	return fmt.Sprintf("validation error: %s - %s", e.Field, e.Message)
}

// ErrInvalidTransition indicates the requested status cannot follow the
// statuses already recorded
type ErrInvalidTransition struct {
	Requested workflow.Status
	Allowed   []workflow.Status
}

func (e *ErrInvalidTransition) Error() string {
	if len(e.Allowed) == 0 {
		return fmt.Sprintf("cannot add status %s: application is closed", e.Requested)
	}
	allowed := make([]string, len(e.Allowed))
	for i, st := range e.Allowed {
		allowed[i] = string(st)
	}
	return fmt.Sprintf("cannot add status %s: expected one of %s", e.Requested, strings.Join(allowed, ", "))
}

// HTTPStatus returns the appropriate HTTP status code for an error
func HTTPStatus(err error) int {
	var (
		notFound   *ErrApplicationNotFound
		validation *ErrValidation
		transition *ErrInvalidTransition
	)
	switch {
	case errors.As(err, &notFound):
		return http.StatusNotFound
	case errors.As(err, &validation):
		return http.StatusBadRequest
	case errors.As(err, &transition):
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}

// errorMessage returns the message of the typed error inside err, without
// the wrapping added on the way up.
func errorMessage(err error) string {
	var (
		notFound   *ErrApplicationNotFound
		validation *ErrValidation
		transition *ErrInvalidTransition
	)
	switch {
	case errors.As(err, &notFound):
		return notFound.Error()
	case errors.As(err, &validation):
		return validation.Error()
	case errors.As(err, &transition):
		return transition.Error()
	default:
		return err.Error()
	}
}

// toValidationError converts validator errors into an *ErrValidation
// describing the first failing field. Other errors are returned unchanged.
func toValidationError(err error) error {
	var validationErrors validator.ValidationErrors
	if errors.As(err, &validationErrors) && len(validationErrors) > 0 {
		ve := validationErrors[0]
		return &ErrValidation{Field: ve.Namespace(), Message: validationMessage(ve)}
	}
	return err
}

func validationMessage(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required", "nonblank":
		return "is required"
	case "app_status":
		return fmt.Sprintf("unknown status %q", fe.Value())
	case "url":
		return "must be a valid URL"
	case "max":
		return "must be at most " + fe.Param() + " characters"
	default:
		return fe.Tag()
	}
}
