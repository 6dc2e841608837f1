// Package types provides the domain and request types shared by the
// application tracker's storage, service and HTTP layers.
package types

import (
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/jonathan/application-tracker/internal/workflow"
)

var validate = newValidator()

// newValidator registers the tracker's custom rules:
//   - nonblank: string must contain something other than whitespace
//   - app_status: value must be a known workflow.Status
func newValidator() *validator.Validate {
	v := validator.New()
	_ = v.RegisterValidation("nonblank", func(fl validator.FieldLevel) bool {
		return strings.TrimSpace(fl.Field().String()) != ""
	})
	_ = v.RegisterValidation("app_status", func(fl validator.FieldLevel) bool {
		return workflow.Status(fl.Field().String()).Valid()
	})
	return v
}

// CreateApplicationRequest represents the request to create a new application.
type CreateApplicationRequest struct {
	Company  string `json:"company" validate:"nonblank,max=200"`
	Position string `json:"position" validate:"nonblank,max=200"`
	Location string `json:"location,omitempty" validate:"max=200"`
	URL      string `json:"url,omitempty" validate:"omitempty,url"`
	Notes    string `json:"notes,omitempty"`

	// AppliedAt records an initial Applied status when set.
	AppliedAt *time.Time `json:"applied_at,omitempty"`
}

// StatusEventInput is one entry of the desired status history.
// A nil ID means the entry is new.
type StatusEventInput struct {
	ID       *uuid.UUID      `json:"id,omitempty"`
	Occurred *time.Time      `json:"occurred" validate:"required"`
	Status   workflow.Status `json:"status" validate:"app_status"`
}

// EventInput is one entry of the desired event log.
// A nil ID means the entry is new.
type EventInput struct {
	ID          *uuid.UUID `json:"id,omitempty"`
	Occurred    *time.Time `json:"occurred" validate:"required"`
	Description string     `json:"description" validate:"nonblank"`
}

// UpdateApplicationRequest replaces an application's fields and child
// collections with the desired state it carries.
type UpdateApplicationRequest struct {
	Company  string `json:"company" validate:"nonblank,max=200"`
	Position string `json:"position" validate:"nonblank,max=200"`
	Location string `json:"location,omitempty" validate:"max=200"`
	URL      string `json:"url,omitempty" validate:"omitempty,url"`
	Notes    string `json:"notes,omitempty"`

	StatusHistory []StatusEventInput `json:"status_history" validate:"dive"`
	Events        []EventInput       `json:"events" validate:"dive"`
}

// AddStatusRequest appends a single status to an application's history.
// Occurred defaults to the current time.
type AddStatusRequest struct {
	Status   workflow.Status `json:"status" validate:"app_status"`
	Occurred *time.Time      `json:"occurred,omitempty"`
}

// Validate validates the CreateApplicationRequest using the validator.
func (r *CreateApplicationRequest) Validate() error {
	return validate.Struct(r)
}

// Validate validates the UpdateApplicationRequest using the validator.
func (r *UpdateApplicationRequest) Validate() error {
	return validate.Struct(r)
}

// Validate validates the AddStatusRequest using the validator.
func (r *AddStatusRequest) Validate() error {
	return validate.Struct(r)
}
