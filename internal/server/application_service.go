package server

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/google/uuid"
	"github.com/jonathan/application-tracker/internal/funnel"
	"github.com/jonathan/application-tracker/internal/reconcile"
	"github.com/jonathan/application-tracker/internal/types"
	"github.com/jonathan/application-tracker/internal/workflow"
)

// ApplicationStore is the persistence the service needs; *db.DB satisfies it.
type ApplicationStore interface {
	CreateApplication(ctx context.Context, app *types.Application) error
	GetApplication(ctx context.Context, id uuid.UUID) (*types.Application, error)
	ListApplications(ctx context.Context) ([]types.Application, error)
	UpdateApplication(ctx context.Context, id uuid.UUID, mutate func(*types.Application) error) (*types.Application, error)
	DeleteApplication(ctx context.Context, id uuid.UUID) (bool, error)
}

// ApplicationService provides business logic for application operations
type ApplicationService struct {
	store ApplicationStore
	now   func() time.Time
}

// NewApplicationService creates a new ApplicationService with the given store
func NewApplicationService(store ApplicationStore) *ApplicationService {
	return &ApplicationService{
		store: store,
		now:   time.Now,
	}
}

var statusHistoryMapper = reconcile.Mapper[types.StatusEvent, types.StatusEventInput, uuid.UUID]{
	CurrentID: func(e types.StatusEvent) uuid.UUID { return e.ID },
	DesiredID: func(in types.StatusEventInput) (uuid.UUID, bool) {
		if in.ID == nil {
			return uuid.Nil, false
		}
		return *in.ID, true
	},
	Update: func(e *types.StatusEvent, in types.StatusEventInput) {
		e.Occurred = *in.Occurred
		e.Status = in.Status
	},
	Create: func(in types.StatusEventInput) types.StatusEvent {
		return types.StatusEvent{ID: uuid.New(), Occurred: *in.Occurred, Status: in.Status}
	},
}

var eventMapper = reconcile.Mapper[types.Event, types.EventInput, uuid.UUID]{
	CurrentID: func(e types.Event) uuid.UUID { return e.ID },
	DesiredID: func(in types.EventInput) (uuid.UUID, bool) {
		if in.ID == nil {
			return uuid.Nil, false
		}
		return *in.ID, true
	},
	Update: func(e *types.Event, in types.EventInput) {
		e.Occurred = *in.Occurred
		e.Description = in.Description
	},
	Create: func(in types.EventInput) types.Event {
		return types.Event{ID: uuid.New(), Occurred: *in.Occurred, Description: in.Description}
	},
}

// Create stores a new application. When AppliedAt is set the history starts
// with an Applied status.
func (s *ApplicationService) Create(ctx context.Context, req *types.CreateApplicationRequest) (*types.Application, error) {
	if err := req.Validate(); err != nil {
		return nil, toValidationError(err)
	}

	app := &types.Application{
		ID:            uuid.New(),
		Company:       req.Company,
		Position:      req.Position,
		Location:      req.Location,
		URL:           req.URL,
		Notes:         req.Notes,
		StatusHistory: []types.StatusEvent{},
		Events:        []types.Event{},
	}
	if req.AppliedAt != nil {
		app.StatusHistory = append(app.StatusHistory, types.StatusEvent{
			ID:       uuid.New(),
			Occurred: *req.AppliedAt,
			Status:   workflow.StatusApplied,
		})
	}

	if err := s.store.CreateApplication(ctx, app); err != nil {
		return nil, fmt.Errorf("failed to create application: %w", err)
	}
	return app, nil
}

// Get retrieves an application by ID
func (s *ApplicationService) Get(ctx context.Context, id uuid.UUID) (*types.Application, error) {
	app, err := s.store.GetApplication(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to get application: %w", err)
	}
	if app == nil {
		return nil, &ErrApplicationNotFound{ID: id}
	}
	return app, nil
}

// List retrieves all applications
func (s *ApplicationService) List(ctx context.Context) ([]types.Application, error) {
	apps, err := s.store.ListApplications(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list applications: %w", err)
	}
	return apps, nil
}

// Update replaces the application's fields and brings its status history and
// event log in line with the request.
func (s *ApplicationService) Update(ctx context.Context, id uuid.UUID, req *types.UpdateApplicationRequest) (*types.Application, error) {
	if err := req.Validate(); err != nil {
		return nil, toValidationError(err)
	}

	app, err := s.store.UpdateApplication(ctx, id, func(app *types.Application) error {
		app.Company = req.Company
		app.Position = req.Position
		app.Location = req.Location
		app.URL = req.URL
		app.Notes = req.Notes

		history := reconcile.Reconcile(&app.StatusHistory, req.StatusHistory, statusHistoryMapper)
		events := reconcile.Reconcile(&app.Events, req.Events, eventMapper)

		log.Printf("[applications] %s: status history +%d ~%d -%d, events +%d ~%d -%d",
			id, len(history.Added), len(history.Updated), len(history.Removed),
			len(events.Added), len(events.Updated), len(events.Removed))
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to update application: %w", err)
	}
	if app == nil {
		return nil, &ErrApplicationNotFound{ID: id}
	}
	return app, nil
}

// Delete removes an application
func (s *ApplicationService) Delete(ctx context.Context, id uuid.UUID) error {
	deleted, err := s.store.DeleteApplication(ctx, id)
	if err != nil {
		return fmt.Errorf("failed to delete application: %w", err)
	}
	if !deleted {
		return &ErrApplicationNotFound{ID: id}
	}
	return nil
}

// Transitions returns the statuses that may be added next to an application
func (s *ApplicationService) Transitions(ctx context.Context, id uuid.UUID) (*types.Application, []workflow.Status, error) {
	app, err := s.Get(ctx, id)
	if err != nil {
		return nil, nil, err
	}
	return app, app.AvailableTransitions(), nil
}

// AddStatus appends a status to the application's history if the workflow
// allows it next.
func (s *ApplicationService) AddStatus(ctx context.Context, id uuid.UUID, req *types.AddStatusRequest) (*types.Application, error) {
	if err := req.Validate(); err != nil {
		return nil, toValidationError(err)
	}

	occurred := s.now().UTC()
	if req.Occurred != nil {
		occurred = *req.Occurred
	}

	app, err := s.store.UpdateApplication(ctx, id, func(app *types.Application) error {
		if !workflow.CanTransition(app.Statuses(), req.Status) {
			return &ErrInvalidTransition{Requested: req.Status, Allowed: app.AvailableTransitions()}
		}
		app.StatusHistory = append(app.StatusHistory, types.StatusEvent{
			ID:       uuid.New(),
			Occurred: occurred,
			Status:   req.Status,
		})
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to add status: %w", err)
	}
	if app == nil {
		return nil, &ErrApplicationNotFound{ID: id}
	}
	return app, nil
}

// Funnel builds the funnel report over every stored application
func (s *ApplicationService) Funnel(ctx context.Context) ([]funnel.Edge, int, error) {
	apps, err := s.List(ctx)
	if err != nil {
		return nil, 0, err
	}
	return funnel.Generate(apps), len(apps), nil
}
