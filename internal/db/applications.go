package db

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jonathan/application-tracker/internal/types"
	"github.com/jonathan/application-tracker/internal/workflow"
	"golang.org/x/sync/errgroup"
)

// -----------------------------------------------------------------------------
// Application Methods
// -----------------------------------------------------------------------------

// CreateApplication inserts an application together with its status history
// and events. Missing IDs are assigned.
func (db *DB) CreateApplication(ctx context.Context, app *types.Application) error {
	if app.ID == uuid.Nil {
		app.ID = uuid.New()
	}
	assignChildIDs(app)

	return db.inTx(ctx, func(tx pgx.Tx) error {
		err := tx.QueryRow(ctx,
			`INSERT INTO applications (id, company, position, location, url, notes)
			 VALUES ($1, $2, $3, $4, $5, $6)
			 RETURNING created_at, updated_at`,
			app.ID, app.Company, app.Position, app.Location, app.URL, app.Notes,
		).Scan(&app.CreatedAt, &app.UpdatedAt)
		if err != nil {
			return fmt.Errorf("failed to create application: %w", err)
		}

		return upsertChildren(ctx, tx, app)
	})
}

// GetApplication retrieves an application with both child collections
func (db *DB) GetApplication(ctx context.Context, id uuid.UUID) (*types.Application, error) {
	return loadApplication(ctx, db.pool, id, false)
}

// ListApplications retrieves every application with both child collections,
// most recently updated first.
func (db *DB) ListApplications(ctx context.Context) ([]types.Application, error) {
	var (
		apps     []types.Application
		statuses map[uuid.UUID][]types.StatusEvent
		events   map[uuid.UUID][]types.Event
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		rows, err := db.pool.Query(gctx,
			`SELECT id, company, position, location, url, notes, created_at, updated_at
			 FROM applications ORDER BY updated_at DESC, id`)
		if err != nil {
			return fmt.Errorf("failed to list applications: %w", err)
		}
		apps, err = pgx.CollectRows(rows, scanApplication)
		if err != nil {
			return fmt.Errorf("failed to scan applications: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		rows, err := db.pool.Query(gctx,
			`SELECT application_id, id, occurred, status FROM status_events ORDER BY occurred, id`)
		if err != nil {
			return fmt.Errorf("failed to list status events: %w", err)
		}
		statuses, err = collectGrouped(rows, scanStatusEvent)
		if err != nil {
			return fmt.Errorf("failed to scan status events: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		rows, err := db.pool.Query(gctx,
			`SELECT application_id, id, occurred, description FROM application_events ORDER BY occurred, id`)
		if err != nil {
			return fmt.Errorf("failed to list application events: %w", err)
		}
		events, err = collectGrouped(rows, scanEvent)
		if err != nil {
			return fmt.Errorf("failed to scan application events: %w", err)
		}
		return nil
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	for i := range apps {
		apps[i].StatusHistory = nonNil(statuses[apps[i].ID])
		apps[i].Events = nonNil(events[apps[i].ID])
	}
	return apps, nil
}

// UpdateApplication loads an application under a row lock, applies mutate
// and writes the result back: scalar fields are updated, child rows that
// disappeared are deleted and the remaining ones upserted.
// Returns nil, nil when the application does not exist.
func (db *DB) UpdateApplication(ctx context.Context, id uuid.UUID, mutate func(*types.Application) error) (*types.Application, error) {
	var updated *types.Application

	err := db.inTx(ctx, func(tx pgx.Tx) error {
		app, err := loadApplication(ctx, tx, id, true)
		if err != nil {
			return err
		}
		if app == nil {
			return nil
		}

		if err := mutate(app); err != nil {
			return err
		}
		app.ID = id
		assignChildIDs(app)

		err = tx.QueryRow(ctx,
			`UPDATE applications
			 SET company = $2, position = $3, location = $4, url = $5, notes = $6, updated_at = NOW()
			 WHERE id = $1
			 RETURNING updated_at`,
			app.ID, app.Company, app.Position, app.Location, app.URL, app.Notes,
		).Scan(&app.UpdatedAt)
		if err != nil {
			return fmt.Errorf("failed to update application: %w", err)
		}

		if err := deleteMissingChildren(ctx, tx, app); err != nil {
			return err
		}
		if err := upsertChildren(ctx, tx, app); err != nil {
			return err
		}

		updated = app
		return nil
	})
	if err != nil {
		return nil, err
	}
	return updated, nil
}

// DeleteApplication removes an application and, by cascade, its child rows.
// Returns false when nothing was deleted.
func (db *DB) DeleteApplication(ctx context.Context, id uuid.UUID) (bool, error) {
	tag, err := db.pool.Exec(ctx, `DELETE FROM applications WHERE id = $1`, id)
	if err != nil {
		return false, fmt.Errorf("failed to delete application: %w", err)
	}
	return tag.RowsAffected() > 0, nil
}

// -----------------------------------------------------------------------------
// Helpers
// -----------------------------------------------------------------------------

func loadApplication(ctx context.Context, q querier, id uuid.UUID, forUpdate bool) (*types.Application, error) {
	query := `SELECT id, company, position, location, url, notes, created_at, updated_at
	          FROM applications WHERE id = $1`
	if forUpdate {
		query += ` FOR UPDATE`
	}

	rows, err := q.Query(ctx, query, id)
	if err != nil {
		return nil, fmt.Errorf("failed to get application: %w", err)
	}
	app, err := pgx.CollectOneRow(rows, scanApplication)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get application: %w", err)
	}

	rows, err = q.Query(ctx,
		`SELECT application_id, id, occurred, status FROM status_events
		 WHERE application_id = $1 ORDER BY occurred, id`, id)
	if err != nil {
		return nil, fmt.Errorf("failed to get status history: %w", err)
	}
	statuses, err := collectGrouped(rows, scanStatusEvent)
	if err != nil {
		return nil, fmt.Errorf("failed to scan status history: %w", err)
	}

	rows, err = q.Query(ctx,
		`SELECT application_id, id, occurred, description FROM application_events
		 WHERE application_id = $1 ORDER BY occurred, id`, id)
	if err != nil {
		return nil, fmt.Errorf("failed to get events: %w", err)
	}
	events, err := collectGrouped(rows, scanEvent)
	if err != nil {
		return nil, fmt.Errorf("failed to scan events: %w", err)
	}

	app.StatusHistory = nonNil(statuses[id])
	app.Events = nonNil(events[id])
	return &app, nil
}

func scanApplication(row pgx.CollectableRow) (types.Application, error) {
	var a types.Application
	err := row.Scan(&a.ID, &a.Company, &a.Position, &a.Location, &a.URL, &a.Notes, &a.CreatedAt, &a.UpdatedAt)
	return a, err
}

func scanStatusEvent(row pgx.CollectableRow) (uuid.UUID, types.StatusEvent, error) {
	var (
		appID  uuid.UUID
		e      types.StatusEvent
		status string
	)
	err := row.Scan(&appID, &e.ID, &e.Occurred, &status)
	e.Status = workflow.Status(status)
	return appID, e, err
}

func scanEvent(row pgx.CollectableRow) (uuid.UUID, types.Event, error) {
	var (
		appID uuid.UUID
		e     types.Event
	)
	err := row.Scan(&appID, &e.ID, &e.Occurred, &e.Description)
	return appID, e, err
}

// collectGrouped scans child rows and groups them by application ID
func collectGrouped[T any](rows pgx.Rows, scan func(pgx.CollectableRow) (uuid.UUID, T, error)) (map[uuid.UUID][]T, error) {
	defer rows.Close()

	grouped := make(map[uuid.UUID][]T)
	for rows.Next() {
		appID, item, err := scan(rows)
		if err != nil {
			return nil, err
		}
		grouped[appID] = append(grouped[appID], item)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return grouped, nil
}

func nonNil[T any](items []T) []T {
	if items == nil {
		return []T{}
	}
	return items
}

func assignChildIDs(app *types.Application) {
	for i := range app.StatusHistory {
		if app.StatusHistory[i].ID == uuid.Nil {
			app.StatusHistory[i].ID = uuid.New()
		}
	}
	for i := range app.Events {
		if app.Events[i].ID == uuid.Nil {
			app.Events[i].ID = uuid.New()
		}
	}
}

func deleteMissingChildren(ctx context.Context, tx pgx.Tx, app *types.Application) error {
	statusIDs := make([]string, 0, len(app.StatusHistory))
	for _, e := range app.StatusHistory {
		statusIDs = append(statusIDs, e.ID.String())
	}
	if _, err := tx.Exec(ctx,
		`DELETE FROM status_events WHERE application_id = $1 AND NOT (id = ANY($2::uuid[]))`,
		app.ID, statusIDs,
	); err != nil {
		return fmt.Errorf("failed to delete status events: %w", err)
	}

	eventIDs := make([]string, 0, len(app.Events))
	for _, e := range app.Events {
		eventIDs = append(eventIDs, e.ID.String())
	}
	if _, err := tx.Exec(ctx,
		`DELETE FROM application_events WHERE application_id = $1 AND NOT (id = ANY($2::uuid[]))`,
		app.ID, eventIDs,
	); err != nil {
		return fmt.Errorf("failed to delete application events: %w", err)
	}
	return nil
}

func upsertChildren(ctx context.Context, tx pgx.Tx, app *types.Application) error {
	batch := &pgx.Batch{}
	for _, e := range app.StatusHistory {
		batch.Queue(
			`INSERT INTO status_events (id, application_id, occurred, status)
			 VALUES ($1, $2, $3, $4)
			 ON CONFLICT (id) DO UPDATE SET occurred = EXCLUDED.occurred, status = EXCLUDED.status
			 WHERE status_events.application_id = EXCLUDED.application_id`,
			e.ID, app.ID, e.Occurred, string(e.Status),
		)
	}
	for _, e := range app.Events {
		batch.Queue(
			`INSERT INTO application_events (id, application_id, occurred, description)
			 VALUES ($1, $2, $3, $4)
			 ON CONFLICT (id) DO UPDATE SET occurred = EXCLUDED.occurred, description = EXCLUDED.description
			 WHERE application_events.application_id = EXCLUDED.application_id`,
			e.ID, app.ID, e.Occurred, e.Description,
		)
	}
	if batch.Len() == 0 {
		return nil
	}

	results := tx.SendBatch(ctx, batch)
	for i := 0; i < batch.Len(); i++ {
		if _, err := results.Exec(); err != nil {
			_ = results.Close()
			return fmt.Errorf("failed to save child rows: %w", err)
		}
	}
	if err := results.Close(); err != nil {
		return fmt.Errorf("failed to save child rows: %w", err)
	}
	return nil
}
