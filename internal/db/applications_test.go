package db

import (
	"io/fs"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/jonathan/application-tracker/internal/types"
	"github.com/jonathan/application-tracker/internal/workflow"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNonNil(t *testing.T) {
	assert.NotNil(t, nonNil[types.Event](nil))
	assert.Empty(t, nonNil[types.Event](nil))

	items := []int{1, 2}
	assert.Equal(t, items, nonNil(items))
}

func TestAssignChildIDs(t *testing.T) {
	keep := uuid.New()
	app := &types.Application{
		StatusHistory: []types.StatusEvent{
			{ID: keep, Status: workflow.StatusApplied},
			{Status: workflow.StatusScreen},
		},
		Events: []types.Event{{Description: "Phone call"}},
	}

	assignChildIDs(app)

	assert.Equal(t, keep, app.StatusHistory[0].ID)
	assert.NotEqual(t, uuid.Nil, app.StatusHistory[1].ID)
	assert.NotEqual(t, uuid.Nil, app.Events[0].ID)
}

func TestMigrationsEmbedded(t *testing.T) {
	files, err := fs.Glob(migrationFiles, "migrations/*.sql")
	require.NoError(t, err)
	require.NotEmpty(t, files)

	data, err := fs.ReadFile(migrationFiles, files[0])
	require.NoError(t, err)
	sql := string(data)
	assert.Contains(t, sql, "-- +goose Up")
	assert.Contains(t, sql, "-- +goose Down")

	// every status the workflow knows must pass the column check
	for _, st := range workflow.All() {
		assert.True(t, strings.Contains(sql, "'"+string(st)+"'"), "status %s missing from CHECK", st)
	}
}
