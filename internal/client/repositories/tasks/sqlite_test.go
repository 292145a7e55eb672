package tasks

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/dmitrijs2005/taskboard/internal/client/migrations"
	"github.com/dmitrijs2005/taskboard/internal/common"
	"github.com/dmitrijs2005/taskboard/internal/server/models"
	"github.com/pressly/goose/v3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	_ "modernc.org/sqlite"
)

func setupDB(t *testing.T) *sql.DB {
	t.Helper()
	db, err := sql.Open("sqlite", ":memory:")
	require.NoError(t, err)
	db.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = db.Close() })

	goose.SetBaseFS(migrations.Migrations)
	require.NoError(t, goose.SetDialect("sqlite3"))
	require.NoError(t, goose.Up(db, "."))
	return db
}

func sampleTasks() []*models.Task {
	created := time.Date(2024, 3, 5, 9, 30, 0, 0, time.UTC)
	due := models.NormalizeDueDate(time.Date(2024, 4, 1, 0, 0, 0, 0, time.Local))
	assignee := int64(2)

	return []*models.Task{
		{
			ID: 10, Name: "Write docs", Description: "README", Priority: models.PriorityHigh,
			Status: models.StatusReview, DueDate: &due, AssigneeID: &assignee,
			Assignee:  &models.PublicUser{ID: 2, Name: "Bob"},
			CreatorID: 1, Creator: models.PublicUser{ID: 1, Name: "Ann"},
			CreatedAt: created, UpdatedAt: created.Add(time.Hour),
		},
		{
			ID: 3, Name: "Fix login", Priority: models.PriorityLow, Status: models.StatusTodo,
			CreatorID: 1, Creator: models.PublicUser{ID: 1, Name: "Ann"},
			CreatedAt: created, UpdatedAt: created,
		},
	}
}

func TestReplaceAll_KeepsOrderAndFields(t *testing.T) {
	r := NewSQLiteRepository(setupDB(t))
	ctx := context.Background()
	want := sampleTasks()

	require.NoError(t, r.ReplaceAll(ctx, want))

	got, err := r.GetAll(ctx)
	require.NoError(t, err)
	require.Len(t, got, 2)

	assert.EqualValues(t, 10, got[0].ID)
	assert.EqualValues(t, 3, got[1].ID)

	first := got[0]
	assert.Equal(t, "README", first.Description)
	assert.Equal(t, models.StatusReview, first.Status)
	require.NotNil(t, first.DueDate)
	assert.Equal(t, "2024-04-01", models.FormatDueDate(*first.DueDate))
	require.NotNil(t, first.Assignee)
	assert.Equal(t, "Bob", first.Assignee.Name)
	assert.Equal(t, models.PublicUser{ID: 1, Name: "Ann"}, first.Creator)
	assert.True(t, want[0].UpdatedAt.Equal(first.UpdatedAt))

	assert.Nil(t, got[1].DueDate)
	assert.Nil(t, got[1].AssigneeID)
	assert.Nil(t, got[1].Assignee)
}

func TestReplaceAll_DropsPreviousSnapshot(t *testing.T) {
	r := NewSQLiteRepository(setupDB(t))
	ctx := context.Background()

	require.NoError(t, r.ReplaceAll(ctx, sampleTasks()))
	require.NoError(t, r.ReplaceAll(ctx, sampleTasks()[1:]))

	got, err := r.GetAll(ctx)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.EqualValues(t, 3, got[0].ID)

	require.NoError(t, r.ReplaceAll(ctx, nil))
	got, err = r.GetAll(ctx)
	require.NoError(t, err)
	assert.Empty(t, got)
	assert.NotNil(t, got)
}

func TestReplaceAll_RollsBackOnDuplicate(t *testing.T) {
	r := NewSQLiteRepository(setupDB(t))
	ctx := context.Background()
	require.NoError(t, r.ReplaceAll(ctx, sampleTasks()))

	dup := sampleTasks()
	dup[1].ID = dup[0].ID
	assert.Error(t, r.ReplaceAll(ctx, dup))

	got, err := r.GetAll(ctx)
	require.NoError(t, err)
	assert.Len(t, got, 2)
}

func TestGetByID(t *testing.T) {
	r := NewSQLiteRepository(setupDB(t))
	ctx := context.Background()
	require.NoError(t, r.ReplaceAll(ctx, sampleTasks()))

	got, err := r.GetByID(ctx, 3)
	require.NoError(t, err)
	assert.Equal(t, "Fix login", got.Name)

	_, err = r.GetByID(ctx, 99)
	assert.ErrorIs(t, err, common.ErrNotFound)
}
