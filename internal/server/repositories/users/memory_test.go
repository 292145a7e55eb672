package users

import (
	"context"
	"testing"

	"github.com/dmitrijs2005/taskboard/internal/common"
	"github.com/dmitrijs2005/taskboard/internal/server/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryRepository_CreateAndGet(t *testing.T) {
	ctx := context.Background()
	r := NewMemoryRepository()

	u, err := r.Create(ctx, &models.User{Email: "a@x.io", PasswordHash: "h", Name: "Ann"})
	require.NoError(t, err)
	assert.Equal(t, int64(1), u.ID)
	assert.False(t, u.CreatedAt.IsZero())

	byEmail, err := r.GetByEmail(ctx, "a@x.io")
	require.NoError(t, err)
	assert.Equal(t, *u, *byEmail)

	byID, err := r.GetByID(ctx, u.ID)
	require.NoError(t, err)
	assert.Equal(t, "Ann", byID.Name)

	// returned copies do not alias the store
	byID.Name = "changed"
	again, _ := r.GetByID(ctx, u.ID)
	assert.Equal(t, "Ann", again.Name)
}

func TestMemoryRepository_DuplicateEmailIsCaseSensitive(t *testing.T) {
	ctx := context.Background()
	r := NewMemoryRepository()

	_, err := r.Create(ctx, &models.User{Email: "a@x.io", Name: "A"})
	require.NoError(t, err)

	_, err = r.Create(ctx, &models.User{Email: "a@x.io", Name: "B"})
	assert.ErrorIs(t, err, common.ErrConflict)

	_, err = r.Create(ctx, &models.User{Email: "A@x.io", Name: "C"})
	assert.NoError(t, err)
}

func TestMemoryRepository_NotFound(t *testing.T) {
	ctx := context.Background()
	r := NewMemoryRepository()

	_, err := r.GetByEmail(ctx, "nobody")
	assert.ErrorIs(t, err, common.ErrNotFound)
	_, err = r.GetByID(ctx, 9)
	assert.ErrorIs(t, err, common.ErrNotFound)

	_, ok := r.Lookup(9)
	assert.False(t, ok)
}

func TestMemoryRepository_ListPublicSorted(t *testing.T) {
	ctx := context.Background()
	r := NewMemoryRepository()

	list, err := r.ListPublic(ctx)
	require.NoError(t, err)
	assert.Empty(t, list)

	_, _ = r.Create(ctx, &models.User{Email: "z", Name: "Zed"})
	_, _ = r.Create(ctx, &models.User{Email: "a", Name: "Amy"})

	list, err = r.ListPublic(ctx)
	require.NoError(t, err)
	assert.Equal(t, []models.PublicUser{{ID: 2, Name: "Amy"}, {ID: 1, Name: "Zed"}}, list)
}
