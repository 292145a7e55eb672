// Package users declares the server-side repository contract for accounts.
package users

import (
	"context"

	"github.com/dmitrijs2005/taskboard/internal/server/models"
)

// Repository persists User records.
type Repository interface {
	// Create inserts user and fills its ID and CreatedAt. A duplicate email
	// yields common.ErrConflict.
	Create(ctx context.Context, user *models.User) (*models.User, error)

	// GetByEmail returns common.ErrNotFound when no user has that email.
	// Emails compare case-sensitively, as stored.
	GetByEmail(ctx context.Context, email string) (*models.User, error)

	GetByID(ctx context.Context, id int64) (*models.User, error)

	// ListPublic returns every user as id + name, ordered by name.
	ListPublic(ctx context.Context) ([]models.PublicUser, error)
}
