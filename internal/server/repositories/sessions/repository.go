// Package sessions declares the server-side repository contract for login
// sessions.
package sessions

import (
	"context"

	"github.com/dmitrijs2005/taskboard/internal/server/models"
)

// Repository defines operations for issuing, resolving, and revoking sessions.
type Repository interface {
	// Create stores a new session and fills its ID and CreatedAt.
	Create(ctx context.Context, session *models.Session) (*models.Session, error)

	// FindByToken looks up a session by its opaque token string.
	// Implementations return common.ErrNotFound when the token is absent.
	FindByToken(ctx context.Context, token string) (*models.Session, error)

	// DeleteByToken removes the session with that token. Deleting a
	// non-existent token is not an error.
	DeleteByToken(ctx context.Context, token string) error
}
