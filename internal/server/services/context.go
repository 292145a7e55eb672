package services

import (
	"context"

	"github.com/dmitrijs2005/taskboard/internal/common"
	"github.com/dmitrijs2005/taskboard/internal/server/models"
)

type ctxKey int

const userKey ctxKey = iota

// ContextWithUser returns ctx carrying the authenticated user.
func ContextWithUser(ctx context.Context, u *models.User) context.Context {
	return context.WithValue(ctx, userKey, u)
}

// UserFromContext returns the authenticated user, or ErrNotAuthenticated.
func UserFromContext(ctx context.Context) (*models.User, error) {
	u, ok := ctx.Value(userKey).(*models.User)
	if !ok || u == nil {
		return nil, common.ErrNotAuthenticated
	}
	return u, nil
}
