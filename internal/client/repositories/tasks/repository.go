// Package tasks is the client's local copy of the last task list fetched from
// the server. It is never authoritative: every refresh replaces it wholesale.
package tasks

import (
	"context"

	"github.com/dmitrijs2005/taskboard/internal/server/models"
)

// Repository persists the mirror in list order.
type Repository interface {
	// ReplaceAll drops the current snapshot and stores tasks in the given order.
	ReplaceAll(ctx context.Context, tasks []*models.Task) error
	GetAll(ctx context.Context) ([]*models.Task, error)
	// GetByID returns common.ErrNotFound for an id missing from the mirror.
	GetByID(ctx context.Context, id int64) (*models.Task, error)
}
