// Package tasks declares the server-side repository contract for tasks.
package tasks

import (
	"context"

	"github.com/dmitrijs2005/taskboard/internal/server/models"
)

// Repository persists Task records. Every method commits at most one row.
// Returned tasks carry the id + name projection of creator and assignee.
type Repository interface {
	// Create inserts task and fills ID, CreatedAt and UpdatedAt.
	Create(ctx context.Context, task *models.Task) (*models.Task, error)

	// GetByID returns common.ErrNotFound for an unknown id.
	GetByID(ctx context.Context, id int64) (*models.Task, error)

	// List returns the tasks matching filter, newest first.
	List(ctx context.Context, filter models.TaskFilter) ([]*models.Task, error)

	// Update replaces the mutable fields of task.ID (everything but the
	// creator and the timestamps) and bumps UpdatedAt.
	Update(ctx context.Context, task *models.Task) error

	// UpdateStatus changes only the status (and UpdatedAt) of task id.
	UpdateStatus(ctx context.Context, id int64, status models.Status) error

	// Delete hard-deletes task id; common.ErrNotFound when absent.
	Delete(ctx context.Context, id int64) error
}
