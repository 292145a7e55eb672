package tasks

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/dmitrijs2005/taskboard/internal/common"
	"github.com/dmitrijs2005/taskboard/internal/server/models"
)

// UserLookup resolves a user id to its public projection.
type UserLookup func(id int64) (models.PublicUser, bool)

// MemoryRepository keeps tasks in process memory. Names of creator and
// assignee are resolved on every read, like the SQL join does.
type MemoryRepository struct {
	mu     sync.RWMutex
	nextID int64
	rows   map[int64]models.Task
	users  UserLookup
	now    func() time.Time
}

func NewMemoryRepository(users UserLookup) *MemoryRepository {
	return &MemoryRepository{
		rows:  make(map[int64]models.Task),
		users: users,
		now:   time.Now,
	}
}

func (r *MemoryRepository) Create(_ context.Context, task *models.Task) (*models.Task, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.nextID++
	task.ID = r.nextID
	task.CreatedAt = r.now()
	task.UpdatedAt = task.CreatedAt

	r.rows[task.ID] = strip(task)
	return task, nil
}

func (r *MemoryRepository) GetByID(_ context.Context, id int64) (*models.Task, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	row, ok := r.rows[id]
	if !ok {
		return nil, common.ErrNotFound
	}
	return r.project(row), nil
}

func (r *MemoryRepository) List(_ context.Context, filter models.TaskFilter) ([]*models.Task, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	result := []*models.Task{}
	for _, row := range r.rows {
		if filter.Match(&row) {
			result = append(result, r.project(row))
		}
	}
	sort.Slice(result, func(i, j int) bool {
		if !result[i].CreatedAt.Equal(result[j].CreatedAt) {
			return result[i].CreatedAt.After(result[j].CreatedAt)
		}
		return result[i].ID > result[j].ID
	})
	return result, nil
}

func (r *MemoryRepository) Update(_ context.Context, task *models.Task) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	row, ok := r.rows[task.ID]
	if !ok {
		return common.ErrNotFound
	}
	row.Name = task.Name
	row.Description = task.Description
	row.Priority = task.Priority
	row.Status = task.Status
	row.DueDate = copyTime(task.DueDate)
	row.AssigneeID = copyID(task.AssigneeID)
	row.UpdatedAt = r.bump(row.UpdatedAt)
	r.rows[task.ID] = row
	return nil
}

func (r *MemoryRepository) UpdateStatus(_ context.Context, id int64, status models.Status) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	row, ok := r.rows[id]
	if !ok {
		return common.ErrNotFound
	}
	row.Status = status
	row.UpdatedAt = r.bump(row.UpdatedAt)
	r.rows[id] = row
	return nil
}

func (r *MemoryRepository) Delete(_ context.Context, id int64) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.rows[id]; !ok {
		return common.ErrNotFound
	}
	delete(r.rows, id)
	return nil
}

// bump returns a timestamp strictly after prev.
func (r *MemoryRepository) bump(prev time.Time) time.Time {
	now := r.now()
	if !now.After(prev) {
		now = prev.Add(time.Microsecond)
	}
	return now
}

func (r *MemoryRepository) project(row models.Task) *models.Task {
	t := row
	t.DueDate = copyTime(row.DueDate)
	t.AssigneeID = copyID(row.AssigneeID)
	t.Creator = models.PublicUser{ID: row.CreatorID}
	if u, ok := r.users(row.CreatorID); ok {
		t.Creator = u
	}
	if row.AssigneeID != nil {
		a := models.PublicUser{ID: *row.AssigneeID}
		if u, ok := r.users(*row.AssigneeID); ok {
			a = u
		}
		t.Assignee = &a
	}
	return &t
}

// strip drops the projections and detaches pointers from the caller's value.
func strip(task *models.Task) models.Task {
	row := *task
	row.Creator = models.PublicUser{}
	row.Assignee = nil
	row.DueDate = copyTime(task.DueDate)
	row.AssigneeID = copyID(task.AssigneeID)
	return row
}

func copyTime(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	v := *t
	return &v
}

func copyID(id *int64) *int64 {
	if id == nil {
		return nil
	}
	v := *id
	return &v
}
