package services

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/dmitrijs2005/taskboard/internal/common"
	"github.com/dmitrijs2005/taskboard/internal/logging"
	"github.com/dmitrijs2005/taskboard/internal/server/models"
	"github.com/dmitrijs2005/taskboard/internal/server/repositories/repomanager"
	"github.com/dmitrijs2005/taskboard/internal/server/viewcache"
	"github.com/dmitrijs2005/taskboard/internal/views"
)

// CreateTaskInput is the typed form of a new-task submission. Empty
// Priority and Status default to medium and todo.
type CreateTaskInput struct {
	Name        string          `json:"name" validate:"required,max=200"`
	Description string          `json:"description" validate:"max=5000"`
	Priority    models.Priority `json:"priority" validate:"omitempty,oneof=high medium low"`
	Status      models.Status   `json:"status" validate:"omitempty,oneof=todo in_progress review done"`
	DueDate     *time.Time      `json:"dueDate"`
	AssigneeID  *int64          `json:"assigneeId" validate:"omitnil,gt=0"`
}

// Nullable is a patch field that can also be cleared: Set with a nil Value
// means "remove".
type Nullable[T any] struct {
	Set   bool
	Value *T
}

// UpdateTaskInput replaces the provided fields and keeps the others.
type UpdateTaskInput struct {
	Name        *string          `json:"name" validate:"omitnil,min=1,max=200"`
	Description *string          `json:"description" validate:"omitnil,max=5000"`
	Priority    *models.Priority `json:"priority" validate:"omitnil,oneof=high medium low"`
	Status      *models.Status   `json:"status" validate:"omitnil,oneof=todo in_progress review done"`
	DueDate     Nullable[time.Time]
	AssigneeID  Nullable[int64]
}

const (
	boardCacheKey     = "board"
	dashboardCacheKey = "dashboard"
)

// TaskService owns every task operation. All of them require an
// authenticated user in ctx (see ContextWithUser).
type TaskService struct {
	store repomanager.Store
	cache viewcache.Cache
	log   logging.Logger
}

func NewTaskService(store repomanager.Store, cache viewcache.Cache, log logging.Logger) *TaskService {
	if cache == nil {
		cache = viewcache.Nop{}
	}
	return &TaskService{store: store, cache: cache, log: log.With("component", "tasks")}
}

// Create stores a new task with the caller as creator.
func (s *TaskService) Create(ctx context.Context, in CreateTaskInput) (task *models.Task, err error) {
	defer func() { taskMutationsTotal.WithLabelValues("create", resultLabel(err)).Inc() }()

	user, err := UserFromContext(ctx)
	if err != nil {
		return nil, err
	}

	in.Name = strings.TrimSpace(in.Name)
	if err := validateInput(in); err != nil {
		return nil, err
	}

	t := &models.Task{
		Name:        in.Name,
		Description: in.Description,
		Priority:    in.Priority,
		Status:      in.Status,
		AssigneeID:  in.AssigneeID,
		CreatorID:   user.ID,
	}
	if t.Priority == "" {
		t.Priority = models.PriorityMedium
	}
	if t.Status == "" {
		t.Status = models.StatusTodo
	}
	if in.DueDate != nil {
		d := models.NormalizeDueDate(*in.DueDate)
		t.DueDate = &d
	}

	err = s.store.InTx(ctx, func(ctx context.Context, tx repomanager.Store) error {
		if err := s.checkAssignee(ctx, tx, t.AssigneeID); err != nil {
			return err
		}
		created, err := tx.Tasks().Create(ctx, t)
		if err != nil {
			return err
		}
		task, err = tx.Tasks().GetByID(ctx, created.ID)
		return err
	})
	if err != nil {
		return nil, s.storageErr(ctx, "create", err)
	}

	s.invalidate(ctx)
	s.log.Info(ctx, "task created", "task_id", task.ID, "creator_id", user.ID)
	return task, nil
}

// Get returns one task.
func (s *TaskService) Get(ctx context.Context, id int64) (*models.Task, error) {
	if _, err := UserFromContext(ctx); err != nil {
		return nil, err
	}
	task, err := s.store.Tasks().GetByID(ctx, id)
	if err != nil {
		return nil, s.storageErr(ctx, "get", err)
	}
	return task, nil
}

// List returns a snapshot of tasks matching filter, newest first.
func (s *TaskService) List(ctx context.Context, filter models.TaskFilter) ([]*models.Task, error) {
	if _, err := UserFromContext(ctx); err != nil {
		return nil, err
	}
	if filter.Status != "" && !filter.Status.IsValid() {
		return nil, common.NewValidationError("status", "unknown status")
	}
	if filter.Priority != "" && !filter.Priority.IsValid() {
		return nil, common.NewValidationError("priority", "unknown priority")
	}
	tasks, err := s.store.Tasks().List(ctx, filter)
	if err != nil {
		return nil, s.storageErr(ctx, "list", err)
	}
	return tasks, nil
}

// Update applies the provided fields of in to task id.
func (s *TaskService) Update(ctx context.Context, id int64, in UpdateTaskInput) (task *models.Task, err error) {
	defer func() { taskMutationsTotal.WithLabelValues("update", resultLabel(err)).Inc() }()

	if _, err := UserFromContext(ctx); err != nil {
		return nil, err
	}

	if in.Name != nil {
		trimmed := strings.TrimSpace(*in.Name)
		in.Name = &trimmed
	}
	if err := validateInput(in); err != nil {
		return nil, err
	}
	if in.AssigneeID.Set && in.AssigneeID.Value != nil && *in.AssigneeID.Value <= 0 {
		return nil, common.NewValidationError("assigneeId", "must be greater than 0")
	}

	err = s.store.InTx(ctx, func(ctx context.Context, tx repomanager.Store) error {
		current, err := tx.Tasks().GetByID(ctx, id)
		if err != nil {
			return err
		}
		applyPatch(current, in)
		if err := s.checkAssignee(ctx, tx, current.AssigneeID); err != nil {
			return err
		}
		if err := tx.Tasks().Update(ctx, current); err != nil {
			return err
		}
		task, err = tx.Tasks().GetByID(ctx, id)
		return err
	})
	if err != nil {
		return nil, s.storageErr(ctx, "update", err)
	}

	s.invalidate(ctx)
	s.log.Info(ctx, "task updated", "task_id", id)
	return task, nil
}

// UpdateStatus moves task id to status. Any valid status may follow any
// other; nothing but the status changes.
func (s *TaskService) UpdateStatus(ctx context.Context, id int64, status models.Status) (task *models.Task, err error) {
	defer func() { taskMutationsTotal.WithLabelValues("update_status", resultLabel(err)).Inc() }()

	if _, err := UserFromContext(ctx); err != nil {
		return nil, err
	}
	if !status.IsValid() {
		return nil, common.NewValidationError("status", "must be one of: todo, in_progress, review, done")
	}

	err = s.store.InTx(ctx, func(ctx context.Context, tx repomanager.Store) error {
		if err := tx.Tasks().UpdateStatus(ctx, id, status); err != nil {
			return err
		}
		task, err = tx.Tasks().GetByID(ctx, id)
		return err
	})
	if err != nil {
		return nil, s.storageErr(ctx, "update_status", err)
	}

	s.invalidate(ctx)
	s.log.Info(ctx, "task status changed", "task_id", id, "status", status)
	return task, nil
}

// Delete removes task id for good.
func (s *TaskService) Delete(ctx context.Context, id int64) (err error) {
	defer func() { taskMutationsTotal.WithLabelValues("delete", resultLabel(err)).Inc() }()

	if _, err := UserFromContext(ctx); err != nil {
		return err
	}
	err = s.store.InTx(ctx, func(ctx context.Context, tx repomanager.Store) error {
		return tx.Tasks().Delete(ctx, id)
	})
	if err != nil {
		return s.storageErr(ctx, "delete", err)
	}
	s.invalidate(ctx)
	s.log.Info(ctx, "task deleted", "task_id", id)
	return nil
}

// ListUsers returns everyone as id + name, for assignee pickers.
func (s *TaskService) ListUsers(ctx context.Context) ([]models.PublicUser, error) {
	if _, err := UserFromContext(ctx); err != nil {
		return nil, err
	}
	users, err := s.store.Users().ListPublic(ctx)
	if err != nil {
		return nil, s.storageErr(ctx, "list_users", err)
	}
	return users, nil
}

// Board groups the current snapshot into the four status columns.
func (s *TaskService) Board(ctx context.Context) (views.Board, error) {
	if _, err := UserFromContext(ctx); err != nil {
		return views.Board{}, err
	}

	var board views.Board
	gen, ok := s.cached(ctx, boardCacheKey, &board)
	if ok {
		return board, nil
	}

	tasks, err := s.store.Tasks().List(ctx, models.TaskFilter{})
	if err != nil {
		return views.Board{}, s.storageErr(ctx, "board", err)
	}
	board = views.BuildBoard(tasks)
	if board.Dropped > 0 {
		s.log.Warn(ctx, "tasks with unknown status left off the board", "count", board.Dropped)
	}
	s.remember(ctx, boardCacheKey, gen, board)
	return board, nil
}

// Dashboard computes all four aggregates from one snapshot.
func (s *TaskService) Dashboard(ctx context.Context) (views.Dashboard, error) {
	if _, err := UserFromContext(ctx); err != nil {
		return views.Dashboard{}, err
	}

	var dash views.Dashboard
	gen, ok := s.cached(ctx, dashboardCacheKey, &dash)
	if ok {
		return dash, nil
	}

	tasks, err := s.store.Tasks().List(ctx, models.TaskFilter{})
	if err != nil {
		return views.Dashboard{}, s.storageErr(ctx, "dashboard", err)
	}
	dash = views.BuildDashboard(tasks)
	s.remember(ctx, dashboardCacheKey, gen, dash)
	return dash, nil
}

func (s *TaskService) CountByStatus(ctx context.Context) (views.Series, error) {
	return s.aggregate(ctx, "count_by_status", views.CountByStatus)
}

func (s *TaskService) CountByPriority(ctx context.Context) (views.Series, error) {
	return s.aggregate(ctx, "count_by_priority", views.CountByPriority)
}

func (s *TaskService) CountByAssignee(ctx context.Context) (views.Series, error) {
	return s.aggregate(ctx, "count_by_assignee", views.CountByAssignee)
}

func (s *TaskService) CountByCreationMonth(ctx context.Context) (views.Series, error) {
	return s.aggregate(ctx, "count_by_month", views.CountByCreationMonth)
}

func (s *TaskService) aggregate(ctx context.Context, op string, fold func([]*models.Task) views.Series) (views.Series, error) {
	if _, err := UserFromContext(ctx); err != nil {
		return views.Series{}, err
	}
	tasks, err := s.store.Tasks().List(ctx, models.TaskFilter{})
	if err != nil {
		return views.Series{}, s.storageErr(ctx, op, err)
	}
	return fold(tasks), nil
}

func (s *TaskService) checkAssignee(ctx context.Context, tx repomanager.Store, id *int64) error {
	if id == nil {
		return nil
	}
	if _, err := tx.Users().GetByID(ctx, *id); err != nil {
		if errors.Is(err, common.ErrNotFound) {
			return common.NewValidationError("assigneeId", "unknown user")
		}
		return err
	}
	return nil
}

// cached must run before the snapshot is read; the generation it returns
// goes to remember.
func (s *TaskService) cached(ctx context.Context, key string, dst any) (int64, bool) {
	gen, ok, err := s.cache.Get(ctx, key, dst)
	if err != nil {
		s.log.Warn(ctx, "view cache read failed", "key", key, "error", err)
		return -1, false
	}
	return gen, ok
}

func (s *TaskService) remember(ctx context.Context, key string, gen int64, v any) {
	if gen < 0 {
		return
	}
	if err := s.cache.Set(ctx, key, gen, v); err != nil {
		s.log.Warn(ctx, "view cache write failed", "key", key, "error", err)
	}
}

func (s *TaskService) invalidate(ctx context.Context) {
	if err := s.cache.Invalidate(ctx); err != nil {
		s.log.Warn(ctx, "view cache invalidation failed", "error", err)
	}
}

// storageErr passes taxonomy errors through and hides everything else
// behind common.ErrStorage.
func (s *TaskService) storageErr(ctx context.Context, op string, err error) error {
	switch {
	case errors.Is(err, common.ErrNotFound),
		errors.Is(err, common.ErrValidation),
		errors.Is(err, common.ErrConflict),
		errors.Is(err, common.ErrNotAuthenticated):
		return err
	}
	s.log.Error(ctx, "storage failure", "op", op, "error", err)
	return common.ErrStorage
}

func applyPatch(t *models.Task, in UpdateTaskInput) {
	if in.Name != nil {
		t.Name = *in.Name
	}
	if in.Description != nil {
		t.Description = *in.Description
	}
	if in.Priority != nil {
		t.Priority = *in.Priority
	}
	if in.Status != nil {
		t.Status = *in.Status
	}
	if in.DueDate.Set {
		t.DueDate = nil
		if in.DueDate.Value != nil {
			d := models.NormalizeDueDate(*in.DueDate.Value)
			t.DueDate = &d
		}
	}
	if in.AssigneeID.Set {
		t.AssigneeID = nil
		if in.AssigneeID.Value != nil {
			id := *in.AssigneeID.Value
			t.AssigneeID = &id
		}
	}
}
