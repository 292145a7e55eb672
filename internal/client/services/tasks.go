package services

import (
	"context"
	"errors"
	"net/url"
	"sync"

	"github.com/dmitrijs2005/taskboard/internal/client/client"
	"github.com/dmitrijs2005/taskboard/internal/client/mirror"
	"github.com/dmitrijs2005/taskboard/internal/client/repositories/tasks"
	"github.com/dmitrijs2005/taskboard/internal/common"
	"github.com/dmitrijs2005/taskboard/internal/logging"
	"github.com/dmitrijs2005/taskboard/internal/server/models"
	"github.com/dmitrijs2005/taskboard/internal/views"
)

// Failure describes a background server call that did not go through.
// The local mirror keeps the optimistic state until the next Refresh.
type Failure struct {
	Op     string
	TaskID int64
	Err    error
}

// TaskService serves task commands from the local mirror.
//
// Delete, Toggle and Move change the mirror first and send the server call
// in the background; the command returns before the server answers. Create
// and Edit wait for the server because the result carries server-assigned
// fields. Refresh replaces the mirror with the server's list.
type TaskService struct {
	client    client.Client
	mirror    tasks.Repository
	log       logging.Logger
	onFailure func(Failure)

	mu      sync.Mutex
	pending sync.WaitGroup
}

// NewTaskService builds a TaskService. onFailure, when set, is called from
// a background goroutine for every failed dispatch.
func NewTaskService(c client.Client, repo tasks.Repository, log logging.Logger, onFailure func(Failure)) *TaskService {
	return &TaskService{
		client:    c,
		mirror:    repo,
		log:       log.With("component", "tasks"),
		onFailure: onFailure,
	}
}

// Refresh waits for in-flight dispatches, then swaps the mirror for the
// server's current task list.
func (s *TaskService) Refresh(ctx context.Context) ([]*models.Task, error) {
	s.Wait()

	fresh, err := s.client.ListTasks(ctx, models.TaskFilter{})
	if err != nil {
		return nil, err
	}

	var next []*models.Task
	err = s.apply(ctx, func(cur []*models.Task) []*models.Task {
		next = mirror.Replace(cur, fresh)
		return next
	})
	return next, err
}

func (s *TaskService) List(ctx context.Context, filter models.TaskFilter) ([]*models.Task, error) {
	all, err := s.mirror.GetAll(ctx)
	if err != nil {
		return nil, err
	}

	out := make([]*models.Task, 0, len(all))
	for _, t := range all {
		if filter.Match(t) {
			out = append(out, t)
		}
	}
	return out, nil
}

func (s *TaskService) Get(ctx context.Context, id int64) (*models.Task, error) {
	return s.mirror.GetByID(ctx, id)
}

// Board groups the mirrored tasks into the four columns.
func (s *TaskService) Board(ctx context.Context) (views.Board, error) {
	all, err := s.mirror.GetAll(ctx)
	if err != nil {
		return views.Board{}, err
	}
	return views.BuildBoard(all), nil
}

// Dashboard asks the server for the aggregates. When the server is out of
// reach the aggregates are folded from the mirror and offline is true.
func (s *TaskService) Dashboard(ctx context.Context) (dash views.Dashboard, offline bool, err error) {
	dash, err = s.client.Dashboard(ctx)
	if err == nil || !errors.Is(err, client.ErrUnavailable) {
		return dash, false, err
	}

	s.log.Warn(ctx, "dashboard from local mirror", "error", err)
	all, lerr := s.mirror.GetAll(ctx)
	if lerr != nil {
		return views.Dashboard{}, false, lerr
	}
	return views.BuildDashboard(all), true, nil
}

func (s *TaskService) Users(ctx context.Context) ([]models.PublicUser, error) {
	return s.client.ListUsers(ctx)
}

// Create sends the task to the server and puts the result at the top of the
// mirror, where the server's newest-first order would place it.
func (s *TaskService) Create(ctx context.Context, fields url.Values) (*models.Task, error) {
	task, err := s.client.CreateTask(ctx, fields)
	if err != nil {
		return nil, err
	}

	err = s.apply(ctx, func(cur []*models.Task) []*models.Task {
		return append([]*models.Task{task}, mirror.Delete(cur, task.ID)...)
	})
	return task, err
}

// Edit changes the fields present in the bag and mirrors the server's answer.
func (s *TaskService) Edit(ctx context.Context, id int64, fields url.Values) (*models.Task, error) {
	task, err := s.client.UpdateTask(ctx, id, fields)
	if err != nil {
		return nil, err
	}

	err = s.apply(ctx, func(cur []*models.Task) []*models.Task {
		out := make([]*models.Task, len(cur))
		for i, t := range cur {
			if t.ID == id {
				t = task
			}
			out[i] = t
		}
		return out
	})
	return task, err
}

// Delete drops the task from the mirror and removes it on the server in the
// background.
func (s *TaskService) Delete(ctx context.Context, id int64) error {
	if err := s.apply(ctx, func(cur []*models.Task) []*models.Task { return mirror.Delete(cur, id) }); err != nil {
		return err
	}

	s.dispatch(ctx, "delete", id, func(ctx context.Context) error {
		return s.client.DeleteTask(ctx, id)
	})
	return nil
}

// Toggle flips a mirrored task between done and todo and returns the new
// status. The id must be present in the mirror.
func (s *TaskService) Toggle(ctx context.Context, id int64) (models.Status, error) {
	cur, err := s.mirror.GetByID(ctx, id)
	if err != nil {
		return "", err
	}
	next := mirror.Toggled(cur.Status)

	if err := s.apply(ctx, func(cur []*models.Task) []*models.Task { return mirror.ToggleStatus(cur, id) }); err != nil {
		return "", err
	}

	s.dispatch(ctx, "toggle", id, func(ctx context.Context) error {
		_, err := s.client.UpdateTaskStatus(ctx, id, next)
		return err
	})
	return next, nil
}

// Move puts the task into another column of the mirror and sends the status
// change in the background.
func (s *TaskService) Move(ctx context.Context, id int64, status models.Status) error {
	if !status.IsValid() {
		return common.NewValidationError("status", "must be one of todo, in_progress, review, done")
	}

	if err := s.apply(ctx, func(cur []*models.Task) []*models.Task { return mirror.Move(cur, id, status) }); err != nil {
		return err
	}

	s.dispatch(ctx, "move", id, func(ctx context.Context) error {
		_, err := s.client.UpdateTaskStatus(ctx, id, status)
		return err
	})
	return nil
}

// Wait blocks until every dispatched server call has finished.
func (s *TaskService) Wait() {
	s.pending.Wait()
}

func (s *TaskService) apply(ctx context.Context, fn func([]*models.Task) []*models.Task) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	cur, err := s.mirror.GetAll(ctx)
	if err != nil {
		return err
	}
	return s.mirror.ReplaceAll(ctx, fn(cur))
}

// dispatch runs call in the background. Once started the call is not
// cancelled with ctx.
func (s *TaskService) dispatch(ctx context.Context, op string, id int64, call func(context.Context) error) {
	ctx = context.WithoutCancel(ctx)

	s.pending.Add(1)
	go func() {
		defer s.pending.Done()

		if err := call(ctx); err != nil {
			s.log.Warn(ctx, "background update failed", "op", op, "task_id", id, "error", err)
			if s.onFailure != nil {
				s.onFailure(Failure{Op: op, TaskID: id, Err: err})
			}
		}
	}()
}
