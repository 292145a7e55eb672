package services

import (
	"context"
	"net/url"
	"sync"
	"testing"
	"time"

	"github.com/dmitrijs2005/taskboard/internal/client/client"
	"github.com/dmitrijs2005/taskboard/internal/common"
	"github.com/dmitrijs2005/taskboard/internal/server/models"
	"github.com/dmitrijs2005/taskboard/internal/views"
	"github.com/stretchr/testify/require"
)

func openRepos(t *testing.T) *client.Repositories {
	t.Helper()
	repos, err := client.InitDatabase(context.Background(), ":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = repos.Close() })
	return repos
}

type statusCall struct {
	ID     int64
	Status models.Status
}

// fakeClient is an in-process stand-in for the server.
type fakeClient struct {
	mu sync.Mutex

	cookie  string
	user    *models.User
	tasks   []*models.Task
	nextID  int64
	deleted []int64
	moves   []statusCall

	loginErr   error
	logoutErr  error
	currentErr error
	listErr    error
	mutateErr  error
	dashErr    error

	// release, when set, holds background mutations until closed
	release chan struct{}
}

func (f *fakeClient) hold() {
	f.mu.Lock()
	ch := f.release
	f.mu.Unlock()
	if ch != nil {
		<-ch
	}
}

func (f *fakeClient) Signup(_ context.Context, email, _, name string) (*models.PublicUser, error) {
	return &models.PublicUser{ID: 1, Name: name}, nil
}

func (f *fakeClient) Login(_ context.Context, email, password string) (*models.User, error) {
	if f.loginErr != nil {
		return nil, f.loginErr
	}
	if password != "secret" {
		return nil, common.ErrAuth
	}
	f.cookie = "signed-cookie"
	f.user = &models.User{ID: 1, Email: email, Name: "Ann"}
	return f.user, nil
}

func (f *fakeClient) Logout(context.Context) error {
	f.cookie = ""
	return f.logoutErr
}

func (f *fakeClient) CurrentUser(context.Context) (*models.User, error) {
	if f.currentErr != nil {
		return nil, f.currentErr
	}
	if f.cookie == "" {
		return nil, nil
	}
	return f.user, nil
}

func (f *fakeClient) ListTasks(context.Context, models.TaskFilter) ([]*models.Task, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.listErr != nil {
		return nil, f.listErr
	}
	out := make([]*models.Task, 0, len(f.tasks))
	for _, t := range f.tasks {
		c := *t
		out = append(out, &c)
	}
	return out, nil
}

func (f *fakeClient) GetTask(_ context.Context, id int64) (*models.Task, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, t := range f.tasks {
		if t.ID == id {
			c := *t
			return &c, nil
		}
	}
	return nil, common.ErrNotFound
}

func (f *fakeClient) CreateTask(_ context.Context, fields url.Values) (*models.Task, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.mutateErr != nil {
		return nil, f.mutateErr
	}
	if fields.Get("name") == "" {
		return nil, common.NewValidationError("name", "is required")
	}
	f.nextID++
	t := &models.Task{
		ID: f.nextID, Name: fields.Get("name"), Status: models.StatusTodo, Priority: models.PriorityMedium,
		CreatorID: 1, Creator: models.PublicUser{ID: 1, Name: "Ann"}, CreatedAt: time.Now(),
	}
	f.tasks = append([]*models.Task{t}, f.tasks...)
	c := *t
	return &c, nil
}

func (f *fakeClient) UpdateTask(_ context.Context, id int64, fields url.Values) (*models.Task, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.mutateErr != nil {
		return nil, f.mutateErr
	}
	for _, t := range f.tasks {
		if t.ID == id {
			if fields.Has("name") {
				t.Name = fields.Get("name")
			}
			c := *t
			return &c, nil
		}
	}
	return nil, common.ErrNotFound
}

func (f *fakeClient) UpdateTaskStatus(_ context.Context, id int64, status models.Status) (*models.Task, error) {
	f.hold()
	f.mu.Lock()
	defer f.mu.Unlock()
	f.moves = append(f.moves, statusCall{ID: id, Status: status})
	if f.mutateErr != nil {
		return nil, f.mutateErr
	}
	for _, t := range f.tasks {
		if t.ID == id {
			t.Status = status
			c := *t
			return &c, nil
		}
	}
	return nil, common.ErrNotFound
}

func (f *fakeClient) DeleteTask(_ context.Context, id int64) error {
	f.hold()
	f.mu.Lock()
	defer f.mu.Unlock()
	f.deleted = append(f.deleted, id)
	if f.mutateErr != nil {
		return f.mutateErr
	}
	for i, t := range f.tasks {
		if t.ID == id {
			f.tasks = append(f.tasks[:i], f.tasks[i+1:]...)
			return nil
		}
	}
	return common.ErrNotFound
}

func (f *fakeClient) ListUsers(context.Context) ([]models.PublicUser, error) {
	return []models.PublicUser{{ID: 1, Name: "Ann"}}, nil
}

func (f *fakeClient) Board(context.Context) (views.Board, error) {
	return views.BuildBoard(f.tasks), nil
}

func (f *fakeClient) Dashboard(context.Context) (views.Dashboard, error) {
	if f.dashErr != nil {
		return views.Dashboard{}, f.dashErr
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	return views.BuildDashboard(f.tasks), nil
}

func (f *fakeClient) Ping(context.Context) error { return nil }

func (f *fakeClient) SessionCookie() string { return f.cookie }

func (f *fakeClient) SetSessionCookie(v string) { f.cookie = v }

var _ client.Client = (*fakeClient)(nil)

func seeded() *fakeClient {
	f := &fakeClient{nextID: 3, user: &models.User{ID: 1, Name: "Ann", Email: "ann@example.com"}}
	f.tasks = []*models.Task{
		{ID: 3, Name: "third", Status: models.StatusReview, Priority: models.PriorityHigh},
		{ID: 2, Name: "second", Status: models.StatusDone, Priority: models.PriorityLow},
		{ID: 1, Name: "first", Status: models.StatusTodo, Priority: models.PriorityMedium},
	}
	return f
}
