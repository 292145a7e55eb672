package client

import (
	"context"
	"net/url"

	"github.com/dmitrijs2005/taskboard/internal/server/models"
	"github.com/dmitrijs2005/taskboard/internal/views"
)

// Client is the taskboard API as the CLI sees it. Task fields are passed as a
// flat bag, the same shape the server's forms accept; only the keys present
// in an update bag are changed.
type Client interface {
	Signup(ctx context.Context, email, password, name string) (*models.PublicUser, error)
	Login(ctx context.Context, email, password string) (*models.User, error)
	Logout(ctx context.Context) error
	// CurrentUser returns (nil, nil) when the session is missing or expired.
	CurrentUser(ctx context.Context) (*models.User, error)

	ListTasks(ctx context.Context, filter models.TaskFilter) ([]*models.Task, error)
	GetTask(ctx context.Context, id int64) (*models.Task, error)
	CreateTask(ctx context.Context, fields url.Values) (*models.Task, error)
	UpdateTask(ctx context.Context, id int64, fields url.Values) (*models.Task, error)
	UpdateTaskStatus(ctx context.Context, id int64, status models.Status) (*models.Task, error)
	DeleteTask(ctx context.Context, id int64) error
	ListUsers(ctx context.Context) ([]models.PublicUser, error)
	Board(ctx context.Context) (views.Board, error)
	Dashboard(ctx context.Context) (views.Dashboard, error)

	Ping(ctx context.Context) error

	// SessionCookie exposes the signed session cookie so it can be saved
	// between runs; SetSessionCookie puts a saved one back.
	SessionCookie() string
	SetSessionCookie(value string)
}
