package cli

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"net/url"
	"os"

	"github.com/dmitrijs2005/taskboard/internal/client/client"
	"github.com/dmitrijs2005/taskboard/internal/client/config"
	"github.com/dmitrijs2005/taskboard/internal/client/services"
	"github.com/dmitrijs2005/taskboard/internal/logging"
	"github.com/dmitrijs2005/taskboard/internal/server/models"
	"github.com/dmitrijs2005/taskboard/internal/views"
)

type Mode string

const (
	ModeOffline Mode = "offline"
	ModeOnline  Mode = "online"
)

// taskService is the part of services.TaskService the commands use.
type taskService interface {
	Refresh(ctx context.Context) ([]*models.Task, error)
	List(ctx context.Context, filter models.TaskFilter) ([]*models.Task, error)
	Get(ctx context.Context, id int64) (*models.Task, error)
	Board(ctx context.Context) (views.Board, error)
	Dashboard(ctx context.Context) (views.Dashboard, bool, error)
	Users(ctx context.Context) ([]models.PublicUser, error)
	Create(ctx context.Context, fields url.Values) (*models.Task, error)
	Edit(ctx context.Context, id int64, fields url.Values) (*models.Task, error)
	Delete(ctx context.Context, id int64) error
	Toggle(ctx context.Context, id int64) (models.Status, error)
	Move(ctx context.Context, id int64, status models.Status) error
	Wait()
}

type App struct {
	config      *config.Config
	repos       *client.Repositories
	authService services.AuthService
	taskService taskService
	user        *models.User
	Mode        Mode
	reader      *bufio.Reader
	out         io.Writer
	failures    chan services.Failure
}

// NewApp opens the local mirror and wires the services against the server.
func NewApp(ctx context.Context, c *config.Config) (*App, error) {
	return newApp(ctx, c, os.Stdin, os.Stdout, logging.NewJSON(os.Stderr, "error"))
}

func newApp(ctx context.Context, c *config.Config, in io.Reader, out io.Writer, log logging.Logger) (*App, error) {
	repos, err := client.InitDatabase(ctx, c.DatabasePath)
	if err != nil {
		return nil, fmt.Errorf("error initializing local database: %w", err)
	}

	api, err := client.NewHTTPClient(c.ServerURL, c.RequestTimeout)
	if err != nil {
		_ = repos.Close()
		return nil, err
	}

	app := &App{
		config:   c,
		repos:    repos,
		reader:   bufio.NewReader(in),
		out:      out,
		failures: make(chan services.Failure, 64),
	}
	app.authService = services.NewAuthService(api, repos.Metadata, repos.Tasks, log)
	app.taskService = services.NewTaskService(api, repos.Tasks, log, app.reportFailure)
	return app, nil
}

// reportFailure runs on a dispatch goroutine; the REPL prints queued
// failures before the next prompt.
func (a *App) reportFailure(f services.Failure) {
	select {
	case a.failures <- f:
	default:
	}
}

func (a *App) drainFailures() {
	for {
		select {
		case f := <-a.failures:
			a.track(f.Err)
			a.printf("Server rejected %s of task #%d: %s. Run 'refresh' to resync.\n", f.Op, f.TaskID, describe(f.Err))
		default:
			return
		}
	}
}

func (a *App) setMode(mode Mode) {
	if a.Mode != mode {
		a.Mode = mode
		a.printf("Switched to %s mode\n", mode)
	}
}

// track flips the mode according to the outcome of a server call.
func (a *App) track(err error) {
	switch {
	case err == nil:
		a.setMode(ModeOnline)
	case errors.Is(err, client.ErrUnavailable):
		a.setMode(ModeOffline)
	}
}

func (a *App) isLoggedIn() bool {
	return a.user != nil
}

func (a *App) status() string {
	s := string(a.Mode)
	if a.user != nil {
		s = a.user.Name + " " + s
	}
	if s == "" {
		return ""
	}
	return "(" + s + ")"
}

func (a *App) printf(format string, args ...any) {
	fmt.Fprintf(a.out, format, args...)
}

// Run resumes a saved session, then serves the REPL until exit. In-flight
// background updates are awaited before the local database is closed.
func (a *App) Run(ctx context.Context) {
	defer func() {
		a.taskService.Wait()
		a.drainFailures()
		_ = a.repos.Close()
	}()

	a.printf("Welcome to taskboard CLI (type 'help' for commands)\n")
	a.resume(ctx)

	runREPL(ctx, a, a.status, a.reader)
}

func (a *App) resume(ctx context.Context) {
	u, err := a.authService.Restore(ctx)
	if u == nil {
		if err != nil {
			a.track(err)
			a.printf("Could not resume session: %s\n", describe(err))
			return
		}
		a.track(a.authService.Ping(ctx))
		return
	}
	a.track(err)

	a.user = u
	if err != nil {
		a.printf("Welcome back, %s. Server unreachable, showing local data.\n", u.Name)
		return
	}

	a.printf("Welcome back, %s.\n", u.Name)
	if _, err := a.taskService.Refresh(ctx); err != nil {
		a.track(err)
		a.printf("Refresh failed: %s\n", describe(err))
	}
}
