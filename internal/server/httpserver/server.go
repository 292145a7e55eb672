// Package httpserver exposes the auth and task services over HTTP.
// Every mutating endpoint accepts a flat field bag (form or JSON object)
// and answers with the uniform {error, success, message} envelope.
package httpserver

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/dmitrijs2005/taskboard/internal/common"
	"github.com/dmitrijs2005/taskboard/internal/logging"
	"github.com/dmitrijs2005/taskboard/internal/server/models"
	"github.com/dmitrijs2005/taskboard/internal/server/services"
	"github.com/dmitrijs2005/taskboard/internal/views"
	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/gorilla/sessions"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// AuthService is the part of services.AuthService the transport needs.
type AuthService interface {
	Signup(ctx context.Context, in services.SignupInput) (*models.User, error)
	Login(ctx context.Context, in services.LoginInput) (string, *models.User, error)
	CurrentUser(ctx context.Context, token string) *models.User
	Logout(ctx context.Context, token string) error
}

// TaskService is the part of services.TaskService the transport needs.
type TaskService interface {
	Create(ctx context.Context, in services.CreateTaskInput) (*models.Task, error)
	Get(ctx context.Context, id int64) (*models.Task, error)
	List(ctx context.Context, filter models.TaskFilter) ([]*models.Task, error)
	Update(ctx context.Context, id int64, in services.UpdateTaskInput) (*models.Task, error)
	UpdateStatus(ctx context.Context, id int64, status models.Status) (*models.Task, error)
	Delete(ctx context.Context, id int64) error
	ListUsers(ctx context.Context) ([]models.PublicUser, error)
	Board(ctx context.Context) (views.Board, error)
	Dashboard(ctx context.Context) (views.Dashboard, error)
	CountByStatus(ctx context.Context) (views.Series, error)
	CountByPriority(ctx context.Context) (views.Series, error)
	CountByAssignee(ctx context.Context) (views.Series, error)
	CountByCreationMonth(ctx context.Context) (views.Series, error)
}

// Options carries the transport settings that come from config.
type Options struct {
	SessionSecret  string
	CookieSecure   bool
	SessionTTL     time.Duration
	AllowedOrigins string
	// LoginLimiter throttles POST /api/auth/login. Nil disables throttling.
	LoginLimiter Limiter
	// TrustProxy lets X-Forwarded-For, X-Real-IP and True-Client-IP replace
	// the socket address. Off, clients cannot pick their own rate limit key.
	TrustProxy bool
	// Health reports storage readiness for /healthz. Nil means always healthy.
	Health func(ctx context.Context) error
}

type Server struct {
	address  string
	auth     AuthService
	tasks    TaskService
	logger   logging.Logger
	sessions sessions.Store
	opts     Options
}

func NewServer(addr string, l logging.Logger, as AuthService, ts TaskService, opts Options) *Server {
	return &Server{
		address:  addr,
		logger:   l.With("module", "http_server"),
		auth:     as,
		tasks:    ts,
		sessions: newSessionStore(opts),
		opts:     opts,
	}
}

// Routes builds the router with the full middleware chain.
func (s *Server) Routes() http.Handler {
	r := chi.NewRouter()

	r.Use(chimiddleware.RequestID)
	if s.opts.TrustProxy {
		r.Use(chimiddleware.RealIP)
	}
	r.Use(requestLogging(s.logger))
	r.Use(chimiddleware.Recoverer)
	r.Use(corsHandler(s.opts.AllowedOrigins))
	r.Use(metrics)
	r.Use(chimiddleware.Timeout(30 * time.Second))

	r.Get("/healthz", s.handleHealth)
	r.Handle("/metrics", promhttp.Handler())

	r.Route("/api", func(r chi.Router) {
		r.Use(s.authenticate)

		r.Route("/auth", func(r chi.Router) {
			r.Post("/signup", s.handleSignup)
			r.With(rateLimit(s.opts.LoginLimiter, s.logger)).Post("/login", s.handleLogin)
			r.Post("/logout", s.handleLogout)
			r.Get("/me", s.handleMe)
		})

		r.Group(func(r chi.Router) {
			r.Use(requireUser)

			r.Get("/tasks", s.handleListTasks)
			r.Post("/tasks", s.handleCreateTask)
			r.Get("/tasks/{id}", s.handleGetTask)
			r.Put("/tasks/{id}", s.handleUpdateTask)
			r.Patch("/tasks/{id}/status", s.handleUpdateStatus)
			r.Delete("/tasks/{id}", s.handleDeleteTask)

			r.Get("/users", s.handleListUsers)
			r.Get("/board", s.handleBoard)
			r.Get("/dashboard", s.handleDashboard)
			r.Get("/stats/{aggregate}", s.handleStats)
		})
	})

	return r
}

// Run serves until ctx is cancelled, then drains in-flight requests.
func (s *Server) Run(ctx context.Context) error {
	srv := &http.Server{
		Addr:         s.address,
		Handler:      s.Routes(),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 35 * time.Second,
		IdleTimeout:  time.Minute,
	}

	done := make(chan struct{})
	go func() {
		defer close(done)
		<-ctx.Done()
		s.logger.Info(ctx, "Stopping HTTP server...")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			s.logger.Error(ctx, "shutdown", "error", err)
		}
	}()

	s.logger.Info(ctx, "Starting HTTP server", "address", s.address)

	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	<-done
	return nil
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	if s.opts.Health != nil {
		ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
		defer cancel()
		if err := s.opts.Health(ctx); err != nil {
			s.logger.Warn(ctx, "health check failed", "error", err)
			writeJSON(w, http.StatusServiceUnavailable, envelope{"status": "error", "error": common.ErrStorage.Error()})
			return
		}
	}
	writeJSON(w, http.StatusOK, envelope{"status": "ok", "error": nil})
}

func splitOrigins(s string) []string {
	var out []string
	for _, o := range strings.Split(s, ",") {
		if o = strings.TrimSpace(o); o != "" {
			out = append(out, o)
		}
	}
	return out
}
