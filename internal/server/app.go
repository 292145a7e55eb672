// Package server wires the taskboard server together: it opens the storage
// handle once, builds the services on top of it, serves HTTP and releases
// everything on shutdown.
package server

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/dmitrijs2005/taskboard/internal/logging"
	"github.com/dmitrijs2005/taskboard/internal/server/auth"
	"github.com/dmitrijs2005/taskboard/internal/server/config"
	"github.com/dmitrijs2005/taskboard/internal/server/httpserver"
	"github.com/dmitrijs2005/taskboard/internal/server/repositories/repomanager"
	"github.com/dmitrijs2005/taskboard/internal/server/services"
	"github.com/dmitrijs2005/taskboard/internal/server/viewcache"
)

const viewCacheTTL = 5 * time.Minute

type App struct {
	config      *config.Config
	logger      logging.Logger
	store       repomanager.Store
	redis       *viewcache.Redis
	authService *services.AuthService
	taskService *services.TaskService
	limiter     httpserver.Limiter
}

// NewApp opens storage (Postgres when a DSN is configured, memory
// otherwise) and the optional Redis view cache.
func NewApp(ctx context.Context, c *config.Config) (*App, error) {
	return newApp(ctx, c, os.Stdout)
}

func newApp(ctx context.Context, c *config.Config, logOut io.Writer) (*App, error) {
	logger := logging.NewJSON(logOut, c.LogLevel)

	hasher, err := auth.NewHasher(c.PasswordCost)
	if err != nil {
		return nil, fmt.Errorf("password hasher: %w", err)
	}

	var store repomanager.Store
	if c.DatabaseDSN == "" {
		logger.Warn(ctx, "no database DSN configured, using in-memory storage")
		store = repomanager.NewMemoryStore()
	} else {
		pg, err := repomanager.OpenPostgres(ctx, c.DatabaseDSN)
		if err != nil {
			return nil, fmt.Errorf("db init error: %w", err)
		}
		store = pg
	}

	app := &App{config: c, logger: logger, store: store}

	var cache viewcache.Cache = viewcache.NewMemory()
	if c.RedisAddr != "" {
		r, err := viewcache.NewRedis(ctx, c.RedisAddr, viewCacheTTL)
		if err != nil {
			_ = store.Close()
			return nil, err
		}
		app.redis = r
		cache = r
	}

	if c.LoginRateLimit > 0 {
		if app.redis != nil {
			app.limiter = httpserver.NewWindowLimiter(app.redis, c.LoginRateLimit)
		} else {
			app.limiter = httpserver.NewLocalLimiter(c.LoginRateLimit)
		}
	}

	app.authService = services.NewAuthService(store, hasher, logger, c.SessionTTL)
	app.taskService = services.NewTaskService(store, cache, logger)

	return app, nil
}

func (app *App) initSignalHandler(cancelFunc context.CancelFunc) {
	// Channel to catch OS signals.
	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM, syscall.SIGQUIT)

	go func() {
		<-sigs
		cancelFunc()
	}()
}

func (app *App) httpServer() *httpserver.Server {
	return httpserver.NewServer(app.config.HTTPAddr, app.logger, app.authService, app.taskService, httpserver.Options{
		SessionSecret:  app.config.SessionSecret,
		CookieSecure:   app.config.CookieSecure,
		SessionTTL:     app.config.SessionTTL,
		AllowedOrigins: app.config.AllowedOrigins,
		LoginLimiter:   app.limiter,
		TrustProxy:     app.config.TrustProxy,
		Health:         app.health,
	})
}

func (app *App) health(ctx context.Context) error {
	if err := app.store.Ping(ctx); err != nil {
		return err
	}
	if app.redis != nil {
		return app.redis.Ping(ctx)
	}
	return nil
}

func (app *App) startHTTPServer(ctx context.Context, cancelFunc context.CancelFunc) {
	if err := app.httpServer().Run(ctx); err != nil {
		app.logger.Error(ctx, err.Error())
		cancelFunc()
	}
}

// Run serves until ctx is cancelled or a termination signal arrives, then
// closes the storage handle.
func (app *App) Run(ctx context.Context) {
	ctx, cancelFunc := context.WithCancel(ctx)
	defer cancelFunc()

	app.logger.Info(ctx, "Starting app...")

	app.initSignalHandler(cancelFunc)

	var wg sync.WaitGroup

	wg.Add(1)
	go func() {
		defer wg.Done()
		app.startHTTPServer(ctx, cancelFunc)
	}()

	wg.Wait()

	app.close(ctx)
	app.logger.Info(ctx, "App stopped")
}

func (app *App) close(ctx context.Context) {
	if app.redis != nil {
		if err := app.redis.Close(); err != nil {
			app.logger.Warn(ctx, "close redis", "error", err)
		}
	}
	if err := app.store.Close(); err != nil {
		app.logger.Warn(ctx, "close store", "error", err)
	}
}
