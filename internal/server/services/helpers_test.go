package services

import (
	"context"
	"errors"
	"testing"

	"github.com/dmitrijs2005/taskboard/internal/logging"
	"github.com/dmitrijs2005/taskboard/internal/server/auth"
	"github.com/dmitrijs2005/taskboard/internal/server/models"
	"github.com/dmitrijs2005/taskboard/internal/server/repositories/repomanager"
	"github.com/dmitrijs2005/taskboard/internal/server/repositories/tasks"
	"github.com/dmitrijs2005/taskboard/internal/server/repositories/users"
	"github.com/dmitrijs2005/taskboard/internal/server/viewcache"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

var errDBDown = errors.New("connection refused")

func newHasher(t *testing.T) *auth.Hasher {
	t.Helper()
	h, err := auth.NewHasher(bcrypt.MinCost)
	require.NoError(t, err)
	return h
}

type env struct {
	store *repomanager.MemoryStore
	cache *viewcache.Memory
	auth  *AuthService
	tasks *TaskService
}

func newEnv(t *testing.T) *env {
	t.Helper()
	store := repomanager.NewMemoryStore()
	cache := viewcache.NewMemory()
	return &env{
		store: store,
		cache: cache,
		auth:  NewAuthService(store, newHasher(t), logging.Nop{}, 0),
		tasks: NewTaskService(store, cache, logging.Nop{}),
	}
}

// signedIn creates a user and returns a context authenticated as them.
func (e *env) signedIn(t *testing.T, email, name string) (context.Context, *models.User) {
	t.Helper()
	ctx := context.Background()
	u, err := e.auth.Signup(ctx, SignupInput{Email: email, Password: "password1", Name: name})
	require.NoError(t, err)
	return ContextWithUser(ctx, u), u
}

// brokenStore answers every task and user call with errDBDown.
type brokenStore struct {
	*repomanager.MemoryStore
}

func (b brokenStore) Tasks() tasks.Repository { return brokenTasks{} }
func (b brokenStore) Users() users.Repository { return brokenUsers{} }
func (b brokenStore) InTx(ctx context.Context, fn func(ctx context.Context, tx repomanager.Store) error) error {
	return fn(ctx, b)
}

type brokenTasks struct{}

func (brokenTasks) Create(context.Context, *models.Task) (*models.Task, error) { return nil, errDBDown }
func (brokenTasks) GetByID(context.Context, int64) (*models.Task, error)      { return nil, errDBDown }
func (brokenTasks) List(context.Context, models.TaskFilter) ([]*models.Task, error) {
	return nil, errDBDown
}
func (brokenTasks) Update(context.Context, *models.Task) error                     { return errDBDown }
func (brokenTasks) UpdateStatus(context.Context, int64, models.Status) error       { return errDBDown }
func (brokenTasks) Delete(context.Context, int64) error                            { return errDBDown }

type brokenUsers struct{}

func (brokenUsers) Create(context.Context, *models.User) (*models.User, error)  { return nil, errDBDown }
func (brokenUsers) GetByEmail(context.Context, string) (*models.User, error)    { return nil, errDBDown }
func (brokenUsers) GetByID(context.Context, int64) (*models.User, error)        { return nil, errDBDown }
func (brokenUsers) ListPublic(context.Context) ([]models.PublicUser, error)     { return nil, errDBDown }

// hookStore runs its hooks right after a task List or UpdateStatus
// returns, inside whatever transaction the caller opened.
type hookStore struct {
	*repomanager.MemoryStore
	afterList         func()
	afterUpdateStatus func()
}

func (s hookStore) Tasks() tasks.Repository {
	return hookTasks{Repository: s.MemoryStore.Tasks(), store: s}
}

func (s hookStore) InTx(ctx context.Context, fn func(ctx context.Context, tx repomanager.Store) error) error {
	return s.MemoryStore.InTx(ctx, func(ctx context.Context, tx repomanager.Store) error {
		inner := s
		inner.MemoryStore = tx.(*repomanager.MemoryStore)
		return fn(ctx, inner)
	})
}

type hookTasks struct {
	tasks.Repository
	store hookStore
}

func (r hookTasks) List(ctx context.Context, filter models.TaskFilter) ([]*models.Task, error) {
	out, err := r.Repository.List(ctx, filter)
	if r.store.afterList != nil {
		r.store.afterList()
	}
	return out, err
}

func (r hookTasks) UpdateStatus(ctx context.Context, id int64, status models.Status) error {
	err := r.Repository.UpdateStatus(ctx, id, status)
	if r.store.afterUpdateStatus != nil {
		r.store.afterUpdateStatus()
	}
	return err
}
