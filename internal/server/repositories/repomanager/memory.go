package repomanager

import (
	"context"
	"sync"

	"github.com/dmitrijs2005/taskboard/internal/server/repositories/sessions"
	"github.com/dmitrijs2005/taskboard/internal/server/repositories/tasks"
	"github.com/dmitrijs2005/taskboard/internal/server/repositories/users"
)

// MemoryStore keeps everything in process memory. It backs the server when
// no DSN is configured, and the service tests.
//
// InTx serialises transactions against each other but does not roll back:
// a failing fn leaves its earlier writes in place.
type MemoryStore struct {
	txMu     *sync.Mutex
	users    *users.MemoryRepository
	sessions *sessions.MemoryRepository
	tasks    *tasks.MemoryRepository
	inTx     bool
}

func NewMemoryStore() *MemoryStore {
	u := users.NewMemoryRepository()
	return &MemoryStore{
		txMu:     &sync.Mutex{},
		users:    u,
		sessions: sessions.NewMemoryRepository(),
		tasks:    tasks.NewMemoryRepository(u.Lookup),
	}
}

func (s *MemoryStore) Users() users.Repository       { return s.users }
func (s *MemoryStore) Sessions() sessions.Repository { return s.sessions }
func (s *MemoryStore) Tasks() tasks.Repository       { return s.tasks }

func (s *MemoryStore) InTx(ctx context.Context, fn func(ctx context.Context, tx Store) error) error {
	if s.inTx {
		return fn(ctx, s)
	}
	s.txMu.Lock()
	defer s.txMu.Unlock()

	tx := *s
	tx.inTx = true
	return fn(ctx, &tx)
}

func (s *MemoryStore) Ping(context.Context) error { return nil }

func (s *MemoryStore) Close() error { return nil }
