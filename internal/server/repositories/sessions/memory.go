package sessions

import (
	"context"
	"sync"
	"time"

	"github.com/dmitrijs2005/taskboard/internal/common"
	"github.com/dmitrijs2005/taskboard/internal/server/models"
)

// MemoryRepository keeps sessions keyed by token.
type MemoryRepository struct {
	mu      sync.RWMutex
	nextID  int64
	byToken map[string]models.Session
}

func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{byToken: make(map[string]models.Session)}
}

func (r *MemoryRepository) Create(_ context.Context, session *models.Session) (*models.Session, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.byToken[session.Token]; ok {
		return nil, common.ErrConflict
	}
	r.nextID++
	session.ID = r.nextID
	session.CreatedAt = time.Now()
	r.byToken[session.Token] = *session
	return session, nil
}

func (r *MemoryRepository) FindByToken(_ context.Context, token string) (*models.Session, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	s, ok := r.byToken[token]
	if !ok {
		return nil, common.ErrNotFound
	}
	return &s, nil
}

func (r *MemoryRepository) DeleteByToken(_ context.Context, token string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	delete(r.byToken, token)
	return nil
}
