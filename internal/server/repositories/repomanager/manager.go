// Package repomanager provides the storage handle the server is built
// around: one Store opened per process and passed to every service.
package repomanager

import (
	"context"

	"github.com/dmitrijs2005/taskboard/internal/server/repositories/sessions"
	"github.com/dmitrijs2005/taskboard/internal/server/repositories/tasks"
	"github.com/dmitrijs2005/taskboard/internal/server/repositories/users"
)

// Store vends repositories bound to one backend.
type Store interface {
	Users() users.Repository
	Sessions() sessions.Repository
	Tasks() tasks.Repository

	// InTx runs fn with a Store whose repositories share one transaction.
	// fn's error (or panic) rolls the transaction back.
	InTx(ctx context.Context, fn func(ctx context.Context, tx Store) error) error

	Ping(ctx context.Context) error
	Close() error
}
