package storage

import (
	"context"
	"errors"

	"eino_data_analyst/internal/core"
)

var (
	// ErrSessionNotFound is returned by Get for unknown or expired sessions
	ErrSessionNotFound = errors.New("session not found")
	// ErrSessionExists is returned by Create when the id is already taken
	ErrSessionExists = errors.New("session already exists")
)

// Store keeps one analysis session per id.
// Sessions handed out are copies; changes become visible only through Put.
type Store interface {
	Create(ctx context.Context, id, datasetPath string) (*core.Session, error)
	Get(ctx context.Context, id string) (*core.Session, error)
	Put(ctx context.Context, session *core.Session) error
	// Lock serializes turns on one session. The returned func releases the lock.
	Lock(ctx context.Context, id string) (func(), error)
}
