package storage

import (
	"context"
	"fmt"
	"sync"
	"time"

	"eino_data_analyst/internal/core"
)

// MemoryStore is a process-lifetime session store
type MemoryStore struct {
	*KeyedLocker
	mu       sync.RWMutex
	sessions map[string]*core.Session
}

// NewMemoryStore creates an empty in-memory store
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		KeyedLocker: NewKeyedLocker(),
		sessions:    make(map[string]*core.Session),
	}
}

// Create registers a new session for datasetPath
func (m *MemoryStore) Create(ctx context.Context, id, datasetPath string) (*core.Session, error) {
	if id == "" {
		return nil, fmt.Errorf("session ID cannot be empty")
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, exists := m.sessions[id]; exists {
		return nil, fmt.Errorf("%w: %s", ErrSessionExists, id)
	}
	session := core.NewSession(id, datasetPath)
	m.sessions[id] = session.Clone()
	return session, nil
}

// Get returns a copy of the session
func (m *MemoryStore) Get(ctx context.Context, id string) (*core.Session, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	session, exists := m.sessions[id]
	if !exists {
		return nil, fmt.Errorf("%w: %s", ErrSessionNotFound, id)
	}
	return session.Clone(), nil
}

// Put saves a copy of session
func (m *MemoryStore) Put(ctx context.Context, session *core.Session) error {
	if session == nil || session.ID == "" {
		return fmt.Errorf("session ID cannot be empty")
	}
	stored := session.Clone()
	stored.UpdatedAt = time.Now()
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sessions[session.ID] = stored
	return nil
}
