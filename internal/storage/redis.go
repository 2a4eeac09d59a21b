package storage

import (
	"context"
	"errors"
	"fmt"
	"time"

	"eino_data_analyst/internal/core"
	"eino_data_analyst/src/model"

	"github.com/bytedance/sonic"
	"github.com/redis/go-redis/v9"
)

const (
	// SessionTTL is the default session TTL
	SessionTTL    = 60 * time.Minute
	sessionPrefix = "analysis_session:"
)

// RedisStore keeps JSON session snapshots in Redis with a sliding TTL
type RedisStore struct {
	*KeyedLocker
	client *redis.Client
	ttl    time.Duration
}

// NewRedisStore connects to config.RedisURL
func NewRedisStore(ctx context.Context, config model.StorageConfig) (*RedisStore, error) {
	if config.RedisURL == "" {
		return nil, fmt.Errorf("REDIS_URL is required for the redis backend")
	}

	opts, err := redis.ParseURL(config.RedisURL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse REDIS_URL: %w", err)
	}

	client := redis.NewClient(opts)

	// Test connection
	if _, err := client.Ping(ctx).Result(); err != nil {
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}

	return NewRedisStoreWithClient(client, config.SessionTTL), nil
}

// NewRedisStoreWithClient wraps an existing client; ttl <= 0 uses SessionTTL
func NewRedisStoreWithClient(client *redis.Client, ttl time.Duration) *RedisStore {
	if ttl <= 0 {
		ttl = SessionTTL
	}
	return &RedisStore{KeyedLocker: NewKeyedLocker(), client: client, ttl: ttl}
}

// key generates a Redis key for the given session ID
func (r *RedisStore) key(sessionID string) string {
	return sessionPrefix + sessionID
}

// Create stores a new session, failing if the id is taken
func (r *RedisStore) Create(ctx context.Context, id, datasetPath string) (*core.Session, error) {
	if id == "" {
		return nil, fmt.Errorf("session ID cannot be empty")
	}
	session := core.NewSession(id, datasetPath)
	data, err := sonic.Marshal(session)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal session data: %w", err)
	}

	ok, err := r.client.SetNX(ctx, r.key(id), data, r.ttl).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to create session: %w", err)
	}
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrSessionExists, id)
	}
	return session, nil
}

// Get reads the session and extends its TTL
func (r *RedisStore) Get(ctx context.Context, id string) (*core.Session, error) {
	data, err := r.client.GetEx(ctx, r.key(id), r.ttl).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, fmt.Errorf("%w: %s", ErrSessionNotFound, id)
		}
		return nil, fmt.Errorf("failed to get session data: %w", err)
	}

	var session core.Session
	if err := sonic.Unmarshal(data, &session); err != nil {
		return nil, fmt.Errorf("failed to unmarshal session data: %w", err)
	}
	if session.Messages == nil {
		session.Messages = []core.Message{}
	}
	return &session, nil
}

// Put overwrites the session snapshot and resets its TTL
func (r *RedisStore) Put(ctx context.Context, session *core.Session) error {
	if session == nil || session.ID == "" {
		return fmt.Errorf("session ID cannot be empty")
	}
	stored := session.Clone()
	stored.UpdatedAt = time.Now()
	data, err := sonic.Marshal(stored)
	if err != nil {
		return fmt.Errorf("failed to marshal session data: %w", err)
	}
	if err := r.client.Set(ctx, r.key(session.ID), data, r.ttl).Err(); err != nil {
		return fmt.Errorf("failed to set session data: %w", err)
	}
	return nil
}

// TTL returns the remaining lifetime of a session
func (r *RedisStore) TTL(ctx context.Context, id string) (time.Duration, error) {
	ttl, err := r.client.TTL(ctx, r.key(id)).Result()
	if err != nil {
		return 0, fmt.Errorf("failed to get TTL: %w", err)
	}
	return ttl, nil
}

// Close closes the Redis connection
func (r *RedisStore) Close() error {
	return r.client.Close()
}
