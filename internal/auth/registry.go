package auth

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
)

// Registry tracks live session ids so tokens can be revoked before expiry.
type Registry interface {
	Save(ctx context.Context, sessionID, userID string, ttl time.Duration) error
	Lookup(ctx context.Context, sessionID string) (string, error)
	Delete(ctx context.Context, sessionID string) error
	DeleteUser(ctx context.Context, userID string) error
}

// RedisRegistry stores sessions in Redis with a per-user index set.
type RedisRegistry struct {
	cache *redis.Client
}

// NewRedisRegistry constructs a Redis-backed session registry.
func NewRedisRegistry(cache *redis.Client) *RedisRegistry {
	return &RedisRegistry{cache: cache}
}

func sessionKey(sessionID string) string { return "session:v1:" + sessionID }
func userKey(userID string) string       { return "session:v1:user:" + userID }

// Save records the session and indexes it under its user.
func (r *RedisRegistry) Save(ctx context.Context, sessionID, userID string, ttl time.Duration) error {
	pipe := r.cache.TxPipeline()
	pipe.Set(ctx, sessionKey(sessionID), userID, ttl)
	pipe.SAdd(ctx, userKey(userID), sessionID)
	pipe.Expire(ctx, userKey(userID), ttl)
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("save session: %w", err)
	}
	return nil
}

// Lookup returns the user that owns sessionID.
func (r *RedisRegistry) Lookup(ctx context.Context, sessionID string) (string, error) {
	userID, err := r.cache.Get(ctx, sessionKey(sessionID)).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return "", ErrSessionNotFound
		}
		return "", fmt.Errorf("lookup session: %w", err)
	}
	return userID, nil
}

// Delete removes one session.
func (r *RedisRegistry) Delete(ctx context.Context, sessionID string) error {
	userID, err := r.Lookup(ctx, sessionID)
	if errors.Is(err, ErrSessionNotFound) {
		return nil
	}
	if err != nil {
		return err
	}
	pipe := r.cache.TxPipeline()
	pipe.Del(ctx, sessionKey(sessionID))
	pipe.SRem(ctx, userKey(userID), sessionID)
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("delete session: %w", err)
	}
	return nil
}

// DeleteUser removes every session of userID.
func (r *RedisRegistry) DeleteUser(ctx context.Context, userID string) error {
	ids, err := r.cache.SMembers(ctx, userKey(userID)).Result()
	if err != nil && !errors.Is(err, redis.Nil) {
		return fmt.Errorf("list sessions: %w", err)
	}
	keys := make([]string, 0, len(ids)+1)
	for _, id := range ids {
		keys = append(keys, sessionKey(id))
	}
	keys = append(keys, userKey(userID))
	if err := r.cache.Del(ctx, keys...).Err(); err != nil {
		return fmt.Errorf("delete user sessions: %w", err)
	}
	return nil
}

type memoryEntry struct {
	userID    string
	expiresAt time.Time
}

// MemoryRegistry keeps sessions in process memory.
type MemoryRegistry struct {
	mu       sync.Mutex
	sessions map[string]memoryEntry
	now      func() time.Time
}

// NewMemoryRegistry builds an in-memory registry.
func NewMemoryRegistry() *MemoryRegistry {
	return &MemoryRegistry{sessions: make(map[string]memoryEntry), now: time.Now}
}

func (r *MemoryRegistry) Save(_ context.Context, sessionID, userID string, ttl time.Duration) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.sessions[sessionID] = memoryEntry{userID: userID, expiresAt: r.now().Add(ttl)}
	return nil
}

func (r *MemoryRegistry) Lookup(_ context.Context, sessionID string) (string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	entry, ok := r.sessions[sessionID]
	if !ok {
		return "", ErrSessionNotFound
	}
	if !r.now().Before(entry.expiresAt) {
		delete(r.sessions, sessionID)
		return "", ErrSessionNotFound
	}
	return entry.userID, nil
}

func (r *MemoryRegistry) Delete(_ context.Context, sessionID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.sessions, sessionID)
	return nil
}

func (r *MemoryRegistry) DeleteUser(_ context.Context, userID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for id, entry := range r.sessions {
		if entry.userID == userID {
			delete(r.sessions, id)
		}
	}
	return nil
}
