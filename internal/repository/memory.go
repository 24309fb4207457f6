package repository

import (
	"context"
	"sync"
	"time"

	"tavolo/internal/models"
)

// MemorySessionRepository is the in-process fallback for review sessions
// and rate limits when redis is unavailable.
type MemorySessionRepository struct {
	sessions   sync.Map
	rateLimits sync.Map
}

func NewMemorySessionRepository() *MemorySessionRepository {
	return &MemorySessionRepository{}
}

type sessionEntry struct {
	session   *models.ReviewSession
	expiresAt time.Time
}

func (r *MemorySessionRepository) GetSession(ctx context.Context, key string) (*models.ReviewSession, error) {
	val, ok := r.sessions.Load(key)
	if !ok {
		return nil, nil
	}
	entry := val.(*sessionEntry)
	if time.Now().After(entry.expiresAt) {
		r.sessions.Delete(key)
		return nil, nil
	}
	return entry.session, nil
}

func (r *MemorySessionRepository) SetSession(ctx context.Context, key string, session *models.ReviewSession, ttl time.Duration) error {
	if ttl <= 0 {
		return nil
	}
	r.sessions.Store(key, &sessionEntry{session: session, expiresAt: time.Now().Add(ttl)})
	return nil
}

func (r *MemorySessionRepository) ClearSession(ctx context.Context, key string) error {
	r.sessions.Delete(key)
	return nil
}

type rateLimitEntry struct {
	mu        sync.Mutex
	count     int
	expiresAt time.Time
}

func (r *MemorySessionRepository) CheckRateLimit(ctx context.Context, actorID string, limit int, window time.Duration) (bool, error) {
	now := time.Now()
	val, _ := r.rateLimits.LoadOrStore(actorID, &rateLimitEntry{})
	entry := val.(*rateLimitEntry)

	entry.mu.Lock()
	defer entry.mu.Unlock()

	if now.After(entry.expiresAt) {
		entry.count = 0
		entry.expiresAt = now.Add(window)
	}
	entry.count++
	return entry.count <= limit, nil
}
