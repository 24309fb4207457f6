package repository

import (
	"context"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog"

	"tavolo/internal/domain"
	"tavolo/internal/models"
)

// recoveryInterval is how long the failover waits before probing the
// primary again.
const recoveryInterval = time.Minute

// FailoverSessionRepository serves from the primary until it errors,
// then falls back and periodically probes for recovery.
type FailoverSessionRepository struct {
	primary   domain.SessionRepository
	fallback  domain.SessionRepository
	logger    *zerolog.Logger
	isDown    atomic.Bool
	lastCheck atomic.Int64
}

func NewFailoverSessionRepository(primary, fallback domain.SessionRepository, logger *zerolog.Logger) *FailoverSessionRepository {
	return &FailoverSessionRepository{
		primary:  primary,
		fallback: fallback,
		logger:   logger,
	}
}

func (r *FailoverSessionRepository) markDown(err error) {
	r.logger.Error().Err(err).Msg("primary session repository failed, falling back to memory")
	r.isDown.Store(true)
	r.lastCheck.Store(time.Now().UnixNano())
}

func (r *FailoverSessionRepository) shouldProbe() bool {
	if !r.isDown.Load() {
		return true
	}
	last := time.Unix(0, r.lastCheck.Load())
	if time.Since(last) > recoveryInterval {
		r.lastCheck.Store(time.Now().UnixNano())
		return true
	}
	return false
}

func (r *FailoverSessionRepository) GetSession(ctx context.Context, key string) (*models.ReviewSession, error) {
	if r.shouldProbe() {
		session, err := r.primary.GetSession(ctx, key)
		if err == nil {
			r.isDown.Store(false)
			return session, nil
		}
		r.markDown(err)
	}
	return r.fallback.GetSession(ctx, key)
}

func (r *FailoverSessionRepository) SetSession(ctx context.Context, key string, session *models.ReviewSession, ttl time.Duration) error {
	if r.shouldProbe() {
		err := r.primary.SetSession(ctx, key, session, ttl)
		if err == nil {
			r.isDown.Store(false)
			return nil
		}
		r.markDown(err)
	}
	return r.fallback.SetSession(ctx, key, session, ttl)
}

func (r *FailoverSessionRepository) ClearSession(ctx context.Context, key string) error {
	if r.shouldProbe() {
		err := r.primary.ClearSession(ctx, key)
		if err == nil {
			r.isDown.Store(false)
			return nil
		}
		r.markDown(err)
	}
	return r.fallback.ClearSession(ctx, key)
}

func (r *FailoverSessionRepository) CheckRateLimit(ctx context.Context, actorID string, limit int, window time.Duration) (bool, error) {
	if r.shouldProbe() {
		allowed, err := r.primary.CheckRateLimit(ctx, actorID, limit, window)
		if err == nil {
			r.isDown.Store(false)
			return allowed, nil
		}
		r.markDown(err)
	}
	return r.fallback.CheckRateLimit(ctx, actorID, limit, window)
}
