package api

import (
	"context"
	"crypto/subtle"
	"net/http"
	"strings"

	"tavolo/internal/config"
	"tavolo/internal/models"
)

type actorContextKey struct{}

// HTTPAuth resolves api keys to actors and applies per-key rate limits.
type HTTPAuth struct {
	cfg             *config.APIConfig
	clientsByAPIKey map[string]config.APIClientKey
	limiter         *rateLimiter
}

func NewHTTPAuth(cfg *config.APIConfig) *HTTPAuth {
	m := make(map[string]config.APIClientKey, len(cfg.Auth.APIKeys))
	for _, k := range cfg.Auth.APIKeys {
		m[k.Key] = k
	}

	return &HTTPAuth{
		cfg:             cfg,
		clientsByAPIKey: m,
		limiter:         newRateLimiter(cfg),
	}
}

func (a *HTTPAuth) Wrap(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/health" || !a.cfg.Auth.Enabled {
			next.ServeHTTP(w, r)
			return
		}

		header := strings.TrimSpace(a.cfg.Auth.HeaderAPIKey)
		if header == "" {
			header = "x-api-key"
		}

		apiKey := r.Header.Get(header)
		if apiKey == "" {
			writeError(w, http.StatusUnauthorized, "missing api key")
			return
		}

		client, ok := a.lookup(apiKey)
		if !ok {
			writeError(w, http.StatusUnauthorized, "invalid api key")
			return
		}

		if !a.limiter.getLimiter(client.Key).Allow() {
			writeError(w, http.StatusTooManyRequests, "rate limit exceeded")
			return
		}

		actor := models.Actor{ID: client.ActorID, Role: client.Role}
		next.ServeHTTP(w, r.WithContext(withActor(r.Context(), actor)))
	})
}

// lookup compares keys in constant time to avoid leaking key prefixes.
func (a *HTTPAuth) lookup(apiKey string) (config.APIClientKey, bool) {
	for key, client := range a.clientsByAPIKey {
		if subtle.ConstantTimeCompare([]byte(key), []byte(apiKey)) == 1 {
			return client, true
		}
	}
	return config.APIClientKey{}, false
}

func withActor(ctx context.Context, actor models.Actor) context.Context {
	return context.WithValue(ctx, actorContextKey{}, actor)
}

// actorFrom returns the authenticated actor, if any.
func actorFrom(ctx context.Context) (models.Actor, bool) {
	actor, ok := ctx.Value(actorContextKey{}).(models.Actor)
	return actor, ok
}
