package middleware

import (
	"bytes"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"net/http"
	"strings"

	"github.com/rs/zerolog/log"

	"github.com/zatekoja/storeguard/internal/domain/providers"
	"github.com/zatekoja/storeguard/internal/infrastructure/observability"
)

// CacheConfig holds cache configuration for a route group
type CacheConfig struct {
	TTLSeconds int
	Enabled    bool
}

// DefaultCacheGroups caches the read-heavy pages. Entries are dropped by the
// cache invalidation service when a write touches the group and otherwise
// expire with their TTL.
var DefaultCacheGroups = map[string]CacheConfig{
	"stores":    {TTLSeconds: 300, Enabled: true},
	"payments":  {TTLSeconds: 300, Enabled: true},
	"feedback":  {TTLSeconds: 120, Enabled: true},
	"reports":   {TTLSeconds: 600, Enabled: true},
	"dashboard": {TTLSeconds: 60, Enabled: true},
	"plans":     {TTLSeconds: 3600, Enabled: true},
	"badges":    {TTLSeconds: 3600, Enabled: true},
}

// CacheMiddleware caches successful JSON GET responses
type CacheMiddleware struct {
	cache   providers.CacheProvider
	groups  map[string]CacheConfig
	metrics *observability.Metrics
}

// NewCacheMiddleware creates a new cache middleware. A nil groups map uses
// DefaultCacheGroups.
func NewCacheMiddleware(cache providers.CacheProvider, groups map[string]CacheConfig, metrics *observability.Metrics) *CacheMiddleware {
	if groups == nil {
		groups = DefaultCacheGroups
	}
	return &CacheMiddleware{cache: cache, groups: groups, metrics: metrics}
}

// Middleware returns the cache middleware handler
func (m *CacheMiddleware) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet || m.cache == nil {
			next.ServeHTTP(w, r)
			return
		}

		group := routeGroup(r.URL.Path)
		config, ok := m.groups[group]
		if !ok || !config.Enabled {
			next.ServeHTTP(w, r)
			return
		}

		cacheKey := m.generateCacheKey(group, r)
		ctx := r.Context()

		cached, err := m.cache.Get(ctx, cacheKey)
		switch {
		case err == nil:
			observability.RecordCacheHit(ctx, m.metrics, cacheKey)
			w.Header().Set("X-Cache", "HIT")
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusOK)
			w.Write(cached)
			return
		case errors.Is(err, providers.ErrCacheMiss):
			observability.RecordCacheMiss(ctx, m.metrics, cacheKey)
		default:
			log.Warn().Err(err).Str("key", cacheKey).Msg("cache read failed, serving uncached")
		}

		w.Header().Set("X-Cache", "MISS")
		recorder := &responseRecorder{
			ResponseWriter: w,
			statusCode:     http.StatusOK,
			body:           &bytes.Buffer{},
		}
		next.ServeHTTP(recorder, r)

		// Downloads and errors are never cached
		if recorder.statusCode != http.StatusOK || recorder.body.Len() == 0 {
			return
		}
		if !strings.HasPrefix(w.Header().Get("Content-Type"), "application/json") {
			return
		}
		if err := m.cache.Set(ctx, cacheKey, recorder.body.Bytes(), config.TTLSeconds); err != nil {
			log.Warn().Err(err).Str("key", cacheKey).Msg("failed to cache response")
		}
	})
}

// routeGroup returns the first path segment after /api
func routeGroup(path string) string {
	rest, ok := strings.CutPrefix(path, "/api/")
	if !ok {
		return ""
	}
	group, _, _ := strings.Cut(rest, "/")
	return group
}

// generateCacheKey hashes the path and query under the group prefix so the
// invalidation service can drop a whole group by pattern
func (m *CacheMiddleware) generateCacheKey(group string, r *http.Request) string {
	key := r.Method + ":" + r.URL.Path
	if r.URL.RawQuery != "" {
		key += "?" + r.URL.Query().Encode()
	}

	hash := sha256.Sum256([]byte(key))
	return providers.HTTPCacheKeyPrefix + group + ":" + hex.EncodeToString(hash[:])
}

// responseRecorder captures the response for caching
type responseRecorder struct {
	http.ResponseWriter
	statusCode int
	body       *bytes.Buffer
	written    bool
}

// WriteHeader captures the status code
func (r *responseRecorder) WriteHeader(statusCode int) {
	if !r.written {
		r.statusCode = statusCode
		r.ResponseWriter.WriteHeader(statusCode)
		r.written = true
	}
}

// Write captures the response body and writes to the client
func (r *responseRecorder) Write(data []byte) (int, error) {
	if !r.written {
		r.WriteHeader(http.StatusOK)
	}
	r.body.Write(data)
	return r.ResponseWriter.Write(data)
}
