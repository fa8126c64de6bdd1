package http

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"sync/atomic"
	"time"

	"golang.org/x/sync/singleflight"

	"fintrack/internal/cache"
	"fintrack/internal/core"
	"fintrack/internal/log"
)

// VersionFunc reports a counter that moves on every committed ledger write.
type VersionFunc func(ctx context.Context) (int64, error)

// responseCache keeps encoded analytics responses keyed by path, query and day.
// Concurrent misses for one key share a single computation. When version is
// set, a change of the ledger version since the last request purges every entry,
// which covers writes made by other processes on the same database.
type responseCache struct {
	lru        *cache.LRUCache[[]byte]
	group      singleflight.Group
	generation atomic.Uint64
	version    VersionFunc
	seen       atomic.Int64
	today      func() core.Date
}

func newResponseCache(size int, ttl time.Duration, version VersionFunc) *responseCache {
	return &responseCache{
		lru:     cache.NewLRUCache[[]byte](size, ttl),
		version: version,
		today:   core.Today,
	}
}

// key includes the current day because omitted range bounds default to today.
func (c *responseCache) key(r *http.Request) string {
	// Encode sorts by key so parameter order does not split entries.
	return r.URL.Path + "?" + r.URL.Query().Encode() + "#" + c.today().String()
}

// sync purges the cache when the ledger version moved. It reports false when
// the version cannot be read, in which case nothing may be served from cache.
func (c *responseCache) sync(ctx context.Context) bool {
	if c.version == nil {
		return true
	}
	v, err := c.version(ctx)
	if err != nil {
		slog.WarnContext(ctx, "Ledger version unavailable, bypassing cache",
			log.FieldComponent, log.ComponentCache, log.FieldError, err)
		return false
	}
	if old := c.seen.Swap(v); old != v {
		c.Purge(ctx)
	}
	return true
}

// serve writes the cached body for r or computes, stores and writes it.
func (c *responseCache) serve(w http.ResponseWriter, r *http.Request, compute func(ctx context.Context) (any, error)) {
	if !c.sync(r.Context()) {
		res, err := compute(r.Context())
		if err != nil {
			writeError(w, r, err)
			return
		}
		NewJSONResponse().Header("X-Cache", "BYPASS").JSON(res).Write(w)
		return
	}

	key := c.key(r)
	if body, ok := c.lru.Get(key); ok {
		NewJSONResponse().Header("X-Cache", "HIT").Body(body).Write(w)
		return
	}

	gen := c.generation.Load()
	v, err, _ := c.group.Do(key, func() (any, error) {
		res, err := compute(r.Context())
		if err != nil {
			return nil, err
		}
		body, err := json.Marshal(res)
		if err != nil {
			return nil, err
		}
		// A write that landed during compute makes res stale.
		if c.generation.Load() == gen {
			c.lru.Set(key, body)
		}
		return body, nil
	})
	if err != nil {
		writeError(w, r, err)
		return
	}
	NewJSONResponse().Header("X-Cache", "MISS").Body(v.([]byte)).Write(w)
}

// Purge drops every cached response.
func (c *responseCache) Purge(ctx context.Context) {
	c.generation.Add(1)
	if n := c.lru.Purge(); n > 0 {
		slog.DebugContext(ctx, "Analytics cache purged", log.FieldComponent, log.ComponentCache, "entries", n)
	}
}

// statusRecorder remembers the status a handler wrote.
type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (s *statusRecorder) WriteHeader(code int) {
	if s.status == 0 {
		s.status = code
	}
	s.ResponseWriter.WriteHeader(code)
}

func (s *statusRecorder) Write(b []byte) (int, error) {
	if s.status == 0 {
		s.status = http.StatusOK
	}
	return s.ResponseWriter.Write(b)
}

// invalidateOnWrite purges c after every successful mutating request.
func invalidateOnWrite(c *responseCache, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.Method {
		case http.MethodGet, http.MethodHead, http.MethodOptions:
			next.ServeHTTP(w, r)
			return
		}
		rec := &statusRecorder{ResponseWriter: w}
		next.ServeHTTP(rec, r)
		if rec.status < http.StatusBadRequest {
			c.Purge(r.Context())
		}
	})
}
