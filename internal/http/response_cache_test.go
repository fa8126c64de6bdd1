package http

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"fintrack/internal/core"
)

func TestResponseCacheKeyIncludesDay(t *testing.T) {
	c := newResponseCache(10, time.Minute, nil)
	day := core.NewDate(2024, 3, 31)
	c.today = func() core.Date { return day }

	r := httptest.NewRequest(http.MethodGet, "/api/analytics/overview", nil)
	before := c.key(r)
	assert.Contains(t, before, "2024-03-31")

	day = day.AddDays(1)
	assert.NotEqual(t, before, c.key(r), "the default range moves at midnight")
}

func TestResponseCacheFollowsVersion(t *testing.T) {
	var version int64
	var versionErr error
	c := newResponseCache(10, time.Minute, func(context.Context) (int64, error) { return version, versionErr })

	calls := 0
	get := func() *httptest.ResponseRecorder {
		rec := httptest.NewRecorder()
		c.serve(rec, httptest.NewRequest(http.MethodGet, "/api/analytics/trend", nil), func(context.Context) (any, error) {
			calls++
			return map[string]int{"calls": calls}, nil
		})
		return rec
	}

	require.Equal(t, "MISS", get().Header().Get("X-Cache"))
	require.Equal(t, "HIT", get().Header().Get("X-Cache"))

	version++
	rec := get()
	assert.Equal(t, "MISS", rec.Header().Get("X-Cache"))
	assert.JSONEq(t, `{"calls":2}`, rec.Body.String())

	versionErr = errors.New("database is locked")
	assert.Equal(t, "BYPASS", get().Header().Get("X-Cache"))
	assert.Equal(t, 3, calls)
}
