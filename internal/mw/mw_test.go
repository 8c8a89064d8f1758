package mw

import (
	"bytes"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/time/rate"

	"equipment-booking-backend/internal/metrics"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func TestCache(t *testing.T) {
	calls := 0
	r := gin.New()
	rc := NewResponseCache(time.Minute)
	r.Use(rc.Handler())
	r.GET("/machines/:id", func(c *gin.Context) {
		calls++
		if c.Param("id") == "404" {
			c.JSON(http.StatusNotFound, gin.H{"error": "Not found"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"calls": calls})
	})
	r.POST("/machines/:id", func(c *gin.Context) {
		calls++
		c.Status(http.StatusNoContent)
	})

	do := func(method, path string) *httptest.ResponseRecorder {
		w := httptest.NewRecorder()
		r.ServeHTTP(w, httptest.NewRequest(method, path, nil))
		return w
	}

	first := do(http.MethodGet, "/machines/1")
	assert.Equal(t, "MISS", first.Header().Get(CacheHeader))
	second := do(http.MethodGet, "/machines/1")
	assert.Equal(t, "HIT", second.Header().Get(CacheHeader))
	assert.Equal(t, first.Body.String(), second.Body.String())
	assert.Equal(t, "application/json; charset=utf-8", second.Header().Get("Content-Type"))
	assert.Equal(t, 1, calls)

	do(http.MethodGet, "/machines/1?week=next")
	assert.Equal(t, 2, calls)

	do(http.MethodGet, "/machines/404")
	do(http.MethodGet, "/machines/404")
	assert.Equal(t, 4, calls)

	do(http.MethodPost, "/machines/1")
	do(http.MethodPost, "/machines/1")
	assert.Equal(t, 6, calls)
	assert.Equal(t, 2, rc.Len())
}

func rateLimitedRouter(t *testing.T, trusted []string, header string) *gin.Engine {
	t.Helper()
	r := gin.New()
	require.NoError(t, r.SetTrustedProxies(trusted))
	if header != "" {
		r.RemoteIPHeaders = []string{header}
	}
	r.Use(RateLimiter(rate.Limit(1), 2))
	r.GET("/", func(c *gin.Context) { c.Status(http.StatusOK) })
	return r
}

func hit(r *gin.Engine, remote, forwarded string) int {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.RemoteAddr = remote + ":40000"
	if forwarded != "" {
		req.Header.Set("X-Forwarded-For", forwarded)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w.Code
}

func TestRateLimiter(t *testing.T) {
	r := rateLimitedRouter(t, nil, "")

	assert.Equal(t, http.StatusOK, hit(r, "192.0.2.1", ""))
	assert.Equal(t, http.StatusOK, hit(r, "192.0.2.1", ""))
	assert.Equal(t, http.StatusTooManyRequests, hit(r, "192.0.2.1", ""))
	// Separate bucket per client.
	assert.Equal(t, http.StatusOK, hit(r, "192.0.2.2", ""))
}

func TestRateLimiter_IgnoresForwardedForFromUntrustedPeer(t *testing.T) {
	r := rateLimitedRouter(t, nil, "")

	assert.Equal(t, http.StatusOK, hit(r, "192.0.2.1", "198.51.100.1"))
	assert.Equal(t, http.StatusOK, hit(r, "192.0.2.1", "198.51.100.2"))
	assert.Equal(t, http.StatusTooManyRequests, hit(r, "192.0.2.1", "198.51.100.3"))
}

func TestRateLimiter_TrustedProxyForwardsClient(t *testing.T) {
	r := rateLimitedRouter(t, []string{"10.0.0.0/8"}, "X-Forwarded-For")

	assert.Equal(t, http.StatusOK, hit(r, "10.0.0.1", "198.51.100.1"))
	assert.Equal(t, http.StatusOK, hit(r, "10.0.0.1", "198.51.100.1"))
	assert.Equal(t, http.StatusTooManyRequests, hit(r, "10.0.0.1", "198.51.100.1"))
	assert.Equal(t, http.StatusOK, hit(r, "10.0.0.1", "198.51.100.2"))
}

func TestClientLimiter_ReusesBucket(t *testing.T) {
	l := NewClientLimiter(rate.Limit(1), 1, time.Minute)
	assert.Same(t, l.Bucket("a"), l.Bucket("a"))
	assert.NotSame(t, l.Bucket("a"), l.Bucket("b"))
}

func TestClientLimiter_DropsIdleBuckets(t *testing.T) {
	l := NewClientLimiter(rate.Limit(1), 1, 20*time.Millisecond)
	first := l.Bucket("a")
	assert.True(t, first.Allow())
	assert.False(t, first.Allow())

	time.Sleep(50 * time.Millisecond)
	assert.NotSame(t, first, l.Bucket("a"))
}

func TestRequestLogger(t *testing.T) {
	var buf bytes.Buffer
	logger := zerolog.New(&buf)
	m := metrics.NewNop()

	r := gin.New()
	r.Use(RequestLogger(&logger, m))
	r.GET("/api/sessions/:session_id", func(c *gin.Context) { c.Status(http.StatusNotFound) })

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/sessions/abc", nil))

	assert.Contains(t, buf.String(), `"level":"warn"`)
	assert.Contains(t, buf.String(), `"status":404`)
	assert.Contains(t, buf.String(), `"path":"/api/sessions/abc"`)
}
