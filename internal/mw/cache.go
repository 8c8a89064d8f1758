package mw

import (
	"bytes"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/patrickmn/go-cache"
)

// CacheHeader reports whether a response came from the cache.
const CacheHeader = "X-Cache"

type snapshot struct {
	status int
	header http.Header
	body   []byte
}

// recorder tees the handler's body into buf while it is written out.
type recorder struct {
	gin.ResponseWriter
	buf *bytes.Buffer
}

func (r recorder) Write(b []byte) (int, error) {
	r.buf.Write(b)
	return r.ResponseWriter.Write(b)
}

func (r recorder) WriteString(s string) (int, error) {
	r.buf.WriteString(s)
	return r.ResponseWriter.WriteString(s)
}

// ResponseCache keeps successful GET responses of read-only resources,
// keyed by path and query.
type ResponseCache struct {
	entries *cache.Cache
	ttl     time.Duration
}

// NewResponseCache returns a cache whose entries live for ttl.
func NewResponseCache(ttl time.Duration) *ResponseCache {
	return &ResponseCache{entries: cache.New(ttl, 2*ttl), ttl: ttl}
}

// Len reports the number of live entries.
func (rc *ResponseCache) Len() int { return rc.entries.ItemCount() }

// Handler serves hits directly and records 2xx misses.
func (rc *ResponseCache) Handler() gin.HandlerFunc {
	return func(c *gin.Context) {
		if c.Request.Method != http.MethodGet {
			c.Next()
			return
		}

		key := c.Request.URL.RequestURI()
		if v, ok := rc.entries.Get(key); ok {
			replay(c, v.(snapshot))
			return
		}

		c.Header(CacheHeader, "MISS")
		rec := &recorder{ResponseWriter: c.Writer, buf: &bytes.Buffer{}}
		c.Writer = rec
		c.Next()

		status := rec.Status()
		if status < 200 || status >= 300 {
			return
		}
		header := rec.Header().Clone()
		header.Del(CacheHeader)
		rc.entries.Set(key, snapshot{status: status, header: header, body: rec.buf.Bytes()}, rc.ttl)
	}
}

func replay(c *gin.Context, s snapshot) {
	dst := c.Writer.Header()
	for k, v := range s.header {
		dst[k] = v
	}
	dst.Set(CacheHeader, "HIT")
	c.Writer.WriteHeader(s.status)
	_, _ = c.Writer.Write(s.body)
	c.Abort()
}
