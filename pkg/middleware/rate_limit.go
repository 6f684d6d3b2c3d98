package middleware

import (
	"net/http"
	"sync"

	"github.com/gin-gonic/gin"
	"github.com/govpub/govpub/backend/go-services/pkg/metrics"
	"golang.org/x/time/rate"
)

// MemoryLimiter keeps one token bucket per key.
type MemoryLimiter struct {
	rps    float64
	burst  int
	bucket sync.Map // map[string]*rate.Limiter
}

func NewMemoryLimiter(rps float64, burst int) *MemoryLimiter {
	return &MemoryLimiter{rps: rps, burst: burst}
}

func (m *MemoryLimiter) get(key string) *rate.Limiter {
	if v, ok := m.bucket.Load(key); ok {
		return v.(*rate.Limiter)
	}
	v, _ := m.bucket.LoadOrStore(key, rate.NewLimiter(rate.Limit(m.rps), m.burst))
	return v.(*rate.Limiter)
}

// RateLimitMiddleware returns a Gin middleware enforcing a token-bucket per-key limit.
// Requests are keyed by the authenticated actor when present, otherwise by client IP.
// rps = allowed events per second, burst = maximum tokens in bucket.
func RateLimitMiddleware(rps float64, burst int) gin.HandlerFunc {
	return NewMemoryLimiter(rps, burst).Middleware()
}

func (m *MemoryLimiter) Middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		if !m.get(limitKey(c)).Allow() {
			c.Header("Retry-After", "1")
			metrics.RateLimitRejected.WithLabelValues("memory").Inc()
			c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{"error": "Rate limit exceeded"})
			return
		}
		metrics.RateLimitAllowed.WithLabelValues("memory").Inc()
		c.Next()
	}
}
