package middleware

import (
	"math"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/config-registry/config-registry/internal/config"
)

const (
	limiterCleanupInterval = 5 * time.Minute
	limiterIdleExpiry      = 10 * time.Minute
)

type bucket struct {
	tokens     float64
	lastUpdate time.Time
}

// RateLimiter is a per-client token bucket. Each client may burst up to Burst requests and
// refills at RequestsPerMinute/60 tokens per second.
type RateLimiter struct {
	rpm   int
	burst int
	now   func() time.Time

	mu      sync.Mutex
	buckets map[string]*bucket
	stopCh  chan struct{}
	once    sync.Once
}

// NewRateLimiter starts a limiter and its idle-bucket sweeper. Call Stop on shutdown.
func NewRateLimiter(cfg config.RateLimitingConfig) *RateLimiter {
	rl := &RateLimiter{
		rpm:     cfg.RequestsPerMinute,
		burst:   cfg.Burst,
		now:     time.Now,
		buckets: make(map[string]*bucket),
		stopCh:  make(chan struct{}),
	}
	go rl.sweep()
	return rl
}

func (rl *RateLimiter) sweep() {
	ticker := time.NewTicker(limiterCleanupInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			rl.mu.Lock()
			now := rl.now()
			for key, b := range rl.buckets {
				if now.Sub(b.lastUpdate) > limiterIdleExpiry {
					delete(rl.buckets, key)
				}
			}
			rl.mu.Unlock()
		case <-rl.stopCh:
			return
		}
	}
}

// Stop ends the sweeper. Safe to call more than once.
func (rl *RateLimiter) Stop() {
	rl.once.Do(func() { close(rl.stopCh) })
}

// refill must be called with rl.mu held
func (rl *RateLimiter) refill(key string) *bucket {
	now := rl.now()
	b, ok := rl.buckets[key]
	if !ok {
		b = &bucket{tokens: float64(rl.burst), lastUpdate: now}
		rl.buckets[key] = b
		return b
	}
	perSecond := float64(rl.rpm) / 60.0
	b.tokens = math.Min(float64(rl.burst), b.tokens+now.Sub(b.lastUpdate).Seconds()*perSecond)
	b.lastUpdate = now
	return b
}

// Allow takes a token for key and reports whether one was available, along with the
// whole tokens left afterwards.
func (rl *RateLimiter) Allow(key string) (bool, int) {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	b := rl.refill(key)
	if b.tokens < 1 {
		return false, 0
	}
	b.tokens--
	return true, int(b.tokens)
}

// retryAfter is the number of whole seconds until one token is available
func (rl *RateLimiter) retryAfter() int {
	if rl.rpm <= 0 {
		return 60
	}
	return int(math.Ceil(60.0 / float64(rl.rpm)))
}

// RateLimitMiddleware rejects requests with 429 once the caller's bucket is empty.
// Clients are keyed by IP since the API carries no caller identity of its own.
func RateLimitMiddleware(limiter *RateLimiter) gin.HandlerFunc {
	return func(c *gin.Context) {
		key := "ip:" + c.ClientIP()

		allowed, remaining := limiter.Allow(key)
		c.Header("X-RateLimit-Limit", strconv.Itoa(limiter.rpm))
		c.Header("X-RateLimit-Remaining", strconv.Itoa(remaining))

		if !allowed {
			wait := limiter.retryAfter()
			c.Header("Retry-After", strconv.Itoa(wait))
			c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{
				"error":       "rate limit exceeded",
				"retry_after": wait,
			})
			return
		}

		c.Next()
	}
}
