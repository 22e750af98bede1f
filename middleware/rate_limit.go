package middleware

import (
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"golang.org/x/time/rate"

	"github.com/aronlabs/captcha/utils"
)

type rateLimiter struct {
	limiter *rate.Limiter
	expires time.Time
	mu      sync.Mutex
}

// limiterSet keeps one token bucket per client IP.
type limiterSet struct {
	mu       sync.Mutex
	limiters map[string]*rateLimiter
	limit    rate.Limit
	burst    int
	idle     time.Duration
}

// RateLimit applies a simple IP based rate limiter using a token bucket.
// Each middleware instance keeps its own buckets.
func RateLimit(perMinute int) gin.HandlerFunc {
	set := &limiterSet{
		limiters: map[string]*rateLimiter{},
		limit:    rate.Every(time.Minute / time.Duration(max(perMinute, 1))),
		burst:    max(perMinute/2, 1),
		idle:     5 * time.Minute,
	}

	return func(ctx *gin.Context) {
		limiter := set.get(ctx.ClientIP())

		limiter.mu.Lock()
		allowed := limiter.limiter.Allow()
		limiter.mu.Unlock()

		if !allowed {
			utils.Error(ctx, http.StatusTooManyRequests, 42901, "rate limit exceeded")
			ctx.Abort()
			return
		}

		ctx.Next()
	}
}

func (s *limiterSet) get(key string) *rateLimiter {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.cleanupExpiredLocked()

	if limiter, ok := s.limiters[key]; ok {
		limiter.expires = time.Now().Add(s.idle)
		return limiter
	}

	limiter := &rateLimiter{
		limiter: rate.NewLimiter(s.limit, s.burst),
		expires: time.Now().Add(s.idle),
	}
	s.limiters[key] = limiter
	return limiter
}

func (s *limiterSet) cleanupExpiredLocked() {
	now := time.Now()
	for key, limiter := range s.limiters {
		if now.After(limiter.expires) {
			delete(s.limiters, key)
		}
	}
}
