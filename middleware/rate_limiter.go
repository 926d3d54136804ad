package middleware

import (
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	cache "github.com/go-pkgz/expirable-cache"
	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

const (
	// An idle bucket refills within a minute, so dropping it after that loses nothing.
	limiterIdleTTL = 5 * time.Minute
	limiterMaxKeys = 100000
)

// rateLimiterStore holds a bounded LRU of client IPs to their rate limiters.
type rateLimiterStore struct {
	limiters cache.Cache
	mu       sync.Mutex
	perMin   int
}

func newRateLimiterStore(perMin, maxKeys int, idleTTL time.Duration) (*rateLimiterStore, error) {
	limiters, err := cache.NewCache(cache.MaxKeys(maxKeys), cache.TTL(idleTTL), cache.LRU())
	if err != nil {
		return nil, err
	}
	return &rateLimiterStore{limiters: limiters, perMin: perMin}, nil
}

// getLimiter returns the rate limiter for a given IP, creating one if it doesn't exist.
// Each use pushes the entry's expiry forward.
func (s *rateLimiterStore) getLimiter(ip string) *rate.Limiter {
	s.mu.Lock()
	defer s.mu.Unlock()

	var limiter *rate.Limiter
	if v, ok := s.limiters.Get(ip); ok {
		limiter, _ = v.(*rate.Limiter)
	}
	if limiter == nil {
		// perMin requests per minute, bursting up to a full minute's worth.
		limiter = rate.NewLimiter(rate.Every(time.Minute/time.Duration(s.perMin)), s.perMin)
	}
	s.limiters.Set(ip, limiter, 0)
	return limiter
}

// RateLimitMiddleware limits requests per client IP to perMin per minute.
// A non-positive perMin disables the throttle.
func RateLimitMiddleware(perMin int) gin.HandlerFunc {
	if perMin <= 0 {
		return func(c *gin.Context) { c.Next() }
	}
	store, err := newRateLimiterStore(perMin, limiterMaxKeys, limiterIdleTTL)
	if err != nil {
		zap.L().Error("rate limiter store not created, throttle disabled", zap.Error(err))
		return func(c *gin.Context) { c.Next() }
	}
	return func(c *gin.Context) {
		logger := zap.L()
		ip := getClientIP(c)
		limiter := store.getLimiter(ip)
		if !limiter.Allow() {
			logger.Warn("Rate limit exceeded", zap.String("ip", ip))
			c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{"message": "Rate limit exceeded. Try again later.", "code": "rate_limited"})
			return
		}
		c.Next()
	}
}
