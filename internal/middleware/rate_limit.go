package middleware

import (
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/mantonx/streamflow/internal/api"
	"github.com/mantonx/streamflow/internal/config"
	"github.com/mantonx/streamflow/internal/types"
	"golang.org/x/time/rate"
)

const visitorIdleTimeout = 10 * time.Minute

type visitor struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// IPRateLimiter is a token bucket per client IP
type IPRateLimiter struct {
	mu       sync.Mutex
	visitors map[string]*visitor
	limit    rate.Limit
	burst    int
	enabled  bool
	now      func() time.Time
	lastGC   time.Time
}

// NewIPRateLimiter allows rpm requests per minute with the given burst
func NewIPRateLimiter(rpm, burst int, enabled bool) *IPRateLimiter {
	l := &IPRateLimiter{visitors: make(map[string]*visitor), now: time.Now}
	l.Update(rpm, burst, enabled)
	return l
}

// Update changes the limits. Existing buckets pick them up on their next request.
func (l *IPRateLimiter) Update(rpm, burst int, enabled bool) {
	if rpm <= 0 {
		rpm = 600
	}
	if burst <= 0 {
		burst = 1
	}

	l.mu.Lock()
	defer l.mu.Unlock()
	l.limit = rate.Limit(float64(rpm) / 60)
	l.burst = burst
	l.enabled = enabled
	for _, v := range l.visitors {
		v.limiter.SetLimit(l.limit)
		v.limiter.SetBurst(l.burst)
	}
}

// Watch keeps the limits in line with hot-reloaded configuration
func (l *IPRateLimiter) Watch(oldConfig, newConfig *config.Config) {
	s := newConfig.Security
	l.Update(s.RateLimitRPM, s.RateLimitBurst, s.RateLimitEnabled)
}

// Allow takes a token for ip, returning the wait before the next one when refused
func (l *IPRateLimiter) Allow(ip string) (bool, time.Duration) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if !l.enabled {
		return true, 0
	}

	now := l.now()
	if now.Sub(l.lastGC) > time.Minute {
		l.evictIdle(now)
		l.lastGC = now
	}

	v, ok := l.visitors[ip]
	if !ok {
		v = &visitor{limiter: rate.NewLimiter(l.limit, l.burst)}
		l.visitors[ip] = v
	}
	v.lastSeen = now

	r := v.limiter.ReserveN(now, 1)
	if delay := r.DelayFrom(now); delay > 0 {
		r.CancelAt(now)
		return false, delay
	}
	return true, 0
}

func (l *IPRateLimiter) evictIdle(now time.Time) {
	for ip, v := range l.visitors {
		if now.Sub(v.lastSeen) > visitorIdleTimeout {
			delete(l.visitors, ip)
		}
	}
}

// Middleware rejects clients over their budget with 429
func (l *IPRateLimiter) Middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		if ok, wait := l.Allow(c.ClientIP()); !ok {
			api.RespondWithError(c, types.NewRateLimitError("too many requests", wait))
			c.Abort()
			return
		}
		c.Next()
	}
}
