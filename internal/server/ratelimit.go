package server

import (
	"sync"
	"time"

	"github.com/charmbracelet/ssh"
	"github.com/charmbracelet/wish"

	"portfolio-site/internal/logging"
	"portfolio-site/internal/router"
)

const maxTrackedBuckets = 4096

type ipBucket struct {
	tokens float64
	last   time.Time
}

// limiter is a per-IP token bucket refilled continuously at rate tokens per second.
type limiter struct {
	mu      sync.Mutex
	rate    float64
	burst   float64
	idle    time.Duration
	buckets map[string]ipBucket
}

func newLimiter(limitPerMinute, burst int) *limiter {
	if limitPerMinute <= 0 {
		limitPerMinute = 30
	}
	if burst <= 0 {
		burst = 10
	}
	rate := float64(limitPerMinute) / 60.0
	return &limiter{
		rate:    rate,
		burst:   float64(burst),
		idle:    time.Duration(float64(burst) / rate * float64(time.Second)),
		buckets: make(map[string]ipBucket),
	}
}

// take spends one token for ip, reporting false when its bucket is empty.
func (l *limiter) take(ip string, at time.Time) bool {
	l.mu.Lock()
	defer l.mu.Unlock()

	if len(l.buckets) >= maxTrackedBuckets {
		l.pruneLocked(at)
	}

	b, ok := l.buckets[ip]
	if !ok {
		b = ipBucket{tokens: l.burst, last: at}
	}
	if elapsed := at.Sub(b.last).Seconds(); elapsed > 0 {
		b.tokens = min(b.tokens+elapsed*l.rate, l.burst)
		b.last = at
	}

	allowed := b.tokens >= 1
	if allowed {
		b.tokens--
	}
	l.buckets[ip] = b
	return allowed
}

// pruneLocked drops buckets idle long enough to have refilled completely.
func (l *limiter) pruneLocked(at time.Time) {
	for ip, b := range l.buckets {
		if at.Sub(b.last) >= l.idle {
			delete(l.buckets, ip)
		}
	}
}

// RateLimitMiddleware enforces per-IP connection limits using a token bucket.
func RateLimitMiddleware(limitPerMinute, burst int, log *logging.Logger) wish.Middleware {
	return rateLimit(newLimiter(limitPerMinute, burst), log, time.Now)
}

func rateLimit(l *limiter, log *logging.Logger, now func() time.Time) wish.Middleware {
	return func(next ssh.Handler) ssh.Handler {
		return func(s ssh.Session) {
			at := now().UTC()
			ip := router.RemoteIP(s.RemoteAddr())
			if !l.take(ip, at) {
				log.Warn("rate_limit_throttled", map[string]any{"remote_ip": ip, "timestamp": at.Format(time.RFC3339)})
				_, _ = s.Write([]byte("rate limit exceeded\n"))
				return
			}
			next(s)
		}
	}
}
