package middleware

import (
	"net"
	"net/http"
	"sync"
	"time"

	"golang.org/x/time/rate"

	"github.com/teilomillet/gmail-agent/config"
	"github.com/teilomillet/gmail-agent/errors"
	"github.com/teilomillet/gmail-agent/server/metrics"
)

// DefaultIdleTimeout is how long a client may stay silent before its
// limiter is forgotten.
const DefaultIdleTimeout = 3 * time.Minute

// RateLimiter limits requests per client IP. It is only installed when
// rate_limit.enabled is set.
type RateLimiter struct {
	limit   rate.Limit
	burst   int
	metrics *metrics.Metrics
	idle    time.Duration
	now     func() time.Time

	mu        sync.Mutex
	visitors  map[string]*visitor
	lastSweep time.Time
}

type visitor struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// RateLimiterOption customises a RateLimiter.
type RateLimiterOption func(*RateLimiter)

// WithIdleTimeout sets how long an idle client is remembered.
func WithIdleTimeout(d time.Duration) RateLimiterOption {
	return func(l *RateLimiter) {
		if d > 0 {
			l.idle = d
		}
	}
}

// WithClock replaces time.Now.
func WithClock(now func() time.Time) RateLimiterOption {
	return func(l *RateLimiter) {
		if now != nil {
			l.now = now
		}
	}
}

// NewRateLimiter creates a limiter allowing cfg.RequestsPerMinute per client
// with bursts of cfg.Burst.
func NewRateLimiter(cfg config.RateLimitConfig, m *metrics.Metrics, opts ...RateLimiterOption) *RateLimiter {
	l := &RateLimiter{
		limit:    rate.Every(time.Minute / time.Duration(cfg.RequestsPerMinute)),
		burst:    cfg.Burst,
		metrics:  m,
		idle:     DefaultIdleTimeout,
		now:      time.Now,
		visitors: make(map[string]*visitor),
	}
	for _, opt := range opts {
		opt(l)
	}
	l.lastSweep = l.now()
	return l
}

func (l *RateLimiter) limiter(ip string) *rate.Limiter {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	if now.Sub(l.lastSweep) >= l.idle {
		l.sweep(now)
	}

	v, exists := l.visitors[ip]
	if !exists {
		v = &visitor{limiter: rate.NewLimiter(l.limit, l.burst)}
		l.visitors[ip] = v
	}
	v.lastSeen = now
	return v.limiter
}

// sweep drops clients idle for longer than the idle timeout. Callers hold mu.
func (l *RateLimiter) sweep(now time.Time) {
	for ip, v := range l.visitors {
		if now.Sub(v.lastSeen) >= l.idle {
			delete(l.visitors, ip)
		}
	}
	l.lastSweep = now
}

// Visitors reports how many clients are currently tracked.
func (l *RateLimiter) Visitors() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.visitors)
}

// Reset forgets every client.
func (l *RateLimiter) Reset() {
	l.mu.Lock()
	l.visitors = make(map[string]*visitor)
	l.lastSweep = l.now()
	l.mu.Unlock()
}

// Handler rejects clients over their budget with a 429 TransientError.
func (l *RateLimiter) Handler(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ip := clientIP(r)

		if !l.limiter(ip).Allow() {
			if l.metrics != nil {
				l.metrics.RateLimitHits.Inc()
			}
			errors.WriteError(w, errors.NewError(
				errors.TransientError,
				"Rate limit exceeded",
				http.StatusTooManyRequests,
				GetRequestID(r.Context()),
				map[string]interface{}{"burst": l.burst},
				nil,
			))
			return
		}

		next.ServeHTTP(w, r)
	})
}

func clientIP(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
