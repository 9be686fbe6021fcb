/*
Package limiter provides per-IP request rate limiting.

Each client IP gets its own token bucket (rate.Limiter); a background
goroutine evicts buckets that have refilled completely so the map does not
grow without bound.
*/
package limiter

import (
	"net"
	"net/http"
	"sync"
	"time"

	"golang.org/x/time/rate"

	"medichat/internal/pkg/errs"
	"medichat/internal/pkg/logx"
	"medichat/internal/pkg/resp"
)

// cleanupInterval is how often idle limiters are evicted.
const cleanupInterval = 3 * time.Minute

// IPRateLimiter tracks one token bucket per client IP address.
type IPRateLimiter struct {
	mu     sync.RWMutex
	limits map[string]*rate.Limiter

	// r and b are the refill rate and burst size applied to every bucket.
	r rate.Limit
	b int
}

// NewIPRateLimiter creates a limiter with the given rate and burst and
// starts the background eviction loop.
func NewIPRateLimiter(r rate.Limit, b int) *IPRateLimiter {
	l := &IPRateLimiter{
		limits: make(map[string]*rate.Limiter),
		r:      r,
		b:      b,
	}

	go l.evictIdle()

	return l
}

// GetLimiter returns the bucket for ip, creating it on first sight.
func (l *IPRateLimiter) GetLimiter(ip string) *rate.Limiter {
	l.mu.RLock()
	limiter, exists := l.limits[ip]
	l.mu.RUnlock()

	if exists {
		return limiter
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	if limiter, exists = l.limits[ip]; !exists {
		limiter = rate.NewLimiter(l.r, l.b)
		l.limits[ip] = limiter
	}

	return limiter
}

// evictIdle periodically removes buckets that are full again, meaning the
// IP has been quiet long enough to forget about.
func (l *IPRateLimiter) evictIdle() {
	ticker := time.NewTicker(cleanupInterval)
	defer ticker.Stop()

	for range ticker.C {
		l.mu.Lock()
		removed := 0
		for ip, limiter := range l.limits {
			if limiter.TokensAt(time.Now()) >= float64(limiter.Burst()) {
				delete(l.limits, ip)
				removed++
			}
		}
		remaining := len(l.limits)
		l.mu.Unlock()

		logx.Debug("Rate limiter eviction pass finished", "removed", removed, "remaining", remaining)
	}
}

// ClientIP extracts the host part of a request's remote address.
func ClientIP(r *http.Request) string {
	ip, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		ip = r.RemoteAddr
	}

	if ip == "" {
		ip = "unknown_ip"
	}

	return ip
}

// Middleware rejects requests over the limit with HTTP 429.
func (l *IPRateLimiter) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !l.GetLimiter(ClientIP(r)).Allow() {
			resp.RespondError(w, r, errs.NewError(errs.ErrRateLimitExceeded))
			return
		}

		next.ServeHTTP(w, r)
	})
}
