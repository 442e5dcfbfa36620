package middleware

import (
	"net"
	"net/http"
	"strconv"
	"sync"
	"time"
	"todoTracker/internal/logger"

	"go.uber.org/zap"
)

const rateWindow = time.Minute

type bucket struct {
	hits    int
	resetAt time.Time
}

// limiter counts requests per client IP in fixed one-minute windows.
// Buckets whose window has ended are swept at most once per window.
type limiter struct {
	rpm       int
	now       func() time.Time
	mtx       sync.Mutex
	buckets   map[string]*bucket
	nextSweep time.Time
}

func newLimiter(rpm int, now func() time.Time) *limiter {
	return &limiter{
		rpm:     rpm,
		now:     now,
		buckets: make(map[string]*bucket),
	}
}

// take records a hit for ip. It reports whether the request is allowed, the
// hits left in the window and when the window ends.
func (l *limiter) take(ip string) (bool, int, time.Time) {
	now := l.now()

	l.mtx.Lock()
	defer l.mtx.Unlock()

	if !now.Before(l.nextSweep) {
		for key, b := range l.buckets {
			if now.After(b.resetAt) {
				delete(l.buckets, key)
			}
		}
		l.nextSweep = now.Add(rateWindow)
	}

	b, ok := l.buckets[ip]
	if !ok || now.After(b.resetAt) {
		b = &bucket{resetAt: now.Add(rateWindow)}
		l.buckets[ip] = b
	}
	if b.hits >= l.rpm {
		return false, 0, b.resetAt
	}
	b.hits++
	return true, l.rpm - b.hits, b.resetAt
}

func (l *limiter) tracked() int {
	l.mtx.Lock()
	defer l.mtx.Unlock()
	return len(l.buckets)
}

// RateLimit allows rpm requests per client IP per minute. A non positive rpm
// disables the limit.
func RateLimit(rpm int) func(http.Handler) http.Handler {
	if rpm <= 0 {
		return func(next http.Handler) http.Handler { return next }
	}
	return newLimiter(rpm, time.Now).middleware
}

func (l *limiter) middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ip := clientIP(r)
		allowed, left, resetAt := l.take(ip)

		h := w.Header()
		h.Set("X-RateLimit-Limit", strconv.Itoa(l.rpm))
		h.Set("X-RateLimit-Remaining", strconv.Itoa(left))
		h.Set("X-RateLimit-Reset", strconv.FormatInt(resetAt.Unix(), 10))

		if !allowed {
			logger.Warn("HTTP: rate limit exceeded",
				zap.String("client_ip", ip),
				zap.String("request_id", GetRequestID(r.Context())))

			wait := int(resetAt.Sub(l.now()).Seconds()) + 1
			h.Set("Retry-After", strconv.Itoa(wait))
			http.Error(w, "Too many requests. Please try again later.", http.StatusTooManyRequests)
			return
		}

		next.ServeHTTP(w, r)
	})
}

func clientIP(r *http.Request) string {
	if host, _, err := net.SplitHostPort(r.RemoteAddr); err == nil {
		return host
	}
	return r.RemoteAddr
}
