// Package ratelimit provides the injected fixed-window limiter used by the
// write-heavy endpoints. Per process, best effort; not linearizable across
// instances.
package ratelimit

import (
	"net/http"
	"strings"
	"sync"
	"time"
)

type state struct {
	count   int
	resetAt time.Time
}

type Limiter struct {
	mu      sync.Mutex
	buckets map[string]state
	now     func() time.Time
}

func New() *Limiter {
	return &Limiter{
		buckets: make(map[string]state),
		now:     time.Now,
	}
}

type Result struct {
	OK        bool
	Remaining int
	Reset     time.Duration
}

// Allow counts one hit against key within window. A new window starts when the
// previous one expires; counts are never refunded.
func (l *Limiter) Allow(key string, limit int, window time.Duration) Result {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	current, ok := l.buckets[key]

	if !ok || now.After(current.resetAt) {
		l.buckets[key] = state{count: 1, resetAt: now.Add(window)}
		return Result{OK: true, Remaining: limit - 1, Reset: window}
	}

	if current.count >= limit {
		return Result{OK: false, Remaining: 0, Reset: current.resetAt.Sub(now)}
	}

	current.count++
	l.buckets[key] = current
	return Result{OK: true, Remaining: limit - current.count, Reset: current.resetAt.Sub(now)}
}

// ClientIP extracts the caller address for rate-limit keying, honoring
// forwarding proxies.
func ClientIP(r *http.Request) string {
	if forwarded := r.Header.Get("X-Forwarded-For"); forwarded != "" {
		return strings.TrimSpace(strings.Split(forwarded, ",")[0])
	}
	if realIP := r.Header.Get("X-Real-IP"); realIP != "" {
		return realIP
	}
	return r.RemoteAddr
}
