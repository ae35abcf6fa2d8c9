package middleware

import (
	"fmt"
	"net"
	"net/http"
	"strings"
	"sync"
	"time"
)

// RateLimiter is an in-memory sliding-window limiter keyed by caller IP.
// The read-then-append under one lock keeps a single process exact; across
// replicas the limit is a soft abuse guard, not a correctness mechanism.
type RateLimiter struct {
	mu          sync.Mutex
	clients     map[string][]time.Time
	limit       int
	window      time.Duration
	cleanupTick time.Duration
}

func NewRateLimiter(limit int, window time.Duration) *RateLimiter {
	rl := &RateLimiter{
		clients:     make(map[string][]time.Time),
		limit:       limit,
		window:      window,
		cleanupTick: window * 2,
	}
	go rl.cleanup()
	return rl
}

func (rl *RateLimiter) cleanup() {
	ticker := time.NewTicker(rl.cleanupTick)
	defer ticker.Stop()

	for range ticker.C {
		rl.mu.Lock()
		cutoff := time.Now().Add(-rl.window)
		for key, stamps := range rl.clients {
			kept := pruneBefore(stamps, cutoff)
			if len(kept) == 0 {
				delete(rl.clients, key)
			} else {
				rl.clients[key] = kept
			}
		}
		rl.mu.Unlock()
	}
}

// Allow records an attempt for key and reports whether it fits the window.
func (rl *RateLimiter) Allow(key string) bool {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	now := time.Now()
	stamps := pruneBefore(rl.clients[key], now.Add(-rl.window))

	if len(stamps) >= rl.limit {
		rl.clients[key] = stamps
		return false
	}

	rl.clients[key] = append(stamps, now)
	return true
}

// Remaining returns how many attempts key has left in the current window.
func (rl *RateLimiter) Remaining(key string) int {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	stamps := pruneBefore(rl.clients[key], time.Now().Add(-rl.window))
	remaining := rl.limit - len(stamps)
	if remaining < 0 {
		return 0
	}
	return remaining
}

func pruneBefore(stamps []time.Time, cutoff time.Time) []time.Time {
	idx := 0
	for idx < len(stamps) && !stamps[idx].After(cutoff) {
		idx++
	}
	return stamps[idx:]
}

// RateLimit rejects callers that exceed the limiter before any request body
// work happens.
func RateLimit(limiter *RateLimiter) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			key := clientIP(r)

			if !limiter.Allow(key) {
				w.Header().Set("Retry-After", fmt.Sprintf("%d", int(limiter.window.Seconds())))
				writeError(w, http.StatusTooManyRequests, "Too many upload attempts. Please try again later.")
				return
			}

			w.Header().Set("X-RateLimit-Limit", fmt.Sprintf("%d", limiter.limit))
			w.Header().Set("X-RateLimit-Remaining", fmt.Sprintf("%d", limiter.Remaining(key)))

			next.ServeHTTP(w, r)
		})
	}
}

func clientIP(r *http.Request) string {
	if fwd := r.Header.Get("X-Forwarded-For"); fwd != "" {
		parts := strings.Split(fwd, ",")
		return strings.TrimSpace(parts[0])
	}

	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
