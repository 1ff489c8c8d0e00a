/*
ratelimit.go - Per-client request throttling

PURPOSE:
  Protects the API from request floods. One token-bucket limiter per
  client key (remote address, since identity is established upstream),
  created lazily and kept in a mutex-guarded map.

  This is transport-level throttling only. The domain-level purchase
  cooldown lives in shop/cooldown.go and has its own semantics.

SEE ALSO:
  - server.go: Mounts this middleware
*/
package api

import (
	"net/http"
	"sync"

	"golang.org/x/time/rate"
)

// RateLimiter provides per-client rate limiting.
type RateLimiter struct {
	limiters map[string]*rate.Limiter
	mu       sync.Mutex
	rate     rate.Limit
	burst    int
}

// NewRateLimiter creates a limiter allowing requestsPerSecond sustained
// with the given burst per client.
func NewRateLimiter(requestsPerSecond, burst int) *RateLimiter {
	return &RateLimiter{
		limiters: make(map[string]*rate.Limiter),
		rate:     rate.Limit(requestsPerSecond),
		burst:    burst,
	}
}

func (rl *RateLimiter) limiter(key string) *rate.Limiter {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	l, ok := rl.limiters[key]
	if !ok {
		l = rate.NewLimiter(rl.rate, rl.burst)
		rl.limiters[key] = l
	}
	return l
}

// Handler returns the rate limiting middleware.
func (rl *RateLimiter) Handler(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !rl.limiter(r.RemoteAddr).Allow() {
			writeError(w, http.StatusTooManyRequests, "Rate limit exceeded", nil)
			return
		}
		next.ServeHTTP(w, r)
	})
}
