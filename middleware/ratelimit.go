package middleware

import (
	"net/http"
	"sync"
	"time"

	"github.com/patrickmn/go-cache"
	"golang.org/x/time/rate"
)

// RateLimiter keeps a token bucket per client IP. Buckets idle for
// longer than an hour are evicted.
type RateLimiter struct {
	limiters *cache.Cache
	mu       sync.Mutex
	requests int
	window   time.Duration
	proxies  TrustedProxies
}

// NewRateLimiter allows requests per window for each IP.
func NewRateLimiter(requests int, window time.Duration) *RateLimiter {
	if requests <= 0 {
		requests = 1
	}
	if window <= 0 {
		window = time.Minute
	}
	return &RateLimiter{
		limiters: cache.New(time.Hour, 10*time.Minute),
		requests: requests,
		window:   window,
	}
}

// TrustProxies makes the limiter key requests from these proxies by the
// forwarded client address instead of the proxy's own.
func (rl *RateLimiter) TrustProxies(p TrustedProxies) *RateLimiter {
	rl.proxies = p
	return rl
}

// GetLimiter returns the limiter for ip, creating it on first use.
func (rl *RateLimiter) GetLimiter(ip string) *rate.Limiter {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	if v, ok := rl.limiters.Get(ip); ok {
		limiter := v.(*rate.Limiter)
		rl.limiters.SetDefault(ip, limiter)
		return limiter
	}
	ratePerSecond := float64(rl.requests) / rl.window.Seconds()
	limiter := rate.NewLimiter(rate.Limit(ratePerSecond), rl.requests)
	rl.limiters.SetDefault(ip, limiter)
	return limiter
}

// Middleware returns the rate limiting middleware.
func (rl *RateLimiter) Middleware() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if !rl.GetLimiter(rl.proxies.ClientIP(r)).Allow() {
				w.Header().Set("Retry-After", "1")
				writeError(w, "Rate limit exceeded. Please try again later.", http.StatusTooManyRequests)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
