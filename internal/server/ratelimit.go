package server

import (
	"net"
	"net/http"
	"strings"
	"sync"
	"time"

	"resumepilot/internal/errors"

	"golang.org/x/time/rate"
)

// defaultLimiterIdleEviction is how long a client can stay silent before its
// token bucket is dropped, when no window is configured.
const defaultLimiterIdleEviction = 10 * time.Minute

// RateLimiter keys token buckets by client identity. Keys are prefixed
// "api:" or "ip:" depending on which identity the request carried, so an
// API key shared across machines is throttled as one client while anonymous
// traffic is throttled per address.
type RateLimiter struct {
	mu       sync.Mutex
	limiters map[string]*rate.Limiter
	lastSeen map[string]time.Time

	perSecond rate.Limit
	burst     int
	idleAge   time.Duration

	done   chan struct{}
	logger *errors.Logger
}

// NewRateLimiter creates a limiter allowing requestsPerMin sustained requests
// with bursts up to burstCapacity. Buckets idle for longer than window are
// evicted by a background sweep; a zero window falls back to ten minutes.
func NewRateLimiter(requestsPerMin int, window time.Duration, burstCapacity int, logger *errors.Logger) *RateLimiter {
	idleAge := window
	if idleAge <= 0 {
		idleAge = defaultLimiterIdleEviction
	}

	rl := &RateLimiter{
		limiters:  make(map[string]*rate.Limiter),
		lastSeen:  make(map[string]time.Time),
		perSecond: rate.Limit(float64(requestsPerMin) / 60.0),
		burst:     burstCapacity,
		idleAge:   idleAge,
		done:      make(chan struct{}),
		logger:    logger,
	}

	go rl.sweepLoop()
	return rl
}

// Allow reports whether the client identified by key may proceed. Non-blocking.
func (rl *RateLimiter) Allow(key string) bool {
	rl.mu.Lock()
	limiter, ok := rl.limiters[key]
	if !ok {
		limiter = rate.NewLimiter(rl.perSecond, rl.burst)
		rl.limiters[key] = limiter
	}
	rl.lastSeen[key] = time.Now()
	rl.mu.Unlock()

	return limiter.Allow()
}

// GetStats reports limiter state for the /stats endpoint
func (rl *RateLimiter) GetStats() map[string]any {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	return map[string]any{
		"active_limiters": len(rl.limiters),
		"rate_per_second": float64(rl.perSecond),
		"rate_per_minute": float64(rl.perSecond) * 60.0,
		"burst_capacity":  rl.burst,
	}
}

func (rl *RateLimiter) sweepLoop() {
	ticker := time.NewTicker(rl.idleAge)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			rl.evictIdle()
		case <-rl.done:
			return
		}
	}
}

// evictIdle drops buckets whose clients have gone quiet so the limiter map
// does not grow without bound
func (rl *RateLimiter) evictIdle() {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	cutoff := time.Now().Add(-rl.idleAge)
	for key, seen := range rl.lastSeen {
		if seen.Before(cutoff) {
			delete(rl.limiters, key)
			delete(rl.lastSeen, key)
		}
	}

	if rl.logger != nil {
		rl.logger.Debug("Rate limiter sweep completed",
			"remaining_limiters", len(rl.limiters))
	}
}

// Close stops the background sweep. Called on server shutdown.
func (rl *RateLimiter) Close() {
	close(rl.done)
}

// rateLimitMiddleware throttles the pipeline endpoints per client identity.
// Requests that produce no identity (limiting by API key only, anonymous
// caller) pass through unthrottled; the auth middleware rejects them anyway.
func (s *Server) rateLimitMiddleware() func(http.HandlerFunc) http.HandlerFunc {
	if s.RateLimit == nil || !s.RateLimit.Enabled {
		return func(next http.HandlerFunc) http.HandlerFunc { return next }
	}

	return func(next http.HandlerFunc) http.HandlerFunc {
		return func(w http.ResponseWriter, r *http.Request) {
			key := getRateLimitKey(r, s.RateLimit.ByAPIKey, s.RateLimit.ByIP)
			if key == "" {
				next(w, r)
				return
			}

			if !s.RateLimiter.Allow(key) {
				s.Logger.Info("Rate limit exceeded",
					"key", key,
					"endpoint", r.URL.Path,
					"client_ip", getClientIP(r))
				writeErrorResponse(w, "Rate limit exceeded", "Too many requests", http.StatusTooManyRequests)
				return
			}

			next(w, r)
		}
	}
}

// getRateLimitKey derives the throttling identity for a request. The API key
// wins over the address when both modes are enabled, and the credential is
// read from the same headers the auth middleware accepts.
func getRateLimitKey(r *http.Request, byAPIKey, byIP bool) string {
	if byAPIKey {
		apiKey := r.Header.Get("X-API-Key")
		if apiKey == "" {
			if after, ok := strings.CutPrefix(r.Header.Get("Authorization"), "Bearer "); ok {
				apiKey = after
			}
		}
		if apiKey != "" {
			return "api:" + apiKey
		}
	}

	if byIP {
		return "ip:" + getClientIP(r)
	}

	return ""
}

// getClientIP resolves the originating address, preferring proxy headers
func getClientIP(r *http.Request) string {
	if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
		if ip := firstValidIP(xff); ip != "" {
			return ip
		}
	}

	if xri := r.Header.Get("X-Real-IP"); xri != "" {
		if net.ParseIP(xri) != nil {
			return xri
		}
	}

	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}

func firstValidIP(list string) string {
	for ip := range strings.SplitSeq(list, ",") {
		ip = strings.TrimSpace(ip)
		if net.ParseIP(ip) != nil {
			return ip
		}
	}
	return ""
}
