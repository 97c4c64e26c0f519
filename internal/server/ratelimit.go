package server

import (
	"math"
	"net"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"golang.org/x/time/rate"

	"skillmatch/internal/errors"
)

const limiterCleanupInterval = 10 * time.Minute

// clientBucket is the token bucket of one client key
type clientBucket struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// LimiterManager keeps one token bucket per client key (IP or API key)
type LimiterManager struct {
	mu       sync.Mutex
	clients  map[string]*clientBucket
	rate     rate.Limit
	burst    int
	rejected atomic.Int64
	done     chan struct{}
	once     sync.Once
	logger   *errors.Logger
}

// RateLimiter is the limiter used by the HTTP middleware
type RateLimiter = LimiterManager

// NewRateLimiter creates a manager allowing requests per window with the
// given burst. A zero window means one minute.
func NewRateLimiter(requests int, window time.Duration, burstCapacity int, logger *errors.Logger) *LimiterManager {
	if window <= 0 {
		window = time.Minute
	}

	m := &LimiterManager{
		clients: make(map[string]*clientBucket),
		rate:    rate.Limit(float64(requests) / window.Seconds()),
		burst:   burstCapacity,
		done:    make(chan struct{}),
		logger:  logger,
	}

	go m.cleanupRoutine(limiterCleanupInterval)
	return m
}

// GetLimiter returns the bucket for key, creating it on first use
func (m *LimiterManager) GetLimiter(key string) *rate.Limiter {
	m.mu.Lock()
	defer m.mu.Unlock()

	bucket, ok := m.clients[key]
	if !ok {
		bucket = &clientBucket{limiter: rate.NewLimiter(m.rate, m.burst)}
		m.clients[key] = bucket
	}
	bucket.lastSeen = time.Now()
	return bucket.limiter
}

// Allow takes a token for key. When none is available it reports how long
// until one is.
func (m *LimiterManager) Allow(key string) (bool, time.Duration) {
	reservation := m.GetLimiter(key).Reserve()
	if !reservation.OK() {
		m.rejected.Add(1)
		return false, time.Minute
	}
	if delay := reservation.Delay(); delay > 0 {
		reservation.Cancel()
		m.rejected.Add(1)
		return false, delay
	}
	return true, 0
}

// GetStats returns current rate limiter statistics
func (m *LimiterManager) GetStats() map[string]any {
	m.mu.Lock()
	active := len(m.clients)
	m.mu.Unlock()

	return map[string]any{
		"enabled":           true,
		"active_limiters":   active,
		"rate_per_second":   float64(m.rate),
		"rate_per_minute":   float64(m.rate) * 60.0,
		"burst_capacity":    m.burst,
		"rejected_requests": m.rejected.Load(),
	}
}

func (m *LimiterManager) cleanupRoutine(interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			m.cleanup(interval)
		case <-m.done:
			return
		}
	}
}

// cleanup drops buckets idle for longer than maxIdle
func (m *LimiterManager) cleanup(maxIdle time.Duration) {
	m.mu.Lock()
	defer m.mu.Unlock()

	cutoff := time.Now().Add(-maxIdle)
	for key, bucket := range m.clients {
		if bucket.lastSeen.Before(cutoff) {
			delete(m.clients, key)
		}
	}

	if m.logger != nil {
		m.logger.Debug("Rate limiter cleanup completed", "remaining_limiters", len(m.clients))
	}
}

// Close stops the cleanup goroutine. It is safe to call more than once.
func (m *LimiterManager) Close() {
	m.once.Do(func() { close(m.done) })
}

// rateLimitMiddleware rejects requests whose key has exhausted its bucket
func (s *Server) rateLimitMiddleware() func(http.HandlerFunc) http.HandlerFunc {
	if s.RateLimit == nil || !s.RateLimit.Enabled || s.RateLimiter == nil {
		return func(next http.HandlerFunc) http.HandlerFunc { return next }
	}

	return func(next http.HandlerFunc) http.HandlerFunc {
		return func(w http.ResponseWriter, r *http.Request) {
			rateLimitKey := getRateLimitKey(r, s.RateLimit.ByAPIKey, s.RateLimit.ByIP)
			if rateLimitKey == "" {
				next(w, r)
				return
			}

			allowed, retryAfter := s.RateLimiter.Allow(rateLimitKey)
			if !allowed {
				kind := limiterKind(rateLimitKey)
				s.Logger.Info("Rate limit exceeded",
					"key_type", kind,
					"endpoint", r.URL.Path,
					"client_ip", getClientIP(r),
					"retry_after", retryAfter.String())
				s.metrics.RecordRateLimitHit(r.Context(), kind)
				w.Header().Set("Retry-After", strconv.Itoa(int(math.Ceil(retryAfter.Seconds()))))
				writeErrorResponse(w, "Rate limit exceeded", "Too many requests", http.StatusTooManyRequests)
				return
			}

			next(w, r)
		}
	}
}

// getRateLimitKey picks the API key when per-key limiting is on and a key
// is present, otherwise the client IP
func getRateLimitKey(r *http.Request, byAPIKey, byIP bool) string {
	if byAPIKey {
		if apiKey := apiKeyFromRequest(r); apiKey != "" {
			return "api:" + apiKey
		}
	}

	if byIP {
		return "ip:" + getClientIP(r)
	}

	return ""
}

// limiterKind labels a rate limit key for logs and metrics without exposing it
func limiterKind(key string) string {
	if strings.HasPrefix(key, "api:") {
		return "api_key"
	}
	return "ip"
}

// getClientIP extracts the client IP address from the request
func getClientIP(r *http.Request) string {
	if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
		if ip := parseFirstIP(xff); ip != "" {
			return ip
		}
	}

	if xri := r.Header.Get("X-Real-IP"); xri != "" {
		if ip := net.ParseIP(xri); ip != nil {
			return xri
		}
	}

	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}

// parseFirstIP parses the first valid IP from a comma-separated list
func parseFirstIP(ips string) string {
	for ip := range strings.SplitSeq(ips, ",") {
		ip = strings.TrimSpace(ip)
		if parsed := net.ParseIP(ip); parsed != nil {
			return ip
		}
	}
	return ""
}
