package server

import (
	"log/slog"
	"net"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/mubeen425/beerbonk/internal/metrics"
	"golang.org/x/time/rate"
)

const (
	// staleLimiterTTL is how long a per-IP limiter can be idle before cleanup.
	staleLimiterTTL = 10 * time.Minute

	cleanupInterval = 1 * time.Minute
)

// Rule limits requests matching method and path prefix. An empty method or
// prefix matches anything.
type Rule struct {
	Method string
	Prefix string
	RPS    rate.Limit
	Burst  int
}

func (r Rule) label() string {
	if r.Prefix == "" {
		return "*"
	}
	return r.Prefix
}

// DefaultRules throttles purchases hard and reads loosely.
var DefaultRules = []Rule{
	{Method: http.MethodPost, Prefix: "/api/purchase", RPS: rate.Limit(6.0 / 60), Burst: 2}, // 6 req/min
	{Prefix: "/metrics", RPS: 1, Burst: 5},
	{RPS: 5, Burst: 20},
}

type limiterEntry struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// RateLimitMiddleware provides per-rule, per-IP rate limiting.
type RateLimitMiddleware struct {
	mu       sync.Mutex
	limiters map[string]*limiterEntry // key: "rule|clientIP"
	rules    []Rule
	logger   *slog.Logger
	nowFunc  func() time.Time
	stopOnce sync.Once
	stopCh   chan struct{}
}

// NewRateLimitMiddleware starts a background sweep of idle limiters.
// Call Stop to release it.
func NewRateLimitMiddleware(logger *slog.Logger, rules ...Rule) *RateLimitMiddleware {
	if logger == nil {
		logger = slog.Default()
	}
	if len(rules) == 0 {
		rules = DefaultRules
	}
	rl := &RateLimitMiddleware{
		limiters: make(map[string]*limiterEntry),
		rules:    rules,
		logger:   logger.With("component", "http_ratelimit"),
		nowFunc:  time.Now,
		stopCh:   make(chan struct{}),
	}

	go rl.cleanupLoop()
	return rl
}

// Stop shuts down the background cleanup goroutine. Safe to call multiple times.
func (rl *RateLimitMiddleware) Stop() {
	rl.stopOnce.Do(func() {
		close(rl.stopCh)
	})
}

func (rl *RateLimitMiddleware) cleanupLoop() {
	ticker := time.NewTicker(cleanupInterval)
	defer ticker.Stop()

	for {
		select {
		case <-rl.stopCh:
			return
		case <-ticker.C:
			rl.evictStale()
		}
	}
}

func (rl *RateLimitMiddleware) evictStale() {
	now := rl.nowFunc()
	rl.mu.Lock()
	defer rl.mu.Unlock()

	for key, entry := range rl.limiters {
		if now.Sub(entry.lastSeen) > staleLimiterTTL {
			delete(rl.limiters, key)
		}
	}
}

// LimiterCount returns the number of active limiter entries.
func (rl *RateLimitMiddleware) LimiterCount() int {
	rl.mu.Lock()
	defer rl.mu.Unlock()
	return len(rl.limiters)
}

// Wrap returns an http.Handler that applies per-IP rate limiting before delegating to next.
func (rl *RateLimitMiddleware) Wrap(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		rule, ok := rl.match(r.Method, r.URL.Path)
		if !ok {
			next.ServeHTTP(w, r)
			return
		}
		clientIP := extractClientIP(r)

		if !rl.limiterFor(rule, clientIP).Allow() {
			metrics.HTTPRateLimited.WithLabelValues(rl.rules[rule].label()).Inc()
			w.Header().Set("Retry-After", "10")
			writeJSON(w, http.StatusTooManyRequests, errorResponse{Error: "rate limit exceeded"})
			rl.logger.Warn("rate limit exceeded",
				"method", r.Method,
				"path", r.URL.Path,
				"client_ip", clientIP,
			)
			return
		}

		next.ServeHTTP(w, r)
	})
}

// extractClientIP checks, in order: X-Forwarded-For (first IP), X-Real-IP, then r.RemoteAddr.
func extractClientIP(r *http.Request) string {
	if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
		if idx := strings.IndexByte(xff, ','); idx != -1 {
			return strings.TrimSpace(xff[:idx])
		}
		return strings.TrimSpace(xff)
	}

	if xri := r.Header.Get("X-Real-IP"); xri != "" {
		return strings.TrimSpace(xri)
	}

	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}

func (rl *RateLimitMiddleware) match(method, path string) (int, bool) {
	for i, rule := range rl.rules {
		if rule.Method != "" && !strings.EqualFold(rule.Method, method) {
			continue
		}
		if rule.Prefix != "" && !strings.HasPrefix(path, rule.Prefix) {
			continue
		}
		return i, true
	}
	return 0, false
}

func (rl *RateLimitMiddleware) limiterFor(rule int, clientIP string) *rate.Limiter {
	key := rl.rules[rule].Method + ":" + rl.rules[rule].Prefix + "|" + clientIP
	now := rl.nowFunc()

	rl.mu.Lock()
	defer rl.mu.Unlock()

	if entry, ok := rl.limiters[key]; ok {
		entry.lastSeen = now
		return entry.limiter
	}

	limiter := rate.NewLimiter(rl.rules[rule].RPS, rl.rules[rule].Burst)
	rl.limiters[key] = &limiterEntry{limiter: limiter, lastSeen: now}
	return limiter
}
