package httpx

import (
	"net"
	"net/http"
	"os"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/D-Arox/BluFox-Studio-sub000/pkg/slogx"
)

// RateLimitConfig defines a sliding-window limit: at most Limit attempts per
// key within any rolling Window.
type RateLimitConfig struct {
	Limit  int
	Window time.Duration
}

// Rate limit profiles for different endpoint types. Values can be overridden
// via environment variables, see ParseRateLimitFromEnv.
var (
	// StrictLimit for login and contact endpoints (brute force prevention).
	// Override with: RATELIMIT_STRICT_REQUESTS, RATELIMIT_STRICT_WINDOW_SEC
	StrictLimit = RateLimitConfig{Limit: 5, Window: time.Minute}

	// ModerateLimit for authenticated operations.
	// Override with: RATELIMIT_MODERATE_REQUESTS, RATELIMIT_MODERATE_WINDOW_SEC
	ModerateLimit = RateLimitConfig{Limit: 20, Window: time.Minute}

	// LenientLimit for less sensitive operations.
	// Override with: RATELIMIT_LENIENT_REQUESTS, RATELIMIT_LENIENT_WINDOW_SEC
	LenientLimit = RateLimitConfig{Limit: 100, Window: time.Minute}
)

func init() {
	StrictLimit = ParseRateLimitFromEnv("STRICT", StrictLimit)
	ModerateLimit = ParseRateLimitFromEnv("MODERATE", ModerateLimit)
	LenientLimit = ParseRateLimitFromEnv("LENIENT", LenientLimit)
}

// ParseRateLimitFromEnv reads a rate limit configuration from environment
// variables of the form RATELIMIT_{prefix}_REQUESTS and
// RATELIMIT_{prefix}_WINDOW_SEC, falling back to defaultConfig.
func ParseRateLimitFromEnv(prefix string, defaultConfig RateLimitConfig) RateLimitConfig {
	config := defaultConfig

	if val := os.Getenv("RATELIMIT_" + prefix + "_REQUESTS"); val != "" {
		if n, err := strconv.Atoi(val); err == nil && n > 0 {
			config.Limit = n
		}
	}
	if val := os.Getenv("RATELIMIT_" + prefix + "_WINDOW_SEC"); val != "" {
		if n, err := strconv.Atoi(val); err == nil && n > 0 {
			config.Window = time.Duration(n) * time.Second
		}
	}

	return config
}

// AttemptStore records attempt timestamps per key. Update must apply fn
// atomically with respect to other calls for the same key, which is what
// closes the read-modify-write race of a naive limiter. The default is an
// in-process store; a shared deployment would need a distributed
// implementation behind this interface.
type AttemptStore interface {
	// Update atomically replaces the timestamps recorded for key with the
	// slice returned by fn.
	Update(key string, fn func(prev []time.Time) []time.Time)
}

// memoryAttempts is the default mutex-guarded in-memory AttemptStore.
type memoryAttempts struct {
	mu        sync.Mutex
	hits      map[string][]time.Time
	lastSweep time.Time
}

func newMemoryAttempts() *memoryAttempts {
	return &memoryAttempts{hits: make(map[string][]time.Time), lastSweep: time.Now()}
}

func (m *memoryAttempts) Update(key string, fn func(prev []time.Time) []time.Time) {
	m.mu.Lock()
	defer m.mu.Unlock()

	next := fn(m.hits[key])
	if len(next) == 0 {
		delete(m.hits, key)
	} else {
		m.hits[key] = next
	}

	m.maybeSweep()
}

// maybeSweep drops keys whose every timestamp is stale so ephemeral keys
// don't accumulate forever. Caller holds the lock.
func (m *memoryAttempts) maybeSweep() {
	now := time.Now()
	if now.Sub(m.lastSweep) < 5*time.Minute {
		return
	}
	m.lastSweep = now

	cutoff := now.Add(-10 * time.Minute)
	for key, stamps := range m.hits {
		if len(stamps) == 0 || stamps[len(stamps)-1].Before(cutoff) {
			delete(m.hits, key)
		}
	}
}

// SlidingWindow counts attempts per key within a rolling window. Timestamps
// older than the window are pruned on every check. State is per-process.
type SlidingWindow struct {
	limit  int
	window time.Duration
	store  AttemptStore

	now func() time.Time // overridable in tests
}

// NewSlidingWindow returns a limiter backed by an in-memory AttemptStore.
func NewSlidingWindow(limit int, window time.Duration) *SlidingWindow {
	return NewSlidingWindowWithStore(limit, window, newMemoryAttempts())
}

// NewSlidingWindowWithStore returns a limiter over a caller-provided store.
func NewSlidingWindowWithStore(limit int, window time.Duration, store AttemptStore) *SlidingWindow {
	return &SlidingWindow{limit: limit, window: window, store: store, now: time.Now}
}

// Attempt records an attempt for key and reports whether it is allowed.
// It returns true at most limit times within any rolling window.
func (l *SlidingWindow) Attempt(key string) bool {
	now := l.now()
	cutoff := now.Add(-l.window)

	var allowed bool
	l.store.Update(key, func(prev []time.Time) []time.Time {
		kept := pruneBefore(prev, cutoff)
		if len(kept) < l.limit {
			allowed = true
			kept = append(kept, now)
		}
		return kept
	})
	return allowed
}

// Remaining reports how many attempts are left for key in the current window
// without recording one.
func (l *SlidingWindow) Remaining(key string) int {
	cutoff := l.now().Add(-l.window)

	var used int
	l.store.Update(key, func(prev []time.Time) []time.Time {
		kept := pruneBefore(prev, cutoff)
		used = len(kept)
		return kept
	})

	if used >= l.limit {
		return 0
	}
	return l.limit - used
}

// RetryAfter reports how long until the next attempt for key would be
// allowed. Zero means an attempt is allowed now.
func (l *SlidingWindow) RetryAfter(key string) time.Duration {
	now := l.now()
	cutoff := now.Add(-l.window)

	var oldest time.Time
	var used int
	l.store.Update(key, func(prev []time.Time) []time.Time {
		kept := pruneBefore(prev, cutoff)
		used = len(kept)
		if len(kept) > 0 {
			oldest = kept[0]
		}
		return kept
	})

	if used < l.limit {
		return 0
	}
	return oldest.Add(l.window).Sub(now)
}

func pruneBefore(stamps []time.Time, cutoff time.Time) []time.Time {
	kept := stamps[:0:len(stamps)]
	for _, t := range stamps {
		if t.After(cutoff) {
			kept = append(kept, t)
		}
	}
	return kept
}

// KeyExtractor derives the rate-limit key component from a request,
// typically the client IP.
type KeyExtractor func(*http.Request) string

// IPKeyExtractor returns the client IP, honouring X-Forwarded-For and
// X-Real-IP for proxied requests.
func IPKeyExtractor(r *http.Request) string {
	if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
		if first, _, found := strings.Cut(xff, ","); found || first != "" {
			return strings.TrimSpace(first)
		}
	}
	if xri := r.Header.Get("X-Real-IP"); xri != "" {
		return strings.TrimSpace(xri)
	}

	ip, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return ip
}

// defaultAttempts backs every RateLimit middleware, so routes that share an
// action name also share its budget.
var defaultAttempts = newMemoryAttempts()

// RateLimit limits requests per extracted key under the given action prefix.
// Keys follow the "<action>:<client>" convention so distinct actions get
// independent windows while routes naming the same action count together.
func RateLimit(action string, config RateLimitConfig, extractor KeyExtractor) Middleware {
	limiter := NewSlidingWindowWithStore(config.Limit, config.Window, defaultAttempts)

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			log := slogx.FromContext(r.Context())

			client := extractor(r)
			if client == "" {
				// No key to count against; allow but note it.
				log.Warn("rate limit: unable to extract key, allowing request", "action", action)
				next.ServeHTTP(w, r)
				return
			}
			key := action + ":" + client

			if !limiter.Attempt(key) {
				retryAfter := max(int(limiter.RetryAfter(key).Seconds()), 1)

				w.Header().Set("Retry-After", strconv.Itoa(retryAfter))
				w.Header().Set("X-RateLimit-Limit", strconv.Itoa(config.Limit))
				w.Header().Set("X-RateLimit-Window", config.Window.String())

				log.Warn("rate limit exceeded",
					"key", key,
					"endpoint", r.URL.Path,
					"retry_after", retryAfter,
				)

				WriteError(w, http.StatusTooManyRequests,
					"rate_limit_exceeded", "Too many requests. Please try again later.")
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

// RateLimitByIP limits requests per client IP under the given action prefix.
func RateLimitByIP(action string, config RateLimitConfig) Middleware {
	return RateLimit(action, config, IPKeyExtractor)
}
