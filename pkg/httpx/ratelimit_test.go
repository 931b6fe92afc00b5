package httpx_test

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/D-Arox/BluFox-Studio-sub000/pkg/httpx"
	"github.com/stretchr/testify/require"
)

func TestSlidingWindowAttempt(t *testing.T) {
	t.Run("allows exactly limit attempts per window", func(t *testing.T) {
		l := httpx.NewSlidingWindow(3, time.Minute)

		for i := range 3 {
			require.True(t, l.Attempt("login:203.0.113.4"), "attempt %d should pass", i)
		}
		require.False(t, l.Attempt("login:203.0.113.4"))
		require.False(t, l.Attempt("login:203.0.113.4"))
	})

	t.Run("keys are independent", func(t *testing.T) {
		l := httpx.NewSlidingWindow(1, time.Minute)

		require.True(t, l.Attempt("login:203.0.113.4"))
		require.False(t, l.Attempt("login:203.0.113.4"))
		require.True(t, l.Attempt("login:203.0.113.9"))
		require.True(t, l.Attempt("contact:203.0.113.4"))
	})

	t.Run("one slot returns after the oldest attempt leaves the window", func(t *testing.T) {
		l := httpx.NewSlidingWindow(2, 50*time.Millisecond)

		require.True(t, l.Attempt("k"))
		time.Sleep(30 * time.Millisecond)
		require.True(t, l.Attempt("k"))
		require.False(t, l.Attempt("k"))

		// First attempt expires, second is still inside the window.
		time.Sleep(30 * time.Millisecond)
		require.True(t, l.Attempt("k"))
		require.False(t, l.Attempt("k"))
	})
}

func TestSlidingWindowReadOnly(t *testing.T) {
	t.Run("remaining has no side effects", func(t *testing.T) {
		l := httpx.NewSlidingWindow(3, time.Minute)

		require.Equal(t, 3, l.Remaining("k"))
		require.Equal(t, 3, l.Remaining("k"))

		require.True(t, l.Attempt("k"))
		require.Equal(t, 2, l.Remaining("k"))
		require.Equal(t, 2, l.Remaining("k"))
	})

	t.Run("retry after is zero while under the limit", func(t *testing.T) {
		l := httpx.NewSlidingWindow(2, time.Minute)

		require.Zero(t, l.RetryAfter("k"))
		require.True(t, l.Attempt("k"))
		require.Zero(t, l.RetryAfter("k"))

		require.True(t, l.Attempt("k"))
		retry := l.RetryAfter("k")
		require.Greater(t, retry, time.Duration(0))
		require.LessOrEqual(t, retry, time.Minute)
	})
}

func TestIPKeyExtractor(t *testing.T) {
	t.Run("extracts from RemoteAddr", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.RemoteAddr = "192.168.1.1:12345"

		require.Equal(t, "192.168.1.1", httpx.IPKeyExtractor(req))
	})

	t.Run("prefers X-Forwarded-For", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.RemoteAddr = "192.168.1.1:12345"
		req.Header.Set("X-Forwarded-For", "203.0.113.1, 192.168.1.1")

		require.Equal(t, "203.0.113.1", httpx.IPKeyExtractor(req))
	})

	t.Run("uses X-Real-IP if X-Forwarded-For absent", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.RemoteAddr = "192.168.1.1:12345"
		req.Header.Set("X-Real-IP", "203.0.113.2")

		require.Equal(t, "203.0.113.2", httpx.IPKeyExtractor(req))
	})
}

func TestRateLimitMiddleware(t *testing.T) {
	newHandler := func() http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusOK)
		})
	}

	t.Run("allows requests under limit then rejects", func(t *testing.T) {
		cfg := httpx.RateLimitConfig{Limit: 2, Window: time.Minute}
		limited := httpx.RateLimitByIP("login", cfg)(newHandler())

		for range 2 {
			req := httptest.NewRequest(http.MethodGet, "/", nil)
			req.RemoteAddr = "203.0.113.4:1234"
			rec := httptest.NewRecorder()
			limited.ServeHTTP(rec, req)
			require.Equal(t, http.StatusOK, rec.Code)
		}

		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.RemoteAddr = "203.0.113.4:1234"
		rec := httptest.NewRecorder()
		limited.ServeHTTP(rec, req)

		require.Equal(t, http.StatusTooManyRequests, rec.Code)
		require.NotEmpty(t, rec.Header().Get("Retry-After"))
		require.Equal(t, "2", rec.Header().Get("X-RateLimit-Limit"))
		require.Contains(t, rec.Body.String(), "rate_limit_exceeded")
	})

	t.Run("separate IPs have separate windows", func(t *testing.T) {
		cfg := httpx.RateLimitConfig{Limit: 1, Window: time.Minute}
		limited := httpx.RateLimitByIP("contact", cfg)(newHandler())

		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.RemoteAddr = "203.0.113.40:1234"
		rec := httptest.NewRecorder()
		limited.ServeHTTP(rec, req)
		require.Equal(t, http.StatusOK, rec.Code)

		req2 := httptest.NewRequest(http.MethodGet, "/", nil)
		req2.RemoteAddr = "203.0.113.50:1234"
		rec2 := httptest.NewRecorder()
		limited.ServeHTTP(rec2, req2)
		require.Equal(t, http.StatusOK, rec2.Code)
	})

	t.Run("same action shares its budget across middlewares", func(t *testing.T) {
		cfg := httpx.RateLimitConfig{Limit: 1, Window: time.Minute}
		first := httpx.RateLimitByIP("signup", cfg)(newHandler())
		second := httpx.RateLimitByIP("signup", cfg)(newHandler())

		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.RemoteAddr = "203.0.113.60:1234"
		rec := httptest.NewRecorder()
		first.ServeHTTP(rec, req)
		require.Equal(t, http.StatusOK, rec.Code)

		req2 := httptest.NewRequest(http.MethodGet, "/", nil)
		req2.RemoteAddr = "203.0.113.60:1234"
		rec2 := httptest.NewRecorder()
		second.ServeHTTP(rec2, req2)
		require.Equal(t, http.StatusTooManyRequests, rec2.Code)
	})
}
