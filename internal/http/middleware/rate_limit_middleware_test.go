package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	miniredis "github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
)

func performFrom(h http.Handler, remoteAddr string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.RemoteAddr = remoteAddr
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)
	return rr
}

func okHandler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	})
}

func TestLocalLimiterDeniesOverLimit(t *testing.T) {
	h := NewRateLimiter(2, time.Minute, "test").Middleware()(okHandler())

	for i := 0; i < 2; i++ {
		if rr := performFrom(h, "1.2.3.4:1000"); rr.Code != http.StatusNoContent {
			t.Fatalf("request %d: expected 204, got %d", i+1, rr.Code)
		}
	}
	rr := performFrom(h, "1.2.3.4:1000")
	if rr.Code != http.StatusTooManyRequests {
		t.Fatalf("expected 429 over limit, got %d", rr.Code)
	}
	if rr.Header().Get("Retry-After") == "" {
		t.Fatal("expected Retry-After header on 429")
	}
	if rr.Header().Get("X-RateLimit-Remaining") != "0" {
		t.Fatalf("expected remaining 0, got %q", rr.Header().Get("X-RateLimit-Remaining"))
	}
}

func TestLocalLimiterKeysByClientIP(t *testing.T) {
	h := NewRateLimiter(1, time.Minute, "test").Middleware()(okHandler())

	if rr := performFrom(h, "1.2.3.4:1000"); rr.Code != http.StatusNoContent {
		t.Fatalf("first client: expected 204, got %d", rr.Code)
	}
	if rr := performFrom(h, "1.2.3.4:2000"); rr.Code != http.StatusTooManyRequests {
		t.Fatalf("same ip different port: expected 429, got %d", rr.Code)
	}
	if rr := performFrom(h, "5.6.7.8:1000"); rr.Code != http.StatusNoContent {
		t.Fatalf("other client: expected 204, got %d", rr.Code)
	}
}

func TestRedisLimiterSharedWindow(t *testing.T) {
	server := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: server.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	limiter := NewRedisFixedWindowLimiter(client, "test")
	// two middleware instances sharing one backend, as two replicas would
	a := NewDistributedRateLimiter(limiter, 2, time.Minute, FailClosed, "auth").Middleware()(okHandler())
	b := NewDistributedRateLimiter(limiter, 2, time.Minute, FailClosed, "auth").Middleware()(okHandler())

	if rr := performFrom(a, "1.2.3.4:1000"); rr.Code != http.StatusNoContent {
		t.Fatalf("replica a: expected 204, got %d", rr.Code)
	}
	if rr := performFrom(b, "1.2.3.4:1000"); rr.Code != http.StatusNoContent {
		t.Fatalf("replica b: expected 204, got %d", rr.Code)
	}
	if rr := performFrom(a, "1.2.3.4:1000"); rr.Code != http.StatusTooManyRequests {
		t.Fatalf("expected shared window exhausted, got %d", rr.Code)
	}
}

func TestRedisLimiterFailureModes(t *testing.T) {
	server := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: server.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	limiter := NewRedisFixedWindowLimiter(client, "test")

	open := NewDistributedRateLimiter(limiter, 1, time.Minute, FailOpen, "auth").Middleware()(okHandler())
	closed := NewDistributedRateLimiter(limiter, 1, time.Minute, FailClosed, "auth").Middleware()(okHandler())

	server.Close()

	if rr := performFrom(open, "1.2.3.4:1000"); rr.Code != http.StatusNoContent {
		t.Fatalf("fail open: expected 204 with backend down, got %d", rr.Code)
	}
	if rr := performFrom(closed, "1.2.3.4:1000"); rr.Code != http.StatusTooManyRequests {
		t.Fatalf("fail closed: expected 429 with backend down, got %d", rr.Code)
	}
}
