package httpapi

import (
	"net/http"
	"net/http/httptest"
	"strconv"
	"testing"
	"time"

	"github.com/erauner12/openadr-vtn/internal/auth"
)

func newAuthedRequest(t *testing.T, mgr *auth.Manager, subject string) *http.Request {
	t.Helper()
	token, err := mgr.Create(time.Hour, subject, nil)
	if err != nil {
		t.Fatalf("create token: %v", err)
	}
	req := httptest.NewRequest("GET", "/programs", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	return req
}

func TestRateLimitMiddleware_BurstThenTooManyRequests(t *testing.T) {
	mgr := auth.NewManager(auth.Config{HS256Secret: "test-secret", DevMode: true})
	limiter := RateLimitMiddleware(RateLimitInfo{WindowSeconds: 60, MaxRequests: 10, Burst: 2})

	next := limiter(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))
	authed := auth.Middleware(mgr)(next)

	for i := 1; i <= 3; i++ {
		rec := httptest.NewRecorder()
		authed.ServeHTTP(rec, newAuthedRequest(t, mgr, "test-user"))

		if i <= 2 {
			if rec.Code == http.StatusTooManyRequests {
				t.Errorf("request %d: expected success within burst, got 429", i)
			}
		} else if rec.Code != http.StatusTooManyRequests {
			t.Errorf("request %d: expected 429, got %d", i, rec.Code)
		}

		for _, h := range []string{"X-RateLimit-Limit", "X-RateLimit-Remaining", "X-RateLimit-Reset", "X-RateLimit-Burst"} {
			if rec.Header().Get(h) == "" {
				t.Errorf("request %d: missing header %s", i, h)
			}
		}
	}
}

func TestRateLimitMiddleware_PerUserIsolation(t *testing.T) {
	mgr := auth.NewManager(auth.Config{HS256Secret: "test-secret", DevMode: true})
	limiter := RateLimitMiddleware(RateLimitInfo{WindowSeconds: 60, MaxRequests: 10, Burst: 2})

	next := limiter(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))
	authed := auth.Middleware(mgr)(next)

	for i := 0; i < 3; i++ {
		rec := httptest.NewRecorder()
		authed.ServeHTTP(rec, newAuthedRequest(t, mgr, "user-a"))
	}

	recA := httptest.NewRecorder()
	authed.ServeHTTP(recA, newAuthedRequest(t, mgr, "user-a"))
	if recA.Code != http.StatusTooManyRequests {
		t.Errorf("expected user-a rate limited, got %d", recA.Code)
	}

	recB := httptest.NewRecorder()
	authed.ServeHTTP(recB, newAuthedRequest(t, mgr, "user-b"))
	if recB.Code == http.StatusTooManyRequests {
		t.Errorf("expected user-b unaffected by user-a's limit, got 429")
	}
	remainingB, _ := strconv.Atoi(recB.Header().Get("X-RateLimit-Remaining"))
	if remainingB <= 0 {
		t.Errorf("expected user-b to still have tokens, got remaining=%d", remainingB)
	}
}

func TestRateLimitMiddleware_SkipsUnauthenticated(t *testing.T) {
	limiter := RateLimitMiddleware(RateLimitInfo{WindowSeconds: 60, MaxRequests: 1, Burst: 1})
	next := limiter(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	for i := 0; i < 3; i++ {
		rec := httptest.NewRecorder()
		next.ServeHTTP(rec, httptest.NewRequest("GET", "/programs", nil))
		if rec.Code != http.StatusOK {
			t.Errorf("request %d: unauthenticated requests should never be rate limited, got %d", i, rec.Code)
		}
	}
}
