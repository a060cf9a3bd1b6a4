package mw

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/MrSnakeDoc/pulsepage/internal/logger"
)

func TestPublicHost(t *testing.T) {
	tests := []struct {
		name     string
		base     string
		host     string
		expected string
	}{
		{name: "page host", base: "status.test", host: "acme.status.test", expected: "acme"},
		{name: "port and case", base: "status.test", host: "Acme.Status.Test:8080", expected: "acme"},
		{name: "base itself", base: "status.test", host: "status.test", expected: ""},
		{name: "nested subdomain", base: "status.test", host: "a.b.status.test", expected: ""},
		{name: "suffix lookalike", base: "status.test", host: "acmestatus.test", expected: ""},
		{name: "foreign host", base: "status.test", host: "acme.example.com", expected: ""},
		{name: "disabled", base: "", host: "acme.status.test", expected: ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var got string
			h := PublicHost(tt.base, logger.NewNop())(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				got, _ = SubdomainFrom(r.Context())
			}))

			req := httptest.NewRequest(http.MethodGet, "/api/public", nil)
			req.Host = tt.host
			h.ServeHTTP(httptest.NewRecorder(), req)

			if got != tt.expected {
				t.Errorf("PublicHost(%q) on %q = %q, want %q", tt.base, tt.host, got, tt.expected)
			}
		})
	}
}

func TestRateLimit(t *testing.T) {
	h := RateLimit(RateLimitConfig{Burst: 2, RefillPerIPPerMin: 1}, logger.NewNop())(
		http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) { w.WriteHeader(http.StatusOK) }))

	codes := make([]int, 0, 3)
	for i := 0; i < 3; i++ {
		req := httptest.NewRequest(http.MethodGet, "/api/public/acme", nil)
		req.RemoteAddr = "198.51.100.7:4000"
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)
		codes = append(codes, rec.Code)

		if i == 2 && rec.Header().Get("Retry-After") == "" {
			t.Error("throttled response has no Retry-After")
		}
	}

	want := []int{http.StatusOK, http.StatusOK, http.StatusTooManyRequests}
	for i := range want {
		if codes[i] != want[i] {
			t.Errorf("request %d = %d, want %d", i+1, codes[i], want[i])
		}
	}

	// Another client has its own bucket.
	req := httptest.NewRequest(http.MethodGet, "/api/public/acme", nil)
	req.RemoteAddr = "198.51.100.8:4000"
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Errorf("other client = %d, want 200", rec.Code)
	}
}

func TestCORS(t *testing.T) {
	called := false
	h := CORS()(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) { called = true }))

	preflight := httptest.NewRequest(http.MethodOptions, "/api/public/acme", nil)
	preflight.Header.Set("Origin", "https://example.com")
	preflight.Header.Set("Access-Control-Request-Method", http.MethodGet)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, preflight)
	if rec.Code != http.StatusOK || called {
		t.Errorf("preflight = %d, handler called = %v", rec.Code, called)
	}
	if got := rec.Header().Get("Access-Control-Allow-Methods"); got != http.MethodGet {
		t.Errorf("Access-Control-Allow-Methods = %q, want GET", got)
	}

	get := httptest.NewRequest(http.MethodGet, "/api/public/acme", nil)
	get.Header.Set("Origin", "https://example.com")
	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, get)
	if !called || rec.Header().Get("Access-Control-Allow-Origin") != "*" {
		t.Errorf("GET handler called = %v, headers = %v", called, rec.Header())
	}

	// Unsafe methods are not allowed cross-origin.
	called = false
	preflight = httptest.NewRequest(http.MethodOptions, "/api/public/acme", nil)
	preflight.Header.Set("Origin", "https://example.com")
	preflight.Header.Set("Access-Control-Request-Method", http.MethodDelete)
	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, preflight)
	if got := rec.Header().Get("Access-Control-Allow-Origin"); got != "" || called {
		t.Errorf("DELETE preflight Allow-Origin = %q, handler called = %v", got, called)
	}
}

func TestAllowOnlyCIDRS(t *testing.T) {
	h := AllowOnlyCIDRS([]string{"10.0.0.0/8"}, false, logger.NewNop())(
		http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) { w.WriteHeader(http.StatusOK) }))

	tests := []struct {
		name       string
		remote     string
		wantStatus int
	}{
		{name: "inside range", remote: "10.1.2.3:5000", wantStatus: http.StatusOK},
		{name: "outside range", remote: "203.0.113.9:5000", wantStatus: http.StatusForbidden},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/api/draft", nil)
			req.RemoteAddr = tt.remote
			rec := httptest.NewRecorder()
			h.ServeHTTP(rec, req)
			if rec.Code != tt.wantStatus {
				t.Errorf("AllowOnlyCIDRS(%s) = %d, want %d", tt.remote, rec.Code, tt.wantStatus)
			}
		})
	}
}

func TestIPLimiterEvictsIdleVisitors(t *testing.T) {
	l := newIPLimiter(RateLimitConfig{Burst: 1, RefillPerIPPerMin: 1, IdleTTL: time.Minute, SweepInterval: time.Hour})
	now := time.Now()

	if ok, _, _ := l.allow("198.51.100.7", now); !ok {
		t.Fatal("first request was throttled")
	}
	if ok, _, retry := l.allow("198.51.100.7", now); ok || retry < 1 {
		t.Fatalf("second request ok = %v, retry = %d, want throttled", ok, retry)
	}

	// After the sweep interval the idle bucket is dropped and the client starts fresh.
	later := now.Add(2 * time.Hour)
	if ok, _, _ := l.allow("198.51.100.9", later); !ok {
		t.Fatal("new client was throttled")
	}
	l.mu.Lock()
	_, kept := l.visitors["198.51.100.7"]
	l.mu.Unlock()
	if kept {
		t.Error("idle visitor was not evicted")
	}
}
