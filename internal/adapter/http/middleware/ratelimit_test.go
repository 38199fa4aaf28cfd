package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

func TestRateLimiterThrottlesPerIP(t *testing.T) {
	rl := NewRateLimiter(1, 1)

	handler := rl.Limit(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	send := func(addr string) int {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.RemoteAddr = addr
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)
		return rec.Code
	}

	if code := send("1.2.3.4:1234"); code != http.StatusOK {
		t.Fatalf("expected first request to pass, got %d", code)
	}
	if code := send("1.2.3.4:1234"); code != http.StatusTooManyRequests {
		t.Fatalf("expected second request to be throttled, got %d", code)
	}

	// A different client has its own budget.
	if code := send("5.6.7.8:1234"); code != http.StatusOK {
		t.Fatalf("expected unrelated client to pass, got %d", code)
	}
}

func TestGetIP(t *testing.T) {
	tests := []struct {
		name      string
		forwarded string
		realIP    string
		remote    string
		want      string
	}{
		{name: "remote addr fallback", remote: "9.9.9.9:1000", want: "9.9.9.9:1000"},
		{name: "x-real-ip", realIP: "2.2.2.2", remote: "9.9.9.9:1000", want: "2.2.2.2"},
		{name: "single forwarded hop", forwarded: "1.1.1.1", want: "1.1.1.1"},
		{name: "forwarded chain takes first hop", forwarded: "1.1.1.1, 10.0.0.1, 10.0.0.2", want: "1.1.1.1"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/", nil)
			if tt.forwarded != "" {
				req.Header.Set("X-Forwarded-For", tt.forwarded)
			}
			if tt.realIP != "" {
				req.Header.Set("X-Real-IP", tt.realIP)
			}
			if tt.remote != "" {
				req.RemoteAddr = tt.remote
			}

			if got := getIP(req); got != tt.want {
				t.Errorf("getIP() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestCleanupLimitersEvictsIdleClients(t *testing.T) {
	rl := NewRateLimiter(1, 1)

	rl.getLimiter("1.2.3.4")
	rl.getLimiter("5.6.7.8")

	// Age one client past the idle cutoff.
	rl.mu.Lock()
	rl.clients["1.2.3.4"].lastSeen = time.Now().Add(-limiterIdleTTL - time.Minute)
	rl.mu.Unlock()

	rl.CleanupLimiters()

	rl.mu.RLock()
	defer rl.mu.RUnlock()

	if _, ok := rl.clients["1.2.3.4"]; ok {
		t.Errorf("expected idle client to be evicted")
	}
	if _, ok := rl.clients["5.6.7.8"]; !ok {
		t.Errorf("expected active client to be kept")
	}
}
