package server

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"
)

func TestGetTokenCost(t *testing.T) {
	tests := []struct {
		name         string
		path         string
		expectedCost int64
	}{
		{"Metrics endpoint", "/metrics", 0},
		{"Health endpoint", "/health", 1},
		{"Whole collection", "/templates", 10},
		{"Lookup by id", "/templates/io.camunda.connectors.HttpJson.v2", 2},
		{"Unknown path", "/other", 5},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, tt.path, nil)
			if got := getTokenCost(req); got != tt.expectedCost {
				t.Errorf("getTokenCost(%s) = %d, want %d", tt.path, got, tt.expectedCost)
			}
		})
	}
}

func TestRealIPMiddleware(t *testing.T) {
	tests := []struct {
		name       string
		headers    map[string]string
		remoteAddr string
		want       string
	}{
		{"single forwarded IP", map[string]string{"X-Forwarded-For": "203.0.113.7"}, "10.0.0.1:1234", "203.0.113.7"},
		{"first of many", map[string]string{"X-Forwarded-For": " 203.0.113.7 , 10.0.0.2"}, "10.0.0.1:1234", "203.0.113.7"},
		{"real IP header", map[string]string{"X-Real-IP": "198.51.100.4"}, "10.0.0.1:1234", "198.51.100.4"},
		{"no headers", nil, "10.0.0.1:1234", "10.0.0.1:1234"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var got string
			handler := RealIPMiddleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				got = r.RemoteAddr
			}))

			req := httptest.NewRequest(http.MethodGet, "/templates", nil)
			req.RemoteAddr = tt.remoteAddr
			for k, v := range tt.headers {
				req.Header.Set(k, v)
			}
			handler.ServeHTTP(httptest.NewRecorder(), req)

			if got != tt.want {
				t.Errorf("RemoteAddr = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestRateLimiterBlocksWhenExhausted(t *testing.T) {
	rl := NewRateLimiter(0.001, 20)
	handler := rl.Middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	send := func() *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodGet, "/templates", nil)
		req.RemoteAddr = "192.0.2.1:5555"
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)
		return rec
	}

	// Capacity 20 at cost 10 allows two requests
	for i := range 2 {
		rec := send()
		if rec.Code != http.StatusOK {
			t.Fatalf("Request %d: expected 200, got %d", i, rec.Code)
		}
		if rec.Header().Get("X-RateLimit-Limit") != "20" {
			t.Errorf("Expected limit header 20, got %q", rec.Header().Get("X-RateLimit-Limit"))
		}
	}

	rec := send()
	if rec.Code != http.StatusTooManyRequests {
		t.Fatalf("Expected 429, got %d", rec.Code)
	}
	if rec.Header().Get("Retry-After") != "60" || rec.Header().Get("X-RateLimit-Remaining") != "0" {
		t.Errorf("Unexpected headers on 429: %v", rec.Header())
	}

	// Another port on the same host shares the drained bucket
	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	req.RemoteAddr = "192.0.2.1:6666"
	other := httptest.NewRecorder()
	handler.ServeHTTP(other, req)
	if other.Code != http.StatusTooManyRequests {
		t.Errorf("Expected 429 for the same host on another port, got %d", other.Code)
	}

	// A different host has its own bucket
	req = httptest.NewRequest(http.MethodGet, "/health", nil)
	req.RemoteAddr = "192.0.2.2:5555"
	fresh := httptest.NewRecorder()
	handler.ServeHTTP(fresh, req)
	if fresh.Code != http.StatusOK {
		t.Errorf("Expected 200 for another client, got %d", fresh.Code)
	}
}

func TestRateLimiterCleanup(t *testing.T) {
	rl := NewRateLimiter(1, 10)

	rl.getBucket("a").TakeAvailable(5)
	rl.getBucket("b")

	// "a" needs seconds to refill; "b" is already full
	if removed := rl.cleanup(); removed != 1 {
		t.Errorf("Expected 1 idle client removed, got %d", removed)
	}

	rl.mu.RLock()
	_, stillThere := rl.clients["a"]
	rl.mu.RUnlock()
	if !stillThere {
		t.Error("Expected active client to be kept")
	}
}

func TestRateLimiterStopIsIdempotent(t *testing.T) {
	rl := NewRateLimiter(1, 1)
	rl.StartCleanup(time.Hour)
	rl.Stop()
	rl.Stop()
}

func TestValidateTemplateID(t *testing.T) {
	tests := []struct {
		id      string
		wantErr bool
	}{
		{"io.camunda.connectors.HttpJson.v2", false},
		{"slack_outbound-1", false},
		{"urn:camunda:aws", false},
		{"", true},
		{"has space", true},
		{"<script>", true},
		{strings.Repeat("a", 201), true},
	}

	for _, tt := range tests {
		err := validateTemplateID(tt.id)
		if (err != nil) != tt.wantErr {
			t.Errorf("validateTemplateID(%q) error = %v, wantErr %v", tt.id, err, tt.wantErr)
		}
	}
}
