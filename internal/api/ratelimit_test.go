package api

import (
	"net/http"
	"testing"
)

// TestIPRateLimiterAllow verifies burst exhaustion per IP
func TestIPRateLimiterAllow(t *testing.T) {
	rl := NewIPRateLimiter(RateLimitConfig{
		RequestsPerSecond: 1,
		Burst:             3,
	})
	defer rl.Stop()

	for i := 0; i < 3; i++ {
		if !rl.Allow("10.0.0.1") {
			t.Fatalf("Request %d within burst rejected", i)
		}
	}
	if rl.Allow("10.0.0.1") {
		t.Error("Request over burst allowed")
	}

	// Independent bucket per IP
	if !rl.Allow("10.0.0.2") {
		t.Error("Fresh IP rejected")
	}
}

// TestWebSocketRateLimiterPerIP verifies the connection slot counter
func TestWebSocketRateLimiterPerIP(t *testing.T) {
	wl := NewWebSocketRateLimiter(2)

	if !wl.Allow("10.0.0.1") || !wl.Allow("10.0.0.1") {
		t.Fatal("Connections under the limit rejected")
	}
	if wl.Allow("10.0.0.1") {
		t.Error("Connection over the per-IP limit allowed")
	}

	wl.Release("10.0.0.1")
	if !wl.Allow("10.0.0.1") {
		t.Error("Released slot not reusable")
	}
}

// TestGetClientIP verifies proxy header precedence
func TestGetClientIP(t *testing.T) {
	tests := []struct {
		name       string
		xff        string
		realIP     string
		remoteAddr string
		want       string
	}{
		{"forwarded chain", "1.2.3.4, 5.6.7.8", "", "9.9.9.9:1234", "1.2.3.4"},
		{"real ip", "", "5.6.7.8", "9.9.9.9:1234", "5.6.7.8"},
		{"remote addr", "", "", "9.9.9.9:1234", "9.9.9.9"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r, _ := http.NewRequest("GET", "/", nil)
			r.RemoteAddr = tt.remoteAddr
			if tt.xff != "" {
				r.Header.Set("X-Forwarded-For", tt.xff)
			}
			if tt.realIP != "" {
				r.Header.Set("X-Real-IP", tt.realIP)
			}
			if got := GetClientIP(r); got != tt.want {
				t.Errorf("GetClientIP = %q, want %q", got, tt.want)
			}
		})
	}
}

// TestIsAllowedOrigin verifies local development origins pass
func TestIsAllowedOrigin(t *testing.T) {
	tests := []struct {
		origin string
		want   bool
	}{
		{"http://localhost:3000", true},
		{"http://127.0.0.1:8080", true},
		{"https://evil.example.com", false},
		{"", false},
	}

	for _, tt := range tests {
		if got := IsAllowedOrigin(tt.origin); got != tt.want {
			t.Errorf("IsAllowedOrigin(%q) = %v, want %v", tt.origin, got, tt.want)
		}
	}
}
