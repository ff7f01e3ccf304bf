package httpserver

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/arvos-io/expiryledger/internal/telemetry/logger"
)

func TestExtractCredentials(t *testing.T) {
	tests := []struct {
		name       string
		headers    map[string]string
		wantKeyID  string
		wantSecret string
	}{
		{
			name: "bearer",
			headers: map[string]string{
				"Authorization": "Bearer elak-abc:elsk_secret",
			},
			wantKeyID:  "elak-abc",
			wantSecret: "elsk_secret",
		},
		{
			name: "separate headers",
			headers: map[string]string{
				"X-API-Key-ID": "elak-abc",
				"X-API-Key":    "elsk_secret",
			},
			wantKeyID:  "elak-abc",
			wantSecret: "elsk_secret",
		},
		{
			name: "bearer wins over headers",
			headers: map[string]string{
				"Authorization": "Bearer elak-one:elsk_one",
				"X-API-Key-ID":  "elak-two",
				"X-API-Key":     "elsk_two",
			},
			wantKeyID:  "elak-one",
			wantSecret: "elsk_one",
		},
		{
			name: "malformed bearer falls through",
			headers: map[string]string{
				"Authorization": "Bearer no-separator",
			},
		},
		{
			name: "none",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := httptest.NewRequest(http.MethodGet, "/", nil)
			for k, v := range tt.headers {
				r.Header.Set(k, v)
			}

			creds := extractCredentials(r)
			if creds.KeyID != tt.wantKeyID || creds.Secret != tt.wantSecret {
				t.Errorf("got (%q, %q), want (%q, %q)", creds.KeyID, creds.Secret, tt.wantKeyID, tt.wantSecret)
			}
		})
	}
}

func TestRequestIDMiddleware(t *testing.T) {
	var seen string
	inner := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = logger.RequestIDFromContext(r.Context())
	})

	rec := httptest.NewRecorder()
	RequestID()(inner).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))

	header := rec.Header().Get("X-Request-ID")
	if header == "" || !strings.HasPrefix(header, "req-") {
		t.Fatalf("X-Request-ID = %q", header)
	}
	if seen != header {
		t.Errorf("context request ID %q != header %q", seen, header)
	}

	// A caller-supplied ID is preserved.
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("X-Request-ID", "req-caller")
	rec = httptest.NewRecorder()
	RequestID()(inner).ServeHTTP(rec, req)
	if got := rec.Header().Get("X-Request-ID"); got != "req-caller" {
		t.Errorf("X-Request-ID = %q, want req-caller", got)
	}
}

func TestRecoverMiddleware(t *testing.T) {
	panics := http.HandlerFunc(func(http.ResponseWriter, *http.Request) {
		panic("boom")
	})

	rec := httptest.NewRecorder()
	Recover(logger.Default())(panics).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))

	if rec.Code != http.StatusInternalServerError {
		t.Fatalf("status = %d", rec.Code)
	}
	if got := rec.Header().Get("X-Error-Code"); got != "EL-SYS-5000" {
		t.Errorf("X-Error-Code = %q", got)
	}
}

func TestClientIP(t *testing.T) {
	tests := []struct {
		name       string
		remoteAddr string
		headers    map[string]string
		want       string
	}{
		{"remote addr", "10.0.0.1:4321", nil, "10.0.0.1"},
		{"ipv6 remote addr", "[::1]:4321", nil, "::1"},
		{"forwarded for", "10.0.0.1:4321", map[string]string{"X-Forwarded-For": "203.0.113.9, 10.0.0.2"}, "203.0.113.9"},
		{"real ip", "10.0.0.1:4321", map[string]string{"X-Real-IP": "203.0.113.7"}, "203.0.113.7"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := httptest.NewRequest(http.MethodGet, "/", nil)
			r.RemoteAddr = tt.remoteAddr
			for k, v := range tt.headers {
				r.Header.Set(k, v)
			}
			if got := clientIP(r); got != tt.want {
				t.Errorf("clientIP = %q, want %q", got, tt.want)
			}
		})
	}
}
