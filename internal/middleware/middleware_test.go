package middleware

import (
	"bytes"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/rs/zerolog"
)

func TestCORS(t *testing.T) {
	tests := []struct {
		name    string
		allowed []string
		origin  string
		want    string
	}{
		{name: "listed", allowed: []string{"http://app"}, origin: "http://app", want: "http://app"},
		{name: "unlisted", allowed: []string{"http://app"}, origin: "http://evil", want: ""},
		{name: "wildcard", allowed: []string{"*"}, origin: "http://any", want: "*"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := CORS(tt.allowed)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
			req := httptest.NewRequest(http.MethodGet, "/health", nil)
			req.Header.Set("Origin", tt.origin)
			rec := httptest.NewRecorder()
			h.ServeHTTP(rec, req)
			if got := rec.Header().Get("Access-Control-Allow-Origin"); got != tt.want {
				t.Fatalf("Allow-Origin = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestCORSPreflight(t *testing.T) {
	called := false
	h := CORS([]string{"*"})(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) { called = true }))
	req := httptest.NewRequest(http.MethodOptions, "/generate", nil)
	req.Header.Set("Origin", "http://app")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	if rec.Code != http.StatusNoContent || called {
		t.Fatalf("status = %d called = %v", rec.Code, called)
	}
}

func TestRequestIDAndLogger(t *testing.T) {
	var buf bytes.Buffer
	logger := zerolog.New(&buf)
	var seen string
	h := RequestID(Logger(logger)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = RequestIDFromContext(r.Context())
		w.WriteHeader(http.StatusTeapot)
	})))
	req := httptest.NewRequest(http.MethodGet, "/credits", nil)
	req.Header.Set("X-Request-ID", "rid-1")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	if seen != "rid-1" || rec.Header().Get("X-Request-ID") != "rid-1" {
		t.Fatalf("request id = %q header = %q", seen, rec.Header().Get("X-Request-ID"))
	}
	line := buf.String()
	for _, want := range []string{`"request_id":"rid-1"`, `"status":418`, `"path":"/credits"`} {
		if !strings.Contains(line, want) {
			t.Fatalf("log line %q missing %s", line, want)
		}
	}
}

func TestRequestIDReplacesInvalidHeader(t *testing.T) {
	tests := []struct {
		in   string
		keep bool
	}{
		{in: "abc-123_x.y", keep: true},
		{in: "", keep: false},
		{in: "has space", keep: false},
		{in: "line\nbreak", keep: false},
		{in: strings.Repeat("a", 65), keep: false},
	}
	for _, tt := range tests {
		var seen string
		h := RequestID(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			seen = RequestIDFromContext(r.Context())
		}))
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.Header.Set("X-Request-ID", tt.in)
		h.ServeHTTP(httptest.NewRecorder(), req)
		if tt.keep && seen != tt.in {
			t.Errorf("%q replaced by %q", tt.in, seen)
		}
		if !tt.keep && (seen == tt.in || len(seen) != 36) {
			t.Errorf("%q kept as %q", tt.in, seen)
		}
	}
}
