package middleware

import (
	"context"
	"net/http"

	"github.com/google/uuid"
)

type contextKey struct{}

const (
	requestIDHeader   = "X-Request-ID"
	maxRequestIDBytes = 64
)

// RequestID propagates a caller supplied X-Request-ID or assigns a fresh one.
// Supplied values that are too long or contain characters outside
// [A-Za-z0-9._-] are replaced.
func RequestID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		rid := r.Header.Get(requestIDHeader)
		if !validRequestID(rid) {
			rid = uuid.NewString()
		}
		w.Header().Set(requestIDHeader, rid)
		next.ServeHTTP(w, r.WithContext(WithRequestID(r.Context(), rid)))
	})
}

func WithRequestID(ctx context.Context, rid string) context.Context {
	return context.WithValue(ctx, contextKey{}, rid)
}

func RequestIDFromContext(ctx context.Context) string {
	if v, ok := ctx.Value(contextKey{}).(string); ok {
		return v
	}
	return ""
}

func validRequestID(rid string) bool {
	if rid == "" || len(rid) > maxRequestIDBytes {
		return false
	}
	for i := 0; i < len(rid); i++ {
		c := rid[i]
		switch {
		case c >= 'a' && c <= 'z', c >= 'A' && c <= 'Z', c >= '0' && c <= '9', c == '-', c == '_', c == '.':
		default:
			return false
		}
	}
	return true
}
