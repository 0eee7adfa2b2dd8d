package middleware

import (
	"context"
	"encoding/json"
	"net"
	"net/http"
	"strings"
)

// Admitter decides whether a client may proceed. *ratelimit.Limiter
// satisfies it.
type Admitter interface {
	Admit(ctx context.Context, clientKey string) bool
}

// RateLimit rejects requests the admitter denies with 429 before any handler
// work happens. The client key is X-Real-Ip when present (set by chi's RealIP
// middleware), else the remote host.
func RateLimit(limiter Admitter) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		if limiter == nil {
			return next
		}
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if !limiter.Admit(r.Context(), ClientKey(r)) {
				w.Header().Set("Content-Type", "application/json")
				w.WriteHeader(http.StatusTooManyRequests)
				_ = json.NewEncoder(w).Encode(map[string]any{
					"error":       "rate limit exceeded, try again later",
					"status_code": http.StatusTooManyRequests,
				})
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// ClientKey derives the rate-limit identity of a request.
func ClientKey(r *http.Request) string {
	if xri := strings.TrimSpace(r.Header.Get("X-Real-Ip")); xri != "" {
		return xri
	}
	if host, _, err := net.SplitHostPort(r.RemoteAddr); err == nil {
		return host
	}
	return r.RemoteAddr
}
