package ratelimit

import (
	"net/http"
	"strings"
)

// KeyFunc extracts a rate limit key from an HTTP request.
type KeyFunc func(r *http.Request) string

// IPKeyFunc uses the client IP as the rate limit key. This is the
// default.
func IPKeyFunc(r *http.Request) string {
	return ClientIP(r)
}

// HeaderKeyFunc keys on a header value, falling back to the client IP
// when the header is absent. Useful for per-API-key limiting.
func HeaderKeyFunc(header string) KeyFunc {
	return func(r *http.Request) string {
		if value := r.Header.Get(header); value != "" {
			return value
		}
		return ClientIP(r)
	}
}

// PathKeyFunc combines the request path with a base key so each
// endpoint gets its own window.
func PathKeyFunc(base KeyFunc) KeyFunc {
	return func(r *http.Request) string {
		return r.URL.Path + ":" + base(r)
	}
}

// CompositeKeyFunc joins multiple key functions with ':'.
func CompositeKeyFunc(funcs ...KeyFunc) KeyFunc {
	return func(r *http.Request) string {
		parts := make([]string, 0, len(funcs))
		for _, fn := range funcs {
			if key := fn(r); key != "" {
				parts = append(parts, key)
			}
		}
		if len(parts) == 0 {
			return ClientIP(r)
		}
		return strings.Join(parts, ":")
	}
}

// ClientIP extracts the client IP from the request, preferring proxy
// headers over the socket address.
func ClientIP(r *http.Request) string {
	if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
		ips := strings.Split(xff, ",")
		if len(ips) > 0 {
			return strings.TrimSpace(ips[0])
		}
	}

	if xri := r.Header.Get("X-Real-IP"); xri != "" {
		return xri
	}

	ip := r.RemoteAddr
	if idx := strings.LastIndex(ip, ":"); idx != -1 {
		ip = ip[:idx]
	}

	ip = strings.TrimPrefix(ip, "[")
	ip = strings.TrimSuffix(ip, "]")

	return ip
}
