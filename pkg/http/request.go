package http

import (
	"net"
	"net/http"
	"strings"
)

// ClientIP extracts a best-effort client identity from the request.
//
// Precedence:
// 1. First comma-separated value of X-Forwarded-For
// 2. X-Real-IP
// 3. RemoteAddr (host part)
// 4. The literal "unknown"
//
// The result is a bucketing key for rate limiting and blocking, not a
// trustworthy identity: a client talking straight to the listener can forge
// the forwarding headers.
func ClientIP(r *http.Request) string {
	if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
		first := strings.TrimSpace(strings.Split(xff, ",")[0])
		if first != "" {
			return first
		}
	}

	if xri := strings.TrimSpace(r.Header.Get("X-Real-IP")); xri != "" {
		return xri
	}

	if r.RemoteAddr != "" {
		// RemoteAddr may include port: "ip:port"
		if host, _, err := net.SplitHostPort(r.RemoteAddr); err == nil {
			return host
		}
		return r.RemoteAddr
	}

	return "unknown"
}
