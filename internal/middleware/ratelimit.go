package middleware

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/vitrinelabs/vitrine/internal/metrics"
	"github.com/vitrinelabs/vitrine/internal/models"
	"github.com/vitrinelabs/vitrine/internal/security"
	"github.com/vitrinelabs/vitrine/internal/services"
	pkghttp "github.com/vitrinelabs/vitrine/pkg/http"
)

// GlobalRateLimitConfig configures the coarse per-client limiter
type GlobalRateLimitConfig struct {
	Window      time.Duration
	MaxRequests int
}

// globalSkipPrefixes are path prefixes exempt from the global limiter.
// Admin traffic is authenticated and audited separately; health probes
// must never be throttled.
var globalSkipPrefixes = []string{"/api/admin", "/health", "/metrics"}

// GlobalRateLimit applies one fixed window per client address across all
// API routes. Rejections carry a JSON body with retryAfter but no rate
// limit headers; only the endpoint limiter advertises its state.
func GlobalRateLimit(store *security.WindowStore, cfg GlobalRateLimitConfig, sink *services.EventSink, m *metrics.Metrics) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			for _, prefix := range globalSkipPrefixes {
				if strings.HasPrefix(r.URL.Path, prefix) {
					next.ServeHTTP(w, r)
					return
				}
			}

			ip := pkghttp.ClientIP(r)
			decision := store.Check("global:"+ip, cfg.MaxRequests, cfg.Window)
			m.RequestsChecked.Inc()

			if !decision.Allowed {
				m.RequestsRejected.WithLabelValues("rate_limit_global").Inc()
				sink.RecordLog(r.Context(), models.LogLevelWarning, "global rate limit exceeded",
					ip, r.URL.Path, r.Method, "", userAgentDetail(r))
				pkghttp.WriteRateLimited(w, "Too many requests. Please try again later.", decision.RetryAfter)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

// EndpointRateLimit applies tighter fixed windows to the sensitive paths in
// the limits table. Every checked request, allowed or not, gets
// X-RateLimit-Limit, X-RateLimit-Remaining and X-RateLimit-Reset headers.
// Paths absent from the table pass through untouched.
func EndpointRateLimit(store *security.WindowStore, limits map[string]security.EndpointLimit, sink *services.EventSink, m *metrics.Metrics) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			limit, ok := limits[r.URL.Path]
			if !ok {
				next.ServeHTTP(w, r)
				return
			}

			ip := pkghttp.ClientIP(r)
			decision := store.Check("endpoint:"+r.URL.Path+":"+ip, limit.MaxRequests, limit.Window)

			w.Header().Set("X-RateLimit-Limit", strconv.Itoa(decision.Limit))
			w.Header().Set("X-RateLimit-Remaining", strconv.Itoa(decision.Remaining))
			w.Header().Set("X-RateLimit-Reset", decision.ResetAt.UTC().Format(time.RFC3339))

			if !decision.Allowed {
				m.RequestsRejected.WithLabelValues("rate_limit_endpoint").Inc()
				sink.RecordLog(r.Context(), models.LogLevelWarning, "endpoint rate limit exceeded",
					ip, r.URL.Path, r.Method, "", userAgentDetail(r))
				pkghttp.WriteRateLimited(w, limit.Message, decision.RetryAfter)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

func userAgentDetail(r *http.Request) string {
	if ua := r.UserAgent(); ua != "" {
		return "UA: " + ua
	}
	return ""
}
