package middleware

import (
	"bytes"
	"io"
	"net/http"

	"github.com/vitrinelabs/vitrine/internal/metrics"
	"github.com/vitrinelabs/vitrine/internal/models"
	"github.com/vitrinelabs/vitrine/internal/security"
	"github.com/vitrinelabs/vitrine/internal/services"
	pkghttp "github.com/vitrinelabs/vitrine/pkg/http"
)

// SignatureHeader is the webhook signature header sent by the payment provider
const SignatureHeader = "X-Signature"

const maxWebhookBodyBytes = 1 << 20

// WebhookSignature verifies the HMAC signature of incoming webhook payloads
// against the exact raw body bytes. An empty secret disables verification
// entirely; config rejects that in production, so the open mode only exists
// for local development against provider sandboxes that do not sign.
func WebhookSignature(secret string, sink *services.EventSink, m *metrics.Metrics) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if secret == "" {
				m.WebhooksVerified.WithLabelValues("skipped").Inc()
				sink.RecordLog(r.Context(), models.LogLevelWarning, "webhook signature verification disabled",
					pkghttp.ClientIP(r), r.URL.Path, r.Method, "", "no webhook secret configured")
				next.ServeHTTP(w, r)
				return
			}

			body, err := io.ReadAll(io.LimitReader(r.Body, maxWebhookBodyBytes))
			if err != nil {
				pkghttp.WriteBadRequest(w, "Unable to read request body.")
				return
			}
			r.Body.Close()
			r.Body = io.NopCloser(bytes.NewReader(body))

			if !security.VerifySignature(body, r.Header.Get(SignatureHeader), secret) {
				m.WebhooksVerified.WithLabelValues("rejected").Inc()
				m.RequestsRejected.WithLabelValues("webhook_signature").Inc()
				sink.RecordEvent(r.Context(), services.EventInput{
					EventType:   models.SecurityEventSuspiciousRequest,
					Severity:    models.SeverityHigh,
					IP:          pkghttp.ClientIP(r),
					UserAgent:   r.UserAgent(),
					Endpoint:    r.URL.Path,
					Method:      r.Method,
					Blocked:     true,
					Description: "webhook signature verification failed",
				})
				pkghttp.WriteUnauthorized(w, "Invalid signature.")
				return
			}

			m.WebhooksVerified.WithLabelValues("verified").Inc()
			next.ServeHTTP(w, r)
		})
	}
}
