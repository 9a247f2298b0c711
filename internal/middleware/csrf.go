package middleware

import (
	"net/http"

	"github.com/vitrinelabs/vitrine/internal/auth"
	"github.com/vitrinelabs/vitrine/internal/metrics"
	"github.com/vitrinelabs/vitrine/internal/models"
	"github.com/vitrinelabs/vitrine/internal/security"
	"github.com/vitrinelabs/vitrine/internal/services"
	pkghttp "github.com/vitrinelabs/vitrine/pkg/http"
)

// CSRFHeader is the request header carrying the token
const CSRFHeader = "X-CSRF-Token"

// CSRFProtect validates the token on mutating requests. Reads pass through.
// The check fails closed: a missing identity, missing header, unknown token
// or expired token all produce the same 403.
func CSRFProtect(tokens *security.CSRFTokenManager, sink *services.EventSink, m *metrics.Metrics) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			switch r.Method {
			case http.MethodPost, http.MethodPut, http.MethodPatch, http.MethodDelete:
			default:
				next.ServeHTTP(w, r)
				return
			}

			claims := auth.GetUserFromContext(r)
			if claims == nil {
				m.RequestsRejected.WithLabelValues("csrf").Inc()
				pkghttp.WriteForbidden(w, "Invalid CSRF token.")
				return
			}

			supplied := r.Header.Get(CSRFHeader)
			if !tokens.Validate(claims.UserID, supplied) {
				m.RequestsRejected.WithLabelValues("csrf").Inc()
				sink.RecordLog(r.Context(), models.LogLevelWarning, "CSRF validation failed",
					pkghttp.ClientIP(r), r.URL.Path, r.Method, claims.UserID, "")
				pkghttp.WriteForbidden(w, "Invalid CSRF token.")
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}
