package middleware

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/vitrinelabs/vitrine/internal/metrics"
	"github.com/vitrinelabs/vitrine/internal/models"
	"github.com/vitrinelabs/vitrine/internal/security"
	"github.com/vitrinelabs/vitrine/internal/services"
	pkghttp "github.com/vitrinelabs/vitrine/pkg/http"
)

const (
	maxScannedBodyBytes = 1 << 20

	// repeated pattern matches from one client inside this window escalate
	// to a suspicious activity event
	suspiciousThreshold = 10
	suspiciousWindow    = time.Hour
)

// AttackDetector rejects requests whose query string, JSON body or path
// segments match an injection pattern, and turns away clients blocked by the
// brute force guard before any scanning happens. Detection rejections are
// 400s with a generic body; matched input is only written to the event sink.
func AttackDetector(guard *security.BruteForceGuard, store *security.WindowStore, sink *services.EventSink, m *metrics.Metrics) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ip := pkghttp.ClientIP(r)

			if guard.IsBlocked(ip) {
				if r.URL.Path == "/api/auth/login" && r.Method == http.MethodPost {
					m.RequestsRejected.WithLabelValues("brute_force").Inc()
					sink.RecordEvent(r.Context(), services.EventInput{
						EventType:   models.SecurityEventBruteForce,
						Severity:    models.SeverityCritical,
						IP:          ip,
						UserAgent:   r.UserAgent(),
						Endpoint:    r.URL.Path,
						Method:      r.Method,
						Blocked:     true,
						Description: "login attempt from blocked client",
					})
					pkghttp.WriteRateLimited(w, "Too many failed login attempts. Try again in 15 minutes.", int(security.DefaultBruteForceWindow.Seconds()))
					return
				}

				m.RequestsRejected.WithLabelValues("blocked_client").Inc()
				sink.RecordLog(r.Context(), models.LogLevelWarning, "request from blocked client",
					ip, r.URL.Path, r.Method, "", "")
				pkghttp.WriteForbidden(w, "Access temporarily blocked.")
				return
			}

			query := r.URL.Query()
			body, err := bufferJSONBody(r)
			if err != nil {
				pkghttp.WriteBadRequest(w, "Invalid request body.")
				return
			}
			params := pathSegments(r.URL.Path)

			if match := security.ScanValues(query); match != nil {
				rejectMatch(w, r, ip, "query", match, query, body, params, sink, store, m)
				return
			}

			if body != nil {
				if match := security.ScanAny("body", body); match != nil {
					rejectMatch(w, r, ip, "body", match, query, body, params, sink, store, m)
					return
				}
			}

			if match := security.ScanStrings(params); match != nil {
				rejectMatch(w, r, ip, "path", match, query, body, params, sink, store, m)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

// bufferJSONBody reads and decodes a JSON request body without consuming
// it. The body is buffered and restored so handlers can decode it again.
// Non-JSON and malformed bodies yield nil; malformed JSON is the handler's
// problem, not an attack verdict.
func bufferJSONBody(r *http.Request) (interface{}, error) {
	if r.Body == nil || r.ContentLength == 0 {
		return nil, nil
	}
	if ct := r.Header.Get("Content-Type"); !strings.Contains(ct, "application/json") {
		return nil, nil
	}

	body, err := io.ReadAll(io.LimitReader(r.Body, maxScannedBodyBytes))
	if err != nil {
		return nil, err
	}
	r.Body.Close()
	r.Body = io.NopCloser(bytes.NewReader(body))

	var decoded interface{}
	if err := json.Unmarshal(body, &decoded); err != nil {
		return nil, nil
	}

	return decoded, nil
}

// pathSegments maps each URL path segment to a positional key, catching
// payloads smuggled into route parameters like /api/products/<id>
func pathSegments(path string) map[string]string {
	segments := make(map[string]string)
	for i, segment := range strings.Split(path, "/") {
		if segment == "" {
			continue
		}
		segments[fmt.Sprintf("path[%d]", i)] = segment
	}
	return segments
}

func rejectMatch(w http.ResponseWriter, r *http.Request, ip, source string, match *security.PatternMatch, query map[string][]string, body interface{}, params map[string]string, sink *services.EventSink, store *security.WindowStore, m *metrics.Metrics) {
	eventType := models.SecurityEventSQLInjection
	if match.Type == security.MatchXSS {
		eventType = models.SecurityEventXSS
	}

	// the full request inputs are captured at detection time so the event
	// record stands on its own during incident review
	payload, _ := json.Marshal(map[string]interface{}{
		"query":  query,
		"body":   body,
		"params": params,
	})

	m.RequestsRejected.WithLabelValues("pattern").Inc()
	sink.RecordEvent(r.Context(), services.EventInput{
		EventType:   eventType,
		Severity:    models.SeverityHigh,
		IP:          ip,
		UserAgent:   r.UserAgent(),
		Endpoint:    r.URL.Path,
		Method:      r.Method,
		Payload:     string(payload),
		Blocked:     true,
		Description: fmt.Sprintf("%s pattern %q matched in %s field %q", match.Type, match.Rule, source, match.Field),
	})

	// a client tripping the detector repeatedly is probing, not fat-fingering
	decision := store.Check("suspicious:"+ip, suspiciousThreshold, suspiciousWindow)
	if !decision.Allowed {
		sink.RecordEvent(r.Context(), services.EventInput{
			EventType:   models.SecurityEventSuspiciousRequest,
			Severity:    models.SeverityMedium,
			IP:          ip,
			UserAgent:   r.UserAgent(),
			Endpoint:    r.URL.Path,
			Method:      r.Method,
			Blocked:     false,
			Description: "repeated pattern matches from one client",
		})
	}

	pkghttp.WriteBadRequest(w, "Invalid request detected.")
}
