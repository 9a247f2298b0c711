package middleware

import (
	"log/slog"
	"net/http"
	"testing"

	"github.com/vitrinelabs/vitrine/internal/metrics"
	"github.com/vitrinelabs/vitrine/internal/services"
)

// testSink bundles a sink with the mocks behind it so tests can assert on
// what was recorded
type testSink struct {
	sink      *services.EventSink
	eventRepo *services.MockSecurityEventRepository
	logRepo   *services.MockSecurityLogRepository
	metrics   *metrics.Metrics
}

func newTestSink(t *testing.T) *testSink {
	t.Helper()

	eventRepo := &services.MockSecurityEventRepository{}
	logRepo := &services.MockSecurityLogRepository{}
	m := services.NewTestMetrics()
	sink := services.NewEventSink(eventRepo, logRepo, services.NewTestFileAppender(t), nil, m, slog.Default())

	return &testSink{sink: sink, eventRepo: eventRepo, logRepo: logRepo, metrics: m}
}

// okHandler responds 200 with a fixed body
func okHandler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(`{"status":"ok"}`))
	})
}
