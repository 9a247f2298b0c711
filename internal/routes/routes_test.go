package routes

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vitrinelabs/vitrine/internal/auth"
	"github.com/vitrinelabs/vitrine/internal/config"
	"github.com/vitrinelabs/vitrine/internal/handlers"
	"github.com/vitrinelabs/vitrine/internal/security"
	"github.com/vitrinelabs/vitrine/internal/services"
)

type stubAuthService struct{}

func (stubAuthService) Login(ctx context.Context, email, password string, rc services.RequestContext) (*services.AuthResponse, error) {
	return &services.AuthResponse{}, nil
}

func (stubAuthService) Register(ctx context.Context, email, password, name string, rc services.RequestContext) (*services.AuthResponse, error) {
	return &services.AuthResponse{}, nil
}

type stubOrderUpdater struct{}

func (stubOrderUpdater) ApplyPaymentNotification(ctx context.Context, paymentID string) error {
	return nil
}

func newTestRouter(t *testing.T, globalMax int) http.Handler {
	t.Helper()

	log := slog.New(slog.NewTextHandler(io.Discard, nil))
	m := services.NewTestMetrics()
	sink := services.NewEventSink(
		&services.MockSecurityEventRepository{},
		&services.MockSecurityLogRepository{},
		services.NewTestFileAppender(t),
		nil, m, log,
	)
	csrfTokens := security.NewCSRFTokenManager()

	router := chi.NewRouter()
	RegisterRoutes(router, Deps{
		AuthHandler:    handlers.NewAuthHandler(stubAuthService{}, csrfTokens),
		WebhookHandler: handlers.NewWebhookHandler(stubOrderUpdater{}, log),
		AdminHandler:   handlers.NewAdminHandler(nil, nil, nil),
		TokenManager:   auth.NewTokenManager("test-secret-0123456789abcdef", 15*time.Minute, time.Hour),
		CSRFTokens:     csrfTokens,
		RateWindows:    security.NewWindowStore(),
		Guard:          security.NewBruteForceGuard(),
		Sink:           sink,
		Metrics:        m,
		Security: &config.SecurityConfig{
			GlobalRateLimitWindow: time.Minute,
			GlobalRateLimitMax:    globalMax,
			TimingFloor:           time.Millisecond,
			WebhookSecret:         "test-webhook-secret",
		},
	})
	return router
}

func loginRequest(target string) *http.Request {
	req := httptest.NewRequest("POST", target, strings.NewReader(`{"email":"user@example.com","password":"correct-horse"}`))
	req.Header.Set("Content-Type", "application/json")
	req.RemoteAddr = "203.0.113.7:1234"
	return req
}

func TestRoutes_RateLimitsRunBeforeDetector(t *testing.T) {
	router := newTestRouter(t, 1)

	w := httptest.NewRecorder()
	router.ServeHTTP(w, loginRequest("/api/auth/login"))
	require.Equal(t, http.StatusOK, w.Code)

	// over quota now: a hostile payload still gets the rate limit answer
	w = httptest.NewRecorder()
	router.ServeHTTP(w, loginRequest("/api/auth/login?q=1%27%20OR%20%271%27=%271"))
	assert.Equal(t, http.StatusTooManyRequests, w.Code)
	assert.Contains(t, w.Body.String(), "Too many requests")
}

func TestRoutes_DetectorStillRejectsUnderQuota(t *testing.T) {
	router := newTestRouter(t, 100)

	w := httptest.NewRecorder()
	router.ServeHTTP(w, loginRequest("/api/auth/login?q=1%27%20OR%20%271%27=%271"))
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), "Invalid request detected.")
}

func TestRoutes_PatternRejectionCountsAgainstEndpointWindow(t *testing.T) {
	router := newTestRouter(t, 100)

	w := httptest.NewRecorder()
	router.ServeHTTP(w, loginRequest("/api/auth/login?q=1%27%20OR%20%271%27=%271"))
	require.Equal(t, http.StatusBadRequest, w.Code)

	// the endpoint limiter saw the request before the detector rejected it
	assert.Equal(t, "5", w.Header().Get("X-RateLimit-Limit"))
	assert.Equal(t, "4", w.Header().Get("X-RateLimit-Remaining"))
}
