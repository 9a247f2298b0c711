package routes

import (
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/httprate"
	"github.com/vitrinelabs/vitrine/internal/auth"
	"github.com/vitrinelabs/vitrine/internal/config"
	"github.com/vitrinelabs/vitrine/internal/handlers"
	"github.com/vitrinelabs/vitrine/internal/metrics"
	"github.com/vitrinelabs/vitrine/internal/middleware"
	"github.com/vitrinelabs/vitrine/internal/security"
	"github.com/vitrinelabs/vitrine/internal/services"
)

// Deps bundles everything the route tree needs
type Deps struct {
	AuthHandler    *handlers.AuthHandler
	WebhookHandler *handlers.WebhookHandler
	AdminHandler   *handlers.AdminHandler
	TokenManager   *auth.TokenManager
	CSRFTokens     *security.CSRFTokenManager
	RateWindows    *security.WindowStore
	Guard          *security.BruteForceGuard
	Sink           *services.EventSink
	Metrics        *metrics.Metrics
	Security       *config.SecurityConfig
}

// RegisterRoutes builds the /api route tree. Ordering matters: rate limits
// are enforced before payload inspection, so an over-quota client gets a 429
// regardless of what it sends and every checked request counts against its
// windows. The detector and limiters all run before authentication so
// hostile traffic is turned away without touching credentials, and CSRF runs
// after authentication because it needs the resolved identity.
func RegisterRoutes(router chi.Router, d Deps) {
	router.Route("/api", func(r chi.Router) {
		r.Use(middleware.GlobalRateLimit(d.RateWindows, middleware.GlobalRateLimitConfig{
			Window:      d.Security.GlobalRateLimitWindow,
			MaxRequests: d.Security.GlobalRateLimitMax,
		}, d.Sink, d.Metrics))
		r.Use(middleware.EndpointRateLimit(d.RateWindows, security.DefaultEndpointLimits(), d.Sink, d.Metrics))
		r.Use(middleware.AttackDetector(d.Guard, d.RateWindows, d.Sink, d.Metrics))

		// auth endpoints sit on a response-time floor so credential
		// verification outcomes are not measurable from latency
		r.Group(func(r chi.Router) {
			r.Use(middleware.ResponseFloor(d.Security.TimingFloor))
			r.Post("/auth/login", d.AuthHandler.Login)
			r.Post("/auth/register", d.AuthHandler.Register)
		})

		r.Group(func(r chi.Router) {
			r.Use(auth.Middleware(d.TokenManager))
			r.Get("/auth/csrf-token", d.AuthHandler.CSRFToken)
		})

		// webhook: flood guard, then signature verification; the payment
		// provider does not send CSRF tokens so this route stays outside
		// the authenticated tree
		r.Group(func(r chi.Router) {
			r.Use(httprate.LimitByIP(60, time.Minute))
			r.Use(middleware.WebhookSignature(d.Security.WebhookSecret, d.Sink, d.Metrics))
			r.Post("/payment/webhook", d.WebhookHandler.PaymentNotification)
		})

		r.Route("/admin", func(r chi.Router) {
			r.Use(auth.Middleware(d.TokenManager))
			r.Use(auth.RequireRole("admin"))
			r.Use(middleware.CSRFProtect(d.CSRFTokens, d.Sink, d.Metrics))

			r.Get("/security/events", d.AdminHandler.ListSecurityEvents)
			r.Delete("/security/events", d.AdminHandler.PruneSecurityEvents)
			r.Get("/security/logs", d.AdminHandler.ListSecurityLogs)
			r.Delete("/security/logs", d.AdminHandler.PruneSecurityLogs)
			r.Get("/security/metrics", d.AdminHandler.SecurityMetrics)
			r.Get("/audit", d.AdminHandler.ListAuditLogs)
		})
	})
}
