package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/vitrinelabs/vitrine/internal/auth"
	"github.com/vitrinelabs/vitrine/internal/background"
	"github.com/vitrinelabs/vitrine/internal/config"
	"github.com/vitrinelabs/vitrine/internal/database"
	"github.com/vitrinelabs/vitrine/internal/handlers"
	"github.com/vitrinelabs/vitrine/internal/metrics"
	"github.com/vitrinelabs/vitrine/internal/middleware"
	"github.com/vitrinelabs/vitrine/internal/repositories"
	"github.com/vitrinelabs/vitrine/internal/routes"
	"github.com/vitrinelabs/vitrine/internal/security"
	"github.com/vitrinelabs/vitrine/internal/services"
	pkglogger "github.com/vitrinelabs/vitrine/pkg/logger"
)

func main() {
	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))
	slog.SetDefault(logger)

	cfg, err := config.Load()
	if err != nil {
		logger.Error("failed to load configuration", slog.Any("error", err))
		os.Exit(1)
	}

	logger.LogAttrs(context.Background(), slog.LevelInfo, "configuration loaded",
		slog.String("env", cfg.Server.Env),
		pkglogger.RedactedAttr("database_dsn", cfg.Database.DSN(), cfg.Server.Env),
	)

	if cfg.Security.WebhookSecret == "" {
		logger.Warn("PAYMENT_WEBHOOK_SECRET is not set: webhook signature verification is DISABLED")
	}

	db, err := database.NewConnection(&cfg.Database, logger)
	if err != nil {
		logger.Error("failed to connect to database", slog.Any("error", err))
		os.Exit(1)
	}
	defer db.Close()

	// Repositories
	userRepo := repositories.NewUserRepository(db)
	eventRepo := repositories.NewSecurityEventRepository(db)
	logRepo := repositories.NewSecurityLogRepository(db)
	auditRepo := repositories.NewAuditLogRepository(db)

	// In-memory security state
	rateWindows := security.NewWindowStore()
	guard := security.NewBruteForceGuard()
	csrfTokens := security.NewCSRFTokenManager()

	m := metrics.New()
	auditLogger := pkglogger.NewAuditLogger(logger)

	securityLog, err := pkglogger.NewFileAppender(cfg.Security.SecurityLogFile)
	if err != nil {
		logger.Error("failed to open security log file", slog.Any("error", err))
		os.Exit(1)
	}

	// Optional SES alerting for critical events
	var notifier services.AlertNotifier
	if cfg.Alert.Enabled {
		mailer, err := services.NewAlertMailer(cfg.Alert.AWSRegion, cfg.Alert.FromAddress, cfg.Alert.ToAddress, logger)
		if err != nil {
			logger.Error("failed to initialize alert mailer", slog.Any("error", err))
			os.Exit(1)
		}
		notifier = mailer
	}

	auditFile, err := pkglogger.NewFileAppender(cfg.Security.AuditLogFile)
	if err != nil {
		logger.Error("failed to open audit log file", slog.Any("error", err))
		os.Exit(1)
	}

	sink := services.NewEventSink(eventRepo, logRepo, securityLog, notifier, m, logger)

	tokenManager := auth.NewTokenManager(
		cfg.Auth.JWTSecret,
		cfg.Auth.AccessTokenExpiry,
		cfg.Auth.RefreshTokenExpiry,
	)

	// Services
	authService := services.NewAuthService(userRepo, auditRepo, guard, tokenManager, sink, auditFile, logger, auditLogger)
	paymentService := services.NewPaymentService(auditRepo, logger)

	// Handlers
	authHandler := handlers.NewAuthHandler(authService, csrfTokens)
	webhookHandler := handlers.NewWebhookHandler(paymentService, logger)
	adminHandler := handlers.NewAdminHandler(eventRepo, logRepo, auditRepo)

	// Background sweeps for in-memory security state
	cleanupManager := background.NewCleanupManager(
		rateWindows, guard, csrfTokens, m, logger,
		cfg.Security.RateLimitSweepInterval,
		cfg.Security.CSRFSweepInterval,
	)

	corsConfig := middleware.DefaultCORSConfig(cfg.Server.AllowedOrigins)

	router := chi.NewRouter()
	router.Use(chimiddleware.RequestID)
	router.Use(middleware.SecurityHeaders(middleware.SecurityHeadersConfig{Env: cfg.Server.Env}))
	router.Use(middleware.CORS(corsConfig))
	router.Use(middleware.RequestLogger(logger))
	router.Use(chimiddleware.Recoverer)
	router.Use(chimiddleware.Timeout(60 * time.Second))

	routes.RegisterRoutes(router, routes.Deps{
		AuthHandler:    authHandler,
		WebhookHandler: webhookHandler,
		AdminHandler:   adminHandler,
		TokenManager:   tokenManager,
		CSRFTokens:     csrfTokens,
		RateWindows:    rateWindows,
		Guard:          guard,
		Sink:           sink,
		Metrics:        m,
		Security:       &cfg.Security,
	})

	router.Handle("/metrics", promhttp.Handler())

	router.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()

		w.Header().Set("Content-Type", "application/json")
		if err := db.HealthCheck(ctx); err != nil {
			w.WriteHeader(http.StatusServiceUnavailable)
			w.Write([]byte(`{"status":"unhealthy","database":"down"}`))
			return
		}
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(`{"status":"healthy","database":"up"}`))
	})

	server := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	cleanupCtx, cleanupCancel := context.WithCancel(context.Background())
	defer cleanupCancel()
	go cleanupManager.Start(cleanupCtx)

	go func() {
		logger.Info("starting server", slog.String("addr", server.Addr))
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("server error", slog.Any("error", err))
			os.Exit(1)
		}
	}()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	<-sigChan

	logger.Info("shutdown signal received")

	cleanupCancel()
	cleanupManager.Stop()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("server shutdown error", slog.Any("error", err))
		os.Exit(1)
	}

	logger.Info("server stopped gracefully")
}
