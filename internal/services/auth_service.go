package services

import (
	"context"
	"errors"
	"log/slog"
	"strings"

	"github.com/vitrinelabs/vitrine/internal/auth"
	"github.com/vitrinelabs/vitrine/internal/models"
	"github.com/vitrinelabs/vitrine/internal/security"
	pkgauth "github.com/vitrinelabs/vitrine/pkg/auth"
	pkglogger "github.com/vitrinelabs/vitrine/pkg/logger"
)

// UserRepository defines the user persistence interface for the auth service
type UserRepository interface {
	Create(ctx context.Context, user *models.User) (*models.User, error)
	GetByEmail(ctx context.Context, email string) (*models.User, error)
	GetByID(ctx context.Context, id string) (*models.User, error)
}

// AuditRecorder persists audit trail entries
type AuditRecorder interface {
	Create(ctx context.Context, log *models.AuditLog) (*models.AuditLog, error)
}

// RequestContext carries the client attribution for an auth operation
type RequestContext struct {
	IP        string
	UserAgent string
}

// AuthService handles authentication business logic. Failed logins feed the
// brute force guard keyed by client address; a successful login for the same
// address clears its failure history and lifts any active block.
type AuthService struct {
	repo        UserRepository
	auditRepo   AuditRecorder
	guard       *security.BruteForceGuard
	tm          *auth.TokenManager
	sink        *EventSink
	auditFile   *pkglogger.FileAppender
	logger      *slog.Logger
	auditLogger *pkglogger.AuditLogger
}

// NewAuthService creates a new AuthService
func NewAuthService(repo UserRepository, auditRepo AuditRecorder, guard *security.BruteForceGuard, tm *auth.TokenManager, sink *EventSink, auditFile *pkglogger.FileAppender, logger *slog.Logger, auditLogger *pkglogger.AuditLogger) *AuthService {
	return &AuthService{
		repo:        repo,
		auditRepo:   auditRepo,
		guard:       guard,
		tm:          tm,
		sink:        sink,
		auditFile:   auditFile,
		logger:      logger,
		auditLogger: auditLogger,
	}
}

// UserResponse represents a user in the HTTP response
type UserResponse struct {
	ID        string `json:"id"`
	Email     string `json:"email"`
	Name      string `json:"name"`
	Role      string `json:"role"`
	CreatedAt string `json:"created_at"`
}

// AuthResponse represents the response from auth operations
type AuthResponse struct {
	AccessToken  string        `json:"access_token"`
	RefreshToken string        `json:"refresh_token"`
	User         *UserResponse `json:"user"`
}

// Login authenticates a user and returns tokens. Unknown emails and wrong
// passwords are indistinguishable to the caller: both cost one bcrypt
// comparison and return the same error.
func (s *AuthService) Login(ctx context.Context, email, password string, rc RequestContext) (*AuthResponse, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" || password == "" {
		s.logger.Warn("login attempt with empty credentials", slog.String("ip", rc.IP))
		return nil, models.ErrUnauthorized
	}

	if s.guard.IsBlocked(rc.IP) {
		s.logger.Warn("login attempt from blocked client", slog.String("ip", rc.IP))
		return nil, models.ErrClientBlocked
	}

	user, err := s.repo.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, models.ErrNotFound) {
			pkgauth.CompareDecoy(password)
			s.recordLoginFailure(ctx, "", rc, "unknown email")
			return nil, models.ErrUnauthorized
		}
		s.logger.Error("failed to look up user for login", slog.Any("error", err))
		return nil, models.ErrInternalServer
	}

	if err := pkgauth.ComparePassword(user.PasswordHash, password); err != nil {
		s.recordLoginFailure(ctx, user.ID, rc, "wrong password")
		return nil, models.ErrUnauthorized
	}

	s.guard.RecordSuccess(rc.IP)

	accessToken, err := s.tm.GenerateAccessToken(user.ID, user.Role)
	if err != nil {
		s.logger.Error("failed to generate access token", slog.Any("error", err))
		return nil, models.ErrInternalServer
	}

	refreshToken, err := s.tm.GenerateRefreshToken(user.ID, user.Role)
	if err != nil {
		s.logger.Error("failed to generate refresh token", slog.Any("error", err))
		return nil, models.ErrInternalServer
	}

	s.auditLogger.LogAuthAttempt(pkglogger.AuditEvent{
		EventType: "login",
		UserID:    user.ID,
		IPAddress: rc.IP,
		UserAgent: rc.UserAgent,
		Success:   true,
	})
	s.writeAudit(ctx, user.ID, models.AuditActionLogin, "successful login", rc)

	return &AuthResponse{
		AccessToken:  accessToken,
		RefreshToken: refreshToken,
		User:         toUserResponse(user),
	}, nil
}

// Register creates a new user account
func (s *AuthService) Register(ctx context.Context, email, password, name string, rc RequestContext) (*AuthResponse, error) {
	email = strings.ToLower(strings.TrimSpace(email))

	hash, err := pkgauth.HashPassword(password)
	if err != nil {
		s.logger.Error("failed to hash password", slog.Any("error", err))
		return nil, models.ErrInternalServer
	}

	user, err := s.repo.Create(ctx, &models.User{
		Email:        email,
		PasswordHash: hash,
		Name:         name,
		Role:         "user",
	})
	if err != nil {
		if errors.Is(err, models.ErrConflict) {
			return nil, models.ErrConflict
		}
		s.logger.Error("failed to create user", slog.Any("error", err))
		return nil, models.ErrInternalServer
	}

	accessToken, err := s.tm.GenerateAccessToken(user.ID, user.Role)
	if err != nil {
		s.logger.Error("failed to generate access token", slog.Any("error", err))
		return nil, models.ErrInternalServer
	}

	refreshToken, err := s.tm.GenerateRefreshToken(user.ID, user.Role)
	if err != nil {
		s.logger.Error("failed to generate refresh token", slog.Any("error", err))
		return nil, models.ErrInternalServer
	}

	s.writeAudit(ctx, user.ID, models.AuditActionCreate, "account registered", rc)

	return &AuthResponse{
		AccessToken:  accessToken,
		RefreshToken: refreshToken,
		User:         toUserResponse(user),
	}, nil
}

// recordLoginFailure increments the brute force counter and records the
// security event when the threshold trips.
func (s *AuthService) recordLoginFailure(ctx context.Context, userID string, rc RequestContext, reason string) {
	count, tripped := s.guard.RecordFailure(rc.IP)

	s.auditLogger.LogAuthAttempt(pkglogger.AuditEvent{
		EventType:     "login_failed",
		UserID:        userID,
		IPAddress:     rc.IP,
		UserAgent:     rc.UserAgent,
		Success:       false,
		FailureReason: reason,
	})

	s.sink.RecordLog(ctx, models.LogLevelWarning, "failed login attempt",
		rc.IP, "/api/auth/login", "POST", userID, reason)

	if tripped {
		s.sink.RecordEvent(ctx, EventInput{
			EventType:   models.SecurityEventBruteForce,
			Severity:    models.SeverityCritical,
			IP:          rc.IP,
			UserAgent:   rc.UserAgent,
			Endpoint:    "/api/auth/login",
			Method:      "POST",
			Blocked:     true,
			Description: "client blocked after repeated failed logins",
		})
		s.logger.Warn("brute force threshold reached",
			slog.String("ip", rc.IP),
			slog.Int("failures", count))
	}
}

func (s *AuthService) writeAudit(ctx context.Context, userID, action, description string, rc RequestContext) {
	log := &models.AuditLog{
		UserID:      userID,
		Action:      action,
		EntityType:  "user",
		Description: description,
	}
	if rc.IP != "" {
		ip := rc.IP
		log.IP = &ip
	}
	if rc.UserAgent != "" {
		ua := rc.UserAgent
		log.UserAgent = &ua
	}

	if _, err := s.auditRepo.Create(ctx, log); err != nil {
		s.logger.Error("failed to write audit log", slog.Any("error", err))
	}

	line := pkglogger.FormatAuditLine(action, userID, "user", "", description, rc.IP)
	if err := s.auditFile.Append(line); err != nil {
		s.logger.Error("failed to append audit log to file", slog.Any("error", err))
	}
}

func toUserResponse(user *models.User) *UserResponse {
	return &UserResponse{
		ID:        user.ID,
		Email:     user.Email,
		Name:      user.Name,
		Role:      user.Role,
		CreatedAt: user.CreatedAt.UTC().Format("2006-01-02T15:04:05Z07:00"),
	}
}
