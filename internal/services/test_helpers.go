package services

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/vitrinelabs/vitrine/internal/metrics"
	"github.com/vitrinelabs/vitrine/internal/models"
	pkgauth "github.com/vitrinelabs/vitrine/pkg/auth"
	"github.com/vitrinelabs/vitrine/pkg/logger"
)

// MockUserRepository implements UserRepository with overridable functions
type MockUserRepository struct {
	CreateFunc     func(ctx context.Context, user *models.User) (*models.User, error)
	GetByEmailFunc func(ctx context.Context, email string) (*models.User, error)
	GetByIDFunc    func(ctx context.Context, id string) (*models.User, error)
}

func (m *MockUserRepository) Create(ctx context.Context, user *models.User) (*models.User, error) {
	if m.CreateFunc != nil {
		return m.CreateFunc(ctx, user)
	}
	return user, nil
}

func (m *MockUserRepository) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	if m.GetByEmailFunc != nil {
		return m.GetByEmailFunc(ctx, email)
	}
	return nil, models.ErrNotFound
}

func (m *MockUserRepository) GetByID(ctx context.Context, id string) (*models.User, error) {
	if m.GetByIDFunc != nil {
		return m.GetByIDFunc(ctx, id)
	}
	return nil, models.ErrNotFound
}

// MockAuditRecorder implements AuditRecorder and captures created entries
type MockAuditRecorder struct {
	CreateFunc func(ctx context.Context, log *models.AuditLog) (*models.AuditLog, error)
	Created    []*models.AuditLog
}

func (m *MockAuditRecorder) Create(ctx context.Context, log *models.AuditLog) (*models.AuditLog, error) {
	m.Created = append(m.Created, log)
	if m.CreateFunc != nil {
		return m.CreateFunc(ctx, log)
	}
	return log, nil
}

// MockSecurityEventRepository implements SecurityEventRepository and captures events
type MockSecurityEventRepository struct {
	CreateFunc func(ctx context.Context, event *models.SecurityEvent) (*models.SecurityEvent, error)
	Created    []*models.SecurityEvent
}

func (m *MockSecurityEventRepository) Create(ctx context.Context, event *models.SecurityEvent) (*models.SecurityEvent, error) {
	m.Created = append(m.Created, event)
	if m.CreateFunc != nil {
		return m.CreateFunc(ctx, event)
	}
	return event, nil
}

// MockSecurityLogRepository implements SecurityLogRepository and captures entries
type MockSecurityLogRepository struct {
	CreateFunc func(ctx context.Context, log *models.SecurityLog) (*models.SecurityLog, error)
	Created    []*models.SecurityLog
}

func (m *MockSecurityLogRepository) Create(ctx context.Context, log *models.SecurityLog) (*models.SecurityLog, error) {
	m.Created = append(m.Created, log)
	if m.CreateFunc != nil {
		return m.CreateFunc(ctx, log)
	}
	return log, nil
}

// NewTestUser creates a user with a real bcrypt hash for the given password
func NewTestUser(t *testing.T, id, email, password string) *models.User {
	t.Helper()

	hash, err := pkgauth.HashPassword(password)
	if err != nil {
		t.Fatalf("failed to hash test password: %v", err)
	}

	return &models.User{
		ID:           id,
		Email:        email,
		PasswordHash: hash,
		Name:         "Test User",
		Role:         "user",
		CreatedAt:    time.Now(),
		UpdatedAt:    time.Now(),
	}
}

// NewTestFileAppender creates a FileAppender under a per-test temp dir
func NewTestFileAppender(t *testing.T) *logger.FileAppender {
	t.Helper()

	path := filepath.Join(t.TempDir(), "security.log")
	appender, err := logger.NewFileAppender(path)
	if err != nil {
		t.Fatalf("failed to create test file appender: %v", err)
	}
	return appender
}

// ReadTestLogFile returns the content written by a NewTestFileAppender
func ReadTestLogFile(t *testing.T, appender *logger.FileAppender) string {
	t.Helper()

	data, err := os.ReadFile(appender.Path())
	if err != nil {
		t.Fatalf("failed to read test log file: %v", err)
	}
	return string(data)
}

// NewTestMetrics returns metrics registered on an isolated registry
func NewTestMetrics() *metrics.Metrics {
	return metrics.NewWith(prometheus.NewRegistry())
}
