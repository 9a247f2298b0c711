package config

import (
	"os"
	"testing"
	"time"
)

func TestLoad_SecurityDefaults(t *testing.T) {
	os.Setenv("JWT_SECRET", "test-secret-32-characters-long!")
	os.Setenv("DB_PASSWORD", "test")
	defer os.Clearenv()

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() = %v, want nil", err)
	}

	tests := []struct {
		name     string
		actual   time.Duration
		expected time.Duration
	}{
		{"GlobalRateLimitWindow", cfg.Security.GlobalRateLimitWindow, 15 * time.Minute},
		{"RateLimitSweepInterval", cfg.Security.RateLimitSweepInterval, 5 * time.Minute},
		{"CSRFSweepInterval", cfg.Security.CSRFSweepInterval, time.Hour},
		{"TimingFloor", cfg.Security.TimingFloor, 100 * time.Millisecond},
	}
	for _, tt := range tests {
		if tt.actual != tt.expected {
			t.Errorf("%s: got %v, want %v", tt.name, tt.actual, tt.expected)
		}
	}

	if cfg.Security.GlobalRateLimitMax != 100 {
		t.Errorf("GlobalRateLimitMax: got %d, want 100", cfg.Security.GlobalRateLimitMax)
	}
	if cfg.Security.WebhookSecret != "" {
		t.Errorf("WebhookSecret: got %q, want empty default", cfg.Security.WebhookSecret)
	}
}

func TestLoad_MissingJWTSecret(t *testing.T) {
	os.Clearenv()
	os.Setenv("DB_PASSWORD", "test")
	defer os.Clearenv()

	if _, err := Load(); err == nil {
		t.Fatal("Load() = nil, want error for missing JWT_SECRET")
	}
}

func TestLoad_WeakJWTSecretRejected(t *testing.T) {
	os.Setenv("JWT_SECRET", "changeme")
	os.Setenv("DB_PASSWORD", "test")
	defer os.Clearenv()

	if _, err := Load(); err == nil {
		t.Fatal("Load() = nil, want error for weak JWT_SECRET")
	}
}

func TestLoad_ProductionRequiresWebhookSecret(t *testing.T) {
	os.Setenv("JWT_SECRET", "a-production-grade-secret-with-32-chars!!")
	os.Setenv("DB_PASSWORD", "test")
	os.Setenv("ENV", "production")
	defer os.Clearenv()

	if _, err := Load(); err == nil {
		t.Fatal("Load() = nil, want error for missing PAYMENT_WEBHOOK_SECRET in production")
	}

	os.Setenv("PAYMENT_WEBHOOK_SECRET", "whsec_test")
	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() = %v, want nil", err)
	}
	if cfg.Security.WebhookSecret != "whsec_test" {
		t.Errorf("WebhookSecret: got %q, want whsec_test", cfg.Security.WebhookSecret)
	}
}

func TestLoad_AlertConfigValidation(t *testing.T) {
	os.Setenv("JWT_SECRET", "test-secret-32-characters-long!")
	os.Setenv("DB_PASSWORD", "test")
	os.Setenv("ALERT_EMAIL_ENABLED", "true")
	defer os.Clearenv()

	if _, err := Load(); err == nil {
		t.Fatal("Load() = nil, want error when alert addresses are missing")
	}

	os.Setenv("ALERT_FROM_ADDRESS", "security@vitrine.example")
	os.Setenv("ALERT_TO_ADDRESS", "ops@vitrine.example")
	if _, err := Load(); err != nil {
		t.Fatalf("Load() = %v, want nil", err)
	}
}

func TestLoad_CustomDurations(t *testing.T) {
	os.Setenv("JWT_SECRET", "test-secret-32-characters-long!")
	os.Setenv("DB_PASSWORD", "test")
	os.Setenv("GLOBAL_RATE_LIMIT_WINDOW", "1m")
	os.Setenv("TIMING_FLOOR", "250ms")
	defer os.Clearenv()

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() = %v, want nil", err)
	}
	if cfg.Security.GlobalRateLimitWindow != time.Minute {
		t.Errorf("GlobalRateLimitWindow: got %v, want 1m", cfg.Security.GlobalRateLimitWindow)
	}
	if cfg.Security.TimingFloor != 250*time.Millisecond {
		t.Errorf("TimingFloor: got %v, want 250ms", cfg.Security.TimingFloor)
	}
}
