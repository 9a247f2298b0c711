package background

import (
	"context"
	"log/slog"
	"time"

	"github.com/vitrinelabs/vitrine/internal/metrics"
	"github.com/vitrinelabs/vitrine/internal/security"
)

// CleanupManager periodically prunes expired in-memory security state: rate
// limit windows, stale brute force failure records and expired CSRF tokens.
// Expired blocks are intentionally not swept; only a successful login lifts
// a block.
type CleanupManager struct {
	windows     *security.WindowStore
	guard       *security.BruteForceGuard
	tokens      *security.CSRFTokenManager
	metrics     *metrics.Metrics
	logger      *slog.Logger
	rateLimitIv time.Duration
	csrfIv      time.Duration
	stopCh      chan struct{}
}

// NewCleanupManager creates a new cleanup manager
func NewCleanupManager(
	windows *security.WindowStore,
	guard *security.BruteForceGuard,
	tokens *security.CSRFTokenManager,
	m *metrics.Metrics,
	logger *slog.Logger,
	rateLimitInterval time.Duration,
	csrfInterval time.Duration,
) *CleanupManager {
	return &CleanupManager{
		windows:     windows,
		guard:       guard,
		tokens:      tokens,
		metrics:     m,
		logger:      logger,
		rateLimitIv: rateLimitInterval,
		csrfIv:      csrfInterval,
		stopCh:      make(chan struct{}),
	}
}

// Start begins the periodic sweeps and blocks until stopped
func (cm *CleanupManager) Start(ctx context.Context) {
	rateLimitTicker := time.NewTicker(cm.rateLimitIv)
	defer rateLimitTicker.Stop()

	csrfTicker := time.NewTicker(cm.csrfIv)
	defer csrfTicker.Stop()

	for {
		select {
		case <-rateLimitTicker.C:
			cm.sweepRateLimits()
		case <-csrfTicker.C:
			cm.sweepTokens()
		case <-cm.stopCh:
			cm.logger.Info("cleanup manager stopped")
			return
		case <-ctx.Done():
			cm.logger.Info("cleanup manager context cancelled")
			return
		}
	}
}

func (cm *CleanupManager) sweepRateLimits() {
	windows := cm.windows.Sweep()
	failures := cm.guard.Sweep()
	cm.metrics.BlockedClients.Set(float64(cm.guard.BlockedCount()))

	if windows > 0 || failures > 0 {
		cm.logger.Info("security state sweep completed",
			slog.Int("rate_windows_removed", windows),
			slog.Int("failure_records_removed", failures))
	}
}

func (cm *CleanupManager) sweepTokens() {
	if removed := cm.tokens.Sweep(); removed > 0 {
		cm.logger.Info("expired CSRF tokens removed", slog.Int("count", removed))
	}
}

// Stop signals the cleanup manager to stop
func (cm *CleanupManager) Stop() {
	close(cm.stopCh)
}
