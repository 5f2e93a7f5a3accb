package scheduler

import (
	"fmt"
	"time"

	"github.com/BailinYe/Resume-Modifier-sub002/internal/app/service"
	"github.com/BailinYe/Resume-Modifier-sub002/pkg/logger"
	"github.com/robfig/cron/v3"
)

// TokenCleanupScheduler periodically sweeps reset tokens that are past
// expiry plus the grace period. A failed run is logged and retried on
// the next tick; it never takes the service down.
type TokenCleanupScheduler struct {
	cron         *cron.Cron
	resetService service.PasswordResetService
	interval     time.Duration
}

func NewTokenCleanupScheduler(resetService service.PasswordResetService, interval time.Duration) *TokenCleanupScheduler {
	return &TokenCleanupScheduler{
		cron:         cron.New(),
		resetService: resetService,
		interval:     interval,
	}
}

func (s *TokenCleanupScheduler) Start() error {
	spec := fmt.Sprintf("@every %s", s.interval)
	_, err := s.cron.AddFunc(spec, s.runOnce)
	if err != nil {
		logger.Error("Failed to schedule token cleanup job", err, map[string]interface{}{
			"spec": spec,
		})
		return err
	}

	s.cron.Start()
	logger.Info("Token cleanup scheduler started", map[string]interface{}{
		"interval": s.interval.String(),
	})
	return nil
}

func (s *TokenCleanupScheduler) Stop() {
	s.cron.Stop()
	logger.Info("Token cleanup scheduler stopped", nil)
}

func (s *TokenCleanupScheduler) runOnce() {
	deleted, err := s.resetService.CleanupExpiredTokens()
	if err != nil {
		logger.Error("Scheduled token cleanup failed", err, nil)
		return
	}

	logger.Debug("Scheduled token cleanup finished", map[string]interface{}{
		"deleted": deleted,
	})
}
