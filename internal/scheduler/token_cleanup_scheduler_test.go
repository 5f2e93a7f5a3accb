package scheduler

import (
	"errors"
	"testing"
	"time"

	"github.com/BailinYe/Resume-Modifier-sub002/internal/app/service"
	"github.com/stretchr/testify/assert"
)

type fakeResetService struct {
	cleanupCalls int
	cleanupErr   error
}

func (f *fakeResetService) RequestReset(email, ip, userAgent string) error { return nil }
func (f *fakeResetService) ValidateToken(rawToken string) (*service.TokenValidation, error) {
	return &service.TokenValidation{}, nil
}
func (f *fakeResetService) VerifyAndReset(rawToken, newPassword string) error { return nil }
func (f *fakeResetService) CleanupExpiredTokens() (int64, error) {
	f.cleanupCalls++
	return 0, f.cleanupErr
}

func TestTokenCleanupScheduler_RunOnce(t *testing.T) {
	svc := &fakeResetService{}
	s := NewTokenCleanupScheduler(svc, 6*time.Hour)

	s.runOnce()
	assert.Equal(t, 1, svc.cleanupCalls)

	// A failing sweep is swallowed; the next tick simply runs again.
	svc.cleanupErr = errors.New("connection refused")
	s.runOnce()
	svc.cleanupErr = nil
	s.runOnce()
	assert.Equal(t, 3, svc.cleanupCalls)
}

func TestTokenCleanupScheduler_StartStop(t *testing.T) {
	svc := &fakeResetService{}
	s := NewTokenCleanupScheduler(svc, time.Hour)

	assert.NoError(t, s.Start())
	s.Stop()
}
