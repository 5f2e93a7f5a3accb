package service

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/BailinYe/Resume-Modifier-sub002/config"
	"github.com/BailinYe/Resume-Modifier-sub002/internal/app/model"
	"github.com/BailinYe/Resume-Modifier-sub002/internal/app/repository"
	"github.com/BailinYe/Resume-Modifier-sub002/pkg/email"
	"github.com/BailinYe/Resume-Modifier-sub002/pkg/logger"
	"github.com/BailinYe/Resume-Modifier-sub002/pkg/util"
	"gorm.io/gorm"
)

// ErrInvalidResetToken covers every way a presented token can fail:
// never existed, malformed, expired, revoked, already consumed. The
// caller gets one undifferentiated failure so the response cannot be
// used as an oracle for token state; the audit log keeps the detail.
var ErrInvalidResetToken = errors.New("invalid or expired reset token")

// RateLimitedError is returned when a reset request is gated. Unlike
// token failures this carries detail, because window state is not
// correlated with account existence.
type RateLimitedError struct {
	RetryAfterSeconds int
}

func (e *RateLimitedError) Error() string {
	return fmt.Sprintf("rate limit exceeded, retry after %d seconds", e.RetryAfterSeconds)
}

// PasswordPolicyError reports which strength requirements the new
// password misses. Password feedback is safe to detail; it says nothing
// about the token.
type PasswordPolicyError struct {
	Violations []util.PasswordViolation
}

func (e *PasswordPolicyError) Error() string {
	parts := make([]string, len(e.Violations))
	for i, v := range e.Violations {
		parts[i] = string(v)
	}
	return "password does not meet requirements: " + strings.Join(parts, ", ")
}

// RateLimiter gates an action under a fixed window. Implementations:
// the database counter repository and the Redis limiter.
type RateLimiter interface {
	CheckAndIncrement(scope, key string, limit, windowSeconds int) (allowed bool, retryAfterSeconds int, err error)
}

// TokenValidation is the answer to a non-consuming token check.
type TokenValidation struct {
	Valid            bool `json:"valid"`
	ExpiresInMinutes int  `json:"expires_in_minutes,omitempty"`
}

type PasswordResetService interface {
	RequestReset(email, ip, userAgent string) error
	ValidateToken(rawToken string) (*TokenValidation, error)
	VerifyAndReset(rawToken, newPassword string) error
	CleanupExpiredTokens() (int64, error)
}

type passwordResetService struct {
	db        *gorm.DB
	userRepo  repository.UserRepository
	tokenRepo repository.ResetTokenRepository
	auditRepo repository.AuditEventRepository
	limiter   RateLimiter
	sender    email.Sender
	codec     *util.ResetTokenCodec
	cfg       config.PasswordResetConfig
	now       func() time.Time
}

func NewPasswordResetService(
	db *gorm.DB,
	userRepo repository.UserRepository,
	tokenRepo repository.ResetTokenRepository,
	auditRepo repository.AuditEventRepository,
	limiter RateLimiter,
	sender email.Sender,
	cfg config.PasswordResetConfig,
) PasswordResetService {
	return &passwordResetService{
		db:        db,
		userRepo:  userRepo,
		tokenRepo: tokenRepo,
		auditRepo: auditRepo,
		limiter:   limiter,
		sender:    sender,
		codec:     util.NewResetTokenCodec(cfg.TokenLength),
		cfg:       cfg,
		now:       time.Now,
	}
}

// RequestReset gates the request, then issues and mails a fresh token
// if the address belongs to a user. It returns nil for known and
// unknown addresses alike; only a rate-limit denial or a persistence
// failure surfaces as an error.
func (s *passwordResetService) RequestReset(emailAddr, ip, userAgent string) error {
	emailAddr = strings.ToLower(strings.TrimSpace(emailAddr))

	logger.Info("Processing password reset request", map[string]interface{}{
		"ip": ip,
	})

	if err := s.rateGate(emailAddr, ip, userAgent); err != nil {
		return err
	}

	user, err := s.userRepo.FindByEmail(emailAddr)
	if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
		logger.Error("Failed to look up user for password reset", err, nil)
		return err
	}

	// Generate a token whether or not the address matched, so an
	// unknown address walks the same code path with comparable cost.
	generated, genErr := s.codec.Generate()
	if genErr != nil {
		logger.Error("Failed to generate reset token", genErr, nil)
		return genErr
	}

	if user == nil || errors.Is(err, gorm.ErrRecordNotFound) {
		logger.Warn("Password reset requested for unknown email", map[string]interface{}{
			"ip": ip,
		})
		s.recordAudit(model.AuditPasswordResetRequested, model.AuditOutcomeUserNotFound, emailAddr, nil, ip, userAgent)
		return nil
	}

	now := s.now().UTC()
	token := &model.ResetToken{
		ID:        generated.ID,
		UserID:    user.ID,
		TokenHash: generated.Hash,
		Salt:      generated.Salt,
		ExpiresAt: now.Add(s.cfg.TokenExpiry),
		RequestIP: ip,
		UserAgent: userAgent,
	}

	// Revoking previous tokens and creating the new one happen in one
	// transaction inside Issue, so at most one token per user is ever
	// valid.
	if err := s.tokenRepo.Issue(token); err != nil {
		logger.Error("Failed to issue reset token", err, map[string]interface{}{
			"user_id": user.ID,
		})
		return err
	}

	// Best effort. The generic ack has already been earned; a mail
	// failure is logged for alerting and never surfaced.
	if err := s.sender.SendPasswordReset(user.Email, generated.Raw, token.ExpiresAt); err != nil {
		logger.Error("Failed to send password reset email", err, map[string]interface{}{
			"user_id": user.ID,
		})
	}

	s.recordAudit(model.AuditPasswordResetRequested, model.AuditOutcomeUserFound, emailAddr, &user.ID, ip, userAgent)

	logger.Info("Password reset token issued", map[string]interface{}{
		"user_id":    user.ID,
		"token_id":   token.ID,
		"expires_at": token.ExpiresAt,
	})
	return nil
}

// ValidateToken reports whether a token could still complete a reset,
// without consuming it. Malformed, unknown, expired, revoked and
// consumed tokens all produce the same {valid:false}; only a storage
// failure is an error.
func (s *passwordResetService) ValidateToken(rawToken string) (*TokenValidation, error) {
	now := s.now().UTC()

	token, err := s.lookupToken(rawToken, now)
	if err != nil {
		if errors.Is(err, ErrInvalidResetToken) {
			return &TokenValidation{Valid: false}, nil
		}
		return nil, err
	}

	remaining := int(token.ExpiresAt.Sub(now).Minutes())
	if remaining < 1 {
		remaining = 1
	}

	s.recordAudit(model.AuditPasswordResetValidated, model.AuditOutcomeSuccess, "", &token.UserID, token.RequestIP, "")

	return &TokenValidation{Valid: true, ExpiresInMinutes: remaining}, nil
}

// VerifyAndReset consumes the token and updates the user's password.
// The consume is a compare-and-set, so of any number of concurrent
// calls with the same token exactly one succeeds.
func (s *passwordResetService) VerifyAndReset(rawToken, newPassword string) error {
	if violations := util.ValidatePassword(newPassword); len(violations) > 0 {
		s.recordAudit(model.AuditPasswordResetRejected, model.AuditOutcomeWeakPassword, "", nil, "", "")
		return &PasswordPolicyError{Violations: violations}
	}

	now := s.now().UTC()

	token, err := s.lookupToken(rawToken, now)
	if err != nil {
		if errors.Is(err, ErrInvalidResetToken) {
			s.recordAudit(model.AuditPasswordResetRejected, model.AuditOutcomeInvalidToken, "", nil, "", "")
		}
		return err
	}

	passwordHash, err := util.HashPassword(newPassword)
	if err != nil {
		logger.Error("Failed to hash new password", err, map[string]interface{}{
			"user_id": token.UserID,
		})
		return err
	}

	err = s.db.Transaction(func(tx *gorm.DB) error {
		consumed, err := s.tokenRepo.WithTx(tx).Consume(token.ID, now)
		if err != nil {
			return err
		}
		if !consumed {
			// Lost the race, or the token became invalid between
			// lookup and consume.
			return ErrInvalidResetToken
		}

		if err := s.userRepo.WithTx(tx).UpdatePasswordHash(token.UserID, passwordHash); err != nil {
			return err
		}

		// The consumed token is already unusable; this sweeps any
		// sibling state left by interleaved requests.
		return s.tokenRepo.WithTx(tx).RevokeAllValidForUser(token.UserID)
	})
	if err != nil {
		if errors.Is(err, ErrInvalidResetToken) {
			s.recordAudit(model.AuditPasswordResetRejected, model.AuditOutcomeInvalidToken, "", &token.UserID, "", "")
			return ErrInvalidResetToken
		}
		logger.Error("Failed to complete password reset", err, map[string]interface{}{
			"user_id": token.UserID,
		})
		return err
	}

	s.recordAudit(model.AuditPasswordResetCompleted, model.AuditOutcomeSuccess, "", &token.UserID, token.RequestIP, "")

	logger.Info("Password reset completed", map[string]interface{}{
		"user_id":  token.UserID,
		"token_id": token.ID,
	})
	return nil
}

// CleanupExpiredTokens deletes tokens past expiry plus the grace
// period. Idempotent housekeeping for the scheduler.
func (s *passwordResetService) CleanupExpiredTokens() (int64, error) {
	cutoff := s.now().UTC().Add(-s.cfg.CleanupGrace)

	deleted, err := s.tokenRepo.DeleteExpired(cutoff)
	if err != nil {
		logger.Error("Failed to clean up expired reset tokens", err, nil)
		return 0, err
	}

	if deleted > 0 {
		logger.Info("Cleaned up expired reset tokens", map[string]interface{}{
			"deleted": deleted,
			"cutoff":  cutoff,
		})
	}
	return deleted, nil
}

const rateWindowSeconds = 3600

// rateGate applies the per-email window first, then the per-IP window.
// Both counters increment even on the request that gets denied; the
// window is a budget of attempts, not of successes.
func (s *passwordResetService) rateGate(emailAddr, ip, userAgent string) error {
	allowed, retryAfter, err := s.limiter.CheckAndIncrement(
		model.RateLimitScopeUser, emailAddr, s.cfg.UserLimitPerHour, rateWindowSeconds)
	if err != nil {
		logger.Error("Rate limiter check failed", err, map[string]interface{}{
			"scope": model.RateLimitScopeUser,
		})
		return err
	}
	if !allowed {
		s.recordAudit(model.AuditPasswordResetRejected, model.AuditOutcomeRateLimited, emailAddr, nil, ip, userAgent)
		return &RateLimitedError{RetryAfterSeconds: retryAfter}
	}

	allowed, retryAfter, err = s.limiter.CheckAndIncrement(
		model.RateLimitScopeIP, ip, s.cfg.IPLimitPerHour, rateWindowSeconds)
	if err != nil {
		logger.Error("Rate limiter check failed", err, map[string]interface{}{
			"scope": model.RateLimitScopeIP,
		})
		return err
	}
	if !allowed {
		s.recordAudit(model.AuditPasswordResetRejected, model.AuditOutcomeRateLimited, ip, nil, ip, userAgent)
		return &RateLimitedError{RetryAfterSeconds: retryAfter}
	}

	return nil
}

// lookupToken resolves a raw token to its stored record and verifies
// the secret against the stored salted hash in constant time. Every
// failure mode maps to ErrInvalidResetToken except storage errors.
func (s *passwordResetService) lookupToken(rawToken string, now time.Time) (*model.ResetToken, error) {
	id, secret, err := util.SplitResetToken(rawToken)
	if err != nil {
		return nil, ErrInvalidResetToken
	}

	token, err := s.tokenRepo.FindValidByID(id, now)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrInvalidResetToken
		}
		logger.Error("Failed to look up reset token", err, nil)
		return nil, err
	}

	if !s.codec.Verify(secret, token.Salt, token.TokenHash) {
		return nil, ErrInvalidResetToken
	}

	return token, nil
}

// recordAudit writes a security event. Audit failures are logged and
// swallowed; the flow that triggered them must not fail because the
// audit trail hiccuped.
func (s *passwordResetService) recordAudit(eventType, outcome, scopeKey string, userID *uint, ip, userAgent string) {
	event := &model.AuditEvent{
		EventType: eventType,
		Outcome:   outcome,
		ScopeKey:  scopeKey,
		UserID:    userID,
		IP:        ip,
		UserAgent: userAgent,
	}
	if err := s.auditRepo.Record(event); err != nil {
		logger.Error("Failed to record audit event", err, map[string]interface{}{
			"event_type": eventType,
		})
	}
}
