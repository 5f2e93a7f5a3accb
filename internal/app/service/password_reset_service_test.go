package service

import (
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/BailinYe/Resume-Modifier-sub002/config"
	"github.com/BailinYe/Resume-Modifier-sub002/internal/app/model"
	"github.com/BailinYe/Resume-Modifier-sub002/internal/app/repository"
	"github.com/BailinYe/Resume-Modifier-sub002/internal/db"
	"github.com/BailinYe/Resume-Modifier-sub002/pkg/util"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

// fakeEmailSender captures outgoing reset mails so tests can read the
// raw token the way a user reading the email would.
type fakeEmailSender struct {
	sent    []sentResetMail
	failAll bool
}

type sentResetMail struct {
	to       string
	rawToken string
}

func (f *fakeEmailSender) SendPasswordReset(toEmail, rawToken string, expiresAt time.Time) error {
	if f.failAll {
		return errors.New("smtp unreachable")
	}
	f.sent = append(f.sent, sentResetMail{to: toEmail, rawToken: rawToken})
	return nil
}

func (f *fakeEmailSender) lastToken(t *testing.T) string {
	t.Helper()
	require.NotEmpty(t, f.sent)
	return f.sent[len(f.sent)-1].rawToken
}

// fakeAuditRecorder stands in for the postgres-backed audit store,
// whose text[] column the sqlite test database cannot migrate.
type fakeAuditRecorder struct {
	events []model.AuditEvent
}

func (f *fakeAuditRecorder) Record(event *model.AuditEvent) error {
	f.events = append(f.events, *event)
	return nil
}

func (f *fakeAuditRecorder) List(filter repository.AuditEventFilter) ([]model.AuditEvent, error) {
	return f.events, nil
}

func (f *fakeAuditRecorder) outcomes(eventType string) []string {
	var out []string
	for _, e := range f.events {
		if e.EventType == eventType {
			out = append(out, e.Outcome)
		}
	}
	return out
}

type resetTestEnv struct {
	db      *gorm.DB
	svc     *passwordResetService
	sender  *fakeEmailSender
	audit   *fakeAuditRecorder
	user    *model.User
	baseCfg config.PasswordResetConfig
}

func setupPasswordResetTest(t *testing.T) *resetTestEnv {
	testDB, err := db.SetupTestDB()
	require.NoError(t, err)
	t.Cleanup(func() { db.CleanupTestDB(testDB) })

	hash, err := util.HashPassword("OldPass1!")
	require.NoError(t, err)
	user := &model.User{
		Email:        "user@example.com",
		PasswordHash: hash,
		Name:         "Test User",
	}
	require.NoError(t, testDB.Create(user).Error)

	sender := &fakeEmailSender{}
	audit := &fakeAuditRecorder{}
	cfg := config.PasswordResetConfig{
		TokenExpiry:      24 * time.Hour,
		TokenLength:      64,
		UserLimitPerHour: 5,
		IPLimitPerHour:   10,
		CleanupInterval:  6 * time.Hour,
		CleanupGrace:     24 * time.Hour,
	}

	svc := NewPasswordResetService(
		testDB,
		repository.NewUserRepository(testDB),
		repository.NewResetTokenRepository(testDB),
		audit,
		repository.NewRateLimitRepository(testDB),
		sender,
		cfg,
	).(*passwordResetService)

	return &resetTestEnv{
		db:      testDB,
		svc:     svc,
		sender:  sender,
		audit:   audit,
		user:    user,
		baseCfg: cfg,
	}
}

func TestRequestReset_KnownEmail(t *testing.T) {
	env := setupPasswordResetTest(t)

	err := env.svc.RequestReset("user@example.com", "203.0.113.7", "test-agent")
	require.NoError(t, err)

	require.Len(t, env.sender.sent, 1)
	assert.Equal(t, "user@example.com", env.sender.sent[0].to)

	// The mailed token is "<uuid>.<secret>" and resolves to a row that
	// stores only hash and salt, never the secret.
	id, secret, err := util.SplitResetToken(env.sender.sent[0].rawToken)
	require.NoError(t, err)
	require.NotEmpty(t, secret)

	var stored model.ResetToken
	require.NoError(t, env.db.First(&stored, "id = ?", id).Error)
	assert.Equal(t, env.user.ID, stored.UserID)
	assert.NotEqual(t, secret, stored.TokenHash)
	assert.NotContains(t, stored.TokenHash, secret)

	assert.Equal(t, []string{model.AuditOutcomeUserFound},
		env.audit.outcomes(model.AuditPasswordResetRequested))
}

func TestRequestReset_UnknownEmailIndistinguishable(t *testing.T) {
	env := setupPasswordResetTest(t)

	// Known and unknown addresses return the identical nil ack.
	errKnown := env.svc.RequestReset("user@example.com", "203.0.113.7", "test-agent")
	errUnknown := env.svc.RequestReset("nobody@example.com", "203.0.113.7", "test-agent")
	assert.NoError(t, errKnown)
	assert.NoError(t, errUnknown)

	// No mail and no token row for the unknown address; the difference
	// lives only in the audit trail.
	require.Len(t, env.sender.sent, 1)
	var count int64
	require.NoError(t, env.db.Model(&model.ResetToken{}).Count(&count).Error)
	assert.Equal(t, int64(1), count)

	assert.Equal(t,
		[]string{model.AuditOutcomeUserFound, model.AuditOutcomeUserNotFound},
		env.audit.outcomes(model.AuditPasswordResetRequested))
}

func TestRequestReset_EmailNormalized(t *testing.T) {
	env := setupPasswordResetTest(t)

	err := env.svc.RequestReset("  User@Example.COM ", "203.0.113.7", "test-agent")
	require.NoError(t, err)
	require.Len(t, env.sender.sent, 1)
}

func TestRequestReset_MailFailureNotSurfaced(t *testing.T) {
	env := setupPasswordResetTest(t)
	env.sender.failAll = true

	err := env.svc.RequestReset("user@example.com", "203.0.113.7", "test-agent")
	assert.NoError(t, err)

	// The token was still issued; only delivery failed.
	var count int64
	require.NoError(t, env.db.Model(&model.ResetToken{}).Count(&count).Error)
	assert.Equal(t, int64(1), count)
}

func TestRequestReset_UserRateLimit(t *testing.T) {
	env := setupPasswordResetTest(t)

	for i := 0; i < 5; i++ {
		require.NoError(t, env.svc.RequestReset("user@example.com", "203.0.113.7", "test-agent"))
	}

	err := env.svc.RequestReset("user@example.com", "203.0.113.7", "test-agent")
	var limited *RateLimitedError
	require.ErrorAs(t, err, &limited)
	assert.Greater(t, limited.RetryAfterSeconds, 0)
	assert.LessOrEqual(t, limited.RetryAfterSeconds, 3600)

	// Unknown addresses burn the same per-email budget.
	for i := 0; i < 5; i++ {
		require.NoError(t, env.svc.RequestReset("nobody@example.com", "198.51.100.1", "test-agent"))
	}
	err = env.svc.RequestReset("nobody@example.com", "198.51.100.1", "test-agent")
	require.ErrorAs(t, err, &limited)

	assert.Contains(t,
		env.audit.outcomes(model.AuditPasswordResetRejected),
		model.AuditOutcomeRateLimited)
}

func TestRequestReset_IPRateLimit(t *testing.T) {
	env := setupPasswordResetTest(t)

	// Rotate emails so only the shared IP budget is exhausted.
	for i := 0; i < 10; i++ {
		email := strings.Repeat("a", i+1) + "@example.com"
		require.NoError(t, env.svc.RequestReset(email, "203.0.113.7", "test-agent"))
	}

	err := env.svc.RequestReset("fresh@example.com", "203.0.113.7", "test-agent")
	var limited *RateLimitedError
	require.ErrorAs(t, err, &limited)
	assert.Greater(t, limited.RetryAfterSeconds, 0)

	// A different IP is unaffected.
	assert.NoError(t, env.svc.RequestReset("fresh@example.com", "198.51.100.1", "test-agent"))
}

func TestValidateToken(t *testing.T) {
	env := setupPasswordResetTest(t)

	require.NoError(t, env.svc.RequestReset("user@example.com", "203.0.113.7", "test-agent"))
	raw := env.sender.lastToken(t)

	result, err := env.svc.ValidateToken(raw)
	require.NoError(t, err)
	assert.True(t, result.Valid)
	assert.InDelta(t, 1440, result.ExpiresInMinutes, 1)

	// Validation never consumes; a second check still passes.
	result, err = env.svc.ValidateToken(raw)
	require.NoError(t, err)
	assert.True(t, result.Valid)

	tests := []struct {
		name string
		raw  string
	}{
		{"Malformed token", "not-a-token"},
		{"Unknown id", "c1f3f1b2-0000-4000-8000-000000000000." + strings.Repeat("ab", 32)},
		{"Tampered secret", tamperSecret(t, raw)},
		{"Empty token", ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result, err := env.svc.ValidateToken(tt.raw)
			require.NoError(t, err)
			assert.False(t, result.Valid)
			assert.Zero(t, result.ExpiresInMinutes)
		})
	}
}

func TestValidateToken_Expired(t *testing.T) {
	env := setupPasswordResetTest(t)

	base := time.Now().UTC()
	env.svc.now = func() time.Time { return base }
	require.NoError(t, env.svc.RequestReset("user@example.com", "203.0.113.7", "test-agent"))
	raw := env.sender.lastToken(t)

	// One second before expiry the token still validates.
	env.svc.now = func() time.Time { return base.Add(24*time.Hour - time.Second) }
	result, err := env.svc.ValidateToken(raw)
	require.NoError(t, err)
	assert.True(t, result.Valid)
	assert.Equal(t, 1, result.ExpiresInMinutes)

	// One second after expiry it collapses to the generic invalid shape.
	env.svc.now = func() time.Time { return base.Add(24*time.Hour + time.Second) }
	result, err = env.svc.ValidateToken(raw)
	require.NoError(t, err)
	assert.False(t, result.Valid)
}

func TestVerifyAndReset_EndToEnd(t *testing.T) {
	env := setupPasswordResetTest(t)

	require.NoError(t, env.svc.RequestReset("user@example.com", "203.0.113.7", "test-agent"))
	raw := env.sender.lastToken(t)

	result, err := env.svc.ValidateToken(raw)
	require.NoError(t, err)
	require.True(t, result.Valid)

	require.NoError(t, env.svc.VerifyAndReset(raw, "NewPass1!"))

	// The stored hash now matches the new password and no other.
	var user model.User
	require.NoError(t, env.db.First(&user, env.user.ID).Error)
	assert.True(t, util.VerifyPassword(user.PasswordHash, "NewPass1!"))
	assert.False(t, util.VerifyPassword(user.PasswordHash, "OldPass1!"))

	// The consumed token is dead for both validation and reuse.
	result, err = env.svc.ValidateToken(raw)
	require.NoError(t, err)
	assert.False(t, result.Valid)

	err = env.svc.VerifyAndReset(raw, "Another1!")
	assert.ErrorIs(t, err, ErrInvalidResetToken)

	// The second attempt did not move the password.
	require.NoError(t, env.db.First(&user, env.user.ID).Error)
	assert.True(t, util.VerifyPassword(user.PasswordHash, "NewPass1!"))

	assert.Equal(t, []string{model.AuditOutcomeSuccess},
		env.audit.outcomes(model.AuditPasswordResetCompleted))
}

func TestVerifyAndReset_WeakPassword(t *testing.T) {
	env := setupPasswordResetTest(t)

	require.NoError(t, env.svc.RequestReset("user@example.com", "203.0.113.7", "test-agent"))
	raw := env.sender.lastToken(t)

	err := env.svc.VerifyAndReset(raw, "abc")
	var policyErr *PasswordPolicyError
	require.ErrorAs(t, err, &policyErr)
	assert.ElementsMatch(t,
		[]util.PasswordViolation{util.ViolationLength, util.ViolationUppercase, util.ViolationDigit, util.ViolationSpecial},
		policyErr.Violations)

	// Policy rejection must not touch the token; it is still usable.
	result, verr := env.svc.ValidateToken(raw)
	require.NoError(t, verr)
	assert.True(t, result.Valid)
}

func TestVerifyAndReset_InvalidToken(t *testing.T) {
	env := setupPasswordResetTest(t)

	// All invalid-token shapes collapse to the same sentinel.
	err := env.svc.VerifyAndReset("garbage", "NewPass1!")
	assert.ErrorIs(t, err, ErrInvalidResetToken)

	err = env.svc.VerifyAndReset(
		"c1f3f1b2-0000-4000-8000-000000000000."+strings.Repeat("ab", 32), "NewPass1!")
	assert.ErrorIs(t, err, ErrInvalidResetToken)
}

func TestVerifyAndReset_Supersession(t *testing.T) {
	env := setupPasswordResetTest(t)

	require.NoError(t, env.svc.RequestReset("user@example.com", "203.0.113.7", "test-agent"))
	first := env.sender.lastToken(t)
	require.NoError(t, env.svc.RequestReset("user@example.com", "203.0.113.7", "test-agent"))
	second := env.sender.lastToken(t)

	// The superseded token is revoked even though it has not expired.
	result, err := env.svc.ValidateToken(first)
	require.NoError(t, err)
	assert.False(t, result.Valid)

	err = env.svc.VerifyAndReset(first, "NewPass1!")
	assert.ErrorIs(t, err, ErrInvalidResetToken)

	// The latest token works.
	require.NoError(t, env.svc.VerifyAndReset(second, "NewPass1!"))
}

func TestCleanupExpiredTokens(t *testing.T) {
	env := setupPasswordResetTest(t)

	base := time.Now().UTC()
	env.svc.now = func() time.Time { return base }
	require.NoError(t, env.svc.RequestReset("user@example.com", "203.0.113.7", "test-agent"))

	// Inside expiry plus grace nothing is deleted.
	env.svc.now = func() time.Time { return base.Add(25 * time.Hour) }
	deleted, err := env.svc.CleanupExpiredTokens()
	require.NoError(t, err)
	assert.Equal(t, int64(0), deleted)

	// Past expiry plus grace the token is swept, and a rerun is a no-op.
	env.svc.now = func() time.Time { return base.Add(49 * time.Hour) }
	deleted, err = env.svc.CleanupExpiredTokens()
	require.NoError(t, err)
	assert.Equal(t, int64(1), deleted)

	deleted, err = env.svc.CleanupExpiredTokens()
	require.NoError(t, err)
	assert.Equal(t, int64(0), deleted)
}

// tamperSecret flips the secret half of a raw token while keeping the
// id half intact, simulating a guessed secret for a known token id.
func tamperSecret(t *testing.T, raw string) string {
	t.Helper()
	id, secret, err := util.SplitResetToken(raw)
	require.NoError(t, err)

	flipped := []byte(secret)
	if flipped[0] == 'a' {
		flipped[0] = 'b'
	} else {
		flipped[0] = 'a'
	}
	return id.String() + "." + string(flipped)
}
