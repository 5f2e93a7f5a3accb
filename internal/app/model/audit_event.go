package model

import (
	"time"

	"github.com/lib/pq"
)

// Audit event types recorded by the password reset flows.
const (
	AuditPasswordResetRequested = "password_reset_requested"
	AuditPasswordResetValidated = "password_reset_validated"
	AuditPasswordResetCompleted = "password_reset_completed"
	AuditPasswordResetRejected  = "password_reset_rejected"
)

// Audit outcomes. Internal only; never exposed in API responses.
const (
	AuditOutcomeUserFound    = "user_found"
	AuditOutcomeUserNotFound = "user_not_found"
	AuditOutcomeRateLimited  = "rate_limited"
	AuditOutcomeSuccess      = "success"
	AuditOutcomeInvalidToken = "invalid_token"
	AuditOutcomeWeakPassword = "weak_password"
)

// AuditEvent is an append-only security event record. Rows are written
// once and never updated; operator tooling reads them for incident
// review and the admin export endpoint.
type AuditEvent struct {
	ID        uint           `gorm:"primarykey" json:"id"`
	EventType string         `gorm:"size:64;not null;index" json:"event_type"`
	Outcome   string         `gorm:"size:32;not null" json:"outcome"`
	ScopeKey  string         `gorm:"size:255" json:"scope_key,omitempty"` // email or IP the event was keyed by
	UserID    *uint          `gorm:"index" json:"user_id,omitempty"`
	IP        string         `gorm:"size:45" json:"ip"`
	UserAgent string         `gorm:"size:255" json:"user_agent"`
	Tags      pq.StringArray `gorm:"type:text[]" json:"tags,omitempty"`
	CreatedAt time.Time      `gorm:"index" json:"created_at"`
}

func (AuditEvent) TableName() string {
	return "audit_events"
}
