package model

import (
	"time"

	"github.com/google/uuid"
)

// ResetToken is the persisted half of a password reset token. The raw
// token handed to the user is "<id>.<secret>"; only the salted SHA-512
// hash of the secret is stored, never the secret itself.
//
// At most one token per user is valid (not revoked, not consumed, not
// expired) at any instant: issuing a new token revokes all previous
// unconsumed ones in the same transaction.
type ResetToken struct {
	ID         uuid.UUID  `gorm:"type:uuid;primaryKey" json:"id"`
	UserID     uint       `gorm:"not null;index" json:"user_id"`
	TokenHash  string     `gorm:"size:128;not null" json:"-"`
	Salt       string     `gorm:"size:64;not null" json:"-"`
	ExpiresAt  time.Time  `gorm:"not null;index" json:"expires_at"`
	ConsumedAt *time.Time `json:"consumed_at,omitempty"` // set exactly once, never cleared
	Revoked    bool       `gorm:"not null;default:false" json:"revoked"`
	RequestIP  string     `gorm:"size:45" json:"request_ip"`
	UserAgent  string     `gorm:"size:255" json:"user_agent"`
	CreatedAt  time.Time  `json:"created_at"`
}

func (ResetToken) TableName() string {
	return "reset_tokens"
}

// Usable reports whether the token can still complete a password reset.
func (t *ResetToken) Usable(now time.Time) bool {
	return !t.Revoked && t.ConsumedAt == nil && now.Before(t.ExpiresAt)
}
