package model

import (
	"time"
)

// Rate limit scopes. A request must pass both gates independently.
const (
	RateLimitScopeUser = "user" // keyed by email
	RateLimitScopeIP   = "ip"   // keyed by request IP
)

// RateLimitCounter is one fixed-window counter row. A window starts at
// the first request for a (scope, key) pair and resets when
// window_start + window_seconds has elapsed.
type RateLimitCounter struct {
	Scope         string    `gorm:"size:16;primaryKey" json:"scope"`
	Key           string    `gorm:"size:255;primaryKey;column:counter_key" json:"key"`
	WindowStart   time.Time `gorm:"not null" json:"window_start"`
	Count         int       `gorm:"not null;column:request_count" json:"count"`
	Limit         int       `gorm:"not null;column:request_limit" json:"limit"`
	WindowSeconds int       `gorm:"not null" json:"window_seconds"`
	UpdatedAt     time.Time `json:"updated_at"`
}

func (RateLimitCounter) TableName() string {
	return "rate_limit_counters"
}
