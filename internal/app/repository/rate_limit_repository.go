package repository

import (
	"time"

	"github.com/BailinYe/Resume-Modifier-sub002/internal/app/model"
	"github.com/BailinYe/Resume-Modifier-sub002/pkg/logger"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// RateLimitRepository is the database-backed fixed-window rate limiter.
// The counter row is upserted in a single statement, so concurrent
// callers for the same (scope, key) serialize on the row and no
// increment is ever lost. The row lock acquired by the upsert is held
// until the surrounding transaction commits, which makes the follow-up
// read return this caller's true post-increment count.
type RateLimitRepository interface {
	CheckAndIncrement(scope, key string, limit, windowSeconds int) (allowed bool, retryAfterSeconds int, err error)
}

type rateLimitRepository struct {
	db  *gorm.DB
	now func() time.Time
}

func NewRateLimitRepository(db *gorm.DB) RateLimitRepository {
	return &rateLimitRepository{db: db, now: time.Now}
}

func (r *rateLimitRepository) CheckAndIncrement(scope, key string, limit, windowSeconds int) (bool, int, error) {
	now := r.now().UTC()
	window := time.Duration(windowSeconds) * time.Second
	cutoff := now.Add(-window)

	var counter model.RateLimitCounter
	err := r.db.Transaction(func(tx *gorm.DB) error {
		fresh := model.RateLimitCounter{
			Scope:         scope,
			Key:           key,
			WindowStart:   now,
			Count:         1,
			Limit:         limit,
			WindowSeconds: windowSeconds,
		}

		// An elapsed window resets to count=1 with a new start; an
		// active window increments in place.
		err := tx.Clauses(clause.OnConflict{
			Columns: []clause.Column{{Name: "scope"}, {Name: "counter_key"}},
			DoUpdates: clause.Assignments(map[string]interface{}{
				"request_count": gorm.Expr(
					"CASE WHEN rate_limit_counters.window_start <= ? THEN 1 ELSE rate_limit_counters.request_count + 1 END",
					cutoff,
				),
				"window_start": gorm.Expr(
					"CASE WHEN rate_limit_counters.window_start <= ? THEN ? ELSE rate_limit_counters.window_start END",
					cutoff, now,
				),
				"request_limit":  limit,
				"window_seconds": windowSeconds,
			}),
		}).Create(&fresh).Error
		if err != nil {
			return err
		}

		return tx.Where("scope = ? AND counter_key = ?", scope, key).First(&counter).Error
	})
	if err != nil {
		logger.Error("Failed to update rate limit counter", err, map[string]interface{}{
			"scope": scope,
		})
		return false, 0, err
	}

	if counter.Count <= limit {
		return true, 0, nil
	}

	retryAfter := int(counter.WindowStart.Add(window).Sub(now).Seconds())
	if retryAfter < 1 {
		retryAfter = 1
	}

	logger.Debug("Rate limit exceeded", map[string]interface{}{
		"scope":       scope,
		"count":       counter.Count,
		"limit":       limit,
		"retry_after": retryAfter,
	})
	return false, retryAfter, nil
}
