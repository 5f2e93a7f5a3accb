package repository

import (
	"time"

	"github.com/BailinYe/Resume-Modifier-sub002/internal/app/model"
	"github.com/BailinYe/Resume-Modifier-sub002/pkg/logger"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// ResetTokenRepository is the transactional store for password reset
// tokens. Issue revokes and creates in one transaction so at most one
// token per user is ever valid; Consume is a compare-and-set so at most
// one caller ever wins a given token.
type ResetTokenRepository interface {
	// Issue revokes every currently valid token for the user and
	// persists the new one atomically.
	Issue(token *model.ResetToken) error
	RevokeAllValidForUser(userID uint) error
	// FindValidByID returns the token only if it is unrevoked,
	// unconsumed and unexpired at the given instant.
	FindValidByID(id uuid.UUID, now time.Time) (*model.ResetToken, error)
	// Consume sets consumed_at if and only if the token is still
	// valid. The boolean reports whether this caller won the token.
	Consume(id uuid.UUID, now time.Time) (bool, error)
	// DeleteExpired removes tokens whose expiry passed before the
	// cutoff. Idempotent; safe to run from multiple instances.
	DeleteExpired(before time.Time) (int64, error)
	WithTx(tx *gorm.DB) ResetTokenRepository
}

type resetTokenRepository struct {
	db *gorm.DB
}

func NewResetTokenRepository(db *gorm.DB) ResetTokenRepository {
	return &resetTokenRepository{db: db}
}

func (r *resetTokenRepository) WithTx(tx *gorm.DB) ResetTokenRepository {
	return &resetTokenRepository{db: tx}
}

func (r *resetTokenRepository) Issue(token *model.ResetToken) error {
	logger.Debug("Issuing reset token in database", map[string]interface{}{
		"user_id":  token.UserID,
		"token_id": token.ID,
	})

	err := r.db.Transaction(func(tx *gorm.DB) error {
		if err := revokeAllValid(tx, token.UserID); err != nil {
			return err
		}
		return tx.Create(token).Error
	})
	if err != nil {
		logger.Error("Failed to issue reset token in database", err, map[string]interface{}{
			"user_id": token.UserID,
		})
		return err
	}

	return nil
}

func (r *resetTokenRepository) RevokeAllValidForUser(userID uint) error {
	if err := revokeAllValid(r.db, userID); err != nil {
		logger.Error("Failed to revoke reset tokens in database", err, map[string]interface{}{
			"user_id": userID,
		})
		return err
	}
	return nil
}

func revokeAllValid(db *gorm.DB, userID uint) error {
	return db.Model(&model.ResetToken{}).
		Where("user_id = ? AND revoked = ? AND consumed_at IS NULL", userID, false).
		Update("revoked", true).Error
}

func (r *resetTokenRepository) FindValidByID(id uuid.UUID, now time.Time) (*model.ResetToken, error) {
	var token model.ResetToken
	err := r.db.
		Where("id = ? AND revoked = ? AND consumed_at IS NULL AND expires_at > ?", id, false, now).
		First(&token).Error
	if err != nil {
		if err != gorm.ErrRecordNotFound {
			logger.Error("Failed to find reset token in database", err, map[string]interface{}{
				"token_id": id,
			})
		}
		return nil, err
	}
	return &token, nil
}

func (r *resetTokenRepository) Consume(id uuid.UUID, now time.Time) (bool, error) {
	result := r.db.Model(&model.ResetToken{}).
		Where("id = ? AND revoked = ? AND consumed_at IS NULL AND expires_at > ?", id, false, now).
		Update("consumed_at", now)
	if result.Error != nil {
		logger.Error("Failed to consume reset token in database", result.Error, map[string]interface{}{
			"token_id": id,
		})
		return false, result.Error
	}

	consumed := result.RowsAffected == 1
	logger.Debug("Reset token consume attempted", map[string]interface{}{
		"token_id": id,
		"consumed": consumed,
	})
	return consumed, nil
}

func (r *resetTokenRepository) DeleteExpired(before time.Time) (int64, error) {
	result := r.db.Where("expires_at < ?", before).Delete(&model.ResetToken{})
	if result.Error != nil {
		logger.Error("Failed to delete expired reset tokens from database", result.Error, nil)
		return 0, result.Error
	}

	if result.RowsAffected > 0 {
		logger.Info("Expired reset tokens deleted from database", map[string]interface{}{
			"count": result.RowsAffected,
		})
	}
	return result.RowsAffected, nil
}
