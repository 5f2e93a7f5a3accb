package repository

import (
	"time"

	"github.com/BailinYe/Resume-Modifier-sub002/internal/app/model"
	"github.com/BailinYe/Resume-Modifier-sub002/pkg/logger"
	"gorm.io/gorm"
)

// AuditEventRepository is the append-only store for security events.
// There is deliberately no update or delete method.
type AuditEventRepository interface {
	Record(event *model.AuditEvent) error
	List(filter AuditEventFilter) ([]model.AuditEvent, error)
}

// AuditEventFilter narrows List results. Zero values mean "no filter".
type AuditEventFilter struct {
	EventType string
	Outcome   string
	Since     time.Time
	Until     time.Time
	Limit     int
}

type auditEventRepository struct {
	db *gorm.DB
}

func NewAuditEventRepository(db *gorm.DB) AuditEventRepository {
	return &auditEventRepository{db: db}
}

func (r *auditEventRepository) Record(event *model.AuditEvent) error {
	if err := r.db.Create(event).Error; err != nil {
		logger.Error("Failed to record audit event in database", err, map[string]interface{}{
			"event_type": event.EventType,
		})
		return err
	}
	return nil
}

func (r *auditEventRepository) List(filter AuditEventFilter) ([]model.AuditEvent, error) {
	query := r.db.Model(&model.AuditEvent{})

	if filter.EventType != "" {
		query = query.Where("event_type = ?", filter.EventType)
	}
	if filter.Outcome != "" {
		query = query.Where("outcome = ?", filter.Outcome)
	}
	if !filter.Since.IsZero() {
		query = query.Where("created_at >= ?", filter.Since)
	}
	if !filter.Until.IsZero() {
		query = query.Where("created_at < ?", filter.Until)
	}

	limit := filter.Limit
	if limit <= 0 || limit > 1000 {
		limit = 1000
	}

	var events []model.AuditEvent
	if err := query.Order("created_at DESC").Limit(limit).Find(&events).Error; err != nil {
		logger.Error("Failed to list audit events from database", err, nil)
		return nil, err
	}
	return events, nil
}
