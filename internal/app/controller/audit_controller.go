package controller

import (
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/BailinYe/Resume-Modifier-sub002/internal/app/repository"
	"github.com/BailinYe/Resume-Modifier-sub002/internal/app/service"
	apperrors "github.com/BailinYe/Resume-Modifier-sub002/internal/errors"
	"github.com/BailinYe/Resume-Modifier-sub002/internal/middleware"
	"github.com/gin-gonic/gin"
)

type AuditController struct {
	auditService service.AuditService
}

func NewAuditController(auditService service.AuditService) *AuditController {
	return &AuditController{auditService: auditService}
}

// List returns filtered audit events
// GET /api/v1/admin/audit-events
func (ctrl *AuditController) List(c *gin.Context) {
	log := middleware.GetLoggerFromContext(c)

	filter, ok := ctrl.parseFilter(c)
	if !ok {
		return
	}

	events, err := ctrl.auditService.List(filter)
	if err != nil {
		log.Error("Failed to list audit events", err, nil)
		apperrors.InternalError(c, "")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"events": events,
		"count":  len(events),
	})
}

// Export streams the filtered audit events as an .xlsx workbook
// GET /api/v1/admin/audit-events/export
func (ctrl *AuditController) Export(c *gin.Context) {
	log := middleware.GetLoggerFromContext(c)

	filter, ok := ctrl.parseFilter(c)
	if !ok {
		return
	}

	data, err := ctrl.auditService.ExportXLSX(filter)
	if err != nil {
		log.Error("Failed to export audit events", err, nil)
		apperrors.InternalError(c, "")
		return
	}

	filename := fmt.Sprintf("audit-events-%s.xlsx", time.Now().UTC().Format("20060102-150405"))
	c.Header("Content-Disposition", "attachment; filename="+filename)
	c.Data(http.StatusOK,
		"application/vnd.openxmlformats-officedocument.spreadsheetml.sheet", data)
}

func (ctrl *AuditController) parseFilter(c *gin.Context) (repository.AuditEventFilter, bool) {
	filter := repository.AuditEventFilter{
		EventType: c.Query("event_type"),
		Outcome:   c.Query("outcome"),
	}

	if since := c.Query("since"); since != "" {
		t, err := time.Parse(time.RFC3339, since)
		if err != nil {
			apperrors.BadRequest(c, apperrors.ValidationInvalidFormat, "since must be RFC3339")
			return filter, false
		}
		filter.Since = t
	}
	if until := c.Query("until"); until != "" {
		t, err := time.Parse(time.RFC3339, until)
		if err != nil {
			apperrors.BadRequest(c, apperrors.ValidationInvalidFormat, "until must be RFC3339")
			return filter, false
		}
		filter.Until = t
	}
	if limit := c.Query("limit"); limit != "" {
		n, err := strconv.Atoi(limit)
		if err != nil || n < 1 {
			apperrors.BadRequest(c, apperrors.ValidationInvalidFormat, "limit must be a positive integer")
			return filter, false
		}
		filter.Limit = n
	}

	return filter, true
}
