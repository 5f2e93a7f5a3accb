package service

import (
	"fmt"
	"strings"

	"github.com/BailinYe/Resume-Modifier-sub002/internal/app/model"
	"github.com/BailinYe/Resume-Modifier-sub002/internal/app/repository"
	"github.com/BailinYe/Resume-Modifier-sub002/pkg/logger"
	"github.com/xuri/excelize/v2"
)

type AuditService interface {
	List(filter repository.AuditEventFilter) ([]model.AuditEvent, error)
	ExportXLSX(filter repository.AuditEventFilter) ([]byte, error)
}

type auditService struct {
	auditRepo repository.AuditEventRepository
}

func NewAuditService(auditRepo repository.AuditEventRepository) AuditService {
	return &auditService{auditRepo: auditRepo}
}

func (s *auditService) List(filter repository.AuditEventFilter) ([]model.AuditEvent, error) {
	events, err := s.auditRepo.List(filter)
	if err != nil {
		logger.Error("Failed to list audit events", err, nil)
		return nil, err
	}
	return events, nil
}

var auditExportHeader = []string{
	"ID", "Event Type", "Outcome", "Scope Key", "User ID", "IP", "User Agent", "Tags", "Created At",
}

// ExportXLSX renders the filtered events as a spreadsheet for operator
// review outside the API.
func (s *auditService) ExportXLSX(filter repository.AuditEventFilter) ([]byte, error) {
	events, err := s.auditRepo.List(filter)
	if err != nil {
		logger.Error("Failed to load audit events for export", err, nil)
		return nil, err
	}

	f := excelize.NewFile()
	defer f.Close()

	const sheet = "Audit Events"
	index, err := f.NewSheet(sheet)
	if err != nil {
		return nil, err
	}
	f.SetActiveSheet(index)
	f.DeleteSheet("Sheet1")

	for col, title := range auditExportHeader {
		cell, err := excelize.CoordinatesToCellName(col+1, 1)
		if err != nil {
			return nil, err
		}
		if err := f.SetCellValue(sheet, cell, title); err != nil {
			return nil, err
		}
	}

	for row, event := range events {
		userID := ""
		if event.UserID != nil {
			userID = fmt.Sprintf("%d", *event.UserID)
		}
		values := []interface{}{
			event.ID,
			event.EventType,
			event.Outcome,
			event.ScopeKey,
			userID,
			event.IP,
			event.UserAgent,
			strings.Join(event.Tags, ","),
			event.CreatedAt.Format("2006-01-02 15:04:05"),
		}
		for col, value := range values {
			cell, err := excelize.CoordinatesToCellName(col+1, row+2)
			if err != nil {
				return nil, err
			}
			if err := f.SetCellValue(sheet, cell, value); err != nil {
				return nil, err
			}
		}
	}

	buf, err := f.WriteToBuffer()
	if err != nil {
		logger.Error("Failed to write audit export", err, nil)
		return nil, err
	}

	logger.Info("Audit events exported", map[string]interface{}{
		"rows": len(events),
	})
	return buf.Bytes(), nil
}
