package service

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"html"

	"github.com/BailinYe/Resume-Modifier-sub002/internal/app/repository"
	"github.com/BailinYe/Resume-Modifier-sub002/pkg/gdrive"
	"github.com/BailinYe/Resume-Modifier-sub002/pkg/logger"
)

// DriveUploader is the slice of the Drive client the exporter needs.
type DriveUploader interface {
	UploadDocument(ctx context.Context, name, contentType string, content []byte) (*gdrive.File, error)
}

type ExportService interface {
	ExportToDrive(ctx context.Context, userID, resumeID uint) (*gdrive.File, error)
}

type exportService struct {
	drive      DriveUploader
	resumeRepo repository.ResumeRepository
	resumeSvc  ResumeService
}

func NewExportService(drive DriveUploader, resumeRepo repository.ResumeRepository, resumeSvc ResumeService) ExportService {
	return &exportService{
		drive:      drive,
		resumeRepo: resumeRepo,
		resumeSvc:  resumeSvc,
	}
}

// ExportToDrive renders the resume as an HTML document, uploads it to
// Google Drive as a converted Doc, and remembers the file id so a
// re-export can be traced back.
func (s *exportService) ExportToDrive(ctx context.Context, userID, resumeID uint) (*gdrive.File, error) {
	resume, err := s.resumeSvc.Get(userID, resumeID)
	if err != nil {
		return nil, err
	}

	rendered, err := renderResumeHTML(resume.Title, resume.Content)
	if err != nil {
		logger.Error("Failed to render resume for export", err, map[string]interface{}{
			"resume_id": resumeID,
		})
		return nil, err
	}

	name := resume.Title
	if name == "" {
		name = fmt.Sprintf("Resume %d", resume.ID)
	}

	file, err := s.drive.UploadDocument(ctx, name, "text/html", rendered)
	if err != nil {
		logger.Error("Failed to upload resume to Drive", err, map[string]interface{}{
			"resume_id": resumeID,
		})
		return nil, err
	}

	resume.DriveFileID = file.ID
	if err := s.resumeRepo.Update(resume); err != nil {
		logger.Error("Failed to store Drive file id", err, map[string]interface{}{
			"resume_id": resumeID,
		})
		return nil, err
	}

	logger.Info("Resume exported to Drive", map[string]interface{}{
		"resume_id":     resumeID,
		"drive_file_id": file.ID,
	})
	return file, nil
}

// renderResumeHTML produces a minimal HTML document from the stored
// resume JSON. Drive converts it to a Google Doc on upload; section
// layout beyond headings is left to the template applied client-side.
func renderResumeHTML(title, content string) ([]byte, error) {
	var doc map[string]interface{}
	if err := json.Unmarshal([]byte(content), &doc); err != nil {
		return nil, fmt.Errorf("resume content is not valid JSON: %w", err)
	}

	var buf bytes.Buffer
	buf.WriteString("<html><body>")
	fmt.Fprintf(&buf, "<h1>%s</h1>", html.EscapeString(title))

	pretty, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return nil, err
	}
	buf.WriteString("<pre>")
	buf.Write(pretty)
	buf.WriteString("</pre></body></html>")

	return buf.Bytes(), nil
}
