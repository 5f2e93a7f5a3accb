package service

import (
	"bytes"
	"context"
	"testing"
	"time"

	"github.com/BailinYe/Resume-Modifier-sub002/internal/app/model"
	"github.com/BailinYe/Resume-Modifier-sub002/internal/app/repository"
	"github.com/BailinYe/Resume-Modifier-sub002/internal/db"
	"github.com/BailinYe/Resume-Modifier-sub002/pkg/gdrive"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
)

type fakeDriveUploader struct {
	lastName    string
	lastContent []byte
}

func (f *fakeDriveUploader) UploadDocument(ctx context.Context, name, contentType string, content []byte) (*gdrive.File, error) {
	f.lastName = name
	f.lastContent = content
	return &gdrive.File{
		ID:          "drive-file-1",
		Name:        name,
		MimeType:    "application/vnd.google-apps.document",
		WebViewLink: "https://docs.google.com/document/d/drive-file-1",
	}, nil
}

func TestExportService_ExportToDrive(t *testing.T) {
	testDB, err := db.SetupTestDB()
	require.NoError(t, err)
	t.Cleanup(func() { db.CleanupTestDB(testDB) })

	user := &model.User{Email: "export@example.com", PasswordHash: "x", Name: "Exporter"}
	require.NoError(t, testDB.Create(user).Error)

	resumeRepo := repository.NewResumeRepository(testDB)
	resumeSvc := NewResumeService(resumeRepo)
	uploader := &fakeDriveUploader{}
	exportSvc := NewExportService(uploader, resumeRepo, resumeSvc)

	resume, err := resumeSvc.Create(user.ID, "Export Me", `{"basics":{"name":"Exporter"}}`, "")
	require.NoError(t, err)

	file, err := exportSvc.ExportToDrive(context.Background(), user.ID, resume.ID)
	require.NoError(t, err)
	assert.Equal(t, "drive-file-1", file.ID)
	assert.Equal(t, "Export Me", uploader.lastName)
	assert.Contains(t, string(uploader.lastContent), "Export Me")

	// The Drive file id is remembered on the resume.
	stored, err := resumeSvc.Get(user.ID, resume.ID)
	require.NoError(t, err)
	assert.Equal(t, "drive-file-1", stored.DriveFileID)

	// Ownership still applies.
	other := &model.User{Email: "other@example.com", PasswordHash: "x", Name: "Other"}
	require.NoError(t, testDB.Create(other).Error)
	_, err = exportSvc.ExportToDrive(context.Background(), other.ID, resume.ID)
	assert.ErrorIs(t, err, ErrResumeAccessDenied)
}

func TestAuditService_ExportXLSX(t *testing.T) {
	userID := uint(7)
	audit := &fakeAuditRecorder{events: []model.AuditEvent{
		{
			ID:        1,
			EventType: model.AuditPasswordResetRequested,
			Outcome:   model.AuditOutcomeUserFound,
			ScopeKey:  "user@example.com",
			UserID:    &userID,
			IP:        "203.0.113.7",
			UserAgent: "test-agent",
			CreatedAt: time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC),
		},
		{
			ID:        2,
			EventType: model.AuditPasswordResetRejected,
			Outcome:   model.AuditOutcomeRateLimited,
			ScopeKey:  "203.0.113.7",
			IP:        "203.0.113.7",
			CreatedAt: time.Date(2026, 8, 1, 12, 5, 0, 0, time.UTC),
		},
	}}
	svc := NewAuditService(audit)

	data, err := svc.ExportXLSX(repository.AuditEventFilter{})
	require.NoError(t, err)
	require.NotEmpty(t, data)

	// The workbook round-trips with header and both rows.
	f, err := excelize.OpenReader(bytes.NewReader(data))
	require.NoError(t, err)
	defer f.Close()

	rows, err := f.GetRows("Audit Events")
	require.NoError(t, err)
	require.Len(t, rows, 3)
	assert.Equal(t, "Event Type", rows[0][1])
	assert.Equal(t, model.AuditPasswordResetRequested, rows[1][1])
	assert.Equal(t, model.AuditOutcomeRateLimited, rows[2][2])
}
