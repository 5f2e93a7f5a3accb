package model

import (
	"time"

	"gorm.io/gorm"
)

// Resume holds one editable resume. Content is the structured resume
// body (sections, entries, bullet points) serialized as JSON; the
// editor frontend owns its schema, the backend treats it as opaque.
type Resume struct {
	ID          uint           `gorm:"primarykey" json:"id"`
	UserID      uint           `gorm:"not null;index" json:"user_id"`
	Title       string         `gorm:"size:255;not null" json:"title"`
	Content     string         `gorm:"type:text" json:"content"`
	TemplateID  string         `gorm:"size:64;default:'classic'" json:"template_id"`
	Score       *int           `json:"score,omitempty"`          // last AI score, 0-100
	ScoreNotes  string         `gorm:"type:text" json:"score_notes,omitempty"`
	DriveFileID string         `gorm:"size:128" json:"drive_file_id,omitempty"` // set after export
	CreatedAt   time.Time      `json:"created_at"`
	UpdatedAt   time.Time      `json:"updated_at"`
	DeletedAt   gorm.DeletedAt `gorm:"index" json:"-"`

	Files []ResumeFile `gorm:"foreignKey:ResumeID" json:"files,omitempty"`
}

func (Resume) TableName() string {
	return "resumes"
}

// ResumeFile tracks an uploaded source document (pdf/docx) stored in S3.
type ResumeFile struct {
	ID          uint      `gorm:"primarykey" json:"id"`
	ResumeID    uint      `gorm:"not null;index" json:"resume_id"`
	Key         string    `gorm:"size:512;not null" json:"key"` // S3 object key
	URL         string    `gorm:"size:1024" json:"url"`
	FileName    string    `gorm:"size:255" json:"file_name"`
	ContentType string    `gorm:"size:128" json:"content_type"`
	SizeBytes   int64     `json:"size_bytes"`
	CreatedAt   time.Time `json:"created_at"`
}

func (ResumeFile) TableName() string {
	return "resume_files"
}
