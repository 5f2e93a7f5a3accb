package controller

import (
	"net/http"

	"github.com/BailinYe/Resume-Modifier-sub002/internal/app/model"
	"github.com/BailinYe/Resume-Modifier-sub002/internal/app/service"
	apperrors "github.com/BailinYe/Resume-Modifier-sub002/internal/errors"
	"github.com/BailinYe/Resume-Modifier-sub002/internal/middleware"
	"github.com/BailinYe/Resume-Modifier-sub002/internal/storage"
	"github.com/gin-gonic/gin"
)

type UploadController struct {
	storage       *storage.S3Storage
	resumeService service.ResumeService
}

func NewUploadController(storage *storage.S3Storage, resumeService service.ResumeService) *UploadController {
	return &UploadController{
		storage:       storage,
		resumeService: resumeService,
	}
}

type PresignedUploadRequest struct {
	ResumeID    uint   `json:"resume_id" binding:"required"`
	Filename    string `json:"filename" binding:"required"`
	ContentType string `json:"content_type" binding:"required"`
	SizeBytes   int64  `json:"size_bytes" binding:"required"`
}

// GeneratePresignedURL hands out a presigned PUT URL for a resume
// source file and records the pending file on the resume.
// POST /api/v1/uploads/presigned-url
func (ctrl *UploadController) GeneratePresignedURL(c *gin.Context) {
	log := middleware.GetLoggerFromContext(c)

	userID, ok := middleware.GetUserID(c)
	if !ok {
		apperrors.Unauthorized(c, "Authentication required")
		return
	}

	var req PresignedUploadRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		apperrors.BadRequest(c, apperrors.ValidationInvalidInput, "resume_id, filename, content_type and size_bytes are required")
		return
	}

	if err := ctrl.storage.ValidateContentType(req.ContentType); err != nil {
		apperrors.BadRequest(c, apperrors.UploadInvalidFileType, "Only PDF, Word and plain text files are allowed")
		return
	}
	if err := ctrl.storage.ValidateFileSize(req.SizeBytes); err != nil {
		apperrors.BadRequest(c, apperrors.UploadFileTooLarge, "File exceeds the 10 MiB limit")
		return
	}

	response, err := ctrl.storage.GenerateUploadURL(userID, req.Filename, req.ContentType)
	if err != nil {
		log.Error("Failed to generate presigned URL", err, map[string]interface{}{
			"content_type": req.ContentType,
		})
		apperrors.RespondWithError(c, http.StatusInternalServerError, apperrors.UploadFailed, "Failed to prepare upload")
		return
	}

	file := &model.ResumeFile{
		Key:         response.Key,
		URL:         response.FileURL,
		FileName:    req.Filename,
		ContentType: req.ContentType,
		SizeBytes:   req.SizeBytes,
	}
	if err := ctrl.resumeService.AttachFile(userID, req.ResumeID, file); err != nil {
		respondResumeError(c, err, "attach upload")
		return
	}

	log.Info("Presigned upload URL generated", map[string]interface{}{
		"key":       response.Key,
		"resume_id": req.ResumeID,
	})

	c.JSON(http.StatusOK, gin.H{
		"upload_url": response.UploadURL,
		"file_url":   response.FileURL,
		"key":        response.Key,
	})
}
