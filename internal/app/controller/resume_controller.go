package controller

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/BailinYe/Resume-Modifier-sub002/internal/app/service"
	apperrors "github.com/BailinYe/Resume-Modifier-sub002/internal/errors"
	"github.com/BailinYe/Resume-Modifier-sub002/internal/middleware"
	"github.com/gin-gonic/gin"
)

type ResumeController struct {
	resumeService service.ResumeService
	aiService     service.AIService
	exportService service.ExportService
}

func NewResumeController(
	resumeService service.ResumeService,
	aiService service.AIService,
	exportService service.ExportService,
) *ResumeController {
	return &ResumeController{
		resumeService: resumeService,
		aiService:     aiService,
		exportService: exportService,
	}
}

type CreateResumeRequest struct {
	Title      string `json:"title" binding:"required"`
	Content    string `json:"content"`
	TemplateID string `json:"template_id"`
}

type UpdateResumeRequest struct {
	Title      string `json:"title"`
	Content    string `json:"content"`
	TemplateID string `json:"template_id"`
}

type ParseResumeRequest struct {
	RawText string `json:"raw_text" binding:"required"`
}

// Create creates a new resume
// POST /api/v1/resumes
func (ctrl *ResumeController) Create(c *gin.Context) {
	userID, ok := middleware.GetUserID(c)
	if !ok {
		apperrors.Unauthorized(c, "Authentication required")
		return
	}

	var req CreateResumeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		apperrors.BadRequest(c, apperrors.ValidationInvalidInput, "Title is required")
		return
	}

	resume, err := ctrl.resumeService.Create(userID, req.Title, req.Content, req.TemplateID)
	if err != nil {
		respondResumeError(c, err, "create resume")
		return
	}

	c.JSON(http.StatusCreated, gin.H{"resume": resume})
}

// List lists the authenticated user's resumes
// GET /api/v1/resumes
func (ctrl *ResumeController) List(c *gin.Context) {
	userID, ok := middleware.GetUserID(c)
	if !ok {
		apperrors.Unauthorized(c, "Authentication required")
		return
	}

	resumes, err := ctrl.resumeService.List(userID)
	if err != nil {
		respondResumeError(c, err, "list resumes")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"resumes": resumes,
		"count":   len(resumes),
	})
}

// Get returns one resume with its files
// GET /api/v1/resumes/:id
func (ctrl *ResumeController) Get(c *gin.Context) {
	userID, resumeID, ok := ctrl.requestIDs(c)
	if !ok {
		return
	}

	resume, err := ctrl.resumeService.Get(userID, resumeID)
	if err != nil {
		respondResumeError(c, err, "get resume")
		return
	}

	c.JSON(http.StatusOK, gin.H{"resume": resume})
}

// Update updates a resume
// PUT /api/v1/resumes/:id
func (ctrl *ResumeController) Update(c *gin.Context) {
	userID, resumeID, ok := ctrl.requestIDs(c)
	if !ok {
		return
	}

	var req UpdateResumeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		apperrors.BadRequest(c, apperrors.ValidationInvalidInput, "Invalid resume data")
		return
	}

	resume, err := ctrl.resumeService.Update(userID, resumeID, req.Title, req.Content, req.TemplateID)
	if err != nil {
		respondResumeError(c, err, "update resume")
		return
	}

	c.JSON(http.StatusOK, gin.H{"resume": resume})
}

// Delete deletes a resume
// DELETE /api/v1/resumes/:id
func (ctrl *ResumeController) Delete(c *gin.Context) {
	userID, resumeID, ok := ctrl.requestIDs(c)
	if !ok {
		return
	}

	if err := ctrl.resumeService.Delete(userID, resumeID); err != nil {
		respondResumeError(c, err, "delete resume")
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Resume deleted"})
}

// Parse runs AI extraction over raw resume text
// POST /api/v1/resumes/:id/parse
func (ctrl *ResumeController) Parse(c *gin.Context) {
	log := middleware.GetLoggerFromContext(c)

	userID, resumeID, ok := ctrl.requestIDs(c)
	if !ok {
		return
	}

	var req ParseResumeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		apperrors.BadRequest(c, apperrors.ValidationInvalidInput, "raw_text is required")
		return
	}

	parsed, err := ctrl.aiService.ParseResume(c.Request.Context(), userID, resumeID, req.RawText)
	if err != nil {
		if errors.Is(err, service.ErrAIResponseMalformed) {
			apperrors.RespondWithError(c, http.StatusBadGateway, apperrors.ResumeParseFailed, "Resume could not be parsed, please try again")
			return
		}
		log.Error("Resume parse failed", err, map[string]interface{}{
			"resume_id": resumeID,
		})
		respondResumeError(c, err, "parse resume")
		return
	}

	c.JSON(http.StatusOK, gin.H{"content": parsed.Content})
}

// Score asks the AI reviewer for a score
// POST /api/v1/resumes/:id/score
func (ctrl *ResumeController) Score(c *gin.Context) {
	log := middleware.GetLoggerFromContext(c)

	userID, resumeID, ok := ctrl.requestIDs(c)
	if !ok {
		return
	}

	score, err := ctrl.aiService.ScoreResume(c.Request.Context(), userID, resumeID)
	if err != nil {
		if errors.Is(err, service.ErrAIResponseMalformed) {
			apperrors.RespondWithError(c, http.StatusBadGateway, apperrors.ResumeScoreFailed, "Resume could not be scored, please try again")
			return
		}
		log.Error("Resume score failed", err, map[string]interface{}{
			"resume_id": resumeID,
		})
		respondResumeError(c, err, "score resume")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"score":    score.Score,
		"feedback": score.Feedback,
	})
}

// Export uploads the resume to Google Drive
// POST /api/v1/resumes/:id/export
func (ctrl *ResumeController) Export(c *gin.Context) {
	log := middleware.GetLoggerFromContext(c)

	userID, resumeID, ok := ctrl.requestIDs(c)
	if !ok {
		return
	}

	file, err := ctrl.exportService.ExportToDrive(c.Request.Context(), userID, resumeID)
	if err != nil {
		log.Error("Resume export failed", err, map[string]interface{}{
			"resume_id": resumeID,
		})
		if errors.Is(err, service.ErrResumeNotFound) || errors.Is(err, service.ErrResumeAccessDenied) {
			respondResumeError(c, err, "export resume")
			return
		}
		apperrors.RespondWithError(c, http.StatusBadGateway, apperrors.ResumeExportFailed, "Resume could not be exported, please try again")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"drive_file_id": file.ID,
		"web_view_link": file.WebViewLink,
	})
}

func (ctrl *ResumeController) requestIDs(c *gin.Context) (userID, resumeID uint, ok bool) {
	userID, hasUser := middleware.GetUserID(c)
	if !hasUser {
		apperrors.Unauthorized(c, "Authentication required")
		return 0, 0, false
	}

	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		apperrors.BadRequest(c, apperrors.ValidationInvalidID, "Invalid resume id")
		return 0, 0, false
	}
	return userID, uint(id), true
}

func respondResumeError(c *gin.Context, err error, context string) {
	switch {
	case errors.Is(err, service.ErrResumeNotFound):
		apperrors.NotFound(c, apperrors.ResumeNotFound, "Resume not found")
	case errors.Is(err, service.ErrResumeAccessDenied):
		apperrors.RespondWithError(c, http.StatusForbidden, apperrors.AuthzOwnerOnly, "You do not have access to this resume")
	case errors.Is(err, service.ErrInvalidResumeJSON):
		apperrors.BadRequest(c, apperrors.ValidationInvalidFormat, "Resume content must be valid JSON")
	default:
		apperrors.ParseAndRespond(c, http.StatusInternalServerError, err, context)
	}
}
