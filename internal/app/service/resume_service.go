package service

import (
	"encoding/json"
	"errors"

	"github.com/BailinYe/Resume-Modifier-sub002/internal/app/model"
	"github.com/BailinYe/Resume-Modifier-sub002/internal/app/repository"
	"github.com/BailinYe/Resume-Modifier-sub002/pkg/logger"
	"gorm.io/gorm"
)

var (
	ErrResumeNotFound     = errors.New("resume not found")
	ErrResumeAccessDenied = errors.New("resume belongs to another user")
	ErrInvalidResumeJSON  = errors.New("resume content is not valid JSON")
)

type ResumeService interface {
	Create(userID uint, title, content, templateID string) (*model.Resume, error)
	Get(userID, resumeID uint) (*model.Resume, error)
	List(userID uint) ([]model.Resume, error)
	Update(userID, resumeID uint, title, content, templateID string) (*model.Resume, error)
	Delete(userID, resumeID uint) error
	AttachFile(userID, resumeID uint, file *model.ResumeFile) error
}

type resumeService struct {
	resumeRepo repository.ResumeRepository
}

func NewResumeService(resumeRepo repository.ResumeRepository) ResumeService {
	return &resumeService{resumeRepo: resumeRepo}
}

func (s *resumeService) Create(userID uint, title, content, templateID string) (*model.Resume, error) {
	if content == "" {
		content = "{}"
	}
	if !json.Valid([]byte(content)) {
		return nil, ErrInvalidResumeJSON
	}
	if templateID == "" {
		templateID = "classic"
	}

	resume := &model.Resume{
		UserID:     userID,
		Title:      title,
		Content:    content,
		TemplateID: templateID,
	}

	if err := s.resumeRepo.Create(resume); err != nil {
		logger.Error("Failed to create resume", err, map[string]interface{}{
			"user_id": userID,
		})
		return nil, err
	}

	logger.Info("Resume created", map[string]interface{}{
		"resume_id": resume.ID,
		"user_id":   userID,
	})
	return resume, nil
}

func (s *resumeService) Get(userID, resumeID uint) (*model.Resume, error) {
	return s.ownedResume(userID, resumeID, true)
}

func (s *resumeService) List(userID uint) ([]model.Resume, error) {
	resumes, err := s.resumeRepo.ListByUser(userID)
	if err != nil {
		logger.Error("Failed to list resumes", err, map[string]interface{}{
			"user_id": userID,
		})
		return nil, err
	}
	return resumes, nil
}

func (s *resumeService) Update(userID, resumeID uint, title, content, templateID string) (*model.Resume, error) {
	resume, err := s.ownedResume(userID, resumeID, false)
	if err != nil {
		return nil, err
	}

	if title != "" {
		resume.Title = title
	}
	if content != "" {
		if !json.Valid([]byte(content)) {
			return nil, ErrInvalidResumeJSON
		}
		resume.Content = content
		// Edited content invalidates any previous score.
		resume.Score = nil
		resume.ScoreNotes = ""
	}
	if templateID != "" {
		resume.TemplateID = templateID
	}

	if err := s.resumeRepo.Update(resume); err != nil {
		logger.Error("Failed to update resume", err, map[string]interface{}{
			"resume_id": resumeID,
		})
		return nil, err
	}
	return resume, nil
}

func (s *resumeService) Delete(userID, resumeID uint) error {
	if _, err := s.ownedResume(userID, resumeID, false); err != nil {
		return err
	}

	if err := s.resumeRepo.Delete(resumeID); err != nil {
		logger.Error("Failed to delete resume", err, map[string]interface{}{
			"resume_id": resumeID,
		})
		return err
	}

	logger.Info("Resume deleted", map[string]interface{}{
		"resume_id": resumeID,
		"user_id":   userID,
	})
	return nil
}

func (s *resumeService) AttachFile(userID, resumeID uint, file *model.ResumeFile) error {
	if _, err := s.ownedResume(userID, resumeID, false); err != nil {
		return err
	}

	file.ResumeID = resumeID
	if err := s.resumeRepo.AddFile(file); err != nil {
		logger.Error("Failed to attach file to resume", err, map[string]interface{}{
			"resume_id": resumeID,
		})
		return err
	}
	return nil
}

// ownedResume loads a resume and enforces ownership. Not-found and
// not-owned stay distinct errors; the controller decides how much of
// that distinction to expose.
func (s *resumeService) ownedResume(userID, resumeID uint, withFiles bool) (*model.Resume, error) {
	var (
		resume *model.Resume
		err    error
	)
	if withFiles {
		resume, err = s.resumeRepo.FindByIDWithFiles(resumeID)
	} else {
		resume, err = s.resumeRepo.FindByID(resumeID)
	}
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrResumeNotFound
		}
		logger.Error("Failed to load resume", err, map[string]interface{}{
			"resume_id": resumeID,
		})
		return nil, err
	}

	if resume.UserID != userID {
		logger.Warn("Resume access denied", map[string]interface{}{
			"resume_id": resumeID,
			"owner_id":  resume.UserID,
			"user_id":   userID,
		})
		return nil, ErrResumeAccessDenied
	}
	return resume, nil
}
