package repository

import (
	"github.com/BailinYe/Resume-Modifier-sub002/internal/app/model"
	"github.com/BailinYe/Resume-Modifier-sub002/pkg/logger"
	"gorm.io/gorm"
)

type ResumeRepository interface {
	Create(resume *model.Resume) error
	FindByID(id uint) (*model.Resume, error)
	FindByIDWithFiles(id uint) (*model.Resume, error)
	ListByUser(userID uint) ([]model.Resume, error)
	Update(resume *model.Resume) error
	Delete(id uint) error
	AddFile(file *model.ResumeFile) error
}

type resumeRepository struct {
	db *gorm.DB
}

func NewResumeRepository(db *gorm.DB) ResumeRepository {
	return &resumeRepository{db: db}
}

func (r *resumeRepository) Create(resume *model.Resume) error {
	logger.Debug("Creating resume in database", map[string]interface{}{
		"user_id": resume.UserID,
		"title":   resume.Title,
	})

	if err := r.db.Create(resume).Error; err != nil {
		logger.Error("Failed to create resume in database", err, map[string]interface{}{
			"user_id": resume.UserID,
		})
		return err
	}
	return nil
}

func (r *resumeRepository) FindByID(id uint) (*model.Resume, error) {
	var resume model.Resume
	if err := r.db.First(&resume, id).Error; err != nil {
		if err != gorm.ErrRecordNotFound {
			logger.Error("Failed to find resume by ID in database", err, map[string]interface{}{
				"resume_id": id,
			})
		}
		return nil, err
	}
	return &resume, nil
}

func (r *resumeRepository) FindByIDWithFiles(id uint) (*model.Resume, error) {
	var resume model.Resume
	if err := r.db.Preload("Files").First(&resume, id).Error; err != nil {
		if err != gorm.ErrRecordNotFound {
			logger.Error("Failed to find resume with files in database", err, map[string]interface{}{
				"resume_id": id,
			})
		}
		return nil, err
	}
	return &resume, nil
}

func (r *resumeRepository) ListByUser(userID uint) ([]model.Resume, error) {
	var resumes []model.Resume
	if err := r.db.Where("user_id = ?", userID).Order("updated_at DESC").Find(&resumes).Error; err != nil {
		logger.Error("Failed to list resumes from database", err, map[string]interface{}{
			"user_id": userID,
		})
		return nil, err
	}
	return resumes, nil
}

func (r *resumeRepository) Update(resume *model.Resume) error {
	logger.Debug("Updating resume in database", map[string]interface{}{
		"resume_id": resume.ID,
	})

	if err := r.db.Save(resume).Error; err != nil {
		logger.Error("Failed to update resume in database", err, map[string]interface{}{
			"resume_id": resume.ID,
		})
		return err
	}
	return nil
}

func (r *resumeRepository) Delete(id uint) error {
	logger.Debug("Deleting resume from database", map[string]interface{}{
		"resume_id": id,
	})

	if err := r.db.Delete(&model.Resume{}, id).Error; err != nil {
		logger.Error("Failed to delete resume from database", err, map[string]interface{}{
			"resume_id": id,
		})
		return err
	}
	return nil
}

func (r *resumeRepository) AddFile(file *model.ResumeFile) error {
	if err := r.db.Create(file).Error; err != nil {
		logger.Error("Failed to add resume file in database", err, map[string]interface{}{
			"resume_id": file.ResumeID,
		})
		return err
	}
	return nil
}
