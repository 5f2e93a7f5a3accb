package service

import (
	"testing"

	"github.com/BailinYe/Resume-Modifier-sub002/internal/app/model"
	"github.com/BailinYe/Resume-Modifier-sub002/internal/app/repository"
	"github.com/BailinYe/Resume-Modifier-sub002/internal/db"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func setupResumeServiceTest(t *testing.T) (ResumeService, *gorm.DB, *model.User, *model.User) {
	testDB, err := db.SetupTestDB()
	require.NoError(t, err)
	t.Cleanup(func() { db.CleanupTestDB(testDB) })

	owner := &model.User{Email: "owner@example.com", PasswordHash: "x", Name: "Owner"}
	other := &model.User{Email: "other@example.com", PasswordHash: "x", Name: "Other"}
	require.NoError(t, testDB.Create(owner).Error)
	require.NoError(t, testDB.Create(other).Error)

	svc := NewResumeService(repository.NewResumeRepository(testDB))
	return svc, testDB, owner, other
}

func TestResumeService_CreateAndGet(t *testing.T) {
	svc, _, owner, other := setupResumeServiceTest(t)

	resume, err := svc.Create(owner.ID, "Backend Resume", `{"basics":{"name":"Owner"}}`, "")
	require.NoError(t, err)
	assert.Equal(t, "classic", resume.TemplateID)

	got, err := svc.Get(owner.ID, resume.ID)
	require.NoError(t, err)
	assert.Equal(t, "Backend Resume", got.Title)

	// Ownership is enforced on read.
	_, err = svc.Get(other.ID, resume.ID)
	assert.ErrorIs(t, err, ErrResumeAccessDenied)

	_, err = svc.Get(owner.ID, 9999)
	assert.ErrorIs(t, err, ErrResumeNotFound)
}

func TestResumeService_CreateRejectsInvalidJSON(t *testing.T) {
	svc, _, owner, _ := setupResumeServiceTest(t)

	_, err := svc.Create(owner.ID, "Broken", `{"basics":`, "")
	assert.ErrorIs(t, err, ErrInvalidResumeJSON)

	// Empty content defaults to an empty document.
	resume, err := svc.Create(owner.ID, "Empty", "", "")
	require.NoError(t, err)
	assert.Equal(t, "{}", resume.Content)
}

func TestResumeService_UpdateInvalidatesScore(t *testing.T) {
	svc, testDB, owner, _ := setupResumeServiceTest(t)

	resume, err := svc.Create(owner.ID, "Scored", `{"basics":{}}`, "classic")
	require.NoError(t, err)

	score := 80
	resume.Score = &score
	resume.ScoreNotes = "solid"
	require.NoError(t, testDB.Save(resume).Error)

	updated, err := svc.Update(owner.ID, resume.ID, "", `{"basics":{"name":"New"}}`, "")
	require.NoError(t, err)
	assert.Nil(t, updated.Score)
	assert.Empty(t, updated.ScoreNotes)

	// A title-only update keeps the score.
	score2 := 75
	updated.Score = &score2
	require.NoError(t, testDB.Save(updated).Error)
	updated, err = svc.Update(owner.ID, resume.ID, "Renamed", "", "")
	require.NoError(t, err)
	assert.NotNil(t, updated.Score)
	assert.Equal(t, "Renamed", updated.Title)
}

func TestResumeService_Delete(t *testing.T) {
	svc, _, owner, other := setupResumeServiceTest(t)

	resume, err := svc.Create(owner.ID, "Doomed", "{}", "")
	require.NoError(t, err)

	assert.ErrorIs(t, svc.Delete(other.ID, resume.ID), ErrResumeAccessDenied)
	require.NoError(t, svc.Delete(owner.ID, resume.ID))

	_, err = svc.Get(owner.ID, resume.ID)
	assert.ErrorIs(t, err, ErrResumeNotFound)
}

func TestResumeService_AttachFile(t *testing.T) {
	svc, _, owner, _ := setupResumeServiceTest(t)

	resume, err := svc.Create(owner.ID, "With File", "{}", "")
	require.NoError(t, err)

	file := &model.ResumeFile{
		Key:         "uploads/abc.pdf",
		URL:         "https://bucket.s3.amazonaws.com/uploads/abc.pdf",
		FileName:    "resume.pdf",
		ContentType: "application/pdf",
		SizeBytes:   12345,
	}
	require.NoError(t, svc.AttachFile(owner.ID, resume.ID, file))

	got, err := svc.Get(owner.ID, resume.ID)
	require.NoError(t, err)
	require.Len(t, got.Files, 1)
	assert.Equal(t, "resume.pdf", got.Files[0].FileName)
}
