package service

import (
	"context"
	"encoding/json"
	"errors"
	"strings"

	"github.com/BailinYe/Resume-Modifier-sub002/internal/app/repository"
	"github.com/BailinYe/Resume-Modifier-sub002/pkg/logger"
)

var ErrAIResponseMalformed = errors.New("AI response could not be parsed")

// Completer is the chat-completion surface of the OpenAI client.
// Tests substitute a canned implementation.
type Completer interface {
	Complete(ctx context.Context, systemPrompt, userPrompt string) (string, error)
}

type AIService interface {
	ParseResume(ctx context.Context, userID, resumeID uint, rawText string) (*ParsedResume, error)
	ScoreResume(ctx context.Context, userID, resumeID uint) (*ResumeScore, error)
}

// ParsedResume is the structured form extracted from raw resume text.
// Content is the full JSON document stored on the resume.
type ParsedResume struct {
	Content string `json:"content"`
}

type ResumeScore struct {
	Score    int    `json:"score"`
	Feedback string `json:"feedback"`
}

type aiService struct {
	completer  Completer
	resumeRepo repository.ResumeRepository
	resumeSvc  ResumeService
}

func NewAIService(completer Completer, resumeRepo repository.ResumeRepository, resumeSvc ResumeService) AIService {
	return &aiService{
		completer:  completer,
		resumeRepo: resumeRepo,
		resumeSvc:  resumeSvc,
	}
}

const parseSystemPrompt = `You are a resume parser. Convert the raw resume text you receive into a JSON document with the keys: basics (name, email, headline), work (array of {company, position, startDate, endDate, summary}), education (array of {institution, area, startDate, endDate}), skills (array of strings). Respond with the JSON document only, no surrounding prose.`

const scoreSystemPrompt = `You are a resume reviewer. Score the resume JSON you receive from 0 to 100 for clarity, impact and completeness. Respond with a JSON object only: {"score": <int>, "feedback": "<two or three sentences>"}.`

// ParseResume extracts structure from raw text and stores the result as
// the resume's content.
func (s *aiService) ParseResume(ctx context.Context, userID, resumeID uint, rawText string) (*ParsedResume, error) {
	resume, err := s.resumeSvc.Get(userID, resumeID)
	if err != nil {
		return nil, err
	}

	answer, err := s.completer.Complete(ctx, parseSystemPrompt, rawText)
	if err != nil {
		logger.Error("Resume parse completion failed", err, map[string]interface{}{
			"resume_id": resumeID,
		})
		return nil, err
	}

	content := extractJSON(answer)
	if content == "" || !json.Valid([]byte(content)) {
		logger.Warn("Resume parse returned non-JSON content", map[string]interface{}{
			"resume_id": resumeID,
		})
		return nil, ErrAIResponseMalformed
	}

	resume.Content = content
	resume.Score = nil
	resume.ScoreNotes = ""
	if err := s.resumeRepo.Update(resume); err != nil {
		logger.Error("Failed to store parsed resume", err, map[string]interface{}{
			"resume_id": resumeID,
		})
		return nil, err
	}

	logger.Info("Resume parsed", map[string]interface{}{
		"resume_id": resumeID,
		"user_id":   userID,
	})
	return &ParsedResume{Content: content}, nil
}

// ScoreResume asks the model for a 0-100 score and stores it on the
// resume alongside the feedback.
func (s *aiService) ScoreResume(ctx context.Context, userID, resumeID uint) (*ResumeScore, error) {
	resume, err := s.resumeSvc.Get(userID, resumeID)
	if err != nil {
		return nil, err
	}

	answer, err := s.completer.Complete(ctx, scoreSystemPrompt, resume.Content)
	if err != nil {
		logger.Error("Resume score completion failed", err, map[string]interface{}{
			"resume_id": resumeID,
		})
		return nil, err
	}

	var score ResumeScore
	if err := json.Unmarshal([]byte(extractJSON(answer)), &score); err != nil {
		logger.Warn("Resume score returned malformed JSON", map[string]interface{}{
			"resume_id": resumeID,
		})
		return nil, ErrAIResponseMalformed
	}
	if score.Score < 0 {
		score.Score = 0
	}
	if score.Score > 100 {
		score.Score = 100
	}

	resume.Score = &score.Score
	resume.ScoreNotes = score.Feedback
	if err := s.resumeRepo.Update(resume); err != nil {
		logger.Error("Failed to store resume score", err, map[string]interface{}{
			"resume_id": resumeID,
		})
		return nil, err
	}

	logger.Info("Resume scored", map[string]interface{}{
		"resume_id": resumeID,
		"score":     score.Score,
	})
	return &score, nil
}

// extractJSON strips markdown code fences models sometimes wrap around
// JSON answers despite instructions.
func extractJSON(answer string) string {
	answer = strings.TrimSpace(answer)
	if strings.HasPrefix(answer, "```") {
		answer = strings.TrimPrefix(answer, "```json")
		answer = strings.TrimPrefix(answer, "```")
		if idx := strings.LastIndex(answer, "```"); idx >= 0 {
			answer = answer[:idx]
		}
		answer = strings.TrimSpace(answer)
	}
	if answer == "" {
		return ""
	}
	if answer[0] != '{' && answer[0] != '[' {
		return ""
	}
	return answer
}
