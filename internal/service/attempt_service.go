package service

import (
	"context"
	"encoding/json"
	"errors"
	"strconv"
	"strings"
	"time"

	"budayana_backend/internal/model"
	"budayana_backend/internal/repository"
	"budayana_backend/internal/util"
	"budayana_backend/pkg/monitoring"

	"go.uber.org/zap"
	"gorm.io/gorm"
)

// asNotFound maps a gorm record miss to the domain sentinel.
func asNotFound(err, sentinel error) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return sentinel
	}
	return err
}

// AttemptService owns the attempt lifecycle: idempotent start/resume,
// answer logging with server-side grading, stage completion, and
// exactly-once finish. All timestamps come from the injected clock; client
// supplied times are never trusted.
type AttemptService struct {
	Attempts  *repository.AttemptRepository
	Stories   *repository.StoryRepository
	Questions *repository.QuestionRepository
	Cache     ResumeCache
	Now       func() time.Time
}

func NewAttemptService(
	attempts *repository.AttemptRepository,
	stories *repository.StoryRepository,
	questions *repository.QuestionRepository,
	cache ResumeCache,
) *AttemptService {
	return &AttemptService{
		Attempts:  attempts,
		Stories:   stories,
		Questions: questions,
		Cache:     cache,
		Now:       time.Now,
	}
}

// StartOrResume returns the user's open attempt for the story, creating one
// only when none exists. Calling it again while an attempt is open is a
// no-op that returns the same attempt with its original StartedAt, so a
// client retrying start can never fork history; lookup and insert share a
// transaction so concurrent starts converge on one attempt. The bool
// reports whether an existing attempt was resumed.
func (s *AttemptService) StartOrResume(userID uint, storyID string) (*model.Attempt, bool, error) {
	if _, err := s.Stories.FindByID(storyID); err != nil {
		return nil, false, asNotFound(err, util.ErrStoryNotFound)
	}

	attempt := &model.Attempt{
		UserID:    userID,
		StoryID:   storyID,
		StartedAt: s.Now(),
	}
	existingID, err := s.Attempts.FindOrCreateOpen(attempt)
	if err != nil {
		return nil, false, err
	}
	if existingID != "" {
		open, err := s.Attempts.FindByID(existingID)
		if err != nil {
			return nil, false, asNotFound(err, util.ErrAttemptNotFound)
		}
		return open, true, nil
	}
	monitoring.AttemptsStarted.Inc()
	zap.L().Info("attempt started",
		zap.String("attemptId", attempt.ID),
		zap.Uint("userId", userID),
		zap.String("storyId", storyID))
	return attempt, false, nil
}

// GetAttempt loads an attempt with its stages and logs, rejecting access to
// another user's attempt.
func (s *AttemptService) GetAttempt(userID uint, attemptID string) (*model.Attempt, error) {
	attempt, err := s.Attempts.FindByID(attemptID)
	if err != nil {
		return nil, asNotFound(err, util.ErrAttemptNotFound)
	}
	if attempt.UserID != userID {
		return nil, util.ErrAttemptForeign
	}
	return attempt, nil
}

// ListAttempts returns the user's attempt history, newest first.
func (s *AttemptService) ListAttempts(userID uint, filter repository.AttemptFilter) ([]model.Attempt, error) {
	return s.Attempts.ListByUser(userID, filter)
}

// RestoreSession rebuilds the session object for an attempt: the
// per-question states replayed from the log history plus whatever resume
// state is still cached. Missing cache state is not an error; the client
// starts from the reconciled logs alone.
func (s *AttemptService) RestoreSession(ctx context.Context, userID uint, attemptID string) (*AttemptSession, *ResumeState, error) {
	attempt, err := s.GetAttempt(userID, attemptID)
	if err != nil {
		return nil, nil, err
	}
	questions, err := s.Questions.List(repository.QuestionFilter{StoryID: attempt.StoryID})
	if err != nil {
		return nil, nil, err
	}

	session := NewAttemptSession(attempt, questions)
	session.ReplayLogs(questions, attempt.QuestionLogs)
	session.RefreshGates(questions)

	state, err := s.Cache.Restore(ctx, attemptID)
	if err != nil {
		zap.L().Warn("resume cache read failed", zap.String("attemptId", attemptID), zap.Error(err))
		state = nil
	}
	return session, state, nil
}

// SaveState persists mid-attempt resume state for the attempt's owner.
func (s *AttemptService) SaveState(ctx context.Context, userID uint, attemptID string, state *ResumeState) error {
	attempt, err := s.GetAttempt(userID, attemptID)
	if err != nil {
		return err
	}
	if attempt.IsFinished() {
		return util.ErrAttemptFinished
	}
	return s.Cache.Persist(ctx, attemptID, state)
}

// GetState returns the cached resume state for the attempt's owner, nil
// when nothing is cached.
func (s *AttemptService) GetState(ctx context.Context, userID uint, attemptID string) (*ResumeState, error) {
	if _, err := s.GetAttempt(userID, attemptID); err != nil {
		return nil, err
	}
	return s.Cache.Restore(ctx, attemptID)
}

// ClearState drops the cached resume state without touching the attempt.
func (s *AttemptService) ClearState(ctx context.Context, userID uint, attemptID string) error {
	if _, err := s.GetAttempt(userID, attemptID); err != nil {
		return err
	}
	return s.Cache.Clear(ctx, attemptID)
}

// SubmitLogRequest is one answer submission. Exactly one of the payload
// fields applies depending on the question type.
type SubmitLogRequest struct {
	QuestionID       string   `json:"questionId" binding:"required"`
	SelectedOptionID *string  `json:"selectedOptionId"`
	UserAnswerText   string   `json:"userAnswerText"`
	DragOrder        []string `json:"dragOrder"`
}

// SubmitLogResult carries the persisted log plus the feedback line shown
// when the answer was wrong.
type SubmitLogResult struct {
	Log      *model.QuestionLog `json:"log"`
	Feedback string             `json:"feedback,omitempty"`
}

// SubmitLog grades and records one answer. Correctness is decided here
// against the stored answer key — never taken from the client. Submissions
// are rejected once the attempt is finished or the question has already
// been answered correctly; retries after a wrong answer are recorded as new
// rows with an incremented AttemptCount, so the full history survives.
func (s *AttemptService) SubmitLog(userID uint, attemptID string, req SubmitLogRequest) (*SubmitLogResult, error) {
	attempt, err := s.GetAttempt(userID, attemptID)
	if err != nil {
		return nil, err
	}
	if attempt.IsFinished() {
		return nil, util.ErrAttemptFinished
	}

	question, err := s.Questions.FindByID(req.QuestionID)
	if err != nil {
		return nil, asNotFound(err, util.ErrQuestionNotFound)
	}
	if question.StoryID != attempt.StoryID {
		return nil, util.ErrQuestionForeign
	}

	// The replayed session is the single authority on whether the question
	// is still answerable; a resolved-correct question stays locked.
	scope := []model.Question{*question}
	session := NewAttemptSession(attempt, scope)
	session.ReplayLogs(scope, attempt.QuestionLogs)
	if !session.MarkPending(question.ID) {
		return nil, util.ErrQuestionResolved
	}

	log := &model.QuestionLog{
		AttemptID:  attemptID,
		QuestionID: question.ID,
		AnsweredAt: s.Now(),
	}
	if err := s.grade(question, req, log); err != nil {
		session.Rollback(question.ID)
		return nil, err
	}

	count, err := s.Attempts.CountLogsForQuestion(attemptID, question.ID)
	if err != nil {
		session.Rollback(question.ID)
		return nil, err
	}
	log.AttemptCount = int(count) + 1

	if err := s.Attempts.CreateLog(log); err != nil {
		session.Rollback(question.ID)
		return nil, err
	}
	session.Resolve(question.ID, log)
	monitoring.QuestionLogsRecorded.WithLabelValues(string(question.QuestionType), strconv.FormatBool(log.IsCorrect)).Inc()

	result := &SubmitLogResult{Log: log}
	if !log.IsCorrect {
		result.Feedback = question.IncorrectMessage
	}
	return result, nil
}

// grade fills the answer payload and verdict on the log according to the
// question type.
func (s *AttemptService) grade(question *model.Question, req SubmitLogRequest, log *model.QuestionLog) error {
	switch question.QuestionType {
	case model.QuestionMCQ, model.QuestionTrueFalse:
		if req.SelectedOptionID == nil || *req.SelectedOptionID == "" {
			return util.ErrEmptyAnswer
		}
		var option *model.AnswerOption
		for i := range question.Options {
			if question.Options[i].ID == *req.SelectedOptionID {
				option = &question.Options[i]
				break
			}
		}
		if option == nil {
			return util.ErrOptionUnknown
		}
		log.SelectedOptionID = &option.ID
		log.SelectedOptionText = option.Label
		log.IsCorrect = option.IsCorrect

	case model.QuestionDragDrop:
		if len(req.DragOrder) == 0 {
			return util.ErrEmptyAnswer
		}
		encoded, err := json.Marshal(req.DragOrder)
		if err != nil {
			return err
		}
		log.DragOrder = string(encoded)
		log.IsCorrect = orderMatches(req.DragOrder, question.CanonicalDragOrder())

	case model.QuestionEssay:
		if strings.TrimSpace(req.UserAnswerText) == "" {
			return util.ErrEmptyAnswer
		}
		log.UserAnswerText = req.UserAnswerText
		// Essays are not machine graded; a submitted answer counts.
		log.IsCorrect = true
	}
	return nil
}

func orderMatches(got, want []string) bool {
	if len(got) != len(want) || len(want) == 0 {
		return false
	}
	for i := range want {
		if got[i] != want[i] {
			return false
		}
	}
	return true
}

// StageRequest marks one graded phase of the attempt as completed.
type StageRequest struct {
	StageType        model.StageType `json:"stageType" binding:"required"`
	TimeSpentSeconds int             `json:"timeSpentSeconds"`
}

// CompleteStage scores the stage from its logs and upserts the stage row,
// so re-posting the same stage can never double-count XP. Pre and post test
// scores are mirrored onto the attempt for the progress views.
func (s *AttemptService) CompleteStage(userID uint, attemptID string, req StageRequest) (*model.AttemptStage, error) {
	attempt, err := s.GetAttempt(userID, attemptID)
	if err != nil {
		return nil, err
	}
	if attempt.IsFinished() {
		return nil, util.ErrAttemptFinished
	}
	story, err := s.Stories.FindByID(attempt.StoryID)
	if err != nil {
		return nil, asNotFound(err, util.ErrStoryNotFound)
	}

	questions, err := s.Questions.ListByStoryAndStage(attempt.StoryID, req.StageType)
	if err != nil {
		return nil, err
	}
	outcome := ComputeStage(req.StageType, story.StoryType, questions, attempt.QuestionLogs)

	stage := &model.AttemptStage{
		AttemptID:        attemptID,
		StageType:        req.StageType,
		TimeSpentSeconds: req.TimeSpentSeconds,
		XpGained:         outcome.XpGained,
		Score:            outcome.Score,
	}
	if err := s.Attempts.UpsertStage(stage); err != nil {
		return nil, err
	}

	switch req.StageType {
	case model.StagePreTest:
		attempt.PreTestScore = outcome.Score
	case model.StagePostTest:
		attempt.PostTestScore = outcome.Score
	}
	if err := s.Attempts.Save(attempt); err != nil {
		return nil, err
	}
	return stage, nil
}

// UpdateAttemptRequest is the PATCH payload. Setting Finished closes the
// attempt; any client-supplied timestamp is ignored in favor of the server
// clock.
type UpdateAttemptRequest struct {
	Finished bool `json:"finished"`
}

// Finish closes the attempt exactly once: FinishedAt is set from the
// server clock (never earlier than StartedAt), elapsed time and totals are
// derived, the user's XP balance is credited, and the resume cache entry is
// dropped. The close and the XP credit run in one transaction conditioned
// on the row still being open, so two racing finishes credit XP only once.
// Finishing an already-finished attempt is a no-op that returns the attempt
// unchanged.
func (s *AttemptService) Finish(ctx context.Context, userID uint, attemptID string) (*model.Attempt, error) {
	attempt, err := s.GetAttempt(userID, attemptID)
	if err != nil {
		return nil, err
	}
	if attempt.IsFinished() {
		return attempt, nil
	}

	now := s.Now()
	if now.Before(attempt.StartedAt) {
		now = attempt.StartedAt
	}
	attempt.FinishedAt = &now
	attempt.TotalTimeSeconds = int(now.Sub(attempt.StartedAt).Seconds())

	stages, err := s.Attempts.GetStages(attemptID)
	if err != nil {
		return nil, err
	}
	totalXP := 0
	for _, st := range stages {
		totalXP += st.XpGained
	}
	if len(stages) == 0 {
		// No stage rows were posted; fall back to grading the whole
		// attempt from its log history.
		story, err := s.Stories.FindByID(attempt.StoryID)
		if err != nil {
			return nil, asNotFound(err, util.ErrStoryNotFound)
		}
		questions, err := s.Questions.List(repository.QuestionFilter{StoryID: attempt.StoryID})
		if err != nil {
			return nil, err
		}
		totalXP = ComputeFinish(story.StoryType, questions, attempt.QuestionLogs).XpGained
	}
	attempt.TotalXpGained = totalXP

	won, err := s.Attempts.FinishAttempt(attempt, totalXP)
	if err != nil {
		return nil, err
	}
	if !won {
		// A concurrent finish closed the row first; return its result
		// without crediting XP a second time.
		return s.GetAttempt(userID, attemptID)
	}
	if err := s.Cache.Clear(ctx, attemptID); err != nil {
		zap.L().Warn("resume cache clear failed", zap.String("attemptId", attemptID), zap.Error(err))
	}

	monitoring.AttemptsFinished.Inc()
	zap.L().Info("attempt finished",
		zap.String("attemptId", attemptID),
		zap.Int("totalXpGained", totalXP),
		zap.Int("totalTimeSeconds", attempt.TotalTimeSeconds))
	return attempt, nil
}

// Exit persists the elapsed time of an open attempt without finishing it
// and drops the resume cache entry. The attempt stays open and resumable.
func (s *AttemptService) Exit(ctx context.Context, userID uint, attemptID string) (*model.Attempt, error) {
	attempt, err := s.GetAttempt(userID, attemptID)
	if err != nil {
		return nil, err
	}
	if !attempt.IsFinished() {
		attempt.TotalTimeSeconds = int(s.Now().Sub(attempt.StartedAt).Seconds())
		if err := s.Attempts.Save(attempt); err != nil {
			return nil, err
		}
	}
	if err := s.Cache.Clear(ctx, attemptID); err != nil {
		zap.L().Warn("resume cache clear failed", zap.String("attemptId", attemptID), zap.Error(err))
	}
	return attempt, nil
}
