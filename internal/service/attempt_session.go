package service

import (
	"budayana_backend/internal/model"
	"sort"
)

// SessionPhase is the lifecycle of one attempt session.
type SessionPhase string

const (
	SessionIdle      SessionPhase = "idle"
	SessionStarting  SessionPhase = "starting"
	SessionActive    SessionPhase = "active"
	SessionFinishing SessionPhase = "finishing"
	SessionFinished  SessionPhase = "finished"
)

// AnswerState is the per-question sub-state. A question moves Unanswered →
// Pending on submission and Pending → Resolved once the store has ruled on
// correctness; a transport failure rolls it back to its previous value so it
// is never stuck Pending.
type AnswerState string

const (
	AnswerUnanswered AnswerState = "unanswered"
	AnswerPending    AnswerState = "pending"
	AnswerResolved   AnswerState = "resolved"
)

// QuestionState is the reconciled view of one question within a session.
type QuestionState struct {
	State            AnswerState `json:"state"`
	IsCorrect        bool        `json:"isCorrect"`
	SelectedOptionID string      `json:"selectedOptionId,omitempty"`
	UserAnswerText   string      `json:"userAnswerText,omitempty"`
	AttemptCount     int         `json:"attemptCount"`
	EverIncorrect    bool        `json:"everIncorrect"`

	prev *QuestionState // pre-request snapshot for rollback
}

// AttemptSession is the explicit, passable session object: attempt identity,
// lifecycle phase, and a map of per-question states. It is rebuilt on resume
// by replaying the attempt's question logs.
type AttemptSession struct {
	AttemptID string                    `json:"attemptId"`
	StoryID   string                    `json:"storyId"`
	Phase     SessionPhase              `json:"phase"`
	Questions map[string]*QuestionState `json:"questions"`
	// Advance maps question id to whether navigation past it is currently
	// allowed; filled by RefreshGates for the restore payload.
	Advance map[string]bool `json:"advance,omitempty"`
}

// NewAttemptSession builds a fresh Active session with every question
// Unanswered.
func NewAttemptSession(attempt *model.Attempt, questions []model.Question) *AttemptSession {
	s := &AttemptSession{
		AttemptID: attempt.ID,
		StoryID:   attempt.StoryID,
		Phase:     SessionActive,
		Questions: make(map[string]*QuestionState, len(questions)),
	}
	if attempt.IsFinished() {
		s.Phase = SessionFinished
	}
	for _, q := range questions {
		s.Questions[q.ID] = &QuestionState{State: AnswerUnanswered}
	}
	return s
}

// ReplayLogs reconciles persisted question logs into the session. For each
// question only the latest log by AnsweredAt counts; earlier incorrect logs
// still mark EverIncorrect for clean-pass scoring. A restored choice is
// matched back to the current options by option text; if the content was
// edited and no exact match exists, the log is dropped and the question
// stays Unanswered.
func (s *AttemptSession) ReplayLogs(questions []model.Question, logs []model.QuestionLog) {
	byQuestion := groupLogsByQuestion(logs)
	questionIndex := make(map[string]*model.Question, len(questions))
	for i := range questions {
		questionIndex[questions[i].ID] = &questions[i]
	}

	for questionID, qLogs := range byQuestion {
		q, known := questionIndex[questionID]
		state, tracked := s.Questions[questionID]
		if !known || !tracked {
			continue
		}

		latest := qLogs[len(qLogs)-1]
		everIncorrect := false
		for _, l := range qLogs {
			if !l.IsCorrect {
				everIncorrect = true
				break
			}
		}

		resolved := &QuestionState{
			State:          AnswerResolved,
			IsCorrect:      latest.IsCorrect,
			UserAnswerText: latest.UserAnswerText,
			AttemptCount:   latest.AttemptCount,
			EverIncorrect:  everIncorrect,
		}

		switch q.QuestionType {
		case model.QuestionMCQ, model.QuestionTrueFalse:
			option := matchOptionByText(q.Options, latest.SelectedOptionText)
			if option == nil {
				// Content changed since the log was written; drop it.
				continue
			}
			resolved.SelectedOptionID = option.ID
		case model.QuestionDragDrop, model.QuestionEssay:
			if latest.SelectedOptionID != nil {
				resolved.SelectedOptionID = *latest.SelectedOptionID
			}
		}

		*state = *resolved
	}
}

// MarkPending records an in-flight submission. Returns false when the
// question is locked (already resolved correct) or unknown.
func (s *AttemptSession) MarkPending(questionID string) bool {
	state, ok := s.Questions[questionID]
	if !ok || s.Phase != SessionActive {
		return false
	}
	if s.Locked(questionID) {
		return false
	}
	snapshot := *state
	state.prev = &snapshot
	state.State = AnswerPending
	return true
}

// Resolve applies the store's authoritative verdict to a pending question.
func (s *AttemptSession) Resolve(questionID string, log *model.QuestionLog) {
	state, ok := s.Questions[questionID]
	if !ok {
		return
	}
	state.State = AnswerResolved
	state.IsCorrect = log.IsCorrect
	state.UserAnswerText = log.UserAnswerText
	state.AttemptCount = log.AttemptCount
	if log.SelectedOptionID != nil {
		state.SelectedOptionID = *log.SelectedOptionID
	}
	if !log.IsCorrect {
		state.EverIncorrect = true
	}
	state.prev = nil
}

// Rollback restores the pre-request value after a failed submission so the
// question never stays Pending.
func (s *AttemptSession) Rollback(questionID string) {
	state, ok := s.Questions[questionID]
	if !ok || state.prev == nil {
		return
	}
	*state = *state.prev
}

// CanAdvance reports whether navigation past the question is allowed:
// blocked while a verdict is pending, and blocked until correct for
// correctness-gated types (MCQ, true/false, drag-drop). Essays only require
// a non-empty persisted answer.
func (s *AttemptSession) CanAdvance(q *model.Question) bool {
	state, ok := s.Questions[q.ID]
	if !ok {
		return true
	}
	if state.State == AnswerPending {
		return false
	}
	if q.QuestionType == model.QuestionEssay {
		return state.State == AnswerResolved && state.UserAnswerText != ""
	}
	return state.State == AnswerResolved && state.IsCorrect
}

// RefreshGates recomputes the per-question advance map from the current
// states.
func (s *AttemptSession) RefreshGates(questions []model.Question) {
	s.Advance = make(map[string]bool, len(questions))
	for i := range questions {
		s.Advance[questions[i].ID] = s.CanAdvance(&questions[i])
	}
}

// Locked reports whether further submissions for the question are rejected.
// Once correct, a question is final.
func (s *AttemptSession) Locked(questionID string) bool {
	state, ok := s.Questions[questionID]
	if !ok {
		return false
	}
	return state.State == AnswerResolved && state.IsCorrect
}

// groupLogsByQuestion buckets logs per question ordered by AnsweredAt
// ascending, so the last element of each bucket is the log that counts.
func groupLogsByQuestion(logs []model.QuestionLog) map[string][]model.QuestionLog {
	grouped := make(map[string][]model.QuestionLog)
	for _, l := range logs {
		grouped[l.QuestionID] = append(grouped[l.QuestionID], l)
	}
	for id := range grouped {
		bucket := grouped[id]
		sort.SliceStable(bucket, func(i, j int) bool {
			return bucket[i].AnsweredAt.Before(bucket[j].AnsweredAt)
		})
		grouped[id] = bucket
	}
	return grouped
}

func matchOptionByText(options []model.AnswerOption, text string) *model.AnswerOption {
	if text == "" {
		return nil
	}
	for i := range options {
		if options[i].Label == text {
			return &options[i]
		}
	}
	return nil
}
