package model

import "time"

// Attempt is one learner's run through a single story. At most one open
// attempt (FinishedAt == nil) exists per (user, story); starting again
// while one is open resumes it. FinishedAt is set exactly once and the row
// is never deleted — it is the permanent history consumed by progress and
// results views.
type Attempt struct {
	UUIDBase
	UserID           uint           `gorm:"index:idx_attempts_user_story;not null" json:"userId"`
	StoryID          string         `gorm:"size:36;index:idx_attempts_user_story;not null" json:"storyId"`
	StartedAt        time.Time      `gorm:"not null" json:"startedAt"`
	FinishedAt       *time.Time     `json:"finishedAt"`
	TotalTimeSeconds int            `gorm:"default:0" json:"totalTimeSeconds"`
	TotalXpGained    int            `gorm:"default:0" json:"totalXpGained"`
	PreTestScore     *float64       `json:"preTestScore"`
	PostTestScore    *float64       `json:"postTestScore"`
	Stages           []AttemptStage `gorm:"foreignKey:AttemptID" json:"stages,omitempty"`
	QuestionLogs     []QuestionLog  `gorm:"foreignKey:AttemptID" json:"questionLogs,omitempty"`

	Story *Story `gorm:"foreignKey:StoryID" json:"story,omitempty"`
}

func (Attempt) TableName() string {
	return "attempts"
}

// IsFinished reports whether the attempt has been closed.
func (a *Attempt) IsFinished() bool {
	return a.FinishedAt != nil
}

// AttemptStage records completion of one graded phase within an attempt.
// One row per stage type per attempt in normal flow.
type AttemptStage struct {
	UUIDBase
	AttemptID        string    `gorm:"size:36;index;not null" json:"attemptId"`
	StageType        StageType `gorm:"type:varchar(20);not null" json:"stageType"`
	TimeSpentSeconds int       `gorm:"default:0" json:"timeSpentSeconds"`
	XpGained         int       `gorm:"default:0" json:"xpGained"`
	Score            *float64  `json:"score"`
}

func (AttemptStage) TableName() string {
	return "attempt_stages"
}

// QuestionLog is the persisted record of one answer submission. Correctness
// is authoritative here, set by the server at log time, never by the client.
// Multiple logs may exist per question (retries); the latest by AnsweredAt
// is the one that counts for restore and scoring.
type QuestionLog struct {
	UUIDBase
	AttemptID          string    `gorm:"size:36;index;not null" json:"attemptId"`
	QuestionID         string    `gorm:"size:36;index;not null" json:"questionId"`
	SelectedOptionID   *string   `gorm:"size:36" json:"selectedOptionId"`
	SelectedOptionText string    `gorm:"size:255" json:"selectedOptionText"` // denormalized for restore matching against edited content
	UserAnswerText     string    `gorm:"type:text" json:"userAnswerText"`
	DragOrder          string    `gorm:"type:json" json:"dragOrder,omitempty"`
	IsCorrect          bool      `gorm:"default:false" json:"isCorrect"`
	AttemptCount       int       `gorm:"default:1" json:"attemptCount"`
	AnsweredAt         time.Time `gorm:"index;not null" json:"answeredAt"`
}

func (QuestionLog) TableName() string {
	return "question_logs"
}

// UnlockStatus is derived per story from the attempt list on every progress
// read. It is never persisted, so it cannot go stale.
type UnlockStatus struct {
	IsUnlocked bool `json:"isUnlocked"`
	IsFinished bool `json:"isFinished"`
	IsStarted  bool `json:"isStarted"`
}

// State collapses the three flags into the four-state machine the map UI
// renders: locked, unlocked, resume, completed.
func (s UnlockStatus) State() string {
	switch {
	case !s.IsUnlocked:
		return "locked"
	case s.IsFinished:
		return "completed"
	case s.IsStarted:
		return "resume"
	default:
		return "unlocked"
	}
}
