package model

import "encoding/json"

type QuestionType string

const (
	QuestionMCQ       QuestionType = "MCQ"
	QuestionTrueFalse QuestionType = "TRUE_FALSE"
	QuestionDragDrop  QuestionType = "DRAG_DROP"
	QuestionEssay     QuestionType = "ESSAY"
)

type StageType string

const (
	StagePreTest  StageType = "PRE_TEST"
	StageStory    StageType = "STORY"
	StagePostTest StageType = "POST_TEST"
)

// Question belongs to a story and a stage. Correctness data (option flags,
// canonical drag order) lives only here, server-side; catalog responses
// strip it so clients cannot read answers before logging.
type Question struct {
	UUIDBase
	StoryID          string         `gorm:"size:36;index;not null" json:"storyId"`
	StageType        StageType      `gorm:"type:varchar(20);index;not null" json:"stageType"`
	QuestionType     QuestionType   `gorm:"type:varchar(20);not null" json:"questionType"`
	Prompt           string         `gorm:"type:text;not null" json:"prompt"`
	Order            int            `gorm:"column:sort_order;not null" json:"order"`
	PageNumber       int            `json:"pageNumber"` // page the question sits on inside an interactive story
	ImageURL         string         `gorm:"size:255" json:"imageUrl"`
	IncorrectMessage string         `gorm:"size:255" json:"-"`
	DragOrder        string         `gorm:"type:json" json:"-"` // canonical option-id order for DRAG_DROP
	Options          []AnswerOption `gorm:"foreignKey:QuestionID" json:"options,omitempty"`
}

func (Question) TableName() string {
	return "questions"
}

// CanonicalDragOrder decodes the stored canonical ordering. Empty for
// non-drag questions.
func (q *Question) CanonicalDragOrder() []string {
	if q.DragOrder == "" {
		return nil
	}
	var order []string
	if err := json.Unmarshal([]byte(q.DragOrder), &order); err != nil {
		return nil
	}
	return order
}

// ScoringEligible reports whether the question counts toward the score
// denominator. Essays never do.
func (q *Question) ScoringEligible() bool {
	return q.QuestionType != QuestionEssay
}

// AnswerOption is one selectable choice (or drag item). IsCorrect is
// server-held and never serialized.
type AnswerOption struct {
	UUIDBase
	QuestionID string `gorm:"size:36;index;not null" json:"questionId"`
	Label      string `gorm:"size:255;not null" json:"label"`
	Order      int    `gorm:"column:sort_order;not null" json:"order"`
	IsCorrect  bool   `gorm:"default:false" json:"-"`
}

func (AnswerOption) TableName() string {
	return "answer_options"
}
