package repository

import (
	"budayana_backend/internal/model"

	"gorm.io/gorm"
)

type QuestionRepository struct {
	DB *gorm.DB
}

func NewQuestionRepository(db *gorm.DB) *QuestionRepository {
	return &QuestionRepository{DB: db}
}

// QuestionFilter narrows question listings; zero values mean "any".
type QuestionFilter struct {
	StoryID      string
	StageType    model.StageType
	QuestionType model.QuestionType
}

func (r *QuestionRepository) List(filter QuestionFilter) ([]model.Question, error) {
	q := r.DB.Preload("Options", func(db *gorm.DB) *gorm.DB {
		return db.Order("sort_order asc")
	})
	if filter.StoryID != "" {
		q = q.Where("story_id = ?", filter.StoryID)
	}
	if filter.StageType != "" {
		q = q.Where("stage_type = ?", filter.StageType)
	}
	if filter.QuestionType != "" {
		q = q.Where("question_type = ?", filter.QuestionType)
	}

	var questions []model.Question
	err := q.Order("sort_order asc").Find(&questions).Error
	return questions, err
}

func (r *QuestionRepository) FindByID(id string) (*model.Question, error) {
	var question model.Question
	err := r.DB.Preload("Options", func(db *gorm.DB) *gorm.DB {
		return db.Order("sort_order asc")
	}).First(&question, "id = ?", id).Error
	if err != nil {
		return nil, err
	}
	return &question, nil
}

// ListByStoryAndStage returns the scoring set for a stage of a story.
func (r *QuestionRepository) ListByStoryAndStage(storyID string, stage model.StageType) ([]model.Question, error) {
	return r.List(QuestionFilter{StoryID: storyID, StageType: stage})
}
