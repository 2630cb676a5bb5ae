package repository

import (
	"budayana_backend/internal/model"

	"gorm.io/gorm"
)

type StoryRepository struct {
	DB *gorm.DB
}

func NewStoryRepository(db *gorm.DB) *StoryRepository {
	return &StoryRepository{DB: db}
}

func (r *StoryRepository) FindByID(id string) (*model.Story, error) {
	var story model.Story
	if err := r.DB.First(&story, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &story, nil
}

func (r *StoryRepository) FindByIDWithSlides(id string) (*model.Story, error) {
	var story model.Story
	err := r.DB.Preload("Slides", func(db *gorm.DB) *gorm.DB {
		return db.Order("page_number asc")
	}).First(&story, "id = ?", id).Error
	if err != nil {
		return nil, err
	}
	return &story, nil
}

// ListOrdered returns every story across all islands in unlock order.
func (r *StoryRepository) ListOrdered() ([]model.Story, error) {
	var stories []model.Story
	err := r.DB.Order("sort_order asc").Find(&stories).Error
	return stories, err
}

func (r *StoryRepository) ListByIsland(islandID string) ([]model.Story, error) {
	var stories []model.Story
	err := r.DB.Where("island_id = ?", islandID).Order("sort_order asc").Find(&stories).Error
	return stories, err
}
