package service

import (
	"budayana_backend/internal/model"
	"budayana_backend/internal/repository"
	"budayana_backend/internal/util"
)

// CatalogService serves the read-only content catalog. Answer keys never
// leave this layer: IsCorrect, the canonical drag order and the incorrect
// feedback line are stripped at the model's JSON boundary, so catalog
// responses are safe to hand to any client.
type CatalogService struct {
	Islands   *repository.IslandRepository
	Stories   *repository.StoryRepository
	Questions *repository.QuestionRepository
}

func NewCatalogService(
	islands *repository.IslandRepository,
	stories *repository.StoryRepository,
	questions *repository.QuestionRepository,
) *CatalogService {
	return &CatalogService{Islands: islands, Stories: stories, Questions: questions}
}

// ListIslands returns every island in unlock order, optionally with their
// stories.
func (s *CatalogService) ListIslands(includeStories bool) ([]model.Island, error) {
	if includeStories {
		return s.Islands.ListOrderedWithStories()
	}
	return s.Islands.ListOrdered()
}

// GetIsland resolves an island by id or slug.
func (s *CatalogService) GetIsland(idOrSlug string, includeStories bool) (*model.Island, error) {
	island, err := s.Islands.FindByIDOrSlug(idOrSlug, includeStories)
	if err != nil {
		return nil, asNotFound(err, util.ErrIslandNotFound)
	}
	return island, nil
}

// GetStory returns a story with its flipbook slides ordered by page.
func (s *CatalogService) GetStory(storyID string) (*model.Story, error) {
	story, err := s.Stories.FindByIDWithSlides(storyID)
	if err != nil {
		return nil, asNotFound(err, util.ErrStoryNotFound)
	}
	return story, nil
}

// ListQuestions returns questions matching the filter with their options in
// display order.
func (s *CatalogService) ListQuestions(filter repository.QuestionFilter) ([]model.Question, error) {
	return s.Questions.List(filter)
}

// GetQuestion resolves a single question with its options.
func (s *CatalogService) GetQuestion(questionID string) (*model.Question, error) {
	question, err := s.Questions.FindByID(questionID)
	if err != nil {
		return nil, asNotFound(err, util.ErrQuestionNotFound)
	}
	return question, nil
}
