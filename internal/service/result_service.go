package service

import (
	"math"

	"budayana_backend/internal/model"
	"budayana_backend/internal/repository"
)

// ResultService aggregates finished attempts into the results screen.
type ResultService struct {
	Attempts *repository.AttemptRepository
	Stories  *repository.StoryRepository
	Users    *repository.UserRepository
}

func NewResultService(
	attempts *repository.AttemptRepository,
	stories *repository.StoryRepository,
	users *repository.UserRepository,
) *ResultService {
	return &ResultService{Attempts: attempts, Stories: stories, Users: users}
}

// ResultSummary is the lifetime aggregate across all finished attempts.
type ResultSummary struct {
	StoriesCompleted int             `json:"storiesCompleted"`
	TotalStories     int             `json:"totalStories"`
	TotalXp          int             `json:"totalXp"`
	TotalTimeSeconds int             `json:"totalTimeSeconds"`
	AverageScore     *float64        `json:"averageScore"`
	Attempts         []model.Attempt `json:"attempts"`
}

// Summary builds the results view: distinct stories completed, lifetime XP
// and time, and the mean of per-attempt display scores. An attempt whose XP
// was never rolled up onto the row falls back to the sum of its stage rows.
func (s *ResultService) Summary(userID uint) (*ResultSummary, error) {
	finished := true
	attempts, err := s.Attempts.ListByUser(userID, repository.AttemptFilter{IsFinished: &finished})
	if err != nil {
		return nil, err
	}
	stories, err := s.Stories.ListOrdered()
	if err != nil {
		return nil, err
	}
	storyTypes := make(map[string]model.StoryType, len(stories))
	for _, st := range stories {
		storyTypes[st.ID] = st.StoryType
	}

	summary := &ResultSummary{TotalStories: len(stories), Attempts: attempts}
	completed := make(map[string]bool)
	var scoreSum float64
	var scored int

	for i := range attempts {
		a := &attempts[i]
		completed[a.StoryID] = true
		summary.TotalTimeSeconds += a.TotalTimeSeconds

		xp := a.TotalXpGained
		if xp == 0 {
			for _, st := range a.Stages {
				xp += st.XpGained
			}
		}
		if xp == 0 && storyTypes[a.StoryID] == model.StoryStatic {
			xp = staticStoryXP
		}
		summary.TotalXp += xp

		if score := DisplayScore(storyTypes[a.StoryID], attempts[i:i+1]); score != nil {
			scoreSum += float64(*score)
			scored++
		}
	}

	summary.StoriesCompleted = len(completed)
	if scored > 0 {
		avg := math.Round(scoreSum / float64(scored))
		summary.AverageScore = &avg
	}
	return summary, nil
}

// ForStory returns the user's finished attempts for one story, newest
// first.
func (s *ResultService) ForStory(userID uint, storyID string) ([]model.Attempt, error) {
	finished := true
	return s.Attempts.ListByUser(userID, repository.AttemptFilter{StoryID: storyID, IsFinished: &finished})
}
