package service

import (
	"sort"

	"budayana_backend/internal/model"
	"budayana_backend/internal/repository"
	"budayana_backend/internal/util"
)

// ProgressService derives unlock state and display scores. Nothing here is
// persisted: every read recomputes from the attempt history, so progress
// can never drift out of sync with the attempts that define it.
type ProgressService struct {
	Islands  *repository.IslandRepository
	Stories  *repository.StoryRepository
	Attempts *repository.AttemptRepository
	Users    *repository.UserRepository
}

func NewProgressService(
	islands *repository.IslandRepository,
	stories *repository.StoryRepository,
	attempts *repository.AttemptRepository,
	users *repository.UserRepository,
) *ProgressService {
	return &ProgressService{Islands: islands, Stories: stories, Attempts: attempts, Users: users}
}

// StoryProgress is one story on the map with its derived unlock state and
// the score shown on its card.
type StoryProgress struct {
	Story       model.Story        `json:"story"`
	Status      model.UnlockStatus `json:"status"`
	State       string             `json:"state"`
	LatestScore *int               `json:"latestScore"`
}

// IslandProgress is one island with its stories' progress.
type IslandProgress struct {
	Island  model.Island    `json:"island"`
	Stories []StoryProgress `json:"stories"`
}

// DeriveUnlockStatuses computes the unlock map over stories given in global
// unlock order. A story is unlocked when it is first in the sequence or ANY
// finished attempt exists for its predecessor; starting a new attempt on an
// already-finished story can never re-lock what follows it.
func DeriveUnlockStatuses(stories []model.Story, attempts []model.Attempt) map[string]model.UnlockStatus {
	finished := make(map[string]bool)
	started := make(map[string]bool)
	for _, a := range attempts {
		if a.IsFinished() {
			finished[a.StoryID] = true
		} else {
			started[a.StoryID] = true
		}
	}

	statuses := make(map[string]model.UnlockStatus, len(stories))
	for i, story := range stories {
		unlocked := i == 0 || finished[stories[i-1].ID]
		statuses[story.ID] = model.UnlockStatus{
			IsUnlocked: unlocked || finished[story.ID],
			IsFinished: finished[story.ID],
			IsStarted:  started[story.ID],
		}
	}
	return statuses
}

// DisplayScore picks the number shown on a story card. Only finished
// attempts count: stage completion mirrors scores onto the row mid-attempt,
// so an open re-attempt must never shadow an earlier finished result.
// Finished attempts are scanned most recently finished first; within one
// attempt the pre-test score wins, then the post-test score, then total XP,
// and an attempt whose best value is zero is skipped in favor of an older
// one. A finished static story with no XP recorded still shows the flat
// completion grant.
func DisplayScore(storyType model.StoryType, attempts []model.Attempt) *int {
	done := make([]model.Attempt, 0, len(attempts))
	for _, a := range attempts {
		if a.IsFinished() {
			done = append(done, a)
		}
	}
	sort.SliceStable(done, func(i, j int) bool {
		return done[i].FinishedAt.After(*done[j].FinishedAt)
	})

	for _, a := range done {
		var value int
		switch {
		case a.PreTestScore != nil && *a.PreTestScore > 0:
			value = int(*a.PreTestScore)
		case a.PostTestScore != nil && *a.PostTestScore > 0:
			value = int(*a.PostTestScore)
		case a.TotalXpGained > 0:
			value = a.TotalXpGained
		case storyType == model.StoryStatic:
			value = staticStoryXP
		default:
			continue
		}
		return &value
	}
	return nil
}

// Overview assembles the full map view: every island with every story's
// unlock state and display score.
func (s *ProgressService) Overview(userID uint) ([]IslandProgress, error) {
	islands, err := s.Islands.ListOrderedWithStories()
	if err != nil {
		return nil, err
	}
	attempts, err := s.Attempts.ListByUser(userID, repository.AttemptFilter{})
	if err != nil {
		return nil, err
	}

	var ordered []model.Story
	for _, island := range islands {
		ordered = append(ordered, island.Stories...)
	}
	statuses := DeriveUnlockStatuses(ordered, attempts)

	attemptsByStory := make(map[string][]model.Attempt)
	for _, a := range attempts {
		attemptsByStory[a.StoryID] = append(attemptsByStory[a.StoryID], a)
	}

	result := make([]IslandProgress, 0, len(islands))
	for _, island := range islands {
		entry := IslandProgress{Island: island, Stories: make([]StoryProgress, 0, len(island.Stories))}
		entry.Island.Stories = nil
		for _, story := range island.Stories {
			status := statuses[story.ID]
			entry.Stories = append(entry.Stories, StoryProgress{
				Story:       story,
				Status:      status,
				State:       status.State(),
				LatestScore: DisplayScore(story.StoryType, attemptsByStory[story.ID]),
			})
		}
		result = append(result, entry)
	}
	return result, nil
}

// ForIsland returns one island's progress. Unlock state is still derived
// over the global story sequence, since an island's first story depends on
// the previous island's last.
func (s *ProgressService) ForIsland(userID uint, idOrSlug string) (*IslandProgress, error) {
	island, err := s.Islands.FindByIDOrSlug(idOrSlug, true)
	if err != nil {
		return nil, asNotFound(err, util.ErrIslandNotFound)
	}
	overview, err := s.Overview(userID)
	if err != nil {
		return nil, err
	}
	for i := range overview {
		if overview[i].Island.ID == island.ID {
			return &overview[i], nil
		}
	}
	return &IslandProgress{Island: *island}, nil
}

// Initialize validates the user and returns their starting overview.
// Progress is derived, so there are no rows to seed; the call exists for
// clients that expect an explicit bootstrap step after registration.
func (s *ProgressService) Initialize(userID uint) ([]IslandProgress, error) {
	if _, err := s.Users.FindByID(userID); err != nil {
		return nil, asNotFound(err, util.ErrUserNotFound)
	}
	return s.Overview(userID)
}
