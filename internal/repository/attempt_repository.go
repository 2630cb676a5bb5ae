package repository

import (
	"budayana_backend/internal/model"

	"gorm.io/gorm"
)

type AttemptRepository struct {
	DB *gorm.DB
}

func NewAttemptRepository(db *gorm.DB) *AttemptRepository {
	return &AttemptRepository{DB: db}
}

func (r *AttemptRepository) Save(attempt *model.Attempt) error {
	return r.DB.Save(attempt).Error
}

func (r *AttemptRepository) FindByID(id string) (*model.Attempt, error) {
	var a model.Attempt
	err := r.DB.
		Preload("Stages").
		Preload("QuestionLogs", func(db *gorm.DB) *gorm.DB {
			return db.Order("answered_at asc")
		}).
		First(&a, "id = ?", id).Error
	if err != nil {
		return nil, err
	}
	return &a, nil
}

// FindOrCreateOpen looks up the user's open attempt for the story and, when
// none exists, inserts the given attempt. Lookup and insert share one
// transaction so two simultaneous starts cannot fork two open rows. The id
// of a pre-existing open attempt is returned; empty means the insert won.
// Multiple open rows should never exist; the oldest wins if they do.
func (r *AttemptRepository) FindOrCreateOpen(attempt *model.Attempt) (existingID string, err error) {
	err = r.DB.Transaction(func(tx *gorm.DB) error {
		var open model.Attempt
		findErr := tx.
			Where("user_id = ? AND story_id = ? AND finished_at IS NULL",
				attempt.UserID, attempt.StoryID).
			Order("started_at asc").
			First(&open).Error
		if findErr == nil {
			existingID = open.ID
			return nil
		}
		if findErr != gorm.ErrRecordNotFound {
			return findErr
		}
		return tx.Create(attempt).Error
	})
	return existingID, err
}

// FinishAttempt closes the attempt and credits the user's XP in one
// transaction. The close is conditional on the row still being open, so of
// two racing finishes only the one that flips finished_at credits XP; the
// loser sees won=false and nothing changes for it.
func (r *AttemptRepository) FinishAttempt(attempt *model.Attempt, xp int) (won bool, err error) {
	err = r.DB.Transaction(func(tx *gorm.DB) error {
		res := tx.Model(&model.Attempt{}).
			Where("id = ? AND finished_at IS NULL", attempt.ID).
			Updates(map[string]interface{}{
				"finished_at":        attempt.FinishedAt,
				"total_time_seconds": attempt.TotalTimeSeconds,
				"total_xp_gained":    attempt.TotalXpGained,
			})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return nil
		}
		won = true
		if xp <= 0 {
			return nil
		}
		return tx.Model(&model.User{}).
			Where("id = ?", attempt.UserID).
			Update("xp", gorm.Expr("xp + ?", xp)).Error
	})
	return won, err
}

// AttemptFilter narrows attempt listings.
type AttemptFilter struct {
	StoryID    string
	IslandID   string
	IsFinished *bool
	Limit      int
}

func (r *AttemptRepository) ListByUser(userID uint, filter AttemptFilter) ([]model.Attempt, error) {
	q := r.DB.
		Preload("Stages").
		Preload("Story").
		Where("user_id = ?", userID)
	if filter.StoryID != "" {
		q = q.Where("story_id = ?", filter.StoryID)
	}
	if filter.IslandID != "" {
		q = q.Where("story_id IN (?)",
			r.DB.Model(&model.Story{}).Select("id").Where("island_id = ?", filter.IslandID))
	}
	if filter.IsFinished != nil {
		if *filter.IsFinished {
			q = q.Where("finished_at IS NOT NULL")
		} else {
			q = q.Where("finished_at IS NULL")
		}
	}
	if filter.Limit > 0 {
		q = q.Limit(filter.Limit)
	}

	var attempts []model.Attempt
	err := q.Order("started_at desc").Find(&attempts).Error
	return attempts, err
}

func (r *AttemptRepository) CreateLog(log *model.QuestionLog) error {
	return r.DB.Create(log).Error
}

func (r *AttemptRepository) GetLogs(attemptID string) ([]model.QuestionLog, error) {
	var logs []model.QuestionLog
	err := r.DB.Where("attempt_id = ?", attemptID).
		Order("answered_at asc").Find(&logs).Error
	return logs, err
}

// CountLogsForQuestion reports how many submissions exist for a question
// within an attempt, used to stamp AttemptCount on the next log.
func (r *AttemptRepository) CountLogsForQuestion(attemptID, questionID string) (int64, error) {
	var count int64
	err := r.DB.Model(&model.QuestionLog{}).
		Where("attempt_id = ? AND question_id = ?", attemptID, questionID).
		Count(&count).Error
	return count, err
}

// UpsertStage keeps at most one stage record per stage type per attempt so a
// re-posted completion can never double-count XP.
func (r *AttemptRepository) UpsertStage(stage *model.AttemptStage) error {
	var existing model.AttemptStage
	err := r.DB.Where("attempt_id = ? AND stage_type = ?", stage.AttemptID, stage.StageType).
		First(&existing).Error
	if err != nil && err != gorm.ErrRecordNotFound {
		return err
	}
	if existing.ID == "" {
		return r.DB.Create(stage).Error
	}
	existing.TimeSpentSeconds = stage.TimeSpentSeconds
	existing.XpGained = stage.XpGained
	existing.Score = stage.Score
	if err := r.DB.Save(&existing).Error; err != nil {
		return err
	}
	*stage = existing
	return nil
}

func (r *AttemptRepository) GetStages(attemptID string) ([]model.AttemptStage, error) {
	var stages []model.AttemptStage
	err := r.DB.Where("attempt_id = ?", attemptID).Find(&stages).Error
	return stages, err
}
