package service

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"budayana_backend/internal/model"
	"budayana_backend/internal/repository"
	"budayana_backend/internal/util"
	"budayana_backend/pkg/database"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

type attemptFixture struct {
	svc      *AttemptService
	attempts *repository.AttemptRepository
	users    *repository.UserRepository
	user     *model.User
	story    *model.Story
	flip     *model.Story
	cache    *MemoryResumeCache
	clock    time.Time
	byOrder  map[int]*model.Question
}

func (f *attemptFixture) advance(d time.Duration) {
	f.clock = f.clock.Add(d)
}

// correctOption returns the id of the option flagged correct.
func correctOption(t *testing.T, q *model.Question) string {
	t.Helper()
	for _, opt := range q.Options {
		if opt.IsCorrect {
			return opt.ID
		}
	}
	t.Fatalf("question %s has no correct option", q.ID)
	return ""
}

func wrongOption(t *testing.T, q *model.Question) string {
	t.Helper()
	for _, opt := range q.Options {
		if !opt.IsCorrect {
			return opt.ID
		}
	}
	t.Fatalf("question %s has no wrong option", q.ID)
	return ""
}

func newAttemptFixture(t *testing.T) *attemptFixture {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	require.NoError(t, err)
	require.NoError(t, database.Migrate(db))

	user := &model.User{Name: "Putri", Email: "putri@example.com", Password: "x"}
	require.NoError(t, db.Create(user).Error)

	island := &model.Island{Slug: "sulawesi", Name: "Sulawesi", UnlockOrder: 1}
	require.NoError(t, db.Create(island).Error)

	story := &model.Story{IslandID: island.ID, Title: "La Dana", StoryType: model.StoryInteractive, Order: 1}
	require.NoError(t, db.Create(story).Error)

	flip := &model.Story{IslandID: island.ID, Title: "Roro Jonggrang", StoryType: model.StoryStatic, Order: 2}
	require.NoError(t, db.Create(flip).Error)

	// Four graded questions plus an essay: the same shape as the story
	// stage of an interactive tale.
	byOrder := make(map[int]*model.Question)
	for i := 1; i <= 4; i++ {
		question := &model.Question{
			StoryID:          story.ID,
			StageType:        model.StageStory,
			QuestionType:     model.QuestionMCQ,
			Prompt:           "Apa yang terjadi?",
			Order:            i,
			IncorrectMessage: "Coba lagi!",
		}
		require.NoError(t, db.Create(question).Error)
		right := &model.AnswerOption{QuestionID: question.ID, Label: "Benar", Order: 1, IsCorrect: true}
		wrong := &model.AnswerOption{QuestionID: question.ID, Label: "Salah", Order: 2}
		require.NoError(t, db.Create(right).Error)
		require.NoError(t, db.Create(wrong).Error)
		question.Options = []model.AnswerOption{*right, *wrong}
		byOrder[i] = question
	}

	canonical, _ := json.Marshal([]string{"main", "senja", "pulang"})
	drag := &model.Question{
		StoryID:      story.ID,
		StageType:    model.StageStory,
		QuestionType: model.QuestionDragDrop,
		Prompt:       "Urutkan kejadian",
		Order:        5,
		DragOrder:    string(canonical),
	}
	require.NoError(t, db.Create(drag).Error)
	byOrder[5] = drag

	essay := &model.Question{
		StoryID:      story.ID,
		StageType:    model.StageStory,
		QuestionType: model.QuestionEssay,
		Prompt:       "Ceritakan kembali",
		Order:        6,
	}
	require.NoError(t, db.Create(essay).Error)
	byOrder[6] = essay

	cache := NewMemoryResumeCache()
	f := &attemptFixture{
		attempts: repository.NewAttemptRepository(db),
		users:    repository.NewUserRepository(db),
		user:     user,
		story:    story,
		flip:     flip,
		cache:    cache,
		clock:    time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC),
		byOrder:  byOrder,
	}
	f.svc = NewAttemptService(
		f.attempts,
		repository.NewStoryRepository(db),
		repository.NewQuestionRepository(db),
		cache,
	)
	f.svc.Now = func() time.Time { return f.clock }
	return f
}

func TestStartOrResumeIdempotent(t *testing.T) {
	f := newAttemptFixture(t)

	first, resumed, err := f.svc.StartOrResume(f.user.ID, f.story.ID)
	require.NoError(t, err)
	assert.False(t, resumed)

	f.advance(5 * time.Minute)
	second, resumed, err := f.svc.StartOrResume(f.user.ID, f.story.ID)
	require.NoError(t, err)
	assert.True(t, resumed)
	assert.Equal(t, first.ID, second.ID)
	assert.Equal(t, first.StartedAt.Unix(), second.StartedAt.Unix(), "resume must preserve the original start time")
}

func TestStartUnknownStory(t *testing.T) {
	f := newAttemptFixture(t)
	_, _, err := f.svc.StartOrResume(f.user.ID, "no-such-story")
	assert.ErrorIs(t, err, util.ErrStoryNotFound)
}

func TestSubmitLogGradesAndLocks(t *testing.T) {
	f := newAttemptFixture(t)
	attempt, _, err := f.svc.StartOrResume(f.user.ID, f.story.ID)
	require.NoError(t, err)
	q1 := f.byOrder[1]

	wrong := wrongOption(t, q1)
	result, err := f.svc.SubmitLog(f.user.ID, attempt.ID, SubmitLogRequest{QuestionID: q1.ID, SelectedOptionID: &wrong})
	require.NoError(t, err)
	assert.False(t, result.Log.IsCorrect)
	assert.Equal(t, "Coba lagi!", result.Feedback)
	assert.Equal(t, 1, result.Log.AttemptCount)
	assert.Equal(t, "Salah", result.Log.SelectedOptionText)

	f.advance(time.Minute)
	right := correctOption(t, q1)
	result, err = f.svc.SubmitLog(f.user.ID, attempt.ID, SubmitLogRequest{QuestionID: q1.ID, SelectedOptionID: &right})
	require.NoError(t, err)
	assert.True(t, result.Log.IsCorrect)
	assert.Empty(t, result.Feedback)
	assert.Equal(t, 2, result.Log.AttemptCount)

	// Correct answers are final.
	_, err = f.svc.SubmitLog(f.user.ID, attempt.ID, SubmitLogRequest{QuestionID: q1.ID, SelectedOptionID: &right})
	assert.ErrorIs(t, err, util.ErrQuestionResolved)
}

func TestSubmitLogValidation(t *testing.T) {
	f := newAttemptFixture(t)
	attempt, _, err := f.svc.StartOrResume(f.user.ID, f.story.ID)
	require.NoError(t, err)
	q1 := f.byOrder[1]

	_, err = f.svc.SubmitLog(f.user.ID, attempt.ID, SubmitLogRequest{QuestionID: q1.ID})
	assert.ErrorIs(t, err, util.ErrEmptyAnswer)

	bogus := "not-an-option"
	_, err = f.svc.SubmitLog(f.user.ID, attempt.ID, SubmitLogRequest{QuestionID: q1.ID, SelectedOptionID: &bogus})
	assert.ErrorIs(t, err, util.ErrOptionUnknown)

	_, err = f.svc.SubmitLog(f.user.ID, attempt.ID, SubmitLogRequest{QuestionID: "missing", SelectedOptionID: &bogus})
	assert.ErrorIs(t, err, util.ErrQuestionNotFound)

	// A question from a different story is rejected even with a valid id.
	flipAttempt, _, err := f.svc.StartOrResume(f.user.ID, f.flip.ID)
	require.NoError(t, err)
	right := correctOption(t, q1)
	_, err = f.svc.SubmitLog(f.user.ID, flipAttempt.ID, SubmitLogRequest{QuestionID: q1.ID, SelectedOptionID: &right})
	assert.ErrorIs(t, err, util.ErrQuestionForeign)
}

func TestSubmitLogDragDrop(t *testing.T) {
	f := newAttemptFixture(t)
	attempt, _, err := f.svc.StartOrResume(f.user.ID, f.story.ID)
	require.NoError(t, err)
	drag := f.byOrder[5]

	result, err := f.svc.SubmitLog(f.user.ID, attempt.ID, SubmitLogRequest{
		QuestionID: drag.ID,
		DragOrder:  []string{"senja", "main", "pulang"},
	})
	require.NoError(t, err)
	assert.False(t, result.Log.IsCorrect, "scrambled order must grade wrong")

	f.advance(time.Second)
	result, err = f.svc.SubmitLog(f.user.ID, attempt.ID, SubmitLogRequest{
		QuestionID: drag.ID,
		DragOrder:  []string{"main", "senja", "pulang"},
	})
	require.NoError(t, err)
	assert.True(t, result.Log.IsCorrect)
}

func TestSubmitLogEssay(t *testing.T) {
	f := newAttemptFixture(t)
	attempt, _, err := f.svc.StartOrResume(f.user.ID, f.story.ID)
	require.NoError(t, err)
	essay := f.byOrder[6]

	_, err = f.svc.SubmitLog(f.user.ID, attempt.ID, SubmitLogRequest{QuestionID: essay.ID, UserAnswerText: "   "})
	assert.ErrorIs(t, err, util.ErrEmptyAnswer)

	result, err := f.svc.SubmitLog(f.user.ID, attempt.ID, SubmitLogRequest{
		QuestionID:     essay.ID,
		UserAnswerText: "La Dana menipu pamannya.",
	})
	require.NoError(t, err)
	assert.True(t, result.Log.IsCorrect, "a submitted essay counts as answered")
}

func TestOwnershipEnforced(t *testing.T) {
	f := newAttemptFixture(t)
	attempt, _, err := f.svc.StartOrResume(f.user.ID, f.story.ID)
	require.NoError(t, err)

	_, err = f.svc.GetAttempt(f.user.ID+1, attempt.ID)
	assert.ErrorIs(t, err, util.ErrAttemptForeign)
}

// Four clean passes out of five graded questions (one corrected after a
// miss), essay answered: score 80, 80 XP.
func TestFinishScoresCleanPasses(t *testing.T) {
	f := newAttemptFixture(t)
	attempt, _, err := f.svc.StartOrResume(f.user.ID, f.story.ID)
	require.NoError(t, err)

	for i := 1; i <= 4; i++ {
		question := f.byOrder[i]
		if i == 2 {
			wrong := wrongOption(t, question)
			_, err = f.svc.SubmitLog(f.user.ID, attempt.ID, SubmitLogRequest{QuestionID: question.ID, SelectedOptionID: &wrong})
			require.NoError(t, err)
			f.advance(time.Second)
		}
		right := correctOption(t, question)
		_, err = f.svc.SubmitLog(f.user.ID, attempt.ID, SubmitLogRequest{QuestionID: question.ID, SelectedOptionID: &right})
		require.NoError(t, err)
		f.advance(time.Second)
	}
	_, err = f.svc.SubmitLog(f.user.ID, attempt.ID, SubmitLogRequest{
		QuestionID: f.byOrder[5].ID,
		DragOrder:  []string{"main", "senja", "pulang"},
	})
	require.NoError(t, err)
	_, err = f.svc.SubmitLog(f.user.ID, attempt.ID, SubmitLogRequest{
		QuestionID:     f.byOrder[6].ID,
		UserAnswerText: "Akhirnya La Dana pulang.",
	})
	require.NoError(t, err)

	f.advance(time.Minute)
	finished, err := f.svc.Finish(context.Background(), f.user.ID, attempt.ID)
	require.NoError(t, err)
	assert.Equal(t, 80, finished.TotalXpGained)

	user, err := f.users.FindByID(f.user.ID)
	require.NoError(t, err)
	assert.Equal(t, 80, user.XP)
}

func TestFinishExactlyOnce(t *testing.T) {
	f := newAttemptFixture(t)
	attempt, _, err := f.svc.StartOrResume(f.user.ID, f.flip.ID)
	require.NoError(t, err)

	require.NoError(t, f.svc.SaveState(context.Background(), f.user.ID, attempt.ID, &ResumeState{LastPageRead: 3}))

	f.advance(95 * time.Second)
	finished, err := f.svc.Finish(context.Background(), f.user.ID, attempt.ID)
	require.NoError(t, err)
	require.NotNil(t, finished.FinishedAt)
	assert.Equal(t, 95, finished.TotalTimeSeconds)
	assert.Equal(t, 100, finished.TotalXpGained, "static story grants flat XP")

	state, err := f.cache.Restore(context.Background(), attempt.ID)
	require.NoError(t, err)
	assert.Nil(t, state, "finish must clear the resume cache entry")

	firstFinish := *finished.FinishedAt

	// A second finish is a no-op: same timestamp, no extra XP.
	f.advance(time.Hour)
	again, err := f.svc.Finish(context.Background(), f.user.ID, attempt.ID)
	require.NoError(t, err)
	assert.Equal(t, firstFinish.Unix(), again.FinishedAt.Unix())

	user, err := f.users.FindByID(f.user.ID)
	require.NoError(t, err)
	assert.Equal(t, 100, user.XP, "second finish must not credit XP again")

	// And no new logs are accepted.
	right := correctOption(t, f.byOrder[1])
	_, err = f.svc.SubmitLog(f.user.ID, attempt.ID, SubmitLogRequest{QuestionID: f.byOrder[1].ID, SelectedOptionID: &right})
	assert.ErrorIs(t, err, util.ErrAttemptFinished)
}

// Two finishes computed from the same open row: only the one that flips
// finished_at may credit XP.
func TestFinishRaceCreditsXPOnce(t *testing.T) {
	f := newAttemptFixture(t)
	attempt, _, err := f.svc.StartOrResume(f.user.ID, f.flip.ID)
	require.NoError(t, err)

	now := f.clock.Add(time.Minute)
	first := *attempt
	first.FinishedAt = &now
	first.TotalTimeSeconds = 60
	first.TotalXpGained = 100
	second := first

	won, err := f.attempts.FinishAttempt(&first, 100)
	require.NoError(t, err)
	assert.True(t, won)

	won, err = f.attempts.FinishAttempt(&second, 100)
	require.NoError(t, err)
	assert.False(t, won, "the losing close must not touch the row")

	user, err := f.users.FindByID(f.user.ID)
	require.NoError(t, err)
	assert.Equal(t, 100, user.XP, "a racing finish must credit XP exactly once")

	stored, err := f.svc.GetAttempt(f.user.ID, attempt.ID)
	require.NoError(t, err)
	require.NotNil(t, stored.FinishedAt)
	assert.Equal(t, now.Unix(), stored.FinishedAt.Unix())
}

// Two starts racing on the same story must converge on one open attempt.
func TestStartRaceDoesNotForkAttempts(t *testing.T) {
	f := newAttemptFixture(t)

	first := &model.Attempt{UserID: f.user.ID, StoryID: f.story.ID, StartedAt: f.clock}
	existingID, err := f.attempts.FindOrCreateOpen(first)
	require.NoError(t, err)
	assert.Empty(t, existingID, "first start creates the attempt")

	second := &model.Attempt{UserID: f.user.ID, StoryID: f.story.ID, StartedAt: f.clock.Add(time.Second)}
	existingID, err = f.attempts.FindOrCreateOpen(second)
	require.NoError(t, err)
	assert.Equal(t, first.ID, existingID, "second start must find the open attempt")

	open, err := f.svc.ListAttempts(f.user.ID, repository.AttemptFilter{StoryID: f.story.ID})
	require.NoError(t, err)
	assert.Len(t, open, 1)
}

func TestFinishClampsClockSkew(t *testing.T) {
	f := newAttemptFixture(t)
	attempt, _, err := f.svc.StartOrResume(f.user.ID, f.flip.ID)
	require.NoError(t, err)

	f.clock = f.clock.Add(-time.Hour)
	finished, err := f.svc.Finish(context.Background(), f.user.ID, attempt.ID)
	require.NoError(t, err)
	assert.False(t, finished.FinishedAt.Before(attempt.StartedAt))
	assert.Equal(t, 0, finished.TotalTimeSeconds)
}

func TestCompleteStageUpsert(t *testing.T) {
	f := newAttemptFixture(t)
	attempt, _, err := f.svc.StartOrResume(f.user.ID, f.story.ID)
	require.NoError(t, err)

	for i := 1; i <= 4; i++ {
		right := correctOption(t, f.byOrder[i])
		_, err = f.svc.SubmitLog(f.user.ID, attempt.ID, SubmitLogRequest{QuestionID: f.byOrder[i].ID, SelectedOptionID: &right})
		require.NoError(t, err)
		f.advance(time.Second)
	}
	_, err = f.svc.SubmitLog(f.user.ID, attempt.ID, SubmitLogRequest{
		QuestionID: f.byOrder[5].ID,
		DragOrder:  []string{"main", "senja", "pulang"},
	})
	require.NoError(t, err)

	first, err := f.svc.CompleteStage(f.user.ID, attempt.ID, StageRequest{StageType: model.StageStory, TimeSpentSeconds: 120})
	require.NoError(t, err)
	require.NotNil(t, first.Score)
	assert.Equal(t, float64(100), *first.Score)
	assert.Equal(t, 100, first.XpGained)

	// Re-posting the stage replaces the row instead of adding another.
	second, err := f.svc.CompleteStage(f.user.ID, attempt.ID, StageRequest{StageType: model.StageStory, TimeSpentSeconds: 150})
	require.NoError(t, err)
	assert.Equal(t, first.ID, second.ID)

	finished, err := f.svc.Finish(context.Background(), f.user.ID, attempt.ID)
	require.NoError(t, err)
	assert.Equal(t, 100, finished.TotalXpGained, "duplicate stage posts must not double XP")
}

func TestExitKeepsAttemptOpen(t *testing.T) {
	f := newAttemptFixture(t)
	attempt, _, err := f.svc.StartOrResume(f.user.ID, f.story.ID)
	require.NoError(t, err)

	require.NoError(t, f.svc.SaveState(context.Background(), f.user.ID, attempt.ID, &ResumeState{LastPageRead: 2}))

	f.advance(40 * time.Second)
	exited, err := f.svc.Exit(context.Background(), f.user.ID, attempt.ID)
	require.NoError(t, err)
	assert.Nil(t, exited.FinishedAt)
	assert.Equal(t, 40, exited.TotalTimeSeconds)

	state, err := f.cache.Restore(context.Background(), attempt.ID)
	require.NoError(t, err)
	assert.Nil(t, state, "exit must clear the resume cache entry")

	// The attempt is still resumable.
	resumedAttempt, resumed, err := f.svc.StartOrResume(f.user.ID, f.story.ID)
	require.NoError(t, err)
	assert.True(t, resumed)
	assert.Equal(t, attempt.ID, resumedAttempt.ID)
}

func TestRestoreSessionReplaysLogs(t *testing.T) {
	f := newAttemptFixture(t)
	attempt, _, err := f.svc.StartOrResume(f.user.ID, f.story.ID)
	require.NoError(t, err)
	q1 := f.byOrder[1]

	wrong := wrongOption(t, q1)
	_, err = f.svc.SubmitLog(f.user.ID, attempt.ID, SubmitLogRequest{QuestionID: q1.ID, SelectedOptionID: &wrong})
	require.NoError(t, err)

	require.NoError(t, f.svc.SaveState(context.Background(), f.user.ID, attempt.ID, &ResumeState{LastPageRead: 4}))

	session, state, err := f.svc.RestoreSession(context.Background(), f.user.ID, attempt.ID)
	require.NoError(t, err)
	require.NotNil(t, state)
	assert.Equal(t, 4, state.LastPageRead)

	qs := session.Questions[q1.ID]
	require.NotNil(t, qs)
	assert.Equal(t, AnswerResolved, qs.State)
	assert.False(t, qs.IsCorrect)
	assert.True(t, qs.EverIncorrect)

	// Advance gates come back with the session: q1 is still wrong and
	// blocks, the untouched essay also blocks until answered.
	assert.False(t, session.Advance[q1.ID])
	assert.False(t, session.Advance[f.byOrder[6].ID])

	f.advance(time.Second)
	right := correctOption(t, q1)
	_, err = f.svc.SubmitLog(f.user.ID, attempt.ID, SubmitLogRequest{QuestionID: q1.ID, SelectedOptionID: &right})
	require.NoError(t, err)

	session, _, err = f.svc.RestoreSession(context.Background(), f.user.ID, attempt.ID)
	require.NoError(t, err)
	assert.True(t, session.Advance[q1.ID], "a correct answer opens the gate")
}
