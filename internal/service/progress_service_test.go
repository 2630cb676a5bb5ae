package service

import (
	"testing"
	"time"

	"budayana_backend/internal/model"
)

func story(id string, storyType model.StoryType) model.Story {
	s := model.Story{StoryType: storyType}
	s.ID = id
	return s
}

func finishedAttempt(storyID string, at time.Time) model.Attempt {
	a := model.Attempt{StoryID: storyID, StartedAt: at.Add(-10 * time.Minute), FinishedAt: &at}
	a.ID = "attempt-" + storyID
	return a
}

func TestDeriveUnlockStatusesSequential(t *testing.T) {
	stories := []model.Story{
		story("s1", model.StoryInteractive),
		story("s2", model.StoryInteractive),
		story("s3", model.StoryStatic),
	}

	statuses := DeriveUnlockStatuses(stories, nil)
	if !statuses["s1"].IsUnlocked {
		t.Fatal("first story must start unlocked")
	}
	if statuses["s2"].IsUnlocked || statuses["s3"].IsUnlocked {
		t.Fatal("later stories must start locked")
	}

	now := time.Now()
	statuses = DeriveUnlockStatuses(stories, []model.Attempt{finishedAttempt("s1", now)})
	if !statuses["s2"].IsUnlocked {
		t.Fatal("finishing s1 must unlock s2")
	}
	if statuses["s3"].IsUnlocked {
		t.Fatal("s3 must stay locked until s2 is finished")
	}
}

func TestReattemptNeverRelocks(t *testing.T) {
	stories := []model.Story{
		story("s1", model.StoryInteractive),
		story("s2", model.StoryInteractive),
	}
	now := time.Now()
	attempts := []model.Attempt{
		finishedAttempt("s1", now.Add(-time.Hour)),
		// A fresh open attempt on the already-finished s1.
		{StoryID: "s1", StartedAt: now},
	}

	statuses := DeriveUnlockStatuses(stories, attempts)
	if !statuses["s2"].IsUnlocked {
		t.Fatal("an open re-attempt on s1 must not re-lock s2")
	}
	if !statuses["s1"].IsStarted {
		t.Fatal("open attempt should mark s1 started")
	}
	if !statuses["s1"].IsFinished {
		t.Fatal("historic finish should keep s1 finished")
	}
}

func TestUnlockStatusStateMapping(t *testing.T) {
	cases := []struct {
		status model.UnlockStatus
		want   string
	}{
		{model.UnlockStatus{}, "locked"},
		{model.UnlockStatus{IsUnlocked: true}, "unlocked"},
		{model.UnlockStatus{IsUnlocked: true, IsStarted: true}, "resume"},
		{model.UnlockStatus{IsUnlocked: true, IsFinished: true}, "completed"},
		{model.UnlockStatus{IsUnlocked: true, IsFinished: true, IsStarted: true}, "completed"},
	}
	for _, c := range cases {
		if got := c.status.State(); got != c.want {
			t.Fatalf("State(%+v) = %q, want %q", c.status, got, c.want)
		}
	}
}

func TestDisplayScorePriority(t *testing.T) {
	pre := 80.0
	post := 60.0
	zero := 0.0
	newer := time.Now()
	older := newer.Add(-time.Hour)

	// Pre-test score wins over post-test and XP within one attempt.
	attempts := []model.Attempt{{PreTestScore: &pre, PostTestScore: &post, TotalXpGained: 40, FinishedAt: &newer}}
	if got := DisplayScore(model.StoryInteractive, attempts); got == nil || *got != 80 {
		t.Fatalf("got %v, want 80", got)
	}

	// No pre-test: post-test wins over XP.
	attempts = []model.Attempt{{PostTestScore: &post, TotalXpGained: 40, FinishedAt: &newer}}
	if got := DisplayScore(model.StoryInteractive, attempts); got == nil || *got != 60 {
		t.Fatalf("got %v, want 60", got)
	}

	// XP as last resort.
	attempts = []model.Attempt{{TotalXpGained: 40, FinishedAt: &newer}}
	if got := DisplayScore(model.StoryInteractive, attempts); got == nil || *got != 40 {
		t.Fatalf("got %v, want 40", got)
	}

	// A zero-valued recent attempt is skipped in favor of an older one.
	attempts = []model.Attempt{
		{PreTestScore: &zero, FinishedAt: &newer},
		{PreTestScore: &pre, FinishedAt: &older},
	}
	if got := DisplayScore(model.StoryInteractive, attempts); got == nil || *got != 80 {
		t.Fatalf("zero attempt should be skipped, got %v", got)
	}

	if got := DisplayScore(model.StoryInteractive, nil); got != nil {
		t.Fatalf("no attempts should yield no score, got %v", *got)
	}
}

func TestDisplayScoreIgnoresOpenAttempts(t *testing.T) {
	pre40 := 40.0
	pre80 := 80.0
	done := time.Now().Add(-time.Hour)

	// A fresh re-attempt already carries a mirrored pre-test score but is
	// still open; the older finished attempt's score must win.
	attempts := []model.Attempt{
		{PreTestScore: &pre40},
		{PreTestScore: &pre80, FinishedAt: &done},
	}
	if got := DisplayScore(model.StoryInteractive, attempts); got == nil || *got != 80 {
		t.Fatalf("open attempt must not shadow finished score, got %v", got)
	}

	// Only open attempts: no score at all yet.
	attempts = []model.Attempt{{PreTestScore: &pre40}}
	if got := DisplayScore(model.StoryInteractive, attempts); got != nil {
		t.Fatalf("open attempt alone should show nothing, got %v", *got)
	}
}

func TestDisplayScorePrefersLatestFinish(t *testing.T) {
	pre60 := 60.0
	pre90 := 90.0
	newer := time.Now()
	older := newer.Add(-time.Hour)

	// Input arrives sorted by start time; the most recent finish wins
	// regardless of slice order.
	attempts := []model.Attempt{
		{PreTestScore: &pre60, FinishedAt: &older},
		{PreTestScore: &pre90, FinishedAt: &newer},
	}
	if got := DisplayScore(model.StoryInteractive, attempts); got == nil || *got != 90 {
		t.Fatalf("most recent finish should win, got %v", got)
	}
}

func TestDisplayScoreStaticStoryFallback(t *testing.T) {
	now := time.Now()
	attempts := []model.Attempt{{StoryID: "s1", FinishedAt: &now}}
	if got := DisplayScore(model.StoryStatic, attempts); got == nil || *got != 100 {
		t.Fatalf("finished static story with no XP should show 100, got %v", got)
	}

	// An unfinished static attempt shows nothing.
	if got := DisplayScore(model.StoryStatic, []model.Attempt{{StoryID: "s1"}}); got != nil {
		t.Fatalf("open static attempt should show nothing, got %v", *got)
	}
}
