package service

import (
	"budayana_backend/internal/model"
	"math"
)

// Per-stage XP ceilings. Tests award up to 50 XP each, the story stage up
// to 100, all distributed evenly across scoring questions and granted only
// for clean passes (correct on first record, never logged incorrect).
const (
	testStageMaxXP  = 50
	storyStageMaxXP = 100
	staticStoryXP   = 100
)

// FinishResult is the attempt-level outcome computed at finish time.
type FinishResult struct {
	Score       *float64
	XpGained    int
	Numerator   int
	Denominator int
}

// ComputeFinish scores a finished attempt from its question set and full
// log history. The denominator counts scoring-eligible questions (essays
// excluded); the numerator counts clean passes. An answer corrected after a
// miss still satisfies completion gating but earns nothing here. Stories
// with no scoring questions (static flipbooks) get a flat XP grant and no
// score.
func ComputeFinish(storyType model.StoryType, questions []model.Question, logs []model.QuestionLog) FinishResult {
	numerator, denominator := cleanPassCounts(questions, logs)
	if denominator == 0 {
		if storyType == model.StoryStatic {
			return FinishResult{XpGained: staticStoryXP}
		}
		return FinishResult{}
	}

	score := math.Round(float64(numerator) / float64(denominator) * 100)
	return FinishResult{
		Score:       &score,
		XpGained:    int(score),
		Numerator:   numerator,
		Denominator: denominator,
	}
}

// StageOutcome is the score and XP recorded on one stage row.
type StageOutcome struct {
	Score    *float64
	XpGained int
}

// ComputeStage scores a single stage from the questions belonging to it and
// the logs recorded against those questions. XP scales to the stage ceiling
// instead of the attempt-wide 100.
func ComputeStage(stageType model.StageType, storyType model.StoryType, questions []model.Question, logs []model.QuestionLog) StageOutcome {
	maxXP := storyStageMaxXP
	if stageType == model.StagePreTest || stageType == model.StagePostTest {
		maxXP = testStageMaxXP
	}

	numerator, denominator := cleanPassCounts(questions, logs)
	if denominator == 0 {
		if stageType == model.StageStory && storyType == model.StoryStatic {
			return StageOutcome{XpGained: staticStoryXP}
		}
		return StageOutcome{}
	}

	ratio := float64(numerator) / float64(denominator)
	score := math.Round(ratio * 100)
	return StageOutcome{
		Score:    &score,
		XpGained: int(math.Round(ratio * float64(maxXP))),
	}
}

// cleanPassCounts walks the log history and returns (clean passes,
// scoring-eligible questions). A clean pass requires the latest log to be
// correct and no earlier log for that question to be incorrect.
func cleanPassCounts(questions []model.Question, logs []model.QuestionLog) (numerator, denominator int) {
	byQuestion := groupLogsByQuestion(logs)
	for i := range questions {
		q := &questions[i]
		if !q.ScoringEligible() {
			continue
		}
		denominator++

		qLogs := byQuestion[q.ID]
		if len(qLogs) == 0 {
			continue
		}
		clean := qLogs[len(qLogs)-1].IsCorrect
		for _, l := range qLogs {
			if !l.IsCorrect {
				clean = false
				break
			}
		}
		if clean {
			numerator++
		}
	}
	return numerator, denominator
}
