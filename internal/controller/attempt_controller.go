package controller

import (
	"errors"
	"net/http"

	"budayana_backend/internal/repository"
	"budayana_backend/internal/service"
	"budayana_backend/internal/util"

	"github.com/gin-gonic/gin"
)

// AttemptController exposes the attempt lifecycle over REST.
type AttemptController struct {
	Attempts *service.AttemptService
}

func NewAttemptController(attempts *service.AttemptService) *AttemptController {
	return &AttemptController{Attempts: attempts}
}

// StartAttemptRequest opens (or resumes) an attempt on a story.
type StartAttemptRequest struct {
	StoryID string `json:"storyId" binding:"required"`
}

// Start godoc
// @Summary Start or resume an attempt
// @Description Returns the open attempt for the story if one exists (201 only when a new one was created); retrying start never forks history
// @Tags attempts
// @Accept  json
// @Produce  json
// @Security BearerAuth
// @Param   body body StartAttemptRequest true "story to attempt"
// @Success 200 {object} util.Response{data=model.Attempt} "resumed"
// @Success 201 {object} util.Response{data=model.Attempt} "created"
// @Failure 404 {object} util.Response
// @Router /api/attempts [post]
func (c *AttemptController) Start(ctx *gin.Context) {
	var req StartAttemptRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		util.BadRequest(ctx, err.Error())
		return
	}
	claims := util.GetUserFromContext(ctx)

	attempt, resumed, err := c.Attempts.StartOrResume(claims.UserID, req.StoryID)
	if err != nil {
		c.writeError(ctx, err)
		return
	}
	if resumed {
		util.Success(ctx, attempt)
		return
	}
	util.Created(ctx, attempt)
}

// List godoc
// @Summary List my attempts
// @Tags attempts
// @Produce  json
// @Security BearerAuth
// @Param   storyId query string false "filter by story"
// @Param   islandId query string false "filter by island"
// @Param   finished query bool false "filter by finished state"
// @Param   limit query int false "max rows"
// @Success 200 {object} util.Response{data=util.ListResponse}
// @Router /api/attempts [get]
func (c *AttemptController) List(ctx *gin.Context) {
	claims := util.GetUserFromContext(ctx)
	filter := repository.AttemptFilter{
		StoryID:  ctx.Query("storyId"),
		IslandID: ctx.Query("islandId"),
		Limit:    int(util.MustParseUint(ctx.Query("limit"))),
	}
	if raw := ctx.Query("finished"); raw != "" {
		finished := util.ParseBoolQuery(raw, false)
		filter.IsFinished = &finished
	}

	attempts, err := c.Attempts.ListAttempts(claims.UserID, filter)
	if err != nil {
		util.LogInternalError(ctx, err)
		return
	}
	util.Success(ctx, util.ListResponse{Items: attempts, TotalCount: len(attempts)})
}

// Get godoc
// @Summary Get one attempt with stages and logs
// @Tags attempts
// @Produce  json
// @Security BearerAuth
// @Param   id path string true "attempt id"
// @Success 200 {object} util.Response{data=model.Attempt}
// @Failure 403 {object} util.Response
// @Failure 404 {object} util.Response
// @Router /api/attempts/{id} [get]
func (c *AttemptController) Get(ctx *gin.Context) {
	claims := util.GetUserFromContext(ctx)
	attempt, err := c.Attempts.GetAttempt(claims.UserID, ctx.Param("id"))
	if err != nil {
		c.writeError(ctx, err)
		return
	}
	util.Success(ctx, attempt)
}

// Update godoc
// @Summary Patch an attempt
// @Description Setting finished closes the attempt exactly once; the server clock decides FinishedAt and elapsed time. Finishing an already-finished attempt is a no-op.
// @Tags attempts
// @Accept  json
// @Produce  json
// @Security BearerAuth
// @Param   id path string true "attempt id"
// @Param   body body service.UpdateAttemptRequest true "fields to update"
// @Success 200 {object} util.Response{data=model.Attempt}
// @Router /api/attempts/{id} [patch]
func (c *AttemptController) Update(ctx *gin.Context) {
	var req service.UpdateAttemptRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		util.BadRequest(ctx, err.Error())
		return
	}
	claims := util.GetUserFromContext(ctx)

	if !req.Finished {
		attempt, err := c.Attempts.GetAttempt(claims.UserID, ctx.Param("id"))
		if err != nil {
			c.writeError(ctx, err)
			return
		}
		util.Success(ctx, attempt)
		return
	}

	attempt, err := c.Attempts.Finish(ctx.Request.Context(), claims.UserID, ctx.Param("id"))
	if err != nil {
		c.writeError(ctx, err)
		return
	}
	util.Success(ctx, attempt)
}

// Exit godoc
// @Summary Leave an attempt without finishing it
// @Description Persists elapsed time, clears the resume cache entry, and keeps the attempt open for later resume
// @Tags attempts
// @Produce  json
// @Security BearerAuth
// @Param   id path string true "attempt id"
// @Success 200 {object} util.Response{data=model.Attempt}
// @Router /api/attempts/{id}/exit [post]
func (c *AttemptController) Exit(ctx *gin.Context) {
	claims := util.GetUserFromContext(ctx)
	attempt, err := c.Attempts.Exit(ctx.Request.Context(), claims.UserID, ctx.Param("id"))
	if err != nil {
		c.writeError(ctx, err)
		return
	}
	util.Success(ctx, attempt)
}

// SubmitLog godoc
// @Summary Submit an answer
// @Description Grades the answer server side and appends a log row. Retries after a miss are recorded; a question already answered correctly is locked.
// @Tags attempts
// @Accept  json
// @Produce  json
// @Security BearerAuth
// @Param   id path string true "attempt id"
// @Param   body body service.SubmitLogRequest true "answer payload"
// @Success 201 {object} util.Response{data=service.SubmitLogResult}
// @Failure 409 {object} util.Response "attempt finished or question locked"
// @Router /api/attempts/{id}/logs [post]
func (c *AttemptController) SubmitLog(ctx *gin.Context) {
	var req service.SubmitLogRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		util.BadRequest(ctx, err.Error())
		return
	}
	claims := util.GetUserFromContext(ctx)

	result, err := c.Attempts.SubmitLog(claims.UserID, ctx.Param("id"), req)
	if err != nil {
		c.writeError(ctx, err)
		return
	}
	util.Created(ctx, result)
}

// CompleteStage godoc
// @Summary Record completion of a stage
// @Description Scores the stage from its logs and upserts the stage row, so re-posting cannot double-count XP
// @Tags attempts
// @Accept  json
// @Produce  json
// @Security BearerAuth
// @Param   id path string true "attempt id"
// @Param   body body service.StageRequest true "stage payload"
// @Success 200 {object} util.Response{data=model.AttemptStage}
// @Router /api/attempts/{id}/stages [post]
func (c *AttemptController) CompleteStage(ctx *gin.Context) {
	var req service.StageRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		util.BadRequest(ctx, err.Error())
		return
	}
	claims := util.GetUserFromContext(ctx)

	stage, err := c.Attempts.CompleteStage(claims.UserID, ctx.Param("id"), req)
	if err != nil {
		c.writeError(ctx, err)
		return
	}
	util.Success(ctx, stage)
}

// Session godoc
// @Summary Restore the session for an attempt
// @Description Replays the log history into per-question states and returns any cached resume state
// @Tags attempts
// @Produce  json
// @Security BearerAuth
// @Param   id path string true "attempt id"
// @Success 200 {object} util.Response
// @Router /api/attempts/{id}/session [get]
func (c *AttemptController) Session(ctx *gin.Context) {
	claims := util.GetUserFromContext(ctx)
	session, state, err := c.Attempts.RestoreSession(ctx.Request.Context(), claims.UserID, ctx.Param("id"))
	if err != nil {
		c.writeError(ctx, err)
		return
	}
	util.Success(ctx, gin.H{"session": session, "resumeState": state})
}

// SaveState godoc
// @Summary Save mid-attempt resume state
// @Description Caches drag arrangements, last page read and answer drafts under the attempt's TTL
// @Tags attempts
// @Accept  json
// @Produce  json
// @Security BearerAuth
// @Param   id path string true "attempt id"
// @Param   body body service.ResumeState true "resume state"
// @Success 200 {object} util.Response
// @Router /api/attempts/{id}/state [put]
func (c *AttemptController) SaveState(ctx *gin.Context) {
	var state service.ResumeState
	if err := ctx.ShouldBindJSON(&state); err != nil {
		util.BadRequest(ctx, err.Error())
		return
	}
	claims := util.GetUserFromContext(ctx)

	if err := c.Attempts.SaveState(ctx.Request.Context(), claims.UserID, ctx.Param("id"), &state); err != nil {
		c.writeError(ctx, err)
		return
	}
	util.Success(ctx, gin.H{"saved": true})
}

// GetState godoc
// @Summary Read cached resume state
// @Tags attempts
// @Produce  json
// @Security BearerAuth
// @Param   id path string true "attempt id"
// @Success 200 {object} util.Response{data=service.ResumeState}
// @Router /api/attempts/{id}/state [get]
func (c *AttemptController) GetState(ctx *gin.Context) {
	claims := util.GetUserFromContext(ctx)
	state, err := c.Attempts.GetState(ctx.Request.Context(), claims.UserID, ctx.Param("id"))
	if err != nil {
		c.writeError(ctx, err)
		return
	}
	util.Success(ctx, state)
}

// ClearState godoc
// @Summary Drop cached resume state
// @Tags attempts
// @Produce  json
// @Security BearerAuth
// @Param   id path string true "attempt id"
// @Success 200 {object} util.Response
// @Router /api/attempts/{id}/state [delete]
func (c *AttemptController) ClearState(ctx *gin.Context) {
	claims := util.GetUserFromContext(ctx)
	if err := c.Attempts.ClearState(ctx.Request.Context(), claims.UserID, ctx.Param("id")); err != nil {
		c.writeError(ctx, err)
		return
	}
	util.Success(ctx, gin.H{"cleared": true})
}

// writeError maps domain sentinels to HTTP statuses.
func (c *AttemptController) writeError(ctx *gin.Context, err error) {
	switch {
	case errors.Is(err, util.ErrAttemptNotFound),
		errors.Is(err, util.ErrStoryNotFound),
		errors.Is(err, util.ErrQuestionNotFound):
		util.NotFound(ctx)
	case errors.Is(err, util.ErrAttemptForeign):
		util.Forbidden(ctx)
	case errors.Is(err, util.ErrAttemptFinished),
		errors.Is(err, util.ErrQuestionResolved):
		util.Error(ctx, http.StatusConflict, err.Error())
	case errors.Is(err, util.ErrQuestionForeign),
		errors.Is(err, util.ErrOptionUnknown),
		errors.Is(err, util.ErrEmptyAnswer):
		util.BadRequest(ctx, err.Error())
	default:
		util.LogInternalError(ctx, err)
	}
}
