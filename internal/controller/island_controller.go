package controller

import (
	"errors"

	"budayana_backend/internal/model"
	"budayana_backend/internal/repository"
	"budayana_backend/internal/service"
	"budayana_backend/internal/util"

	"github.com/gin-gonic/gin"
)

// IslandController serves the content catalog: islands, stories with their
// flipbook slides, and sanitized question sets.
type IslandController struct {
	Catalog *service.CatalogService
}

func NewIslandController(catalog *service.CatalogService) *IslandController {
	return &IslandController{Catalog: catalog}
}

// ListIslands godoc
// @Summary List islands in unlock order
// @Tags catalog
// @Produce  json
// @Param   includeStories query bool false "embed each island's stories"
// @Success 200 {object} util.Response{data=util.ListResponse}
// @Router /api/islands [get]
func (c *IslandController) ListIslands(ctx *gin.Context) {
	includeStories := util.ParseBoolQuery(ctx.Query("includeStories"), false)
	islands, err := c.Catalog.ListIslands(includeStories)
	if err != nil {
		util.LogInternalError(ctx, err)
		return
	}
	util.Success(ctx, util.ListResponse{Items: islands, TotalCount: len(islands)})
}

// GetIsland godoc
// @Summary Get one island by id or slug
// @Tags catalog
// @Produce  json
// @Param   id path string true "island id or slug"
// @Success 200 {object} util.Response{data=model.Island}
// @Failure 404 {object} util.Response
// @Router /api/islands/{id} [get]
func (c *IslandController) GetIsland(ctx *gin.Context) {
	island, err := c.Catalog.GetIsland(ctx.Param("id"), true)
	if err != nil {
		if errors.Is(err, util.ErrIslandNotFound) {
			util.NotFound(ctx)
		} else {
			util.LogInternalError(ctx, err)
		}
		return
	}
	util.Success(ctx, island)
}

// GetStory godoc
// @Summary Get a story with its slides
// @Tags catalog
// @Produce  json
// @Param   id path string true "story id"
// @Success 200 {object} util.Response{data=model.Story}
// @Failure 404 {object} util.Response
// @Router /api/stories/{id} [get]
func (c *IslandController) GetStory(ctx *gin.Context) {
	story, err := c.Catalog.GetStory(ctx.Param("id"))
	if err != nil {
		if errors.Is(err, util.ErrStoryNotFound) {
			util.NotFound(ctx)
		} else {
			util.LogInternalError(ctx, err)
		}
		return
	}
	util.Success(ctx, story)
}

// ListQuestions godoc
// @Summary List questions for a story, optionally filtered by stage
// @Description Answer keys are stripped; correctness is only ever decided server side
// @Tags catalog
// @Produce  json
// @Param   storyId query string true "story id"
// @Param   stageType query string false "PRE_TEST, STORY or POST_TEST"
// @Param   questionType query string false "MCQ, TRUE_FALSE, DRAG_DROP or ESSAY"
// @Success 200 {object} util.Response{data=util.ListResponse}
// @Router /api/questions [get]
func (c *IslandController) ListQuestions(ctx *gin.Context) {
	storyID := ctx.Query("storyId")
	if storyID == "" {
		util.BadRequest(ctx, "storyId is required")
		return
	}
	filter := repository.QuestionFilter{
		StoryID:      storyID,
		StageType:    model.StageType(ctx.Query("stageType")),
		QuestionType: model.QuestionType(ctx.Query("questionType")),
	}
	questions, err := c.Catalog.ListQuestions(filter)
	if err != nil {
		util.LogInternalError(ctx, err)
		return
	}
	util.Success(ctx, util.ListResponse{Items: questions, TotalCount: len(questions)})
}
