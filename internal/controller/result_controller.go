package controller

import (
	"budayana_backend/internal/service"
	"budayana_backend/internal/util"

	"github.com/gin-gonic/gin"
)

type ResultController struct {
	Results *service.ResultService
}

func NewResultController(results *service.ResultService) *ResultController {
	return &ResultController{Results: results}
}

// Summary godoc
// @Summary My lifetime results
// @Description Stories completed, total XP and time, and the mean display score across finished attempts
// @Tags results
// @Produce  json
// @Security BearerAuth
// @Success 200 {object} util.Response{data=service.ResultSummary}
// @Router /api/results/summary [get]
func (c *ResultController) Summary(ctx *gin.Context) {
	claims := util.GetUserFromContext(ctx)
	summary, err := c.Results.Summary(claims.UserID)
	if err != nil {
		util.LogInternalError(ctx, err)
		return
	}
	util.Success(ctx, summary)
}

// ForStory godoc
// @Summary My finished attempts for one story
// @Tags results
// @Produce  json
// @Security BearerAuth
// @Param   id path string true "story id"
// @Success 200 {object} util.Response{data=util.ListResponse}
// @Router /api/results/stories/{id} [get]
func (c *ResultController) ForStory(ctx *gin.Context) {
	claims := util.GetUserFromContext(ctx)
	attempts, err := c.Results.ForStory(claims.UserID, ctx.Param("id"))
	if err != nil {
		util.LogInternalError(ctx, err)
		return
	}
	util.Success(ctx, util.ListResponse{Items: attempts, TotalCount: len(attempts)})
}
