package controller

import (
	"errors"

	"budayana_backend/internal/service"
	"budayana_backend/internal/util"

	"github.com/gin-gonic/gin"
)

// ProgressController serves the derived map view: unlock states and story
// card scores.
type ProgressController struct {
	Progress *service.ProgressService
}

func NewProgressController(progress *service.ProgressService) *ProgressController {
	return &ProgressController{Progress: progress}
}

// Overview godoc
// @Summary My progress across all islands
// @Description Unlock states and display scores derived from attempt history on every read
// @Tags progress
// @Produce  json
// @Security BearerAuth
// @Success 200 {object} util.Response{data=[]service.IslandProgress}
// @Router /api/progress [get]
func (c *ProgressController) Overview(ctx *gin.Context) {
	claims := util.GetUserFromContext(ctx)
	overview, err := c.Progress.Overview(claims.UserID)
	if err != nil {
		util.LogInternalError(ctx, err)
		return
	}
	util.Success(ctx, overview)
}

// ForIsland godoc
// @Summary My progress on one island
// @Tags progress
// @Produce  json
// @Security BearerAuth
// @Param   id path string true "island id or slug"
// @Success 200 {object} util.Response{data=service.IslandProgress}
// @Failure 404 {object} util.Response
// @Router /api/progress/islands/{id} [get]
func (c *ProgressController) ForIsland(ctx *gin.Context) {
	claims := util.GetUserFromContext(ctx)
	progress, err := c.Progress.ForIsland(claims.UserID, ctx.Param("id"))
	if err != nil {
		if errors.Is(err, util.ErrIslandNotFound) {
			util.NotFound(ctx)
		} else {
			util.LogInternalError(ctx, err)
		}
		return
	}
	util.Success(ctx, progress)
}

// Initialize godoc
// @Summary Bootstrap progress after registration
// @Description Progress is derived from attempts, so this validates the account and returns the starting overview
// @Tags progress
// @Produce  json
// @Security BearerAuth
// @Success 200 {object} util.Response{data=[]service.IslandProgress}
// @Router /api/progress/initialize [post]
func (c *ProgressController) Initialize(ctx *gin.Context) {
	claims := util.GetUserFromContext(ctx)
	overview, err := c.Progress.Initialize(claims.UserID)
	if err != nil {
		if errors.Is(err, util.ErrUserNotFound) {
			util.NotFound(ctx)
		} else {
			util.LogInternalError(ctx, err)
		}
		return
	}
	util.Success(ctx, overview)
}
