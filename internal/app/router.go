package app

import (
	"budayana_backend/internal/config"
	"budayana_backend/internal/middleware"
	"budayana_backend/pkg/monitoring"

	"github.com/gin-gonic/gin"
)

func (a *App) registerRoutes(router *gin.Engine, c *controllers, repos *repositories, cfg *config.Config) {
	router.GET("/metrics", monitoring.PrometheusHandler())

	public := router.Group("/api")
	{
		public.GET("/health", c.health.HealthCheck)
		public.POST("/register", c.auth.Register)
		public.POST("/login", c.auth.Login)

		// The catalog is world readable; answer keys never appear in it.
		public.GET("/islands", c.island.ListIslands)
		public.GET("/islands/:id", c.island.GetIsland)
		public.GET("/stories/:id", c.island.GetStory)
	}

	authGroup := router.Group("/api")
	authGroup.Use(middleware.AuthMiddleware(cfg), middleware.ActivityMiddleware(repos.user))
	{
		authGroup.GET("/me", c.auth.Profile)

		authGroup.GET("/questions", c.island.ListQuestions)

		authGroup.POST("/attempts", c.attempt.Start)
		authGroup.GET("/attempts", c.attempt.List)
		authGroup.GET("/attempts/:id", c.attempt.Get)
		authGroup.PATCH("/attempts/:id", c.attempt.Update)
		authGroup.POST("/attempts/:id/exit", c.attempt.Exit)
		authGroup.POST("/attempts/:id/logs", c.attempt.SubmitLog)
		authGroup.POST("/attempts/:id/stages", c.attempt.CompleteStage)
		authGroup.GET("/attempts/:id/session", c.attempt.Session)
		authGroup.PUT("/attempts/:id/state", c.attempt.SaveState)
		authGroup.GET("/attempts/:id/state", c.attempt.GetState)
		authGroup.DELETE("/attempts/:id/state", c.attempt.ClearState)

		authGroup.GET("/progress", c.progress.Overview)
		authGroup.GET("/progress/islands/:id", c.progress.ForIsland)
		authGroup.POST("/progress/initialize", c.progress.Initialize)

		authGroup.GET("/results/summary", c.result.Summary)
		authGroup.GET("/results/stories/:id", c.result.ForStory)
	}
}
