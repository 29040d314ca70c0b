package routes

import (
	"github.com/gin-gonic/gin"

	"github.com/feichai0017/relevance-finder/api/handlers"
	"github.com/feichai0017/relevance-finder/api/middleware"
	"github.com/feichai0017/relevance-finder/pkg/logger"
)

func SetupRoutes(r *gin.Engine, h *handlers.Handlers, log logger.Logger) {
	r.Use(middleware.CORS())
	r.Use(middleware.RequestLogger(log))

	v1 := r.Group("/api/v1")

	v1.GET("/health", h.Health.Check)
	v1.GET("/search", h.Relevance.Search)
	v1.GET("/search/:searchResultId/basic", h.Relevance.BasicResults)
	v1.GET("/results/:searchResultId", h.Relevance.Results)
	v1.GET("/history", h.Relevance.History)

	tasks := v1.Group("/relevance")
	{
		tasks.POST("/:searchResultId", h.Relevance.ComputeRelevance)
		tasks.GET("/status/:taskId", h.Relevance.GetStatus)
		tasks.DELETE("/task/:taskId", h.Relevance.CancelTask)
	}
}
