package v1

import (
	"github.com/gin-gonic/gin"

	"venture-canvas/services/turn-api/internal/interfaces/httpserver/handlers"
)

func registerTurnRoutes(router gin.IRouter, handler *handlers.TurnHandler) {
	router.POST("/projects/:project_id/stages/:stage/turn", handler.Execute)
	router.GET("/projects/:project_id/stages/:stage/history", handler.History)
	router.DELETE("/projects/:project_id/stages/:stage/history", handler.ClearHistory)
	router.GET("/turn-jobs/:job_id", handler.GetJob)
}
