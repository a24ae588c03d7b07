package api

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/flowgate/flowgate/internal/models"
	"github.com/flowgate/flowgate/internal/relay"
)

// RegisterRoutes registers all API routes
func RegisterRoutes(e *echo.Echo, service *relay.Service) {
	h := &Handler{service: service}

	// Health check
	e.GET("/health", healthCheck)

	// API v1 routes
	v1 := e.Group("/api/v1")

	// Workflow routes
	workflows := v1.Group("/workflows")
	workflows.POST("/trigger", h.trigger)
	workflows.POST("/trigger-file", h.triggerFile)
	workflows.GET("/runs", h.listRuns)
	workflows.GET("/runs/:run_id", h.getRun)
	workflows.POST("/runs/:run_id/await", h.awaitRun)

	// API key routes
	keys := v1.Group("/keys")
	keys.POST("", h.createKey)
	keys.GET("", h.listKeys)
	keys.GET("/:id", h.getKey)
	keys.DELETE("/:id", h.deleteKey)
}

// healthCheck returns the health status of the service
func healthCheck(c echo.Context) error {
	return c.JSON(http.StatusOK, models.APIResponse{
		Success: true,
		Message: "Flowgate service is healthy",
		Data: map[string]string{
			"status":  "ok",
			"service": "flowgate",
		},
	})
}
