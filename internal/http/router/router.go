// Package router sets up the HTTP routes for the Inkbin API server.
package router

import (
	"github.com/gin-gonic/gin"

	"github.com/inkbin/inkbin/internal/http/handler"
	"github.com/inkbin/inkbin/internal/http/middleware"
	"github.com/inkbin/inkbin/internal/metrics"
)

// New initializes and returns the main Gin engine with all routes.
func New(pastes *handler.Handler, health *handler.HealthHandler) *gin.Engine {
	router := gin.New()
	router.Use(
		middleware.Recovery(),
		middleware.RequestID(),
		middleware.RequestLogger(),
		middleware.Metrics(),
	)

	router.GET("/livez", health.Liveness)
	router.GET("/readyz", health.Readiness)
	router.GET("/metrics", gin.WrapH(metrics.Handler()))

	v1 := router.Group("/api/v1")
	{
		v1.POST("/pastes", pastes.Create)
		v1.GET("/pastes", pastes.List)
		v1.GET("/pastes/random", pastes.Random)
		v1.GET("/pastes/:charID", pastes.Get)
		v1.PUT("/pastes/:charID", pastes.Update)
		v1.DELETE("/pastes/:charID", pastes.Remove)
		v1.GET("/pastes/:charID/raw", pastes.Raw)
		v1.GET("/pastes/:charID/download", pastes.Download)
		v1.GET("/pastes/:charID/versions", pastes.Versions)
	}

	return router
}
