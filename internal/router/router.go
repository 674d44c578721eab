package router

import (
	"github.com/gin-gonic/gin"

	"voltscan/internal/handler"
	"voltscan/internal/middleware"
)

// Setup configures the Gin engine with all routes and middleware.
func Setup(
	billH *handler.BillHandler,
	healthH *handler.HealthHandler,
) *gin.Engine {
	r := gin.New()

	// Global middleware
	r.Use(middleware.Recovery())
	r.Use(middleware.RequestID())
	r.Use(middleware.Logger())
	r.Use(middleware.CORS())

	// Health checks
	r.GET("/healthz", healthH.Liveness)
	r.GET("/readyz", healthH.Readiness)

	v1 := r.Group("/api/v1")

	bills := v1.Group("/bills")
	bills.POST("", billH.Upload)
	bills.GET("", billH.List)
	bills.GET("/:id", billH.GetByID)
	bills.POST("/:id/retry", billH.Retry)
	bills.GET("/:id/export", billH.Export)

	return r
}
