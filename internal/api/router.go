package api

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/jengzang/crash-records-backend-go/internal/handler"
	"github.com/jengzang/crash-records-backend-go/internal/middleware"
	"github.com/jengzang/crash-records-backend-go/pkg/response"
)

// SetupRouter wires middleware and routes. limiter may be nil to disable rate limiting.
func SetupRouter(stats *handler.StatsHandler, limiter *middleware.RateLimiter) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery(), middleware.RequestID(), middleware.Logger(), middleware.Metrics())

	// CORS
	r.Use(func(c *gin.Context) {
		c.Writer.Header().Set("Access-Control-Allow-Origin", "*")
		c.Writer.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		c.Writer.Header().Set("Access-Control-Allow-Headers", "Content-Type, "+middleware.RequestIDHeader)
		c.Writer.Header().Set("Access-Control-Expose-Headers", middleware.RequestIDHeader)

		if c.Request.Method == http.MethodOptions {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}

		c.Next()
	})

	r.GET("/metrics", gin.WrapH(promhttp.Handler()))
	r.NoRoute(func(c *gin.Context) {
		response.NotFound(c, "Route not found")
	})

	api := r.Group("/api")
	api.GET("/health", stats.Health)

	limited := api.Group("", middleware.RateLimit(limiter))
	{
		limited.GET("/filters", stats.GetFilters)
		limited.POST("/stats", stats.GetStats)
		limited.POST("/search", stats.Search)
		limited.GET("/data", stats.GetData)
	}

	return r
}
