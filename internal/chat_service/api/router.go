package api

import (
	"Asclepius/internal/config"
	"Asclepius/pkg/logger"
	"Asclepius/pkg/ratelimiter"

	"github.com/gin-gonic/gin"
)

// SetupRouter builds the chat service's HTTP surface.
func SetupRouter(a *API, cfg config.MiddlewareConfig, log *logger.Logger) *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(TraceMiddleware())
	router.Use(RequestLogger(log))

	if cfg.RateLimiter.Enabled {
		limiter := ratelimiter.NewTokenBucket(cfg.RateLimiter.Rate, cfg.RateLimiter.Capacity)
		router.Use(RateLimit(limiter))
	}

	router.GET("/healthz", a.HealthzHandler)

	v1 := router.Group("/api/v1")
	{
		v1.POST("/chat", a.ChatHandler)
		v1.GET("/conversations", a.ListConversationsHandler)
		v1.POST("/conversations", a.CreateConversationHandler)
		v1.GET("/conversations/:id", a.GetConversationHandler)
	}

	return router
}
