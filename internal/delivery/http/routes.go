package http

import (
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/scancart/backend/config"
)

// SetupRouter creates and configures the Gin router
func SetupRouter(cfg *config.Config, handler *Handler, log *zap.Logger) *gin.Engine {
	if cfg.Server.Environment == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.New()

	router.Use(RecoveryMiddleware())
	router.Use(RequestLogger(log))
	router.Use(CORSMiddleware(cfg.Server.AllowedOrigins))

	router.GET("/health", handler.HealthCheck)

	v1 := router.Group("/api/v1")
	{
		sessions := v1.Group("/sessions")
		{
			sessions.POST("", handler.StartSession)
			sessions.GET("/:id", handler.GetSession)
			sessions.POST("/:id/scan", handler.Scan)
			sessions.POST("/:id/events", handler.Event)
		}
	}

	return router
}
