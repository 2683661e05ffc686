package router

import (
	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"

	"basegraph.app/scout/internal/http/handler"
	"basegraph.app/scout/internal/service"
)

type RouterConfig struct {
	TraceHeaderName string
}

func SetupRoutes(router *gin.Engine, services *service.Services, redisClient redis.UniversalClient, cfg RouterConfig) {
	router.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{"status": "ok"})
	})

	v1 := router.Group("/api/v1")
	{
		requestHandler := handler.NewRequestHandler(services.Requests(), cfg.TraceHeaderName)
		eventsHandler := handler.NewEventsHandler(redisClient)
		RequestRouter(v1.Group("/requests"), requestHandler, eventsHandler)
	}
}

func RequestRouter(rg *gin.RouterGroup, h *handler.RequestHandler, events *handler.EventsHandler) {
	rg.POST("", h.Create)
	rg.GET("/:id", h.Get)
	rg.GET("/:id/events", events.Stream)
}
