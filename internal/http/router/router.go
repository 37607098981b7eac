package router

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/Samuelzila/grammar-police/internal/http/handler"
	"github.com/Samuelzila/grammar-police/internal/http/handler/webhook"
	"github.com/Samuelzila/grammar-police/internal/http/middleware"
	"github.com/Samuelzila/grammar-police/internal/service"
)

type RouterConfig struct {
	TraceHeaderName     string
	AdminAPIKey         string
	GitLabWebhookSecret string
}

func SetupRoutes(router *gin.Engine, services *service.Services, cfg RouterConfig) {
	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	if cfg.GitLabWebhookSecret != "" {
		gitlabHandler := webhook.NewGitLabWebhookHandler(cfg.GitLabWebhookSecret, services.Messages())
		WebhookRouter(router.Group("/webhooks"), gitlabHandler)
	}

	v1 := router.Group("/api/v1", middleware.RequireAPIKey(cfg.AdminAPIKey))
	{
		messageHandler := handler.NewMessageHandler(services.Messages(), cfg.TraceHeaderName)
		MessageRouter(v1.Group("/messages"), messageHandler)

		commandHandler := handler.NewCommandHandler(services.Commands())
		CommandRouter(v1.Group("/commands"), commandHandler)
	}
}

func WebhookRouter(router *gin.RouterGroup, gitlab *webhook.GitLabWebhookHandler) {
	router.POST("/gitlab", gitlab.HandleEvent)
}

func MessageRouter(router *gin.RouterGroup, handler *handler.MessageHandler) {
	router.POST("", handler.Ingest)
}

func CommandRouter(router *gin.RouterGroup, handler *handler.CommandHandler) {
	router.GET("", handler.List)
	router.POST("", handler.Handle)
}
