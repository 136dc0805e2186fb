package handler

import (
	"log/slog"
	"net/http"

	"usdt-exchange-bot/internal/handler/api"
	"usdt-exchange-bot/internal/handler/middleware"
	"usdt-exchange-bot/internal/pkg/config"

	"github.com/gin-gonic/gin"
)

func NewRouter(
	engine *gin.Engine,
	cfg config.Config,
	log *slog.Logger,
	telegramHandler *api.TelegramHandler,
	vkHandler *api.VKHandler,
	adminHandler *api.AdminHandler,
) {
	setupMiddleware(engine, log)
	setupRoutes(engine, cfg, telegramHandler, vkHandler, adminHandler)
}

func setupMiddleware(engine *gin.Engine, log *slog.Logger) {
	// Recovery must be first (outermost) to catch panics from all other middleware
	engine.Use(middleware.CustomRecovery())
	engine.Use(middleware.LoggingMiddleware(log))
	engine.Use(middleware.ErrorHandler())
}

func setupRoutes(
	engine *gin.Engine,
	cfg config.Config,
	telegramHandler *api.TelegramHandler,
	vkHandler *api.VKHandler,
	adminHandler *api.AdminHandler,
) {
	engine.GET("/healthz", healthCheck)

	webhooks := engine.Group("/webhook")
	{
		webhooks.POST("/telegram", telegramHandler.Webhook)
		webhooks.POST("/vk", vkHandler.Webhook)
	}

	admin := engine.Group("/admin")
	admin.Use(middleware.AdminAuth(cfg.Admin))
	{
		admin.GET("/requests", adminHandler.ListRequests)
		admin.GET("/requests/:id", adminHandler.GetRequest)
		admin.GET("/requests/:id/crm-status", adminHandler.GetCRMStatus)
		admin.POST("/requests/:id/crm-status", adminHandler.SetCRMStatus)
		admin.GET("/crm/events", adminHandler.ListCRMEvents)
	}
}

func healthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status": "ok",
	})
}
