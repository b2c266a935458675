package main

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"catalog-sync-backend/internal/shared/middleware"
	"catalog-sync-backend/internal/shared/response"
	"catalog-sync-backend/pkg/container"
)

func SetupRouter(c *container.Container) *gin.Engine {
	router := gin.New()

	router.Use(
		middleware.Recovery(),
		middleware.RequestID(),
		middleware.Logger(),
	)

	requireSession := middleware.SessionAuth(func(gc *gin.Context, token string) error {
		_, err := c.AuthService.Validate(gc.Request.Context(), token)
		return err
	})

	v1 := router.Group("/api/v1")
	{
		v1.GET("/health", healthCheckHandler(c))

		// Public: the source store authenticates by signature, not session.
		v1.POST("/webhooks/woocommerce", c.WebhookHandler.Receive)

		auth := v1.Group("/auth")
		{
			auth.POST("/login", c.AuthHandler.Login)
			auth.POST("/logout", c.AuthHandler.Logout)
			auth.GET("/check", c.AuthHandler.Check)
		}

		operator := v1.Group("", requireSession)
		{
			operator.POST("/sync/initial", c.SyncHandler.InitialSync)
			operator.GET("/sync/status", c.SyncHandler.Status)
			operator.GET("/catalog/generate", c.FeedHandler.Generate)
			operator.GET("/catalog", c.FeedHandler.Download)
		}
	}

	return router
}

func healthCheckHandler(c *container.Container) gin.HandlerFunc {
	return func(gc *gin.Context) {
		if err := c.DB.Ping(); err != nil {
			response.ErrorResponse(gc, http.StatusServiceUnavailable, "DB_DOWN", "cache store unreachable")
			return
		}

		response.Success(gc, http.StatusOK, gin.H{
			"name":        c.Config.App.Name,
			"version":     c.Config.App.Version,
			"environment": c.Config.App.Environment,
		})
	}
}
