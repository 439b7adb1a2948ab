package routes

import (
	"github.com/gin-gonic/gin"

	"taskmanager/internal/adapter/http/handler"
	"taskmanager/internal/adapter/http/middleware"
	"taskmanager/internal/core/port"
	"taskmanager/pkg/config"
)

type HandlersConfig struct {
	AuthHandler   *handler.AuthHandler
	TaskHandler   *handler.TaskHandler
	HealthHandler gin.HandlerFunc
	Identity      port.IdentityProvider
	RateLimiter   *config.RateLimiter
}

func SetupRouterWithConfig(handlers HandlersConfig, metrics middleware.RequestMetrics, logger *config.LokiLogger, appConfig *config.AppConfig) *gin.Engine {
	router := gin.New()

	middleware.SetupGinMiddleware(router, appConfig, metrics, logger)

	limit := func(c *gin.Context) { c.Next() }

	if appConfig.RateLimitEnabled && handlers.RateLimiter != nil {
		limit = handlers.RateLimiter.RateLimitMiddleware()
	}

	if handlers.HealthHandler != nil {
		router.GET("/healthz", handlers.HealthHandler)
	}

	if handlers.AuthHandler != nil {
		setupAuthRoutes(router, handlers, limit, logger)
	}

	if handlers.TaskHandler != nil {
		setupTaskRoutes(router, handlers, limit, logger)
	}

	return router
}

func setupAuthRoutes(router *gin.Engine, handlers HandlersConfig, limit gin.HandlerFunc, logger *config.LokiLogger) {
	public := router.Group("/auth")
	public.Use(limit)
	{
		public.POST("/signup", handlers.AuthHandler.SignUp)
		public.POST("/login", handlers.AuthHandler.Login)
		public.POST("/logout", handlers.AuthHandler.Logout)
	}

	router.GET("/auth/me", middleware.SessionAuth(handlers.Identity, logger.Zap()), limit, handlers.AuthHandler.Me)
}

func setupTaskRoutes(router *gin.Engine, handlers HandlersConfig, limit gin.HandlerFunc, logger *config.LokiLogger) {
	protected := router.Group("/tasks")
	protected.Use(middleware.SessionAuth(handlers.Identity, logger.Zap()))
	protected.Use(limit)
	{
		protected.GET("", handlers.TaskHandler.ListTasks)
		protected.POST("", handlers.TaskHandler.CreateTask)
		protected.GET("/:id", handlers.TaskHandler.GetTask)
		protected.PATCH("/:id", handlers.TaskHandler.UpdateTask)
		protected.DELETE("/:id", handlers.TaskHandler.DeleteTask)
	}
}
