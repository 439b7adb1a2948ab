package http

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"taskmanager/internal/adapter/database"
	"taskmanager/internal/adapter/http/handler"
	"taskmanager/internal/adapter/http/helper"
	"taskmanager/internal/adapter/http/routes"
	"taskmanager/internal/core/port"
	"taskmanager/internal/core/service"
	"taskmanager/pkg/auth"
	"taskmanager/pkg/config"
	"taskmanager/pkg/tracing"
)

type Container struct {
	Stores *database.Stores

	TaskService port.TaskService
	AuthService port.AuthService
	Identity    port.IdentityProvider

	TaskHandler *handler.TaskHandler
	AuthHandler *handler.AuthHandler
	RateLimiter *config.RateLimiter
}

func NewContainer(stores *database.Stores, appConfig *config.AppConfig, telemetry port.Telemetry, rateMetrics config.RateLimitMetrics, logger *config.LokiLogger) *Container {
	taskSvc := service.NewTaskService(stores.Tasks, telemetry)
	authSvc := service.NewAuthService(stores.Users, logger.Zap())
	identity := auth.NewJWT(appConfig.JWTSecret, appConfig.SessionTTL)

	return &Container{
		Stores:      stores,
		TaskService: taskSvc,
		AuthService: authSvc,
		Identity:    identity,
		TaskHandler: handler.NewTaskHandler(taskSvc, logger),
		AuthHandler: handler.NewAuthHandler(authSvc, identity, handler.SessionCookie{
			TTL:    appConfig.SessionTTL,
			Secure: appConfig.IsProduction(),
		}, logger),
		RateLimiter: config.NewRateLimiter(appConfig.RateLimitConfigs, logger.Zap(), rateMetrics),
	}
}

func (c *Container) Handlers() routes.HandlersConfig {
	return routes.HandlersConfig{
		AuthHandler:   c.AuthHandler,
		TaskHandler:   c.TaskHandler,
		HealthHandler: c.Health,
		Identity:      c.Identity,
		RateLimiter:   c.RateLimiter,
	}
}

// Health reports whether the configured store answers a ping.
func (c *Container) Health(ctx *gin.Context) {
	err := tracing.HealthSpanWrapper(ctx.Request.Context(), "store", c.Stores.Ping)

	if err != nil {
		body := gin.H{"status": "unavailable"}

		if ctx.GetBool(helper.DevelopmentKey) {
			body["details"] = err.Error()
		}

		ctx.JSON(http.StatusServiceUnavailable, body)
		return
	}

	ctx.JSON(http.StatusOK, gin.H{"status": "ok"})
}
