package middleware

import (
	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"

	"taskmanager/internal/adapter/http/helper"
	"taskmanager/pkg/config"
)

// EnvironmentMiddleware flags development requests so error responses may
// carry internal details.
func EnvironmentMiddleware(appConfig *config.AppConfig) gin.HandlerFunc {
	development := appConfig.IsDevelopment()

	return func(c *gin.Context) {
		c.Set(helper.DevelopmentKey, development)
		c.Next()
	}
}

// SetupGinMiddleware installs the middleware shared by every route. Session
// auth and rate limiting are attached per route group.
func SetupGinMiddleware(router *gin.Engine, appConfig *config.AppConfig, metrics RequestMetrics, logger *config.LokiLogger) {
	router.Use(gin.Recovery())

	httpsEnforcer := config.NewHTTPSEnforcer(appConfig.EnforceHTTPS, logger.Zap())
	router.Use(httpsEnforcer.HTTPSMiddleware())

	if appConfig.TelemetryEnabled {
		router.Use(otelgin.Middleware(appConfig.ServiceName))
	}

	router.Use(CurrentMiddleware())
	router.Use(EnvironmentMiddleware(appConfig))
	router.Use(LoggingMiddleware(logger))

	if metrics != nil {
		router.Use(MetricsMiddleware(metrics))
	}

	router.Use(CORSMiddleware(appConfig.AllowedOrigins))
}
