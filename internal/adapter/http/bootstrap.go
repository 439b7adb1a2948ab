package http

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"taskmanager/internal/adapter/database"
	"taskmanager/internal/adapter/database/redis"
	"taskmanager/internal/adapter/http/middleware"
	"taskmanager/internal/adapter/http/routes"
	"taskmanager/internal/adapter/telemetry"
	"taskmanager/internal/core/port"
	coretelemetry "taskmanager/internal/core/telemetry"
	"taskmanager/pkg/config"
)

const (
	ServiceVersion  = "1.0.0"
	shutdownTimeout = 10 * time.Second
)

func StoreConfig(appConfig *config.AppConfig) database.Config {
	return database.Config{
		Driver: appConfig.Store.Driver,
		Redis: redis.Config{
			Addr:     appConfig.Store.RedisAddr,
			Password: appConfig.Store.RedisPassword,
			DB:       appConfig.Store.RedisDB,
			Prefix:   appConfig.Store.RedisPrefix,
		},
		SQLitePath:  appConfig.Store.DatabasePath,
		PostgresURL: appConfig.Store.DatabaseURL,
		LogQueries:  appConfig.Store.LogQueries,
	}
}

// StartServer wires telemetry, the store and the router, then serves until
// ctx is cancelled and shuts down gracefully.
func StartServer(ctx context.Context, appConfig *config.AppConfig, logger *config.LokiLogger) error {
	if appConfig.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}

	var (
		instrumentation port.Telemetry = coretelemetry.NewNoOpTelemetry()
		httpMetrics     middleware.RequestMetrics
		rateMetrics     config.RateLimitMetrics
	)

	if appConfig.TelemetryEnabled {
		container, err := telemetry.NewContainer(ctx, telemetry.Config{
			ServiceName:    appConfig.ServiceName,
			ServiceVersion: ServiceVersion,
			Environment:    appConfig.Environment,
			MetricsPort:    appConfig.MetricsPort,
			OTLPEndpoint:   appConfig.OTLPEndpoint,
		}, logger.Zap())

		if err != nil {
			return fmt.Errorf("initializing telemetry: %w", err)
		}

		defer func() {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
			defer cancel()

			if err := container.Shutdown(shutdownCtx); err != nil {
				logger.Zap().Error("Telemetry shutdown failed", zap.Error(err))
			}
		}()

		instrumentation = container.NewTelemetry()
		httpMetrics = container.AppMetrics
		rateMetrics = container.AppMetrics
	}

	stores, err := database.Open(ctx, StoreConfig(appConfig), instrumentation)

	if err != nil {
		return fmt.Errorf("opening %s store: %w", appConfig.Store.Driver, err)
	}

	defer stores.Close()

	container := NewContainer(stores, appConfig, instrumentation, rateMetrics, logger)
	router := routes.SetupRouterWithConfig(container.Handlers(), httpMetrics, logger, appConfig)

	srv := &http.Server{
		Addr:         ":" + appConfig.Port,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
	}

	logger.Zap().Info("Server starting",
		zap.String("port", appConfig.Port),
		zap.String("environment", appConfig.Environment),
		zap.String("store", appConfig.Store.Driver),
		zap.Bool("rate_limit_enabled", appConfig.RateLimitEnabled),
		zap.Bool("https_enforced", appConfig.EnforceHTTPS))

	serveErr := make(chan error, 1)

	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}

		close(serveErr)
	}()

	select {
	case err := <-serveErr:
		return err
	case <-ctx.Done():
	}

	logger.Zap().Info("Shutting down gracefully")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	return srv.Shutdown(shutdownCtx)
}
