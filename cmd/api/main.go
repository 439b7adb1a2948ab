package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	_ "github.com/joho/godotenv/autoload"
	"go.uber.org/zap"

	server "taskmanager/internal/adapter/http"
	"taskmanager/pkg/config"
)

func main() {
	appConfig, err := config.Load()

	if err != nil {
		log.Fatal("Failed to load configuration: ", err)
	}

	logger, err := config.NewLokiLogger(appConfig.ServiceName, appConfig.LokiURL)

	if err != nil {
		log.Fatal("Failed to initialize logger: ", err)
	}

	defer logger.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := server.StartServer(ctx, appConfig, logger); err != nil {
		logger.Zap().Error("Server stopped with error", zap.Error(err))
		os.Exit(1)
	}
}
