package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/alimgiray/gitlucky/internal/app"
	"github.com/alimgiray/gitlucky/pkg/config"
	"github.com/alimgiray/gitlucky/pkg/database"
	"github.com/alimgiray/gitlucky/pkg/logger"
	"github.com/gin-gonic/gin"
)

const shutdownTimeout = time.Minute

func main() {
	// Load configuration
	if err := config.Load(); err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}
	cfg := config.AppConfig

	logger.Init(cfg.Log.Level)
	gin.SetMode(cfg.Server.Mode)

	// Initialize database
	if err := database.Init(cfg.Database.Path); err != nil {
		logger.Fatalf("Failed to initialize database: %v", err)
	}
	defer database.Close()

	application, err := app.New(cfg, database.DB, app.Collaborators{})
	if err != nil {
		logger.Fatalf("Failed to build application: %v", err)
	}

	// Restore, start workers and serve
	serveErr := make(chan error, 1)
	go func() {
		serveErr <- application.Start()
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-quit:
		logger.Infof("Received %s, shutting down...", sig)
	case err := <-serveErr:
		if err != nil {
			logger.WithError(err).Error("Server stopped unexpectedly")
			database.Close()
			os.Exit(1)
		}
	}

	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := application.Shutdown(ctx); err != nil {
		logger.WithError(err).Error("Shutdown finished with errors")
	}
	logger.Infof("Server stopped")
}
