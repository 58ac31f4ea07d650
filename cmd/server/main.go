package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"

	"github.com/cfech/github-dashboard/internal/api"
	"github.com/cfech/github-dashboard/internal/cache"
	"github.com/cfech/github-dashboard/internal/config"
	"github.com/cfech/github-dashboard/internal/github"
	"github.com/cfech/github-dashboard/internal/models"
)

func main() {
	// Load environment variables
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found")
	}

	// Initialize logger
	logger := logrus.New()
	logger.SetFormatter(&logrus.JSONFormatter{
		TimestampFormat: time.RFC3339,
	})
	logger.SetOutput(os.Stdout)

	// Load configuration with defaults
	cfg, err := config.Load()
	if err != nil {
		logger.Fatalf("Failed to load configuration: %v", err)
	}

	// A token is only optional when a snapshot substitutes for live fetches
	if cfg.GitHubToken == "" && !cfg.Cache.DebugMode {
		logger.Fatal("Missing required configuration (GITHUB_TOKEN must be set)")
	}

	scope := models.FetchScope{
		Organizations: cfg.TargetOrganizations,
		RepoLimit:     cfg.RepoFetchLimit,
		PRLimit:       cfg.PRFetchLimit,
		CommitLimit:   cfg.CommitFetchLimit,
	}

	// Wire the aggregation pipeline behind the cache layer
	transport := github.NewTransport(cfg.GitHub, logger)
	aggregator := github.NewAggregator(transport, logger, cfg.MaxConcurrentFetches)
	dashboardService := cache.NewService(cfg.Cache, aggregator, logger)

	handler := api.NewHandler(dashboardService, scope, logger)
	router := api.SetupRouter(handler)

	server := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 2 * time.Minute,
		IdleTimeout:  60 * time.Second,
	}

	// Start server in goroutine
	go func() {
		logger.Infof("Server starting on port %s", cfg.Port)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatalf("Server failed: %v", err)
		}
	}()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("Shutting down server...")
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Errorf("Server shutdown failed: %v", err)
	}
	logger.Info("Server exited properly")
}
