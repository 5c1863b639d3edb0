package main

import (
	"context"
	"os/signal"
	"syscall"

	"market/crawler/internal/config"
	"market/crawler/internal/container"

	log "github.com/sirupsen/logrus"
)

func main() {
	log.Info("Starting market catalog crawler...")

	// Load configuration using viper
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}
	log.Info("Configuration loaded successfully")

	// Initialize container with all dependencies
	app, err := container.New(cfg)
	if err != nil {
		log.Fatalf("Failed to initialize container: %v", err)
	}
	defer app.Close()

	// An interrupted run can be resumed from the checkpoint with resume: true
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Run the crawl
	if err := app.Run(ctx); err != nil {
		log.Fatalf("Crawl exited with error: %v", err)
	}

	log.Info("Crawl finished successfully")
}
