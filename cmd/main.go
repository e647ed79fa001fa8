package main

import (
	"context"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	_ "message-stats/docs"
	"message-stats/internal/api"
	"message-stats/internal/config"
	"message-stats/internal/ingest"
	"message-stats/internal/messaging"
	"message-stats/internal/metrics"
	"message-stats/internal/storage"
)

// @title Message Stats API
// @version 1.0
// @description Record-keeping API for customer transaction messages with filtering and stats
// @host localhost:8080
// @BasePath /
// @schemes http
func main() {
	// Init Metrics
	metrics.Init()

	// Load Configuration
	cfg, err := config.LoadConfig("config.yaml")
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}
	log.Println("Configuration loaded")

	// Init PostgreSQL
	db, err := storage.NewStorage(cfg.Database.URL)
	if err != nil {
		log.Fatalf("Failed to init DB: %v", err)
	}
	defer db.DB.Close()
	if err := db.EnsureSchema(); err != nil {
		log.Fatalf("Failed to ensure schema: %v", err)
	}
	log.Println("PostgreSQL connected")

	// Init RabbitMQ
	rabbitClient, err := messaging.NewRabbitClient(cfg.RabbitMQ.URL)
	if err != nil {
		log.Fatalf("Failed to connect to RabbitMQ: %v", err)
	}
	defer rabbitClient.Close()
	log.Println("RabbitMQ connected")

	// Start queue ingestion
	ingestMgr := ingest.NewManager(rabbitClient, db, cfg.Workers)
	if err := ingestMgr.Start(); err != nil {
		log.Fatalf("Failed to start ingest: %v", err)
	}

	// Background loop for updating the queue depth metric
	go func() {
		ticker := time.NewTicker(10 * time.Second)
		defer ticker.Stop()

		for range ticker.C {
			rabbitClient.UpdateQueueDepth()
		}
	}()

	// Init API
	apiHandler := api.NewAPI(db, cfg)
	server := &http.Server{
		Addr:    cfg.Server.Addr,
		Handler: apiHandler.Router(),
	}

	// Graceful Shutdown Setup
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	go func() {
		log.Printf("🚀 Starting API server on %s", cfg.Server.Addr)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Server error: %v", err)
		}
	}()

	<-ctx.Done() // Wait for interrupt signal
	log.Println("Shutdown initiated...")

	// Shutdown sequence
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	// Stop HTTP server
	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Printf("HTTP shutdown error: %v", err)
	}

	// Stop the ingest consumer and workers
	ingestMgr.Shutdown()

	log.Println("Graceful shutdown complete")
}
