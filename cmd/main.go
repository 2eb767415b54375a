package main

import (
	"context"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	_ "tenant-chat/docs"
	"tenant-chat/internal/activity"
	"tenant-chat/internal/api"
	"tenant-chat/internal/auth"
	"tenant-chat/internal/channel"
	"tenant-chat/internal/config"
	"tenant-chat/internal/dispatch"
	"tenant-chat/internal/metrics"
	"tenant-chat/internal/notify"
	"tenant-chat/internal/storage"
)

// @title Tenant Chat API
// @version 1.0
// @description Multi-tenant messaging backend with channel resolution and activity-ordered listings
// @host localhost:8080
// @BasePath /
// @schemes http

// @securityDefinitions.apikey ApiKeyAuth
// @in header
// @name Authorization
func main() {
	// Init Metrics
	metrics.Init()

	// Load Configuration
	cfg, err := config.LoadConfig("config.yaml")
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}
	log.Println("Configuration loaded")

	// Setup JWT Secret
	auth.SetSecret(cfg.Auth.JWTSecret)

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

	// Init RabbitMQ notification sink
	notifier, err := notify.NewNotifier(cfg.RabbitMQ.URL)
	if err != nil {
		log.Fatalf("Failed to connect to RabbitMQ: %v", err)
	}
	defer notifier.Close()
	log.Println("RabbitMQ connected")

	// Init Dispatcher
	dispatcher := dispatch.NewDispatcher(notifier.GetConnection(), notifier)

	// Start background loop for updating queue depth metrics
	go func() {
		ticker := time.NewTicker(10 * time.Second)
		defer ticker.Stop()

		for range ticker.C {
			for _, tenantID := range dispatcher.ListTenantIDs() {
				notifier.UpdateQueueDepth(tenantID)
			}
		}
	}()

	// Recover Existing Tenants
	ctx := context.Background()
	tenants, err := db.ListTenants(ctx)
	if err != nil {
		log.Fatalf("Failed to load tenants: %v", err)
	}
	for _, tenant := range tenants {
		if err := dispatcher.AddTenant(tenant, cfg.Dispatch.Workers); err != nil {
			log.Printf("Failed to recover tenant %s: %v", tenant.ID, err)
			continue
		}
		log.Printf("Recovered tenant %s", tenant.ID)
	}

	// Wire core services
	resolver := channel.NewResolver(db, db, cfg.Channels.MaxParticipants)
	lister := activity.NewService(db)

	// Init API
	apiHandler := api.NewAPI(db, resolver, lister, notifier, dispatcher, cfg)
	server := &http.Server{
		Addr:    cfg.Server.Addr,
		Handler: apiHandler.Router(),
	}

	// Graceful Shutdown Setup
	runCtx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	go func() {
		log.Printf("Starting API server on %s", cfg.Server.Addr)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Server error: %v", err)
		}
	}()

	<-runCtx.Done() // Wait for interrupt signal
	log.Println("Shutdown initiated...")

	// Shutdown sequence
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	// Stop HTTP server
	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Printf("HTTP shutdown error: %v", err)
	}

	// Stop all tenant dispatchers
	dispatcher.ShutdownAll()

	log.Println("Graceful shutdown complete")
}
